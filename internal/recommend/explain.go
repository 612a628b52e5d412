package recommend

import (
	"fmt"
	"sort"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

// Explain produces the human-readable reasoning for one ranked, resolved
// candidate: a selection summary, the hardware-fit narrative, the content
// layer's matching/missing feature lists, the resolution trace when a
// cascade rescue applied, and the top competing rejections.
func Explain(profile *hw, ranked RankedCandidate, scored *ScoredCandidate, resolution *ResolutionResult, rejections []RejectionReason) RecommendationExplanation {
	entry := ranked.Passing.Entry
	explanation := RecommendationExplanation{
		ModelID: ranked.Passing.ModelID,
	}
	if scored != nil {
		explanation.MatchingFeatures = scored.MatchingFeatures
		explanation.MissingFeatures = scored.MissingFeatures
	}

	explanation.SelectionSummary = selectionSummary(ranked, resolution)
	explanation.HardwareFit = hardwareFitNarrative(profile, ranked)
	if resolution != nil && resolution.Kind != ResolutionNone && resolution.Kind != "" {
		explanation.ResolutionTrace = resolutionTrace(*resolution)
	}
	explanation.CompetingRejections = topCompetingRejections(entry.ID, rejections, 3)

	return explanation
}

func selectionSummary(ranked RankedCandidate, resolution *ResolutionResult) string {
	name := ranked.Passing.Entry.Name
	if resolution != nil && resolution.Viable && resolution.Kind != ResolutionNone {
		return fmt.Sprintf("%s selected (rank %d) after %s.", name, ranked.Rank, resolutionKindLabel(resolution.Kind))
	}
	return fmt.Sprintf("%s selected as the top-ranked candidate (rank %d).", name, ranked.Rank)
}

func resolutionKindLabel(k ResolutionKind) string {
	switch k {
	case ResolutionQuantizationDowngrade:
		return "a quantization downgrade"
	case ResolutionCPUOffload:
		return "enabling CPU offload"
	case ResolutionSubstitution:
		return "substituting a lighter model in the same family"
	case ResolutionWorkflowOptimization:
		return "a workflow optimization"
	case ResolutionCloud:
		return "falling back to cloud execution"
	default:
		return "resolution"
	}
}

// hardwareFitNarrative phrases effective VRAM against the selected
// variant's requirement in margin buckets, so the wizard can show "how
// comfortably does this fit" rather than two raw numbers.
func hardwareFitNarrative(profile *hw, ranked RankedCandidate) string {
	variant := ranked.Passing.SelectedVariant
	if ranked.Passing.ExecutionMode == ExecutionCloud {
		return "runs remotely; no local VRAM requirement."
	}

	requiredGB := variant.VRAMMinMB / 1024
	note := fmt.Sprintf("requires %.1f GB VRAM (recommended %.1f GB) against %.1f GB effective", requiredGB, variant.VRAMRecommendedMB/1024, profile.EffectiveVRAMGB)
	if ranked.Passing.ExecutionMode == ExecutionGPUOffload {
		return note + "; layers spill to system RAM via CPU offload."
	}

	margin := profile.EffectiveVRAMGB - requiredGB
	switch {
	case margin >= 8:
		note += fmt.Sprintf("; ~%.0f GB headroom", margin)
	case margin >= 2:
		note += fmt.Sprintf("; fits with modest headroom (~%.0f GB)", margin)
	default:
		note += fmt.Sprintf("; VRAM margin is tight (~%.1f GB)", margin)
	}
	return note + "."
}

func resolutionTrace(resolution ResolutionResult) string {
	switch resolution.Kind {
	case ResolutionQuantizationDowngrade:
		return fmt.Sprintf("downgraded precision to fit available VRAM (quality impact %s)", resolution.QualityImpact)
	case ResolutionCPUOffload:
		return fmt.Sprintf("CPU offload active at roughly 1/%.0f of native throughput", 1/resolution.PerformanceFactor)
	case ResolutionSubstitution:
		return fmt.Sprintf("substituted with %s from the same family", resolution.SubstitutedModelID)
	case ResolutionWorkflowOptimization:
		return resolution.Message
	case ResolutionCloud:
		return resolution.Message
	default:
		return resolution.Message
	}
}

// topCompetingRejections returns the top-n rejections for models other than
// the selected one, ordered as given (matching-priority first per the
// caller's input ordering).
func topCompetingRejections(excludeModelID string, rejections []RejectionReason, n int) []RejectionReason {
	var out []RejectionReason
	for _, r := range rejections {
		if r.ModelID == excludeModelID {
			continue
		}
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}

// BuildCrossCuttingWarnings assembles the cross-cutting warnings for a
// completed recommendation run.
func BuildCrossCuttingWarnings(profile *hw, user userprofile.UserProfile, offloadSelections []RankedCandidate, ggufSelections []RankedCandidate, slowestLoadModel string, slowestLoadSeconds float64) []HardwareWarning {
	var warnings []HardwareWarning

	if profile.FormFactor.IsLaptop && profile.FormFactor.SustainedPerformanceRatio < 0.8 {
		warnings = append(warnings, HardwareWarning{
			Type:     "laptop_thermal_throttling",
			Severity: SeverityInfo,
			Title:    "Laptop thermal headroom",
			Message:  fmt.Sprintf("Sustained performance is estimated at %.0f%% of desktop throughput due to power/thermal limits.", profile.FormFactor.SustainedPerformanceRatio*100),
		})
	}

	if profile.Storage.Tier == hwprofile.StorageTierSlow && user.SpeedPriority >= 0.7 && slowestLoadModel != "" {
		warnings = append(warnings, HardwareWarning{
			Type:     "slow_storage",
			Severity: SeverityWarning,
			Title:    "Storage may slow model loading",
			Message:  fmt.Sprintf("Loading %s from this storage tier is estimated at ~%.0fs.", slowestLoadModel, slowestLoadSeconds),
		})
	}

	for _, r := range offloadSelections {
		warnings = append(warnings, HardwareWarning{
			Type:     "cpu_offload_active",
			Severity: SeverityInfo,
			Title:    "CPU offload in use",
			Message:  fmt.Sprintf("%s runs with CPU offload active, roughly 5x-10x slower than native GPU execution.", r.Passing.ModelID),
		})
	}

	if profile.RAM.UsableForOffloadGB < 16 && len(offloadSelections) > 0 {
		warnings = append(warnings, HardwareWarning{
			Type:     "low_offload_headroom",
			Severity: SeverityWarning,
			Title:    "Limited RAM headroom for offload",
			Message:  "Usable offload RAM is below 16 GB; CPU-offloaded models may run with reduced batch sizes.",
		})
	}

	if !profile.CPU.SupportsAVX2 && len(ggufSelections) > 0 {
		warnings = append(warnings, HardwareWarning{
			Type:     "gguf_without_avx2",
			Severity: SeverityWarning,
			Title:    "GGUF selected without AVX2",
			Message:  "This CPU lacks AVX2; GGUF inference kernels may run significantly slower than expected.",
		})
	}

	sort.SliceStable(warnings, func(i, j int) bool { return severityRank(warnings[i].Severity) < severityRank(warnings[j].Severity) })
	return warnings
}

func severityRank(s WarningSeverity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}
