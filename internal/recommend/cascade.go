package recommend

import (
	"context"
	"fmt"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/metrics"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

// quantPreference lists precision identifiers in descending-quality order
// for a given platform. Apple Silicon excludes K-quants;
// "other" platforms (AMD ROCm, CPU-only) get the conservative default list.
func quantPreference(profile *hw) []string {
	switch {
	case profile.Platform == hwprofile.PlatformAppleSilicon:
		return []string{"fp16", "gguf_q8_0", "gguf_q5_0", "gguf_q4_0"}
	case (profile.Platform == hwprofile.PlatformNVIDIADesktop || profile.Platform == hwprofile.PlatformNVIDIALaptop) && profile.GPU.HasComputeCapability && profile.GPU.CC() >= 8.9:
		return []string{"fp16", "fp8", "gguf_q8", "gguf_q6", "gguf_q5_k_m", "gguf_q4_k_m"}
	default:
		return []string{"fp16", "gguf_q8", "gguf_q6", "gguf_q5_k_m", "gguf_q4_k_m"}
	}
}

// substitutionMap is the family-level substitution table consulted by
// step 3 of the cascade; declarative data rather than code branches.
var substitutionMap = map[string][]string{
	"wan-22-14b":      {"wan-ti2v-5b", "wan-21-1-3b"},
	"hunyuan-video":   {"animatediff", "svd-xt"},
	"flux-dev":        {"flux-schnell", "sdxl-base"},
	"sdxl-base":       {"sdxl-turbo", "sd15-base"},
}

// Resolve runs the five-stage resolution cascade on one ranked
// candidate flagged requires_resolution.
func Resolve(ctx context.Context, candidate RankedCandidate, profile *hw, catalog *modelcatalog.Catalog, user userprofile.UserProfile) (ResolutionResult, error) {
	if err := ctx.Err(); err != nil {
		return ResolutionResult{}, &Cancelled{}
	}

	entry := candidate.Passing.Entry
	if entry == nil {
		entry = catalog.Get(candidate.Passing.ModelID)
	}
	if entry == nil {
		return ResolutionResult{Viable: false, Message: "model no longer present in catalog"}, nil
	}

	if r, ok := quantizationDowngrade(entry, profile); ok {
		metrics.ObserveResolution(string(r.Kind))
		return r, nil
	}
	if r, ok := cpuOffload(entry, profile); ok {
		metrics.ObserveResolution(string(r.Kind))
		return r, nil
	}
	if r, ok := variantSubstitution(entry, catalog, profile); ok {
		metrics.ObserveResolution(string(r.Kind))
		return r, nil
	}
	// A workflow optimization caps batch size/resolution on a model that
	// already runs locally; it cannot rescue one with no local execution
	// path at all.
	if candidate.Passing.ExecutionMode != ExecutionCloud {
		if r, ok := workflowOptimization(entry); ok {
			metrics.ObserveResolution(string(r.Kind))
			return r, nil
		}
	}
	if r, ok := cloudOffload(entry, user); ok {
		metrics.ObserveResolution(string(r.Kind))
		return r, nil
	}

	metrics.ObserveResolution(string(ResolutionNone))
	message := "no rescue path available; consider a VRAM upgrade to reach the recommended tier for this model"
	if short := vramShortfallGB(entry, profile); short > 0 {
		message = fmt.Sprintf("no rescue path available; smallest supported variant is short by %.0f GB of VRAM (upgrade target %.0f GB or more)", short, profile.EffectiveVRAMGB+short)
	}
	return ResolutionResult{
		Viable:  false,
		Kind:    ResolutionNone,
		Message: message,
	}, nil
}

// vramShortfallGB reports how far the entry's smallest eligible variant is
// from fitting effective VRAM, for actionable upgrade guidance.
func vramShortfallGB(entry *modelcatalog.Entry, profile *hw) float64 {
	variants := eligibleVariants(entry, profile)
	if len(variants) == 0 {
		return 0
	}
	smallest := variants[0]
	for _, v := range variants {
		if v.VRAMMinMB < smallest.VRAMMinMB {
			smallest = v
		}
	}
	short := smallest.VRAMMinMB/1024 - profile.EffectiveVRAMGB
	if short < 0 {
		return 0
	}
	return short
}

// eligibleVariants applies the same platform/compute-capability filtering
// the constraint layer uses, so a cascade rescue can never select a variant
// the constraint layer would have rejected outright.
func eligibleVariants(entry *modelcatalog.Entry, profile *hw) []modelcatalog.Variant {
	platformKey := catalogPlatformKey(profile.Platform)
	variants := platformEligibleVariants(entry, profile, platformKey)
	return computeCapabilityEligibleVariants(variants, platformKey, profile)
}

func quantizationDowngrade(entry *modelcatalog.Entry, profile *hw) (ResolutionResult, bool) {
	preference := quantPreference(profile)
	variants := eligibleVariants(entry, profile)
	byPrecision := make(map[string]modelcatalog.Variant, len(variants))
	for _, v := range variants {
		byPrecision[normalizePrecisionKey(v.Precision)] = v
	}

	ceilingMB := profile.EffectiveVRAMGB * 1024
	for _, want := range preference {
		v, ok := byPrecision[want]
		if !ok {
			continue
		}
		if v.VRAMMinMB <= ceilingMB {
			selected := v
			return ResolutionResult{
				Viable:            true,
				Kind:              ResolutionQuantizationDowngrade,
				SelectedVariant:   &selected,
				PerformanceFactor: 1.0,
				QualityImpact:     qualityImpactLabel(v.QualityRetentionPercent),
			}, true
		}
	}
	return ResolutionResult{}, false
}

func normalizePrecisionKey(p modelcatalog.Precision) string {
	if p.Kind == modelcatalog.PrecisionGGUF {
		return "gguf_" + p.Quant
	}
	return string(p.Kind)
}

func qualityImpactLabel(qualityRetentionPercent float64) string {
	loss := 100 - qualityRetentionPercent
	if loss < 0 {
		loss = 0
	}
	return formatPercentLoss(loss)
}

func cpuOffload(entry *modelcatalog.Entry, profile *hw) (ResolutionResult, bool) {
	if !entry.Hardware.SupportsCPUOffload {
		return ResolutionResult{}, false
	}
	if profile.CPU.Tier != hwprofile.CPUTierHigh && profile.CPU.Tier != hwprofile.CPUTierMedium {
		return ResolutionResult{}, false
	}
	variants := eligibleVariants(entry, profile)
	if len(variants) == 0 {
		return ResolutionResult{}, false
	}

	smallest := variants[0]
	for _, v := range variants {
		if v.VRAMMinMB < smallest.VRAMMinMB {
			smallest = v
		}
	}
	requiredRAMGB := smallest.VRAMMinMB / 1024
	if entry.Hardware.RAMForOffloadGB != nil {
		requiredRAMGB = *entry.Hardware.RAMForOffloadGB
	}
	if smallest.Precision.Kind == modelcatalog.PrecisionGGUF && !profile.CPU.SupportsAVX2 {
		return ResolutionResult{}, false
	}
	if profile.RAM.UsableForOffloadGB < requiredRAMGB {
		return ResolutionResult{}, false
	}

	performanceFactor := 0.2
	if profile.CPU.Tier == hwprofile.CPUTierMedium {
		performanceFactor = 0.1
	}
	selected := smallest
	return ResolutionResult{
		Viable:            true,
		Kind:              ResolutionCPUOffload,
		SelectedVariant:   &selected,
		PerformanceFactor: performanceFactor,
		QualityImpact:     "unchanged",
	}, true
}

func variantSubstitution(entry *modelcatalog.Entry, catalog *modelcatalog.Catalog, profile *hw) (ResolutionResult, bool) {
	substitutes, ok := substitutionMap[entry.ID]
	if !ok {
		return ResolutionResult{}, false
	}
	for _, subID := range substitutes {
		subEntry := catalog.Get(subID)
		if subEntry == nil {
			continue
		}
		v, ok := bestFittingVariant(eligibleVariants(subEntry, profile), profile.EffectiveVRAMGB)
		if !ok {
			continue
		}
		// The substitute must clear the full constraint set, not just VRAM.
		if rej := checkStorageAndRAM(subEntry, profile, v, ExecutionGPUNative); rej != nil {
			continue
		}
		selected := v
		return ResolutionResult{
			Viable:             true,
			Kind:               ResolutionSubstitution,
			SubstitutedModelID: subID,
			SelectedVariant:    &selected,
			PerformanceFactor:  1.0,
			QualityImpact:      "different model family; see catalog entry for quality comparison",
		}, true
	}
	return ResolutionResult{}, false
}

func workflowOptimization(_ *modelcatalog.Entry) (ResolutionResult, bool) {
	return ResolutionResult{
		Viable:            true,
		Kind:              ResolutionWorkflowOptimization,
		PerformanceFactor: 1.0,
		Message:           "reduce batch size and output resolution to fit available resources",
	}, true
}

func cloudOffload(entry *modelcatalog.Entry, user userprofile.UserProfile) (ResolutionResult, bool) {
	if !entry.Cloud.Available || user.CloudWillingness == userprofile.CloudLocalOnly {
		return ResolutionResult{}, false
	}
	return ResolutionResult{
		Viable:            true,
		Kind:              ResolutionCloud,
		PerformanceFactor: 1.0,
		Message:           formatCloudCost(entry.Cloud.EstimatedCostPerGen, entry.Cloud.Service),
	}, true
}
