package recommend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oremus-labs/wsconfig-core/internal/logutil"
	"github.com/oremus-labs/wsconfig-core/internal/metrics"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

// Options configures a single Recommend call.
type Options struct {
	// UseCasePriorities maps a modality to a packing priority (lower number
	// = more important) for the space fitter. When nil, priority is derived
	// from the order modalities appear in the user's required-modality set.
	UseCasePriorities map[modelcatalog.Modality]int
	CascadeTopK       int
	UseCaseRegistry   map[string]userprofile.UseCase
}

func (o Options) topK() int {
	if o.CascadeTopK > 0 {
		return o.CascadeTopK
	}
	return DefaultCascadeTopK
}

func (o Options) registry() map[string]userprofile.UseCase {
	if o.UseCaseRegistry != nil {
		return o.UseCaseRegistry
	}
	return userprofile.DefaultUseCases
}

type modalityRun struct {
	modality   modelcatalog.Modality
	filter     FilterResult
	scored     []ScoredCandidate
	err        error
}

// Recommend is the pure top-level orchestrator: given a user
// profile, a hardware profile, and the process-wide catalog, it runs the
// full pipeline and returns a stable RecommendationResult.
func Recommend(ctx context.Context, user userprofile.UserProfile, profile *hw, catalog *modelcatalog.Catalog, opts Options) (result RecommendationResult, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveRecommendation(recommendationOutcome(err), time.Since(start))
	}()

	if err = user.Validate(); err != nil {
		return RecommendationResult{}, err
	}

	registry := opts.registry()
	modalities := toCatalogModalities(user.RequiredModalities(registry))
	if len(modalities) == 0 {
		return RecommendationResult{}, &InvariantViolated{Detail: "user profile resolved to zero required modalities"}
	}

	runs := make([]modalityRun, len(modalities))
	var wg sync.WaitGroup
	for i, m := range modalities {
		wg.Add(1)
		go func(i int, m modelcatalog.Modality) {
			defer wg.Done()
			runs[i] = runModality(ctx, m, profile, catalog, user)
		}(i, m)
	}
	wg.Wait()

	for _, r := range runs {
		if r.err != nil {
			return RecommendationResult{}, r.err
		}
	}

	// Aggregate per-modality content similarity per model id: the mean
	// across the modalities a candidate serves that the user also requested.
	byModel := make(map[string]map[modelcatalog.Modality]float64)
	scoredIndex := make(map[modelcatalog.Modality]map[string]ScoredCandidate)
	var allRejections []RejectionReason
	for _, r := range runs {
		allRejections = append(allRejections, r.filter.Rejected...)
		scoredIndex[r.modality] = make(map[string]ScoredCandidate, len(r.scored))
		for _, sc := range r.scored {
			if byModel[sc.Passing.ModelID] == nil {
				byModel[sc.Passing.ModelID] = make(map[modelcatalog.Modality]float64)
			}
			byModel[sc.Passing.ModelID][sc.Modality] = sc.Similarity
			scoredIndex[r.modality][sc.Passing.ModelID] = sc
		}
	}
	aggregated := make(map[string]float64, len(byModel))
	for id, sims := range byModel {
		aggregated[id] = AggregateContentSimilarity(sims)
	}

	topsisStart := time.Now()
	rankings := make(map[modelcatalog.Modality][]RankedCandidate, len(runs))
	for _, r := range runs {
		ranked, rankErr := RankCandidates(ctx, r.scored, aggregated, profile, user.SpeedPriority)
		if rankErr != nil {
			return RecommendationResult{}, rankErr
		}
		if len(ranked) == 0 {
			return RecommendationResult{}, &NoViableCandidates{Modality: r.modality}
		}
		rankings[r.modality] = ranked
	}
	metrics.ObservePipelineStage("topsis", time.Since(topsisStart))

	// Resolution cascade over the top-K per modality flagged requires_resolution.
	cascadeStart := time.Now()
	resolutions := make(map[string]ResolutionResult)
	for m, ranked := range rankings {
		k := opts.topK()
		for i := 0; i < len(ranked) && i < k; i++ {
			if !ranked[i].Passing.RequiresResolution {
				continue
			}
			res, resolveErr := Resolve(ctx, ranked[i], profile, catalog, user)
			if resolveErr != nil {
				return RecommendationResult{}, resolveErr
			}
			if res.Viable {
				applyResolution(&rankings[m][i], res, catalog, profile)
			}
			// Keyed by the post-resolution model id so the explainer finds
			// the trace for the model the manifest actually names.
			resolutions[rankings[m][i].Passing.ModelID] = res
		}
	}
	metrics.ObservePipelineStage("cascade", time.Since(cascadeStart))

	// Build the manifest from the top-ranked (primary) candidate per modality.
	var fitInputs []SpaceFitInput
	primaryByModality := make(map[modelcatalog.Modality]RankedCandidate)
	for _, m := range modalities {
		ranked := rankings[m]
		if len(ranked) == 0 {
			continue
		}
		primary := ranked[0]
		primaryByModality[m] = primary
		priority := priorityFromModalityCount(m, modalities)
		if p, ok := opts.UseCasePriorities[m]; ok {
			priority = p
		}
		fitInputs = append(fitInputs, SpaceFitInput{
			ModelID:        primary.Passing.ModelID,
			TotalSizeGB:    primary.Passing.Entry.Hardware.TotalSizeGB,
			CloudAvailable: primary.Passing.Entry.Cloud.Available,
			Priority:       priority,
		})
	}

	fit := AdjustForSpace(fitInputs, profile.Storage.FreeGB)
	kept := make(map[string]bool, len(fit.Kept))
	for _, id := range fit.Kept {
		kept[id] = true
	}

	manifest := Manifest{}
	var offloadSelections, ggufSelections []RankedCandidate
	reasoning := make(map[string]RecommendationExplanation)

	for _, m := range modalities {
		primary, ok := primaryByModality[m]
		if !ok || !kept[primary.Passing.ModelID] {
			continue
		}
		manifest.Selected = append(manifest.Selected, SelectedManifestEntry{
			ModelID:       primary.Passing.ModelID,
			VariantID:     primary.Passing.SelectedVariant.ID,
			ExecutionMode: primary.Passing.ExecutionMode,
		})
		manifest.TotalSizeGB += primary.Passing.Entry.Hardware.TotalSizeGB

		if primary.Passing.ExecutionMode == ExecutionGPUOffload {
			offloadSelections = append(offloadSelections, primary)
		}
		if primary.Passing.SelectedVariant.Precision.Kind == modelcatalog.PrecisionGGUF {
			ggufSelections = append(ggufSelections, primary)
		}

		var res *ResolutionResult
		if r, ok := resolutions[primary.Passing.ModelID]; ok {
			res = &r
		}
		var sc *ScoredCandidate
		if byID, ok := scoredIndex[m]; ok {
			if s, ok := byID[primary.Passing.ModelID]; ok {
				sc = &s
			}
		}
		reasoning[primary.Passing.ModelID] = Explain(profile, primary, sc, res, allRejections)
	}
	manifest.EstimatedInstallMinutes = estimateInstallMinutes(manifest.TotalSizeGB, profile.Storage.ReadMBps)

	slowestModel, slowestSeconds := slowestLoad(primaryByModality, kept, profile)
	warnings := BuildCrossCuttingWarnings(profile, user, offloadSelections, ggufSelections, slowestModel, slowestSeconds)
	for _, w := range profile.Warnings {
		warnings = append(warnings, HardwareWarning{
			Type:     "probe_failed",
			Severity: SeverityWarning,
			Title:    "Hardware detail unavailable",
			Message:  w.Error(),
		})
	}

	result = RecommendationResult{
		ID:                  uuid.NewString(),
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		PerModalityRankings: rankings,
		Manifest:            manifest,
		Warnings:            warnings,
		Reasoning:           reasoning,
		Rejections:          allRejections,
	}
	logutil.Info("recommendation computed", map[string]interface{}{"id": result.ID, "modalities": len(modalities), "selected": len(manifest.Selected)})
	return result, nil
}

// applyResolution rewrites a ranked candidate in place to reflect a
// successful cascade rescue, so the manifest describes the model, variant,
// and execution mode that will actually be installed. A substitution swaps
// the whole entry; a downgrade that now fits effective VRAM flips the mode
// back to native.
func applyResolution(rc *RankedCandidate, res ResolutionResult, catalog *modelcatalog.Catalog, profile *hw) {
	switch res.Kind {
	case ResolutionSubstitution:
		sub := catalog.Get(res.SubstitutedModelID)
		if sub == nil || res.SelectedVariant == nil {
			return
		}
		rc.Passing.ModelID = sub.ID
		rc.Passing.Entry = sub
		rc.Passing.SelectedVariant = *res.SelectedVariant
		rc.Passing.ExecutionMode = ExecutionGPUNative
		rc.Passing.RequiresResolution = false
	case ResolutionQuantizationDowngrade:
		if res.SelectedVariant == nil {
			return
		}
		rc.Passing.SelectedVariant = *res.SelectedVariant
		if res.SelectedVariant.VRAMMinMB/1024 <= profile.EffectiveVRAMGB {
			rc.Passing.ExecutionMode = ExecutionGPUNative
		}
	case ResolutionCPUOffload:
		if res.SelectedVariant != nil {
			rc.Passing.SelectedVariant = *res.SelectedVariant
		}
		rc.Passing.ExecutionMode = ExecutionGPUOffload
	case ResolutionCloud:
		rc.Passing.ExecutionMode = ExecutionCloud
		rc.Passing.SelectedVariant = modelcatalog.Variant{}
	}
}

func recommendationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errorsAs[*NoViableCandidates](err):
		return "no_viable_candidates"
	case errorsAs[*InvariantViolated](err):
		return "invariant_violated"
	case errorsAs[*Cancelled](err):
		return "cancelled"
	case errorsAs[*userprofile.ValidationError](err):
		return "validation_error"
	default:
		return "error"
	}
}

func errorsAs[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func runModality(ctx context.Context, m modelcatalog.Modality, profile *hw, catalog *modelcatalog.Catalog, user userprofile.UserProfile) modalityRun {
	candidates := catalog.CandidatesFor(m)

	constraintStart := time.Now()
	filter, err := FilterCandidates(ctx, candidates, profile, user)
	metrics.ObservePipelineStage("constraint", time.Since(constraintStart))
	if err != nil {
		return modalityRun{modality: m, err: err}
	}

	contentStart := time.Now()
	scored, err := ScoreCandidates(ctx, filter.Passing, m, user)
	metrics.ObservePipelineStage("content", time.Since(contentStart))
	if err != nil {
		return modalityRun{modality: m, err: err}
	}
	return modalityRun{modality: m, filter: filter, scored: scored}
}

func toCatalogModalities(mods []userprofile.Modality) []modelcatalog.Modality {
	out := make([]modelcatalog.Modality, len(mods))
	for i, m := range mods {
		out[i] = modelcatalog.Modality(m)
	}
	return out
}

func estimateInstallMinutes(totalSizeGB, readMBps float64) float64 {
	if readMBps <= 0 {
		return 0
	}
	return (totalSizeGB * 1024) / readMBps / 60
}

func slowestLoad(primaryByModality map[modelcatalog.Modality]RankedCandidate, kept map[string]bool, profile *hw) (string, float64) {
	if profile.Storage.ReadMBps <= 0 {
		return "", 0
	}
	var slowestModel string
	var slowestSeconds float64
	for _, primary := range primaryByModality {
		if !kept[primary.Passing.ModelID] {
			continue
		}
		loadTime := primary.Passing.Entry.Hardware.TotalSizeGB * 1024 / profile.Storage.ReadMBps
		if loadTime > slowestSeconds {
			slowestSeconds = loadTime
			slowestModel = primary.Passing.ModelID
		}
	}
	return slowestModel, slowestSeconds
}
