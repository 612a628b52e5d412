package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
)

// Weights are the five TOPSIS criterion weights; must sum to 1.0.
type Weights struct {
	ContentSimilarity float64 `json:"contentSimilarity"`
	HardwareFit       float64 `json:"hardwareFit"`
	SpeedFit          float64 `json:"speedFit"`
	EcosystemMaturity float64 `json:"ecosystemMaturity"`
	ApproachFit       float64 `json:"approachFit"`
}

// DefaultWeights is used when the user has not prioritized speed.
var DefaultWeights = Weights{ContentSimilarity: 0.35, HardwareFit: 0.25, SpeedFit: 0.15, EcosystemMaturity: 0.15, ApproachFit: 0.10}

// SpeedPriorityWeights replaces DefaultWeights when speed_priority >= 0.7.
var SpeedPriorityWeights = Weights{ContentSimilarity: 0.25, HardwareFit: 0.20, SpeedFit: 0.30, EcosystemMaturity: 0.15, ApproachFit: 0.10}

// WeightsFor selects the active weight set for a given speed priority.
func WeightsFor(speedPriority float64) Weights {
	if speedPriority >= 0.7 {
		return SpeedPriorityWeights
	}
	return DefaultWeights
}

func (w Weights) asVector() []float64 {
	return []float64{w.ContentSimilarity, w.HardwareFit, w.SpeedFit, w.EcosystemMaturity, w.ApproachFit}
}

// hardwareFit computes the hardware_fit criterion for the
// candidate's selected variant.
func hardwareFit(candidate ScoredCandidate, profile *hw) float64 {
	entry := candidate.Passing.Entry
	variant := candidate.Passing.SelectedVariant

	// Cloud execution has no local hardware dependency: no VRAM fit, no MPS
	// penalty, no form-factor penalty.
	if candidate.Passing.ExecutionMode == ExecutionCloud {
		return 1.0
	}

	var fit float64
	switch {
	case variant.VRAMMinMB == 0 && variant.VRAMRecommendedMB == 0:
		fit = 1.0
	case profile.EffectiveVRAMGB >= variant.VRAMRecommendedMB/1024:
		fit = 1.0
	default:
		vramMinGB := variant.VRAMMinMB / 1024
		vramRecGB := variant.VRAMRecommendedMB / 1024
		if vramRecGB <= vramMinGB {
			fit = 1.0
		} else {
			fit = 0.5 + 0.5*(profile.EffectiveVRAMGB-vramMinGB)/(vramRecGB-vramMinGB)
		}
		fit = clamp01(fit)
	}

	if profile.Platform == hwprofile.PlatformAppleSilicon {
		fit *= 1 - entry.Capabilities.MPSPerformancePenalty
	}

	ratio := profile.FormFactor.SustainedPerformanceRatio
	switch entry.Hardware.ComputeIntensity {
	case "high":
		fit *= ratio
	case "medium":
		fit *= (1 + ratio) / 2
	}

	return clamp01(fit)
}

// speedFit computes the speed_fit criterion from estimated load time.
func speedFit(candidate ScoredCandidate, profile *hw, speedPriority float64) float64 {
	if speedPriority < 0.3 {
		return 0.7
	}
	entry := candidate.Passing.Entry
	if profile.Storage.ReadMBps <= 0 {
		return 0.2
	}
	loadTimeS := entry.Hardware.TotalSizeGB * 1024 / profile.Storage.ReadMBps

	var fit float64
	switch {
	case loadTimeS <= 5:
		fit = 1.0
	case loadTimeS <= 15:
		fit = 0.8
	case loadTimeS <= 30:
		fit = 0.6
	case loadTimeS <= 60:
		fit = 0.4
	default:
		fit = 0.2
	}

	isNVIDIA := profile.Platform == hwprofile.PlatformNVIDIADesktop || profile.Platform == hwprofile.PlatformNVIDIALaptop
	if entry.Hardware.SupportsTensorRT && isNVIDIA {
		fit = clamp01(fit + 0.1)
	}
	return fit
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RankCandidates runs TOPSIS over the scored candidates of one modality,
// using the already-aggregated content_similarity for any candidate that
// spans multiple requested modalities.
func RankCandidates(ctx context.Context, scored []ScoredCandidate, contentSimilarity map[string]float64, profile *hw, speedPriority float64) ([]RankedCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Cancelled{}
	}
	if len(scored) == 0 {
		return nil, nil
	}

	weights := WeightsFor(speedPriority)
	n := len(scored)
	matrix := make([][5]float64, n)
	for i, c := range scored {
		cs := c.Similarity
		if v, ok := contentSimilarity[c.Passing.ModelID]; ok {
			cs = v
		}
		matrix[i] = [5]float64{
			cs,
			hardwareFit(c, profile),
			speedFit(c, profile, speedPriority),
			c.Passing.Entry.Hardware.EcosystemMaturity,
			c.Passing.Entry.Hardware.ApproachFit,
		}
	}

	// Vector-normalize each column.
	var colNorm [5]float64
	for j := 0; j < 5; j++ {
		var sumSq float64
		for i := 0; i < n; i++ {
			sumSq += matrix[i][j] * matrix[i][j]
		}
		colNorm[j] = math.Sqrt(sumSq)
	}

	weighted := make([][5]float64, n)
	wv := weights.asVector()
	for i := 0; i < n; i++ {
		for j := 0; j < 5; j++ {
			var normalized float64
			if colNorm[j] > 0 {
				normalized = matrix[i][j] / colNorm[j]
			}
			weighted[i][j] = normalized * wv[j]
		}
	}

	var ideal, antiIdeal [5]float64
	for j := 0; j < 5; j++ {
		ideal[j] = weighted[0][j]
		antiIdeal[j] = weighted[0][j]
		for i := 1; i < n; i++ {
			if weighted[i][j] > ideal[j] {
				ideal[j] = weighted[i][j]
			}
			if weighted[i][j] < antiIdeal[j] {
				antiIdeal[j] = weighted[i][j]
			}
		}
	}

	ranked := make([]RankedCandidate, n)
	for i, c := range scored {
		var dPlus, dMinus float64
		for j := 0; j < 5; j++ {
			dPlus += (weighted[i][j] - ideal[j]) * (weighted[i][j] - ideal[j])
			dMinus += (weighted[i][j] - antiIdeal[j]) * (weighted[i][j] - antiIdeal[j])
		}
		dPlus = math.Sqrt(dPlus)
		dMinus = math.Sqrt(dMinus)
		closeness := dMinus / (dPlus + dMinus + topsisEpsilon)

		ranked[i] = RankedCandidate{
			Passing:     c.Passing,
			TopsisScore: closeness,
			Criteria: CriteriaScores{
				ContentSimilarity: matrix[i][0],
				HardwareFit:       matrix[i][1],
				SpeedFit:          matrix[i][2],
				EcosystemMaturity: matrix[i][3],
				ApproachFit:       matrix[i][4],
			},
			Weights: weights,
		}
	}

	// Sort descending by closeness; tie-break by catalog (input) order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TopsisScore > ranked[j].TopsisScore
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}
