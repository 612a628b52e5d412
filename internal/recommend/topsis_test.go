package recommend

import (
	"context"
	"testing"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
)

func scoredCandidateFixture(id string, totalSizeGB, ecosystem, approach float64, vramMinMB, vramRecMB float64, intensity string, similarity float64) ScoredCandidate {
	entry := &modelcatalog.Entry{
		ID:   id,
		Name: id,
		Hardware: modelcatalog.Hardware{
			TotalSizeGB:       totalSizeGB,
			ComputeIntensity:  intensity,
			EcosystemMaturity: ecosystem,
			ApproachFit:       approach,
		},
	}
	return ScoredCandidate{
		Passing: PassingCandidate{
			ModelID: id,
			Entry:   entry,
			SelectedVariant: modelcatalog.Variant{
				ID: id + "-variant", VRAMMinMB: vramMinMB, VRAMRecommendedMB: vramRecMB,
			},
			ExecutionMode: ExecutionGPUNative,
		},
		Modality:   modelcatalog.ModalityImage,
		Similarity: similarity,
	}
}

func desktopProfileForRanking() *hw {
	return &hw{
		Platform:        hwprofile.PlatformNVIDIADesktop,
		Storage:         hwprofile.Storage{ReadMBps: 7000, FreeGB: 1000},
		FormFactor:      hwprofile.FormFactor{SustainedPerformanceRatio: 1.0},
		EffectiveVRAMGB: 24,
	}
}

func TestRankCandidatesScoreRangeAndDensePermutation(t *testing.T) {
	scored := []ScoredCandidate{
		scoredCandidateFixture("a", 5, 0.8, 0.7, 6000, 8000, "medium", 0.9),
		scoredCandidateFixture("b", 8, 0.5, 0.5, 12000, 16000, "high", 0.4),
		scoredCandidateFixture("c", 20, 0.9, 0.9, 20000, 24000, "low", 0.1),
	}
	ranked, err := RankCandidates(context.Background(), scored, map[string]float64{}, desktopProfileForRanking(), 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked candidates, got %d", len(ranked))
	}
	seenRanks := make(map[int]bool)
	for _, r := range ranked {
		if r.TopsisScore < 0 || r.TopsisScore > 1 {
			t.Errorf("topsis score out of [0,1]: %v", r.TopsisScore)
		}
		seenRanks[r.Rank] = true
	}
	for rank := 1; rank <= 3; rank++ {
		if !seenRanks[rank] {
			t.Errorf("expected a dense rank permutation 1..3, missing rank %d", rank)
		}
	}
	for i := 0; i < len(ranked)-1; i++ {
		if ranked[i].TopsisScore < ranked[i+1].TopsisScore {
			t.Errorf("ranked candidates must be in descending closeness order at index %d", i)
		}
	}
}

func TestRankCandidatesDeterministic(t *testing.T) {
	scored := []ScoredCandidate{
		scoredCandidateFixture("a", 5, 0.8, 0.7, 6000, 8000, "medium", 0.9),
		scoredCandidateFixture("b", 8, 0.5, 0.5, 12000, 16000, "high", 0.4),
	}
	profile := desktopProfileForRanking()
	r1, _ := RankCandidates(context.Background(), scored, map[string]float64{}, profile, 0.5)
	r2, _ := RankCandidates(context.Background(), scored, map[string]float64{}, profile, 0.5)
	if len(r1) != len(r2) {
		t.Fatalf("non-deterministic length")
	}
	for i := range r1 {
		if r1[i].Passing.ModelID != r2[i].Passing.ModelID || r1[i].TopsisScore != r2[i].TopsisScore {
			t.Errorf("non-deterministic ranking at index %d: %v vs %v", i, r1[i], r2[i])
		}
	}
}

func TestWeightsForSwitchesAboveSpeedPriorityThreshold(t *testing.T) {
	w := WeightsFor(0.5)
	if w != DefaultWeights {
		t.Errorf("expected default weights below 0.7, got %v", w)
	}
	w2 := WeightsFor(0.7)
	if w2 != SpeedPriorityWeights {
		t.Errorf("expected speed-priority weights at 0.7, got %v", w2)
	}
}

func TestHardwareFitFormFactorPenalty(t *testing.T) {
	profile := desktopProfileForRanking()
	profile.FormFactor.SustainedPerformanceRatio = 0.62
	c := scoredCandidateFixture("x", 5, 0.5, 0.5, 8000, 8000, "high", 0.5)
	fit := hardwareFit(c, profile)
	if fit > 0.63 {
		t.Errorf("expected high compute_intensity to be penalized by sustained ratio 0.62, got %v", fit)
	}
}

func TestSpeedFitNeutralBelowThreshold(t *testing.T) {
	profile := desktopProfileForRanking()
	c := scoredCandidateFixture("x", 1000, 0.5, 0.5, 8000, 8000, "medium", 0.5)
	if got := speedFit(c, profile, 0.1); got != 0.7 {
		t.Errorf("expected neutral 0.7 speed_fit below priority threshold, got %v", got)
	}
}

func TestSpeedFitTensorRTBonus(t *testing.T) {
	profile := desktopProfileForRanking()
	c := scoredCandidateFixture("x", 200, 0.5, 0.5, 8000, 8000, "medium", 0.5)
	c.Passing.Entry.Hardware.SupportsTensorRT = true
	withBonus := speedFit(c, profile, 0.8)
	c.Passing.Entry.Hardware.SupportsTensorRT = false
	withoutBonus := speedFit(c, profile, 0.8)
	if withBonus <= withoutBonus {
		t.Errorf("expected TensorRT to add a speed_fit bonus on NVIDIA, got %v vs %v", withBonus, withoutBonus)
	}
}
