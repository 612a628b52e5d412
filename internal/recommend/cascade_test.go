package recommend

import (
	"context"
	"testing"

	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
)

const substitutionFixtureCatalog = `[
  {
    "id": "wan-ti2v-5b",
    "family": "wan",
    "name": "Wan TI2V 5B",
    "variants": [
      {"id": "wan-ti2v-5b-fp16", "precision": "fp16", "vramMinMb": 12000, "vramRecommendedMb": 16000,
       "platformSupport": {"nvidia": {"supported": true}}}
    ],
    "capabilities": {"primary": ["video"], "scores": {"motion_quality": 0.72}},
    "hardware": {"totalSizeGb": 10, "computeIntensity": "medium", "supportsCpuOffload": true},
    "cloud": {"available": false}
  }
]`

func wan22Entry() *modelcatalog.Entry {
	return &modelcatalog.Entry{
		ID:     "wan-22-14b",
		Family: "wan",
		Name:   "Wan 2.2 14B",
		Variants: []modelcatalog.Variant{
			{ID: "wan-22-14b-fp16", Precision: modelcatalog.ParsePrecision("fp16"), VRAMMinMB: 40000, VRAMRecommendedMB: 48000,
				PlatformSupport: map[string]modelcatalog.PlatformSupport{"nvidia": {Supported: true}}},
		},
		Capabilities: modelcatalog.Capabilities{Primary: []string{"video"}, Scores: map[string]float64{"motion_quality": 0.85}},
		Hardware:     modelcatalog.Hardware{TotalSizeGB: 28, ComputeIntensity: "high"},
		Cloud:        modelcatalog.Cloud{Available: true, Service: "replicate", EstimatedCostPerGen: 0.08},
	}
}

func rankedFor(entry *modelcatalog.Entry) RankedCandidate {
	return RankedCandidate{
		Passing: PassingCandidate{ModelID: entry.ID, Entry: entry, RequiresResolution: true},
		Rank:    1,
	}
}

func TestResolveQuantizationDowngradeAppleSelectsNonKQuant(t *testing.T) {
	profile := appleSiliconProfile(6.0)
	res, err := Resolve(context.Background(), rankedFor(sdxlEntry()), profile, modelcatalog.New(), testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Viable || res.Kind != ResolutionQuantizationDowngrade {
		t.Fatalf("expected a viable quantization downgrade, got %+v", res)
	}
	if res.SelectedVariant == nil || res.SelectedVariant.ID != "sdxl-q4-0" {
		t.Errorf("expected the q4_0 variant (the only non-K quant fitting 6GB), got %+v", res.SelectedVariant)
	}
}

func TestResolveCPUOffloadWhenNoVariantFits(t *testing.T) {
	profile := rtx4090Profile()
	profile.EffectiveVRAMGB = 2
	profile.RAM.UsableForOffloadGB = 20

	res, err := Resolve(context.Background(), rankedFor(sdxlEntry()), profile, modelcatalog.New(), testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Viable || res.Kind != ResolutionCPUOffload {
		t.Fatalf("expected CPU offload resolution, got %+v", res)
	}
	if res.PerformanceFactor != 0.2 {
		t.Errorf("expected 1/5 performance factor for a HIGH-tier CPU, got %v", res.PerformanceFactor)
	}
	if res.QualityImpact != "unchanged" {
		t.Errorf("offload must not change quality, got %q", res.QualityImpact)
	}
}

func TestResolveSubstitutionConsultsFamilyMap(t *testing.T) {
	catalog := modelcatalog.New()
	if err := catalog.LoadBytes([]byte(substitutionFixtureCatalog)); err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}

	res, err := Resolve(context.Background(), rankedFor(wan22Entry()), rtx4090Profile(), catalog, testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Viable || res.Kind != ResolutionSubstitution {
		t.Fatalf("expected a substitution resolution, got %+v", res)
	}
	if res.SubstitutedModelID != "wan-ti2v-5b" {
		t.Errorf("expected wan-ti2v-5b substitute, got %s", res.SubstitutedModelID)
	}
}

func TestResolveFallsBackToWorkflowOptimization(t *testing.T) {
	entry := &modelcatalog.Entry{
		ID:   "unrescuable",
		Name: "Unrescuable",
		Variants: []modelcatalog.Variant{
			{ID: "big-fp16", Precision: modelcatalog.ParsePrecision("fp16"), VRAMMinMB: 90000, VRAMRecommendedMB: 90000,
				PlatformSupport: map[string]modelcatalog.PlatformSupport{"nvidia": {Supported: true}}},
		},
		Capabilities: modelcatalog.Capabilities{Primary: []string{"video"}},
		Hardware:     modelcatalog.Hardware{TotalSizeGB: 60, ComputeIntensity: "high", SupportsCPUOffload: false},
		Cloud:        modelcatalog.Cloud{Available: false},
	}

	res, err := Resolve(context.Background(), rankedFor(entry), rtx4090Profile(), modelcatalog.New(), testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Viable || res.Kind != ResolutionWorkflowOptimization {
		t.Fatalf("expected workflow optimization fallback, got %+v", res)
	}
	if res.PerformanceFactor != 1.0 {
		t.Errorf("workflow optimization must not change performance, got %v", res.PerformanceFactor)
	}
}

func TestQuantPreferenceAppleExcludesKQuants(t *testing.T) {
	for _, p := range quantPreference(appleSiliconProfile(8)) {
		if p == "gguf_q5_k_m" || p == "gguf_q4_k_m" {
			t.Errorf("apple preference list must not contain K-quant %s", p)
		}
	}
}
