package recommend

import (
	"strings"
	"testing"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
)

func TestBuildCrossCuttingWarningsLaptopAndOffload(t *testing.T) {
	profile := rtx4090Profile()
	profile.FormFactor.IsLaptop = true
	profile.FormFactor.SustainedPerformanceRatio = 0.62
	profile.RAM.UsableForOffloadGB = 10

	offloaded := rankedFor(sdxlEntry())
	offloaded.Passing.ExecutionMode = ExecutionGPUOffload

	warnings := BuildCrossCuttingWarnings(profile, testUser(), []RankedCandidate{offloaded}, nil, "", 0)

	types := make(map[string]WarningSeverity)
	for _, w := range warnings {
		types[w.Type] = w.Severity
	}
	if sev, ok := types["laptop_thermal_throttling"]; !ok || sev != SeverityInfo {
		t.Errorf("expected an info laptop warning below 0.8 sustained ratio, got %v", types)
	}
	if sev, ok := types["cpu_offload_active"]; !ok || sev != SeverityInfo {
		t.Errorf("expected an info offload warning, got %v", types)
	}
	if sev, ok := types["low_offload_headroom"]; !ok || sev != SeverityWarning {
		t.Errorf("expected a low-headroom warning under 16GB usable offload RAM, got %v", types)
	}
}

func TestBuildCrossCuttingWarningsGGUFWithoutAVX2(t *testing.T) {
	profile := rtx4090Profile()
	profile.CPU.SupportsAVX2 = false

	gguf := rankedFor(sdxlEntry())
	warnings := BuildCrossCuttingWarnings(profile, testUser(), nil, []RankedCandidate{gguf}, "", 0)

	found := false
	for _, w := range warnings {
		if w.Type == "gguf_without_avx2" && w.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a GGUF-without-AVX2 warning, got %v", warnings)
	}
}

func TestBuildCrossCuttingWarningsSlowStorage(t *testing.T) {
	profile := rtx4090Profile()
	profile.Storage.Tier = hwprofile.StorageTierSlow
	user := testUser()
	user.SpeedPriority = 0.8

	warnings := BuildCrossCuttingWarnings(profile, user, nil, nil, "flux-dev", 170)

	found := false
	for _, w := range warnings {
		if w.Type == "slow_storage" {
			found = true
			if !strings.Contains(w.Message, "flux-dev") {
				t.Errorf("slow-storage warning should name the largest model, got %q", w.Message)
			}
		}
	}
	if !found {
		t.Errorf("expected a slow-storage warning with high speed priority, got %v", warnings)
	}
}

func TestExplainIncludesResolutionTrace(t *testing.T) {
	ranked := rankedFor(sdxlEntry())
	ranked.Passing.SelectedVariant = sdxlEntry().Variants[0]
	res := &ResolutionResult{Viable: true, Kind: ResolutionCPUOffload, PerformanceFactor: 0.2}
	scored := &ScoredCandidate{
		Passing:          ranked.Passing,
		MatchingFeatures: []string{"photorealism"},
		MissingFeatures:  []string{"pose_control"},
	}

	exp := Explain(rtx4090Profile(), ranked, scored, res, []RejectionReason{
		{ModelID: "flux-dev", Constraint: ConstraintVRAM, Detail: "too big"},
		{ModelID: "sdxl-base", Constraint: ConstraintVRAM, Detail: "self-rejection must be excluded"},
	})

	if exp.ResolutionTrace == "" {
		t.Error("expected a resolution trace when a cascade rescue applied")
	}
	if len(exp.MatchingFeatures) != 1 || exp.MatchingFeatures[0] != "photorealism" {
		t.Errorf("expected the content layer's matching features to carry through, got %v", exp.MatchingFeatures)
	}
	if !strings.Contains(exp.SelectionSummary, "CPU offload") {
		t.Errorf("selection summary should mention the resolution, got %q", exp.SelectionSummary)
	}
	for _, r := range exp.CompetingRejections {
		if r.ModelID == "sdxl-base" {
			t.Errorf("competing rejections must exclude the selected model itself")
		}
	}
}
