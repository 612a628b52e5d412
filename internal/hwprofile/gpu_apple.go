package hwprofile

import (
	"context"
	"fmt"
	"strings"
)

// probeAppleSilicon reads the chip model via sysctl and derives unified
// memory bandwidth from the chip lookup table. FP8 and flash-attention are
// not available on Apple's MPS backend. A chip missing from the table gets
// the conservative 100 GB/s default plus a recorded warning, never a silent
// one.
func probeAppleSilicon(ctx context.Context, ramTotalGB float64) (GPU, *ProbeFailed) {
	out, err := runCommand(ctx, "sysctl", "-n", "machdep.cpu.brand_string")
	chipModel := "Apple Silicon"
	if err == nil {
		chipModel = firstLine(out)
	}

	bandwidth, hit := LookupAppleBandwidth(chipModel)
	var warn *ProbeFailed
	if !hit {
		warn = &ProbeFailed{
			Field: "gpu.memory_bandwidth_gbps",
			Cause: fmt.Errorf("chip %q not in bandwidth table; assuming %.0f GB/s", chipModel, bandwidth),
		}
	}

	return GPU{
		Vendor:         "apple",
		Name:           chipModel,
		VRAMGB:         ramTotalGB * 0.75,
		UnifiedMemory:  true,
		SupportsFP8:    false,
		SupportsBF16:   true,
		SupportsFP4:    false,
		FlashAttention: false,
		MemoryBandwidthGBps: &bandwidth,
	}, warn
}

// probeAppleThermalState maps the macOS thermal advisory string to the
// {nominal, fair, serious, critical} states. pmset requires no
// elevated privileges for -g therm.
func probeAppleThermalState(ctx context.Context) ThermalState {
	out, err := runCommand(ctx, "pmset", "-g", "therm")
	if err != nil {
		return ThermalNominal
	}
	switch {
	case containsAny(out, "CPU_Scheduler_Limit = 0", "critical"):
		return ThermalCritical
	case containsAny(out, "speed_limit", "serious"):
		return ThermalSerious
	case containsAny(out, "fair"):
		return ThermalFair
	default:
		return ThermalNominal
	}
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
