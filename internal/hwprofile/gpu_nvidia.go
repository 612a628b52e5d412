package hwprofile

import (
	"context"
	"strconv"
	"strings"
)

// probeNVIDIA enumerates the primary NVIDIA device via
// `nvidia-smi --query-gpu=... --format=csv,noheader,nounits`.
func probeNVIDIA(ctx context.Context) (GPU, *ProbeFailed) {
	out, err := runCommand(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total,compute_cap,power.limit",
		"--format=csv,noheader,nounits")
	if err != nil {
		return GPU{}, &ProbeFailed{Field: "gpu", Cause: err}
	}

	fields := csvFields(firstLine(out))
	if len(fields) < 2 {
		return GPU{}, &ProbeFailed{Field: "gpu", Cause: &ParseError{Command: "nvidia-smi", Head: out}}
	}

	gpu := GPU{Vendor: "nvidia", Name: fields[0]}

	vramMB, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return GPU{}, &ProbeFailed{Field: "gpu.vram_gb", Cause: &ParseError{Command: "nvidia-smi", Head: out}}
	}
	gpu.VRAMGB = vramMB / 1024

	if len(fields) >= 3 {
		if maj, min, ok := parseComputeCapability(fields[2]); ok {
			gpu.ComputeCapabilityMaj = maj
			gpu.ComputeCapabilityMin = min
			gpu.HasComputeCapability = true
		}
	}

	applyNVIDIAFeatures(&gpu)

	if len(fields) >= 4 {
		if watts, err := strconv.ParseFloat(fields[3], 64); err == nil {
			gpu.powerLimitWatts = &watts
		}
	}

	return gpu, nil
}

// applyNVIDIAFeatures derives dtype/attention support from compute
// capability thresholds.
func applyNVIDIAFeatures(gpu *GPU) {
	if !gpu.HasComputeCapability {
		return
	}
	cc := gpu.CC()
	gpu.SupportsBF16 = cc >= 8.0
	gpu.FlashAttention = cc >= 8.0
	gpu.SupportsFP8 = cc >= 8.9
	gpu.SupportsFP4 = cc >= 12.0
}

func parseComputeCapability(raw string) (int, int, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	maj, err1 := strconv.Atoi(parts[0])
	min, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return maj, min, true
}

// isNVIDIALaptop infers laptop chassis from the power-limit/reference-TDP
// ratio: a limit below 85% of the reference TDP indicates a mobile part.
func isNVIDIALaptop(gpu GPU) bool {
	if gpu.powerLimitWatts == nil {
		return false
	}
	refTDP, _ := LookupReferenceTDP(gpu.Name)
	return *gpu.powerLimitWatts < refTDP*0.85
}
