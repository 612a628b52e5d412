package hwprofile

import (
	"context"
	"regexp"
	"strings"
)

// probeROCm parses rocm-smi output for an AMD device. AMD ROCm support is
// experimental; nothing in the returned GPU or the profile flags it as such.
// The sustained-performance ratio defaults to 1.0 on desktop since reference
// TDP tables are NVIDIA-only.
func probeROCm(ctx context.Context) (GPU, *ProbeFailed) {
	out, err := runCommand(ctx, "rocm-smi", "--showproductname", "--showmeminfo", "vram", "--csv")
	if err != nil {
		return GPU{}, &ProbeFailed{Field: "gpu", Cause: err}
	}

	name := extractROCmField(out, `(?i)Card series\s*:?\s*([^\n,]+)`)
	if name == "" {
		name = "AMD GPU (ROCm)"
	}
	vramBytes, _ := firstNumericToken("rocm-smi --showmeminfo vram", out)

	return GPU{
		Vendor:       "amd",
		Name:         name,
		VRAMGB:       vramBytes / (1024 * 1024 * 1024),
		SupportsBF16: true,
	}, nil
}

func extractROCmField(raw, pattern string) string {
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
