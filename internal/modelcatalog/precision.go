package modelcatalog

import (
	"encoding/json"
	"strings"
)

// PrecisionKind discriminates the Precision tagged union.
type PrecisionKind string

const (
	PrecisionFP16    PrecisionKind = "fp16"
	PrecisionFP8     PrecisionKind = "fp8"
	PrecisionGGUF    PrecisionKind = "gguf"
	PrecisionUnknown PrecisionKind = "unknown"
)

// Precision is FP16 | FP8 | GGUF{Quant}. GGUF carries its quantization
// string (e.g. "q4_k_m") so K-quant exclusion can pattern-match
// on it without re-parsing the raw string everywhere.
type Precision struct {
	Kind  PrecisionKind
	Quant string // only set when Kind == PrecisionGGUF
	Raw   string // original catalog string, always set
}

// IsKQuant reports whether this is a GGUF K-quant variant ("k_m"/"k_s"),
// whose kernels are unstable on Apple's MPS backend and excluded there.
func (p Precision) IsKQuant() bool {
	return p.Kind == PrecisionGGUF && (strings.Contains(p.Quant, "k_m") || strings.Contains(p.Quant, "k_s"))
}

// NeedsFP8 reports whether this precision requires FP8 tensor core support.
func (p Precision) NeedsFP8() bool {
	return p.Kind == PrecisionFP8
}

func (p Precision) String() string {
	return p.Raw
}

// UnmarshalJSON decodes a catalog precision string into the tagged union.
// Unrecognized strings decode as PrecisionUnknown rather than failing the
// whole catalog load: an unrecognized precision is forward-compat data
// the loader warns about, not a missing required field.
func (p *Precision) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePrecision(raw)
	return nil
}

// MarshalJSON re-emits the original catalog string.
func (p Precision) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Raw)
}

// ParsePrecision classifies a raw catalog precision string.
func ParsePrecision(raw string) Precision {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "fp16":
		return Precision{Kind: PrecisionFP16, Raw: raw}
	case lower == "fp8":
		return Precision{Kind: PrecisionFP8, Raw: raw}
	case strings.HasPrefix(lower, "gguf_"):
		return Precision{Kind: PrecisionGGUF, Quant: strings.TrimPrefix(lower, "gguf_"), Raw: raw}
	default:
		return Precision{Kind: PrecisionUnknown, Raw: raw}
	}
}
