package recommend

import (
	"context"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/metrics"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

// FilterResult is the output of the constraint layer: every candidate
// ends up in exactly one of the two slices.
type FilterResult struct {
	Passing  []PassingCandidate
	Rejected []RejectionReason
}

// FilterCandidates runs the ordered CSP checks over every entry
// serving the given modality, returning a passing candidate or a single
// rejection reason per entry.
func FilterCandidates(ctx context.Context, entries []*modelcatalog.Entry, profile *hw, user userprofile.UserProfile) (FilterResult, error) {
	result := FilterResult{}
	platformKey := catalogPlatformKey(profile.Platform)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return FilterResult{}, &Cancelled{}
		}

		passing, rejection := filterOne(entry, profile, platformKey, user)
		if rejection != nil {
			metrics.ObserveRejection(string(rejection.Constraint))
			result.Rejected = append(result.Rejected, *rejection)
			continue
		}
		result.Passing = append(result.Passing, *passing)
	}
	return result, nil
}

func filterOne(entry *modelcatalog.Entry, profile *hw, platformKey string, user userprofile.UserProfile) (*PassingCandidate, *RejectionReason) {
	// 1. Platform compatibility + Apple Silicon exclusions + K-quant filter.
	// Platform and compute-capability rejections are final: the cloud escape
	// applies only to the VRAM path, so an explicitly excluded model (e.g.
	// HunyuanVideo on Apple Silicon) never reappears as a cloud plan.
	variants := platformEligibleVariants(entry, profile, platformKey)
	if len(variants) == 0 {
		// cpu_only has no catalog platform key, so nothing can run locally;
		// cloud is the one execution path such a machine still has.
		if platformKey == "" {
			if escaped := cloudEscape(entry, user); escaped != nil {
				return escaped, nil
			}
		}
		return nil, &RejectionReason{ModelID: entry.ID, Constraint: ConstraintPlatform, Detail: "no variant declares support for this platform"}
	}

	// 2. Compute capability.
	variants = computeCapabilityEligibleVariants(variants, platformKey, profile)
	if len(variants) == 0 {
		return nil, &RejectionReason{ModelID: entry.ID, Constraint: ConstraintComputeCapability, Detail: "no variant's minimum compute capability is met"}
	}

	// 3. VRAM: pick the highest-quality variant (catalog order) that fits natively.
	if v, ok := bestFittingVariant(variants, profile.EffectiveVRAMGB); ok {
		v = speedPreferredVariant(v, variants, profile, user.SpeedPriority)
		if rej := checkStorageAndRAM(entry, profile, v, ExecutionGPUNative); rej != nil {
			return nil, rej
		}
		return &PassingCandidate{ModelID: entry.ID, Entry: entry, SelectedVariant: v, ExecutionMode: ExecutionGPUNative}, nil
	}

	// 4. Offload rescue.
	if v, ok := offloadRescueVariant(entry, variants, profile); ok {
		if rej := checkStorageAndRAM(entry, profile, v, ExecutionGPUOffload); rej != nil {
			return nil, rej
		}
		return &PassingCandidate{ModelID: entry.ID, Entry: entry, SelectedVariant: v, ExecutionMode: ExecutionGPUOffload, RequiresResolution: true}, nil
	}

	// 7. Cloud escape for the VRAM rejection.
	if escaped := cloudEscape(entry, user); escaped != nil {
		return escaped, nil
	}
	return nil, &RejectionReason{
		ModelID:    entry.ID,
		Constraint: ConstraintVRAM,
		Detail:     "no variant fits effective VRAM natively or via offload",
		Required:   variants[0].VRAMMinMB / 1024,
		Available:  profile.EffectiveVRAMGB,
	}
}

// platformEligibleVariants implements check 1: platform support, Apple
// Silicon explicit exclusions, and the Apple Silicon K-quant filter (only
// q8_0/q5_0/q4_0 survive).
func platformEligibleVariants(entry *modelcatalog.Entry, profile *hw, platformKey string) []modelcatalog.Variant {
	if platformKey == "" {
		return nil
	}
	for _, excluded := range entry.Incompatibilities.Platforms {
		if excluded == string(profile.Platform) {
			return nil
		}
	}

	var out []modelcatalog.Variant
	for _, v := range entry.Variants {
		support, declared := v.PlatformSupport[platformKey]
		if !declared || !support.Supported {
			continue
		}
		if profile.Platform == hwprofile.PlatformAppleSilicon && v.Precision.Kind == modelcatalog.PrecisionGGUF && v.Precision.IsKQuant() {
			continue
		}
		out = append(out, v)
	}
	return out
}

// computeCapabilityEligibleVariants implements check 2.
func computeCapabilityEligibleVariants(variants []modelcatalog.Variant, platformKey string, profile *hw) []modelcatalog.Variant {
	var out []modelcatalog.Variant
	for _, v := range variants {
		support := v.PlatformSupport[platformKey]
		if support.MinComputeCapability == nil {
			out = append(out, v)
			continue
		}
		if !profile.GPU.HasComputeCapability {
			continue
		}
		if profile.GPU.CC() >= *support.MinComputeCapability {
			out = append(out, v)
		}
	}
	return out
}

// bestFittingVariant implements check 3: the first (highest-quality,
// catalog order) variant whose vram_min_mb/1024 <= effective VRAM.
func bestFittingVariant(variants []modelcatalog.Variant, effectiveVRAMGB float64) (modelcatalog.Variant, bool) {
	for _, v := range variants {
		if v.VRAMMinMB/1024 <= effectiveVRAMGB {
			return v, true
		}
	}
	return modelcatalog.Variant{}, false
}

// speedPreferredVariant swaps a selected FP16 build for a fitting FP8 one
// when the user leans speed: FP8 halves memory traffic per weight at the
// variant's declared quality retention.
func speedPreferredVariant(selected modelcatalog.Variant, variants []modelcatalog.Variant, profile *hw, speedPriority float64) modelcatalog.Variant {
	if speedPriority < 0.6 || selected.Precision.Kind != modelcatalog.PrecisionFP16 {
		return selected
	}
	for _, v := range variants {
		if v.Precision.Kind == modelcatalog.PrecisionFP8 && v.VRAMMinMB/1024 <= profile.EffectiveVRAMGB {
			return v
		}
	}
	return selected
}

// offloadRescueVariant implements check 4. The smallest (last in catalog
// order) variant's vram_min_mb sets the default RAM requirement when the
// entry does not declare ram_for_offload_gb explicitly.
func offloadRescueVariant(entry *modelcatalog.Entry, variants []modelcatalog.Variant, profile *hw) (modelcatalog.Variant, bool) {
	if !entry.Hardware.SupportsCPUOffload {
		return modelcatalog.Variant{}, false
	}
	if profile.CPU.Tier != hwprofile.CPUTierHigh && profile.CPU.Tier != hwprofile.CPUTierMedium {
		return modelcatalog.Variant{}, false
	}
	if len(variants) == 0 {
		return modelcatalog.Variant{}, false
	}
	smallest := variants[len(variants)-1]
	for _, v := range variants {
		if v.VRAMMinMB < smallest.VRAMMinMB {
			smallest = v
		}
	}

	requiredRAMGB := smallest.VRAMMinMB / 1024
	if entry.Hardware.RAMForOffloadGB != nil {
		requiredRAMGB = *entry.Hardware.RAMForOffloadGB
	}

	for _, v := range variants {
		if v.Precision.Kind == modelcatalog.PrecisionGGUF && !profile.CPU.SupportsAVX2 {
			continue
		}
		if profile.RAM.UsableForOffloadGB >= requiredRAMGB {
			return v, true
		}
	}
	return modelcatalog.Variant{}, false
}

// checkStorageAndRAM implements checks 5 and 6; offload/cloud candidates
// still must clear storage and RAM minimums.
func checkStorageAndRAM(entry *modelcatalog.Entry, profile *hw, _ modelcatalog.Variant, _ ExecutionMode) *RejectionReason {
	requiredStorage := entry.Hardware.TotalSizeGB + StorageBufferGB
	if profile.Storage.FreeGB < requiredStorage {
		return &RejectionReason{
			ModelID:    entry.ID,
			Constraint: ConstraintStorageSpace,
			Detail:     "insufficient free storage for model + buffer",
			Required:   requiredStorage,
			Available:  profile.Storage.FreeGB,
		}
	}
	if entry.MinimumRAMGB > 0 && profile.RAM.AvailableGB < entry.MinimumRAMGB {
		return &RejectionReason{
			ModelID:    entry.ID,
			Constraint: ConstraintRAM,
			Detail:     "available RAM below the model's declared minimum",
			Required:   entry.MinimumRAMGB,
			Available:  profile.RAM.AvailableGB,
		}
	}
	return nil
}

// cloudEscape implements check 7: a would-be VRAM rejection is waived when
// the entry has a cloud execution path and the user is willing to use it.
// The candidate is flagged for resolution so the cascade can still try
// local rescues (downgrade, offload, substitution) before settling on the
// cloud plan, which is the cascade's last stage.
func cloudEscape(entry *modelcatalog.Entry, user userprofile.UserProfile) *PassingCandidate {
	if !entry.Cloud.Available || user.CloudWillingness == userprofile.CloudLocalOnly {
		return nil
	}
	return &PassingCandidate{ModelID: entry.ID, Entry: entry, ExecutionMode: ExecutionCloud, RequiresResolution: true}
}
