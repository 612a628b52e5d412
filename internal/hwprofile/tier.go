package hwprofile

import "math"

// computeUsableOffloadGB derives the RAM the pipeline may plan to spill
// model layers into:
// usable_for_offload_gb = max(0, (available_gb - OS_RESERVE_GB) * OFFLOAD_SAFETY_FACTOR)
func computeUsableOffloadGB(availableGB float64) float64 {
	usable := (availableGB - OSReserveGB) * OffloadSafetyFactor
	if usable < 0 {
		return 0
	}
	return usable
}

// computeEffectiveVRAMGB returns the memory usable for model weights:
// 75% of total RAM on unified-memory systems, native VRAM otherwise.
func computeEffectiveVRAMGB(gpu GPU, ramTotalGB float64) float64 {
	if gpu.UnifiedMemory {
		return ramTotalGB * 0.75
	}
	return gpu.VRAMGB
}

// computeSustainedPerformanceRatio approximates thermally constrained
// throughput: desktops are 1.0; laptops are sqrt(power_limit/reference_tdp) clamped to
// [0.25, 1.0].
func computeSustainedPerformanceRatio(isLaptop bool, powerLimitWatts, referenceTDPWatts *float64) float64 {
	if !isLaptop {
		return 1.0
	}
	if powerLimitWatts == nil || referenceTDPWatts == nil || *referenceTDPWatts <= 0 {
		return 1.0
	}
	ratio := math.Sqrt(*powerLimitWatts / *referenceTDPWatts)
	if ratio < 0.25 {
		return 0.25
	}
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

// computeTier buckets effective capacity:
// WORKSTATION >= 48, PROFESSIONAL >= 16, PROSUMER >= 12, CONSUMER >= 8,
// ENTRY >= 4, MINIMAL < 4. Boundaries are inclusive of the higher tier.
func computeTier(effectiveCapacityGB float64) HardwareTier {
	switch {
	case effectiveCapacityGB >= 48:
		return TierWorkstation
	case effectiveCapacityGB >= 16:
		return TierProfessional
	case effectiveCapacityGB >= 12:
		return TierProsumer
	case effectiveCapacityGB >= 8:
		return TierConsumer
	case effectiveCapacityGB >= 4:
		return TierEntry
	default:
		return TierMinimal
	}
}

// computeCPUTier buckets physical core counts: HIGH>=16,
// MEDIUM 8-15, LOW 4-7, MINIMAL<4, keyed on physical cores.
func computeCPUTier(physicalCores int) CPUTier {
	switch {
	case physicalCores >= 16:
		return CPUTierHigh
	case physicalCores >= 8:
		return CPUTierMedium
	case physicalCores >= 4:
		return CPUTierLow
	default:
		return CPUTierMinimal
	}
}
