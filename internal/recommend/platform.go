package recommend

import "github.com/oremus-labs/wsconfig-core/internal/hwprofile"

// catalogPlatformKey maps a detected hardware platform to the
// platform_support key used in catalog documents. cpu_only has no catalog
// key: entries never declare CPU-only support, so a cpu_only profile always
// fails the platform check unless a cloud escape applies.
func catalogPlatformKey(p hwprofile.Platform) string {
	switch p {
	case hwprofile.PlatformNVIDIADesktop, hwprofile.PlatformNVIDIALaptop:
		return "nvidia"
	case hwprofile.PlatformAppleSilicon:
		return "apple_mps"
	case hwprofile.PlatformAMDROCm:
		return "amd_rocm"
	default:
		return ""
	}
}
