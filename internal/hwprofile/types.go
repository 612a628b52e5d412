// Package hwprofile detects the local machine's hardware and normalizes it
// into a HardwareProfile consumed by the recommendation pipeline.
package hwprofile

// Platform classifies the accelerator stack available to the pipeline.
type Platform string

const (
	PlatformNVIDIADesktop Platform = "nvidia_desktop"
	PlatformNVIDIALaptop  Platform = "nvidia_laptop"
	PlatformAppleSilicon  Platform = "apple_silicon"
	PlatformAMDROCm       Platform = "amd_rocm"
	PlatformCPUOnly       Platform = "cpu_only"
)

// CPUTier buckets CPUs by physical core count.
type CPUTier string

const (
	CPUTierHigh    CPUTier = "HIGH"
	CPUTierMedium  CPUTier = "MEDIUM"
	CPUTierLow     CPUTier = "LOW"
	CPUTierMinimal CPUTier = "MINIMAL"
)

// StorageType classifies the underlying storage device.
type StorageType string

const (
	StorageNVMe    StorageType = "nvme"
	StorageSATASSD StorageType = "sata_ssd"
	StorageHDD     StorageType = "hdd"
	StorageUnknown StorageType = "unknown"
)

// StorageTier buckets storage devices by sustained read throughput.
type StorageTier string

const (
	StorageTierFast     StorageTier = "FAST"
	StorageTierModerate StorageTier = "MODERATE"
	StorageTierSlow     StorageTier = "SLOW"
)

// HardwareTier buckets the machine's effective capacity for model weights.
type HardwareTier string

const (
	TierWorkstation HardwareTier = "WORKSTATION"
	TierProfessional HardwareTier = "PROFESSIONAL"
	TierProsumer     HardwareTier = "PROSUMER"
	TierConsumer     HardwareTier = "CONSUMER"
	TierEntry        HardwareTier = "ENTRY"
	TierMinimal      HardwareTier = "MINIMAL"
)

// ThermalState reflects the platform's current thermal advisory.
type ThermalState string

const (
	ThermalNominal  ThermalState = "nominal"
	ThermalFair     ThermalState = "fair"
	ThermalSerious  ThermalState = "serious"
	ThermalCritical ThermalState = "critical"
)

// PowerState reflects whether the machine runs on mains or battery.
type PowerState string

const (
	PowerAC      PowerState = "ac"
	PowerBattery PowerState = "battery"
)

// Named constants governing offload-capacity derivation.
const (
	OSReserveGB         = 4.0
	OffloadSafetyFactor = 0.8
)

// GPU describes the detected accelerator, if any.
type GPU struct {
	Vendor               string
	Name                 string
	VRAMGB               float64
	MemoryBandwidthGBps  *float64
	ComputeCapabilityMaj int
	ComputeCapabilityMin int
	HasComputeCapability bool
	SupportsFP8          bool
	SupportsBF16         bool
	SupportsFP4          bool
	FlashAttention       bool
	UnifiedMemory        bool

	// powerLimitWatts carries the current power limit from the probe
	// through to FormFactor derivation; not part of the public contract.
	powerLimitWatts *float64
}

// ComputeCapability returns the (major, minor) pair and whether it is known.
func (g GPU) ComputeCapability() (int, int, bool) {
	return g.ComputeCapabilityMaj, g.ComputeCapabilityMin, g.HasComputeCapability
}

// CC returns a single comparable compute-capability value (major + minor/10,
// e.g. 8.9), or -1 when unknown.
func (g GPU) CC() float64 {
	if !g.HasComputeCapability {
		return -1
	}
	return float64(g.ComputeCapabilityMaj) + float64(g.ComputeCapabilityMin)/10.0
}

// CPU describes the detected processor.
type CPU struct {
	Model          string
	PhysicalCores  int
	LogicalCores   int
	Arch           string
	SupportsAVX    bool
	SupportsAVX2   bool
	SupportsAVX512 bool
	Tier           CPUTier
}

// RAM describes detected system memory.
type RAM struct {
	TotalGB           float64
	AvailableGB       float64
	Type              string
	SpeedMHz          *int
	BandwidthGBps     *float64
	UsableForOffloadGB float64
}

// Storage describes the primary storage device backing the model cache.
type Storage struct {
	FreeGB   float64
	TotalGB  float64
	Type     StorageType
	Tier     StorageTier
	ReadMBps float64
}

// FormFactor captures laptop/desktop distinctions affecting sustained throughput.
type FormFactor struct {
	IsLaptop                  bool
	PowerLimitWatts           *float64
	ReferenceTDPWatts         *float64
	SustainedPerformanceRatio float64
}

// HardwareProfile is the normalized, immutable-once-built description of the
// machine the recommendation pipeline runs against.
type HardwareProfile struct {
	Platform         Platform
	GPU              GPU
	CPU              CPU
	RAM              RAM
	Storage          Storage
	FormFactor       FormFactor
	EffectiveVRAMGB  float64
	Tier             HardwareTier
	ThermalState     ThermalState
	PowerState       PowerState
	Warnings         []ProbeFailed
}

// EffectiveCapacityGB is the capacity the tier boundaries are computed over:
// effective VRAM plus usable offload RAM when the CPU is capable enough.
func (h HardwareProfile) EffectiveCapacityGB() float64 {
	capacity := h.EffectiveVRAMGB
	if (h.CPU.Tier == CPUTierHigh || h.CPU.Tier == CPUTierMedium) && h.RAM.UsableForOffloadGB > 4 {
		capacity += h.RAM.UsableForOffloadGB
	}
	return capacity
}
