package hwprofile

import (
	"strconv"
	"strings"
)

// Lookup tables are declarative data: a table miss must
// yield a conservative default plus a recorded warning, never a silent one.

// appleBandwidthGBps maps an Apple Silicon chip name to its unified-memory
// bandwidth in GB/s.
var appleBandwidthGBps = map[string]float64{
	"m1":          68,
	"m1 pro":      200,
	"m1 max":      400,
	"m1 ultra":    800,
	"m2":          100,
	"m2 pro":      200,
	"m2 max":      400,
	"m2 ultra":    800,
	"m3":          100,
	"m3 pro":      150,
	"m3 max":      400,
	"m4":          120,
	"m4 pro":      273,
	"m4 max":      546,
}

const defaultAppleBandwidthGBps = 100.0

// LookupAppleBandwidth returns the unified-memory bandwidth for a chip
// model string (e.g. "Apple M3 Max"), and whether the lookup hit the table.
func LookupAppleBandwidth(chipModel string) (float64, bool) {
	key := normalizeChipName(chipModel)
	if bw, ok := appleBandwidthGBps[key]; ok {
		return bw, true
	}
	return defaultAppleBandwidthGBps, false
}

func normalizeChipName(name string) string {
	n := strings.ToLower(name)
	n = strings.TrimPrefix(n, "apple ")
	return strings.TrimSpace(n)
}

// nvidiaReferenceTDPWatts maps an NVIDIA device name substring to its
// reference (desktop) TDP, used to derive the sustained performance ratio
// on laptops.
var nvidiaReferenceTDPWatts = []struct {
	match string
	watts float64
}{
	{"rtx 4090", 450},
	{"rtx 4080", 320},
	{"rtx 4070 ti", 285},
	{"rtx 4070", 200},
	{"rtx 4060 ti", 165},
	{"rtx 4060", 115},
	{"rtx 3090 ti", 450},
	{"rtx 3090", 350},
	{"rtx 3080 ti", 350},
	{"rtx 3080", 320},
	{"rtx 3070 ti", 290},
	{"rtx 3070", 220},
	{"rtx 3060 ti", 200},
	{"rtx 3060", 170},
	{"a100", 400},
	{"h100", 700},
}

const defaultReferenceTDPWatts = 250.0

// LookupReferenceTDP returns the reference TDP for an NVIDIA GPU name, and
// whether the lookup hit the table.
func LookupReferenceTDP(gpuName string) (float64, bool) {
	name := strings.ToLower(gpuName)
	for _, entry := range nvidiaReferenceTDPWatts {
		if strings.Contains(name, entry.match) {
			return entry.watts, true
		}
	}
	return defaultReferenceTDPWatts, false
}

// ramBandwidthGBps maps (ram type, channel count) to bandwidth in GB/s for a
// representative JEDEC speed grade. Module speed is not part of the key and
// does not scale the result.
var ramBandwidthGBps = map[string]float64{
	"ddr4:1":   21.3,
	"ddr4:2":   42.6,
	"ddr5:1":   38.4,
	"ddr5:2":   76.8,
	"lpddr5:1": 51.2,
	"unified:1": 100,
}

const defaultRAMBandwidthGBps = 25.6

// LookupRAMBandwidth returns the aggregate bandwidth for a RAM type and
// channel count, and whether the lookup hit the table.
func LookupRAMBandwidth(ramType string, channels int) (float64, bool) {
	if channels <= 0 {
		channels = 1
	}
	key := strings.ToLower(ramType) + ":" + strconv.Itoa(channels)
	if bw, ok := ramBandwidthGBps[key]; ok {
		return bw, true
	}
	return defaultRAMBandwidthGBps * float64(channels), false
}

// storageReadMBps maps a storage tier to representative sustained
// sequential read throughput.
var storageReadMBps = map[StorageTier]float64{
	StorageTierFast:     7000,
	StorageTierModerate: 3500,
	StorageTierSlow:     140,
}

// ClassifyStorageTier buckets a storage type + measured throughput into a
// StorageTier, preferring the measured value when available.
func ClassifyStorageTier(storageType StorageType, measuredMBps float64) (StorageTier, float64) {
	if measuredMBps > 0 {
		switch {
		case measuredMBps >= 5000:
			return StorageTierFast, measuredMBps
		case measuredMBps >= 1000:
			return StorageTierModerate, measuredMBps
		default:
			return StorageTierSlow, measuredMBps
		}
	}
	switch storageType {
	case StorageNVMe:
		return StorageTierFast, storageReadMBps[StorageTierFast]
	case StorageSATASSD:
		return StorageTierModerate, 600
	case StorageHDD:
		return StorageTierSlow, storageReadMBps[StorageTierSlow]
	default:
		return StorageTierSlow, storageReadMBps[StorageTierSlow]
	}
}
