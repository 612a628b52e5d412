package hwprofile

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// probeStorage classifies the device backing the model cache directory and
// measures free/total capacity via statfs.
func probeStorage(ctx context.Context, modelCacheDir string) (Storage, *ProbeFailed) {
	free, total, err := diskUsage(modelCacheDir)
	if err != nil {
		return Storage{}, &ProbeFailed{Field: "storage", Cause: err}
	}

	storageType := detectStorageType(ctx, modelCacheDir)
	tier, readMBps := ClassifyStorageTier(storageType, 0)

	return Storage{
		FreeGB:   free,
		TotalGB:  total,
		Type:     storageType,
		Tier:     tier,
		ReadMBps: readMBps,
	}, nil
}

func diskUsage(path string) (freeGB, totalGB float64, err error) {
	if path == "" {
		path = "."
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	blockSize := uint64(stat.Bsize)
	freeGB = float64(stat.Bavail*blockSize) / (1024 * 1024 * 1024)
	totalGB = float64(stat.Blocks*blockSize) / (1024 * 1024 * 1024)
	return freeGB, totalGB, nil
}

// detectStorageType classifies the device via the Linux rotational flag
// when available, falling back to StorageUnknown rather than guessing. On
// darwin it reports StorageNVMe without probing the device.
func detectStorageType(ctx context.Context, path string) StorageType {
	if runtime.GOOS != "linux" {
		if runtime.GOOS == "darwin" {
			return StorageNVMe
		}
		return StorageUnknown
	}

	device := findBlockDevice(path)
	if device == "" {
		return StorageUnknown
	}
	rotPath := "/sys/block/" + device + "/queue/rotational"
	data, err := os.ReadFile(rotPath)
	if err != nil {
		return StorageUnknown
	}
	rotational := strings.TrimSpace(string(data))
	if rotational == "1" {
		return StorageHDD
	}
	if strings.HasPrefix(device, "nvme") {
		return StorageNVMe
	}
	return StorageSATASSD
}

// findBlockDevice resolves the mount's backing block device name by reading
// /proc/mounts, stripping partition suffixes (e.g. nvme0n1p2 -> nvme0n1).
func findBlockDevice(path string) string {
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return ""
	}
	best := ""
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		mountPoint := fields[1]
		if strings.HasPrefix(path, mountPoint) && len(mountPoint) > len(best) {
			best = mountPoint
			_ = fields[0]
		}
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == best {
			dev := strings.TrimPrefix(fields[0], "/dev/")
			return stripPartitionSuffix(dev)
		}
	}
	return ""
}

func stripPartitionSuffix(dev string) string {
	if strings.HasPrefix(dev, "nvme") {
		if idx := strings.Index(dev, "p"); idx > 0 {
			if _, err := strconv.Atoi(dev[idx+1:]); err == nil {
				return dev[:idx]
			}
		}
		return dev
	}
	i := len(dev)
	for i > 0 && dev[i-1] >= '0' && dev[i-1] <= '9' {
		i--
	}
	return dev[:i]
}
