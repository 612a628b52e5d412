package hwprofile

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// probeRAM detects total/available memory via /proc/meminfo on Linux and
// `sysctl -n hw.memsize` on macOS, detects the module type/clock/channel
// count where the platform exposes them, and estimates bandwidth from the
// (type, channel) lookup table. An undeterminable type or a table miss is
// reported as a warning alongside the conservative default, never silently.
func probeRAM(ctx context.Context, unifiedMemory bool) (RAM, *ProbeFailed) {
	switch runtime.GOOS {
	case "linux":
		ram, channels, typeWarn, err := linuxRAM(ctx)
		if err != nil {
			return RAM{}, &ProbeFailed{Field: "ram", Cause: err}
		}
		bwWarn := finishRAM(&ram, unifiedMemory, channels)
		if typeWarn != nil {
			return ram, typeWarn
		}
		return ram, bwWarn
	case "darwin":
		ram, err := darwinRAM(ctx)
		if err != nil {
			return RAM{}, &ProbeFailed{Field: "ram", Cause: err}
		}
		warn := finishRAM(&ram, unifiedMemory, 1)
		return ram, warn
	default:
		return RAM{}, &ProbeFailed{Field: "ram", Cause: fmt.Errorf("unsupported platform %q for RAM detection", runtime.GOOS)}
	}
}

// finishRAM derives offload capacity and bandwidth. A (type, channels) pair
// missing from the bandwidth table keeps the conservative default and is
// reported as a non-fatal warning.
func finishRAM(ram *RAM, unifiedMemory bool, channels int) *ProbeFailed {
	ram.UsableForOffloadGB = computeUsableOffloadGB(ram.AvailableGB)
	ramType := ram.Type
	if unifiedMemory {
		ramType = "unified"
		channels = 1
	}
	if channels <= 0 {
		channels = 1
	}
	bw, hit := LookupRAMBandwidth(ramType, channels)
	ram.BandwidthGBps = &bw
	if !hit {
		return &ProbeFailed{
			Field: "ram.bandwidth_gbps",
			Cause: fmt.Errorf("ram (%s, %d channels) not in bandwidth table; assuming %.1f GB/s", ramType, channels, bw),
		}
	}
	return nil
}

func linuxRAM(ctx context.Context) (RAM, int, *ProbeFailed, error) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return RAM{}, 0, nil, err
	}
	var totalKB, availKB int64
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			totalKB, _ = strconv.ParseInt(fields[1], 10, 64)
		case strings.HasPrefix(line, "MemAvailable:"):
			availKB, _ = strconv.ParseInt(fields[1], 10, 64)
		}
	}
	if totalKB == 0 {
		return RAM{}, 0, nil, fmt.Errorf("MemTotal not found in /proc/meminfo")
	}

	ram := RAM{
		TotalGB:     float64(totalKB) / (1024 * 1024),
		AvailableGB: float64(availKB) / (1024 * 1024),
	}

	modules, modErr := detectLinuxMemoryModules(ctx)
	if modErr != nil {
		ram.Type = "unknown"
		return ram, 1, &ProbeFailed{Field: "ram.type", Cause: modErr}, nil
	}
	ram.Type = modules.ramType
	if modules.speedMHz > 0 {
		speed := modules.speedMHz
		ram.SpeedMHz = &speed
	}
	return ram, modules.channels, nil, nil
}

type linuxMemoryModules struct {
	ramType  string
	speedMHz int
	channels int
}

// detectLinuxMemoryModules parses `dmidecode -t memory` for the module
// type, clock, and populated-slot count. dmidecode needs root; without it
// (or on DMI-less systems) the type stays unresolved and is reported by
// the caller rather than guessed.
func detectLinuxMemoryModules(ctx context.Context) (linuxMemoryModules, error) {
	out, err := runCommand(ctx, "dmidecode", "-t", "memory")
	if err != nil {
		return linuxMemoryModules{}, fmt.Errorf("dmidecode unavailable: %w", err)
	}

	var modules linuxMemoryModules
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Type:"):
			t := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "Type:")))
			if strings.HasPrefix(t, "ddr") || strings.HasPrefix(t, "lpddr") {
				modules.ramType = t
				modules.channels++
			}
		case strings.HasPrefix(line, "Speed:") && modules.speedMHz == 0:
			if v, parseErr := firstNumericToken("dmidecode -t memory", line); parseErr == nil {
				modules.speedMHz = int(v)
			}
		}
	}
	if modules.ramType == "" {
		return linuxMemoryModules{}, fmt.Errorf("no populated DDR/LPDDR modules in dmidecode output")
	}
	return modules, nil
}

func darwinRAM(ctx context.Context) (RAM, error) {
	out, err := runCommand(ctx, "sysctl", "-n", "hw.memsize")
	if err != nil {
		return RAM{}, err
	}
	bytesValue, err := firstNumericToken("sysctl -n hw.memsize", out)
	if err != nil {
		return RAM{}, err
	}
	totalGB := bytesValue / (1024 * 1024 * 1024)

	available := totalGB
	if pagesOut, err := runCommand(ctx, "sysctl", "-n", "vm.page_free_count"); err == nil {
		if pageSizeOut, err2 := runCommand(ctx, "sysctl", "-n", "hw.pagesize"); err2 == nil {
			freePages, _ := firstNumericToken("sysctl -n vm.page_free_count", pagesOut)
			pageSize, _ := firstNumericToken("sysctl -n hw.pagesize", pageSizeOut)
			if freePages > 0 && pageSize > 0 {
				available = (freePages * pageSize) / (1024 * 1024 * 1024)
			}
		}
	}
	return RAM{
		TotalGB:     totalGB,
		AvailableGB: available,
		Type:        "unified",
	}, nil
}
