package hwprofile

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// probeCPU detects core counts, architecture, and SIMD feature flags,
// scanning /proc/cpuinfo on Linux and sysctl on macOS.
func probeCPU(ctx context.Context) (CPU, *ProbeFailed) {
	cpu := CPU{
		LogicalCores: runtime.NumCPU(),
		Arch:         runtime.GOARCH,
	}
	var warn *ProbeFailed

	switch runtime.GOOS {
	case "linux":
		if err := fillLinuxCPU(&cpu); err != nil {
			cpu.PhysicalCores = cpu.LogicalCores
			warn = &ProbeFailed{Field: "cpu.physical_cores", Cause: fmt.Errorf("reading /proc/cpuinfo: %w; assuming logical core count", err)}
		}
	case "darwin":
		physical, err := appleSysctlInt(ctx, "hw.physicalcpu")
		if err != nil {
			cpu.PhysicalCores = cpu.LogicalCores
			warn = &ProbeFailed{Field: "cpu.physical_cores", Cause: fmt.Errorf("sysctl hw.physicalcpu: %w; assuming logical core count", err)}
		} else {
			cpu.PhysicalCores = physical
		}
		cpu.SupportsAVX2 = runtime.GOARCH == "amd64"
	default:
		cpu.PhysicalCores = cpu.LogicalCores
		warn = &ProbeFailed{Field: "cpu.physical_cores", Cause: fmt.Errorf("no physical-core probe for %q; assuming logical core count", runtime.GOOS)}
	}

	if cpu.PhysicalCores == 0 {
		cpu.PhysicalCores = cpu.LogicalCores
		if warn == nil {
			warn = &ProbeFailed{Field: "cpu.physical_cores", Cause: fmt.Errorf("no physical core count found; assuming logical core count")}
		}
	}
	cpu.Tier = computeCPUTier(cpu.PhysicalCores)
	return cpu, warn
}

func fillLinuxCPU(cpu *CPU) error {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return err
	}
	text := string(data)

	physicalIDs := map[string]struct{}{}
	coreIDs := map[string]struct{}{}
	var flags string
	var model string

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := splitCPUInfoLine(line)
		if !ok {
			continue
		}
		switch key {
		case "model name":
			if model == "" {
				model = value
			}
		case "physical id":
			physicalIDs[value] = struct{}{}
		case "core id":
			coreIDs[value] = struct{}{}
		case "flags":
			if flags == "" {
				flags = value
			}
		}
	}

	cpu.Model = model
	if len(coreIDs) > 0 {
		sockets := len(physicalIDs)
		if sockets == 0 {
			sockets = 1
		}
		cpu.PhysicalCores = len(coreIDs) * sockets
	}
	fields := strings.Fields(flags)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	_, cpu.SupportsAVX = set["avx"]
	_, cpu.SupportsAVX2 = set["avx2"]
	_, cpu.SupportsAVX512 = set["avx512f"]
	return nil
}

func splitCPUInfoLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	return key, value, true
}

func appleSysctlInt(ctx context.Context, name string) (int, error) {
	out, err := runCommand(ctx, "sysctl", "-n", name)
	if err != nil {
		return 0, err
	}
	v, err := firstNumericToken("sysctl -n "+name, out)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
