package hwprofile

import (
	"context"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/oremus-labs/wsconfig-core/internal/logutil"
	"github.com/oremus-labs/wsconfig-core/internal/metrics"
)

// Options configures a Detect run.
type Options struct {
	// ModelCacheDir is the directory the storage probe measures free/total
	// capacity against (typically where model weights will be installed).
	ModelCacheDir string
}

// Detect dispatches to platform-specific probes and assembles a normalized
// HardwareProfile. CPU/RAM/storage probes run concurrently and are joined;
// the GPU probe then runs on its own, since it needs the RAM total.
func Detect(ctx context.Context, opts Options) (*HardwareProfile, error) {
	var (
		wg                           sync.WaitGroup
		cpu                          CPU
		ram                          RAM
		storage                      Storage
		gpu                         GPU
		cpuFail, ramFail, storFail, gpuFail *ProbeFailed
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		start := time.Now()
		cpu, cpuFail = probeCPU(ctx)
		metrics.ObserveProbe("cpu", time.Since(start), subsystemUnresolved(cpuFail, "cpu"))
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		storage, storFail = probeStorage(ctx, opts.ModelCacheDir)
		metrics.ObserveProbe("storage", time.Since(start), storFail != nil)
	}()
	go func() {
		defer wg.Done()
		// RAM detection needs to know whether the GPU uses unified memory,
		// but GPU detection on Apple Silicon needs RAM total to compute
		// effective VRAM, so the GPU probe runs after this join. Unified
		// memory is assumed on darwin, where probeGPU always takes the
		// Apple Silicon path.
		start := time.Now()
		ram, ramFail = probeRAM(ctx, runtime.GOOS == "darwin")
		metrics.ObserveProbe("ram", time.Since(start), subsystemUnresolved(ramFail, "ram"))
	}()
	wg.Wait()

	gpuStart := time.Now()
	gpu, gpuFail = probeGPU(ctx, ram.TotalGB)
	metrics.ObserveProbe("gpu", time.Since(gpuStart), subsystemUnresolved(gpuFail, "gpu"))

	warnings := collectWarnings(cpuFail, ramFail, storFail, gpuFail)

	// Subfield warnings (e.g. a bandwidth-table miss) leave the subsystem
	// resolved; only a whole-subsystem failure counts toward the fatal path.
	if subsystemUnresolved(gpuFail, "gpu") && subsystemUnresolved(ramFail, "ram") {
		return nil, &FatalProbeError{Failures: warnings}
	}

	platform := classifyPlatform(gpu, gpuFail)
	isLaptop := platform == PlatformNVIDIALaptop
	var powerLimit, refTDP *float64
	if gpu.powerLimitWatts != nil {
		powerLimit = gpu.powerLimitWatts
		tdp, _ := LookupReferenceTDP(gpu.Name)
		refTDP = &tdp
	}

	formFactor := FormFactor{
		IsLaptop:          isLaptop,
		PowerLimitWatts:   powerLimit,
		ReferenceTDPWatts: refTDP,
	}
	formFactor.SustainedPerformanceRatio = computeSustainedPerformanceRatio(isLaptop, powerLimit, refTDP)

	profile := &HardwareProfile{
		Platform:   platform,
		GPU:        gpu,
		CPU:        cpu,
		RAM:        ram,
		Storage:    storage,
		FormFactor: formFactor,
		PowerState: PowerAC,
		Warnings:   warnings,
	}
	profile.EffectiveVRAMGB = computeEffectiveVRAMGB(gpu, ram.TotalGB)
	profile.Tier = computeTier(profile.EffectiveCapacityGB())

	if platform == PlatformAppleSilicon {
		profile.ThermalState = probeAppleThermalState(ctx)
	} else {
		profile.ThermalState = ThermalNominal
	}

	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	logutil.Info("hardware profile detected", map[string]interface{}{
		"platform":          string(profile.Platform),
		"tier":               string(profile.Tier),
		"effective_vram_gb":  profile.EffectiveVRAMGB,
		"warnings":           len(profile.Warnings),
	})

	return profile, nil
}

// probeGPU tries NVIDIA, then Apple Silicon, then AMD ROCm, then falls back
// to CPU-only.
func probeGPU(ctx context.Context, ramTotalGB float64) (GPU, *ProbeFailed) {
	if commandExists("nvidia-smi") {
		if gpu, fail := probeNVIDIA(ctx); fail == nil {
			return gpu, nil
		}
	}
	if runtime.GOOS == "darwin" {
		return probeAppleSilicon(ctx, ramTotalGB)
	}
	if commandExists("rocm-smi") {
		if gpu, fail := probeROCm(ctx); fail == nil {
			return gpu, nil
		}
	}
	return GPU{Vendor: "none", VRAMGB: 0}, nil
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func classifyPlatform(gpu GPU, gpuFail *ProbeFailed) Platform {
	switch {
	case gpu.UnifiedMemory:
		return PlatformAppleSilicon
	case gpu.Vendor == "amd":
		return PlatformAMDROCm
	case gpu.Vendor == "nvidia":
		if isNVIDIALaptop(gpu) {
			return PlatformNVIDIALaptop
		}
		return PlatformNVIDIADesktop
	default:
		return PlatformCPUOnly
	}
}

func subsystemUnresolved(f *ProbeFailed, subsystem string) bool {
	return f != nil && f.Field == subsystem
}

func collectWarnings(failures ...*ProbeFailed) []ProbeFailed {
	out := make([]ProbeFailed, 0, len(failures))
	for _, f := range failures {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

func validateProfile(p *HardwareProfile) error {
	if p.EffectiveVRAMGB < 0 {
		return &InvariantViolated{Detail: "effective_vram_gb is negative"}
	}
	if p.GPU.VRAMGB > 0 && p.EffectiveVRAMGB <= 0 && !p.GPU.UnifiedMemory {
		return &InvariantViolated{Detail: "accelerator present but effective_vram_gb is non-positive"}
	}
	if p.RAM.BandwidthGBps != nil && *p.RAM.BandwidthGBps <= 0 {
		return &InvariantViolated{Detail: "ram bandwidth must be positive when present"}
	}
	return nil
}
