package hwprofile

import "fmt"

// ProbeFailed records that a single hardware subsystem could not be fully
// resolved. The orchestrator collects these into HardwareProfile.Warnings
// rather than substituting a silent default.
type ProbeFailed struct {
	Field string
	Cause error
}

func (e *ProbeFailed) Error() string {
	return fmt.Sprintf("probe failed for %s: %v", e.Field, e.Cause)
}

func (e *ProbeFailed) Unwrap() error { return e.Cause }

// InvariantViolated indicates an internal contract breach (e.g. negative
// VRAM). It is always a bug, never a recoverable condition.
type InvariantViolated struct {
	Detail string
}

func (e *InvariantViolated) Error() string {
	return fmt.Sprintf("hardware profile invariant violated: %s", e.Detail)
}

// FatalProbeError is returned by Detect when both the GPU and RAM subsystems
// could not be resolved.
type FatalProbeError struct {
	Failures []ProbeFailed
}

func (e *FatalProbeError) Error() string {
	return fmt.Sprintf("hardware detection failed: gpu and ram subsystems both unresolved (%d probe failures)", len(e.Failures))
}
