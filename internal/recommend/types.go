// Package recommend implements the three-layer recommendation pipeline:
// a CSP constraint filter, a cosine-similarity content scorer, and a TOPSIS
// multi-criteria ranker, followed by a resolution cascade, a
// space-constrained fitter, and an explainer.
package recommend

import (
	"fmt"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
)

const (
	// StorageBufferGB is reserved headroom beyond a model's declared size,
	// required on top of total_size_gb before storage space is considered
	// sufficient.
	StorageBufferGB = 10.0

	// DefaultCascadeTopK is the number of top-ranked-per-modality candidates
	// the resolution cascade is applied to.
	DefaultCascadeTopK = 3

	// topsisEpsilon guards the closeness-coefficient division against a
	// zero denominator when a candidate coincides with both ideal points.
	topsisEpsilon = 1e-10
)

// ExecutionMode is how a selected candidate will actually run.
type ExecutionMode string

const (
	ExecutionGPUNative  ExecutionMode = "gpu_native"
	ExecutionGPUOffload ExecutionMode = "gpu_offload"
	ExecutionCloud      ExecutionMode = "cloud"
)

// RejectionConstraint names which CSP check eliminated a candidate.
type RejectionConstraint string

const (
	ConstraintPlatform          RejectionConstraint = "platform"
	ConstraintComputeCapability RejectionConstraint = "compute_capability"
	ConstraintVRAM              RejectionConstraint = "vram"
	ConstraintStorageSpace      RejectionConstraint = "storage_space"
	ConstraintRAM               RejectionConstraint = "ram"
	ConstraintIncompatible      RejectionConstraint = "incompat"
)

// RejectionReason explains why a catalog entry did not pass the constraint
// layer.
type RejectionReason struct {
	ModelID    string              `json:"modelId"`
	Constraint RejectionConstraint `json:"constraint"`
	Detail     string              `json:"detail"`
	Required   float64             `json:"required,omitempty"`
	Available  float64             `json:"available,omitempty"`
}

// PassingCandidate is an entry that cleared the constraint layer, carrying
// the best-quality variant chosen for it.
type PassingCandidate struct {
	ModelID         string                 `json:"modelId"`
	Entry           *modelcatalog.Entry    `json:"-"`
	SelectedVariant modelcatalog.Variant   `json:"selectedVariant"`
	ExecutionMode   ExecutionMode          `json:"executionMode"`
	RequiresResolution bool                `json:"requiresResolution,omitempty"`
}

// ScoredCandidate attaches a content-layer similarity score to a passing
// candidate, within one modality.
type ScoredCandidate struct {
	Passing          PassingCandidate `json:"passing"`
	Modality         modelcatalog.Modality `json:"modality"`
	Similarity       float64          `json:"similarity"`
	MatchingFeatures []string         `json:"matchingFeatures,omitempty"`
	MissingFeatures  []string         `json:"missingFeatures,omitempty"`
}

// CriteriaScores are the five TOPSIS criterion values retained for the
// explainer.
type CriteriaScores struct {
	ContentSimilarity  float64 `json:"contentSimilarity"`
	HardwareFit        float64 `json:"hardwareFit"`
	SpeedFit           float64 `json:"speedFit"`
	EcosystemMaturity  float64 `json:"ecosystemMaturity"`
	ApproachFit        float64 `json:"approachFit"`
}

// RankedCandidate is a scored candidate after TOPSIS ordering.
type RankedCandidate struct {
	Passing       PassingCandidate `json:"passing"`
	TopsisScore   float64          `json:"topsisScore"`
	Criteria      CriteriaScores   `json:"criteriaScores"`
	Weights       Weights          `json:"weights"`
	Rank          int              `json:"rank"`
}

// ResolutionKind names which cascade stage (if any) rescued a candidate.
type ResolutionKind string

const (
	ResolutionNone                 ResolutionKind = "none"
	ResolutionQuantizationDowngrade ResolutionKind = "quantization_downgrade"
	ResolutionCPUOffload           ResolutionKind = "cpu_offload"
	ResolutionSubstitution         ResolutionKind = "substitution"
	ResolutionWorkflowOptimization ResolutionKind = "workflow_optimization"
	ResolutionCloud                ResolutionKind = "cloud"
)

// ResolutionResult is the outcome of running the resolution cascade on a
// single ranked candidate.
type ResolutionResult struct {
	Viable             bool           `json:"viable"`
	Kind               ResolutionKind `json:"kind"`
	SelectedVariant    *modelcatalog.Variant `json:"selectedVariant,omitempty"`
	SubstitutedModelID string         `json:"substitutedModelId,omitempty"`
	PerformanceFactor  float64        `json:"performanceFactor,omitempty"`
	QualityImpact      string         `json:"qualityImpact,omitempty"`
	Message            string         `json:"message,omitempty"`
}

// WarningSeverity gates how the UI presents a HardwareWarning.
type WarningSeverity string

const (
	SeverityInfo    WarningSeverity = "info"
	SeverityWarning WarningSeverity = "warning"
	SeverityError   WarningSeverity = "error"
)

// HardwareWarning is a cross-cutting, user-facing advisory.
type HardwareWarning struct {
	Type        string          `json:"type"`
	Severity    WarningSeverity `json:"severity"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// SelectedManifestEntry is one model instance the manifest plans to
// install/run.
type SelectedManifestEntry struct {
	ModelID       string        `json:"modelId"`
	VariantID     string        `json:"variantId,omitempty"`
	ExecutionMode ExecutionMode `json:"executionMode"`
}

// Manifest is the final installation plan derived from the rankings.
type Manifest struct {
	Selected                []SelectedManifestEntry `json:"selected"`
	TotalSizeGB             float64                  `json:"totalSizeGb"`
	EstimatedInstallMinutes float64                  `json:"estimatedInstallMinutes"`
}

// RecommendationExplanation is the human-readable reasoning for one
// selected model.
type RecommendationExplanation struct {
	ModelID            string   `json:"modelId"`
	SelectionSummary   string   `json:"selectionSummary"`
	HardwareFit        string   `json:"hardwareFit"`
	MatchingFeatures   []string `json:"matchingFeatures,omitempty"`
	MissingFeatures    []string `json:"missingFeatures,omitempty"`
	ResolutionTrace    string   `json:"resolutionTrace,omitempty"`
	CompetingRejections []RejectionReason `json:"competingRejections,omitempty"`
}

// RecommendationResult is the stable public output of a pipeline run.
type RecommendationResult struct {
	ID                 string                                       `json:"id"`
	Timestamp          string                                       `json:"timestamp"`
	PerModalityRankings map[modelcatalog.Modality][]RankedCandidate `json:"perModalityRankings"`
	Manifest           Manifest                                     `json:"manifest"`
	Warnings           []HardwareWarning                            `json:"warnings"`
	Reasoning          map[string]RecommendationExplanation         `json:"reasoning"`
	Rejections         []RejectionReason                            `json:"rejections"`
}

// NoViableCandidates means Layer 1 left nothing passing and no cloud escape
// exists for the named modality.
type NoViableCandidates struct {
	Modality modelcatalog.Modality
}

func (e *NoViableCandidates) Error() string {
	return fmt.Sprintf("no viable candidates for modality %s", e.Modality)
}

// Cancelled propagates cooperative cancellation without partial results.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "recommendation run cancelled" }

// InvariantViolated indicates an internal contract breach (a bug), not a
// user-correctable condition.
type InvariantViolated struct {
	Detail string
}

func (e *InvariantViolated) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Detail)
}

// hw is a package-local alias used throughout for brevity in signatures.
type hw = hwprofile.HardwareProfile
