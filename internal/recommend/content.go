package recommend

import (
	"context"
	"math"

	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

// ModalityScorer builds comparable [0,1] vectors for one modality, avoiding
// an inheritance chain: each modality registers a small value implementing
// this interface rather than subclassing a shared scorer base.
type ModalityScorer interface {
	Dimensions() []string
	BuildUserVector(user userprofile.UserProfile) []float64
	BuildModelVector(caps modelcatalog.Capabilities) []float64
}

// scorers is the modality-keyed registry of scorer values.
var scorers = map[modelcatalog.Modality]ModalityScorer{
	modelcatalog.ModalityImage: imageScorer{},
	modelcatalog.ModalityVideo: videoScorer{},
	modelcatalog.ModalityAudio: audioScorer{},
	modelcatalog.Modality3D:    threeDScorer{},
}

func scorerFor(m modelcatalog.Modality) (ModalityScorer, bool) {
	s, ok := scorers[m]
	return s, ok
}

// normalizedSlider maps a 1..5 catalog/profile slider to [0,1]; 0 passes
// through unchanged (an absent/unset preference).
func normalizedSlider(v int) float64 {
	if v <= 0 {
		return 0
	}
	return float64(v-1) / 4.0
}

func scoreOrZero(scores map[string]float64, key string) float64 {
	if scores == nil {
		return 0
	}
	return scores[key]
}

func containsFold(tags []string, target string) bool {
	for _, t := range tags {
		if t == target {
			return true
		}
	}
	return false
}

func essentialOrHelpful(normalized float64) float64 {
	switch {
	case normalized >= 0.75:
		return 1.0
	case normalized >= 0.25:
		return 0.5
	default:
		return 0
	}
}

// imageScorer scores image models against the image preference axes.
type imageScorer struct{}

func (imageScorer) Dimensions() []string {
	return []string{
		"photorealism", "artistic_quality", "text_rendering", "editability",
		"pose_control", "inpainting", "instruction_editing",
		"character_consistency", "generation_speed",
	}
}

func (imageScorer) BuildUserVector(user userprofile.UserProfile) []float64 {
	styleTags := []string{}
	var editability, poseControl, localizedEdits, holisticEdits int
	if user.ImagePrefs != nil {
		styleTags = user.ImagePrefs.StyleTags
		editability = user.ImagePrefs.Editability
		poseControl = user.ImagePrefs.PoseControl
		localizedEdits = user.ImagePrefs.LocalizedEdits
		holisticEdits = user.ImagePrefs.HolisticEdits
	}

	photorealism := user.SharedQuality.NormalizedPhotorealism()
	if !containsFold(styleTags, "photorealism") {
		photorealism *= 0.5
	}

	poseControlNorm := normalizedSlider(poseControl)
	poseControlBinary := 0.0
	if poseControlNorm >= 0.5 {
		poseControlBinary = 1.0
	}

	return []float64{
		photorealism,
		user.SharedQuality.NormalizedArtisticStylization(),
		0.5, // text_rendering: no dedicated slider; neutral prior
		normalizedSlider(editability),
		poseControlBinary,
		normalizedSlider(localizedEdits),
		normalizedSlider(holisticEdits),
		essentialOrHelpful(user.SharedQuality.NormalizedCharacterConsistency()),
		user.SharedQuality.NormalizedGenerationSpeed(),
	}
}

func (imageScorer) BuildModelVector(caps modelcatalog.Capabilities) []float64 {
	poseControl := 0.0
	if containsFold(caps.ControlNetSupport, "pose") {
		poseControl = 1.0
	}
	return []float64{
		scoreOrZero(caps.Scores, "photorealism"),
		scoreOrZero(caps.Scores, "artistic_quality"),
		scoreOrZero(caps.Scores, "text_rendering"),
		scoreOrZero(caps.Scores, "editability"),
		poseControl,
		scoreOrZero(caps.Scores, "inpainting"),
		scoreOrZero(caps.Scores, "instruction_editing"),
		scoreOrZero(caps.Scores, "consistency"),
		scoreOrZero(caps.Scores, "speed"),
	}
}

type videoScorer struct{}

func (videoScorer) Dimensions() []string {
	return []string{"motion_quality", "temporal_coherence", "generation_speed"}
}

func (videoScorer) BuildUserVector(user userprofile.UserProfile) []float64 {
	var motionIntensity float64
	var temporalCoherence int
	if user.VideoPrefs != nil {
		motionIntensity = user.VideoPrefs.MotionIntensity
		temporalCoherence = user.VideoPrefs.TemporalCoherence
	}
	return []float64{
		motionIntensity,
		normalizedSlider(temporalCoherence),
		user.SharedQuality.NormalizedGenerationSpeed(),
	}
}

func (videoScorer) BuildModelVector(caps modelcatalog.Capabilities) []float64 {
	return []float64{
		scoreOrZero(caps.Scores, "motion_quality"),
		scoreOrZero(caps.Scores, "temporal_coherence"),
		scoreOrZero(caps.Scores, "speed"),
	}
}

type audioScorer struct{}

func (audioScorer) Dimensions() []string { return []string{"lip_sync", "generation_speed"} }

func (audioScorer) BuildUserVector(user userprofile.UserProfile) []float64 {
	lipSync := 0.0
	if user.AudioPrefs != nil && normalizedSlider(user.AudioPrefs.VoiceConsistency) >= 0.5 {
		lipSync = 1.0
	}
	return []float64{lipSync, user.SharedQuality.NormalizedGenerationSpeed()}
}

func (audioScorer) BuildModelVector(caps modelcatalog.Capabilities) []float64 {
	return []float64{scoreOrZero(caps.Scores, "lip_sync"), scoreOrZero(caps.Scores, "speed")}
}

type threeDScorer struct{}

func (threeDScorer) Dimensions() []string { return []string{"mesh_quality", "generation_speed"} }

func (threeDScorer) BuildUserVector(user userprofile.UserProfile) []float64 {
	meshQuality := 0
	if user.ThreeDPrefs != nil {
		meshQuality = user.ThreeDPrefs.MeshQuality
	}
	return []float64{normalizedSlider(meshQuality), user.SharedQuality.NormalizedGenerationSpeed()}
}

func (threeDScorer) BuildModelVector(caps modelcatalog.Capabilities) []float64 {
	return []float64{scoreOrZero(caps.Scores, "mesh_quality"), scoreOrZero(caps.Scores, "speed")}
}

// l2Normalize returns v scaled to unit length, or the zero vector unchanged
// when v has zero magnitude.
func l2Normalize(v []float64) []float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// cosineSimilarity returns the cosine of the angle between a and b. A
// zero-magnitude input yields similarity 0, never NaN.
func cosineSimilarity(a, b []float64) float64 {
	na, nb := l2Normalize(a), l2Normalize(b)
	var dot float64
	var magA, magB float64
	for i := range na {
		dot += na[i] * nb[i]
		magA += na[i] * na[i]
		magB += nb[i] * nb[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot
}

// ScoreCandidates runs the content layer for one modality over the passing
// candidates that serve it.
func ScoreCandidates(ctx context.Context, passing []PassingCandidate, modality modelcatalog.Modality, user userprofile.UserProfile) ([]ScoredCandidate, error) {
	scorer, ok := scorerFor(modality)
	if !ok {
		return nil, &InvariantViolated{Detail: "no modality scorer registered for " + string(modality)}
	}
	dims := scorer.Dimensions()
	userVec := scorer.BuildUserVector(user)

	var out []ScoredCandidate
	for _, p := range passing {
		if err := ctx.Err(); err != nil {
			return nil, &Cancelled{}
		}
		if p.Entry == nil || !p.Entry.Serves(modality) {
			continue
		}
		modelVec := scorer.BuildModelVector(p.Entry.Capabilities)
		sim := cosineSimilarity(userVec, modelVec)

		var matching, missing []string
		for i, dim := range dims {
			u, m := userVec[i], modelVec[i]
			if m >= 0.6 && u >= 0.6 {
				matching = append(matching, dim)
			}
			if u >= 0.7 && m <= 0.3 {
				missing = append(missing, dim)
			}
		}

		out = append(out, ScoredCandidate{
			Passing:          p,
			Modality:         modality,
			Similarity:       sim,
			MatchingFeatures: matching,
			MissingFeatures:  missing,
		})
	}
	return out, nil
}

// AggregateContentSimilarity blends a candidate's per-modality similarities
// into the single content_similarity criterion TOPSIS ranks within one
// modality's pipeline, weighting each modality the candidate serves (that
// the user also requested) equally.
func AggregateContentSimilarity(byModality map[modelcatalog.Modality]float64) float64 {
	if len(byModality) == 0 {
		return 0
	}
	var sum float64
	for _, v := range byModality {
		sum += v
	}
	return sum / float64(len(byModality))
}
