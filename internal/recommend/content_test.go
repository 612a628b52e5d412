package recommend

import (
	"context"
	"math"
	"testing"

	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

func TestCosineSimilarityZeroVectorYieldsZero(t *testing.T) {
	if got := cosineSimilarity([]float64{0, 0, 0}, []float64{1, 0, 0}); got != 0 {
		t.Errorf("zero-magnitude vector must score 0, got %v", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors must score 1, got %v", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors must score 0, got %v", got)
	}
}

func TestImageUserVectorPhotorealismHalvedWithoutStyleTag(t *testing.T) {
	user := testUser()
	user.ImagePrefs = &userprofile.ImagePrefs{Editability: 1, PoseControl: 1, HolisticEdits: 1, LocalizedEdits: 1}

	vec := imageScorer{}.BuildUserVector(user)
	// photorealism slider 5 normalizes to 1.0, halved without the style tag.
	if vec[0] != 0.5 {
		t.Errorf("expected photorealism 0.5 without style tag, got %v", vec[0])
	}

	user.ImagePrefs.StyleTags = []string{"photorealism"}
	vec = imageScorer{}.BuildUserVector(user)
	if vec[0] != 1.0 {
		t.Errorf("expected photorealism 1.0 with style tag, got %v", vec[0])
	}
}

func TestImageUserVectorPoseControlIsBinary(t *testing.T) {
	user := testUser()
	user.ImagePrefs = &userprofile.ImagePrefs{Editability: 1, PoseControl: 4, HolisticEdits: 1, LocalizedEdits: 1}
	vec := imageScorer{}.BuildUserVector(user)
	if vec[4] != 1.0 {
		t.Errorf("pose_control slider 4 (normalized 0.75) must project to 1.0, got %v", vec[4])
	}

	user.ImagePrefs.PoseControl = 2
	vec = imageScorer{}.BuildUserVector(user)
	if vec[4] != 0.0 {
		t.Errorf("pose_control slider 2 (normalized 0.25) must project to 0, got %v", vec[4])
	}
}

func TestScoreCandidatesFeatureLists(t *testing.T) {
	entry := &modelcatalog.Entry{
		ID:   "feature-model",
		Name: "Feature Model",
		Capabilities: modelcatalog.Capabilities{
			Primary: []string{"image"},
			Scores:  map[string]float64{"photorealism": 0.9, "speed": 0.5},
		},
	}
	user := testUser()
	user.ImagePrefs = &userprofile.ImagePrefs{Editability: 5, PoseControl: 1, HolisticEdits: 1, LocalizedEdits: 1, StyleTags: []string{"photorealism"}}

	passing := []PassingCandidate{{ModelID: entry.ID, Entry: entry, ExecutionMode: ExecutionGPUNative}}
	scored, err := ScoreCandidates(context.Background(), passing, modelcatalog.ModalityImage, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scored) != 1 {
		t.Fatalf("expected one scored candidate, got %d", len(scored))
	}

	hasMatching := false
	for _, f := range scored[0].MatchingFeatures {
		if f == "photorealism" {
			hasMatching = true
		}
	}
	if !hasMatching {
		t.Errorf("photorealism (user 1.0, model 0.9) should be a matching feature, got %v", scored[0].MatchingFeatures)
	}

	hasMissing := false
	for _, f := range scored[0].MissingFeatures {
		if f == "editability" {
			hasMissing = true
		}
	}
	if !hasMissing {
		t.Errorf("editability (user 1.0, model 0) should be a missing feature, got %v", scored[0].MissingFeatures)
	}

	if scored[0].Similarity < 0 || scored[0].Similarity > 1 {
		t.Errorf("similarity out of [0,1]: %v", scored[0].Similarity)
	}
}

func TestScoreCandidatesSkipsEntriesOutsideModality(t *testing.T) {
	entry := &modelcatalog.Entry{
		ID:           "video-only",
		Capabilities: modelcatalog.Capabilities{Primary: []string{"video"}, Scores: map[string]float64{"motion_quality": 0.8}},
	}
	passing := []PassingCandidate{{ModelID: entry.ID, Entry: entry}}
	scored, err := ScoreCandidates(context.Background(), passing, modelcatalog.ModalityImage, testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scored) != 0 {
		t.Errorf("a video-only entry must not be scored for image, got %v", scored)
	}
}

func TestScoreCandidatesUnknownModality(t *testing.T) {
	if _, err := ScoreCandidates(context.Background(), nil, modelcatalog.Modality("holograms"), testUser()); err == nil {
		t.Fatal("expected an error for an unregistered modality scorer")
	}
}

func TestAggregateContentSimilarityMean(t *testing.T) {
	sims := map[modelcatalog.Modality]float64{
		modelcatalog.ModalityImage: 0.8,
		modelcatalog.ModalityVideo: 0.4,
	}
	if got := AggregateContentSimilarity(sims); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("expected mean 0.6, got %v", got)
	}
	if got := AggregateContentSimilarity(nil); got != 0 {
		t.Errorf("expected 0 for no modalities, got %v", got)
	}
}
