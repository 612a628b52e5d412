package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/recommend"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "state.db"), "sqlite")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResult(id string) recommend.RecommendationResult {
	return recommend.RecommendationResult{
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		PerModalityRankings: map[modelcatalog.Modality][]recommend.RankedCandidate{
			modelcatalog.ModalityImage: {
				{Passing: recommend.PassingCandidate{ModelID: "sdxl-base"}, TopsisScore: 0.8, Rank: 1},
			},
		},
		Manifest: recommend.Manifest{TotalSizeGB: 7},
	}
}

func TestSaveAndGetRecommendation(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	result := sampleResult("run-1")
	profile := &hwprofile.HardwareProfile{Platform: hwprofile.PlatformNVIDIADesktop}
	if err := s.SaveRecommendation(result, profile, nil); err != nil {
		t.Fatalf("SaveRecommendation: %v", err)
	}

	loaded, err := s.GetRecommendation("run-1")
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if loaded.ID != "run-1" {
		t.Fatalf("expected id run-1, got %s", loaded.ID)
	}
	if loaded.Manifest.TotalSizeGB != 7 {
		t.Fatalf("expected manifest total size 7, got %v", loaded.Manifest.TotalSizeGB)
	}
}

func TestGetRecommendationNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	if _, err := s.GetRecommendation("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryOrdersNewestFirst(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	profile := &hwprofile.HardwareProfile{Platform: hwprofile.PlatformAppleSilicon}

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		result := sampleResult(id)
		result.Timestamp = base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
		if err := s.SaveRecommendation(result, profile, nil); err != nil {
			t.Fatalf("SaveRecommendation(%s): %v", id, err)
		}
	}

	history, err := s.History(2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].ID != "run-c" || history[1].ID != "run-b" {
		t.Fatalf("expected newest-first order [run-c run-b], got [%s %s]", history[0].ID, history[1].ID)
	}
}

func TestLatestForModality(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	profile := &hwprofile.HardwareProfile{Platform: hwprofile.PlatformNVIDIADesktop}

	if err := s.SaveRecommendation(sampleResult("run-image"), profile, nil); err != nil {
		t.Fatalf("SaveRecommendation: %v", err)
	}

	found, err := s.LatestForModality(modelcatalog.ModalityImage)
	if err != nil {
		t.Fatalf("LatestForModality: %v", err)
	}
	if found.ID != "run-image" {
		t.Fatalf("expected run-image, got %s", found.ID)
	}

	if _, err := s.LatestForModality(modelcatalog.ModalityAudio); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unseen modality, got %v", err)
	}
}

func TestHardwareSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	profile := &hwprofile.HardwareProfile{
		Platform: hwprofile.PlatformNVIDIADesktop,
		GPU:      hwprofile.GPU{VRAMGB: 24, Name: "RTX 4090"},
	}
	if err := s.SaveHardwareSnapshot("snap-1", profile); err != nil {
		t.Fatalf("SaveHardwareSnapshot: %v", err)
	}

	loaded, probedAt, err := s.LatestHardwareSnapshot()
	if err != nil {
		t.Fatalf("LatestHardwareSnapshot: %v", err)
	}
	if loaded.GPU.Name != "RTX 4090" {
		t.Fatalf("expected RTX 4090, got %s", loaded.GPU.Name)
	}
	if probedAt.IsZero() {
		t.Fatalf("expected non-zero probed_at")
	}
}

func TestCatalogSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	entries := []*modelcatalog.Entry{
		{ID: "sdxl-base", Family: "stable-diffusion", Name: "SDXL Base"},
		{ID: "flux-dev", Family: "flux", Name: "Flux Dev"},
	}
	if err := s.SaveCatalogSnapshot(entries); err != nil {
		t.Fatalf("SaveCatalogSnapshot: %v", err)
	}

	loaded, updated, err := s.LoadCatalogSnapshot()
	if err != nil {
		t.Fatalf("LoadCatalogSnapshot: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}
	if updated.IsZero() {
		t.Fatalf("expected non-zero timestamp")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.db")

	s, err := Open(path, "sqlite")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
}
