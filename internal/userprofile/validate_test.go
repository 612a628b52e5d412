package userprofile

import "testing"

func validProfile() UserProfile {
	return UserProfile{
		UseCases: []string{"portrait-photography"},
		SharedQuality: SharedQuality{
			Photorealism:         5,
			ArtisticStylization:  3,
			GenerationSpeed:      2,
			OutputQuality:        4,
			CharacterConsistency: 3,
		},
		CloudWillingness: CloudHybrid,
		SpeedPriority:    0.4,
		TechnicalLevel:   LevelIntermediate,
	}
}

func TestValidateAcceptsWellFormedProfile(t *testing.T) {
	if err := validProfile().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsOutOfRangeSlider(t *testing.T) {
	p := validProfile()
	p.SharedQuality.Photorealism = 6
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for photorealism=6")
	}
}

func TestValidateRejectsEmptyUseCases(t *testing.T) {
	p := validProfile()
	p.UseCases = nil
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for empty use_cases")
	}
}

func TestValidateRejectsSpeedPriorityOutOfRange(t *testing.T) {
	p := validProfile()
	p.SpeedPriority = 1.5
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for speed_priority=1.5")
	}
}

func TestValidateRejectsUnknownCloudWillingness(t *testing.T) {
	p := validProfile()
	p.CloudWillingness = "whenever"
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for unknown cloud_willingness")
	}
}

func TestValidateVideoPrefsWhenPresent(t *testing.T) {
	p := validProfile()
	p.VideoPrefs = &VideoPrefs{MotionIntensity: 1.4, TemporalCoherence: 3, Duration: DurationShort}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for motion_intensity out of range")
	}
}

func TestRequiredModalitiesUnion(t *testing.T) {
	p := UserProfile{UseCases: []string{"portrait-photography", "social-video-clips"}}
	mods := p.RequiredModalities(DefaultUseCases)
	if len(mods) != 2 {
		t.Fatalf("expected 2 modalities, got %v", mods)
	}
	if !p.Requires(DefaultUseCases, ModalityImage) || !p.Requires(DefaultUseCases, ModalityVideo) {
		t.Errorf("expected both image and video required, got %v", mods)
	}
	if p.Requires(DefaultUseCases, ModalityAudio) {
		t.Errorf("audio should not be required")
	}
}
