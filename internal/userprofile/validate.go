package userprofile

// Validate enforces the documented ranges on a UserProfile submitted by an
// external collaborator (the wizard UI), which cannot be trusted to
// pre-validate its own sliders. Returns the first violation found.
func (p UserProfile) Validate() error {
	if len(p.UseCases) == 0 {
		return &ValidationError{Field: "use_cases", Detail: "at least one use case is required"}
	}

	if err := validateSlider("shared_quality.photorealism", p.SharedQuality.Photorealism); err != nil {
		return err
	}
	if err := validateSlider("shared_quality.artistic_stylization", p.SharedQuality.ArtisticStylization); err != nil {
		return err
	}
	if err := validateSlider("shared_quality.generation_speed", p.SharedQuality.GenerationSpeed); err != nil {
		return err
	}
	if err := validateSlider("shared_quality.output_quality", p.SharedQuality.OutputQuality); err != nil {
		return err
	}
	if err := validateSlider("shared_quality.character_consistency", p.SharedQuality.CharacterConsistency); err != nil {
		return err
	}

	if p.ImagePrefs != nil {
		if err := validateSlider("image_prefs.editability", p.ImagePrefs.Editability); err != nil {
			return err
		}
		if err := validateSlider("image_prefs.pose_control", p.ImagePrefs.PoseControl); err != nil {
			return err
		}
		if err := validateSlider("image_prefs.holistic_edits", p.ImagePrefs.HolisticEdits); err != nil {
			return err
		}
		if err := validateSlider("image_prefs.localized_edits", p.ImagePrefs.LocalizedEdits); err != nil {
			return err
		}
	}

	if p.VideoPrefs != nil {
		if p.VideoPrefs.MotionIntensity < 0 || p.VideoPrefs.MotionIntensity > 1 {
			return &ValidationError{Field: "video_prefs.motion_intensity", Detail: "must be in [0,1]"}
		}
		if err := validateSlider("video_prefs.temporal_coherence", p.VideoPrefs.TemporalCoherence); err != nil {
			return err
		}
		switch p.VideoPrefs.Duration {
		case DurationShort, DurationMedium, DurationLong:
		default:
			return &ValidationError{Field: "video_prefs.duration", Detail: "must be short, medium, or long"}
		}
	}

	switch p.CloudWillingness {
	case CloudLocalOnly, CloudHybrid, CloudPreferred:
	default:
		return &ValidationError{Field: "cloud_willingness", Detail: "must be local_only, hybrid, or cloud_preferred"}
	}

	if p.SpeedPriority < 0 || p.SpeedPriority > 1 {
		return &ValidationError{Field: "speed_priority", Detail: "must be in [0,1]"}
	}

	switch p.TechnicalLevel {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		return &ValidationError{Field: "technical_level", Detail: "must be beginner, intermediate, or advanced"}
	}

	return nil
}

func validateSlider(field string, v int) error {
	if v < 1 || v > 5 {
		return &ValidationError{Field: field, Detail: "must be an integer in 1..5"}
	}
	return nil
}
