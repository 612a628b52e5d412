package modelcatalog

import "testing"

const sampleCatalog = `[
  {
    "id": "sdxl-base",
    "family": "stable-diffusion",
    "name": "SDXL Base 1.0",
    "license": "openrail++",
    "variants": [
      {
        "id": "sdxl-base-fp16",
        "precision": "fp16",
        "vramMinMb": 8000,
        "vramRecommendedMb": 12000,
        "downloadSizeGb": 6.9,
        "qualityRetentionPercent": 100,
        "platformSupport": {"nvidia": {"supported": true}, "apple_mps": {"supported": true}}
      },
      {
        "id": "sdxl-base-gguf-q4km",
        "precision": "gguf_q4_k_m",
        "vramMinMb": 4000,
        "vramRecommendedMb": 6000,
        "downloadSizeGb": 3.1,
        "qualityRetentionPercent": 88,
        "platformSupport": {"nvidia": {"supported": true}, "apple_mps": {"supported": false}}
      }
    ],
    "capabilities": {
      "primary": ["image"],
      "scores": {"photorealism": 0.82, "speed": 0.7}
    },
    "hardware": {
      "totalSizeGb": 6.9,
      "computeIntensity": "medium",
      "supportsCpuOffload": true,
      "ramForOffloadGb": 16
    },
    "cloud": {
      "available": true,
      "service": "replicate",
      "estimatedCostPerGen": 0.012
    }
  },
  {
    "id": "svd-xt",
    "family": "stable-video-diffusion",
    "name": "Stable Video Diffusion XT",
    "variants": [
      {
        "id": "svd-xt-fp16",
        "precision": "fp16",
        "vramMinMb": 16000,
        "vramRecommendedMb": 24000,
        "downloadSizeGb": 9.5,
        "qualityRetentionPercent": 100,
        "platformSupport": {"nvidia": {"supported": true}}
      }
    ],
    "capabilities": {
      "primary": ["video"],
      "scores": {"motion_quality": 0.75}
    },
    "hardware": {
      "totalSizeGb": 9.5,
      "computeIntensity": "high",
      "supportsCpuOffload": false
    },
    "cloud": {
      "available": false
    }
  }
]`

func TestLoadBytesValid(t *testing.T) {
	c := New()
	if err := c.LoadBytes([]byte(sampleCatalog)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Count() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Count())
	}
	entry := c.Get("sdxl-base")
	if entry == nil {
		t.Fatal("expected sdxl-base entry")
	}
	if !entry.Variants[1].Precision.IsKQuant() {
		t.Error("expected gguf_q4_k_m to be classified as a K-quant")
	}
}

func TestCandidatesForModality(t *testing.T) {
	c := New()
	if err := c.LoadBytes([]byte(sampleCatalog)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	images := c.CandidatesFor(ModalityImage)
	if len(images) != 1 || images[0].ID != "sdxl-base" {
		t.Errorf("expected one image candidate sdxl-base, got %v", images)
	}
	videos := c.CandidatesFor(ModalityVideo)
	if len(videos) != 1 || videos[0].ID != "svd-xt" {
		t.Errorf("expected one video candidate svd-xt, got %v", videos)
	}
}

func TestVariantsOfFiltersUnsupportedPlatform(t *testing.T) {
	c := New()
	if err := c.LoadBytes([]byte(sampleCatalog)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mps := c.VariantsOf("sdxl-base", "apple_mps")
	if len(mps) != 1 || mps[0].ID != "sdxl-base-fp16" {
		t.Errorf("expected only fp16 variant on mps, got %v", mps)
	}
	cuda := c.VariantsOf("sdxl-base", "nvidia")
	if len(cuda) != 2 {
		t.Errorf("expected both variants on cuda, got %v", cuda)
	}
}

func TestLoadBytesRejectsMissingRequiredField(t *testing.T) {
	c := New()
	bad := `[{"id": "x", "family": "f", "name": "n"}]`
	if err := c.LoadBytes([]byte(bad)); err == nil {
		t.Fatal("expected schema validation error for missing variants/capabilities/hardware/cloud")
	}
}

func TestLoadBytesRejectsVRAMInversion(t *testing.T) {
	c := New()
	bad := `[
	  {
	    "id": "bad-model",
	    "family": "f",
	    "name": "n",
	    "variants": [{"id": "v1", "precision": "fp16", "vramMinMb": 20000, "vramRecommendedMb": 8000, "platformSupport": {}}],
	    "capabilities": {"primary": ["image"], "scores": {}},
	    "hardware": {"totalSizeGb": 1, "computeIntensity": "low"},
	    "cloud": {"available": false}
	  }
	]`
	if err := c.LoadBytes([]byte(bad)); err == nil {
		t.Fatal("expected error for vramMinMb > vramRecommendedMb")
	}
}

func TestLoadBytesUnknownPrecisionWarnsNotFails(t *testing.T) {
	c := New()
	doc := `[
	  {
	    "id": "odd-model",
	    "family": "f",
	    "name": "n",
	    "variants": [{"id": "v1", "precision": "int4_experimental", "vramMinMb": 2000, "vramRecommendedMb": 4000, "platformSupport": {}}],
	    "capabilities": {"primary": ["image"], "scores": {}},
	    "hardware": {"totalSizeGb": 1, "computeIntensity": "low"},
	    "cloud": {"available": false}
	  }
	]`
	if err := c.LoadBytes([]byte(doc)); err != nil {
		t.Fatalf("unknown precision should warn, not fail: %v", err)
	}
	if len(c.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", c.Warnings())
	}
}
