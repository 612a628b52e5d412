package recommend

import "testing"

func TestAdjustForSpaceNoPackingNeeded(t *testing.T) {
	inputs := []SpaceFitInput{{ModelID: "a", TotalSizeGB: 5}, {ModelID: "b", TotalSizeGB: 5}}
	result := AdjustForSpace(inputs, 100)
	if len(result.Kept) != 2 || len(result.Dropped) != 0 {
		t.Fatalf("expected both kept with ample free space, got %+v", result)
	}
}

func TestAdjustForSpaceGreedyByPriority(t *testing.T) {
	// 120GB free, 180GB desired across three candidates.
	inputs := []SpaceFitInput{
		{ModelID: "high-priority", TotalSizeGB: 70, Priority: 0},
		{ModelID: "mid-priority", TotalSizeGB: 60, CloudAvailable: true, Priority: 1},
		{ModelID: "low-priority", TotalSizeGB: 50, CloudAvailable: true, Priority: 2},
	}
	result := AdjustForSpace(inputs, 120)
	if result.SpaceShortGB != 70 {
		t.Errorf("expected space_short_gb = 70, got %v", result.SpaceShortGB)
	}
	keptSet := map[string]bool{}
	for _, id := range result.Kept {
		keptSet[id] = true
	}
	if !keptSet["high-priority"] {
		t.Errorf("expected the highest-priority candidate to be kept, got kept=%v", result.Kept)
	}
	if len(result.Dropped) == 0 {
		t.Errorf("expected at least one candidate dropped under constrained storage")
	}
	for _, id := range result.Dropped {
		found := false
		for _, cf := range result.CloudFallback {
			if cf == id {
				found = true
			}
		}
		if !found {
			t.Errorf("dropped candidate %s has cloud.available and should appear in cloud_fallback", id)
		}
	}
}

func TestAdjustForSpaceInvariantHolds(t *testing.T) {
	inputs := []SpaceFitInput{
		{ModelID: "a", TotalSizeGB: 40, Priority: 0},
		{ModelID: "b", TotalSizeGB: 40, Priority: 1},
		{ModelID: "c", TotalSizeGB: 40, Priority: 2},
	}
	freeGB := 50.0
	result := AdjustForSpace(inputs, freeGB)
	var keptSize float64
	bySizeByID := map[string]float64{"a": 40, "b": 40, "c": 40}
	for _, id := range result.Kept {
		keptSize += bySizeByID[id]
	}
	if keptSize+StorageBufferGB > freeGB {
		t.Errorf("space invariant violated: kept=%v size=%v buffer=%v free=%v", result.Kept, keptSize, StorageBufferGB, freeGB)
	}
}
