package recommend

import (
	"sort"

	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
)

// SpaceFitInput is one selected candidate entering the packing decision.
type SpaceFitInput struct {
	ModelID       string
	TotalSizeGB   float64
	CloudAvailable bool
	Priority      int // lower number = more important
}

// SpaceFitResult is the outcome of greedy, priority-ordered packing.
type SpaceFitResult struct {
	Kept          []string
	CloudFallback []string
	Dropped       []string
	SpaceShortGB  float64
}

// AdjustForSpace packs selected candidates greedily by ascending priority
// when their combined footprint plus the storage buffer would
// exceed free disk space.
func AdjustForSpace(selected []SpaceFitInput, freeGB float64) SpaceFitResult {
	var total float64
	for _, s := range selected {
		total += s.TotalSizeGB
	}
	if total+StorageBufferGB <= freeGB {
		result := SpaceFitResult{}
		for _, s := range selected {
			result.Kept = append(result.Kept, s.ModelID)
		}
		return result
	}

	ordered := make([]SpaceFitInput, len(selected))
	copy(ordered, selected)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	result := SpaceFitResult{}
	budget := freeGB - StorageBufferGB
	var used float64
	for _, s := range ordered {
		if used+s.TotalSizeGB <= budget {
			result.Kept = append(result.Kept, s.ModelID)
			used += s.TotalSizeGB
			continue
		}
		result.Dropped = append(result.Dropped, s.ModelID)
		if s.CloudAvailable {
			result.CloudFallback = append(result.CloudFallback, s.ModelID)
		}
	}

	result.SpaceShortGB = total + StorageBufferGB - freeGB
	return result
}

// priorityFromModalityCount derives a packing priority for a modality from
// its position in the user's required-modality order: the first modality
// gets 0 and is packed first, and a modality not in the list gets the
// lowest priority. Callers that have an explicit use_case_priorities map
// should prefer that instead.
func priorityFromModalityCount(modality modelcatalog.Modality, requestOrder []modelcatalog.Modality) int {
	for i, m := range requestOrder {
		if m == modality {
			return i
		}
	}
	return len(requestOrder)
}
