package services

import (
	"fmt"
	"math"
	"sort"

	"clipsmith/types"
	"clipsmith/worker_service/app/config"
)

// PlanSegments converts detected cut points and the total duration into the
// final segment plan. The plan always covers [0, duration] contiguously with
// no gaps or overlaps; when no duration is known at all, a fixed plan is
// emitted instead. This function never fails.
func PlanSegments(cutPoints []float64, durationSeconds float64) []types.Segment {
	if durationSeconds <= 0 {
		return fixedFallbackPlan()
	}

	boundaries := segmentBoundaries(cutPoints, durationSeconds)
	segments := make([]types.Segment, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		segments = append(segments, types.Segment{
			Start: boundaries[i],
			End:   boundaries[i+1],
			Title: fmt.Sprintf("Clip %d", i+1),
		})
	}
	return typeSegments(segments)
}

// segmentBoundaries returns the ascending boundary list [0, ..., duration].
// Cut points outside (0, duration) are discarded; with none left, uniform
// time slicing applies.
func segmentBoundaries(cutPoints []float64, duration float64) []float64 {
	cuts := make([]float64, 0, len(cutPoints))
	seen := make(map[float64]bool, len(cutPoints))
	for _, t := range cutPoints {
		if t <= 0 || t >= duration || seen[t] {
			continue
		}
		seen[t] = true
		cuts = append(cuts, t)
	}
	sort.Float64s(cuts)

	if len(cuts) == 0 {
		return uniformBoundaries(duration)
	}

	boundaries := make([]float64, 0, len(cuts)+2)
	boundaries = append(boundaries, 0)
	boundaries = append(boundaries, cuts...)
	boundaries = append(boundaries, duration)
	return boundaries
}

// uniformBoundaries slices the duration into min(ceil(d/15), 4) equal-length
// segments, the last clipped to the duration.
func uniformBoundaries(duration float64) []float64 {
	count := int(math.Ceil(duration / config.FallbackSliceSeconds))
	if count < 1 {
		count = 1
	}
	if count > config.MaxFallbackSegments {
		count = config.MaxFallbackSegments
	}
	length := math.Ceil(duration / float64(count))

	boundaries := make([]float64, 0, count+1)
	for i := 0; i <= count; i++ {
		b := float64(i) * length
		if b > duration {
			b = duration
		}
		boundaries = append(boundaries, b)
	}
	return boundaries
}

// fixedFallbackPlan is the plan of last resort when no duration information
// exists. The extractor clamps reads past the actual media length.
func fixedFallbackPlan() []types.Segment {
	return typeSegments([]types.Segment{
		{Start: 0, End: 15, Title: "Clip 1"},
		{Start: 15, End: 45, Title: "Clip 2"},
		{Start: 45, End: 60, Title: "Clip 3"},
	})
}

// typeSegments labels the first segment intro, the last outro and everything
// between main. A single-segment plan is intro.
func typeSegments(segments []types.Segment) []types.Segment {
	for i := range segments {
		switch {
		case i == 0:
			segments[i].Type = types.SceneIntro
		case i == len(segments)-1:
			segments[i].Type = types.SceneOutro
		default:
			segments[i].Type = types.SceneMain
		}
	}
	return segments
}
