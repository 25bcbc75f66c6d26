package services

import (
	"testing"

	"clipsmith/types"
)

// assertPlanInvariants checks the contiguity and typing rules every plan
// must satisfy.
func assertPlanInvariants(t *testing.T, segments []types.Segment, wantTotal float64) {
	t.Helper()

	if len(segments) == 0 {
		t.Fatal("plan is empty")
	}
	if segments[0].Start != 0 {
		t.Fatalf("first segment starts at %v; want 0", segments[0].Start)
	}
	if segments[len(segments)-1].End != wantTotal {
		t.Fatalf("last segment ends at %v; want %v", segments[len(segments)-1].End, wantTotal)
	}
	for i := 0; i < len(segments)-1; i++ {
		if segments[i].End != segments[i+1].Start {
			t.Fatalf("gap between segment %d (end %v) and %d (start %v)",
				i, segments[i].End, i+1, segments[i+1].Start)
		}
	}

	if len(segments) == 1 {
		if segments[0].Type != types.SceneIntro {
			t.Fatalf("single-segment plan typed %s; want intro", segments[0].Type)
		}
		return
	}
	for i, seg := range segments {
		want := types.SceneMain
		if i == 0 {
			want = types.SceneIntro
		} else if i == len(segments)-1 {
			want = types.SceneOutro
		}
		if seg.Type != want {
			t.Fatalf("segment %d typed %s; want %s", i, seg.Type, want)
		}
	}
}

func TestPlanSegments_Coverage(t *testing.T) {
	cases := []struct {
		name     string
		cuts     []float64
		duration float64
	}{
		{"no cuts short video", nil, 12},
		{"no cuts long video", nil, 300},
		{"one cut", []float64{20}, 60},
		{"many cuts", []float64{3.5, 7, 12.25, 40}, 58},
		{"cuts out of order", []float64{40, 7, 3.5}, 58},
		{"duplicate cuts", []float64{10, 10, 20}, 30},
		{"cut at zero discarded", []float64{0, 15}, 30},
		{"cut past duration discarded", []float64{15, 99}, 30},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			segments := PlanSegments(c.cuts, c.duration)
			assertPlanInvariants(t, segments, c.duration)
		})
	}
}

func TestPlanSegments_SceneBoundaries(t *testing.T) {
	segments := PlanSegments([]float64{10, 25}, 42)

	want := []types.Segment{
		{Start: 0, End: 10, Title: "Clip 1", Type: types.SceneIntro},
		{Start: 10, End: 25, Title: "Clip 2", Type: types.SceneMain},
		{Start: 25, End: 42, Title: "Clip 3", Type: types.SceneOutro},
	}
	if len(segments) != len(want) {
		t.Fatalf("got %d segments; want %d", len(segments), len(want))
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Fatalf("segment %d = %+v; want %+v", i, segments[i], want[i])
		}
	}
}

func TestPlanSegments_UniformFallback(t *testing.T) {
	// ceil(40/15) = 3 slices of ceil(40/3) = 14s, last clipped to 40
	segments := PlanSegments(nil, 40)

	assertPlanInvariants(t, segments, 40)
	if len(segments) != 3 {
		t.Fatalf("got %d segments; want 3", len(segments))
	}
	if segments[0].End != 14 || segments[1].End != 28 {
		t.Fatalf("boundaries = %v, %v; want 14, 28", segments[0].End, segments[1].End)
	}
}

func TestPlanSegments_UniformFallbackCapped(t *testing.T) {
	// a long video still gets at most 4 segments
	segments := PlanSegments(nil, 600)

	assertPlanInvariants(t, segments, 600)
	if len(segments) != 4 {
		t.Fatalf("got %d segments; want 4", len(segments))
	}
}

func TestPlanSegments_ZeroDurationFallback(t *testing.T) {
	for _, duration := range []float64{0, -5} {
		segments := PlanSegments(nil, duration)

		want := []types.Segment{
			{Start: 0, End: 15, Title: "Clip 1", Type: types.SceneIntro},
			{Start: 15, End: 45, Title: "Clip 2", Type: types.SceneMain},
			{Start: 45, End: 60, Title: "Clip 3", Type: types.SceneOutro},
		}
		if len(segments) != len(want) {
			t.Fatalf("duration %v: got %d segments; want %d", duration, len(segments), len(want))
		}
		for i := range want {
			if segments[i] != want[i] {
				t.Fatalf("duration %v: segment %d = %+v; want %+v", duration, i, segments[i], want[i])
			}
		}
	}
}

func TestPlanSegments_SingleSegment(t *testing.T) {
	// 10s video, no cuts: one slice, typed intro
	segments := PlanSegments(nil, 10)

	assertPlanInvariants(t, segments, 10)
	if len(segments) != 1 {
		t.Fatalf("got %d segments; want 1", len(segments))
	}
}
