package timeline

import (
	"math"
	"testing"
)

func loadedStore(duration float64, cuts []float64) *Store {
	s := NewStore()
	s.LoadVideo(LoadVideoParams{
		VideoURL:  "http://127.0.0.1:8000/uploads/clip.mp4",
		FileName:  "clip.mp4",
		CutPoints: cuts,
		Duration:  &duration,
	})
	return s
}

func TestLoadVideo_NormalizesAndFiltersHidden(t *testing.T) {
	d := 10.0
	s := NewStore()
	s.LoadVideo(LoadVideoParams{
		VideoURL:       "u",
		CutPoints:      []float64{5, 0, 10, 5.0004},
		HiddenSegments: []float64{5, 7}, // 7 matches no cut, must be dropped
		Duration:       &d,
	})

	snap := s.Snapshot()
	if len(snap.CutPoints) != 3 {
		t.Fatalf("cut points = %v, want 3 normalized values", snap.CutPoints)
	}
	if len(snap.HiddenSegments) != 1 || snap.HiddenSegments[0] != 5 {
		t.Fatalf("hidden segments = %v, want [5]", snap.HiddenSegments)
	}
	if len(snap.ManualCutPoints) != 0 {
		t.Fatalf("manual cut points = %v, want empty after load", snap.ManualCutPoints)
	}
}

func TestAddManualCut_RoundsAndSelects(t *testing.T) {
	s := loadedStore(10, []float64{0, 10})
	s.AddManualCut(3.14159)

	snap := s.Snapshot()
	if len(snap.CutPoints) != 3 || snap.CutPoints[1] != 3.142 {
		t.Fatalf("cut points = %v, want [0 3.142 10]", snap.CutPoints)
	}
	if len(snap.ManualCutPoints) != 1 || snap.ManualCutPoints[0] != 3.142 {
		t.Fatalf("manual cut points = %v, want [3.142]", snap.ManualCutPoints)
	}
	if snap.SelectedCut == nil || *snap.SelectedCut != 3.142 {
		t.Fatalf("selected cut = %v, want 3.142", snap.SelectedCut)
	}
}

func TestAddManualCut_NoOpWithinEpsilon(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})
	s.AddManualCut(5.0004)

	snap := s.Snapshot()
	if len(snap.CutPoints) != 3 {
		t.Fatalf("cut points = %v, duplicate within epsilon must not be added", snap.CutPoints)
	}
	if len(snap.ManualCutPoints) != 0 {
		t.Fatalf("manual cut points = %v, want empty", snap.ManualCutPoints)
	}
}

func TestAddManualCut_NoOpAtEpsilonRoundingBoundary(t *testing.T) {
	// 5.0005 sits within epsilon of the cut at 5.0, but ms rounding lifts it
	// to 5.001, exactly epsilon away. The duplicate check must fire on the
	// unrounded value.
	s := loadedStore(8, []float64{0, 2, 5, 8})
	s.AddManualCut(5.0005)

	snap := s.Snapshot()
	if len(snap.CutPoints) != 4 {
		t.Fatalf("cut points = %v, want [0 2 5 8] unchanged", snap.CutPoints)
	}
	if len(snap.ManualCutPoints) != 0 {
		t.Fatalf("manual cut points = %v, want empty", snap.ManualCutPoints)
	}
}

func TestAddManualCut_ClampsToDuration(t *testing.T) {
	s := loadedStore(10, []float64{0, 10})
	s.AddManualCut(25)

	// 25 clamps to 10, which already exists, so nothing is added.
	snap := s.Snapshot()
	if len(snap.CutPoints) != 2 {
		t.Fatalf("cut points = %v, want [0 10]", snap.CutPoints)
	}
}

func TestRemoveCut_BoundariesGuarded(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})

	s.RemoveCut(0)
	s.RemoveCut(10)
	snap := s.Snapshot()
	if len(snap.CutPoints) != 3 {
		t.Fatalf("cut points = %v, boundary cuts must survive removal", snap.CutPoints)
	}

	s.RemoveCut(5)
	snap = s.Snapshot()
	if len(snap.CutPoints) != 2 {
		t.Fatalf("cut points = %v, want [0 10] after removing 5", snap.CutPoints)
	}
}

func TestRemoveCut_MatchesAtEpsilonRoundingBoundary(t *testing.T) {
	s := loadedStore(8, []float64{0, 2, 5, 8})

	s.RemoveCut(5.0005)
	snap := s.Snapshot()
	if len(snap.CutPoints) != 3 {
		t.Fatalf("cut points = %v, want [0 2 8] after removing 5", snap.CutPoints)
	}
	if containsWithin(snap.CutPoints, 5) {
		t.Fatalf("cut points = %v, cut 5 must be gone", snap.CutPoints)
	}
}

func TestToggleHideSegment_MatchesAtEpsilonRoundingBoundary(t *testing.T) {
	s := loadedStore(8, []float64{0, 2, 5, 8})

	s.ToggleHideSegment(5.0005)
	snap := s.Snapshot()
	if len(snap.HiddenSegments) != 1 || snap.HiddenSegments[0] != 5 {
		t.Fatalf("hidden segments = %v, want [5] keyed by the cut value", snap.HiddenSegments)
	}

	s.ToggleHideSegment(5.0005)
	snap = s.Snapshot()
	if len(snap.HiddenSegments) != 0 {
		t.Fatalf("hidden segments = %v, want empty after second toggle", snap.HiddenSegments)
	}
}

func TestRemoveCut_ClearsHiddenAndSelection(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})
	s.SelectCut(ptr(5.0))
	s.ToggleHideSegment(5)

	s.RemoveCut(5)
	snap := s.Snapshot()
	if len(snap.HiddenSegments) != 0 {
		t.Fatalf("hidden segments = %v, want empty after removing their cut", snap.HiddenSegments)
	}
	if snap.SelectedCut != nil {
		t.Fatalf("selected cut = %v, want nil after removal", *snap.SelectedCut)
	}
}

func TestToggleHideSegment(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})

	s.ToggleHideSegment(5)
	if snap := s.Snapshot(); len(snap.HiddenSegments) != 1 {
		t.Fatalf("hidden segments = %v, want [5]", snap.HiddenSegments)
	}

	s.ToggleHideSegment(5)
	if snap := s.Snapshot(); len(snap.HiddenSegments) != 0 {
		t.Fatalf("hidden segments = %v, want empty after second toggle", snap.HiddenSegments)
	}
}

func TestToggleHideSegment_GuardedCases(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})

	s.ToggleHideSegment(7) // matches no cut
	if snap := s.Snapshot(); len(snap.HiddenSegments) != 0 {
		t.Fatal("toggling a non-cut time must be a no-op")
	}

	s.ToggleHideSegment(10) // last cut starts no segment
	if snap := s.Snapshot(); len(snap.HiddenSegments) != 0 {
		t.Fatal("toggling the last cut must be a no-op")
	}
}

func TestCyclePlaybackRate(t *testing.T) {
	s := NewStore()
	if got := s.PlaybackRate(); got != 1 {
		t.Fatalf("initial rate = %v, want 1", got)
	}

	want := []float64{0.5, 0.25, 1, 0.5}
	for i, expected := range want {
		if got := s.CyclePlaybackRate(); got != expected {
			t.Fatalf("cycle %d = %v, want %v", i+1, got, expected)
		}
	}
}

func TestSetPlayhead_Clamped(t *testing.T) {
	s := loadedStore(10, []float64{0, 10})

	s.SetPlayhead(-2)
	if snap := s.Snapshot(); snap.Playhead != 0 {
		t.Fatalf("playhead = %v, want 0", snap.Playhead)
	}

	s.SetPlayhead(99)
	if snap := s.Snapshot(); snap.Playhead != 10 {
		t.Fatalf("playhead = %v, want 10", snap.Playhead)
	}
}

func TestCanDelete(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})

	if s.CanDelete() {
		t.Fatal("no selection should not be deletable")
	}

	s.SelectCut(ptr(0.0))
	if s.CanDelete() {
		t.Fatal("the zero boundary must not be deletable")
	}

	s.SelectCut(ptr(10.0))
	if s.CanDelete() {
		t.Fatal("the duration boundary must not be deletable")
	}

	s.SelectCut(ptr(5.0))
	if !s.CanDelete() {
		t.Fatal("an interior cut must be deletable")
	}
}

func TestCanHide(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})

	if s.CanHide() {
		t.Fatal("no selection should not be hideable")
	}

	s.SelectCut(ptr(10.0))
	if s.CanHide() {
		t.Fatal("the last cut starts no segment and must not be hideable")
	}

	s.SelectCut(ptr(5.0))
	if !s.CanHide() {
		t.Fatal("an interior cut must be hideable")
	}
	s.SelectCut(ptr(0.0))
	if !s.CanHide() {
		t.Fatal("the first cut starts the first segment and must be hideable")
	}
}

func TestResetVideo(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})
	s.ResetVideo()

	snap := s.Snapshot()
	if snap.VideoURL != "" || snap.Duration != nil || len(snap.CutPoints) != 0 {
		t.Fatalf("snapshot after reset = %+v, want zero state", snap)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := loadedStore(10, []float64{0, 5, 10})
	snap := s.Snapshot()
	snap.CutPoints[1] = 99

	if got := s.Snapshot().CutPoints[1]; math.Abs(got-5) > 1e-9 {
		t.Fatalf("mutating a snapshot leaked into the store: %v", got)
	}
}

func ptr(v float64) *float64 {
	return &v
}
