// Package timeline holds the editing and playback state for the loaded video:
// the cut-point sequence, hidden segments, playhead, and playback rate. It is
// the single source of truth consumed by every control surface; mutations are
// defensive no-ops on invalid input rather than errors.
package timeline

import (
	"fmt"
	"math"
	"sync"
)

// Session is the full timeline state. Duration and SelectedCut are nil until
// known/selected.
type Session struct {
	VideoURL        string    `json:"video_url,omitempty"`
	FileName        string    `json:"file_name,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	TranscodeStatus string    `json:"transcode_status,omitempty"`
	Duration        *float64  `json:"duration,omitempty"`
	CutPoints       []float64 `json:"cut_points"`
	ManualCutPoints []float64 `json:"manual_cut_points"`
	HiddenSegments  []float64 `json:"hidden_segments"`
	SelectedCut     *float64  `json:"selected_cut,omitempty"`
	Playhead        float64   `json:"playhead"`
	RateIndex       int       `json:"rate_index"`
	Playing         bool      `json:"playing"`
}

// LoadVideoParams replaces the whole session on LoadVideo.
type LoadVideoParams struct {
	VideoURL        string
	FileName        string
	CutPoints       []float64
	Duration        *float64
	HiddenSegments  []float64
	SessionID       string
	TranscodeStatus string
}

// Store serializes access to a Session. A single Store instance is shared by
// the local API, the workspace session manager, and the tray.
type Store struct {
	mu      sync.Mutex
	session Session
}

func NewStore() *Store {
	return &Store{}
}

// LoadVideo atomically replaces all timeline fields. Hidden segments that do
// not match a normalized cut point are discarded.
func (s *Store) LoadVideo(p LoadVideoParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cuts := NormalizeCuts(p.CutPoints)
	hidden := make([]float64, 0)
	for _, h := range NormalizeCuts(p.HiddenSegments) {
		if containsWithin(cuts, h) {
			hidden = append(hidden, h)
		}
	}

	s.session = Session{
		VideoURL:        p.VideoURL,
		FileName:        p.FileName,
		SessionID:       p.SessionID,
		TranscodeStatus: p.TranscodeStatus,
		Duration:        p.Duration,
		CutPoints:       cuts,
		ManualCutPoints: nil,
		HiddenSegments:  hidden,
	}
}

// ResetVideo clears the session to its empty state.
func (s *Store) ResetVideo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
}

func (s *Store) SetDuration(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Duration = &seconds
}

// SetPlayhead clamps to [0, duration] when the duration is known.
func (s *Store) SetPlayhead(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Playhead = clampTime(seconds, s.session.Duration)
}

func (s *Store) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Playing = playing
}

func (s *Store) SetTranscodeStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.TranscodeStatus = status
}

// SelectCut records the selected cut point; nil clears the selection.
func (s *Store) SelectCut(t *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == nil {
		s.session.SelectedCut = nil
		return
	}
	v := *t
	s.session.SelectedCut = &v
}

// AddManualCut inserts a cut point, keeping the sequence sorted. A point
// within Epsilon of an existing cut is a no-op. The new point becomes the
// selection.
func (s *Store) AddManualCut(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The duplicate check happens before ms rounding: rounding can push a
	// borderline value (5.0005 beside a cut at 5.0) just past Epsilon.
	clamped := clampTime(t, s.session.Duration)
	if containsWithin(s.session.CutPoints, clamped) {
		return
	}
	rounded := roundMs(clamped)
	if containsWithin(s.session.CutPoints, rounded) {
		return
	}

	s.session.ManualCutPoints = NormalizeCuts(append(s.session.ManualCutPoints, rounded))
	s.session.CutPoints = NormalizeCuts(append(s.session.CutPoints, rounded))
	s.session.SelectedCut = &rounded
}

// RemoveCut removes the cut matching t within Epsilon. The 0 and duration
// boundary cuts are never removed; the segment set always spans the clip.
func (s *Store) RemoveCut(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Resolve the target against the unrounded input so a borderline value
	// still finds the cut it sits next to.
	idx := indexWithin(s.session.CutPoints, clampTime(t, s.session.Duration))
	if idx == -1 {
		return
	}

	target := s.session.CutPoints[idx]
	if math.Abs(target) < Epsilon {
		return
	}
	if d := s.session.Duration; d != nil && *d > 0 && math.Abs(target-*d) < Epsilon {
		return
	}

	s.session.CutPoints = removeWithin(s.session.CutPoints, target)
	s.session.ManualCutPoints = removeWithin(s.session.ManualCutPoints, target)
	s.session.HiddenSegments = removeWithin(s.session.HiddenSegments, target)
	s.session.SelectedCut = nil
}

// ToggleHideSegment flips whether the segment starting at the cut matching t
// is hidden. The last cut has no following segment and is a no-op.
func (s *Store) ToggleHideSegment(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexWithin(s.session.CutPoints, clampTime(t, s.session.Duration))
	if idx == -1 || idx == len(s.session.CutPoints)-1 {
		return
	}

	// Key the hidden mark by the cut's own value, not the caller's input, so
	// membership in CutPoints holds exactly.
	key := s.session.CutPoints[idx]
	if containsWithin(s.session.HiddenSegments, key) {
		s.session.HiddenSegments = removeWithin(s.session.HiddenSegments, key)
	} else {
		s.session.HiddenSegments = NormalizeCuts(append(s.session.HiddenSegments, key))
	}
}

// CyclePlaybackRate advances through PlaybackRates circularly and returns the
// new rate.
func (s *Store) CyclePlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.RateIndex = (s.session.RateIndex + 1) % len(PlaybackRates)
	return PlaybackRates[s.session.RateIndex]
}

// PlaybackRate returns the current playback multiplier.
func (s *Store) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PlaybackRates[s.session.RateIndex]
}

// CanDelete reports whether the selected cut may be removed: a selection
// exists and is neither boundary.
func (s *Store) CanDelete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.session.SelectedCut
	if sel == nil || *sel == 0 {
		return false
	}
	if d := s.session.Duration; d != nil && math.Abs(*sel-*d) <= Epsilon {
		return false
	}
	return true
}

// CanHide reports whether the selected cut starts a hideable segment: it must
// match a cut that is not the last one.
func (s *Store) CanHide() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.session.SelectedCut
	if sel == nil {
		return false
	}
	idx := indexWithin(s.session.CutPoints, *sel)
	return idx >= 0 && idx < len(s.session.CutPoints)-1
}

// Segments returns the partition of the clip between adjacent cut points.
func (s *Store) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SegmentsFor(s.session.CutPoints, s.session.HiddenSegments)
}

// Snapshot returns a copy of the session safe for concurrent readers.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.session
	snap.CutPoints = append([]float64(nil), s.session.CutPoints...)
	snap.ManualCutPoints = append([]float64(nil), s.session.ManualCutPoints...)
	snap.HiddenSegments = append([]float64(nil), s.session.HiddenSegments...)
	if s.session.Duration != nil {
		d := *s.session.Duration
		snap.Duration = &d
	}
	if s.session.SelectedCut != nil {
		c := *s.session.SelectedCut
		snap.SelectedCut = &c
	}
	return snap
}

// Summary is a one-line description for logs and the tray.
func (s *Store) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.VideoURL == "" {
		return "no video loaded"
	}
	return fmt.Sprintf("%s: %d cuts, %d hidden", s.session.FileName, len(s.session.CutPoints), len(s.session.HiddenSegments))
}
