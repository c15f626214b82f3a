package workspace

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
	"github.com/renzengfei/ai-shot-workbench/internal/timeline"
)

// SaveSegmentation persists the current timeline state to the backend. Best
// effort: without a current workspace it is a no-op, and backend errors are
// logged rather than propagated so editing is never blocked by a save.
func (s *Session) SaveSegmentation(ctx context.Context) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return
	}

	snap := s.timeline.Snapshot()
	seg := &backend.Segmentation{
		Cuts:           snap.CutPoints,
		VideoURL:       snap.VideoURL,
		FileName:       snap.FileName,
		Duration:       snap.Duration,
		SessionID:      snap.SessionID,
		HiddenSegments: snap.HiddenSegments,
	}

	s.mu.Lock()
	if s.project != nil {
		seg.SourceURL = s.project.SourceURL
		s.project.Cuts = append([]float64(nil), snap.CutPoints...)
		s.project.LastModified = time.Now()
	}
	s.mu.Unlock()

	if err := s.client.SaveSegmentation(ctx, current.Path, seg); err != nil {
		s.logger.Error("segmentation save failed", "path", current.Path, "error", err)
	}
}

// SaveDeconstruction writes the given text to the active deconstruction file.
// Best effort, like SaveSegmentation.
func (s *Session) SaveDeconstruction(ctx context.Context, content string) {
	s.mu.Lock()
	current := s.current
	file := s.deconFile
	if s.project != nil {
		s.project.DeconstructionText = content
		s.project.LastModified = time.Now()
	}
	s.mu.Unlock()
	if current == nil {
		return
	}
	if file == "" {
		file = DefaultDeconstructionFile
	}

	if err := s.client.SaveDeconstruction(ctx, current.Path, content, file); err != nil {
		s.logger.Error("deconstruction save failed", "path", current.Path, "file", file, "error", err)
	}
}

// ScheduleDeconstructionSave updates the in-memory text immediately and arms
// a debounced save, replacing any pending one so rapid edits collapse into a
// single request carrying the latest text.
func (s *Session) ScheduleDeconstructionSave(content string) {
	s.mu.Lock()
	if s.project != nil {
		s.project.DeconstructionText = content
		s.project.LastModified = time.Now()
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.autosaveDebounce, func() {
		s.mu.Lock()
		s.saveTimer = nil
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.SaveDeconstruction(ctx, content)
	})
	s.mu.Unlock()
}

// FlushDeconstructionSave fires any pending debounced save immediately.
func (s *Session) FlushDeconstructionSave(ctx context.Context) {
	s.mu.Lock()
	pending := s.saveTimer != nil
	if pending {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	var content string
	if s.project != nil {
		content = s.project.DeconstructionText
	}
	s.mu.Unlock()
	if pending {
		s.SaveDeconstruction(ctx, content)
	}
}

// SaveShots persists the shot list. Best effort.
func (s *Session) SaveShots(ctx context.Context, shots []backend.Shot) {
	s.mu.Lock()
	current := s.current
	if s.project != nil {
		s.project.Shots = append([]backend.Shot(nil), shots...)
		s.project.LastModified = time.Now()
	}
	s.mu.Unlock()
	if current == nil {
		return
	}

	if err := s.client.SaveShots(ctx, current.Path, shots); err != nil {
		s.logger.Error("shots save failed", "path", current.Path, "error", err)
	}
}

// GoToStep clamps and applies the workflow step, then records it on the
// backend in a detached best-effort write.
func (s *Session) GoToStep(step int) int {
	if step < MinStep {
		step = MinStep
	}
	if step > MaxStep {
		step = MaxStep
	}

	s.mu.Lock()
	current := s.current
	if s.project != nil {
		s.project.CurrentStep = step
		s.project.LastModified = time.Now()
	}
	s.mu.Unlock()

	if current != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.client.SaveStep(ctx, current.Path, step); err != nil {
				s.logger.Warn("step save failed", "path", current.Path, "step", step, "error", err)
			}
		}()
	}
	return step
}

// NextStep advances the workflow step by one, saturating at the last step.
func (s *Session) NextStep() int {
	s.mu.Lock()
	step := MinStep
	if s.project != nil {
		step = s.project.CurrentStep
	}
	s.mu.Unlock()
	return s.GoToStep(step + 1)
}

// PrevStep moves the workflow step back by one, saturating at the first step.
func (s *Session) PrevStep() int {
	s.mu.Lock()
	step := MinStep
	if s.project != nil {
		step = s.project.CurrentStep
	}
	s.mu.Unlock()
	return s.GoToStep(step - 1)
}

// GenerateAssets kicks off backend asset generation from the current
// timeline state in a detached goroutine so the caller returns immediately.
func (s *Session) GenerateAssets(includeVideo bool) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return
	}

	snap := s.timeline.Snapshot()
	payload := backend.GenerateAssetsPayload{
		Cuts:           snap.CutPoints,
		SessionID:      snap.SessionID,
		FileName:       snap.FileName,
		IncludeVideo:   includeVideo,
		HiddenSegments: snap.HiddenSegments,
	}
	if snap.Duration != nil {
		payload.Duration = *snap.Duration
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.client.GenerateAssets(ctx, current.Path, payload); err != nil {
			s.logger.Error("asset generation failed", "path", current.Path, "error", err)
			return
		}
		s.logger.Info("asset generation requested", "path", current.Path, "cuts", len(payload.Cuts))
	}()
}

// AnalyzeUpload sends a local video through backend analysis and loads the
// result into the timeline and project.
func (s *Session) AnalyzeUpload(ctx context.Context, fileName string, content io.Reader) error {
	s.timeline.SetTranscodeStatus("processing")
	result, err := s.client.Analyze(ctx, fileName, content)
	if err != nil {
		s.timeline.SetTranscodeStatus("")
		return err
	}
	s.applyAnalysis(ctx, fileName, result, "")
	return nil
}

// ImportFromYouTube asks the backend to download and analyze a video by URL.
// The source URL is remembered for the next import prompt.
func (s *Session) ImportFromYouTube(ctx context.Context, videoURL string) error {
	s.timeline.SetTranscodeStatus("processing")
	result, err := s.client.DownloadYouTube(ctx, videoURL)
	if err != nil {
		s.timeline.SetTranscodeStatus("")
		return err
	}
	if err := s.local.SetLastSourceURL(ctx, videoURL); err != nil {
		s.logger.Warn("failed to persist source url", "error", err)
	}
	fileName := result.VideoPath
	if idx := strings.LastIndex(fileName, "/"); idx >= 0 {
		fileName = fileName[idx+1:]
	}
	s.applyAnalysis(ctx, fileName, result, videoURL)
	return nil
}

// applyAnalysis folds an analysis result into the timeline, project state,
// and the workspace's stored segmentation. Playback uses the original upload
// (it carries audio); edit_video_url is kept only as a fallback.
func (s *Session) applyAnalysis(ctx context.Context, fileName string, result *backend.AnalyzeResult, sourceURL string) {
	playbackURL := s.uploadURL(fileName)
	if playbackURL == "" {
		playbackURL = result.EditVideoURL
	}

	cuts := make([]float64, 0, len(result.Cuts))
	for _, c := range result.Cuts {
		cuts = append(cuts, c.Time)
	}

	s.mu.Lock()
	if s.project != nil {
		s.project.VideoURL = playbackURL
		if sourceURL != "" {
			s.project.SourceURL = sourceURL
		}
		s.project.Cuts = append([]float64(nil), cuts...)
		s.project.LastModified = time.Now()
	}
	s.mu.Unlock()

	var duration *float64
	if result.Duration > 0 {
		d := result.Duration
		duration = &d
	}
	s.timeline.LoadVideo(timeline.LoadVideoParams{
		VideoURL:        playbackURL,
		FileName:        fileName,
		CutPoints:       cuts,
		Duration:        duration,
		SessionID:       result.SessionID,
		TranscodeStatus: "ready",
	})
	s.SaveSegmentation(ctx)
}

// uploadURL derives the backend URL of an uploaded original video.
func (s *Session) uploadURL(fileName string) string {
	if fileName == "" {
		return ""
	}
	return strings.TrimRight(s.client.BaseURL(), "/") + "/uploads/" + url.PathEscape(fileName)
}
