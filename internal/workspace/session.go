// Package workspace reconciles local workbench state with the backend, which
// is the durable source of truth. It keeps the recent-workspace cache warm so
// the workbench stays usable while the backend is briefly unreachable, and it
// owns the per-workspace Project state and its save paths.
package workspace

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
	"github.com/renzengfei/ai-shot-workbench/internal/localstate"
	"github.com/renzengfei/ai-shot-workbench/internal/timeline"
)

// Config wires a Session's collaborators. Zero delays fall back to the
// documented defaults.
type Config struct {
	Client   *backend.Client
	Local    localstate.Repository
	Timeline *timeline.Store
	Logger   *slog.Logger

	RefreshRetryDelay time.Duration
	LiveRetryDelay    time.Duration
	AutosaveDebounce  time.Duration
}

// Session is the workspace session manager. All methods are safe for
// concurrent use.
type Session struct {
	client   *backend.Client
	local    localstate.Repository
	timeline *timeline.Store
	logger   *slog.Logger

	refreshRetryDelay time.Duration
	liveRetryDelay    time.Duration
	autosaveDebounce  time.Duration

	mu           sync.Mutex
	current      *backend.Workspace
	workspaces   []backend.Workspace
	project      *Project
	deconFile    string
	refreshTimer *time.Timer
	saveTimer    *time.Timer
	liveCancel   context.CancelFunc
}

func NewSession(cfg Config) *Session {
	if cfg.RefreshRetryDelay <= 0 {
		cfg.RefreshRetryDelay = 2 * time.Second
	}
	if cfg.LiveRetryDelay <= 0 {
		cfg.LiveRetryDelay = 3 * time.Second
	}
	if cfg.AutosaveDebounce <= 0 {
		cfg.AutosaveDebounce = 450 * time.Millisecond
	}
	return &Session{
		client:            cfg.Client,
		local:             cfg.Local,
		timeline:          cfg.Timeline,
		logger:            cfg.Logger,
		refreshRetryDelay: cfg.RefreshRetryDelay,
		liveRetryDelay:    cfg.LiveRetryDelay,
		autosaveDebounce:  cfg.AutosaveDebounce,
	}
}

// Shutdown cancels pending timers and the live-update channel.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.stopLiveLocked()
}

// Current returns a copy of the current workspace, or nil.
func (s *Session) Current() *backend.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	ws := *s.current
	return &ws
}

// Workspaces returns a copy of the in-memory workspace list.
func (s *Session) Workspaces() []backend.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Workspace(nil), s.workspaces...)
}

// Project returns a copy of the current project state, or nil.
func (s *Session) Project() *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectCopyLocked()
}

func (s *Session) projectCopyLocked() *Project {
	if s.project == nil {
		return nil
	}
	p := *s.project
	p.Cuts = append([]float64(nil), s.project.Cuts...)
	p.Shots = append([]backend.Shot(nil), s.project.Shots...)
	return &p
}

// DeconstructionFile returns the active deconstruction file name.
func (s *Session) DeconstructionFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deconFile
}

// RefreshWorkspaces fetches the authoritative workspace list. On success the
// in-memory list and local cache are replaced. On failure the cached list is
// restored (when present) and a single retry is scheduled; scheduling cancels
// any earlier pending retry.
func (s *Session) RefreshWorkspaces(ctx context.Context) error {
	list, err := s.client.ListWorkspaces(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch workspaces, falling back to cache", "error", err)

		cached, cacheErr := s.local.RecentWorkspaces(ctx)
		if cacheErr != nil {
			s.logger.Warn("recent-workspace cache unavailable", "error", cacheErr)
		}

		s.mu.Lock()
		if len(cached) > 0 {
			s.workspaces = cached
		}
		s.scheduleRefreshRetryLocked()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	s.workspaces = list
	s.mu.Unlock()

	if err := s.local.SetRecentWorkspaces(ctx, list); err != nil {
		s.logger.Warn("failed to persist workspace cache", "error", err)
	}
	return nil
}

// scheduleRefreshRetryLocked arms the single retry timer, replacing any prior
// one so at most one retry is ever outstanding.
func (s *Session) scheduleRefreshRetryLocked() {
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	s.refreshTimer = time.AfterFunc(s.refreshRetryDelay, func() {
		s.mu.Lock()
		s.refreshTimer = nil
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.RefreshWorkspaces(ctx); err != nil {
			s.logger.Warn("workspace refresh retry failed", "error", err)
		}
	})
}

// updateRecents merges one workspace into the list and cache, stamping a
// current timestamp when the entry carries none.
func (s *Session) updateRecents(ctx context.Context, ws backend.Workspace) {
	if ws.UpdatedAt == "" {
		ws.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	s.mu.Lock()
	merged := MergeWorkspaces([]backend.Workspace{ws}, s.workspaces)
	s.workspaces = merged
	s.mu.Unlock()

	if err := s.local.SetRecentWorkspaces(ctx, merged); err != nil {
		s.logger.Warn("failed to persist workspace cache", "error", err)
	}
}

// CreateWorkspace allocates a workspace on the backend and makes it current
// with a fresh step-1 project. Errors propagate so the caller can surface
// them.
func (s *Session) CreateWorkspace(ctx context.Context, name string) error {
	result, err := s.client.CreateWorkspace(ctx, name)
	if err != nil {
		return err
	}

	ws := backend.Workspace{Name: result.Data.Name, Path: result.Path, UpdatedAt: result.Data.UpdatedAt}

	s.mu.Lock()
	s.current = &ws
	s.project = &Project{
		ID:           result.Path,
		Name:         result.Data.Name,
		CurrentStep:  MinStep,
		LastModified: time.Now(),
	}
	s.deconFile = ""
	s.startLiveLocked()
	s.mu.Unlock()

	if err := s.local.SetLastWorkspacePath(ctx, result.Path); err != nil {
		s.logger.Warn("failed to persist last workspace", "error", err)
	}

	if err := s.RefreshWorkspaces(ctx); err != nil {
		s.logger.Warn("workspace list refresh after create failed", "error", err)
	}
	s.updateRecents(ctx, ws)
	s.timeline.ResetVideo()

	s.logger.Info("workspace created", "name", result.Data.Name, "path", result.Path)
	return nil
}

// OpenWorkspace opens a workspace and rebuilds the project from its stored
// documents. The open itself propagates errors; the auxiliary fetches run
// concurrently and each degrades to an empty default on failure.
func (s *Session) OpenWorkspace(ctx context.Context, wsPath string) error {
	result, err := s.client.OpenWorkspace(ctx, wsPath)
	if err != nil {
		return err
	}

	ws := backend.Workspace{Name: result.Data.Name, Path: result.Path, UpdatedAt: result.Data.UpdatedAt}

	if err := s.local.SetLastWorkspacePath(ctx, result.Path); err != nil {
		s.logger.Warn("failed to persist last workspace", "error", err)
	}
	s.updateRecents(ctx, ws)

	var (
		wg        sync.WaitGroup
		seg       *backend.Segmentation
		deconText string
		deconFile string
		shots     []backend.Shot
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		fetched, err := s.client.GetSegmentation(ctx, result.Path)
		if err != nil {
			s.logger.Warn("segmentation fetch failed, using empty default", "error", err)
			return
		}
		seg = fetched
	}()
	go func() {
		defer wg.Done()
		deconFile, deconText = s.fetchDeconstruction(ctx, result.Path)
	}()
	go func() {
		defer wg.Done()
		fetched, err := s.client.GetShots(ctx, result.Path)
		if err != nil {
			s.logger.Warn("shots fetch failed, using empty default", "error", err)
			return
		}
		shots = fetched
	}()
	wg.Wait()

	if seg == nil {
		seg = &backend.Segmentation{}
	}

	// Prefer the original (audio-carrying) video; edit_video_url is for frame
	// extraction only.
	playbackURL := seg.VideoURL
	if playbackURL == "" {
		playbackURL = seg.EditVideoURL
	}
	fileName := seg.FileName
	if fileName == "" && playbackURL != "" {
		fileName = path.Base(playbackURL)
	}

	step := result.Data.CurrentStep
	if step < MinStep || step > MaxStep {
		step = MinStep
	}
	lastModified := time.Now()
	if parsed, err := time.Parse(time.RFC3339, result.Data.UpdatedAt); err == nil {
		lastModified = parsed
	}

	s.mu.Lock()
	s.current = &ws
	s.project = &Project{
		ID:                 result.Path,
		Name:               result.Data.Name,
		CurrentStep:        step,
		LastModified:       lastModified,
		VideoURL:           playbackURL,
		SourceURL:          seg.SourceURL,
		Cuts:               append([]float64(nil), seg.Cuts...),
		DeconstructionText: deconText,
		Shots:              shots,
	}
	s.deconFile = deconFile
	s.startLiveLocked()
	s.mu.Unlock()

	if playbackURL != "" {
		s.timeline.LoadVideo(timeline.LoadVideoParams{
			VideoURL:       playbackURL,
			FileName:       fileName,
			CutPoints:      seg.Cuts,
			HiddenSegments: seg.HiddenSegments,
			Duration:       seg.Duration,
			SessionID:      seg.SessionID,
		})
	} else {
		s.timeline.ResetVideo()
	}

	s.logger.Info("workspace opened", "path", result.Path, "step", step, "decon_file", deconFile)
	return nil
}

// fetchDeconstruction lists the workspace's deconstruction files, resolves
// which one to show, persists the choice, and fetches its content. Every
// failure degrades to a default rather than failing the open.
func (s *Session) fetchDeconstruction(ctx context.Context, wsPath string) (file, content string) {
	files, err := s.client.ListDeconstructionFiles(ctx, wsPath)
	if err != nil {
		s.logger.Warn("deconstruction file listing failed", "error", err)
	}

	stored, err := s.local.DeconstructionFile(ctx, wsPath)
	if err != nil {
		s.logger.Warn("stored deconstruction selection unavailable", "error", err)
	}

	file = ResolveDeconstructionFile(files, stored)

	if err := s.local.SetDeconstructionFile(ctx, wsPath, file); err != nil {
		s.logger.Warn("failed to persist deconstruction selection", "error", err)
	}

	content, err = s.client.GetDeconstruction(ctx, wsPath, file)
	if err != nil {
		s.logger.Warn("deconstruction fetch failed, using empty default", "file", file, "error", err)
		return file, ""
	}
	return file, content
}

// ResolveDeconstructionFile picks the deconstruction file to show: the stored
// selection when still listed, then the conventional deconstruction.json,
// then the first listed file, then the default name.
func ResolveDeconstructionFile(files []string, stored string) string {
	if stored != "" {
		for _, f := range files {
			if f == stored {
				return stored
			}
		}
	}
	for _, f := range files {
		if f == DefaultDeconstructionFile {
			return f
		}
	}
	if len(files) > 0 {
		return files[0]
	}
	return DefaultDeconstructionFile
}

// SwitchDeconstructionFile re-fetches content for another file in the current
// workspace, stores the selection, and merges only the text into the project.
func (s *Session) SwitchDeconstructionFile(ctx context.Context, file string) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return nil
	}

	content, err := s.client.GetDeconstruction(ctx, current.Path, file)
	if err != nil {
		return err
	}

	if err := s.local.SetDeconstructionFile(ctx, current.Path, file); err != nil {
		s.logger.Warn("failed to persist deconstruction selection", "error", err)
	}

	s.mu.Lock()
	s.deconFile = file
	if s.project != nil {
		s.project.DeconstructionText = content
	}
	s.mu.Unlock()
	return nil
}

// CloseWorkspace clears the current workspace and all derived state. The
// workspace stays in the recent list.
func (s *Session) CloseWorkspace(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.project = nil
	s.deconFile = ""
	s.stopLiveLocked()
	s.mu.Unlock()

	s.timeline.ResetVideo()
	if err := s.local.ClearLastWorkspacePath(ctx); err != nil {
		s.logger.Warn("failed to clear last workspace", "error", err)
	}
	s.logger.Info("workspace closed")
}

// AutoOpenLast opens the workspace recorded as last opened, if any. Failure
// clears the stored pointer so a broken workspace does not wedge startup.
func (s *Session) AutoOpenLast(ctx context.Context) {
	last, err := s.local.LastWorkspacePath(ctx)
	if err != nil || last == "" {
		return
	}
	if err := s.OpenWorkspace(ctx, last); err != nil {
		s.logger.Warn("auto-open of last workspace failed", "path", last, "error", err)
		if err := s.local.ClearLastWorkspacePath(ctx); err != nil {
			s.logger.Warn("failed to clear last workspace", "error", err)
		}
		if err := s.local.ClearDeconstructionFile(ctx, last); err != nil {
			s.logger.Warn("failed to clear deconstruction selection", "error", err)
		}
	}
}

// startLiveLocked (re)starts the advisory live-update channel for the current
// workspace. Callers hold s.mu.
func (s *Session) startLiveLocked() {
	s.stopLiveLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.liveCancel = cancel

	feed := backend.NewLiveFeed(s.client.BaseURL(), s.liveRetryDelay, s.logger, func(event backend.FileChange) {
		// Advisory only. Notifications are logged by the feed; a future
		// refinement could reload project.json on matching changes.
	})
	go feed.Run(ctx)
}

func (s *Session) stopLiveLocked() {
	if s.liveCancel != nil {
		s.liveCancel()
		s.liveCancel = nil
	}
}

// SetProject replaces the project state wholesale (explicit merge semantics
// live with the caller).
func (s *Session) SetProject(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p
}

// encodeSlug returns the trailing path element used when reading workspace
// assets over the static file routes.
func encodeSlug(wsPath string) string {
	slug := wsPath
	if idx := strings.LastIndex(wsPath, "/"); idx >= 0 {
		slug = wsPath[idx+1:]
	}
	return url.PathEscape(slug)
}

// Slug returns the current workspace's asset slug, or empty.
func (s *Session) Slug() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return encodeSlug(s.current.Path)
}
