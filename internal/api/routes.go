package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
	"github.com/renzengfei/ai-shot-workbench/internal/config"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))

	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", listWorkspacesHandler(cfg))
		r.Post("/", createWorkspaceHandler(cfg))
		r.Post("/open", openWorkspaceHandler(cfg))
		r.Post("/close", closeWorkspaceHandler(cfg))
		r.Post("/refresh", refreshWorkspacesHandler(cfg))
	})

	r.Route("/timeline", func(r chi.Router) {
		r.Get("/", getTimelineHandler(cfg))
		r.Post("/cuts", addCutHandler(cfg))
		r.Delete("/cuts", removeCutHandler(cfg))
		r.Post("/hidden", toggleHiddenHandler(cfg))
		r.Post("/playhead", playheadHandler(cfg))
		r.Post("/playing", playingHandler(cfg))
		r.Post("/duration", durationHandler(cfg))
		r.Post("/rate", rateHandler(cfg))
		r.Post("/select", selectCutHandler(cfg))
	})

	r.Route("/deconstruction", func(r chi.Router) {
		r.Get("/", getDeconstructionHandler(cfg))
		r.Post("/parse", parseDeconstructionHandler(cfg))
		r.Put("/", saveDeconstructionHandler(cfg))
		r.Post("/file", switchDeconstructionFileHandler(cfg))
	})

	r.Route("/annotations/{slug}", func(r chi.Router) {
		r.Get("/", getAnnotationsHandler(cfg))
		r.Put("/", putAnnotationsHandler(cfg))
	})

	r.Route("/steps", func(r chi.Router) {
		r.Post("/next", stepHandler(cfg, stepNext))
		r.Post("/prev", stepHandler(cfg, stepPrev))
		r.Post("/goto", stepHandler(cfg, stepGoto))
	})

	r.Post("/intake/youtube", youtubeHandler(cfg))
	r.Post("/intake/analyze", analyzeHandler(cfg))
	r.Post("/shots/generate", generateAssetsHandler(cfg))
	r.Get("/shots/report", shotsReportHandler(cfg))
	r.Get("/shots/modification-log", shotsDocHandler(cfg, func(ctx context.Context, c *backend.Client, slug string) (string, error) {
		return c.ModificationLog(ctx, slug)
	}))
	r.Get("/shots/storyboard", shotsDocHandler(cfg, func(ctx context.Context, c *backend.Client, slug string) (string, error) {
		return c.OptimizedStoryboard(ctx, slug)
	}))
	r.Post("/export/edl", exportEDLHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The remembered source URL prefills the next import prompt.
		sourceURL, err := cfg.Local.LastSourceURL(r.Context())
		if err != nil {
			cfg.Logger.Warn("last source url unavailable", "error", err)
		}

		resp := StatusResponse{
			Workspace:       cfg.Session.Current(),
			DeconFile:       cfg.Session.DeconstructionFile(),
			TimelineSummary: cfg.Timeline.Summary(),
			Backend:         cfg.Client.BaseURL(),
			LastSourceURL:   sourceURL,
		}
		if p := cfg.Session.Project(); p != nil {
			resp.Step = p.CurrentStep
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listWorkspacesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, WorkspacesResponse{Workspaces: cfg.Session.Workspaces()})
	}
}

func refreshWorkspacesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Cache fallback and the retry timer are handled inside the session;
		// the stale list is still a valid response.
		if err := cfg.Session.RefreshWorkspaces(r.Context()); err != nil {
			cfg.Logger.Warn("workspace refresh via api failed", "error", err)
		}
		WriteJSON(w, http.StatusOK, WorkspacesResponse{Workspaces: cfg.Session.Workspaces()})
	}
}

func createWorkspaceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateWorkspaceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.CreateWorkspace(r.Context(), req.Name); err != nil {
			writeBackendError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, StatusResponse{
			Workspace:       cfg.Session.Current(),
			Step:            1,
			TimelineSummary: cfg.Timeline.Summary(),
			Backend:         cfg.Client.BaseURL(),
		})
	}
}

func openWorkspaceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenWorkspaceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.OpenWorkspace(r.Context(), req.Path); err != nil {
			writeBackendError(w, err)
			return
		}

		resp := StatusResponse{
			Workspace:       cfg.Session.Current(),
			DeconFile:       cfg.Session.DeconstructionFile(),
			TimelineSummary: cfg.Timeline.Summary(),
			Backend:         cfg.Client.BaseURL(),
		}
		if p := cfg.Session.Project(); p != nil {
			resp.Step = p.CurrentStep
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func closeWorkspaceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.CloseWorkspace(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeBackendError maps a backend failure onto the local response, keeping
// the upstream status when one exists.
func writeBackendError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		WriteError(w, apiErr.StatusCode, apiErr.Detail, "BACKEND_ERROR")
		return
	}
	WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_UNREACHABLE")
}
