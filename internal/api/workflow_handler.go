package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
	"github.com/renzengfei/ai-shot-workbench/internal/export"
)

type stepDirection int

const (
	stepNext stepDirection = iota
	stepPrev
	stepGoto
)

func stepHandler(cfg ServerConfig, dir stepDirection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Session.Current() == nil {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		var step int
		switch dir {
		case stepNext:
			step = cfg.Session.NextStep()
		case stepPrev:
			step = cfg.Session.PrevStep()
		case stepGoto:
			var req StepRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
			step = cfg.Session.GoToStep(req.Step)
		}

		WriteJSON(w, http.StatusOK, StepResponse{Step: step})
	}
}

func youtubeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req YouTubeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.URL == "" {
			WriteError(w, http.StatusBadRequest, "url is required", "BAD_REQUEST")
			return
		}
		if cfg.Session.Current() == nil {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		if err := cfg.Session.ImportFromYouTube(r.Context(), req.URL); err != nil {
			writeBackendError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

// analyzeHandler accepts a multipart upload under the "file" field and runs
// it through backend analysis.
func analyzeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Session.Current() == nil {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "file field is required", "BAD_REQUEST")
			return
		}
		defer file.Close()

		if err := cfg.Session.AnalyzeUpload(r.Context(), header.Filename, file); err != nil {
			writeBackendError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func generateAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Session.Current() == nil {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		// An absent body means defaults.
		var req GenerateAssetsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		includeVideo := true
		if req.IncludeVideo != nil {
			includeVideo = *req.IncludeVideo
		}
		cfg.Session.GenerateAssets(includeVideo)
		w.WriteHeader(http.StatusAccepted)
	}
}

func shotsReportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := cfg.Session.Slug()
		if slug == "" {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		report, err := cfg.Client.AssetReport(r.Context(), slug)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, report)
	}
}

// shotsDocHandler proxies one of the raw asset documents the backend writes
// next to the report. The backend owns the document schema; the payload is
// passed through verbatim.
func shotsDocHandler(cfg ServerConfig, fetch func(ctx context.Context, c *backend.Client, slug string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := cfg.Session.Slug()
		if slug == "" {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		doc, err := fetch(r.Context(), cfg.Client, slug)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, doc)
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportEDLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		snap := cfg.Timeline.Snapshot()
		clips := export.ClipsFromSession(&snap)
		if len(clips) == 0 {
			WriteError(w, http.StatusConflict, "no visible segments to export", "EMPTY_TIMELINE")
			return
		}

		title := export.SanitizeName(req.Title, 120)
		if title == "" {
			title = export.SanitizeName(snap.FileName, 120)
		}
		if title == "" {
			title = "workbench_export"
		}

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = 30.0
		}

		WriteJSON(w, http.StatusOK, ExportEDLResponse{
			EDL:       export.GenerateEDL(clips, title, frameRate),
			ClipCount: len(clips),
		})
	}
}
