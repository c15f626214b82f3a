package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/renzengfei/ai-shot-workbench/internal/deconstruct"
)

// parseDeconstructionHandler parses round 1 and round 2 text independently.
// Parse failures are per-round results, not HTTP errors: a bad round 1 never
// hides a good round 2.
func parseDeconstructionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ParseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var resp ParseResponse

		round1, err := deconstruct.ParseRound1(req.Round1)
		if err != nil {
			resp.Round1Error = err.Error()
		} else {
			resp.Round1 = round1
		}

		round2, source, err := deconstruct.ParseRound2(req.Round2)
		if err != nil {
			resp.Round2Error = err.Error()
		} else if round2 != nil {
			resp.Round2 = round2
			resp.Round2Source = string(source)
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// getDeconstructionHandler re-hydrates the stored document so the editors can
// show structured rounds where possible and raw text where not.
func getDeconstructionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project := cfg.Session.Project()
		if project == nil {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		stored := deconstruct.ParseStored(project.DeconstructionText)
		WriteJSON(w, http.StatusOK, StoredDeconstructionResponse{
			File:      cfg.Session.DeconstructionFile(),
			Round1:    stored.Round1,
			Round1Raw: stored.Round1Raw,
			Round2:    stored.Round2,
			Round2Raw: stored.Round2Raw,
			Errors:    storedErrors(stored),
		})
	}
}

func storedErrors(stored deconstruct.StoredResult) []string {
	var errs []string
	errs = append(errs, stored.ErrorsGeneral...)
	errs = append(errs, stored.ErrorsRound1...)
	errs = append(errs, stored.ErrorsRound2...)
	return errs
}

// saveDeconstructionHandler schedules a debounced save. A request carrying
// round texts instead of raw content is parsed and serialized into the
// canonical document; parse failures are rejected so a bad edit never
// clobbers the stored rounds.
func saveDeconstructionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeconstructionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if cfg.Session.Current() == nil {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		content := req.Content
		if content == "" && (req.Round1 != "" || req.Round2 != "") {
			round1, err := deconstruct.ParseRound1(req.Round1)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "PARSE_ERROR")
				return
			}
			round2, _, err := deconstruct.ParseRound2(req.Round2)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "PARSE_ERROR")
				return
			}
			content = deconstruct.BuildPayload(round1, round2)
		}

		cfg.Session.ScheduleDeconstructionSave(content)
		w.WriteHeader(http.StatusAccepted)
	}
}

func switchDeconstructionFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SwitchFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.File == "" {
			WriteError(w, http.StatusBadRequest, "file is required", "BAD_REQUEST")
			return
		}
		if cfg.Session.Current() == nil {
			WriteError(w, http.StatusConflict, "no workspace open", "NO_WORKSPACE")
			return
		}

		if err := cfg.Session.SwitchDeconstructionFile(r.Context(), req.File); err != nil {
			writeBackendError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			Workspace:       cfg.Session.Current(),
			DeconFile:       cfg.Session.DeconstructionFile(),
			TimelineSummary: cfg.Timeline.Summary(),
			Backend:         cfg.Client.BaseURL(),
		})
	}
}

func getAnnotationsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			WriteError(w, http.StatusBadRequest, "slug is required", "BAD_REQUEST")
			return
		}

		annotations, err := cfg.Local.Annotations(r.Context(), slug)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load annotations", "INTERNAL_ERROR")
			return
		}
		if annotations == nil {
			annotations = map[string]string{}
		}
		WriteJSON(w, http.StatusOK, AnnotationsResponse{Annotations: annotations})
	}
}

func putAnnotationsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			WriteError(w, http.StatusBadRequest, "slug is required", "BAD_REQUEST")
			return
		}

		var req AnnotationsResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Local.SetAnnotations(r.Context(), slug, req.Annotations); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to store annotations", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
