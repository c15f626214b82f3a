package api

import (
	"encoding/json"
	"net/http"
)

func timelineResponse(cfg ServerConfig) TimelineResponse {
	return TimelineResponse{
		Session:   cfg.Timeline.Snapshot(),
		Segments:  cfg.Timeline.Segments(),
		CanDelete: cfg.Timeline.CanDelete(),
		CanHide:   cfg.Timeline.CanHide(),
		Rate:      cfg.Timeline.PlaybackRate(),
	}
}

func getTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

// Guard violations (boundary cuts, duplicate times, hiding past the last cut) are
// silent no-ops inside the store, so mutation handlers always answer 200 with
// the resulting state.

func addCutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Timeline.AddManualCut(req.Time)
		cfg.Session.SaveSegmentation(r.Context())
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func removeCutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Timeline.RemoveCut(req.Time)
		cfg.Session.SaveSegmentation(r.Context())
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func toggleHiddenHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Timeline.ToggleHideSegment(req.Time)
		cfg.Session.SaveSegmentation(r.Context())
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func playheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Timeline.SetPlayhead(req.Time)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func playingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Timeline.SetPlaying(req.Playing)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func durationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DurationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Seconds < 0 {
			WriteError(w, http.StatusBadRequest, "seconds must be non-negative", "BAD_REQUEST")
			return
		}
		cfg.Timeline.SetDuration(req.Seconds)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func rateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Timeline.CyclePlaybackRate()
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func selectCutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Timeline.SelectCut(req.Time)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}
