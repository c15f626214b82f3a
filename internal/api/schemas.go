package api

import (
	"encoding/json"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
	"github.com/renzengfei/ai-shot-workbench/internal/deconstruct"
	"github.com/renzengfei/ai-shot-workbench/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	Workspace       *backend.Workspace `json:"workspace,omitempty"`
	Step            int                `json:"step,omitempty"`
	DeconFile       string             `json:"decon_file,omitempty"`
	TimelineSummary string             `json:"timeline_summary"`
	Backend         string             `json:"backend"`
	LastSourceURL   string             `json:"last_source_url,omitempty"`
}

type WorkspacesResponse struct {
	Workspaces []backend.Workspace `json:"workspaces"`
}

type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

type OpenWorkspaceRequest struct {
	Path string `json:"path"`
}

type TimelineResponse struct {
	Session   timeline.Session   `json:"session"`
	Segments  []timeline.Segment `json:"segments"`
	CanDelete bool               `json:"can_delete"`
	CanHide   bool               `json:"can_hide"`
	Rate      float64            `json:"rate"`
}

type TimeRequest struct {
	Time float64 `json:"time"`
}

type SelectRequest struct {
	Time *float64 `json:"time"`
}

type PlayingRequest struct {
	Playing bool `json:"playing"`
}

type DurationRequest struct {
	Seconds float64 `json:"seconds"`
}

type ParseRequest struct {
	Round1 string `json:"round1,omitempty"`
	Round2 string `json:"round2,omitempty"`
}

type ParseResponse struct {
	Round1       json.RawMessage     `json:"round1,omitempty"`
	Round1Error  string              `json:"round1_error,omitempty"`
	Round2       *deconstruct.Round2 `json:"round2,omitempty"`
	Round2Source string              `json:"round2_source,omitempty"`
	Round2Error  string              `json:"round2_error,omitempty"`
}

type DeconstructionRequest struct {
	Content string `json:"content,omitempty"`
	Round1  string `json:"round1,omitempty"`
	Round2  string `json:"round2,omitempty"`
}

type StoredDeconstructionResponse struct {
	File      string              `json:"file"`
	Round1    json.RawMessage     `json:"round1,omitempty"`
	Round1Raw string              `json:"round1_raw,omitempty"`
	Round2    *deconstruct.Round2 `json:"round2,omitempty"`
	Round2Raw string              `json:"round2_raw,omitempty"`
	Errors    []string            `json:"errors,omitempty"`
}

type SwitchFileRequest struct {
	File string `json:"file"`
}

type AnnotationsResponse struct {
	Annotations map[string]string `json:"annotations"`
}

type StepRequest struct {
	Step int `json:"step"`
}

type StepResponse struct {
	Step int `json:"step"`
}

type YouTubeRequest struct {
	URL string `json:"url"`
}

type GenerateAssetsRequest struct {
	IncludeVideo *bool `json:"include_video,omitempty"`
}

type ExportEDLRequest struct {
	Title     string  `json:"title,omitempty"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

type ExportEDLResponse struct {
	EDL       string `json:"edl"`
	ClipCount int    `json:"clip_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
