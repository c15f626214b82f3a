package backend

// Workspace is a backend workspace listing entry. Path is the unique identity.
type Workspace struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// WorkspaceDoc is the inner document returned by create/open.
type WorkspaceDoc struct {
	Name        string `json:"name"`
	CurrentStep int    `json:"current_step,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// OpenResult is the response shape of POST /api/workspaces and
// POST /api/workspaces/open.
type OpenResult struct {
	Data WorkspaceDoc `json:"data"`
	Path string       `json:"path"`
}

// Segmentation is the per-workspace segmentation document. All fields are
// optional on the wire; a missing duration is distinct from zero.
type Segmentation struct {
	Cuts           []float64 `json:"cuts,omitempty"`
	VideoURL       string    `json:"video_url,omitempty"`
	EditVideoURL   string    `json:"edit_video_url,omitempty"`
	FileName       string    `json:"file_name,omitempty"`
	Duration       *float64  `json:"duration,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	SourceURL      string    `json:"source_url,omitempty"`
	HiddenSegments []float64 `json:"hidden_segments,omitempty"`
}

// TimeRange is a shot's [start, end] span in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Shot is one entry of the per-workspace shot list. Field names follow the
// stored document.
type Shot struct {
	ID            string    `json:"id"`
	TimeRange     TimeRange `json:"timeRange"`
	Description   string    `json:"description"`
	Visuals       string    `json:"visuals"`
	Audio         string    `json:"audio"`
	Duration      float64   `json:"duration"`
	ViralTags     []string  `json:"viralTags,omitempty"`
	DensityScore  float64   `json:"densityScore,omitempty"`
	ImagePrompt   string    `json:"imagePrompt,omitempty"`
	VideoPrompt   string    `json:"videoPrompt,omitempty"`
	SelectedAsset string    `json:"selectedAsset,omitempty"`
}

// GenerateAssetsPayload is the request body of the asset generation endpoint.
type GenerateAssetsPayload struct {
	Cuts           []float64 `json:"cuts"`
	Duration       float64   `json:"duration"`
	SessionID      string    `json:"session_id,omitempty"`
	FileName       string    `json:"file_name,omitempty"`
	IncludeVideo   bool      `json:"include_video"`
	HiddenSegments []float64 `json:"hidden_segments,omitempty"`
}

// CutMark is a single detected cut in an analyze response.
type CutMark struct {
	Time float64 `json:"time"`
}

// AnalyzeResult is returned by POST /api/analyze and
// POST /api/download-youtube.
type AnalyzeResult struct {
	VideoPath    string    `json:"video_path"`
	EditVideoURL string    `json:"edit_video_url,omitempty"`
	Cuts         []CutMark `json:"cuts"`
	Duration     float64   `json:"duration"`
	SessionID    string    `json:"session_id,omitempty"`
}

// AssetReportEntry is one row of a workspace's assets/report.json.
type AssetReportEntry struct {
	Ordinal     int     `json:"ordinal"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Duration    float64 `json:"duration"`
	Frame       string  `json:"frame"`
	FrameStatus string  `json:"frame_status"`
	Clip        string  `json:"clip,omitempty"`
	ClipStatus  string  `json:"clip_status,omitempty"`
}

// AssetReport is the full report document.
type AssetReport struct {
	Report []AssetReportEntry `json:"report"`
}
