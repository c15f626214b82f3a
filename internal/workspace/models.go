package workspace

import (
	"sort"
	"time"

	"github.com/renzengfei/ai-shot-workbench/internal/backend"
)

// Workflow step bounds. Steps: 1 segmentation, 2 deconstruction, 3 review.
const (
	MinStep = 1
	MaxStep = 3
)

// DefaultDeconstructionFile is the conventional deconstruction file name and
// the last-resort selection when a workspace lists none.
const DefaultDeconstructionFile = "deconstruction.json"

// Project is the per-workspace working state, rebuilt in full every time a
// workspace is opened.
type Project struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	CurrentStep        int            `json:"current_step"`
	LastModified       time.Time      `json:"last_modified"`
	VideoURL           string         `json:"video_url,omitempty"`
	SourceURL          string         `json:"source_url,omitempty"`
	Cuts               []float64      `json:"cuts"`
	DeconstructionText string         `json:"deconstruction_text"`
	Shots              []backend.Shot `json:"shots"`
}

// MergeWorkspaces unions two workspace lists by path. When both sides carry a
// path, the entry with a non-empty updated_at wins. The result sorts by
// updated_at descending; entries without a timestamp sort last.
func MergeWorkspaces(primary, secondary []backend.Workspace) []backend.Workspace {
	index := map[string]int{}
	merged := make([]backend.Workspace, 0, len(primary)+len(secondary))

	for _, ws := range append(append([]backend.Workspace{}, primary...), secondary...) {
		if ws.Path == "" {
			continue
		}
		at, seen := index[ws.Path]
		if !seen {
			index[ws.Path] = len(merged)
			merged = append(merged, ws)
			continue
		}
		if merged[at].UpdatedAt == "" && ws.UpdatedAt != "" {
			merged[at] = ws
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UpdatedAt > merged[j].UpdatedAt
	})
	return merged
}
