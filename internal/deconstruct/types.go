// Package deconstruct parses the two script-deconstruction blobs a user
// pastes from the external AI tool: a Round 1 JSON blueprint and a Round 2
// shot table that may arrive as JSON or as a Markdown convention. Invalid
// input is never discarded; parse failures surface as messages while the raw
// text is retained for the editor.
package deconstruct

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Round2 is the normalized shot-analysis document. Both the JSON and the
// Markdown source forms produce this shape.
type Round2 struct {
	Characters map[string]string `json:"characters,omitempty"`
	Shots      []Round2Shot      `json:"shots,omitempty"`
}

// Round2Shot is one storyboard row. InitialFrame is dual-shape on the wire
// (either a prompt string or a structured frame object) and is carried
// verbatim.
type Round2Shot struct {
	ID                int             `json:"id,omitempty"`
	Mission           string          `json:"mission,omitempty"`
	Timestamp         string          `json:"timestamp,omitempty"`
	EndTime           string          `json:"end_time,omitempty"`
	Duration          FlexString      `json:"duration,omitempty"`
	Keyframe          string          `json:"keyframe,omitempty"`
	InitialFrame      json.RawMessage `json:"initial_frame,omitempty"`
	VisualChanges     string          `json:"visual_changes,omitempty"`
	Camera            string          `json:"camera,omitempty"`
	Audio             string          `json:"audio,omitempty"`
	Beat              string          `json:"beat,omitempty"`
	ViralElement      string          `json:"viral_element,omitempty"`
	Emotion           string          `json:"emotion,omitempty"`
	LogicMapping      string          `json:"logic_mapping,omitempty"`
	Discarded         bool            `json:"discarded,omitempty"`
	MergeWithPrevious bool            `json:"merge_with_previous,omitempty"`
}

// InitialFrameText returns the initial_frame value as display text: the
// string itself when it is a JSON string, otherwise the raw JSON.
func (s *Round2Shot) InitialFrameText() string {
	if len(s.InitialFrame) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(s.InitialFrame, &text); err == nil {
		return text
	}
	return string(s.InitialFrame)
}

// FlexString tolerates a JSON string or number and always serializes back as
// a string, keeping normalization stable.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(trimmed)
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// Source identifies which form a successful Round 2 parse consumed.
type Source string

const (
	SourceNone     Source = ""
	SourceJSON     Source = "json"
	SourceMarkdown Source = "markdown"
)

// jsonString marshals text as a JSON string value.
func jsonString(text string) json.RawMessage {
	encoded, _ := json.Marshal(text)
	return encoded
}

// isBlank reports whether text contains no content.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
