package deconstruct

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Parse error messages shown inline next to the editors. The product surface
// is Chinese, matching the prompts the blobs come from.
var (
	ErrRound1Invalid = errors.New("Round 1 JSON 解析失败，请检查是否为合法 JSON")
	ErrRound2Invalid = errors.New("Round 2 解析失败，请粘贴合法 JSON（含 shots 或 characters）或 Markdown 分镜表格")
)

// ParseRound1 attempts a strict JSON parse of the Round 1 blueprint. Empty
// input is neither data nor an error. The caller keeps the original text on
// failure.
func ParseRound1(text string) (json.RawMessage, error) {
	if isBlank(text) {
		return nil, nil
	}
	if !json.Valid([]byte(text)) {
		return nil, ErrRound1Invalid
	}
	return json.RawMessage(strings.TrimSpace(text)), nil
}

// ParseRound2 accepts the Round 2 shot analysis as JSON (an object carrying
// shots or characters) or as the Markdown convention, normalizing both to the
// same Round2 shape. The returned Source tells the caller whether the input
// was already canonical.
func ParseRound2(text string) (*Round2, Source, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, SourceNone, nil
	}

	if json.Valid([]byte(trimmed)) {
		var parsed Round2
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			return nil, SourceNone, ErrRound2Invalid
		}
		if parsed.Shots == nil && parsed.Characters == nil {
			return nil, SourceNone, ErrRound2Invalid
		}
		return &parsed, SourceJSON, nil
	}

	parsed, err := parseRound2Markdown(trimmed)
	if err != nil {
		return nil, SourceNone, ErrRound2Invalid
	}
	return parsed, SourceMarkdown, nil
}

// characterDefPattern matches 【Tag】 = description lines.
var characterDefPattern = regexp.MustCompile(`^【([^】]+)】\s*=\s*(.+)$`)

// round2Columns maps the fixed table headers to shot fields.
const (
	colOrdinal      = "序号"
	colStartTime    = "开始时间"
	colEndTime      = "结束时间"
	colDuration     = "时长"
	colKeyframe     = "首帧文件名"
	colInitialFrame = "画面提示词"
	colVisualChange = "视频提示词"
)

// parseRound2Markdown normalizes the Markdown form: an optional fenced block
// of 【Tag】 = description character definitions followed by a pipe-delimited
// shot table with fixed Chinese headers.
func parseRound2Markdown(text string) (*Round2, error) {
	characters := map[string]string{}
	var shots []Round2Shot
	var columns map[string]int

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "```") {
			continue
		}

		if m := characterDefPattern.FindStringSubmatch(trimmed); m != nil {
			characters[m[1]] = strings.TrimSpace(m[2])
			continue
		}

		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		cells := splitTableRow(trimmed)
		if len(cells) == 0 {
			continue
		}

		if columns == nil {
			header := indexColumns(cells)
			if header != nil {
				columns = header
			}
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}

		shots = append(shots, shotFromRow(cells, columns))
	}

	if columns == nil || len(shots) == 0 {
		return nil, ErrRound2Invalid
	}

	parsed := &Round2{Shots: shots}
	if len(characters) > 0 {
		parsed.Characters = characters
	}
	return parsed, nil
}

// splitTableRow splits a |-delimited row into trimmed cells, dropping the
// empty leading/trailing cells produced by the outer pipes.
func splitTableRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 3 {
		return nil
	}
	cells := make([]string, 0, len(parts)-2)
	for _, part := range parts[1 : len(parts)-1] {
		cells = append(cells, strings.TrimSpace(part))
	}
	return cells
}

// indexColumns recognizes the header row and maps column names to positions.
// The ordinal and start-time columns are required.
func indexColumns(cells []string) map[string]int {
	columns := map[string]int{}
	for i, cell := range cells {
		switch cell {
		case colOrdinal, colStartTime, colEndTime, colDuration, colKeyframe, colInitialFrame, colVisualChange:
			columns[cell] = i
		}
	}
	if _, ok := columns[colOrdinal]; !ok {
		return nil
	}
	if _, ok := columns[colStartTime]; !ok {
		return nil
	}
	return columns
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}
	return true
}

func shotFromRow(cells []string, columns map[string]int) Round2Shot {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}

	shot := Round2Shot{
		Timestamp:     cell(colStartTime),
		EndTime:       cell(colEndTime),
		Duration:      FlexString(cell(colDuration)),
		Keyframe:      cell(colKeyframe),
		VisualChanges: cell(colVisualChange),
	}
	if id, err := strconv.Atoi(cell(colOrdinal)); err == nil {
		shot.ID = id
	}
	if frame := cell(colInitialFrame); frame != "" {
		shot.InitialFrame = jsonString(frame)
	}
	return shot
}

// BuildPayload serializes both rounds into the canonical on-disk document.
// Nil rounds are omitted.
func BuildPayload(round1 json.RawMessage, round2 *Round2) string {
	payload := map[string]interface{}{}
	if len(round1) > 0 {
		payload["round1"] = round1
	}
	if round2 != nil {
		payload["round2"] = round2
	}
	encoded, _ := json.MarshalIndent(payload, "", "  ")
	return string(encoded)
}
