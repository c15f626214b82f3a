package deconstruct

import (
	"encoding/json"
	"strings"
)

// StoredResult re-hydrates the editors from a stored {round1, round2}
// document. Either round may be a structured object or a raw-string fallback
// preserved from a previous failed parse; the raw text fields always carry
// what the editor should display.
type StoredResult struct {
	Round1    json.RawMessage
	Round1Raw string
	Round2    *Round2
	Round2Raw string

	ErrorsRound1  []string
	ErrorsRound2  []string
	ErrorsGeneral []string
}

const errRound2StoredFallback = "Round 2 解析失败，已按原文显示"
const errStoredNotJSON = "内容不是合法 JSON，已按原文显示"

// ParseStored parses a stored deconstruction document. A document that is not
// JSON at all degrades to raw Round 1 text so in-progress edits survive a
// reload.
func ParseStored(raw string) StoredResult {
	if isBlank(raw) {
		return StoredResult{}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return StoredResult{
			Round1Raw:     raw,
			ErrorsGeneral: []string{errStoredNotJSON},
		}
	}

	var result StoredResult

	result.Round1, result.Round1Raw = storedRound1(doc)
	result.Round2, result.Round2Raw, result.ErrorsRound2 = storedRound2(doc)
	return result
}

// storedRound1 resolves the round1 field: an explicit raw-text field wins for
// the editor, a string value is re-parsed when possible, and legacy documents
// that inline round1_skeleton/round1_hook at the top level are lifted into a
// round1 object.
func storedRound1(doc map[string]json.RawMessage) (json.RawMessage, string) {
	rawText := stringField(doc, "round1_raw")

	if value, ok := doc["round1"]; ok {
		if text, isString := asString(value); isString {
			if rawText == "" {
				rawText = text
			}
			if parsed, err := ParseRound1(text); err == nil && parsed != nil {
				return parsed, rawText
			}
			return nil, rawText
		}
		return value, rawText
	}

	skeleton, hasSkeleton := doc["round1_skeleton"]
	hook, hasHook := doc["round1_hook"]
	if hasSkeleton || hasHook {
		lifted := map[string]json.RawMessage{}
		if hasSkeleton {
			lifted["round1_skeleton"] = skeleton
		}
		if hasHook {
			lifted["round1_hook"] = hook
		}
		encoded, _ := json.Marshal(lifted)
		return encoded, rawText
	}

	return nil, rawText
}

// storedRound2 resolves the round2 field with the same string-or-object
// tolerance, falling back to top-level shots/characters and then to
// round2_raw.
func storedRound2(doc map[string]json.RawMessage) (*Round2, string, []string) {
	var errs []string
	rawText := stringField(doc, "round2_raw")

	if value, ok := doc["round2"]; ok {
		if text, isString := asString(value); isString {
			if rawText == "" {
				rawText = text
			}
			parsed, _, err := ParseRound2(text)
			if err != nil || parsed == nil {
				if !isBlank(text) {
					errs = append(errs, errRound2StoredFallback)
				}
				return nil, rawText, errs
			}
			return parsed, rawText, errs
		}

		var parsed Round2
		if err := json.Unmarshal(value, &parsed); err != nil {
			errs = append(errs, errRound2StoredFallback)
			return nil, rawText, errs
		}
		return &parsed, rawText, errs
	}

	_, hasShots := doc["shots"]
	_, hasCharacters := doc["characters"]
	if hasShots || hasCharacters {
		lifted := map[string]json.RawMessage{}
		if hasShots {
			lifted["shots"] = doc["shots"]
		}
		if hasCharacters {
			lifted["characters"] = doc["characters"]
		}
		encoded, _ := json.Marshal(lifted)
		var parsed Round2
		if err := json.Unmarshal(encoded, &parsed); err != nil {
			errs = append(errs, errRound2StoredFallback)
			return nil, rawText, errs
		}
		return &parsed, rawText, errs
	}

	if rawText != "" {
		parsed, _, err := ParseRound2(rawText)
		if err != nil || parsed == nil {
			errs = append(errs, errRound2StoredFallback)
			return nil, rawText, errs
		}
		return parsed, rawText, errs
	}

	return nil, rawText, errs
}

func stringField(doc map[string]json.RawMessage, key string) string {
	value, ok := doc[key]
	if !ok {
		return ""
	}
	text, isString := asString(value)
	if !isString {
		return ""
	}
	return text
}

func asString(value json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(value))
	if !strings.HasPrefix(trimmed, `"`) {
		return "", false
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return "", false
	}
	return text, true
}
