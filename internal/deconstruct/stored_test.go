package deconstruct

import (
	"testing"
)

func TestParseStored_Blank(t *testing.T) {
	result := ParseStored("   ")
	if result.Round1 != nil || result.Round2 != nil || len(result.ErrorsGeneral) != 0 {
		t.Fatalf("blank document = %+v, want zero result", result)
	}
}

func TestParseStored_NotJSON(t *testing.T) {
	raw := "这是一段还没整理的笔记"
	result := ParseStored(raw)

	if result.Round1Raw != raw {
		t.Fatalf("round1 raw = %q, want original text preserved", result.Round1Raw)
	}
	if len(result.ErrorsGeneral) != 1 {
		t.Fatalf("general errors = %v, want one fallback notice", result.ErrorsGeneral)
	}
}

func TestParseStored_StructuredRounds(t *testing.T) {
	raw := `{
		"round1": {"hook": "开场三秒"},
		"round2": {"shots": [{"id": 1, "timestamp": "00:00"}]}
	}`
	result := ParseStored(raw)

	if result.Round1 == nil {
		t.Fatal("round1 missing")
	}
	if result.Round2 == nil || len(result.Round2.Shots) != 1 {
		t.Fatalf("round2 = %+v", result.Round2)
	}
	if len(result.ErrorsRound2) != 0 {
		t.Fatalf("round2 errors = %v, want none", result.ErrorsRound2)
	}
}

func TestParseStored_StringRoundsReparsed(t *testing.T) {
	raw := `{
		"round1": "{\"hook\": \"x\"}",
		"round2": "{\"shots\": [{\"id\": 2}]}"
	}`
	result := ParseStored(raw)

	if result.Round1 == nil {
		t.Fatal("string round1 holding valid JSON should re-parse")
	}
	if result.Round1Raw != `{"hook": "x"}` {
		t.Fatalf("round1 raw = %q", result.Round1Raw)
	}
	if result.Round2 == nil || result.Round2.Shots[0].ID != 2 {
		t.Fatalf("round2 = %+v", result.Round2)
	}
}

func TestParseStored_StringRound2Unparseable(t *testing.T) {
	raw := `{"round2": "完全不是表格也不是 JSON"}`
	result := ParseStored(raw)

	if result.Round2 != nil {
		t.Fatalf("round2 = %+v, want nil", result.Round2)
	}
	if result.Round2Raw != "完全不是表格也不是 JSON" {
		t.Fatalf("round2 raw = %q, original text must survive", result.Round2Raw)
	}
	if len(result.ErrorsRound2) != 1 {
		t.Fatalf("round2 errors = %v, want fallback notice", result.ErrorsRound2)
	}
}

func TestParseStored_LegacyTopLevelFields(t *testing.T) {
	raw := `{
		"round1_skeleton": {"acts": 3},
		"round1_hook": "hook text",
		"shots": [{"id": 7}],
		"characters": {"A": "desc"}
	}`
	result := ParseStored(raw)

	if result.Round1 == nil {
		t.Fatal("top-level round1_skeleton/round1_hook should lift into round1")
	}
	if result.Round2 == nil || result.Round2.Shots[0].ID != 7 {
		t.Fatalf("round2 = %+v, want lifted shots", result.Round2)
	}
	if result.Round2.Characters["A"] != "desc" {
		t.Fatalf("characters = %v", result.Round2.Characters)
	}
}

func TestParseStored_RawFields(t *testing.T) {
	raw := `{
		"round1_raw": "{\"draft\": true}",
		"round2_raw": "| 序号 | 开始时间 |\n| --- | --- |\n| 1 | 00:00 |"
	}`
	result := ParseStored(raw)

	if result.Round1Raw != `{"draft": true}` {
		t.Fatalf("round1 raw = %q", result.Round1Raw)
	}
	if result.Round2 == nil || result.Round2.Shots[0].ID != 1 {
		t.Fatalf("round2 = %+v, want markdown re-parse of round2_raw", result.Round2)
	}
}
