package task

import (
	"testing"
	"time"
)

func TestResultEncodeDecode(t *testing.T) {
	res := &Result{
		OutputFiles: []OutputFile{{
			UUID:        "abc",
			DisplayName: "Hayabusa_JSONL_timeline.jsonl",
			Path:        "/data/abc.jsonl",
			DataType:    JSONLDataType,
		}},
		WorkflowID: "wf-1",
		Command:    "/hayabusa/hayabusa json-timeline",
		ExitCode:   0,
		Duration:   3 * time.Second,
	}

	encoded, err := res.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeResult(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.WorkflowID != "wf-1" {
		t.Errorf("workflow id = %q, want wf-1", decoded.WorkflowID)
	}
	if len(decoded.OutputFiles) != 1 || decoded.OutputFiles[0].Path != "/data/abc.jsonl" {
		t.Errorf("unexpected output files: %+v", decoded.OutputFiles)
	}
}

func TestDecodeResult_Invalid(t *testing.T) {
	if _, err := DecodeResult("not base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := DecodeResult("bm90IGpzb24="); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
}

func TestResolveInputs_Explicit(t *testing.T) {
	explicit := []InputFile{{Path: "/evidence/a.evtx"}, {Path: "/evidence/b.evtx"}}

	inputs, err := ResolveInputs("", explicit)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(inputs) != 2 || inputs[0].Path != "/evidence/a.evtx" {
		t.Errorf("unexpected inputs: %+v", inputs)
	}
}

func TestResolveInputs_PipeResultWins(t *testing.T) {
	prev := &Result{
		OutputFiles: []OutputFile{{UUID: "u1", Path: "/stage1/u1.jsonl", DataType: JSONLDataType}},
	}
	encoded, err := prev.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	inputs, err := ResolveInputs(encoded, []InputFile{{Path: "/ignored.evtx"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(inputs) != 1 {
		t.Fatalf("expected 1 input from pipe result, got %d", len(inputs))
	}
	if inputs[0].Path != "/stage1/u1.jsonl" || inputs[0].UUID != "u1" {
		t.Errorf("unexpected input: %+v", inputs[0])
	}
}

func TestResolveInputs_BadPipeResult(t *testing.T) {
	if _, err := ResolveInputs("garbage", nil); err == nil {
		t.Fatal("expected error for unparseable pipe result")
	}
}

func TestResolveInputs_Empty(t *testing.T) {
	inputs, err := ResolveInputs("", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(inputs) != 0 {
		t.Errorf("expected empty input list, got %+v", inputs)
	}
}
