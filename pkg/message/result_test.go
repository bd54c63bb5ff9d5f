package message

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
)

type sample struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func TestResultMarshalSuccessFlattensPayload(t *testing.T) {
	data, err := json.Marshal(OK(sample{Path: "src/a.py", Count: 2}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"success":true,"path":"src/a.py","count":2}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestResultMarshalEmptyPayload(t *testing.T) {
	data, err := json.Marshal(OK(struct{}{}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"success":true}` {
		t.Errorf("got %s", data)
	}
}

func TestResultMarshalFailure(t *testing.T) {
	r := Fail[sample](Errorf(KindNotFound, "File not found in repository: %s", "a.go"))
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["success"] != false {
		t.Errorf("expected success=false, got %v", decoded["success"])
	}
	if decoded["error"] != "File not found in repository: a.go" {
		t.Errorf("unexpected error text: %v", decoded["error"])
	}
	if decoded["error_kind"] != string(KindNotFound) {
		t.Errorf("unexpected kind: %v", decoded["error_kind"])
	}
	if _, ok := decoded["path"]; ok {
		t.Error("failure envelope must not carry payload fields")
	}
}

func TestResultMarshalRejectsNonObjectPayload(t *testing.T) {
	if _, err := json.Marshal(OK([]string{"a"})); err == nil {
		t.Error("expected error for array payload")
	}
}

func TestResultToolResult(t *testing.T) {
	ok := OK(sample{Path: "x"}).ToolResult()
	if ok.IsError() {
		t.Errorf("unexpected error: %s", ok.Error)
	}

	failed := Fail[sample](errors.New("boom")).ToolResult()
	if failed.Error != "boom" {
		t.Errorf("expected error text 'boom', got %q", failed.Error)
	}
	if failed.Text == "" {
		t.Error("failure should still carry the JSON envelope")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"plain", errors.New("x"), KindUnexpected},
		{"tagged", Errorf(KindWrongKind, "dir"), KindWrongKind},
		{"wrapped tag", errors.Wrap(Errorf(KindConfiguration, "token"), "outer"), KindConfiguration},
		{"with kind", WithKind(errors.New("disk"), KindIOFailure), KindIOFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWrapErrorfKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapErrorf(cause, KindIOFailure, "failed to write %s", "a.txt")
	if err.Error() != "failed to write a.txt: permission denied" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if errors.Cause(err) != cause {
		t.Error("expected Cause to reach the original error")
	}
}
