package message

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Result is the envelope every content operation returns. On success the
// fields of Value are flattened next to "success"; on failure only the
// error text and its kind are emitted.
type Result[T any] struct {
	Success bool
	Value   T
	Error   string
	Kind    ErrorKind
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Success: true, Value: v}
}

// Fail converts err into a failure envelope. The kind is taken from the
// error chain.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Result[T]{Error: err.Error(), Kind: KindOf(err)}
}

type failureEnvelope struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorKind ErrorKind `json:"error_kind"`
}

var successPrefix = []byte(`{"success":true`)

// MarshalJSON flattens the payload into the envelope. T must marshal to a
// JSON object.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(failureEnvelope{Error: r.Error, ErrorKind: r.Kind})
	}

	body, err := json.Marshal(r.Value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal result payload")
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, errors.Errorf("result payload must be a JSON object, got %s", body)
	}

	out := make([]byte, 0, len(successPrefix)+len(body))
	out = append(out, successPrefix...)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		out = append(out, ',')
		out = append(out, inner...)
	}
	return append(out, '}'), nil
}

// ToolResult renders the envelope for a tool transport. Failures keep the
// full JSON in Text so callers that only read text still see the envelope.
func (r Result[T]) ToolResult() ToolResult {
	data, err := json.Marshal(r)
	if err != nil {
		return NewToolResultError(err.Error())
	}
	if !r.Success {
		return ToolResult{Text: string(data), Error: r.Error, Kind: r.Kind}
	}
	return NewToolResultText(string(data))
}
