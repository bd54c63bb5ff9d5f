package message

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why an operation failed.
type ErrorKind string

const (
	KindNotFound              ErrorKind = "not_found"
	KindWrongKind             ErrorKind = "wrong_kind"
	KindConfiguration         ErrorKind = "configuration"
	KindCapabilityUnavailable ErrorKind = "capability_unavailable"
	KindDecodingFailure       ErrorKind = "decoding_failure"
	KindIOFailure             ErrorKind = "io_failure"
	KindUnexpected            ErrorKind = "unexpected"
)

// OperationError is an error tagged with an ErrorKind. Msg is the
// human-readable text surfaced to callers; Err, when set, is the cause.
type OperationError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *OperationError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

// Cause lets errors.Cause walk past the kind tag.
func (e *OperationError) Cause() error { return e.Err }

func (e *OperationError) Unwrap() error { return e.Err }

// Errorf builds a kind-tagged error without an underlying cause.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &OperationError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapErrorf tags err with kind and prefixes it with a formatted message.
func WrapErrorf(err error, kind ErrorKind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &OperationError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: errors.WithStack(err)}
}

// WithKind tags err with kind, keeping its message unchanged.
func WithKind(err error, kind ErrorKind) error {
	if err == nil {
		return nil
	}
	return &OperationError{Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost OperationError in err's chain,
// or KindUnexpected when there is none.
func KindOf(err error) ErrorKind {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindUnexpected
}
