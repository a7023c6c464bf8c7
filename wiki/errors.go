package wiki

import (
	"errors"
	"fmt"
)

// Kind classifies a failed pipeline run.
type Kind string

const (
	KindNone                Kind = ""
	KindInvalidInput        Kind = "invalid_input"
	KindExtractionFailed    Kind = "extraction_failed"
	KindSummarizationFailed Kind = "summarization_failed"
	KindFormattingFailed    Kind = "formatting_failed"
	KindCancelled           Kind = "cancelled"
	KindUnknown             Kind = "unknown"
)

var (
	ErrEmptyTopic   = errors.New("topic must not be empty")
	ErrMissingTitle = errors.New("formatted article has no top-level heading")
)

// Error is the single failure reported for a run. Stage is empty for
// KindInvalidInput. Err keeps the collaborator's own error untouched.
type Error struct {
	Kind  Kind
	Stage StageName
	Err   error
}

func (e *Error) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s at stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the failure kind carried by err, KindNone for nil and
// KindUnknown for errors that did not come out of a pipeline run.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
