package coczefla

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error taxonomy. Typed errors unwrap to these.
var (
	// ErrStructural indicates a line that cannot be classified or violates the
	// transcription standard.
	ErrStructural = errors.New("structural error")
	// ErrAlignment indicates tagged tokens could not be aligned cleanly with
	// main-tier word groups.
	ErrAlignment = errors.New("alignment ambiguity")
	// ErrAnnotation indicates the tagger produced no usable result.
	ErrAnnotation = errors.New("annotation failure")
	// ErrConfiguration indicates a missing or invalid external resource.
	ErrConfiguration = errors.New("configuration error")
)

// StructuralError is a fatal structural problem of a file, e.g. a malformed
// header that prevents establishing the participant context.
type StructuralError struct {
	Line    int    // 1-based line number, 0 if unknown
	Text    string // offending line
	Message string
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.Text)
	}
	return e.Message
}

func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

// AnnotationFailure reports that an utterance could not be annotated.
type AnnotationFailure struct {
	Line   int    // line of the main tier
	Text   string // text sent (or meant to be sent) to the tagger
	Reason string
	Err    error
}

func (e *AnnotationFailure) Error() string {
	msg := fmt.Sprintf("annotation failed at line %d: %s", e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AnnotationFailure) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrAnnotation, e.Err}
	}
	return []error{ErrAnnotation}
}

// ConfigurationError reports an invalid or missing resource. It is fatal for
// the whole run and must be reported before any file is processed.
type ConfigurationError struct {
	Setting string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration: %s: %s", e.Setting, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}
