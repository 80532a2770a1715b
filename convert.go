package coczefla

import (
	"io"
	"strings"
)

// ConvertOptions controls the conversion path.
type ConvertOptions struct {
	// Fix enables the structural fix rules.
	Fix bool
}

// ConvertResult is the best-effort outcome of converting one file: the
// rewritten text and every diagnostic found on the way. Callers decide
// whether residual diagnostics block further use.
type ConvertResult struct {
	// Original is the transcript as parsed, before any fix.
	Original *Transcript
	// Transcript is the fixed and rewritten model that Output serializes.
	Transcript  *Transcript
	Output      string
	Diagnostics Diagnostics
}

// Status classifies the result.
func (r *ConvertResult) Status() Status {
	return StatusOf(r.Diagnostics)
}

// Convert parses, optionally fixes, and rewrites a transcript. The only
// error returned is a fatal *StructuralError or a read error; line-level
// problems end up in the result's diagnostics.
func Convert(r io.Reader, opts ConvertOptions) (*ConvertResult, error) {
	t, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return ConvertTranscript(t, opts), nil
}

// ConvertString is Convert over a string.
func ConvertString(s string, opts ConvertOptions) (*ConvertResult, error) {
	return Convert(strings.NewReader(s), opts)
}

// ConvertTranscript runs the fixer and rewriter on an already parsed
// transcript.
func ConvertTranscript(t *Transcript, opts ConvertOptions) *ConvertResult {
	cur := t
	if opts.Fix {
		cur = Fix(t)
	}
	cur = Rewrite(cur)
	return &ConvertResult{
		Original:    t,
		Transcript:  cur,
		Output:      Format(cur),
		Diagnostics: cur.AllDiagnostics(),
	}
}

// Validate parses a transcript and reports its diagnostics without
// changing anything.
func Validate(r io.Reader) (Diagnostics, error) {
	t, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return t.AllDiagnostics(), nil
}
