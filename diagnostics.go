package coczefla

import (
	"fmt"
	"slices"
	"strings"
)

// DiagCode identifies the kind of a diagnostic.
type DiagCode string

const (
	DiagSpeakerCode          DiagCode = "speaker-code"
	DiagSeparator            DiagCode = "separator"
	DiagWhitespace           DiagCode = "whitespace"
	DiagTerminatorMissing    DiagCode = "terminator-missing"
	DiagTerminatorSpacing    DiagCode = "terminator-spacing"
	DiagBracketUnbalanced    DiagCode = "bracket-unbalanced"
	DiagBracketScope         DiagCode = "bracket-scope"
	DiagCodeSpacing          DiagCode = "code-spacing"
	DiagTierMarker           DiagCode = "tier-marker"
	DiagTierDuplicate        DiagCode = "tier-duplicate"
	DiagUnknownSpeaker       DiagCode = "unknown-speaker"
	DiagRepetition           DiagCode = "repetition-unresolved"
	DiagHeader               DiagCode = "header"
	DiagUnrecognized         DiagCode = "unrecognized"
	DiagLowConfidence        DiagCode = "low-confidence"
	DiagWordGroupMismatch    DiagCode = "word-group-mismatch"
	DiagAnnotationFailure    DiagCode = "annotation-failure"
	DiagMorParse             DiagCode = "mor-parse"
	DiagCorrectionNotApplied DiagCode = "correction-skipped"
)

// Severity tells whether an unresolved diagnostic keeps a line from being
// rewritten.
type Severity int

const (
	// SeverityError lines are emitted as read while the diagnostic stands.
	SeverityError Severity = iota
	// SeverityWarning lines are still rewritten canonically.
	SeverityWarning
)

// severities holds the default severity of each code; codes not listed are
// errors.
var severities = map[DiagCode]Severity{
	DiagSeparator:            SeverityWarning,
	DiagWhitespace:           SeverityWarning,
	DiagTerminatorSpacing:    SeverityWarning,
	DiagBracketScope:         SeverityWarning,
	DiagCodeSpacing:          SeverityWarning,
	DiagUnknownSpeaker:       SeverityWarning,
	DiagRepetition:           SeverityWarning,
	DiagLowConfidence:        SeverityWarning,
	DiagWordGroupMismatch:    SeverityWarning,
	DiagMorParse:             SeverityWarning,
	DiagCorrectionNotApplied: SeverityWarning,
}

// newDiag builds an unresolved diagnostic with the code's default severity.
func newDiag(line int, code DiagCode, format string, args ...any) Diagnostic {
	return Diagnostic{
		Line:     line,
		Code:     code,
		Severity: severities[code],
		Message:  fmt.Sprintf(format, args...),
	}
}

// Diagnostic is one finding about one line.
type Diagnostic struct {
	Line     int // 1-based line number of the logical line
	Code     DiagCode
	Severity Severity
	Message  string
	// Fixed is set when a fix rule resolved the problem.
	Fixed bool
}

func (d Diagnostic) String() string {
	state := "error"
	switch {
	case d.Fixed:
		state = "fixed"
	case d.Severity == SeverityWarning:
		state = "warning"
	}
	return fmt.Sprintf("%d: %s [%s] %s", d.Line, state, d.Code, d.Message)
}

// Diagnostics is an ordered list of findings.
type Diagnostics []Diagnostic

// Unresolved returns the diagnostics no rule has fixed.
func (ds Diagnostics) Unresolved() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if !d.Fixed {
			out = append(out, d)
		}
	}
	return out
}

// Fixed returns the diagnostics resolved by fix rules.
func (ds Diagnostics) Fixed() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Fixed {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns the unresolved diagnostics of error severity.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if !d.Fixed && d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Has reports whether a diagnostic with the given code is present.
func (ds Diagnostics) Has(code DiagCode) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Summary renders a human-readable report, one diagnostic per line.
func (ds Diagnostics) Summary() string {
	var sb strings.Builder
	for _, d := range ds {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Status classifies the outcome of processing a file.
type Status string

const (
	// StatusClean means no diagnostics at all.
	StatusClean Status = "clean"
	// StatusModified means every diagnostic was fixed.
	StatusModified Status = "modified"
	// StatusResidual means output was emitted with unresolved diagnostics.
	StatusResidual Status = "residual"
	// StatusFailed means no output could be produced.
	StatusFailed Status = "failed"
)

// StatusOf derives the status of a successfully emitted file.
func StatusOf(ds Diagnostics) Status {
	switch {
	case len(ds) == 0:
		return StatusClean
	case len(ds.Unresolved()) == 0:
		return StatusModified
	default:
		return StatusResidual
	}
}

func sortDiagnostics(ds Diagnostics) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int { return a.Line - b.Line })
}
