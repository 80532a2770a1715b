// Package batch runs the conversion and annotation paths over files,
// directory trees or a single stream.
package batch

import (
	"context"
	"fmt"
	"io"
	"strings"

	coczefla "github.com/VanaKraus/CoCzeFLA"
)

// Options select the steps run on every file, in this order: convert,
// annotate, correct. Validate disables every other step.
type Options struct {
	Validate bool
	Convert  bool
	Fix      bool
	// Annotator is required by Annotate and Corrections.
	Annotator   *coczefla.Annotator
	Annotate    bool
	Corrections []coczefla.Correction
}

// Result is the outcome of processing one file.
type Result struct {
	Path        string
	Output      string
	Status      coczefla.Status
	Diagnostics coczefla.Diagnostics
	// Err is set for failed files.
	Err error
}

// Processor runs the selected steps on one transcript.
type Processor struct {
	opts Options
}

// NewProcessor checks that opts are consistent.
func NewProcessor(opts Options) (*Processor, error) {
	if (opts.Annotate || len(opts.Corrections) > 0) && opts.Annotator == nil {
		return nil, &coczefla.ConfigurationError{Setting: "tagger", Message: "annotation requested without a tagger"}
	}
	return &Processor{opts: opts}, nil
}

// Process runs the steps on r. Only a fatal structural error, a read
// error or a done ctx ends in an error.
func (p *Processor) Process(ctx context.Context, r io.Reader) (*Result, error) {
	t, err := coczefla.Parse(r)
	if err != nil {
		return nil, err
	}
	if p.opts.Validate {
		ds := t.AllDiagnostics()
		return &Result{Status: coczefla.StatusOf(ds), Diagnostics: ds}, nil
	}
	if p.opts.Convert {
		t = coczefla.ConvertTranscript(t, coczefla.ConvertOptions{Fix: p.opts.Fix}).Transcript
	}
	if p.opts.Annotate {
		res, err := p.opts.Annotator.Annotate(ctx, t)
		if err != nil {
			return nil, err
		}
		t = res.Transcript
	}
	if len(p.opts.Corrections) > 0 {
		res, err := p.opts.Annotator.Correct(ctx, t, p.opts.Corrections...)
		if err != nil {
			return nil, err
		}
		t = res.Transcript
	}
	ds := t.AllDiagnostics()
	return &Result{
		Output:      coczefla.Format(t),
		Status:      coczefla.StatusOf(ds),
		Diagnostics: ds,
	}, nil
}

// Summary writes a human-readable report of one file: a status line, then
// the diagnostics indented.
func (r *Result) Summary(w io.Writer) error {
	var errs, warns, fixed int
	for _, d := range r.Diagnostics {
		switch {
		case d.Fixed:
			fixed++
		case d.Severity == coczefla.SeverityWarning:
			warns++
		default:
			errs++
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s (%d errors, %d warnings, %d fixed)\n", r.Path, r.Status, errs, warns, fixed)
	if r.Err != nil {
		fmt.Fprintf(&sb, "\t%v\n", r.Err)
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&sb, "\t%s\n", d)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
