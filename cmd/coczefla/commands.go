package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/batch"
	"github.com/VanaKraus/CoCzeFLA/internal/config"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
	"github.com/VanaKraus/CoCzeFLA/internal/morphodita"
	"github.com/VanaKraus/CoCzeFLA/internal/tagcache"
)

var errFilesFailed = errors.New("some files failed")

// ioFlags are shared by every command that reads transcripts.
type ioFlags struct {
	Inputs  []string `arg:"" optional:"" help:"Transcript files or directories; none reads stdin" type:"path"`
	OutDir  string   `short:"o" name:"outdir" help:"Write outputs here, mirroring the input tree" type:"path"`
	Summary bool     `short:"s" help:"Print a per-file report to stderr"`
}

// taggerFlags override the tagger block of the configuration.
type taggerFlags struct {
	Backend   string `help:"Tagger backend: rest or process"`
	Endpoint  string `help:"MorphoDiTa REST endpoint"`
	Model     string `help:"Tagger model"`
	Tokenizer string `help:"Tokenizer variant: czech or vertical"`
	Guess     bool   `help:"Let the tagger guess unknown words"`
	Command   string `help:"Tagger command line for the process backend"`
	Tables    string `help:"Directory with encoder override tables" type:"path"`
	Cache     string `help:"SQLite file caching tagger responses; :memory: keeps them for this run" type:"path"`
}

func (f taggerFlags) apply(cfg *config.Config) error {
	t := &cfg.Tagger
	if f.Backend != "" {
		t.Backend = f.Backend
	}
	if f.Endpoint != "" {
		t.Endpoint = f.Endpoint
	}
	if f.Model != "" {
		t.Model = f.Model
	}
	if f.Tokenizer != "" {
		t.Tokenizer = coczefla.TokenizerVariant(f.Tokenizer)
	}
	if f.Guess {
		t.Guesser = true
	}
	if f.Command != "" {
		t.Command = strings.Fields(f.Command)
	}
	if f.Tables != "" {
		t.Tables = f.Tables
	}
	if f.Cache != "" {
		cfg.Cache.Path = f.Cache
	}
	return cfg.Validate()
}

// annotator opens the configured tagger, wrapped in the cache when one is
// configured. The returned function releases both.
func (a *app) annotator(f taggerFlags) (*coczefla.Annotator, func(), error) {
	if err := f.apply(a.cfg); err != nil {
		return nil, nil, err
	}
	cfg := a.cfg.Tagger
	backend, err := morphodita.Open(a.ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var tagger coczefla.Tagger = backend
	closers := []io.Closer{backend}
	if a.cfg.Cache.Path != "" {
		cache, err := tagcache.Open(a.cfg.Cache.Path, backend, cfg.Backend+":"+cfg.Model)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		tagger = cache
		closers = append([]io.Closer{cache}, closers...)
	}
	release := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logging.FromContext(a.ctx).Warn("closing tagger", "error", err)
			}
		}
	}
	ann, err := coczefla.New(tagger, coczefla.Options{Tag: cfg.TagOptions(), TablesDir: cfg.Tables})
	if err != nil {
		release()
		return nil, nil, err
	}
	return ann, release, nil
}

// run processes the inputs, or stdin when there are none, and fails when
// any file failed.
func (a *app) run(in ioFlags, opts batch.Options) error {
	proc, err := batch.NewProcessor(opts)
	if err != nil {
		return err
	}
	r := &batch.Runner{Processor: proc, OutDir: in.OutDir, Stdout: a.stdout}
	if in.Summary || opts.Validate {
		r.Summary = a.stderr
	}

	if len(in.Inputs) == 0 {
		res, err := r.RunStream(a.ctx, a.stdin, a.stdout)
		if err != nil {
			return err
		}
		if res.Status == coczefla.StatusFailed {
			return errFilesFailed
		}
		return nil
	}

	inputs, err := batch.Collect(in.Inputs)
	if err != nil {
		return err
	}
	rep, err := r.Run(a.ctx, inputs)
	if err != nil {
		return err
	}
	if rep.Failed > 0 {
		fmt.Fprintf(a.stderr, "%d of %d files failed\n", rep.Failed, len(rep.Files))
		return errFilesFailed
	}
	return nil
}

// ConvertCmd rewrites transcripts to the current standard.
type ConvertCmd struct {
	ioFlags
	Fix bool `help:"Repair known transcription mistakes before rewriting"`
}

func (c *ConvertCmd) Run(a *app) error {
	return a.run(c.ioFlags, batch.Options{Convert: true, Fix: c.Fix || a.cfg.Convert.Fix})
}

// AnnotateCmd adds %mor tiers.
type AnnotateCmd struct {
	ioFlags
	taggerFlags
	Convert    bool     `help:"Convert the transcripts before annotating"`
	Fix        bool     `help:"Repair known transcription mistakes; implies --convert"`
	Correction []string `short:"C" help:"Corrections to run after annotation (vcop, part-nogram, adj-adv-compdeg, dem-lemma, people-lemma, all)"`
}

func (c *AnnotateCmd) Run(a *app) error {
	names := c.Correction
	if len(names) == 0 {
		names = a.cfg.Annotate.Corrections
	}
	corrections, err := coczefla.ParseCorrections(names)
	if err != nil {
		return err
	}
	ann, release, err := a.annotator(c.taggerFlags)
	if err != nil {
		return err
	}
	defer release()
	fix := c.Fix || a.cfg.Convert.Fix
	return a.run(c.ioFlags, batch.Options{
		Convert:     c.Convert || c.Fix,
		Fix:         fix,
		Annotator:   ann,
		Annotate:    true,
		Corrections: corrections,
	})
}

// CorrectCmd applies corrections to existing %mor tiers.
type CorrectCmd struct {
	ioFlags
	taggerFlags
	Correction []string `short:"C" required:"" help:"Corrections to run (vcop, part-nogram, adj-adv-compdeg, dem-lemma, people-lemma, all)"`
}

func (c *CorrectCmd) Run(a *app) error {
	corrections, err := coczefla.ParseCorrections(c.Correction)
	if err != nil {
		return err
	}
	ann, release, err := a.annotator(c.taggerFlags)
	if err != nil {
		return err
	}
	defer release()
	return a.run(c.ioFlags, batch.Options{Annotator: ann, Corrections: corrections})
}

// ValidateCmd reports diagnostics and writes nothing.
type ValidateCmd struct {
	Inputs []string `arg:"" optional:"" help:"Transcript files or directories; none reads stdin" type:"path"`
}

func (c *ValidateCmd) Run(a *app) error {
	return a.run(ioFlags{Inputs: c.Inputs}, batch.Options{Validate: true})
}

// PlainCmd prints the plain text of every utterance, one per line,
// prefixed with its line number.
type PlainCmd struct {
	Input string `arg:"" optional:"" help:"Transcript file; stdin when omitted" type:"path"`
}

func (c *PlainCmd) Run(a *app) error {
	r := a.stdin
	if c.Input != "" {
		f, err := batch.Open(c.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	t, err := coczefla.Parse(r)
	if err != nil {
		return err
	}
	for _, u := range t.Utterances {
		plain, err := coczefla.PlainText(u.Main.Content())
		if err != nil {
			fmt.Fprintf(a.stdout, "%d\t!%v\n", u.Pos, err)
			continue
		}
		if !coczefla.ShouldAnnotate(plain) {
			continue
		}
		fmt.Fprintf(a.stdout, "%d\t%s\n", u.Pos, plain)
	}
	return nil
}
