// Package coczefla converts child-language transcripts in the CHAT format
// to the current version of the standard and annotates them with a %mor
// tier built from the output of the MorphoDiTa tagger.
//
// The conversion path is Parse, Fix (optional), Rewrite and Format; see
// Convert. The annotation path extracts the plain text of each main line,
// sends it to a Tagger and encodes the tagged tokens as MOR words; see
// Annotator.
package coczefla

import (
	"os"
)

// Options configure an Annotator.
type Options struct {
	// Tag is sent with every tagging request.
	Tag TagOptions
	// TablesDir replaces the built-in override tables with the files of
	// a directory. Empty means built-in.
	TablesDir string
}

// Annotator holds the tagger handle and the loaded tables. It keeps no
// per-file state and may be shared by concurrent callers if its Tagger
// allows that.
type Annotator struct {
	tagger  Tagger
	encoder *Encoder
	opts    TagOptions
}

// New returns an Annotator that tags through tagger. Missing or invalid
// resources are reported as *ConfigurationError.
func New(tagger Tagger, opts Options) (*Annotator, error) {
	if tagger == nil {
		return nil, &ConfigurationError{Setting: "tagger", Message: "no tagger configured"}
	}
	tok, err := ParseTokenizerVariant(string(opts.Tag.Tokenizer))
	if err != nil {
		return nil, err
	}
	opts.Tag.Tokenizer = tok

	tables := DefaultTables()
	if opts.TablesDir != "" {
		if _, err := os.Stat(opts.TablesDir); err != nil {
			return nil, &ConfigurationError{Setting: "tables", Message: "cannot open tables directory", Err: err}
		}
		tables, err = LoadTables(os.DirFS(opts.TablesDir))
		if err != nil {
			return nil, err
		}
	}
	return &Annotator{
		tagger:  tagger,
		encoder: NewEncoder(tables),
		opts:    opts.Tag,
	}, nil
}

// Encoder returns the encoder of the annotator.
func (a *Annotator) Encoder() *Encoder {
	return a.encoder
}

// Tagger returns the tagger handle.
func (a *Annotator) Tagger() Tagger {
	return a.tagger
}

// TagOptions returns the options sent with every tagging request.
func (a *Annotator) TagOptions() TagOptions {
	return a.opts
}
