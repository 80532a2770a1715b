package coczefla

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// TokenizerVariant selects how utterance text is split before tagging.
type TokenizerVariant string

const (
	// TokenizerCzech lets the engine tokenize running text.
	TokenizerCzech TokenizerVariant = "czech"
	// TokenizerVertical sends one word group per line, already split.
	TokenizerVertical TokenizerVariant = "vertical"
)

// ParseTokenizerVariant validates a tokenizer name. The empty string
// selects TokenizerCzech.
func ParseTokenizerVariant(s string) (TokenizerVariant, error) {
	switch TokenizerVariant(strings.ToLower(strings.TrimSpace(s))) {
	case "", TokenizerCzech:
		return TokenizerCzech, nil
	case TokenizerVertical:
		return TokenizerVertical, nil
	}
	return "", &ConfigurationError{Setting: "tokenizer", Message: fmt.Sprintf("unknown tokenizer %q", s)}
}

// TagOptions are passed with every tagging request.
type TagOptions struct {
	// Guesser lets the engine guess tags for forms missing from its
	// lexicon instead of returning the unknown tag.
	Guesser   bool
	Tokenizer TokenizerVariant
}

// Tagger is the boundary to the external morphological engine. A Tagger
// is acquired once per run and shared read-only across files; it must be
// safe for concurrent use.
//
// For TokenizerVertical, text holds one word group per line.
type Tagger interface {
	Tag(ctx context.Context, text string, opts TagOptions) ([]TaggedToken, error)
}

// TaggerFunc adapts a function to the Tagger interface.
type TaggerFunc func(ctx context.Context, text string, opts TagOptions) ([]TaggedToken, error)

// Tag calls f.
func (f TaggerFunc) Tag(ctx context.Context, text string, opts TagOptions) ([]TaggedToken, error) {
	return f(ctx, text, opts)
}

var reLemmaNumber = regexp.MustCompile(`^(.+?)-\d+$`)

// StripLemmaID removes the technical suffixes of an engine lemma:
// `ten-1_^(...)` becomes `ten`, `Praha_;G` becomes `Praha`.
func StripLemmaID(lemma string) string {
	if len(lemma) <= 1 {
		return lemma
	}
	cut := len(lemma)
	for _, mark := range []string{"_:", "_;", "_^", "_,", "`"} {
		if i := strings.Index(lemma[1:], mark); i >= 0 && i+1 < cut {
			cut = i + 1
		}
	}
	lemma = lemma[:cut]
	if m := reLemmaNumber.FindStringSubmatch(lemma); m != nil {
		return m[1]
	}
	return lemma
}
