package coczefla

import (
	"context"
	"errors"
	"testing"
)

func TestStripLemmaID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ten-1_^(který)", "ten"},
		{"Praha_;G", "Praha"},
		{"být`bývat_:T", "být"},
		{"a-1", "a"},
		{"pes", "pes"},
		{",", ","},
		{"-", "-"},
	}
	for _, tt := range tests {
		if got := StripLemmaID(tt.in); got != tt.want {
			t.Errorf("StripLemmaID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTokenizerVariant(t *testing.T) {
	tests := []struct {
		in   string
		want TokenizerVariant
	}{
		{"", TokenizerCzech},
		{"czech", TokenizerCzech},
		{" Vertical ", TokenizerVertical},
	}
	for _, tt := range tests {
		got, err := ParseTokenizerVariant(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseTokenizerVariant(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
	_, err := ParseTokenizerVariant("bogus")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Setting != "tokenizer" {
		t.Errorf("ParseTokenizerVariant(%q) error = %v", "bogus", err)
	}
}

func TestTaggerFunc(t *testing.T) {
	var got TagOptions
	f := TaggerFunc(func(_ context.Context, text string, opts TagOptions) ([]TaggedToken, error) {
		got = opts
		return []TaggedToken{{Word: text}}, nil
	})
	toks, err := f.Tag(context.Background(), "pes", TagOptions{Guesser: true})
	if err != nil || len(toks) != 1 || toks[0].Word != "pes" || !got.Guesser {
		t.Errorf("Tag = %v, %v (opts %+v)", toks, err, got)
	}
}
