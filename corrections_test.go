package coczefla

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func correct(t *testing.T, tagger Tagger, body string, corrections ...Correction) *CorrectResult {
	t.Helper()
	a := newTestAnnotator(t, tagger, Options{})
	res, err := a.CorrectReader(context.Background(), strings.NewReader(transcriptOf(body)), corrections...)
	if err != nil {
		t.Fatalf("CorrectReader: %v", err)
	}
	return res
}

func TestCorrectAll(t *testing.T) {
	tagger := &fakeTagger{results: map[string][]TaggedToken{
		"tohle": {{"tohle", "tenhle-1_^(tento)", "PDNS1----------"}},
	}}
	body := "*CHI:\tje tohle lepší , co ?\n" +
		"%mor:\tv:x|být-3&SG&ind&pres&akt&impf pro:dem|ten-1&SG&N adj|lepší-CP-1&SG&N cm|cm part|co-1&SG&N ?\n"
	res := correct(t, tagger, body, AllCorrections...)

	want := "%mor:\tv:cop|být-3&SG&ind&pres&akt&impf pro:dem|tenhle-1&SG&N adj|dobrý-CP-1&SG&N cm|cm part|co ?\n"
	if !strings.Contains(res.Output, want) {
		t.Errorf("output lacks %q:\n%s", want, res.Output)
	}
	if res.Changed != 4 {
		t.Errorf("Changed = %d, want 4", res.Changed)
	}
	if len(tagger.opts) != 1 || tagger.opts[0].Tokenizer != TokenizerVertical {
		t.Errorf("demonstrative re-tagged with %+v", tagger.opts)
	}
}

func TestCorrectPeopleLemma(t *testing.T) {
	body := "*CHI:\tlidé jdou .\n%mor:\tn|lidé-1&PL&MA v|jít-3&PL&ind&pres&akt&impf .\n"
	res := correct(t, &fakeTagger{}, body, CorrectPeopleLemma)
	if want := "%mor:\tn|člověk-1&PL&MA v|jít-3&PL&ind&pres&akt&impf .\n"; !strings.Contains(res.Output, want) {
		t.Errorf("output lacks %q:\n%s", want, res.Output)
	}
	if res.Changed != 1 || res.Status() != StatusClean {
		t.Errorf("Changed = %d, Status() = %v", res.Changed, res.Status())
	}
}

func TestCorrectSkipsTiers(t *testing.T) {
	tests := []struct {
		name string
		mor  string
		code DiagCode
	}{
		{"count mismatch", "v:x|chtít-1&SG .", DiagMorParse},
		{"unparsable", "n| .", DiagMorParse},
		{"tagger error", chciToMor, DiagCorrectionNotApplied},
	}
	for _, tt := range tests {
		body := "*CHI:\tchci to .\n%mor:\t" + tt.mor + "\n"
		res := correct(t, &fakeTagger{}, body, CorrectDemLemma)
		if !res.Diagnostics.Has(tt.code) {
			t.Errorf("%s: diagnostics = %v, want %s", tt.name, res.Diagnostics, tt.code)
		}
		if !strings.Contains(res.Output, "%mor:\t"+tt.mor+"\n") {
			t.Errorf("%s: %%mor tier changed:\n%s", tt.name, res.Output)
		}
		if res.Changed != 0 {
			t.Errorf("%s: Changed = %d, want 0", tt.name, res.Changed)
		}
	}
}

func TestCorrectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newTestAnnotator(t, &fakeTagger{}, Options{})
	body := transcriptOf("*CHI:\tchci to .\n%mor:\t" + chciToMor + "\n")
	if _, err := a.CorrectReader(ctx, strings.NewReader(body), CorrectVcop); !errors.Is(err, context.Canceled) {
		t.Errorf("CorrectReader error = %v, want context.Canceled", err)
	}
}

func TestParseCorrections(t *testing.T) {
	tests := []struct {
		in   []string
		want []Correction
	}{
		{[]string{"all"}, AllCorrections},
		{[]string{"part_nogram", "VCOP", "vcop"}, []Correction{CorrectPartNogram, CorrectVcop}},
		{nil, nil},
	}
	for _, tt := range tests {
		got, err := ParseCorrections(tt.in)
		if err != nil {
			t.Errorf("ParseCorrections(%q): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseCorrections(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}

	_, err := ParseCorrections([]string{"vcop", "bogus"})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Setting != "corrections" {
		t.Errorf("ParseCorrections(bogus) error = %v", err)
	}
}
