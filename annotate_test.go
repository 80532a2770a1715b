package coczefla

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeTagger answers the requests it knows and fails all others.
type fakeTagger struct {
	mu       sync.Mutex
	results  map[string][]TaggedToken
	requests []string
	opts     []TagOptions
}

func (f *fakeTagger) Tag(ctx context.Context, text string, opts TagOptions) ([]TaggedToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, text)
	f.opts = append(f.opts, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	toks, ok := f.results[text]
	if !ok {
		return nil, fmt.Errorf("service unavailable")
	}
	return toks, nil
}

func transcriptOf(body string) string {
	return "@Begin\n@Languages:\tces\n@Participants:\tCHI Child, MOT Mother\n" + body + "@End\n"
}

func newTestAnnotator(t *testing.T, tagger Tagger, opts Options) *Annotator {
	t.Helper()
	a, err := New(tagger, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAnnotate(t *testing.T) {
	tagger := &fakeTagger{results: map[string][]TaggedToken{
		"chci to .": {tokChci, {"to", "ten-1_^(který)", "PDNS1----------"}, tokDot},
		"chcu to .": {tokChci, tokTo, tokDot},
	}}
	in := transcriptOf("*CHI:\tchci to .\n" +
		"*MOT:\txxx .\n" +
		"*CHI:\tbroken .\n" +
		"%mor:\tx|broken .\n" +
		"*CHI:\tchcu to .\n")
	tr, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}

	res, err := newTestAnnotator(t, tagger, Options{}).Annotate(context.Background(), tr)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if res.Annotated != 2 || res.Failed != 1 || res.Skipped != 1 {
		t.Errorf("Annotated, Failed, Skipped = %d, %d, %d, want 2, 1, 1", res.Annotated, res.Failed, res.Skipped)
	}

	for _, want := range []string{
		"*CHI:\tchci to .\n%mor:\t" + chciToMor + "\n*MOT:",
		"*MOT:\txxx .\n*CHI:",
		"*CHI:\tbroken .\n%xmorflag:\tannotation failed: tagger error\n",
		"*CHI:\tchcu to .\n%mor:\t" + chciToMor + "\n%xmorflag:\tlow-confidence: 1\n",
	} {
		if !strings.Contains(res.Output, want) {
			t.Errorf("output lacks %q:\n%s", want, res.Output)
		}
	}
	if strings.Contains(res.Output, "x|broken") {
		t.Errorf("failed utterance kept its %%mor tier:\n%s", res.Output)
	}
	if !res.Diagnostics.Has(DiagAnnotationFailure) || !res.Diagnostics.Has(DiagLowConfidence) {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
	if res.Status() != StatusResidual {
		t.Errorf("Status() = %v, want %v", res.Status(), StatusResidual)
	}

	// The input transcript is left alone.
	if tr.Utterances[0].Tier(TierMor) != nil || tr.Utterances[2].Tier(TierMor) == nil {
		t.Error("Annotate modified its input")
	}
	if len(tagger.requests) != 3 {
		t.Errorf("tagger saw %q, want three requests", tagger.requests)
	}
}

func TestAnnotateMovesMorAfterMainLine(t *testing.T) {
	tagger := &fakeTagger{results: map[string][]TaggedToken{
		"ahoj .": {{"ahoj", "ahoj", "II-------------"}, tokDot},
	}}
	a := newTestAnnotator(t, tagger, Options{})
	in := transcriptOf("*CHI:\tahoj .\n%com:\tnote\n%mor:\told|x .\n")
	res, err := a.AnnotateReader(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := "*CHI:\tahoj .\n%mor:\tint|ahoj .\n%com:\tnote\n@End"
	if !strings.Contains(res.Output, want) {
		t.Errorf("output lacks %q:\n%s", want, res.Output)
	}
}

func TestSetTier(t *testing.T) {
	u := &Utterance{Tiers: []*Tier{
		{Marker: "com", Text: "note"},
		{Marker: TierMor, Text: "old|x .", Raw: "%mor:\told|x .", Verbatim: true},
	}}
	u.SetTier(TierMor, "int|ahoj .")
	u.SetTier("com", "other")
	u.SetTier(TierMorFlag, "low-confidence: 1")
	var got []string
	for _, tr := range u.Tiers {
		got = append(got, tr.String())
	}
	want := []string{"%mor:\tint|ahoj .", "%com:\tother", "%xmorflag:\tlow-confidence: 1"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("tiers = %q, want %q", got, want)
	}
}

func TestAnnotateUtteranceFailure(t *testing.T) {
	a := newTestAnnotator(t, &fakeTagger{}, Options{})
	tr, err := Parse(strings.NewReader(transcriptOf("*CHI:\tbroken .\n")))
	if err != nil {
		t.Fatal(err)
	}
	ur, err := a.AnnotateUtterance(context.Background(), tr.Utterances[0])
	if err != nil {
		t.Fatalf("AnnotateUtterance: %v", err)
	}
	if !errors.Is(ur.Err, ErrAnnotation) {
		t.Errorf("Err = %v, want ErrAnnotation", ur.Err)
	}
	var af *AnnotationFailure
	if !errors.As(ur.Err, &af) || af.Reason != "tagger error" || af.Line != 4 {
		t.Errorf("Err = %#v", ur.Err)
	}
}

func TestAnnotateEmptyResult(t *testing.T) {
	tagger := &fakeTagger{results: map[string][]TaggedToken{"chci .": {{Word: "„", Tag: "Z:"}}}}
	a := newTestAnnotator(t, tagger, Options{})
	res, err := a.AnnotateReader(context.Background(), strings.NewReader(transcriptOf("*CHI:\tchci .\n")))
	if err != nil {
		t.Fatal(err)
	}
	if want := "%xmorflag:\tannotation failed: empty tagger result\n"; !strings.Contains(res.Output, want) {
		t.Errorf("output lacks %q:\n%s", want, res.Output)
	}
}

func TestAnnotateUnreliable(t *testing.T) {
	tagger := &fakeTagger{results: map[string][]TaggedToken{"chci .": {tokChci, tokTo, tokDot}}}
	a := newTestAnnotator(t, tagger, Options{})
	res, err := a.AnnotateReader(context.Background(), strings.NewReader(transcriptOf("*CHI:\tchci .\n")))
	if err != nil {
		t.Fatal(err)
	}
	want := "%xmorflag:\tunreliable: 2 word groups on %mor, 1 on the main line\n"
	if !strings.Contains(res.Output, want) {
		t.Errorf("output lacks %q:\n%s", want, res.Output)
	}
	if !res.Diagnostics.Has(DiagWordGroupMismatch) {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
}

func TestAnnotateVerticalTokenizer(t *testing.T) {
	tagger := &fakeTagger{results: map[string][]TaggedToken{"chci\nto\n.": {tokChci, tokTo, tokDot}}}
	a := newTestAnnotator(t, tagger, Options{Tag: TagOptions{Tokenizer: TokenizerVertical, Guesser: true}})
	res, err := a.AnnotateReader(context.Background(), strings.NewReader(transcriptOf("*CHI:\tchci to .\n")))
	if err != nil {
		t.Fatal(err)
	}
	if res.Annotated != 1 {
		t.Errorf("Annotated = %d, want 1 (requests %q)", res.Annotated, tagger.requests)
	}
	if len(tagger.opts) != 1 || !tagger.opts[0].Guesser || tagger.opts[0].Tokenizer != TokenizerVertical {
		t.Errorf("tagger options = %+v", tagger.opts)
	}
}

func TestAnnotateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newTestAnnotator(t, &fakeTagger{}, Options{})
	_, err := a.AnnotateReader(ctx, strings.NewReader(transcriptOf("*CHI:\tchci to .\n")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("AnnotateReader error = %v, want context.Canceled", err)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		tagger  Tagger
		opts    Options
		setting string
	}{
		{"no tagger", nil, Options{}, "tagger"},
		{"tokenizer", &fakeTagger{}, Options{Tag: TagOptions{Tokenizer: "bogus"}}, "tokenizer"},
		{"tables", &fakeTagger{}, Options{TablesDir: filepath.Join(t.TempDir(), "missing")}, "tables"},
	}
	for _, tt := range tests {
		_, err := New(tt.tagger, tt.opts)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) || cfgErr.Setting != tt.setting {
			t.Errorf("%s: New error = %v, want setting %q", tt.name, err, tt.setting)
		}
	}
}
