package coczefla

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

// AnnotateResult is the outcome of annotating one transcript. Output is
// written even when some utterances failed.
type AnnotateResult struct {
	Transcript  *Transcript
	Output      string
	Diagnostics Diagnostics
	// Annotated, Failed and Skipped count utterances.
	Annotated int
	Failed    int
	Skipped   int
}

// Status classifies the result.
func (r *AnnotateResult) Status() Status {
	return StatusOf(r.Diagnostics)
}

// UtteranceResult reports what happened to one utterance.
type UtteranceResult struct {
	Line    int    `json:"line"`
	Speaker string `json:"speaker"`
	Main    string `json:"main"`
	Mor     string `json:"mor,omitempty"`
	Flag    string `json:"flag,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	// Err is set when the tagger gave no usable result.
	Err error `json:"-"`
}

// quoteForms are dropped from tagger output; PlainWords drops them from
// the main line.
var quoteForms = map[string]bool{"“": true, "”": true, "„": true, `"`: true}

// Annotate adds a %mor tier to every utterance of a copy of t. An utterance
// the tagger cannot handle loses its %mor tier and gets a %xmorflag tier
// instead; the other utterances are unaffected. The error is non-nil only
// when ctx is done.
func (a *Annotator) Annotate(ctx context.Context, t *Transcript) (*AnnotateResult, error) {
	out := t.Clone()
	res := &AnnotateResult{Transcript: out}
	for _, u := range out.Utterances {
		ur, err := a.AnnotateUtterance(ctx, u)
		if err != nil {
			return nil, err
		}
		switch {
		case ur.Skipped:
			res.Skipped++
		case ur.Err != nil:
			res.Failed++
		default:
			res.Annotated++
		}
	}
	res.Output = Format(out)
	res.Diagnostics = out.AllDiagnostics()
	return res, nil
}

// AnnotateReader parses r and annotates it.
func (a *Annotator) AnnotateReader(ctx context.Context, r io.Reader) (*AnnotateResult, error) {
	t, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return a.Annotate(ctx, t)
}

// AnnotateUtterance tags one utterance in place. The returned error is
// non-nil only when ctx is done; tagging failures are recorded on u.
func (a *Annotator) AnnotateUtterance(ctx context.Context, u *Utterance) (*UtteranceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx)
	ur := &UtteranceResult{Line: u.Pos, Speaker: u.Main.Speaker, Main: u.Main.String()}

	words, ok, err := UtterancePlainWords(&u.Main)
	if err != nil {
		a.fail(u, ur, &AnnotationFailure{Line: u.Pos, Text: u.Main.Content(), Reason: "no plain text", Err: err})
		log.Warn("annotation failed", "line", u.Pos, "error", ur.Err)
		return ur, nil
	}
	if !ok {
		ur.Skipped = true
		return ur, nil
	}

	text := a.requestText(words)
	tagged, err := a.tagger.Tag(ctx, text, a.opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.fail(u, ur, &AnnotationFailure{Line: u.Pos, Text: text, Reason: "tagger error", Err: err})
		log.Warn("annotation failed", "line", u.Pos, "error", ur.Err)
		return ur, nil
	}
	tagged = cleanTagged(tagged)
	if len(tagged) == 0 {
		a.fail(u, ur, &AnnotationFailure{Line: u.Pos, Text: text, Reason: "empty tagger result"})
		log.Warn("annotation failed", "line", u.Pos, "error", ur.Err)
		return ur, nil
	}

	enc := a.encoder.Encode(words, tagged)
	u.SetTier(TierMor, enc.Mor)
	ur.Mor = enc.Mor

	var flags []string
	if len(enc.LowConfidence) > 0 {
		pos := make([]string, len(enc.LowConfidence))
		for i, p := range enc.LowConfidence {
			pos[i] = fmt.Sprint(p)
		}
		flags = append(flags, "low-confidence: "+strings.Join(pos, " "))
		u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagLowConfidence,
			"alignment guessed for word groups %s", strings.Join(pos, ", ")))
	}
	if enc.Unreliable {
		mor, main := CountMorWordGroups(enc.Mor), CountWordGroups(words)
		flags = append(flags, fmt.Sprintf("unreliable: %d word groups on %%mor, %d on the main line", mor, main))
		u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagWordGroupMismatch,
			"%%mor has %d word groups, main line has %d", mor, main))
	}
	if len(flags) > 0 {
		ur.Flag = strings.Join(flags, "; ")
		u.SetTier(TierMorFlag, ur.Flag)
	} else {
		u.RemoveTier(TierMorFlag)
	}
	log.Debug("utterance annotated", "line", u.Pos, "tokens", len(tagged), "groups", len(enc.Groups))
	return ur, nil
}

func (a *Annotator) requestText(words []PlainWord) string {
	sep := " "
	if a.opts.Tokenizer == TokenizerVertical {
		sep = "\n"
	}
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return strings.Join(texts, sep)
}

// cleanTagged strips lemma identifiers and drops quote tokens.
func cleanTagged(tagged []TaggedToken) []TaggedToken {
	out := make([]TaggedToken, 0, len(tagged))
	for _, tok := range tagged {
		if quoteForms[tok.Word] {
			continue
		}
		tok.Lemma = StripLemmaID(tok.Lemma)
		out = append(out, tok)
	}
	return out
}

func (a *Annotator) fail(u *Utterance, ur *UtteranceResult, f *AnnotationFailure) {
	ur.Err = f
	ur.Flag = "annotation failed: " + f.Reason
	u.RemoveTier(TierMor)
	u.SetTier(TierMorFlag, ur.Flag)
	d := newDiag(u.Pos, DiagAnnotationFailure, "%s", f.Reason)
	if f.Err != nil {
		d.Message += ": " + f.Err.Error()
	}
	u.Diagnostics = append(u.Diagnostics, d)
}
