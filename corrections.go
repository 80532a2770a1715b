package coczefla

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

// Correction names a fix applied to existing %mor tiers.
type Correction string

const (
	// CorrectVcop marks copula forms of být as v:cop.
	CorrectVcop Correction = "vcop"
	// CorrectPartNogram drops the categories of the particle co.
	CorrectPartNogram Correction = "part-nogram"
	// CorrectAdjAdvCompDeg lemmatizes comparatives and superlatives to
	// the positive degree.
	CorrectAdjAdvCompDeg Correction = "adj-adv-compdeg"
	// CorrectDemLemma re-tags demonstratives lemmatized as ten.
	CorrectDemLemma Correction = "dem-lemma"
	// CorrectPeopleLemma lemmatizes lidé as člověk.
	CorrectPeopleLemma Correction = "people-lemma"
)

// AllCorrections lists every correction in the order they are applied.
var AllCorrections = []Correction{
	CorrectVcop, CorrectPartNogram, CorrectAdjAdvCompDeg, CorrectDemLemma, CorrectPeopleLemma,
}

// ParseCorrections validates correction names; "all" selects every one.
func ParseCorrections(names []string) ([]Correction, error) {
	var out []Correction
	seen := make(map[Correction]bool)
	add := func(c Correction) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, name := range names {
		name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
		if name == "all" {
			for _, c := range AllCorrections {
				add(c)
			}
			continue
		}
		known := false
		for _, c := range AllCorrections {
			if string(c) == name {
				add(c)
				known = true
			}
		}
		if !known {
			return nil, &ConfigurationError{Setting: "corrections", Message: fmt.Sprintf("unknown correction %q", name)}
		}
	}
	return out, nil
}

// CorrectResult is the outcome of correcting one transcript.
type CorrectResult struct {
	Transcript  *Transcript
	Output      string
	Diagnostics Diagnostics
	// Changed counts the MOR parts that were modified.
	Changed int
}

// Status classifies the result.
func (r *CorrectResult) Status() Status {
	return StatusOf(r.Diagnostics)
}

// partFix changes one MOR part in place and reports whether it did.
type partFix func(ctx context.Context, word string, p *MorPart) (bool, error)

// Correct applies corrections to the %mor tiers of a copy of t. Tiers whose
// items cannot be paired with the main-line word groups are left alone and
// reported. The error is non-nil only when ctx is done.
func (a *Annotator) Correct(ctx context.Context, t *Transcript, corrections ...Correction) (*CorrectResult, error) {
	fixes := make([]partFix, len(corrections))
	for i, c := range corrections {
		fixes[i] = a.partFix(c)
	}

	out := t.Clone()
	res := &CorrectResult{Transcript: out}
	log := logging.FromContext(ctx)
	for _, u := range out.Utterances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mor := u.Tier(TierMor)
		if mor == nil || mor.Verbatim {
			continue
		}
		n, err := a.correctUtterance(ctx, u, mor, fixes)
		if err != nil {
			return nil, err
		}
		res.Changed += n
	}
	log.Debug("corrections applied", "changed", res.Changed)
	res.Output = Format(out)
	res.Diagnostics = out.AllDiagnostics()
	return res, nil
}

// CorrectReader parses r and corrects it.
func (a *Annotator) CorrectReader(ctx context.Context, r io.Reader, corrections ...Correction) (*CorrectResult, error) {
	t, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return a.Correct(ctx, t, corrections...)
}

func (a *Annotator) correctUtterance(ctx context.Context, u *Utterance, mor *Tier, fixes []partFix) (int, error) {
	tier, err := ParseMorTier(mor.Text)
	if err != nil {
		u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagMorParse, "%v", err))
		return 0, nil
	}
	words, ok, err := UtterancePlainWords(&u.Main)
	if err != nil || !ok {
		u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagCorrectionNotApplied,
			"main line has no words to pair with %%mor"))
		return 0, nil
	}
	if len(words) != len(tier.Items) {
		u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagMorParse,
			"main line has %d items, %%mor has %d", len(words), len(tier.Items)))
		return 0, nil
	}

	changed := 0
	for i, it := range tier.Items {
		if it.Word == nil {
			continue
		}
		for _, p := range it.Word.Parts {
			for _, fix := range fixes {
				ok, err := fix(ctx, words[i].Text, p)
				if err != nil {
					if ctx.Err() != nil {
						return 0, ctx.Err()
					}
					u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagCorrectionNotApplied,
						"word %q: %v", words[i].Text, err))
					continue
				}
				if ok {
					changed++
				}
			}
		}
	}
	if changed > 0 {
		mor.Text = tier.String()
	}
	return changed, nil
}

func (a *Annotator) partFix(c Correction) partFix {
	tables := a.encoder.Tables()
	switch c {
	case CorrectVcop:
		return func(_ context.Context, word string, p *MorPart) (bool, error) {
			if p.Category == "v:cop" || !tables.IsCopula(p.Stem, word) {
				return false, nil
			}
			p.Category = "v:cop"
			return true, nil
		}
	case CorrectPartNogram:
		return func(_ context.Context, _ string, p *MorPart) (bool, error) {
			if p.Category != "part" || p.Stem != "co" || len(p.Suffixes) == 0 {
				return false, nil
			}
			p.Suffixes = nil
			return true, nil
		}
	case CorrectAdjAdvCompDeg:
		return func(_ context.Context, _ string, p *MorPart) (bool, error) {
			pos, ok := tables.PositiveDegree(p.Stem)
			if !ok || pos == p.Stem {
				return false, nil
			}
			p.Stem = pos
			return true, nil
		}
	case CorrectPeopleLemma:
		return func(_ context.Context, _ string, p *MorPart) (bool, error) {
			if p.Stem != "lidé" {
				return false, nil
			}
			p.Stem = "člověk"
			return true, nil
		}
	case CorrectDemLemma:
		return a.retagDemonstrative
	}
	return func(context.Context, string, *MorPart) (bool, error) { return false, nil }
}

// retagDemonstrative asks the tagger for the lemma of a lone demonstrative
// form, which tells the variants of ten apart.
func (a *Annotator) retagDemonstrative(ctx context.Context, word string, p *MorPart) (bool, error) {
	if p.Stem != "ten" {
		return false, nil
	}
	opts := a.opts
	opts.Tokenizer = TokenizerVertical
	toks, err := a.tagger.Tag(ctx, word, opts)
	if err != nil {
		return false, err
	}
	toks = cleanTagged(toks)
	if len(toks) != 1 {
		return false, fmt.Errorf("tagger returned %d tokens instead of one", len(toks))
	}
	lemma := toks[0].Lemma
	if lemma == "" || lemma == p.Stem {
		return false, nil
	}
	p.Stem = lemma
	return true, nil
}
