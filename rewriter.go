package coczefla

import (
	"io"
	"regexp"
	"strconv"
	"strings"
)

// amendableHeaders and amendableTiers carry free text that gets the
// quotation, ellipsis and punctuation-spacing rules.
var (
	amendableHeaders = map[string]bool{"Comment": true, "Situation": true}
	amendableTiers   = map[string]bool{"err": true, "add": true, "tim": true, "com": true}
)

// legacyTiers are renamed on rewrite.
var legacyTiers = map[string]string{"pho": TierXpho}

// amend applies the rules shared by every free-text line.
func amend(s string) string {
	s = NormalizeQuotes(s)
	s = NormalizeEllipsis(s)
	return SpaceAroundPunctuation(s)
}

// Rewrite returns a copy of t with the conversion rules of the current
// standard applied. Lines marked verbatim are kept as they are. The
// rewriter never consults a tagger.
func Rewrite(t *Transcript) *Transcript {
	out := t.Clone()
	for _, h := range out.Header {
		rewriteHeader(h)
	}
	for _, u := range out.Utterances {
		for _, h := range u.Preamble {
			rewriteHeader(h)
		}
		rewriteUtterance(u)
	}
	for _, h := range out.Trailer {
		rewriteHeader(h)
	}
	return out
}

func rewriteHeader(h *HeaderLine) {
	if h.Verbatim || !h.HasValue {
		return
	}
	if amendableHeaders[h.Key] {
		h.Value = amend(h.Value)
	}
	h.Value = collapseSpaces(h.Value)
}

func rewriteUtterance(u *Utterance) {
	if !u.Main.Verbatim {
		content := amend(u.Main.Content())
		content = MarkFragments(content)
		content = MarkOmitted(content)
		content, ok := ExpandRepetitions(content)
		if !ok {
			u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagRepetition, "repetition code left unexpanded"))
		}
		u.Main.Tokens = Tokenize(content)
	}

	var tiers []*Tier
	for _, t := range u.Tiers {
		if t.Verbatim {
			tiers = append(tiers, t)
			continue
		}
		if alias, ok := legacyTiers[t.Marker]; ok && u.Tier(alias) == nil {
			t.Marker = alias
		}
		switch {
		case t.Marker == TierXpho:
			t.Text = CleanXpho(t.Text)
			if t.Text == "." {
				continue
			}
		case amendableTiers[t.Marker]:
			t.Text = amend(t.Text)
		default:
			t.Text = collapseSpaces(t.Text)
		}
		tiers = append(tiers, t)
	}
	u.Tiers = orderTiers(tiers)
}

// orderTiers moves the %mor tier right after the main line and keeps the
// rest in first-seen order.
func orderTiers(tiers []*Tier) []*Tier {
	out := make([]*Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.Marker == TierMor && !t.Verbatim {
			out = append(out, t)
			break
		}
	}
	for _, t := range tiers {
		if len(out) > 0 && t == out[0] {
			continue
		}
		out = append(out, t)
	}
	return out
}

var reRepetition = regexp.MustCompile(`> ?\[x (\d+)\]`)

// maxRepetitions bounds the count a repetition code is spelled out for.
const maxRepetitions = 100

// ExpandRepetitions spells out repetition codes:
// `<a b> [x 3]` becomes `<a b> [/] <a b> [/] a b`. The leftmost code is
// expanded first, so nested groups expand inside out. It reports false if
// some code had no angle-bracket group to repeat or a count above
// maxRepetitions; such codes are kept.
func ExpandRepetitions(content string) (string, bool) {
	ok := true
	from := 0
	for {
		loc := reRepetition.FindStringSubmatchIndex(content[from:])
		if loc == nil {
			return content, ok
		}
		for i := range loc {
			loc[i] += from
		}
		end := loc[0]
		start := matchingOpen(content, end)
		if start < 0 {
			ok = false
			from = loc[1]
			continue
		}
		n, err := strconv.Atoi(content[loc[2]:loc[3]])
		if err != nil || n > maxRepetitions {
			ok = false
			from = loc[1]
			continue
		}
		n = max(n, 1)
		inner := content[start+1 : end]
		parts := make([]string, 0, n)
		for i := 1; i < n; i++ {
			parts = append(parts, "<"+inner+"> [/]")
		}
		parts = append(parts, inner)
		content = content[:start] + strings.Join(parts, " ") + content[loc[1]:]
		from = start
	}
}

// matchingOpen returns the index of the `<` that opens the group closed by
// the `>` at end, or -1. The `+<` linker is not a bracket.
func matchingOpen(s string, end int) int {
	depth := 0
	for i := end; i >= 0; i-- {
		switch s[i] {
		case '>':
			depth++
		case '<':
			if i > 0 && s[i-1] == '+' {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Format serializes t with canonical separators, one line per header,
// main line and tier, each ending in "\n".
func Format(t *Transcript) string {
	var sb strings.Builder
	writeTranscript(&sb, t)
	return sb.String()
}

// WriteTo writes the canonical serialization of t to w.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, Format(t))
	return int64(n), err
}

func writeTranscript(sb *strings.Builder, t *Transcript) {
	line := func(s string) {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	for _, h := range t.Header {
		line(h.String())
	}
	for _, u := range t.Utterances {
		for _, h := range u.Preamble {
			line(h.String())
		}
		line(u.Main.String())
		for _, tier := range u.Tiers {
			line(tier.String())
		}
	}
	for _, h := range t.Trailer {
		line(h.String())
	}
}
