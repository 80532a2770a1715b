package coczefla

import (
	"regexp"
	"strings"
)

// fixRule is one bounded local repair. It runs on a raw line only while
// one of its codes is diagnosed on that line.
type fixRule struct {
	name    string
	codes   []DiagCode
	message string
	apply   func(raw string) string
}

func (r fixRule) applies(ds Diagnostics) bool {
	for _, c := range r.codes {
		if ds.Has(c) {
			return true
		}
	}
	return false
}

// onContent lifts a content transformation to a whole main or tier line.
func onContent(f func(string) string) func(string) string {
	return func(raw string) string {
		p := splitLine(raw)
		p.content = f(p.content)
		return p.join()
	}
}

var (
	reCodeOpenSpace  = regexp.MustCompile(`\[ +`)
	reCodeCloseSpace = regexp.MustCompile(` +\]`)
	reTrailingDots   = regexp.MustCompile(`\s*(?:\.\.\.|…)$`)
)

// mainRules are applied to main lines in this order.
var mainRules = []fixRule{
	{
		name:    "speaker-code",
		codes:   []DiagCode{DiagSpeakerCode},
		message: "speaker code normalized",
		apply: func(raw string) string {
			p := splitLine(raw)
			if p.name == "" {
				return raw
			}
			p.name = strings.ToUpper(p.name)
			p.colon = ":"
			return p.join()
		},
	},
	{
		name:    "separator",
		codes:   []DiagCode{DiagSeparator},
		message: "separator replaced with a tab",
		apply: func(raw string) string {
			p := splitLine(raw)
			if p.colon == "" {
				return raw
			}
			p.sep = "\t"
			return p.join()
		},
	},
	{
		name:    "whitespace",
		codes:   []DiagCode{DiagWhitespace},
		message: "duplicate whitespace removed",
		apply:   onContent(collapseSpaces),
	},
	{
		name:    "code-spacing",
		codes:   []DiagCode{DiagCodeSpacing},
		message: "bracket code spacing normalized",
		apply: onContent(func(c string) string {
			c = reCodeOpenSpace.ReplaceAllString(c, "[")
			return reCodeCloseSpace.ReplaceAllString(c, "]")
		}),
	},
	{
		name:    "ellipsis",
		codes:   []DiagCode{DiagTerminatorMissing, DiagTerminatorSpacing},
		message: "ellipsis replaced with the +... terminator",
		apply:   onContent(fixEllipsis),
	},
	{
		name:    "terminator-spacing",
		codes:   []DiagCode{DiagTerminatorSpacing},
		message: "terminator separated from the last word",
		apply:   onContent(separateTerminator),
	},
	{
		name:    "terminator-missing",
		codes:   []DiagCode{DiagTerminatorMissing},
		message: "terminator inserted",
		apply:   onContent(insertTerminator),
	},
	{
		name:    "close-group",
		codes:   []DiagCode{DiagBracketUnbalanced},
		message: "missing > inserted before a scoped code",
		apply:   onContent(closeOpenGroups),
	},
	{
		name:    "code-scope",
		codes:   []DiagCode{DiagBracketScope},
		message: "code scope marked with angle brackets",
		apply:   onContent(markCodeScopes),
	},
}

// tierAliases maps legacy or misspelled tier markers to standard ones.
var tierAliases = map[string]string{
	"pho":    "xpho",
	"morf":   "mor",
	"koment": "com",
	"comm":   "com",
	"coment": "com",
}

// tierRules are applied to dependent tier lines in this order.
var tierRules = []fixRule{
	{
		name:    "tier-marker",
		codes:   []DiagCode{DiagTierMarker},
		message: "tier marker normalized",
		apply: func(raw string) string {
			p := splitLine(raw)
			if p.name == "" {
				return raw
			}
			marker := strings.ToLower(p.name)
			if alias, ok := tierAliases[marker]; ok {
				marker = alias
			}
			if reTierMarker.MatchString(marker) && !standardTiers[marker] && !strings.HasPrefix(marker, "x") {
				marker = "x" + marker
			}
			p.name = marker
			p.colon = ":"
			return p.join()
		},
	},
	{
		name:    "separator",
		codes:   []DiagCode{DiagSeparator},
		message: "separator replaced with a tab",
		apply: func(raw string) string {
			p := splitLine(raw)
			if p.colon == "" || p.content == "" {
				return raw
			}
			p.sep = "\t"
			return p.join()
		},
	},
	{
		name:    "whitespace",
		codes:   []DiagCode{DiagWhitespace},
		message: "duplicate whitespace removed",
		apply:   onContent(collapseSpaces),
	},
}

// headerRules are applied to header lines in this order. A malformed line
// in the opening header block is fatal in ParseLines, so these rules only
// reach `@` lines between or after utterances.
var headerRules = []fixRule{
	{
		name:    "header-colon",
		codes:   []DiagCode{DiagHeader},
		message: "colon inserted after header key",
		apply: func(raw string) string {
			p := splitHeader(raw)
			if p.colon != "" {
				return raw
			}
			for _, key := range headersWithValue {
				if rest, ok := strings.CutPrefix(p.key, key+" "); ok {
					return "@" + key + ":\t" + strings.TrimSpace(rest)
				}
			}
			return raw
		},
	},
	{
		name:    "separator",
		codes:   []DiagCode{DiagSeparator},
		message: "separator replaced with a tab",
		apply: func(raw string) string {
			p := splitHeader(raw)
			if p.colon == "" {
				return raw
			}
			p.sep = "\t"
			return p.join()
		},
	},
	{
		name:    "whitespace",
		codes:   []DiagCode{DiagWhitespace},
		message: "duplicate whitespace removed",
		apply: func(raw string) string {
			p := splitHeader(raw)
			p.value = collapseSpaces(p.value)
			return p.join()
		},
	},
}

// maxFixPasses bounds the rule loop; a line still changing after that many
// passes keeps its remaining diagnostics.
const maxFixPasses = 4

// applyRules runs rules over raw until no rule changes it. It returns the
// repaired line and one fixed diagnostic per rule that changed something.
func applyRules(num int, raw string, rules []fixRule, check func(int, string) Diagnostics) (string, Diagnostics) {
	var fixed Diagnostics
	done := make(map[string]bool)
	for pass := 0; pass < maxFixPasses; pass++ {
		ds := check(num, raw)
		changed := false
		for _, rule := range rules {
			if !rule.applies(ds) {
				continue
			}
			out := rule.apply(raw)
			if out == raw {
				continue
			}
			raw = out
			changed = true
			ds = check(num, raw)
			if !done[rule.name] {
				done[rule.name] = true
				d := newDiag(num, rule.codes[0], "%s", rule.message)
				d.Fixed = true
				fixed = append(fixed, d)
			}
		}
		if !changed {
			break
		}
	}
	return raw, fixed
}

// Fix returns a repaired copy of t. The input is left untouched so that
// its diagnostics keep pointing at the original text. Fix is a fixed
// point: fixing its output again changes nothing.
func Fix(t *Transcript) *Transcript {
	out := &Transcript{}
	for _, h := range t.Header {
		nh, ds := fixHeader(h)
		out.Header = append(out.Header, nh)
		out.Diagnostics = append(out.Diagnostics, ds...)
	}
	for _, u := range t.Utterances {
		out.Utterances = append(out.Utterances, fixUtterance(u, out))
	}
	for _, h := range t.Trailer {
		nh, ds := fixHeader(h)
		out.Trailer = append(out.Trailer, nh)
		out.Diagnostics = append(out.Diagnostics, ds...)
	}

	speakers := speakerSet(out)
	for _, u := range out.Utterances {
		checkUtterance(u, speakers)
	}
	return out
}

func fixHeader(h *HeaderLine) (*HeaderLine, Diagnostics) {
	if h.Raw == "" {
		c := *h
		return &c, nil
	}
	raw, fixed := applyRules(h.Pos, h.Raw, headerRules, checkHeader)
	nh, ds := parseHeaderLine(h.Pos, raw)
	return nh, append(fixed, ds...)
}

func fixUtterance(u *Utterance, t *Transcript) *Utterance {
	nu := &Utterance{Pos: u.Pos}
	for _, h := range u.Preamble {
		nh, ds := fixHeader(h)
		nu.Preamble = append(nu.Preamble, nh)
		t.Diagnostics = append(t.Diagnostics, ds...)
	}

	if u.Main.Raw == "" {
		nu.Main = u.Main
		nu.Main.Tokens = append([]Token(nil), u.Main.Tokens...)
	} else {
		raw, fixed := applyRules(u.Pos, u.Main.Raw, mainRules, checkMain)
		m, ds := parseMainLine(u.Pos, raw)
		nu.Main = m
		nu.Diagnostics = append(nu.Diagnostics, fixed...)
		nu.Diagnostics = append(nu.Diagnostics, ds...)
	}

	for _, tier := range u.Tiers {
		if tier.Raw == "" || Classify(tier.Raw) != LineDependent {
			c := *tier
			nu.Tiers = append(nu.Tiers, &c)
			continue
		}
		raw, fixed := applyRules(tier.Pos, tier.Raw, tierRules, checkTier)
		nt, ds := parseTierLine(tier.Pos, raw)
		nu.Tiers = append(nu.Tiers, nt)
		nu.Diagnostics = append(nu.Diagnostics, fixed...)
		nu.Diagnostics = append(nu.Diagnostics, ds...)
	}
	for _, d := range u.Diagnostics {
		if d.Code == DiagUnrecognized {
			nu.Diagnostics = append(nu.Diagnostics, d)
		}
	}
	sortDiagnostics(nu.Diagnostics)
	return nu
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fixEllipsis replaces a trailing `...` or `…` that is not already the
// `+...` terminator.
func fixEllipsis(content string) string {
	content = strings.TrimRight(content, " \t")
	if strings.HasSuffix(content, "+…") {
		return strings.TrimSuffix(content, "+…") + "+..."
	}
	if strings.HasSuffix(content, "+...") || !reTrailingDots.MatchString(content) {
		return content
	}
	rest := strings.TrimSpace(reTrailingDots.ReplaceAllString(content, ""))
	if rest == "" {
		return "+..."
	}
	return rest + " +..."
}

// separateTerminator splits a terminator glued to the last word.
func separateTerminator(content string) string {
	tokens := Tokenize(content)
	i := lastContentIndex(tokens)
	if i < 0 || tokens[i].Kind() == TokenCode {
		return content
	}
	term := terminatorSuffix(tokens[i].Text)
	if term == "" {
		return content
	}
	word := Token{Text: strings.TrimSuffix(tokens[i].Text, term)}
	out := append([]Token(nil), tokens[:i]...)
	out = append(out, word, Token{Text: term})
	out = append(out, tokens[i+1:]...)
	return JoinTokens(out)
}

// insertTerminator appends a period before any trailing postcodes.
func insertTerminator(content string) string {
	tokens := Tokenize(content)
	i := lastContentIndex(tokens)
	if i >= 0 && tokens[i].Kind() == TokenTerminator {
		return content
	}
	if i >= 0 && strings.HasSuffix(tokens[i].Text, "…") {
		return content
	}
	out := append([]Token(nil), tokens[:i+1]...)
	out = append(out, Token{Text: "."})
	out = append(out, tokens[i+1:]...)
	return JoinTokens(out)
}

// closeOpenGroups closes a pending `<` group right before the scoped code
// that ends it: `<ťapu [x 2]` becomes `<ťapu> [x 2]`.
func closeOpenGroups(content string) string {
	tokens := Tokenize(content)
	depth := 0
	for i, tk := range tokens {
		if tk.IsScopedCode() && i > 0 && depth > 0 && tokens[i-1].CloseAngles() == 0 && tokens[i-1].Kind() != TokenCode {
			tokens[i-1].Text += ">"
			depth--
		}
		depth += tk.OpenAngles() - tk.CloseAngles()
	}
	return JoinTokens(tokens)
}

// markCodeScopes wraps the scope of a scoped code in angle brackets. A code
// that follows another code takes the previous code's whole scope:
// `<ťapu> [x 2] [?]` becomes `<<ťapu> [x 2]> [?]`.
func markCodeScopes(content string) string {
	tokens := Tokenize(content)
	for i := 1; i < len(tokens); i++ {
		if !tokens[i].IsScopedCode() || tokens[i-1].CloseAngles() > 0 {
			continue
		}
		prev := tokens[i-1]
		switch prev.Kind() {
		case TokenCode:
			if i < 2 {
				continue
			}
			s := groupStart(tokens, i-2)
			if s < 0 {
				continue
			}
			tokens[s].Text = "<" + tokens[s].Text
			tokens[i-1].Text += ">"
		case TokenWord, TokenFragment, TokenOmitted, TokenUnintelligible, TokenEvent:
			tokens[i-1].Text = "<" + prev.Text + ">"
		}
	}
	return JoinTokens(tokens)
}
