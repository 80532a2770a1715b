package coczefla

import (
	"strings"
)

// Tier markers with a fixed meaning.
const (
	TierMor     = "mor"
	TierXpho    = "xpho"
	TierMorFlag = "xmorflag"
)

// HeaderLine is an `@` line: `@Begin`, `@Participants:\tCHI Child, ...`.
type HeaderLine struct {
	Key      string
	Value    string
	HasValue bool
	// Pos is the 1-based line number in the source, 0 for synthesized lines.
	Pos int
	// Raw is the line as read; Verbatim lines are emitted as Raw.
	Raw      string
	Verbatim bool
}

// String renders the header line canonically.
func (h *HeaderLine) String() string {
	if h.Verbatim {
		return h.Raw
	}
	if !h.HasValue {
		return "@" + h.Key
	}
	return "@" + h.Key + ":\t" + h.Value
}

// Tier is a dependent tier: `%mor:\t...`. Lines that could not be
// classified are kept in place as Verbatim tiers with an empty Marker.
type Tier struct {
	Marker   string
	Text     string
	Pos      int
	Raw      string
	Verbatim bool
}

// String renders the tier canonically.
func (t *Tier) String() string {
	if t.Verbatim {
		return t.Raw
	}
	return "%" + t.Marker + ":\t" + t.Text
}

// MainLine is the `*SPK:\t...` line of an utterance.
type MainLine struct {
	Speaker string
	Tokens  []Token
	// Raw is the logical line as read (continuations joined), updated by
	// fix rules. Verbatim lines carry unresolved errors and are emitted as Raw.
	Raw      string
	Verbatim bool
}

// Content returns the token sequence joined by single spaces.
func (m *MainLine) Content() string {
	return JoinTokens(m.Tokens)
}

// String renders the main line canonically.
func (m *MainLine) String() string {
	if m.Verbatim {
		return m.Raw
	}
	return "*" + m.Speaker + ":\t" + m.Content()
}

// Terminator returns the final token if it is a terminator.
func (m *MainLine) Terminator() string {
	if len(m.Tokens) == 0 {
		return ""
	}
	last := m.Tokens[len(m.Tokens)-1]
	if last.Kind() == TokenTerminator {
		return last.Core()
	}
	return ""
}

// Utterance is a main line with its dependent tiers.
type Utterance struct {
	// Pos is the line number of the main line.
	Pos int
	// Preamble holds `@` lines (comments, situations, gems) that precede
	// the utterance.
	Preamble []*HeaderLine
	Main     MainLine
	// Tiers are kept in first-seen order, except %mor which always
	// directly follows the main line.
	Tiers []*Tier
	// Diagnostics lists findings about the main line and its tiers.
	Diagnostics Diagnostics
}

// Tier returns the tier with the given marker or nil.
func (u *Utterance) Tier(marker string) *Tier {
	for _, t := range u.Tiers {
		if t.Marker == marker {
			return t
		}
	}
	return nil
}

// SetTier inserts or replaces a tier. The %mor tier always ends up right
// after the main line, other new tiers are appended.
func (u *Utterance) SetTier(marker, text string) {
	t := u.Tier(marker)
	if t == nil {
		t = &Tier{Marker: marker}
		if marker != TierMor {
			u.Tiers = append(u.Tiers, t)
		}
	} else if marker == TierMor {
		u.RemoveTier(TierMor)
	}
	t.Text = text
	t.Verbatim = false
	if marker == TierMor {
		u.Tiers = append([]*Tier{t}, u.Tiers...)
	}
}

// RemoveTier drops the tier with the given marker, if any.
func (u *Utterance) RemoveTier(marker string) {
	out := u.Tiers[:0]
	for _, t := range u.Tiers {
		if t.Marker != marker {
			out = append(out, t)
		}
	}
	u.Tiers = out
}

// Clone returns a deep copy of the utterance.
func (u *Utterance) Clone() *Utterance {
	c := *u
	c.Preamble = cloneHeaders(u.Preamble)
	c.Main.Tokens = append([]Token(nil), u.Main.Tokens...)
	c.Tiers = make([]*Tier, len(u.Tiers))
	for i, t := range u.Tiers {
		tc := *t
		c.Tiers[i] = &tc
	}
	c.Diagnostics = append(Diagnostics(nil), u.Diagnostics...)
	return &c
}

// Transcript is a parsed CHAT file.
type Transcript struct {
	// Header holds the `@` lines before the first utterance.
	Header []*HeaderLine
	// Utterances are in document order.
	Utterances []*Utterance
	// Trailer holds the `@` lines after the last utterance, e.g. @End.
	Trailer []*HeaderLine
	// Diagnostics lists findings about header and trailer lines.
	Diagnostics Diagnostics
}

// Participants returns the speaker codes declared in @Participants.
func (t *Transcript) Participants() []string {
	for _, h := range t.Header {
		if h.Key != "Participants" {
			continue
		}
		var codes []string
		for _, p := range strings.Split(h.Value, ",") {
			fields := strings.Fields(p)
			if len(fields) > 0 {
				codes = append(codes, fields[0])
			}
		}
		return codes
	}
	return nil
}

// AllDiagnostics collects header and utterance diagnostics in line order.
func (t *Transcript) AllDiagnostics() Diagnostics {
	out := append(Diagnostics(nil), t.Diagnostics...)
	for _, u := range t.Utterances {
		out = append(out, u.Diagnostics...)
	}
	sortDiagnostics(out)
	return out
}

// Clone returns a deep copy of the transcript.
func (t *Transcript) Clone() *Transcript {
	c := &Transcript{
		Header:      cloneHeaders(t.Header),
		Trailer:     cloneHeaders(t.Trailer),
		Diagnostics: append(Diagnostics(nil), t.Diagnostics...),
		Utterances:  make([]*Utterance, len(t.Utterances)),
	}
	for i, u := range t.Utterances {
		c.Utterances[i] = u.Clone()
	}
	return c
}

func cloneHeaders(hs []*HeaderLine) []*HeaderLine {
	if hs == nil {
		return nil
	}
	out := make([]*HeaderLine, len(hs))
	for i, h := range hs {
		hc := *h
		out[i] = &hc
	}
	return out
}
