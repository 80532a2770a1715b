package coczefla

import "strings"

// TaggedToken is one (surface form, lemma, tag) triple returned by the
// external tagger. Tag is a 15-position positional tag, e.g.
// "VB-S---1P-AAI--".
type TaggedToken struct {
	Word  string `json:"word"`
	Lemma string `json:"lemma"`
	Tag   string `json:"tag"`
}

// IsPunctuation reports whether the tagger classified the token as
// punctuation.
func (t TaggedToken) IsPunctuation() bool {
	return strings.HasPrefix(t.Tag, "Z")
}

// WordFlag marks special forms carried from the main line to the encoder.
type WordFlag uint8

const (
	// FlagInterjection comes from @i, @z:ip, @z:ia and @z:in.
	FlagInterjection WordFlag = 1 << iota
	// FlagNeologism comes from @c and @n.
	FlagNeologism
	// FlagForeign comes from @z:f.
	FlagForeign
	// FlagQuotationStart marks the first word after an opening quote. It
	// keeps capitalized words there from being taken as proper nouns.
	FlagQuotationStart
)

// Has reports whether all bits of f are set.
func (w WordFlag) Has(f WordFlag) bool {
	return w&f == f
}

// PlainWord is one word group of an utterance after markup has been
// stripped: the unit the MOR tier must correspond to.
type PlainWord struct {
	Text  string   `json:"text"`
	Flags WordFlag `json:"flags,omitempty"`
}

// IsPunctuation reports whether the word is a comma, semicolon or
// terminator rather than a lexical word.
func (w PlainWord) IsPunctuation() bool {
	return isPunctuationText(w.Text)
}

func isPunctuationText(s string) bool {
	return s == "," || s == ";" || IsTerminator(s)
}

// MorMorpheme is the unit written into the MOR tier: category, stem and
// suffix codes, e.g. {"v:x", "chtít", ["1", "SG", "ind", ...]}.
type MorMorpheme struct {
	Category string
	Stem     string
	// Lexical holds the codes before the grammatical block: "neg", "CP".
	Lexical []string
	// Grammatical holds the &-joined codes in canonical order.
	Grammatical []string
}

// String renders the morpheme as `cat|stem-lex-gram&gram`.
func (m MorMorpheme) String() string {
	var sb strings.Builder
	sb.WriteString(m.Category)
	sb.WriteByte('|')
	sb.WriteString(m.Stem)
	if suffix := m.Suffix(); suffix != "" {
		sb.WriteByte('-')
		sb.WriteString(suffix)
	}
	return sb.String()
}

// Suffix joins lexical codes with '-' followed by the grammatical block.
func (m MorMorpheme) Suffix() string {
	parts := append([]string(nil), m.Lexical...)
	if len(m.Grammatical) > 0 {
		parts = append(parts, strings.Join(m.Grammatical, "&"))
	}
	return strings.Join(parts, "-")
}
