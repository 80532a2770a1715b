package coczefla

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// MorTier is a parsed %mor tier.
type MorTier struct {
	Items []*MorItem `@@*`
}

// MorItem is one space-separated item: a word or a punctuation mark.
type MorItem struct {
	Punct string   `  @(Terminator | Punct)`
	Word  *MorWord `| @@`
}

// MorWord is a word group: one or more parts joined by the clitic
// marker '~'.
type MorWord struct {
	Parts []*MorPart `@@ ( "~" @@ )*`
}

// MorPart is `category|stem-suffix-suffix`. Compound entries such as
// `conj:sub_v:aux|aby_být-...` keep their '_' joins inside the fields.
type MorPart struct {
	Category string   `@Ident "|"`
	Stem     string   `@Ident`
	Suffixes []string `( "-" @Ident )*`
}

var (
	morLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Terminator", Pattern: `\+"/\.|\+//\.|\+\.\.\?|\+\.\.\.|\+!\?|\+/\.|\+/\?|\+"\.|[.?!]`},
		{Name: "Punct", Pattern: `[,;]`},
		{Name: "Pipe", Pattern: `\|`},
		{Name: "Tilde", Pattern: `~`},
		{Name: "Dash", Pattern: `-`},
		{Name: "Ident", Pattern: `[^\s|~,;\-]+`},
	})

	morTierParser = participle.MustBuild[MorTier](
		participle.Lexer(morLexer),
		participle.Elide("Whitespace"),
	)

	morWordParser = participle.MustBuild[MorWord](
		participle.Lexer(morLexer),
		participle.Elide("Whitespace"),
	)
)

// ParseMorTier parses the text of a %mor tier.
func ParseMorTier(text string) (*MorTier, error) {
	t, err := morTierParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("parsing %%mor tier %q: %w", text, err)
	}
	return t, nil
}

// ParseMorWord parses a single MOR word group.
func ParseMorWord(s string) (*MorWord, error) {
	w, err := morWordParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("parsing MOR word %q: %w", s, err)
	}
	return w, nil
}

func (t *MorTier) String() string {
	parts := make([]string, len(t.Items))
	for i, it := range t.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " ")
}

// WordGroups counts the lexical items; commas and terminators are not
// counted.
func (t *MorTier) WordGroups() int {
	n := 0
	for _, it := range t.Items {
		if it.Word != nil && !it.Word.IsComma() {
			n++
		}
	}
	return n
}

func (it *MorItem) String() string {
	if it.Word != nil {
		return it.Word.String()
	}
	return it.Punct
}

func (w *MorWord) String() string {
	parts := make([]string, len(w.Parts))
	for i, p := range w.Parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, "~")
}

// IsComma reports whether the word is the `cm|cm` comma entry.
func (w *MorWord) IsComma() bool {
	return len(w.Parts) == 1 && w.Parts[0].Category == "cm" && w.Parts[0].Stem == "cm"
}

func (p *MorPart) String() string {
	var sb strings.Builder
	sb.WriteString(p.Category)
	sb.WriteByte('|')
	sb.WriteString(p.Stem)
	for _, s := range p.Suffixes {
		sb.WriteByte('-')
		sb.WriteString(s)
	}
	return sb.String()
}

// Grammatical returns the &-separated codes of the last suffix.
func (p *MorPart) Grammatical() []string {
	if len(p.Suffixes) == 0 {
		return nil
	}
	return strings.Split(p.Suffixes[len(p.Suffixes)-1], "&")
}
