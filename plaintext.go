package coczefla

import (
	"fmt"
	"regexp"
	"strings"
)

// plainRule is one rewrite step of the plain-text extraction.
type plainRule struct {
	re   *regexp.Regexp
	repl string
}

// plainRules strip main-line markup down to the spoken word forms. They
// are applied in order, repeatedly, until the result is plain text.
var plainRules = []plainRule{
	// speaker prefix, in case a whole line is passed
	{mustRule(`^\*[A-Z0-9]+:\t`), ""},

	// special-form markers become placeholders picked up as word flags
	{mustRule(`@i|@z:ip|@z:ia|@z:in`), placeholderInterjection},
	{mustRule(`@c|@n`), placeholderNeologism},
	{mustRule(`@z:f`), placeholderForeign},
	{mustRule(`@z:m`), ""},

	// lengthened sounds
	{mustRule(`([{L}]):`), "${1}"},
	{mustRule(`\^`), ""},

	// hyphenated words; the conditional particle -li becomes a word
	{mustRule(`((?:[ <]|^)[{L}]+)-(li[ >])`), "${1} ${2}"},
	{mustRule(`((?:[ <]|^)[{L}]+)-([{L}]+[ >])`), "${1}${2}"},

	// retraced material and recited songs or poems
	{mustRule(`<[ &+,'“”_{L}]*> \[(/{1,3}|=! (básnička|zpěv))\]`), ""},
	{mustRule(`(^| )[^ <>\[\]]+ \[/{1,3}\]`), "${1}"},

	// events, omitted words, fragments and fillers
	{mustRule(`&=[_:{L}]+`), ""},
	{mustRule(`(&\+|&=0|&-)[_{L}]+`), ""},

	// uncertainty, repetition and explanation codes keep their scope
	{mustRule(`<([ &+,“”_{L}]*)> \[(x [0-9]+ ?|\?|=[!?]? [^\]]*)\]`), "${1}"},
	{mustRule(` ?\[(\?|=[!?]? [^\]]*|%[^\]]*|\+[^\]]*|!)\]`), ""},

	// replacement: "přišels [: přišel jsi]" is analyzed as "přišel jsi"
	{mustRule(`[{L}]+ \[:([ {L}]+)\]`), "${1}"},

	{mustRule(`_`), ""},
	{mustRule(`\(\.{1,3}\)`), ""},
	{mustRule(`\[\*\]`), ""},
	{mustRule(`(^|[ <])(?:xxx|yyy|www)([ >]|$)`), "${1}${2}"},
	{mustRule(`\+<`), ""},
	{mustRule(`(^| )\+[\^+,]( |$)`), "${1}${2}"},
	{mustRule(`[Nn]ee`), "ne"},

	// multi-character symbols split by earlier rules
	{mustRule(`\+ \. \. \.`), "+..."},
	{mustRule(`\+/ \.`), "+/."},
	{mustRule(` \[= ! `), " [=! "},

	{mustRule(`\s+`), " "},
	// commas that separate nothing
	{mustRule(`(, )+(\.|\?|!|\+\.\.\.|\+/\.|,)`), "${2}"},
	{mustRule(`^\s+,`), ""},
	{mustRule(`^\s+`), ""},
	{mustRule(`\s+$`), ""},
}

// plainCriterion matches finished plain text: words, commas and quotes
// followed by a terminator.
var plainCriterion = mustRule(`^[ ,“”0{L}]*(\.|\?|!|\+\.\.\.|\+/\.)$`)

// skipPlain are plain texts without words to annotate.
var skipPlain = map[string]bool{
	".": true, "0 .": true, "+/.": true, "+...": true, "!": true, "?": true,
}

// PlainText strips main-line content down to the spoken words. Special
// forms keep a placeholder suffix that PlainWords turns into flags. It
// fails when a full pass over the rules changes nothing and the result is
// still not plain text.
func PlainText(content string) (string, error) {
	result := content
	for first := true; first || (result != "" && !plainCriterion.MatchString(result)); first = false {
		next := result
		for _, rule := range plainRules {
			if next == "" {
				break
			}
			next = rule.re.ReplaceAllString(next, rule.repl)
		}
		if !first && next == result {
			return "", fmt.Errorf("%w: cannot reduce %q to plain text, stuck at %q", ErrAnnotation, content, result)
		}
		result = next
	}
	return result, nil
}

// ShouldAnnotate reports whether plain text contains words worth tagging.
func ShouldAnnotate(plain string) bool {
	return plain != "" && !skipPlain[plain]
}

// PlainWords splits plain text into word groups. Quotes are dropped; the
// word after an opening quote is flagged, and placeholder suffixes become
// flags.
func PlainWords(plain string) []PlainWord {
	var words []PlainWord
	afterQuote := false
	for _, field := range strings.Fields(plain) {
		if field == "“" || field == "”" {
			afterQuote = field == "“"
			continue
		}
		w := PlainWord{Text: field}
		switch {
		case strings.HasSuffix(field, placeholderNeologism):
			w.Text = strings.TrimSuffix(field, placeholderNeologism)
			w.Flags |= FlagNeologism
		case strings.HasSuffix(field, placeholderForeign):
			w.Text = strings.TrimSuffix(field, placeholderForeign)
			w.Flags |= FlagForeign
		case strings.HasSuffix(field, placeholderInterjection):
			w.Text = strings.TrimSuffix(field, placeholderInterjection)
			w.Flags |= FlagInterjection
		}
		if afterQuote {
			w.Flags |= FlagQuotationStart
		}
		afterQuote = false
		words = append(words, w)
	}
	return words
}

// UtterancePlainWords extracts the word groups of a main line. The
// boolean is false for utterances with nothing to annotate.
func UtterancePlainWords(m *MainLine) ([]PlainWord, bool, error) {
	plain, err := PlainText(m.Content())
	if err != nil {
		return nil, false, err
	}
	if !ShouldAnnotate(plain) {
		return nil, false, nil
	}
	return PlainWords(plain), true, nil
}
