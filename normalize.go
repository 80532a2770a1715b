package coczefla

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// letters is the character class body of letters that may appear in
// transcribed words: ASCII plus Czech, Slovak and Polish diacritics.
const letters = `a-zA-ZáäąčćďéěëęíłňńóöřšśťůúüýžźżÁÄĄČĆĎÉĚËĘÍŁŇŃÓÖŘŠŚŤŮÚÜÝŽŹŻ`

// mustRule compiles a pattern after expanding every `{L}` to the letters
// class body.
func mustRule(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, "{L}", letters))
}

// Placeholders mark words carrying special-form markers through plain-text
// extraction. They are strings that do not overlap with any Czech word.
const (
	placeholderInterjection = "bacashoogacit"
	placeholderNeologism    = "bacashoogachi"
	placeholderForeign      = "bacashoogafor"
)

// ellipsisReplacer turns the horizontal ellipsis terminator into three dots.
var ellipsisReplacer = strings.NewReplacer(
	"+…", "+...", // +… → +...
)

// NormalizeEllipsis replaces the horizontal ellipsis character in the
// trailing-off terminator with three dots.
func NormalizeEllipsis(s string) string {
	return ellipsisReplacer.Replace(s)
}

// NormalizeQuotes converts „x“ and "x" quotations to English upper double
// quotes “x”. Quotes that are part of a terminator or linker (`+"/.`, `+"`)
// are left alone.
func NormalizeQuotes(s string) string {
	runes := []rune(s)
	open := -1
	for i, r := range runes {
		if i > 0 && runes[i-1] == '+' {
			continue
		}
		switch {
		case open < 0 && (r == '„' || r == '"'):
			open = i
		case open >= 0 && (r == '“' || r == '"'):
			runes[open] = '“'
			runes[i] = '”'
			open = -1
		}
	}
	return string(runes)
}

var (
	reInnerPunct   = regexp.MustCompile(` *(,|\x{201c}|\x{201d}|;) *`)
	reTermPunct    = regexp.MustCompile(` *(` + terminatorPattern() + `)$`)
	reMultiSpace   = regexp.MustCompile(` {2,}`)
	reFragment     = mustRule(`&([{L}]+)`)
	reOmittedStart = mustRule(`0([{L}]+)`)
)

// SpaceAroundPunctuation puts single spaces around commas, semicolons and
// quotes and separates the terminator from the last word.
func SpaceAroundPunctuation(s string) string {
	s = strings.TrimSpace(reInnerPunct.ReplaceAllString(s, " $1 "))
	s = strings.TrimSpace(reTermPunct.ReplaceAllString(s, " $1"))
	return reMultiSpace.ReplaceAllString(s, " ")
}

// MarkFragments converts legacy word-fragment marks `&x` to `&+x`.
func MarkFragments(s string) string {
	return reFragment.ReplaceAllString(s, "&+$1")
}

// MarkOmitted converts legacy omitted-word marks `0x` to `&=0x`. Zeros inside
// a word or number, or already carrying `&=`, are left alone.
func MarkOmitted(s string) string {
	var sb strings.Builder
	last := 0
	for _, m := range reOmittedStart.FindAllStringSubmatchIndex(s, -1) {
		start := m[0]
		if strings.HasSuffix(s[:start], "&=") {
			continue
		}
		if prev, _ := utf8.DecodeLastRuneInString(s[:start]); prev != utf8.RuneError && (unicode.IsDigit(prev) || isLetter(prev)) {
			continue
		}
		sb.WriteString(s[last:start])
		sb.WriteString("&=0")
		sb.WriteString(s[m[2]:m[3]])
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// CleanXpho clears a %xpho tier text down to letters, spaces and schwas,
// ending with " .".
func CleanXpho(text string) string {
	var sb strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		last := i == len(runes)-1
		switch {
		case r == ' ' || r == '@' || isLetter(r):
			sb.WriteRune(r)
		case last && r == '.':
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	if !strings.HasSuffix(out, ".") {
		out += " ."
	}
	return strings.Join(strings.Fields(out), " ")
}

// isLetter reports whether r belongs to the transcription letter class.
func isLetter(r rune) bool {
	if r < 0x80 {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}
	return strings.ContainsRune(letters[len("a-zA-Z"):], r)
}
