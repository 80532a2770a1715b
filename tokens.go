package coczefla

import (
	"regexp"
	"strings"
)

// Terminators lists the utterance terminators of the standard, longest
// first so that prefix matching prefers multi-character symbols.
var Terminators = []string{
	`+"/.`, "+//.", "+..?", "+...", "+!?", "+/.", "+/?", `+".`,
	".", "?", "!",
}

// terminatorPattern returns an alternation matching any terminator.
func terminatorPattern() string {
	quoted := make([]string, len(Terminators))
	for i, t := range Terminators {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}

// IsTerminator reports whether s is one of the standard terminators.
func IsTerminator(s string) bool {
	for _, t := range Terminators {
		if s == t {
			return true
		}
	}
	return false
}

// TokenKind classifies a main-tier token.
type TokenKind int

const (
	TokenWord TokenKind = iota // chci, ma:ma
	TokenCode                  // [/], [x 2], [: přišel]
	TokenTerminator            // . ? ! +...
	TokenPunctuation           // , ; „ “ ”
	TokenEvent                 // &=laughs, &=imit:xxx
	TokenFragment              // &+x
	TokenOmitted               // &=0x
	TokenUnintelligible        // xxx, yyy, www
	TokenPause                 // (.)
	TokenLinker                // +<, +^, ...
)

// Token is one space-delimited unit of a main line. Bracketed codes such as
// `[x 2]` or `[: přišel jsi]` are single tokens even though they contain
// spaces. Angle brackets stay attached to the word or code they touch.
type Token struct {
	Text string
}

// OpenAngles counts the leading '<' of the token.
func (t Token) OpenAngles() int {
	if t.Kind() == TokenLinker {
		return 0
	}
	return len(t.Text) - len(strings.TrimLeft(t.Text, "<"))
}

// CloseAngles counts the trailing '>' of the token.
func (t Token) CloseAngles() int {
	return len(t.Text) - len(strings.TrimRight(t.Text, ">"))
}

// Core returns the token without surrounding angle brackets.
func (t Token) Core() string {
	if t.Kind() == TokenLinker {
		return t.Text
	}
	return strings.TrimRight(strings.TrimLeft(t.Text, "<"), ">")
}

// Kind classifies the token by its core text.
func (t Token) Kind() TokenKind {
	s := t.Text
	if strings.HasPrefix(s, "+") && len(s) > 1 && !IsTerminator(s) {
		return TokenLinker
	}
	core := strings.TrimRight(strings.TrimLeft(s, "<"), ">")
	switch {
	case strings.HasPrefix(core, "[") && strings.HasSuffix(core, "]"):
		return TokenCode
	case IsTerminator(core):
		return TokenTerminator
	case core == "," || core == ";" || core == "“" || core == "”" || core == "„":
		return TokenPunctuation
	case core == "(.)" || core == "(..)" || core == "(...)":
		return TokenPause
	case strings.HasPrefix(core, "&=0"):
		return TokenOmitted
	case strings.HasPrefix(core, "&="):
		return TokenEvent
	case strings.HasPrefix(core, "&+"):
		return TokenFragment
	case core == "xxx" || core == "yyy" || core == "www":
		return TokenUnintelligible
	}
	return TokenWord
}

// IsScopedCode reports whether the token is a bracket code that takes the
// preceding word or group as its scope: retracing, repetition, uncertainty
// and explanation codes.
func (t Token) IsScopedCode() bool {
	if t.Kind() != TokenCode {
		return false
	}
	inner := strings.TrimPrefix(t.Core(), "[")
	return strings.HasPrefix(inner, "/") || strings.HasPrefix(inner, "=") ||
		strings.HasPrefix(inner, "x ") || strings.HasPrefix(inner, "?")
}

// Tokenize splits main-line content into tokens. Runs of whitespace
// separate tokens except inside square brackets.
func Tokenize(content string) []Token {
	var tokens []Token
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, Token{Text: cur.String()})
			cur.Reset()
		}
	}
	for _, r := range content {
		switch {
		case r == '[':
			depth++
			cur.WriteRune(r)
		case r == ']':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case (r == ' ' || r == '\t') && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// JoinTokens is the inverse of Tokenize for canonical content.
func JoinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// groupStart returns the index of the token that opens the angle-bracket
// group closed by tokens[end], or -1 if the group is not closed there.
func groupStart(tokens []Token, end int) int {
	if tokens[end].CloseAngles() == 0 {
		return -1
	}
	depth := 0
	for i := end; i >= 0; i-- {
		depth += tokens[i].CloseAngles()
		depth -= tokens[i].OpenAngles()
		if depth <= 0 {
			return i
		}
	}
	return -1
}
