package coczefla

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// LineKind is the class of a logical transcript line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeader
	LineMain
	LineDependent
	LineUnrecognized
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeader:
		return "header"
	case LineMain:
		return "main"
	case LineDependent:
		return "dependent"
	}
	return "unrecognized"
}

// Line is a logical line: a physical line with its continuation lines
// joined. Num is the 1-based number of the first physical line.
type Line struct {
	Num  int
	Text string
}

// Classify returns the kind of a logical line from its first character.
func Classify(text string) LineKind {
	if strings.TrimSpace(text) == "" {
		return LineBlank
	}
	switch text[0] {
	case '@':
		return LineHeader
	case '*':
		return LineMain
	case '%':
		return LineDependent
	}
	return LineUnrecognized
}

// ReadLines reads logical lines. A physical line starting with whitespace
// continues the previous one; the two are joined with one space, or with a
// tab when the previous line ends right after its prefix colon.
func ReadLines(r io.Reader) ([]Line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var lines []Line
	num := 0
	for sc.Scan() {
		num++
		text := strings.TrimRight(sc.Text(), "\r")
		if num == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if text != "" && (text[0] == ' ' || text[0] == '\t') && strings.TrimSpace(text) != "" && len(lines) > 0 {
			prev := &lines[len(lines)-1]
			if prev.Text != "" {
				sep := " "
				if strings.HasSuffix(prev.Text, ":") {
					sep = "\t"
				}
				cont := strings.TrimSpace(strings.ReplaceAll(text, "\t", " "))
				prev.Text = strings.TrimRight(prev.Text, " \t") + sep + cont
				continue
			}
		}
		lines = append(lines, Line{Num: num, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	return lines, nil
}

var (
	reMainLine    = regexp.MustCompile(`^\*([^:\s]*)(:?)([ \t]*)(.*)$`)
	reTierLine    = regexp.MustCompile(`^%([^:\s]*)(:?)([ \t]*)(.*)$`)
	reHeaderLine  = regexp.MustCompile(`^@([^:]*?)(?:(:)([ \t]*)(.*))?$`)
	reSpeakerCode = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,6}$`)
	reTierMarker  = regexp.MustCompile(`^[a-z]+$`)
	reCodeSpacing = regexp.MustCompile(`\[ +| +\]`)
)

// lineParts are the pieces of a `*SPK:\t...` or `%tier:\t...` line.
type lineParts struct {
	prefix  byte // '*' or '%'
	name    string
	colon   string
	sep     string
	content string
}

func splitLine(raw string) lineParts {
	re := reMainLine
	if strings.HasPrefix(raw, "%") {
		re = reTierLine
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return lineParts{prefix: raw[0], content: raw[1:]}
	}
	return lineParts{prefix: raw[0], name: m[1], colon: m[2], sep: m[3], content: m[4]}
}

func (p lineParts) join() string {
	return string(p.prefix) + p.name + p.colon + p.sep + p.content
}

// headerParts are the pieces of an `@Key:\tValue` line.
type headerParts struct {
	key   string
	colon string
	sep   string
	value string
}

func splitHeader(raw string) headerParts {
	m := reHeaderLine.FindStringSubmatch(raw)
	if m == nil {
		return headerParts{key: strings.TrimPrefix(raw, "@")}
	}
	return headerParts{key: m[1], colon: m[2], sep: m[3], value: m[4]}
}

func (p headerParts) join() string {
	return "@" + p.key + p.colon + p.sep + p.value
}

// headersWithoutValue are the header keys that stand alone.
var headersWithoutValue = map[string]bool{
	"Begin": true, "End": true, "UTF8": true, "Blank": true,
	"New Episode": true, "Bg": true, "Eg": true, "G": true,
}

// headersWithValue are the header keys that take a value; a missing colon
// after one of them is repairable.
var headersWithValue = []string{
	"Participants", "Languages", "ID", "Comment", "Situation", "Date",
	"Media", "Location", "Options", "Transcriber", "Activities", "Bck",
	"Tape Location", "Time Duration", "Time Start", "Types", "Warning",
	"Recording Quality", "Transcription", "Number", "Room Layout",
	"Font", "PID", "Bg", "Eg", "G",
}

// standardTiers are the dependent tier markers of the standard. Other
// markers must start with `x`.
var standardTiers = map[string]bool{
	"mor": true, "gra": true, "pho": true, "mod": true, "com": true,
	"err": true, "add": true, "act": true, "cod": true, "eng": true,
	"exp": true, "gpx": true, "int": true, "sit": true, "spa": true,
	"tim": true, "alt": true, "coh": true, "def": true, "fac": true,
	"flo": true, "gls": true, "ort": true, "par": true, "wor": true,
}

func checkHeader(num int, raw string) Diagnostics {
	var ds Diagnostics
	p := splitHeader(raw)
	key := strings.TrimSpace(p.key)
	switch {
	case key == "":
		ds = append(ds, newDiag(num, DiagHeader, "empty header key"))
	case p.colon == "" && !headersWithoutValue[key] && strings.ContainsAny(key, " \t"):
		ds = append(ds, newDiag(num, DiagHeader, "missing colon after header key"))
	case p.colon != "" && key == "Participants" && strings.TrimSpace(p.value) == "":
		ds = append(ds, newDiag(num, DiagHeader, "empty participant list"))
	}
	if p.colon != "" && p.value != "" && p.sep != "\t" {
		ds = append(ds, newDiag(num, DiagSeparator, "header value must follow a single tab"))
	}
	if hasExtraWhitespace(p.value) {
		ds = append(ds, newDiag(num, DiagWhitespace, "duplicate whitespace"))
	}
	return ds
}

func parseHeaderLine(num int, raw string) (*HeaderLine, Diagnostics) {
	ds := checkHeader(num, raw)
	p := splitHeader(raw)
	return &HeaderLine{
		Key:      strings.TrimSpace(p.key),
		Value:    p.value,
		HasValue: p.colon != "",
		Pos:      num,
		Raw:      raw,
		Verbatim: len(ds.Errors()) > 0,
	}, ds
}

func checkMain(num int, raw string) Diagnostics {
	var ds Diagnostics
	p := splitLine(raw)
	switch {
	case p.name == "":
		ds = append(ds, newDiag(num, DiagSpeakerCode, "missing speaker code"))
	case !reSpeakerCode.MatchString(p.name):
		ds = append(ds, newDiag(num, DiagSpeakerCode, "invalid speaker code %q", p.name))
	case p.colon == "":
		ds = append(ds, newDiag(num, DiagSpeakerCode, "missing colon after speaker code"))
	}
	if p.sep != "\t" {
		ds = append(ds, newDiag(num, DiagSeparator, "main line content must follow a single tab"))
	}
	return append(ds, checkContent(num, p.content)...)
}

func checkContent(num int, content string) Diagnostics {
	var ds Diagnostics
	if hasExtraWhitespace(content) {
		ds = append(ds, newDiag(num, DiagWhitespace, "duplicate whitespace"))
	}
	if reCodeSpacing.MatchString(content) {
		ds = append(ds, newDiag(num, DiagCodeSpacing, "spaces inside bracket code"))
	}

	tokens := Tokenize(content)
	if strings.Count(content, "[") != strings.Count(content, "]") {
		ds = append(ds, newDiag(num, DiagBracketUnbalanced, "unbalanced square brackets"))
	}
	open, closed := 0, 0
	for _, tk := range tokens {
		open += tk.OpenAngles()
		closed += tk.CloseAngles()
	}
	if open != closed {
		ds = append(ds, newDiag(num, DiagBracketUnbalanced, "unbalanced angle brackets: %d '<' and %d '>'", open, closed))
	}

	last := lastContentIndex(tokens)
	switch {
	case last < 0:
		ds = append(ds, newDiag(num, DiagTerminatorMissing, "empty utterance"))
	case tokens[last].Kind() == TokenTerminator:
	case strings.HasSuffix(tokens[last].Text, "…"):
		ds = append(ds, newDiag(num, DiagTerminatorMissing, "ellipsis is not a terminator"))
	case tokens[last].Kind() != TokenCode && terminatorSuffix(tokens[last].Text) != "":
		ds = append(ds, newDiag(num, DiagTerminatorSpacing, "terminator attached to %q", tokens[last].Text))
	default:
		ds = append(ds, newDiag(num, DiagTerminatorMissing, "missing terminator"))
	}

	for i, tk := range tokens {
		if !tk.IsScopedCode() {
			continue
		}
		if i == 0 || tokens[i-1].CloseAngles() == 0 {
			ds = append(ds, newDiag(num, DiagBracketScope, "code %s without an angle-bracket scope", tk.Text))
		}
	}
	return ds
}

// lastContentIndex returns the index of the last token before trailing
// postcodes (`[+ bch]`), or -1.
func lastContentIndex(tokens []Token) int {
	i := len(tokens) - 1
	for i >= 0 && tokens[i].Kind() == TokenCode && strings.HasPrefix(tokens[i].Core(), "[+") {
		i--
	}
	return i
}

// terminatorSuffix returns the longest terminator s ends with, provided s is
// longer than it.
func terminatorSuffix(s string) string {
	for _, t := range Terminators {
		if len(s) > len(t) && strings.HasSuffix(s, t) {
			return t
		}
	}
	return ""
}

func hasExtraWhitespace(s string) bool {
	return strings.Contains(s, "  ") || strings.Contains(s, "\t") || strings.TrimSpace(s) != s
}

func parseMainLine(num int, raw string) (MainLine, Diagnostics) {
	ds := checkMain(num, raw)
	p := splitLine(raw)
	return MainLine{
		Speaker:  p.name,
		Tokens:   Tokenize(p.content),
		Raw:      raw,
		Verbatim: len(ds.Errors()) > 0,
	}, ds
}

func checkTier(num int, raw string) Diagnostics {
	var ds Diagnostics
	p := splitLine(raw)
	switch {
	case p.name == "":
		ds = append(ds, newDiag(num, DiagTierMarker, "missing tier marker"))
	case !reTierMarker.MatchString(p.name):
		ds = append(ds, newDiag(num, DiagTierMarker, "invalid tier marker %q", p.name))
	case p.colon == "":
		ds = append(ds, newDiag(num, DiagTierMarker, "missing colon after tier marker"))
	case !standardTiers[p.name] && !strings.HasPrefix(p.name, "x"):
		ds = append(ds, newDiag(num, DiagTierMarker, "non-standard tier marker %q", p.name))
	}
	if p.content != "" && p.sep != "\t" {
		ds = append(ds, newDiag(num, DiagSeparator, "tier content must follow a single tab"))
	}
	if hasExtraWhitespace(p.content) {
		ds = append(ds, newDiag(num, DiagWhitespace, "duplicate whitespace"))
	}
	return ds
}

func parseTierLine(num int, raw string) (*Tier, Diagnostics) {
	ds := checkTier(num, raw)
	p := splitLine(raw)
	return &Tier{
		Marker:   p.name,
		Text:     p.content,
		Pos:      num,
		Raw:      raw,
		Verbatim: len(ds.Errors()) > 0,
	}, ds
}

// checkUtterance adds the diagnostics that depend on more than one line:
// undeclared speakers and repeated tiers. A repeated tier is kept verbatim.
func checkUtterance(u *Utterance, speakers map[string]bool) {
	if len(speakers) > 0 && u.Main.Speaker != "" && !speakers[u.Main.Speaker] {
		u.Diagnostics = append(u.Diagnostics, newDiag(u.Pos, DiagUnknownSpeaker, "speaker %s is not declared in @Participants", u.Main.Speaker))
	}
	seen := make(map[string]bool)
	for _, t := range u.Tiers {
		if t.Marker == "" {
			continue
		}
		if seen[t.Marker] {
			u.Diagnostics = append(u.Diagnostics, newDiag(t.Pos, DiagTierDuplicate, "repeated %%%s tier", t.Marker))
			t.Verbatim = true
			continue
		}
		seen[t.Marker] = true
	}
}

func speakerSet(t *Transcript) map[string]bool {
	set := make(map[string]bool)
	for _, code := range t.Participants() {
		set[code] = true
	}
	return set
}

// Parse reads a transcript. Header problems before the first utterance are
// fatal and returned as *StructuralError; everything else is recorded as
// diagnostics on the returned transcript.
func Parse(r io.Reader) (*Transcript, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return ParseLines(lines)
}

// ParseString is Parse over a string.
func ParseString(s string) (*Transcript, error) {
	return Parse(strings.NewReader(s))
}

// ParseLines builds a transcript from logical lines.
func ParseLines(lines []Line) (*Transcript, error) {
	t := &Transcript{}
	var (
		cur     *Utterance
		pending []*HeaderLine
	)
	flush := func() {
		if cur != nil {
			t.Utterances = append(t.Utterances, cur)
			cur = nil
		}
	}
	for _, ln := range lines {
		switch Classify(ln.Text) {
		case LineBlank:
			continue

		case LineHeader:
			h, ds := parseHeaderLine(ln.Num, ln.Text)
			if len(t.Utterances) == 0 && cur == nil {
				if errs := ds.Errors(); len(errs) > 0 {
					return nil, &StructuralError{Line: ln.Num, Text: ln.Text, Message: errs[0].Message}
				}
				t.Header = append(t.Header, h)
			} else {
				pending = append(pending, h)
			}
			t.Diagnostics = append(t.Diagnostics, ds...)

		case LineMain:
			flush()
			m, ds := parseMainLine(ln.Num, ln.Text)
			cur = &Utterance{Pos: ln.Num, Preamble: pending, Main: m, Diagnostics: ds}
			pending = nil

		case LineDependent:
			if cur == nil {
				return nil, &StructuralError{Line: ln.Num, Text: ln.Text, Message: "dependent tier before the first utterance"}
			}
			tier, ds := parseTierLine(ln.Num, ln.Text)
			cur.Tiers = append(cur.Tiers, tier)
			cur.Diagnostics = append(cur.Diagnostics, ds...)

		default:
			if cur == nil {
				return nil, &StructuralError{Line: ln.Num, Text: ln.Text, Message: "unrecognized line in the header"}
			}
			cur.Tiers = append(cur.Tiers, &Tier{Pos: ln.Num, Raw: ln.Text, Verbatim: true})
			cur.Diagnostics = append(cur.Diagnostics, newDiag(ln.Num, DiagUnrecognized, "line is neither header, main line nor dependent tier"))
		}
	}
	flush()
	t.Trailer = pending

	speakers := speakerSet(t)
	for _, u := range t.Utterances {
		checkUtterance(u, speakers)
	}
	return t, nil
}
