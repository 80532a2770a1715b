package coczefla

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Encoder turns tagged tokens into MOR words. It only reads its tables
// and is safe for concurrent use.
type Encoder struct {
	tables *Tables
}

// NewEncoder returns an encoder over tables, or over the built-in tables
// when tables is nil.
func NewEncoder(tables *Tables) *Encoder {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Encoder{tables: tables}
}

// Tables returns the override tables of the encoder.
func (e *Encoder) Tables() *Tables {
	return e.tables
}

// lookupPOS maps a tag to its MOR category: POS+SubPOS first, then POS
// alone, then the unknown category.
func lookupPOS(tag Tag) string {
	if pos, ok := posCategories[string([]byte{tag.At(tagPOS), tag.At(tagSubPOS)})]; ok {
		return pos
	}
	if pos, ok := posCategories[string(tag.At(tagPOS))]; ok {
		return pos
	}
	return unknownPOS
}

// Category returns the MOR category of a token.
func (e *Encoder) Category(tok TaggedToken, flags WordFlag) string {
	if pos, ok := e.tables.POSOverride(tok.Lemma, tok.Word); ok {
		return pos
	}
	pos := lookupPOS(Tag(tok.Tag))
	switch {
	case pos == "n" && !flags.Has(FlagQuotationStart) && isCapitalized(tok.Word):
		pos = "n:prop"
	case pos == "adv" && adverbsToPronominal[tok.Lemma]:
		pos = "adv:pro"
	}
	return pos
}

func isCapitalized(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(r) {
		return false
	}
	rest := word[size:]
	return rest == strings.ToLower(rest)
}

// categories reads the lexical and grammatical codes of a token.
func categories(tok TaggedToken) (lex, gram map[Category]string) {
	tag := Tag(tok.Tag)
	lex = make(map[Category]string)
	gram = make(map[Category]string)

	if tag.At(tagNegation) == 'N' {
		lex[CatNegation] = "neg"
	}

	pos := tag.At(tagPOS)
	switch {
	case pos == 'V':
		readPositions(tag, verbPositions, gram)
		if form, ok := verbForms[tag.At(tagSubPOS)]; ok {
			for c, v := range form.set {
				gram[c] = v
			}
			requireCategories(gram, form.require...)
		}

	case strings.IndexByte("NAPC", pos) >= 0 && !(pos == 'C' && tag.At(tagSubPOS) == 'v'):
		genders := nominalGenders
		if pos == 'N' {
			genders = nounGenders
		}
		if g, ok := genders[tag.At(tagGender)]; ok {
			gram[CatGender] = g
		}
		readPositions(tag, nominalPositions, gram)
		requireCategories(gram, CatGender, CatNumber, CatCase)
	}

	if pos == 'A' || pos == 'D' {
		if g, ok := gradeCodes[tag.At(tagGrade)]; ok {
			lex[CatCompDeg] = g
		}
	}

	switch {
	case neuterLemmas[tok.Lemma]:
		gram[CatGender] = "N"
	case masculineLemmas[tok.Lemma]:
		gram[CatGender] = "M"
	}
	if singularLemmas[tok.Lemma] {
		gram[CatNumber] = "SG"
	}
	if genderlessLemmas[tok.Lemma] {
		delete(gram, CatGender)
	}
	return lex, gram
}

func readPositions(tag Tag, maps []positionMap, dst map[Category]string) {
	for _, m := range maps {
		if v, ok := m.values[tag.At(m.pos)]; ok {
			dst[m.cat] = v
		}
	}
}

func requireCategories(dst map[Category]string, cats ...Category) {
	for _, c := range cats {
		if _, ok := dst[c]; !ok {
			dst[c] = unknownCodes[c]
		}
	}
}

func ordered(m map[Category]string, order []Category) []string {
	var out []string
	for _, c := range order {
		if v, ok := m[c]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Morpheme builds the MOR morpheme of a token from its tag and the
// lemma tables. It ignores word overrides and special-form flags.
func (e *Encoder) Morpheme(tok TaggedToken, flags WordFlag) MorMorpheme {
	lex, gram := categories(tok)
	lemma := tok.Lemma
	if lemma == "" {
		lemma = tok.Word
	}
	return MorMorpheme{
		Category:    e.Category(tok, flags),
		Stem:        e.tables.Lemma(lemma, tok.Word),
		Lexical:     ordered(lex, lexicalOrder),
		Grammatical: ordered(gram, grammaticalOrder),
	}
}

// EncodeToken returns the complete MOR word of one token.
func (e *Encoder) EncodeToken(tok TaggedToken, flags WordFlag) string {
	if e.Category(tok, flags) == posPunctuation {
		if tok.Lemma == "," || (tok.Lemma == "" && tok.Word == ",") {
			return "cm|cm"
		}
		if tok.Lemma == "" {
			return tok.Word
		}
		return tok.Lemma
	}
	if mor, ok := flaggedMor(tok.Word, flags); ok {
		return mor
	}
	if mor, ok := e.tables.WordMor(tok.Word); ok {
		return mor
	}
	return e.Morpheme(tok, flags).String()
}

// flaggedMor encodes interjections, neologisms and foreign words, which
// keep their surface form.
func flaggedMor(word string, flags WordFlag) (string, bool) {
	switch {
	case flags.Has(FlagInterjection):
		return "int|" + word, true
	case flags.Has(FlagNeologism):
		return "x|" + word + "-neo", true
	case flags.Has(FlagForeign):
		return "x|" + word + "-for", true
	}
	return "", false
}

func punctuationMor(s string) string {
	if s == "," {
		return "cm|cm"
	}
	return s
}

// WordGroup is one main-line word group with the tokens aligned to it.
type WordGroup struct {
	Word   PlainWord
	Tokens []TaggedToken
	// LowConfidence is set when the alignment was guessed.
	LowConfidence bool
	// Extra marks a token left over after every word group was used.
	Extra bool
}

// Align pairs word groups with tagged tokens. An exact match pairs one to
// one. When the engine split a word, the pieces stay in one group; when
// it merged words, each word gets the merged token. Splitting is tried
// first. Anything else pairs one to one with low confidence. Punctuation
// the engine dropped or added is tolerated.
func Align(words []PlainWord, tagged []TaggedToken) []WordGroup {
	var groups []WordGroup
	i, j := 0, 0
	for i < len(words) && j < len(tagged) {
		w, tok := words[i], tagged[j]
		if tok.Word == w.Text {
			groups = append(groups, WordGroup{Word: w, Tokens: tagged[j : j+1]})
			i++
			j++
			continue
		}
		if k := splitEnd(w.Text, tagged, j); k > j+1 {
			groups = append(groups, WordGroup{Word: w, Tokens: tagged[j:k]})
			i++
			j = k
			continue
		}
		if m := mergeEnd(words, i, tok.Word); m > i+1 {
			for ; i < m; i++ {
				groups = append(groups, WordGroup{Word: words[i], Tokens: tagged[j : j+1], LowConfidence: true})
			}
			j++
			continue
		}
		switch {
		case w.IsPunctuation() && !tok.IsPunctuation():
			groups = append(groups, WordGroup{Word: w})
			i++
		case tok.IsPunctuation() && !w.IsPunctuation():
			j++
		default:
			groups = append(groups, WordGroup{Word: w, Tokens: tagged[j : j+1], LowConfidence: true})
			i++
			j++
		}
	}
	for ; i < len(words); i++ {
		groups = append(groups, WordGroup{Word: words[i], LowConfidence: !words[i].IsPunctuation()})
	}
	for ; j < len(tagged); j++ {
		if tagged[j].IsPunctuation() {
			continue
		}
		groups = append(groups, WordGroup{Tokens: tagged[j : j+1], Extra: true})
	}
	return groups
}

// splitEnd returns the end of the token run starting at j whose forms
// concatenate to word, or -1.
func splitEnd(word string, tagged []TaggedToken, j int) int {
	var sb strings.Builder
	for k := j; k < len(tagged); k++ {
		sb.WriteString(tagged[k].Word)
		s := sb.String()
		if s == word {
			return k + 1
		}
		if !strings.HasPrefix(word, s) {
			return -1
		}
	}
	return -1
}

// mergeEnd returns the end of the word run starting at i that the engine
// merged into form, or -1. Words may have been joined with or without a
// space.
func mergeEnd(words []PlainWord, i int, form string) int {
	joined, glued := words[i].Text, words[i].Text
	for m := i + 1; m < len(words); m++ {
		joined += " " + words[m].Text
		glued += words[m].Text
		if joined == form || glued == form {
			return m + 1
		}
		if !strings.HasPrefix(form, glued) && !strings.HasPrefix(form, joined) {
			return -1
		}
	}
	return -1
}

// EncodeGroup returns the MOR item of one aligned word group. Pieces of a
// split word are joined with '~'; a group of punctuation pieces, such as
// the split `+...` terminator, is written as on the main line.
func (e *Encoder) EncodeGroup(g WordGroup) string {
	w := g.Word
	switch {
	case g.Extra:
		return e.EncodeToken(g.Tokens[0], 0)
	case len(g.Tokens) == 0:
		if w.IsPunctuation() {
			return punctuationMor(w.Text)
		}
		if mor, ok := flaggedMor(w.Text, w.Flags); ok {
			return mor
		}
		if mor, ok := e.tables.WordMor(w.Text); ok {
			return mor
		}
		return unknownPOS + "|" + w.Text
	case len(g.Tokens) == 1:
		return e.EncodeToken(g.Tokens[0], w.Flags)
	}

	if mor, ok := flaggedMor(w.Text, w.Flags); ok {
		return mor
	}
	if mor, ok := e.tables.WordMor(w.Text); ok {
		return mor
	}
	allPunct := true
	for _, tok := range g.Tokens {
		allPunct = allPunct && tok.IsPunctuation()
	}
	if allPunct {
		return w.Text
	}
	pieces := make([]string, len(g.Tokens))
	for i, tok := range g.Tokens {
		pieces[i] = e.EncodeToken(tok, w.Flags)
	}
	return strings.Join(pieces, "~")
}

// Encoding is the MOR tier of one utterance with its alignment record.
type Encoding struct {
	Mor    string
	Groups []WordGroup
	// LowConfidence lists the 1-based positions of guessed groups.
	LowConfidence []int
	// Unreliable is set when the lexical word-group counts of the MOR
	// tier and the main line differ.
	Unreliable bool
}

// Encode aligns tagged tokens with word groups and builds the MOR tier.
func (e *Encoder) Encode(words []PlainWord, tagged []TaggedToken) *Encoding {
	groups := Align(words, tagged)
	enc := &Encoding{Groups: groups}
	items := make([]string, len(groups))
	for i, g := range groups {
		items[i] = e.EncodeGroup(g)
		if g.LowConfidence {
			enc.LowConfidence = append(enc.LowConfidence, i+1)
		}
	}
	enc.Mor = strings.Join(items, " ")
	enc.Unreliable = CountMorWordGroups(enc.Mor) != CountWordGroups(words)
	return enc
}

// CountWordGroups counts the lexical word groups of a main line; commas
// and terminators are not counted.
func CountWordGroups(words []PlainWord) int {
	n := 0
	for _, w := range words {
		if !w.IsPunctuation() {
			n++
		}
	}
	return n
}

// CountMorWordGroups counts the lexical items of a MOR tier.
func CountMorWordGroups(mor string) int {
	n := 0
	for _, item := range strings.Fields(mor) {
		if item != "cm|cm" && !isPunctuationText(item) {
			n++
		}
	}
	return n
}
