package coczefla

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed data/*.tsv
var embeddedData embed.FS

// Data file names inside a tables directory.
const (
	fileWordMor      = "word_mor.tsv"
	fileLemmaLemma   = "lemma_lemma.tsv"
	fileCompDeg      = "compdeg_lemmas.tsv"
	fileWordLemma    = "word_lemma.tsv"
	filePOSOverrides = "pos_overrides.tsv"
)

// anyForm is the word column value of a category override that applies
// to every form of the lemma.
const anyForm = "_"

// Tables holds the lexical override tables of the encoder. Tables are
// loaded once and never mutated afterwards.
type Tables struct {
	// wordMor maps a word form to a complete MOR word used verbatim.
	wordMor map[string]string
	// lemmaLemma maps engine lemmas to the lemmas of the MOR tier,
	// including the compdeg entries.
	lemmaLemma map[string]string
	// compDeg maps comparative and superlative lemmas to the positive.
	compDeg map[string]string
	// wordLemma fixes the lemma of particular word forms.
	wordLemma map[string]string
	// posOverrides maps lemma → word form (or anyForm) → MOR category.
	posOverrides map[string]map[string]string
}

var defaultTables = sync.OnceValues(func() (*Tables, error) {
	sub, err := fs.Sub(embeddedData, "data")
	if err != nil {
		return nil, err
	}
	return LoadTables(sub)
})

// DefaultTables returns the built-in tables.
func DefaultTables() *Tables {
	t, err := defaultTables()
	if err != nil {
		panic(fmt.Sprintf("coczefla: built-in tables: %v", err))
	}
	return t
}

// LoadTables reads the override tables from fsys, e.g. os.DirFS(dir).
// Every file is required.
func LoadTables(fsys fs.FS) (*Tables, error) {
	t := &Tables{
		wordMor:      make(map[string]string),
		lemmaLemma:   make(map[string]string),
		compDeg:      make(map[string]string),
		wordLemma:    make(map[string]string),
		posOverrides: make(map[string]map[string]string),
	}
	pairs := []struct {
		name string
		dst  map[string]string
	}{
		{fileWordMor, t.wordMor},
		{fileCompDeg, t.compDeg},
		{fileLemmaLemma, t.lemmaLemma},
		{fileWordLemma, t.wordLemma},
	}
	for _, p := range pairs {
		err := readTable(fsys, p.name, 2, func(cols []string) {
			p.dst[cols[0]] = cols[1]
		})
		if err != nil {
			return nil, err
		}
	}
	for k, v := range t.compDeg {
		if _, ok := t.lemmaLemma[k]; !ok {
			t.lemmaLemma[k] = v
		}
	}

	err := readTable(fsys, filePOSOverrides, 3, func(cols []string) {
		byWord := t.posOverrides[cols[0]]
		if byWord == nil {
			byWord = make(map[string]string)
			t.posOverrides[cols[0]] = byWord
		}
		byWord[cols[1]] = cols[2]
	})
	if err != nil {
		return nil, err
	}
	for lemma, byWord := range t.posOverrides {
		if _, ok := byWord[anyForm]; !ok {
			return nil, &ConfigurationError{
				Setting: filePOSOverrides,
				Message: fmt.Sprintf("no %q default for lemma %q", anyForm, lemma),
			}
		}
	}
	return t, nil
}

// readTable scans a tab-separated file. Blank lines and lines starting
// with '#' are skipped; every other line must have exactly n columns.
func readTable(fsys fs.FS, name string, n int, row func(cols []string)) error {
	f, err := fsys.Open(name)
	if err != nil {
		return &ConfigurationError{Setting: name, Message: "cannot open table", Err: err}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	num := 0
	for sc.Scan() {
		num++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) != n {
			return &ConfigurationError{
				Setting: name,
				Message: fmt.Sprintf("line %d: want %d tab-separated columns, got %d", num, n, len(cols)),
			}
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		row(cols)
	}
	if err := sc.Err(); err != nil {
		return &ConfigurationError{Setting: name, Message: "cannot read table", Err: err}
	}
	return nil
}

// WordMor returns the verbatim MOR word for a word form.
func (t *Tables) WordMor(word string) (string, bool) {
	s, ok := t.wordMor[word]
	return s, ok
}

// POSOverride returns the MOR category fixed for a lemma, preferring the
// entry of the exact word form over the lemma default.
func (t *Tables) POSOverride(lemma, word string) (string, bool) {
	byWord, ok := t.posOverrides[lemma]
	if !ok {
		return "", false
	}
	if pos, ok := byWord[word]; ok {
		return pos, true
	}
	return byWord[anyForm], true
}

// IsCopula reports whether word is a copula form of lemma.
func (t *Tables) IsCopula(lemma, word string) bool {
	byWord, ok := t.posOverrides[lemma]
	return ok && byWord[word] == "v:cop"
}

// Lemma maps an engine lemma and word form to the MOR lemma.
func (t *Tables) Lemma(lemma, word string) string {
	if l, ok := t.wordLemma[word]; ok {
		return l
	}
	if l, ok := t.lemmaLemma[lemma]; ok {
		return l
	}
	return lemma
}

// PositiveDegree returns the positive-degree lemma of a comparative or
// superlative lemma.
func (t *Tables) PositiveDegree(lemma string) (string, bool) {
	l, ok := t.compDeg[lemma]
	return l, ok
}

// WordLemma returns the fixed lemma of a word form.
func (t *Tables) WordLemma(word string) (string, bool) {
	l, ok := t.wordLemma[word]
	return l, ok
}
