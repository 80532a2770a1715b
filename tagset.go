package coczefla

// Tag is a 15-position positional tag of the Prague Dependency Treebank
// tagset, e.g. "VB-S---1P-AAI--". Positions outside a short or malformed
// tag read as '-'.
type Tag string

// Tag positions used by the encoder.
const (
	tagPOS      = 0
	tagSubPOS   = 1
	tagGender   = 2
	tagNumber   = 3
	tagCase     = 4
	tagPerson   = 7
	tagTense    = 8
	tagGrade    = 9
	tagNegation = 10
	tagVoice    = 11
	tagAspect   = 12
)

// At returns the value at position i.
func (t Tag) At(i int) byte {
	if i < 0 || i >= len(t) {
		return '-'
	}
	return t[i]
}

// Category is a slot of the MOR suffix.
type Category int

const (
	CatCase Category = iota
	CatPerson
	CatNumber
	CatGender
	CatFormType
	CatMood
	CatTense
	CatVoice
	CatAspect
	CatNegation
	CatCompDeg
)

// grammaticalOrder is the order of the &-joined block.
var grammaticalOrder = []Category{
	CatCase, CatPerson, CatNumber, CatGender, CatFormType, CatMood, CatTense, CatVoice, CatAspect,
}

// lexicalOrder is the order of the codes before the grammatical block.
var lexicalOrder = []Category{CatNegation, CatCompDeg}

// unknownCodes fill categories a form requires but the tag leaves empty.
var unknownCodes = map[Category]string{
	CatCase:     "x_pad",
	CatPerson:   "x_osoba",
	CatNumber:   "x_cislo",
	CatGender:   "x_jmenny_rod",
	CatFormType: "x_tvar",
	CatMood:     "x_zpusob",
	CatTense:    "x_cas",
	CatVoice:    "x_slovesny_rod",
	CatAspect:   "x_vid",
}

// unknownPOS is the category of tags the table does not know.
const unknownPOS = "x"

// posCategories maps POS+SubPOS, then POS alone, to a MOR category.
var posCategories = map[string]string{
	"N": "n",

	"AC": "adj:short",
	"AU": "adj:poss",
	"A":  "adj",

	"PD": "pro:dem",
	"P5": "pro:pers", "PE": "pro:pers", "PH": "pro:pers", "PP": "pro:pers",
	"P1": "pro:rel",
	"P4": "pro:rel/int", "PQ": "pro:rel/int",
	"PS": "pro:poss", "P9": "pro:poss",
	"PW": "pro:neg", "PY": "pro:neg",
	"PK": "pro:indef", "PL": "pro:indef", "PZ": "pro:indef",
	"P6": "pro:refl", "P7": "pro:refl",
	"P": "pro",

	"Cl": "num:card", "Cn": "num:card", "Cz": "num:card", "Ca": "num:card", "Cy": "num:card",
	"Cr": "num:ord", "Cw": "num:ord",
	"Cv": "num:mult", "Co": "num:mult",
	"C": "num",

	"V": "v",
	"D": "adv",
	"R": "prep",

	"J^": "conj:coord", "J*": "conj:coord",
	"J,": "conj:sub",
	"J":  "conj",

	"T": "part",
	"I": "int",
	"Z": posPunctuation,
}

// posPunctuation marks punctuation; it never reaches the tier.
const posPunctuation = "Z"

// adverbsToPronominal are adverbs that are pronominal in the MOR tagset.
var adverbsToPronominal = map[string]bool{"tak": true, "proto": true}

// positionMap maps the values of one tag position to category codes.
type positionMap struct {
	pos    int
	cat    Category
	values map[byte]string
}

var (
	numberSingularPlural = map[byte]string{'S': "SG", 'P': "PL"}
	caseDigits           = map[byte]string{'1': "1", '2': "2", '3': "3", '4': "4", '5': "5", '6': "6", '7': "7"}
	personDigits         = map[byte]string{'1': "1", '2': "2", '3': "3"}
)

// verbPositions are read for every verb tag.
var verbPositions = []positionMap{
	{tagGender, CatGender, map[byte]string{'I': "M", 'M': "M", 'Y': "M", 'F': "F", 'N': "N"}},
	{tagNumber, CatNumber, numberSingularPlural},
	{tagPerson, CatPerson, personDigits},
	{tagTense, CatTense, map[byte]string{'F': "futur", 'P': "pres", 'R': "past"}},
	{tagVoice, CatVoice, map[byte]string{'A': "akt", 'P': "pas"}},
	{tagAspect, CatAspect, map[byte]string{'P': "pf", 'I': "impf", 'B': "biasp"}},
}

// nounGenders keeps animacy for nouns; other nominals collapse it.
var (
	nounGenders    = map[byte]string{'M': "MA", 'I': "MI", 'Y': "M", 'F': "F", 'N': "N"}
	nominalGenders = map[byte]string{'M': "M", 'I': "M", 'Y': "M", 'F': "F", 'N': "N"}
)

// nominalPositions are read for nouns, adjectives, pronouns and
// non-multiplicative numerals, after gender.
var nominalPositions = []positionMap{
	{tagNumber, CatNumber, map[byte]string{'S': "SG", 'P': "PL", 'D': "PL"}},
	{tagCase, CatCase, caseDigits},
}

// gradeCodes are the comparison degrees of adjectives and adverbs.
var gradeCodes = map[byte]string{'2': "CP", '3': "SP"}

// verbForm describes a verb SubPOS: codes it sets and categories it must
// carry, filled with unknown codes if the tag lacks them.
type verbForm struct {
	set     map[Category]string
	require []Category
}

var verbForms = map[byte]verbForm{
	// infinitive
	'f': {
		set:     map[Category]string{CatFormType: "inf"},
		require: []Category{CatFormType, CatAspect},
	},
	// past participle, 'q' is archaic
	'p': {require: []Category{CatNumber, CatTense, CatVoice, CatGender, CatAspect}},
	'q': {require: []Category{CatNumber, CatTense, CatVoice, CatGender, CatAspect}},
	// passive participle
	's': {require: []Category{CatNumber, CatVoice, CatGender, CatAspect}},
	// conditional
	'c': {
		set:     map[Category]string{CatMood: "cond"},
		require: []Category{CatPerson, CatNumber, CatMood, CatVoice, CatAspect},
	},
	// imperative; passive imperatives are analytic
	'i': {
		set:     map[Category]string{CatMood: "imp", CatVoice: "akt"},
		require: []Category{CatPerson, CatNumber, CatMood, CatVoice, CatAspect},
	},
	// indicative, 't' is archaic
	'B': {
		set:     map[Category]string{CatMood: "ind"},
		require: []Category{CatPerson, CatNumber, CatMood, CatTense, CatVoice, CatAspect},
	},
	't': {
		set:     map[Category]string{CatMood: "ind"},
		require: []Category{CatPerson, CatNumber, CatMood, CatTense, CatVoice, CatAspect},
	},
	// transgressives; passive ones are analytic
	'e': {
		set:     map[Category]string{CatFormType: "trans", CatVoice: "akt"},
		require: []Category{CatFormType, CatNumber, CatVoice, CatGender, CatAspect},
	},
	'm': {
		set:     map[Category]string{CatFormType: "trans", CatVoice: "akt"},
		require: []Category{CatFormType, CatNumber, CatVoice, CatGender, CatAspect},
	},
}

// Lemma classes with fixed nominal categories.
var (
	neuterLemmas = setOf("co", "něco", "nic")

	masculineLemmas = setOf("kdo", "někdo", "nikdo", "kdokoli", "kdokoliv", "kdosi", "kdopak")

	singularLemmas = setOf("kdo", "co", "něco", "nic", "někdo", "nikdo",
		"kdokoli", "kdokoliv", "kdosi", "kdopak", "se")

	genderlessLemmas = setOf("já", "my", "ty", "vy", "se")
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
