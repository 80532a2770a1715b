package coczefla

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	tokChci = TaggedToken{Word: "chci", Lemma: "chtít", Tag: "VB-S---1P-AAI--"}
	tokTo   = TaggedToken{Word: "to", Lemma: "ten", Tag: "PDNS1----------"}
	tokDot  = TaggedToken{Word: ".", Lemma: ".", Tag: "Z:-------------"}
	tokComm = TaggedToken{Word: ",", Lemma: ",", Tag: "Z:-------------"}
)

const chciToMor = "v:x|chtít-1&SG&ind&pres&akt&impf pro:dem|ten-1&SG&N ."

func TestEncodeToken(t *testing.T) {
	tests := []struct {
		tok   TaggedToken
		flags WordFlag
		want  string
	}{
		{tokChci, 0, "v:x|chtít-1&SG&ind&pres&akt&impf"},
		{TaggedToken{"nechci", "chtít", "VB-S---1P-NAI--"}, 0, "v:x|chtít-neg-1&SG&ind&pres&akt&impf"},
		{tokTo, 0, "pro:dem|ten-1&SG&N"},
		{TaggedToken{"pejsek", "pejsek", "NNMS1-----A----"}, 0, "n|pejsek-1&SG&MA"},
		{TaggedToken{"Praha", "Praha", "NNFS1-----A----"}, 0, "n:prop|Praha-1&SG&F"},
		{TaggedToken{"Pejsek", "pejsek", "NNMS1-----A----"}, FlagQuotationStart, "n|pejsek-1&SG&MA"},
		{TaggedToken{"lepší", "dobrý", "AAFS1----2A----"}, 0, "adj|dobrý-CP-1&SG&F"},
		{TaggedToken{"tak", "tak", "Db-------------"}, 0, "adv:pro|tak"},
		{TaggedToken{"jak", "jak", "Db-------------"}, 0, "adv:pro|jak"},
		{TaggedToken{"je", "být", "VB-S---3P-AAI--"}, 0, "v:cop|být-3&SG&ind&pres&akt&impf"},
		{TaggedToken{"jít", "jít", "Vf--------A-I--"}, 0, "v|jít-inf&impf"},
		{TaggedToken{"šel", "jít", "VpYS---XR-AA---"}, 0, "v|jít-SG&M&past&akt&x_vid"},
		{TaggedToken{"se", "se", "P7-S4----------"}, 0, "pro:refl|se-4&SG"},
		{TaggedToken{"blabla", "blabla", "X@-------------"}, 0, "x|blabla"},
		{TaggedToken{Word: "haf"}, FlagInterjection, "int|haf"},
		{TaggedToken{Word: "papapa"}, FlagNeologism, "x|papapa-neo"},
		{tokComm, 0, "cm|cm"},
		{tokDot, 0, "."},
	}
	enc := NewEncoder(nil)
	for _, tt := range tests {
		if got := enc.EncodeToken(tt.tok, tt.flags); got != tt.want {
			t.Errorf("EncodeToken(%v, %d) = %q, want %q", tt.tok, tt.flags, got, tt.want)
		}
	}
}

func TestMorpheme(t *testing.T) {
	got := NewEncoder(nil).Morpheme(TaggedToken{"nejlepší", "dobrý", "AAFS1----3N----"}, 0)
	want := MorMorpheme{
		Category:    "adj",
		Stem:        "dobrý",
		Lexical:     []string{"neg", "SP"},
		Grammatical: []string{"1", "SG", "F"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Morpheme mismatch (-want +got):\n%s", diff)
	}
	if s := got.String(); s != "adj|dobrý-neg-SP-1&SG&F" {
		t.Errorf("String() = %q", s)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name       string
		plain      string
		tagged     []TaggedToken
		want       string
		low        []int
		unreliable bool
	}{
		{
			name:   "exact",
			plain:  "chci to .",
			tagged: []TaggedToken{tokChci, tokTo, tokDot},
			want:   chciToMor,
		},
		{
			name:  "split word",
			plain: "jaks ?",
			tagged: []TaggedToken{
				{"jak", "jak", "Db-------------"},
				{"s", "být", "VB-S---2P-AAI--"},
				{"?", "?", "Z:-------------"},
			},
			want: "adv:pro|jak~v:x|být-2&SG&ind&pres&akt&impf ?",
		},
		{
			name:  "merged words",
			plain: "na shledanou .",
			tagged: []TaggedToken{
				{"nashledanou", "nashledanou", "Db-------------"},
				tokDot,
			},
			want: "adv|nashledanou adv|nashledanou .",
			low:  []int{1, 2},
		},
		{
			name:   "terminator dropped by the engine",
			plain:  "chci to .",
			tagged: []TaggedToken{tokChci, tokTo},
			want:   chciToMor,
		},
		{
			name:   "comma added by the engine",
			plain:  "chci to .",
			tagged: []TaggedToken{tokChci, tokComm, tokTo, tokDot},
			want:   chciToMor,
		},
		{
			name:   "comma on the main line",
			plain:  "no , jo .",
			tagged: []TaggedToken{{"no", "no", "TT-------------"}, tokComm, {"jo", "jo", "TT-------------"}, tokDot},
			want:   "part|no cm|cm part|jo .",
		},
		{
			name:   "different form",
			plain:  "chcu to .",
			tagged: []TaggedToken{tokChci, tokTo, tokDot},
			want:   chciToMor,
			low:    []int{1},
		},
		{
			name:   "word missing from the engine output",
			plain:  "chci to .",
			tagged: []TaggedToken{tokChci},
			want:   "v:x|chtít-1&SG&ind&pres&akt&impf x|to .",
			low:    []int{2},
		},
		{
			name:       "extra token",
			plain:      "chci .",
			tagged:     []TaggedToken{tokChci, tokTo, tokDot},
			want:       "v:x|chtít-1&SG&ind&pres&akt&impf . pro:dem|ten-1&SG&N",
			unreliable: true,
		},
		{
			name:   "interjection",
			plain:  "hafbacashoogacit .",
			tagged: []TaggedToken{{"haf", "haf", "II-------------"}, tokDot},
			want:   "int|haf .",
		},
	}
	enc := NewEncoder(nil)
	for _, tt := range tests {
		got := enc.Encode(PlainWords(tt.plain), tt.tagged)
		if got.Mor != tt.want {
			t.Errorf("%s: Mor = %q, want %q", tt.name, got.Mor, tt.want)
		}
		if diff := cmp.Diff(tt.low, got.LowConfidence, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s: LowConfidence mismatch (-want +got):\n%s", tt.name, diff)
		}
		if got.Unreliable != tt.unreliable {
			t.Errorf("%s: Unreliable = %v, want %v", tt.name, got.Unreliable, tt.unreliable)
		}
		if _, err := ParseMorTier(got.Mor); err != nil {
			t.Errorf("%s: encoded tier does not parse: %v", tt.name, err)
		}
	}
}

func TestAlignSplitKeepsPiecesTogether(t *testing.T) {
	words := PlainWords("jaks ?")
	tagged := []TaggedToken{{Word: "jak"}, {Word: "s"}, {Word: "?", Tag: "Z:"}}
	groups := Align(words, tagged)
	if len(groups) != 2 || len(groups[0].Tokens) != 2 || groups[0].LowConfidence {
		t.Errorf("Align = %+v", groups)
	}
}

func TestCountWordGroups(t *testing.T) {
	if n := CountWordGroups(PlainWords("no , jo .")); n != 2 {
		t.Errorf("CountWordGroups = %d, want 2", n)
	}
	if n := CountMorWordGroups("part|no cm|cm part|jo ."); n != 2 {
		t.Errorf("CountMorWordGroups = %d, want 2", n)
	}
	if n := CountMorWordGroups(chciToMor); n != 2 {
		t.Errorf("CountMorWordGroups(%q) = %d, want 2", chciToMor, n)
	}
}
