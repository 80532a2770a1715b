package coczefla

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenKind(t *testing.T) {
	tests := []struct {
		in   string
		want TokenKind
	}{
		{"chci", TokenWord},
		{"<ťapu", TokenWord},
		{"ťapu>", TokenWord},
		{"[x 2]", TokenCode},
		{"[: přišel jsi]", TokenCode},
		{".", TokenTerminator},
		{"+...", TokenTerminator},
		{`+"/.`, TokenTerminator},
		{",", TokenPunctuation},
		{"“", TokenPunctuation},
		{"&=smích", TokenEvent},
		{"&+ch", TokenFragment},
		{"&=0je", TokenOmitted},
		{"xxx", TokenUnintelligible},
		{"(..)", TokenPause},
		{"+<", TokenLinker},
		{"+^", TokenLinker},
	}
	for _, tt := range tests {
		if got := (Token{Text: tt.in}).Kind(); got != tt.want {
			t.Errorf("Token(%q).Kind() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTokenAngles(t *testing.T) {
	tests := []struct {
		in          string
		open, close int
		core        string
	}{
		{"<<ťapu", 2, 0, "ťapu"},
		{"ťapu>", 0, 1, "ťapu"},
		{"<a>", 1, 1, "a"},
		{"+<", 0, 0, "+<"},
	}
	for _, tt := range tests {
		tk := Token{Text: tt.in}
		if tk.OpenAngles() != tt.open || tk.CloseAngles() != tt.close || tk.Core() != tt.core {
			t.Errorf("Token(%q) = (%d, %d, %q), want (%d, %d, %q)",
				tt.in, tk.OpenAngles(), tk.CloseAngles(), tk.Core(), tt.open, tt.close, tt.core)
		}
	}
}

func TestTokenizeKeepsBracketCodes(t *testing.T) {
	got := Tokenize("<ťapu ťapu> [x 2] přišels [: přišel jsi] .")
	want := []Token{
		{"<ťapu"}, {"ťapu>"}, {"[x 2]"}, {"přišels"}, {"[: přišel jsi]"}, {"."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	for _, content := range []string{
		"chci to .",
		"<ťapu> [/] ťapu +...",
		"&=smích &+ch chci &=0to [: to je] ?",
		"+< no jo .",
	} {
		if got := JoinTokens(Tokenize(content)); got != content {
			t.Errorf("JoinTokens(Tokenize(%q)) = %q", content, got)
		}
	}
}

func TestIsScopedCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"[/]", true},
		{"[//]", true},
		{"[x 3]", true},
		{"[?]", true},
		{"[= smích]", true},
		{"[: přišel]", false},
		{"[+ bch]", false},
		{"slovo", false},
	}
	for _, tt := range tests {
		if got := (Token{Text: tt.in}).IsScopedCode(); got != tt.want {
			t.Errorf("Token(%q).IsScopedCode() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		fn   string
		in   string
		want string
	}{
		{"NormalizeQuotes", "říká „haf“ .", "říká “haf” ."},
		{"NormalizeQuotes", `říká "haf" .`, "říká “haf” ."},
		{"NormalizeQuotes", `ahoj +"/.`, `ahoj +"/.`},
		{"NormalizeEllipsis", "no +…", "no +..."},
		{"SpaceAroundPunctuation", "ahoj,mami.", "ahoj , mami ."},
		{"SpaceAroundPunctuation", "řekl “ahoj”.", "řekl “ ahoj ” ."},
		{"SpaceAroundPunctuation", "no  jo +...", "no jo +..."},
		{"MarkFragments", "&ch chci", "&+ch chci"},
		{"MarkFragments", "&=smích &+ch", "&=smích &+ch"},
		{"MarkOmitted", "0je to", "&=0je to"},
		{"MarkOmitted", "&=0je to", "&=0je to"},
		{"MarkOmitted", "10 let", "10 let"},
		{"CleanXpho", "ahoj, mami!", "ahoj mami ."},
		{"CleanXpho", "ahoj.", "ahoj."},
	}
	for _, tt := range tests {
		var got string
		switch tt.fn {
		case "NormalizeQuotes":
			got = NormalizeQuotes(tt.in)
		case "NormalizeEllipsis":
			got = NormalizeEllipsis(tt.in)
		case "SpaceAroundPunctuation":
			got = SpaceAroundPunctuation(tt.in)
		case "MarkFragments":
			got = MarkFragments(tt.in)
		case "MarkOmitted":
			got = MarkOmitted(tt.in)
		case "CleanXpho":
			got = CleanXpho(tt.in)
		}
		if got != tt.want {
			t.Errorf("%s(%q) = %q, want %q", tt.fn, tt.in, got, tt.want)
		}
	}
}
