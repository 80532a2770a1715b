package coczefla

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chci to .", "chci to ."},
		{"<ťapu> [/] ťapu .", "ťapu ."},
		{"&=smích chci .", "chci ."},
		{"&+ch chci &=0to .", "chci ."},
		{"přišels [: přišel jsi] .", "přišel jsi ."},
		{"<to je> [?] pejsek .", "to je pejsek ."},
		{"haf@i .", "hafbacashoogacit ."},
		{"pejsek@c .", "pejsekbacashoogachi ."},
		{"chci , .", "chci ."},
		{"xxx .", "."},
		{"ma:ma .", "mama ."},
		{"+< no jo +...", "no jo +..."},
	}
	for _, tt := range tests {
		got, err := PlainText(tt.in)
		if err != nil {
			t.Errorf("PlainText(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainTextFails(t *testing.T) {
	_, err := PlainText("chci # .")
	if !errors.Is(err, ErrAnnotation) {
		t.Errorf("PlainText: got %v, want ErrAnnotation", err)
	}
}

func TestShouldAnnotate(t *testing.T) {
	for in, want := range map[string]bool{
		"chci to .": true,
		".":         false,
		"0 .":       false,
		"+...":      false,
		"":          false,
	} {
		if got := ShouldAnnotate(in); got != want {
			t.Errorf("ShouldAnnotate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPlainWords(t *testing.T) {
	got := PlainWords("říká “ Haf ” hafbacashoogacit pejsekbacashoogachi autobacashoogafor .")
	want := []PlainWord{
		{Text: "říká"},
		{Text: "Haf", Flags: FlagQuotationStart},
		{Text: "haf", Flags: FlagInterjection},
		{Text: "pejsek", Flags: FlagNeologism},
		{Text: "auto", Flags: FlagForeign},
		{Text: "."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PlainWords mismatch (-want +got):\n%s", diff)
	}
}

func TestUtterancePlainWords(t *testing.T) {
	tests := []struct {
		content string
		words   int
		ok      bool
	}{
		{"chci to .", 3, true},
		{"xxx .", 0, false},
		{"&=smích .", 0, false},
	}
	for _, tt := range tests {
		m := &MainLine{Speaker: "CHI", Tokens: Tokenize(tt.content)}
		words, ok, err := UtterancePlainWords(m)
		if err != nil {
			t.Errorf("UtterancePlainWords(%q): %v", tt.content, err)
			continue
		}
		if len(words) != tt.words || ok != tt.ok {
			t.Errorf("UtterancePlainWords(%q) = %d words, %v, want %d, %v", tt.content, len(words), ok, tt.words, tt.ok)
		}
	}
}
