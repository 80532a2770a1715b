package coczefla

import (
	"bytes"
	"strings"
	"testing"
)

func TestExpandRepetitions(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"<ťapu> [x 2] .", "<ťapu> [/] ťapu .", true},
		{"<a b> [x 3] .", "<a b> [/] <a b> [/] a b .", true},
		{"<a>[x 2] .", "<a> [/] a .", true},
		{"<<a> [x 2] b> [x 2] .", "<<a> [/] a b> [/] <a> [/] a b .", true},
		{"+< <no> [x 2] .", "+< <no> [/] no .", true},
		{"a [x 2] .", "a [x 2] .", true},
		{"a> [x 2] .", "a> [x 2] .", false},
		{"chci to .", "chci to .", true},
		{"<ahoj> [x 100] .", strings.Repeat("<ahoj> [/] ", 99) + "ahoj .", true},
		{"<ahoj> [x 5000000] .", "<ahoj> [x 5000000] .", false},
		{"<ahoj> [x 99999999999999999999] .", "<ahoj> [x 99999999999999999999] .", false},
		{"<ahoj> [x 101] <no> [x 2] .", "<ahoj> [x 101] <no> [/] no .", false},
	}
	for _, tt := range tests {
		got, ok := ExpandRepetitions(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExpandRepetitions(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation spacing", "*CHI:\tchci to,jo.\n", "*CHI:\tchci to , jo .\n"},
		{"quotes", "*CHI:\tříká „haf“ .\n", "*CHI:\tříká “ haf ” .\n"},
		{"fragments and omissions", "*CHI:\t&ch chci 0to .\n", "*CHI:\t&+ch chci &=0to .\n"},
		{"repetition", "*CHI:\t<ťapu> [x 3] .\n", "*CHI:\t<ťapu> [/] <ťapu> [/] ťapu .\n"},
		{"legacy pho tier", "*CHI:\tjo .\n%pho:\tahoj, mami!\n", "*CHI:\tjo .\n%xpho:\tahoj mami .\n"},
		{"empty xpho dropped", "*CHI:\tjo .\n%xpho:\t.\n", "*CHI:\tjo .\n"},
		{"mor first", "*CHI:\tjo .\n%com:\tx\n%mor:\tpart|jo .\n", "*CHI:\tjo .\n%mor:\tpart|jo .\n%com:\tx\n"},
		{"comment tier amended", "*CHI:\tjo .\n%com:\třekl „ahoj“.\n", "*CHI:\tjo .\n%com:\třekl “ ahoj ” .\n"},
		{"situation header amended", "@Situation:\tpři jídle,doma\n*CHI:\tjo .\n", "@Situation:\tpři jídle , doma\n*CHI:\tjo .\n"},
	}
	for _, tt := range tests {
		res, err := ConvertString(fixHead+tt.in+fixTail, ConvertOptions{})
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if want := fixHead + tt.want + fixTail; res.Output != want {
			t.Errorf("%s: got\n%s\nwant\n%s", tt.name, res.Output, want)
		}
	}
}

func TestRewriteReportsUnexpandedRepetition(t *testing.T) {
	in := fixHead + "*CHI:\ta> [x 2] <b .\n" + fixTail
	res, err := ConvertString(in, ConvertOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Output != in {
		t.Errorf("got\n%s", res.Output)
	}
	if !res.Diagnostics.Has(DiagRepetition) {
		t.Errorf("missing %s:\n%s", DiagRepetition, res.Diagnostics.Summary())
	}
}

func TestRewriteKeepsLargeRepetitionCount(t *testing.T) {
	in := fixHead + "*CHI:\t<ahoj> [x 5000000] .\n" + fixTail
	res, err := ConvertString(in, ConvertOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Output, "*CHI:\t<ahoj> [x 5000000] .\n") || len(res.Output) > 2*len(in) {
		t.Errorf("got\n%s", res.Output)
	}
	if !res.Diagnostics.Has(DiagRepetition) {
		t.Errorf("missing %s:\n%s", DiagRepetition, res.Diagnostics.Summary())
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	in := fixHead +
		"*CHI:\tříká „haf“ , &ch 0to .\n" +
		"%com:\tnic,vůbec\n" +
		"%pho:\tahoj!\n" +
		"*CHI:\t<<a> [x 2] b> [x 2] .\n" +
		fixTail
	tr, err := ParseString(in)
	if err != nil {
		t.Fatal(err)
	}
	once := Rewrite(tr)
	twice := Rewrite(once)
	if Format(once) != Format(twice) {
		t.Errorf("Rewrite is not idempotent:\n%s\nthen\n%s", Format(once), Format(twice))
	}
	if Format(tr) != in {
		t.Errorf("Rewrite modified its input:\n%s", Format(tr))
	}

	var buf bytes.Buffer
	if _, err := once.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != Format(once) {
		t.Errorf("WriteTo and Format differ")
	}
}
