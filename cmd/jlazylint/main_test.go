package main

import "testing"

func TestCheckSymbolAcceptsWellFormedGrammars(t *testing.T) {
	cases := []string{
		"Static Call to com/example/Util.max:(II)I",
		"Virtual Call to com/example/Widget.compute:(I)I",
		"com/example/Widget.count:I",
		"Load Lcom/example/Widget;",
	}
	for _, symbol := range cases {
		if problem := checkSymbol(symbol); problem != "" {
			t.Errorf("checkSymbol(%q) = %q, want no problem", symbol, problem)
		}
	}
}

func TestCheckSymbolAcceptsDirectCall(t *testing.T) {
	if problem := checkSymbol("com/example/Util.max:(II)I"); problem != "" {
		t.Errorf("checkSymbol(direct-call) = %q, want no problem", problem)
	}
}

func TestCheckSymbolRejectsGarbage(t *testing.T) {
	if problem := checkSymbol("not a symbol at all"); problem == "" {
		t.Error("checkSymbol(garbage) = \"\", want a problem reported")
	}
}

func TestLooksLikeDirectCall(t *testing.T) {
	if !looksLikeDirectCall("Foo.bar:(I)I") {
		t.Error("expected Foo.bar:(I)I to look like a direct call")
	}
	if looksLikeDirectCall("no colon here") {
		t.Error("expected string with no colon to not look like a direct call")
	}
	if looksLikeDirectCall(":leading colon") {
		t.Error("expected leading colon to be rejected")
	}
	if looksLikeDirectCall("trailing colon:") {
		t.Error("expected trailing colon to be rejected")
	}
}
