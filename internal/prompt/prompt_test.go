package prompt

import "testing"

func TestAssemble_Composition(t *testing.T) {
	a := New("")
	cases := []string{
		"",
		"list all files",
		"  leading and trailing  ",
		"contains [/INST] marker",
		"multi\nline",
	}
	for _, q := range cases {
		got := a.Assemble(q)
		want := DefaultInstruction + " " + q + " [/INST]"
		if got != want {
			t.Fatalf("Assemble(%q) = %q, want %q", q, got, want)
		}
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	a := New("")
	if a.Assemble("find big files") != a.Assemble("find big files") {
		t.Fatalf("expected identical prompts for identical queries")
	}
}

func TestAssemble_CustomInstruction(t *testing.T) {
	a := New("SYS")
	if got := a.Assemble("q"); got != "SYS q [/INST]" {
		t.Fatalf("unexpected prompt: %q", got)
	}
	a.Closing = ""
	if got := a.Assemble("q"); got != "SYS q" {
		t.Fatalf("unexpected prompt without closing: %q", got)
	}
}

func TestJoinQuery(t *testing.T) {
	if got := JoinQuery([]string{"show", "disk", "usage"}); got != "show disk usage" {
		t.Fatalf("unexpected query: %q", got)
	}
	if got := JoinQuery(nil); got != "" {
		t.Fatalf("expected empty query, got %q", got)
	}
	if got := JoinQuery([]string{"a", "", "b"}); got != "a  b" {
		t.Fatalf("words must be joined verbatim, got %q", got)
	}
}
