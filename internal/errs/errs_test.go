package errs

import "testing"

func TestNewFormatsMessage(t *testing.T) {
	e := New(Semantic, "foo.asm", 12, "bad value: %d", 7)
	want := "foo.asm:12: bad value: 7"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if e.Kind != Semantic {
		t.Errorf("Kind = %v, want Semantic", e.Kind)
	}
}

func TestKindString(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{Lexical, "lexical"},
		{Syntactic, "syntactic"},
		{Semantic, "semantic"},
		{Structural, "structural"},
		{Directive, "directive"},
		{Kind(99), "error"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Errorf("Kind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}
