package tree

import "testing"

func TestIDSetValueSemantics(t *testing.T) {
	base := NewIDSet("a", "b")

	grown := base.With("c")
	if base.Has("c") {
		t.Fatalf("With mutated the receiver")
	}
	shrunk := grown.Without("a")
	if !grown.Has("a") {
		t.Fatalf("Without mutated the receiver")
	}
	if shrunk.Has("a") || !shrunk.Has("b") || !shrunk.Has("c") {
		t.Errorf("Without result wrong: %v", shrunk.Values())
	}

	var zero IDSet
	if zero.Len() != 0 || zero.Has("a") {
		t.Errorf("zero set is not empty")
	}
	if got := zero.With("x"); !got.Has("x") {
		t.Errorf("With on zero set lost the member")
	}
}

func TestIDSetDiffs(t *testing.T) {
	a := NewIDSet("a", "b", "c")
	b := NewIDSet("b", "c", "d")

	if got := a.Diff(b).Values(); !equalIDs(got, []string{"a"}) {
		t.Errorf("Diff = %v", got)
	}
	if got := a.SymmetricDiff(b); !equalIDs(got, []string{"a", "d"}) {
		t.Errorf("SymmetricDiff = %v", got)
	}
	if !a.Equal(NewIDSet("c", "b", "a")) {
		t.Errorf("Equal is order-sensitive")
	}
	if a.Equal(b) {
		t.Errorf("distinct sets compare equal")
	}
}
