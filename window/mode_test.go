package window

import "testing"

func TestClassifyUntil(t *testing.T) {
	if got := classify(Until, false); got != emitSameWindow {
		t.Fatalf("Until/false = %v, want emitSameWindow", got)
	}
	if got := classify(Until, true); got != emitThenClose {
		t.Fatalf("Until/true = %v, want emitThenClose", got)
	}
}

func TestClassifyUntilCutBefore(t *testing.T) {
	if got := classify(UntilCutBefore, false); got != emitSameWindow {
		t.Fatalf("UntilCutBefore/false = %v, want emitSameWindow", got)
	}
	if got := classify(UntilCutBefore, true); got != closeThenOpen {
		t.Fatalf("UntilCutBefore/true = %v, want closeThenOpen", got)
	}
}

func TestClassifyWhile(t *testing.T) {
	// While's polarity is inverted relative to the other two modes: true
	// means "keep going", false is the boundary.
	if got := classify(While, true); got != emitSameWindow {
		t.Fatalf("While/true = %v, want emitSameWindow", got)
	}
	if got := classify(While, false); got != dropCloseOpen {
		t.Fatalf("While/false = %v, want dropCloseOpen", got)
	}
}

func TestUntilChangedPredicate(t *testing.T) {
	p := newUntilChangedPredicate[int, int](func(v int) int { return v / 10 }, nil)

	cases := []struct {
		v    int
		want bool
	}{
		{1, false},  // first element, never a boundary
		{2, false},  // same key (0)
		{11, true},  // key changed 0 -> 1
		{12, false}, // same key (1)
		{29, true},  // key changed 1 -> 2
	}
	for _, c := range cases {
		got, err := p.eval(c.v)
		if err != nil {
			t.Fatalf("eval(%d): unexpected error %v", c.v, err)
		}
		if got != c.want {
			t.Fatalf("eval(%d) = %v, want %v", c.v, got, c.want)
		}
	}

	p.clear()
	if p.hasLast {
		t.Fatal("clear() left hasLast set")
	}
	if p.last != 0 {
		t.Fatal("clear() left a non-zero key behind")
	}
}

func TestUntilChangedPredicateCustomEq(t *testing.T) {
	type point struct{ x, y int }
	eqX := func(a, b int) bool { return a == b }
	p := newUntilChangedPredicate[point, int](func(v point) int { return v.x }, eqX)

	boundary, err := p.eval(point{1, 1})
	if err != nil || boundary {
		t.Fatalf("first element: got (%v,%v), want (false,nil)", boundary, err)
	}
	boundary, _ = p.eval(point{1, 99}) // same x, different y: eq only looks at x
	if boundary {
		t.Fatal("expected no boundary when eq-relevant key unchanged")
	}
	boundary, _ = p.eval(point{2, 1})
	if !boundary {
		t.Fatal("expected boundary when x changed")
	}
}
