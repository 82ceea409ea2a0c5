// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package window

// Mode selects how a boundary element (the predicate returning true) is
// folded into the window partition.
type Mode int

const (
	// Until closes the current window after delivering the boundary
	// element to it; the next element starts a fresh window.
	Until Mode = iota
	// UntilCutBefore closes the current window before the boundary
	// element; the boundary element is the first element of the next
	// window instead of the last of the current one.
	UntilCutBefore
	// While drops the boundary element entirely, using it only as a
	// separator between windows.
	While
)

func (m Mode) String() string {
	switch m {
	case Until:
		return "UNTIL"
	case UntilCutBefore:
		return "UNTIL_CUT_BEFORE"
	case While:
		return "WHILE"
	default:
		return "UNKNOWN"
	}
}

// action is what the operator's drain loop does with one upstream element
// after consulting the predicate, derived once per element from Mode and
// the predicate's verdict.
type action int

const (
	// emitSameWindow appends v to the currently open window.
	emitSameWindow action = iota
	// emitThenClose appends v to the currently open window, then closes it.
	emitThenClose
	// closeThenOpen closes the currently open window (without v), opens a
	// new one, and appends v to the new window.
	closeThenOpen
	// dropCloseOpen closes the currently open window and discards v -- it
	// never reaches any window. The next element opens a fresh window.
	dropCloseOpen
)

// predicate is the per-element boundary test. A Go-idiomatic error return
// replaces the throwing predicate of the originating design: a non-nil
// error terminates the window sequence exactly as an upstream onError
// would, and the predicate is never invoked again afterward.
type predicate[T any] func(T) (bool, error)

// classify turns a predicate's raw verdict on v into the drain action Mode
// dictates. The polarity of "true" is mode-dependent, exactly as spec'd:
// for Until/UntilCutBefore, true means "v is the boundary"; for While,
// true means "v continues the window" and false is the boundary -- a
// distinct convention, not a derived one, so classify switches on mode
// first rather than normalizing to a single isBoundary meaning.
func classify(mode Mode, pred bool) action {
	switch mode {
	case Until:
		if pred {
			return emitThenClose
		}
		return emitSameWindow
	case UntilCutBefore:
		if pred {
			return closeThenOpen
		}
		return emitSameWindow
	case While:
		if pred {
			return emitSameWindow
		}
		return dropCloseOpen
	default:
		if pred {
			return emitThenClose
		}
		return emitSameWindow
	}
}

// untilChangedPredicate implements windowUntilChanged as a stateful
// predicate over Mode UntilCutBefore: it signals a boundary whenever the
// key of the incoming element differs from the key last seen. It is only
// ever invoked from the single-threaded upstream onNext path (the
// Reactive-Streams serial-callback guarantee), so the slot needs no lock
// of its own -- the same assumption package reactive documents for Queue.
type untilChangedPredicate[T any, K comparable] struct {
	keyFn   func(T) K
	eq      func(a, b K) bool
	hasLast bool
	last    K
}

// newUntilChangedPredicate builds the stateful predicate backing
// WindowUntilChanged. A nil eq defaults to Go's built-in == over K.
func newUntilChangedPredicate[T any, K comparable](keyFn func(T) K, eq func(a, b K) bool) *untilChangedPredicate[T, K] {
	if eq == nil {
		eq = func(a, b K) bool { return a == b }
	}
	return &untilChangedPredicate[T, K]{keyFn: keyFn, eq: eq}
}

// eval is the predicate function proper: false for the very first element
// seen (it can never be a boundary, there being no prior window to cut),
// thereafter true exactly when the key changed.
func (p *untilChangedPredicate[T, K]) eval(v T) (bool, error) {
	k := p.keyFn(v)
	if !p.hasLast {
		p.hasLast = true
		p.last = k
		return false, nil
	}
	changed := !p.eq(p.last, k)
	p.last = k
	return changed, nil
}

// clear drops the retained key so it can be collected once the sequence
// reaches a terminal state or is cancelled. Implements the clearer
// interface the Operator checks for after its own state settles.
func (p *untilChangedPredicate[T, K]) clear() {
	var zero K
	p.last = zero
	p.hasLast = false
}

// clearer is implemented by stateful predicates (currently only
// untilChangedPredicate) that hold onto element-derived state between
// calls and need a hook to release it on termination or cancellation.
type clearer interface {
	clear()
}
