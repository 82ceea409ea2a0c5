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

import "github.com/xtaci/windowflux/reactive"

// Config collects the construction parameters shared by every exported
// constructor below, so callers only have to assemble it once regardless
// of which boundary mode they pick.
type Config[T any] struct {
	// Prefetch bounds outstanding upstream demand. Zero selects a
	// built-in default.
	Prefetch int64
	// MainQueueFactory builds the queue of not-yet-delivered Windows.
	// Nil selects an unbounded queue.
	MainQueueFactory reactive.QueueFactory[*Window[T]]
	// GroupQueueFactory builds each Window's own element queue. Nil
	// selects an unbounded queue.
	GroupQueueFactory reactive.QueueFactory[T]
	// Discard, if non-nil, observes every element the operator drops
	// without ever delivering it downstream (WHILE-mode boundary
	// elements, or anything discarded on cancellation). reactive.DiscardFunc
	// adapts a plain func(any) to reactive.Context.
	Discard reactive.Context
}

func (c Config[T]) mainQueueFactory() reactive.QueueFactory[*Window[T]] {
	if c.MainQueueFactory != nil {
		return c.MainQueueFactory
	}
	return func() reactive.Queue[*Window[T]] { return reactive.NewUnboundedQueue[*Window[T]]() }
}

func (c Config[T]) groupQueueFactory() reactive.QueueFactory[T] {
	if c.GroupQueueFactory != nil {
		return c.GroupQueueFactory
	}
	return func() reactive.Queue[T] { return reactive.NewUnboundedQueue[T]() }
}

// WindowUntil partitions source into windows that close right after the
// element for which pred returns true; that element is the last member of
// the window it closes.
func WindowUntil[T any](source reactive.Publisher[T], pred func(T) (bool, error), cfg Config[T]) *Operator[T] {
	return NewOperator(source, Until, pred, cfg.Prefetch, cfg.mainQueueFactory(), cfg.groupQueueFactory(), cfg.Discard)
}

// WindowUntilCutBefore partitions source into windows that close right
// before the element for which pred returns true; that element becomes
// the first member of the next window instead of the last of the one it
// closed.
func WindowUntilCutBefore[T any](source reactive.Publisher[T], pred func(T) (bool, error), cfg Config[T]) *Operator[T] {
	return NewOperator(source, UntilCutBefore, pred, cfg.Prefetch, cfg.mainQueueFactory(), cfg.groupQueueFactory(), cfg.Discard)
}

// WindowWhile partitions source into windows separated by elements for
// which pred returns true; those separator elements are dropped, landing
// in neither the window they close nor the one they open.
func WindowWhile[T any](source reactive.Publisher[T], pred func(T) (bool, error), cfg Config[T]) *Operator[T] {
	return NewOperator(source, While, pred, cfg.Prefetch, cfg.mainQueueFactory(), cfg.groupQueueFactory(), cfg.Discard)
}

// WindowUntilChanged is WindowUntilCutBefore driven by a stateful
// predicate that signals a boundary whenever keyFn(v) differs from the
// key of the previously seen element: every window groups a maximal run
// of consecutive elements sharing the same key. A nil eq compares keys
// with Go's built-in ==.
func WindowUntilChanged[T any, K comparable](source reactive.Publisher[T], keyFn func(T) K, eq func(a, b K) bool, cfg Config[T]) *Operator[T] {
	sp := newUntilChangedPredicate[T, K](keyFn, eq)
	op := NewOperator(source, UntilCutBefore, sp.eval, cfg.Prefetch, cfg.mainQueueFactory(), cfg.groupQueueFactory(), cfg.Discard)
	op.predClearer = sp
	return op
}
