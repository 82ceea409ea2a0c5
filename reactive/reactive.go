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

// Package reactive defines the minimal pull-based Reactive-Streams contract
// consumed by package window. It is an external collaborator, not part of
// the operator itself: concrete Publishers and Subscribers live elsewhere
// and are wired in at construction time. The package also provides the
// mutex-guarded ring-buffer Queue implementations the operator uses by
// default (see queue.go).
package reactive

import "math"

// Unbounded is the sentinel passed to Subscription.Request to mean "no
// limit", matching Reactive-Streams' Long.MAX_VALUE convention.
const Unbounded int64 = math.MaxInt64

// Subscriber receives the serial callback sequence onSubscribe (onNext* (onError | onComplete)?)
// from a Publisher. Implementations must not call back into the
// Subscription synchronously from within OnSubscribe in a way that
// re-enters the Publisher's own subscribe path.
type Subscriber[T any] interface {
	OnSubscribe(Subscription)
	OnNext(T)
	OnError(error)
	OnComplete()
}

// Subscription is the handle a Subscriber uses to pull elements from, and
// cancel, its Publisher.
type Subscription interface {
	// Request signals demand for n more elements. n must be positive;
	// package window's Operator and Window report zero/negative requests
	// as a protocol error back to the requesting Subscriber rather than
	// panicking.
	Request(n int64)
	// Cancel requests that the Publisher stop emitting and release any
	// buffered elements through its discard hook.
	Cancel()
}

// Publisher is a source of elements a Subscriber can pull from under
// backpressure. A Publisher may only be subscribed once in this package's
// usage (window.Window enforces single-subscription; it is not a
// general constraint of the interface).
type Publisher[T any] interface {
	Subscribe(Subscriber[T])
}

// Context carries a per-subscription discard callback in band, the way a
// downstream Subscriber's context would in a full Reactive-Streams
// implementation. OnDiscard is invoked once per element the operator
// decides not to deliver: WHILE-mode separators, elements a full or
// cancelled window rejects, and anything dropped on cancellation.
type Context interface {
	OnDiscard(value any)
}

// DiscardFunc adapts a plain function to Context.
type DiscardFunc func(value any)

// OnDiscard implements Context.
func (f DiscardFunc) OnDiscard(value any) {
	if f != nil {
		f(value)
	}
}

// NoopContext discards nothing; it is the default Context when a caller
// does not care about observing discarded elements.
var NoopContext Context = DiscardFunc(nil)
