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

import (
	"sync/atomic"

	"github.com/xtaci/windowflux/reactive"
)

// Window is both the value MainOperator hands to its own downstream (one
// per partition) and, independently, a reactive.Publisher[T] a caller
// subscribes to in order to pull that partition's elements. It is
// deliberately not a channel: elements already buffered before the
// downstream subscribes (the common case -- a Window arrives only once it
// has at least had its first element classified) stay queued exactly like
// MainOperator's own queue of Windows, under the same pull discipline.
type Window[T any] struct {
	id     int64
	parent *Operator[T]

	queue     reactive.Queue[T]
	requested reactive.Requested
	wip       reactive.Wip

	subscriber reactive.Subscriber[T]
	subscribed int32 // atomic bool: guards Subscribe being honored once

	done      int32 // atomic bool: source (parent) reached a terminal state for this window
	err       atomic.Value
	cancelled int32 // atomic bool: this window stopped accepting/delivering elements
	released     int32 // atomic bool: parent.windowClosed has been called for this window
	received     bool  // set once offer() is ever called with the window live; single-threaded (upstream-serial) access only
	suppressed   int32 // atomic bool: never to be delivered by Operator's own drain loop
	terminalSent int32 // atomic bool: subscriber.OnError/OnComplete already delivered
}

// newWindow allocates a Window backed by the operator's group queue
// factory, the per-partition analogue of smux newStream building a fresh
// Stream with its own buffer off the Session's shared dial.
func newWindow[T any](parent *Operator[T], id int64) *Window[T] {
	return &Window[T]{
		id:     id,
		parent: parent,
		queue:  parent.groupQueueFactory(),
	}
}

// ID reports this window's 1-based sequence number among all windows this
// operator has ever opened, stable for the life of the window and useful
// for logging/introspection.
func (w *Window[T]) ID() int64 { return w.id }

// Subscribe implements reactive.Publisher[T]. Only the first caller is
// honored; a Window is a single-subscription source, like an
// already-dialed smux.Stream.
func (w *Window[T]) Subscribe(s reactive.Subscriber[T]) {
	if !atomic.CompareAndSwapInt32(&w.subscribed, 0, 1) {
		s.OnSubscribe(noopSubscription{})
		s.OnError(ErrMultipleSubscription)
		return
	}
	w.subscriber = s
	s.OnSubscribe(&windowSubscription[T]{w: w})
	w.drain()
}

// offer enqueues v for delivery to this window's eventual subscriber and
// kicks its drain loop, so an already-subscribed window with outstanding
// demand delivers v before the upstream call stack that produced it
// unwinds. Called only from the operator's single-threaded onNext path.
func (w *Window[T]) offer(v T) {
	w.received = true
	if atomic.LoadInt32(&w.cancelled) != 0 {
		w.parent.discardElement(v)
		return
	}
	if !w.queue.Offer(v) {
		w.parent.discardElement(v)
		return
	}
	w.drain()
}

// everReceived reports whether offer was ever called on this window,
// regardless of whether the element was buffered or discarded. Used only
// by Operator.OnComplete's WHILE-mode empty-current suppression rule.
func (w *Window[T]) everReceived() bool { return w.received }

// suppress marks this window as never to be delivered downstream -- the
// WHILE-mode "lazily opened, still empty at completion" window -- and
// releases its windowCount hold as if it had terminated normally.
// Operator.drainOnce skips any queue entry with this flag set instead of
// handing it to the actual subscriber.
func (w *Window[T]) suppress() {
	atomic.StoreInt32(&w.cancelled, 1)
	atomic.StoreInt32(&w.suppressed, 1)
	w.releaseOnce()
}

// isSuppressed reports whether Operator.drainOnce should skip this queue
// entry entirely rather than deliver it.
func (w *Window[T]) isSuppressed() bool { return atomic.LoadInt32(&w.suppressed) != 0 }

// complete marks the window as having no more elements coming, because the
// operator closed it (a boundary fired) or the upstream completed while
// this was the open window.
func (w *Window[T]) complete() {
	if !atomic.CompareAndSwapInt32(&w.done, 0, 1) {
		return
	}
	w.drain()
}

// fail marks the window terminally failed, mirroring onError propagating
// into whichever window was open when the upstream failed. A window can
// only latch one terminal outcome; an err that loses the race (the window
// already completed or failed) is reported to DroppedErrorHook instead of
// silently overwriting the first one.
func (w *Window[T]) fail(err error) {
	if !atomic.CompareAndSwapInt32(&w.done, 0, 1) {
		DroppedErrorHook(err)
		return
	}
	w.err.Store(err)
	w.drain()
}

// request adds n to outstanding demand and resumes draining. A
// non-positive n fails the window and discards whatever is still buffered,
// so the terminal signal is not held behind elements the subscriber never
// requested.
func (w *Window[T]) request(n int64) {
	if n <= 0 {
		w.fail(ErrNonPositiveRequest)
		w.queue.Clear(func(v T) { w.parent.discardElement(v) })
		w.drain()
		return
	}
	w.requested.Add(n)
	w.drain()
}

// cancel stops delivery to this window's subscriber and discards whatever
// remains buffered, then tells the parent operator this window is gone so
// its upstream reference count can drop.
func (w *Window[T]) cancel() {
	if !atomic.CompareAndSwapInt32(&w.cancelled, 0, 1) {
		return
	}
	w.queue.Clear(func(v T) { w.parent.discardElement(v) })
	w.releaseOnce()
}

// releaseOnce drops this window's hold on the parent's windowCount exactly
// once, regardless of whether the release was triggered by cancellation or
// by reaching a terminal state normally.
func (w *Window[T]) releaseOnce() {
	if atomic.CompareAndSwapInt32(&w.released, 0, 1) {
		w.parent.windowClosed()
	}
}

// drain is the per-window serialized emission loop: the classic
// wip-guarded "only the thread that wins 0->1 loops" shape shared with
// Operator.drain, scaled down to a single partition's queue instead of the
// operator's queue of Windows.
func (w *Window[T]) drain() {
	if !w.wip.Enter() {
		return
	}
	missed := int32(1)
	for {
		w.drainOnce()
		missed = 1
		if !w.wip.Leave(missed) {
			return
		}
	}
}

func (w *Window[T]) drainOnce() {
	if w.subscriber == nil {
		return
	}
	for {
		if atomic.LoadInt32(&w.cancelled) != 0 {
			w.queue.Clear(func(v T) { w.parent.discardElement(v) })
			return
		}

		if w.requested.Get() == 0 {
			if atomic.LoadInt32(&w.done) != 0 && w.queue.IsEmpty() {
				w.signalTerminal()
				return
			}
			return
		}

		v, ok := w.queue.Poll()
		if !ok {
			if atomic.LoadInt32(&w.done) != 0 {
				w.signalTerminal()
			}
			return
		}

		w.subscriber.OnNext(v)
		w.requested.Sub(1)
	}
}

func (w *Window[T]) signalTerminal() {
	if !atomic.CompareAndSwapInt32(&w.terminalSent, 0, 1) {
		return
	}
	defer w.releaseOnce()
	if e, _ := w.err.Load().(error); e != nil {
		w.subscriber.OnError(e)
		return
	}
	w.subscriber.OnComplete()
}

// windowSubscription is the Subscription a Window's subscriber uses to
// pull from, and cancel, that single partition.
type windowSubscription[T any] struct {
	w *Window[T]
}

func (s *windowSubscription[T]) Request(n int64) { s.w.request(n) }
func (s *windowSubscription[T]) Cancel()          { s.w.cancel() }

// noopSubscription is handed to a second, rejected Subscribe attempt; it
// accepts calls without effect since the sequence is already failed.
type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}
