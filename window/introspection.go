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

import "sync/atomic"

// Attr names a Scannable field, mirroring the fixed vocabulary Reactor's
// own Scannable.Attr uses for introspecting an operator chain without
// coupling callers to a concrete operator type.
type Attr int

const (
	AttrParent Attr = iota
	AttrActual
	AttrPrefetch
	AttrRequestedFromDownstream
	AttrBuffered
	AttrError
	AttrTerminated
	AttrCancelled
	AttrRunStyle
)

// RunStyle reports how an operator schedules its work. This package never
// introduces its own goroutine or executor, so it is always Synchronous:
// every callback runs on the calling thread, the same contract
// transport.StatsLogger depends on when it samples these operators
// in-line rather than through a queue of its own.
type RunStyle int

const (
	Synchronous RunStyle = iota
)

func (r RunStyle) String() string {
	if r == Synchronous {
		return "SYNC"
	}
	return "UNKNOWN"
}

// Scannable exposes an operator's internal state for diagnostics, the way
// smux exposes Session.NumStreams()/IsClosed() for its own multiplexer
// bookkeeping, generalized to the fixed attribute set an Operator or
// Window reports.
type Scannable interface {
	// ScanAttr returns the current value of attr, or nil if this
	// Scannable does not populate it (e.g. AttrParent on the
	// topmost Operator).
	ScanAttr(attr Attr) any
}

// ScanAttr implements Scannable for Operator.
func (o *Operator[T]) ScanAttr(attr Attr) any {
	switch attr {
	case AttrParent:
		return nil
	case AttrActual:
		return o.actual
	case AttrPrefetch:
		return o.prefetch
	case AttrRequestedFromDownstream:
		return o.requested.Get()
	case AttrBuffered:
		return o.queue.IsEmpty() == false
	case AttrError:
		e, _ := o.err.Load().(error)
		return e
	case AttrTerminated:
		return atomic.LoadInt32(&o.done) != 0
	case AttrCancelled:
		return atomic.LoadInt32(&o.cancelledOuter) != 0
	case AttrRunStyle:
		return Synchronous
	default:
		return nil
	}
}

// ActiveWindows reports the current windowCount, including the operator's
// own reservation -- 1 means no window is currently open or outstanding.
func (o *Operator[T]) ActiveWindows() int32 {
	return atomic.LoadInt32(&o.windowCount)
}

// ScanAttr implements Scannable for Window.
func (w *Window[T]) ScanAttr(attr Attr) any {
	switch attr {
	case AttrParent:
		return w.parent
	case AttrActual:
		return w.subscriber
	case AttrRequestedFromDownstream:
		return w.requested.Get()
	case AttrError:
		e, _ := w.err.Load().(error)
		return e
	case AttrTerminated:
		return atomic.LoadInt32(&w.done) != 0
	case AttrCancelled:
		return atomic.LoadInt32(&w.cancelled) != 0
	case AttrRunStyle:
		return Synchronous
	default:
		return nil
	}
}
