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

import "github.com/pkg/errors"

var (
	// ErrMultipleSubscription is reported to any subscriber beyond the
	// first one that calls Subscribe on an Operator or a Window.
	ErrMultipleSubscription = errors.New("window: multiple subscription is not supported")
	// ErrNonPositiveRequest is reported back when Subscription.Request is
	// called with n <= 0, per the Reactive-Streams rule that this is a
	// protocol violation signaled to the offending subscriber rather than
	// silently ignored or panicked on.
	ErrNonPositiveRequest = errors.New("window: request amount must be positive")
	// ErrMainQueueOverflow surfaces as a terminal error when a bounded
	// mainQueueFactory rejects a newly opened window because its capacity
	// is already exhausted.
	ErrMainQueueOverflow = errors.New("window: main queue overflow")
)

// DroppedErrorHook receives an error that lost the race to become an
// Operator's or Window's terminal error -- e.g. upstream's OnError arriving
// after OnComplete already latched the terminal state, or a Window's
// non-positive Request after that window already completed or failed.
// Default is a no-op; tests override it to observe what would otherwise be
// silently discarded.
var DroppedErrorHook func(error) = func(error) {}
