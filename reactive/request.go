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

package reactive

import "sync/atomic"

// Requested is a non-saturating-until-Unbounded additive request counter,
// the same shape as smux.Session's atomic token bucket (bucket int32,
// returnTokens/notifyBucket adding and subtracting concurrently) but sized
// for Reactive-Streams' int64 demand and its MAX-is-terminal convention.
type Requested struct {
	n int64
}

// Add folds n into the outstanding request count. Once the counter has
// latched to Unbounded it stays there; overflow additions otherwise
// saturate at Unbounded rather than wrapping.
func (r *Requested) Add(n int64) int64 {
	for {
		cur := atomic.LoadInt64(&r.n)
		if cur == Unbounded {
			return Unbounded
		}
		next := cur + n
		if next < 0 || next >= Unbounded { // overflow or reached the unbounded sentinel
			next = Unbounded
		}
		if atomic.CompareAndSwapInt64(&r.n, cur, next) {
			return next
		}
	}
}

// Sub consumes n units of previously granted request, typically called
// once per element actually delivered. It is a no-op once the counter is
// latched to Unbounded.
func (r *Requested) Sub(n int64) int64 {
	for {
		cur := atomic.LoadInt64(&r.n)
		if cur == Unbounded {
			return Unbounded
		}
		next := cur - n
		if next < 0 {
			next = 0
		}
		if atomic.CompareAndSwapInt64(&r.n, cur, next) {
			return next
		}
	}
}

// Get returns the current outstanding request.
func (r *Requested) Get() int64 {
	return atomic.LoadInt64(&r.n)
}
