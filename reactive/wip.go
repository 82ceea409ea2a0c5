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

// Wip is the classic work-in-progress serialization counter: the thread
// that bumps it from 0 to 1 owns the drain loop and must keep looping
// until the decrement brings it back to 0; any other thread that bumps it
// past 0 only schedules more work for whoever is already draining.
type Wip struct {
	n int32
}

// Enter returns true if the caller became the drainer (transitioned the
// counter from 0), false if it merely registered more pending work for an
// already-running drain.
func (w *Wip) Enter() bool {
	return atomic.AddInt32(&w.n, 1) == 1
}

// Leave subtracts n (the amount of work the drain loop just believes it
// has fully accounted for, conventionally 1) and reports whether the
// drainer should keep looping (true) or may stop (false, counter reached
// 0).
func (w *Wip) Leave(n int32) bool {
	return atomic.AddInt32(&w.n, -n) != 0
}
