package window

import (
	"sync"

	"github.com/xtaci/windowflux/reactive"
)

// sliceSource is a synchronous, request-driven reactive.Publisher built
// from a fixed slice: the minimal upstream double the operator needs. It
// honors the Reactive-Streams Request/Cancel contract without any
// scheduling of its own, so a handful of Request calls deterministically
// replay through Operator's single-threaded onNext path -- the same
// "drive everything off one goroutine, assert the exact sequence" style
// smux's own stream tests use against an in-memory net.Pipe.
type sliceSource[T any] struct {
	items []T
	sub   *sliceSourceSubscription[T]
}

func newSliceSource[T any](items ...T) *sliceSource[T] {
	return &sliceSource[T]{items: items}
}

func (p *sliceSource[T]) Subscribe(s reactive.Subscriber[T]) {
	sub := &sliceSourceSubscription[T]{items: p.items, sub: s}
	p.sub = sub
	s.OnSubscribe(sub)
}

// maxRequested reports the high-water mark of cumulative upstream demand
// issued across the whole subscription, used to check the request-sanity
// invariant in §8.
func (p *sliceSource[T]) maxRequested() int64 {
	if p.sub == nil {
		return 0
	}
	return p.sub.maxRequested
}

type sliceSourceSubscription[T any] struct {
	items        []T
	idx          int
	sub          reactive.Subscriber[T]
	requested    int64
	draining     bool
	cancelled    bool
	completed    bool
	maxRequested int64
	totalRequest int64
}

func (s *sliceSourceSubscription[T]) Request(n int64) {
	if n <= 0 {
		return
	}
	s.totalRequest += n
	if s.totalRequest > s.maxRequested {
		s.maxRequested = s.totalRequest
	}
	if s.requested > reactive.Unbounded-n {
		s.requested = reactive.Unbounded
	} else {
		s.requested += n
	}
	if s.draining || s.cancelled || s.completed {
		return
	}
	s.draining = true
	for s.requested > 0 && s.idx < len(s.items) && !s.cancelled {
		v := s.items[s.idx]
		s.idx++
		s.requested--
		s.sub.OnNext(v)
	}
	if !s.cancelled && !s.completed && s.idx >= len(s.items) {
		s.completed = true
		s.sub.OnComplete()
	}
	s.draining = false
}

func (s *sliceSourceSubscription[T]) Cancel() { s.cancelled = true }

// manualSource hands control of element/terminal delivery entirely to the
// test: the caller reaches into manualSource.sub directly, the way a
// hand-rolled reactive.Subscriber double would in the absence of a real
// upstream, so cancellation ordering (the whole point of the §4.3
// scenarios) can be driven element by element.
type manualSource[T any] struct {
	sub          reactive.Subscriber[T]
	subscription *manualSubscription
}

type manualSubscription struct {
	cancelled bool
	requests  []int64
}

func (m *manualSubscription) Request(n int64) { m.requests = append(m.requests, n) }
func (m *manualSubscription) Cancel()         { m.cancelled = true }

func (s *manualSource[T]) Subscribe(sub reactive.Subscriber[T]) {
	s.sub = sub
	s.subscription = &manualSubscription{}
	sub.OnSubscribe(s.subscription)
}

// windowRecord captures one emitted Window's full observed lifecycle.
type windowRecord[T any] struct {
	values    []T
	err       error
	completed bool
}

// recordingSink subscribes eagerly (or to a fixed window demand) and, for
// every Window it receives, immediately subscribes an inner collector
// that drains it to completion -- the "just collect everything" shape
// used by most of the partition-completeness tests.
type recordingSink[T any] struct {
	mu            sync.Mutex
	windows       []*windowRecord[T]
	err           error
	completed     bool
	sub           reactive.Subscription
	windowDemand  int64 // 0 means reactive.Unbounded
	elementDemand int64 // 0 means reactive.Unbounded, applied to every inner window
}

func newRecordingSink[T any]() *recordingSink[T] {
	return &recordingSink[T]{}
}

func (r *recordingSink[T]) OnSubscribe(s reactive.Subscription) {
	r.sub = s
	n := r.windowDemand
	if n <= 0 {
		n = reactive.Unbounded
	}
	s.Request(n)
}

func (r *recordingSink[T]) OnNext(w *Window[T]) {
	rec := &windowRecord[T]{}
	r.mu.Lock()
	r.windows = append(r.windows, rec)
	r.mu.Unlock()
	w.Subscribe(&recordingInner[T]{rec: rec, demand: r.elementDemand})
}

func (r *recordingSink[T]) OnError(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recordingSink[T]) OnComplete() {
	r.mu.Lock()
	r.completed = true
	r.mu.Unlock()
}

// contents returns a snapshot of every emitted window's collected values,
// in emission order.
func (r *recordingSink[T]) contents() [][]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]T, len(r.windows))
	for i, w := range r.windows {
		out[i] = append([]T{}, w.values...)
	}
	return out
}

type recordingInner[T any] struct {
	rec    *windowRecord[T]
	demand int64
	sub    reactive.Subscription
}

func (in *recordingInner[T]) OnSubscribe(s reactive.Subscription) {
	in.sub = s
	n := in.demand
	if n <= 0 {
		n = reactive.Unbounded
	}
	s.Request(n)
}

func (in *recordingInner[T]) OnNext(v T)        { in.rec.values = append(in.rec.values, v) }
func (in *recordingInner[T]) OnError(err error) { in.rec.err = err }
func (in *recordingInner[T]) OnComplete()       { in.rec.completed = true }

// capturingSink records each emitted Window reference without subscribing
// to it, leaving the test free to subscribe (or never subscribe) an inner
// collector on its own schedule -- required to exercise the §4.3
// cancellation-ordering matrix.
type capturingSink[T any] struct {
	sub       reactive.Subscription
	windows   []*Window[T]
	err       error
	completed bool
}

func (c *capturingSink[T]) OnSubscribe(s reactive.Subscription) {
	c.sub = s
	s.Request(reactive.Unbounded)
}

func (c *capturingSink[T]) OnNext(w *Window[T]) { c.windows = append(c.windows, w) }
func (c *capturingSink[T]) OnError(err error)   { c.err = err }
func (c *capturingSink[T]) OnComplete()         { c.completed = true }

type capturingInner[T any] struct {
	sub       reactive.Subscription
	values    []T
	completed bool
	err       error
}

func (c *capturingInner[T]) OnSubscribe(s reactive.Subscription) { c.sub = s }
func (c *capturingInner[T]) OnNext(v T)                          { c.values = append(c.values, v) }
func (c *capturingInner[T]) OnError(err error)                   { c.err = err }
func (c *capturingInner[T]) OnComplete()                         { c.completed = true }

// takeOneSink models a downstream that, per window, wants only the first
// element and then walks away -- the shape the discard scenario in §8
// needs (main-level discards happen because the operator keeps pushing
// into a window its own subscriber already cancelled).
type takeOneSink[T any] struct {
	sub     reactive.Subscription
	emitted []T
}

func (s *takeOneSink[T]) OnSubscribe(sub reactive.Subscription) {
	s.sub = sub
	sub.Request(reactive.Unbounded)
}

func (s *takeOneSink[T]) OnNext(w *Window[T]) { w.Subscribe(&takeOneInner[T]{parent: s}) }
func (s *takeOneSink[T]) OnError(error)       {}
func (s *takeOneSink[T]) OnComplete()         {}

type takeOneInner[T any] struct {
	parent *takeOneSink[T]
	sub    reactive.Subscription
	got    bool
}

func (in *takeOneInner[T]) OnSubscribe(s reactive.Subscription) {
	in.sub = s
	s.Request(1)
}

func (in *takeOneInner[T]) OnNext(v T) {
	if in.got {
		return
	}
	in.got = true
	in.parent.emitted = append(in.parent.emitted, v)
	in.sub.Cancel()
}

func (in *takeOneInner[T]) OnError(error) {}
func (in *takeOneInner[T]) OnComplete()   {}
