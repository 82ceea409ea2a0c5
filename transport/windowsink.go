package transport

import (
	"bufio"
	"io"
	"log"

	"github.com/xtaci/smux"

	"github.com/xtaci/windowflux/reactive"
	"github.com/xtaci/windowflux/window"
)

// windowRequestBatch caps how many lines a single window subscription asks
// for at a time, so one slow smux stream can't let its window buffer grow
// unbounded while waiting on its Write to flush.
const windowRequestBatch = 256

// StreamWindowSink subscribes to a window.Operator[string]'s output and
// relays each emitted window onto its own smux.Stream -- the wire-level
// mirror of the operator's own "each partition is independent" shape,
// grounded on smux.Session.OpenStream being cheap enough to call once per
// logical unit rather than multiplexing units onto a shared stream.
type StreamWindowSink struct {
	session  *smux.Session
	compress bool
	onError  func(error)
	done     chan struct{}
}

func NewStreamWindowSink(session *smux.Session, compress bool, onError func(error)) *StreamWindowSink {
	if onError == nil {
		onError = func(error) {}
	}
	return &StreamWindowSink{session: session, compress: compress, onError: onError, done: make(chan struct{})}
}

// Done is closed once the upstream window sequence has terminated, either
// normally or with an error -- callers that invoked Subscribe from a
// different goroutine than the one driving the underlying source (the
// common case once a real connection is involved) wait on it to know the
// sequence has finished.
func (s *StreamWindowSink) Done() <-chan struct{} { return s.done }

func (s *StreamWindowSink) OnSubscribe(sub reactive.Subscription) { sub.Request(reactive.Unbounded) }

func (s *StreamWindowSink) OnNext(w *window.Window[string]) {
	stream, err := s.session.OpenStream()
	if err != nil {
		s.onError(err)
		return
	}
	var rw io.ReadWriteCloser = stream
	if s.compress {
		rw = NewCompStream(stream)
	}
	w.Subscribe(&streamWindowWriter{id: w.ID(), rw: rw, bw: bufio.NewWriter(rw), onError: s.onError})
}

func (s *StreamWindowSink) OnError(err error) {
	s.onError(err)
	close(s.done)
}

func (s *StreamWindowSink) OnComplete() { close(s.done) }

// streamWindowWriter drains a single Window onto the smux.Stream opened
// for it, one line per element, flushing and closing the stream once the
// window completes or fails.
type streamWindowWriter struct {
	id       int64
	rw       io.ReadWriteCloser
	bw       *bufio.Writer
	sub      reactive.Subscription
	consumed int64
	onError  func(error)
}

func (w *streamWindowWriter) OnSubscribe(sub reactive.Subscription) {
	w.sub = sub
	sub.Request(windowRequestBatch)
}

func (w *streamWindowWriter) OnNext(line string) {
	if _, err := w.bw.WriteString(line); err != nil {
		w.fail(err)
		return
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		w.fail(err)
		return
	}
	w.consumed++
	if w.consumed >= windowRequestBatch/2 {
		w.sub.Request(w.consumed)
		w.consumed = 0
	}
}

func (w *streamWindowWriter) OnError(err error) {
	w.fail(err)
}

func (w *streamWindowWriter) OnComplete() {
	if err := w.bw.Flush(); err != nil {
		log.Printf("transport: window %d: flush on completion: %v", w.id, err)
	}
	w.rw.Close()
}

func (w *streamWindowWriter) fail(err error) {
	w.onError(err)
	w.rw.Close()
}
