package transport

import (
	"bufio"
	"io"
	"sync"

	"github.com/xtaci/windowflux/reactive"
)

// LineSource adapts a newline-delimited io.Reader -- the local listener
// connection a client command accepts -- into a pull-based
// reactive.Publisher[string]. One background goroutine does the blocking
// bufio.Scanner reads into a bounded channel; a single per-subscription
// loop goroutine drains that channel only when there is outstanding
// demand, so the operator's own Request contract is honored without a
// busy loop.
type LineSource struct {
	scanner *bufio.Scanner
	lines   chan string
	errs    chan error
	once    sync.Once
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{
		scanner: bufio.NewScanner(r),
		lines:   make(chan string, 64),
		errs:    make(chan error, 1),
	}
}

func (l *LineSource) start() {
	l.once.Do(func() {
		go func() {
			defer close(l.lines)
			for l.scanner.Scan() {
				l.lines <- l.scanner.Text()
			}
			if err := l.scanner.Err(); err != nil {
				l.errs <- err
			}
		}()
	})
}

func (l *LineSource) Subscribe(s reactive.Subscriber[string]) {
	l.start()
	sub := newLineSourceSubscription(l, s)
	s.OnSubscribe(sub)
}

type lineSourceSubscription struct {
	src       *LineSource
	sub       reactive.Subscriber[string]
	mu        sync.Mutex
	requested int64
	wake      chan struct{}
	cancelled bool
}

func newLineSourceSubscription(src *LineSource, sub reactive.Subscriber[string]) *lineSourceSubscription {
	s := &lineSourceSubscription{src: src, sub: sub, wake: make(chan struct{}, 1)}
	go s.loop()
	return s
}

func (s *lineSourceSubscription) Request(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.requested += n
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *lineSourceSubscription) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *lineSourceSubscription) loop() {
	for {
		s.mu.Lock()
		have := s.requested
		done := s.cancelled
		s.mu.Unlock()
		if done {
			return
		}
		if have <= 0 {
			<-s.wake
			continue
		}

		line, ok := <-s.src.lines
		s.mu.Lock()
		done = s.cancelled
		s.mu.Unlock()
		if done {
			return
		}
		if !ok {
			select {
			case err := <-s.src.errs:
				s.sub.OnError(err)
			default:
				s.sub.OnComplete()
			}
			return
		}

		s.mu.Lock()
		s.requested--
		s.mu.Unlock()
		s.sub.OnNext(line)
	}
}
