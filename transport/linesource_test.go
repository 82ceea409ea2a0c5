package transport

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/windowflux/reactive"
)

type collectingSubscriber struct {
	mu        sync.Mutex
	values    []string
	err       error
	completed bool
	done      chan struct{}
}

func newCollectingSubscriber() *collectingSubscriber {
	return &collectingSubscriber{done: make(chan struct{})}
}

func (c *collectingSubscriber) OnSubscribe(sub reactive.Subscription) { sub.Request(reactive.Unbounded) }

func (c *collectingSubscriber) OnNext(v string) {
	c.mu.Lock()
	c.values = append(c.values, v)
	c.mu.Unlock()
}

func (c *collectingSubscriber) OnError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

func (c *collectingSubscriber) OnComplete() {
	c.mu.Lock()
	c.completed = true
	c.mu.Unlock()
	close(c.done)
}

func (c *collectingSubscriber) snapshot() ([]string, error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.values...), c.err, c.completed
}

func TestLineSourceDeliversEveryLineThenCompletes(t *testing.T) {
	src := NewLineSource(strings.NewReader("alpha\nbeta\ngamma\n"))
	sub := newCollectingSubscriber()
	src.Subscribe(sub)

	<-sub.done
	values, err, completed := sub.snapshot()
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, values)
}

type erroringReader struct{}

func (erroringReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestLineSourcePropagatesScanError(t *testing.T) {
	src := NewLineSource(erroringReader{})
	sub := newCollectingSubscriber()
	src.Subscribe(sub)

	<-sub.done
	_, err, completed := sub.snapshot()
	require.Error(t, err)
	assert.False(t, completed)
}

// boundedRequestSubscriber drains one element at a time, requesting the
// next only after the previous one is delivered, to check the source
// honors strictly incremental demand rather than racing ahead of it.
type boundedRequestSubscriber struct {
	mu        sync.Mutex
	values    []string
	sub       reactive.Subscription
	completed bool
	done      chan struct{}
}

func (b *boundedRequestSubscriber) OnSubscribe(sub reactive.Subscription) {
	b.sub = sub
	sub.Request(1)
}

func (b *boundedRequestSubscriber) OnNext(v string) {
	b.mu.Lock()
	b.values = append(b.values, v)
	b.mu.Unlock()
	b.sub.Request(1)
}

func (b *boundedRequestSubscriber) OnError(error) { close(b.done) }
func (b *boundedRequestSubscriber) OnComplete() {
	b.mu.Lock()
	b.completed = true
	b.mu.Unlock()
	close(b.done)
}

func TestLineSourceHonorsIncrementalRequest(t *testing.T) {
	src := NewLineSource(strings.NewReader("one\ntwo\nthree\n"))
	sub := &boundedRequestSubscriber{done: make(chan struct{})}
	src.Subscribe(sub)

	<-sub.done
	sub.mu.Lock()
	defer sub.mu.Unlock()
	assert.True(t, sub.completed)
	assert.Equal(t, []string{"one", "two", "three"}, sub.values)
}
