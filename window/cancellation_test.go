package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/windowflux/reactive"
)

// This file exercises the windowCount/upstream-cancel matrix from design
// §4.3 literally: cancelling only one side must never cancel upstream
// while the other side still holds a reservation, and cancelling both --
// in either order -- always must.

func TestCancelOuterWithNoWindowEverOpenedCancelsUpstreamImmediately(t *testing.T) {
	src := &manualSource[int]{}
	sink := &capturingSink[int]{}
	op := WindowUntil[int](src, func(v int) (bool, error) { return false, nil }, Config[int]{})
	op.Subscribe(sink)

	sink.sub.Cancel()

	assert.True(t, src.subscription.cancelled, "no inner was ever subscribed: cancelling the outer must cancel upstream immediately")
}

func TestCancelOuterWithLiveInnerDoesNotCancelUpstreamUntilInnerCancels(t *testing.T) {
	src := &manualSource[int]{}
	sink := &capturingSink[int]{}
	op := WindowUntil[int](src, func(v int) (bool, error) { return false, nil }, Config[int]{})
	op.Subscribe(sink)

	src.sub.OnNext(1)
	require.Len(t, sink.windows, 1)
	inner := &capturingInner[int]{}
	sink.windows[0].Subscribe(inner)
	inner.sub.Request(10)
	require.Equal(t, []int{1}, inner.values)

	sink.sub.Cancel()
	assert.False(t, src.subscription.cancelled, "an inner subscription is still live: upstream must not cancel yet")

	inner.sub.Cancel()
	assert.True(t, src.subscription.cancelled, "the last reservation was released: upstream must now cancel")
}

func TestCancelInnerFirstThenOuterCancelsUpstream(t *testing.T) {
	src := &manualSource[int]{}
	sink := &capturingSink[int]{}
	op := WindowUntil[int](src, func(v int) (bool, error) { return false, nil }, Config[int]{})
	op.Subscribe(sink)

	src.sub.OnNext(1)
	require.Len(t, sink.windows, 1)
	inner := &capturingInner[int]{}
	sink.windows[0].Subscribe(inner)
	inner.sub.Request(10)

	inner.sub.Cancel()
	assert.False(t, src.subscription.cancelled, "the outer subscription is still live: upstream must not cancel yet")

	sink.sub.Cancel()
	assert.True(t, src.subscription.cancelled, "both sides released: upstream must now cancel")
}

// zeroDemandSink never requests any Window, so every window the operator
// opens stays parked in the main queue, never subscribed, until
// cancellation discards it.
type zeroDemandSink[T any] struct {
	sub reactive.Subscription
}

func (z *zeroDemandSink[T]) OnSubscribe(s reactive.Subscription) { z.sub = s }
func (z *zeroDemandSink[T]) OnNext(*Window[T])                   {}
func (z *zeroDemandSink[T]) OnError(error)                       {}
func (z *zeroDemandSink[T]) OnComplete()                         {}

func TestCancelOuterDiscardsQueuedWindowsAndTheirElements(t *testing.T) {
	src := &manualSource[int]{}
	var discarded []int
	op := WindowUntil[int](src, func(v int) (bool, error) { return v == 0, nil }, Config[int]{
		Discard: reactive.DiscardFunc(func(v any) { discarded = append(discarded, v.(int)) }),
	})
	sink := &zeroDemandSink[int]{}
	op.Subscribe(sink)

	src.sub.OnNext(1)
	src.sub.OnNext(2)

	sink.sub.Cancel()

	assert.ElementsMatch(t, []int{1, 2}, discarded)
	assert.True(t, src.subscription.cancelled)
}
