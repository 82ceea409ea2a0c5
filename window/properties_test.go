package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/windowflux/reactive"
)

// flatten concatenates every window's collected values back into a single
// sequence, for checking the partition-completeness invariants of §8.
func flatten[T any](windows [][]T) []T {
	var out []T
	for _, w := range windows {
		out = append(out, w...)
	}
	return out
}

func TestPartitionCompletenessUntil(t *testing.T) {
	items := []int{4, 1, 7, 3, 9, 2, 8, 6, 5, 10, 3, 3}
	source := newSliceSource(items...)
	sink := newRecordingSink[int]()
	op := WindowUntil[int](source, func(v int) (bool, error) { return v == 3, nil }, Config[int]{})
	op.Subscribe(sink)

	assert.Equal(t, items, flatten(sink.contents()))
}

func TestPartitionCompletenessUntilCutBefore(t *testing.T) {
	items := []int{4, 1, 7, 3, 9, 2, 8, 6, 5, 10, 3, 3}
	source := newSliceSource(items...)
	sink := newRecordingSink[int]()
	op := WindowUntilCutBefore[int](source, func(v int) (bool, error) { return v == 3, nil }, Config[int]{})
	op.Subscribe(sink)

	assert.Equal(t, items, flatten(sink.contents()))
}

func TestPartitionCompletenessWhileDropsSeparators(t *testing.T) {
	items := []int{4, 1, 7, 3, 9, 2, 8, 6, 5, 10, 3, 3}
	source := newSliceSource(items...)
	sink := newRecordingSink[int]()
	op := WindowWhile[int](source, func(v int) (bool, error) { return v != 3, nil }, Config[int]{})
	op.Subscribe(sink)

	var want []int
	for _, v := range items {
		if v != 3 {
			want = append(want, v)
		}
	}
	assert.Equal(t, want, flatten(sink.contents()))
}

func TestOrderingWindowsEmittedInOpeningOrderWithIdsIncreasing(t *testing.T) {
	src := &manualSource[int]{}
	sink := &capturingSink[int]{}
	op := WindowUntil[int](src, func(v int) (bool, error) { return v%2 == 0, nil }, Config[int]{})
	op.Subscribe(sink)

	for _, v := range []int{1, 2, 3, 4, 5, 6} {
		src.sub.OnNext(v)
	}
	src.sub.OnComplete()

	require.Len(t, sink.windows, 3)
	for i := 1; i < len(sink.windows); i++ {
		assert.Less(t, sink.windows[i-1].ID(), sink.windows[i].ID())
	}
}

func TestWindowCountNeverNegativeAcrossLifecycle(t *testing.T) {
	src := &manualSource[int]{}
	sink := &capturingSink[int]{}
	op := WindowUntil[int](src, func(v int) (bool, error) { return v%2 == 0, nil }, Config[int]{})
	op.Subscribe(sink)

	for _, v := range []int{1, 2, 3, 4} {
		src.sub.OnNext(v)
		assert.GreaterOrEqual(t, op.ActiveWindows(), int32(0))
	}

	for _, w := range sink.windows {
		inner := &capturingInner[int]{}
		w.Subscribe(inner)
		inner.sub.Request(reactive.Unbounded)
	}
	assert.GreaterOrEqual(t, op.ActiveWindows(), int32(0))

	sink.sub.Cancel()
	assert.GreaterOrEqual(t, op.ActiveWindows(), int32(0))
	assert.EqualValues(t, 0, op.ActiveWindows(), "every window was drained and the outer was cancelled: nothing should still hold a reservation")
	assert.True(t, src.subscription.cancelled)
}

// TestUpstreamRequestStaysWithinBound exercises invariant 6: for a finite
// downstream window demand of N, the cumulative upstream request must
// never exceed N*limit + prefetch + a small constant.
func TestUpstreamRequestStaysWithinBound(t *testing.T) {
	const prefetch = int64(8)
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	source := newSliceSource(items...)
	sink := newRecordingSink[int]()
	op := WindowUntil[int](source, func(v int) (bool, error) { return v%5 == 0, nil }, Config[int]{Prefetch: prefetch})
	op.Subscribe(sink)

	limit := prefetch - (prefetch >> 2)
	n := int64(len(sink.windows))
	const c = 8 // small slack constant, see design ledger Open Question #1
	assert.LessOrEqual(t, source.maxRequested(), n*limit+prefetch+c)
}
