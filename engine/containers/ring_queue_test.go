package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](2)
	assert.True(t, rq.IsEmpty())

	for i := 1; i <= 5; i++ {
		rq.Enqueue(i)
	}
	assert.Equal(t, 5, rq.Len())

	front, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, front)

	for i := 1; i <= 5; i++ {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	_, err = rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = rq.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueGrowAfterWrap(t *testing.T) {
	rq := NewRingQueue[string](3)
	rq.Enqueue("a")
	rq.Enqueue("b")
	rq.Enqueue("c")
	_, _ = rq.Dequeue()
	rq.Enqueue("d") // wraps
	rq.Enqueue("e") // grows

	got := []string{}
	for i := 0; i < rq.Len(); i++ {
		got = append(got, rq.At(i))
	}
	assert.Equal(t, []string{"b", "c", "d", "e"}, got)
}

func TestRingQueueClear(t *testing.T) {
	rq := NewRingQueue[int](0)
	rq.Enqueue(1)
	rq.Enqueue(2)
	rq.Clear()
	assert.True(t, rq.IsEmpty())
	rq.Enqueue(3)
	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestRingQueueAtOutOfRange(t *testing.T) {
	rq := NewRingQueue[int](1)
	assert.Panics(t, func() { rq.At(0) })
}
