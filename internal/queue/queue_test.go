package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxQueueOrder(t *testing.T) {
	pq := NewMax(4)
	pq.PushItem(Item{ID: "b", Score: 0.5})
	pq.PushItem(Item{ID: "a", Score: 0.9})
	pq.PushItem(Item{ID: "d", Score: -0.2})
	pq.PushItem(Item{ID: "c", Score: 0.1})

	require.Equal(t, 4, pq.Len())

	var ids []string
	for pq.Len() > 0 {
		item, ok := pq.PopItem()
		require.True(t, ok)
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestMinQueueOrder(t *testing.T) {
	pq := NewMin(4)
	pq.PushItem(Item{ID: "a", Score: 0.9})
	pq.PushItem(Item{ID: "b", Score: 0.5})
	pq.PushItem(Item{ID: "c", Score: 0.1})

	item, ok := pq.TopItem()
	require.True(t, ok)
	assert.Equal(t, "c", item.ID)

	popped, ok := pq.PopItem()
	require.True(t, ok)
	assert.Equal(t, "c", popped.ID)
	assert.Equal(t, 2, pq.Len())
}

func TestEmptyQueue(t *testing.T) {
	pq := NewMax(0)

	_, ok := pq.TopItem()
	assert.False(t, ok)

	_, ok = pq.PopItem()
	assert.False(t, ok)

	assert.Equal(t, 0, pq.Len())
}

func TestReset(t *testing.T) {
	pq := NewMax(2)
	pq.PushItem(Item{ID: "a", Score: 1})
	pq.PushItem(Item{ID: "b", Score: 2})
	pq.Reset()

	assert.Equal(t, 0, pq.Len())
	_, ok := pq.PopItem()
	assert.False(t, ok)
}
