package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotBroadcaster_FanOut(t *testing.T) {
	b := NewSnapshotBroadcaster(2)
	first := b.Subscribe()
	second := b.Subscribe()
	require.Equal(t, 2, b.Subscribers())

	b.Publish(Snapshot{Pair: "BTC_USD"})

	assert.Equal(t, "BTC_USD", (<-first).Pair)
	assert.Equal(t, "BTC_USD", (<-second).Pair)
}

func TestSnapshotBroadcaster_DropsWhenFull(t *testing.T) {
	b := NewSnapshotBroadcaster(1)
	ch := b.Subscribe()

	b.Publish(Snapshot{Pair: "first"})
	b.Publish(Snapshot{Pair: "second"})

	assert.Equal(t, "first", (<-ch).Pair)
	select {
	case s := <-ch:
		t.Fatalf("unexpected snapshot %q", s.Pair)
	default:
	}
}

func TestSnapshotBroadcaster_Unsubscribe(t *testing.T) {
	b := NewSnapshotBroadcaster(0)
	ch := b.Subscribe()

	b.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, b.Subscribers())

	// second unsubscribe is a no-op and publish has no one to reach
	b.Unsubscribe(ch)
	b.Publish(Snapshot{})
}
