package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"difcregistry/internal"
)

func TestEventHub_PublishReachesSubscribers(t *testing.T) {
	hub := NewEventHub(internal.NewLogger(internal.LogLevelError))

	ch := hub.Subscribe("run-1")
	other := hub.Subscribe("run-2")

	hub.Publish(RunEvent{RunID: "run-1", Phase: "step1", Progress: 0.5})

	select {
	case event := <-ch:
		assert.Equal(t, "run-1", event.RunID)
		assert.Equal(t, 0.5, event.Progress)
	default:
		t.Fatal("expected event for run-1")
	}

	select {
	case <-other:
		t.Fatal("run-2 subscriber received run-1 event")
	default:
	}
}

func TestEventHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewEventHub(internal.NewLogger(internal.LogLevelError))

	ch := hub.Subscribe("run-1")
	hub.Unsubscribe("run-1", ch)

	_, open := <-ch
	require.False(t, open)

	// Publishing after the last unsubscribe is a no-op.
	hub.Publish(RunEvent{RunID: "run-1"})
}

func TestEventHub_DropsEventsForSlowClients(t *testing.T) {
	hub := NewEventHub(internal.NewLogger(internal.LogLevelError))

	ch := hub.Subscribe("run-1")
	for i := 0; i < cap(ch)+5; i++ {
		hub.Publish(RunEvent{RunID: "run-1", Progress: float64(i)})
	}

	assert.Equal(t, cap(ch), len(ch), "overflow events are dropped, not queued")
}
