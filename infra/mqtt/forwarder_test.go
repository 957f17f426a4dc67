package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmarek/scheduling-assistant/core/events"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/internal/eventbus"
)

func TestRunForwarderPublishesRuns(t *testing.T) {
	bus := eventbus.New()
	pub := NewMockPublisher()
	pub.FailIDs["bad"] = true
	ctx, cancel := context.WithCancel(context.Background())
	done := StartRunForwarder(ctx, bus, pub, nil)

	bus.Publish("not a run")
	bus.Publish(events.RunCompleted{RunID: "bad"})
	bus.Publish(events.RunCompleted{RunID: "r1", Outcome: model.OutcomeScheduled})

	require.Eventually(t, func() bool { return len(pub.Published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "r1", pub.Published()[0].RunID)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
}

func TestRunForwarderStopsWhenBusCloses(t *testing.T) {
	bus := eventbus.New()
	done := StartRunForwarder(context.Background(), bus, NewMockPublisher(), nil)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
}
