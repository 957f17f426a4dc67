package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/macmarek/scheduling-assistant/core/events"
	coremon "github.com/macmarek/scheduling-assistant/core/monitoring"
	coremqtt "github.com/macmarek/scheduling-assistant/core/mqtt"
	"github.com/macmarek/scheduling-assistant/infra/logger"
	"github.com/macmarek/scheduling-assistant/internal/eventbus"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records published runs; used in tests.
type MockPublisher struct {
	Runs    []events.RunCompleted
	FailIDs map[string]bool
	mu      sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailIDs: make(map[string]bool)}
}

// PublishRun records the run or fails if its ID is listed in FailIDs.
func (m *MockPublisher) PublishRun(_ context.Context, run events.RunCompleted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[run.RunID] {
		return fmt.Errorf("publish failed")
	}
	m.Runs = append(m.Runs, run)
	return nil
}

// Published returns a copy of the recorded runs.
func (m *MockPublisher) Published() []events.RunCompleted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.RunCompleted(nil), m.Runs...)
}

// StartRunForwarder publishes every RunCompleted event seen on bus until
// ctx is done. The returned channel is closed once the forwarder stopped.
func StartRunForwarder(ctx context.Context, bus eventbus.EventBus, pub Publisher, log logger.Logger) <-chan struct{} {
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		defer coremon.Recover()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				run, ok := ev.(events.RunCompleted)
				if !ok {
					continue
				}
				if err := pub.PublishRun(ctx, run); err != nil {
					log.Errorf("forward run %s: %v", run.RunID, err)
				}
			}
		}
	}()
	return done
}
