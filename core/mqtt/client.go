package mqtt

import (
	"context"

	"github.com/macmarek/scheduling-assistant/core/events"
)

// Publisher announces completed scheduling runs to a broker.
type Publisher interface {
	// PublishRun sends the run summary and, for scheduled runs, each
	// participant's agenda. It returns once the broker accepted every
	// message or ctx is done.
	PublishRun(ctx context.Context, run events.RunCompleted) error
}
