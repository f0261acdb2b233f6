package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roomdesk/roomdesk/internal/schedule"
)

// NoopClient is used in development environments without Google credentials.
// It reports an empty calendar and fabricates event identifiers.
type NoopClient struct{}

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (c *NoopClient) ListEvents(_ context.Context, _, _ time.Time) ([]schedule.Event, error) {
	return nil, nil
}

func (c *NoopClient) CreateEvent(_ context.Context, _ EventDetails) (string, error) {
	return "noop-" + uuid.NewString(), nil
}

func (c *NoopClient) DeleteEvent(_ context.Context, _ string) error {
	return nil
}
