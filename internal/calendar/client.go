package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/roomdesk/roomdesk/internal/schedule"
)

// ErrAuthExpired signals that the provider refused our credentials and the
// stored refresh token must be re-issued. Callers surface this distinctly so
// an operator can re-authorize instead of retrying.
var ErrAuthExpired = errors.New("calendar authorization expired")

type EventDetails struct {
	Title       string
	Start       time.Time
	End         time.Time
	MeetingLink string
}

// Client is the external calendar collaborator. ListEvents returns every
// non-cancelled busy block between timeMin and timeMax.
type Client interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]schedule.Event, error)
	CreateEvent(ctx context.Context, details EventDetails) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}
