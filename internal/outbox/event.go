package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateBooking  = "booking"
	AggregateReminder = "reminder"
	AggregateRoom     = "room"
	AggregateUser     = "user"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingDeleted   = "booking.deleted"
	EventReminderSent     = "reminder.sent"
	EventReminderFailed   = "reminder.failed"
	EventUserRegistered   = "user.registered"
)
