package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	libconfig "github.com/roomdesk/roomdesk/libs/config"
	"github.com/roomdesk/roomdesk/internal/schedule"
)

// Config is read once at process start and immutable thereafter.
// Validation failures here are fatal before the server binds.
type Config struct {
	Timezone      *time.Location
	WorkStart     schedule.Clock
	WorkEnd       schedule.Clock
	SlotMinutes   int
	BufferMinutes int

	ReminderCronSchedule string
	ReminderBatchSize    int
	JoinNowSMS           bool
	Ending10Email        bool

	JWTSecret string
	JWTTTL    time.Duration
}

func Load() (Config, error) {
	tzName := libconfig.String("TIMEZONE", "Africa/Nairobi")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}

	workStart, err := schedule.ParseClock(libconfig.String("WORK_START", "08:00"))
	if err != nil {
		return Config{}, fmt.Errorf("WORK_START: %w", err)
	}
	workEnd, err := schedule.ParseClock(libconfig.String("WORK_END", "18:00"))
	if err != nil {
		return Config{}, fmt.Errorf("WORK_END: %w", err)
	}
	if workStart.Minutes() >= workEnd.Minutes() {
		return Config{}, fmt.Errorf("work hours: WORK_START %02d:%02d must be before WORK_END %02d:%02d",
			workStart.Hour, workStart.Minute, workEnd.Hour, workEnd.Minute)
	}

	slotMinutes := libconfig.Int("SLOT_MINUTES", 30)
	if slotMinutes <= 0 {
		return Config{}, fmt.Errorf("SLOT_MINUTES must be positive (got %d)", slotMinutes)
	}
	bufferMinutes := libconfig.Int("BUFFER_MINUTES", 5)
	if bufferMinutes < 0 {
		return Config{}, fmt.Errorf("BUFFER_MINUTES must not be negative (got %d)", bufferMinutes)
	}

	cronSpec := libconfig.String("REMINDER_CRON_SCHEDULE", "* * * * *")
	if _, err := cron.ParseStandard(cronSpec); err != nil {
		return Config{}, fmt.Errorf("REMINDER_CRON_SCHEDULE: %w", err)
	}

	batchSize := libconfig.Int("REMINDER_BATCH_SIZE", 50)
	if batchSize <= 0 {
		batchSize = 50
	}

	secret, err := libconfig.RequiredString("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	ttlMinutes := libconfig.Int("JWT_TTL_MINUTES", 24*60)
	if ttlMinutes <= 0 {
		ttlMinutes = 24 * 60
	}

	return Config{
		Timezone:             loc,
		WorkStart:            workStart,
		WorkEnd:              workEnd,
		SlotMinutes:          slotMinutes,
		BufferMinutes:        bufferMinutes,
		ReminderCronSchedule: cronSpec,
		ReminderBatchSize:    batchSize,
		JoinNowSMS:           libconfig.Bool("JOIN_NOW_SMS", false),
		Ending10Email:        libconfig.Bool("ENDING_10_EMAIL", false),
		JWTSecret:            secret,
		JWTTTL:               time.Duration(ttlMinutes) * time.Minute,
	}, nil
}
