package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timezone.String() != "Africa/Nairobi" {
		t.Fatalf("timezone = %s", cfg.Timezone)
	}
	if cfg.WorkStart.Hour != 8 || cfg.WorkEnd.Hour != 18 {
		t.Fatalf("work hours = %+v..%+v", cfg.WorkStart, cfg.WorkEnd)
	}
	if cfg.SlotMinutes != 30 || cfg.BufferMinutes != 5 {
		t.Fatalf("slot=%d buffer=%d", cfg.SlotMinutes, cfg.BufferMinutes)
	}
	if cfg.ReminderBatchSize != 50 {
		t.Fatalf("batch size = %d", cfg.ReminderBatchSize)
	}
}

func TestLoadRejectsInvertedWorkHours(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("WORK_START", "18:00")
	t.Setenv("WORK_END", "08:00")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when WORK_START >= WORK_END")
	}
}

func TestLoadRejectsBadClockFormat(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("WORK_START", "8am")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed WORK_START")
	}
}

func TestLoadRejectsBadCronSchedule(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REMINDER_CRON_SCHEDULE", "not a cron spec")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed cron schedule")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET missing")
	}
}
