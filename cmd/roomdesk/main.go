package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/roomdesk/roomdesk/internal/activity"
	"github.com/roomdesk/roomdesk/internal/calendar"
	appconfig "github.com/roomdesk/roomdesk/internal/config"
	"github.com/roomdesk/roomdesk/internal/handlers"
	"github.com/roomdesk/roomdesk/internal/notify"
	"github.com/roomdesk/roomdesk/internal/outbox"
	"github.com/roomdesk/roomdesk/internal/reminder"
	"github.com/roomdesk/roomdesk/internal/storage"
	"github.com/roomdesk/roomdesk/libs/config"
	"github.com/roomdesk/roomdesk/libs/db"
	"github.com/roomdesk/roomdesk/libs/httpx"
	"github.com/roomdesk/roomdesk/libs/kafkax"
	otelx "github.com/roomdesk/roomdesk/libs/otel"
	"github.com/roomdesk/roomdesk/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "roomdesk")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	cfg, err := appconfig.Load()
	if err != nil {
		logger.Error("config load failed", "err", err)
		panic(err)
	}

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	bookingRepo := storage.NewBookingRepository(pool)
	reminderRepo := storage.NewReminderRepository(pool)
	roomRepo := storage.NewRoomRepository(pool)
	userRepo := storage.NewUserRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	activityRepo := activity.NewRepository(pool)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	cal := buildCalendarClient(logger)
	emailSender := buildEmailSender(logger)
	smsSender := buildSMSSender(logger)

	scheduler := reminder.NewScheduler(reminderRepo)

	publish := func(ctx context.Context, evt outbox.Event) error {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()
		if err := outboxRepo.Insert(ctx, tx, evt); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	dispatcher := reminder.NewDispatcher(logger, reminderRepo, bookingRepo, userRepo, emailSender, smsSender, publish, reminder.DispatcherConfig{
		BatchSize: cfg.ReminderBatchSize,
		Flags: reminder.ChannelFlags{
			JoinNowSMS:    cfg.JoinNowSMS,
			Ending10Email: cfg.Ending10Email,
		},
		Location: cfg.Timezone,
	})
	if err := dispatcher.Start(ctx, cfg.ReminderCronSchedule); err != nil {
		logger.Error("reminder dispatcher start failed", "err", err)
		panic(err)
	}
	logger.Info("reminder dispatcher started", "schedule", cfg.ReminderCronSchedule)

	authHandler := handlers.NewAuthHandler(userRepo, activityRepo, outboxRepo, logger, cfg.JWTSecret, cfg.JWTTTL)
	roomsHandler := handlers.NewRoomsHandler(roomRepo, activityRepo, logger)
	bookingsHandler := handlers.NewBookingsHandler(bookingRepo, userRepo, scheduler, outboxRepo, activityRepo, cal, emailSender, smsSender, &cfg, logger)
	adminHandler := handlers.NewAdminHandler(bookingRepo, reminderRepo, activityRepo, outboxRepo, cal, logger)
	remindersHandler := handlers.NewRemindersHandler(reminderRepo, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	requireAuth := handlers.RequireAuth(cfg.JWTSecret)
	requireAdmin := handlers.RequireAdmin()
	authed := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, requireAuth)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, requireAuth, requireAdmin)
	}

	mux.HandleFunc("/api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.Handle("/api/v1/auth/me", authed(authHandler.Me))

	mux.Handle("/api/v1/rooms", authed(roomsHandler.List))
	mux.Handle("/api/v1/rooms/create", adminOnly(roomsHandler.Create))
	mux.Handle("/api/v1/rooms/update", adminOnly(roomsHandler.Update))
	mux.Handle("/api/v1/rooms/deactivate", adminOnly(roomsHandler.Deactivate))

	mux.HandleFunc("/api/v1/public/day", bookingsHandler.PublicDay)

	mux.Handle("/api/v1/schedule/day", authed(bookingsHandler.Day))
	mux.Handle("/api/v1/reminders/mine", authed(remindersHandler.Mine))
	mux.Handle("/api/v1/bookings", authed(bookingsHandler.Create))
	mux.Handle("/api/v1/bookings/mine", authed(bookingsHandler.Mine))
	mux.Handle("/api/v1/bookings/cancel", authed(bookingsHandler.Cancel))

	mux.Handle("/api/v1/admin/bookings", adminOnly(adminHandler.Bookings))
	mux.Handle("/api/v1/admin/bookings/delete", adminOnly(adminHandler.DeleteBooking))
	mux.Handle("/api/v1/admin/reminders", adminOnly(adminHandler.Reminders))
	mux.Handle("/api/v1/admin/activity", adminOnly(adminHandler.Activity))

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second),
		httpx.WithCORS(parseList(config.String("CORS_ALLOWED_ORIGINS", ""))),
	}
	middlewares = append(middlewares, rateLimitMiddleware(logger))

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "timezone", cfg.Timezone.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func buildCalendarClient(logger *slog.Logger) calendar.Client {
	provider := strings.ToLower(config.String("CALENDAR_PROVIDER", "google"))
	switch provider {
	case "google":
		clientID := config.String("GOOGLE_CLIENT_ID", "")
		clientSecret := config.String("GOOGLE_CLIENT_SECRET", "")
		refreshToken := config.String("GOOGLE_REFRESH_TOKEN", "")
		if clientID == "" || clientSecret == "" || refreshToken == "" {
			logger.Warn("google calendar credentials missing, using noop calendar")
			return calendar.NewNoopClient()
		}
		return calendar.NewGoogleClient(calendar.GoogleConfig{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RefreshToken: refreshToken,
			CalendarID:   config.String("GOOGLE_CALENDAR_ID", "primary"),
		})
	default:
		logger.Info("using noop calendar", "provider", provider)
		return calendar.NewNoopClient()
	}
}

func buildEmailSender(logger *slog.Logger) notify.EmailSender {
	host := config.String("SMTP_HOST", "")
	if host == "" {
		logger.Warn("SMTP_HOST not set, email delivery disabled")
		return notify.NoopEmailSender{}
	}
	return notify.NewSMTPSender(
		host,
		config.String("SMTP_PORT", "587"),
		config.String("SMTP_FROM", "bookings@roomdesk.local"),
		config.String("SMTP_USER", ""),
		config.String("SMTP_PASS", ""),
	)
}

func buildSMSSender(logger *slog.Logger) notify.SMSSender {
	url := config.String("SMS_WEBHOOK_URL", "")
	if url == "" {
		logger.Warn("SMS_WEBHOOK_URL not set, sms delivery disabled")
		return notify.NoopSMSSender{}
	}
	return notify.NewWebhookSMSSender(url, config.String("SMS_WEBHOOK_TOKEN", ""))
}

// rateLimitMiddleware prefers the shared Redis limiter when REDIS_ADDR is
// set; otherwise each instance falls back to its own in-memory window.
func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_REQUESTS", 120)
	window := time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
		})
		limiter := httpx.NewRedisRateLimiter(rdb, limit, window, "roomdesk:rl")
		return limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
	}
	return httpx.NewRateLimiter(limit, window).Middleware()
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
