// Package main provides the entrypoint for the bot backend API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/api"
	"github.com/tusbot/tusbot/internal/api/middleware"
	"github.com/tusbot/tusbot/internal/api/token"
	"github.com/tusbot/tusbot/internal/bus"
	"github.com/tusbot/tusbot/internal/bus/santander"
	"github.com/tusbot/tusbot/internal/clock"
	"github.com/tusbot/tusbot/internal/credential"
	"github.com/tusbot/tusbot/internal/database"
	"github.com/tusbot/tusbot/internal/notify"
	"github.com/tusbot/tusbot/internal/resilience"
	"github.com/tusbot/tusbot/internal/schedule"
	"github.com/tusbot/tusbot/internal/scheduler"
	"github.com/tusbot/tusbot/internal/telemetry"
	"github.com/tusbot/tusbot/internal/timeclock/kronos"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tusbot-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting tusbot API")

	port := getEnvOrDefault("APP_PORT", "8080")
	env := getEnvOrDefault("APP_ENV", "development")
	otlpEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	timeSource, err := clock.New(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load timezone")
	}

	// Bus query pipeline: open-data feeds behind a resilient client, cached
	// service, composer.
	provider := santander.NewClient(santander.ClientConfig{
		Logger: log.With().Str("component", "santander").Logger(),
	})

	adjustment := bus.DefaultRealTimeAdjustment
	if raw := os.Getenv("TUS_REALTIME_ADJUSTMENT_SECONDS"); raw != "" {
		seconds, convErr := strconv.Atoi(raw)
		if convErr != nil {
			log.Fatal().Err(convErr).Msg("invalid TUS_REALTIME_ADJUSTMENT_SECONDS")
		}
		adjustment = time.Duration(seconds) * time.Second
	}

	busService := bus.NewService(bus.ServiceConfig{
		Provider:           provider,
		Time:               timeSource,
		Logger:             log.With().Str("component", "bus").Logger(),
		RealTimeAdjustment: adjustment,
	})
	composer := bus.NewComposer(busService, log.With().Str("component", "composer").Logger())

	// Timeclock pipeline: encrypted credentials, weekly jobs, browser
	// automation, user notifications.
	passphrase := os.Getenv("KRONOS_CREDENTIALS_SECRET")
	if passphrase == "" {
		log.Fatal().Msg("KRONOS_CREDENTIALS_SECRET is required")
	}
	cipher, err := credential.NewCipher(passphrase)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid KRONOS_CREDENTIALS_SECRET")
	}

	credentialService := credential.NewService(
		credential.NewPostgresRepository(pool),
		cipher,
		log.With().Str("component", "credential").Logger(),
	)

	scheduleService := schedule.NewService(
		schedule.NewPostgresRepository(pool),
		log.With().Str("component", "schedule").Logger(),
	)

	var notifier scheduler.Notifier
	if webhookURL := os.Getenv("NOTIFY_WEBHOOK_URL"); webhookURL != "" {
		notifier = notify.NewWebhookNotifier(
			webhookURL,
			resilience.NewClient(resilience.ClientConfig{Name: "notify-webhook"}),
			log.With().Str("component", "notify").Logger(),
		)
	} else {
		log.Warn().Msg("NOTIFY_WEBHOOK_URL not set, notifications go to the log")
		notifier = notify.NewLogNotifier(log.With().Str("component", "notify").Logger())
	}

	timeclockClient := kronos.NewClient(kronos.ClientConfig{
		URL:    os.Getenv("KRONOS_URL"),
		Logger: log.With().Str("component", "kronos").Logger(),
	})

	jobs := scheduler.New(
		scheduler.Config{},
		schedule.NewPostgresRepository(pool),
		credentialService,
		timeclockClient,
		notifier,
		timeSource,
		log.With().Str("component", "scheduler").Logger(),
	)
	if err := jobs.InitAll(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scheduled jobs")
	}
	defer jobs.CancelAll()

	internalKey := os.Getenv("INTERNAL_API_KEY")
	if internalKey == "" {
		log.Fatal().Msg("INTERNAL_API_KEY is required")
	}

	tokenSecret := os.Getenv("PANEL_TOKEN_SECRET")
	if tokenSecret == "" {
		log.Fatal().Msg("PANEL_TOKEN_SECRET is required")
	}
	tokenIssuer, err := token.NewIssuer(token.IssuerConfig{Secret: []byte(tokenSecret)})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid PANEL_TOKEN_SECRET")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		Metrics:           metrics,
		InternalKey:       internalKey,
		Composer:          composer,
		ScheduleService:   scheduleService,
		CredentialService: credentialService,
		TokenIssuer:       tokenIssuer,
		Jobs:              jobs,
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
