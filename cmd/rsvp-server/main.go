package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/api"
	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/console"
	"wedding-rsvp/internal/dashboard"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/notify"
	"wedding-rsvp/internal/scheduler"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/whatsapp"
)

func main() {
	fmt.Println("💍 Wedding RSVP Server")
	fmt.Println("======================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, newLogger(cfg)); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Goodbye! 👋")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize storage
	store, err := storage.Open(ctx, storage.Config{
		Driver:      cfg.StorageDriver,
		FilePath:    cfg.DataFile,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()
	logger.Info().Str("driver", cfg.StorageDriver).Msg("storage ready")

	senders, wa, err := buildSenders(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if wa != nil {
		defer wa.Disconnect()
	}

	notifier := notify.New(store, senders, notify.Options{Event: cfg.Event(), Location: loc}, logger)
	if len(senders) == 0 {
		logger.Warn().Msg("no notification channel configured, hosts will not be notified")
	} else {
		logger.Info().Strs("channels", notifier.Channels()).Msg("notifications enabled")
	}

	mode, err := handler.ParseNotifyMode(cfg.NotifyMode)
	if err != nil {
		return err
	}
	rsvpHandler := handler.NewRSVPHandler(store, notifier, handler.Config{
		Mode:          mode,
		NotifyTimeout: cfg.NotifyTimeout,
	}, logger)

	// The test endpoint and console option stay unavailable without a channel.
	var tester api.TestSender
	if len(senders) > 0 {
		tester = notifier
	}

	apiHandler := api.NewHandler(rsvpHandler, store, tester, dashboard.NewRenderer(cfg.Event(), loc), api.Options{
		DebugRoutes: cfg.DebugRoutes,
	}, logger)
	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	server := api.NewServer(api.ServerConfig{
		Address:      ":" + cfg.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.NotifyTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}, api.WithAccessLog(logger, mux))

	if cfg.DigestCron != "" {
		sched := scheduler.New(loc, logger)
		if err := sched.Add("digest", cfg.DigestCron, notifier.SendDigest); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	if cfg.Console {
		go console.New(os.Stdin, os.Stdout, store, tester, loc).Run(ctx)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("notify_mode", string(mode)).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	fmt.Println("\n\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.NotifyTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	rsvpHandler.Wait()
	return nil
}

// buildSenders returns the configured notification channels and, when
// WhatsApp is enabled, the connected service so the caller can disconnect it.
func buildSenders(ctx context.Context, cfg *config.Config, logger zerolog.Logger) ([]notify.Sender, *whatsapp.Service, error) {
	var senders []notify.Sender

	switch {
	case len(cfg.HostEmails) == 0:
		logger.Warn().Msg("HOST_EMAILS not set, email notifications disabled")
	case cfg.EmailAPIKey != "":
		senders = append(senders, notify.NewAPISender(notify.APIConfig{
			BaseURL: cfg.EmailAPIURL,
			APIKey:  cfg.EmailAPIKey,
			From:    cfg.EmailFromAddress(),
			To:      cfg.HostEmails,
		}, &http.Client{Timeout: cfg.NotifyTimeout}))
	case cfg.SMTPUser != "" && cfg.SMTPPass != "":
		senders = append(senders, notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFromAddress(),
			To:       cfg.HostEmails,
		}))
	default:
		logger.Warn().Msg("neither RESEND_API_KEY nor EMAIL_USER/EMAIL_PASS set, email notifications disabled")
	}

	if !cfg.WhatsAppEnabled {
		return senders, nil, nil
	}
	if err := os.MkdirAll(cfg.WhatsAppDataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating WhatsApp data dir: %w", err)
	}
	svc, err := whatsapp.NewService(ctx, &whatsapp.Config{
		DataDir:     cfg.WhatsAppDataDir,
		CountryCode: cfg.WhatsAppCountryCode,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing WhatsApp service: %w", err)
	}

	fmt.Println("Connecting to WhatsApp...")
	if err := svc.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connecting to WhatsApp: %w", err)
	}
	fmt.Println("✅ Connected to WhatsApp!")
	return append(senders, notify.NewWhatsAppSender(svc, cfg.WhatsAppHosts)), svc, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stdout
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
