package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"wedding-rsvp/internal/auth"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/matcher"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/prompt"
	"wedding-rsvp/internal/reminder"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/signup"
	"wedding-rsvp/internal/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, and the WhatsApp bot when enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	m := metrics.New()

	flags, err := a.flagStore(ctx)
	if err != nil {
		return err
	}

	authCfg := cfg.Auth
	if authCfg.JWTSecret == "" {
		authCfg.JWTSecret = randomSecret()
		a.log.Warn().Msg("auth.jwt_secret is not set; using a random secret, sessions will not survive a restart")
	}
	accounts, err := auth.NewService(a.store, authCfg, logger.Component(a.log, "Auth"))
	if err != nil {
		return err
	}

	rsvps := rsvp.NewService(a.store, logger.Component(a.log, "RSVP"),
		rsvp.WithMetrics(m),
		rsvp.WithThrottle(prompt.NewThrottle(flags, loc)),
	)
	policy := prompt.NewPolicy(flags, a.store, rsvps, loc, m, logger.Component(a.log, "Prompt"))
	guestMatcher := matcher.NewMatcher(a.store, cfg.WhatsApp.CountryCode, logger.Component(a.log, "Matcher"))
	orch := signup.NewOrchestrator(accounts, guestMatcher, rsvps, a.store, m, logger.Component(a.log, "Signup"))

	if cfg.WhatsApp.Enabled {
		wa, err := whatsapp.NewService(ctx, cfg.WhatsApp, logger.Component(a.log, "WhatsApp"))
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp service: %w", err)
		}
		replies := handler.NewRSVPHandler(wa, a.store, rsvps, cfg.Wedding, cfg.WhatsApp.CountryCode, logger.Component(a.log, "RSVPHandler"))
		wa.SetMessageHandler(replies.HandleMessage)
		if err := wa.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to WhatsApp: %w", err)
		}
		defer wa.Disconnect()

		if cfg.WhatsApp.RemindersEnabled {
			job := reminder.NewJob(a.store, policy, wa, cfg.Wedding, m, logger.Component(a.log, "Reminder"))
			sched, err := reminder.Schedule(ctx, cfg.WhatsApp.ReminderSpec, loc, job, logger.Component(a.log, "Reminder"))
			if err != nil {
				return err
			}
			defer sched.Stop()
		}
	}

	api := handler.NewAPI(handler.APIDeps{
		Auth:          accounts,
		Signups:       orch,
		RSVPs:         rsvps,
		Prompts:       policy,
		Guests:        a.store,
		Metrics:       m,
		AdminToken:    cfg.HTTP.AdminToken,
		AuthRateLimit: cfg.HTTP.AuthRateLimit,
		Log:           logger.Component(a.log, "HTTP"),
	})
	if cfg.HTTP.AdminToken == "" {
		a.log.Warn().Msg("http.admin_token is not set; admin routes are disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// flagStore picks the prompt flag backend from config
func (a *app) flagStore(ctx context.Context) (prompt.FlagStore, error) {
	pc := a.cfg.Prompt
	if pc.Store != "redis" {
		return prompt.NewMemoryFlagStore(pc.CacheBytes), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     pc.RedisAddr,
		Password: pc.RedisPassword,
		DB:       pc.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", pc.RedisAddr, err)
	}
	a.closers = append(a.closers, client.Close)
	a.log.Info().Str("addr", pc.RedisAddr).Msg("Using redis for prompt flags")
	return prompt.NewRedisFlagStore(client), nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
