// Package main our entry point.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/claim"
	"github.com/johndosdos/chatrooms/internal/config"
	"github.com/johndosdos/chatrooms/internal/format"
	"github.com/johndosdos/chatrooms/internal/handler"
	ratelimiter "github.com/johndosdos/chatrooms/internal/rate_limiter"
	"github.com/johndosdos/chatrooms/internal/room"
	"github.com/johndosdos/chatrooms/internal/store/backend"
	ws "github.com/johndosdos/chatrooms/internal/websocket"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("Server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	log.Println("Starting application...")

	s, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}()

	formatOpts := []format.Option{}
	if cfg.EmojiFile != "" {
		formatOpts = append(formatOpts, format.WithEmojiFile(cfg.EmojiFile))
	}

	limiter := ratelimiter.NewAuthorLimiter(cfg.RateLimitCooldown)
	rooms := room.NewRegistry(cfg.PublicRooms...)

	// hub.Run is our central hub that is always listening for client related events.
	hub := ws.NewHub(s, format.New(formatOpts...), limiter, rooms, ws.Options{
		Location:         cfg.Location(),
		MaxMessageLength: cfg.MaxMessageLength,
	})

	g, ctx := errgroup.WithContext(ctx)

	ipLimiter := ratelimiter.NewIPRateLimiter(ctx, cfg.LoginRateRequests, cfg.LoginRateWindow, ratelimiter.CleanupOpts{
		TTL:      cfg.RateLimitTTL,
		Interval: time.Minute,
	})

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		Handler: handler.NewRouter(handler.Deps{
			Store:  s,
			Hub:    hub,
			Rooms:  rooms,
			Claims: claim.NewBook(),
			Issuer: auth.TokenIssuer{
				Secret:    cfg.JWTSecret,
				Issuer:    cfg.JWTIssuer,
				ExpiresIn: cfg.SessionTTL,
			},
			IPLimiter:     ipLimiter,
			SecureCookies: cfg.SecureCookies,
			WS: handler.WsOptions{
				OriginPatterns: cfg.AllowedOrigins,
				ReadLimit:      cfg.WSReadLimit,
				PingInterval:   cfg.WSPingInterval,
			},
		}),
	}

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		limiter.RunEviction(ctx, ratelimiter.CleanupOpts{
			TTL:      cfg.RateLimitTTL,
			Interval: time.Minute,
		})
		return nil
	})

	g.Go(func() error {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Printf("Shutdown signal received; shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
