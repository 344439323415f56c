package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/iudanet/chatgate/internal/audit"
	"github.com/iudanet/chatgate/internal/bot"
	"github.com/iudanet/chatgate/internal/chatauth"
	"github.com/iudanet/chatgate/internal/config"
	"github.com/iudanet/chatgate/internal/credit"
	"github.com/iudanet/chatgate/internal/gate"
	"github.com/iudanet/chatgate/internal/identity"
	"github.com/iudanet/chatgate/internal/index"
	"github.com/iudanet/chatgate/internal/invite"
	"github.com/iudanet/chatgate/internal/logger"
	"github.com/iudanet/chatgate/internal/ratelimit"
	"github.com/iudanet/chatgate/internal/scheduler"
	"github.com/iudanet/chatgate/internal/server"
	"github.com/iudanet/chatgate/internal/server/handlers"
	"github.com/iudanet/chatgate/internal/server/middleware"
	"github.com/iudanet/chatgate/internal/server/storage/sqlite"
	"github.com/iudanet/chatgate/internal/sl"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("conf", os.Getenv("CONFIG_PATH"), "path to config file, env only when empty")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg := config.MustLoad(*configPath)

	log, closer, err := logger.Setup(cfg.Env, cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = closer.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("chatgate stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("chatgate stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if !cfg.HTTP.Enabled && !cfg.Telegram.Enabled {
		return errors.New("nothing to run: enable http or telegram")
	}

	log.Info("starting chatgate",
		slog.String("version", Version),
		slog.String("env", cfg.Env),
		slog.String("db", cfg.Database.Path))

	store, err := sqlite.New(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", sl.Err(err))
		}
	}()

	recorder, err := audit.NewRecorder(store, cfg.Database.SpoolPath, log)
	if err != nil {
		return fmt.Errorf("open audit spool: %w", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Error("failed to close audit spool", sl.Err(err))
		}
	}()

	ids := identity.New(store, recorder, log, cfg.Ledger.DefaultCredits)
	if err := ids.BootstrapOwner(ctx, cfg.Telegram.OwnerID, cfg.Ledger.OwnerCredits); err != nil {
		return fmt.Errorf("bootstrap owner: %w", err)
	}

	invites := invite.New(store, recorder, log, invite.Config{
		DefaultTTL:     cfg.Ledger.InviteTTL,
		DefaultCredits: cfg.Ledger.DefaultCredits,
	})
	limiter := ratelimit.New(store, recorder, log, ratelimit.Policy{
		MinInterval:        cfg.Ledger.RateLimit.MinInterval,
		RefreshOnlyOnAllow: cfg.Ledger.RateLimit.RefreshOnlyOnAllow,
		BurstLimit:         cfg.Ledger.RateLimit.BurstLimit,
		BurstWindow:        cfg.Ledger.RateLimit.BurstWindow,
		AutoBan:            cfg.Ledger.RateLimit.AutoBan,
	})
	credits := credit.New(store, recorder, log)
	g := gate.New(store, credits, limiter, recorder, log, gate.Config{SearchCost: cfg.Ledger.SearchCost})
	chats := chatauth.New(store, recorder, log, cfg.Cleanup.SecretRetention)
	idx := index.New(store, g, recorder, log, cfg.Ledger.ContributeGain)

	sched := scheduler.NewScheduler(log, time.Minute)
	for _, job := range scheduler.MaintenanceJobs(cfg.Cleanup, invites, limiter, chats, recorder) {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
	}
	// спул аудита мог остаться после прошлого запуска
	sched.RunAll()
	sched.Start()
	defer sched.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	var tg *bot.TgBot

	if cfg.HTTP.Enabled {
		rl := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst, 10*time.Minute, log)
		defer rl.Stop()

		handler := server.NewRouter(log, server.Deps{
			DB:          store,
			Admins:      ids,
			Invitations: invites,
			Users:       ids,
			Roster:      ids,
			Bans:        limiter,
			Credits:     credits,
			Gate:        g,
			Index:       idx,
			Chats:       chats,
			Audit:       recorder,
			RateLimiter: rl,
			Version:     Version,
			APIKeyHash:  cfg.Auth.APIKeyHash,
			APIActorID:  cfg.Auth.APIActorID,
			Reward:      cfg.Ledger.ContributeGain,
			JWT: handlers.JWTConfig{
				Secret:         []byte(cfg.Auth.JWTSecret),
				AccessTokenTTL: cfg.Auth.TokenTTL,
			},
		})

		srv := server.New(cfg.HTTP.Addr, handler, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	if cfg.Telegram.Enabled {
		tg, err = bot.NewTgBot(cfg.Telegram.Token, bot.Services{
			Identity: ids,
			Invites:  invites,
			Gate:     g,
			Credits:  credits,
			Index:    idx,
			Chats:    chats,
			History:  store,
		}, log, bot.Config{
			OwnerID:     cfg.Telegram.OwnerID,
			DefaultLang: cfg.Telegram.Lang,
			PageSize:    cfg.Telegram.PageSize,
		})
		if err != nil {
			return fmt.Errorf("telegram bot: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tg.Start(); err != nil {
				errCh <- fmt.Errorf("telegram bot: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	log.Info("shutting down")
	cancel()
	if tg != nil {
		tg.Stop()
	}
	wg.Wait()

	return runErr
}

func printVersion() {
	fmt.Printf("chatgate server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
