// Package main contains the entrypoint for the Moirai oracle bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/moirai-app/moirai/internal/bot"
	"github.com/moirai-app/moirai/internal/bot/handlers"
	"github.com/moirai-app/moirai/internal/bot/tasks"
	"github.com/moirai-app/moirai/internal/config"
	"github.com/moirai-app/moirai/internal/engine"
	"github.com/moirai-app/moirai/internal/gemini"
	"github.com/moirai-app/moirai/internal/logger"
	"github.com/moirai-app/moirai/internal/persist"
	"github.com/moirai-app/moirai/internal/store"
	"github.com/moirai-app/moirai/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// snapshot backend, state store, AI client, engine, bot, scheduler), handles
// graceful shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	snap, closeSnap, err := newSnapshotBackend(cfg.Storage, log)
	if err != nil {
		log.Error("Failed to open snapshot backend", "backend", cfg.Storage.Backend, "error", err)
		return 1
	}
	defer closeSnap()

	state, restored, err := snap.Load()
	if err != nil {
		log.Error("Failed to load persisted state", "error", err)
		return 1
	}
	if !restored {
		state = store.DefaultState()
		log.Info("No persisted state found, starting fresh")
	}

	st := store.New(state, snap, log)

	// A language is picked from the host locale exactly once; after that the
	// seeker's stored choice wins.
	if st.Language() == "" {
		st.SetLanguage(localeLanguage())
		log.Info("Applied locale default language", "language", st.Language())
	}
	st.EnsureInitialGreeting(cfg.Oracle.Greeting(string(st.Language())))

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	eng := engine.New(log, st, gemClient, engine.Config{
		MaxRetries:         cfg.Engine.MaxRetries,
		InitialDelay:       cfg.Engine.InitialDelay,
		BreakerMaxFailures: cfg.Engine.BreakerMaxFailures,
		BreakerCooldown:    cfg.Engine.BreakerCooldown,
		HistoryLimit:       cfg.Oracle.HistoryLimit,
	})

	monitor := engine.NewMonitor(log,
		engine.HTTPProbe(cfg.Net.ProbeURL, cfg.Net.ProbeTimeout),
		cfg.Net.ProbeInterval,
	)

	hDeps := handlers.HandlerDeps{
		Logger:       log,
		Config:       cfg,
		Store:        st,
		Engine:       eng,
		GeminiClient: gemClient,
	}
	tDeps := tasks.TaskDeps{
		Logger:       log,
		Store:        st,
		GeminiClient: gemClient,
		Config:       cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewChatHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	app := bot.NewBot(log, cfg, st, eng, monitor, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

// newSnapshotBackend builds the configured persistence gateway. The returned
// close func is a no-op for backends without resources to release.
func newSnapshotBackend(cfg config.StorageConfig, log *slog.Logger) (persist.Gateway, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		db, err := persist.NewSQLite(cfg.Path, log)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close snapshot database", "error", err)
			}
		}, nil
	case "none":
		return persist.Noop{}, func() {}, nil
	default:
		return persist.NewFile(cfg.Path, log), func() {}, nil
	}
}

// localeLanguage maps the host locale to a supported conversation language.
func localeLanguage() store.Language {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := strings.ToLower(os.Getenv(env))
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "es") {
			return store.LanguageSpanish
		}
		return store.LanguageEnglish
	}
	return store.LanguageEnglish
}
