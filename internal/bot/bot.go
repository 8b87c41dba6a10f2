// Package bot implements the core bot functionality, lifecycle management,
// and component orchestration for the Moirai Telegram bot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/moirai-app/moirai/internal/config"
	"github.com/moirai-app/moirai/internal/engine"
	"github.com/moirai-app/moirai/internal/store"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	store     *store.Store
	engine    *engine.Engine
	monitor   *engine.Monitor
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot with all required dependencies:
// a logger, configuration, state store, delivery engine, connectivity
// monitor, Telegram client, and scheduler for managing scheduled tasks.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	st *store.Store,
	eng *engine.Engine,
	monitor *engine.Monitor,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		store:     st,
		engine:    eng,
		monitor:   monitor,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on
// context cancellation. It returns an error if any component fails during
// startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")

			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting connectivity monitor...")
		err := b.monitor.Run(gCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("connectivity monitor stopped: %w", err)
		}
		return nil
	})

	// Every offline-to-online transition triggers one sweep of the
	// pending message queue.
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-b.monitor.Events():
				b.logger.InfoContext(gCtx, "Connectivity restored, sweeping offline queue...")
				if err := b.engine.Sweep(gCtx); err != nil {
					b.logger.WarnContext(gCtx, "Offline queue sweep did not complete", "error", err)
				}
			}
		}
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
