package handlers

import (
	"log/slog"

	"github.com/moirai-app/moirai/internal/config"
	"github.com/moirai-app/moirai/internal/engine"
	"github.com/moirai-app/moirai/internal/gemini"
	"github.com/moirai-app/moirai/internal/store"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        *store.Store
	Engine       *engine.Engine
	GeminiClient gemini.Client
}
