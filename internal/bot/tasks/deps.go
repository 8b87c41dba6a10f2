// Package tasks implements scheduled tasks for the Moirai oracle bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/moirai-app/moirai/internal/config"
	"github.com/moirai-app/moirai/internal/gemini"
	"github.com/moirai-app/moirai/internal/store"
)

// TaskDeps contains all dependencies required by scheduled tasks.
// It provides access to logging, the state store, the AI client, and
// configuration.
type TaskDeps struct {
	Logger       *slog.Logger
	Store        *store.Store
	GeminiClient gemini.Client
	Config       *config.Config
}
