package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", update.Message.From.ID)

	language := deps.Store.Language()
	greeting := deps.Config.Oracle.Greeting(string(language))
	deps.Store.EnsureInitialGreeting(greeting)

	// Open with a fresh conversation starter when the oracle is reachable;
	// the static greeting is the fallback.
	opener, err := deps.GeminiClient.GenerateStarter(ctx, language)
	if err != nil {
		log.WarnContext(ctx, "Conversation starter unavailable, using greeting", "error", err)
		opener = greeting
	}

	sendText(ctx, b, deps, chatID, opener)
}
