package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewResetHandler returns a handler for the admin-only /reset command,
// which wipes all conversation data, facts, and summaries while keeping
// the seeker's language and personality choices.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "reset")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Reset handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /reset command", "chat_id", chatID, "user_id", update.Message.From.ID)

	greeting := deps.Config.Oracle.Greeting(string(deps.Store.Language()))
	deps.Store.ClearAllData(greeting)

	sendText(ctx, b, deps, chatID, deps.Config.Messages.DataCleared)
}
