package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/moirai-app/moirai/internal/engine"
)

// NewRetryHandler returns a handler for the /retry command, which re-sends
// the most recent failed message to the oracle.
func NewRetryHandler(deps HandlerDeps) bot.HandlerFunc {
	return retryHandler{deps}.Handle
}

type retryHandler struct {
	deps HandlerDeps
}

func (h retryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "retry")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Retry handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /retry command", "chat_id", chatID)

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()

	reply, err := deps.Engine.RetryLastFailed(aiCtx)
	switch {
	case errors.Is(err, engine.ErrNoFailedMessage):
		sendText(ctx, b, deps, chatID, deps.Config.Messages.NoFailedMessage)
	case err != nil:
		log.ErrorContext(ctx, "Retry delivery failed", "error", err, "chat_id", chatID)
		sendText(ctx, b, deps, chatID, deps.Config.Messages.SendFailed)
	default:
		sendText(ctx, b, deps, chatID, reply)
	}
}
