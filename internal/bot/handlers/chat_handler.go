package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	aiProcessingTimeout = 2 * time.Minute
	sendMessageTimeout  = 10 * time.Second
)

type chatHandler struct {
	deps HandlerDeps
}

// NewChatHandler creates the default handler that routes every plain text
// message through the delivery engine to the oracle.
func NewChatHandler(deps HandlerDeps) bot.HandlerFunc {
	return chatHandler{deps}.Handle
}

func (h chatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "chat")

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return
	}
	// Unrecognized commands fall through to the default handler; they are
	// not conversation.
	if strings.HasPrefix(msg.Text, "/") {
		log.DebugContext(ctx, "Ignoring unrecognized command", "chat_id", msg.Chat.ID)
		return
	}

	chatID := msg.Chat.ID

	if deps.Store.TodaysUserMessageCount() >= deps.Config.Oracle.DailyMessageLimit {
		log.InfoContext(ctx, "Daily message limit reached", "chat_id", chatID, "limit", deps.Config.Oracle.DailyMessageLimit)
		sendText(ctx, b, deps, chatID, deps.Config.Messages.DailyLimitReached)
		return
	}

	log.DebugContext(ctx, "Handling chat message", "chat_id", chatID, "message_id", msg.ID)

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	defer cancel()

	reply, err := deps.Engine.Send(aiCtx, msg.Text)
	if err != nil {
		// The message stays queued as failed; a sweep or /retry will pick
		// it up.
		log.ErrorContext(ctx, "Oracle delivery failed", "error", err, "chat_id", chatID)
		sendText(ctx, b, deps, chatID, deps.Config.Messages.SendFailed)
		return
	}

	sendText(ctx, b, deps, chatID, reply)
}

// sendText sends plain text to the chat with a bounded timeout, logging
// failures instead of propagating them.
func sendText(ctx context.Context, b *bot.Bot, deps HandlerDeps, chatID int64, text string) {
	log := deps.Logger.With("handler", "chat")
	if text == "" {
		log.WarnContext(ctx, "Empty text provided for reply, using fallback", "chat_id", chatID)
		text = deps.Config.Messages.GeneralError
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	if _, err := b.SendMessage(sendCtx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
