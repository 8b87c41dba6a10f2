package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSummariesHandler returns a handler for the /summaries command, which
// lists the oracle's readings of past conversation days.
func NewSummariesHandler(deps HandlerDeps) bot.HandlerFunc {
	return summariesHandler{deps}.Handle
}

type summariesHandler struct {
	deps HandlerDeps
}

func (h summariesHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "summaries")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Summaries handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	summaries := deps.Store.Summaries()
	if len(summaries) == 0 {
		sendText(ctx, b, deps, chatID, deps.Config.Messages.NoSummaries)
		return
	}

	var sb strings.Builder
	sb.WriteString(deps.Config.Messages.SummariesHeader)
	for _, s := range summaries {
		fmt.Fprintf(&sb, "\n\n%s (%s, %d min)\n%s", s.Date, s.OverallEmotion, s.ConversationTime, s.Summary)
	}

	sendText(ctx, b, deps, chatID, sb.String())
}
