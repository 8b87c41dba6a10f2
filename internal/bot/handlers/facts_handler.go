package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewFactsHandler returns a handler for the /facts command, which lists
// everything the oracle remembers about the seeker.
func NewFactsHandler(deps HandlerDeps) bot.HandlerFunc {
	return factsHandler{deps}.Handle
}

type factsHandler struct {
	deps HandlerDeps
}

func (h factsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "facts")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Facts handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	facts := deps.Store.Facts()
	if len(facts) == 0 {
		sendText(ctx, b, deps, chatID, deps.Config.Messages.NoFacts)
		return
	}

	// Numbered so /forget and /revise can reference entries by position.
	var sb strings.Builder
	sb.WriteString(deps.Config.Messages.FactsHeader)
	for i, fact := range facts {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, fact)
	}

	sendText(ctx, b, deps, chatID, sb.String())
}
