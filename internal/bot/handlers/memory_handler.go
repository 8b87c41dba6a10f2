package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewForgetHandler returns a handler for /forget <n>, which deletes the nth
// fact of the /facts listing.
func NewForgetHandler(deps HandlerDeps) bot.HandlerFunc {
	return forgetHandler{deps}.Handle
}

type forgetHandler struct {
	deps HandlerDeps
}

func (h forgetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "forget")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Forget handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	ordinal, err := strconv.Atoi(commandArg(update.Message.Text))
	if err != nil {
		sendText(ctx, b, deps, chatID, deps.Config.Messages.UnknownOption)
		return
	}

	fact, ok := deps.Store.FactAt(ordinal)
	if !ok {
		sendText(ctx, b, deps, chatID, deps.Config.Messages.NoSuchFact)
		return
	}

	deps.Store.DeleteFact(fact.ID)
	log.InfoContext(ctx, "Deleted fact", "chat_id", chatID, "fact_id", fact.ID)
	sendText(ctx, b, deps, chatID, deps.Config.Messages.FactForgotten)
}

// NewReviseHandler returns a handler for /revise <n> <text>, which rewrites
// the nth fact of the /facts listing.
func NewReviseHandler(deps HandlerDeps) bot.HandlerFunc {
	return reviseHandler{deps}.Handle
}

type reviseHandler struct {
	deps HandlerDeps
}

func (h reviseHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "revise")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Revise handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	ref, text, _ := strings.Cut(commandArg(update.Message.Text), " ")
	text = strings.TrimSpace(text)
	ordinal, err := strconv.Atoi(ref)
	if err != nil || text == "" {
		sendText(ctx, b, deps, chatID, deps.Config.Messages.UnknownOption)
		return
	}

	fact, ok := deps.Store.FactAt(ordinal)
	if !ok {
		sendText(ctx, b, deps, chatID, deps.Config.Messages.NoSuchFact)
		return
	}

	deps.Store.UpdateFact(fact.ID, text)
	log.InfoContext(ctx, "Revised fact", "chat_id", chatID, "fact_id", fact.ID)
	sendText(ctx, b, deps, chatID, deps.Config.Messages.FactRevised)
}

// NewClearHandler returns a handler for /clear, which resets the
// conversation log to a fresh greeting while keeping facts, summaries, and
// personalization.
func NewClearHandler(deps HandlerDeps) bot.HandlerFunc {
	return clearHandler{deps}.Handle
}

type clearHandler struct {
	deps HandlerDeps
}

func (h clearHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "clear")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Clear handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	deps.Store.ResetToGreeting(deps.Config.Oracle.Greeting(string(deps.Store.Language())))
	log.InfoContext(ctx, "Cleared conversation log", "chat_id", chatID)
	sendText(ctx, b, deps, chatID, deps.Config.Messages.ConversationCleared)
}
