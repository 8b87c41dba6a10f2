package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/moirai-app/moirai/internal/store"
)

// commandArg returns the text after the command word, trimmed.
func commandArg(text string) string {
	_, arg, _ := strings.Cut(text, " ")
	return strings.TrimSpace(arg)
}

// NewNameHandler returns a handler for /name <name>, which sets how the
// oracle addresses the seeker.
func NewNameHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingHandler{deps, "name", func(deps HandlerDeps, arg string) (string, bool) {
		if arg == "" {
			return "", false
		}
		deps.Store.SetUserName(arg)
		return deps.Config.Messages.SettingSaved, true
	}}.Handle
}

// NewGenderHandler returns a handler for /gender <male|female|non-binary>.
func NewGenderHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingHandler{deps, "gender", func(deps HandlerDeps, arg string) (string, bool) {
		g, ok := store.ParseGender(arg)
		if !ok {
			return "", false
		}
		deps.Store.SetUserGender(g)
		return deps.Config.Messages.SettingSaved, true
	}}.Handle
}

// NewPersonalityHandler returns a handler for
// /personality <wise|direct|poetic>.
func NewPersonalityHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingHandler{deps, "personality", func(deps HandlerDeps, arg string) (string, bool) {
		p, ok := store.ParsePersonality(arg)
		if !ok {
			return "", false
		}
		deps.Store.SetPersonality(p)
		return deps.Config.Messages.SettingSaved, true
	}}.Handle
}

// NewLanguageHandler returns a handler for /language <en|es>. Switching the
// language also rewrites the greeting that seeds the log, so the sentinel
// message matches the seeker's choice.
func NewLanguageHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingHandler{deps, "language", func(deps HandlerDeps, arg string) (string, bool) {
		lang, ok := store.ParseLanguage(arg)
		if !ok {
			return "", false
		}
		greeting := deps.Config.Oracle.Greeting(string(lang))
		deps.Store.SetLanguage(lang)
		deps.Store.RewriteInitialGreeting(greeting)
		return greeting, true
	}}.Handle
}

// settingHandler is the shared shape of the personalization commands: parse
// the argument, apply it through the store's action API, confirm. An
// unusable argument gets the unknown-option notice instead.
type settingHandler struct {
	deps  HandlerDeps
	name  string
	apply func(deps HandlerDeps, arg string) (reply string, ok bool)
}

func (h settingHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", h.name)

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Setting handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	arg := commandArg(update.Message.Text)
	reply, ok := h.apply(deps, arg)
	if !ok {
		log.DebugContext(ctx, "Rejected setting value", "chat_id", chatID, "argument", arg)
		sendText(ctx, b, deps, chatID, deps.Config.Messages.UnknownOption)
		return
	}

	log.InfoContext(ctx, fmt.Sprintf("Handled /%s command", h.name), "chat_id", chatID)
	sendText(ctx, b, deps, chatID, reply)
}
