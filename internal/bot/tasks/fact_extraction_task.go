package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/moirai-app/moirai/internal/store"
)

// newFactExtractionTask creates the scheduled task that mines the recent
// conversation window for new durable facts about the seeker.
func newFactExtractionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "fact_extraction")

	return func(ctx context.Context) error {
		transcript := deps.Store.ConversationHistory(deps.Config.Oracle.HistoryLimit)
		if transcript == "" {
			log.DebugContext(ctx, "No conversation to extract facts from")
			return nil
		}

		log.InfoContext(ctx, "Starting fact extraction task")
		startTime := time.Now()

		existing := deps.Store.Facts()
		newFacts, err := deps.GeminiClient.ExtractFacts(ctx, transcript, existing)
		if err != nil {
			log.ErrorContext(ctx, "Fact extraction failed", "error", err)
			return fmt.Errorf("fact extraction failed: %w", err)
		}

		for _, fact := range newFacts {
			deps.Store.AddFact(store.UserFact{Fact: fact})
		}

		duration := time.Since(startTime)
		log.InfoContext(ctx, "Fact extraction task finished",
			"new_facts", len(newFacts), "known_facts", len(existing), "duration", duration)
		return nil
	}
}
