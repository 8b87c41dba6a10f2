package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/moirai-app/moirai/internal/gemini"
	"github.com/moirai-app/moirai/internal/store"
)

// newDailySummaryTask creates the scheduled task that condenses past
// conversation days into daily summaries. The current day is never
// summarized; it is still in progress.
func newDailySummaryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_summary")

	return func(ctx context.Context) error {
		days := deps.Store.DatesNeedingSummary()
		if len(days) == 0 {
			log.DebugContext(ctx, "No past days need summarizing")
			return nil
		}

		log.InfoContext(ctx, "Starting daily summary task", "days_pending", len(days))
		startTime := time.Now()

		summarized := 0
		failed := 0
		for _, day := range days {
			if ctx.Err() != nil {
				return fmt.Errorf("daily summary task interrupted: %w", ctx.Err())
			}

			transcript, ok := deps.Store.ConversationForDate(day)
			if !ok {
				// DatesNeedingSummary only returns days with messages, so
				// this indicates the log changed underneath us.
				log.WarnContext(ctx, "Day vanished between listing and summarizing", "date", day)
				continue
			}

			result, err := deps.GeminiClient.GenerateDailySummary(ctx, gemini.SummaryInput{
				ConversationHistory: transcript,
				UserFacts:           deps.Store.Facts(),
				Language:            deps.Store.Language(),
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to summarize day", "date", day, "error", err)
				failed++
				continue
			}

			deps.Store.AddSummary(store.DailySummary{
				Date:             day,
				Summary:          result.Summary,
				OverallEmotion:   result.OverallEmotion,
				ConversationTime: result.ConversationTime,
			})
			summarized++
		}

		duration := time.Since(startTime)
		log.InfoContext(ctx, "Daily summary task finished",
			"summarized", summarized, "failed", failed, "duration", duration)

		if failed > 0 {
			return fmt.Errorf("daily summary task: %d of %d days failed", failed, len(days))
		}
		return nil
	}
}
