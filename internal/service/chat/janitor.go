package chat

import (
	"context"
	"log/slog"
	"time"

	chatSvc "skein/internal/domain/services/chat"
)

// StartCleanup runs the empty-conversation janitor until ctx is cancelled.
// Conversations are created before their first message is sent, so an
// abandoned composer leaves a zero-turn row behind; the janitor sweeps
// those once they go stale. Each sweep gets its own timeout so a slow
// database cannot wedge the loop.
func StartCleanup(ctx context.Context, svc chatSvc.ConversationService, interval, maxAge time.Duration, logger *slog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
				if _, err := svc.CleanupEmpty(sweepCtx, maxAge); err != nil {
					logger.Error("empty conversation cleanup failed", "error", err)
				}
				cancel()
			}
		}
	}()
}
