package main

import (
	"context"
	"time"
)

const (
	sessionCleanerInterval = time.Hour
	sessionCleanerTimeout  = 30 * time.Second
)

// runSessionCleaner deletes expired sessions until ctx is cancelled.
func (app *application) runSessionCleaner(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanerInterval)
	defer ticker.Stop()

	run := func() {
		runCtx, cancel := context.WithTimeout(ctx, sessionCleanerTimeout)
		defer cancel()

		cleared, err := app.authService.CleanExpiredSessions(runCtx)
		if err != nil {
			app.errorLog.Printf("session cleaner: failed to delete expired sessions: %v", err)
			return
		}
		if cleared > 0 {
			app.infoLog.Printf("session cleaner: deleted %d expired sessions", cleared)
		}
	}

	run()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
