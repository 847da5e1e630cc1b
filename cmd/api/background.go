package main

import (
	"context"
	"errors"
	"time"

	"eventconnect/internal/manager"

	"github.com/robfig/cron/v3"
)

const refreshTimeout = 2 * time.Minute

// scheduleRefresh re-runs the current criteria on the REFRESH_CRON schedule so weather
// and listings stay current. It returns nil when no schedule is configured.
func (app *application) scheduleRefresh() (*cron.Cron, error) {
	if app.config.refreshCron == "" {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(app.config.refreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		start := time.Now()
		err := app.manager.Refresh(ctx)
		switch {
		case errors.Is(err, manager.ErrSuperseded):
			app.logger.Infow("scheduled refresh superseded by a newer search")
		case err != nil:
			app.logger.Errorw("scheduled refresh failed", "error", err.Error())
		default:
			app.logger.Infow("scheduled refresh done", "events", len(app.manager.Events()), "elapsed", time.Since(start).Truncate(time.Millisecond))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	app.logger.Infow("listing refresh scheduled", "spec", app.config.refreshCron)
	return c, nil
}
