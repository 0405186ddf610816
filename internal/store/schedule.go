package store

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"
)

// ParseSchedule validates a cron expression. Five fields are minute
// resolution; seven fields add seconds and years.
func ParseSchedule(expr string) (*cronexpr.Expression, error) {
	return cronexpr.Parse(expr)
}

// RunSchedule calls fn at every instant matched by expr until ctx is done.
// It returns nil on cancellation and when the expression has no future
// matches.
func RunSchedule(ctx context.Context, expr string, fn func(time.Time)) error {
	c, err := cronexpr.Parse(expr)
	if err != nil {
		return err
	}
	for {
		next := c.Next(time.Now())
		if next.IsZero() {
			return nil
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case t := <-timer.C:
			fn(t)
		}
	}
}
