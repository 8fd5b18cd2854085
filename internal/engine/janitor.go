package engine

import (
	"context"
	"time"

	"github.com/roach88/progression/internal/model"
	"github.com/roach88/progression/internal/store"
)

// DefaultJanitorInterval is how often Run sweeps when no interval is given.
const DefaultJanitorInterval = time.Hour

// Janitor deletes quest sets, quest progress and reroll counters of expired
// periods. It only ever removes rows of periods strictly before the current
// one, so it needs no coordination with live requests.
type Janitor struct {
	engine   *Engine
	interval time.Duration
}

// SweepReport counts what one sweep removed per quest type.
type SweepReport struct {
	Periods map[model.PeriodType]string            `json:"periods"`
	Removed map[model.PeriodType]store.SweepResult `json:"removed"`
	// CacheEntries is how many generation cache entries were dropped.
	CacheEntries int `json:"cache_entries"`
}

// Total returns the number of rows removed across quest types.
func (r SweepReport) Total() int64 {
	var n int64
	for _, res := range r.Removed {
		n += res.Total()
	}
	return n
}

// NewJanitor creates a janitor for e. A non-positive interval falls back to
// DefaultJanitorInterval.
func NewJanitor(e *Engine, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	return &Janitor{engine: e, interval: interval}
}

// Interval returns the time between sweeps.
func (j *Janitor) Interval() time.Duration {
	return j.interval
}

// Sweep runs one sweep for every quest type.
func (j *Janitor) Sweep(ctx context.Context) (SweepReport, error) {
	e := j.engine
	report := SweepReport{
		Periods: make(map[model.PeriodType]string, len(model.PeriodTypes)),
		Removed: make(map[model.PeriodType]store.SweepResult, len(model.PeriodTypes)),
	}
	for _, pt := range model.PeriodTypes {
		current := e.CurrentPeriod(pt)
		res, err := e.store.Sweep(ctx, pt, current)
		if err != nil {
			e.log.Error("sweep failed", "type", pt, "period", current, "error", err)
			return report, persistenceError("", "sweep", err)
		}
		report.Periods[pt] = current
		report.Removed[pt] = res
		report.CacheEntries += e.cache.prune(pt, current)
	}
	e.log.Info("swept expired periods",
		"daily", report.Removed[model.PeriodDaily].Total(),
		"weekly", report.Removed[model.PeriodWeekly].Total(),
		"cache", report.CacheEntries)
	return report, nil
}

// Run sweeps once immediately and then every interval until ctx is done. A
// failed sweep is logged and retried on the next tick. Run returns ctx.Err().
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.engine.log.Info("janitor started", "interval", j.interval)
	for {
		// Errors are logged by Sweep.
		_, _ = j.Sweep(ctx)

		select {
		case <-ctx.Done():
			j.engine.log.Info("janitor stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
