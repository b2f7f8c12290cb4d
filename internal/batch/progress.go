package batch

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// counter is what the progress reporter polls. It reads without taking part
// in claims, so the numbers it logs are approximate.
type counter interface {
	CountAll(ctx context.Context) (int64, error)
	CountTranslated(ctx context.Context) (int64, error)
}

type progress struct {
	store     counter
	log       zerolog.Logger
	start     time.Time
	startDone int64
	primed    bool
}

func newProgress(store counter, log zerolog.Logger) *progress {
	return &progress{store: store, log: log}
}

func (p *progress) run(ctx context.Context, interval time.Duration) {
	p.start = time.Now()
	if done, err := p.store.CountTranslated(ctx); err == nil {
		p.startDone, p.primed = done, true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.report(ctx)
		}
	}
}

func (p *progress) report(ctx context.Context) {
	total, err := p.store.CountAll(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("progress: count entries")
		return
	}
	done, err := p.store.CountTranslated(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("progress: count translated entries")
		return
	}
	if !p.primed {
		p.startDone, p.primed = done, true
	}

	ev := p.log.Info().
		Int64("done", done).
		Int64("total", total).
		Float64("percent", percent(done, total))
	if eta, ok := estimate(total, done, p.startDone, time.Since(p.start)); ok {
		ev = ev.Dur("eta", eta.Round(time.Second))
	}
	ev.Msg("translation progress")
}

func percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) * 100 / float64(total)
}

// estimate projects the time left from the rate achieved since the run
// started. It reports false until at least one entry was finished.
func estimate(total, done, startDone int64, elapsed time.Duration) (time.Duration, bool) {
	finished := done - startDone
	if finished <= 0 || elapsed <= 0 {
		return 0, false
	}
	left := total - done
	if left <= 0 {
		return 0, true
	}
	perEntry := elapsed / time.Duration(finished)
	return perEntry * time.Duration(left), true
}
