// Package batch translates every pending entry of the store with a pool of
// workers. Each worker claims one entry at a time, so an entry is handled
// by at most one worker.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/valpere/pdxtran/internal"
	"github.com/valpere/pdxtran/internal/translator"
)

const (
	DefaultCooldown         = 60 * time.Second
	DefaultProgressInterval = 10 * time.Second
)

// Store is the part of the entry store a run needs.
type Store interface {
	ClaimNext(ctx context.Context) (*internal.Entry, error)
	Unclaim(ctx context.Context, id int64) error
	UpdateWish(ctx context.Context, id int64, wish string) error
	FindTranslated(ctx context.Context, original string) (string, bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountTranslated(ctx context.Context) (int64, error)
}

// Translator turns one source string into its translation.
type Translator interface {
	TranslateText(ctx context.Context, text string) (string, error)
}

type Config struct {
	Workers          int
	Limit            int
	Cooldown         time.Duration
	ProgressInterval time.Duration
}

// Stats counts what happened to the entries claimed during a run. An entry
// that hit a rate limit and was retried counts once per claim.
type Stats struct {
	Claimed     int64 `json:"claimed"`
	Translated  int64 `json:"translated"`
	Cached      int64 `json:"cached"`
	Skipped     int64 `json:"skipped"`
	RateLimited int64 `json:"rate_limited"`
	Failed      int64 `json:"failed"`
}

type counters struct {
	claimed, translated, cached, skipped, rateLimited, failed atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Claimed:     c.claimed.Load(),
		Translated:  c.translated.Load(),
		Cached:      c.cached.Load(),
		Skipped:     c.skipped.Load(),
		RateLimited: c.rateLimited.Load(),
		Failed:      c.failed.Load(),
	}
}

type Runner struct {
	store  Store
	engine Translator
	cfg    Config
	log    zerolog.Logger
}

func New(store Store, engine Translator, cfg Config, log zerolog.Logger) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	return &Runner{store: store, engine: engine, cfg: cfg, log: log}
}

// Run processes entries until none are left, the limit is reached or ctx
// is cancelled. Cancellation lets every worker finish the entry it holds.
// Only a failure to claim from the store aborts the run with an error.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	log := r.log.With().Str("run_id", uuid.NewString()).Logger()
	stopCtx, stop := context.WithCancel(ctx)
	defer stop()

	pool, err := ants.NewPool(r.cfg.Workers,
		ants.WithLogger(&log),
		ants.WithPanicHandler(func(p any) {
			log.Error().Interface("panic", p).Msg("worker panicked")
		}),
	)
	if err != nil {
		return Stats{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		st       counters
		taken    atomic.Int64
		wg       sync.WaitGroup
		errOnce  sync.Once
		fatalErr error
	)

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		newProgress(r.store, log).run(stopCtx, r.cfg.ProgressInterval)
	}()

	log.Info().Int("workers", r.cfg.Workers).Int("limit", r.cfg.Limit).Msg("translation run started")
	start := time.Now()

	for i := 0; i < r.cfg.Workers; i++ {
		w := &worker{
			runner: r,
			stats:  &st,
			taken:  &taken,
			log:    log.With().Int("worker", i).Logger(),
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := w.loop(stopCtx); err != nil {
				errOnce.Do(func() { fatalErr = err })
				stop()
			}
		})
		if err != nil {
			wg.Done()
			errOnce.Do(func() { fatalErr = fmt.Errorf("submit worker: %w", err) })
			stop()
			break
		}
	}

	wg.Wait()
	stop()
	<-progressDone

	stats := st.snapshot()
	log.Info().
		Int64("claimed", stats.Claimed).
		Int64("translated", stats.Translated).
		Int64("cached", stats.Cached).
		Int64("skipped", stats.Skipped).
		Int64("rate_limited", stats.RateLimited).
		Int64("failed", stats.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("translation run finished")

	return stats, fatalErr
}

type worker struct {
	runner *Runner
	stats  *counters
	taken  *atomic.Int64
	log    zerolog.Logger
}

func (w *worker) loop(ctx context.Context) error {
	limit := int64(w.runner.cfg.Limit)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if limit > 0 && w.taken.Add(1) > limit {
			return nil
		}

		e, err := w.runner.store.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("claim next entry: %w", err)
		}
		if e == nil {
			return nil
		}
		w.stats.claimed.Add(1)

		w.process(ctx, e)
	}
}

// process finishes one claimed entry. Store writes use a context that
// ignores cancellation so a stop request never leaves the entry half done;
// only the rate-limit cooldown watches ctx.
func (w *worker) process(ctx context.Context, e *internal.Entry) {
	work := context.WithoutCancel(ctx)
	log := w.log.With().Int64("entry_id", e.ID).Str("filename", e.Filename).Logger()
	st := w.stats

	// empty values stay claimed with no wish; there is nothing to translate
	if e.Translated() || e.Original == "" {
		st.skipped.Add(1)
		return
	}

	wish, found, err := w.runner.store.FindTranslated(work, e.Original)
	if err != nil {
		st.failed.Add(1)
		log.Error().Err(err).Str("original", e.Original).Msg("cache lookup failed")
		return
	}
	if found {
		if err := w.runner.store.UpdateWish(work, e.ID, wish); err != nil {
			st.failed.Add(1)
			log.Error().Err(err).Str("original", e.Original).Msg("failed to store cached translation")
			return
		}
		st.cached.Add(1)
		log.Debug().Msg("reused translation of identical text")
		return
	}

	text, err := w.runner.engine.TranslateText(work, e.Original)
	switch {
	case errors.Is(err, translator.ErrRateLimited):
		st.rateLimited.Add(1)
		if err := w.runner.store.Unclaim(work, e.ID); err != nil {
			log.Error().Err(err).Msg("failed to release rate-limited entry")
		}
		log.Warn().Err(err).Dur("cooldown", w.runner.cfg.Cooldown).Msg("rate limited, pausing worker")
		sleep(ctx, w.runner.cfg.Cooldown)
		return
	case err != nil:
		st.failed.Add(1)
		log.Error().Err(err).Str("original", e.Original).Msg("translation failed")
		return
	}

	if err := w.runner.store.UpdateWish(work, e.ID, text); err != nil {
		st.failed.Add(1)
		log.Error().Err(err).Str("original", e.Original).Msg("failed to store translation")
		return
	}
	st.translated.Add(1)
	log.Debug().Str("original", e.Original).Str("wish", text).Msg("entry translated")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
