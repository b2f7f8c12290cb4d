package batch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		done      int64
		startDone int64
		elapsed   time.Duration
		want      time.Duration
		ok        bool
	}{
		{name: "nothing finished yet", total: 10, done: 2, startDone: 2, elapsed: time.Minute},
		{name: "steady rate", total: 10, done: 4, startDone: 0, elapsed: 40 * time.Second, want: 60 * time.Second, ok: true},
		{name: "resumed run", total: 100, done: 60, startDone: 50, elapsed: 10 * time.Second, want: 40 * time.Second, ok: true},
		{name: "all done", total: 5, done: 5, startDone: 0, elapsed: time.Second, want: 0, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := estimate(tt.total, tt.done, tt.startDone, tt.elapsed)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, percent(3, 0))
	assert.Equal(t, 50.0, percent(5, 10))
	assert.Equal(t, 100.0, percent(7, 7))
}

type fixedCounter struct {
	total, done int64
}

func (c fixedCounter) CountAll(context.Context) (int64, error)        { return c.total, nil }
func (c fixedCounter) CountTranslated(context.Context) (int64, error) { return c.done, nil }

func TestProgress_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})

	go func() {
		newProgress(fixedCounter{total: 10, done: 3}, zerolog.Nop()).run(ctx, time.Millisecond)
		close(finished)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("progress reporter did not stop")
	}
}
