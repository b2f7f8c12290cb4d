package batch_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/pdxtran/internal"
	"github.com/valpere/pdxtran/internal/batch"
	"github.com/valpere/pdxtran/internal/localize"
	"github.com/valpere/pdxtran/internal/store"
	"github.com/valpere/pdxtran/internal/translator"
)

// fakeService answers "<text> (pt)" and can be told to rate limit a text a
// number of times or to run a hook on every call.
type fakeService struct {
	mu        sync.Mutex
	calls     int
	limitLeft map[string]int
	failing   map[string]bool
	onCall    func(n int)
}

func (f *fakeService) Name() string { return "fake" }

func (f *fakeService) Translate(_ context.Context, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	text := strings.TrimSpace(req.Text)
	limited := f.limitLeft[text] > 0
	if limited {
		f.limitLeft[text]--
	}
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if limited {
		return nil, fmt.Errorf("fake: status 429: %w", translator.ErrRateLimited)
	}
	if f.failing[text] {
		return nil, errors.New("fake: boom")
	}
	return &translator.ServiceResult{ServiceName: f.Name(), TranslatedText: text + " (pt)"}, nil
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newStore(t *testing.T, originals ...string) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "entries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	entries := make([]internal.Entry, 0, len(originals))
	for i, o := range originals {
		entries = append(entries, internal.Entry{Filename: "test_l_english.yml", Key: fmt.Sprintf("k%d", i), Original: o})
	}
	_, err = s.UpsertEntries(context.Background(), entries)
	require.NoError(t, err)
	return s
}

func newRunner(s batch.Store, svc translator.Service, workers int) *batch.Runner {
	engine := localize.New(svc, "en", "pt", zerolog.Nop())
	return batch.New(s, engine, batch.Config{
		Workers:          workers,
		Cooldown:         time.Millisecond,
		ProgressInterval: time.Hour,
	}, zerolog.Nop())
}

func TestRun_TranslatesEverything(t *testing.T) {
	s := newStore(t, "one", "two", "three", "four", "five")
	svc := &fakeService{}

	stats, err := newRunner(s, svc, 3).Run(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.Claimed)
	assert.EqualValues(t, 5, stats.Translated)

	entries, err := s.ListEntries(context.Background(), internal.EntryFilter{})
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, e.Original+" (pt)", e.Wish)
	}
}

func TestRun_RateLimitDoesNotBlockOthers(t *testing.T) {
	s := newStore(t, "first", "second", "third")
	svc := &fakeService{limitLeft: map[string]int{"first": 2}}

	stats, err := newRunner(s, svc, 2).Run(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.RateLimited)
	assert.EqualValues(t, 3, stats.Translated)

	done, err := s.CountTranslated(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, done)
}

func TestRun_RerunMakesNoCalls(t *testing.T) {
	s := newStore(t, "one", "two")
	svc := &fakeService{}

	_, err := newRunner(s, svc, 2).Run(context.Background())
	require.NoError(t, err)
	before, err := s.ListEntries(context.Background(), internal.EntryFilter{})
	require.NoError(t, err)
	calls := svc.callCount()

	stats, err := newRunner(s, svc, 2).Run(context.Background())
	require.NoError(t, err)
	after, err := s.ListEntries(context.Background(), internal.EntryFilter{})
	require.NoError(t, err)

	assert.Equal(t, calls, svc.callCount())
	assert.EqualValues(t, 0, stats.Translated)
	for i := range before {
		assert.Equal(t, before[i].Wish, after[i].Wish)
	}
}

func TestRun_IdenticalTextsUseCache(t *testing.T) {
	s := newStore(t, "Hello", "Hello")
	svc := &fakeService{}

	stats, err := newRunner(s, svc, 1).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, svc.callCount())
	assert.EqualValues(t, 1, stats.Translated)
	assert.EqualValues(t, 1, stats.Cached)

	entries, err := s.ListEntries(context.Background(), internal.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].Wish, entries[1].Wish)
}

func TestRun_PrefilledWishSkipped(t *testing.T) {
	s := newStore(t, "one")
	ctx := context.Background()
	entries, err := s.ListEntries(ctx, internal.EntryFilter{})
	require.NoError(t, err)
	require.NoError(t, s.UpdateWish(ctx, entries[0].ID, "um"))
	require.NoError(t, s.Unclaim(ctx, entries[0].ID))
	svc := &fakeService{}

	stats, err := newRunner(s, svc, 1).Run(ctx)

	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Skipped)
	assert.Equal(t, 0, svc.callCount())
}

func TestRun_EmptyOriginalSkipped(t *testing.T) {
	s := newStore(t, "one", "")
	svc := &fakeService{}

	stats, err := newRunner(s, svc, 1).Run(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Claimed)
	assert.EqualValues(t, 1, stats.Translated)
	assert.EqualValues(t, 1, stats.Skipped)
	assert.Equal(t, 1, svc.callCount())
}

func TestRun_FailedEntryKeepsClaim(t *testing.T) {
	s := newStore(t, "good", "bad")
	svc := &fakeService{failing: map[string]bool{"bad": true}}

	stats, err := newRunner(s, svc, 1).Run(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Failed)
	assert.EqualValues(t, 1, stats.Translated)

	pending, err := s.ListEntries(context.Background(), internal.EntryFilter{Pending: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Claimed)

	n, err := s.ResetClaims(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRun_Limit(t *testing.T) {
	s := newStore(t, "a", "b", "c", "d")
	svc := &fakeService{}
	engine := localize.New(svc, "en", "pt", zerolog.Nop())
	r := batch.New(s, engine, batch.Config{Workers: 2, Limit: 2, ProgressInterval: time.Hour}, zerolog.Nop())

	stats, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Claimed)
	done, _ := s.CountTranslated(context.Background())
	assert.EqualValues(t, 2, done)
}

func TestRun_CancelFinishesCurrentEntry(t *testing.T) {
	s := newStore(t, "a", "b", "c", "d")
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{onCall: func(int) { cancel() }}

	stats, err := newRunner(s, svc, 1).Run(ctx)

	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Translated)
	assertNoAbandonedClaims(t, s)
}

func TestRun_CancelDuringCooldown(t *testing.T) {
	s := newStore(t, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{limitLeft: map[string]int{"a": 1}}
	engine := localize.New(svc, "en", "pt", zerolog.Nop())
	r := batch.New(s, engine, batch.Config{Workers: 1, Cooldown: time.Hour, ProgressInterval: time.Hour}, zerolog.Nop())

	go func() {
		for svc.callCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	finished := make(chan struct{})
	var stats batch.Stats
	var err error
	go func() {
		stats, err = r.Run(ctx)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop during cooldown")
	}
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.RateLimited)
	assertNoAbandonedClaims(t, s)
}

// claimErrStore fails every claim.
type claimErrStore struct {
	*store.Store
}

func (claimErrStore) ClaimNext(context.Context) (*internal.Entry, error) {
	return nil, errors.New("database is gone")
}

func TestRun_ClaimErrorIsFatal(t *testing.T) {
	s := newStore(t, "a")

	_, err := newRunner(claimErrStore{s}, &fakeService{}, 2).Run(context.Background())

	assert.ErrorContains(t, err, "database is gone")
}

func assertNoAbandonedClaims(t *testing.T, s *store.Store) {
	t.Helper()
	entries, err := s.ListEntries(context.Background(), internal.EntryFilter{})
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.Claimed && !e.Translated(), "entry %d claimed without a wish", e.ID)
	}
}
