// Package store persists localisation entries, their translations and an
// audit trail of every change.
package store

import (
	"context"
	"strings"

	"github.com/valpere/pdxtran/internal"
	"github.com/valpere/pdxtran/internal/pgstore"
)

// Repository is the entry store used by the extract, translate and apply
// commands. Every method is atomic for a single entry.
type Repository interface {
	UpsertEntries(ctx context.Context, entries []internal.Entry) (internal.UpsertStats, error)
	ClaimNext(ctx context.Context) (*internal.Entry, error)
	Unclaim(ctx context.Context, id int64) error
	UpdateWish(ctx context.Context, id int64, wish string) error
	FindTranslated(ctx context.Context, original string) (string, bool, error)
	CountAll(ctx context.Context) (int64, error)
	CountTranslated(ctx context.Context) (int64, error)
	TranslationsByKey(ctx context.Context) (map[string]string, error)
	ListEntries(ctx context.Context, filter internal.EntryFilter) ([]internal.Entry, error)
	ResetClaims(ctx context.Context) (int64, error)
	RecentEvents(ctx context.Context, limit int) ([]internal.Event, error)
	Close() error
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*pgstore.Store)(nil)
)

// Open connects to PostgreSQL for postgres:// and postgresql:// DSNs and
// treats anything else as a SQLite file path.
func Open(ctx context.Context, dsn string) (Repository, error) {
	if IsPostgres(dsn) {
		return pgstore.Open(ctx, dsn)
	}
	return New(dsn)
}

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
