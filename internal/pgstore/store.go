// Package pgstore keeps localisation entries in PostgreSQL through gorm.
// Several machines can run translate workers against the same database;
// claims use SELECT ... FOR UPDATE SKIP LOCKED.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/valpere/pdxtran/internal"
)

type Store struct {
	db *gorm.DB
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := gdb.WithContext(ctx).AutoMigrate(&entryRow{}, &eventRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate schema: %w", err)
	}

	return &Store{db: gdb}, nil
}

func (s *Store) UpsertEntries(ctx context.Context, entries []internal.Entry) (internal.UpsertStats, error) {
	var stats internal.UpsertStats

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range internal.LastByKey(entries) {
			var row entryRow
			err := tx.Where("filename = ? AND loc_key = ?", e.Filename, e.Key).Take(&row).Error

			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				row = entryRow{Filename: e.Filename, Key: e.Key, Original: e.Original}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("insert %s:%s: %w", e.Filename, e.Key, err)
				}
				if err := tx.Create(newEvent(internal.ActionInsert, row, "", e.Original)).Error; err != nil {
					return err
				}
				stats.Inserted++
			case err != nil:
				return err
			case row.Original == e.Original:
				stats.Unchanged++
			default:
				old := row.Original
				err := tx.Model(&row).Updates(map[string]any{
					"original": e.Original,
					"wish":     "",
					"claimed":  false,
				}).Error
				if err != nil {
					return fmt.Errorf("update %s:%s: %w", e.Filename, e.Key, err)
				}
				if err := tx.Create(newEvent(internal.ActionUpdate, row, old, e.Original)).Error; err != nil {
					return err
				}
				stats.Updated++
			}
		}
		return nil
	})

	return stats, err
}

// ClaimNext locks the lowest-id unclaimed row, skipping rows other
// transactions hold, and marks it claimed.
func (s *Store) ClaimNext(ctx context.Context) (*internal.Entry, error) {
	var claimed *internal.Entry

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row entryRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("claimed = ?", false).
			Order("id").
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		res := tx.Model(&row).Where("claimed = ?", false).Update("claimed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(newEvent(internal.ActionClaim, row, "", "")).Error; err != nil {
			return err
		}

		e := row.toEntry()
		e.Claimed = true
		claimed = &e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim entry: %w", err)
	}
	return claimed, nil
}

func (s *Store) Unclaim(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Model(&entryRow{ID: id}).Update("claimed", false).Error
}

func (s *Store) UpdateWish(ctx context.Context, id int64, wish string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row entryRow
		err := tx.Take(&row, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("entry %d: %w", id, internal.ErrEntryNotFound)
		}
		if err != nil {
			return err
		}

		old := row.Wish
		if err := tx.Model(&row).Updates(map[string]any{"wish": wish, "claimed": true}).Error; err != nil {
			return err
		}
		return tx.Create(newEvent(internal.ActionWish, row, old, wish)).Error
	})
}

func (s *Store) FindTranslated(ctx context.Context, original string) (string, bool, error) {
	var row entryRow
	err := s.db.WithContext(ctx).
		Select("wish").
		Where("original = ? AND wish <> ''", original).
		Order("id").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Wish, true, nil
}

func (s *Store) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&entryRow{}).Count(&n).Error
	return n, err
}

func (s *Store) CountTranslated(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&entryRow{}).Where("wish <> ''").Count(&n).Error
	return n, err
}

func (s *Store) TranslationsByKey(ctx context.Context) (map[string]string, error) {
	var rows []entryRow
	err := s.db.WithContext(ctx).
		Select("loc_key", "wish").
		Where("wish <> ''").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if _, seen := out[r.Key]; !seen {
			out[r.Key] = r.Wish
		}
	}
	return out, nil
}

func (s *Store) ListEntries(ctx context.Context, filter internal.EntryFilter) ([]internal.Entry, error) {
	q := s.db.WithContext(ctx).Model(&entryRow{})
	switch {
	case filter.Pending:
		q = q.Where("wish = ''")
	case filter.Translated:
		q = q.Where("wish <> ''")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []entryRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]internal.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

func (s *Store) ResetClaims(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entryRow{}).
			Where("claimed = ? AND wish = ''", true).
			Update("claimed", false)
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		return tx.Create(newEvent(internal.ActionReset, entryRow{}, "", strconv.FormatInt(n, 10))).Error
	})
	return n, err
}

func (s *Store) RecentEvents(ctx context.Context, limit int) ([]internal.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []eventRow
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]internal.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
