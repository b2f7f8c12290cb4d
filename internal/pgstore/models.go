package pgstore

import (
	"time"

	"github.com/valpere/pdxtran/internal"
)

// entryRow maps entries.
type entryRow struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Filename  string    `gorm:"column:filename;type:text;not null;uniqueIndex:idx_entries_file_key"`
	Key       string    `gorm:"column:loc_key;type:text;not null;uniqueIndex:idx_entries_file_key;index:idx_entries_key"`
	Original  string    `gorm:"column:original;type:text;not null;index:idx_entries_original"`
	Wish      string    `gorm:"column:wish;type:text;not null;default:''"`
	Claimed   bool      `gorm:"column:claimed;not null;default:false;index:idx_entries_claim"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (entryRow) TableName() string { return "entries" }

func (r entryRow) toEntry() internal.Entry {
	return internal.Entry{
		ID:        r.ID,
		Filename:  r.Filename,
		Key:       r.Key,
		Original:  r.Original,
		Wish:      r.Wish,
		Claimed:   r.Claimed,
		UpdatedAt: r.UpdatedAt,
	}
}

// eventRow maps entry_events.
type eventRow struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Action    string    `gorm:"column:action;type:text;not null"`
	EntryID   int64     `gorm:"column:entry_id;type:bigint;not null;default:0"`
	Filename  string    `gorm:"column:filename;type:text;not null;default:''"`
	Key       string    `gorm:"column:loc_key;type:text;not null;default:''"`
	OldText   string    `gorm:"column:old_text;type:text;not null;default:''"`
	NewText   string    `gorm:"column:new_text;type:text;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (eventRow) TableName() string { return "entry_events" }

func newEvent(action string, r entryRow, oldText, newText string) *eventRow {
	return &eventRow{
		Action:   action,
		EntryID:  r.ID,
		Filename: r.Filename,
		Key:      r.Key,
		OldText:  oldText,
		NewText:  newText,
	}
}

func (r eventRow) toEvent() internal.Event {
	return internal.Event{
		ID:        r.ID,
		Action:    r.Action,
		EntryID:   r.EntryID,
		Filename:  r.Filename,
		Key:       r.Key,
		OldText:   r.OldText,
		NewText:   r.NewText,
		CreatedAt: r.CreatedAt,
	}
}
