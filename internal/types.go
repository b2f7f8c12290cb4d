package internal

import (
	"errors"
	"time"
)

// Entry is one localisation string tracked by the store.
type Entry struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Key       string    `json:"key"`
	Original  string    `json:"original"`
	Wish      string    `json:"wish"`
	Claimed   bool      `json:"claimed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Translated reports whether the entry already carries a wish.
func (e Entry) Translated() bool {
	return e.Wish != ""
}

// LastByKey collapses entries that share a filename and key, keeping the
// value of the last one, which is the line the game loads. The result keeps
// the order in which keys first appear.
func LastByKey(entries []Entry) []Entry {
	type fileKey struct{ file, key string }
	index := make(map[fileKey]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := fileKey{e.Filename, e.Key}
		if i, ok := index[k]; ok {
			out[i] = e
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}

// UpsertStats summarises an UpsertEntries call.
type UpsertStats struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// EntryFilter narrows ListEntries. Pending and Translated are exclusive;
// leaving both false lists everything.
type EntryFilter struct {
	Pending    bool
	Translated bool
	Limit      int
}

// ErrEntryNotFound is returned when an entry id does not exist.
var ErrEntryNotFound = errors.New("entry not found")

// Event is one row of the entry audit log.
type Event struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	EntryID   int64     `json:"entry_id"`
	Filename  string    `json:"filename"`
	Key       string    `json:"key"`
	OldText   string    `json:"old_text"`
	NewText   string    `json:"new_text"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit log actions.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionClaim  = "claim"
	ActionWish   = "wish"
	ActionReset  = "reset"
)
