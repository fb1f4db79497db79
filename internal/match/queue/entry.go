package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one queued player. Entries are serialized as JSON into the
// sorted set; the enqueue timestamp doubles as the set score.
type Entry struct {
	UserID     uuid.UUID `json:"user_id"`
	Rating     int       `json:"rating"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Encode serializes the entry for storage in the sorted set.
func (e Entry) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode queue entry: %w", err)
	}
	return string(data), nil
}

// DecodeEntry parses a sorted-set member back into an Entry.
func DecodeEntry(raw string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, fmt.Errorf("decode queue entry: %w", err)
	}
	return e, nil
}
