package model

import (
	"time"

	"github.com/gofrs/uuid"
)

// SessionInfo is the repository layer snapshot of a Session, used for
// reporting and the server info file. It deliberately carries no live
// transport handle.
type SessionInfo struct {
	UUID          uuid.UUID
	WorkspaceRoot string
	ServerPath    string
	Status        string
	Active        bool
	ServerPID     int
}

// CacheEntry is the stored form of one result cache slot. A nil Value is a
// valid stored result ("no result for this key"), distinct from an absent key.
type CacheEntry struct {
	Value     interface{}
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is logically absent at the given instant.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
