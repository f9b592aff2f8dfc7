// Package credentials persists the client's session credential between
// process runs. The store is a best-effort mirror of the in-memory
// session state: writes are batched and atomic so a crash can never
// leave a mix of two sessions on disk.
package credentials

import (
	"context"
	"time"

	"github.com/taskhub/go-task-server/users"
)

// Storage keys. They are written together as one batch and cleared
// together as one unit, never partially.
const (
	KeyToken       = "token"
	KeyUserID      = "userId"
	KeyRole        = "role"
	KeyCurrentUser = "currentUser"
	KeySessionID   = "sessionId"
	KeyLoginTime   = "loginTime"
)

// StorageKeys lists every recognised key, in write order.
var StorageKeys = []string{KeyToken, KeyUserID, KeyRole, KeyCurrentUser, KeySessionID, KeyLoginTime}

// Record is one persisted session credential. Token, UserID and Role are
// jointly present or jointly absent; a record missing any of the three
// is treated as no valid session.
type Record struct {
	Token     string
	UserID    string
	Role      users.RoleType
	User      *users.User // Optional profile snapshot
	SessionID string
	LoginTime time.Time
}

// Empty reports whether the record holds no credential at all.
func (r Record) Empty() bool {
	return r.Token == "" && r.UserID == "" && r.Role == ""
}

// Store persists credential records. Save writes every key in one
// atomic batch, normalising absent fields to explicit empty markers so
// a new session can never inherit stale values from a prior one. Clear
// removes every recognised key and is idempotent.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
	Load(ctx context.Context) (Record, error)
}
