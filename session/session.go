// Package session holds the client's in-memory authentication state.
// The state machine here is authoritative for the lifetime of the
// process; the credential store is a best-effort mirror consulted only
// at the next startup.
package session

import (
	"time"

	"github.com/taskhub/go-task-server/users"
)

// State is one snapshot of the session. IsAuthenticated is derived from
// token presence and nothing else. State is mutated only through the
// Manager's transitions.
type State struct {
	IsAuthenticated bool
	Token           string
	UserID          string
	Role            users.RoleType
	User            *users.User
	SessionID       string
	LastUpdate      time.Time
}

// LoginPayload carries the fields of a successful login response.
type LoginPayload struct {
	Token     string
	UserID    string
	Role      users.RoleType
	User      *users.User
	SessionID string
}
