package session

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/taskhub/go-task-server/credentials"
	"github.com/taskhub/go-task-server/users"
)

// Verdict is the result of checking the stored credential at startup.
type Verdict struct {
	IsValid bool
	Token   string
	UserID  string
	Role    users.RoleType
	User    *users.User
}

// Validator reads the credential store and decides whether a usable
// session survives from a previous run.
type Validator struct {
	store credentials.Store
	log   zerolog.Logger
}

func NewValidator(store credentials.Store, logger zerolog.Logger) *Validator {
	return &Validator{store: store, log: logger}
}

// Validate loads the stored credential. The verdict is valid only when
// token, userId and role are all present; the profile snapshot is
// optional. Storage and decode failures degrade to an all-null invalid
// verdict - this runs on the startup path and must never fail.
func (v *Validator) Validate(ctx context.Context) Verdict {
	rec, err := v.store.Load(ctx)
	if err != nil {
		v.log.Error().Err(err).Msg("[Validator.Validate] credential load failed")
		return Verdict{}
	}

	if rec.Token == "" || rec.UserID == "" || rec.Role == "" {
		return Verdict{}
	}

	return Verdict{
		IsValid: true,
		Token:   rec.Token,
		UserID:  rec.UserID,
		Role:    rec.Role,
		User:    rec.User,
	}
}
