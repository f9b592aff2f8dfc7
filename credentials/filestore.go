package credentials

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	apperrors "github.com/taskhub/go-task-server/internal/errors"
	"github.com/taskhub/go-task-server/users"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the credential record in a single JSON document. The
// whole document is replaced on every save via temp-file + rename, which
// is what makes the multi-key batch atomic.
type FileStore struct {
	path string
}

// NewFileStore creates a store rooted at dir. The directory is created
// if missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(apperrors.ErrStorage, err.Error())
	}
	return &FileStore{path: filepath.Join(dir, "credentials.json")}, nil
}

func (fs *FileStore) Save(_ context.Context, rec Record) error {
	// Every key is always written; absent fields become explicit empty
	// markers so a partial credential can never mix with an old one.
	doc := map[string]string{
		KeyToken:       rec.Token,
		KeyUserID:      rec.UserID,
		KeyRole:        string(rec.Role),
		KeyCurrentUser: "",
		KeySessionID:   rec.SessionID,
		KeyLoginTime:   "",
	}
	if rec.User != nil {
		userJSON, err := json.Marshal(rec.User)
		if err != nil {
			return errors.Wrap(apperrors.ErrStorage, err.Error())
		}
		doc[KeyCurrentUser] = string(userJSON)
	}
	if !rec.LoginTime.IsZero() {
		doc[KeyLoginTime] = rec.LoginTime.UTC().Format(time.RFC3339)
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(apperrors.ErrStorage, err.Error())
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return errors.Wrap(apperrors.ErrStorage, err.Error())
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(apperrors.ErrStorage, err.Error())
	}
	return nil
}

func (fs *FileStore) Clear(_ context.Context) error {
	err := os.Remove(fs.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(apperrors.ErrStorage, err.Error())
	}
	return nil
}

func (fs *FileStore) Load(_ context.Context) (Record, error) {
	payload, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, errors.Wrap(apperrors.ErrStorage, err.Error())
	}

	doc := map[string]string{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Record{}, errors.Wrap(apperrors.ErrStorage, err.Error())
	}

	rec := Record{
		Token:     doc[KeyToken],
		UserID:    doc[KeyUserID],
		Role:      users.RoleType(doc[KeyRole]),
		SessionID: doc[KeySessionID],
	}

	if raw := doc[KeyCurrentUser]; raw != "" {
		var user users.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return Record{}, errors.Wrap(apperrors.ErrStorage, err.Error())
		}
		rec.User = &user
	}
	if raw := doc[KeyLoginTime]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			rec.LoginTime = t
		}
	}
	return rec, nil
}
