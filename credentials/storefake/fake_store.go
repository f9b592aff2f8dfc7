package fakestore

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/taskhub/go-task-server/credentials"
	apperrors "github.com/taskhub/go-task-server/internal/errors"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store for tests, with optional
// failure injection.
type FakeStore struct {
	lock sync.RWMutex
	rec  credentials.Record
	set  bool

	FailSave  bool
	FailClear bool
	FailLoad  bool

	SaveCalls  int
	ClearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Save(_ context.Context, rec credentials.Record) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.SaveCalls++
	if fs.FailSave {
		return errors.Wrap(apperrors.ErrStorage, "injected save failure")
	}
	fs.rec = rec
	fs.set = true
	return nil
}

func (fs *FakeStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.ClearCalls++
	if fs.FailClear {
		return errors.Wrap(apperrors.ErrStorage, "injected clear failure")
	}
	fs.rec = credentials.Record{}
	fs.set = false
	return nil
}

func (fs *FakeStore) Load(_ context.Context) (credentials.Record, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if fs.FailLoad {
		return credentials.Record{}, errors.Wrap(apperrors.ErrStorage, "injected load failure")
	}
	return fs.rec, nil
}

// Stored returns the current record and whether anything has been saved.
func (fs *FakeStore) Stored() (credentials.Record, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.rec, fs.set
}
