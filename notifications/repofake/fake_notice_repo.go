package fakenoticerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	apperrors "github.com/taskhub/go-task-server/internal/errors"
	"github.com/taskhub/go-task-server/notifications"
)

var _ notifications.Repo = (*FakeNoticeRepo)(nil)

type FakeNoticeRepo struct {
	notices map[string]*notifications.Notice
	lock    sync.RWMutex
}

func NewFakeNoticeRepo() *FakeNoticeRepo {
	return &FakeNoticeRepo{
		notices: make(map[string]*notifications.Notice),
	}
}

func (nr *FakeNoticeRepo) Create(_ context.Context, notice *notifications.Notice) error {
	nr.lock.Lock()
	defer nr.lock.Unlock()

	if notice.ID == "" {
		notice.ID = uuid.New().String()
	}
	copied := *notice
	nr.notices[notice.ID] = &copied
	return nil
}

func (nr *FakeNoticeRepo) ListUnread(_ context.Context, userID string) ([]*notifications.Notice, error) {
	nr.lock.RLock()
	defer nr.lock.RUnlock()

	var list []*notifications.Notice
	for _, notice := range nr.notices {
		if notice.For(userID) && !notice.ReadBy(userID) {
			copied := *notice
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (nr *FakeNoticeRepo) MarkRead(_ context.Context, noticeID, userID string) error {
	nr.lock.Lock()
	defer nr.lock.Unlock()

	notice, ok := nr.notices[noticeID]
	if !ok {
		return errors.Wrap(apperrors.ErrNoticeNotFound, noticeID)
	}
	if !notice.ReadBy(userID) {
		notice.IsRead = append(notice.IsRead, userID)
	}
	return nil
}

func (nr *FakeNoticeRepo) MarkAllRead(_ context.Context, userID string) error {
	nr.lock.Lock()
	defer nr.lock.Unlock()

	for _, notice := range nr.notices {
		if notice.For(userID) && !notice.ReadBy(userID) {
			notice.IsRead = append(notice.IsRead, userID)
		}
	}
	return nil
}
