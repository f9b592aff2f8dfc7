package notifications

import "context"

type Repo interface {
	Create(ctx context.Context, notice *Notice) error
	// ListUnread returns notices addressed to the user that the user has
	// not yet marked as read.
	ListUnread(ctx context.Context, userID string) ([]*Notice, error)
	// MarkRead records that the user has read the notice.
	MarkRead(ctx context.Context, noticeID, userID string) error
	// MarkAllRead records the user on every unread notice addressed to them.
	MarkAllRead(ctx context.Context, userID string) error
}
