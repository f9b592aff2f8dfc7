package notifications

import (
	"time"
)

// NoticeType distinguishes plain alerts from task-assignment messages.
type NoticeType string

const (
	NoticeAlert   NoticeType = "alert"
	NoticeMessage NoticeType = "message"
)

// Notice is a notification fanned out to a set of team members. IsRead
// accumulates the IDs of users that have acknowledged it.
type Notice struct {
	ID        string     `json:"_id,omitempty"`
	Team      []string   `json:"team,omitempty"`   // Recipient user IDs
	Text      string     `json:"text,omitempty"`   // Notification body
	TaskTitle string     `json:"task,omitempty"`   // Title of the related task, if any
	NoticeTyp NoticeType `json:"notiType,omitempty"`
	IsRead    []string   `json:"isRead,omitempty"` // User IDs that have read it
	CreatedAt time.Time  `json:"createdAt,omitempty"`
}

// ReadBy reports whether the given user has already read the notice.
func (n *Notice) ReadBy(userID string) bool {
	for _, id := range n.IsRead {
		if id == userID {
			return true
		}
	}
	return false
}

// For reports whether the notice is addressed to the given user.
func (n *Notice) For(userID string) bool {
	for _, id := range n.Team {
		if id == userID {
			return true
		}
	}
	return false
}
