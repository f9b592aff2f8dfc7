// Package pgnoticerepo provides a Postgres-backed notifications.Repo
// sharing the pgx pool opened by the user repository.
package pgnoticerepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	apperrors "github.com/taskhub/go-task-server/internal/errors"
	"github.com/taskhub/go-task-server/notifications"
)

var _ notifications.Repo = (*PGNoticeRepo)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS notices (
	id         TEXT PRIMARY KEY,
	team       TEXT[] NOT NULL DEFAULT '{}',
	text       TEXT NOT NULL,
	task_title TEXT NOT NULL DEFAULT '',
	noti_type  TEXT NOT NULL DEFAULT 'alert',
	is_read    TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PGNoticeRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, pool *pgxpool.Pool) (*PGNoticeRepo, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "[pgnoticerepo.New] migrate")
	}
	return &PGNoticeRepo{pool: pool}, nil
}

func (nr *PGNoticeRepo) Create(ctx context.Context, notice *notifications.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.New().String()
	}
	_, err := nr.pool.Exec(ctx, `
		INSERT INTO notices (id, team, text, task_title, noti_type)
		VALUES ($1, $2, $3, $4, $5)`,
		notice.ID, notice.Team, notice.Text, notice.TaskTitle, string(notice.NoticeTyp))
	return errors.Wrap(err, "[PGNoticeRepo.Create]")
}

func (nr *PGNoticeRepo) ListUnread(ctx context.Context, userID string) ([]*notifications.Notice, error) {
	rows, err := nr.pool.Query(ctx, `
		SELECT id, team, text, task_title, noti_type, is_read, created_at
		FROM notices
		WHERE $1 = ANY(team) AND NOT ($1 = ANY(is_read))
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[PGNoticeRepo.ListUnread]")
	}
	defer rows.Close()

	var list []*notifications.Notice
	for rows.Next() {
		var notice notifications.Notice
		var notiType string
		if err := rows.Scan(&notice.ID, &notice.Team, &notice.Text, &notice.TaskTitle,
			&notiType, &notice.IsRead, &notice.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "[PGNoticeRepo.ListUnread] scan")
		}
		notice.NoticeTyp = notifications.NoticeType(notiType)
		list = append(list, &notice)
	}
	return list, errors.Wrap(rows.Err(), "[PGNoticeRepo.ListUnread] rows")
}

func (nr *PGNoticeRepo) MarkRead(ctx context.Context, noticeID, userID string) error {
	// Dedupe lives in the SET so marking an already-read notice stays a
	// successful no-op rather than reporting not-found.
	tag, err := nr.pool.Exec(ctx, `
		UPDATE notices SET is_read = CASE
			WHEN $2 = ANY(is_read) THEN is_read
			ELSE array_append(is_read, $2)
		END
		WHERE id = $1`, noticeID, userID)
	if err != nil {
		return errors.Wrap(err, "[PGNoticeRepo.MarkRead]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrNoticeNotFound, noticeID)
	}
	return nil
}

func (nr *PGNoticeRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := nr.pool.Exec(ctx, `
		UPDATE notices SET is_read = array_append(is_read, $1)
		WHERE $1 = ANY(team) AND NOT ($1 = ANY(is_read))`, userID)
	return errors.Wrap(err, "[PGNoticeRepo.MarkAllRead]")
}
