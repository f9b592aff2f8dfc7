// Package pguserrepo provides a Postgres-backed users.UserRepo using pgx.
package pguserrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	apperrors "github.com/taskhub/go-task-server/internal/errors"
	"github.com/taskhub/go-task-server/users"
)

var _ users.UserRepo = (*PGUserRepo)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'user',
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	is_active     BOOLEAN NOT NULL DEFAULT FALSE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PGUserRepo struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and ensures the users table exists.
func New(ctx context.Context, dsn string) (*PGUserRepo, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[pguserrepo.New] parse DSN")
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[pguserrepo.New] connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[pguserrepo.New] ping")
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[pguserrepo.New] migrate")
	}

	return &PGUserRepo{pool: pool}, nil
}

// Pool exposes the underlying connection pool so other repositories can
// share it.
func (ur *PGUserRepo) Pool() *pgxpool.Pool { return ur.pool }

func (ur *PGUserRepo) Close() { ur.pool.Close() }

func (ur *PGUserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	_, err := ur.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, title, role, is_admin, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			title = EXCLUDED.title,
			role = EXCLUDED.role,
			is_admin = EXCLUDED.is_admin,
			is_active = EXCLUDED.is_active,
			password_hash = EXCLUDED.password_hash,
			updated_at = now()`,
		user.ID, user.Name, user.Email, user.Title, string(user.Role), user.IsAdmin, user.IsActive, user.PasswordHash)
	return errors.Wrap(err, "[PGUserRepo.Upsert]")
}

func (ur *PGUserRepo) Delete(ctx context.Context, id string) error {
	tag, err := ur.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "[PGUserRepo.Delete]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrUserNotFound, id)
	}
	return nil
}

func (ur *PGUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return ur.get(ctx, `WHERE email = $1`, email)
}

func (ur *PGUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return ur.get(ctx, `WHERE id = $1`, id)
}

func (ur *PGUserRepo) get(ctx context.Context, where string, arg any) (*users.User, error) {
	row := ur.pool.QueryRow(ctx, `
		SELECT id, name, email, title, role, is_admin, is_active, password_hash, created_at, updated_at
		FROM users `+where, arg)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PGUserRepo.get]")
	}
	return user, nil
}

func (ur *PGUserRepo) List(ctx context.Context) ([]*users.User, error) {
	rows, err := ur.pool.Query(ctx, `
		SELECT id, name, email, title, role, is_admin, is_active, password_hash, created_at, updated_at
		FROM users ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "[PGUserRepo.List]")
	}
	defer rows.Close()

	var list []*users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[PGUserRepo.List] scan")
		}
		list = append(list, user)
	}
	return list, errors.Wrap(rows.Err(), "[PGUserRepo.List] rows")
}

func (ur *PGUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := ur.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return errors.Wrap(err, "[PGUserRepo.SetActive]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrUserNotFound, id)
	}
	return nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var user users.User
	var role string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Title, &role,
		&user.IsAdmin, &user.IsActive, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Role = users.RoleType(role)
	return &user, nil
}
