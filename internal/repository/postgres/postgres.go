// Package postgres stores users and emotions directly in Postgres through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
)

const uniqueViolation = "23505"

// UserRepository implements repository.UserRepository over the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, password)
		VALUES ($1, $2, $3)
	`, u.ID, u.Username, u.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, repository.ErrNotFound
		}
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EmotionRepository implements repository.EmotionRepository over the emotions table.
type EmotionRepository struct {
	pool *pgxpool.Pool
}

func NewEmotionRepository(pool *pgxpool.Pool) *EmotionRepository {
	return &EmotionRepository{pool: pool}
}

func (r *EmotionRepository) Insert(ctx context.Context, record emotion.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emotions (user_id, "timestamp", emotion)
		VALUES ($1, $2, $3::text[])
	`, record.UserID, record.Timestamp, record.Emotions.Literal())
	if err != nil {
		return fmt.Errorf("insert emotion: %w", err)
	}
	return nil
}

func (r *EmotionRepository) ListByUser(ctx context.Context, userID string) ([]emotion.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, "timestamp", emotion::text
		FROM emotions
		WHERE user_id = $1
		ORDER BY "timestamp" ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select emotions: %w", err)
	}
	defer rows.Close()

	var records []emotion.Record
	for rows.Next() {
		var (
			record  emotion.Record
			literal string
		)
		if err := rows.Scan(&record.UserID, &record.Timestamp, &literal); err != nil {
			return nil, err
		}
		labels, err := emotion.ParseLiteral(literal)
		if err != nil {
			return nil, fmt.Errorf("decode emotions of %s: %w", userID, err)
		}
		record.Emotions = labels
		records = append(records, record)
	}
	return records, rows.Err()
}

// NewStore bundles both repositories over pool.
func NewStore(pool *pgxpool.Pool) repository.Store {
	return repository.Store{
		Users:    NewUserRepository(pool),
		Emotions: NewEmotionRepository(pool),
		Close: func() error {
			pool.Close()
			return nil
		},
	}
}
