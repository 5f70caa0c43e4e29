// Package supabase stores users and emotions in a Supabase project through its
// REST (PostgREST) and auth (GoTrue) APIs.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	supa "github.com/supabase-community/supabase-go"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
)

const (
	usersTable    = "users"
	emotionsTable = "emotions"
)

// NewClient connects to the project at url with the given API key.
func NewClient(url, key string) (*supa.Client, error) {
	client, err := supa.NewClient(url, key, &supa.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type emotionRow struct {
	UserID    string         `json:"user_id"`
	Timestamp string         `json:"timestamp"`
	Emotion   emotion.Labels `json:"emotion"`
}

// UserRepository implements repository.UserRepository over the users table.
type UserRepository struct {
	client *supa.Client
}

func NewUserRepository(client *supa.Client) *UserRepository {
	return &UserRepository{client: client}
}

func (r *UserRepository) Create(_ context.Context, u user.User) error {
	row := userRow{ID: u.ID, Username: u.Username, Password: u.PasswordHash}
	body, _, err := r.client.From(usersTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		if isDuplicate(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return expectRows(body, "insert user")
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (user.User, error) {
	var rows []userRow
	_, err := r.client.From(usersTable).Select("id, username, password", "", false).Eq("username", username).ExecuteTo(&rows)
	if err != nil {
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	if len(rows) == 0 {
		return user.User{}, repository.ErrNotFound
	}
	row := rows[0]
	return user.User{ID: row.ID, Username: row.Username, PasswordHash: row.Password}, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	body, _, err := r.client.From(usersTable).
		Update(map[string]string{"password": passwordHash}, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := expectRows(body, "update password"); err != nil {
		return repository.ErrNotFound
	}
	return nil
}

// EmotionRepository implements repository.EmotionRepository over the emotions table.
type EmotionRepository struct {
	client *supa.Client
}

func NewEmotionRepository(client *supa.Client) *EmotionRepository {
	return &EmotionRepository{client: client}
}

func (r *EmotionRepository) Insert(_ context.Context, record emotion.Record) error {
	row := map[string]string{
		"user_id":   record.UserID,
		"timestamp": record.Timestamp.UTC().Format(time.RFC3339Nano),
		"emotion":   record.Emotions.Literal(),
	}
	body, _, err := r.client.From(emotionsTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("insert emotion: %w", err)
	}
	return expectRows(body, "insert emotion")
}

func (r *EmotionRepository) ListByUser(_ context.Context, userID string) ([]emotion.Record, error) {
	var rows []emotionRow
	_, err := r.client.From(emotionsTable).Select("*", "", false).Eq("user_id", userID).ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select emotions: %w", err)
	}

	records := make([]emotion.Record, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, err
		}
		records = append(records, emotion.Record{UserID: row.UserID, Timestamp: ts, Emotions: row.Emotion})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

// AuthProvider registers accounts with the project's GoTrue auth service.
type AuthProvider struct {
	client *supa.Client
}

func NewAuthProvider(client *supa.Client) *AuthProvider {
	return &AuthProvider{client: client}
}

// SignUp creates the auth account and returns its user id.
func (p *AuthProvider) SignUp(_ context.Context, email, password string) (string, error) {
	resp, err := p.client.Auth.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("supabase sign up: %w", err)
	}
	if resp == nil || resp.User.ID == uuid.Nil {
		return "", errors.New("supabase sign up returned no user")
	}
	return resp.User.ID.String(), nil
}

// NewStore bundles both repositories over client.
func NewStore(client *supa.Client) repository.Store {
	return repository.Store{
		Users:    NewUserRepository(client),
		Emotions: NewEmotionRepository(client),
		Close:    func() error { return nil },
	}
}

func expectRows(body []byte, op string) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: no rows returned", op)
	}
	return nil
}

func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
