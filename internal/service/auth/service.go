// Package auth wraps account registration, login and the emotion log behind one service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
	"github.com/zhouzirui/emotibot/backend/internal/model/user"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
)

const (
	MsgRegistered    = "User registered successfully!"
	MsgSaveFailed    = "Error saving user in database."
	MsgRegisterError = "Error registering user."

	defaultTokenTTL = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

var hashPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Claims is what a verified access token carries.
type Claims struct {
	UserID    string
	Username  string
	SessionID string
}

type Service struct {
	provider  Provider
	users     repository.UserRepository
	emotions  repository.EmotionRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewService(provider Provider, store repository.Store, jwtSecret string, tokenTTL time.Duration) *Service {
	if provider == nil {
		provider = LocalProvider{}
	}
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &Service{
		provider:  provider,
		users:     store.Users,
		emotions:  store.Emotions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register signs the account up with the provider, then keeps an application-level
// copy of the user with a bcrypt hash of the password. The returned message is meant
// for the end user.
func (s *Service) Register(ctx context.Context, email, password string) (string, string, error) {
	email = strings.TrimSpace(email)

	userID, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		log.Printf("[auth] sign up failed for %s: %v", email, err)
		return "", MsgRegisterError, fmt.Errorf("sign up: %w", err)
	}
	if userID == "" {
		return "", MsgRegisterError, errors.New("sign up returned no user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", MsgRegisterError, fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.Create(ctx, user.User{ID: userID, Username: email, PasswordHash: string(hash)}); err != nil {
		log.Printf("[auth] saving user %s failed: %v", email, err)
		return "", MsgSaveFailed, fmt.Errorf("save user: %w", err)
	}

	log.Printf("[auth] user %s registered", email)
	return userID, MsgRegistered, nil
}

// Login checks the password against the stored value. Rows still holding a plaintext
// password are rehashed on the first successful login.
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if isHashed(u.PasswordHash) {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		return &u, nil
	}

	if u.PasswordHash != password {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		log.Printf("[auth] rehash for %s failed: %v", u.Username, err)
	} else {
		log.Printf("[auth] legacy password for %s rehashed", u.Username)
		u.PasswordHash = string(hash)
	}
	return &u, nil
}

func isHashed(stored string) bool {
	for _, prefix := range hashPrefixes {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}

// IssueToken signs an access token bound to one session.
func (s *Service) IssueToken(u user.User, sessionID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"sid":      sessionID,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ValidateToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{}
	out.UserID, _ = mapClaims["sub"].(string)
	out.Username, _ = mapClaims["username"].(string)
	out.SessionID, _ = mapClaims["sid"].(string)
	if out.UserID == "" || out.SessionID == "" {
		return Claims{}, ErrInvalidToken
	}
	return out, nil
}

// SaveEmotions appends one row to the emotion log. Failures are logged and dropped.
func (s *Service) SaveEmotions(ctx context.Context, userID string, scores []emotion.Score) {
	if userID == "" {
		log.Printf("[auth] no user id, emotions not saved")
		return
	}

	labels := emotion.NamesOf(scores)
	if len(labels) == 0 {
		labels = emotion.Labels{emotion.Neutral}
	}

	record := emotion.Record{UserID: userID, Timestamp: s.now().UTC(), Emotions: labels}
	if err := s.emotions.Insert(ctx, record); err != nil {
		log.Printf("[auth] saving emotions for %s failed: %v", userID, err)
	}
}

// Emotions returns the user's emotion log in timestamp order.
func (s *Service) Emotions(ctx context.Context, userID string) ([]emotion.Record, error) {
	records, err := s.emotions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list emotions: %w", err)
	}
	return records, nil
}
