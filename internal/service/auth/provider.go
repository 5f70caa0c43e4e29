package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Provider creates accounts with the identity backend and returns the new user id.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
}

// LocalProvider issues identifiers itself. Used when no hosted auth service is configured.
type LocalProvider struct{}

func (LocalProvider) SignUp(_ context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", errors.New("email and password are required")
	}
	return uuid.NewString(), nil
}
