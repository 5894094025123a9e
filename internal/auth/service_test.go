package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotedesk/quotedesk/internal/shared"
)

type stubRepo struct {
	users map[string]*User
}

func (s *stubRepo) FindByCode(_ context.Context, code string) (*User, error) {
	u, ok := s.users[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(&stubRepo{users: map[string]*User{
		"clerk1": {Code: "clerk1", Name: "Ana", PasswordHash: hash(t, "s3cret"), IsActive: true},
		"gone":   {Code: "gone", PasswordHash: hash(t, "x"), IsActive: false},
	}})

	user, err := svc.Authenticate(context.Background(), "clerk1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	_, err = svc.Authenticate(context.Background(), "clerk1", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "gone", "x")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "x")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
