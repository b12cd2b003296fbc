package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-dist/meridian/internal/shared"
)

type fakeRepo struct {
	users map[string]*User
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService(&fakeRepo{users: map[string]*User{
		"ops@example.com": {ID: 1, Email: "ops@example.com", PasswordHash: string(hash), IsActive: true},
		"off@example.com": {ID: 2, Email: "off@example.com", PasswordHash: string(hash), IsActive: false},
	}})
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Authenticate(context.Background(), "ops@example.com", "correct-horse")
	require.NoError(t, err)
	require.EqualValues(t, 1, user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "ops@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "off@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
