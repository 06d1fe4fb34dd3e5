package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubAuthStore struct {
	users map[string]*User
}

func newStubAuthStore() *stubAuthStore { return &stubAuthStore{users: map[string]*User{}} }

func (s *stubAuthStore) FindUserByEmail(email string) (*User, error) {
	return s.users[email], nil
}

func (s *stubAuthStore) AddUser(u *User) error {
	s.users[u.Email] = u
	return nil
}

func staticSigner(uid, email string, ttl time.Duration) (string, error) {
	return "tok-" + uid, nil
}

func TestAuthRegisterAndLogin(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, staticSigner)

	res, err := svc.Register("ava@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, res.UserID)
	require.Equal(t, "tok-"+res.UserID, res.Token)

	login, err := svc.Login("ava@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, res.UserID, login.UserID)

	_, err = svc.Login("ava@example.com", "wrong")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorUnauthorized, se.Code)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), staticSigner)

	_, err := svc.Register("ava@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register("ava@example.com", "pw2")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorConflict, se.Code)
}

func TestAuthValidatesInput(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), staticSigner)

	_, err := svc.Register("", "pw")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorInvalid, se.Code)

	_, err = svc.Login("ava@example.com", "  ")
	se, ok = AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorInvalid, se.Code)
}
