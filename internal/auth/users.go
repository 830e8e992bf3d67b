package auth

import (
	"errors"
	"strings"

	"agency-platform/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike, so the login endpoint cannot be used to probe which admin accounts
// exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore holds the back-office accounts loaded from configuration.
// Passwords are bcrypt hashes; plaintext never touches this package.
type UserStore struct {
	byEmail map[string]config.AdminUser
}

func NewUserStore(users []config.AdminUser) *UserStore {
	m := make(map[string]config.AdminUser, len(users))
	for _, u := range users {
		m[strings.ToLower(u.Email)] = u
	}
	return &UserStore{byEmail: m}
}

// Lookup returns the account for an email, if provisioned.
func (s *UserStore) Lookup(email string) (config.AdminUser, bool) {
	u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return u, ok
}

func (s *UserStore) Authenticate(email, password string) (config.AdminUser, error) {
	u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		// Burn a comparison anyway to keep timing uniform.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0q0lyeVXFMZBambS27WqpXpLOSi"), []byte(password))
		return config.AdminUser{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return config.AdminUser{}, ErrInvalidCredentials
	}
	return u, nil
}
