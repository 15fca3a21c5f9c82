package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"tallybot/internal/repos"
)

var ErrBadPassword = errors.New("wrong password")

// AuthService gates conversations behind the shared access password. The
// password hash comes from configuration, not a process-wide constant.
type AuthService struct {
	Repo         *repos.AuthRepo
	PasswordHash []byte // bcrypt
}

// Authorize checks the password and remembers the conversation on success.
func (s *AuthService) Authorize(conversationID, displayName, password string) error {
	if bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(password)) != nil {
		return ErrBadPassword
	}
	return s.Repo.Authorize(conversationID, displayName)
}

// IsAuthorized reports whether the conversation already passed the gate.
func (s *AuthService) IsAuthorized(conversationID string) (bool, error) {
	return s.Repo.IsAuthorized(conversationID)
}
