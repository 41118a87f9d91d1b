package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indicates that provided credentials are incorrect.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService checks the single shared credential pair guarding the UI,
// the API and the WebDAV share.
type AuthService interface {
	Authenticate(username, password string) error
}

type authService struct {
	username     string
	password     string
	passwordHash []byte
}

// NewAuthService accepts either a plain password or a bcrypt hash; the hash
// wins when both are set.
func NewAuthService(username, password, passwordHash string) (AuthService, error) {
	username = strings.TrimSpace(username)
	passwordHash = strings.TrimSpace(passwordHash)
	if username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" && passwordHash == "" {
		return nil, errors.New("password or password hash is required")
	}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("parse password hash: %w", err)
		}
	}
	return &authService{
		username:     username,
		password:     password,
		passwordHash: []byte(passwordHash),
	}, nil
}

func (s *authService) Authenticate(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	var passOK bool
	if len(s.passwordHash) > 0 {
		passOK = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	}

	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword is used by the hash-password command to produce a value for
// webdav.passwordhash.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

var _ AuthService = (*authService)(nil)
