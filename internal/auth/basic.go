package auth

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthenticator authenticates requests using HTTP Basic authentication
// with bcrypt-hashed passwords.
type BasicAuthenticator struct {
	users map[string]credential
}

// NewBasicAuthenticator creates a new Basic authenticator from a
// configuration string in the format "user:bcrypt_hash[:access],...".
// Bcrypt hashes never contain a colon.
func NewBasicAuthenticator(
	usersConfig string,
) (*BasicAuthenticator, error) {
	creds, err := parseCredentials("basic auth", usersConfig)
	if err != nil {
		return nil, err
	}

	users := make(map[string]credential, len(creds))
	for _, c := range creds {
		users[c.id] = c
	}

	return &BasicAuthenticator{users: users}, nil
}

// Authenticate verifies Basic credentials against the stored bcrypt hash.
func (a *BasicAuthenticator) Authenticate(
	r *http.Request,
) (*AuthInfo, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthenticated
	}

	user, exists := a.users[username]
	if !exists {
		return nil, fmt.Errorf("%w: unknown user", ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.secret), []byte(password),
	); err != nil {
		return nil, fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
	}

	return &AuthInfo{
		Method:  AuthMethodBasic,
		Subject: username,
		Access:  user.access,
	}, nil
}

// Method returns the authentication method type.
func (a *BasicAuthenticator) Method() AuthMethod {
	return AuthMethodBasic
}
