// Package auth provides authentication for the state API.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthMethod represents the authentication method used.
type AuthMethod string

const (
	// AuthMethodNone indicates no authentication.
	AuthMethodNone AuthMethod = "none"
	// AuthMethodBasic indicates HTTP Basic authentication.
	AuthMethodBasic AuthMethod = "basic"
	// AuthMethodAPIKey indicates API key authentication.
	AuthMethodAPIKey AuthMethod = "apikey"
	// AuthMethodMulti indicates multi-method authentication.
	AuthMethodMulti AuthMethod = "multi"
)

// Access is what an authenticated subject may do with state containers.
type Access string

const (
	// AccessRead permits reading containers.
	AccessRead Access = "read"
	// AccessWrite permits reading, creating, mutating and deleting containers.
	AccessWrite Access = "write"
)

// ParseAccess converts a configured access level. An empty string means read.
func ParseAccess(s string) (Access, error) {
	switch Access(s) {
	case "", AccessRead:
		return AccessRead, nil
	case AccessWrite:
		return AccessWrite, nil
	default:
		return "", ErrInvalidAccess
	}
}

// Allows reports whether the access level permits an HTTP method.
func (a Access) Allows(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return a == AccessRead || a == AccessWrite
	default:
		return a == AccessWrite
	}
}

// AuthInfo holds authenticated identity information.
type AuthInfo struct {
	Method  AuthMethod
	Subject string
	Access  Access
}

// Authenticator validates a request and returns auth info.
type Authenticator interface {
	Authenticate(r *http.Request) (*AuthInfo, error)
	Method() AuthMethod
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAccess      = errors.New("access must be one of: read, write")
	ErrForbidden          = errors.New("forbidden: write access required")
)

// contextKey is the type for context keys in this package.
type contextKey string

// authInfoKey is the context key for AuthInfo.
const authInfoKey contextKey = "auth_info"

// FromContext retrieves AuthInfo from the context.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(*AuthInfo)
	return info, ok
}

// WithAuthInfo stores AuthInfo in the context.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}
