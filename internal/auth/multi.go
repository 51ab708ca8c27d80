package auth

import (
	"errors"
	"net/http"
)

// MultiAuthenticator chains authenticators. A request carrying no credentials
// for one method falls through to the next; a request carrying bad
// credentials fails at once.
type MultiAuthenticator struct {
	authenticators []Authenticator
}

// NewMultiAuthenticator creates a chain of the given authenticators. Nil
// entries are skipped.
func NewMultiAuthenticator(
	authenticators ...Authenticator,
) *MultiAuthenticator {
	chain := make([]Authenticator, 0, len(authenticators))
	for _, a := range authenticators {
		if a != nil {
			chain = append(chain, a)
		}
	}
	return &MultiAuthenticator{authenticators: chain}
}

// Authenticate returns the first successful result in chain order.
func (a *MultiAuthenticator) Authenticate(
	r *http.Request,
) (*AuthInfo, error) {
	for _, authenticator := range a.authenticators {
		info, err := authenticator.Authenticate(r)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
	}

	return nil, ErrUnauthenticated
}

// Method returns the authentication method type.
func (a *MultiAuthenticator) Method() AuthMethod {
	return AuthMethodMulti
}
