package auth

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader is the HTTP header name for API key authentication.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthenticator authenticates requests using API keys provided
// in the X-API-Key header with constant-time comparison.
type APIKeyAuthenticator struct {
	keys []credential // id is the key name, secret the key value
}

// NewAPIKeyAuthenticator creates a new API key authenticator from a
// configuration string in the format "key:name[:access],...". The key value
// comes first so that existing "key:name" lists keep working.
func NewAPIKeyAuthenticator(
	keysConfig string,
) (*APIKeyAuthenticator, error) {
	creds, err := parseCredentials("apikey auth", keysConfig)
	if err != nil {
		return nil, err
	}

	keys := make([]credential, 0, len(creds))
	for _, c := range creds {
		keys = append(keys, credential{id: c.secret, secret: c.id, access: c.access})
	}

	return &APIKeyAuthenticator{keys: keys}, nil
}

// Authenticate validates the X-API-Key header against every configured key
// using constant-time comparison.
func (a *APIKeyAuthenticator) Authenticate(
	r *http.Request,
) (*AuthInfo, error) {
	apiKey := r.Header.Get(APIKeyHeader)
	if apiKey == "" {
		return nil, ErrUnauthenticated
	}

	var match *credential
	for i := range a.keys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(a.keys[i].secret)) == 1 {
			match = &a.keys[i]
		}
	}

	if match == nil {
		return nil, ErrInvalidAPIKey
	}

	return &AuthInfo{
		Method:  AuthMethodAPIKey,
		Subject: match.id,
		Access:  match.access,
	}, nil
}

// Method returns the authentication method type.
func (a *APIKeyAuthenticator) Method() AuthMethod {
	return AuthMethodAPIKey
}
