package validators

import (
	"errors"
	"net/http"
	"strings"
)

// AccessTokenHeader carries the access token for clients that cannot set
// Authorization. Login and refresh also mirror the new token in it.
const AccessTokenHeader = "X-Storefront-Token"

var ErrMissingToken = errors.New("missing access token")

// BearerToken extracts the token from an Authorization header, accepting the
// bare token as well as the "Bearer <token>" form.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", ErrMissingToken
	}
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return "", ErrMissingToken
	}
	return raw, nil
}

// AccessToken prefers the Authorization header and falls back to
// AccessTokenHeader.
func AccessToken(r *http.Request) (string, error) {
	if token, err := BearerToken(r); err == nil {
		return token, nil
	}
	if token := strings.TrimSpace(r.Header.Get(AccessTokenHeader)); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}
