package redis

import "strings"

const keyNamespace = "sf"

// Key families. Every key is "sf:<family>:<parts...>".
const (
	familyRateLimit = "rate_limit"
	familySession   = "session"
	familyCache     = "cache"
)

func key(family string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(family)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// RateLimitKey is the counter key for one limiter scope.
func (c *Client) RateLimitKey(scope string) string {
	return key(familyRateLimit, scope)
}

// AccessSessionKey holds the refresh token minted alongside an access token id.
func (c *Client) AccessSessionKey(accessID string) string {
	return key(familySession, "access", accessID)
}

// CacheKey namespaces read-model caches, e.g. CacheKey("categories", "tree").
// Blank parts are dropped.
func (c *Client) CacheKey(parts ...string) string {
	return key(familyCache, parts...)
}
