// Package accounttoken implements the stateless tokens used by the
// password-reset and email-verification links. A token is an HMAC over the
// account's current credential state plus the issue timestamp, so nothing is
// persisted server-side: changing the password (or logging in, which bumps
// last_seen) invalidates every outstanding token for that account.
package accounttoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teachmatch/accounts-api/internal/domain"
)

// macLen is the number of HMAC bytes kept in the token (40 hex chars).
const macLen = 20

// Generator issues and checks account tokens with a server-wide secret.
type Generator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Generator. ttl is the window during which an issued token
// stays valid, provided the account state has not changed.
func New(secret string, ttl time.Duration) *Generator {
	return &Generator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// EncodeID returns the reversible, non-secret identifier embedded in links.
func EncodeID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

// DecodeID reverses EncodeID. Returns domain.ErrInvalidLink when the
// identifier is not valid base64url.
func DecodeID(identifier string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(identifier)
	if err != nil {
		return "", fmt.Errorf("decode identifier: %w", domain.ErrInvalidLink)
	}
	return string(b), nil
}

// Issue returns (identifier, token) for the user. Pure: no side effects, and
// repeated calls within the same second at the same state yield the same pair.
func (g *Generator) Issue(u *domain.User) (string, string) {
	ts := g.now().Unix()
	return EncodeID(u.UserID), g.tokenAt(u, ts)
}

// Check validates token against the user's current state. It fails with
// domain.ErrInvalidToken when the MAC does not match or the token is older
// than the TTL. It never mutates anything; callers apply the follow-up state
// change (password set, verified flag) only after Check succeeds.
func (g *Generator) Check(u *domain.User, token string) error {
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return domain.ErrInvalidToken
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return domain.ErrInvalidToken
	}
	expected := g.tokenAt(u, ts)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return domain.ErrInvalidToken
	}
	age := g.now().Unix() - ts
	if age < 0 || age >= int64(g.ttl.Seconds()) {
		return domain.ErrInvalidToken
	}
	return nil
}

// tokenAt derives the token for a given issue timestamp from the user's
// current secret state.
func (g *Generator) tokenAt(u *domain.User, ts int64) string {
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%s|%s|%d|%d", u.UserID, u.PasswordHash, lastSeenUnix(u), ts)
	sum := mac.Sum(nil)
	return strconv.FormatInt(ts, 36) + "-" + hex.EncodeToString(sum[:macLen])
}

// lastSeenUnix truncates last_seen to the minute so sub-minute clock jitter
// between issue and check cannot flip the MAC input.
func lastSeenUnix(u *domain.User) int64 {
	if u.LastSeen == nil {
		return 0
	}
	return u.LastSeen.Truncate(time.Minute).Unix()
}
