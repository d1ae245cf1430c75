package lens

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session carries the tokens of an authenticated publication session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Account      string `json:"account"`
}

// SessionStore persists sessions between CLI runs. Load returns
// common.ErrNotFound when no session is cached.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// expiryLeeway avoids resuming a session that would expire mid-workflow.
const expiryLeeway = 30 * time.Second

// tokenUsable reports whether the JWT's exp claim is comfortably in the
// future. The signature is not verified here; the server does that.
func tokenUsable(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) > expiryLeeway
}
