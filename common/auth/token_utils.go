package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const sessionTokenType = "admin_session"

// Session identifies the authenticated admin behind a request.
type Session struct {
	UserID string
	Email  string
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached to ctx, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, false
	}
	return s, true
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for s.
func (ti *TokenIssuer) Issue(s Session) (string, error) {
	if len(ti.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := ti.now()
	claims := jwt.MapClaims{
		"sub":   s.UserID,
		"email": s.Email,
		"typ":   sessionTokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(ti.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Parse validates tokenStr and returns the session it carries.
func (ti *TokenIssuer) Parse(tokenStr string) (Session, error) {
	if len(ti.secret) == 0 {
		return Session{}, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return Session{}, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("invalid token claims")
	}
	if typ, ok := claims["typ"].(string); !ok || typ != sessionTokenType {
		return Session{}, fmt.Errorf("invalid token type")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Session{}, fmt.Errorf("token has no subject")
	}
	email, _ := claims["email"].(string)
	return Session{UserID: sub, Email: email}, nil
}
