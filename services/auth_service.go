package services

import (
	"context"
	"strings"
	"time"

	"github.com/yashrajoria/affiliate-storefront/common/auth"
	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// LoginResponse is returned on a successful admin login.
type LoginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService signs the single configured admin in.
type AuthService interface {
	Login(ctx context.Context, email, password string) Result[*LoginResponse]
}

type authServiceImpl struct {
	email        string
	passwordHash []byte
	issuer       *auth.TokenIssuer
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewAuthService(email, passwordHash string, issuer *auth.TokenIssuer, ttl time.Duration, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
		issuer:       issuer,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// adminUserID derives a stable id from the admin email.
func adminUserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (res Result[*LoginResponse]) {
	defer recoverInto(s.logger, "login", &res)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fail[*LoginResponse](apperrors.Validation("email and password are required"))
	}
	if s.email == "" || len(s.passwordHash) == 0 {
		return fail[*LoginResponse](apperrors.Unauthenticated("Admin login is not configured"))
	}
	// Compare the hash even for an unknown email so both paths cost the same.
	hashErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if email != s.email || hashErr != nil {
		s.logger.Warn("Rejected admin login", zap.String("email", email))
		return fail[*LoginResponse](apperrors.Unauthenticated("Invalid email or password"))
	}

	session := auth.Session{UserID: adminUserID(email), Email: email}
	token, err := s.issuer.Issue(session)
	if err != nil {
		s.logger.Error("Failed to issue session token", zap.Error(err))
		return fail[*LoginResponse](apperrors.Store("failed to issue session token", err))
	}

	s.logger.Info("Admin logged in", zap.String("user_id", session.UserID))
	return ok(&LoginResponse{
		Token:     token,
		UserID:    session.UserID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}, "Logged in")
}
