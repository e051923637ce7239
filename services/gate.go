package services

import (
	"context"
	"crypto/subtle"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"

	"go.uber.org/zap"
)

// UnlockStore persists the admin unlock flag.
type UnlockStore interface {
	Unlocked(ctx context.Context) (bool, error)
	SetUnlocked(ctx context.Context, unlocked bool) error
}

// Gate is the shared-passcode admin gate. It only hides the admin screens
// from casual visitors; writes are protected by sessions, not by the gate.
type Gate struct {
	store    UnlockStore
	passcode string
	logger   *zap.Logger
}

func NewGate(store UnlockStore, passcode string, logger *zap.Logger) *Gate {
	return &Gate{store: store, passcode: passcode, logger: logger}
}

func (g *Gate) Unlock(ctx context.Context, passcode string) (res Result[bool]) {
	defer recoverInto(g.logger, "unlock admin", &res)

	if g.passcode == "" {
		return fail[bool](apperrors.Validation("admin passcode not configured"))
	}
	if subtle.ConstantTimeCompare([]byte(passcode), []byte(g.passcode)) != 1 {
		g.logger.Warn("Rejected admin passcode")
		return fail[bool](apperrors.Unauthenticated("Incorrect passcode"))
	}
	if err := g.store.SetUnlocked(ctx, true); err != nil {
		return fail[bool](err)
	}
	return ok(true, "Admin unlocked")
}

func (g *Gate) Lock(ctx context.Context) (res Result[bool]) {
	defer recoverInto(g.logger, "lock admin", &res)

	if err := g.store.SetUnlocked(ctx, false); err != nil {
		return fail[bool](err)
	}
	return ok(false, "Admin locked")
}

func (g *Gate) Status(ctx context.Context) (res Result[bool]) {
	defer recoverInto(g.logger, "admin status", &res)

	unlocked, err := g.store.Unlocked(ctx)
	if err != nil {
		return fail[bool](err)
	}
	return ok(unlocked, "")
}
