package authclient

import (
	"context"

	"territory-run/internal/auth/usecase"
)

// Adapter bridges the engine's identity needs to the auth module. The engine
// depends only on the AuthClient interface, so the coupling between the two
// modules stays at this single seam.
type Adapter struct {
	auth usecase.AuthUsecaseInterface
}

// New creates the adapter.
func New(auth usecase.AuthUsecaseInterface) *Adapter {
	return &Adapter{auth: auth}
}

func (a *Adapter) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := a.auth.ValidateToken(ctx, tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (a *Adapter) ResolveUsernames(ctx context.Context, userIDs []string) (map[string]string, error) {
	return a.auth.ResolveUsernames(ctx, userIDs)
}

func (a *Adapter) FCMTokens(ctx context.Context, userIDs []string) (map[string][]string, error) {
	return a.auth.FCMTokens(ctx, userIDs)
}
