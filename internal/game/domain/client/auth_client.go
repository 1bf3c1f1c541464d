package client

import (
	"context"
)

// AuthClient defines the interface for communicating with the identity
// module. The engine treats identity as opaque: user IDs in, display names
// and device tokens out.
type AuthClient interface {
	// ValidateToken validates the given credential and returns the user ID
	// it belongs to, or an error when the credential is invalid or expired.
	ValidateToken(ctx context.Context, tokenString string) (userID string, err error)

	// ResolveUsernames maps user IDs to display names. IDs without a known
	// user are simply absent from the result, not an error.
	ResolveUsernames(ctx context.Context, userIDs []string) (map[string]string, error)

	// FCMTokens returns the registered push-notification device tokens for
	// the given users.
	FCMTokens(ctx context.Context, userIDs []string) (map[string][]string, error)
}
