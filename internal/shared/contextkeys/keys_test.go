package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys_AreDistinct(t *testing.T) {
	keys := []contextKey{UserIDKey, RequestIDKey, RunIDKey, ComponentKey}
	seen := make(map[contextKey]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate context key %q", k)
		seen[k] = true
	}
}

func TestContextKeys_DoNotCollideWithStringKeys(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, UserIDKey, "user-1")

	// A plain string key with the same literal value must not read our value.
	assert.Nil(t, ctx.Value("userID"))
	assert.Equal(t, "user-1", ctx.Value(UserIDKey))
}

func TestContextKey_String(t *testing.T) {
	assert.Contains(t, UserIDKey.String(), "territory-run context key")
	assert.Contains(t, UserIDKey.String(), "userID")
}
