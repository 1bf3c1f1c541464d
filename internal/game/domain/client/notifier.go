package client

import "context"

// Notifier delivers push notifications to users. Invocations are
// fire-and-forget from the engine's perspective: implementations log
// failures and never report them back to the capture transaction.
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, title, body string, data map[string]string)
}
