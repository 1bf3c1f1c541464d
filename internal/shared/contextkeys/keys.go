package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "territory-run context key " + string(c)
}

// UserIDKey is the key for the authenticated user ID in context.Context
const UserIDKey = contextKey("userID")

// RequestIDKey is the key for the request ID in context.Context
const RequestIDKey = contextKey("requestID")

// RunIDKey is the key for the run ID in context.Context, set while a capture
// transaction for that run is in flight.
const RunIDKey = contextKey("runID")

// ComponentKey is the key for the logical component name in context.Context
const ComponentKey = contextKey("component")
