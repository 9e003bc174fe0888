// Package slots defines the durable key-value storage the session and product
// services persist into.
package slots

import (
	"context"
)

// Slot keys.
const (
	KeyUserName        = "userName"
	KeyUserEmail       = "userEmail"
	KeyUserPassword    = "userPassword"
	KeyUserRole        = "userRole"
	KeyCredentialEmail = "credentialEmail"
	KeyCredentialRole  = "credentialRole"
	KeyProducts        = "products"
)

// Store is a string-keyed, string-valued durable storage. Removing a missing
// key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Closer is implemented by drivers holding connections.
type Closer interface {
	Close(ctx context.Context) error
}
