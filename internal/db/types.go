package db

import "context"

// MetadataStore persists small string values attached to an issue group.
// scope identifies the group; key is chosen by the integration.
type MetadataStore interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, scope, key string) (string, bool, error)
	// Set creates or replaces a value.
	Set(ctx context.Context, scope, key, value string) error
	// Delete removes a value. Deleting a missing value is not an error.
	Delete(ctx context.Context, scope, key string) error
	Close() error
}
