// Package metadata is the local key-value store of twosync. It keeps the
// credentials entered by the user and the IDs of remote index resources
// (see the Key* constants in internal/common).
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
