package entries

import (
	"context"
	"iter"

	"github.com/dmitrijs2005/twosync/internal/client/models"
)

// Repository describes the operations the cache performs on Entry records.
type Repository interface {
	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Insert adds a new entry. A duplicate ID is an error.
	Insert(ctx context.Context, entry *models.Entry) error

	// All returns a lazy sequence over every entry in insertion order.
	All(ctx context.Context) iter.Seq2[models.Entry, error]

	// GetByID returns the entry with the given ID or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Entry, error)

	// Count returns the number of cached entries.
	Count(ctx context.Context) (int, error)
}
