package posts

import (
	"context"
	"iter"

	"github.com/dmitrijs2005/twosync/internal/client/models"
)

// Repository describes the operations the cache performs on Post records.
type Repository interface {
	// Clear removes every post.
	Clear(ctx context.Context) error

	// Insert adds a new post. A duplicate ID is an error.
	Insert(ctx context.Context, post *models.Post) error

	// All returns a lazy sequence over every post in insertion order.
	All(ctx context.Context) iter.Seq2[models.Post, error]

	// GetByEntryID returns the posts of one entry via the entry_id index.
	GetByEntryID(ctx context.Context, entryID string) ([]models.Post, error)

	// Count returns the number of cached posts.
	Count(ctx context.Context) (int, error)
}
