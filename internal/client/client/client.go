package client

import (
	"context"

	"github.com/dmitrijs2005/twosync/internal/client/models"
)

// Client is the contract of the remote Twos API used by both sync pipelines.
type Client interface {
	// Export fetches the full account snapshot (entries and posts).
	Export(ctx context.Context, userID, token string) (*models.Snapshot, error)
}
