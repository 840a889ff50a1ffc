package documents

import (
	"context"

	"github.com/lifeledger/lifeledger/internal/server/models"
)

type Repository interface {
	// Create inserts one document record and fills in RowID/CreatedAt.
	// A duplicate storage key yields common.ErrorAlreadyExists.
	Create(ctx context.Context, doc *models.Document) error

	// SelectByUser returns the user's documents, newest first.
	SelectByUser(ctx context.Context, userID string) ([]*models.Document, error)
}
