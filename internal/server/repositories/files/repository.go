// Package files stores file rows. storage_key is unique across the table.
package files

import (
	"context"

	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, file *models.File) (fileID string, inserted bool, err error)
	ListByFolder(ctx context.Context, userID, folderID string) ([]*models.File, error)
	Get(ctx context.Context, userID, fileID string) (*models.File, error)
	Delete(ctx context.Context, userID, fileID string) error
}
