// Package folders stores folder rows keyed by (user_id, path).
package folders

import (
	"context"

	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) error
	CreateIfAbsent(ctx context.Context, folder *models.Folder) error
	GetByPath(ctx context.Context, userID, path string) (*models.Folder, error)
	ExistsByID(ctx context.Context, userID, folderID string) (bool, error)
	ListPathsWithPrefix(ctx context.Context, userID, prefix string) ([]string, error)
	Delete(ctx context.Context, userID, path string) error
}
