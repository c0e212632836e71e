// Package metadata is the user-scoped view of the relational metadata
// store: folders addressed by path, files bound to folder ids and share
// tokens. Absent rows are reported with ok=false, never as errors; store
// failures surface as common.KindUpstreamUnavailable.
package metadata

import (
	"context"

	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

type Store interface {
	// FolderExists matches path exactly; intermediate segments are never implied.
	FolderExists(ctx context.Context, userID, path string) (id string, ok bool, err error)
	// FolderIDExists reports whether userID still owns the folder with id.
	FolderIDExists(ctx context.Context, userID, folderID string) (bool, error)
	// ListFoldersUnder returns the paths of every folder strictly below path.
	ListFoldersUnder(ctx context.Context, userID, path string) ([]string, error)
	// ListFilesIn returns the files of a folder, newest first.
	ListFilesIn(ctx context.Context, userID, folderID string) ([]*models.File, error)
	InsertFolder(ctx context.Context, userID, path string) (id string, err error)
	EnsureRoot(ctx context.Context, userID string) (id string, err error)
	DeleteFolder(ctx context.Context, userID, path string) error

	// InsertFile records a file, keyed by storage key. A second record for
	// an existing key keeps the first file id and takes the new size and
	// upload time; inserted is false then.
	InsertFile(ctx context.Context, file *models.File) (fileID string, inserted bool, err error)
	DeleteFile(ctx context.Context, userID, fileID string) error
	GetFile(ctx context.Context, userID, fileID string) (*models.File, bool, error)

	CreateShare(ctx context.Context, share *models.ShareToken) error
	FindShare(ctx context.Context, token string) (*models.ShareToken, bool, error)

	Ping(ctx context.Context) error
}
