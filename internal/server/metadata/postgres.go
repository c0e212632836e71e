package metadata

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/dbx"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/paths"
	"github.com/dmitrijs2005/sparkdrive/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PostgresStore implements Store on top of the per-table repositories.
type PostgresStore struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	now   func() time.Time
	newID func() string
}

func NewPostgresStore(db *sql.DB, repos repomanager.RepositoryManager) *PostgresStore {
	return &PostgresStore{
		db:    db,
		repos: repos,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func upstream(err error, op string) error {
	return common.WrapError(common.KindUpstreamUnavailable, err, "metadata store: %s", op)
}

func (s *PostgresStore) FolderExists(ctx context.Context, userID, path string) (string, bool, error) {
	f, err := s.repos.Folders(s.db).GetByPath(ctx, userID, path)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", false, nil
		}
		return "", false, upstream(err, "get folder")
	}
	return f.ID, true, nil
}

func (s *PostgresStore) FolderIDExists(ctx context.Context, userID, folderID string) (bool, error) {
	ok, err := s.repos.Folders(s.db).ExistsByID(ctx, userID, folderID)
	if err != nil {
		return false, upstream(err, "get folder")
	}
	return ok, nil
}

func (s *PostgresStore) ListFoldersUnder(ctx context.Context, userID, path string) ([]string, error) {
	all, err := s.repos.Folders(s.db).ListPathsWithPrefix(ctx, userID, paths.Prefix(path))
	if err != nil {
		return nil, upstream(err, "list folders")
	}
	// the root prefix "/" also matches the root row itself
	out := all[:0]
	for _, p := range all {
		if paths.IsAncestor(path, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PostgresStore) ListFilesIn(ctx context.Context, userID, folderID string) ([]*models.File, error) {
	files, err := s.repos.Files(s.db).ListByFolder(ctx, userID, folderID)
	if err != nil {
		return nil, upstream(err, "list files")
	}
	return files, nil
}

func (s *PostgresStore) newFolder(userID, path string) *models.Folder {
	now := s.now()
	return &models.Folder{ID: s.newID(), UserID: userID, Path: path, CreatedAt: now, ModifiedAt: now}
}

func (s *PostgresStore) InsertFolder(ctx context.Context, userID, path string) (string, error) {
	f := s.newFolder(userID, path)
	if err := s.repos.Folders(s.db).Create(ctx, f); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return "", common.NewError(common.KindConflict, "folder %s already exists", path)
		}
		return "", upstream(err, "insert folder")
	}
	return f.ID, nil
}

// EnsureRoot creates the user's root folder on first use and returns its id.
func (s *PostgresStore) EnsureRoot(ctx context.Context, userID string) (string, error) {
	var id string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Folders(tx)
		if err := repo.CreateIfAbsent(ctx, s.newFolder(userID, paths.Root)); err != nil {
			return err
		}
		f, err := repo.GetByPath(ctx, userID, paths.Root)
		if err != nil {
			return err
		}
		id = f.ID
		return nil
	})
	if err != nil {
		return "", upstream(err, "ensure root")
	}
	return id, nil
}

func (s *PostgresStore) DeleteFolder(ctx context.Context, userID, path string) error {
	if err := s.repos.Folders(s.db).Delete(ctx, userID, path); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.KindNotFound, "folder %s not found", path)
		}
		return upstream(err, "delete folder")
	}
	return nil
}

func (s *PostgresStore) InsertFile(ctx context.Context, file *models.File) (string, bool, error) {
	id, inserted, err := s.repos.Files(s.db).Upsert(ctx, file)
	if err != nil {
		return "", false, upstream(err, "insert file")
	}
	return id, inserted, nil
}

func (s *PostgresStore) DeleteFile(ctx context.Context, userID, fileID string) error {
	if err := s.repos.Files(s.db).Delete(ctx, userID, fileID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.KindNotFound, "file %s not found", fileID)
		}
		return upstream(err, "delete file")
	}
	return nil
}

func (s *PostgresStore) GetFile(ctx context.Context, userID, fileID string) (*models.File, bool, error) {
	f, err := s.repos.Files(s.db).Get(ctx, userID, fileID)
	return found(f, err, "get file")
}

func (s *PostgresStore) CreateShare(ctx context.Context, share *models.ShareToken) error {
	if err := s.repos.Shares(s.db).Create(ctx, share); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return common.NewError(common.KindConflict, "share token collision")
		}
		return upstream(err, "create share")
	}
	return nil
}

func (s *PostgresStore) FindShare(ctx context.Context, token string) (*models.ShareToken, bool, error) {
	sh, err := s.repos.Shares(s.db).GetByToken(ctx, token)
	return found(sh, err, "find share")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return upstream(err, "ping")
	}
	return nil
}

func found[T any](v *T, err error, op string) (*T, bool, error) {
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, upstream(err, op)
	}
	return v, true, nil
}
