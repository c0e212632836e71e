package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/dbx"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a folder row. A second row for the same (user_id, path)
// fails with common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) error {
	query :=
		`INSERT INTO folders (folder_id, user_id, path, created_at, modified_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		folder.ID, folder.UserID, folder.Path, folder.CreatedAt, folder.ModifiedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts a folder row unless one already exists for the
// same (user_id, path).
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, folder *models.Folder) error {
	query :=
		`INSERT INTO folders (folder_id, user_id, path, created_at, modified_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, path) DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query,
		folder.ID, folder.UserID, folder.Path, folder.CreatedAt, folder.ModifiedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByPath returns the folder at exactly path, or common.ErrorNotFound.
func (r *PostgresRepository) GetByPath(ctx context.Context, userID, path string) (*models.Folder, error) {
	query :=
		`SELECT folder_id, user_id, path, created_at, modified_at FROM folders
		 WHERE user_id = $1 AND path = $2
		 `

	f := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, userID, path).
		Scan(&f.ID, &f.UserID, &f.Path, &f.CreatedAt, &f.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// ExistsByID reports whether userID still owns a folder with folderID.
func (r *PostgresRepository) ExistsByID(ctx context.Context, userID, folderID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM folders WHERE user_id = $1 AND folder_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, folderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ListPathsWithPrefix returns the paths of userID's folders starting with
// prefix, sorted. The comparison is a plain string prefix, so callers pass
// "parent/" to get descendants only.
func (r *PostgresRepository) ListPathsWithPrefix(ctx context.Context, userID, prefix string) ([]string, error) {
	query :=
		`SELECT path FROM folders
		 WHERE user_id = $1 AND starts_with(path, $2)
		 ORDER BY path
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the folder at exactly path. Exactly one row must go.
func (r *PostgresRepository) Delete(ctx context.Context, userID, path string) error {
	query := `DELETE FROM folders WHERE user_id = $1 AND path = $2`

	result, err := r.db.ExecContext(ctx, query, userID, path)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
