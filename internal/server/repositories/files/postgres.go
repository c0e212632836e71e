package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/dbx"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `file_id, user_id, folder_id, filename, storage_key, size_bytes, uploaded_at`

// Upsert records a file by storage_key. When a row with the same key
// exists, its size and upload time are refreshed and its file_id is kept;
// the returned id is always the one stored, and inserted reports whether
// a new row was created.
func (r *PostgresRepository) Upsert(ctx context.Context, file *models.File) (string, bool, error) {
	query :=
		`INSERT INTO files (` + fileColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (storage_key)
		 DO UPDATE SET
			size_bytes = EXCLUDED.size_bytes,
			uploaded_at = EXCLUDED.uploaded_at
		 RETURNING file_id, (xmax = 0) AS inserted
		 `

	var (
		id       string
		inserted bool
	)
	err := r.db.QueryRowContext(ctx, query,
		file.ID, file.UserID, file.FolderID, file.Filename, file.StorageKey, file.SizeBytes, file.UploadedAt).
		Scan(&id, &inserted)
	if err != nil {
		return "", false, fmt.Errorf("db error: %w", err)
	}
	return id, inserted, nil
}

// ListByFolder returns the files of one folder, newest first.
func (r *PostgresRepository) ListByFolder(ctx context.Context, userID, folderID string) ([]*models.File, error) {
	query :=
		`SELECT ` + fileColumns + ` FROM files
		 WHERE user_id = $1 AND folder_id = $2
		 ORDER BY uploaded_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.UserID, &item.FolderID, &item.Filename,
			&item.StorageKey, &item.SizeBytes, &item.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a file owned by userID, or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID, fileID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 AND file_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, fileID))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.UserID, &f.FolderID, &f.Filename, &f.StorageKey, &f.SizeBytes, &f.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// Delete removes one file row owned by userID.
func (r *PostgresRepository) Delete(ctx context.Context, userID, fileID string) error {
	query := `DELETE FROM files WHERE user_id = $1 AND file_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
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
