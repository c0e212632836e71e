package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/dbx"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores a share. A token collision yields common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, share *models.ShareToken) error {
	query :=
		`INSERT INTO file_shares (share_id, token, user_id, file_id, email, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	var email sql.NullString
	if share.Email != "" {
		email = sql.NullString{String: share.Email, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		share.ID, share.Token, share.UserID, share.FileID, email, share.ExpiresAt.UTC(), share.CreatedAt.UTC())
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.ShareToken, error) {
	query :=
		`SELECT share_id, token, user_id, file_id, email, expires_at, created_at FROM file_shares
		 WHERE token = $1
		 `

	s := &models.ShareToken{}
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&s.ID, &s.Token, &s.UserID, &s.FileID, &email, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.Email = email.String
	return s, nil
}
