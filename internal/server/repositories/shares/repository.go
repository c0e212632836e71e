// Package shares stores share tokens.
package shares

import (
	"context"

	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, share *models.ShareToken) error
	GetByToken(ctx context.Context, token string) (*models.ShareToken, error)
}
