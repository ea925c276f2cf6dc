package sharelinks

import (
	"context"

	"cryptora/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, link *models.ShareLink) error
	GetByNote(ctx context.Context, noteID string) (*models.ShareLink, error)
	GetByToken(ctx context.Context, token string) (*models.ShareLink, error)
	DeleteByNote(ctx context.Context, noteID string) (int64, error)
	IncrementViews(ctx context.Context, token string) (int64, error)
}
