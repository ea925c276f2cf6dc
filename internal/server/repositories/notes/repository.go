package notes

import (
	"context"

	"cryptora/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	Get(ctx context.Context, accountID, noteID string) (*models.Note, error)
	GetActiveByID(ctx context.Context, noteID string) (*models.Note, error)
	List(ctx context.Context, accountID string) ([]*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	UpdateGuarded(ctx context.Context, note *models.Note, expectedFingerprint string) error
	SoftDelete(ctx context.Context, accountID, noteID string) error
	UnfileByFolder(ctx context.Context, accountID, folderID string) (int64, error)
}
