package folders

import (
	"context"

	"cryptora/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	Get(ctx context.Context, accountID, folderID string) (*models.Folder, error)
	List(ctx context.Context, accountID string) ([]*models.Folder, error)
	Update(ctx context.Context, folder *models.Folder) error
	Delete(ctx context.Context, accountID, folderID string) error
}
