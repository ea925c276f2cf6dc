// Package folders provides the PostgreSQL-backed repository for folder
// records. All queries are scoped by account id.
package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryptora/internal/common"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query :=
		`INSERT INTO folders (id, account_id, encrypted_name, color, icon)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		folder.ID, folder.AccountID, folder.EncryptedName, folder.Color, folder.Icon).
		Scan(&folder.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID, folderID string) (*models.Folder, error) {
	query :=
		`SELECT id, account_id, encrypted_name, color, icon, created_at FROM folders
		 WHERE id = $1 AND account_id = $2
		 `

	folder := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, folderID, accountID).
		Scan(&folder.ID, &folder.AccountID, &folder.EncryptedName, &folder.Color, &folder.Icon, &folder.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

func (r *PostgresRepository) List(ctx context.Context, accountID string) ([]*models.Folder, error) {
	query :=
		`SELECT id, account_id, encrypted_name, color, icon, created_at FROM folders
		 WHERE account_id = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		var item models.Folder
		if err := rows.Scan(
			&item.ID, &item.AccountID, &item.EncryptedName, &item.Color, &item.Icon, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites the encrypted name, color, and icon. A folder that does
// not exist for the account yields ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, folder *models.Folder) error {
	query :=
		`UPDATE folders SET encrypted_name = $1, color = $2, icon = $3
		 WHERE id = $4 AND account_id = $5
		 `

	res, err := r.db.ExecContext(ctx, query,
		folder.EncryptedName, folder.Color, folder.Icon, folder.ID, folder.AccountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID, folderID string) error {
	query :=
		`DELETE FROM folders
		 WHERE id = $1 AND account_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, folderID, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
