// Package accounts provides the PostgreSQL-backed repository for account
// records.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryptora/internal/common"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
)

// PostgresRepository implements account storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account. A duplicate alias yields ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, alias, encrypted_alias)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, last_accessed_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Alias, account.EncryptedAlias).
		Scan(&account.CreatedAt, &account.LastAccessedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByAlias(ctx context.Context, alias string) (*models.Account, error) {
	query :=
		`SELECT id, alias, encrypted_alias, created_at, last_accessed_at FROM accounts
		 WHERE alias = $1
		 `

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, alias).
		Scan(&account.ID, &account.Alias, &account.EncryptedAlias, &account.CreatedAt, &account.LastAccessedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// TouchLastAccessed bumps last_accessed_at to now. Missing rows are ignored.
func (r *PostgresRepository) TouchLastAccessed(ctx context.Context, id string) error {
	query :=
		`UPDATE accounts SET last_accessed_at = now()
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
