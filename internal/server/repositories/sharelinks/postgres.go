// Package sharelinks provides the PostgreSQL-backed repository for public
// share links. The token column is the primary key; note_id carries a unique
// constraint so a note can never hold two active links.
package sharelinks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryptora/internal/common"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
)

// PostgresRepository implements share-link storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new link. A token collision yields ErrorAlreadyExists so
// the caller can regenerate and retry.
func (r *PostgresRepository) Create(ctx context.Context, link *models.ShareLink) error {
	query :=
		`INSERT INTO share_links (token, note_id, wrapped_secret, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		link.Token, link.NoteID, link.WrappedSecret, link.ExpiresAt).
		Scan(&link.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	link.ViewCount = 0
	return nil
}

func scanLink(row *sql.Row) (*models.ShareLink, error) {
	link := &models.ShareLink{}
	err := row.Scan(
		&link.Token, &link.NoteID, &link.WrappedSecret, &link.ExpiresAt, &link.ViewCount, &link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return link, nil
}

func (r *PostgresRepository) GetByNote(ctx context.Context, noteID string) (*models.ShareLink, error) {
	query :=
		`SELECT token, note_id, wrapped_secret, expires_at, view_count, created_at FROM share_links
		 WHERE note_id = $1
		 `
	return scanLink(r.db.QueryRowContext(ctx, query, noteID))
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	query :=
		`SELECT token, note_id, wrapped_secret, expires_at, view_count, created_at FROM share_links
		 WHERE token = $1
		 `
	return scanLink(r.db.QueryRowContext(ctx, query, token))
}

// DeleteByNote removes the note's link if present and returns the number of
// rows deleted. Zero is not an error: deactivation is idempotent.
func (r *PostgresRepository) DeleteByNote(ctx context.Context, noteID string) (int64, error) {
	query :=
		`DELETE FROM share_links
		 WHERE note_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, noteID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// IncrementViews bumps the view counter by one and returns the new value.
// The increment happens inside the UPDATE itself, so concurrent viewers are
// each counted exactly once.
func (r *PostgresRepository) IncrementViews(ctx context.Context, token string) (int64, error) {
	query :=
		`UPDATE share_links SET view_count = view_count + 1
		 WHERE token = $1
		 RETURNING view_count
		 `

	var count int64
	err := r.db.QueryRowContext(ctx, query, token).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
