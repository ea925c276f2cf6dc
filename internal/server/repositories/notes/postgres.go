// Package notes provides the PostgreSQL-backed repository for note
// persistence. Deletion is a soft delete: rows are deactivated, never
// removed, and every read filters on is_active.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryptora/internal/common"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
)

const noteColumns = `id, account_id, folder_id, encrypted_title, encrypted_content, fingerprint, created_at, updated_at, is_active`

// PostgresRepository implements note storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	query :=
		`INSERT INTO notes (id, account_id, folder_id, encrypted_title, encrypted_content, fingerprint)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.AccountID, note.FolderID, note.EncryptedTitle, note.EncryptedContent, note.Fingerprint).
		Scan(&note.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	note.Active = true
	return note, nil
}

func scanNote(row *sql.Row) (*models.Note, error) {
	note := &models.Note{}
	err := row.Scan(
		&note.ID, &note.AccountID, &note.FolderID, &note.EncryptedTitle,
		&note.EncryptedContent, &note.Fingerprint, &note.CreatedAt, &note.UpdatedAt, &note.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID, noteID string) (*models.Note, error) {
	query :=
		`SELECT ` + noteColumns + ` FROM notes
		 WHERE id = $1 AND account_id = $2 AND is_active
		 `
	return scanNote(r.db.QueryRowContext(ctx, query, noteID, accountID))
}

// GetActiveByID fetches a note regardless of owner. Used only by the public
// share path, where the caller is authenticated by the token instead.
func (r *PostgresRepository) GetActiveByID(ctx context.Context, noteID string) (*models.Note, error) {
	query :=
		`SELECT ` + noteColumns + ` FROM notes
		 WHERE id = $1 AND is_active
		 `
	return scanNote(r.db.QueryRowContext(ctx, query, noteID))
}

func (r *PostgresRepository) List(ctx context.Context, accountID string) ([]*models.Note, error) {
	query :=
		`SELECT ` + noteColumns + ` FROM notes
		 WHERE account_id = $1 AND is_active
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Note
	for rows.Next() {
		var item models.Note
		if err := rows.Scan(
			&item.ID, &item.AccountID, &item.FolderID, &item.EncryptedTitle,
			&item.EncryptedContent, &item.Fingerprint, &item.CreatedAt, &item.UpdatedAt, &item.Active,
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

// Update rewrites note content unconditionally (no fingerprint guard).
// A missing or inactive note yields ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) error {
	query :=
		`UPDATE notes SET folder_id = $1, encrypted_title = $2, encrypted_content = $3, fingerprint = $4, updated_at = now()
		 WHERE id = $5 AND account_id = $6 AND is_active
		 `

	res, err := r.db.ExecContext(ctx, query,
		note.FolderID, note.EncryptedTitle, note.EncryptedContent, note.Fingerprint, note.ID, note.AccountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffectedOne(res, common.ErrorNotFound)
}

// UpdateGuarded rewrites note content only when the stored fingerprint still
// equals expectedFingerprint. The check and the write are one conditional
// UPDATE, so two concurrent writers can never both win. Zero rows affected
// means the fingerprint moved: ErrorConflict. The caller is expected to have
// verified existence in the same transaction.
func (r *PostgresRepository) UpdateGuarded(ctx context.Context, note *models.Note, expectedFingerprint string) error {
	query :=
		`UPDATE notes SET folder_id = $1, encrypted_title = $2, encrypted_content = $3, fingerprint = $4, updated_at = now()
		 WHERE id = $5 AND account_id = $6 AND is_active AND fingerprint = $7
		 `

	res, err := r.db.ExecContext(ctx, query,
		note.FolderID, note.EncryptedTitle, note.EncryptedContent, note.Fingerprint,
		note.ID, note.AccountID, expectedFingerprint)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffectedOne(res, common.ErrorConflict)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, accountID, noteID string) error {
	query :=
		`UPDATE notes SET is_active = false, updated_at = now()
		 WHERE id = $1 AND account_id = $2 AND is_active
		 `

	res, err := r.db.ExecContext(ctx, query, noteID, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffectedOne(res, common.ErrorNotFound)
}

// UnfileByFolder detaches every note filed under folderID. Returns the
// number of notes unfiled.
func (r *PostgresRepository) UnfileByFolder(ctx context.Context, accountID, folderID string) (int64, error) {
	query :=
		`UPDATE notes SET folder_id = NULL
		 WHERE account_id = $1 AND folder_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, accountID, folderID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func rowsAffectedOne(res sql.Result, zeroErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return zeroErr
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
