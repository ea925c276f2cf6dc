// Package services contains the server-side business logic: account
// registration and authentication, note and folder persistence with
// optimistic concurrency, share-link lifecycle, and the decrypted title
// index. Every operation takes the caller's alias and secret explicitly;
// the secret is used only to drive the cipher within that one call.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"cryptora/internal/common"
	"cryptora/internal/cryptox"
	"cryptora/internal/server/models"
	"cryptora/internal/server/repositories/repomanager"

	"github.com/google/uuid"
)

// AccountService handles registration, credential verification, and
// listing an account's encrypted contents.
type AccountService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cipher cryptox.Cipher
	auth   *authenticator
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, cipher cryptox.Cipher) *AccountService {
	return &AccountService{
		db:     db,
		repos:  rm,
		cipher: cipher,
		auth:   &authenticator{repos: rm, cipher: cipher},
	}
}

// Register creates a new account. The stored encrypted alias doubles as the
// credential verifier. A taken alias yields ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, alias, secret string) (*models.Account, error) {
	alias, err := normalizeAlias(alias)
	if err != nil {
		return nil, err
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("secret too short: %w", common.ErrorValidation)
	}

	encryptedAlias, err := s.cipher.Encrypt(alias, secret)
	if err != nil {
		return nil, fmt.Errorf("error encrypting alias: %w", err)
	}

	account := &models.Account{ID: uuid.NewString(), Alias: alias, EncryptedAlias: encryptedAlias}
	created, err := s.repos.Accounts(s.db).Create(ctx, account)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Authenticate verifies the alias+secret pair and touches the account's
// last-accessed timestamp. The returned error never distinguishes an
// unknown alias from a wrong secret.
func (s *AccountService) Authenticate(ctx context.Context, alias, secret string) (*models.Account, error) {
	handle, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}

	repo := s.repos.Accounts(s.db)
	if err := repo.TouchLastAccessed(ctx, handle.id); err != nil {
		return nil, fmt.Errorf("error touching account: %w", err)
	}
	return repo.GetByAlias(ctx, handle.alias)
}

// ListContents returns the account together with all of its notes and
// folders, encrypted at rest. No secret is required: nothing returned here
// is readable without one.
func (s *AccountService) ListContents(ctx context.Context, alias string) (*models.Account, []*models.Note, []*models.Folder, error) {
	alias, err := normalizeAlias(alias)
	if err != nil {
		return nil, nil, nil, err
	}

	account, err := s.repos.Accounts(s.db).GetByAlias(ctx, alias)
	if err != nil {
		return nil, nil, nil, err
	}

	notes, err := s.repos.Notes(s.db).List(ctx, account.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	folders, err := s.repos.Folders(s.db).List(ctx, account.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	return account, notes, folders, nil
}
