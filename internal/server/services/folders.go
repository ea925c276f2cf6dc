package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cryptora/internal/common"
	"cryptora/internal/cryptox"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
	"cryptora/internal/server/repositories/repomanager"

	"github.com/google/uuid"
)

// FolderInput carries the caller-supplied fields for creating or updating
// a folder. On update, nil fields are left unchanged.
type FolderInput struct {
	Name  *string
	Color *string
	Icon  *string
}

// FolderService owns folder lifecycle. Folders never own note rows: notes
// reference folders, and deleting a folder unfiles its notes instead of
// cascading.
type FolderService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cipher cryptox.Cipher
	auth   *authenticator
}

// NewFolderService constructs a FolderService.
func NewFolderService(db *sql.DB, rm repomanager.RepositoryManager, cipher cryptox.Cipher) *FolderService {
	return &FolderService{
		db:     db,
		repos:  rm,
		cipher: cipher,
		auth:   &authenticator{repos: rm, cipher: cipher},
	}
}

// Create stores a new folder with an encrypted display name.
func (s *FolderService) Create(ctx context.Context, alias, secret string, in FolderInput) (*models.Folder, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("empty folder name: %w", common.ErrorValidation)
	}

	encryptedName, err := s.cipher.Encrypt(*in.Name, secret)
	if err != nil {
		return nil, fmt.Errorf("error encrypting folder name: %w", err)
	}

	folder := &models.Folder{
		ID:            uuid.NewString(),
		AccountID:     account.id,
		EncryptedName: encryptedName,
		Color:         in.Color,
		Icon:          in.Icon,
	}
	return s.repos.Folders(s.db).Create(ctx, folder)
}

// Get returns the folder with its name decrypted.
func (s *FolderService) Get(ctx context.Context, alias, secret, folderID string) (*models.Folder, string, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, "", err
	}

	folder, err := s.repos.Folders(s.db).Get(ctx, account.id, folderID)
	if err != nil {
		return nil, "", err
	}

	name, err := s.cipher.Decrypt(folder.EncryptedName, secret)
	if err != nil {
		return nil, "", err
	}
	return folder, name, nil
}

// Update renames or recolors a folder. Nil input fields keep their stored
// values.
func (s *FolderService) Update(ctx context.Context, alias, secret, folderID string, in FolderInput) (*models.Folder, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}

	repo := s.repos.Folders(s.db)
	folder, err := repo.Get(ctx, account.id, folderID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("empty folder name: %w", common.ErrorValidation)
		}
		encryptedName, err := s.cipher.Encrypt(*in.Name, secret)
		if err != nil {
			return nil, fmt.Errorf("error encrypting folder name: %w", err)
		}
		folder.EncryptedName = encryptedName
	}
	if in.Color != nil {
		folder.Color = in.Color
	}
	if in.Icon != nil {
		folder.Icon = in.Icon
	}

	if err := repo.Update(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Delete removes the folder after unfiling every note that references it.
// Both steps run in one transaction: either all member notes end up
// unfiled and the folder is gone, or nothing changes. Notes themselves are
// never deleted here.
func (s *FolderService) Delete(ctx context.Context, alias, secret, folderID string) error {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Notes(tx).UnfileByFolder(ctx, account.id, folderID); err != nil {
			return err
		}
		return s.repos.Folders(tx).Delete(ctx, account.id, folderID)
	})
}
