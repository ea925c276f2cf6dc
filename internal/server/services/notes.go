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

// NoteInput carries the caller-supplied fields for creating a note.
type NoteInput struct {
	Title    *string
	Content  string
	FolderID *string
}

// NoteUpdate carries the caller-supplied fields for updating a note.
// A nil Title leaves the stored title untouched. A nil FolderID leaves the
// folder reference untouched; ClearFolder unfiles the note and wins over
// FolderID when both are set. ExpectedFingerprint, when non-empty, arms the
// optimistic-concurrency guard.
type NoteUpdate struct {
	Title               *string
	Content             string
	FolderID            *string
	ClearFolder         bool
	ExpectedFingerprint string
}

// NoteService owns note persistence: validation, encryption, fingerprint
// bookkeeping, and referential integrity against folders.
type NoteService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	cipher   cryptox.Cipher
	auth     *authenticator
	resolver ConflictResolver
	titles   *TitleIndexBuilder
}

// NewNoteService constructs a NoteService. fanout bounds the concurrent
// cipher invocations used when building the title index.
func NewNoteService(db *sql.DB, rm repomanager.RepositoryManager, cipher cryptox.Cipher, fanout int) *NoteService {
	return &NoteService{
		db:     db,
		repos:  rm,
		cipher: cipher,
		auth:   &authenticator{repos: rm, cipher: cipher},
		titles: NewTitleIndexBuilder(cipher, fanout),
	}
}

// Create stores a new encrypted note. Content must be non-empty after
// trimming; a folder reference must resolve to a folder of the same account.
// The fingerprint is computed over the plaintext before encryption.
func (s *NoteService) Create(ctx context.Context, alias, secret string, in NoteInput) (*models.Note, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("empty content: %w", common.ErrorValidation)
	}

	if in.FolderID != nil {
		if _, err := s.repos.Folders(s.db).Get(ctx, account.id, *in.FolderID); err != nil {
			return nil, err
		}
	}

	note := &models.Note{
		ID:          uuid.NewString(),
		AccountID:   account.id,
		FolderID:    in.FolderID,
		Fingerprint: cryptox.Fingerprint(in.Content),
		Active:      true,
	}

	note.EncryptedContent, err = s.cipher.Encrypt(in.Content, secret)
	if err != nil {
		return nil, fmt.Errorf("error encrypting content: %w", err)
	}
	if in.Title != nil && *in.Title != "" {
		encrypted, err := s.cipher.Encrypt(*in.Title, secret)
		if err != nil {
			return nil, fmt.Errorf("error encrypting title: %w", err)
		}
		note.EncryptedTitle = &encrypted
	}

	return s.repos.Notes(s.db).Create(ctx, note)
}

// Get returns the note decrypted with the caller's secret. A wrong secret
// surfaces as ErrorDecryption; a note owned by someone else is
// indistinguishable from one that does not exist.
func (s *NoteService) Get(ctx context.Context, alias, secret, noteID string) (*models.DecryptedNote, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}

	note, err := s.repos.Notes(s.db).Get(ctx, account.id, noteID)
	if err != nil {
		return nil, err
	}

	return s.decryptNote(note, secret)
}

// Update rewrites a note's content and optionally its title and folder
// reference. The whole operation, including folder validation and the
// fingerprint guard, runs in one transaction: either everything lands or
// nothing does.
func (s *NoteService) Update(ctx context.Context, alias, secret, noteID string, in NoteUpdate) (*models.Note, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("empty content: %w", common.ErrorValidation)
	}

	encryptedContent, err := s.cipher.Encrypt(in.Content, secret)
	if err != nil {
		return nil, fmt.Errorf("error encrypting content: %w", err)
	}
	var encryptedTitle *string
	if in.Title != nil && *in.Title != "" {
		encrypted, err := s.cipher.Encrypt(*in.Title, secret)
		if err != nil {
			return nil, fmt.Errorf("error encrypting title: %w", err)
		}
		encryptedTitle = &encrypted
	}

	var updated *models.Note
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		noteRepo := s.repos.Notes(tx)

		current, err := noteRepo.Get(ctx, account.id, noteID)
		if err != nil {
			return err
		}

		next := *current
		next.EncryptedContent = encryptedContent
		next.Fingerprint = cryptox.Fingerprint(in.Content)
		if in.Title != nil {
			next.EncryptedTitle = encryptedTitle
		}
		switch {
		case in.ClearFolder:
			next.FolderID = nil
		case in.FolderID != nil:
			if _, err := s.repos.Folders(tx).Get(ctx, account.id, *in.FolderID); err != nil {
				return err
			}
			next.FolderID = in.FolderID
		}

		if err := s.resolver.Apply(ctx, noteRepo, &next, in.ExpectedFingerprint); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete deactivates the note and removes any active share link for it, as
// one transaction. Deletion is irreversible from the caller's perspective.
func (s *NoteService) Delete(ctx context.Context, alias, secret, noteID string) error {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		noteRepo := s.repos.Notes(tx)
		if _, err := noteRepo.Get(ctx, account.id, noteID); err != nil {
			return err
		}
		if _, err := s.repos.ShareLinks(tx).DeleteByNote(ctx, noteID); err != nil {
			return err
		}
		return noteRepo.SoftDelete(ctx, account.id, noteID)
	})
}

// Titles builds the list-view index: note id to decrypted title. A note
// whose title cannot be decrypted degrades to a placeholder; the batch
// always completes.
func (s *NoteService) Titles(ctx context.Context, alias, secret string) (map[string]string, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}

	notes, err := s.repos.Notes(s.db).List(ctx, account.id)
	if err != nil {
		return nil, err
	}

	return s.titles.Build(ctx, notes, secret)
}

func (s *NoteService) decryptNote(note *models.Note, secret string) (*models.DecryptedNote, error) {
	content, err := s.cipher.Decrypt(note.EncryptedContent, secret)
	if err != nil {
		return nil, err
	}

	decrypted := &models.DecryptedNote{Note: *note, Content: content}
	if note.EncryptedTitle != nil {
		title, err := s.cipher.Decrypt(*note.EncryptedTitle, secret)
		if err != nil {
			return nil, err
		}
		decrypted.Title = &title
	}
	return decrypted, nil
}
