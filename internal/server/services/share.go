package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cryptora/internal/common"
	"cryptora/internal/cryptox"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
	"cryptora/internal/server/repositories/repomanager"
)

// maxTokenAttempts bounds regeneration when a freshly minted token collides
// with an existing one. With 32 random bytes a collision is effectively
// impossible, so running out of attempts indicates a broken RNG.
const maxTokenAttempts = 5

// timeNow is a seam for expiry tests.
var timeNow = time.Now

// ShareService manages public, read-only, revocable links to single notes.
// The token is both the public identifier and the key under which the
// owner's secret is wrapped, so a viewer who holds the link can decrypt and
// nobody else can.
type ShareService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	cipher     cryptox.Cipher
	auth       *authenticator
	tokenBytes int
}

// NewShareService constructs a ShareService. tokenBytes is the entropy of
// generated tokens in bytes (the token string is twice as long, hex).
func NewShareService(db *sql.DB, rm repomanager.RepositoryManager, cipher cryptox.Cipher, tokenBytes int) *ShareService {
	return &ShareService{
		db:         db,
		repos:      rm,
		cipher:     cipher,
		auth:       &authenticator{repos: rm, cipher: cipher},
		tokenBytes: tokenBytes,
	}
}

// Status returns the note's active link, or ErrorNotFound when the note has
// none (or does not belong to the caller).
func (s *ShareService) Status(ctx context.Context, alias, secret, noteID string) (*models.ShareLink, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Notes(s.db).Get(ctx, account.id, noteID); err != nil {
		return nil, err
	}
	return s.repos.ShareLinks(s.db).GetByNote(ctx, noteID)
}

// Activate creates the note's share link, or rotates it if one is already
// active: the old token stops working the moment the transaction commits.
// The returned link carries a zeroed view counter.
func (s *ShareService) Activate(ctx context.Context, alias, secret, noteID string, expiresAt *time.Time) (*models.ShareLink, error) {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return nil, err
	}

	var link *models.ShareLink
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Notes(tx).Get(ctx, account.id, noteID); err != nil {
			return err
		}

		linkRepo := s.repos.ShareLinks(tx)
		if _, err := linkRepo.DeleteByNote(ctx, noteID); err != nil {
			return err
		}

		for attempt := 0; attempt < maxTokenAttempts; attempt++ {
			token, err := common.MakeRandHexString(s.tokenBytes)
			if err != nil {
				return fmt.Errorf("error generating token: %w", err)
			}
			wrapped, err := s.cipher.Encrypt(secret, token)
			if err != nil {
				return fmt.Errorf("error wrapping secret: %w", err)
			}

			candidate := &models.ShareLink{
				Token:         token,
				NoteID:        noteID,
				WrappedSecret: wrapped,
				ExpiresAt:     expiresAt,
			}
			err = linkRepo.Create(ctx, candidate)
			if err == nil {
				link = candidate
				return nil
			}
			if !errors.Is(err, common.ErrorAlreadyExists) {
				return err
			}
			// Token collision: regenerate and retry.
		}
		return fmt.Errorf("token generation exhausted: %w", common.ErrorInternal)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Deactivate removes the note's active link. Removing an absent link is a
// no-op, not an error.
func (s *ShareService) Deactivate(ctx context.Context, alias, secret, noteID string) error {
	account, err := s.auth.verify(ctx, s.db, alias, secret)
	if err != nil {
		return err
	}
	if _, err := s.repos.Notes(s.db).Get(ctx, account.id, noteID); err != nil {
		return err
	}
	_, err = s.repos.ShareLinks(s.db).DeleteByNote(ctx, noteID)
	return err
}

// PublicView serves an unauthenticated viewer holding a token. Unknown,
// revoked, and expired links, and links whose note is gone, all fail with
// the same ErrorNotFound so no state leaks to the public caller. On success
// the view counter has already been incremented, exactly once per call.
func (s *ShareService) PublicView(ctx context.Context, token string) (*models.SharedNoteView, error) {
	link, err := s.repos.ShareLinks(s.db).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	if link.ExpiresAt != nil && timeNow().After(*link.ExpiresAt) {
		return nil, common.ErrorNotFound
	}

	note, err := s.repos.Notes(s.db).GetActiveByID(ctx, link.NoteID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	secret, err := s.cipher.Decrypt(link.WrappedSecret, token)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	content, err := s.cipher.Decrypt(note.EncryptedContent, secret)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	var title *string
	if note.EncryptedTitle != nil {
		decrypted, err := s.cipher.Decrypt(*note.EncryptedTitle, secret)
		if err != nil {
			return nil, common.ErrorNotFound
		}
		title = &decrypted
	}

	// Counted only once the view is certain to succeed: a corrupt wrapper
	// or ciphertext fails before this point and leaves the counter alone.
	count, err := s.repos.ShareLinks(s.db).IncrementViews(ctx, token)
	if err != nil {
		return nil, err
	}

	return &models.SharedNoteView{Title: title, Content: content, CreatedAt: note.CreatedAt, ViewCount: count}, nil
}
