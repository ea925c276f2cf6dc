package services

import (
	"context"
	"sync"

	"cryptora/internal/cryptox"
	"cryptora/internal/server/models"

	"golang.org/x/sync/errgroup"
)

// TitlePlaceholder is the value an index entry degrades to when its title
// cannot be decrypted (wrong secret, corrupt ciphertext). One bad entry
// never aborts the batch.
const TitlePlaceholder = "[unreadable]"

// defaultTitleFanout bounds concurrent cipher invocations when the caller
// did not configure a limit.
const defaultTitleFanout = 8

// TitleIndexBuilder produces the list-view index: note id to decrypted
// title. Per-note decryptions are independent and run concurrently with a
// bounded fan-out; results are keyed by note id, so completion order does
// not matter.
type TitleIndexBuilder struct {
	cipher cryptox.Cipher
	fanout int
}

// NewTitleIndexBuilder constructs a builder. fanout values below one fall
// back to the default.
func NewTitleIndexBuilder(cipher cryptox.Cipher, fanout int) *TitleIndexBuilder {
	if fanout < 1 {
		fanout = defaultTitleFanout
	}
	return &TitleIndexBuilder{cipher: cipher, fanout: fanout}
}

// Build decrypts every note's title with the supplied secret. Notes without
// a title map to the empty string; failed decryptions map to
// TitlePlaceholder. The only error returned is context cancellation.
func (b *TitleIndexBuilder) Build(ctx context.Context, notes []*models.Note, secret string) (map[string]string, error) {
	index := make(map[string]string, len(notes))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.fanout)

	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g.Go(func() error {
			var title string
			if note.EncryptedTitle != nil {
				decrypted, err := b.cipher.Decrypt(*note.EncryptedTitle, secret)
				if err != nil {
					title = TitlePlaceholder
				} else {
					title = decrypted
				}
			}
			mu.Lock()
			index[note.ID] = title
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return index, nil
}
