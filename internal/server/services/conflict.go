package services

import (
	"context"

	"cryptora/internal/server/models"
	"cryptora/internal/server/repositories/notes"
)

// ConflictResolver is the optimistic-concurrency gate in front of the note
// update path. A caller that read a note holds its fingerprint; supplying it
// as expectedFingerprint makes the write conditional on the stored value not
// having moved since. An empty expectedFingerprint waives the guard: the
// write proceeds unconditionally.
//
// This is last-writer-wins with an opt-in staleness check, not a merge: on
// ErrorConflict the caller must re-read before retrying.
type ConflictResolver struct{}

// Apply forwards the write to the repository, guarded or not. The guarded
// variant runs the fingerprint comparison and the write as one conditional
// statement so that two concurrent writers can never both observe a stale
// value and both win.
func (ConflictResolver) Apply(ctx context.Context, repo notes.Repository, note *models.Note, expectedFingerprint string) error {
	if expectedFingerprint == "" {
		return repo.Update(ctx, note)
	}
	return repo.UpdateGuarded(ctx, note, expectedFingerprint)
}
