package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"cryptora/internal/common"
	"cryptora/internal/cryptox"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
	accountsrepo "cryptora/internal/server/repositories/accounts"
	foldersrepo "cryptora/internal/server/repositories/folders"
	notesrepo "cryptora/internal/server/repositories/notes"
	sharelinksrepo "cryptora/internal/server/repositories/sharelinks"
)

// The scoped fakes back every lookup with an in-memory map filtered the way
// the SQL filters, so account scoping is exercised for real rather than
// scripted per call.

type scopedAccountsRepo struct {
	byAlias map[string]*models.Account
}

func (r *scopedAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.byAlias[a.Alias] = a
	return a, nil
}

func (r *scopedAccountsRepo) GetByAlias(ctx context.Context, alias string) (*models.Account, error) {
	a, ok := r.byAlias[alias]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (r *scopedAccountsRepo) TouchLastAccessed(ctx context.Context, id string) error { return nil }

type scopedNotesRepo struct {
	notes       map[string]*models.Note
	softDeleted []string
}

func (r *scopedNotesRepo) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	r.notes[n.ID] = n
	return n, nil
}

func (r *scopedNotesRepo) Get(ctx context.Context, accountID, noteID string) (*models.Note, error) {
	n, ok := r.notes[noteID]
	if !ok || n.AccountID != accountID || !n.Active {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func (r *scopedNotesRepo) GetActiveByID(ctx context.Context, noteID string) (*models.Note, error) {
	n, ok := r.notes[noteID]
	if !ok || !n.Active {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func (r *scopedNotesRepo) List(ctx context.Context, accountID string) ([]*models.Note, error) {
	var out []*models.Note
	for _, n := range r.notes {
		if n.AccountID == accountID && n.Active {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *scopedNotesRepo) Update(ctx context.Context, note *models.Note) error {
	if _, err := r.Get(ctx, note.AccountID, note.ID); err != nil {
		return err
	}
	r.notes[note.ID] = note
	return nil
}

func (r *scopedNotesRepo) UpdateGuarded(ctx context.Context, note *models.Note, expectedFingerprint string) error {
	current, err := r.Get(ctx, note.AccountID, note.ID)
	if err != nil {
		return err
	}
	if current.Fingerprint != expectedFingerprint {
		return common.ErrorConflict
	}
	r.notes[note.ID] = note
	return nil
}

func (r *scopedNotesRepo) SoftDelete(ctx context.Context, accountID, noteID string) error {
	n, err := r.Get(ctx, accountID, noteID)
	if err != nil {
		return err
	}
	n.Active = false
	r.softDeleted = append(r.softDeleted, noteID)
	return nil
}

func (r *scopedNotesRepo) UnfileByFolder(ctx context.Context, accountID, folderID string) (int64, error) {
	return 0, nil
}

type scopedFoldersRepo struct {
	folders map[string]*models.Folder
}

func (r *scopedFoldersRepo) Create(ctx context.Context, f *models.Folder) (*models.Folder, error) {
	r.folders[f.ID] = f
	return f, nil
}

func (r *scopedFoldersRepo) Get(ctx context.Context, accountID, folderID string) (*models.Folder, error) {
	f, ok := r.folders[folderID]
	if !ok || f.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *scopedFoldersRepo) List(ctx context.Context, accountID string) ([]*models.Folder, error) {
	var out []*models.Folder
	for _, f := range r.folders {
		if f.AccountID == accountID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *scopedFoldersRepo) Update(ctx context.Context, f *models.Folder) error {
	if _, err := r.Get(ctx, f.AccountID, f.ID); err != nil {
		return err
	}
	r.folders[f.ID] = f
	return nil
}

func (r *scopedFoldersRepo) Delete(ctx context.Context, accountID, folderID string) error {
	if _, err := r.Get(ctx, accountID, folderID); err != nil {
		return err
	}
	delete(r.folders, folderID)
	return nil
}

type scopedShareLinksRepo struct {
	byNote  map[string]*models.ShareLink
	created []*models.ShareLink
}

func (r *scopedShareLinksRepo) Create(ctx context.Context, link *models.ShareLink) error {
	r.byNote[link.NoteID] = link
	r.created = append(r.created, link)
	return nil
}

func (r *scopedShareLinksRepo) GetByNote(ctx context.Context, noteID string) (*models.ShareLink, error) {
	l, ok := r.byNote[noteID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return l, nil
}

func (r *scopedShareLinksRepo) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	for _, l := range r.byNote {
		if l.Token == token {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *scopedShareLinksRepo) DeleteByNote(ctx context.Context, noteID string) (int64, error) {
	if _, ok := r.byNote[noteID]; !ok {
		return 0, nil
	}
	delete(r.byNote, noteID)
	return 1, nil
}

func (r *scopedShareLinksRepo) IncrementViews(ctx context.Context, token string) (int64, error) {
	for _, l := range r.byNote {
		if l.Token == token {
			l.ViewCount++
			return l.ViewCount, nil
		}
	}
	return 0, common.ErrorNotFound
}

type scopedRepoManager struct {
	accounts *scopedAccountsRepo
	folders  *scopedFoldersRepo
	notes    *scopedNotesRepo
	links    *scopedShareLinksRepo
}

func (m *scopedRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *scopedRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.accounts }
func (m *scopedRepoManager) Folders(db dbx.DBTX) foldersrepo.Repository   { return m.folders }
func (m *scopedRepoManager) Notes(db dbx.DBTX) notesrepo.Repository       { return m.notes }
func (m *scopedRepoManager) ShareLinks(db dbx.DBTX) sharelinksrepo.Repository {
	return m.links
}

// TestCrossAccountIsolation verifies that no account-scoped operation can
// touch another account's note, and that the failure is the same
// ErrorNotFound a genuinely missing id produces.
func TestCrossAccountIsolation(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	ctx := context.Background()

	rm := &scopedRepoManager{
		accounts: &scopedAccountsRepo{byAlias: map[string]*models.Account{
			"alice": {ID: "acc-a", Alias: "alice", EncryptedAlias: encAlias("alice", "sa")},
			"bob":   {ID: "acc-b", Alias: "bob", EncryptedAlias: encAlias("bob", "sb")},
		}},
		folders: &scopedFoldersRepo{folders: map[string]*models.Folder{
			"f-a": {ID: "f-a", AccountID: "acc-a", EncryptedName: "work\x00sa"},
		}},
		notes: &scopedNotesRepo{notes: map[string]*models.Note{
			"n-a": {
				ID:               "n-a",
				AccountID:        "acc-a",
				EncryptedContent: "hello\x00sa",
				Fingerprint:      cryptox.Fingerprint("hello"),
				Active:           true,
			},
		}},
		links: &scopedShareLinksRepo{byNote: map[string]*models.ShareLink{}},
	}

	ns := NewNoteService(db, rm, fakeCipher{}, 2)
	fs := NewFolderService(db, rm, fakeCipher{})
	ss := NewShareService(db, rm, fakeCipher{}, 16)

	// Control: the owner reaches their own note through the same fakes.
	if got, err := ns.Get(ctx, "alice", "sa", "n-a"); err != nil || got.Content != "hello" {
		t.Fatalf("owner access must work: %v %v", got, err)
	}

	ops := []struct {
		name string
		tx   bool // the operation opens a transaction that must roll back
		call func(id string) error
	}{
		{"note get", false, func(id string) error {
			_, err := ns.Get(ctx, "bob", "sb", id)
			return err
		}},
		{"note update", true, func(id string) error {
			_, err := ns.Update(ctx, "bob", "sb", id, NoteUpdate{Content: "hijack"})
			return err
		}},
		{"note delete", true, func(id string) error {
			return ns.Delete(ctx, "bob", "sb", id)
		}},
		{"share status", false, func(id string) error {
			_, err := ss.Status(ctx, "bob", "sb", id)
			return err
		}},
		{"share activate", true, func(id string) error {
			_, err := ss.Activate(ctx, "bob", "sb", id, nil)
			return err
		}},
		{"share deactivate", false, func(id string) error {
			return ss.Deactivate(ctx, "bob", "sb", id)
		}},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			if op.tx {
				mock.ExpectBegin()
				mock.ExpectRollback()
				mock.ExpectBegin()
				mock.ExpectRollback()
			}

			foreign := op.call("n-a")
			missing := op.call("n-404")

			if !errors.Is(foreign, common.ErrorNotFound) {
				t.Fatalf("foreign note must read as missing, got %v", foreign)
			}
			if !errors.Is(missing, common.ErrorNotFound) {
				t.Fatalf("missing note: got %v", missing)
			}
			if foreign.Error() != missing.Error() {
				t.Fatalf("errors must be indistinguishable: %q vs %q", foreign, missing)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("transaction expectations: %v", err)
			}
		})
	}

	// Folders are scoped the same way.
	if _, _, err := fs.Get(ctx, "bob", "sb", "f-a"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("foreign folder must read as missing, got %v", err)
	}

	// Nothing leaked through as a write.
	if len(rm.notes.softDeleted) != 0 {
		t.Fatalf("foreign delete must not touch the note: %v", rm.notes.softDeleted)
	}
	if len(rm.links.created) != 0 {
		t.Fatalf("foreign activate must not create a link: %v", rm.links.created)
	}
	note := rm.notes.notes["n-a"]
	if !note.Active || note.EncryptedContent != "hello\x00sa" {
		t.Fatalf("foreign update must leave the note untouched: %+v", note)
	}
}
