package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"cryptora/internal/common"
	"cryptora/internal/dbx"
	"cryptora/internal/server/models"
	accountsrepo "cryptora/internal/server/repositories/accounts"
	foldersrepo "cryptora/internal/server/repositories/folders"
	notesrepo "cryptora/internal/server/repositories/notes"
	sharelinksrepo "cryptora/internal/server/repositories/sharelinks"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func strPtr(s string) *string { return &s }

// fakeCipher is a reversible stand-in for the real AES-GCM cipher: the
// ciphertext is plaintext and secret joined by a separator, and Decrypt
// fails with ErrorDecryption when the secret does not match.
type fakeCipher struct{}

func (fakeCipher) Encrypt(plaintext, secret string) (string, error) {
	return plaintext + "\x00" + secret, nil
}

func (fakeCipher) Decrypt(ciphertext, secret string) (string, error) {
	i := strings.LastIndex(ciphertext, "\x00")
	if i < 0 || ciphertext[i+1:] != secret {
		return "", common.ErrorDecryption
	}
	return ciphertext[:i], nil
}

func encAlias(alias, secret string) string {
	out, _ := fakeCipher{}.Encrypt(alias, secret)
	return out
}

// --- fake repositories ---

type fakeAccountsRepo struct {
	createOut *models.Account
	createErr error

	getOut *models.Account
	getErr error

	touched  []string
	touchErr error
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return a, nil
}

func (f *fakeAccountsRepo) GetByAlias(ctx context.Context, alias string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeAccountsRepo) TouchLastAccessed(ctx context.Context, id string) error {
	f.touched = append(f.touched, id)
	return f.touchErr
}

type fakeFoldersRepo struct {
	createErr error
	created   []*models.Folder

	getOut *models.Folder
	getErr error

	listOut []*models.Folder
	listErr error

	updateErr error
	updated   []*models.Folder

	deleteErr error
	deleted   []string
}

func (f *fakeFoldersRepo) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, folder)
	return folder, nil
}

func (f *fakeFoldersRepo) Get(ctx context.Context, accountID, folderID string) (*models.Folder, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeFoldersRepo) List(ctx context.Context, accountID string) ([]*models.Folder, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeFoldersRepo) Update(ctx context.Context, folder *models.Folder) error {
	f.updated = append(f.updated, folder)
	return f.updateErr
}

func (f *fakeFoldersRepo) Delete(ctx context.Context, accountID, folderID string) error {
	f.deleted = append(f.deleted, folderID)
	return f.deleteErr
}

type fakeNotesRepo struct {
	createErr error
	created   []*models.Note

	getOut *models.Note
	getErr error

	getActiveOut *models.Note
	getActiveErr error

	listOut []*models.Note
	listErr error

	updateErr error
	updated   []*models.Note

	guardErr         error
	guarded          []*models.Note
	guardFingerprint string

	softDeleteErr error
	softDeleted   []string

	unfileCount int64
	unfileErr   error
	unfiled     []string
}

func (f *fakeNotesRepo) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, note)
	return note, nil
}

func (f *fakeNotesRepo) Get(ctx context.Context, accountID, noteID string) (*models.Note, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeNotesRepo) GetActiveByID(ctx context.Context, noteID string) (*models.Note, error) {
	if f.getActiveErr != nil {
		return nil, f.getActiveErr
	}
	return f.getActiveOut, nil
}

func (f *fakeNotesRepo) List(ctx context.Context, accountID string) ([]*models.Note, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeNotesRepo) Update(ctx context.Context, note *models.Note) error {
	f.updated = append(f.updated, note)
	return f.updateErr
}

func (f *fakeNotesRepo) UpdateGuarded(ctx context.Context, note *models.Note, expectedFingerprint string) error {
	f.guarded = append(f.guarded, note)
	f.guardFingerprint = expectedFingerprint
	return f.guardErr
}

func (f *fakeNotesRepo) SoftDelete(ctx context.Context, accountID, noteID string) error {
	f.softDeleted = append(f.softDeleted, noteID)
	return f.softDeleteErr
}

func (f *fakeNotesRepo) UnfileByFolder(ctx context.Context, accountID, folderID string) (int64, error) {
	f.unfiled = append(f.unfiled, folderID)
	return f.unfileCount, f.unfileErr
}

type fakeShareLinksRepo struct {
	createErrs []error
	created    []*models.ShareLink

	byNoteOut *models.ShareLink
	byNoteErr error

	byTokenOut *models.ShareLink
	byTokenErr error

	deleteCount  int64
	deleteErr    error
	deletedNotes []string

	viewsOut   int64
	viewsErr   error
	viewsCalls int
}

func (f *fakeShareLinksRepo) Create(ctx context.Context, link *models.ShareLink) error {
	var err error
	if len(f.createErrs) > 0 {
		err = f.createErrs[0]
		f.createErrs = f.createErrs[1:]
	}
	if err != nil {
		return err
	}
	f.created = append(f.created, link)
	return nil
}

func (f *fakeShareLinksRepo) GetByNote(ctx context.Context, noteID string) (*models.ShareLink, error) {
	if f.byNoteErr != nil {
		return nil, f.byNoteErr
	}
	return f.byNoteOut, nil
}

func (f *fakeShareLinksRepo) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	if f.byTokenErr != nil {
		return nil, f.byTokenErr
	}
	return f.byTokenOut, nil
}

func (f *fakeShareLinksRepo) DeleteByNote(ctx context.Context, noteID string) (int64, error) {
	f.deletedNotes = append(f.deletedNotes, noteID)
	return f.deleteCount, f.deleteErr
}

func (f *fakeShareLinksRepo) IncrementViews(ctx context.Context, token string) (int64, error) {
	f.viewsCalls++
	if f.viewsErr != nil {
		return 0, f.viewsErr
	}
	return f.viewsOut, nil
}

type fakeRepoManager struct {
	accounts *fakeAccountsRepo
	folders  *fakeFoldersRepo
	notes    *fakeNotesRepo
	links    *fakeShareLinksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.accounts }
func (m *fakeRepoManager) Folders(db dbx.DBTX) foldersrepo.Repository   { return m.folders }
func (m *fakeRepoManager) Notes(db dbx.DBTX) notesrepo.Repository       { return m.notes }
func (m *fakeRepoManager) ShareLinks(db dbx.DBTX) sharelinksrepo.Repository {
	return m.links
}

// newFakeRM returns a manager whose accounts repo already knows one
// registered account, so auth.verify succeeds for alias/secret.
func newFakeRM(alias, secret string) *fakeRepoManager {
	return &fakeRepoManager{
		accounts: &fakeAccountsRepo{
			getOut: &models.Account{ID: "acc-1", Alias: alias, EncryptedAlias: encAlias(alias, secret)},
		},
		folders: &fakeFoldersRepo{},
		notes:   &fakeNotesRepo{},
		links:   &fakeShareLinksRepo{},
	}
}
