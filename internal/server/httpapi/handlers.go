package httpapi

import (
	"net/http"
	"time"

	"cryptora/internal/server/models"
	"cryptora/internal/server/services"

	"github.com/go-chi/chi/v5"
)

// secretHeader carries the account secret. It is read once per request and
// handed to the service layer; nothing here retains it.
const secretHeader = "X-Secret"

func secret(r *http.Request) string { return r.Header.Get(secretHeader) }

// ---------- DTOs ----------

type credentialsRequest struct {
	Alias  string `json:"alias"`
	Secret string `json:"secret"`
}

type accountResponse struct {
	ID             string    `json:"id"`
	Alias          string    `json:"alias"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

type noteResponse struct {
	ID               string     `json:"id"`
	FolderID         *string    `json:"folder_id"`
	EncryptedTitle   *string    `json:"encrypted_title"`
	EncryptedContent string     `json:"encrypted_content"`
	Fingerprint      string     `json:"fingerprint"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

type decryptedNoteResponse struct {
	noteResponse
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

type folderResponse struct {
	ID            string    `json:"id"`
	EncryptedName string    `json:"encrypted_name"`
	Color         *string   `json:"color"`
	Icon          *string   `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
}

type decryptedFolderResponse struct {
	folderResponse
	Name string `json:"name"`
}

type listContentsResponse struct {
	Account accountResponse  `json:"account"`
	Notes   []noteResponse   `json:"notes"`
	Folders []folderResponse `json:"folders"`
}

type createNoteRequest struct {
	Title    *string `json:"title"`
	Content  string  `json:"content"`
	FolderID *string `json:"folder_id"`
}

type updateNoteRequest struct {
	Title               *string `json:"title"`
	Content             string  `json:"content"`
	FolderID            *string `json:"folder_id"`
	ClearFolder         bool    `json:"clear_folder"`
	ExpectedFingerprint string  `json:"expected_fingerprint"`
}

type folderRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

type activateShareRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

type shareResponse struct {
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at"`
	ViewCount int64      `json:"view_count"`
	CreatedAt time.Time  `json:"created_at"`
}

type publicViewResponse struct {
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ViewCount int64     `json:"view_count"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{ID: a.ID, Alias: a.Alias, CreatedAt: a.CreatedAt, LastAccessedAt: a.LastAccessedAt}
}

func toNoteResponse(n *models.Note) noteResponse {
	return noteResponse{
		ID:               n.ID,
		FolderID:         n.FolderID,
		EncryptedTitle:   n.EncryptedTitle,
		EncryptedContent: n.EncryptedContent,
		Fingerprint:      n.Fingerprint,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
	}
}

func toFolderResponse(f *models.Folder) folderResponse {
	return folderResponse{ID: f.ID, EncryptedName: f.EncryptedName, Color: f.Color, Icon: f.Icon, CreatedAt: f.CreatedAt}
}

func toShareResponse(l *models.ShareLink) shareResponse {
	return shareResponse{
		Token:     l.Token,
		URL:       "/s/" + l.Token,
		ExpiresAt: l.ExpiresAt,
		ViewCount: l.ViewCount,
		CreatedAt: l.CreatedAt,
	}
}

// ---------- account handlers ----------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	account, err := s.accounts.Register(r.Context(), req.Alias, req.Secret)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	account, err := s.accounts.Authenticate(r.Context(), req.Alias, req.Secret)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleListContents(w http.ResponseWriter, r *http.Request) {
	account, notes, folders, err := s.accounts.ListContents(r.Context(), chi.URLParam(r, "alias"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := listContentsResponse{
		Account: toAccountResponse(account),
		Notes:   make([]noteResponse, 0, len(notes)),
		Folders: make([]folderResponse, 0, len(folders)),
	}
	for _, n := range notes {
		resp.Notes = append(resp.Notes, toNoteResponse(n))
	}
	for _, f := range folders {
		resp.Folders = append(resp.Folders, toFolderResponse(f))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := s.notes.Titles(r.Context(), chi.URLParam(r, "alias"), secret(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, titles)
}

// ---------- note handlers ----------

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.notes.Create(r.Context(), chi.URLParam(r, "alias"), secret(r), services.NoteInput{
		Title:    req.Title,
		Content:  req.Content,
		FolderID: req.FolderID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.notes.Get(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, decryptedNoteResponse{
		noteResponse: toNoteResponse(&note.Note),
		Title:        note.Title,
		Content:      note.Content,
	})
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.notes.Update(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "noteID"), services.NoteUpdate{
		Title:               req.Title,
		Content:             req.Content,
		FolderID:            req.FolderID,
		ClearFolder:         req.ClearFolder,
		ExpectedFingerprint: req.ExpectedFingerprint,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	err := s.notes.Delete(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- folder handlers ----------

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	folder, err := s.folders.Create(r.Context(), chi.URLParam(r, "alias"), secret(r), services.FolderInput{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toFolderResponse(folder))
}

func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	folder, name, err := s.folders.Get(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "folderID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, decryptedFolderResponse{
		folderResponse: toFolderResponse(folder),
		Name:           name,
	})
}

func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	folder, err := s.folders.Update(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "folderID"), services.FolderInput{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFolderResponse(folder))
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	err := s.folders.Delete(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "folderID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- share handlers ----------

func (s *Server) handleShareStatus(w http.ResponseWriter, r *http.Request) {
	link, err := s.shares.Status(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toShareResponse(link))
}

func (s *Server) handleShareActivate(w http.ResponseWriter, r *http.Request) {
	var req activateShareRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	link, err := s.shares.Activate(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "noteID"), req.ExpiresAt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toShareResponse(link))
}

func (s *Server) handleShareDeactivate(w http.ResponseWriter, r *http.Request) {
	err := s.shares.Deactivate(r.Context(), chi.URLParam(r, "alias"), secret(r), chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublicView(w http.ResponseWriter, r *http.Request) {
	view, err := s.shares.PublicView(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, publicViewResponse{
		Title:     view.Title,
		Content:   view.Content,
		CreatedAt: view.CreatedAt,
		ViewCount: view.ViewCount,
	})
}
