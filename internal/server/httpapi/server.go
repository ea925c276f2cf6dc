// Package httpapi exposes the request surface over HTTP: the account-scoped
// JSON API under /api and the unauthenticated public share endpoint under
// /s/{token}. The caller's secret travels in the X-Secret header; it is
// never logged and never persisted.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cryptora/internal/logging"
	"cryptora/internal/server/models"
	"cryptora/internal/server/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AccountAPI is the slice of the account service the handlers use.
type AccountAPI interface {
	Register(ctx context.Context, alias, secret string) (*models.Account, error)
	Authenticate(ctx context.Context, alias, secret string) (*models.Account, error)
	ListContents(ctx context.Context, alias string) (*models.Account, []*models.Note, []*models.Folder, error)
}

// NoteAPI is the slice of the note service the handlers use.
type NoteAPI interface {
	Create(ctx context.Context, alias, secret string, in services.NoteInput) (*models.Note, error)
	Get(ctx context.Context, alias, secret, noteID string) (*models.DecryptedNote, error)
	Update(ctx context.Context, alias, secret, noteID string, in services.NoteUpdate) (*models.Note, error)
	Delete(ctx context.Context, alias, secret, noteID string) error
	Titles(ctx context.Context, alias, secret string) (map[string]string, error)
}

// FolderAPI is the slice of the folder service the handlers use.
type FolderAPI interface {
	Create(ctx context.Context, alias, secret string, in services.FolderInput) (*models.Folder, error)
	Get(ctx context.Context, alias, secret, folderID string) (*models.Folder, string, error)
	Update(ctx context.Context, alias, secret, folderID string, in services.FolderInput) (*models.Folder, error)
	Delete(ctx context.Context, alias, secret, folderID string) error
}

// ShareAPI is the slice of the share service the handlers use.
type ShareAPI interface {
	Status(ctx context.Context, alias, secret, noteID string) (*models.ShareLink, error)
	Activate(ctx context.Context, alias, secret, noteID string, expiresAt *time.Time) (*models.ShareLink, error)
	Deactivate(ctx context.Context, alias, secret, noteID string) error
	PublicView(ctx context.Context, token string) (*models.SharedNoteView, error)
}

// Server serves the HTTP API.
type Server struct {
	address         string
	shutdownTimeout time.Duration
	accounts        AccountAPI
	notes           NoteAPI
	folders         FolderAPI
	shares          ShareAPI
	logger          logging.Logger
}

// NewServer constructs a Server bound to the given address.
func NewServer(address string, shutdownTimeout time.Duration, logger logging.Logger, accounts AccountAPI, notes NoteAPI, folders FolderAPI, shares ShareAPI) *Server {
	return &Server{
		address:         address,
		shutdownTimeout: shutdownTimeout,
		accounts:        accounts,
		notes:           notes,
		folders:         folders,
		shares:          shares,
		logger:          logger.With("module", "http_server"),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Route("/{alias}", func(r chi.Router) {
			r.Get("/", s.handleListContents)
			r.Get("/titles", s.handleTitles)

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", s.handleCreateNote)
				r.Route("/{noteID}", func(r chi.Router) {
					r.Get("/", s.handleGetNote)
					r.Put("/", s.handleUpdateNote)
					r.Delete("/", s.handleDeleteNote)

					r.Get("/share", s.handleShareStatus)
					r.Post("/share", s.handleShareActivate)
					r.Delete("/share", s.handleShareDeactivate)
				})
			})

			r.Route("/folders", func(r chi.Router) {
				r.Post("/", s.handleCreateFolder)
				r.Route("/{folderID}", func(r chi.Router) {
					r.Get("/", s.handleGetFolder)
					r.Put("/", s.handleUpdateFolder)
					r.Delete("/", s.handleDeleteFolder)
				})
			})
		})
	})

	r.Get("/s/{token}", s.handlePublicView)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully: requests
// already past the validity checks are allowed to finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
