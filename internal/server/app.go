// Package server initializes and runs the note service. It opens the
// database, runs migrations, wires the services together and starts the
// HTTP server, handling graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"cryptora/internal/cryptox"
	"cryptora/internal/logging"
	"cryptora/internal/server/config"
	"cryptora/internal/server/httpapi"
	"cryptora/internal/server/repositories/repomanager"
	"cryptora/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	accountService *services.AccountService
	noteService    *services.NoteService
	folderService  *services.FolderService
	shareService   *services.ShareService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	cipher := cryptox.NewAESGCM()

	as := services.NewAccountService(db, rm, cipher)
	ns := services.NewNoteService(db, rm, cipher, c.TitleIndexFanout)
	fs := services.NewFolderService(db, rm, cipher)
	ss := services.NewShareService(db, rm, cipher, c.ShareTokenBytes)

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		accountService: as,
		noteService:    ns,
		folderService:  fs,
		shareService:   ss,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.config.ShutdownTimeout, app.logger,
		app.accountService, app.noteService, app.folderService, app.shareService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
