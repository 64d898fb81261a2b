// Package cli wires the attachment store, validator, thumbnail service, and
// upload manager into a small command-line front end.
package cli

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/config"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/media"
	"github.com/dmitrijs2005/mediavault/internal/repositories/attachments"
	"github.com/dmitrijs2005/mediavault/internal/store"
	"github.com/dmitrijs2005/mediavault/internal/thumbnail"
	"github.com/dmitrijs2005/mediavault/internal/upload"
	"github.com/dmitrijs2005/mediavault/internal/wire"
)

type App struct {
	config    *config.Config
	db        *sql.DB
	repo      attachments.Repository
	store     *store.Store
	validator *media.Validator
	thumbs    *thumbnail.Service
	uploads   *upload.Manager
	builder   *wire.Builder
	log       logging.Logger
	out       io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()
	log := logging.NewDefault()

	db, err := attachments.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	repo := attachments.NewSQLiteRepository(db)
	resolver := store.NewResolver(c.StorageRootDir, c.LegacyRootDir)
	st := store.New(resolver, repo, log)
	validator := media.NewValidator(st, log)
	thumbs := thumbnail.NewService(st, validator, log)

	return &App{
		config:    c,
		db:        db,
		repo:      repo,
		store:     st,
		validator: validator,
		thumbs:    thumbs,
		uploads:   upload.NewManager(db, st, thumbs, log),
		builder:   wire.NewBuilder(),
		log:       log,
		out:       os.Stdout,
	}, nil
}

// Run migrates any legacy storage into place, then dispatches the
// subcommand in args (the command line after flag filtering).
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.Close()

	if _, err := a.store.Resolver().Migrate(ctx, a.log); err != nil {
		a.log.Warn(ctx, "legacy storage migration incomplete", "error", err)
	}

	return a.Dispatch(ctx, args)
}

func (a *App) Close() {
	a.thumbs.Close()
	_ = a.db.Close()
}
