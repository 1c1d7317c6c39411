package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/cliparse"
	"github.com/danielhkuo/publicpulse/db"
	"github.com/danielhkuo/publicpulse/identity"
	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/normalizer"
	"github.com/danielhkuo/publicpulse/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "publicpulse",
		Short:         "Survey dataset ingestion and question block API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	cliparse.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "ingest FILE...",
			Short: "Register and ingest local survey files without the API",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runIngest,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			Args:  cobra.NoArgs,
			RunE:  runMigrate,
		},
	)
	return root
}

// env is what every command needs: resolved config, a logger and a
// migrated database.
type env struct {
	cfg    cliparse.Config
	logger *zap.Logger
	conn   *sqlx.DB
}

func setup(cmd *cobra.Command) (*env, error) {
	if err := cliparse.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := cliparse.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(cmd.Context(), cfg.DatabaseType, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	if err := db.Migrate(conn, logger); err != nil {
		conn.Close()
		logger.Sync()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, conn: conn}, nil
}

func (e *env) close() {
	if err := e.conn.Close(); err != nil {
		e.logger.Warn("Failed to close database", zap.Error(err))
	}
	e.logger.Sync()
}

// newLogger builds a development (console) or production (json) logger
// at the configured level.
func newLogger(cfg cliparse.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()
	logger := e.logger

	svc, err := router.NewServices(e.conn, afero.NewOsFs(), e.cfg, logger)
	if err != nil {
		return err
	}

	if e.cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(e.cfg.Port),
		Handler:           router.NewRouter(svc, e.cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.Int("port", e.cfg.Port), zap.String("database", e.cfg.DatabaseType))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// signal.Notify requires the channel to be buffered
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	fs := afero.NewOsFs()
	svc, err := router.NewServices(e.conn, fs, e.cfg, e.logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	var errs error
	for _, path := range args {
		resp, err := ingestFile(cmd.Context(), svc, fs, path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return errs
}

// ingestFile copies a local file into the upload directory, registers it
// and ingests it, the same way an HTTP upload does.
func ingestFile(ctx context.Context, svc *router.Services, fs afero.Fs, path string) (models.UploadResponse, error) {
	f, err := fs.Open(path)
	if err != nil {
		return models.UploadResponse{}, err
	}
	defer f.Close()

	id := identity.NewDatasetID()
	filename := identity.SanitizeFilename(filepath.Base(path))
	stored, err := svc.Files.Save(f, id, filename)
	if err != nil {
		return models.UploadResponse{}, err
	}

	if err := svc.Datasets.Create(ctx, &models.Dataset{ID: id, Filename: filename, StoredPath: stored}); err != nil {
		return models.UploadResponse{}, multierr.Append(err, svc.Files.Remove(stored))
	}

	resp := models.UploadResponse{OK: true, DatasetID: id, Filename: filename, StoredPath: stored}
	n, err := svc.Ingester.Ingest(ctx, id, stored, filepath.Ext(filename))
	switch {
	case errors.Is(err, normalizer.ErrUnsupportedFormat):
		resp.Note = models.UnsupportedNote
	case err != nil:
		return models.UploadResponse{}, err
	}
	resp.RowsIngested = n
	return resp, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	e.logger.Info("Database is up to date")
	return nil
}
