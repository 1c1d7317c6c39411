// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"

	"github.com/danielhkuo/publicpulse/blocks"
	"github.com/danielhkuo/publicpulse/cliparse"
	"github.com/danielhkuo/publicpulse/filestore"
	"github.com/danielhkuo/publicpulse/ingest"
	"github.com/danielhkuo/publicpulse/middleware"
	"github.com/danielhkuo/publicpulse/repository"
	"github.com/danielhkuo/publicpulse/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv mounts the handlers on a bare engine backed by a fresh database
// and an in-memory filesystem.
type testEnv struct {
	cfg        cliparse.Config
	conn       *sqlx.DB
	fs         afero.Fs
	datasets   *repository.DatasetRepository
	selections *repository.SelectionRepository
	engine     *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig(t)
	logger := zaptest.NewLogger(t)
	fs := afero.NewMemMapFs()

	files, err := filestore.New(fs, cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	datasets := repository.NewDatasetRepository(conn, logger)
	rows := repository.NewRowRepository(conn, logger)
	selections := repository.NewSelectionRepository(conn, logger)

	datasetHandler := NewDatasetHandler(datasets, ingest.New(conn, fs, datasets, rows, cfg.BatchSize, logger), files, logger)
	blockHandler := NewBlockHandler(blocks.NewAggregator(rows, logger), logger)
	selectionHandler := NewSelectionHandler(selections, logger)

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.POST("/datasets/upload", datasetHandler.Upload)
	r.GET("/datasets", datasetHandler.List)
	r.GET("/datasets/:id", datasetHandler.Get)
	r.GET("/questions/blocks", blockHandler.GetBlocks)
	r.GET("/questions/blocks/export", blockHandler.Export)
	r.POST("/selections", selectionHandler.Add)
	r.DELETE("/selections", selectionHandler.Remove)
	r.GET("/selections", selectionHandler.List)
	r.GET("/selections/all", selectionHandler.ListAll)

	return &testEnv{
		cfg:        cfg,
		conn:       conn,
		fs:         fs,
		datasets:   datasets,
		selections: selections,
		engine:     r,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}
