// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/blocks"
	"github.com/danielhkuo/publicpulse/cliparse"
	"github.com/danielhkuo/publicpulse/filestore"
	"github.com/danielhkuo/publicpulse/handlers"
	"github.com/danielhkuo/publicpulse/ingest"
	"github.com/danielhkuo/publicpulse/middleware"
	"github.com/danielhkuo/publicpulse/repository"
)

// multipartSlack covers form boundaries and part headers on top of the
// file size limit.
const multipartSlack = 1 << 20

// Services holds the components shared by the HTTP server and the CLI.
type Services struct {
	Datasets   *repository.DatasetRepository
	Rows       *repository.RowRepository
	Selections *repository.SelectionRepository
	Files      *filestore.Store
	Ingester   *ingest.Ingester
	Aggregator *blocks.Aggregator
}

// NewServices wires repositories, file storage, ingestion and aggregation
// around one database pool and filesystem.
func NewServices(conn *sqlx.DB, fs afero.Fs, cfg cliparse.Config, logger *zap.Logger) (*Services, error) {
	files, err := filestore.New(fs, cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	datasets := repository.NewDatasetRepository(conn, logger)
	rows := repository.NewRowRepository(conn, logger)

	return &Services{
		Datasets:   datasets,
		Rows:       rows,
		Selections: repository.NewSelectionRepository(conn, logger),
		Files:      files,
		Ingester:   ingest.New(conn, fs, datasets, rows, cfg.BatchSize, logger),
		Aggregator: blocks.NewAggregator(rows, logger),
	}, nil
}

func NewRouter(svc *Services, cfg cliparse.Config, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	// Initialize handlers
	datasetHandler := handlers.NewDatasetHandler(svc.Datasets, svc.Ingester, svc.Files, logger)
	blockHandler := handlers.NewBlockHandler(svc.Aggregator, logger)
	selectionHandler := handlers.NewSelectionHandler(svc.Selections, logger)

	// Root and health check
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to PublicPulse API"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Datasets
	ds := r.Group("/datasets")
	ds.POST("/upload", middleware.MaxBodyBytes(cfg.MaxUploadBytes+multipartSlack), datasetHandler.Upload)
	ds.GET("", datasetHandler.List)
	ds.GET("/:id", datasetHandler.Get)

	// Question blocks
	r.GET("/questions/blocks", blockHandler.GetBlocks)
	r.GET("/questions/blocks/export", blockHandler.Export)

	// Selections
	sel := r.Group("/selections")
	sel.POST("", selectionHandler.Add)
	sel.DELETE("", selectionHandler.Remove)
	sel.GET("", selectionHandler.List)
	sel.GET("/all", selectionHandler.ListAll)

	return r
}
