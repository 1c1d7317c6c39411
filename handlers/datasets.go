// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/blocks"
	"github.com/danielhkuo/publicpulse/filestore"
	"github.com/danielhkuo/publicpulse/identity"
	"github.com/danielhkuo/publicpulse/ingest"
	"github.com/danielhkuo/publicpulse/middleware"
	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/normalizer"
	"github.com/danielhkuo/publicpulse/repository"
)

type DatasetHandler struct {
	datasets *repository.DatasetRepository
	ingester *ingest.Ingester
	files    *filestore.Store
	logger   *zap.Logger
}

func NewDatasetHandler(datasets *repository.DatasetRepository, ingester *ingest.Ingester, files *filestore.Store, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, ingester: ingester, files: files, logger: logger}
}

// Upload handles POST /datasets/upload
// Stores the file, registers the dataset and ingests it in the same request.
func (h *DatasetHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.ErrorResponse(c, http.StatusRequestEntityTooLarge, models.ErrCodeBadRequest, "upload too large")
			return
		}
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, "file is required")
		return
	}

	src, err := fh.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.Error(err))
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, "unreadable upload")
		return
	}
	defer src.Close()

	datasetID := identity.NewDatasetID()
	filename := identity.SanitizeFilename(fh.Filename)
	log := h.logger.With(zap.String("dataset_id", datasetID), zap.String("filename", filename))

	path, err := h.files.Save(src, datasetID, filename)
	if errors.Is(err, filestore.ErrTooLarge) {
		middleware.ErrorResponse(c, http.StatusRequestEntityTooLarge, models.ErrCodeBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error("Failed to store upload", zap.Error(err))
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to store file")
		return
	}

	dataset := &models.Dataset{ID: datasetID, Filename: filename, StoredPath: path}
	if err := h.datasets.Create(c.Request.Context(), dataset); err != nil {
		if rerr := h.files.Remove(path); rerr != nil {
			log.Warn("Failed to remove orphaned upload", zap.Error(rerr))
		}
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to register dataset")
		return
	}

	n, err := h.ingester.Ingest(c.Request.Context(), datasetID, path, filepath.Ext(filename))

	resp := models.UploadResponse{
		OK:           true,
		DatasetID:    datasetID,
		Filename:     filename,
		StoredPath:   path,
		RowsIngested: n,
	}

	var (
		sve *normalizer.SchemaValidationError
		pf  *normalizer.ParseFault
	)
	switch {
	case err == nil:
		log.Info("Dataset uploaded", zap.Int("rows", n))
	case errors.Is(err, normalizer.ErrUnsupportedFormat):
		resp.Note = models.UnsupportedNote
	case errors.As(err, &sve):
		middleware.MissingColumnsResponse(c, sve.Missing)
		return
	case errors.As(err, &pf):
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeParse, pf.Reason())
		return
	default:
		_ = c.Error(err)
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, err.Error())
		return
	}

	middleware.JSONResponse(c, http.StatusCreated, resp)
}

// List handles GET /datasets
func (h *DatasetHandler) List(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error())
		return
	}

	items, total, err := h.datasets.List(c.Request.Context(), limit, offset)
	if err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to list datasets")
		return
	}

	middleware.JSONResponse(c, http.StatusOK, models.DatasetListResponse{
		Total:  total,
		Items:  items,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /datasets/:id
func (h *DatasetHandler) Get(c *gin.Context) {
	d, err := h.datasets.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		middleware.ErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, "dataset not found")
		return
	}
	if err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to load dataset")
		return
	}

	middleware.JSONResponse(c, http.StatusOK, d)
}

// pageQuery is the limit/offset pair shared by list endpoints.
type pageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// pageParams reads limit and offset from the query string, normalized the
// same way as block queries.
func pageParams(c *gin.Context) (limit, offset int, err error) {
	var pq pageQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		return 0, 0, errors.New("limit and offset must be integers")
	}
	q := blocks.Query{Limit: pq.Limit, Offset: pq.Offset}.Normalized()
	return q.Limit, q.Offset, nil
}
