// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/blocks"
	"github.com/danielhkuo/publicpulse/middleware"
	"github.com/danielhkuo/publicpulse/models"
)

type BlockHandler struct {
	aggregator *blocks.Aggregator
	logger     *zap.Logger
}

func NewBlockHandler(aggregator *blocks.Aggregator, logger *zap.Logger) *BlockHandler {
	return &BlockHandler{aggregator: aggregator, logger: logger}
}

type blockQuery struct {
	DatasetID string `form:"dataset_id"`
	Search    string `form:"search"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

func bindBlockQuery(c *gin.Context) (blocks.Query, bool) {
	var bq blockQuery
	if err := c.ShouldBindQuery(&bq); err != nil {
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, "limit and offset must be integers")
		return blocks.Query{}, false
	}
	return blocks.Query{
		DatasetID: bq.DatasetID,
		Search:    bq.Search,
		Limit:     bq.Limit,
		Offset:    bq.Offset,
	}, true
}

// GetBlocks handles GET /questions/blocks
func (h *BlockHandler) GetBlocks(c *gin.Context) {
	q, ok := bindBlockQuery(c)
	if !ok {
		return
	}

	page, err := h.aggregator.GetBlocks(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to load blocks", zap.Error(err))
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to load blocks")
		return
	}

	middleware.JSONResponse(c, http.StatusOK, models.BlocksResponse{
		Total:  page.Total,
		Items:  page.Items,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// Export handles GET /questions/blocks/export
// Streams every matching row as CSV; limit and offset are ignored.
func (h *BlockHandler) Export(c *gin.Context) {
	q, ok := bindBlockQuery(c)
	if !ok {
		return
	}

	name := "blocks.csv"
	if q.DatasetID != "" {
		name = "blocks_" + q.DatasetID + ".csv"
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)

	if err := h.aggregator.Export(c.Request.Context(), q, c.Writer); err != nil {
		h.logger.Error("Failed to export blocks", zap.Error(err))
		if c.Writer.Written() {
			// headers are gone; cut the stream short
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Writer.Header().Del("Content-Type")
		c.Writer.Header().Del("Content-Disposition")
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to export blocks")
	}
}
