// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/identity"
	"github.com/danielhkuo/publicpulse/middleware"
	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/repository"
)

type SelectionHandler struct {
	selections *repository.SelectionRepository
	logger     *zap.Logger
}

func NewSelectionHandler(selections *repository.SelectionRepository, logger *zap.Logger) *SelectionHandler {
	return &SelectionHandler{selections: selections, logger: logger}
}

// resolveUser takes the user from the explicit value or the X-User-ID
// header and writes a 400 when neither is usable.
func resolveUser(c *gin.Context, explicit string) (string, bool) {
	user, err := identity.ResolveUser(explicit, c.GetHeader(identity.UserHeader))
	if err != nil {
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error())
		return "", false
	}
	return user, true
}

// Add handles POST /selections
// Adding an existing selection is a no-op.
func (h *SelectionHandler) Add(c *gin.Context) {
	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, "dataset_id is required")
		return
	}
	user, ok := resolveUser(c, req.UserID)
	if !ok {
		return
	}

	if err := h.selections.Add(c.Request.Context(), user, req.DatasetID, req.QuestionID); err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to add selection")
		return
	}

	h.logger.Debug("Selection added",
		zap.String("user_id", user),
		zap.String("dataset_id", req.DatasetID),
		zap.String("question_id", req.QuestionID),
	)
	middleware.JSONResponse(c, http.StatusOK, models.OKResponse{OK: true})
}

// Remove handles DELETE /selections
func (h *SelectionHandler) Remove(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user_id"))
	if !ok {
		return
	}
	datasetID := c.Query("dataset_id")
	if datasetID == "" {
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, "dataset_id is required")
		return
	}

	if err := h.selections.Remove(c.Request.Context(), user, datasetID, c.Query("question_id")); err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to remove selection")
		return
	}

	middleware.JSONResponse(c, http.StatusOK, models.OKResponse{OK: true})
}

// List handles GET /selections
func (h *SelectionHandler) List(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user_id"))
	if !ok {
		return
	}
	datasetID := c.Query("dataset_id")
	if datasetID == "" {
		middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, "dataset_id is required")
		return
	}

	items, err := h.selections.List(c.Request.Context(), user, datasetID)
	if err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to list selections")
		return
	}

	middleware.JSONResponse(c, http.StatusOK, models.SelectionListResponse{Items: items})
}

// ListAll handles GET /selections/all
// Returns the user's selections across every dataset.
func (h *SelectionHandler) ListAll(c *gin.Context) {
	user, ok := resolveUser(c, c.Query("user_id"))
	if !ok {
		return
	}

	items, err := h.selections.ListAll(c.Request.Context(), user)
	if err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStore, "failed to list selections")
		return
	}

	middleware.JSONResponse(c, http.StatusOK, models.SelectionListResponse{Items: items})
}
