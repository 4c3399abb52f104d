package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fidmor2026/zaapar/internal/api/dto"
	"github.com/fidmor2026/zaapar/internal/backend"
	"github.com/fidmor2026/zaapar/internal/ledger"
)

// SubmitDocument handles POST /api/v1/documents.
// Creates a pending ledger entry and publishes a work notification.
func (h *DocumentHandler) SubmitDocument(c *gin.Context) {
	var req dto.SubmitDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	var userID *string
	if req.UserID != "" {
		userID = &req.UserID
	}

	payload, err := json.Marshal(backend.Payload{
		Text:     req.Text,
		Filename: req.Filename,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to encode payload",
		})
		return
	}

	id, err := h.ledger.Enqueue(c.Request.Context(), userID, ledger.KindExtractProfile, string(payload))
	if err != nil {
		h.logger.Error("Failed to enqueue extraction", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue extraction",
		})
		return
	}

	// best effort: the polling backend drains the entry even when the
	// notification never makes it out
	if h.notifier != nil {
		note, _ := json.Marshal(backend.Notification{
			JobRowID: id,
			UserID:   userID,
			Filename: req.Filename,
			Text:     req.Text,
		})

		if err := h.notifier.Publish(c.Request.Context(), note, "application/json"); err != nil {
			h.logger.Warn("Failed to publish work notification",
				slog.Int64("entry_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	c.JSON(http.StatusAccepted, dto.SubmitDocumentResponse{
		JobID:  id,
		Status: ledger.StatusPending,
	})
}

// GetJob handles GET /api/v1/jobs/:job_id.
// Exposes the ledger entry's id, status, result and updated_at verbatim
// for polling.
func (h *DocumentHandler) GetJob(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("job_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a positive integer",
		})
		return
	}

	entry, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}

		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	var result json.RawMessage
	if entry.Result != nil {
		result = json.RawMessage(*entry.Result)
	}

	c.JSON(http.StatusOK, dto.JobStatusResponse{
		ID:        entry.ID,
		Status:    entry.Status,
		Result:    result,
		UpdatedAt: entry.UpdatedAt.Format(time.RFC3339),
	})
}
