package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fidmor2026/zaapar/internal/api/dto"
)

// GetMatches handles GET /api/v1/matches.
// Returns listings for the query ranked against the user's latest
// profile.
func (h *MatchHandler) GetMatches(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "q is required",
		})
		return
	}

	location := c.Query("location")
	userID := c.Query("user_id")

	ranked, err := h.matching.Matches(c.Request.Context(), userID, query, location)
	if err != nil {
		h.logger.Error("Failed to rank matches",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to fetch listings",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MatchesResponse{
		Query:    query,
		Location: location,
		Matches:  ranked,
	})
}
