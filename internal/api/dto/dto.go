package dto

import (
	"encoding/json"

	"github.com/fidmor2026/zaapar/internal/scoring"
)

// SubmitDocumentRequest is the body of POST /api/v1/documents. The text
// is already extracted from the uploaded binary by the upload layer.
type SubmitDocumentRequest struct {
	UserID   string `json:"user_id"`
	Filename string `json:"filename"`
	Text     string `json:"text" binding:"required"`
}

type SubmitDocumentResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

// JobStatusResponse is the polling surface: id, status, result and
// updated_at are exposed verbatim from the ledger entry
type JobStatusResponse struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result"`
	UpdatedAt string          `json:"updated_at"`
}

type MatchesResponse struct {
	Query    string                  `json:"query"`
	Location string                  `json:"location,omitempty"`
	Matches  []scoring.ScoredListing `json:"matches"`
}
