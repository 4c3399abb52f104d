package listings

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL    = "https://api.adzuna.com/v1/api/jobs"
	defaultCountry    = "gb"
	defaultMaxResults = 40
	httpTimeout       = 15 * time.Second
)

// AdzunaConfig holds the listing adapter configuration
type AdzunaConfig struct {
	BaseURL    string
	AppID      string
	AppKey     string
	Country    string
	MaxResults int
}

// AdzunaClient fetches job listings from the Adzuna public API
type AdzunaClient struct {
	config AdzunaConfig
	client *http.Client
	logger *slog.Logger
}

// NewAdzunaClient constructs a client with a shared HTTP client
func NewAdzunaClient(config AdzunaConfig, logger *slog.Logger) *AdzunaClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Country == "" {
		config.Country = defaultCountry
	}
	if config.MaxResults <= 0 || config.MaxResults > defaultMaxResults {
		config.MaxResults = defaultMaxResults
	}

	return &AdzunaClient{
		config: config,
		client: &http.Client{Timeout: httpTimeout},
		logger: logger,
	}
}

var _ Searcher = (*AdzunaClient)(nil)

// adzunaResponse mirrors the top-level Adzuna JSON response
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

// adzunaResult mirrors a single Adzuna listing
type adzunaResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	RedirectURL string `json:"redirect_url"`
}

// Search retrieves listings for the query and location, capped at the
// configured maximum
func (a *AdzunaClient) Search(ctx context.Context, query, location string) ([]Record, error) {
	if a.config.AppID == "" || a.config.AppKey == "" {
		return nil, fmt.Errorf("listing adapter credentials are not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/search/1", a.config.BaseURL, a.config.Country)

	params := url.Values{}
	params.Set("app_id", a.config.AppID)
	params.Set("app_key", a.config.AppKey)
	params.Set("what", query)
	params.Set("results_per_page", fmt.Sprintf("%d", a.config.MaxResults))
	if location != "" {
		params.Set("where", location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build listing request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing request returned status %d", resp.StatusCode)
	}

	var parsed adzunaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}

	records := make([]Record, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		records = append(records, Record{
			ID:       RecordID(result.RedirectURL, result.Title, result.Company.DisplayName),
			Title:    result.Title,
			Company:  result.Company.DisplayName,
			Location: result.Location.DisplayName,
			Summary:  result.Description,
			Link:     result.RedirectURL,
		})
		if len(records) >= a.config.MaxResults {
			break
		}
	}

	a.logger.Info("Listing search completed",
		slog.String("query", query),
		slog.String("location", location),
		slog.Int("records", len(records)),
	)

	return records, nil
}

// RecordID derives a stable listing identity from the canonical link,
// falling back to title and company when a listing has no link
func RecordID(link, title, company string) string {
	key := link
	if key == "" {
		key = title + "|" + company
	}
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%x", sum[:8])
}
