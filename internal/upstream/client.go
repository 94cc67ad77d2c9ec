// Package upstream talks to the booking provider's availability API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/config"
)

// httpDoer abstracts the HTTP client so tests can substitute transports.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches one location-day of slot availability per call. Responses
// are normalized into the cache's slot shape; the provider's quirks (numeric
// fields as strings, free-form condition labels) stay contained here.
type Client struct {
	client  httpDoer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient builds a provider client from config. The request timeout lives
// on the underlying http.Client so one stuck fetch cannot hold a coalesced
// caller group indefinitely.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout()},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// Fetch retrieves the provider's slot list for one location and date.
func (c *Client) Fetch(ctx context.Context, location, date string) ([]cache.Slot, error) {
	endpoint, err := url.Parse(c.baseURL + "/v1/availability")
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	query := endpoint.Query()
	query.Set("location", location)
	query.Set("date", date)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream request build: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("upstream read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("provider returned non-success status",
			"status", resp.StatusCode, "location", location, "date", date)
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var payload availabilityPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("upstream decode: %w", err)
	}

	slots := make([]cache.Slot, 0, len(payload.Slots))
	for _, raw := range payload.Slots {
		slots = append(slots, cache.Slot{
			ID:         raw.ID,
			StartTime:  raw.StartTime,
			EndTime:    raw.EndTime,
			Price:      raw.Price,
			OpenSpaces: int(raw.OpenSpaces),
			Available:  raw.Available,
			Label:      normalizeLabel(raw.Label),
			Sky:        strings.TrimSpace(raw.Sky),
		})
	}
	return slots, nil
}

type availabilityPayload struct {
	Slots []slotPayload `json:"slots"`
}

type slotPayload struct {
	ID         string    `json:"slotId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Price      float64   `json:"price"`
	OpenSpaces flexInt   `json:"openSpaces"`
	Available  bool      `json:"available"`
	Label      string    `json:"label"`
	Sky        string    `json:"sky"`
}

// flexInt tolerates the provider sending counts as numbers or quoted strings.
// Anything unparsable decodes as zero, which downstream treats as unbookable.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	text = strings.Trim(text, `"`)
	if text == "" || text == "null" {
		*f = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(int(parsed))
	return nil
}

// normalizeLabel folds the provider's condition wording into the three values
// the site displays. Unrecognized labels pass through trimmed so new provider
// vocabulary degrades visibly instead of silently.
func normalizeLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "good", "great", "excellent", "clean":
		return "Good"
	case "decent", "fair", "ok", "okay", "moderate":
		return "Decent"
	case "poor", "bad", "choppy", "blown out":
		return "Poor"
	default:
		return strings.TrimSpace(label)
	}
}
