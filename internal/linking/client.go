package linking

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"animap/internal/config"
	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/services"
)

// Linker resolves a secondary catalog id to provider locators.
type Linker interface {
	Lookup(ctx context.Context, mediaType media.Type, secondaryID int64) ([]string, error)
}

// Client talks to a MALSync-style API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ Linker = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client that waits delay between consecutive calls.
func New(baseURL string, delay time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "linking", "new client", "base url required", nil)
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "linking")
	return client, nil
}

// NewFromConfig builds a client from the [linking] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	return New(cfg.Linking.BaseURL, cfg.LinkingDelay(),
		WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Linking.TimeoutSeconds) * time.Second}),
		WithLogger(logger),
	)
}

type sitePage struct {
	Identifier any    `json:"identifier"`
	URL        string `json:"url"`
}

type lookupResponse struct {
	Sites map[string]map[string]sitePage `json:"Sites"`
}

// Lookup returns every provider page URL the service lists for the entity.
// An entity the service does not know returns an empty list.
func (c *Client) Lookup(ctx context.Context, mediaType media.Type, secondaryID int64) ([]string, error) {
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "linking", "lookup", string(mediaType), nil)
	}
	if secondaryID <= 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrTransient, "linking", "lookup", "throttle wait", err)
	}

	endpoint := fmt.Sprintf("%s/mal/%s/%d", c.baseURL, strings.ToLower(string(mediaType)), secondaryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "linking", "lookup", "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "linking", "lookup", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "linking", "lookup", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, "linking", "lookup", "decode response", err)
	}

	sites := make([]string, 0, len(payload.Sites))
	for site := range payload.Sites {
		sites = append(sites, site)
	}
	slices.Sort(sites)

	var locators []string
	for _, site := range sites {
		pages := payload.Sites[site]
		keys := make([]string, 0, len(pages))
		for key := range pages {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if u := strings.TrimSpace(pages[key].URL); u != "" {
				locators = append(locators, u)
			}
		}
	}
	c.logger.Debug("linking lookup complete",
		logging.Int64("secondary_id", secondaryID),
		logging.Int("locators", len(locators)),
	)
	return locators, nil
}
