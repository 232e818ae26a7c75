package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"animap/internal/config"
	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/metrics"
	"animap/internal/services"
)

// Searcher is the catalog surface used by the resolution strategies.
type Searcher interface {
	Search(ctx context.Context, query string, mediaType media.Type, page, perPage int) ([]media.CanonicalEntity, error)
}

// Client provides access to the GraphQL catalog.
type Client struct {
	baseURL     string
	animeIDsURL string
	mangaIDsURL string
	perPage     int
	httpClient  *http.Client
	limiter     *SlidingWindow
	logger      *slog.Logger
	now         func() time.Time
}

var _ Searcher = (*Client)(nil)

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

// WithLimiter replaces the default 90 requests per minute window.
func WithLimiter(limiter *SlidingWindow) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithIDDumps sets the URLs of the bulk anime and manga id lists.
func WithIDDumps(animeURL, mangaURL string) Option {
	return func(c *Client) {
		c.animeIDsURL = strings.TrimSpace(animeURL)
		c.mangaIDsURL = strings.TrimSpace(mangaURL)
	}
}

// WithPerPage sets the page size used when callers pass zero.
func WithPerPage(perPage int) Option {
	return func(c *Client) {
		if perPage > 0 {
			c.perPage = perPage
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "new client", "base url required", nil)
	}
	client := &Client{
		baseURL:    baseURL,
		perPage:    15,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    NewSlidingWindow(90, defaultWindow, defaultPollInterval),
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "catalog")
	return client, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type pageResult struct {
	Media []json.RawMessage `json:"media"`
}

type mediaNode struct {
	ID         int64          `json:"id"`
	IDMal      *int64         `json:"idMal"`
	Type       string         `json:"type"`
	Format     string         `json:"format"`
	Status     string         `json:"status"`
	Season     string         `json:"season"`
	SeasonYear int            `json:"seasonYear"`
	Episodes   int            `json:"episodes"`
	Chapters   int            `json:"chapters"`
	Synonyms   []string       `json:"synonyms"`
	Title      mediaNodeTitle `json:"title"`
	CoverImage struct {
		Large string `json:"large"`
	} `json:"coverImage"`
}

type mediaNodeTitle struct {
	Romaji        *string `json:"romaji"`
	English       *string `json:"english"`
	Native        *string `json:"native"`
	UserPreferred *string `json:"userPreferred"`
}

// Search runs a catalog search. Zero page or perPage fall back to the first
// page and the client's page size.
func (c *Client) Search(ctx context.Context, query string, mediaType media.Type, page, perPage int) ([]media.CanonicalEntity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "search", "query must not be empty", nil)
	}
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "catalog", "search", string(mediaType), nil)
	}
	vars := map[string]any{
		"search":  query,
		"type":    string(mediaType),
		"page":    c.page(page),
		"perPage": c.pageSize(perPage),
	}
	var data struct {
		Page pageResult `json:"Page"`
	}
	if err := c.do(ctx, "search", searchQuery, vars, &data); err != nil {
		return nil, err
	}
	return decodeMedia(data.Page.Media)
}

// GetByID fetches a single entity. A missing id returns (nil, nil).
func (c *Client) GetByID(ctx context.Context, id int64) (*media.CanonicalEntity, error) {
	if id <= 0 {
		return nil, services.Wrap(services.ErrValidation, "catalog", "get by id", fmt.Sprintf("invalid id %d", id), nil)
	}
	var data struct {
		Media json.RawMessage `json:"Media"`
	}
	err := c.do(ctx, "get_by_id", byIDQuery, map[string]any{"id": id}, &data)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data.Media) == 0 || string(data.Media) == "null" {
		return nil, nil
	}
	entity, err := decodeNode(data.Media)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Seasonal returns the trending, current season, next season, popular, and top lists.
func (c *Client) Seasonal(ctx context.Context, mediaType media.Type, page, perPage int) (*media.Seasonal, error) {
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "catalog", "seasonal", string(mediaType), nil)
	}
	season, year := seasonOf(c.now())
	nextSeason, nextYear := nextSeasonOf(season, year)
	vars := map[string]any{
		"type":       string(mediaType),
		"page":       c.page(page),
		"perPage":    c.pageSize(perPage),
		"season":     season,
		"seasonYear": year,
		"nextSeason": nextSeason,
		"nextYear":   nextYear,
	}
	var data struct {
		Trending   pageResult `json:"trending"`
		Season     pageResult `json:"season"`
		NextSeason pageResult `json:"nextSeason"`
		Popular    pageResult `json:"popular"`
		Top        pageResult `json:"top"`
	}
	if err := c.do(ctx, "seasonal", seasonalQuery, vars, &data); err != nil {
		return nil, err
	}

	out := &media.Seasonal{}
	lists := []struct {
		dst *[]media.CanonicalEntity
		src pageResult
	}{
		{&out.Trending, data.Trending},
		{&out.Season, data.Season},
		{&out.NextSeason, data.NextSeason},
		{&out.Popular, data.Popular},
		{&out.Top, data.Top},
	}
	for _, list := range lists {
		decoded, err := decodeMedia(list.src.Media)
		if err != nil {
			return nil, err
		}
		*list.dst = decoded
	}
	return out, nil
}

// AnimeIDs returns every anime id listed in the configured dump.
func (c *Client) AnimeIDs(ctx context.Context) ([]string, error) {
	return c.fetchIDs(ctx, c.animeIDsURL, "anime")
}

// MangaIDs returns every manga id listed in the configured dump.
func (c *Client) MangaIDs(ctx context.Context) ([]string, error) {
	return c.fetchIDs(ctx, c.mangaIDsURL, "manga")
}

func (c *Client) fetchIDs(ctx context.Context, endpoint, kind string) ([]string, error) {
	if endpoint == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", kind+" ids", "id dump url not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalog, "catalog", kind+" ids", "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalog, "catalog", kind+" ids", "execute request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrCatalog, "catalog", kind+" ids", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, services.Wrap(services.ErrCatalog, "catalog", kind+" ids", "decode response", err)
	}
	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		id := strings.Trim(strings.TrimSpace(string(item)), `"`)
		if id == "" || id == "null" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) do(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	waited, err := c.limiter.Acquire(ctx)
	metrics.ObserveCatalogWait(waited)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "catalog", operation, "rate limiter wait cancelled", err)
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return services.Wrap(services.ErrCatalog, "catalog", operation, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrCatalog, "catalog", operation, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "catalog", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request complete",
		logging.String("operation", operation),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
		logging.Duration("limiter_wait", waited),
	)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "catalog", operation, "read response", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return services.Wrap(services.ErrNotFound, "catalog", operation, "status 404", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrCatalog, "catalog", operation, fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return services.Wrap(services.ErrCatalog, "catalog", operation, "decode response", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return services.Wrap(services.ErrCatalog, "catalog", operation, strings.Join(messages, "; "), nil)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return services.Wrap(services.ErrCatalog, "catalog", operation, "decode data", err)
	}
	return nil
}

func (c *Client) page(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func (c *Client) pageSize(perPage int) int {
	if perPage <= 0 {
		return c.perPage
	}
	return perPage
}

func decodeMedia(items []json.RawMessage) ([]media.CanonicalEntity, error) {
	out := make([]media.CanonicalEntity, 0, len(items))
	for _, raw := range items {
		entity, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func decodeNode(raw json.RawMessage) (media.CanonicalEntity, error) {
	var node mediaNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return media.CanonicalEntity{}, services.Wrap(services.ErrCatalog, "catalog", "decode media", "", err)
	}
	entity := media.CanonicalEntity{
		ID:         node.ID,
		Type:       media.Type(strings.ToUpper(node.Type)),
		Title:      media.Title{Romaji: deref(node.Title.Romaji), English: deref(node.Title.English), Native: deref(node.Title.Native), UserPreferred: deref(node.Title.UserPreferred)},
		Synonyms:   node.Synonyms,
		Format:     node.Format,
		Status:     node.Status,
		Season:     node.Season,
		SeasonYear: node.SeasonYear,
		Episodes:   node.Episodes,
		Chapters:   node.Chapters,
		CoverImage: node.CoverImage.Large,
		Payload:    append(json.RawMessage(nil), raw...),
	}
	if node.IDMal != nil {
		entity.SecondaryID = *node.IDMal
	}
	return entity, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var seasons = []string{"WINTER", "SPRING", "SUMMER", "FALL"}

func seasonOf(t time.Time) (string, int) {
	return seasons[(int(t.Month())-1)/3], t.Year()
}

func nextSeasonOf(season string, year int) (string, int) {
	for i, s := range seasons {
		if s == season {
			if i == len(seasons)-1 {
				return seasons[0], year + 1
			}
			return seasons[i+1], year
		}
	}
	return seasons[0], year + 1
}

// NewFromConfig builds a client from the [catalog] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "new client", "config required", nil)
	}
	return New(cfg.Catalog.BaseURL,
		WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second}),
		WithLimiter(NewSlidingWindow(cfg.Catalog.RequestsPerMinute, defaultWindow, defaultPollInterval)),
		WithIDDumps(cfg.Catalog.AnimeIDsURL, cfg.Catalog.MangaIDsURL),
		WithPerPage(cfg.Catalog.PerPage),
		WithLogger(logger),
	)
}
