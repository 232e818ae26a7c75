// Package httpprovider is a generic JSON-over-HTTP provider adapter. It lets a
// provider be declared in configuration by its base URL and three endpoints.
//
// Wire format:
//
//	GET {base}{search_path}?q=QUERY  -> {"results":[{"id":"...","title":"...","altTitles":["..."]}]}
//	GET {base}{content_path}?id=ID   -> {"content":[{"id":"...","number":1,"title":"...","url":"..."}]}
//	GET {base}{sources_path}?id=ID   -> {"sources":[{"url":"...","quality":"...","kind":"..."}],"subtitles":[...],"headers":{...}}
//
// Search results become observations whose locator is "{base}/{id}".
package httpprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"animap/internal/language"
	"animap/internal/media"
	"animap/internal/services"
)

// Endpoints are the request paths under the base URL.
type Endpoints struct {
	Search  string
	Content string
	Sources string
}

// DefaultEndpoints are used for empty paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{Search: "/search", Content: "/content", Sources: "/sources"}
}

// Client is one configured HTTP provider.
type Client struct {
	name       string
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
}

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

// WithEndpoints overrides the request paths.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		defaults := DefaultEndpoints()
		if endpoints.Search == "" {
			endpoints.Search = defaults.Search
		}
		if endpoints.Content == "" {
			endpoints.Content = defaults.Content
		}
		if endpoints.Sources == "" {
			endpoints.Sources = defaults.Sources
		}
		c.endpoints = endpoints
	}
}

// New creates an adapter for the provider at baseURL.
func New(name, baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, name, "new provider", "base url required", nil)
	}
	client := &Client{
		name:       name,
		baseURL:    baseURL,
		endpoints:  DefaultEndpoints(),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Locator builds the locator for a provider-native id.
func (c *Client) Locator(id string) string {
	return c.baseURL + "/" + strings.TrimLeft(id, "/")
}

type searchResponse struct {
	Results []struct {
		ID        string   `json:"id"`
		Title     string   `json:"title"`
		AltTitles []string `json:"altTitles"`
	} `json:"results"`
}

type contentResponse struct {
	Content []media.Content `json:"content"`
}

// Search queries the provider's search endpoint.
func (c *Client) Search(ctx context.Context, query string) ([]media.Observation, error) {
	var payload searchResponse
	if err := c.get(ctx, "search", c.endpoints.Search, url.Values{"q": {query}}, &payload); err != nil {
		return nil, err
	}
	out := make([]media.Observation, 0, len(payload.Results))
	for _, result := range payload.Results {
		id := strings.TrimSpace(result.ID)
		if id == "" {
			continue
		}
		out = append(out, media.Observation{
			Title:     result.Title,
			Locator:   c.Locator(id),
			AltTitles: result.AltTitles,
			Provider:  c.name,
		})
	}
	return out, nil
}

// Content fetches the episode or chapter list for a native id.
func (c *Client) Content(ctx context.Context, id string) ([]media.Content, error) {
	var payload contentResponse
	if err := c.get(ctx, "content", c.endpoints.Content, url.Values{"id": {id}}, &payload); err != nil {
		return nil, err
	}
	return payload.Content, nil
}

// Sources fetches the sources for an episode or chapter id.
func (c *Client) Sources(ctx context.Context, id string) (*media.SourceBundle, error) {
	var payload media.SourceBundle
	if err := c.get(ctx, "sources", c.endpoints.Sources, url.Values{"id": {id}}, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Subtitles {
		if tag := language.Normalize(payload.Subtitles[i].Lang); tag != "" {
			payload.Subtitles[i].Lang = tag
		}
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrProviderFailure, c.name, operation, "parse url", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrProviderFailure, c.name, operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrProviderFailure, c.name, operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrProviderFailure, c.name, operation, fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrProviderFailure, c.name, operation, "decode response", err)
	}
	return nil
}
