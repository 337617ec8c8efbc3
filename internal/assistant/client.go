// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
client.go - Music Assistant REST API Client

This file implements an HTTP client for a Music Assistant style media
provider. It exposes the search, item lookup and library listing calls
used by the catalog import flow and by the assistant health probe.
*/

package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// Typed errors surfaced to API handlers so provider failures map to
// precise response codes.
var (
	ErrItemNotFound = errors.New("assistant: item not found")
	ErrUnauthorized = errors.New("assistant: unauthorized")
	ErrUnknownKind  = errors.New("assistant: unknown library kind")
)

// Command endpoints exposed by the provider's HTTP API. The paths mirror
// the provider's command names.
const (
	infoEndpoint      = "/info"
	searchEndpoint    = "/api/music/search"
	itemByURIEndpoint = "/api/music/item_by_uri"
)

// Interface defines the provider operations the catalog relies on.
// Both Client and BreakerClient implement this interface.
type Interface interface {
	Ping(ctx context.Context) error
	Search(ctx context.Context, query string, kinds []string, limit int) (*SearchResults, error)
	GetItem(ctx context.Context, uri string) (*Item, error)
	Library(ctx context.Context, kind string, limit int) ([]Item, error)
	CoverURL(item *Item, size int) string
}

// Ensure Client implements Interface
var _ Interface = (*Client)(nil)

// Client provides access to the Music Assistant HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ServerInfo describes the provider server, returned by the info endpoint.
type ServerInfo struct {
	ServerID      string `json:"server_id"`
	ServerVersion string `json:"server_version"`
	SchemaVersion int    `json:"schema_version"`
}

// Image is one artwork entry attached to a provider item. Images whose
// path is not remotely accessible must be served through the provider's
// image proxy.
type Image struct {
	Type               string `json:"type"` // thumb, fanart, logo
	Path               string `json:"path"`
	Provider           string `json:"provider"`
	RemotelyAccessible bool   `json:"remotely_accessible"`
}

// ItemMetadata carries the optional descriptive fields of a provider item.
type ItemMetadata struct {
	Description string  `json:"description"`
	Images      []Image `json:"images"`
}

// Item is a media item as returned by the provider.
type Item struct {
	ItemID    string       `json:"item_id"`
	Provider  string       `json:"provider"`
	Name      string       `json:"name"`
	MediaType string       `json:"media_type"`
	URI       string       `json:"uri"`
	SortName  string       `json:"sort_name"`
	Available bool         `json:"available"`
	Duration  int          `json:"duration"` // seconds
	Metadata  ItemMetadata `json:"metadata"`
}

// Thumb returns the item's preferred artwork: the first image typed
// "thumb", falling back to the first image of any type.
func (i *Item) Thumb() *Image {
	for idx := range i.Metadata.Images {
		if i.Metadata.Images[idx].Type == "thumb" {
			return &i.Metadata.Images[idx]
		}
	}
	if len(i.Metadata.Images) > 0 {
		return &i.Metadata.Images[0]
	}
	return nil
}

// SearchResults groups search hits by media kind, matching the provider's
// response shape.
type SearchResults struct {
	Artists    []Item `json:"artists"`
	Albums     []Item `json:"albums"`
	Tracks     []Item `json:"tracks"`
	Playlists  []Item `json:"playlists"`
	Radio      []Item `json:"radio"`
	Audiobooks []Item `json:"audiobooks"`
	Podcasts   []Item `json:"podcasts"`
}

// All flattens the grouped results into a single list, tracks first.
func (r *SearchResults) All() []Item {
	size := len(r.Tracks) + len(r.Albums) + len(r.Playlists) +
		len(r.Artists) + len(r.Radio) + len(r.Audiobooks) + len(r.Podcasts)

	all := make([]Item, 0, size)
	all = append(all, r.Tracks...)
	all = append(all, r.Albums...)
	all = append(all, r.Playlists...)
	all = append(all, r.Artists...)
	all = append(all, r.Radio...)
	all = append(all, r.Audiobooks...)
	all = append(all, r.Podcasts...)
	return all
}

type searchRequest struct {
	SearchQuery string   `json:"search_query"`
	MediaTypes  []string `json:"media_types,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

type itemByURIRequest struct {
	URI string `json:"uri"`
}

type libraryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// NewClient creates a provider API client from the bridge configuration.
func NewClient(cfg config.AssistantConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping tests connectivity to the provider server.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doGet(ctx, infoEndpoint)
	if err != nil {
		return fmt.Errorf("assistant ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("ping", resp)
	}

	return nil
}

// Info retrieves the provider server description.
func (c *Client) Info(ctx context.Context) (*ServerInfo, error) {
	resp, err := c.doGet(ctx, infoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("assistant info request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("info", resp)
	}

	var info ServerInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode assistant server info: %w", err)
	}

	return &info, nil
}

// Search queries the provider for media items across all its backends.
//
// Parameters:
//   - query: search text
//   - kinds: restrict to these media kinds (nil = all kinds)
//   - limit: max results per kind
func (c *Client) Search(ctx context.Context, query string, kinds []string, limit int) (*SearchResults, error) {
	for _, kind := range kinds {
		if _, ok := models.ParseMediaType(kind); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
	}

	resp, err := c.doCommand(ctx, searchEndpoint, searchRequest{
		SearchQuery: query,
		MediaTypes:  kinds,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("search", resp)
	}

	var results SearchResults
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode assistant search results: %w", err)
	}

	return &results, nil
}

// GetItem resolves a single media item by its provider URI
// (e.g. "spotify://playlist/37i9dQ..." or "library://track/123").
func (c *Client) GetItem(ctx context.Context, uri string) (*Item, error) {
	resp, err := c.doCommand(ctx, itemByURIEndpoint, itemByURIRequest{URI: uri})
	if err != nil {
		return nil, fmt.Errorf("assistant item request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, uri)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("item", resp)
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode assistant item: %w", err)
	}

	return &item, nil
}

// Library lists the provider's library items for one media kind. The kind
// is a catalog media type ("playlist", "album", "track", "radio",
// "audiobook", "podcast").
func (c *Client) Library(ctx context.Context, kind string, limit int) ([]Item, error) {
	mt, ok := models.ParseMediaType(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	endpoint := "/api/music/" + string(mt) + "s/library_items"

	resp, err := c.doCommand(ctx, endpoint, libraryRequest{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("assistant library request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("library", resp)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode assistant library items: %w", err)
	}

	return items, nil
}

// CoverURL builds a fetchable artwork URL for an item's thumbnail.
//
// Remotely accessible images resolve to their direct URL. Everything else
// goes through the provider's image proxy, which expects the path query
// parameter to be encoded twice.
func (c *Client) CoverURL(item *Item, size int) string {
	if item == nil {
		return ""
	}

	img := item.Thumb()
	if img == nil || img.Path == "" {
		return ""
	}

	if img.RemotelyAccessible {
		return img.Path
	}

	q := url.Values{}
	q.Set("path", url.QueryEscape(img.Path))
	q.Set("provider", img.Provider)
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}

	return c.baseURL + "/imageproxy?" + q.Encode()
}

// doGet performs an HTTP GET request against the provider API.
func (c *Client) doGet(ctx context.Context, endpoint string) (*http.Response, error) {
	fullURL := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "audiotheca")

	return c.httpClient.Do(req)
}

// doCommand performs an HTTP POST request with a JSON command payload.
func (c *Client) doCommand(ctx context.Context, endpoint string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command payload: %w", err)
	}

	fullURL := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "audiotheca")

	return c.httpClient.Do(req)
}

// statusError converts a non-200 provider response into an error, mapping
// authentication failures to ErrUnauthorized.
func statusError(op string, resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("assistant %s: %w", op, ErrUnauthorized)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("assistant %s returned status %d (failed to read body)", op, resp.StatusCode)
	}
	return fmt.Errorf("assistant %s returned status %d: %s", op, resp.StatusCode, string(body))
}

// ItemToCreateRequest converts a provider item into the catalog's media
// create payload so imports flow through the same validation as manual
// creation. The cover URL is passed in separately because proxy URLs
// depend on the client's base URL.
func ItemToCreateRequest(item *Item, coverURL string) *models.MediaCreateRequest {
	if item == nil {
		return nil
	}

	req := &models.MediaCreateRequest{
		Title:       item.Name,
		MediaType:   item.MediaType,
		SourceURI:   item.URI,
		Provider:    item.Provider,
		CoverURL:    coverURL,
		Description: item.Metadata.Description,
	}

	// Provider durations are in seconds; the catalog stores whole minutes.
	if item.Duration > 0 {
		req.DurationMin = (item.Duration + 59) / 60
	}

	return req
}
