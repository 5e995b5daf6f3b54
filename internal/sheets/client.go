package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned when the client lacks an API key or a spreadsheet id.
var ErrNotConfigured = errors.New("sheets client not configured")

const (
	DefaultBaseURL    = "https://sheets.googleapis.com"
	DefaultRange      = "A:AA"
	DefaultHeaderRows = 3

	metadataTTL = 10 * time.Minute
)

// Config describes how to reach one spreadsheet.
type Config struct {
	APIKey     string
	SheetID    string
	Range      string
	BaseURL    string
	HeaderRows int
	// RequestDelay is the minimum spacing between value reads.
	RequestDelay time.Duration
	// ValuesTTL keeps a values response for concurrent refreshes. Zero disables it.
	ValuesTTL time.Duration
}

// Configured reports whether the client can talk to the API at all.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.SheetID != ""
}

// SpreadsheetInfo is the subset of spreadsheet metadata the dashboard shows.
type SpreadsheetInfo struct {
	SpreadsheetID string      `json:"spreadsheetId"`
	Title         string      `json:"title"`
	TimeZone      string      `json:"timeZone,omitempty"`
	Sheets        []SheetInfo `json:"sheets"`
}

// SheetInfo describes one tab.
type SheetInfo struct {
	ID          int    `json:"sheetId"`
	Title       string `json:"title"`
	Index       int    `json:"index"`
	RowCount    int    `json:"rowCount"`
	ColumnCount int    `json:"columnCount"`
}

type spreadsheetDTO struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Properties    struct {
		Title    string `json:"title"`
		TimeZone string `json:"timeZone"`
	} `json:"properties"`
	Sheets []struct {
		Properties struct {
			SheetID        int    `json:"sheetId"`
			Title          string `json:"title"`
			Index          int    `json:"index"`
			GridProperties struct {
				RowCount    int `json:"rowCount"`
				ColumnCount int `json:"columnCount"`
			} `json:"gridProperties"`
		} `json:"properties"`
	} `json:"sheets"`
}

type valueRangeDTO struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// Client reads a spreadsheet through the Sheets v4 REST API with an API key.
type Client struct {
	cfg        Config
	httpClient *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time

	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	Value       any
	Expiration  time.Time
	AccessCount int
	OriginalTTL time.Duration
}

// NewClient applies defaults to cfg and returns a ready client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}
	if cfg.HeaderRows < 0 {
		cfg.HeaderRows = 0
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: make(map[string]*cacheEntry),
	}
}

// Name identifies the client as a row source.
func (c *Client) Name() string {
	return SheetsSourceName
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) getFromCache(key string) (any, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}
	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")

	// Sliding window extension
	if entry.AccessCount < 3 {
		entry.Expiration = time.Now().Add(entry.OriginalTTL)
		entry.AccessCount++
	}
	return entry.Value, true
}

func (c *Client) addToCache(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Value:       value,
		Expiration:  time.Now().Add(ttl),
		OriginalTTL: ttl,
		AccessCount: 1,
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}

// InvalidateCache drops every cached response.
func (c *Client) InvalidateCache() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cache = make(map[string]*cacheEntry)
}

func (c *Client) throttle(ctx context.Context) error {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling Sheets request")
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, what string, out any) error {
	if !c.cfg.Configured() {
		return ErrNotConfigured
	}
	params.Set("key", c.cfg.APIKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("path", path).Str("sheet", c.cfg.SheetID).Msg("Sheets request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusBadRequest:
			return fmt.Errorf("sheets rejected the %s request (400), check the range", what)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("sheets authentication failed (401/403), check the API key and sharing settings")
		case http.StatusNotFound:
			return fmt.Errorf("spreadsheet %s not found", c.cfg.SheetID)
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return fmt.Errorf("sheets rate limit exceeded (429), retry after %s seconds", retryAfter)
			}
			return fmt.Errorf("sheets rate limit exceeded (429)")
		default:
			return fmt.Errorf("sheets API returned status %d for %s", resp.StatusCode, what)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", what, err)
	}
	return nil
}

// TestConnection fetches the spreadsheet metadata without touching the cache.
func (c *Client) TestConnection(ctx context.Context) (*SpreadsheetInfo, error) {
	info, err := c.fetchInfo(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("title", info.Title).Int("sheets", len(info.Sheets)).Msg("Sheets connection OK")
	return info, nil
}

// GetSheetInfo returns the spreadsheet metadata, cached for a few minutes.
func (c *Client) GetSheetInfo(ctx context.Context) (*SpreadsheetInfo, error) {
	key := "info:" + c.cfg.SheetID
	if val, ok := c.getFromCache(key); ok {
		return val.(*SpreadsheetInfo), nil
	}
	info, err := c.fetchInfo(ctx)
	if err != nil {
		return nil, err
	}
	c.addToCache(key, info, metadataTTL)
	return info, nil
}

func (c *Client) fetchInfo(ctx context.Context) (*SpreadsheetInfo, error) {
	params := url.Values{}
	params.Set("fields", "spreadsheetId,properties(title,timeZone),sheets.properties")

	var dto spreadsheetDTO
	path := "/v4/spreadsheets/" + url.PathEscape(c.cfg.SheetID)
	if err := c.get(ctx, path, params, "spreadsheet", &dto); err != nil {
		return nil, err
	}

	info := &SpreadsheetInfo{
		SpreadsheetID: dto.SpreadsheetID,
		Title:         dto.Properties.Title,
		TimeZone:      dto.Properties.TimeZone,
	}
	for _, s := range dto.Sheets {
		p := s.Properties
		info.Sheets = append(info.Sheets, SheetInfo{
			ID:          p.SheetID,
			Title:       p.Title,
			Index:       p.Index,
			RowCount:    p.GridProperties.RowCount,
			ColumnCount: p.GridProperties.ColumnCount,
		})
	}
	return info, nil
}

// ReadValues returns every row of rng as strings, header rows included.
func (c *Client) ReadValues(ctx context.Context, rng string) ([][]string, error) {
	key := "values:" + c.cfg.SheetID + ":" + rng
	if val, ok := c.getFromCache(key); ok {
		return val.([][]string), nil
	}
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	var dto valueRangeDTO
	path := "/v4/spreadsheets/" + url.PathEscape(c.cfg.SheetID) + "/values/" + url.PathEscape(rng)
	if err := c.get(ctx, path, url.Values{}, "values", &dto); err != nil {
		return nil, err
	}

	rows := make([][]string, len(dto.Values))
	for i, r := range dto.Values {
		row := make([]string, len(r))
		for j, cell := range r {
			row[j] = cellString(cell)
		}
		rows[i] = row
	}
	log.Info().Str("range", rng).Int("rows", len(rows)).Msg("Read values from Sheets")
	c.addToCache(key, rows, c.cfg.ValuesTTL)
	return rows, nil
}

// FetchRows reads the configured range and drops the header rows.
func (c *Client) FetchRows(ctx context.Context) ([][]string, error) {
	rows, err := c.ReadValues(ctx, c.cfg.Range)
	if err != nil {
		return nil, err
	}
	return skipHeader(rows, c.cfg.HeaderRows), nil
}

// WriteData is not supported: the dashboard is read-only against the sheet.
func (c *Client) WriteData(ctx context.Context, rng string, values [][]string) bool {
	log.Warn().Str("range", rng).Int("rows", len(values)).Msg("Write-back to Sheets is not supported")
	return false
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func skipHeader(rows [][]string, n int) [][]string {
	if n <= 0 {
		return rows
	}
	if n >= len(rows) {
		return [][]string{}
	}
	return rows[n:]
}
