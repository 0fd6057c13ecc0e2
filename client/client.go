// Package client implements the Quickbase HTTP/JSON query API: table and
// field catalogs plus paginated record queries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/MainspringEnergy/tap-quickbase-json/logger"
)

const DefaultBaseURL = "https://api.quickbase.com/v1"

type Config struct {
	Hostname       string
	UserToken      string
	AppID          string
	UserAgent      string
	BaseURL        string
	RequestTimeout time.Duration
	RetryAttempts  uint
}

// Table is one application table as reported by the catalog endpoint.
type Table struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field is one entry of a table's field catalog.
type Field struct {
	ID        int    `json:"id"`
	Label     string `json:"label"`
	FieldType string `json:"fieldType"`
}

// Value wraps a single cell; Quickbase nests every cell under "value".
type Value struct {
	Value any `json:"value"`
}

type QueryRequest struct {
	TableID string
	// FieldIDs must be sorted ascending; Quickbase returns columns keyed by
	// field id either way, but stable select lists keep request logs diffable.
	FieldIDs []int
	// Where is a raw Quickbase query-language clause, empty for no filter.
	Where string
	// SortFieldID orders rows ascending by that field when non-zero.
	SortFieldID int
	Skip        int
}

type QueryMetadata struct {
	TotalRecords int `json:"totalRecords"`
	NumRecords   int `json:"numRecords"`
	Skip         int `json:"skip"`
}

type QueryResponse struct {
	Data     []map[string]Value `json:"data"`
	Metadata QueryMetadata      `json:"metadata"`
}

type Client interface {
	Tables(ctx context.Context) ([]Table, error)
	Fields(ctx context.Context, tableID string) ([]Field, error)
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
}

type client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}

	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (c *client) Tables(ctx context.Context) ([]Table, error) {
	params := url.Values{"appId": {c.cfg.AppID}}

	var tables []Table
	if err := c.getJSON(ctx, "/tables", params, &tables); err != nil {
		return nil, fmt.Errorf("fetch tables: %w", err)
	}
	return tables, nil
}

func (c *client) Fields(ctx context.Context, tableID string) ([]Field, error) {
	params := url.Values{
		"tableId":           {tableID},
		"includeFieldPerms": {"false"},
	}

	var fields []Field
	if err := c.getJSON(ctx, "/fields", params, &fields); err != nil {
		return nil, fmt.Errorf("fetch fields for table %s: %w", tableID, err)
	}
	return fields, nil
}

type sortBy struct {
	FieldID int    `json:"fieldId"`
	Order   string `json:"order"`
}

type queryOptions struct {
	Skip int `json:"skip"`
}

type queryBody struct {
	From    string       `json:"from"`
	Select  []int        `json:"select"`
	Where   string       `json:"where,omitempty"`
	SortBy  []sortBy     `json:"sortBy,omitempty"`
	Options queryOptions `json:"options"`
}

func (c *client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	body := queryBody{
		From:    req.TableID,
		Select:  req.FieldIDs,
		Where:   req.Where,
		Options: queryOptions{Skip: req.Skip},
	}
	if req.SortFieldID != 0 {
		body.SortBy = []sortBy{{FieldID: req.SortFieldID, Order: "ASC"}}
	}

	logger.Debug("querying records", "table", req.TableID, "where", req.Where, "skip", req.Skip)

	var resp QueryResponse
	if err := c.postJSON(ctx, "/records/query", body, &resp); err != nil {
		return nil, fmt.Errorf("query table %s: %w", req.TableID, err)
	}
	return &resp, nil
}

func (c *client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path+"?"+params.Encode(), nil, out)
}

func (c *client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, path, payload, out)
}

// doJSON performs one API call with retries. Client-side errors (4xx) are
// classified and never retried; transport errors and 5xx responses are
// retried with backoff and surface as ErrServiceUnavailable once exhausted.
func (c *client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	err := retry.Do(
		func() error {
			return c.doOnce(ctx, method, path, body, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("quickbase request failed, retrying", "attempt", n+1, "path", path, "error", err)
		}),
	)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrBadQuery) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

func (c *client) doOnce(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("QB-Realm-Hostname", c.cfg.Hostname)
	req.Header.Set("Authorization", "QB-USER-TOKEN "+c.cfg.UserToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return classifyStatus(resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyStatus sorts an HTTP failure into the error taxonomy. The response
// text rides along because Quickbase puts the useful diagnostics in the body.
func classifyStatus(status int, body []byte) error {
	text := string(bytes.TrimSpace(body))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return retry.Unrecoverable(fmt.Errorf("%w (HTTP %d): %s", ErrAuthentication, status, text))
	case status == http.StatusNotFound:
		return retry.Unrecoverable(fmt.Errorf("%w (HTTP %d): %s", ErrTableNotFound, status, text))
	case status < 500:
		return retry.Unrecoverable(fmt.Errorf("%w (HTTP %d): %s", ErrBadQuery, status, text))
	default:
		return fmt.Errorf("quickbase server error (HTTP %d): %s", status, text)
	}
}
