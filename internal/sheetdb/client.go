// Package sheetdb wraps the sheet-backed REST API used as the system of
// record. It is the only package allowed to perform network I/O against the
// store. The store is eventually consistent: a write is not guaranteed to be
// visible to an immediately following read, and there are no transactions, so
// every multi-step caller sequence must be independently resumable.
package sheetdb

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

	"github.com/sethvargo/go-retry"

	"gosembako/config"
	"gosembako/internal/logging"
)

var (
	// ErrStoreUnavailable is surfaced after the retry budget for 5xx/timeout
	// failures is exhausted.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrBadRequest covers 4xx responses; these are never retried.
	ErrBadRequest = errors.New("store rejected request")
)

type Client struct {
	baseURL     string
	http        *http.Client
	retryBase   time.Duration
	maxAttempts int
	log         logging.Logger
}

func New(cfg *config.StoreConfig, log logging.Logger) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		http:        &http.Client{Timeout: cfg.Timeout},
		retryBase:   cfg.RetryBase,
		maxAttempts: cfg.MaxAttempts,
		log:         log,
	}
}

// Read performs a single-field filtered read: GET {base}?sheet=X&field=value.
func (c *Client) Read(ctx context.Context, sheet string, filters url.Values) ([]Row, error) {
	return c.get(ctx, c.baseURL, sheet, filters)
}

// Search performs a multi-field filtered read against the /search endpoint.
func (c *Client) Search(ctx context.Context, sheet string, filters url.Values) ([]Row, error) {
	return c.get(ctx, c.baseURL+"/search", sheet, filters)
}

// Insert appends rows: POST {base}?sheet=X with {"data": row | [rows]}.
func (c *Client) Insert(ctx context.Context, sheet string, rows ...Row) error {
	var data any = rows
	if len(rows) == 1 {
		data = rows[0]
	}
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s?sheet=%s", c.baseURL, url.QueryEscape(sheet))
	_, err = c.do(ctx, http.MethodPost, u, body)
	return err
}

// Update patches all rows whose matchField equals matchValue:
// PATCH {base}/{field}/{value}?sheet=X. The endpoint is known to mishandle
// some keys; callers that need certainty keep a delete-then-insert fallback.
func (c *Client) Update(ctx context.Context, sheet, matchField, matchValue string, patch Row) error {
	body, err := json.Marshal(map[string]any{"data": patch})
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/%s/%s?sheet=%s",
		c.baseURL, url.PathEscape(matchField), url.PathEscape(matchValue), url.QueryEscape(sheet))
	_, err = c.do(ctx, http.MethodPatch, u, body)
	return err
}

// Delete removes all rows whose matchField equals matchValue.
func (c *Client) Delete(ctx context.Context, sheet, matchField, matchValue string) error {
	u := fmt.Sprintf("%s/%s/%s?sheet=%s",
		c.baseURL, url.PathEscape(matchField), url.PathEscape(matchValue), url.QueryEscape(sheet))
	_, err := c.do(ctx, http.MethodDelete, u, nil)
	return err
}

func (c *Client) get(ctx context.Context, endpoint, sheet string, filters url.Values) ([]Row, error) {
	q := url.Values{}
	q.Set("sheet", sheet)
	for k, vs := range filters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	body, err := c.do(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", sheet, err)
	}
	return rows, nil
}

// do issues the request with exponential backoff (base retryBase, factor 2,
// maxAttempts total tries) on 5xx and transport failures. 4xx fails fast.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) ([]byte, error) {
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.retryBase))

	var out []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn(ctx, "store request failed, will retry", "method", method, "err", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		switch {
		case resp.StatusCode >= 500:
			c.log.Warn(ctx, "store 5xx, will retry", "method", method, "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("HTTP %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			return fmt.Errorf("%w: %s %s: HTTP %d", ErrBadRequest, method, rawURL, resp.StatusCode)
		}
		out = data
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBadRequest) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, method, err)
	}
	return out, nil
}
