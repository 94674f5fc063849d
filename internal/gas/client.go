// Package gas talks to the Apps-Script-style RPC endpoint that serves as the
// alternate backend for referral stats and points history. The transport is a
// single POST with an "action" discriminator; retry and timeout semantics
// match the sheet store client.
package gas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"gosembako/config"
	"gosembako/internal/logging"
)

var ErrNotConfigured = errors.New("gas: endpoint not configured")

type Client struct {
	url       string
	http      *http.Client
	retryBase time.Duration
	log       logging.Logger
}

func New(cfg *config.GASConfig, log logging.Logger) *Client {
	return &Client{
		url:       cfg.URL,
		http:      &http.Client{Timeout: cfg.Timeout},
		retryBase: time.Second,
		log:       log,
	}
}

// Enabled reports whether an endpoint URL is configured.
func (c *Client) Enabled() bool { return c.url != "" }

// Response is the common envelope of every action.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"-"`
}

// Call posts {action, ...params} and decodes the envelope. Transport and 5xx
// failures retry with the same backoff policy as the store client.
func (c *Client) Call(ctx context.Context, action string, params map[string]any) (*Response, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	payload := map[string]any{"action": action}
	for k, v := range params {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(c.retryBase))
	var raw []byte
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn(ctx, "gas request failed, will retry", "action", action, "err", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("HTTP %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("gas %s: HTTP %d", action, resp.StatusCode)
		}
		raw = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("gas %s: invalid JSON response: %w", action, err)
	}
	out.Raw = raw
	return &out, nil
}

// Stats is the normalized getReferralStats result.
type Stats struct {
	TotalReferred  int64           `json:"total_referred"`
	TotalCompleted int64           `json:"total_completed"`
	TotalPending   int64           `json:"total_pending"`
	TotalPoints    int64           `json:"total_points"`
	Referrals      []PointsHistory `json:"referrals"`
}

type PointsHistory struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Points      int64  `json:"points"`
}

func (c *Client) ReferralStats(ctx context.Context, referralCode string) (*Stats, error) {
	resp, err := c.Call(ctx, "getReferralStats", map[string]any{"referralCode": referralCode})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("gas getReferralStats: %s", resp.Message)
	}
	var stats Stats
	if err := json.Unmarshal(resp.Raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) UserPointsHistory(ctx context.Context, referralCode string) ([]PointsHistory, error) {
	resp, err := c.Call(ctx, "getUserPointsHistory", map[string]any{"referralCode": referralCode})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("gas getUserPointsHistory: %s", resp.Message)
	}
	var wrapped struct {
		History []PointsHistory `json:"history"`
	}
	if err := json.Unmarshal(resp.Raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.History, nil
}
