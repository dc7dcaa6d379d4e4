package referee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/omarshaarawi/tradereferee/internal/config"
	"golang.org/x/time/rate"
)

const apiPrefix = "/api"

type Client struct {
	httpClient *http.Client
	baseURL    string
	assetsURL  string
	token      string
	limiter    *rate.Limiter
}

func NewClient(cfg config.RefereeAPI) *Client {
	assets := cfg.AssetsURL
	if assets == "" {
		assets = cfg.BaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		assetsURL:  strings.TrimRight(assets, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), max(int(rps), 1)),
	}
}

// WithToken returns a client that sends token on authenticated endpoints.
// The copy shares the transport and rate limiter with c.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type request struct {
	method string
	url    string
	params url.Values
	body   any
	auth   bool
}

func (c *Client) apiURL(endpoint string) string {
	return c.baseURL + apiPrefix + endpoint
}

func (c *Client) do(ctx context.Context, r request, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: r.method + " " + r.url, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("error marshalling request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if len(r.params) > 0 {
		req.URL.RawQuery = r.params.Encode()
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("API request failed", "url", r.url, "request_id", requestID, "error", err)
		return &TransportError{Op: r.method + " " + r.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := errorMessage(resp.StatusCode, raw)
		slog.Warn("API request rejected", "url", r.url, "request_id", requestID, "status", resp.StatusCode, "error", msg)
		return &ServiceError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}

	return nil
}
