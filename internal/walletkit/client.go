// Package walletkit talks to the HMS wallet server.
//
// It has two halves:
//   - payload helpers (payload.go) that prepare the JSON carried inside an envelope and build the save link
//   - a REST client for the wallet object API (models and instances of each pass type)
//
// The REST client authenticates with an OAuth2 client-credentials token obtained from TOKEN_URL.
// The token is cached and renewed by the oauth2 token source.
package walletkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// PassType is the wallet object category in the REST path
type PassType string

const (
	PassTypeEventTicket PassType = "eventticket"
	PassTypeFlight      PassType = "flight"
	PassTypeGiftCard    PassType = "giftcard"
	PassTypeLoyalty     PassType = "loyalty"
	PassTypeOffer       PassType = "offer"
	PassTypeTransit     PassType = "transit"
)

// ParsePassType returns the PassType for s
func ParsePassType(s string) (PassType, error) {
	switch p := PassType(s); p {
	case PassTypeEventTicket, PassTypeFlight, PassTypeGiftCard, PassTypeLoyalty, PassTypeOffer, PassTypeTransit:
		return p, nil
	default:
		return "", fmt.Errorf("unknown pass type %q", s)
	}
}

// Kind distinguishes pass models (templates) from pass instances (a user's pass)
type Kind string

const (
	KindModel    Kind = "model"
	KindInstance Kind = "instance"
)

// ParseKind returns the Kind for s
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindModel, KindInstance:
		return k, nil
	default:
		return "", fmt.Errorf("unknown object kind %q (must be model or instance)", s)
	}
}

// maxResponseSize caps the wallet server response bodies read by the client
const maxResponseSize = 10 * 1024 * 1024

// APIError is returned when the wallet server answers with a non-2xx status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wallet server returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// ClientConfig holds the settings for the wallet server REST client
type ClientConfig struct {
	AppID     string
	AppSecret string
	TokenURL  string

	// BaseURL is the wallet server API root, e.g. https://passentrust-dre.wallet.hicloud.com/hmspass/v1/
	BaseURL string

	// Timeout applies to every request, including token requests
	Timeout time.Duration
}

// Client calls the wallet server REST API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a Client that fetches access tokens with the client-credentials grant.
// ctx is used for token requests for the lifetime of the client.
func NewClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("app id and app secret are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	base, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet server base URL: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.TokenURL); err != nil {
		return nil, fmt.Errorf("invalid token URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	credentials := &clientcredentials.Config{
		ClientID:     cfg.AppID,
		ClientSecret: cfg.AppSecret,
		TokenURL:     cfg.TokenURL,
		// the token endpoint expects the credentials in the form body
		AuthStyle: oauth2.AuthStyleInParams,
	}

	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := credentials.Client(tokenCtx)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Create adds a new model or instance. body is the wallet object JSON.
func (c *Client) Create(ctx context.Context, passType PassType, kind Kind, body []byte) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, body, string(passType), string(kind))
}

// Get returns the model or instance with the given id
func (c *Client) Get(ctx context.Context, passType PassType, kind Kind, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	return c.do(ctx, http.MethodGet, nil, string(passType), string(kind), id)
}

// FullUpdate replaces the model or instance with body
func (c *Client) FullUpdate(ctx context.Context, passType PassType, kind Kind, id string, body []byte) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	return c.do(ctx, http.MethodPut, body, string(passType), string(kind), id)
}

// PartialUpdate merges body into the model or instance
func (c *Client) PartialUpdate(ctx context.Context, passType PassType, kind Kind, id string, body []byte) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	return c.do(ctx, http.MethodPatch, body, string(passType), string(kind), id)
}

// AddMessage posts a message (e.g. a gate change) to the model or instance
func (c *Client) AddMessage(ctx context.Context, passType PassType, kind Kind, id string, body []byte) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	return c.do(ctx, http.MethodPost, body, string(passType), string(kind), id, "addMessage")
}

func (c *Client) do(ctx context.Context, method string, body []byte, segments ...string) (json.RawMessage, error) {
	if _, err := ParsePassType(segments[0]); err != nil {
		return nil, err
	}
	if _, err := ParseKind(segments[1]); err != nil {
		return nil, err
	}
	if body != nil && !json.Valid(body) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}

	requestURL := c.baseURL.JoinPath(segments...)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json; charset=UTF-8")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, requestURL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("wallet server request",
		slog.String("method", method),
		slog.String("path", requestURL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return json.RawMessage(respBody), nil
}
