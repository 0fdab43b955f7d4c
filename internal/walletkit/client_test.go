package walletkit

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
)

type requestLog struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (l *requestLog) add(r recordedRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, r)
}

func (l *requestLog) all() []recordedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedRequest(nil), l.requests...)
}

type recordedRequest struct {
	method        string
	path          string
	authorization string
	contentType   string
	body          string
}

// newTestWalletServer starts a token endpoint and a wallet object API.
// Every API request is recorded; "missing" ids return 404.
func newTestWalletServer(t *testing.T) (*httptest.Server, *requestLog, *atomic.Int32) {
	t.Helper()

	var (
		requests    = &requestLog{}
		tokenCalls  atomic.Int32
		apiResponse = `{"id":"P1","status":"ok"}`
	)

	r := chi.NewRouter()
	r.Post("/oauth2/v3/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "client_credentials" ||
			r.PostForm.Get("client_id") != "101234567" ||
			r.PostForm.Get("client_secret") != "secret" {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","expires_in":3600,"token_type":"Bearer"}`))
	})

	api := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests.add(recordedRequest{
			method:        r.Method,
			path:          r.URL.Path,
			authorization: r.Header.Get("Authorization"),
			contentType:   r.Header.Get("Content-Type"),
			body:          string(body),
		})
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errorCode":"404","errorMessage":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(apiResponse))
	}
	r.Route("/hmspass/v1/{passType}/{kind}", func(r chi.Router) {
		r.Post("/", api)
		r.Get("/{id}", api)
		r.Put("/{id}", api)
		r.Patch("/{id}", api)
		r.Post("/{id}/addMessage", api)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, requests, &tokenCalls
}

func newTestClient(t *testing.T, srv *httptest.Server, secret string) *Client {
	t.Helper()
	c, err := NewClient(t.Context(), ClientConfig{
		AppID:     "101234567",
		AppSecret: secret,
		TokenURL:  srv.URL + "/oauth2/v3/token",
		BaseURL:   srv.URL + "/hmspass/v1/",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestClient_Requests(t *testing.T) {
	srv, requests, tokenCalls := newTestWalletServer(t)
	c := newTestClient(t, srv, "secret")
	ctx := t.Context()
	body := []byte(`{"passStyleIdentifier":"EventTicketModel1"}`)

	tests := []struct {
		name       string
		call       func() (json.RawMessage, error)
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{"create model", func() (json.RawMessage, error) {
			return c.Create(ctx, PassTypeEventTicket, KindModel, body)
		}, http.MethodPost, "/hmspass/v1/eventticket/model", string(body)},
		{"get instance", func() (json.RawMessage, error) {
			return c.Get(ctx, PassTypeFlight, KindInstance, "P1")
		}, http.MethodGet, "/hmspass/v1/flight/instance/P1", ""},
		{"full update", func() (json.RawMessage, error) {
			return c.FullUpdate(ctx, PassTypeGiftCard, KindInstance, "P1", body)
		}, http.MethodPut, "/hmspass/v1/giftcard/instance/P1", string(body)},
		{"partial update", func() (json.RawMessage, error) {
			return c.PartialUpdate(ctx, PassTypeLoyalty, KindModel, "M1", body)
		}, http.MethodPatch, "/hmspass/v1/loyalty/model/M1", string(body)},
		{"add message", func() (json.RawMessage, error) {
			return c.AddMessage(ctx, PassTypeTransit, KindInstance, "P1", body)
		}, http.MethodPost, "/hmspass/v1/transit/instance/P1/addMessage", string(body)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(requests.all())

			got, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != `{"id":"P1","status":"ok"}` {
				t.Errorf("response = %s", got)
			}

			all := requests.all()
			if len(all) != before+1 {
				t.Fatalf("expected one request to the wallet server, got %d", len(all)-before)
			}
			req := all[len(all)-1]
			if req.method != tt.wantMethod {
				t.Errorf("method = %s, want %s", req.method, tt.wantMethod)
			}
			if req.path != tt.wantPath {
				t.Errorf("path = %s, want %s", req.path, tt.wantPath)
			}
			if req.body != tt.wantBody {
				t.Errorf("body = %q, want %q", req.body, tt.wantBody)
			}
			if req.authorization != "Bearer test-token" {
				t.Errorf("Authorization = %q", req.authorization)
			}
			if req.contentType != "application/json; charset=UTF-8" {
				t.Errorf("Content-Type = %q", req.contentType)
			}
		})
	}

	if tokenCalls.Load() != 1 {
		t.Errorf("token endpoint called %d times, want 1 (token should be cached)", tokenCalls.Load())
	}
}

func TestClient_Errors(t *testing.T) {
	srv, requests, _ := newTestWalletServer(t)
	c := newTestClient(t, srv, "secret")
	ctx := t.Context()

	t.Run("non-2xx status", func(t *testing.T) {
		_, err := c.Get(ctx, PassTypeOffer, KindInstance, "missing")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
		}
		if apiErr.Body != `{"errorCode":"404","errorMessage":"not found"}` {
			t.Errorf("Body = %q", apiErr.Body)
		}
	})

	before := len(requests.all())
	invalid := []struct {
		name string
		call func() error
	}{
		{"unknown pass type", func() error {
			_, err := c.Get(ctx, "coupon", KindInstance, "P1")
			return err
		}},
		{"unknown kind", func() error {
			_, err := c.Get(ctx, PassTypeOffer, "template", "P1")
			return err
		}},
		{"empty id", func() error {
			_, err := c.FullUpdate(ctx, PassTypeOffer, KindInstance, "", []byte(`{}`))
			return err
		}},
		{"invalid json body", func() error {
			_, err := c.Create(ctx, PassTypeOffer, KindInstance, []byte(`{`))
			return err
		}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err == nil {
				t.Error("expected error")
			}
		})
	}
	if len(requests.all()) != before {
		t.Errorf("invalid calls reached the wallet server")
	}

	t.Run("token rejected", func(t *testing.T) {
		bad := newTestClient(t, srv, "wrong")
		if _, err := bad.Get(ctx, PassTypeOffer, KindInstance, "P1"); err == nil {
			t.Error("expected error when the token request fails")
		}
	})
}

func TestNewClient_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := ClientConfig{
		AppID:     "1",
		AppSecret: "s",
		TokenURL:  "https://oauth-login.cloud.huawei.com/oauth2/v3/token",
		BaseURL:   "https://wallet.example.com/hmspass/v1/",
	}

	tests := []struct {
		name   string
		modify func(cfg *ClientConfig)
	}{
		{"missing app id", func(cfg *ClientConfig) { cfg.AppID = "" }},
		{"missing secret", func(cfg *ClientConfig) { cfg.AppSecret = "" }},
		{"bad base url", func(cfg *ClientConfig) { cfg.BaseURL = "wallet" }},
		{"bad token url", func(cfg *ClientConfig) { cfg.TokenURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			if _, err := NewClient(t.Context(), cfg, logger); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewClient(t.Context(), valid, logger); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
