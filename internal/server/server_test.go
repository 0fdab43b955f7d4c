package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/walletkit-demo/walletpass/internal/api"
	"github.com/walletkit-demo/walletpass/internal/config"
	"github.com/walletkit-demo/walletpass/internal/crypto"
)

// recorded DELETE_CARD notification signed by the HMS callback key built into the key manager
const testCallbackSignature = "g6Ylid2v13ibrGCDITYkms7rOxM9Qmpn2nTQy+MDneCvs8n2AznhdH1BOdZxAFEeNvIqaBejupJJNnHweDixxwQub34pt7Kv0wuW3LI0gtut5jsjEJuF9kfPj/f6W6ZfUgZB8R9j6jGMzqWoa7IRkXpIxpdJgral8aE+QwMG51hrzH8j/7EbPxpQgFyxuxiZimaeKDbgJ2yWIDtnaEVs+6NxLMhz+Vgo0vxEiyo+TEdcpkl0ahMA8XCXGs6lqlbl+G8imlU4+pMvM+IL9ygCbDWgwj6pmfrkDnD/tYVqElE9SIZ79+ShWLNwUgtWFfzo1ckMRWGSdMfwVd+f6boVIQ=="

const testCallbackBody = `{
	"eventId": "469283774166292993",
	"eventTime": "2020-10-09T03:41:55.694Z",
	"passNumber": "passNumber1234",
	"passTypeIdentifier": "hwpass.com.xxx",
	"eventType": "DELETE_CARD",
	"sceneType": "THIRD_PARTY_DELETE_CARD",
	"noticeToken": "1e4dda10e4590dcd66d1c14bfe1505424091f693996d2db885e54ad040723d7c",
	"pushToken": "asdfghjkl"
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	keysDir := t.TempDir()
	signer, err := crypto.GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("failed to generate signing key: %v", err)
	}
	if err := crypto.SaveRSAPrivateKeyToPEMFile(signer, keysDir, "signing.pem"); err != nil {
		t.Fatalf("failed to save signing key: %v", err)
	}

	cfg := &config.ServerEnvironment{
		Environment:    "test",
		MaxRequestSize: 64 * 1024,
		RateLimitRPS:   0,
		AppID:          "5800000000000000",
		WalletRegion:   "dre",
		KeysDir:        keysDir,
		SigningKeyFile: "signing.pem",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(nil, nil, cfg, logger, context.Background())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestServerRoutes(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		header     map[string]string
		wantStatus int
	}{
		{"liveness", http.MethodGet, "/health/live", "", nil, http.StatusOK},
		{"readiness without database", http.MethodGet, "/health/ready", "", nil, http.StatusOK},
		{"version", http.MethodGet, "/version", "", nil, http.StatusOK},
		{"jwks", http.MethodGet, "/.well-known/jwks.json", "", nil, http.StatusOK},
		{"issue envelope", http.MethodPost, "/v1/envelopes", `{"instanceIds":["20250101-0001"]}`, nil, http.StatusCreated},
		{"callback accepted", http.MethodPost, "/v1/callbacks", testCallbackBody, map[string]string{"HMSSign": testCallbackSignature}, http.StatusOK},
		{"callback unsigned", http.MethodPost, "/v1/callbacks", testCallbackBody, nil, http.StatusBadRequest},
		{"recorded event", http.MethodGet, "/v1/callbacks/469283774166292993", "", nil, http.StatusOK},
		{"unknown route", http.MethodGet, "/v3/envelopes", "", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("got status %d, want %d: %s", resp.StatusCode, tt.wantStatus, body)
			}
			if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers not applied")
			}
		})
	}
}

func TestServerRejectsOversizedRequests(t *testing.T) {
	ts := newTestServer(t)

	body := `{"instance":{"data":"` + strings.Repeat("x", 70*1024) + `"}}`
	resp, err := http.Post(ts.URL+"/v1/envelopes", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413", resp.StatusCode)
	}

	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Errors[0].ErrorCode != api.ErrCodeRequestTooLarge {
		t.Errorf("got error code %d", errResp.Errors[0].ErrorCode)
	}
	if errResp.ProviderCorrelationReference == "" {
		t.Error("request id missing from error response")
	}
}
