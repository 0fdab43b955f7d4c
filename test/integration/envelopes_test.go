//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/walletkit-demo/walletpass/internal/api"
	"github.com/walletkit-demo/walletpass/internal/crypto"
)

func TestIssueEnvelope(t *testing.T) {
	testEnv := startInProcessServer(t, serverOptions{})
	defer testEnv.shutdown()

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantErrCode  api.ErrorCode
		wantPayloadK string
	}{
		{
			name:         "bind existing instances",
			body:         `{"instanceIds":["20250101-0001","20250101-0002"]}`,
			wantStatus:   http.StatusCreated,
			wantPayloadK: "instanceIds",
		},
		{
			name:         "full pass instance",
			body:         `{"instance":{"passTypeIdentifier":"hwpass.com.demo.loyalty","serialNumber":"0001","fields":{"status":{"state":"active"}}}}`,
			wantStatus:   http.StatusCreated,
			wantPayloadK: "serialNumber",
		},
		{
			name:        "no pass",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: api.ErrCodeMalformedRequest,
		},
		{
			name:        "malformed json",
			body:        `{"instance":`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: api.ErrCodeMalformedRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(testEnv.baseURL+"/v1/envelopes", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			if tt.wantStatus != http.StatusCreated {
				var errResp api.ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if errResp.Errors[0].ErrorCode != tt.wantErrCode {
					t.Errorf("expected error code %d, got %d", tt.wantErrCode, errResp.Errors[0].ErrorCode)
				}
				return
			}

			var issued api.IssueEnvelopeResponse
			if err := json.NewDecoder(resp.Body).Decode(&issued); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			// the save link carries the same envelope
			saveURL, err := url.Parse(issued.SaveURL)
			if err != nil {
				t.Fatalf("invalid save url: %v", err)
			}
			if saveURL.Host != "walletpass-dre.cloud.huawei.com" {
				t.Errorf("unexpected save url host %s", saveURL.Host)
			}
			if got := saveURL.Query().Get("content"); got != issued.Envelope {
				t.Error("save url content does not match the envelope")
			}

			if !strings.HasPrefix(issued.Envelope, "YWxnPVJTQS1PQUVQLCBlbmM9QTEyOEdDTSwga2lkPTEsIHppcD1nemlw.") {
				t.Errorf("unexpected envelope header: %s", issued.Envelope)
			}

			opened, err := crypto.OpenEnvelopeWithKeys(issued.Envelope, testEnv.recipientKey, &testEnv.signer.PublicKey)
			if err != nil {
				t.Fatalf("failed to open envelope: %v", err)
			}

			var payload map[string]any
			if err := json.Unmarshal([]byte(opened.Payload), &payload); err != nil {
				t.Fatalf("payload is not JSON: %v", err)
			}
			if payload["iss"] != testAppID {
				t.Errorf("expected iss %s, got %v", testAppID, payload["iss"])
			}
			if _, ok := payload[tt.wantPayloadK]; !ok {
				t.Errorf("payload is missing %s: %s", tt.wantPayloadK, opened.Payload)
			}
		})
	}
}
