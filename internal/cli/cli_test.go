package cli

import (
	"bytes"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/keymanager"
)

// recorded DELETE_CARD notification signed by the built-in HMS callback key
const (
	testCallbackSignature = "g6Ylid2v13ibrGCDITYkms7rOxM9Qmpn2nTQy+MDneCvs8n2AznhdH1BOdZxAFEeNvIqaBejupJJNnHweDixxwQub34pt7Kv0wuW3LI0gtut5jsjEJuF9kfPj/f6W6ZfUgZB8R9j6jGMzqWoa7IRkXpIxpdJgral8aE+QwMG51hrzH8j/7EbPxpQgFyxuxiZimaeKDbgJ2yWIDtnaEVs+6NxLMhz+Vgo0vxEiyo+TEdcpkl0ahMA8XCXGs6lqlbl+G8imlU4+pMvM+IL9ygCbDWgwj6pmfrkDnD/tYVqElE9SIZ79+ShWLNwUgtWFfzo1ckMRWGSdMfwVd+f6boVIQ=="
	testCallbackBody      = `{"eventId":"469283774166292993","eventTime":"2020-10-09T03:41:55.694Z","passNumber":"passNumber1234","passTypeIdentifier":"hwpass.com.xxx","eventType":"DELETE_CARD","sceneType":"THIRD_PARTY_DELETE_CARD","noticeToken":"1e4dda10e4590dcd66d1c14bfe1505424091f693996d2db885e54ad040723d7c","pushToken":"asdfghjkl"}`
)

func TestVerifyNotification(t *testing.T) {
	keyPem := keymanager.BuiltInCallbackKeyPEM()

	t.Run("valid", func(t *testing.T) {
		var out bytes.Buffer
		if err := verifyNotification(&out, []byte(testCallbackBody), testCallbackSignature, keyPem); err != nil {
			t.Fatalf("expected valid signature, got %v", err)
		}
		if !strings.Contains(out.String(), "signature: valid") || !strings.Contains(out.String(), "DELETE_CARD") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("tampered", func(t *testing.T) {
		var out bytes.Buffer
		body := strings.Replace(testCallbackBody, "passNumber1234", "passNumber1235", 1)
		err := verifyNotification(&out, []byte(body), testCallbackSignature, keyPem)
		if !crypto.HasCode(err, crypto.ErrCodeVerificationFailed) {
			t.Fatalf("expected verification failure, got %v", err)
		}
		if !strings.Contains(out.String(), "signature: invalid") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})
}

func TestEnvelopeArg(t *testing.T) {
	t.Cleanup(func() { envelopeFile = "" })

	envelope := "aGVhZGVy.a2V5.aXY.Y2lwaGVy.c2ln"
	saveURL := "https://walletpass-dre.cloud.huawei.com/walletkit/consumer/pass/save?content=" + url.QueryEscape(envelope)

	file := filepath.Join(t.TempDir(), "envelope.txt")
	if err := os.WriteFile(file, []byte(envelope+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		file    string
		want    string
		wantErr bool
	}{
		{"argument", []string{envelope}, "", envelope, false},
		{"save url", []string{saveURL}, "", envelope, false},
		{"file", nil, file, envelope, false},
		{"both", []string{envelope}, file, "", true},
		{"neither", nil, "", "", true},
		{"save url without content", []string{"https://example.com/save"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelopeFile = tt.file
			got, err := envelopeArg(strings.NewReader(""), tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvelopeBuildCommand(t *testing.T) {
	keysDir := t.TempDir()

	signer, err := crypto.GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatal(err)
	}
	recipient, err := crypto.GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatal(err)
	}
	if err := crypto.SaveRSAPrivateKeyToPEMFile(signer, keysDir, "signer.pem"); err != nil {
		t.Fatal(err)
	}
	if err := crypto.SaveRSAPublicKeyToPEMFile(&recipient.PublicKey, keysDir, "recipient.pem"); err != nil {
		t.Fatal(err)
	}

	instanceFile := filepath.Join(t.TempDir(), "instance.json")
	if err := os.WriteFile(instanceFile, []byte(`{"serialNumber":"0001","passTypeIdentifier":"hwpass.com.demo.loyalty"}`), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("APP_ID", "5800000000000000")
	t.Setenv("WALLET_REGION", "dra")
	t.Setenv("KEYS_DIR", keysDir)
	t.Setenv("SIGNING_KEY_FILE", "signer.pem")
	t.Setenv("RECIPIENT_KEY_FILE", "recipient.pem")
	t.Setenv("CALLBACK_KEY_FILE", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"envelope", "build", "--payload", instanceFile})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		payloadFile = ""
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("envelope build failed: %v", err)
	}

	var envelope, saveURL string
	for _, line := range strings.Split(out.String(), "\n") {
		if v, ok := strings.CutPrefix(line, "envelope: "); ok {
			envelope = v
		}
		if v, ok := strings.CutPrefix(line, "save url: "); ok {
			saveURL = v
		}
	}
	if !strings.HasPrefix(saveURL, "https://walletpass-dra.cloud.huawei.com/") {
		t.Errorf("unexpected save url %q", saveURL)
	}

	var inspected bytes.Buffer
	if err := inspectEnvelope(&inspected, envelope); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(inspected.String(), "RSA-2048") {
		t.Errorf("unexpected inspect output:\n%s", inspected.String())
	}

	opened, err := crypto.OpenEnvelopeWithKeys(envelope, recipient, &signer.PublicKey)
	if err != nil {
		t.Fatalf("failed to open envelope: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(opened.Payload), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["iss"] != "5800000000000000" || payload["serialNumber"] != "0001" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	if err := writeJSON(&out, []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if out.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := writeJSON(&out, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if out.String() != "not json\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}
