package crypto

import (
	"encoding/base64"
	"testing"
)

// wallet server callback key and a notification it signed
const (
	testCallbackPublicKeyPem = `-----BEGIN PUBLIC KEY-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA1+b2/q6KEJfvI65xJLXh
PMT8YRUO618zsgaW4pNGZ+r/mwfFC1EOZbcBp7sV0IaxSWeMy0WNyJPSh/JltuiC
1R93hfA0Kh3DlaRWaDgJz9VC1b+aPjUOx+uqndOEFiZcKGGnM60YPXfyo7xCDH76
/WsWR0G4Ov6MoYQ76RAUT0t+G0oumYGgdLYwx5hJ1ywDKPXszj7A/mKHtWJKiylP
IhUK2mLwKR8Y/+3dLNuNomvb7miVgeBFiriwGS1FolQMu433zEugAqRgsiasZAKf
VK1BChPmiC812IMS1UPhz1wwpXzzkjQ1YQUGjnbHpooKobeCyctKKgF27F84egpz
sQIDAQAB
-----END PUBLIC KEY-----`

	testCallbackSignature = "g6Ylid2v13ibrGCDITYkms7rOxM9Qmpn2nTQy+MDneCvs8n2AznhdH1BOdZxAFEeNvIqaBejupJJNnHweDixxwQub34pt7Kv0wuW3LI0gtut5jsjEJuF9kfPj/f6W6ZfUgZB8R9j6jGMzqWoa7IRkXpIxpdJgral8aE+QwMG51hrzH8j/7EbPxpQgFyxuxiZimaeKDbgJ2yWIDtnaEVs+6NxLMhz+Vgo0vxEiyo+TEdcpkl0ahMA8XCXGs6lqlbl+G8imlU4+pMvM+IL9ygCbDWgwj6pmfrkDnD/tYVqElE9SIZ79+ShWLNwUgtWFfzo1ckMRWGSdMfwVd+f6boVIQ=="
)

func testCallbackFields() map[string]string {
	return map[string]string{
		"eventId":            "469283774166292993",
		"eventTime":          "2020-10-09T03:41:55.694Z",
		"passNumber":         "passNumber1234",
		"passTypeIdentifier": "hwpass.com.xxx",
		"eventType":          "DELETE_CARD",
		"sceneType":          "THIRD_PARTY_DELETE_CARD",
		"noticeToken":        "1e4dda10e4590dcd66d1c14bfe1505424091f693996d2db885e54ad040723d7c",
		"pushToken":          "asdfghjkl",
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"sorted", map[string]string{"b": "2", "a": "1"}, "a=1&b=2"},
		{"empty map", map[string]string{}, ""},
		{"nil map", nil, ""},
		{"single", map[string]string{"k": "v"}, "k=v"},
		{"empty value dropped", map[string]string{"a": "1", "b": "", "c": "3"}, "a=1&c=3"},
		{"byte order", map[string]string{"a": "1", "B": "2", "_": "3"}, "B=2&_=3&a=1"},
		{"values not escaped", map[string]string{"a": "x&y=z"}, "a=x&y=z"},
		{
			"callback notification",
			testCallbackFields(),
			"eventId=469283774166292993&eventTime=2020-10-09T03:41:55.694Z&eventType=DELETE_CARD" +
				"&noticeToken=1e4dda10e4590dcd66d1c14bfe1505424091f693996d2db885e54ad040723d7c" +
				"&passNumber=passNumber1234&passTypeIdentifier=hwpass.com.xxx&pushToken=asdfghjkl" +
				"&sceneType=THIRD_PARTY_DELETE_CARD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.fields); got != tt.want {
				t.Errorf("Canonicalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVerifyCallback(t *testing.T) {
	if !VerifyCallback(testCallbackFields(), testCallbackPublicKeyPem, testCallbackSignature) {
		t.Fatal("known callback signature did not verify")
	}

	// an extra empty field does not change the signed string
	withEmpty := testCallbackFields()
	withEmpty["orderId"] = ""
	if !VerifyCallback(withEmpty, testCallbackPublicKeyPem, testCallbackSignature) {
		t.Error("empty field changed the verification result")
	}

	sig, err := base64.StdEncoding.DecodeString(testCallbackSignature)
	if err != nil {
		t.Fatal(err)
	}
	sig[10] ^= 0x01
	mutatedSig := base64.StdEncoding.EncodeToString(sig)

	changed := testCallbackFields()
	changed["passNumber"] = "passNumber1235"

	missing := testCallbackFields()
	delete(missing, "pushToken")

	signer, _ := testKeys(t)

	tests := []struct {
		name   string
		fields map[string]string
		keyPem string
		sig    string
	}{
		{"value changed", changed, testCallbackPublicKeyPem, testCallbackSignature},
		{"field removed", missing, testCallbackPublicKeyPem, testCallbackSignature},
		{"signature changed", testCallbackFields(), testCallbackPublicKeyPem, mutatedSig},
		{"other key", testCallbackFields(), signer.publicPEM, testCallbackSignature},
		{"key not PEM", testCallbackFields(), "MIIBIjANBgkq", testCallbackSignature},
		{"signature not base64", testCallbackFields(), testCallbackPublicKeyPem, "@@@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyCallback(tt.fields, tt.keyPem, tt.sig) {
				t.Error("VerifyCallback() = true, want false")
			}
		})
	}
}

func TestVerifyCallbackWithPublicKey(t *testing.T) {
	pub, err := ParseRSAPublicKeyPEM(testCallbackPublicKeyPem)
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	if err := VerifyCallbackWithPublicKey(testCallbackFields(), pub, testCallbackSignature); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	changed := testCallbackFields()
	changed["eventType"] = "ADD_CARD"
	if err := VerifyCallbackWithPublicKey(changed, pub, testCallbackSignature); !HasCode(err, ErrCodeVerificationFailed) {
		t.Errorf("expected verification failure, got %v", err)
	}
}
