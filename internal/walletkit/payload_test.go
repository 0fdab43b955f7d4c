package walletkit

import (
	"net/url"
	"strings"
	"testing"
)

func TestStampIssuer(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{
			name:    "adds iss and sorts members",
			payload: `{"serialNumber":"P1","passTypeIdentifier":"hwpass.com.example.ticket"}`,
			want:    `{"iss":"101234567","passTypeIdentifier":"hwpass.com.example.ticket","serialNumber":"P1"}`,
		},
		{
			name:    "overwrites existing iss",
			payload: `{"iss":"someone-else","a":1}`,
			want:    `{"a":1,"iss":"101234567"}`,
		},
		{
			name:    "whitespace removed",
			payload: "{\n  \"b\": [1, 2],\n  \"a\": {\"y\": true, \"x\": null}\n}",
			want:    `{"a":{"x":null,"y":true},"b":[1,2],"iss":"101234567"}`,
		},
		{name: "array", payload: `["a"]`, wantErr: true},
		{name: "null", payload: `null`, wantErr: true},
		{name: "not json", payload: `iss=1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StampIssuer([]byte(tt.payload), "101234567")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("StampIssuer() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("StampIssuer() = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("missing app id", func(t *testing.T) {
		if _, err := StampIssuer([]byte(`{}`), ""); err == nil {
			t.Error("expected error")
		}
	})
}

func TestBindInstancesPayload(t *testing.T) {
	got, err := BindInstancesPayload("101234567", []string{"EventTicketPass10001", "EventTicketPass10002"})
	if err != nil {
		t.Fatalf("BindInstancesPayload() error: %v", err)
	}
	want := `{"instanceIds":["EventTicketPass10001","EventTicketPass10002"],"iss":"101234567"}`
	if string(got) != want {
		t.Errorf("BindInstancesPayload() = %s, want %s", got, want)
	}

	if _, err := BindInstancesPayload("101234567", nil); err == nil {
		t.Error("expected error for no instance ids")
	}
	if _, err := BindInstancesPayload("101234567", []string{"a", ""}); err == nil {
		t.Error("expected error for an empty instance id")
	}
}

func TestSaveURL(t *testing.T) {
	envelope := "aGVhZGVy.a2V5.aXY=.Y2lwaGVy.c2ln+/=="

	got, err := SaveURL(RegionEurope, envelope)
	if err != nil {
		t.Fatalf("SaveURL() error: %v", err)
	}

	if !strings.HasPrefix(got, "https://walletpass-dre.cloud.huawei.com/walletkit/consumer/pass/save?content=") {
		t.Errorf("unexpected save url: %s", got)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("content") != envelope {
		t.Errorf("content = %q, want the envelope back", u.Query().Get("content"))
	}

	if _, err := SaveURL("us", envelope); err == nil {
		t.Error("expected error for unknown region")
	}
	if _, err := SaveURL(RegionChina, ""); err == nil {
		t.Error("expected error for empty envelope")
	}
}

func TestParseRegion(t *testing.T) {
	for _, s := range []string{"drcn", "drru", "dra", "dre"} {
		if r, err := ParseRegion(s); err != nil || string(r) != s {
			t.Errorf("ParseRegion(%q) = %q, %v", s, r, err)
		}
	}
	if _, err := ParseRegion("DRCN"); err == nil {
		t.Error("region names are lower case")
	}
}
