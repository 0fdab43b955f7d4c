package crypto

import "testing"

func TestCanonicalizeJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "keys sorted and whitespace removed",
			input: `{ "passVersion": "2.0", "iss": "app-1",  "fields": {"status": "ACTIVE", "countryCode": "GB"} }`,
			want:  `{"fields":{"countryCode":"GB","status":"ACTIVE"},"iss":"app-1","passVersion":"2.0"}`,
		},
		{
			name:  "instance id list keeps its order",
			input: `{"instanceIds": ["b", "a"], "iss": "app-1"}`,
			want:  `{"instanceIds":["b","a"],"iss":"app-1"}`,
		},
		{
			name:    "truncated pass instance",
			input:   `{"passTypeIdentifier": "hwpass.com.xxx"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalizeJSON([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CanonicalizeJSON() expected error, got nil")
				}
				if !HasCode(err, ErrCodeValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CanonicalizeJSON() unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("CanonicalizeJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}
