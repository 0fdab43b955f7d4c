package walletkit

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/walletkit-demo/walletpass/internal/crypto"
)

// Region selects the walletpass site a user is sent to when saving a pass
type Region string

const (
	RegionChina  Region = "drcn"
	RegionRussia Region = "drru"
	RegionAsia   Region = "dra" // Asia, Africa and Latin America
	RegionEurope Region = "dre"
)

// ParseRegion returns the Region for s
func ParseRegion(s string) (Region, error) {
	switch r := Region(s); r {
	case RegionChina, RegionRussia, RegionAsia, RegionEurope:
		return r, nil
	default:
		return "", fmt.Errorf("unknown wallet region %q (must be one of drcn, drru, dra, dre)", s)
	}
}

// Host returns the walletpass host name for the region
func (r Region) Host() string {
	return fmt.Sprintf("walletpass-%s.cloud.huawei.com", r)
}

// SaveURL returns the link that opens the "add to wallet" page for an envelope.
// The envelope is query-escaped into the content parameter.
func SaveURL(region Region, envelope string) (string, error) {
	if _, err := ParseRegion(string(region)); err != nil {
		return "", err
	}
	if envelope == "" {
		return "", fmt.Errorf("envelope is empty")
	}

	u := url.URL{
		Scheme:   "https",
		Host:     region.Host(),
		Path:     "/walletkit/consumer/pass/save",
		RawQuery: "content=" + url.QueryEscape(envelope),
	}
	return u.String(), nil
}

// StampIssuer sets the "iss" member of a JSON object payload to appID and returns the object as
// RFC 8785 canonical JSON. An existing "iss" is overwritten.
func StampIssuer(payload []byte, appID string) ([]byte, error) {
	if appID == "" {
		return nil, fmt.Errorf("app id is required")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("payload must be a JSON object")
	}

	iss, err := json.Marshal(appID)
	if err != nil {
		return nil, err
	}
	obj["iss"] = iss

	stamped, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return crypto.CanonicalizeJSON(stamped)
}

// BindInstancesPayload returns the payload for an envelope that binds existing pass instances to the user's wallet
func BindInstancesPayload(appID string, instanceIDs []string) ([]byte, error) {
	if len(instanceIDs) == 0 {
		return nil, fmt.Errorf("at least one instance id is required")
	}
	for _, id := range instanceIDs {
		if id == "" {
			return nil, fmt.Errorf("instance ids cannot be empty")
		}
	}

	payload, err := json.Marshal(struct {
		InstanceIDs []string `json:"instanceIds"`
	}{instanceIDs})
	if err != nil {
		return nil, err
	}
	return StampIssuer(payload, appID)
}
