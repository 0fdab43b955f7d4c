package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// HandleJWKS godoc
//
//	@Summary		Get JWK set
//	@Description	Returns the public half of the key this service signs envelopes with.
//	@Description
//	@Description	Register this key with the wallet server so that it can verify envelope signatures.
//	@Description	The JWK set in the response conforms to the [JWK specification](https://datatracker.ietf.org/doc/html/rfc7517).
//	@Description	The set holds a single RSA key (alg PS256, use sig).
//	@Tags			Common
//
//	@Success		200	{object}	JWKSResponse	"JWK set"
//
//	@Router			/.well-known/jwks.json [get]
func HandleJWKS(jwkSet jwk.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if err := json.NewEncoder(w).Encode(jwkSet); err != nil {
			http.Error(w, "Failed to encode JWK set", http.StatusInternalServerError)
			return
		}
	}
}

// JWKSResponse is used for swaggo documentation as swaggo doesn't support the jwk.Set interface type.
type JWKSResponse struct {
	Keys []map[string]any `json:"keys"`
}
