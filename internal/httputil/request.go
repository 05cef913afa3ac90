package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxJSONBodyBytes limits JSON request bodies.
const MaxJSONBodyBytes = 1 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are rejected so typos in field names surface as 400s.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	// Requires w for proper 413 response
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
