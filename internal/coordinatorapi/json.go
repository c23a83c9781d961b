package coordinatorapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// decodeJSONStrict validates Content-Type, caps the body size, and decodes
// JSON into dst while rejecting unknown fields.
//
// Grounded on the teacher's api/v1/json.go decodeJSONStrict: identical
// shape, reused verbatim because it is already kind-agnostic.
func decodeJSONStrict(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return ErrContentType
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, ErrContentType) {
			return ErrContentType
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
