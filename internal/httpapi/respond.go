package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/permitio/pdp-sidecar/internal/pdperrors"
)

// writeJSON encodes v as the response body with status, matching the
// native/Trino surfaces' plain JSON responses.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError renders the native/Trino error shape: {"detail": "..."}.
func writeAPIError(w http.ResponseWriter, err *pdperrors.APIError) {
	writeJSON(w, err.StatusCode, map[string]string{"detail": err.Detail})
}

// writeAuthZenError renders the AuthZen error shape: a plain-text body at
// the status the error code maps to. Internal error text is always the
// fixed generic message; it never carries upstream detail.
func writeAuthZenError(w http.ResponseWriter, err *pdperrors.AuthZenError) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(err.Code.StatusCode())
	_, _ = w.Write([]byte(err.Message))
}
