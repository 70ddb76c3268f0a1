package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/permitio/pdp-sidecar/internal/opaclient"
	"github.com/permitio/pdp-sidecar/internal/pdperrors"
)

// clientCacheControl parses the inbound Cache-Control header into the
// directives the cached query layer honors.
func clientCacheControl(r *http.Request) opaclient.CacheControl {
	var control opaclient.CacheControl
	for _, directive := range strings.Split(r.Header.Get("Cache-Control"), ",") {
		directive = strings.TrimSpace(directive)
		switch {
		case directive == "no-cache":
			control.NoCache = true
		case directive == "no-store":
			control.NoStore = true
		case strings.HasPrefix(directive, "max-age"):
			parts := strings.SplitN(directive, "=", 2)
			if len(parts) != 2 {
				continue
			}
			age, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
			if err != nil {
				continue
			}
			val := uint32(age)
			control.MaxAge = &val
		}
	}
	return control
}

func decodeBody(r *http.Request, dst interface{}) *pdperrors.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return pdperrors.NewAPIError(http.StatusUnprocessableEntity, "malformed request body")
	}
	return nil
}

// handleAllowed serves POST /allowed: a single authorization check.
func (s *Server) handleAllowed(w http.ResponseWriter, r *http.Request) {
	var query opaclient.AllowedQuery
	if err := decodeBody(r, &query); err != nil {
		writeAPIError(w, err)
		return
	}

	result, err := s.opa.QueryAllowed(r.Context(), query, clientCacheControl(r))
	if err != nil {
		writeAPIError(w, pdperrors.FromForwardingError(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAllowedBulk serves POST /allowed/bulk.
func (s *Server) handleAllowedBulk(w http.ResponseWriter, r *http.Request) {
	var queries []opaclient.AllowedQuery
	if err := decodeBody(r, &queries); err != nil {
		writeAPIError(w, err)
		return
	}

	result, err := s.opa.QueryAllowedBulk(r.Context(), queries, clientCacheControl(r))
	if err != nil {
		writeAPIError(w, pdperrors.FromForwardingError(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUserPermissions serves POST /user-permissions.
func (s *Server) handleUserPermissions(w http.ResponseWriter, r *http.Request) {
	var query opaclient.UserPermissionsQuery
	if err := decodeBody(r, &query); err != nil {
		writeAPIError(w, err)
		return
	}

	result, err := s.opa.QueryUserPermissions(r.Context(), query, clientCacheControl(r))
	if err != nil {
		writeAPIError(w, pdperrors.FromForwardingError(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAuthorizedUsers serves POST /authorized_users.
func (s *Server) handleAuthorizedUsers(w http.ResponseWriter, r *http.Request) {
	var query opaclient.AuthorizedUsersQuery
	if err := decodeBody(r, &query); err != nil {
		writeAPIError(w, err)
		return
	}

	result, err := s.opa.QueryAuthorizedUsers(r.Context(), query, clientCacheControl(r))
	if err != nil {
		writeAPIError(w, pdperrors.FromForwardingError(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
