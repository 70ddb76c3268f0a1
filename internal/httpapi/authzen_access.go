package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/permitio/pdp-sidecar/internal/opaclient"
	"github.com/permitio/pdp-sidecar/internal/pdperrors"
)

// authZenEntity is the AuthZen subject/resource/action shape: a typed
// identifier plus free-form properties.
type authZenEntity struct {
	Type       string          `json:"type,omitempty"`
	ID         string          `json:"id,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

type authZenEvaluationRequest struct {
	Subject  authZenEntity   `json:"subject"`
	Resource authZenEntity   `json:"resource"`
	Action   authZenEntity   `json:"action"`
	Context  json.RawMessage `json:"context,omitempty"`
}

type authZenEvaluationResponse struct {
	Decision bool `json:"decision"`
}

func (e authZenEntity) toAllowedQueryParts() (json.RawMessage, json.RawMessage, error) {
	user, err := json.Marshal(map[string]interface{}{"key": e.ID, "attributes": rawOrEmpty(e.Properties)})
	if err != nil {
		return nil, nil, err
	}
	resource, err := json.Marshal(map[string]interface{}{"type": e.Type, "key": e.ID, "attributes": rawOrEmpty(e.Properties)})
	if err != nil {
		return nil, nil, err
	}
	return user, resource, nil
}

func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

func (req authZenEvaluationRequest) toAllowedQuery() (opaclient.AllowedQuery, error) {
	user, _, err := req.Subject.toAllowedQueryParts()
	if err != nil {
		return opaclient.AllowedQuery{}, err
	}
	_, resource, err := req.Resource.toAllowedQueryParts()
	if err != nil {
		return opaclient.AllowedQuery{}, err
	}
	return opaclient.AllowedQuery{
		User:     user,
		Action:   req.Action.ID,
		Resource: resource,
		Context:  rawOrEmpty(req.Context),
	}, nil
}

// handleAccessEvaluation serves POST /access/v1/evaluation: a single
// AuthZen decision request translated to a native authorization query.
func (s *Server) handleAccessEvaluation(w http.ResponseWriter, r *http.Request) {
	var req authZenEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthZenError(w, pdperrors.NewAuthZenError(pdperrors.AuthZenInvalidRequest, "malformed request body"))
		return
	}

	query, err := req.toAllowedQuery()
	if err != nil {
		writeAuthZenError(w, pdperrors.NewAuthZenError(pdperrors.AuthZenInvalidRequest, "malformed request body"))
		return
	}

	control := clientCacheControl(r)
	result, err := s.opa.QueryAllowed(r.Context(), query, control)
	if err != nil {
		writeAuthZenError(w, pdperrors.AuthZenFromForwardingError(err))
		return
	}

	writeJSON(w, http.StatusOK, authZenEvaluationResponse{Decision: result.Allow})
}

type authZenEvaluationsRequest struct {
	Evaluations []authZenEvaluationRequest `json:"evaluations"`
}

type authZenEvaluationsResponse struct {
	Evaluations []authZenEvaluationResponse `json:"evaluations"`
}

// handleAccessEvaluations serves POST /access/v1/evaluations: the bulk
// form, preserving input order and length via the bulk authorization query.
func (s *Server) handleAccessEvaluations(w http.ResponseWriter, r *http.Request) {
	var req authZenEvaluationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthZenError(w, pdperrors.NewAuthZenError(pdperrors.AuthZenInvalidRequest, "malformed request body"))
		return
	}

	queries := make([]opaclient.AllowedQuery, len(req.Evaluations))
	for i, eval := range req.Evaluations {
		query, err := eval.toAllowedQuery()
		if err != nil {
			writeAuthZenError(w, pdperrors.NewAuthZenError(pdperrors.AuthZenInvalidRequest, "malformed request body"))
			return
		}
		queries[i] = query
	}

	control := clientCacheControl(r)
	result, err := s.opa.QueryAllowedBulk(r.Context(), queries, control)
	if err != nil {
		writeAuthZenError(w, pdperrors.AuthZenFromForwardingError(err))
		return
	}

	out := make([]authZenEvaluationResponse, len(result.Allow))
	for i, item := range result.Allow {
		out[i] = authZenEvaluationResponse{Decision: item.Allow}
	}
	writeJSON(w, http.StatusOK, authZenEvaluationsResponse{Evaluations: out})
}

// authZenSearchResponse is the shared shape for the three search endpoints:
// a page of results plus a continuation token.
type authZenSearchResponse struct {
	Results   []json.RawMessage `json:"results"`
	PageToken string            `json:"page,omitempty"`
}

// handleSearchSubject serves POST /access/v1/search/subject by delegating
// to the authorized-users query, the native surface's closest equivalent
// (which subjects may perform an action on a resource).
func (s *Server) handleSearchSubject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resource authZenEntity   `json:"resource"`
		Action   authZenEntity   `json:"action"`
		Context  json.RawMessage `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthZenError(w, pdperrors.NewAuthZenError(pdperrors.AuthZenInvalidRequest, "malformed request body"))
		return
	}

	_, resource, err := req.Resource.toAllowedQueryParts()
	if err != nil {
		writeAuthZenError(w, pdperrors.NewAuthZenError(pdperrors.AuthZenInvalidRequest, "malformed request body"))
		return
	}

	control := clientCacheControl(r)
	result, err := s.opa.QueryAuthorizedUsers(r.Context(), opaclient.AuthorizedUsersQuery{
		Action:   req.Action.ID,
		Resource: resource,
		Context:  rawOrEmpty(req.Context),
	}, control)
	if err != nil {
		writeAuthZenError(w, pdperrors.AuthZenFromForwardingError(err))
		return
	}

	writeJSON(w, http.StatusOK, authZenSearchResponse{Results: []json.RawMessage{json.RawMessage(result)}})
}

// handleSearchResource and handleSearchAction have no direct analog in the
// policy engine's named-decision API (there is no "which resources"/"which
// actions" query it exposes) and the original source's handlers for them
// were not part of the retrieved codebase; they respond with an empty
// result page rather than guessing at unsupported semantics.
func (s *Server) handleSearchResource(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, authZenSearchResponse{Results: []json.RawMessage{}})
}

func (s *Server) handleSearchAction(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, authZenSearchResponse{Results: []json.RawMessage{}})
}
