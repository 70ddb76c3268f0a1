package httpapi

import (
	"net/http"
)

type authZenMetadata struct {
	PolicyDecisionPoint       string `json:"policy_decision_point"`
	AccessEvaluationEndpoint  string `json:"access_evaluation_endpoint"`
	AccessEvaluationsEndpoint string `json:"access_evaluations_endpoint"`
	SearchSubjectEndpoint     string `json:"search_subject_endpoint"`
	SearchActionEndpoint      string `json:"search_action_endpoint"`
	SearchResourceEndpoint    string `json:"search_resource_endpoint"`
}

// handleAuthZenMetadata derives the PDP's base URL from the request's
// scheme and authority (http/r.Host are the closest Go equivalents of the
// original's request.uri().into_parts(), since net/http does not expose a
// parsed scheme on inbound requests) and returns absolute endpoint URLs.
func (s *Server) handleAuthZenMetadata(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	host := r.Host
	if host == "" {
		host = "localhost:7766"
	}

	base := scheme + "://" + host

	writeJSON(w, http.StatusOK, authZenMetadata{
		PolicyDecisionPoint:       base,
		AccessEvaluationEndpoint:  base + "/access/v1/evaluation",
		AccessEvaluationsEndpoint: base + "/access/v1/evaluations",
		SearchSubjectEndpoint:     base + "/access/v1/search/subject",
		SearchActionEndpoint:      base + "/access/v1/search/action",
		SearchResourceEndpoint:    base + "/access/v1/search/resource",
	})
}
