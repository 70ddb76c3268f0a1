package httpapi

import (
	"context"
	"net/http"

	"github.com/permitio/pdp-sidecar/internal/cache"
)

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string           `json:"status"`
	Components healthComponents `json:"components"`
}

type healthComponents struct {
	Horizon componentStatus  `json:"horizon"`
	OPA     componentStatus  `json:"opa"`
	Cache   *componentStatus `json:"cache,omitempty"`
}

// ChildHealthChecker reports whether the supervised child is healthy.
type ChildHealthChecker interface {
	Check(ctx context.Context) error
}

// handleHealth aggregates the health of the supervised child, the policy
// engine, and (when check_cache=true) the cache backend.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checkCache := r.URL.Query().Get("check_cache") == "true"

	components := healthComponents{
		Horizon: probe(r.Context(), s.childHealth),
		OPA:     probe(r.Context(), s.opaHealth),
	}

	overallOK := components.Horizon.Status == "ok" && components.OPA.Status == "ok"

	if checkCache && s.cacheBackend != nil {
		status := probeCache(r.Context(), s.cacheBackend)
		components.Cache = &status
		overallOK = overallOK && status.Status == "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !overallOK {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, healthResponse{Status: status, Components: components})
}

func probe(ctx context.Context, checker ChildHealthChecker) componentStatus {
	if checker == nil {
		return componentStatus{Status: "ok"}
	}
	if err := checker.Check(ctx); err != nil {
		return componentStatus{Status: "error", Error: err.Error()}
	}
	return componentStatus{Status: "ok"}
}

func probeCache(ctx context.Context, backend cache.Backend) componentStatus {
	if err := backend.HealthCheck(ctx); err != nil {
		return componentStatus{Status: "error", Error: err.Error()}
	}
	return componentStatus{Status: "ok"}
}
