package httpapi

import (
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/permitio/pdp-sidecar/core"
)

// hopByHopHeaders are stripped before forwarding, per RFC 7230 §6.1 — the
// fallback proxy otherwise passes the request through as a black box.
var hopByHopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// newFallbackProxy builds a reverse proxy to the supervised child at
// target, used both for the Trino surface and for any unmatched
// authenticated path. The child is treated as a black box: method, path,
// query and body pass through unchanged; only hop-by-hop headers are
// stripped.
func newFallbackProxy(target *url.URL, logger core.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		for _, h := range hopByHopHeaders {
			req.Header.Del(h)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if logger != nil {
			logger.Warn("fallback proxy: child unreachable", map[string]interface{}{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"detail":"upstream service unreachable"}`)
	}

	return proxy
}
