package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"partners/partners/services/pagemeta"
	"partners/partners/utils/logging"

	"go.uber.org/zap"
)

// blockedHeaders are the frame/embedding-blocking response headers stripped
// from every proxied response. Matching is case-insensitive via the
// canonical header form.
var blockedHeaders = []string{
	"X-Frame-Options",
	"Frame-Options",
	"Content-Security-Policy",
	"Content-Security-Policy-Report-Only",
}

// injectedHeaders are set unconditionally, overwriting anything upstream
// sent under the same names.
var injectedHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Cross-Origin-Resource-Policy": "cross-origin",
	"Cross-Origin-Embedder-Policy": "unsafe-none",
	"Cross-Origin-Opener-Policy":   "unsafe-none",
	"Cache-Control":                "no-cache",
}

// ProxyController fetches a caller-supplied URL and rewrites the response
// headers so the page can load inside the front end's iframe.
//
// No scheme or host allow-list is applied, so the proxy will fetch whatever
// it is pointed at, internal addresses included. Known exposure; an explicit
// policy decision is needed before opening this beyond trusted callers.
type ProxyController struct{}

func NewProxyController() *ProxyController {
	return &ProxyController{}
}

// HandleProxy relays the upstream's status and body verbatim with the
// header rewrite applied.
func (c *ProxyController) HandleProxy(w http.ResponseWriter, r *http.Request) {
	defer logging.LogDuration(r.Context(), "proxy_handle")()

	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "Missing ?url=", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "Upstream fetch failed", http.StatusBadGateway)
		return
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logging.ErrorLogger.Error("proxy upstream fetch error",
			zap.String("url", target), zap.Error(err))
		http.Error(w, "Upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	headers := w.Header()
	for name, values := range resp.Header {
		for _, v := range values {
			headers.Add(name, v)
		}
	}
	for _, name := range blockedHeaders {
		headers.Del(name)
	}
	for name, value := range injectedHeaders {
		headers.Set(name, value)
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logging.ErrorLogger.Error("proxy body relay error",
			zap.String("url", target), zap.Error(err))
	}
}

// HandleMeta returns the embed-preview metadata for a target page.
func (c *ProxyController) HandleMeta(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "Missing ?url=", http.StatusBadRequest)
		return
	}

	meta, err := pagemeta.Fetch(r.Context(), target)
	if err != nil {
		logging.ErrorLogger.Error("pagemeta fetch error",
			zap.String("url", target), zap.Error(err))
		http.Error(w, "Upstream fetch failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
