// Package handlers serves the redirect target of the loopback popup: the
// callback page and the endpoints it reports back to.
package handlers

import (
	"encoding/json"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/utils"
	"go.uber.org/zap"
)

const (
	// LocationPath receives the callback page's location.href
	LocationPath = "/popup/location"
	// ClosedPath receives a beacon when the callback page goes away
	ClosedPath = "/popup/closed"

	maxReportBytes = 16 << 10
)

// Reporter receives what the callback page observed
type Reporter interface {
	ReportLocation(u *url.URL)
	ReportClosed()
}

// Handler handles requests against the redirect URI's origin
type Handler struct {
	origin       string
	callbackPath string
	reporter     Reporter
}

// NewHandler creates a new Handler instance. Reports are only accepted from
// pages served by origin, the redirect URI's scheme and host.
func NewHandler(origin *url.URL, callbackPath string, reporter Reporter) *Handler {
	if callbackPath == "" {
		callbackPath = "/"
	}
	return &Handler{
		origin:       strings.ToLower(origin.Scheme + "://" + origin.Host),
		callbackPath: callbackPath,
		reporter:     reporter,
	}
}

// RegisterRoutes registers the callback page and report endpoints
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(h.callbackPath, h.HandleCallbackPage)
	mux.HandleFunc(LocationPath, h.HandleLocationReport)
	mux.HandleFunc(ClosedPath, h.HandleClosedReport)
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Signing in</title></head>
<body style="font-family:sans-serif;text-align:center;padding:4rem">
  <h1 id="title">Finishing sign in&hellip;</h1>
  <p id="detail">You can close this window once it says so.</p>
  <script>
    (function () {
      var href = window.location.href;
      if (window.location.hash) {
        history.replaceState(null, "", window.location.pathname + window.location.search);
      }
      window.addEventListener("pagehide", function () {
        fetch({{.ClosedPath}}, {
          method: "POST",
          keepalive: true,
          headers: {"Content-Type": "application/json"},
          body: "{}"
        });
      });
      fetch({{.LocationPath}}, {
        method: "POST",
        headers: {"Content-Type": "application/json"},
        body: JSON.stringify({href: href})
      }).then(function (resp) {
        document.getElementById("title").textContent = resp.ok ? "Done" : "Sign in failed";
        document.getElementById("detail").textContent = "You can close this window and return to your terminal.";
      });
    })();
  </script>
</body>
</html>`))

// HandleCallbackPage serves the page the provider redirects to
func (h *Handler) HandleCallbackPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := callbackPage.Execute(w, map[string]string{
		"LocationPath": LocationPath,
		"ClosedPath":   ClosedPath,
	})
	if err != nil {
		logger.Error("Failed to render callback page", zap.Error(err))
	}
}

type locationReport struct {
	Href string `json:"href"`
}

// acceptReport admits only JSON POSTs whose Origin is the redirect origin.
// A cross-site JSON POST needs a preflight, and OPTIONS is refused.
func (h *Handler) acceptReport(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if origin := strings.ToLower(r.Header.Get("Origin")); origin != h.origin {
		logger.Warn("Rejected popup report from foreign origin",
			zap.String("path", r.URL.Path),
			zap.String("origin", origin),
		)
		utils.WriteError(w, "access_denied", "report must come from the callback page", http.StatusForbidden)
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		utils.WriteError(w, "invalid_request", "content type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	return true
}

// HandleLocationReport records the callback page's full URL, fragment included
func (h *Handler) HandleLocationReport(w http.ResponseWriter, r *http.Request) {
	if !h.acceptReport(w, r) {
		return
	}

	var report locationReport
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBytes)).Decode(&report); err != nil {
		utils.WriteError(w, "invalid_request", "malformed location report", http.StatusBadRequest)
		return
	}
	if report.Href == "" {
		utils.WriteError(w, "invalid_request", "href is required", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(report.Href)
	if err != nil || !u.IsAbs() {
		utils.WriteError(w, "invalid_request", "href must be an absolute URL", http.StatusBadRequest)
		return
	}

	h.reporter.ReportLocation(u)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// HandleClosedReport records that the callback page was closed
func (h *Handler) HandleClosedReport(w http.ResponseWriter, r *http.Request) {
	if !h.acceptReport(w, r) {
		return
	}
	h.reporter.ReportClosed()
	w.WriteHeader(http.StatusNoContent)
}
