// Package server exposes the dashboard JSON API: history, event
// ingestion, reconciliation, wordlists and bundle downloads. Page
// rendering belongs to the host dashboard; this is the data surface it
// talks to.
package server

import (
	"net/http"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/bundle"
	"github.com/hexwave/wifidash/pkg/history"
	"github.com/hexwave/wifidash/pkg/netevent"
	"github.com/hexwave/wifidash/pkg/wordlists"
	"github.com/hexwave/wifidash/pkg/wpasec"
)

type Server struct {
	History   *history.DB
	Wordlists *wordlists.Store
	Bundles   *bundle.Builder
	WpaSec    *wpasec.Client
	Shapes    *netevent.ShapeLog

	// BundleDir is where finished archives are kept for download.
	BundleDir string

	// Empty credentials disable basic auth (trusted-network setups).
	Username string
	Password string
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting dashboard API on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/history", s.basicAuth(s.handleHistory))
	mux.HandleFunc("POST /api/history/reset", s.basicAuth(s.handleHistoryReset))
	mux.HandleFunc("POST /api/history/whitelist", s.basicAuth(s.handleWhitelist))

	mux.HandleFunc("POST /api/events", s.basicAuth(s.handleEvents))
	mux.HandleFunc("POST /api/reconcile", s.basicAuth(s.handleReconcile))

	mux.HandleFunc("GET /api/wordlists", s.basicAuth(s.handleWordlistList))
	mux.HandleFunc("POST /api/wordlists", s.basicAuth(s.handleWordlistUpload))
	mux.HandleFunc("DELETE /api/wordlists/{name}", s.basicAuth(s.handleWordlistDelete))

	mux.HandleFunc("GET /api/bundles", s.basicAuth(s.handleBundleList))
	mux.HandleFunc("POST /api/bundles", s.basicAuth(s.handleBundleBuild))
	mux.HandleFunc("GET /api/bundles/{name}", s.basicAuth(s.handleBundleDownload))

	mux.HandleFunc("GET /api/debug/payloads", s.basicAuth(s.handleDebugPayloads))

	return mux
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
