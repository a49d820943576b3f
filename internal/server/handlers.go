package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/bundle"
	"github.com/hexwave/wifidash/pkg/history"
	"github.com/hexwave/wifidash/pkg/netevent"
	"github.com/hexwave/wifidash/pkg/wordlists"
	"github.com/hexwave/wifidash/pkg/wpasec"
)

const maxEventPayload = 1 << 20 // device payloads are small; cap defensively

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.History.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleHistoryReset(w http.ResponseWriter, r *http.Request) {
	if err := s.History.Reset(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type WhitelistRequest struct {
	BSSID       string `json:"bssid"`
	Whitelisted bool   `json:"whitelisted"`
}

func (s *Server) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	var req WhitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := s.History.SetWhitelist(r.Context(), req.BSSID, req.Whitelisted)
	if errors.Is(err, history.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type EventResponse struct {
	Records int                     `json:"records"`
	Unknown []netevent.UnknownShape `json:"unknown,omitempty"`
}

// handleEvents ingests one raw device payload: record it for the debug
// panel, normalize it, upsert every record and remember capture paths.
// Malformed input is reported back, never a hard failure.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventPayload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tag := r.URL.Query().Get("tag")
	if tag == "" {
		tag = "api"
	}
	s.Shapes.Add(tag, body)

	res := netevent.Normalize(body)
	for _, rec := range res.Records {
		if _, err := s.History.Upsert(r.Context(), rec); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if rec.CapturePath != "" {
			if err := s.History.RecordCapture(r.Context(), rec.BSSID, rec.CapturePath); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
	if len(res.Unknown) > 0 {
		utils.Log.Debugf("[events] %s: %d unrecognized shapes", tag, len(res.Unknown))
	}

	json.NewEncoder(w).Encode(EventResponse{Records: len(res.Records), Unknown: res.Unknown})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	updated, err := wpasec.Reconcile(r.Context(), s.WpaSec, s.History)
	if err != nil {
		// The store is untouched on any reconcile failure; report the
		// remote problem as such.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	json.NewEncoder(w).Encode(map[string]int{"updated": updated})
}

func (s *Server) handleWordlistList(w http.ResponseWriter, r *http.Request) {
	assets, err := s.Wordlists.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(assets)
}

func (s *Server) handleWordlistUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	asset, err := s.Wordlists.Put(header.Filename, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(asset)
}

func (s *Server) handleWordlistDelete(w http.ResponseWriter, r *http.Request) {
	err := s.Wordlists.Delete(r.PathValue("name"))
	if errors.Is(err, wordlists.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type BundleRequest struct {
	BSSIDs   []string `json:"bssids"`
	Wordlist string   `json:"wordlist"`
}

type BundleResponse struct {
	Name      string   `json:"name"`
	SizeBytes int64    `json:"size_bytes"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (s *Server) handleBundleBuild(w http.ResponseWriter, r *http.Request) {
	var req BundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Bundles.Build(r.Context(), req.BSSIDs, req.Wordlist)
	if errors.Is(err, bundle.ErrWordlistNotFound) || errors.Is(err, bundle.ErrNoCaptures) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(s.BundleDir, 0o755); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := os.WriteFile(filepath.Join(s.BundleDir, res.Name), res.Data, 0o644); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(BundleResponse{
		Name:      res.Name,
		SizeBytes: int64(len(res.Data)),
		Warnings:  res.Warnings,
	})
}

type BundleInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

func (s *Server) handleBundleList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.BundleDir)
	if err != nil && !os.IsNotExist(err) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	bundles := []BundleInfo{}
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ".tar.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		bundles = append(bundles, BundleInfo{Name: e.Name(), SizeBytes: info.Size()})
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name > bundles[j].Name })
	json.NewEncoder(w).Encode(bundles)
}

func (s *Server) handleBundleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("name"))
	path := filepath.Join(s.BundleDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		http.Error(w, "bundle not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	http.ServeFile(w, r, path)
}

func (s *Server) handleDebugPayloads(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.Shapes.Samples())
}
