package wpasec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hexwave/wifidash/pkg/history"
	"github.com/hexwave/wifidash/pkg/netevent"
)

func testClient(url string) *Client {
	return &Client{URL: url, APIKey: "test-key", HTTPClient: http.DefaultClient}
}

func TestFetchParsesAliasedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("API-Key") != "test-key" {
			t.Errorf("expected API-Key header, got %q", r.Header.Get("API-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"bssid":"AA:BB:CC:DD:EE:FF","essid":"home","password":"hunter2"},
			{"ssid":"cafe","pass":"espresso"},
			{"essid":"no-password-yet"}
		]`))
	}))
	defer srv.Close()

	results, err := testClient(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	want := []CrackedResult{
		{BSSID: "AA:BB:CC:DD:EE:FF", SSID: "home", Password: "hunter2"},
		{SSID: "cafe", Password: "espresso"},
	}
	if !reflect.DeepEqual(results, want) {
		t.Fatalf("results mismatch\nwant: %+v\ngot:  %+v", want, results)
	}
}

func TestFetchWithoutKey(t *testing.T) {
	c := testClient("http://unused.invalid")
	c.APIKey = ""
	if _, err := c.Fetch(context.Background()); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestFetchAuthRejectionSurfacesHTMLTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<html><head><title>wpa-sec: access denied</title></head><body>nope</body></html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background())
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("error should carry status and page title, got: %v", err)
	}
}

func TestFetchRejectsNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>login</title></head></html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "non-JSON") {
		t.Fatalf("expected a non-JSON response error, got %v", err)
	}
}

func openStore(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "history.sqlite"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReconcileUpdatesMatchingEntries(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	for _, rec := range []netevent.Record{
		{BSSID: "aa:bb:cc:dd:ee:01", SSID: "alpha"},
		{BSSID: "aa:bb:cc:dd:ee:02", SSID: "beta"},
	} {
		if _, err := db.Upsert(ctx, rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"bssid":"AA:BB:CC:DD:EE:01","password":"hunter2"},
			{"essid":"beta","password":"espresso"}
		]`))
	}))
	defer srv.Close()

	updated, err := Reconcile(ctx, testClient(srv.URL), db)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updates, got %d", updated)
	}

	a, _ := db.Get(ctx, "aa:bb:cc:dd:ee:01")
	if a.CrackedPassword != "hunter2" {
		t.Errorf("bssid-keyed result not applied: %+v", a)
	}
	b, _ := db.Get(ctx, "aa:bb:cc:dd:ee:02")
	if b.CrackedPassword != "espresso" {
		t.Errorf("ssid fallback not applied: %+v", b)
	}
}

func TestReconcileFailureLeavesStoreUntouched(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	if _, err := db.Upsert(ctx, netevent.Record{BSSID: "aa:bb:cc:dd:ee:01", SSID: "alpha"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before, err := db.Get(ctx, "aa:bb:cc:dd:ee:01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := Reconcile(ctx, testClient(srv.URL), db); err == nil {
		t.Fatal("expected reconcile to fail")
	}

	after, err := db.Get(ctx, "aa:bb:cc:dd:ee:01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("store must be untouched on failure\nbefore: %+v\nafter:  %+v", before, after)
	}
}
