package wpasec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	// DefaultURL is the read-only results endpoint of the wpa-sec
	// distributed cracking service.
	DefaultURL = "https://wpa-sec.stanev.org/api"

	requestTimeout = 15 * time.Second
)

// ErrNoAPIKey is returned when a fetch is attempted without a key.
var ErrNoAPIKey = errors.New("wpasec: api key not configured")

// CrackedResult is one cracked network reported by the service. BSSID or
// SSID may be empty depending on what the service keyed the row by.
type CrackedResult struct {
	BSSID    string
	SSID     string
	Password string
}

// Client fetches cracked results from the lookup service. The service is
// read-only from our side: a single authenticated GET, no uploads.
type Client struct {
	URL    string
	APIKey string

	// HTTPClient can be replaced in tests; defaults to a retrying
	// client with a bounded timeout.
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 2
	retryClient.HTTPClient.Timeout = requestTimeout

	return &Client{
		URL:        DefaultURL,
		APIKey:     apiKey,
		HTTPClient: retryClient.StandardClient(),
	}
}

// SetProxy routes all lookup requests through the given HTTP proxy.
// Useful for debugging the wire contract.
func (c *Client) SetProxy(proxy string) error {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	c.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	return nil
}

// Fetch performs the single GET and parses the response. The response is
// one atomic document, so any failure here means no results at all;
// callers must not partially apply anything.
func (c *Client) Fetch(ctx context.Context) ([]CrackedResult, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("API-Key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wpasec: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wpasec: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wpasec: service returned %d%s", resp.StatusCode, htmlTitleSuffix(body))
	}
	if !gjson.ValidBytes(body) {
		// A rejected key typically comes back as an HTML login page.
		return nil, fmt.Errorf("wpasec: unexpected non-JSON response%s", htmlTitleSuffix(body))
	}

	return parseResults(body), nil
}

// The service has keyed result rows under slightly different names over
// time; tolerate the same aliases the device payloads use.
var (
	resultBSSIDKeys    = []string{"bssid", "ap"}
	resultSSIDKeys     = []string{"essid", "ssid", "name"}
	resultPasswordKeys = []string{"password", "pass"}
)

func parseResults(body []byte) []CrackedResult {
	var results []CrackedResult
	gjson.ParseBytes(body).ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			return true
		}
		r := CrackedResult{
			BSSID:    firstString(row, resultBSSIDKeys),
			SSID:     firstString(row, resultSSIDKeys),
			Password: firstString(row, resultPasswordKeys),
		}
		if r.Password != "" && (r.BSSID != "" || r.SSID != "") {
			results = append(results, r)
		}
		return true
	})
	return results
}

func firstString(el gjson.Result, keys []string) string {
	for _, k := range keys {
		if v := el.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
