// Package captures resolves handshake capture files for a network
// across the explicit path remembered in history and a configured,
// ordered set of storage directories. Locating is a pure, read-only
// query so the packaging step can be tested without it.
package captures

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/history"
)

// DefaultDirs are the handshake locations used by the common device
// images, in precedence order.
var DefaultDirs = []string{
	"/root/handshakes",
	"/root/hs",
	"/root/pcaps",
	"/root/captures",
	"/var/lib/pwnagotchi/handshakes",
}

// Locator searches for capture files belonging to a BSSID.
type Locator struct {
	// Dirs is the ordered list of default storage directories.
	Dirs []string

	// History provides the explicitly recorded capture path, which is
	// the most authoritative candidate. May be nil.
	History *history.DB
}

// Locate returns existing capture files for the BSSID, most
// authoritative first: the history capture path (if the file still
// exists), then the first filename match in each configured directory,
// deduplicated. An empty result means "no capture yet" and is a normal
// state, not an error.
func (l *Locator) Locate(ctx context.Context, bssid string) ([]string, error) {
	bssid = utils.NormalizeBSSID(bssid)
	flat := utils.FlattenBSSID(bssid)
	if flat == "" {
		return nil, nil
	}

	var candidates []string

	if l.History != nil {
		entry, err := l.History.Get(ctx, bssid)
		switch {
		case errors.Is(err, history.ErrNotFound):
			// never observed; directory search may still hit
		case err != nil:
			return nil, err
		case entry.CapturePath != "":
			if fileExists(entry.CapturePath) {
				candidates = append(candidates, entry.CapturePath)
			}
		}
	}

	for _, dir := range l.Dirs {
		// Absent directories are expected across device images.
		match, ok := firstMatch(dir, flat)
		if ok {
			candidates = append(candidates, match)
		}
	}

	return dedupe(candidates), nil
}

// firstMatch returns the lexically first regular file in dir whose name
// contains the flattened BSSID, case-insensitively.
func firstMatch(dir, flat string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.Contains(strings.ToLower(e.Name()), flat) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
