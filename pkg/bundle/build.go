// Package bundle assembles capture files and one wordlist into a single
// tar.gz for an operator to crack offline. Building is read-only with
// respect to history and the wordlist store, and the archive bytes are
// deterministic for a given file set and filesystem state.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/captures"
	"github.com/hexwave/wifidash/pkg/wordlists"
)

var (
	// ErrNoCaptures means no requested identity resolved to any capture
	// file; there is nothing to crack, so there is no bundle.
	ErrNoCaptures = errors.New("bundle: no capture files resolved")

	// ErrWordlistNotFound means the selected wordlist does not exist in
	// the store. Distinct from ErrNoCaptures so the dashboard can tell
	// the operator which part of the request was wrong.
	ErrWordlistNotFound = errors.New("bundle: wordlist not found")
)

// Builder produces crack-ready archives.
type Builder struct {
	Locator   *captures.Locator
	Wordlists *wordlists.Store

	now func() time.Time // archive naming; swapped out in tests
}

func NewBuilder(loc *captures.Locator, wl *wordlists.Store) *Builder {
	return &Builder{Locator: loc, Wordlists: wl, now: time.Now}
}

// Result is a finished bundle. Warnings carry the identities that
// resolved to nothing; their presence does not make the build a failure
// as long as at least one capture made it in.
type Result struct {
	Name     string   `json:"name"`
	Data     []byte   `json:"-"`
	Warnings []string `json:"warnings,omitempty"`
}

type member struct {
	name string
	path string
}

// Build resolves capture files for each requested BSSID, bundles them
// with the named wordlist and returns the archive. Identities with no
// captures are skipped with a warning. The build fails only when the
// wordlist is missing or the whole file set came up empty.
func (b *Builder) Build(ctx context.Context, bssids []string, wordlist string) (*Result, error) {
	wlPath, err := b.Wordlists.Path(wordlist)
	if err != nil {
		if errors.Is(err, wordlists.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWordlistNotFound, wordlist)
		}
		return nil, err
	}

	res := &Result{}
	var members []member
	seenName := make(map[string]bool)
	var resolved []string

	for _, raw := range dedupe(bssids) {
		bssid := utils.NormalizeBSSID(raw)
		files, err := b.Locator.Locate(ctx, bssid)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("no capture files found for %s", bssid))
			continue
		}
		flat := utils.FlattenBSSID(bssid)
		added := false
		for _, f := range files {
			name := flat + "/" + filepath.Base(f)
			if seenName[name] {
				continue
			}
			seenName[name] = true
			members = append(members, member{name: name, path: f})
			added = true
		}
		if added {
			resolved = append(resolved, flat)
		}
	}

	if len(members) == 0 {
		return nil, ErrNoCaptures
	}

	// Canonical member order, captures first, the wordlist last at the
	// archive root.
	sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })
	members = append(members, member{name: filepath.Base(wlPath), path: wlPath})

	data, err := writeArchive(members)
	if err != nil {
		return nil, err
	}
	res.Data = data
	res.Name = archiveName(resolved, b.now().Unix())
	return res, nil
}

// writeArchive produces a tar.gz with zeroed gzip metadata and fixed
// tar header times, so identical inputs yield identical bytes.
func writeArchive(members []member) ([]byte, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	gz.Name = ""
	gz.Comment = ""
	gz.ModTime = time.Unix(0, 0)

	tw := tar.NewWriter(gz)
	for _, m := range members {
		data, err := os.ReadFile(m.path)
		if err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, fmt.Errorf("bundle: reading %s: %w", m.path, err)
		}
		hdr := &tar.Header{
			Name:    sanitizeMemberName(m.name),
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: time.Unix(0, 0),
			Uid:     0, Gid: 0,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, err
		}
		if _, err := tw.Write(data); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		_ = gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sanitizeMemberName keeps member paths relative and slash-separated.
func sanitizeMemberName(name string) string {
	name = strings.TrimLeft(name, "/")
	return filepath.ToSlash(filepath.Clean(name))
}

// archiveName derives the download name from the resolved identities
// and a timestamp, e.g. aabbccddeeff_1724500000.tar.gz.
func archiveName(resolved []string, ts int64) string {
	sort.Strings(resolved)
	prefix := fmt.Sprintf("%dnets", len(resolved))
	if len(resolved) == 1 {
		prefix = resolved[0]
	}
	return fmt.Sprintf("%s_%d.tar.gz", prefix, ts)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = utils.NormalizeBSSID(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
