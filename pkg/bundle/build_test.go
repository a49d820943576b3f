package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hexwave/wifidash/pkg/captures"
	"github.com/hexwave/wifidash/pkg/wordlists"
)

type fixture struct {
	builder *Builder
	hsDir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(hsDir, "aabbccddeeff.pcap"), []byte("CAP-A"), 0o644); err != nil {
		t.Fatalf("seed capture: %v", err)
	}

	wl, err := wordlists.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("wordlist store: %v", err)
	}
	if _, err := wl.Put("rockyou-mini.txt", strings.NewReader("password\n")); err != nil {
		t.Fatalf("seed wordlist: %v", err)
	}

	b := NewBuilder(&captures.Locator{Dirs: []string{hsDir}}, wl)
	b.now = func() time.Time { return time.Unix(1724500000, 0) }
	return &fixture{builder: b, hsDir: hsDir}
}

func readMembers(t *testing.T, data []byte) map[string]string {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	defer gz.Close()

	members := make(map[string]string)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar: %v", err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("tar read: %v", err)
		}
		members[hdr.Name] = string(content)
	}
	return members
}

func TestBuildPartialResultIsASuccess(t *testing.T) {
	f := newFixture(t)

	// B never had a capture; the build still succeeds with A's file.
	res, err := f.builder.Build(context.Background(),
		[]string{"AA:BB:CC:DD:EE:FF", "11:22:33:44:55:66"}, "rockyou-mini.txt")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "11:22:33:44:55:66") {
		t.Fatalf("unresolved identity must be reported as a warning, got %v", res.Warnings)
	}

	members := readMembers(t, res.Data)
	if members["aabbccddeeff/aabbccddeeff.pcap"] != "CAP-A" {
		t.Errorf("capture missing from archive, members: %v", members)
	}
	if members["rockyou-mini.txt"] != "password\n" {
		t.Errorf("wordlist missing from archive, members: %v", members)
	}
	if len(members) != 2 {
		t.Errorf("expected exactly capture + wordlist, got %v", members)
	}
}

func TestBuildFailsWithoutAnyCaptures(t *testing.T) {
	f := newFixture(t)

	_, err := f.builder.Build(context.Background(), []string{"11:22:33:44:55:66"}, "rockyou-mini.txt")
	if !errors.Is(err, ErrNoCaptures) {
		t.Fatalf("expected ErrNoCaptures, got %v", err)
	}
}

func TestBuildFailsWithoutWordlist(t *testing.T) {
	f := newFixture(t)

	_, err := f.builder.Build(context.Background(), []string{"aa:bb:cc:dd:ee:ff"}, "missing.txt")
	if !errors.Is(err, ErrWordlistNotFound) {
		t.Fatalf("expected ErrWordlistNotFound, got %v", err)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.builder.Build(ctx, []string{"aa:bb:cc:dd:ee:ff"}, "rockyou-mini.txt")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := f.builder.Build(ctx, []string{"aa:bb:cc:dd:ee:ff"}, "rockyou-mini.txt")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("identical inputs and filesystem state must produce identical archives")
	}
	if first.Name != "aabbccddeeff_1724500000.tar.gz" {
		t.Fatalf("unexpected archive name %q", first.Name)
	}
}

func TestBuildDeduplicatesRequestedIdentities(t *testing.T) {
	f := newFixture(t)

	res, err := f.builder.Build(context.Background(),
		[]string{"aa:bb:cc:dd:ee:ff", "AA-BB-CC-DD-EE-FF"}, "rockyou-mini.txt")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	members := readMembers(t, res.Data)
	if len(members) != 2 {
		t.Fatalf("duplicate spellings of one identity must not duplicate members: %v", members)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}
