package magus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFetchSource_CloneWhenMissing(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "magic")
	r := newFakeRunner()

	if err := fetchSource(r, workDir, resolvePlan("", 13)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.called("git clone " + magicUpstream) {
		t.Error("expected a full clone of the upstream")
	}
	// Tracking upstream: no pinning checkout.
	if r.called("git rev-parse") {
		t.Error("upstream-tracking plan should not verify a pinned revision")
	}
}

func TestFetchSource_RefreshExistingCopyThenPin(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "magic")
	if err := os.MkdirAll(filepath.Join(workDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := newFakeRunner()

	if err := fetchSource(r, workDir, resolvePlan("", 14)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"git fetch origin",
		"git checkout master",
		"git pull --ff-only origin master",
		"git config advice.detachedHead false",
		"git rev-parse --verify --quiet " + knownGoodTag + "^{commit}",
		"git checkout " + knownGoodTag,
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("git call sequence:\n got %v\nwant %v", r.calls, want)
	}
}

func TestFetchSource_UnknownRevisionIsDistinct(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "magic")
	if err := os.MkdirAll(filepath.Join(workDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := newFakeRunner()
	r.failOn["git rev-parse --verify --quiet no-such-tag^{commit}"] = errors.New("fatal: needed a single revision")

	err := fetchSource(r, workDir, resolvePlan("no-such-tag", 14))
	if !errors.Is(err, ErrUnknownRevision) {
		t.Fatalf("expected ErrUnknownRevision, got %v", err)
	}
	var ferr *FetchError
	if errors.As(err, &ferr) {
		t.Error("unknown revision must not be classified as a fetch failure")
	}
}

func TestFetchSource_NetworkFailureIsFetchError(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "magic")
	if err := os.MkdirAll(filepath.Join(workDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := newFakeRunner()
	r.failOn["git fetch origin"] = errors.New("could not resolve host")

	err := fetchSource(r, workDir, resolvePlan("", 14))
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if ferr.Op != "fetch" {
		t.Errorf("Op = %q, want fetch", ferr.Op)
	}
	if errors.Is(err, ErrUnknownRevision) {
		t.Error("network failure must not be classified as unknown revision")
	}
}
