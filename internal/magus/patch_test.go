package magus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const resisSample = `/* resis.h -- resistance extraction declarations */
extern int ResReadSim(char *name, CellUse *use);
extern void ResExpandArea(Rect *area, CellUse *use);
`

const txInputSample = `extern char *getenv();

static char *getline(buf, len)
    char *buf;
    int len;
{
    return buf;
}

void TxDispatch()
{
    char line[512];
    getline(line, sizeof line);
    magic_getline_impl(line);
}
`

// writeTarget places content at the patch's target path inside dir.
func writeTarget(t *testing.T, dir string, p Patch, content string) string {
	t.Helper()
	path := filepath.Join(dir, p.Target)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func findPatch(t *testing.T, id string) Patch {
	t.Helper()
	for _, p := range magicPatches {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("patch %s not in catalog", id)
	return Patch{}
}

func TestReplaceIdentifier_WordBoundarySafety(t *testing.T) {
	in := "getline(x); magic_getline_impl(x); txGetLine0 = getline;"
	got := replaceIdentifier(in, "getline", "txGetLine")
	want := "txGetLine(x); magic_getline_impl(x); txGetLine0 = txGetLine;"
	if got != want {
		t.Errorf("replaceIdentifier = %q, want %q", got, want)
	}
}

func TestApplyPatch_HeaderInjectionGoesToTop(t *testing.T) {
	dir := t.TempDir()
	p := findPatch(t, "resis-incomplete-types")
	path := writeTarget(t, dir, p, resisSample)

	res, err := applyPatch(dir, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != PatchApplied {
		t.Fatalf("outcome = %s, want applied", res.Outcome)
	}

	out, _ := os.ReadFile(path)
	content := string(out)
	if !strings.HasPrefix(content, `#include "utils/magic.h"`) {
		t.Errorf("includes not injected at top:\n%s", content)
	}
	// Every injected header must appear before the first prototype.
	protoIdx := strings.Index(content, "ResReadSim")
	for _, h := range resisIncludes {
		idx := strings.Index(content, h)
		if idx < 0 || idx > protoIdx {
			t.Errorf("header %s not ahead of prototypes", h)
		}
	}
}

func TestApplyPatch_CompoundIsAtomic(t *testing.T) {
	dir := t.TempDir()
	p := findPatch(t, "txinput-legacy-io")
	path := writeTarget(t, dir, p, txInputSample)

	res, err := applyPatch(dir, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != PatchApplied {
		t.Fatalf("outcome = %s, want applied", res.Outcome)
	}

	out, _ := os.ReadFile(path)
	content := string(out)
	if !strings.HasPrefix(content, "#include <stdlib.h>") {
		t.Error("stdlib.h not injected at top")
	}
	if strings.Contains(content, "extern char *getenv();") {
		t.Error("legacy getenv extern survived")
	}
	if containsIdentifier(content, "getline") {
		t.Error("bare getline survived the rename")
	}
	if !strings.Contains(content, "txGetLine(line, sizeof line)") {
		t.Error("call site not renamed")
	}
	// The unrelated identifier embedding the old name stays untouched.
	if !strings.Contains(content, "magic_getline_impl(line)") {
		t.Error("embedded identifier was rewritten")
	}
}

func TestApplyPatch_Idempotent(t *testing.T) {
	for _, p := range magicPatches {
		dir := t.TempDir()
		var sample string
		switch p.ID {
		case "resis-incomplete-types":
			sample = resisSample
		case "txinput-legacy-io":
			sample = txInputSample
		default:
			t.Fatalf("no sample content for patch %s", p.ID)
		}
		path := writeTarget(t, dir, p, sample)

		if _, err := applyPatch(dir, p); err != nil {
			t.Fatalf("%s: first apply: %v", p.ID, err)
		}
		first, _ := os.ReadFile(path)

		res, err := applyPatch(dir, p)
		if err != nil {
			t.Fatalf("%s: second apply: %v", p.ID, err)
		}
		if res.Outcome != PatchAlreadyApplied {
			t.Errorf("%s: second apply outcome = %s, want already applied", p.ID, res.Outcome)
		}
		second, _ := os.ReadFile(path)
		if string(first) != string(second) {
			t.Errorf("%s: second apply mutated the file", p.ID)
		}
	}
}

func TestApplyPatch_TargetMissingIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	res, err := applyPatch(dir, findPatch(t, "txinput-legacy-io"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != PatchTargetMissing {
		t.Fatalf("outcome = %s, want target missing", res.Outcome)
	}
}

func TestApplyPatch_NotApplicableIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	p := findPatch(t, "txinput-legacy-io")
	writeTarget(t, dir, p, "int TxDispatch() { return magic_getline_impl(0); }\n")

	res, err := applyPatch(dir, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != PatchNotApplicable {
		t.Fatalf("outcome = %s, want not applicable", res.Outcome)
	}
}

func TestApplyPatch_HandEditedConflictIsFatal(t *testing.T) {
	dir := t.TempDir()
	p := findPatch(t, "txinput-legacy-io")
	// Marker present AND the offending pattern still present: a state
	// the engine refuses to interpret.
	writeTarget(t, dir, p, "char *txGetLine();\nchar *getline();\n")

	_, err := applyPatch(dir, p)
	var perr *PatchError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PatchError, got %v", err)
	}
	if perr.ID != p.ID {
		t.Errorf("error tagged with %q, want %q", perr.ID, p.ID)
	}
}

func TestWritePatchManifest_DetectsMutations(t *testing.T) {
	dir := t.TempDir()
	for _, p := range magicPatches {
		switch p.ID {
		case "resis-incomplete-types":
			writeTarget(t, dir, p, resisSample)
		case "txinput-legacy-io":
			writeTarget(t, dir, p, txInputSample)
		}
	}

	if _, err := applyPatches(dir, magicPatches); err != nil {
		t.Fatalf("applyPatches: %v", err)
	}
	changed, err := writePatchManifest(dir, magicPatches)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if !changed {
		t.Error("first manifest should report changes")
	}

	// Nothing touched since: a rerun reports a clean tree.
	if _, err := applyPatches(dir, magicPatches); err != nil {
		t.Fatalf("applyPatches rerun: %v", err)
	}
	changed, err = writePatchManifest(dir, magicPatches)
	if err != nil {
		t.Fatalf("manifest rerun: %v", err)
	}
	if changed {
		t.Error("rerun over patched tree should report no changes")
	}
}
