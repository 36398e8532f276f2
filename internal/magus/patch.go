package magus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Patch is one self-detecting source fix. The engine consults
// AlreadyApplied before anything else, so invoking a patch on content it
// has already transformed is a no-op; Applies then gates whether the
// offending pattern exists in this revision at all. Transform must be a
// pure function of the content.
type Patch struct {
	ID             string
	Target         string // path relative to the working copy
	AlreadyApplied func(content string) bool
	Applies        func(content string) bool
	Transform      func(content string) string
}

// PatchOutcome classifies what happened to a single patch. Everything
// here is non-fatal; fatal conditions are returned as *PatchError.
type PatchOutcome int

const (
	PatchApplied PatchOutcome = iota
	PatchAlreadyApplied
	PatchNotApplicable
	PatchTargetMissing
)

func (o PatchOutcome) String() string {
	switch o {
	case PatchApplied:
		return "applied"
	case PatchAlreadyApplied:
		return "already applied"
	case PatchNotApplicable:
		return "not applicable"
	case PatchTargetMissing:
		return "target missing"
	default:
		return "unknown"
	}
}

// PatchResult records the outcome for one catalog entry.
type PatchResult struct {
	ID      string
	Target  string
	Outcome PatchOutcome
}

// replaceIdentifier substitutes old with new only at word boundaries,
// so a bare symbol name never matches inside a longer identifier that
// embeds it. This is what keeps substitutions safe to re-run: a renamed
// symbol that still contains the old name as a substring is not matched
// again.
func replaceIdentifier(content, old, new string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(old) + `\b`)
	return re.ReplaceAllString(content, new)
}

// containsIdentifier reports whether ident occurs as a whole word.
func containsIdentifier(content, ident string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(ident) + `\b`)
	return re.MatchString(content)
}

// injectHeaders prepends an include block to the file. Injection goes at
// the very top, ahead of all existing content: a struct name first seen
// inside a parameter list declares an incomplete type local to that
// declaration, so the defining header must be parsed before any
// prototype that mentions the type.
func injectHeaders(content string, headers ...string) string {
	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(content)
	return b.String()
}

// resisIncludes is the include block injected into resis/resis.h so the
// struct types named in its prototypes are complete before use.
var resisIncludes = []string{
	`#include "utils/magic.h"`,
	`#include "utils/geometry.h"`,
	`#include "database/database.h"`,
}

// magicPatches is the ordered catalog of source fixes for the magic
// codebase on modern toolchains. Patches are opportunistic: a revision
// that no longer carries the offending pattern is simply skipped.
var magicPatches = []Patch{
	{
		// resis.h declares functions taking CellUse and Rect pointers
		// before either struct is defined. Compilers that default to
		// C23 reject the resulting incomplete-type usage, so the
		// defining headers are hoisted above every prototype.
		ID:     "resis-incomplete-types",
		Target: "resis/resis.h",
		AlreadyApplied: func(content string) bool {
			return strings.HasPrefix(content, resisIncludes[0])
		},
		Applies: func(content string) bool {
			// The injected block is also the applied marker, so its
			// presence disqualifies the file even when the struct
			// names still occur (they always will).
			if strings.HasPrefix(content, resisIncludes[0]) {
				return false
			}
			return containsIdentifier(content, "CellUse") ||
				containsIdentifier(content, "Rect")
		},
		Transform: func(content string) string {
			return injectHeaders(content, resisIncludes...)
		},
	},
	{
		// txInput.c defines its own getline, which collides with the
		// POSIX declaration pulled in by modern libc headers, and
		// carries a K&R-style extern for getenv. One marker
		// (txGetLine) covers the whole compound fix: the rename, the
		// dropped extern and the stdlib.h injection happen together
		// or not at all.
		ID:     "txinput-legacy-io",
		Target: "textio/txInput.c",
		AlreadyApplied: func(content string) bool {
			return containsIdentifier(content, "txGetLine")
		},
		Applies: func(content string) bool {
			return containsIdentifier(content, "getline")
		},
		Transform: func(content string) string {
			out := replaceIdentifier(content, "getline", "txGetLine")
			out = strings.ReplaceAll(out, "extern char *getenv();\n", "")
			return injectHeaders(out, "#include <stdlib.h>")
		},
	},
}

// applyPatch runs one patch against the working copy.
func applyPatch(workDir string, p Patch) (PatchResult, error) {
	res := PatchResult{ID: p.ID, Target: p.Target}
	path := filepath.Join(workDir, p.Target)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		res.Outcome = PatchTargetMissing
		return res, nil
	}
	if err != nil {
		return res, &PatchError{ID: p.ID, Err: err}
	}
	content := string(raw)

	if p.AlreadyApplied(content) {
		// A file that carries the applied marker but still matches the
		// offending pattern has been edited by hand into a state we
		// cannot reason about. Refuse rather than guess.
		if p.Applies(content) {
			return res, &PatchError{
				ID:  p.ID,
				Err: fmt.Errorf("%s matches both applied and unapplied patterns", p.Target),
			}
		}
		res.Outcome = PatchAlreadyApplied
		return res, nil
	}

	if !p.Applies(content) {
		res.Outcome = PatchNotApplicable
		return res, nil
	}

	transformed := p.Transform(content)

	info, err := os.Stat(path)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(transformed), mode); err != nil {
		return res, &PatchError{ID: p.ID, Err: err}
	}
	res.Outcome = PatchApplied
	return res, nil
}

// applyPatches runs the full catalog in order and reports per-patch
// outcomes. Only persist failures and hand-edit conflicts abort; every
// other condition is logged and skipped.
func applyPatches(workDir string, catalog []Patch) ([]PatchResult, error) {
	results := make([]PatchResult, 0, len(catalog))
	for _, p := range catalog {
		res, err := applyPatch(workDir, p)
		if err != nil {
			return results, err
		}
		switch res.Outcome {
		case PatchApplied:
			colArrow.Print("-> ")
			colSuccess.Printf("Patched %s (%s)\n", res.Target, res.ID)
		case PatchAlreadyApplied:
			cPrintf(colInfo, "Patch %s already applied, skipping\n", res.ID)
		case PatchNotApplicable:
			cPrintf(colInfo, "Patch %s not applicable to this revision, skipping\n", res.ID)
		case PatchTargetMissing:
			cPrintf(colWarn, "Patch %s: target %s does not exist, skipping\n", res.ID, res.Target)
		}
		results = append(results, res)
	}
	return results, nil
}

// patchManifest is the state file the engine leaves in the working copy
// so a repeated run can prove it changed nothing.
const patchManifest = ".magus-patches"

// writePatchManifest hashes every patch target that exists and writes
// the manifest. It returns true when the hashes differ from the
// previous manifest, i.e. when this run actually mutated something.
func writePatchManifest(workDir string, catalog []Patch) (bool, error) {
	var b strings.Builder
	for _, p := range catalog {
		raw, err := os.ReadFile(filepath.Join(workDir, p.Target))
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\n", p.ID, hashContent(raw))
	}
	manifest := b.String()

	path := filepath.Join(workDir, patchManifest)
	prev, err := os.ReadFile(path)
	changed := err != nil || string(prev) != manifest

	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		return changed, fmt.Errorf("failed to write patch manifest: %w", err)
	}
	return changed, nil
}
