package magus

import (
	"fmt"
	"os"
	"path/filepath"
)

// fetchSource ensures a working copy of the magic sources exists in
// workDir and is positioned at the plan's revision.
//
// An existing working copy is refreshed in place: remote refs are
// updated, the upstream branch is checked out and fast-forwarded, and
// only then is a pinned revision checked out. A missing working copy is
// cloned from the fixed upstream. Both paths are idempotent, so an
// interrupted run can simply be repeated.
//
// Network and authentication failures are fatal FetchErrors. A pinned
// revision the remote has never heard of is reported as
// ErrUnknownRevision instead, so a typo is not mistaken for an outage.
func fetchSource(r Runner, workDir string, plan ResolvedPlan) error {
	if _, err := os.Stat(filepath.Join(workDir, ".git")); err == nil {
		cPrintf(colInfo, "Updating working copy in %s\n", workDir)
		if err := r.Run(workDir, "git", "fetch", "origin"); err != nil {
			return &FetchError{Op: "fetch", Err: err}
		}
		if err := r.Run(workDir, "git", "checkout", trackUpstream); err != nil {
			return &FetchError{Op: "checkout " + trackUpstream, Err: err}
		}
		if err := r.Run(workDir, "git", "pull", "--ff-only", "origin", trackUpstream); err != nil {
			return &FetchError{Op: "pull", Err: err}
		}
	} else {
		colArrow.Print("-> ")
		colSuccess.Printf("Cloning %s\n", magicUpstream)
		if err := os.MkdirAll(filepath.Dir(workDir), 0o755); err != nil {
			return &FetchError{Op: "clone", Err: err}
		}
		if err := r.Run("", "git", "clone", magicUpstream, workDir); err != nil {
			return &FetchError{Op: "clone", Err: err}
		}
	}

	// Checking out a tag detaches HEAD; that is expected, not advice-worthy.
	_ = r.Run(workDir, "git", "config", "advice.detachedHead", "false")

	if !plan.Pinned() {
		return nil
	}

	// The remote refs are fresh at this point, so a revision that fails
	// to resolve locally is unknown to the remote, not a network issue.
	if err := r.Run(workDir, "git", "rev-parse", "--verify", "--quiet", plan.Revision+"^{commit}"); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownRevision, plan.Revision)
	}
	if err := r.Run(workDir, "git", "checkout", plan.Revision); err != nil {
		return &FetchError{Op: "checkout " + plan.Revision, Err: err}
	}
	debugf("Working copy pinned at %s\n", plan.Revision)
	return nil
}
