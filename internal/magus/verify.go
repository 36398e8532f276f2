package magus

import (
	"fmt"
	"path/filepath"
)

// verifyInstall is the advisory post-install check: it reports where
// the magic binary landed, or how to fix PATH if it cannot be found.
// The outcome never gates the pipeline result.
func verifyInstall(r Runner, prefix string) error {
	path, err := r.LookPath("magic")
	if err != nil {
		return fmt.Errorf("%w: add %s to your PATH", ErrVerifierNotFound, filepath.Join(prefix, "bin"))
	}
	colArrow.Print("-> ")
	colSuccess.Printf("magic installed at %s\n", path)
	return nil
}
