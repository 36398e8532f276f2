package magus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

// buildJobs returns the make job count for the magic build. The build
// system generates shared intermediate files (database/database.h among
// them) that are silently corrupted by parallel make, so the answer is
// always 1 no matter how many cores the host has. This is a safety
// invariant, not a default.
func buildJobs(hostCores int) int {
	_ = hostCores
	return 1
}

// buildLog captures configure/make output to a file and compresses it
// into the log directory when the build finishes, success or not.
type buildLog struct {
	file *os.File
	path string
}

func openBuildLog() (*buildLog, error) {
	dir := LogsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		// Not fatal: fall back to the scratch directory rather than
		// losing the build output entirely.
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "magic-build.log")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create build log: %w", err)
	}
	return &buildLog{file: f, path: path}, nil
}

// archivedLogPath is where the compressed log of the most recent build
// lives; `magus log` reads it back.
func archivedLogPath() string {
	return filepath.Join(LogsDir, "magic-build.log.xz")
}

// finish flushes the log and compresses it to magic-build.log.xz,
// replacing the previous archive. The plain file is removed on success.
func (l *buildLog) finish() {
	l.file.Close()

	src, err := os.Open(l.path)
	if err != nil {
		return
	}
	defer src.Close()

	dest, err := os.Create(filepath.Join(filepath.Dir(l.path), "magic-build.log.xz"))
	if err != nil {
		return
	}
	defer dest.Close()

	xzWriter, err := xz.NewWriter(dest)
	if err != nil {
		return
	}
	if _, err := io.Copy(xzWriter, src); err != nil {
		xzWriter.Close()
		return
	}
	xzWriter.Close()
	os.Remove(l.path)
}

// runPhase executes one build phase with a spinner on the console while
// the full output streams to the log file.
func runPhase(r Runner, log *buildLog, phase, dir string, name string, args ...string) error {
	done := make(chan struct{})
	if !Verbose && !Debug {
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(phase),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		go func() {
			ticker := time.NewTicker(120 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					bar.Add(1)
				case <-done:
					bar.Finish()
					return
				}
			}
		}()
	}

	fmt.Fprintf(log.file, "==> %s: %s %v\n", phase, name, args)
	err := r.RunLogged(dir, log.file, name, args...)
	close(done)
	if err != nil {
		return &PhaseError{Phase: phase, Err: err}
	}
	return nil
}

// configureSource runs magic's own configure with the chosen prefix and
// the compatibility flags folded into CFLAGS. autoconf accepts
// VAR=VALUE assignments as arguments, which keeps the flag handling out
// of the process environment.
func configureSource(r Runner, log *buildLog, workDir, prefix string, flags []string) error {
	args := []string{"--prefix=" + prefix}
	if len(flags) > 0 {
		cflags := "-O2"
		for _, f := range flags {
			cflags += " " + f
		}
		args = append(args, "CFLAGS="+cflags)
	}
	colArrow.Print("-> ")
	colSuccess.Printf("Configuring magic (prefix %s)\n", prefix)
	return runPhase(r, log, "configure", workDir, "./configure", args...)
}

// buildSource compiles the tree, always serially.
func buildSource(r Runner, log *buildLog, workDir string, hostCores int) error {
	colArrow.Print("-> ")
	colSuccess.Println("Building magic (serial make)")
	jobs := fmt.Sprintf("-j%d", buildJobs(hostCores))
	return runPhase(r, log, "build", workDir, "make", jobs)
}

// installBuild installs the built tree; this is the one phase that
// needs elevated privilege.
func installBuild(r Runner, workDir string) error {
	colArrow.Print("-> ")
	colSuccess.Println("Installing magic")
	if err := r.RunRoot(workDir, "make", "install"); err != nil {
		return &PhaseError{Phase: "install", Err: err}
	}
	return nil
}
