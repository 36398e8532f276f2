package magus

import (
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner abstracts the external processes the pipeline shells out to
// (git, the compiler probe, configure/make, apt-get) so the pipeline
// logic can be exercised in tests without network or compiler access.
type Runner interface {
	// Output runs name in dir and returns its combined stdout.
	Output(dir, name string, args ...string) (string, error)
	// Run runs name in dir as the invoking user, inheriting stdio.
	Run(dir, name string, args ...string) error
	// RunRoot runs name in dir with root privileges.
	RunRoot(dir, name string, args ...string) error
	// RunLogged runs name in dir and streams combined output to log.
	RunLogged(dir string, log io.Writer, name string, args ...string) error
	// LookPath resolves name against the current search path.
	LookPath(name string) (string, error)
}

// systemRunner is the real Runner, built on the user/root Executors.
type systemRunner struct {
	user *Executor
	root *Executor
}

func newSystemRunner(user, root *Executor) *systemRunner {
	return &systemRunner{user: user, root: root}
}

func (r *systemRunner) Output(dir, name string, args ...string) (string, error) {
	var out strings.Builder
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := r.user.Run(cmd); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}

func (r *systemRunner) Run(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if !Verbose && !Debug {
		cmd.Stdout = io.Discard
	}
	return r.user.Run(cmd)
}

func (r *systemRunner) RunRoot(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return r.root.Run(cmd)
}

func (r *systemRunner) RunLogged(dir string, log io.Writer, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var w io.Writer = log
	if Verbose || Debug {
		w = io.MultiWriter(os.Stdout, log)
	}
	cmd.Stdout = w
	cmd.Stderr = w
	// Keep stdin detached; build tools must never prompt mid-phase.
	cmd.Stdin = strings.NewReader("")
	return r.user.Run(cmd)
}

func (r *systemRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
