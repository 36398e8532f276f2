package magus

import (
	"errors"
	"io"
	"strings"
)

// fakeRunner records every external command instead of executing it,
// so pipeline logic can be tested without git, a compiler or network.
type fakeRunner struct {
	calls   []string
	outputs map[string]string // exact command line -> stdout
	failOn  map[string]error  // exact command line -> error
	paths   map[string]string // LookPath results
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string]string),
		failOn:  make(map[string]error),
		paths:   make(map[string]string),
	}
}

func cmdline(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func (f *fakeRunner) record(name string, args ...string) string {
	line := cmdline(name, args...)
	f.calls = append(f.calls, line)
	return line
}

func (f *fakeRunner) Output(dir, name string, args ...string) (string, error) {
	line := f.record(name, args...)
	if err, ok := f.failOn[line]; ok {
		return "", err
	}
	return f.outputs[line], nil
}

func (f *fakeRunner) Run(dir, name string, args ...string) error {
	line := f.record(name, args...)
	return f.failOn[line]
}

func (f *fakeRunner) RunRoot(dir, name string, args ...string) error {
	line := f.record(name, args...)
	return f.failOn[line]
}

func (f *fakeRunner) RunLogged(dir string, log io.Writer, name string, args ...string) error {
	line := f.record(name, args...)
	io.WriteString(log, line+"\n")
	return f.failOn[line]
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if p, ok := f.paths[name]; ok {
		return p, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

// called reports whether any recorded command starts with prefix.
func (f *fakeRunner) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// countCalls returns how many recorded commands start with prefix.
func (f *fakeRunner) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
