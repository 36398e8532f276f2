package magus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionRe pulls the first dotted version number out of a --version
// banner, e.g. "gcc (Debian 14.2.0-3) 14.2.0".
var versionRe = regexp.MustCompile(`(\d+)\.\d+(\.\d+)?`)

// probeCompiler queries the host compiler for its major version. The
// probe is purely informational: when the compiler is missing or the
// output cannot be parsed it returns 0 with a wrapped
// errProbeUnavailable, and downstream decisions treat 0 as a
// pre-modern toolchain (no extra flags, unpinned revision).
func probeCompiler(r Runner, compiler string) (int, error) {
	// -dumpfullversion is the stable machine-readable interface on
	// gcc >= 7; -dumpversion alone may be truncated to the major on
	// some distributions, which is still all we need.
	out, err := r.Output("", compiler, "-dumpfullversion", "-dumpversion")
	if err != nil {
		// Older compilers reject -dumpfullversion; fall back to the
		// human banner.
		out, err = r.Output("", compiler, "--version")
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", errProbeUnavailable, compiler, err)
		}
	}

	major, ok := parseMajorVersion(out)
	if !ok {
		return 0, fmt.Errorf("%w: cannot parse %q", errProbeUnavailable, firstLine(out))
	}
	return major, nil
}

// parseMajorVersion extracts the leading major version from compiler
// output, accepting both bare "14.2.0" and full --version banners.
func parseMajorVersion(out string) (int, bool) {
	first := firstLine(out)

	// Bare dotted or single-number output from -dumpversion.
	fields := strings.Fields(first)
	if len(fields) == 1 {
		tok := fields[0]
		if i := strings.IndexByte(tok, '.'); i > 0 {
			tok = tok[:i]
		}
		if n, err := strconv.Atoi(tok); err == nil && n >= 0 {
			return n, true
		}
	}

	// Banner output: find the first dotted version anywhere on the line.
	if m := versionRe.FindStringSubmatch(first); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
