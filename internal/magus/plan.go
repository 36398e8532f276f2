package magus

// The magic codebase predates C99: it declares functions with empty
// parameter lists and then calls them with arguments, and it typedefs
// its own `bool`. gcc 14 switched the default language mode to C23,
// which rejects both. Pinning gnu17 restores the old interpretation.
const legacyStdFlag = "-std=gnu17"

// modernCompilerMajor is the first gcc major whose defaults break the
// magic sources.
const modernCompilerMajor = 14

// knownGoodTag is the pinned magic release verified to build cleanly
// with legacyStdFlag on modern toolchains.
const knownGoodTag = "8.3.489"

// trackUpstream is the mutable-branch sentinel: follow the tip of the
// project's default branch instead of a pinned tag.
const trackUpstream = "master"

// ResolvedPlan is the immutable outcome of the pure decision stage,
// computed from the toolchain probe before any I/O happens.
type ResolvedPlan struct {
	Flags    []string
	Revision string
}

// Pinned reports whether the plan names a concrete revision rather than
// the mutable upstream branch.
func (p ResolvedPlan) Pinned() bool {
	return p.Revision != trackUpstream
}

// selectFlags maps a compiler major version to the compatibility flags
// the build needs. Deterministic, no I/O.
func selectFlags(major int) []string {
	if major >= modernCompilerMajor {
		return []string{legacyStdFlag}
	}
	return nil
}

// resolveRevision decides which source revision to build. An explicit
// request always wins, regardless of toolchain. Otherwise a modern
// compiler gets the pinned known-good tag (chosen to interact minimally
// with the std-flag workaround) and everything else tracks upstream.
func resolveRevision(explicit string, major int) string {
	if explicit != "" {
		return explicit
	}
	if major >= modernCompilerMajor {
		return knownGoodTag
	}
	return trackUpstream
}

// resolvePlan combines both pure decisions.
func resolvePlan(explicit string, major int) ResolvedPlan {
	return ResolvedPlan{
		Flags:    selectFlags(major),
		Revision: resolveRevision(explicit, major),
	}
}
