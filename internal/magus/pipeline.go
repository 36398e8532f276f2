package magus

import (
	"errors"
	"fmt"
	"runtime"
)

// Stage is the pipeline's single live state. It only ever moves
// forward; a failed run terminates in StageFailed and a new run starts
// over at StageIdle, relying on fetch/patch idempotence to make the
// repetition safe.
type Stage int

const (
	StageIdle Stage = iota
	StageProbed
	StagePlanResolved
	StageFetched
	StagePatched
	StageBuilt
	StageInstalled
	StageVerified
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageProbed:
		return "probed"
	case StagePlanResolved:
		return "plan-resolved"
	case StageFetched:
		return "fetched"
	case StagePatched:
		return "patched"
	case StageBuilt:
		return "built"
	case StageInstalled:
		return "installed"
	case StageVerified:
		return "verified"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// isTerminal reports whether the pipeline is finished.
func (s Stage) isTerminal() bool {
	return s == StageVerified || s == StageFailed
}

// allowedTransition enforces the monotonic forward order. Every stage
// may also fail terminally.
func allowedTransition(from, to Stage) bool {
	if to == StageFailed {
		return !from.isTerminal()
	}
	return to == from+1 && !from.isTerminal()
}

// Pipeline sequences probe, plan, fetch, patch, build, install and
// verify over an explicit state machine. All external processes go
// through the injected Runner.
type Pipeline struct {
	runner    Runner
	cfg       *Config
	stage     Stage
	hostCores int

	// Plan is the immutable decision outcome, populated once the
	// pipeline reaches StagePlanResolved.
	Plan ResolvedPlan
	// Major is the probed compiler major version.
	Major int
	// SourcesChanged reports whether the patch stage mutated any file.
	SourcesChanged bool
}

func newPipeline(r Runner, cfg *Config) *Pipeline {
	return &Pipeline{
		runner:    r,
		cfg:       cfg,
		stage:     StageIdle,
		hostCores: runtime.NumCPU(),
	}
}

// Stage returns the pipeline's current state.
func (p *Pipeline) Stage() Stage { return p.stage }

func (p *Pipeline) advance(to Stage) error {
	if !allowedTransition(p.stage, to) {
		return fmt.Errorf("invalid stage transition %s -> %s", p.stage, to)
	}
	p.stage = to
	debugf("Pipeline stage: %s\n", to)
	return nil
}

// fail terminates the pipeline, tagging the error with the stage that
// was being entered. Completed stages are left as they are: no
// rollback, no cleanup.
func (p *Pipeline) fail(at Stage, err error) error {
	p.stage = StageFailed
	return &PipelineError{Stage: at, Err: err}
}

// Run drives the whole pipeline. It returns nil once the install has
// completed; the verify stage is advisory and cannot fail the run.
func (p *Pipeline) Run() error {
	// Probe. Unavailable is not an error: version 0 means a
	// pre-modern toolchain and the plan falls out accordingly.
	major, err := probeCompiler(p.runner, p.cfg.Compiler)
	if err != nil {
		if !errors.Is(err, errProbeUnavailable) {
			return p.fail(StageProbed, err)
		}
		cPrintf(colWarn, "Warning: %v; assuming a pre-modern toolchain\n", err)
		major = 0
	}
	p.Major = major
	if err := p.advance(StageProbed); err != nil {
		return p.fail(StageProbed, err)
	}
	cPrintf(colInfo, "Detected %s major version %d\n", p.cfg.Compiler, major)

	// Pure decisions, before any I/O.
	p.Plan = resolvePlan(p.cfg.Revision, major)
	if p.Plan.Revision == "" {
		return p.fail(StagePlanResolved, errors.New("resolved plan has empty revision"))
	}
	if err := p.advance(StagePlanResolved); err != nil {
		return p.fail(StagePlanResolved, err)
	}
	cPrintf(colInfo, "Plan: revision %s, flags %v\n", p.Plan.Revision, p.Plan.Flags)

	// One run per working directory. Concurrent runs are unsupported;
	// the lock turns them into an immediate error instead of a
	// corrupted tree.
	release, err := acquireRunLock(p.cfg.WorkDir)
	if err != nil {
		return p.fail(StageFetched, err)
	}
	defer release()

	if err := fetchSource(p.runner, p.cfg.WorkDir, p.Plan); err != nil {
		return p.fail(StageFetched, err)
	}
	if err := p.advance(StageFetched); err != nil {
		return p.fail(StageFetched, err)
	}

	if p.cfg.SkipPatches {
		cPrintln(colInfo, "Skipping source patches on request")
	} else {
		if _, err := applyPatches(p.cfg.WorkDir, magicPatches); err != nil {
			return p.fail(StagePatched, err)
		}
		changed, err := writePatchManifest(p.cfg.WorkDir, magicPatches)
		if err != nil {
			return p.fail(StagePatched, err)
		}
		p.SourcesChanged = changed
		if !changed {
			cPrintln(colInfo, "Sources unchanged since the previous run")
		}
	}
	if err := p.advance(StagePatched); err != nil {
		return p.fail(StagePatched, err)
	}

	log, err := openBuildLog()
	if err != nil {
		return p.fail(StageBuilt, err)
	}
	defer log.finish()

	if err := configureSource(p.runner, log, p.cfg.WorkDir, p.cfg.Prefix, p.Plan.Flags); err != nil {
		return p.fail(StageBuilt, err)
	}
	if err := buildSource(p.runner, log, p.cfg.WorkDir, p.hostCores); err != nil {
		return p.fail(StageBuilt, err)
	}
	if err := p.advance(StageBuilt); err != nil {
		return p.fail(StageBuilt, err)
	}

	if err := installBuild(p.runner, p.cfg.WorkDir); err != nil {
		return p.fail(StageInstalled, err)
	}
	if err := p.advance(StageInstalled); err != nil {
		return p.fail(StageInstalled, err)
	}

	// Advisory only.
	if err := verifyInstall(p.runner, p.cfg.Prefix); err != nil {
		cPrintf(colWarn, "Warning: %v\n", err)
	}
	if err := p.advance(StageVerified); err != nil {
		return p.fail(StageVerified, err)
	}

	colArrow.Print("-> ")
	colSuccess.Println("magic build complete")
	return nil
}
