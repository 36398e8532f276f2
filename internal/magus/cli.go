package magus

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: magus <command> [arguments]")
	fmt.Println()
	color.Info.Println("Available Commands:")

	cmds := []struct {
		Cmd  string
		Desc string
	}{
		{"install, i [options]", "Fetch, patch, build and install magic"},
		{"probe", "Show the detected host compiler version"},
		{"plan [-r rev]", "Show the flags and revision a run would use"},
		{"deps", "Install build dependencies only"},
		{"verify", "Check that magic is on the search path"},
		{"log", "View the most recent build log"},
		{"version, --version", "Version information"},
	}
	for _, c := range cmds {
		fmt.Print("  ")
		color.Bold.Printf("%-24s", c.Cmd)
		color.Info.Println(c.Desc)
	}

	fmt.Println()
	color.Info.Println("Install options:")
	fmt.Println("  -p <prefix>     Installation prefix (default /usr/local)")
	fmt.Println("  -w <dir>        Working copy directory")
	fmt.Println("  -r <revision>   Build this exact revision")
	fmt.Println("  -skip-deps      Skip dependency installation")
	fmt.Println("  -skip-patches   Skip source patching")
	fmt.Println("  -v              Verbose build output")
	fmt.Println()
	color.Info.Println("MAGUS_PREFIX, MAGUS_WORKDIR and MAGUS_REV override the")
	color.Info.Println("defaults; explicit flags override the environment.")
}

func printVersion() {
	colSuccess.Printf("magus %s (%s)\n", version, arch)
	cPrintf(colInfo, "built %s\n", buildDate)
}

// installFlags parses the install command's flag set into cfg.
// Flags beat environment, environment beats /etc/magus.conf.
func installFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	prefix := fs.String("p", "", "installation prefix")
	workDir := fs.String("w", "", "working copy directory")
	rev := fs.String("r", "", "explicit revision to build")
	skipDeps := fs.Bool("skip-deps", false, "skip dependency installation")
	skipPatches := fs.Bool("skip-patches", false, "skip source patching")
	verbose := fs.Bool("v", false, "verbose build output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *prefix != "" {
		cfg.Prefix = *prefix
		Prefix = *prefix
	}
	if *workDir != "" {
		cfg.WorkDir = *workDir
		WorkDir = *workDir
	}
	if *rev != "" {
		cfg.Revision = *rev
	}
	cfg.SkipDeps = *skipDeps
	cfg.SkipPatches = *skipPatches
	if *verbose {
		Verbose = true
	}
	return nil
}

// runInstall drives the whole pipeline and maps the result onto an
// exit code: 0 once the install completed (verification is advisory),
// 1 on the first fatal stage failure.
func runInstall(runner Runner, cfg *Config) int {
	if cfg.SkipDeps {
		cPrintln(colInfo, "Skipping dependency installation on request")
	} else if err := installDeps(runner); err != nil {
		colError.Printf("Dependency installation failed: %v\n", err)
		return 1
	}

	p := newPipeline(runner, cfg)
	if err := p.Run(); err != nil {
		var perr *PipelineError
		if errors.As(err, &perr) {
			colError.Printf("Failed at stage %s: %v\n", perr.Stage, perr.Err)
		} else {
			colError.Printf("Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// Main is the CLI entrypoint for magus.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// First signal cancels the run gracefully: external commands are
	// torn down and the working copy is left wherever it was, which is
	// safe to re-run. A second signal forces an immediate exit.
	go func() {
		select {
		case sig := <-sigs:
			colArrow.Print("\n-> ")
			color.Danger.Printf("Received %v. Cancelling\n", sig)
			cancel()
			select {
			case <-sigs:
				os.Exit(130)
			case <-time.After(2 * time.Second):
				os.Exit(130)
			}
		case <-ctx.Done():
		}
	}()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.Disable()
	}

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	cfg, err := loadConfig(ConfigFile)
	if err != nil {
		cPrintf(colWarn, "Warning: could not read %s: %v\n", ConfigFile, err)
	}
	initConfig(cfg)

	if needsRootPrivileges(os.Args[1:]) {
		if err := authenticateOnce(); err != nil {
			fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
			os.Exit(1)
		}
	}

	UserExec = &Executor{Context: ctx, ShouldRunAsRoot: false}
	RootExec = &Executor{Context: ctx, ShouldRunAsRoot: true}
	runner := newSystemRunner(UserExec, RootExec)

	var exitCode int

	switch os.Args[1] {
	case "install", "i":
		if err := installFlags(cfg, os.Args[2:]); err != nil {
			exitCode = 1
			break
		}
		exitCode = runInstall(runner, cfg)

	case "probe":
		major, err := probeCompiler(runner, cfg.Compiler)
		if err != nil {
			cPrintf(colWarn, "Warning: %v\n", err)
		}
		fmt.Printf("%s major version: %d\n", cfg.Compiler, major)

	case "plan":
		fs := flag.NewFlagSet("plan", flag.ContinueOnError)
		rev := fs.String("r", "", "explicit revision")
		if err := fs.Parse(os.Args[2:]); err != nil {
			exitCode = 1
			break
		}
		explicit := cfg.Revision
		if *rev != "" {
			explicit = *rev
		}
		major, err := probeCompiler(runner, cfg.Compiler)
		if err != nil {
			cPrintf(colWarn, "Warning: %v\n", err)
		}
		plan := resolvePlan(explicit, major)
		fmt.Printf("compiler: %s %d\n", cfg.Compiler, major)
		fmt.Printf("flags:    %v\n", plan.Flags)
		fmt.Printf("revision: %s", plan.Revision)
		if !plan.Pinned() {
			fmt.Print(" (upstream tip)")
		}
		fmt.Println()

	case "deps":
		if err := installDeps(runner); err != nil {
			colError.Printf("Dependency installation failed: %v\n", err)
			exitCode = 1
		}

	case "verify":
		if err := verifyInstall(runner, cfg.Prefix); err != nil {
			cPrintf(colWarn, "%v\n", err)
		}

	case "log":
		if err := showBuildLog(); err != nil {
			colError.Printf("Error: %v\n", err)
			exitCode = 1
		}

	case "version", "--version":
		printVersion()

	case "help", "-h", "--help":
		printHelp()

	default:
		colError.Printf("Unknown command: %s\n", os.Args[1])
		printHelp()
		exitCode = 1
	}

	os.Exit(exitCode)
}
