package magus

import (
	"fmt"
	"runtime"

	"github.com/gookit/color"
)

// Global variables
var (
	ConfigFile = "/etc/magus.conf"
	CacheDir   string
	SourcesDir string
	LogsDir    string
	WorkDir    string
	Prefix     string
	Compiler   string
	Debug      bool
	Verbose    bool
	version    = "dev" // overridden at build time
	arch       = runtime.GOARCH
	buildDate  = "unknown" // overridden at build time
	// Global executors (assigned in Main)
	UserExec *Executor
	RootExec *Executor
)

// Upstream source location for the Magic layout editor. Fixed; the
// fetcher never reads it from configuration.
const magicUpstream = "https://github.com/RTimothyEdwards/magic.git"

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)

// color-compatible printer interface (works with *color.Theme and *color.Style)
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints with a colored style or falls back to fmt.Printf when nil
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// cPrintln prints a line with the given style or falls back to fmt.Println when nil
func cPrintln(p colorPrinter, a ...any) {
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}
