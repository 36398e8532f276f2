package magus

// magicDeps are the build dependencies of the magic tree on Debian
// family systems: Tcl/Tk and X11 for the GUI, cairo and GLU for
// rendering, m4 and the csh variants for the build scripts.
var magicDeps = []string{
	"m4",
	"tcsh",
	"csh",
	"libx11-dev",
	"tcl-dev",
	"tk-dev",
	"libcairo2-dev",
	"mesa-common-dev",
	"libglu1-mesa-dev",
	"libncurses-dev",
}

// installDeps installs the build dependencies through the OS package
// manager. The package manager is an opaque pass/fail collaborator: on
// hosts without apt-get we warn and move on, trusting the operator to
// have installed the equivalents.
func installDeps(r Runner) error {
	if _, err := r.LookPath("apt-get"); err != nil {
		cPrintf(colWarn, "apt-get not found; skipping dependency installation\n")
		return nil
	}
	colArrow.Print("-> ")
	colSuccess.Println("Installing build dependencies")
	args := append([]string{"install", "-y"}, magicDeps...)
	return r.RunRoot("", "apt-get", args...)
}
