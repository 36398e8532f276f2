package magus

import (
	"fmt"
	"os"
	"os/exec"
	"time"
)

// needsRootPrivileges checks if the requested command requires root
func needsRootPrivileges(args []string) bool {
	if len(args) < 1 {
		return false
	}

	// install needs root for `make install`; deps drives the OS
	// package manager.
	switch args[0] {
	case "install", "i", "deps":
		return true
	}
	return false
}

// authenticateOnce performs a single authentication check at program start
func authenticateOnce() error {
	if os.Geteuid() == 0 {
		return nil // Already root
	}

	cmd := exec.Command("sudo", "-v")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sudo authentication failed: %w", err)
	}

	// Keep the ticket alive for long builds.
	go func() {
		ticker := time.NewTicker(4 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			exec.Command("sudo", "-nv").Run()
		}
	}()

	colArrow.Print("-> ")
	colSuccess.Println("Authenticated via sudo")
	return nil
}
