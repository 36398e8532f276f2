package magus

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the merged configuration for a run. Values carries the raw
// KEY=VALUE pairs from /etc/magus.conf plus MAGUS_* environment overrides;
// the typed fields are resolved once by initConfig. Explicit CLI flags are
// applied last by the command handlers and always win.
type Config struct {
	Values map[string]string

	Prefix      string // installation prefix, e.g. /usr/local
	WorkDir     string // git working copy of the magic sources
	Revision    string // explicit revision request, empty = resolver decides
	Compiler    string // compiler to probe, normally gcc
	SkipDeps    bool
	SkipPatches bool
}

// Load /etc/magus.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge MAGUS_* env overrides
	mergeEnvOverrides(cfg)

	// Ensure TMPDIR has a default
	if tmp := cfg.Values["TMPDIR"]; tmp == "" {
		cfg.Values["TMPDIR"] = "/tmp"
	}

	return cfg, nil
}

// Merge MAGUS_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MAGUS_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	CacheDir = cfg.Values["MAGUS_CACHE_DIR"]
	if CacheDir == "" {
		CacheDir = "/var/cache/magus"
	}
	SourcesDir = filepath.Join(CacheDir, "sources")
	LogsDir = filepath.Join(CacheDir, "logs")

	Prefix = cfg.Values["MAGUS_PREFIX"]
	if Prefix == "" {
		Prefix = "/usr/local"
	}

	WorkDir = cfg.Values["MAGUS_WORKDIR"]
	if WorkDir == "" {
		WorkDir = filepath.Join(SourcesDir, "magic")
	}

	Compiler = cfg.Values["MAGUS_CC"]
	if Compiler == "" {
		Compiler = "gcc"
	}

	Debug = cfg.Values["MAGUS_DEBUG"] == "1"

	cfg.Prefix = Prefix
	cfg.WorkDir = WorkDir
	cfg.Revision = cfg.Values["MAGUS_REV"]
	cfg.Compiler = Compiler
}
