package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"guardlint/internal/guard"
)

const configFileName = "guardlint.toml"

type toolConfig struct {
	Path   string
	Root   string
	Guard  guardConfig `toml:"guard"`
	CacheC cacheConfig `toml:"cache"`
}

type guardConfig struct {
	HeaderSuffixes []string `toml:"header_suffixes"`
	StripPrefixes  []string `toml:"strip_prefixes"`
	// ExcludeFix lists path globs (slash-separated, path.Match syntax)
	// whose guards are reported but never offered a fix.
	ExcludeFix []string `toml:"exclude_fix"`
}

type cacheConfig struct {
	Enabled bool `toml:"enabled"`
}

func findConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadToolConfig walks upward from startDir looking for guardlint.toml.
// A missing file is not an error; the zero config is returned.
func loadToolConfig(startDir string) (*toolConfig, error) {
	configPath, ok, err := findConfigFile(startDir)
	if err != nil {
		return nil, err
	}
	cfg := &toolConfig{}
	if !ok {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", configPath, err)
	}
	for _, glob := range cfg.Guard.ExcludeFix {
		if _, err := path.Match(glob, "sample.h"); err != nil {
			return nil, fmt.Errorf("%s: bad exclude_fix pattern %q: %w", configPath, glob, err)
		}
	}
	cfg.Path = configPath
	cfg.Root = filepath.Dir(configPath)
	return cfg, nil
}

// policy translates the decoded config into a guard policy. Absent fields
// keep their defaults.
func (c *toolConfig) policy() *guard.Policy {
	p := guard.DefaultPolicy()
	if len(c.Guard.HeaderSuffixes) > 0 {
		p.HeaderSuffixes = append([]string(nil), c.Guard.HeaderSuffixes...)
	}
	if len(c.Guard.StripPrefixes) > 0 {
		p.Style.StripPrefixes = append([]string(nil), c.Guard.StripPrefixes...)
	}
	if len(c.Guard.ExcludeFix) > 0 {
		globs := append([]string(nil), c.Guard.ExcludeFix...)
		p.FixGuard = func(filePath string) bool {
			clean := guard.CleanPath(filepath.ToSlash(filePath))
			for _, glob := range globs {
				if ok, _ := path.Match(glob, clean); ok {
					return false
				}
				if ok, _ := path.Match(glob, path.Base(clean)); ok {
					return false
				}
			}
			return true
		}
	}
	return p
}

// cacheSalt folds the effective policy configuration into a string so
// cached verdicts from a different configuration never apply.
func (c *toolConfig) cacheSalt() string {
	var b strings.Builder
	b.WriteString("suffixes=")
	b.WriteString(strings.Join(c.Guard.HeaderSuffixes, ","))
	b.WriteString(";prefixes=")
	b.WriteString(strings.Join(c.Guard.StripPrefixes, ","))
	b.WriteString(";exclude=")
	b.WriteString(strings.Join(c.Guard.ExcludeFix, ","))
	return b.String()
}
