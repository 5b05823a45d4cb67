package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"guardlint/internal/checkpipeline"
	"guardlint/internal/diagfmt"
	"guardlint/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file|directory>",
	Short: "Check header guards in a translation unit or directory",
	Long:  `Preprocess the given translation unit (or every unit root under a directory) and report header guard findings`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("disk-cache", false, "skip clean units whose files have not changed")
	checkCmd.Flags().Int("max-include-depth", 0, "include nesting cap (0=default)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	cfg, err := buildDriverConfig(cmd, targetPath)
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	prettyOpts := diagfmt.PrettyOpts{
		Color:     useColor,
		Context:   2,
		PathMode:  pathMode,
		ShowNotes: withNotes,
		ShowFixes: suggest,
	}
	jsonOpts := diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         pathMode,
		IncludeNotes:     withNotes,
		IncludeFixes:     suggest,
	}

	st, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	var results []*driver.UnitResult
	if st.IsDir() {
		results, err = runCheckDir(cmd, targetPath, cfg)
	} else {
		var result *driver.UnitResult
		result, err = driver.CheckUnitCached(targetPath, cfg)
		if result != nil {
			results = []*driver.UnitResult{result}
		}
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	findings := 0
	for _, r := range results {
		findings += r.Bag.Len()
	}

	switch format {
	case "pretty":
		printed := false
		for _, r := range results {
			if r.Bag.Len() == 0 {
				continue
			}
			if printed {
				fmt.Fprintln(os.Stdout)
			}
			if st.IsDir() {
				fmt.Fprintf(os.Stdout, "== %s ==\n", r.Path)
			}
			diagfmt.Pretty(os.Stdout, r.Bag, r.FileSet, prettyOpts)
			printed = true
		}
		quiet, qErr := cmd.Root().PersistentFlags().GetBool("quiet")
		if qErr != nil {
			return qErr
		}
		if !quiet {
			fmt.Fprintf(os.Stdout, "%d unit(s) checked, %d finding(s)\n", len(results), findings)
		}
	case "json":
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for _, r := range results {
			output[r.Path] = diagfmt.BuildDiagnosticsOutput(r.Bag, r.FileSet, jsonOpts)
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	}

	if findings > 0 {
		// Suppress cobra usage output; findings were already printed.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

func runCheckDir(cmd *cobra.Command, dir string, cfg driver.Config) ([]*driver.UnitResult, error) {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return nil, err
	}

	if shouldUseTUI(mode) {
		return runCheckDirWithUI(cmd.Context(), dir, cfg, jobs)
	}
	return driver.CheckDir(cmd.Context(), dir, cfg, jobs, checkpipeline.NopSink{})
}

// nameRootFor picks the directory guard names are derived relative to:
// the directory holding guardlint.toml when one anchors the project,
// otherwise the target directory itself. A bare file target without a
// config derives from the path as given.
func nameRootFor(toolCfg *toolConfig, targetPath string) string {
	if toolCfg.Root != "" {
		return filepath.ToSlash(toolCfg.Root)
	}
	if st, err := os.Stat(targetPath); err == nil && st.IsDir() {
		return filepath.ToSlash(filepath.Clean(targetPath))
	}
	return ""
}

// buildDriverConfig merges guardlint.toml (discovered upward from the
// target) with command-line flags into the per-run driver configuration.
func buildDriverConfig(cmd *cobra.Command, targetPath string) (driver.Config, error) {
	startDir := targetPath
	if st, err := os.Stat(targetPath); err == nil && !st.IsDir() {
		startDir = "."
	}
	toolCfg, err := loadToolConfig(startDir)
	if err != nil {
		return driver.Config{}, err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Config{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	policy := toolCfg.policy()
	policy.NameRoot = nameRootFor(toolCfg, targetPath)

	cfg := driver.Config{
		Policy:         policy,
		MaxDiagnostics: maxDiagnostics,
		CacheSalt:      toolCfg.cacheSalt(),
	}

	if cmd.Flags().Lookup("max-include-depth") != nil {
		depth, err := cmd.Flags().GetInt("max-include-depth")
		if err != nil {
			return driver.Config{}, fmt.Errorf("failed to get max-include-depth flag: %w", err)
		}
		cfg.PP.MaxIncludeDepth = depth
	}

	useCache := toolCfg.CacheC.Enabled
	if cmd.Flags().Lookup("disk-cache") != nil {
		flagCache, err := cmd.Flags().GetBool("disk-cache")
		if err != nil {
			return driver.Config{}, fmt.Errorf("failed to get disk-cache flag: %w", err)
		}
		useCache = useCache || flagCache
	}
	if useCache {
		cache, err := driver.OpenCache("guardlint")
		if err != nil {
			return driver.Config{}, fmt.Errorf("failed to open disk cache: %w", err)
		}
		cfg.Cache = cache
	}
	return cfg, nil
}
