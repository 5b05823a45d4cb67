package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"guardlint/internal/checkpipeline"
	"guardlint/internal/driver"
	"guardlint/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file|directory>",
	Short: "Apply available header guard fixes",
	Long:  "Run the checker, surface available fixes, and apply them according to the chosen strategy.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply fix with a specific identifier")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	opts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		DryRun:   dryRun,
	}

	cfg, err := buildDriverConfig(cmd, targetPath)
	if err != nil {
		return err
	}
	// Rewriting files invalidates any cached verdicts anyway.
	cfg.Cache = nil

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	// Fix identifiers are only stable within one unit.
	if info.IsDir() && targetID != "" {
		return fmt.Errorf("fix: --id can only be used with a single file")
	}

	var results []*driver.UnitResult
	if info.IsDir() {
		results, err = driver.CheckDir(cmd.Context(), targetPath, cfg, 0, checkpipeline.NopSink{})
		if err != nil {
			return fmt.Errorf("fix: check dir failed: %w", err)
		}
	} else {
		result, err := driver.CheckUnit(targetPath, cfg)
		if err != nil {
			return fmt.Errorf("fix: check failed: %w", err)
		}
		results = []*driver.UnitResult{result}
	}

	anyApplied := false
	var firstErr error
	for _, r := range results {
		res, applyErr := fix.Apply(r.FileSet, r.Bag.Items(), opts)
		if res != nil && len(res.Applied) > 0 {
			anyApplied = true
		}
		if err := printApplyResult(res, applyErr, false); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}
	if !anyApplied {
		fmt.Fprintln(os.Stdout, "No fixes applied.")
	} else if dryRun {
		fmt.Fprintln(os.Stdout, "Dry run: no files were written.")
	}
	return nil
}

func printApplyResult(res *fix.ApplyResult, applyErr error, announceEmpty bool) error {
	if res == nil {
		if errors.Is(applyErr, fix.ErrNoFixes) {
			return nil
		}
		return applyErr
	}

	if len(res.Applied) > 0 {
		fmt.Fprintf(os.Stdout, "Applied %d fix(es):\n", len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(os.Stdout, "  %s [%s] at %s (%d edits, %s)\n",
				item.Title, item.ID, location, item.EditCount, item.Applicability.String())
		}
	}

	if len(res.FileChanges) > 0 {
		fmt.Fprintln(os.Stdout, "Updated files:")
		for _, change := range res.FileChanges {
			fmt.Fprintf(os.Stdout, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(os.Stdout, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(os.Stdout, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(os.Stdout, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			if announceEmpty {
				fmt.Fprintln(os.Stdout, "No applicable fixes found.")
			}
			return nil
		}
		return applyErr
	}
	return nil
}
