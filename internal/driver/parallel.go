package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"guardlint/internal/checkpipeline"
)

// Unit roots: a translation unit starts at a source file; a headers-only
// tree falls back to treating each header as its own root.
var (
	sourceSuffixes = []string{".c", ".cc", ".cpp", ".cxx"}
	headerSuffixes = []string{".h", ".hh", ".hpp", ".hxx"}
)

func hasAnySuffix(path string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	return false
}

// ListUnitRoots returns the sorted unit roots under dir: all source files,
// or all headers when the tree contains no sources.
func ListUnitRoots(dir string) ([]string, error) {
	var sources, headers []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case hasAnySuffix(path, sourceSuffixes):
			sources = append(sources, path)
		case hasAnySuffix(path, headerSuffixes):
			headers = append(headers, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	roots := sources
	if len(roots) == 0 {
		roots = headers
	}
	sort.Strings(roots)
	return roots, nil
}

// CheckDir checks every unit root under dir with up to jobs workers. Each
// unit gets its own file set, interner, and correlator, so workers share
// nothing; results come back in root order.
func CheckDir(ctx context.Context, dir string, cfg Config, jobs int, progress checkpipeline.ProgressSink) ([]*UnitResult, error) {
	roots, err := ListUnitRoots(dir)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withNameRoot(dir)
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if progress == nil {
		progress = checkpipeline.NopSink{}
	}

	for _, root := range roots {
		progress.OnEvent(checkpipeline.Event{
			File: root, Stage: checkpipeline.StageCheck, Status: checkpipeline.StatusQueued,
		})
	}

	results := make([]*UnitResult, len(roots))
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(jobs)

	for i, root := range roots {
		i, root := i, root
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			progress.OnEvent(checkpipeline.Event{
				File: root, Stage: checkpipeline.StageCheck, Status: checkpipeline.StatusWorking,
			})
			started := time.Now()

			result, err := CheckUnitCached(root, cfg)
			if err != nil {
				progress.OnEvent(checkpipeline.Event{
					File: root, Stage: checkpipeline.StageCheck, Status: checkpipeline.StatusError,
					Err: err, Elapsed: time.Since(started),
				})
				return err
			}

			results[i] = result
			progress.OnEvent(checkpipeline.Event{
				File: root, Stage: checkpipeline.StageCheck, Status: checkpipeline.StatusDone,
				Findings: result.Bag.Len(), Elapsed: time.Since(started),
			})
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
