package driver

import (
	"fmt"
	"path/filepath"

	"guardlint/internal/diag"
	"guardlint/internal/guard"
	"guardlint/internal/pp"
	"guardlint/internal/source"
)

// Config carries the per-run settings shared by all units.
type Config struct {
	// Policy is the guard policy; nil means guard.DefaultPolicy.
	Policy *guard.Policy
	// MaxDiagnostics caps the bag size per unit; 0 means 100.
	MaxDiagnostics int
	// PP configures the preprocessing engine.
	PP pp.Options
	// Cache, when non-nil, lets clean unchanged units be skipped.
	Cache *Cache
	// CacheSalt folds configuration identity into cache keys so a config
	// change invalidates prior verdicts.
	CacheSalt string
}

func (c Config) maxDiagnostics() int {
	if c.MaxDiagnostics > 0 {
		return c.MaxDiagnostics
	}
	return 100
}

// withNameRoot pins guard-name derivation under dir, so an absolute scan
// target never leaks the machine's directory layout into derived names.
// A caller-chosen root wins. The policy is copied; shared configs stay
// untouched.
func (c Config) withNameRoot(dir string) Config {
	base := c.Policy
	if base == nil {
		base = guard.DefaultPolicy()
	}
	if base.NameRoot != "" {
		return c
	}
	p := *base
	p.NameRoot = filepath.ToSlash(filepath.Clean(dir))
	c.Policy = &p
	return c
}

// effectiveSalt folds the naming root into the cache salt: the same unit
// scanned under a different root derives different names, so its verdicts
// must not be shared.
func (c Config) effectiveSalt() string {
	if c.Policy != nil && c.Policy.NameRoot != "" {
		return c.CacheSalt + "\x00" + c.Policy.NameRoot
	}
	return c.CacheSalt
}

// UnitResult is the outcome of checking one translation unit.
type UnitResult struct {
	Path    string
	FileSet *source.FileSet
	Bag     *diag.Bag
	// FromCache marks a unit skipped because the cache proved it clean
	// and unchanged.
	FromCache bool
}

// CheckUnit runs the full pipeline over one unit root: fresh file set and
// interner, preprocess, correlate, reconcile at end of unit. State never
// leaks between units because every unit gets its own instances.
func CheckUnit(rootPath string, cfg Config) (*UnitResult, error) {
	fset := source.NewFileSet()
	names := source.NewInterner()
	bag := diag.NewBag(cfg.maxDiagnostics())
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	engine := pp.New(fset, names, reporter, cfg.PP)
	checker := guard.NewChecker(fset, names, cfg.Policy, engine, reporter)

	if err := engine.Run(rootPath, checker); err != nil {
		return nil, fmt.Errorf("check %s: %w", rootPath, err)
	}

	bag.Sort()
	return &UnitResult{
		Path:    rootPath,
		FileSet: fset,
		Bag:     bag,
	}, nil
}

// CheckUnitCached consults the cache before running the pipeline: a unit
// whose recorded files all hash the same as last time and produced zero
// findings is skipped. Anything else is re-checked and re-recorded.
func CheckUnitCached(rootPath string, cfg Config) (*UnitResult, error) {
	if cfg.Cache == nil {
		return CheckUnit(rootPath, cfg)
	}

	key := unitKey(rootPath, cfg.effectiveSalt())
	if entry, ok := cfg.Cache.Lookup(key); ok && entry.Findings == 0 && entry.Unchanged() {
		return &UnitResult{
			Path:      rootPath,
			FileSet:   source.NewFileSet(),
			Bag:       diag.NewBag(cfg.maxDiagnostics()),
			FromCache: true,
		}, nil
	}

	result, err := CheckUnit(rootPath, cfg)
	if err != nil {
		return nil, err
	}

	// Best effort: a failed store only costs a future re-check.
	_ = cfg.Cache.Store(key, newEntry(result))
	return result, nil
}
