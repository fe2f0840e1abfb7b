// Package checker attempts to load every submodule of a package through a
// loader.Loader and collects the outcomes into a Report.
//
// Attempts run one at a time in the order given. A failed attempt is recorded
// and the run moves on; only an invalid invocation stops a run.
package checker

import (
	"context"
	"strings"
	"time"

	"github.com/JakeTRogers/importBuddy/loader"
	"github.com/JakeTRogers/importBuddy/logger"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Checker runs load attempts. It keeps no state between runs.
type Checker struct {
	loader   loader.Loader
	log      *zerolog.Logger
	observer func(Result)
	timeout  time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger replaces the shared logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *Checker) { c.log = l }
}

// WithObserver registers fn to be called with every result as soon as its
// attempt resolves.
func WithObserver(fn func(Result)) Option {
	return func(c *Checker) { c.observer = fn }
}

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// New returns a Checker that loads submodules through l.
func New(l loader.Loader, opts ...Option) *Checker {
	c := &Checker{
		loader: l,
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the invariants CheckAll requires of its input.
func Validate(parentPackage string, expectedNames []string) error {
	if strings.TrimSpace(parentPackage) == "" {
		return configErrorf("parent package is empty")
	}
	if len(expectedNames) == 0 {
		return configErrorf("no submodule names given")
	}
	seen := make(map[string]bool, len(expectedNames))
	for i, name := range expectedNames {
		if strings.TrimSpace(name) == "" {
			return configErrorf("submodule name at position %d is empty", i)
		}
		if name != strings.TrimSpace(name) {
			return configErrorf("submodule name %q has surrounding whitespace", name)
		}
		if seen[name] {
			return configErrorf("submodule %q listed more than once", name)
		}
		seen[name] = true
	}
	return nil
}

// CheckAll attempts every name in expectedNames under parentPackage, in order,
// and returns one Result per name. Load failures are recorded in the report;
// the returned error is only ever a *ConfigurationError.
func (c *Checker) CheckAll(ctx context.Context, parentPackage string, expectedNames []string) (*Report, error) {
	if err := Validate(parentPackage, expectedNames); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(expectedNames))
	for _, name := range expectedNames {
		results = append(results, c.CheckOne(ctx, parentPackage, name))
	}
	report := NewReport(parentPackage, results)

	loaded, total := report.Counts()
	c.log.Info().Str("package", parentPackage).Int("loaded", loaded).Int("total", total).Msg("check complete")
	return report, nil
}

// CheckOne attempts a single submodule. It never fails; a load error, including
// a panic inside the loader, becomes a Failed result.
func (c *Checker) CheckOne(ctx context.Context, parentPackage, name string) Result {
	res := Result{
		Name:      name,
		Qualified: loader.Qualify(parentPackage, name),
	}

	start := time.Now()
	err := c.tryLoad(ctx, res.Qualified)
	res.Duration = time.Since(start)

	if err == nil {
		res.Status = Loaded
		c.log.Debug().Str("name", res.Qualified).Dur("took", res.Duration).Msg("loaded")
	} else {
		loadErr := &LoadError{Qualified: res.Qualified, Err: err}
		res.Status = Failed
		res.Detail = loadErr.Error()
		c.log.Info().Str("name", res.Qualified).Str("error", res.Detail).Msg("load failed")
		c.log.Trace().Stack().Err(err).Str("name", res.Qualified).Send()
	}

	if c.observer != nil {
		c.observer(res)
	}
	return res
}

func (c *Checker) tryLoad(ctx context.Context, qualifiedName string) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic while loading %s: %v", qualifiedName, r)
		}
	}()
	return c.loader.TryLoad(ctx, qualifiedName)
}
