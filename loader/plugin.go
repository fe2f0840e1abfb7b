package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/pkg/errors"
)

// InitSymbol is the optional initializer a plugin submodule may export.
const InitSymbol = "Init"

// Plugin loads submodules built as Go plugins. The qualified name
// "opencmiss.zinc.field" maps to <Dir>/opencmiss/zinc/field.so.
type Plugin struct {
	Dir string

	// open is plugin.Open outside tests.
	open func(path string) (symbolLookup, error)
}

// symbolLookup is the part of *plugin.Plugin the loader uses.
type symbolLookup interface {
	Lookup(symName string) (plugin.Symbol, error)
}

// NewPlugin returns a Plugin loader rooted at dir.
func NewPlugin(dir string) *Plugin {
	return &Plugin{
		Dir: dir,
		open: func(path string) (symbolLookup, error) {
			return plugin.Open(path)
		},
	}
}

// Path returns the shared object path for qualifiedName.
func (p *Plugin) Path(qualifiedName string) string {
	parts := strings.Split(qualifiedName, ".")
	return filepath.Join(p.Dir, filepath.Join(parts...)+".so")
}

// TryLoad implements Loader.
func (p *Plugin) TryLoad(ctx context.Context, qualifiedName string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := p.Path(qualifiedName)
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return NotFound(fmt.Sprintf("module not found: %s", path))
		}
		return errors.Wrapf(statErr, "stat %s", path)
	}

	plug, err := p.open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}

	sym, lookupErr := plug.Lookup(InitSymbol)
	if lookupErr != nil {
		// no initializer, nothing more to run
		return nil
	}

	var initFn func() error
	switch fn := sym.(type) {
	case func() error:
		initFn = fn
	case *func() error:
		if fn == nil || *fn == nil {
			return errors.Errorf("%s: symbol %s is nil", qualifiedName, InitSymbol)
		}
		initFn = *fn
	default:
		return errors.Errorf("%s: symbol %s has type %T, want func() error", qualifiedName, InitSymbol, sym)
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s: %s panicked: %v", qualifiedName, InitSymbol, r)
		}
	}()
	if err := initFn(); err != nil {
		return errors.Wrapf(err, "%s: %s", qualifiedName, InitSymbol)
	}
	return nil
}
