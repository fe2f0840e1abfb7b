// Package loader holds the environment-specific half of a submodule check:
// resolving a qualified name like "opencmiss.zinc.field" and reporting whether
// it could be loaded.
package loader

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a qualified name does not resolve to anything.
var ErrNotFound = errors.New("module not found")

// notFoundError carries the environment's own wording for a missing module
// while still matching ErrNotFound.
type notFoundError struct {
	detail string
}

func (e *notFoundError) Error() string { return e.detail }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns an error that matches ErrNotFound and reads as detail.
func NotFound(detail string) error {
	if detail == "" {
		return errors.WithStack(ErrNotFound)
	}
	return errors.WithStack(&notFoundError{detail: detail})
}

// Loader attempts to load one submodule. A nil error means the submodule
// loaded, including any initialization it performs.
type Loader interface {
	TryLoad(ctx context.Context, qualifiedName string) error
}

// Func adapts an ordinary function to the Loader interface.
type Func func(ctx context.Context, qualifiedName string) error

// TryLoad calls f.
func (f Func) TryLoad(ctx context.Context, qualifiedName string) error {
	return f(ctx, qualifiedName)
}

// Qualify joins a parent package and submodule name with a dot.
func Qualify(parent, name string) string {
	return strings.TrimSuffix(parent, ".") + "." + name
}

// Static treats a fixed set of qualified names as loadable. Names listed in
// Errors fail with their error even when present in Available.
type Static struct {
	Available []string
	Errors    map[string]error
}

// NewStatic returns a Static loader that can load every name in available.
func NewStatic(available ...string) *Static {
	return &Static{Available: available, Errors: map[string]error{}}
}

// Break makes qualifiedName fail with err on every later attempt.
func (s *Static) Break(qualifiedName string, err error) *Static {
	if s.Errors == nil {
		s.Errors = map[string]error{}
	}
	s.Errors[qualifiedName] = err
	return s
}

// TryLoad implements Loader.
func (s *Static) TryLoad(ctx context.Context, qualifiedName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := s.Errors[qualifiedName]; ok && err != nil {
		return err
	}
	for _, name := range s.Available {
		if name == qualifiedName {
			return nil
		}
	}
	return errors.WithStack(ErrNotFound)
}
