package checker

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrConfiguration matches every *ConfigurationError through errors.Is.
var ErrConfiguration = errors.New("invalid checker configuration")

// ConfigurationError rejects a run before any submodule is attempted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(format string, args ...interface{}) error {
	return errors.WithStack(&ConfigurationError{Reason: fmt.Sprintf(format, args...)})
}

// LoadError is a failed load attempt for one submodule. It is never returned
// from CheckAll; its text becomes Result.Detail.
type LoadError struct {
	Qualified string
	Err       error
}

func (e *LoadError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "load failed"
	}
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
