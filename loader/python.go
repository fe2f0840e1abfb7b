package loader

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// importScript imports the module named by the first argument. Any exception
// raised while importing propagates and makes the interpreter exit non-zero.
const importScript = "import importlib, sys; importlib.import_module(sys.argv[1])"

// waitDelay bounds how long TryLoad waits for stderr to close after the
// interpreter is killed. Children started by an import inherit the pipe and
// would otherwise hold it open past the deadline.
const waitDelay = time.Second

// Python loads submodules by importing them in a fresh interpreter process.
// A fresh process per attempt keeps one submodule's initialization from
// affecting the next.
type Python struct {
	// Interpreter is the executable to run, looked up in PATH when relative.
	Interpreter string
	// PythonPath entries are prepended to PYTHONPATH.
	PythonPath []string
	// Dir is the working directory of the interpreter, empty for the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// NewPython returns a Python loader that runs interpreter, defaulting to python3.
func NewPython(interpreter string) *Python {
	if interpreter == "" {
		interpreter = "python3"
	}
	return &Python{Interpreter: interpreter}
}

// TryLoad implements Loader.
func (p *Python) TryLoad(ctx context.Context, qualifiedName string) error {
	cmd := exec.CommandContext(ctx, p.Interpreter, "-c", importScript, qualifiedName)
	cmd.Dir = p.Dir
	cmd.Env = p.environ()
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrapf(ctxErr, "importing %s", qualifiedName)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// the interpreter never ran
		return errors.Wrapf(err, "starting %s", p.Interpreter)
	}

	if detail := lastLine(stderr.String()); detail != "" {
		if isNotFound(detail) {
			return NotFound(detail)
		}
		return errors.New(detail)
	}
	return errors.Wrapf(err, "importing %s", qualifiedName)
}

func (p *Python) environ() []string {
	env := append(os.Environ(), p.Env...)
	if len(p.PythonPath) == 0 {
		return env
	}
	paths := append([]string{}, p.PythonPath...)
	if existing := os.Getenv("PYTHONPATH"); existing != "" {
		paths = append(paths, existing)
	}
	return append(env, "PYTHONPATH="+strings.Join(paths, string(filepath.ListSeparator)))
}

// lastLine returns the last non-blank line of a traceback, which holds the
// exception type and message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func isNotFound(detail string) bool {
	return strings.HasPrefix(detail, "ModuleNotFoundError:")
}
