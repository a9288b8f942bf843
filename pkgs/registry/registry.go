// Package registry holds the in-memory mapping from command name to
// Builtin implementation that the interpreter consults at simple-command
// execution time.
package registry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/aledsdavies/shellvm/pkgs/vfsys"
)

// Context carries everything a Builtin needs to run one invocation: its
// arguments, I/O handles already bound by redirection, the sandboxed
// filesystem, the caller's working directory, and its local environment.
type Context struct {
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	FS     *vfsys.FS
	Cwd    string
	Env    map[string]string
}

// Builtin implements the executable behavior for one registered command
// name. Run returns the process-style exit code; a returned error is
// treated as an unhandled exception, reported as "<name>: <message>\n" on
// stderr with exit code 1.
type Builtin interface {
	Run(ctx context.Context, rc *Context) (int, error)
}

// BuiltinFunc adapts a plain function to the Builtin interface, the way
// http.HandlerFunc adapts a function to http.Handler.
type BuiltinFunc func(ctx context.Context, rc *Context) (int, error)

func (f BuiltinFunc) Run(ctx context.Context, rc *Context) (int, error) { return f(ctx, rc) }

// Registry is a concurrency-safe name -> Builtin lookup table.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds or replaces the Builtin bound to name.
func (r *Registry) Register(name string, b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[name] = b
}

// Lookup returns the Builtin bound to name, if any.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// Names returns every registered command name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrCommandNotFound formats the stderr line for a missing command name.
func ErrCommandNotFound(name string) string {
	return fmt.Sprintf("%s: command not found\n", name)
}
