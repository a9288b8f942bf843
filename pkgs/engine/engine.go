// Package engine is the embeddable façade a host program constructs once
// and calls Run against repeatedly: it owns the sandboxed filesystem, the
// builtin registry, and the interpreter configuration.
package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aledsdavies/shellvm/pkgs/interp"
	"github.com/aledsdavies/shellvm/pkgs/parser"
	"github.com/aledsdavies/shellvm/pkgs/registry"
	"github.com/aledsdavies/shellvm/pkgs/vfsys"
)

// Config constructs an Engine. FS is required; Commands defaults to an
// empty registry if nil.
type Config struct {
	FS                   *vfsys.FS
	Commands             *registry.Registry
	Env                  map[string]string
	RedirectObjects      map[string]interface{}
	Logger               *logrus.Logger
	Debug                bool
	MaxSubstitutionDepth int
}

// Engine is the host-facing entry point: construct one per sandbox/
// registry pairing, then call Run for every script the host wants
// executed against it.
type Engine struct {
	cfg  Config
	it   *interp.Interpreter
	cmds *registry.Registry
}

// New builds an Engine from cfg. A nil cfg.Commands gets a fresh, empty
// registry the host can still populate afterward via RegisterCommand.
func New(cfg Config) *Engine {
	if cfg.Commands == nil {
		cfg.Commands = registry.New()
	}
	it := interp.New(interp.Config{
		FS:                   cfg.FS,
		Commands:             cfg.Commands,
		Env:                  cfg.Env,
		RedirectObjects:      cfg.RedirectObjects,
		Logger:               cfg.Logger,
		Debug:                cfg.Debug,
		MaxSubstitutionDepth: cfg.MaxSubstitutionDepth,
	})
	return &Engine{cfg: cfg, it: it, cmds: cfg.Commands}
}

// RegisterCommand adds or replaces a builtin under name. Safe to call
// between Run calls; the interpreter consults the same *registry.Registry
// passed to New.
func (e *Engine) RegisterCommand(name string, b registry.Builtin) {
	e.cmds.Register(name, b)
}

// Run lexes, parses, and interprets source as one program, returning its
// captured output and exit code. A parse error aborts before any command
// runs; any other returned error is an interpreter-level abort: a
// substitution recursion-depth overflow, or interp.ErrUnsupportedConstruct
// when execution reaches an if/for/while/until/case construct. Every other
// failure is already folded into the Result's exit code and stderr.
func (e *Engine) Run(ctx context.Context, source string) (*Result, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("engine: parse failed: %w", err)
	}

	res, err := e.it.Execute(ctx, prog)
	if err != nil {
		return nil, fmt.Errorf("engine: execution aborted: %w", err)
	}

	return resultFromInterp(res), nil
}
