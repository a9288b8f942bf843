// Package interp is the tree-walking interpreter: it evaluates the AST
// pkgs/parser produces against a sandboxed pkgs/vfsys filesystem and an
// in-memory pkgs/registry of builtin commands.
package interp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aledsdavies/shellvm/pkgs/ast"
	"github.com/aledsdavies/shellvm/pkgs/ioprim"
	"github.com/aledsdavies/shellvm/pkgs/registry"
	"github.com/aledsdavies/shellvm/pkgs/vfsys"
)

// ErrUnsupportedConstruct is returned when execution reaches an If/For/
// While/Until/Case node. These constructs are fully parsed but the
// interpreter does not execute them.
var ErrUnsupportedConstruct = errors.New("interp: compound construct execution is not supported")

// Config constructs an Interpreter. FS and Commands are required; the rest
// have zero-value defaults (empty env, no redirect objects, no logging,
// depth 64). The working directory is the FS's own (vfsys.FS.Cwd).
type Config struct {
	FS                   *vfsys.FS
	Commands             *registry.Registry
	Env                  map[string]string
	RedirectObjects      map[string]interface{}
	Logger               *logrus.Logger
	Debug                bool
	MaxSubstitutionDepth int
}

// Result is what a top-level Execute call produces: the program's captured
// output and its exit code.
type Result struct {
	Stdout   []byte `json:"stdout"`
	Stderr   []byte `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Interpreter holds the construction-time context that every execute call
// runs against.
type Interpreter struct {
	fs              *vfsys.FS
	commands        *registry.Registry
	env             map[string]string
	redirectObjects map[string]interface{}
	logger          *logrus.Logger
	maxDepth        int
}

// New builds an Interpreter from cfg.
func New(cfg Config) *Interpreter {
	maxDepth := cfg.MaxSubstitutionDepth
	if maxDepth <= 0 {
		maxDepth = 64
	}
	logger := cfg.Logger
	if logger == nil && cfg.Debug {
		logger = logrus.StandardLogger()
	}
	return &Interpreter{
		fs:              cfg.FS,
		commands:        cfg.Commands,
		env:             cloneEnv(cfg.Env),
		redirectObjects: cfg.RedirectObjects,
		logger:          logger,
		maxDepth:        maxDepth,
	}
}

// scope bundles the I/O handles and environment a node executes with. It is
// threaded through the tree walk instead of passed as five loose
// parameters.
type scope struct {
	env    map[string]string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Execute walks prog (already lexed and parsed; Execute does neither),
// returning the captured top-level stdout/stderr and exit code once all
// asynchronous I/O has drained.
func (it *Interpreter) Execute(ctx context.Context, prog *ast.Program) (*Result, error) {
	stdout := ioprim.NewCollector()
	stderr := ioprim.NewCollector()
	sc := &scope{
		env:    cloneEnv(it.env),
		stdin:  ioprim.NewStdinReader(nil),
		stdout: stdout,
		stderr: stderr,
	}

	code := 0
	if node := sequenceOf(prog.Body); node != nil {
		var err error
		code, err = it.exec(ctx, node, sc, 0)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: code}, nil
}

// exec dispatches one AST node by applying the boolean-combinator,
// sequence, pipeline, and simple-command evaluation rules.
func (it *Interpreter) exec(ctx context.Context, node ast.Node, sc *scope, depth int) (int, error) {
	switch n := node.(type) {
	case *ast.Sequence:
		code := 0
		for _, item := range n.Items {
			c, err := it.exec(ctx, item, sc, depth)
			if err != nil {
				return 0, err
			}
			code = c
		}
		return code, nil

	case *ast.And:
		l, err := it.exec(ctx, n.Left, sc, depth)
		if err != nil {
			return 0, err
		}
		if l != 0 {
			return l, nil
		}
		return it.exec(ctx, n.Right, sc, depth)

	case *ast.Or:
		l, err := it.exec(ctx, n.Left, sc, depth)
		if err != nil {
			return 0, err
		}
		if l == 0 {
			return 0, nil
		}
		return it.exec(ctx, n.Right, sc, depth)

	case *ast.Pipeline:
		return it.execPipeline(ctx, n, sc, depth)

	case *ast.Command:
		return it.execCommand(ctx, n, sc, depth)

	case *ast.Assignment:
		v, err := it.evalExpr(ctx, n.Value, sc.env, depth)
		if err != nil {
			return 0, err
		}
		it.env[n.Name] = v
		sc.env[n.Name] = v
		return 0, nil

	case *ast.IfClause, *ast.ForClause, *ast.WhileClause, *ast.UntilClause, *ast.CaseClause:
		return 0, ErrUnsupportedConstruct

	default:
		return 0, fmt.Errorf("interp: unknown node type %T", node)
	}
}

func cloneEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func sequenceOf(items []ast.Node) ast.Node {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	default:
		return &ast.Sequence{Items: items}
	}
}

// newPipelineTraceID generates a per-pipeline identifier attached to debug
// log fields.
func newPipelineTraceID() string {
	return uuid.NewString()
}
