package interp

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aledsdavies/shellvm/pkgs/ast"
	shellerrors "github.com/aledsdavies/shellvm/pkgs/errors"
	"github.com/aledsdavies/shellvm/pkgs/ioprim"
	"github.com/aledsdavies/shellvm/pkgs/parser"
)

// evalExpr reduces an ast.Expr to its string value. Glob is expanded by
// the caller (evalWords); here a bare Glob with no match context resolves
// to its literal pattern, matching how a glob with no match is passed
// through unexpanded.
func (it *Interpreter) evalExpr(ctx context.Context, expr ast.Expr, env map[string]string, depth int) (string, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil

	case *ast.Variable:
		return env[e.Name], nil

	case *ast.Glob:
		return e.Pattern, nil

	case *ast.Concat:
		var sb strings.Builder
		for _, part := range e.Parts {
			v, err := it.evalExpr(ctx, part, env, depth)
			if err != nil {
				return "", err
			}
			sb.WriteString(v)
		}
		return sb.String(), nil

	case *ast.Substitution:
		return it.evalSubstitution(ctx, e.Raw, env, depth)

	case *ast.Arithmetic:
		v, err := evalArith(e.Raw, env)
		if err != nil {
			return "", err
		}
		return v, nil

	case nil:
		return "", nil

	default:
		return "", shellerrors.New(shellerrors.KindIO, "unsupported expression type")
	}
}

// evalWords expands a command's word list to its final argv, applying glob
// expansion against the current filesystem for any *ast.Glob word.
// Non-glob words pass through evalExpr unchanged.
func (it *Interpreter) evalWords(ctx context.Context, words []ast.Expr, env map[string]string, depth int) ([]string, error) {
	var out []string
	for _, w := range words {
		if g, ok := w.(*ast.Glob); ok {
			matches, err := it.fs.Glob(g.Pattern)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				out = append(out, g.Pattern)
				continue
			}
			out = append(out, matches...)
			continue
		}
		v, err := it.evalExpr(ctx, w, env, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalSubstitution runs raw as a nested program and returns its captured
// stdout with a single trailing newline stripped, enforcing
// MaxSubstitutionDepth via a *shellerrors.ShellError so the caller can let
// it abort the whole execution rather than just this command.
func (it *Interpreter) evalSubstitution(ctx context.Context, raw string, env map[string]string, depth int) (string, error) {
	if depth+1 > it.maxDepth {
		return "", shellerrors.NewRecursionError(depth+1, it.maxDepth)
	}

	prog, err := parser.Parse(raw)
	if err != nil {
		return "", shellerrors.Wrap(shellerrors.KindParse, "command substitution parse failed", err)
	}

	stdout := ioprim.NewCollector()
	sc := &scope{
		env:    cloneEnv(env),
		stdin:  ioprim.NewStdinReader(nil),
		stdout: stdout,
		stderr: ioprim.NewCollector(),
	}

	if node := sequenceOf(prog.Body); node != nil {
		if _, err := it.exec(ctx, node, sc, depth+1); err != nil {
			return "", err
		}
	}

	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

var heredocVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandHeredocVars substitutes $NAME / ${NAME} references inside heredoc
// body text when the heredoc has variable expansion enabled.
func expandHeredocVars(content string, env map[string]string) string {
	return heredocVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := heredocVarPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		return env[name]
	})
}

// joinPath resolves a possibly-relative path word against cwd, used by
// redirect target evaluation.
func joinPath(cwd, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(cwd, p))
}
