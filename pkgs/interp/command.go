package interp

import (
	"context"
	"fmt"

	"github.com/aledsdavies/shellvm/pkgs/ast"
	shellerrors "github.com/aledsdavies/shellvm/pkgs/errors"
	"github.com/aledsdavies/shellvm/pkgs/registry"
)

// execCommand runs one simple command step by step:
//  1. evaluate leading assignments
//  2. if there is no command name AND at least one assignment was made,
//     merge assignments into the persistent environment and return exit
//     code 0 without touching redirects or the registry. A command with
//     neither words nor assignments (a bare redirect like "> out.txt")
//     falls through to the remaining steps instead.
//  3. apply redirections, producing the I/O the command runs with
//  4. evaluate the remaining words into argv
//  5. look the name up in the registry ("" when argv is empty);
//     "<name>: command not found" / 127 if absent
//  6. run the builtin, catching a returned error as an unhandled exception
//     (exit code 1, "<name>: <message>\n" on stderr)
//  7. flush any pending redirect writes before returning
//
// Only a *shellerrors.ShellError of KindRecursion ever escapes as a real Go
// error; every other failure is written to stderr and folded into exit
// code 1, so one command's failure never aborts the rest of the program.
func (it *Interpreter) execCommand(ctx context.Context, cmd *ast.Command, sc *scope, depth int) (int, error) {
	localEnv := cloneEnv(sc.env)
	for _, a := range cmd.Assignments {
		v, err := it.evalExpr(ctx, a.Value, localEnv, depth)
		if err != nil {
			if se, ok := err.(*shellerrors.ShellError); ok && se.Kind == shellerrors.KindRecursion {
				return 0, err
			}
			fmt.Fprint(sc.stderr, err.Error()+"\n")
			return 1, nil
		}
		localEnv[a.Name] = v
	}

	if len(cmd.Words) == 0 && len(cmd.Assignments) > 0 {
		for k, v := range localEnv {
			it.env[k] = v
			sc.env[k] = v
		}
		return 0, nil
	}

	redirScope, pending, err := it.applyRedirects(ctx, cmd.Redirects, &scope{env: localEnv, stdin: sc.stdin, stdout: sc.stdout, stderr: sc.stderr}, depth)
	if err != nil {
		if se, ok := err.(*shellerrors.ShellError); ok && se.Kind == shellerrors.KindRecursion {
			return 0, err
		}
		fmt.Fprint(sc.stderr, err.Error()+"\n")
		return 1, nil
	}

	argv, err := it.evalWords(ctx, cmd.Words, redirScope.env, depth)
	if err != nil {
		if se, ok := err.(*shellerrors.ShellError); ok && se.Kind == shellerrors.KindRecursion {
			return 0, err
		}
		fmt.Fprint(sc.stderr, err.Error()+"\n")
		return 1, nil
	}
	name := ""
	if len(argv) > 0 {
		name = argv[0]
	}
	builtin, ok := it.commands.Lookup(name)
	if !ok {
		fmt.Fprint(redirScope.stderr, registry.ErrCommandNotFound(name))
		_ = it.flush(pending)
		return 127, nil
	}

	rc := &registry.Context{
		Args:   argv,
		Stdin:  redirScope.stdin,
		Stdout: redirScope.stdout,
		Stderr: redirScope.stderr,
		FS:     it.fs,
		Cwd:    it.fs.Cwd(),
		Env:    redirScope.env,
	}

	code, runErr := builtin.Run(ctx, rc)
	if runErr != nil {
		exc := shellerrors.NewBuiltinExceptionError(name, runErr)
		fmt.Fprint(redirScope.stderr, exc.Message+"\n")
		code = 1
	}

	if ferr := it.flush(pending); ferr != nil {
		fmt.Fprint(sc.stderr, ferr.Error()+"\n")
		return 1, nil
	}

	return code, nil
}
