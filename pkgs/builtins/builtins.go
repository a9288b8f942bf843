// Package builtins implements the minimal command set the engine ships
// with out of the box: echo, cat, wc, grep, pwd, true, and false. A host
// program registers whichever of these it wants via Register, and is free
// to add its own registry.Builtin implementations alongside them.
package builtins

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/shellvm/pkgs/registry"
)

// Register adds every builtin in this package to r under its conventional
// name. Call it once when wiring a fresh engine.Config.Commands registry.
func Register(r *registry.Registry) {
	r.Register("echo", registry.BuiltinFunc(echo))
	r.Register("cat", registry.BuiltinFunc(cat))
	r.Register("wc", registry.BuiltinFunc(wc))
	r.Register("grep", registry.BuiltinFunc(grep))
	r.Register("pwd", registry.BuiltinFunc(pwd))
	r.Register("true", registry.BuiltinFunc(trueCmd))
	r.Register("false", registry.BuiltinFunc(falseCmd))
}

// echo writes its arguments, space-joined, followed by a newline. "-n"
// as the first argument suppresses the trailing newline.
func echo(ctx context.Context, rc *registry.Context) (int, error) {
	args := rc.Args[1:]
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	fmt.Fprint(rc.Stdout, strings.Join(args, " "))
	if newline {
		fmt.Fprint(rc.Stdout, "\n")
	}
	return 0, nil
}

// cat writes each named virtual file to stdout in order, or copies stdin
// through unchanged when given no arguments.
func cat(ctx context.Context, rc *registry.Context) (int, error) {
	if len(rc.Args) == 1 {
		_, err := io.Copy(rc.Stdout, rc.Stdin)
		if err != nil {
			return 1, err
		}
		return 0, nil
	}

	status := 0
	for _, path := range rc.Args[1:] {
		data, err := rc.FS.ReadFile(resolvePath(rc.Cwd, path))
		if err != nil {
			fmt.Fprintf(rc.Stderr, "cat: %s: %v\n", path, err)
			status = 1
			continue
		}
		rc.Stdout.Write(data)
	}
	return status, nil
}

// wc counts lines, words, and bytes read from stdin. "-l"/"-w"/"-c"
// restrict the output to just that count.
func wc(ctx context.Context, rc *registry.Context) (int, error) {
	data, err := io.ReadAll(rc.Stdin)
	if err != nil {
		return 1, err
	}
	lines := strings.Count(string(data), "\n")
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		lines++
	}
	words := len(strings.Fields(string(data)))
	bytes := len(data)

	switch {
	case len(rc.Args) > 1 && rc.Args[1] == "-l":
		fmt.Fprintln(rc.Stdout, lines)
	case len(rc.Args) > 1 && rc.Args[1] == "-w":
		fmt.Fprintln(rc.Stdout, words)
	case len(rc.Args) > 1 && rc.Args[1] == "-c":
		fmt.Fprintln(rc.Stdout, bytes)
	default:
		fmt.Fprintf(rc.Stdout, "%d %d %d\n", lines, words, bytes)
	}
	return 0, nil
}

// grep writes every stdin line containing the first argument as a
// substring. Exit code is 0 if at least one line matched, 1 otherwise.
func grep(ctx context.Context, rc *registry.Context) (int, error) {
	if len(rc.Args) < 2 {
		fmt.Fprintln(rc.Stderr, "grep: missing pattern")
		return 2, nil
	}
	needle := rc.Args[1]

	matched := false
	scanner := bufio.NewScanner(rc.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, needle) {
			matched = true
			fmt.Fprintln(rc.Stdout, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return 1, err
	}
	if matched {
		return 0, nil
	}
	return 1, nil
}

// pwd writes the interpreter's current virtual working directory.
func pwd(ctx context.Context, rc *registry.Context) (int, error) {
	fmt.Fprintln(rc.Stdout, rc.Cwd)
	return 0, nil
}

func trueCmd(ctx context.Context, rc *registry.Context) (int, error)  { return 0, nil }
func falseCmd(ctx context.Context, rc *registry.Context) (int, error) { return 1, nil }

func resolvePath(cwd, p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	if cwd == "" || cwd == "/" {
		return "/" + p
	}
	return cwd + "/" + p
}
