package interp

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/shellvm/pkgs/parser"
	"github.com/aledsdavies/shellvm/pkgs/registry"
	"github.com/aledsdavies/shellvm/pkgs/vfsys"
)

func readAll(r interface{ Read([]byte) (int, error) }) string {
	if r == nil {
		return ""
	}
	var buf bytes.Buffer
	tmp := make([]byte, 512)
	for {
		n, err := r.Read(tmp)
		buf.Write(tmp[:n])
		if err != nil {
			break
		}
	}
	return buf.String()
}

func testRegistry() *registry.Registry {
	r := registry.New()
	r.Register("echo", registry.BuiltinFunc(func(ctx context.Context, rc *registry.Context) (int, error) {
		fmt_fprintln(rc, strings.Join(rc.Args[1:], " "))
		return 0, nil
	}))
	r.Register("true", registry.BuiltinFunc(func(ctx context.Context, rc *registry.Context) (int, error) {
		return 0, nil
	}))
	r.Register("false", registry.BuiltinFunc(func(ctx context.Context, rc *registry.Context) (int, error) {
		return 1, nil
	}))
	r.Register("cat", registry.BuiltinFunc(func(ctx context.Context, rc *registry.Context) (int, error) {
		if len(rc.Args) == 1 {
			data := readAll(rc.Stdin)
			rc.Stdout.Write([]byte(data))
			return 0, nil
		}
		for _, path := range rc.Args[1:] {
			data, err := rc.FS.ReadFile(path)
			if err != nil {
				rc.Stderr.Write([]byte(err.Error() + "\n"))
				return 1, nil
			}
			rc.Stdout.Write(data)
		}
		return 0, nil
	}))
	r.Register("grep", registry.BuiltinFunc(func(ctx context.Context, rc *registry.Context) (int, error) {
		if len(rc.Args) < 2 {
			return 2, nil
		}
		needle := rc.Args[1]
		data := readAll(rc.Stdin)
		matched := false
		scanner := bufio.NewScanner(strings.NewReader(data))
		for scanner.Scan() {
			line := scanner.Text()
			if strings.Contains(line, needle) {
				matched = true
				rc.Stdout.Write([]byte(line + "\n"))
			}
		}
		if matched {
			return 0, nil
		}
		return 1, nil
	}))
	r.Register("wc", registry.BuiltinFunc(func(ctx context.Context, rc *registry.Context) (int, error) {
		data := readAll(rc.Stdin)
		lines := 0
		if len(data) > 0 {
			lines = strings.Count(data, "\n")
			if !strings.HasSuffix(data, "\n") {
				lines++
			}
		}
		rc.Stdout.Write([]byte(strconv.Itoa(lines) + "\n"))
		return 0, nil
	}))
	return r
}

func fmt_fprintln(rc *registry.Context, s string) {
	rc.Stdout.Write([]byte(s + "\n"))
}

func newTestInterp(t *testing.T, files fstest.MapFS) *Interpreter {
	t.Helper()
	fs, err := vfsys.New(files, "/", vfsys.ReadWrite, nil)
	require.NoError(t, err)
	return New(Config{FS: fs, Commands: testRegistry()})
}

func run(t *testing.T, it *Interpreter, source string) *Result {
	t.Helper()
	prog, err := parser.Parse(source)
	require.NoError(t, err)
	res, err := it.Execute(context.Background(), prog)
	require.NoError(t, err)
	return res
}

func TestEchoHi(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "echo hi")
	assert.Equal(t, "hi\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestPipelineCatGrepWc(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{
		"data.txt": {Data: []byte("foo one\nbar two\nfoo three\n")},
	})
	res := run(t, it, "cat /data.txt | grep foo | wc")
	assert.Equal(t, "2\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestBooleanShortCircuit(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "false && echo x")
	assert.Equal(t, "", string(res.Stdout))
	assert.Equal(t, 1, res.ExitCode)
}

func TestOrFallback(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "false || echo x")
	assert.Equal(t, "x\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestCommandSubstitution(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "echo $(echo nested)")
	assert.Equal(t, "nested\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestCommandNotFound(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "frobnicate")
	assert.Equal(t, 127, res.ExitCode)
	assert.Contains(t, string(res.Stderr), "frobnicate: command not found")
}

func TestSequenceExitCodeIsLast(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "echo a; false; echo b")
	assert.Equal(t, "a\nb\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestAssignmentOnlyStatement(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "FOO=bar\necho $FOO")
	assert.Equal(t, "bar\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestRedirectToFile(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "echo hello > /out.txt")
	assert.Equal(t, 0, res.ExitCode)

	data, err := it.fs.ReadFile("/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestBareRedirectCreatesFileAndReportsCommandNotFound(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "> /out.txt")
	assert.Equal(t, 127, res.ExitCode)
	assert.Contains(t, string(res.Stderr), ": command not found")

	data, err := it.fs.ReadFile("/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "", string(data))
}

func TestRedirectToRegisteredBuffer(t *testing.T) {
	fs, err := vfsys.New(fstest.MapFS{}, "/", vfsys.ReadWrite, nil)
	require.NoError(t, err)
	backing := make([]byte, 32)
	it := New(Config{
		FS:              fs,
		Commands:        testRegistry(),
		RedirectObjects: map[string]interface{}{"buf": backing},
	})
	res := run(t, it, "echo hello > buf")
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(backing[:6]))
}

func TestArithmeticExpansion(t *testing.T) {
	it := newTestInterp(t, fstest.MapFS{})
	res := run(t, it, "echo $((1 + 2 * 3))")
	assert.Equal(t, "7\n", string(res.Stdout))
}

func TestRecursionDepthExceeded(t *testing.T) {
	fs, err := vfsys.New(fstest.MapFS{}, "/", vfsys.ReadWrite, nil)
	require.NoError(t, err)
	it := New(Config{FS: fs, Commands: testRegistry(), MaxSubstitutionDepth: 1})
	prog, err := parser.Parse("echo $(echo $(echo deep))")
	require.NoError(t, err)
	_, err = it.Execute(context.Background(), prog)
	require.Error(t, err)
}
