package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aledsdavies/shellvm/pkgs/ast"
	shellerrors "github.com/aledsdavies/shellvm/pkgs/errors"
	"github.com/aledsdavies/shellvm/pkgs/ioprim"
	"github.com/aledsdavies/shellvm/pkgs/lexer"
)

// pendingWrite is a redirect target that must be flushed to the virtual
// filesystem once the command it belongs to has finished writing to it.
type pendingWrite struct {
	path       string
	collector  *ioprim.Collector
	appendMode bool
}

// applyRedirects builds a derived scope with stdin/stdout/stderr rebound
// according to redirects, applied strictly in source order. It never
// mutates parent.
func (it *Interpreter) applyRedirects(ctx context.Context, redirects []ast.Redirect, parent *scope, depth int) (*scope, []*pendingWrite, error) {
	cur := &scope{env: parent.env, stdin: parent.stdin, stdout: parent.stdout, stderr: parent.stderr}
	var pending []*pendingWrite

	for _, r := range redirects {
		switch r.Mode {
		case lexer.RedirIn:
			reader, err := it.resolveInput(ctx, r, cur.env, depth)
			if err != nil {
				return nil, nil, err
			}
			cur.stdin = reader

		case lexer.RedirOut, lexer.RedirAppend:
			w, pw, err := it.resolveOutput(ctx, r, cur.env, depth, r.Mode == lexer.RedirAppend)
			if err != nil {
				return nil, nil, err
			}
			cur.stdout = w
			if pw != nil {
				pending = append(pending, pw)
			}

		case lexer.RedirErr, lexer.RedirErrAppend:
			w, pw, err := it.resolveOutput(ctx, r, cur.env, depth, r.Mode == lexer.RedirErrAppend)
			if err != nil {
				return nil, nil, err
			}
			cur.stderr = w
			if pw != nil {
				pending = append(pending, pw)
			}

		case lexer.RedirBoth, lexer.RedirBothAppend:
			w, pw, err := it.resolveOutput(ctx, r, cur.env, depth, r.Mode == lexer.RedirBothAppend)
			if err != nil {
				return nil, nil, err
			}
			cur.stdout = w
			cur.stderr = w
			if pw != nil {
				pending = append(pending, pw)
			}

		case lexer.RedirErrToOut:
			cur.stderr = cur.stdout

		case lexer.RedirOutToErr:
			cur.stdout = cur.stderr

		default:
			if r.Heredoc != nil {
				content := r.Heredoc.Content
				if r.Heredoc.Expand {
					content = expandHeredocVars(content, cur.env)
				}
				cur.stdin = bytes.NewReader([]byte(content))
				continue
			}
			return nil, nil, shellerrors.New(shellerrors.KindIO, fmt.Sprintf("unsupported redirect mode %q", r.Mode))
		}
	}

	return cur, pending, nil
}

// resolveInput evaluates a '<' target: either a registered redirect object
// (duck-typed via asReader) or a virtual filesystem path.
func (it *Interpreter) resolveInput(ctx context.Context, r ast.Redirect, env map[string]string, depth int) (io.Reader, error) {
	marker, err := it.evalExpr(ctx, r.Target, env, depth)
	if err != nil {
		return nil, err
	}
	if obj, ok := it.redirectObjects[marker]; ok {
		return asReader(marker, obj)
	}

	data, err := it.fs.ReadFile(joinPath(it.fs.Cwd(), marker))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// resolveOutput evaluates a '>' / '>>' / '2>' / '2>>' / '&>' / '&>>'
// target. A registered redirect object is written straight through; a
// plain path is buffered into a pendingWrite flushed after the owning
// command completes, so a command that writes to the same file it reads
// from (truncating first) behaves predictably.
func (it *Interpreter) resolveOutput(ctx context.Context, r ast.Redirect, env map[string]string, depth int, appendMode bool) (io.Writer, *pendingWrite, error) {
	marker, err := it.evalExpr(ctx, r.Target, env, depth)
	if err != nil {
		return nil, nil, err
	}
	if obj, ok := it.redirectObjects[marker]; ok {
		w, err := asWriter(marker, obj)
		return w, nil, err
	}

	path := joinPath(it.fs.Cwd(), marker)
	collector := ioprim.NewCollector()
	return collector, &pendingWrite{path: path, collector: collector, appendMode: appendMode}, nil
}

// flush writes every pendingWrite's accumulated bytes to the virtual
// filesystem. Called once the command that owns them has finished.
func (it *Interpreter) flush(pending []*pendingWrite) error {
	for _, pw := range pending {
		if err := it.fs.WriteFile(pw.path, pw.collector.Bytes(), pw.appendMode); err != nil {
			return err
		}
	}
	return nil
}

// asReader duck-types a host-supplied redirect object into an io.Reader:
// any byte-source works — io.Reader, []byte, string, or fmt.Stringer.
func asReader(marker string, obj interface{}) (io.Reader, error) {
	switch v := obj.(type) {
	case io.Reader:
		return v, nil
	case []byte:
		return bytes.NewReader(v), nil
	case string:
		return bytes.NewReader([]byte(v)), nil
	case fmt.Stringer:
		return bytes.NewReader([]byte(v.String())), nil
	default:
		return nil, shellerrors.NewUnsupportedRedirectObjectError(marker, "input")
	}
}

// asWriter duck-types a host-supplied redirect object into an io.Writer. A
// raw []byte is the mutable-buffer case: it is wrapped in a BufferSink that
// writes into it up to its length and silently truncates past that, rather
// than requiring the host to implement io.Writer itself.
func asWriter(marker string, obj interface{}) (io.Writer, error) {
	if v, ok := obj.(io.Writer); ok {
		return v, nil
	}
	if v, ok := obj.([]byte); ok {
		return ioprim.NewBufferSink(v), nil
	}
	return nil, shellerrors.NewUnsupportedRedirectObjectError(marker, "output")
}
