package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aledsdavies/shellvm/pkgs/ast"
)

func TestParseSimpleCommand(t *testing.T) {
	prog, err := Parse("echo hello world")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := ast.NewProgram(
		ast.NewPipeline(ast.NewCommand(
			[]ast.Expr{ast.Lit("echo"), ast.Lit("hello"), ast.Lit("world")},
			nil, nil,
		)),
	)
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePipeline(t *testing.T) {
	prog, err := Parse("cat file.txt | grep foo | wc -l")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body))
	}
	pipe, ok := prog.Body[0].(*ast.Pipeline)
	if !ok {
		t.Fatalf("expected *ast.Pipeline, got %T", prog.Body[0])
	}
	if len(pipe.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(pipe.Stages))
	}
}

func TestParseAndOr(t *testing.T) {
	prog, err := Parse("a && b || c")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	// left-associative: (a && b) || c
	or, ok := prog.Body[0].(*ast.Or)
	if !ok {
		t.Fatalf("expected *ast.Or at top, got %T", prog.Body[0])
	}
	if _, ok := or.Left.(*ast.And); !ok {
		t.Fatalf("expected left of Or to be *ast.And, got %T", or.Left)
	}
}

func TestParseSequence(t *testing.T) {
	prog, err := Parse("a; b; c")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(prog.Body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Body))
	}
}

func TestParseSequenceWithNewlines(t *testing.T) {
	prog, err := Parse("a\nb\n\nc\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(prog.Body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Body))
	}
}

func TestParseRedirects(t *testing.T) {
	prog, err := Parse("cmd < in.txt > out.txt 2>> err.log")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe := prog.Body[0].(*ast.Pipeline)
	cmd := pipe.Stages[0]
	if len(cmd.Redirects) != 3 {
		t.Fatalf("expected 3 redirects, got %d", len(cmd.Redirects))
	}
	modes := []ast.RedirectMode{cmd.Redirects[0].Mode, cmd.Redirects[1].Mode, cmd.Redirects[2].Mode}
	want := []ast.RedirectMode{"<", ">", "2>>"}
	if diff := cmp.Diff(want, modes); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFDDuplicationRedirectHasNilTarget(t *testing.T) {
	prog, err := Parse("cmd 2>&1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe := prog.Body[0].(*ast.Pipeline)
	r := pipe.Stages[0].Redirects[0]
	if r.Mode != "2>&1" || r.Target != nil {
		t.Fatalf("got %+v", r)
	}
}

func TestParseLeadingAssignment(t *testing.T) {
	prog, err := Parse("NAME=value echo hi")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe := prog.Body[0].(*ast.Pipeline)
	cmd := pipe.Stages[0]
	if len(cmd.Assignments) != 1 || cmd.Assignments[0].Name != "NAME" {
		t.Fatalf("got %+v", cmd.Assignments)
	}
	if len(cmd.Words) != 2 {
		t.Fatalf("expected command words untouched by leading assignment, got %v", cmd.Words)
	}
}

func TestParseMidCommandAssignmentIsAWord(t *testing.T) {
	prog, err := Parse("echo FOO=bar")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe := prog.Body[0].(*ast.Pipeline)
	cmd := pipe.Stages[0]
	if len(cmd.Assignments) != 0 {
		t.Fatalf("expected no leading assignments, got %+v", cmd.Assignments)
	}
	if len(cmd.Words) != 2 {
		t.Fatalf("expected 2 words, got %v", cmd.Words)
	}
}

func TestParseStandaloneAssignment(t *testing.T) {
	prog, err := Parse("NAME=value")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe, ok := prog.Body[0].(*ast.Pipeline)
	if !ok {
		t.Fatalf("expected *ast.Pipeline, got %T", prog.Body[0])
	}
	cmd := pipe.Stages[0]
	if len(cmd.Assignments) != 1 || len(cmd.Words) != 0 {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseVariableAndSubstitution(t *testing.T) {
	prog, err := Parse(`echo $HOME "$(pwd)"`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe := prog.Body[0].(*ast.Pipeline)
	words := pipe.Stages[0].Words
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %v", words)
	}
	if _, ok := words[1].(*ast.Variable); !ok {
		t.Fatalf("expected *ast.Variable, got %T", words[1])
	}
	if _, ok := words[2].(*ast.Substitution); !ok {
		t.Fatalf("expected *ast.Substitution, got %T", words[2])
	}
}

func TestParseGlob(t *testing.T) {
	prog, err := Parse("rm *.tmp")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe := prog.Body[0].(*ast.Pipeline)
	if _, ok := pipe.Stages[0].Words[1].(*ast.Glob); !ok {
		t.Fatalf("expected *ast.Glob, got %T", pipe.Stages[0].Words[1])
	}
}

func TestParseHeredoc(t *testing.T) {
	prog, err := Parse("cat <<EOF\nhello\nEOF\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	pipe := prog.Body[0].(*ast.Pipeline)
	cmd := pipe.Stages[0]
	if len(cmd.Redirects) != 1 || cmd.Redirects[0].Heredoc == nil {
		t.Fatalf("got %+v", cmd.Redirects)
	}
	if cmd.Redirects[0].Heredoc.Content != "hello\n" {
		t.Errorf("Content = %q", cmd.Redirects[0].Heredoc.Content)
	}
}

func TestParseIfClause(t *testing.T) {
	src := "if true; then echo yes; else echo no; fi"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ifc, ok := prog.Body[0].(*ast.IfClause)
	if !ok {
		t.Fatalf("expected *ast.IfClause, got %T", prog.Body[0])
	}
	if ifc.Else == nil {
		t.Fatal("expected else branch")
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if a; then b; elif c; then d; else e; fi"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ifc := prog.Body[0].(*ast.IfClause)
	if len(ifc.Elifs) != 1 {
		t.Fatalf("expected 1 elif branch, got %d", len(ifc.Elifs))
	}
}

func TestParseForClause(t *testing.T) {
	src := "for f in a b c; do echo $f; done"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	forc, ok := prog.Body[0].(*ast.ForClause)
	if !ok {
		t.Fatalf("expected *ast.ForClause, got %T", prog.Body[0])
	}
	if forc.Var != "f" || len(forc.Words) != 3 {
		t.Fatalf("got %+v", forc)
	}
}

func TestParseWhileAndUntil(t *testing.T) {
	if _, err := Parse("while true; do echo x; done"); err != nil {
		t.Fatalf("while: %v", err)
	}
	if _, err := Parse("until false; do echo x; done"); err != nil {
		t.Fatalf("until: %v", err)
	}
}

func TestParseCaseClause(t *testing.T) {
	src := "case $x in a|b) echo ab ;; *) echo other ;; esac"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	cc, ok := prog.Body[0].(*ast.CaseClause)
	if !ok {
		t.Fatalf("expected *ast.CaseClause, got %T", prog.Body[0])
	}
	if len(cc.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(cc.Arms))
	}
	if len(cc.Arms[0].Patterns) != 2 {
		t.Fatalf("expected 2 patterns in first arm, got %d", len(cc.Arms[0].Patterns))
	}
}

func TestParseCompoundCommandRejectedAsPipelineStage(t *testing.T) {
	_, err := Parse("echo a | if true; then echo b; fi")
	if err == nil {
		t.Fatal("expected error for compound command as pipeline stage")
	}
}

func TestParseUnexpectedTokenProducesParseError(t *testing.T) {
	_, err := Parse("| echo hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(ParseError); !ok {
		t.Errorf("error type = %T, want parser.ParseError", err)
	}
}
