package ast

// NewProgram builds a Program from top-level statements.
func NewProgram(body ...Node) *Program {
	return &Program{Body: body}
}

// NewSequence builds a ';'/newline separated list of statements.
func NewSequence(items ...Node) *Sequence {
	return &Sequence{Items: items}
}

// NewAnd builds a left && right and-or list.
func NewAnd(left, right Node) *And {
	return &And{Left: left, Right: right}
}

// NewOr builds a left || right and-or list.
func NewOr(left, right Node) *Or {
	return &Or{Left: left, Right: right}
}

// NewPipeline builds a pipeline from its stages, left to right.
func NewPipeline(stages ...*Command) *Pipeline {
	return &Pipeline{Stages: stages}
}

// NewCommand builds a simple command.
func NewCommand(words []Expr, assignments []Assignment, redirects []Redirect) *Command {
	return &Command{Words: words, Assignments: assignments, Redirects: redirects}
}

// NewAssignment builds a NAME=value assignment.
func NewAssignment(name string, value Expr) Assignment {
	return Assignment{Name: name, Value: value}
}

// NewRedirect builds a file-target redirection.
func NewRedirect(mode RedirectMode, target Expr) Redirect {
	return Redirect{Mode: mode, Target: target}
}

// NewHeredocRedirect builds a heredoc redirection.
func NewHeredocRedirect(content string, expand bool) Redirect {
	return Redirect{Mode: lexerHeredocMode, Heredoc: &Heredoc{Content: content, Expand: expand}}
}

// lexerHeredocMode is the conventional mode tag attached to heredoc
// redirects; heredocs are always directed at stdin of the command.
const lexerHeredocMode RedirectMode = "<<"

// Lit builds a resolved literal expression.
func Lit(value string) *Literal {
	return &Literal{Value: value}
}

// VarRef builds a $NAME / ${NAME} reference.
func VarRef(name string) *Variable {
	return &Variable{Name: name}
}

// SubRef builds a $(...) command substitution from its raw inner text.
func SubRef(raw string) *Substitution {
	return &Substitution{Raw: raw}
}

// ArithRef builds a $((...)) arithmetic expansion from its raw inner text.
func ArithRef(raw string) *Arithmetic {
	return &Arithmetic{Raw: raw}
}

// GlobRef builds a glob pattern expression.
func GlobRef(pattern string) *Glob {
	return &Glob{Pattern: pattern}
}

// Cat builds a Concat from parts, flattening any nested Concat arguments.
func Cat(parts ...Expr) Expr {
	if len(parts) == 1 {
		return parts[0]
	}
	var flat []Expr
	for _, p := range parts {
		if c, ok := p.(*Concat); ok {
			flat = append(flat, c.Parts...)
			continue
		}
		flat = append(flat, p)
	}
	return &Concat{Parts: flat}
}

// NewIfClause builds an if/elif/else/fi node.
func NewIfClause(cond, then Node, elifs []ElifBranch, els Node) *IfClause {
	return &IfClause{Cond: cond, Then: then, Elifs: elifs, Else: els}
}

// NewForClause builds a for/in/do/done node.
func NewForClause(v string, words []Expr, body Node) *ForClause {
	return &ForClause{Var: v, Words: words, Body: body}
}

// NewWhileClause builds a while/do/done node.
func NewWhileClause(cond, body Node) *WhileClause {
	return &WhileClause{Cond: cond, Body: body}
}

// NewUntilClause builds an until/do/done node.
func NewUntilClause(cond, body Node) *UntilClause {
	return &UntilClause{Cond: cond, Body: body}
}

// NewCaseClause builds a case/in/esac node.
func NewCaseClause(subject Expr, arms []CaseArm) *CaseClause {
	return &CaseClause{Subject: subject, Arms: arms}
}

// NewCaseArm builds one pattern)...;; arm.
func NewCaseArm(patterns []Expr, body Node) CaseArm {
	return CaseArm{Patterns: patterns, Body: body}
}
