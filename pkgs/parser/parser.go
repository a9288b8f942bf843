// Package parser implements a recursive descent parser over the token
// stream pkgs/lexer produces, assembling the AST defined in pkgs/ast.
package parser

import (
	"github.com/aledsdavies/shellvm/pkgs/ast"
	"github.com/aledsdavies/shellvm/pkgs/lexer"
)

// Parser turns a pre-lexed token stream into an *ast.Program. It trusts the
// lexer to have already resolved quoting, dollar-forms, and heredocs; its
// job is purely to assemble the tree the grammar describes.
type Parser struct {
	input  string
	tokens []lexer.Token
	pos    int
}

// Parse lexes and parses source into a complete AST.
func Parse(source string) (*ast.Program, error) {
	tokens, err := lexer.Lex(source, true)
	if err != nil {
		return nil, err
	}
	p := &Parser{input: source, tokens: tokens}

	node, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.NewUnexpectedTokenError("end of input", p.current())
	}

	switch n := node.(type) {
	case *ast.Sequence:
		return ast.NewProgram(n.Items...), nil
	case nil:
		return ast.NewProgram(), nil
	default:
		return ast.NewProgram(n), nil
	}
}

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) atEOF() bool {
	return p.current().Type == lexer.EOF
}

func (p *Parser) atSeparator() bool {
	t := p.current().Type
	return t == lexer.SEMICOLON || t == lexer.NEWLINE
}

func (p *Parser) skipSeparators() {
	for p.atSeparator() {
		p.advance()
	}
}

func (p *Parser) atKeyword(words ...string) bool {
	tok := p.current()
	if tok.Type != lexer.KEYWORD {
		return false
	}
	for _, w := range words {
		if tok.Value == w {
			return true
		}
	}
	return false
}

func (p *Parser) expectKeyword(word string) error {
	if !p.atKeyword(word) {
		return p.NewMissingTokenError("'" + word + "'")
	}
	p.advance()
	return nil
}

func (p *Parser) expect(tt lexer.TokenType) error {
	if p.current().Type != tt {
		return p.NewMissingTokenError(tt.String())
	}
	p.advance()
	return nil
}

func (p *Parser) isCompoundStart() bool {
	return p.atKeyword("if", "for", "while", "until", "case")
}

// --- sequence / and-or / pipeline ---

// parseSequence parses a ';'/newline separated list of and-or lists,
// running to EOF.
func (p *Parser) parseSequence() (ast.Node, error) {
	return p.parseList(nil)
}

// parseCompoundList parses the body of a compound construct: the same
// grammar as parseSequence, but stopping at EOF, a ';;' (case arms), or one
// of the given terminator keywords (without consuming it).
func (p *Parser) parseCompoundList(stopKeywords ...string) (ast.Node, error) {
	node, err := p.parseList(stopKeywords)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, p.NewMissingTokenError("command list")
	}
	return node, nil
}

func (p *Parser) parseList(stopKeywords []string) (ast.Node, error) {
	var items []ast.Node
	for {
		p.skipSeparators()
		if p.atEOF() || p.current().Type == lexer.DSEMI {
			break
		}
		if len(stopKeywords) > 0 && p.atKeyword(stopKeywords...) {
			break
		}
		item, err := p.parseAndOr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.atSeparator() {
			break
		}
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0], nil
	default:
		return ast.NewSequence(items...), nil
	}
}

func (p *Parser) parseAndOr() (ast.Node, error) {
	left, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current().Type {
		case lexer.AND:
			p.advance()
			right, err := p.parsePipeline()
			if err != nil {
				return nil, err
			}
			left = ast.NewAnd(left, right)
		case lexer.OR:
			p.advance()
			right, err := p.parsePipeline()
			if err != nil {
				return nil, err
			}
			left = ast.NewOr(left, right)
		default:
			return left, nil
		}
	}
}

func (p *Parser) parsePipeline() (ast.Node, error) {
	if p.isCompoundStart() {
		return p.parseCompoundCommand()
	}
	first, err := p.parseSimpleCommand()
	if err != nil {
		return nil, err
	}
	stages := []*ast.Command{first}
	for p.current().Type == lexer.PIPE {
		p.advance()
		if p.isCompoundStart() {
			return nil, p.NewInvalidError("compound commands cannot appear as a pipeline stage")
		}
		stage, err := p.parseSimpleCommand()
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return ast.NewPipeline(stages...), nil
}

// --- simple commands, words, redirects ---

func (p *Parser) parseSimpleCommand() (*ast.Command, error) {
	var assignments []ast.Assignment
	var words []ast.Expr
	var redirects []ast.Redirect

	for p.current().Type == lexer.ASSIGNMENT {
		tok := p.current()
		val, err := p.assignmentValueExpr(tok)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, ast.NewAssignment(tok.Value, val))
		p.advance()
	}

	for {
		tok := p.current()
		switch {
		case tok.Type == lexer.REDIRECT:
			r, err := p.parseFileRedirect()
			if err != nil {
				return nil, err
			}
			redirects = append(redirects, r)
		case tok.Type == lexer.HEREDOC:
			redirects = append(redirects, ast.NewHeredocRedirect(tok.HeredocContent, tok.HeredocExpand))
			p.advance()
		case tok.Type == lexer.ASSIGNMENT:
			expr, err := p.assignmentAsWordExpr(tok)
			if err != nil {
				return nil, err
			}
			words = append(words, expr)
			p.advance()
		case tok.IsWordClass():
			expr, err := p.wordExpr(tok)
			if err != nil {
				return nil, err
			}
			words = append(words, expr)
			p.advance()
		default:
			goto done
		}
	}
done:
	if len(words) == 0 && len(assignments) == 0 && len(redirects) == 0 {
		return nil, p.NewUnexpectedTokenError("command", p.current())
	}
	return ast.NewCommand(words, assignments, redirects), nil
}

func (p *Parser) parseFileRedirect() (ast.Redirect, error) {
	modeTok := p.current()
	p.advance()

	if modeTok.Mode == lexer.RedirErrToOut || modeTok.Mode == lexer.RedirOutToErr {
		return ast.NewRedirect(modeTok.Mode, nil), nil
	}

	tgtTok := p.current()
	if !tgtTok.IsWordClass() {
		return ast.Redirect{}, p.NewUnexpectedTokenError("redirect target", tgtTok)
	}
	expr, err := p.wordExpr(tgtTok)
	if err != nil {
		return ast.Redirect{}, err
	}
	p.advance()
	return ast.NewRedirect(modeTok.Mode, expr), nil
}

// wordExpr converts a single word-class token into its Expr form. Nested
// tokens inside DOUBLEQUOTE or ASSIGNMENT values recurse through this same
// function.
func (p *Parser) wordExpr(tok lexer.Token) (ast.Expr, error) {
	switch tok.Type {
	case lexer.WORD, lexer.KEYWORD, lexer.SINGLEQUOTE:
		return ast.Lit(tok.Value), nil
	case lexer.GLOB:
		return ast.GlobRef(tok.Value), nil
	case lexer.VARIABLE:
		return ast.VarRef(tok.Value), nil
	case lexer.SUBSTITUTION:
		return ast.SubRef(tok.Value), nil
	case lexer.ARITHMETIC:
		return ast.ArithRef(tok.Value), nil
	case lexer.DOUBLEQUOTE:
		return p.doubleQuoteExpr(tok)
	case lexer.ASSIGNMENT:
		return p.assignmentAsWordExpr(tok)
	default:
		return nil, p.NewUnexpectedTokenError("word", tok)
	}
}

func (p *Parser) doubleQuoteExpr(tok lexer.Token) (ast.Expr, error) {
	var parts []ast.Expr
	for _, part := range tok.Parts {
		if part.Nested != nil {
			expr, err := p.wordExpr(*part.Nested)
			if err != nil {
				return nil, err
			}
			parts = append(parts, expr)
			continue
		}
		parts = append(parts, ast.Lit(part.Literal))
	}
	if len(parts) == 0 {
		return ast.Lit(""), nil
	}
	return ast.Cat(parts...), nil
}

func (p *Parser) assignmentValueExpr(tok lexer.Token) (ast.Expr, error) {
	if tok.Assignment.IsLiteral {
		return ast.Lit(tok.Assignment.Literal), nil
	}
	var parts []ast.Expr
	for _, inner := range tok.Assignment.Tokens {
		expr, err := p.wordExpr(inner)
		if err != nil {
			return nil, err
		}
		parts = append(parts, expr)
	}
	if len(parts) == 0 {
		return ast.Lit(""), nil
	}
	return ast.Cat(parts...), nil
}

// assignmentAsWordExpr reconstructs NAME=value as a plain word expression,
// for ASSIGNMENT-shaped tokens that appear after a command's first word
// (e.g. the "FOO=bar" argument in `echo FOO=bar`).
func (p *Parser) assignmentAsWordExpr(tok lexer.Token) (ast.Expr, error) {
	val, err := p.assignmentValueExpr(tok)
	if err != nil {
		return nil, err
	}
	return ast.Cat(ast.Lit(tok.Value+"="), val), nil
}

// --- compound constructs (parsed but not executed by interp) ---

func (p *Parser) parseCompoundCommand() (ast.Node, error) {
	switch p.current().Value {
	case "if":
		return p.parseIfClause()
	case "for":
		return p.parseForClause()
	case "while":
		return p.parseWhileClause()
	case "until":
		return p.parseUntilClause()
	case "case":
		return p.parseCaseClause()
	default:
		return nil, p.NewUnexpectedTokenError("compound command", p.current())
	}
}

func (p *Parser) parseIfClause() (ast.Node, error) {
	if err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseCompoundList("then")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseCompoundList("elif", "else", "fi")
	if err != nil {
		return nil, err
	}

	var elifs []ast.ElifBranch
	for p.atKeyword("elif") {
		p.advance()
		econd, err := p.parseCompoundList("then")
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		ebody, err := p.parseCompoundList("elif", "else", "fi")
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, ast.ElifBranch{Cond: econd, Body: ebody})
	}

	var elseBody ast.Node
	if p.atKeyword("else") {
		p.advance()
		elseBody, err = p.parseCompoundList("fi")
		if err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("fi"); err != nil {
		return nil, err
	}
	return ast.NewIfClause(cond, then, elifs, elseBody), nil
}

func (p *Parser) parseForClause() (ast.Node, error) {
	if err := p.expectKeyword("for"); err != nil {
		return nil, err
	}
	nameTok := p.current()
	if nameTok.Type != lexer.WORD {
		return nil, p.NewUnexpectedTokenError("variable name", nameTok)
	}
	p.advance()

	var words []ast.Expr
	if p.atKeyword("in") {
		p.advance()
		for p.current().IsWordClass() {
			expr, err := p.wordExpr(p.current())
			if err != nil {
				return nil, err
			}
			words = append(words, expr)
			p.advance()
		}
	}
	if p.atSeparator() {
		p.skipSeparators()
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList("done")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("done"); err != nil {
		return nil, err
	}
	return ast.NewForClause(nameTok.Value, words, body), nil
}

func (p *Parser) parseWhileClause() (ast.Node, error) {
	if err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	cond, err := p.parseCompoundList("do")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList("done")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("done"); err != nil {
		return nil, err
	}
	return ast.NewWhileClause(cond, body), nil
}

func (p *Parser) parseUntilClause() (ast.Node, error) {
	if err := p.expectKeyword("until"); err != nil {
		return nil, err
	}
	cond, err := p.parseCompoundList("do")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, err := p.parseCompoundList("done")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("done"); err != nil {
		return nil, err
	}
	return ast.NewUntilClause(cond, body), nil
}

func (p *Parser) parseCaseClause() (ast.Node, error) {
	if err := p.expectKeyword("case"); err != nil {
		return nil, err
	}
	subjTok := p.current()
	if !subjTok.IsWordClass() {
		return nil, p.NewUnexpectedTokenError("word", subjTok)
	}
	subj, err := p.wordExpr(subjTok)
	if err != nil {
		return nil, err
	}
	p.advance()
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	p.skipSeparators()

	var arms []ast.CaseArm
	for !p.atKeyword("esac") && !p.atEOF() {
		if p.current().Type == lexer.LPAREN {
			p.advance()
		}

		var patterns []ast.Expr
		for {
			tok := p.current()
			if !tok.IsWordClass() {
				return nil, p.NewUnexpectedTokenError("case pattern", tok)
			}
			expr, err := p.wordExpr(tok)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, expr)
			p.advance()
			if p.current().Type == lexer.PIPE {
				p.advance()
				continue
			}
			break
		}
		if err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		p.skipSeparators()

		var body ast.Node
		if !p.atKeyword("esac") && p.current().Type != lexer.DSEMI {
			body, err = p.parseCompoundList("esac")
			if err != nil {
				return nil, err
			}
		}
		if p.current().Type == lexer.DSEMI {
			p.advance()
		}
		p.skipSeparators()
		arms = append(arms, ast.NewCaseArm(patterns, body))
	}
	if err := p.expectKeyword("esac"); err != nil {
		return nil, err
	}
	return ast.NewCaseClause(subj, arms), nil
}
