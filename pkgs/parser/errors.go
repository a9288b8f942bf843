package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/shellvm/pkgs/lexer"
)

// ParseError describes one grammar violation: which production rejected the
// token, why, and where. Error() renders a one-line "<kind> at L:C: message"
// summary followed by the source line with the offending token's full span
// underlined, so a multi-character operator or word is marked in its
// entirety rather than at a single point.
type ParseError struct {
	Type    ErrorType
	Message string
	Token   lexer.Token
	Input   string
}

// ErrorType categorizes a ParseError by which parsing step produced it.
type ErrorType int

const (
	ErrorSyntax ErrorType = iota
	ErrorUnexpected
	ErrorMissing
	ErrorInvalid
)

func (e ErrorType) String() string {
	switch e {
	case ErrorSyntax:
		return "syntax error"
	case ErrorUnexpected:
		return "unexpected token"
	case ErrorMissing:
		return "missing token"
	case ErrorInvalid:
		return "invalid construct"
	default:
		return "parse error"
	}
}

func (e ParseError) Error() string {
	head := fmt.Sprintf("%s at %s: %s", e.Type.String(), e.Token.Pos.String(), e.Message)
	if span := e.underlineSpan(); span != "" {
		return head + "\n" + span
	}
	return head
}

// underlineSpan renders the source line the error token sits on with a run
// of carets matching the token's own width (Token.End.Column - Token.Pos.
// Column), rather than a single caret, so wide tokens like "&>>" or a long
// WORD are marked along their whole length.
func (e ParseError) underlineSpan() string {
	if e.Input == "" || e.Token.Pos.Line == 0 {
		return ""
	}
	lines := strings.Split(e.Input, "\n")
	if e.Token.Pos.Line > len(lines) {
		return ""
	}
	lineContent := lines[e.Token.Pos.Line-1]

	col := e.Token.Pos.Column
	if col < 1 || col > len(lineContent)+1 {
		return fmt.Sprintf("    %s", lineContent)
	}

	width := e.Token.End.Column - e.Token.Pos.Column
	if width < 1 {
		width = 1
	}
	if col-1+width > len(lineContent) {
		width = len(lineContent) - (col - 1)
		if width < 1 {
			width = 1
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "    %s\n", lineContent)
	b.WriteString("    ")
	b.WriteString(strings.Repeat(" ", col-1))
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}

// NewSyntaxError reports a malformed construct at the parser's current
// token with no more specific classification.
func (p *Parser) NewSyntaxError(message string) error {
	return ParseError{Type: ErrorSyntax, Message: message, Token: p.current(), Input: p.input}
}

// NewUnexpectedTokenError reports a token that doesn't fit the grammar
// production currently being parsed.
func (p *Parser) NewUnexpectedTokenError(expected string, got lexer.Token) error {
	message := fmt.Sprintf("expected %s, found %s", expected, got.Type.String())
	return ParseError{Type: ErrorUnexpected, Message: message, Token: got, Input: p.input}
}

// NewMissingTokenError reports a required token that the input ran out
// before producing (an unterminated "if" with no "fi", an operator with no
// right-hand operand, and similar).
func (p *Parser) NewMissingTokenError(expected string) error {
	return ParseError{Type: ErrorMissing, Message: fmt.Sprintf("expected %s before end of input", expected), Token: p.current(), Input: p.input}
}

// NewInvalidError reports a well-formed token sequence arranged in a way
// this grammar doesn't allow (e.g. a redirect target that isn't word-class).
func (p *Parser) NewInvalidError(message string) error {
	return ParseError{Type: ErrorInvalid, Message: message, Token: p.current(), Input: p.input}
}
