package lexer

import "fmt"

// TokenType identifies the kind of lexical token produced by the Lexer.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	WORD         // bare words that are not globs, assignments, or reserved keywords
	KEYWORD      // if then elif else fi for in do done while until case esac
	PIPE         // |
	AND          // &&
	OR           // ||
	SEMICOLON    // ;
	DSEMI        // ;;
	NEWLINE      // emitted only when the lexer's preserveNewlines flag is set
	LPAREN       // (
	RPAREN       // )
	REDIRECT     // <, >, >>, 2>, 2>>, &>, &>>, 2>&1, 1>&2
	VARIABLE     // $NAME, ${NAME}
	SUBSTITUTION // $(...)
	ARITHMETIC   // $((...))
	GLOB         // a word containing *, ?, [, { or }
	SINGLEQUOTE  // 'literal text'
	DOUBLEQUOTE  // "...", holding a sequence of literal/nested parts
	ASSIGNMENT   // NAME=value
	HEREDOC      // <<DELIM ... DELIM  or  <<-DELIM ... DELIM
)

var tokenNames = [...]string{
	EOF:          "EOF",
	ILLEGAL:      "ILLEGAL",
	WORD:         "WORD",
	KEYWORD:      "KEYWORD",
	PIPE:         "PIPE",
	AND:          "AND",
	OR:           "OR",
	SEMICOLON:    "SEMICOLON",
	DSEMI:        "DSEMI",
	NEWLINE:      "NEWLINE",
	LPAREN:       "LPAREN",
	RPAREN:       "RPAREN",
	REDIRECT:     "REDIRECT",
	VARIABLE:     "VARIABLE",
	SUBSTITUTION: "SUBSTITUTION",
	ARITHMETIC:   "ARITHMETIC",
	GLOB:         "GLOB",
	SINGLEQUOTE:  "SINGLEQUOTE",
	DOUBLEQUOTE:  "DOUBLEQUOTE",
	ASSIGNMENT:   "ASSIGNMENT",
	HEREDOC:      "HEREDOC",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// RedirectMode enumerates the redirect operators the lexer can disambiguate.
type RedirectMode string

const (
	RedirIn         RedirectMode = "<"
	RedirOut        RedirectMode = ">"
	RedirAppend     RedirectMode = ">>"
	RedirErr        RedirectMode = "2>"
	RedirErrAppend  RedirectMode = "2>>"
	RedirBoth       RedirectMode = "&>"
	RedirBothAppend RedirectMode = "&>>"
	RedirErrToOut   RedirectMode = "2>&1"
	RedirOutToErr   RedirectMode = "1>&2"
)

// keywords holds the reserved words recognized by the lexer. A WORD that
// matches one of these (and is not a glob or assignment) is reclassified as
// KEYWORD.
var keywords = map[string]bool{
	"if": true, "then": true, "elif": true, "else": true, "fi": true,
	"for": true, "in": true, "do": true, "done": true,
	"while": true, "until": true,
	"case": true, "esac": true,
}

// IsKeyword reports whether word is a reserved keyword.
func IsKeyword(word string) bool {
	return keywords[word]
}

// Position is a 1-based line/column with a 0-based byte offset, matching the
// positions used throughout this module's diagnostics.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// DoubleQuotePart is one fragment of a DOUBLEQUOTE token: either a literal
// text fragment, or a nested VARIABLE/SUBSTITUTION/ARITHMETIC token. Adjacent literal
// fragments are never merged — consumers (the parser) handle concatenation.
type DoubleQuotePart struct {
	Literal string
	Nested  *Token
}

// AssignmentValue is the right-hand side of an ASSIGNMENT token: either a
// plain literal string (no '$' or quote appeared), or an ordered sequence of
// nested tokens to be concatenated (VARIABLE, SUBSTITUTION, ARITHMETIC,
// SINGLEQUOTE, DOUBLEQUOTE, or WORD fragments).
type AssignmentValue struct {
	IsLiteral bool
	Literal   string
	Tokens    []Token
}

// Token is the tagged-variant result of one lexical scan. Only the fields
// relevant to Type are meaningful; see the TokenType constants for which
// fields apply to which variant.
type Token struct {
	Type TokenType
	Pos  Position
	End  Position

	// Value holds the literal text for WORD, KEYWORD, VARIABLE, GLOB,
	// SINGLEQUOTE, and the name for ASSIGNMENT. For SUBSTITUTION and
	// ARITHMETIC it holds the raw, unparsed inner text.
	Value string
	Raw   string

	Mode RedirectMode // set when Type == REDIRECT

	Parts []DoubleQuotePart // set when Type == DOUBLEQUOTE

	Assignment AssignmentValue // set when Type == ASSIGNMENT (Value holds the name)

	HeredocContent string // set when Type == HEREDOC
	HeredocExpand  bool   // set when Type == HEREDOC
}

func (t Token) String() string {
	switch t.Type {
	case WORD, KEYWORD, VARIABLE, GLOB, SINGLEQUOTE:
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	case REDIRECT:
		return fmt.Sprintf("REDIRECT(%s)", t.Mode)
	case ASSIGNMENT:
		return fmt.Sprintf("ASSIGNMENT(%s=...)", t.Value)
	case SUBSTITUTION, ARITHMETIC:
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	default:
		return t.Type.String()
	}
}

// IsWordClass reports whether a token can stand in for an expression word in
// the parser's command production (word | heredoc in the grammar).
func (t Token) IsWordClass() bool {
	switch t.Type {
	case WORD, KEYWORD, VARIABLE, GLOB, SINGLEQUOTE, DOUBLEQUOTE, SUBSTITUTION, ARITHMETIC, HEREDOC:
		return true
	default:
		return false
	}
}
