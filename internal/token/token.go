// Package token defines JavaScript keywords and tokens used when lexing source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the file
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number, counted in runes
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// IsValid returns true if this position has been set.
func (p Position) IsValid() bool {
	return p.File != "" || p.Line > 0 || p.Column > 0 || p.Char > 0
}

// NoPos is the zero value Position, representing an invalid/unset position.
var NoPos = Position{}

// Token represents one token lexed from the input source code.
//
// Literal holds the identifier name, the decoded string value, the cooked
// template text or the regexp pattern, depending on Type. Numeric tokens
// carry their converted value in Number.
type Token struct {
	Type          Type
	Literal       string
	Raw           string  // raw template text
	Number        float64 // NUMBER value
	Flags         string  // REGEXP flags
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	IDENT  Type = "IDENT"
	NUMBER Type = "NUMBER"
	STRING Type = "STRING"
	REGEXP Type = "REGEXP"

	TEMPLATE_HEAD   Type = "TEMPLATE_HEAD"
	TEMPLATE_MIDDLE Type = "TEMPLATE_MIDDLE"
	TEMPLATE_TAIL   Type = "TEMPLATE_TAIL"

	NULL  Type = "null"
	TRUE  Type = "true"
	FALSE Type = "false"

	// Punctuation
	LPAREN       Type = "("
	RPAREN       Type = ")"
	LBRACE       Type = "{"
	RBRACE       Type = "}"
	LBRACKET     Type = "["
	RBRACKET     Type = "]"
	PERIOD       Type = "."
	SPREAD       Type = "..."
	SEMICOLON    Type = ";"
	COMMA        Type = ","
	QUESTION     Type = "?"
	QUESTION_DOT Type = "?."
	COLON        Type = ":"
	ARROW        Type = "=>"

	// Operators
	PLUS        Type = "+"
	MINUS       Type = "-"
	ASTERISK    Type = "*"
	SLASH       Type = "/"
	MOD         Type = "%"
	POW         Type = "**"
	PLUS_PLUS   Type = "++"
	MINUS_MINUS Type = "--"
	AMPERSAND   Type = "&"
	BITOR       Type = "|"
	CARET       Type = "^"
	TILDE       Type = "~"
	BANG        Type = "!"
	AND         Type = "&&"
	OR          Type = "||"
	NULLISH     Type = "??"
	ASSIGN      Type = "="
	EQ          Type = "=="
	STRICT_EQ   Type = "==="
	NOT_EQ      Type = "!="
	STRICT_NEQ  Type = "!=="
	LT          Type = "<"
	LT_EQUALS   Type = "<="
	GT          Type = ">"
	GT_EQUALS   Type = ">="
	LT_LT       Type = "<<"
	GT_GT       Type = ">>"
	GT_GT_GT    Type = ">>>"

	// Assignment operators
	PLUS_EQUALS     Type = "+="
	MINUS_EQUALS    Type = "-="
	ASTERISK_EQUALS Type = "*="
	SLASH_EQUALS    Type = "/="
	MOD_EQUALS      Type = "%="
	POW_EQUALS      Type = "**="
	AMP_EQUALS      Type = "&="
	BITOR_EQUALS    Type = "|="
	CARET_EQUALS    Type = "^="
	LT_LT_EQUALS    Type = "<<="
	GT_GT_EQUALS    Type = ">>="
	GT_GT_GT_EQUALS Type = ">>>="
	AND_EQUALS      Type = "&&="
	OR_EQUALS       Type = "||="
	NULLISH_EQUALS  Type = "??="

	// Keywords
	BREAK      Type = "break"
	CASE       Type = "case"
	CATCH      Type = "catch"
	CLASS      Type = "class"
	CONST      Type = "const"
	CONTINUE   Type = "continue"
	DEBUGGER   Type = "debugger"
	DEFAULT    Type = "default"
	DELETE     Type = "delete"
	DO         Type = "do"
	ELSE       Type = "else"
	EXPORT     Type = "export"
	EXTENDS    Type = "extends"
	FINALLY    Type = "finally"
	FOR        Type = "for"
	FUNCTION   Type = "function"
	IF         Type = "if"
	IMPORT     Type = "import"
	IN         Type = "in"
	INSTANCEOF Type = "instanceof"
	NEW        Type = "new"
	RETURN     Type = "return"
	SUPER      Type = "super"
	SWITCH     Type = "switch"
	THIS       Type = "this"
	THROW      Type = "throw"
	TRY        Type = "try"
	TYPEOF     Type = "typeof"
	VAR        Type = "var"
	VOID       Type = "void"
	WHILE      Type = "while"
	WITH       Type = "with"
	YIELD      Type = "yield"
	LET        Type = "let"
	STATIC     Type = "static"
	ASYNC      Type = "async"
	AWAIT      Type = "await"
)

// Reserved keywords
var keywords = map[string]Type{
	"break":      BREAK,
	"case":       CASE,
	"catch":      CATCH,
	"class":      CLASS,
	"const":      CONST,
	"continue":   CONTINUE,
	"debugger":   DEBUGGER,
	"default":    DEFAULT,
	"delete":     DELETE,
	"do":         DO,
	"else":       ELSE,
	"export":     EXPORT,
	"extends":    EXTENDS,
	"finally":    FINALLY,
	"for":        FOR,
	"function":   FUNCTION,
	"if":         IF,
	"import":     IMPORT,
	"in":         IN,
	"instanceof": INSTANCEOF,
	"new":        NEW,
	"return":     RETURN,
	"super":      SUPER,
	"switch":     SWITCH,
	"this":       THIS,
	"throw":      THROW,
	"try":        TRY,
	"typeof":     TYPEOF,
	"var":        VAR,
	"void":       VOID,
	"while":      WHILE,
	"with":       WITH,
	"yield":      YIELD,
	"let":        LET,
	"static":     STATIC,
	"async":      ASYNC,
	"await":      AWAIT,
	"null":       NULL,
	"true":       TRUE,
	"false":      FALSE,
}

// LookupIdentifier used to determinate whether identifier is keyword nor not
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether t is a reserved word, including the literal
// keywords null, true and false.
func IsKeyword(t Type) bool {
	_, ok := keywords[string(t)]
	return ok
}

// IsAssignment reports whether t is "=" or one of the compound assignment
// operators.
func IsAssignment(t Type) bool {
	switch t {
	case ASSIGN, PLUS_EQUALS, MINUS_EQUALS, ASTERISK_EQUALS, SLASH_EQUALS,
		MOD_EQUALS, POW_EQUALS, AMP_EQUALS, BITOR_EQUALS, CARET_EQUALS,
		LT_LT_EQUALS, GT_GT_EQUALS, GT_GT_GT_EQUALS, AND_EQUALS, OR_EQUALS,
		NULLISH_EQUALS:
		return true
	}
	return false
}
