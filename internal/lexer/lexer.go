// Package lexer converts JavaScript source text into a stream of tokens.
//
// The lexer is pull based: each call to Next returns one token. It never
// decides on its own whether a "/" begins a regular expression; the parser
// asks for that explicitly with RereadAsRegexp when the grammar permits a
// regexp at the current position.
package lexer

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

const eof = rune(-1)

// Lexer holds the scanning state for one input string.
type Lexer struct {
	input     string
	pos       int  // byte offset of ch
	ch        rune // current rune, or eof
	width     int  // byte width of ch
	line      int  // 0-indexed
	column    int  // 0-indexed, in runes
	lineStart int
	file      string

	// templateDepth counts open "${" substitutions. While it is positive
	// a "}" resumes template scanning instead of closing a block, unless
	// it closes a brace opened inside the substitution. braces holds the
	// count of such open braces for each substitution level.
	templateDepth int
	braces        []int
}

// State is a snapshot of the lexer position that can be restored later.
type State struct {
	pos           int
	line          int
	column        int
	lineStart     int
	templateDepth int
	braces        []int
}

// Option is a configuration function for a Lexer.
type Option func(*Lexer)

// WithFile sets the filename recorded in token positions.
func WithFile(file string) Option {
	return func(l *Lexer) {
		l.file = file
	}
}

// New returns a Lexer positioned at the start of input.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{input: input}
	for _, opt := range opts {
		opt(l)
	}
	l.seek(0)
	return l
}

// Filename returns the filename recorded in token positions.
func (l *Lexer) Filename() string {
	return l.file
}

// Input returns the source text being scanned.
func (l *Lexer) Input() string {
	return l.input
}

// SetFilename changes the filename recorded in token positions.
func (l *Lexer) SetFilename(file string) {
	l.file = file
}

// SaveState captures the current lexer position.
func (l *Lexer) SaveState() State {
	return State{
		pos:           l.pos,
		line:          l.line,
		column:        l.column,
		lineStart:     l.lineStart,
		templateDepth: l.templateDepth,
		braces:        slices.Clone(l.braces),
	}
}

// RestoreState rewinds the lexer to a previously saved state.
func (l *Lexer) RestoreState(s State) {
	l.line = s.line
	l.column = s.column
	l.lineStart = s.lineStart
	l.templateDepth = s.templateDepth
	l.braces = slices.Clone(s.braces)
	l.seek(s.pos)
}

// Position returns the position of the next unread rune.
func (l *Lexer) Position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.column,
		File:      l.file,
	}
}

// Tokens drains the lexer, returning every token up to and including EOF.
func (l *Lexer) Tokens() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

// GetLineText returns the full source line on which tok starts.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start > len(l.input) {
		return ""
	}
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		return strings.TrimRight(l.input[start:], "\r")
	}
	return strings.TrimRight(l.input[start:start+end], "\r")
}

// Next returns the next token in the input. At end of input it returns an
// EOF token, and keeps doing so on later calls.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	start := l.Position()

	switch {
	case l.ch == eof:
		return l.newToken(token.EOF, "", start), nil
	case l.ch == '`':
		l.advance()
		return l.readTemplate(start, true)
	case l.ch == '}' && l.templateDepth > 0 && l.braces[len(l.braces)-1] == 0:
		l.advance()
		return l.readTemplate(start, false)
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peek())):
		return l.readNumber(start)
	case l.ch == '"' || l.ch == '\'':
		return l.readString(start)
	case isIdentifierStart(l.ch):
		name := l.readIdentifier()
		return l.newToken(token.LookupIdentifier(name), name, start), nil
	}
	return l.readPunctuator(start)
}

func (l *Lexer) newToken(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.Position(),
	}
}

// seek moves to byte offset pos and decodes the rune found there. Line and
// column bookkeeping is the caller's responsibility.
func (l *Lexer) seek(pos int) {
	l.pos = pos
	if pos >= len(l.input) {
		l.ch, l.width = eof, 0
		return
	}
	l.ch, l.width = utf8.DecodeRuneInString(l.input[pos:])
}

func (l *Lexer) advance() {
	if l.ch == eof {
		return
	}
	if l.ch == '\n' {
		l.line++
		l.column = 0
		l.lineStart = l.pos + l.width
	} else {
		l.column++
	}
	l.seek(l.pos + l.width)
}

// peek returns the rune after the current one.
func (l *Lexer) peek() rune {
	return l.peekAt(1)
}

// peekAt returns the rune n runes ahead of the current one.
func (l *Lexer) peekAt(n int) rune {
	pos := l.pos + l.width
	if l.ch == eof {
		return eof
	}
	for i := 1; i < n; i++ {
		if pos >= len(l.input) {
			return eof
		}
		_, w := utf8.DecodeRuneInString(l.input[pos:])
		pos += w
	}
	if pos >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case isWhitespace(l.ch):
			l.advance()
		case l.ch == '/' && l.peek() == '/':
			for l.ch != '\n' && l.ch != eof {
				l.advance()
			}
		case l.ch == '/' && l.peek() == '*':
			l.advance()
			l.advance()
			for l.ch != eof && !(l.ch == '*' && l.peek() == '/') {
				l.advance()
			}
			// An unterminated block comment simply runs to the end of input.
			if l.ch != eof {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentifierPart(l.ch) {
		l.advance()
	}
	return l.input[start:l.pos]
}

// punctuators maps every operator and punctuation spelling to its token
// type. readPunctuator always picks the longest spelling that matches.
var punctuators = map[string]token.Type{
	"(": token.LPAREN, ")": token.RPAREN, "{": token.LBRACE, "}": token.RBRACE,
	"[": token.LBRACKET, "]": token.RBRACKET, ".": token.PERIOD, "...": token.SPREAD,
	";": token.SEMICOLON, ",": token.COMMA, "?": token.QUESTION, "?.": token.QUESTION_DOT,
	":": token.COLON, "=>": token.ARROW,
	"+": token.PLUS, "-": token.MINUS, "*": token.ASTERISK, "/": token.SLASH,
	"%": token.MOD, "**": token.POW, "++": token.PLUS_PLUS, "--": token.MINUS_MINUS,
	"&": token.AMPERSAND, "|": token.BITOR, "^": token.CARET, "~": token.TILDE,
	"!": token.BANG, "&&": token.AND, "||": token.OR, "??": token.NULLISH,
	"=": token.ASSIGN, "==": token.EQ, "===": token.STRICT_EQ, "!=": token.NOT_EQ,
	"!==": token.STRICT_NEQ, "<": token.LT, "<=": token.LT_EQUALS, ">": token.GT,
	">=": token.GT_EQUALS, "<<": token.LT_LT, ">>": token.GT_GT, ">>>": token.GT_GT_GT,
	"+=": token.PLUS_EQUALS, "-=": token.MINUS_EQUALS, "*=": token.ASTERISK_EQUALS,
	"/=": token.SLASH_EQUALS, "%=": token.MOD_EQUALS, "**=": token.POW_EQUALS,
	"&=": token.AMP_EQUALS, "|=": token.BITOR_EQUALS, "^=": token.CARET_EQUALS,
	"<<=": token.LT_LT_EQUALS, ">>=": token.GT_GT_EQUALS, ">>>=": token.GT_GT_GT_EQUALS,
	"&&=": token.AND_EQUALS, "||=": token.OR_EQUALS, "??=": token.NULLISH_EQUALS,
}

const maxPunctuatorLen = 4

func (l *Lexer) readPunctuator(start token.Position) (token.Token, error) {
	for n := maxPunctuatorLen; n > 0; n-- {
		end := l.pos + n
		if end > len(l.input) {
			continue
		}
		text := l.input[l.pos:end]
		typ, ok := punctuators[text]
		if !ok {
			continue
		}
		// "?." followed by a digit is a conditional and a number: a?.5:b
		if typ == token.QUESTION_DOT && isDigit(l.peekAt(2)) {
			continue
		}
		for i := 0; i < n; i++ {
			l.advance()
		}
		if l.templateDepth > 0 {
			switch typ {
			case token.LBRACE:
				l.braces[len(l.braces)-1]++
			case token.RBRACE:
				l.braces[len(l.braces)-1]--
			}
		}
		return l.newToken(typ, text, start), nil
	}
	ch := l.ch
	l.advance()
	return token.Token{}, l.errorf(start, "unexpected character '%c'", ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isWhitespace(ch rune) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\ufeff':
		return true
	}
	return false
}

func isIdentifierStart(ch rune) bool {
	if ch == eof {
		return false
	}
	return ch == '_' || ch == '$' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') ||
		(ch >= utf8.RuneSelf && unicode.IsLetter(ch))
}

func isIdentifierPart(ch rune) bool {
	if isIdentifierStart(ch) || isDigit(ch) {
		return true
	}
	// ZWNJ and ZWJ
	if ch == '\u200c' || ch == '\u200d' {
		return true
	}
	return ch >= utf8.RuneSelf && (unicode.IsDigit(ch) || unicode.IsNumber(ch))
}
