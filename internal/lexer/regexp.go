package lexer

import (
	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// RereadAsRegexp rewinds to start, which must be the position of a "/" or
// "/=" token just returned by Next, and scans a regular expression literal
// from there. The pattern is returned in Literal and the flags in Flags.
func (l *Lexer) RereadAsRegexp(start token.Position) (token.Token, error) {
	l.line = start.Line
	l.column = start.Column
	l.lineStart = start.LineStart
	l.seek(start.Char)
	if l.ch != '/' {
		return token.Token{}, l.errorf(start, "unterminated regexp")
	}
	l.advance()

	begin := l.pos
	inClass := false
	for {
		switch l.ch {
		case eof, '\n', '\r':
			return token.Token{}, l.errorf(start, "unterminated regexp")
		case '\\':
			l.advance()
			if l.ch == eof || l.ch == '\n' || l.ch == '\r' {
				return token.Token{}, l.errorf(start, "unterminated regexp escape")
			}
			l.advance()
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if inClass {
				break
			}
			pattern := l.input[begin:l.pos]
			l.advance()
			flagStart := l.pos
			for ('a' <= l.ch && l.ch <= 'z') || ('A' <= l.ch && l.ch <= 'Z') {
				l.advance()
			}
			tok := l.newToken(token.REGEXP, pattern, start)
			tok.Flags = l.input[flagStart:l.pos]
			return tok, nil
		}
		l.advance()
	}
}
