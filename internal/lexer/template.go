package lexer

import (
	"strings"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// readTemplate scans one span of a template literal. The opening "`" (when
// head is true) or the "}" closing a substitution has already been consumed.
//
// A span ending in "`" is a TEMPLATE_TAIL. A span ending in "${" is a
// TEMPLATE_HEAD when it starts the literal and a TEMPLATE_MIDDLE otherwise.
// Literal holds the cooked text and Raw the source text between delimiters.
func (l *Lexer) readTemplate(start token.Position, head bool) (token.Token, error) {
	if !head {
		l.templateDepth--
		l.braces = l.braces[:len(l.braces)-1]
	}
	var cooked strings.Builder
	begin := l.pos
	for {
		switch l.ch {
		case eof:
			return token.Token{}, l.errorf(start, "unterminated template literal")
		case '`':
			raw := l.input[begin:l.pos]
			l.advance()
			tok := l.newToken(token.TEMPLATE_TAIL, cooked.String(), start)
			tok.Raw = normalizeNewlines(raw)
			return tok, nil
		case '$':
			if l.peek() != '{' {
				cooked.WriteRune(l.ch)
				l.advance()
				continue
			}
			raw := l.input[begin:l.pos]
			l.advance()
			l.advance()
			l.templateDepth++
			l.braces = append(l.braces, 0)
			typ := token.TEMPLATE_MIDDLE
			if head {
				typ = token.TEMPLATE_HEAD
			}
			tok := l.newToken(typ, cooked.String(), start)
			tok.Raw = normalizeNewlines(raw)
			return tok, nil
		case '\\':
			l.advance()
			if err := l.readEscape(&cooked); err != nil {
				return token.Token{}, err
			}
		case '\r':
			// CR and CRLF both cook to LF
			l.advance()
			if l.ch == '\n' {
				l.advance()
			}
			cooked.WriteByte('\n')
		default:
			cooked.WriteRune(l.ch)
			l.advance()
		}
	}
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
