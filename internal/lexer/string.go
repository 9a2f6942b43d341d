package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

func (l *Lexer) readString(start token.Position) (token.Token, error) {
	quote := l.ch
	l.advance()
	var sb strings.Builder
	for {
		switch l.ch {
		case eof:
			return token.Token{}, l.errorHere("unterminated string literal")
		case quote:
			l.advance()
			return l.newToken(token.STRING, sb.String(), start), nil
		case '\n', '\r':
			return token.Token{}, l.errorHere("newline in string literal")
		case '\\':
			l.advance()
			if err := l.readEscape(&sb); err != nil {
				return token.Token{}, err
			}
		default:
			sb.WriteRune(l.ch)
			l.advance()
		}
	}
}

// readEscape decodes the escape sequence following a backslash into sb. The
// backslash has already been consumed.
func (l *Lexer) readEscape(sb *strings.Builder) error {
	ch := l.ch
	if ch == eof {
		return l.errorHere("unterminated string literal")
	}
	l.advance()
	switch ch {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case 'x':
		r, err := l.readHexDigits(2)
		if err != nil {
			return err
		}
		sb.WriteRune(r)
	case 'u':
		r, err := l.readUnicodeEscape()
		if err != nil {
			return err
		}
		sb.WriteRune(r)
	case '\n':
		// line continuation
	case '\r':
		if l.ch == '\n' {
			l.advance()
		}
	default:
		// \\ \' \" \` and identity escapes
		sb.WriteRune(ch)
	}
	return nil
}

func (l *Lexer) readHexDigits(n int) (rune, error) {
	var r rune
	for i := 0; i < n; i++ {
		d, ok := digitValue(l.ch)
		if !ok {
			return 0, l.errorHere("expected hex digit")
		}
		r = r*16 + rune(d)
		l.advance()
	}
	return r, nil
}

// readUnicodeEscape decodes \uHHHH or \u{H+}. The "u" has been consumed.
func (l *Lexer) readUnicodeEscape() (rune, error) {
	if l.ch != '{' {
		return l.readHexDigits(4)
	}
	l.advance()
	var r rune
	digits := 0
	for l.ch != '}' {
		d, ok := digitValue(l.ch)
		if !ok {
			return 0, l.errorHere("expected hex digit")
		}
		r = r*16 + rune(d)
		digits++
		if r > utf8.MaxRune {
			return 0, l.errorHere("invalid unicode codepoint")
		}
		l.advance()
	}
	l.advance()
	if digits == 0 {
		return 0, l.errorHere("empty \\u{} escape")
	}
	return r, nil
}
