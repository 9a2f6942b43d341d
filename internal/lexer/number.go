package lexer

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/jsbox/internal/token"
)

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	if l.ch == '0' {
		switch l.peek() {
		case 'x', 'X':
			return l.readRadixNumber(start, 16, "expected hex digit after 0x")
		case 'b', 'B':
			return l.readRadixNumber(start, 2, "expected binary digit after 0b")
		case 'o', 'O':
			return l.readRadixNumber(start, 8, "expected octal digit after 0o")
		}
	}

	begin := l.pos
	if err := l.readDigits(10); err != nil {
		return token.Token{}, err
	}
	// "5." is a complete literal; "5..x" leaves the second dot for the
	// member access.
	if l.ch == '.' {
		l.advance()
		if l.ch == '_' {
			return token.Token{}, l.errorHere(separatorMessage)
		}
		if err := l.readDigits(10); err != nil {
			return token.Token{}, err
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.advance()
		if l.ch == '+' || l.ch == '-' {
			l.advance()
		}
		if err := l.readDigits(10); err != nil {
			return token.Token{}, err
		}
	}
	if err := l.checkNumberEnd(); err != nil {
		return token.Token{}, err
	}
	text := l.input[begin:l.pos]
	tok := l.newToken(token.NUMBER, text, start)
	tok.Number = parseDecimal(text)
	return tok, nil
}

const separatorMessage = "numeric separator must appear between digits"

// readDigits consumes a run of digits in base, allowing single '_'
// separators between two digits.
func (l *Lexer) readDigits(base uint64) error {
	afterDigit := false
	for {
		if l.ch == '_' {
			d, ok := digitValue(l.peek())
			if !afterDigit || !ok || d >= base {
				return l.errorHere(separatorMessage)
			}
			l.advance()
			afterDigit = false
			continue
		}
		d, ok := digitValue(l.ch)
		if !ok || d >= base {
			return nil
		}
		afterDigit = true
		l.advance()
	}
}

// checkNumberEnd rejects a literal glued to an identifier or a digit that
// is out of range for its base, as in "3in" or "0b102".
func (l *Lexer) checkNumberEnd() error {
	if isIdentifierStart(l.ch) || isDigit(l.ch) {
		return l.errorHere("identifier starts immediately after numeric literal")
	}
	return nil
}

// readRadixNumber scans a 0x, 0b or 0o literal. The value accumulates in
// 64 bits, wrapping on overflow.
func (l *Lexer) readRadixNumber(start token.Position, base uint64, missing string) (token.Token, error) {
	begin := l.pos
	l.advance() // 0
	l.advance() // x, b or o
	if d, ok := digitValue(l.ch); !ok || d >= base {
		if l.ch == '_' {
			return token.Token{}, l.errorHere(separatorMessage)
		}
		return token.Token{}, l.errorHere(missing)
	}
	digits := l.pos
	if err := l.readDigits(base); err != nil {
		return token.Token{}, err
	}
	var value uint64
	for _, ch := range l.input[digits:l.pos] {
		if d, ok := digitValue(ch); ok {
			value = value*base + d
		}
	}
	if err := l.checkNumberEnd(); err != nil {
		return token.Token{}, err
	}
	tok := l.newToken(token.NUMBER, l.input[begin:l.pos], start)
	tok.Number = float64(value)
	return tok, nil
}

// parseDecimal converts a decimal literal with its separators removed.
// Malformed text (such as a dangling exponent) converts to NaN.
func parseDecimal(text string) float64 {
	clean := strings.ReplaceAll(text, "_", "")
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

func digitValue(ch rune) (uint64, bool) {
	switch {
	case '0' <= ch && ch <= '9':
		return uint64(ch - '0'), true
	case 'a' <= ch && ch <= 'f':
		return uint64(ch-'a') + 10, true
	case 'A' <= ch && ch <= 'F':
		return uint64(ch-'A') + 10, true
	}
	return 0, false
}
