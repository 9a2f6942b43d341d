// Package parser is used to generate the abstract syntax tree (AST) for a
// JavaScript program.
//
// A parser is created by calling New() with a lexer as input. The parser should
// then be used only once, by calling parser.Parse() to produce the AST.
package parser

import (
	"context"

	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/internal/lexer"
	"github.com/deepnoodle-ai/jsbox/internal/token"
)

type (
	prefixParseFn func() (ast.Expr, error)
	infixParseFn  func(ast.Expr) (ast.Expr, error)
)

// Parse the provided input as JavaScript source code and return the AST.
// This is shorthand way to create a Lexer and Parser and then call Parse on
// that. Only the first error is reported.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	p := New(lexer.New(input), options...)
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in errors and positions.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser.
// This prevents stack overflow on deeply nested input.
// The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// Parser object
type Parser struct {
	// the Context supplied in the Parse() call
	ctx context.Context

	// l is our lexer
	l *lexer.Lexer

	// curToken holds the token being parsed.
	curToken token.Token

	// peekToken holds the next token from the lexer. When the lexer failed
	// to produce it, peekErr holds the failure, which is reported once the
	// parser tries to advance onto it.
	peekToken token.Token
	peekErr   error

	// peekState is the lexer state from just before peekToken was read,
	// used to rescan a "/" as a regular expression.
	peekState lexer.State

	// err holds a failure that occurred while priming the token pump.
	err error

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	// noIn disables "in" as a binary operator while parsing the head of a
	// for statement.
	noIn bool

	// grouped records logical expressions written inside parentheses, which
	// may be mixed with "??".
	grouped map[*ast.Logical]bool

	filename string
	depth    int
	maxDepth int
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		grouped:        map[*ast.Logical]bool{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.filename != "" {
		l.SetFilename(p.filename)
	} else {
		p.filename = l.Filename()
	}

	// Prime the token pump
	p.peekState = l.SaveState()
	p.peekToken, p.peekErr = l.Next()
	p.err = p.nextToken()

	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.NUMBER, p.parseNumber)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.TEMPLATE_HEAD, p.parseTemplate)
	p.registerPrefix(token.TEMPLATE_TAIL, p.parseTemplate)
	p.registerPrefix(token.SLASH, p.parseRegexp)
	p.registerPrefix(token.SLASH_EQUALS, p.parseRegexp)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.SUPER, p.parseKeywordIdent)
	p.registerPrefix(token.STATIC, p.parseKeywordIdent)
	p.registerPrefix(token.ASYNC, p.parseAsync)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.LBRACKET, p.parseArray)
	p.registerPrefix(token.LBRACE, p.parseObject)
	p.registerPrefix(token.FUNCTION, p.parseFunctionExpr)
	p.registerPrefix(token.CLASS, p.parseClassExpr)
	p.registerPrefix(token.NEW, p.parseNew)
	p.registerPrefix(token.PLUS, p.parseUnary)
	p.registerPrefix(token.MINUS, p.parseUnary)
	p.registerPrefix(token.BANG, p.parseUnary)
	p.registerPrefix(token.TILDE, p.parseUnary)
	p.registerPrefix(token.TYPEOF, p.parseUnary)
	p.registerPrefix(token.VOID, p.parseUnary)
	p.registerPrefix(token.DELETE, p.parseUnary)
	p.registerPrefix(token.PLUS_PLUS, p.parsePrefixUpdate)
	p.registerPrefix(token.MINUS_MINUS, p.parsePrefixUpdate)
	p.registerPrefix(token.AWAIT, p.parseAwait)
	p.registerPrefix(token.YIELD, p.parseYield)

	for _, t := range []token.Type{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.MOD, token.POW,
		token.EQ, token.NOT_EQ, token.STRICT_EQ, token.STRICT_NEQ,
		token.LT, token.LT_EQUALS, token.GT, token.GT_EQUALS, token.IN, token.INSTANCEOF,
		token.LT_LT, token.GT_GT, token.GT_GT_GT,
		token.AMPERSAND, token.BITOR, token.CARET,
	} {
		p.registerInfix(t, p.parseBinary)
	}
	p.registerInfix(token.AND, p.parseLogical)
	p.registerInfix(token.OR, p.parseLogical)
	p.registerInfix(token.NULLISH, p.parseLogical)
	for t, prec := range precedences {
		if prec == ASSIGNMENT {
			p.registerInfix(t, p.parseAssign)
		}
	}
	p.registerInfix(token.QUESTION, p.parseConditional)
	p.registerInfix(token.COMMA, p.parseSequence)
	p.registerInfix(token.PLUS_PLUS, p.parsePostfix)
	p.registerInfix(token.MINUS_MINUS, p.parsePostfix)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.PERIOD, p.parseMember)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.QUESTION_DOT, p.parseOptionalChain)
	p.registerInfix(token.TEMPLATE_HEAD, p.parseTaggedTemplate)
	p.registerInfix(token.TEMPLATE_TAIL, p.parseTaggedTemplate)
	return p
}

// Parse the program that is provided via the lexer. Parsing stops at the
// first error; no partial tree is returned.
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	if p.err != nil {
		return nil, p.err
	}
	program := &ast.Program{}
	for !p.curTokenIs(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			program.Body = append(program.Body, stmt)
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	return program, nil
}

// registerPrefix registers a function for handling a prefix-based expression.
func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers a function for handling an infix-based expression.
func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// nextToken moves to the next token from the lexer. A lexer failure on the
// token being moved onto is returned as a ParseError.
func (p *Parser) nextToken() error {
	if p.peekErr != nil {
		return p.wrapLexError(p.peekErr)
	}
	p.curToken = p.peekToken
	p.peekState = p.l.SaveState()
	p.peekToken, p.peekErr = p.l.Next()
	return nil
}

// cancelled returns the context error once the parsing context is done.
func (p *Parser) cancelled() error {
	if p.ctx == nil {
		return nil
	}
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
		return nil
	}
}

// curTokenIs returns true if the current token has the given type.
func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

// peekTokenIs returns true if the next token has the given type.
func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekErr == nil && p.peekToken.Type == t
}

// peekIsContextual reports whether the next token is the identifier name,
// as used by contextual keywords like "of", "get" and "set".
func (p *Parser) peekIsContextual(name string) bool {
	return p.peekTokenIs(token.IDENT) && p.peekToken.Literal == name
}

// expectPeek validates if the next token is of the given type, and advances if
// it is. If it's a different type, then an error is returned.
func (p *Parser) expectPeek(context string, t token.Type) error {
	if p.peekTokenIs(t) {
		return p.nextToken()
	}
	return p.peekError(context, t)
}

// peekError reports that the next token is not the expected type.
func (p *Parser) peekError(context string, expected token.Type) error {
	if p.peekErr != nil {
		return p.wrapLexError(p.peekErr)
	}
	return p.tokenError(p.peekToken, "unexpected %s while parsing %s (expected %q)",
		tokenDescription(p.peekToken), context, string(expected))
}

// unexpected reports that the current token cannot appear here.
func (p *Parser) unexpected(context string) error {
	return p.tokenError(p.curToken, "unexpected %s while parsing %s",
		tokenDescription(p.curToken), context)
}

// peekPrecedence returns the precedence of the next token as an infix
// operator.
func (p *Parser) peekPrecedence() int {
	if p.peekErr != nil {
		return NONE
	}
	switch p.peekToken.Type {
	case token.IN:
		if p.noIn {
			return NONE
		}
	case token.PLUS_PLUS, token.MINUS_MINUS:
		// A postfix operator must stay on the operand's line.
		if p.peekOnNewLine() {
			return NONE
		}
	case token.TEMPLATE_TAIL:
		// Only a template that opens here can be a tag's argument; a tail
		// that continues an enclosing template ends the expression.
		if !p.startsTemplate(p.peekToken) {
			return NONE
		}
	}
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return NONE
}

// peekOnNewLine reports whether a line break separates the current and next
// tokens.
func (p *Parser) peekOnNewLine() bool {
	return p.peekToken.StartPosition.Line > p.curToken.EndPosition.Line
}

// startsTemplate reports whether tok begins with a backtick rather than the
// "}" that closes a substitution.
func (p *Parser) startsTemplate(tok token.Token) bool {
	input := p.l.Input()
	i := tok.StartPosition.Char
	return i < len(input) && input[i] == '`'
}

// allowIn re-enables "in" as an operator for a nested construct and returns
// a function restoring the previous setting.
func (p *Parser) allowIn() func() {
	saved := p.noIn
	p.noIn = false
	return func() { p.noIn = saved }
}

// enter increments the nesting depth, failing past the configured maximum.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.tokenError(p.curToken, "maximum nesting depth exceeded")
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseExpression parses an expression whose operators all bind tighter
// than precedence. On return curToken is the last token of the expression.
func (p *Parser) parseExpression(precedence int) (ast.Expr, error) {
	defer p.leave()
	if err := p.enter(); err != nil {
		return nil, err
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		return nil, p.unexpected("expression")
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}
	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if left, err = infix(left); err != nil {
			return nil, err
		}
	}
	return left, nil
}

// parseAssignExpr parses a single expression that may not contain a
// top-level comma.
func (p *Parser) parseAssignExpr() (ast.Expr, error) {
	return p.parseExpression(COMMA)
}

// newIdent creates a new Ident node from a token.
func (p *Parser) newIdent(tok token.Token) *ast.Ident {
	return &ast.Ident{NamePos: tok.StartPosition, Name: tok.Literal}
}

// isIdentifierName reports whether t can be used as a property name after
// "." or as an object key: any identifier or reserved word.
func isIdentifierName(t token.Type) bool {
	return t == token.IDENT || token.IsKeyword(t)
}
