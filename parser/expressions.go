package parser

import (
	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/internal/token"
)

func (p *Parser) parseIdent() (ast.Expr, error) {
	ident := p.newIdent(p.curToken)
	if p.peekTokenIs(token.ARROW) {
		return p.parseArrow(ident.NamePos, []ast.Pattern{ident}, false)
	}
	return ident, nil
}

// parseKeywordIdent handles reserved words that evaluate like names, such
// as super.
func (p *Parser) parseKeywordIdent() (ast.Expr, error) {
	return p.newIdent(p.curToken), nil
}

func (p *Parser) parseThis() (ast.Expr, error) {
	return &ast.This{ThisPos: p.curToken.StartPosition}, nil
}

func (p *Parser) parseAsync() (ast.Expr, error) {
	asyncTok := p.curToken
	pos := asyncTok.StartPosition
	switch {
	case p.peekTokenIs(token.FUNCTION):
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		return p.parseFunction(pos, true, false)
	case p.peekTokenIs(token.IDENT):
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		param := p.newIdent(p.curToken)
		if !p.peekTokenIs(token.ARROW) {
			return nil, p.peekError("async arrow function", token.ARROW)
		}
		return p.parseArrow(pos, []ast.Pattern{param}, true)
	case p.peekTokenIs(token.LPAREN):
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		lparen := p.curToken.StartPosition
		items, rest, err := p.parseParenItems()
		if err != nil {
			return nil, err
		}
		if p.peekTokenIs(token.ARROW) {
			return p.arrowFromItems(pos, items, rest, true)
		}
		if rest != nil {
			return nil, p.peekError("async arrow function", token.ARROW)
		}
		// Not an arrow: a call of a function named async.
		return &ast.Call{Callee: &ast.Ident{NamePos: pos, Name: "async"}, Lparen: lparen, Args: items}, nil
	}
	return &ast.Ident{NamePos: pos, Name: asyncTok.Literal}, nil
}

// parseGroupedExpr parses a parenthesized expression, or an arrow function
// parameter list when "=>" follows the closing paren.
func (p *Parser) parseGroupedExpr() (ast.Expr, error) {
	pos := p.curToken.StartPosition
	items, rest, err := p.parseParenItems()
	if err != nil {
		return nil, err
	}
	if p.peekTokenIs(token.ARROW) {
		return p.arrowFromItems(pos, items, rest, false)
	}
	if rest != nil || len(items) == 0 {
		return nil, p.peekError("arrow function", token.ARROW)
	}
	if len(items) == 1 {
		if logical, ok := items[0].(*ast.Logical); ok {
			p.grouped[logical] = true
		}
		return items[0], nil
	}
	return &ast.Sequence{Exprs: items}, nil
}

// parseParenItems parses the comma separated contents of "( ... )" as
// expressions. A trailing "...rest" is returned separately since it is only
// meaningful as an arrow parameter. On return curToken is ")".
func (p *Parser) parseParenItems() ([]ast.Expr, ast.Pattern, error) {
	restore := p.allowIn()
	defer restore()
	var items []ast.Expr
	for {
		if err := p.nextToken(); err != nil {
			return nil, nil, err
		}
		if p.curTokenIs(token.RPAREN) {
			return items, nil, nil
		}
		if p.curTokenIs(token.SPREAD) {
			ellipsis := p.curToken.StartPosition
			if err := p.nextToken(); err != nil {
				return nil, nil, err
			}
			target, err := p.parseBindingTarget()
			if err != nil {
				return nil, nil, err
			}
			if err := p.expectPeek("parameter list", token.RPAREN); err != nil {
				return nil, nil, err
			}
			return items, &ast.RestElement{Ellipsis: ellipsis, Target: target}, nil
		}
		expr, err := p.parseAssignExpr()
		if err != nil {
			return nil, nil, err
		}
		items = append(items, expr)
		if !p.peekTokenIs(token.COMMA) {
			if err := p.expectPeek("parenthesized expression", token.RPAREN); err != nil {
				return nil, nil, err
			}
			return items, nil, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, nil, err
		}
	}
}

func (p *Parser) arrowFromItems(pos token.Position, items []ast.Expr, rest ast.Pattern, isAsync bool) (ast.Expr, error) {
	params := make([]ast.Pattern, 0, len(items)+1)
	for _, item := range items {
		param, err := p.exprToPattern(item)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	if rest != nil {
		params = append(params, rest)
	}
	return p.parseArrow(pos, params, isAsync)
}

// parseArrow parses "=> body" for an already collected parameter list.
// peekToken must be the arrow.
func (p *Parser) parseArrow(pos token.Position, params []ast.Pattern, isAsync bool) (ast.Expr, error) {
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	arrow := &ast.Arrow{ArrowPos: pos, Params: params, IsAsync: isAsync}
	var err error
	if p.curTokenIs(token.LBRACE) {
		restore := p.allowIn()
		defer restore()
		arrow.Body, err = p.parseBlock()
	} else {
		arrow.ExprBody, err = p.parseAssignExpr()
	}
	if err != nil {
		return nil, err
	}
	return arrow, nil
}

func (p *Parser) parseNew() (ast.Expr, error) {
	expr := &ast.New{NewPos: p.curToken.StartPosition}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	var err error
	// Only member accesses bind to the callee; the first argument list
	// belongs to new itself.
	if expr.Callee, err = p.parseExpression(CALL); err != nil {
		return nil, err
	}
	if p.peekTokenIs(token.LPAREN) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if expr.Args, err = p.parseArguments(); err != nil {
			return nil, err
		}
		if expr.Args == nil {
			expr.Args = []ast.Expr{}
		}
	}
	return expr, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.curToken
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	x, err := p.parseExpression(UNARY)
	if err != nil {
		return nil, err
	}
	return &ast.Unary{OpPos: tok.StartPosition, Op: string(tok.Type), X: x}, nil
}

func (p *Parser) parsePrefixUpdate() (ast.Expr, error) {
	tok := p.curToken
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	x, err := p.parseExpression(UNARY)
	if err != nil {
		return nil, err
	}
	if !isSimpleTarget(x) {
		return nil, p.errorAt(x.Pos(), "invalid %s operand", tok.Type)
	}
	return &ast.Update{OpPos: tok.StartPosition, Op: string(tok.Type), Prefix: true, X: x}, nil
}

func (p *Parser) parsePostfix(left ast.Expr) (ast.Expr, error) {
	if !isSimpleTarget(left) {
		return nil, p.errorAt(left.Pos(), "invalid %s operand", p.curToken.Type)
	}
	return &ast.Update{OpPos: p.curToken.StartPosition, Op: string(p.curToken.Type), X: left}, nil
}

func (p *Parser) parseAwait() (ast.Expr, error) {
	pos := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	x, err := p.parseExpression(UNARY)
	if err != nil {
		return nil, err
	}
	return &ast.Await{AwaitPos: pos, X: x}, nil
}

func (p *Parser) parseYield() (ast.Expr, error) {
	expr := &ast.Yield{YieldPos: p.curToken.StartPosition}
	if p.peekTokenIs(token.ASTERISK) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		expr.Delegate = true
	}
	switch {
	case p.peekErr != nil:
		return nil, p.wrapLexError(p.peekErr)
	case p.peekTokenIs(token.SEMICOLON), p.peekTokenIs(token.RBRACE),
		p.peekTokenIs(token.RPAREN), p.peekTokenIs(token.RBRACKET),
		p.peekTokenIs(token.COMMA), p.peekTokenIs(token.COLON),
		p.peekTokenIs(token.EOF):
		if expr.Delegate {
			return nil, p.peekError("yield expression", token.IDENT)
		}
		return expr, nil
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	var err error
	if expr.X, err = p.parseAssignExpr(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseBinary(left ast.Expr) (ast.Expr, error) {
	tok := p.curToken
	precedence := precedences[tok.Type]
	if tok.Type == token.POW {
		// right-associative
		precedence--
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(precedence)
	if err != nil {
		return nil, err
	}
	return &ast.Binary{X: left, OpPos: tok.StartPosition, Op: string(tok.Type), Y: right}, nil
}

func (p *Parser) parseLogical(left ast.Expr) (ast.Expr, error) {
	tok := p.curToken
	precedence := precedences[tok.Type]
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(precedence)
	if err != nil {
		return nil, err
	}
	if tok.Type == token.NULLISH && (p.mixesWithNullish(left) || p.mixesWithNullish(right)) {
		return nil, p.tokenError(tok, "cannot mix ?? with || or && without parentheses")
	}
	return &ast.Logical{X: left, OpPos: tok.StartPosition, Op: string(tok.Type), Y: right}, nil
}

func (p *Parser) mixesWithNullish(operand ast.Expr) bool {
	logical, ok := operand.(*ast.Logical)
	return ok && logical.Op != string(token.NULLISH) && !p.grouped[logical]
}

func (p *Parser) parseAssign(left ast.Expr) (ast.Expr, error) {
	tok := p.curToken
	var target ast.Expr = left
	switch left.(type) {
	case *ast.Ident, *ast.Member:
	case *ast.Array, *ast.Object:
		if tok.Type != token.ASSIGN {
			return nil, p.errorAt(left.Pos(), "invalid assignment target")
		}
		// Destructuring assignment keeps the literal shape; it is validated
		// by converting to a pattern.
		if _, err := p.exprToPattern(left); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorAt(left.Pos(), "invalid assignment target")
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(COMMA)
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Target: target, OpPos: tok.StartPosition, Op: string(tok.Type), Value: value}, nil
}

func (p *Parser) parseConditional(test ast.Expr) (ast.Expr, error) {
	expr := &ast.Conditional{Test: test}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	restore := p.allowIn()
	var err error
	expr.Cons, err = p.parseAssignExpr()
	restore()
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek("conditional expression", token.COLON); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if expr.Alt, err = p.parseAssignExpr(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseSequence(left ast.Expr) (ast.Expr, error) {
	seq := &ast.Sequence{Exprs: []ast.Expr{left}}
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		expr, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		seq.Exprs = append(seq.Exprs, expr)
		if !p.peekTokenIs(token.COMMA) {
			return seq, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseCall(callee ast.Expr) (ast.Expr, error) {
	lparen := p.curToken.StartPosition
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	return &ast.Call{Callee: callee, Lparen: lparen, Args: args}, nil
}

// parseArguments parses a call argument list with curToken on "(". On
// return curToken is ")".
func (p *Parser) parseArguments() ([]ast.Expr, error) {
	restore := p.allowIn()
	defer restore()
	var args []ast.Expr
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curTokenIs(token.RPAREN) {
			return args, nil
		}
		arg, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.peekTokenIs(token.COMMA) {
			if err := p.expectPeek("call arguments", token.RPAREN); err != nil {
				return nil, err
			}
			return args, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// parseElement parses one array element or call argument, which may be a
// spread.
func (p *Parser) parseElement() (ast.Expr, error) {
	if p.curTokenIs(token.SPREAD) {
		ellipsis := p.curToken.StartPosition
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		x, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Spread{Ellipsis: ellipsis, X: x}, nil
	}
	return p.parseAssignExpr()
}

// parsePropertyName parses the name after "." or "?.".
func (p *Parser) parsePropertyName(context string) (*ast.Ident, error) {
	if p.peekErr != nil {
		return nil, p.wrapLexError(p.peekErr)
	}
	if !isIdentifierName(p.peekToken.Type) {
		return nil, p.peekError(context, token.IDENT)
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p.newIdent(p.curToken), nil
}

func (p *Parser) parseMember(object ast.Expr) (ast.Expr, error) {
	name, err := p.parsePropertyName("property access")
	if err != nil {
		return nil, err
	}
	return &ast.Member{Object: object, Property: name}, nil
}

func (p *Parser) parseIndex(object ast.Expr) (ast.Expr, error) {
	index, err := p.parseComputedKey("index expression")
	if err != nil {
		return nil, err
	}
	return &ast.Member{Object: object, Property: index, Computed: true}, nil
}

// parseComputedKey parses "[ expr ]" with curToken on "[". On return
// curToken is "]".
func (p *Parser) parseComputedKey(context string) (ast.Expr, error) {
	restore := p.allowIn()
	defer restore()
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	key, err := p.parseExpression(NONE)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(context, token.RBRACKET); err != nil {
		return nil, err
	}
	return key, nil
}

// parseOptionalChain handles "?." followed by a name, "[" or "(".
func (p *Parser) parseOptionalChain(object ast.Expr) (ast.Expr, error) {
	switch {
	case p.peekTokenIs(token.LPAREN):
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		lparen := p.curToken.StartPosition
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &ast.OptionalCall{Callee: object, Lparen: lparen, Args: args}, nil
	case p.peekTokenIs(token.LBRACKET):
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		index, err := p.parseComputedKey("optional index expression")
		if err != nil {
			return nil, err
		}
		return &ast.OptionalMember{Object: object, Property: index, Computed: true}, nil
	}
	name, err := p.parsePropertyName("optional chain")
	if err != nil {
		return nil, err
	}
	return &ast.OptionalMember{Object: object, Property: name}, nil
}

func (p *Parser) parseTaggedTemplate(tag ast.Expr) (ast.Expr, error) {
	quasi, err := p.parseTemplateLiteral()
	if err != nil {
		return nil, err
	}
	return &ast.TaggedTemplate{Tag: tag, Quasi: quasi}, nil
}

// isSimpleTarget reports whether x can be the operand of ++ or -- or the
// target of a compound assignment.
func isSimpleTarget(x ast.Expr) bool {
	switch x.(type) {
	case *ast.Ident, *ast.Member:
		return true
	}
	return false
}
