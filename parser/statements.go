package parser

import (
	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// parseStatement parses the statement starting at curToken. On return
// curToken is the last token of the statement.
func (p *Parser) parseStatement() (ast.Stmt, error) {
	defer p.leave()
	if err := p.enter(); err != nil {
		return nil, err
	}
	if err := p.cancelled(); err != nil {
		return nil, err
	}
	switch p.curToken.Type {
	case token.VAR, token.LET, token.CONST:
		return p.parseVarStatement()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.THROW:
		return p.parseThrow()
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.TRY:
		return p.parseTry()
	case token.SWITCH:
		return p.parseSwitch()
	case token.FUNCTION:
		fn, err := p.parseFunction(p.curToken.StartPosition, false, true)
		if err != nil {
			return nil, err
		}
		return &ast.FuncDecl{Func: fn}, nil
	case token.ASYNC:
		if p.peekTokenIs(token.FUNCTION) {
			pos := p.curToken.StartPosition
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			fn, err := p.parseFunction(pos, true, true)
			if err != nil {
				return nil, err
			}
			return &ast.FuncDecl{Func: fn}, nil
		}
	case token.CLASS:
		class, err := p.parseClass(true)
		if err != nil {
			return nil, err
		}
		return &ast.ClassDecl{Class: class}, nil
	case token.LBRACE:
		return p.parseBlock()
	case token.SEMICOLON:
		return &ast.Empty{Semicolon: p.curToken.StartPosition}, nil
	case token.DEBUGGER:
		stmt := &ast.Debugger{DebuggerPos: p.curToken.StartPosition}
		return stmt, p.consumeSemicolon()
	case token.IDENT:
		if p.peekTokenIs(token.COLON) {
			return p.parseLabeled()
		}
	case token.IMPORT, token.EXPORT:
		return nil, p.tokenError(p.curToken, "modules are not supported")
	case token.WITH:
		return nil, p.tokenError(p.curToken, "with statements are not supported")
	}
	return p.parseExpressionStatement()
}

// consumeSemicolon steps over an optional ";" that ends a statement.
func (p *Parser) consumeSemicolon() error {
	if p.peekErr != nil {
		return p.wrapLexError(p.peekErr)
	}
	if p.peekTokenIs(token.SEMICOLON) {
		return p.nextToken()
	}
	return nil
}

func (p *Parser) parseExpressionStatement() (ast.Stmt, error) {
	expr, err := p.parseExpression(NONE)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: expr}, p.consumeSemicolon()
}

// parseBlock parses "{ ... }". On return curToken is the closing brace.
func (p *Parser) parseBlock() (*ast.Block, error) {
	block := &ast.Block{Lbrace: p.curToken.StartPosition}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			return nil, p.tokenError(p.curToken, "unterminated block (expected \"}\")")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	return block, nil
}

func (p *Parser) parseVarStatement() (ast.Stmt, error) {
	decl, err := p.parseVarDecl()
	if err != nil {
		return nil, err
	}
	if decl.Kind == "const" {
		for _, d := range decl.Decls {
			if d.Init == nil {
				return nil, p.errorAt(d.Target.Pos(), "missing initializer in const declaration")
			}
		}
	}
	return decl, p.consumeSemicolon()
}

// parseVarDecl parses a declaration list without its trailing semicolon.
func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	decl := &ast.VarDecl{KindPos: p.curToken.StartPosition, Kind: p.curToken.Literal}
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		target, err := p.parseBindingTarget()
		if err != nil {
			return nil, err
		}
		d := &ast.Declarator{Target: target}
		if p.peekTokenIs(token.ASSIGN) {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if d.Init, err = p.parseAssignExpr(); err != nil {
				return nil, err
			}
		}
		decl.Decls = append(decl.Decls, d)
		if !p.peekTokenIs(token.COMMA) {
			return decl, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// parseCondition parses "( expr )" after a keyword, leaving curToken on
// the closing paren.
func (p *Parser) parseCondition(context string) (ast.Expr, error) {
	if err := p.expectPeek(context, token.LPAREN); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	restore := p.allowIn()
	defer restore()
	cond, err := p.parseExpression(NONE)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(context, token.RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseBody advances to and parses the statement following a loop or
// branch header.
func (p *Parser) parseBody() (ast.Stmt, error) {
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if p.curTokenIs(token.EOF) {
		return nil, p.unexpected("statement")
	}
	return p.parseStatement()
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	stmt := &ast.If{IfPos: p.curToken.StartPosition}
	var err error
	if stmt.Cond, err = p.parseCondition("if statement"); err != nil {
		return nil, err
	}
	if stmt.Then, err = p.parseBody(); err != nil {
		return nil, err
	}
	if p.peekTokenIs(token.ELSE) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if stmt.Else, err = p.parseBody(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	stmt := &ast.While{WhilePos: p.curToken.StartPosition}
	var err error
	if stmt.Cond, err = p.parseCondition("while statement"); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDoWhile() (ast.Stmt, error) {
	stmt := &ast.DoWhile{DoPos: p.curToken.StartPosition}
	var err error
	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	if err := p.expectPeek("do statement", token.WHILE); err != nil {
		return nil, err
	}
	if stmt.Cond, err = p.parseCondition("do statement"); err != nil {
		return nil, err
	}
	return stmt, p.consumeSemicolon()
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	pos := p.curToken.StartPosition
	if err := p.expectPeek("for statement", token.LPAREN); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}

	var init ast.Stmt
	switch p.curToken.Type {
	case token.SEMICOLON:
	case token.VAR, token.LET, token.CONST:
		p.noIn = true
		decl, err := p.parseVarDecl()
		p.noIn = false
		if err != nil {
			return nil, err
		}
		if p.peekTokenIs(token.IN) || p.peekIsContextual("of") {
			if len(decl.Decls) != 1 || decl.Decls[0].Init != nil {
				return nil, p.errorAt(decl.KindPos, "for-in/of requires a single declaration without initializer")
			}
			return p.parseForInOf(pos, decl)
		}
		init = decl
	default:
		p.noIn = true
		expr, err := p.parseExpression(NONE)
		p.noIn = false
		if err != nil {
			return nil, err
		}
		if p.peekTokenIs(token.IN) || p.peekIsContextual("of") {
			switch expr.(type) {
			case *ast.Ident, *ast.Member:
			default:
				return nil, p.errorAt(expr.Pos(), "invalid left-hand side in for-in/of loop")
			}
			return p.parseForInOf(pos, &ast.ExprStmt{X: expr})
		}
		init = &ast.ExprStmt{X: expr}
	}
	if init != nil {
		if err := p.expectPeek("for statement", token.SEMICOLON); err != nil {
			return nil, err
		}
	}

	stmt := &ast.For{ForPos: pos, Init: init}
	var err error
	if p.peekTokenIs(token.SEMICOLON) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	} else {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if stmt.Test, err = p.parseExpression(NONE); err != nil {
			return nil, err
		}
		if err := p.expectPeek("for statement", token.SEMICOLON); err != nil {
			return nil, err
		}
	}
	if p.peekTokenIs(token.RPAREN) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	} else {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if stmt.Update, err = p.parseExpression(NONE); err != nil {
			return nil, err
		}
		if err := p.expectPeek("for statement", token.RPAREN); err != nil {
			return nil, err
		}
	}
	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseForInOf finishes a for-in or for-of loop once its left side is known
// and peekToken is "in" or "of".
func (p *Parser) parseForInOf(pos token.Position, left ast.Stmt) (ast.Stmt, error) {
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	isOf := p.curTokenIs(token.IDENT)
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	var right ast.Expr
	var err error
	if isOf {
		right, err = p.parseAssignExpr()
	} else {
		right, err = p.parseExpression(NONE)
	}
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek("for statement", token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if isOf {
		return &ast.ForOf{ForPos: pos, Left: left, Right: right, Body: body}, nil
	}
	return &ast.ForIn{ForPos: pos, Left: left, Right: right, Body: body}, nil
}

// endsStatement reports whether the next token cannot start a return or
// throw argument.
func (p *Parser) endsStatement() bool {
	return p.peekTokenIs(token.SEMICOLON) ||
		p.peekTokenIs(token.RBRACE) ||
		p.peekTokenIs(token.EOF)
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	stmt := &ast.Return{ReturnPos: p.curToken.StartPosition}
	if !p.endsStatement() && !p.peekOnNewLine() {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		var err error
		if stmt.Value, err = p.parseExpression(NONE); err != nil {
			return nil, err
		}
	}
	return stmt, p.consumeSemicolon()
}

func (p *Parser) parseThrow() (ast.Stmt, error) {
	stmt := &ast.Throw{ThrowPos: p.curToken.StartPosition}
	if p.endsStatement() {
		return nil, p.tokenError(p.curToken, "throw requires an expression")
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	var err error
	if stmt.Value, err = p.parseExpression(NONE); err != nil {
		return nil, err
	}
	return stmt, p.consumeSemicolon()
}

// parseLabel consumes the optional label after break or continue.
func (p *Parser) parseLabel() (string, error) {
	if !p.peekTokenIs(token.IDENT) || p.peekOnNewLine() {
		return "", nil
	}
	if err := p.nextToken(); err != nil {
		return "", err
	}
	return p.curToken.Literal, nil
}

func (p *Parser) parseBreak() (ast.Stmt, error) {
	stmt := &ast.Break{BreakPos: p.curToken.StartPosition}
	var err error
	if stmt.Label, err = p.parseLabel(); err != nil {
		return nil, err
	}
	return stmt, p.consumeSemicolon()
}

func (p *Parser) parseContinue() (ast.Stmt, error) {
	stmt := &ast.Continue{ContinuePos: p.curToken.StartPosition}
	var err error
	if stmt.Label, err = p.parseLabel(); err != nil {
		return nil, err
	}
	return stmt, p.consumeSemicolon()
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	stmt := &ast.Try{TryPos: p.curToken.StartPosition}
	if err := p.expectPeek("try statement", token.LBRACE); err != nil {
		return nil, err
	}
	var err error
	if stmt.Block, err = p.parseBlock(); err != nil {
		return nil, err
	}
	if p.peekTokenIs(token.CATCH) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.peekTokenIs(token.LPAREN) {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if stmt.Param, err = p.parseBindingTarget(); err != nil {
				return nil, err
			}
			if err := p.expectPeek("catch clause", token.RPAREN); err != nil {
				return nil, err
			}
		}
		if err := p.expectPeek("catch clause", token.LBRACE); err != nil {
			return nil, err
		}
		if stmt.Handler, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if p.peekTokenIs(token.FINALLY) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.expectPeek("finally clause", token.LBRACE); err != nil {
			return nil, err
		}
		if stmt.Finalizer, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if stmt.Handler == nil && stmt.Finalizer == nil {
		return nil, p.errorAt(stmt.TryPos, "missing catch or finally after try")
	}
	return stmt, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	stmt := &ast.Switch{SwitchPos: p.curToken.StartPosition}
	var err error
	if stmt.Discriminant, err = p.parseCondition("switch statement"); err != nil {
		return nil, err
	}
	if err := p.expectPeek("switch statement", token.LBRACE); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	hasDefault := false
	for !p.curTokenIs(token.RBRACE) {
		c := &ast.Case{CasePos: p.curToken.StartPosition}
		switch p.curToken.Type {
		case token.CASE:
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if c.Test, err = p.parseExpression(NONE); err != nil {
				return nil, err
			}
		case token.DEFAULT:
			if hasDefault {
				return nil, p.tokenError(p.curToken, "multiple default clauses in switch statement")
			}
			hasDefault = true
		default:
			return nil, p.unexpected("switch statement")
		}
		if err := p.expectPeek("switch case", token.COLON); err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		for !p.curTokenIs(token.CASE) && !p.curTokenIs(token.DEFAULT) && !p.curTokenIs(token.RBRACE) {
			if p.curTokenIs(token.EOF) {
				return nil, p.unexpected("switch statement")
			}
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, s)
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	return stmt, nil
}

func (p *Parser) parseLabeled() (ast.Stmt, error) {
	stmt := &ast.Labeled{LabelPos: p.curToken.StartPosition, Label: p.curToken.Literal}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	var err error
	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return stmt, nil
}
