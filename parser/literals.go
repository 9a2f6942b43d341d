package parser

import (
	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/internal/token"
)

func (p *Parser) parseNumber() (ast.Expr, error) {
	tok := p.curToken
	return &ast.Number{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: tok.Number}, nil
}

func (p *Parser) parseString() (ast.Expr, error) {
	return &ast.String{ValuePos: p.curToken.StartPosition, Value: p.curToken.Literal}, nil
}

func (p *Parser) parseNull() (ast.Expr, error) {
	return &ast.Null{ValuePos: p.curToken.StartPosition}, nil
}

func (p *Parser) parseBoolean() (ast.Expr, error) {
	return &ast.Bool{ValuePos: p.curToken.StartPosition, Value: p.curTokenIs(token.TRUE)}, nil
}

// parseRegexp rescans the current "/" or "/=" token as a regular
// expression literal.
func (p *Parser) parseRegexp() (ast.Expr, error) {
	p.l.RestoreState(p.peekState)
	tok, err := p.l.RereadAsRegexp(p.curToken.StartPosition)
	if err != nil {
		return nil, p.wrapLexError(err)
	}
	p.curToken = tok
	p.peekState = p.l.SaveState()
	p.peekToken, p.peekErr = p.l.Next()
	return &ast.Regexp{ValuePos: tok.StartPosition, Pattern: tok.Literal, Flags: tok.Flags}, nil
}

func (p *Parser) parseTemplate() (ast.Expr, error) {
	if p.curTokenIs(token.TEMPLATE_TAIL) && !p.startsTemplate(p.curToken) {
		return nil, p.unexpected("expression")
	}
	return p.parseTemplateLiteral()
}

// parseTemplateLiteral parses a template starting at a TEMPLATE_HEAD or a
// substitution-free TEMPLATE_TAIL. On return curToken is the closing tail.
func (p *Parser) parseTemplateLiteral() (*ast.Template, error) {
	tmpl := &ast.Template{Backtick: p.curToken.StartPosition}
	tmpl.Quasis = append(tmpl.Quasis, p.curToken.Literal)
	tmpl.Raws = append(tmpl.Raws, p.curToken.Raw)
	if p.curTokenIs(token.TEMPLATE_TAIL) {
		return tmpl, nil
	}
	restore := p.allowIn()
	defer restore()
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curTokenIs(token.TEMPLATE_MIDDLE) ||
			(p.curTokenIs(token.TEMPLATE_TAIL) && !p.startsTemplate(p.curToken)) {
			return nil, p.tokenError(p.curToken, "empty template substitution")
		}
		expr, err := p.parseExpression(NONE)
		if err != nil {
			return nil, err
		}
		tmpl.Exprs = append(tmpl.Exprs, expr)
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		switch p.curToken.Type {
		case token.TEMPLATE_MIDDLE:
			tmpl.Quasis = append(tmpl.Quasis, p.curToken.Literal)
			tmpl.Raws = append(tmpl.Raws, p.curToken.Raw)
		case token.TEMPLATE_TAIL:
			tmpl.Quasis = append(tmpl.Quasis, p.curToken.Literal)
			tmpl.Raws = append(tmpl.Raws, p.curToken.Raw)
			return tmpl, nil
		default:
			return nil, p.tokenError(p.curToken, "unexpected %s in template substitution (expected \"}\")",
				tokenDescription(p.curToken))
		}
	}
}

func (p *Parser) parseArray() (ast.Expr, error) {
	array := &ast.Array{Lbrack: p.curToken.StartPosition}
	restore := p.allowIn()
	defer restore()
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		switch p.curToken.Type {
		case token.RBRACKET:
			return array, nil
		case token.COMMA:
			array.Elements = append(array.Elements, nil)
			continue
		}
		elem, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		array.Elements = append(array.Elements, elem)
		if !p.peekTokenIs(token.COMMA) {
			if err := p.expectPeek("array literal", token.RBRACKET); err != nil {
				return nil, err
			}
			return array, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseObject() (ast.Expr, error) {
	obj := &ast.Object{Lbrace: p.curToken.StartPosition}
	restore := p.allowIn()
	defer restore()
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curTokenIs(token.RBRACE) {
			return obj, nil
		}
		prop, err := p.parseProperty()
		if err != nil {
			return nil, err
		}
		obj.Props = append(obj.Props, prop)
		if !p.peekTokenIs(token.COMMA) {
			if err := p.expectPeek("object literal", token.RBRACE); err != nil {
				return nil, err
			}
			return obj, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// peekEndsKey reports whether the next token shows that a contextual word
// such as get, set, async or static is itself the member name.
func (p *Parser) peekEndsKey() bool {
	return p.peekTokenIs(token.COLON) || p.peekTokenIs(token.LPAREN) ||
		p.peekTokenIs(token.COMMA) || p.peekTokenIs(token.RBRACE) ||
		p.peekTokenIs(token.ASSIGN) || p.peekTokenIs(token.SEMICOLON)
}

func (p *Parser) parseProperty() (*ast.Property, error) {
	if p.curTokenIs(token.SPREAD) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		x, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Property{Kind: ast.PropertySpread, Value: x}, nil
	}

	prop := &ast.Property{Kind: ast.PropertyInit}
	pos := p.curToken.StartPosition
	var isAsync, isGenerator bool
	switch {
	case p.curTokenIs(token.IDENT) && (p.curToken.Literal == "get" || p.curToken.Literal == "set") && !p.peekEndsKey():
		prop.Kind = ast.PropertyGet
		if p.curToken.Literal == "set" {
			prop.Kind = ast.PropertySet
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	case p.curTokenIs(token.ASYNC) && !p.peekEndsKey():
		isAsync = true
		prop.Kind = ast.PropertyMethod
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curTokenIs(token.ASTERISK) {
			isGenerator = true
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	case p.curTokenIs(token.ASTERISK):
		isGenerator = true
		prop.Kind = ast.PropertyMethod
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	keyTok := p.curToken
	var err error
	if prop.Key, prop.Computed, err = p.parsePropertyKey(); err != nil {
		return nil, err
	}

	if prop.Kind != ast.PropertyInit || p.peekTokenIs(token.LPAREN) {
		if prop.Kind == ast.PropertyInit {
			prop.Kind = ast.PropertyMethod
		}
		fn, err := p.parseMethod(pos, isAsync, isGenerator)
		if err != nil {
			return nil, err
		}
		fn.Name = keyName(prop.Key, prop.Computed)
		prop.Value = fn
		return prop, nil
	}

	if p.peekTokenIs(token.COLON) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if prop.Value, err = p.parseAssignExpr(); err != nil {
			return nil, err
		}
		return prop, nil
	}

	// Shorthand property, optionally with a default that is only valid
	// once the object is reinterpreted as a pattern.
	if prop.Computed || !canBeShorthand(keyTok.Type) {
		return nil, p.peekError("object literal", token.COLON)
	}
	name := p.newIdent(keyTok)
	prop.Shorthand = true
	if p.peekTokenIs(token.ASSIGN) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		opPos := p.curToken.StartPosition
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		def, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		prop.Value = &ast.Assign{Target: name, OpPos: opPos, Op: "=", Value: def}
		return prop, nil
	}
	prop.Value = name
	return prop, nil
}

// canBeShorthand reports whether a key token may also be read as a variable
// reference.
func canBeShorthand(t token.Type) bool {
	switch t {
	case token.IDENT, token.ASYNC, token.STATIC, token.LET, token.AWAIT, token.YIELD:
		return true
	}
	return false
}

// parsePropertyKey parses an object or class member name. On return
// curToken is the last token of the key.
func (p *Parser) parsePropertyKey() (ast.Expr, bool, error) {
	tok := p.curToken
	switch {
	case isIdentifierName(tok.Type):
		return p.newIdent(tok), false, nil
	case tok.Type == token.STRING:
		return &ast.String{ValuePos: tok.StartPosition, Value: tok.Literal}, false, nil
	case tok.Type == token.NUMBER:
		return &ast.Number{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: tok.Number}, false, nil
	case tok.Type == token.LBRACKET:
		key, err := p.parseComputedKey("computed property name")
		if err != nil {
			return nil, false, err
		}
		return key, true, nil
	}
	return nil, false, p.unexpected("property name")
}

// keyName returns the static name of a member key, used to name methods.
func keyName(key ast.Expr, computed bool) string {
	if computed {
		return ""
	}
	switch k := key.(type) {
	case *ast.Ident:
		return k.Name
	case *ast.String:
		return k.Value
	case *ast.Number:
		return k.Literal
	}
	return ""
}

func (p *Parser) parseFunctionExpr() (ast.Expr, error) {
	return p.parseFunction(p.curToken.StartPosition, false, false)
}

// parseFunction parses a function declaration or expression with curToken
// on the function keyword. pos is where the function starts, which is the
// async keyword for async functions.
func (p *Parser) parseFunction(pos token.Position, isAsync, requireName bool) (*ast.Function, error) {
	fn := &ast.Function{Func: pos, IsAsync: isAsync}
	if p.peekTokenIs(token.ASTERISK) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		fn.IsGenerator = true
	}
	if p.peekTokenIs(token.IDENT) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		fn.Name = p.curToken.Literal
	} else if requireName {
		return nil, p.peekError("function declaration", token.IDENT)
	}
	if err := p.parseFunctionRest(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseMethod parses the parameter list and body of an object or class
// method whose key has just been consumed.
func (p *Parser) parseMethod(pos token.Position, isAsync, isGenerator bool) (*ast.Function, error) {
	fn := &ast.Function{Func: pos, IsAsync: isAsync, IsGenerator: isGenerator}
	if err := p.parseFunctionRest(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseFunctionRest parses "(params) { body }" into fn.
func (p *Parser) parseFunctionRest(fn *ast.Function) error {
	if err := p.expectPeek("function parameters", token.LPAREN); err != nil {
		return err
	}
	var err error
	if fn.Params, err = p.parseParams(); err != nil {
		return err
	}
	if err := p.expectPeek("function body", token.LBRACE); err != nil {
		return err
	}
	restore := p.allowIn()
	defer restore()
	fn.Body, err = p.parseBlock()
	return err
}

func (p *Parser) parseClassExpr() (ast.Expr, error) {
	return p.parseClass(false)
}

// parseClass parses a class with curToken on the class keyword. On return
// curToken is the closing brace of the body.
func (p *Parser) parseClass(requireName bool) (*ast.Class, error) {
	class := &ast.Class{ClassPos: p.curToken.StartPosition}
	if p.peekTokenIs(token.IDENT) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		class.Name = p.curToken.Literal
	} else if requireName {
		return nil, p.peekError("class declaration", token.IDENT)
	}
	if p.peekTokenIs(token.EXTENDS) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		var err error
		if class.SuperClass, err = p.parseExpression(UPDATE); err != nil {
			return nil, err
		}
	}
	if err := p.expectPeek("class body", token.LBRACE); err != nil {
		return nil, err
	}
	restore := p.allowIn()
	defer restore()
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		switch p.curToken.Type {
		case token.RBRACE:
			return class, nil
		case token.SEMICOLON:
			continue
		case token.EOF:
			return nil, p.unexpected("class body")
		}
		member, err := p.parseClassMember()
		if err != nil {
			return nil, err
		}
		if member.Kind == ast.MemberConstructor && class.Constructor() != nil {
			return nil, p.errorAt(member.Key.Pos(), "a class may only have one constructor")
		}
		class.Members = append(class.Members, member)
	}
}

func (p *Parser) parseClassMember() (*ast.ClassMember, error) {
	member := &ast.ClassMember{Kind: ast.MemberMethod}
	if p.curTokenIs(token.STATIC) && !p.peekEndsKey() {
		member.Static = true
		if p.peekTokenIs(token.LBRACE) {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			var err error
			member.Kind = ast.MemberStaticBlock
			if member.Body, err = p.parseBlock(); err != nil {
				return nil, err
			}
			return member, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	pos := p.curToken.StartPosition
	var isAsync, isGenerator bool
	switch {
	case p.curTokenIs(token.IDENT) && (p.curToken.Literal == "get" || p.curToken.Literal == "set") && !p.peekEndsKey():
		member.Kind = ast.MemberGet
		if p.curToken.Literal == "set" {
			member.Kind = ast.MemberSet
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	case p.curTokenIs(token.ASYNC) && !p.peekEndsKey() && !p.peekOnNewLine():
		isAsync = true
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curTokenIs(token.ASTERISK) {
			isGenerator = true
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	case p.curTokenIs(token.ASTERISK):
		isGenerator = true
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	var err error
	if member.Key, member.Computed, err = p.parsePropertyKey(); err != nil {
		return nil, err
	}
	name := keyName(member.Key, member.Computed)

	if p.peekTokenIs(token.LPAREN) {
		fn, err := p.parseMethod(pos, isAsync, isGenerator)
		if err != nil {
			return nil, err
		}
		fn.Name = name
		if member.Kind == ast.MemberMethod && !member.Static && !member.Computed && name == "constructor" {
			if isAsync || isGenerator {
				return nil, p.errorAt(member.Key.Pos(), "class constructor may not be async or a generator")
			}
			member.Kind = ast.MemberConstructor
		}
		member.Value = fn
		return member, nil
	}

	if member.Kind != ast.MemberMethod || isAsync || isGenerator {
		return nil, p.peekError("class method", token.LPAREN)
	}
	member.Kind = ast.MemberField
	if p.peekTokenIs(token.ASSIGN) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if member.Value, err = p.parseAssignExpr(); err != nil {
			return nil, err
		}
	}
	return member, p.consumeSemicolon()
}
