package parser

import (
	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/internal/token"
)

// parseParams parses a parameter list with curToken on "(". On return
// curToken is ")".
func (p *Parser) parseParams() ([]ast.Pattern, error) {
	var params []ast.Pattern
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curTokenIs(token.RPAREN) {
			return params, nil
		}
		if p.curTokenIs(token.SPREAD) {
			rest, err := p.parseRestElement()
			if err != nil {
				return nil, err
			}
			params = append(params, rest)
			if err := p.expectPeek("parameter list", token.RPAREN); err != nil {
				return nil, err
			}
			return params, nil
		}
		param, err := p.parseBindingElement()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if !p.peekTokenIs(token.COMMA) {
			if err := p.expectPeek("parameter list", token.RPAREN); err != nil {
				return nil, err
			}
			return params, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// parseBindingTarget parses an identifier, array pattern or object pattern.
func (p *Parser) parseBindingTarget() (ast.Pattern, error) {
	switch p.curToken.Type {
	case token.IDENT:
		return p.newIdent(p.curToken), nil
	case token.LBRACKET:
		return p.parseArrayPattern()
	case token.LBRACE:
		return p.parseObjectPattern()
	}
	return nil, p.unexpected("binding pattern")
}

// parseBindingElement parses a binding target with an optional default.
func (p *Parser) parseBindingElement() (ast.Pattern, error) {
	target, err := p.parseBindingTarget()
	if err != nil {
		return nil, err
	}
	if !p.peekTokenIs(token.ASSIGN) {
		return target, nil
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	restore := p.allowIn()
	defer restore()
	def, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.AssignPattern{Target: target, Default: def}, nil
}

func (p *Parser) parseRestElement() (*ast.RestElement, error) {
	ellipsis := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	target, err := p.parseBindingTarget()
	if err != nil {
		return nil, err
	}
	return &ast.RestElement{Ellipsis: ellipsis, Target: target}, nil
}

func (p *Parser) parseArrayPattern() (ast.Pattern, error) {
	pattern := &ast.ArrayPattern{Lbrack: p.curToken.StartPosition}
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		switch p.curToken.Type {
		case token.RBRACKET:
			return pattern, nil
		case token.COMMA:
			pattern.Elements = append(pattern.Elements, nil)
			continue
		case token.SPREAD:
			rest, err := p.parseRestElement()
			if err != nil {
				return nil, err
			}
			pattern.Elements = append(pattern.Elements, rest)
			if err := p.expectPeek("array pattern", token.RBRACKET); err != nil {
				return nil, err
			}
			return pattern, nil
		}
		elem, err := p.parseBindingElement()
		if err != nil {
			return nil, err
		}
		pattern.Elements = append(pattern.Elements, elem)
		if !p.peekTokenIs(token.COMMA) {
			if err := p.expectPeek("array pattern", token.RBRACKET); err != nil {
				return nil, err
			}
			return pattern, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseObjectPattern() (ast.Pattern, error) {
	pattern := &ast.ObjectPattern{Lbrace: p.curToken.StartPosition}
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curTokenIs(token.RBRACE) {
			return pattern, nil
		}
		if p.curTokenIs(token.SPREAD) {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if !p.curTokenIs(token.IDENT) {
				return nil, p.unexpected("object pattern rest")
			}
			pattern.Rest = p.newIdent(p.curToken)
			if err := p.expectPeek("object pattern", token.RBRACE); err != nil {
				return nil, err
			}
			return pattern, nil
		}
		keyTok := p.curToken
		key, computed, err := p.parsePropertyKey()
		if err != nil {
			return nil, err
		}
		prop := &ast.PatternProp{Key: key, Computed: computed}
		if p.peekTokenIs(token.COLON) {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if prop.Value, err = p.parseBindingElement(); err != nil {
				return nil, err
			}
		} else {
			if computed || keyTok.Type != token.IDENT {
				return nil, p.peekError("object pattern", token.COLON)
			}
			// {a} binds a; {a = 1} binds a with a default
			if prop.Value, err = p.parseBindingElement(); err != nil {
				return nil, err
			}
		}
		pattern.Props = append(pattern.Props, prop)
		if !p.peekTokenIs(token.COMMA) {
			if err := p.expectPeek("object pattern", token.RBRACE); err != nil {
				return nil, err
			}
			return pattern, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// exprToPattern reinterprets an expression parsed inside parentheses as a
// binding pattern once "=>" shows it was a parameter list.
func (p *Parser) exprToPattern(expr ast.Expr) (ast.Pattern, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e, nil
	case *ast.Assign:
		if e.Op != "=" {
			break
		}
		target, err := p.exprToPattern(e.Target)
		if err != nil {
			return nil, err
		}
		return &ast.AssignPattern{Target: target, Default: e.Value}, nil
	case *ast.Array:
		pattern := &ast.ArrayPattern{Lbrack: e.Lbrack}
		for i, elem := range e.Elements {
			if elem == nil {
				pattern.Elements = append(pattern.Elements, nil)
				continue
			}
			if spread, ok := elem.(*ast.Spread); ok {
				if i != len(e.Elements)-1 {
					return nil, p.errorAt(spread.Ellipsis, "rest element must be last element")
				}
				target, err := p.exprToPattern(spread.X)
				if err != nil {
					return nil, err
				}
				pattern.Elements = append(pattern.Elements, &ast.RestElement{Ellipsis: spread.Ellipsis, Target: target})
				continue
			}
			target, err := p.exprToPattern(elem)
			if err != nil {
				return nil, err
			}
			pattern.Elements = append(pattern.Elements, target)
		}
		return pattern, nil
	case *ast.Object:
		pattern := &ast.ObjectPattern{Lbrace: e.Lbrace}
		for i, prop := range e.Props {
			switch prop.Kind {
			case ast.PropertySpread:
				ident, ok := prop.Value.(*ast.Ident)
				if !ok || i != len(e.Props)-1 {
					return nil, p.errorAt(prop.Value.Pos(), "invalid rest element in object pattern")
				}
				pattern.Rest = ident
			case ast.PropertyInit:
				value, err := p.exprToPattern(prop.Value)
				if err != nil {
					return nil, err
				}
				pattern.Props = append(pattern.Props, &ast.PatternProp{Key: prop.Key, Computed: prop.Computed, Value: value})
			default:
				return nil, p.errorAt(prop.Key.Pos(), "cannot convert method to pattern")
			}
		}
		return pattern, nil
	}
	return nil, p.errorAt(expr.Pos(), "cannot convert expression to pattern")
}
