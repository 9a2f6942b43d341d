package compiler

import (
	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/op"
)

// patternNames appends the identifiers bound by p, in source order.
func patternNames(p ast.Pattern, names []*ast.Ident) []*ast.Ident {
	switch p := p.(type) {
	case *ast.Ident:
		names = append(names, p)
	case *ast.AssignPattern:
		names = patternNames(p.Target, names)
	case *ast.RestElement:
		names = patternNames(p.Target, names)
	case *ast.ArrayPattern:
		for _, el := range p.Elements {
			if el != nil {
				names = patternNames(el, names)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range p.Props {
			names = patternNames(prop.Value, names)
		}
		if p.Rest != nil {
			names = patternNames(p.Rest, names)
		}
	}
	return names
}

// declarePatternLocals gives every name bound by p a local register in the
// current scope.
func (c *Compiler) declarePatternLocals(p ast.Pattern) {
	for _, id := range patternNames(p, nil) {
		c.current.symbols.InsertLocal(id.Name, c.alloc(), false)
	}
}

// bindPattern destructures the value in src into the variables of p.
// Arrays are read by index and objects by property, so a nullish source
// raises a TypeError when the first element or property is read.
func (c *Compiler) bindPattern(p ast.Pattern, src uint16) error {
	switch p := p.(type) {
	case *ast.Ident:
		c.emitStore(c.resolve(p.Name), src)
		return nil
	case *ast.AssignPattern:
		val := c.alloc()
		c.emitAB(op.Move, val, src)
		if err := c.emitDefault(val, p); err != nil {
			return err
		}
		err := c.bindPattern(p.Target, val)
		c.free(val)
		return err
	case *ast.ArrayPattern:
		return c.bindArrayPattern(p, src)
	case *ast.ObjectPattern:
		return c.bindObjectPattern(p, src)
	}
	return c.errorf(p.Pos(), "invalid binding pattern")
}

func (c *Compiler) bindArrayPattern(p *ast.ArrayPattern, src uint16) error {
	for i, el := range p.Elements {
		if el == nil {
			continue
		}
		c.pos = el.Pos()
		item := c.alloc()
		if rest, ok := el.(*ast.RestElement); ok {
			if i != len(p.Elements)-1 {
				return c.errorf(rest.Pos(), "rest element must be last element")
			}
			// item = src.slice(i)
			start := c.alloc()
			c.emitAB(op.Move, item, src)
			c.emitAK(op.LoadConst, start, c.numberConstant(float64(i)))
			c.emit(bytecode.Instruction{Op: op.CallMethod, A: item, B: item, C: 1, D: start, K: c.nameConstant("slice")})
			c.free(start)
			el = rest.Target
		} else {
			index := c.alloc()
			c.emitAK(op.LoadConst, index, c.numberConstant(float64(i)))
			c.emitABC(op.GetElem, item, src, index)
			c.free(index)
		}
		if err := c.bindPattern(el, item); err != nil {
			return err
		}
		c.free(item)
	}
	return nil
}

func (c *Compiler) bindObjectPattern(p *ast.ObjectPattern, src uint16) error {
	if p.Rest != nil {
		return c.errorf(p.Rest.Pos(), "rest properties in binding patterns are not supported")
	}
	for _, prop := range p.Props {
		c.pos = prop.Key.Pos()
		item := c.alloc()
		if prop.Computed {
			key, err := c.compileExpr(prop.Key)
			if err != nil {
				return err
			}
			c.emitABC(op.GetElem, item, src, key)
			c.free(key)
		} else {
			name, ok := literalKeyName(prop.Key)
			if !ok {
				return c.errorf(prop.Key.Pos(), "invalid property name")
			}
			c.emitABK(op.GetProp, item, src, c.nameConstant(name))
		}
		if err := c.bindPattern(prop.Value, item); err != nil {
			return err
		}
		c.free(item)
	}
	return nil
}

// emitDefault replaces the value in reg with the pattern's default when it
// is undefined.
func (c *Compiler) emitDefault(reg uint16, p *ast.AssignPattern) error {
	c.pos = p.Pos()
	test := c.alloc()
	c.emitA(op.LoadUndef, test)
	c.emitABC(op.EqStrict, test, reg, test)
	skip := c.emitJump(op.JumpIfFalse, test)
	c.free(test)
	name := ""
	if id, ok := p.Target.(*ast.Ident); ok {
		name = id.Name
	}
	val, err := c.compileNamedExpr(p.Default, name)
	if err != nil {
		return err
	}
	c.emitAB(op.Move, reg, val)
	c.free(val)
	c.patch(skip)
	return nil
}
