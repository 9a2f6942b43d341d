package compiler

import (
	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/internal/token"
	"github.com/deepnoodle-ai/jsbox/op"
)

// functionSpec describes a function body to compile. Exactly one of body
// and exprBody is set.
type functionSpec struct {
	name     string
	params   []ast.Pattern
	body     *ast.Block
	exprBody ast.Expr
	isArrow  bool
	pos      token.Position

	// prologue runs after parameters are bound and before the body.
	prologue func() error
}

// compileFunctionProto compiles a nested function and returns the index of
// its proto in the current function's constant pool.
func (c *Compiler) compileFunctionProto(spec functionSpec) (uint32, error) {
	parent := c.current
	savedPos := c.pos
	code := newCode(parent, spec.name)
	code.isArrow = spec.isArrow
	c.current = code
	defer func() {
		c.current = parent
		c.pos = savedPos
	}()
	c.pos = spec.pos

	this := c.alloc()
	if !spec.isArrow {
		// Arrow functions see the this of their enclosing function.
		code.symbols.InsertLocal("this", this, true)
	}

	// Parameters occupy registers 1..N. A destructured parameter arrives in
	// an unnamed register and is unpacked into its own locals once every
	// parameter register is allocated.
	regs := make([]uint16, len(spec.params))
	for i, p := range spec.params {
		reg := c.alloc()
		regs[i] = reg
		target := p
		switch p := p.(type) {
		case *ast.AssignPattern:
			target = p.Target
		case *ast.RestElement:
			if i != len(spec.params)-1 {
				return 0, c.errorf(p.Pos(), "rest parameter must be last formal parameter")
			}
			target = p.Target
			code.hasRest = true
		}
		if !code.hasRest {
			code.numParams++
		}
		if id, ok := target.(*ast.Ident); ok {
			code.symbols.InsertLocal(id.Name, reg, false)
		}
	}
	for _, p := range spec.params {
		if r, ok := p.(*ast.RestElement); ok {
			p = r.Target
		}
		if d, ok := p.(*ast.AssignPattern); ok {
			p = d.Target
		}
		if _, ok := p.(*ast.Ident); !ok {
			c.declarePatternLocals(p)
		}
	}

	// Defaults and destructuring run left to right, so a default can see
	// the parameters before it.
	for i, p := range spec.params {
		if r, ok := p.(*ast.RestElement); ok {
			p = r.Target
		}
		if d, ok := p.(*ast.AssignPattern); ok {
			if err := c.emitDefault(regs[i], d); err != nil {
				return 0, err
			}
			p = d.Target
		}
		if _, ok := p.(*ast.Ident); ok {
			continue
		}
		if err := c.bindPattern(p, regs[i]); err != nil {
			return 0, err
		}
	}

	if spec.prologue != nil {
		if err := spec.prologue(); err != nil {
			return 0, err
		}
	}

	if spec.body != nil {
		stmts := spec.body.Body
		c.declareVars(stmts)
		c.declareLexical(stmts)
		if err := c.compileStatements(stmts); err != nil {
			return 0, err
		}
		c.emitImplicitReturn()
	} else {
		reg, err := c.compileExpr(spec.exprBody)
		if err != nil {
			return 0, err
		}
		c.emitA(op.Return, reg)
		c.free(reg)
	}
	if c.failure != nil {
		return 0, c.failure
	}

	proto := c.finish(code)
	c.current = parent
	return c.constant(bytecode.Function(proto)), nil
}

// emitClosure creates the closure for the proto at constant k in a new
// register. If name is set the function can refer to itself by that name,
// as named function and class expressions do.
func (c *Compiler) emitClosure(name string, compile func() (uint32, error)) (uint16, error) {
	dst := c.alloc()
	var self *SymbolTable
	if name != "" {
		self = c.current.symbols
		c.current.symbols = self.NewBlock(c.height())
		c.current.symbols.InsertLocal(name, dst, true)
	}
	k, err := compile()
	if self != nil {
		c.current.symbols = self
	}
	if err != nil {
		return 0, err
	}
	c.emitAK(op.CreateClosure, dst, k)
	c.closeFrom(dst)
	return dst, nil
}

func (c *Compiler) compileFunctionExpr(x *ast.Function) (uint16, error) {
	name := x.Name
	hint := c.takeNameHint()
	if name == "" {
		name = hint
	}
	pos := c.pos
	dst, err := c.emitClosure(x.Name, func() (uint32, error) {
		return c.compileFunctionProto(functionSpec{
			name:   name,
			params: x.Params,
			body:   x.Body,
			pos:    x.Pos(),
		})
	})
	c.pos = pos
	return dst, err
}

func (c *Compiler) compileArrow(x *ast.Arrow) (uint16, error) {
	name := c.takeNameHint()
	return c.emitClosure("", func() (uint32, error) {
		return c.compileFunctionProto(functionSpec{
			name:     name,
			params:   x.Params,
			body:     x.Body,
			exprBody: x.ExprBody,
			isArrow:  true,
			pos:      x.Pos(),
		})
	})
}

// compileClass compiles a class into its constructor function. Instance
// methods and fields are installed on this when the constructor runs;
// static members are set on the constructor itself. selfBinding makes the
// class name visible inside a class expression.
func (c *Compiler) compileClass(x *ast.Class, name string, selfBinding bool) (uint16, error) {
	if x.SuperClass != nil {
		// Inheritance is not modeled; the heritage expression is still
		// evaluated for its side effects.
		reg, err := c.compileExpr(x.SuperClass)
		if err != nil {
			return 0, err
		}
		c.free(reg)
	}
	spec := functionSpec{name: name, body: &ast.Block{Lbrace: x.ClassPos}, pos: x.ClassPos}
	if ctor := x.Constructor(); ctor != nil {
		spec.params = ctor.Params
		spec.body = ctor.Body
		spec.pos = ctor.Pos()
	}
	spec.prologue = func() error {
		for _, m := range x.Members {
			if m.Static || m.Kind == ast.MemberConstructor || m.Kind == ast.MemberStaticBlock {
				continue
			}
			if err := c.compileProperty(0, m.Key, m.Computed, m.Value); err != nil {
				return err
			}
		}
		return nil
	}

	bindName := ""
	if selfBinding {
		bindName = x.Name
	}
	ctor, err := c.emitClosure(bindName, func() (uint32, error) {
		return c.compileFunctionProto(spec)
	})
	if err != nil {
		return 0, err
	}

	for _, m := range x.Members {
		if !m.Static {
			continue
		}
		if m.Kind == ast.MemberStaticBlock {
			if err := c.compileStaticBlock(m.Body); err != nil {
				return 0, err
			}
			continue
		}
		if err := c.compileProperty(ctor, m.Key, m.Computed, m.Value); err != nil {
			return 0, err
		}
	}
	return ctor, nil
}

// compileStaticBlock runs a static initialization block in place. Its
// bindings are scoped to the block.
func (c *Compiler) compileStaticBlock(body *ast.Block) error {
	if body == nil {
		return nil
	}
	return c.compileBlock(body)
}
