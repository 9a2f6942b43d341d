package compiler

import (
	"math"
	"strings"

	"fortio.org/safecast"

	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/op"
)

var binaryOps = map[string]op.Code{
	"+":          op.Add,
	"-":          op.Sub,
	"*":          op.Mul,
	"/":          op.Div,
	"%":          op.Mod,
	"**":         op.Exp,
	"&":          op.BitAnd,
	"|":          op.BitOr,
	"^":          op.BitXor,
	"<<":         op.Shl,
	">>":         op.Shr,
	">>>":        op.UShr,
	"<":          op.Lt,
	"<=":         op.LtEq,
	">":          op.Gt,
	">=":         op.GtEq,
	"===":        op.EqStrict,
	"!==":        op.NeqStrict,
	"==":         op.EqAbstract,
	"!=":         op.NeqAbstract,
	"in":         op.In,
	"instanceof": op.InstanceOf,
}

var unaryOps = map[string]op.Code{
	"-": op.Neg,
	"+": op.ToNumber,
	"!": op.Not,
	"~": op.BitNot,
}

// compileExpr compiles x into a newly pushed register and returns it.
func (c *Compiler) compileExpr(x ast.Expr) (uint16, error) {
	if c.failure != nil {
		return 0, c.failure
	}
	c.pos = x.Pos()
	switch x := x.(type) {
	case *ast.Number:
		reg := c.alloc()
		c.emitAK(op.LoadConst, reg, c.numberConstant(x.Value))
		return reg, nil
	case *ast.String:
		reg := c.alloc()
		c.emitAK(op.LoadConst, reg, c.nameConstant(x.Value))
		return reg, nil
	case *ast.Bool:
		reg := c.alloc()
		c.emitAK(op.LoadConst, reg, c.constant(bytecode.Bool(x.Value)))
		return reg, nil
	case *ast.Null:
		reg := c.alloc()
		c.emitAK(op.LoadConst, reg, c.constant(bytecode.Null()))
		return reg, nil
	case *ast.Ident:
		return c.compileIdent(x)
	case *ast.This:
		reg := c.alloc()
		c.emitLoad(c.resolve("this"), reg)
		return reg, nil
	case *ast.Template:
		return c.compileTemplate(x)
	case *ast.TaggedTemplate:
		return c.compileTaggedTemplate(x)
	case *ast.Regexp:
		return c.compileRegexp(x)
	case *ast.Array:
		return c.compileArray(x.Elements)
	case *ast.Object:
		return c.compileObject(x)
	case *ast.Function:
		return c.compileFunctionExpr(x)
	case *ast.Arrow:
		return c.compileArrow(x)
	case *ast.Class:
		name := x.Name
		if name == "" {
			name = c.takeNameHint()
		}
		return c.compileClass(x, name, true)
	case *ast.Unary:
		return c.compileUnary(x)
	case *ast.Update:
		return c.compileUpdate(x)
	case *ast.Binary:
		return c.compileBinary(x)
	case *ast.Logical:
		return c.compileLogical(x)
	case *ast.Assign:
		return c.compileAssign(x)
	case *ast.Conditional:
		return c.compileConditional(x)
	case *ast.Call:
		return c.compileCall(x.Callee, x.Args, false)
	case *ast.OptionalCall:
		return c.compileCall(x.Callee, x.Args, true)
	case *ast.New:
		return c.compileNew(x)
	case *ast.Member:
		return c.compileMember(x.Object, x.Property, x.Computed, false)
	case *ast.OptionalMember:
		return c.compileMember(x.Object, x.Property, x.Computed, true)
	case *ast.Sequence:
		return c.compileSequence(x)
	case *ast.Yield:
		return c.compileOperandOrUndefined(x.X)
	case *ast.Await:
		return c.compileOperandOrUndefined(x.X)
	case *ast.Spread:
		return 0, c.errorf(x.Pos(), "unexpected spread element")
	default:
		return 0, c.errorf(x.Pos(), "unsupported expression %T", x)
	}
}

// compileNamedExpr compiles x, naming it after the binding it is assigned
// to if it is an anonymous function or class.
func (c *Compiler) compileNamedExpr(x ast.Expr, name string) (uint16, error) {
	switch x := x.(type) {
	case *ast.Function:
		if x.Name == "" {
			c.nameHint = name
		}
	case *ast.Arrow:
		c.nameHint = name
	case *ast.Class:
		if x.Name == "" {
			c.nameHint = name
		}
	}
	reg, err := c.compileExpr(x)
	c.nameHint = ""
	return reg, err
}

func (c *Compiler) takeNameHint() string {
	name := c.nameHint
	c.nameHint = ""
	return name
}

func (c *Compiler) compileIdent(x *ast.Ident) (uint16, error) {
	res := c.resolve(x.Name)
	reg := c.alloc()
	if res.scope == Global && res.symbol == nil {
		switch x.Name {
		case "undefined":
			c.emitA(op.LoadUndef, reg)
			return reg, nil
		case "NaN":
			c.emitAK(op.LoadConst, reg, c.numberConstant(math.NaN()))
			return reg, nil
		case "Infinity":
			c.emitAK(op.LoadConst, reg, c.numberConstant(math.Inf(1)))
			return reg, nil
		}
	}
	c.emitLoad(res, reg)
	return reg, nil
}

func (c *Compiler) compileOperandOrUndefined(x ast.Expr) (uint16, error) {
	if x != nil {
		return c.compileExpr(x)
	}
	reg := c.alloc()
	c.emitA(op.LoadUndef, reg)
	return reg, nil
}

func (c *Compiler) compileSequence(x *ast.Sequence) (uint16, error) {
	var reg uint16
	for i, e := range x.Exprs {
		r, err := c.compileExpr(e)
		if err != nil {
			return 0, err
		}
		if i < len(x.Exprs)-1 {
			c.free(r)
		}
		reg = r
	}
	return reg, nil
}

// Operators

func (c *Compiler) compileBinary(x *ast.Binary) (uint16, error) {
	opcode, ok := binaryOps[x.Op]
	if !ok {
		return 0, c.errorf(x.OpPos, "unsupported operator %q", x.Op)
	}
	left, err := c.compileExpr(x.X)
	if err != nil {
		return 0, err
	}
	right, err := c.compileExpr(x.Y)
	if err != nil {
		return 0, err
	}
	c.pos = x.OpPos
	c.emitABC(opcode, left, left, right)
	c.free(right)
	return left, nil
}

// compileLogical evaluates the right operand only when the left one does
// not decide the result. Both operands land in the same register.
func (c *Compiler) compileLogical(x *ast.Logical) (uint16, error) {
	left, err := c.compileExpr(x.X)
	if err != nil {
		return 0, err
	}
	var jump int
	switch x.Op {
	case "&&":
		jump = c.emitJump(op.JumpIfFalse, left)
	case "||":
		jump = c.emitJump(op.JumpIfTrue, left)
	case "??":
		jump = c.emitJump(op.JumpIfNotNullish, left)
	default:
		return 0, c.errorf(x.OpPos, "unsupported operator %q", x.Op)
	}
	c.free(left)
	right, err := c.compileExpr(x.Y)
	if err != nil {
		return 0, err
	}
	c.patch(jump)
	return right, nil
}

func (c *Compiler) compileConditional(x *ast.Conditional) (uint16, error) {
	test, err := c.compileExpr(x.Test)
	if err != nil {
		return 0, err
	}
	jumpAlt := c.emitJump(op.JumpIfFalse, test)
	c.free(test)
	cons, err := c.compileExpr(x.Cons)
	if err != nil {
		return 0, err
	}
	jumpEnd := c.emitJump(op.Jump, 0)
	c.free(cons)
	c.patch(jumpAlt)
	alt, err := c.compileExpr(x.Alt)
	if err != nil {
		return 0, err
	}
	c.patch(jumpEnd)
	return alt, nil
}

func (c *Compiler) compileUnary(x *ast.Unary) (uint16, error) {
	switch x.Op {
	case "delete":
		return c.compileDelete(x)
	case "typeof":
		reg, err := c.compileExpr(x.X)
		if err != nil {
			return 0, err
		}
		c.emitAB(op.Typeof, reg, reg)
		return reg, nil
	case "void":
		reg, err := c.compileExpr(x.X)
		if err != nil {
			return 0, err
		}
		c.emitA(op.LoadUndef, reg)
		return reg, nil
	}
	opcode, ok := unaryOps[x.Op]
	if !ok {
		return 0, c.errorf(x.OpPos, "unsupported operator %q", x.Op)
	}
	reg, err := c.compileExpr(x.X)
	if err != nil {
		return 0, err
	}
	c.pos = x.OpPos
	c.emitAB(opcode, reg, reg)
	return reg, nil
}

func (c *Compiler) compileDelete(x *ast.Unary) (uint16, error) {
	member, ok := x.X.(*ast.Member)
	if !ok {
		// Deleting anything but a property is a no-op that yields true.
		if _, isIdent := x.X.(*ast.Ident); isIdent {
			reg := c.alloc()
			c.emitA(op.LoadTrue, reg)
			return reg, nil
		}
		reg, err := c.compileExpr(x.X)
		if err != nil {
			return 0, err
		}
		c.emitA(op.LoadTrue, reg)
		return reg, nil
	}
	obj, err := c.compileExpr(member.Object)
	if err != nil {
		return 0, err
	}
	key, name, computed, err := c.memberKey(member.Property, member.Computed)
	if err != nil {
		return 0, err
	}
	c.pos = x.OpPos
	if computed {
		c.emitABC(op.DeleteElem, obj, obj, key)
		c.free(key)
	} else {
		c.emitABK(op.DeleteProp, obj, obj, name)
	}
	return obj, nil
}

func (c *Compiler) compileUpdate(x *ast.Update) (uint16, error) {
	opcode := op.Add
	if x.Op == "--" {
		opcode = op.Sub
	}
	switch target := x.X.(type) {
	case *ast.Ident:
		res := c.resolve(target.Name)
		if res.IsConstant() {
			return 0, c.errorf(target.Pos(), "assignment to constant variable %q", target.Name)
		}
		reg := c.alloc()
		c.emitLoad(res, reg)
		c.emitAB(op.ToNumber, reg, reg)
		result := c.alloc()
		c.emitAK(op.LoadConst, result, c.numberConstant(1))
		c.emitABC(opcode, result, reg, result)
		c.emitStore(res, result)
		if x.Prefix {
			c.emitAB(op.Move, reg, result)
		}
		c.free(result)
		return reg, nil
	case *ast.Member:
		obj, err := c.compileExpr(target.Object)
		if err != nil {
			return 0, err
		}
		key, name, computed, err := c.memberKey(target.Property, target.Computed)
		if err != nil {
			return 0, err
		}
		old := c.alloc()
		c.emitGetMember(old, obj, key, name, computed)
		c.emitAB(op.ToNumber, old, old)
		result := c.alloc()
		c.emitAK(op.LoadConst, result, c.numberConstant(1))
		c.emitABC(opcode, result, old, result)
		c.emitSetMember(obj, key, name, computed, result)
		if x.Prefix {
			c.emitAB(op.Move, obj, result)
		} else {
			c.emitAB(op.Move, obj, old)
		}
		c.free(result)
		c.free(old)
		if computed {
			c.free(key)
		}
		return obj, nil
	default:
		return 0, c.errorf(x.X.Pos(), "invalid %s operand", x.Op)
	}
}

// Assignment

func (c *Compiler) compileAssign(x *ast.Assign) (uint16, error) {
	switch target := x.Target.(type) {
	case *ast.Ident:
		return c.assignIdent(target, x)
	case *ast.Member:
		return c.assignMember(target, x)
	case *ast.Array, *ast.Object:
		return 0, c.errorf(target.Pos(), "destructuring assignment is not supported")
	default:
		return 0, c.errorf(x.Target.Pos(), "invalid assignment target")
	}
}

// logicalJump returns the jump that skips a logical assignment, or false
// if op is not a logical assignment operator.
func logicalJump(assignOp string) (op.Code, bool) {
	switch assignOp {
	case "&&=":
		return op.JumpIfFalse, true
	case "||=":
		return op.JumpIfTrue, true
	case "??=":
		return op.JumpIfNotNullish, true
	}
	return op.Invalid, false
}

// compoundOp returns the binary opcode of a compound assignment such as
// "+=".
func (c *Compiler) compoundOp(x *ast.Assign) (op.Code, error) {
	opcode, ok := binaryOps[strings.TrimSuffix(x.Op, "=")]
	if !ok || !strings.HasSuffix(x.Op, "=") {
		return op.Invalid, c.errorf(x.OpPos, "unsupported assignment operator %q", x.Op)
	}
	return opcode, nil
}

func (c *Compiler) assignIdent(target *ast.Ident, x *ast.Assign) (uint16, error) {
	res := c.resolve(target.Name)
	if res.IsConstant() {
		return 0, c.errorf(target.Pos(), "assignment to constant variable %q", target.Name)
	}
	if x.Op == "=" {
		reg, err := c.compileNamedExpr(x.Value, target.Name)
		if err != nil {
			return 0, err
		}
		c.pos = x.OpPos
		c.emitStore(res, reg)
		return reg, nil
	}
	reg := c.alloc()
	c.emitLoad(res, reg)
	if jumpOp, ok := logicalJump(x.Op); ok {
		skip := c.emitJump(jumpOp, reg)
		val, err := c.compileNamedExpr(x.Value, target.Name)
		if err != nil {
			return 0, err
		}
		c.emitAB(op.Move, reg, val)
		c.free(val)
		c.emitStore(res, reg)
		c.patch(skip)
		return reg, nil
	}
	opcode, err := c.compoundOp(x)
	if err != nil {
		return 0, err
	}
	val, err := c.compileExpr(x.Value)
	if err != nil {
		return 0, err
	}
	c.pos = x.OpPos
	c.emitABC(opcode, reg, reg, val)
	c.free(val)
	c.emitStore(res, reg)
	return reg, nil
}

func (c *Compiler) assignMember(target *ast.Member, x *ast.Assign) (uint16, error) {
	obj, err := c.compileExpr(target.Object)
	if err != nil {
		return 0, err
	}
	key, name, computed, err := c.memberKey(target.Property, target.Computed)
	if err != nil {
		return 0, err
	}
	var result uint16
	switch jumpOp, logical := logicalJump(x.Op); {
	case x.Op == "=":
		val, err := c.compileExpr(x.Value)
		if err != nil {
			return 0, err
		}
		c.pos = x.OpPos
		c.emitSetMember(obj, key, name, computed, val)
		result = val
	case logical:
		cur := c.alloc()
		c.emitGetMember(cur, obj, key, name, computed)
		skip := c.emitJump(jumpOp, cur)
		val, err := c.compileExpr(x.Value)
		if err != nil {
			return 0, err
		}
		c.emitAB(op.Move, cur, val)
		c.free(val)
		c.emitSetMember(obj, key, name, computed, cur)
		c.patch(skip)
		result = cur
	default:
		opcode, err := c.compoundOp(x)
		if err != nil {
			return 0, err
		}
		cur := c.alloc()
		c.emitGetMember(cur, obj, key, name, computed)
		val, err := c.compileExpr(x.Value)
		if err != nil {
			return 0, err
		}
		c.pos = x.OpPos
		c.emitABC(opcode, cur, cur, val)
		c.free(val)
		c.emitSetMember(obj, key, name, computed, cur)
		result = cur
	}
	c.emitAB(op.Move, obj, result)
	c.free(result)
	if computed {
		c.free(key)
	}
	return obj, nil
}

// Members

// memberKey prepares the key of a member access. Identifier and string
// keys become a name constant; anything else is evaluated into a pushed
// register and computed is set.
func (c *Compiler) memberKey(prop ast.Expr, isComputed bool) (key uint16, name uint32, computed bool, err error) {
	if !isComputed {
		switch p := prop.(type) {
		case *ast.Ident:
			return 0, c.nameConstant(p.Name), false, nil
		case *ast.String:
			return 0, c.nameConstant(p.Value), false, nil
		}
		return 0, 0, false, c.errorf(prop.Pos(), "invalid property name")
	}
	if s, ok := prop.(*ast.String); ok {
		return 0, c.nameConstant(s.Value), false, nil
	}
	key, err = c.compileExpr(prop)
	if err != nil {
		return 0, 0, false, err
	}
	return key, 0, true, nil
}

func (c *Compiler) emitGetMember(dst, obj, key uint16, name uint32, computed bool) {
	if computed {
		c.emitABC(op.GetElem, dst, obj, key)
	} else {
		c.emitABK(op.GetProp, dst, obj, name)
	}
}

func (c *Compiler) emitSetMember(obj, key uint16, name uint32, computed bool, src uint16) {
	if computed {
		c.emitABC(op.SetElem, obj, key, src)
	} else {
		c.emitABK(op.SetProp, obj, src, name)
	}
}

func (c *Compiler) compileMember(object, prop ast.Expr, computed, optional bool) (uint16, error) {
	obj, err := c.compileExpr(object)
	if err != nil {
		return 0, err
	}
	skip := -1
	if optional {
		skip = c.emitJump(op.JumpIfNullish, obj)
	}
	key, name, isComputed, err := c.memberKey(prop, computed)
	if err != nil {
		return 0, err
	}
	c.emitGetMember(obj, obj, key, name, isComputed)
	if isComputed {
		c.free(key)
	}
	c.finishOptional(obj, skip)
	return obj, nil
}

// finishOptional makes the skip jumps of an optional chain land on code
// that sets dst to undefined.
func (c *Compiler) finishOptional(dst uint16, skips ...int) {
	var pending []int
	for _, s := range skips {
		if s >= 0 {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return
	}
	jumpEnd := c.emitJump(op.Jump, 0)
	for _, s := range pending {
		c.patch(s)
	}
	c.emitA(op.LoadUndef, dst)
	c.patch(jumpEnd)
}

// Calls

func hasSpread(args []ast.Expr) bool {
	for _, a := range args {
		if _, ok := a.(*ast.Spread); ok {
			return true
		}
	}
	return false
}

// compileArgs pushes each argument into consecutive registers and returns
// the count.
func (c *Compiler) compileArgs(args []ast.Expr) (uint16, error) {
	argc, err := safecast.Conv[uint16](len(args))
	if err != nil {
		return 0, c.errorf(c.pos, "too many arguments")
	}
	for _, arg := range args {
		if _, err := c.compileExpr(arg); err != nil {
			return 0, err
		}
	}
	return argc, nil
}

// methodCallee reports whether callee is a property access with a
// constant name, returning its parts.
func methodCallee(callee ast.Expr) (object, prop ast.Expr, optional, ok bool) {
	switch m := callee.(type) {
	case *ast.Member:
		if isNameKey(m.Property, m.Computed) {
			return m.Object, m.Property, false, true
		}
	case *ast.OptionalMember:
		if isNameKey(m.Property, m.Computed) {
			return m.Object, m.Property, true, true
		}
	}
	return nil, nil, false, false
}

func isNameKey(prop ast.Expr, computed bool) bool {
	switch prop.(type) {
	case *ast.Ident:
		return !computed
	case *ast.String:
		return true
	}
	return false
}

func (c *Compiler) compileCall(callee ast.Expr, args []ast.Expr, optional bool) (uint16, error) {
	pos := c.pos
	object, prop, optionalObject, isMethod := methodCallee(callee)
	if hasSpread(args) || (!isMethod && isMemberExpr(callee)) || (isMethod && optional) {
		return c.compileSpreadCall(callee, args, optional)
	}
	if isMethod {
		obj, err := c.compileExpr(object)
		if err != nil {
			return 0, err
		}
		skip := -1
		if optionalObject {
			skip = c.emitJump(op.JumpIfNullish, obj)
		}
		_, name, _, err := c.memberKey(prop, false)
		if err != nil {
			return 0, err
		}
		argc, err := c.compileArgs(args)
		if err != nil {
			return 0, err
		}
		c.pos = pos
		c.emit(bytecode.Instruction{Op: op.CallMethod, A: obj, B: obj, C: argc, D: obj + 1, K: name})
		c.truncate(obj + 1)
		c.finishOptional(obj, skip)
		return obj, nil
	}
	fn, err := c.compileExpr(callee)
	if err != nil {
		return 0, err
	}
	skip := -1
	if optional {
		skip = c.emitJump(op.JumpIfNullish, fn)
	}
	argc, err := c.compileArgs(args)
	if err != nil {
		return 0, err
	}
	c.pos = pos
	c.emit(bytecode.Instruction{Op: op.Call, A: fn, B: fn, C: argc, D: fn + 1})
	c.truncate(fn + 1)
	c.finishOptional(fn, skip)
	return fn, nil
}

func isMemberExpr(x ast.Expr) bool {
	switch x.(type) {
	case *ast.Member, *ast.OptionalMember:
		return true
	}
	return false
}

// compileSpreadCall calls through CallSpread, which takes the arguments
// as an array and an explicit receiver. It covers spread arguments,
// computed method calls and optional method calls.
func (c *Compiler) compileSpreadCall(callee ast.Expr, args []ast.Expr, optional bool) (uint16, error) {
	pos := c.pos
	var dst, fn, this uint16
	skipObject := -1
	switch m := callee.(type) {
	case *ast.Member, *ast.OptionalMember:
		var object, prop ast.Expr
		var computed bool
		if member, ok := m.(*ast.Member); ok {
			object, prop, computed = member.Object, member.Property, member.Computed
		} else {
			member := m.(*ast.OptionalMember)
			object, prop, computed = member.Object, member.Property, member.Computed
		}
		obj, err := c.compileExpr(object)
		if err != nil {
			return 0, err
		}
		if _, isOptional := m.(*ast.OptionalMember); isOptional {
			skipObject = c.emitJump(op.JumpIfNullish, obj)
		}
		fn = c.alloc()
		key, name, isComputed, err := c.memberKey(prop, computed)
		if err != nil {
			return 0, err
		}
		c.emitGetMember(fn, obj, key, name, isComputed)
		if isComputed {
			c.free(key)
		}
		dst, this = obj, obj
	default:
		f, err := c.compileExpr(callee)
		if err != nil {
			return 0, err
		}
		fn = f
		this = c.alloc()
		c.emitA(op.LoadUndef, this)
		dst = fn
	}
	skipCall := -1
	if optional {
		skipCall = c.emitJump(op.JumpIfNullish, fn)
	}
	arr, err := c.compileArray(args)
	if err != nil {
		return 0, err
	}
	c.pos = pos
	c.emit(bytecode.Instruction{Op: op.CallSpread, A: dst, B: fn, C: arr, D: this})
	c.truncate(dst + 1)
	c.finishOptional(dst, skipObject, skipCall)
	return dst, nil
}

func (c *Compiler) compileNew(x *ast.New) (uint16, error) {
	if hasSpread(x.Args) {
		return 0, c.errorf(x.NewPos, "spread arguments in new expressions are not supported")
	}
	fn, err := c.compileExpr(x.Callee)
	if err != nil {
		return 0, err
	}
	argc, err := c.compileArgs(x.Args)
	if err != nil {
		return 0, err
	}
	c.pos = x.NewPos
	c.emit(bytecode.Instruction{Op: op.New, A: fn, B: fn, C: argc, D: fn + 1})
	c.truncate(fn + 1)
	return fn, nil
}

// Literals

// compileArray builds an array from elements, expanding spreads. A nil
// element is a hole and reads as undefined.
func (c *Compiler) compileArray(elements []ast.Expr) (uint16, error) {
	arr := c.alloc()
	c.emitAB(op.CreateArray, arr, uint16(min(len(elements), math.MaxUint16)))
	for _, el := range elements {
		if el == nil {
			hole := c.alloc()
			c.emitA(op.LoadUndef, hole)
			c.emitAB(op.AppendElem, arr, hole)
			c.free(hole)
			continue
		}
		if spread, ok := el.(*ast.Spread); ok {
			src, err := c.compileExpr(spread.X)
			if err != nil {
				return 0, err
			}
			c.emitAB(op.ExtendArray, arr, src)
			c.free(src)
			continue
		}
		reg, err := c.compileExpr(el)
		if err != nil {
			return 0, err
		}
		c.emitAB(op.AppendElem, arr, reg)
		c.free(reg)
	}
	return arr, nil
}

func (c *Compiler) compileObject(x *ast.Object) (uint16, error) {
	obj := c.alloc()
	c.emitA(op.CreateObject, obj)
	for _, p := range x.Props {
		if p.Kind == ast.PropertySpread {
			src, err := c.compileExpr(p.Value)
			if err != nil {
				return 0, err
			}
			c.emitAB(op.CopyProps, obj, src)
			c.free(src)
			continue
		}
		if assign, ok := p.Value.(*ast.Assign); ok && p.Shorthand {
			return 0, c.errorf(assign.OpPos, "invalid shorthand property initializer")
		}
		if err := c.compileProperty(obj, p.Key, p.Computed, p.Value); err != nil {
			return 0, err
		}
	}
	c.pos = x.Lbrace
	return obj, nil
}

// compileProperty sets obj[key] = val, where key is an identifier, string
// or number literal, or a computed expression.
func (c *Compiler) compileProperty(obj uint16, keyExpr ast.Expr, computed bool, val ast.Expr) error {
	if !computed {
		name, ok := literalKeyName(keyExpr)
		if !ok {
			return c.errorf(keyExpr.Pos(), "invalid property name")
		}
		k := c.nameConstant(name)
		reg, err := c.compilePropertyValue(val, name)
		if err != nil {
			return err
		}
		c.emitABK(op.SetProp, obj, reg, k)
		c.free(reg)
		return nil
	}
	key, err := c.compileExpr(keyExpr)
	if err != nil {
		return err
	}
	reg, err := c.compilePropertyValue(val, "")
	if err != nil {
		return err
	}
	c.emitABC(op.SetElem, obj, key, reg)
	c.free(reg)
	c.free(key)
	return nil
}

func (c *Compiler) compilePropertyValue(val ast.Expr, name string) (uint16, error) {
	if val == nil {
		reg := c.alloc()
		c.emitA(op.LoadUndef, reg)
		return reg, nil
	}
	if name != "" {
		return c.compileNamedExpr(val, name)
	}
	return c.compileExpr(val)
}

func literalKeyName(key ast.Expr) (string, bool) {
	switch k := key.(type) {
	case *ast.Ident:
		return k.Name, true
	case *ast.String:
		return k.Value, true
	case *ast.Number:
		return literalNumberKey(k.Value), true
	}
	return "", false
}

func (c *Compiler) compileTemplate(x *ast.Template) (uint16, error) {
	reg := c.alloc()
	c.emitAK(op.LoadConst, reg, c.nameConstant(x.Quasis[0]))
	for i, e := range x.Exprs {
		part, err := c.compileExpr(e)
		if err != nil {
			return 0, err
		}
		c.emitABC(op.Add, reg, reg, part)
		c.free(part)
		if i+1 < len(x.Quasis) && x.Quasis[i+1] != "" {
			tail := c.alloc()
			c.emitAK(op.LoadConst, tail, c.nameConstant(x.Quasis[i+1]))
			c.emitABC(op.Add, reg, reg, tail)
			c.free(tail)
		}
	}
	return reg, nil
}

// compileTaggedTemplate calls the tag with an array of the literal parts
// followed by the substituted values.
func (c *Compiler) compileTaggedTemplate(x *ast.TaggedTemplate) (uint16, error) {
	strs := &ast.Array{Lbrack: x.Quasi.Backtick}
	for _, q := range x.Quasi.Quasis {
		strs.Elements = append(strs.Elements, &ast.String{ValuePos: x.Quasi.Backtick, Value: q})
	}
	args := append([]ast.Expr{strs}, x.Quasi.Exprs...)
	return c.compileCall(x.Tag, args, false)
}

// compileRegexp evaluates a regular expression literal to a plain object
// holding its source and flags.
func (c *Compiler) compileRegexp(x *ast.Regexp) (uint16, error) {
	obj := c.alloc()
	c.emitA(op.CreateObject, obj)
	reg := c.alloc()
	c.emitAK(op.LoadConst, reg, c.nameConstant(x.Pattern))
	c.emitABK(op.SetProp, obj, reg, c.nameConstant("source"))
	c.emitAK(op.LoadConst, reg, c.nameConstant(x.Flags))
	c.emitABK(op.SetProp, obj, reg, c.nameConstant("flags"))
	c.free(reg)
	return obj, nil
}
