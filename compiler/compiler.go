// Package compiler translates a parsed JavaScript program into register
// bytecode for the jsbox virtual machine.
//
// # Registers
//
// Each function has a window of registers addressed by 16-bit operands.
// Register 0 holds this and parameters occupy registers 1..N. Above them
// the compiler manages a register stack: every expression pushes exactly
// one register holding its result, and the consumer pops it again once the
// value has been used. Statements leave the stack height unchanged.
//
// Local variables live on the same stack. When a block is entered its
// let, const, class and function declarations are given registers, so a
// closure may refer to a binding that is initialized later in the block.
// var declarations are hoisted to the function body in the same way.
// Declarations at the top level of a program are globals.
//
// # Closures
//
// A name that is not found in the current function is looked up in the
// enclosing functions. A hit becomes an upvalue of the inner function,
// recorded as an UpvalueDesc on its proto. Upvalues capture variables by
// reference: they stay open while the owning frame is live and are closed
// when the scope or frame ends. Names that resolve nowhere are globals.
//
// # Jumps
//
// Forward jumps are emitted with bytecode.NoTarget and patched once the
// destination is known. break and continue sites are collected on a loop
// context and patched when the loop is finished.
package compiler

import (
	"fmt"
	"math"

	"fortio.org/safecast"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/jsbox/ast"
	"github.com/deepnoodle-ai/jsbox/bytecode"
	"github.com/deepnoodle-ai/jsbox/internal/token"
	"github.com/deepnoodle-ai/jsbox/op"
	"github.com/deepnoodle-ai/jsbox/value"
)

// MainName is the default name of the top-level function.
const MainName = "<main>"

// Compiler compiles a program into a tree of function protos. A Compiler
// may be reused, but not from several goroutines at once.
type Compiler struct {
	// The top-level function. This remains fixed throughout compilation.
	main *Code

	// The function we are compiling into. This changes as we enter and
	// leave function bodies.
	current *Code

	// Set on a compilation error that is awkward to propagate, such as
	// running out of registers.
	failure error

	name     string
	filename string
	logger   zerolog.Logger

	// Position of the node being compiled, recorded on each instruction.
	pos token.Position

	// Name given to the next anonymous function or class expression.
	nameHint string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithName sets the name of the top-level function.
func WithName(name string) Option {
	return func(c *Compiler) {
		c.name = name
	}
}

// WithFilename sets the source filename recorded on protos and errors.
func WithFilename(filename string) Option {
	return func(c *Compiler) {
		c.filename = filename
	}
}

// WithLogger sets a logger that receives a debug event for every compiled
// function.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// Compile compiles program and returns its top-level function.
func Compile(program *ast.Program, opts ...Option) (*bytecode.FunctionProto, error) {
	return New(opts...).Compile(program)
}

// New returns a Compiler configured with opts.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		name:   MainName,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles program. The returned proto has passed Validate.
func (c *Compiler) Compile(program *ast.Program) (*bytecode.FunctionProto, error) {
	if program == nil {
		return nil, &CompileError{Message: "nil program", File: c.filename}
	}
	c.failure = nil
	c.nameHint = ""
	c.pos = token.Position{}
	c.main = newCode(nil, c.name)
	c.current = c.main
	c.main.symbols.InsertLocal("this", c.alloc(), true)

	body := program.Body
	c.declareVars(body)
	c.declareLexical(body)
	if err := c.hoistFunctions(body); err != nil {
		return nil, err
	}

	// The value of a trailing expression statement is the program's result.
	var last *ast.ExprStmt
	if n := len(body); n > 0 {
		if stmt, ok := body[n-1].(*ast.ExprStmt); ok {
			last = stmt
			body = body[:n-1]
		}
	}
	for _, stmt := range body {
		if _, ok := stmt.(*ast.FuncDecl); ok {
			continue
		}
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	if last != nil {
		c.pos = last.Pos()
		reg, err := c.compileExpr(last.X)
		if err != nil {
			return nil, err
		}
		c.emitA(op.Return, reg)
		c.free(reg)
	} else {
		c.emitImplicitReturn()
	}
	if c.failure != nil {
		return nil, c.failure
	}

	proto := c.finish(c.main)
	if err := proto.Validate(); err != nil {
		return nil, fmt.Errorf("compiler produced invalid bytecode: %w", err)
	}
	return proto, nil
}

func (c *Compiler) finish(code *Code) *bytecode.FunctionProto {
	proto := code.proto(c.filename)
	c.logger.Debug().
		Str("function", proto.DisplayName()).
		Int("instructions", len(proto.Code)).
		Int("constants", len(proto.Constants)).
		Int("registers", proto.NumRegs).
		Int("upvalues", len(proto.Upvalues)).
		Msg("compiled function")
	return proto
}

// Errors

func (c *Compiler) errorf(pos token.Position, format string, args ...any) error {
	return &CompileError{
		Message: fmt.Sprintf(format, args...),
		File:    c.filename,
		Line:    pos.LineNumber(),
		Column:  pos.ColumnNumber(),
	}
}

// fail records the first error that cannot be returned directly.
func (c *Compiler) fail(msg string, pos token.Position) {
	if c.failure == nil {
		c.failure = c.errorf(pos, "%s", msg)
	}
}

// Emitting

func (c *Compiler) currentPosition() int {
	return len(c.current.instructions)
}

func (c *Compiler) emit(instr bytecode.Instruction) int {
	code := c.current
	pos := len(code.instructions)
	code.instructions = append(code.instructions, instr)
	code.locations = append(code.locations, bytecode.SourceLocation{
		Line:   c.pos.LineNumber(),
		Column: c.pos.ColumnNumber(),
	})
	return pos
}

func (c *Compiler) emitA(opcode op.Code, a uint16) int {
	return c.emit(bytecode.Instruction{Op: opcode, A: a})
}

func (c *Compiler) emitAB(opcode op.Code, a, b uint16) int {
	return c.emit(bytecode.Instruction{Op: opcode, A: a, B: b})
}

func (c *Compiler) emitABC(opcode op.Code, a, b, cc uint16) int {
	return c.emit(bytecode.Instruction{Op: opcode, A: a, B: b, C: cc})
}

func (c *Compiler) emitAK(opcode op.Code, a uint16, k uint32) int {
	return c.emit(bytecode.Instruction{Op: opcode, A: a, K: k})
}

func (c *Compiler) emitABK(opcode op.Code, a, b uint16, k uint32) int {
	return c.emit(bytecode.Instruction{Op: opcode, A: a, B: b, K: k})
}

// emitJump emits a jump whose target is patched later.
func (c *Compiler) emitJump(opcode op.Code, a uint16) int {
	return c.emit(bytecode.Instruction{Op: opcode, A: a, K: bytecode.NoTarget})
}

// patch points the jump at pos to the next instruction.
func (c *Compiler) patch(pos int) {
	c.patchTo(pos, c.currentPosition())
}

func (c *Compiler) patchTo(pos, target int) {
	c.current.instructions[pos].K = uint32(target)
}

func (c *Compiler) emitImplicitReturn() {
	reg := c.alloc()
	c.emitA(op.LoadUndef, reg)
	c.emitA(op.Return, reg)
	c.free(reg)
}

// closeFrom closes upvalues over registers at or above base, if any
// register in that range was captured.
func (c *Compiler) closeFrom(base uint16) {
	if c.current.needsClose(base) {
		c.emitA(op.CloseUpvalues, base)
	}
}

// Constants

func (c *Compiler) constant(k bytecode.Constant) uint32 {
	code := c.current
	for i, existing := range code.constants {
		if existing.Equal(k) {
			return uint32(i)
		}
	}
	index, err := safecast.Conv[uint32](len(code.constants))
	if err != nil || index == math.MaxUint32 {
		c.fail(fmt.Sprintf("function %s has too many constants", code.displayName()), c.pos)
		return 0
	}
	code.constants = append(code.constants, k)
	return index
}

func (c *Compiler) nameConstant(name string) uint32 {
	return c.constant(bytecode.String(name))
}

func (c *Compiler) numberConstant(f float64) uint32 {
	return c.constant(bytecode.Number(f))
}

// Scopes and symbols

func (c *Compiler) pushScope() {
	c.current.symbols = c.current.symbols.NewBlock(c.height())
}

func (c *Compiler) popScope() {
	table := c.current.symbols
	c.closeFrom(table.base)
	c.truncate(table.base)
	c.current.symbols = table.parent
}

// inGlobalScope reports whether declarations made now become globals.
func (c *Compiler) inGlobalScope() bool {
	return c.current == c.main && c.current.symbols.parent == nil
}

// declare binds name in the innermost scope unless it is already bound
// there. Local bindings start out undefined.
func (c *Compiler) declare(name string, isConstant bool) {
	table := c.current.symbols
	if name == "" || table.IsDefined(name) {
		return
	}
	if c.inGlobalScope() {
		table.InsertGlobal(name, isConstant)
		return
	}
	reg := c.alloc()
	c.emitA(op.LoadUndef, reg)
	table.InsertLocal(name, reg, isConstant)
}

// declareLexical declares the block-scoped names introduced directly by
// stmts.
func (c *Compiler) declareLexical(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *ast.VarDecl:
			if stmt.Kind == "var" {
				continue
			}
			for _, d := range stmt.Decls {
				if id, ok := d.Target.(*ast.Ident); ok {
					c.declare(id.Name, stmt.Kind == "const")
				}
			}
		case *ast.FuncDecl:
			c.declare(stmt.Func.Name, false)
		case *ast.ClassDecl:
			c.declare(stmt.Class.Name, false)
		}
	}
}

// declareVars declares every var binding in stmts, including those in
// nested blocks, but not those inside nested functions.
func (c *Compiler) declareVars(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		c.declareVarsIn(stmt)
	}
}

func (c *Compiler) declareVarsIn(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Kind != "var" {
			return
		}
		for _, d := range s.Decls {
			if id, ok := d.Target.(*ast.Ident); ok {
				c.declare(id.Name, false)
			}
		}
	case *ast.Block:
		c.declareVars(s.Body)
	case *ast.If:
		c.declareVarsIn(s.Then)
		if s.Else != nil {
			c.declareVarsIn(s.Else)
		}
	case *ast.While:
		c.declareVarsIn(s.Body)
	case *ast.DoWhile:
		c.declareVarsIn(s.Body)
	case *ast.For:
		if s.Init != nil {
			c.declareVarsIn(s.Init)
		}
		c.declareVarsIn(s.Body)
	case *ast.ForIn:
		c.declareVarsIn(s.Left)
		c.declareVarsIn(s.Body)
	case *ast.ForOf:
		c.declareVarsIn(s.Left)
		c.declareVarsIn(s.Body)
	case *ast.Try:
		c.declareVars(s.Block.Body)
		if s.Handler != nil {
			c.declareVars(s.Handler.Body)
		}
		if s.Finalizer != nil {
			c.declareVars(s.Finalizer.Body)
		}
	case *ast.Switch:
		for _, cs := range s.Cases {
			c.declareVars(cs.Body)
		}
	case *ast.Labeled:
		c.declareVarsIn(s.Body)
	}
}

// resolve looks up name from the current function.
func (c *Compiler) resolve(name string) *Resolution {
	return c.resolveIn(c.current, name)
}

func (c *Compiler) resolveIn(code *Code, name string) *Resolution {
	if s, ok := code.symbols.Lookup(name); ok {
		if s.isGlobal {
			return &Resolution{scope: Global, symbol: s, name: name}
		}
		return &Resolution{scope: Local, symbol: s, name: name, index: s.register}
	}
	if code.parent == nil {
		return &Resolution{scope: Global, name: name}
	}
	outer := c.resolveIn(code.parent, name)
	switch outer.scope {
	case Global:
		return outer
	case Local:
		outer.symbol.captured = true
		code.parent.markCaptured(outer.index)
		return &Resolution{
			scope:  Free,
			symbol: outer.symbol,
			name:   name,
			index:  code.addUpvalue(true, outer.index, name),
		}
	default:
		return &Resolution{
			scope:  Free,
			symbol: outer.symbol,
			name:   name,
			index:  code.addUpvalue(false, outer.index, name),
		}
	}
}

// emitLoad copies the variable into dst.
func (c *Compiler) emitLoad(res *Resolution, dst uint16) {
	switch res.scope {
	case Global:
		c.emitAK(op.GetGlobal, dst, c.nameConstant(res.name))
	case Local:
		c.emitAB(op.Move, dst, res.index)
	case Free:
		c.emitAB(op.GetUpvalue, dst, res.index)
	}
}

// emitStore copies src into the variable.
func (c *Compiler) emitStore(res *Resolution, src uint16) {
	switch res.scope {
	case Global:
		c.emitAK(op.SetGlobal, src, c.nameConstant(res.name))
	case Local:
		if res.index != src {
			c.emitAB(op.Move, res.index, src)
		}
	case Free:
		c.emitAB(op.SetUpvalue, src, res.index)
	}
}

// Statements

// hoistFunctions creates the closures for the function declarations
// directly in stmts before anything else in the block runs.
func (c *Compiler) hoistFunctions(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if decl, ok := stmt.(*ast.FuncDecl); ok {
			if err := c.compileFuncDecl(decl); err != nil {
				return err
			}
		}
	}
	return nil
}

// compileStatements compiles the body of a block whose declarations have
// already been made.
func (c *Compiler) compileStatements(stmts []ast.Stmt) error {
	if err := c.hoistFunctions(stmts); err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, ok := stmt.(*ast.FuncDecl); ok {
			continue
		}
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	return c.compileLabeledStmt(stmt, nil)
}

// compileLabeledStmt compiles stmt with the labels that directly precede
// it, which loops and switches accept as break and continue targets.
func (c *Compiler) compileLabeledStmt(stmt ast.Stmt, labels []string) error {
	if c.failure != nil {
		return c.failure
	}
	c.pos = stmt.Pos()
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		reg, err := c.compileExpr(s.X)
		if err != nil {
			return err
		}
		c.free(reg)
	case *ast.VarDecl:
		return c.compileVarDecl(s)
	case *ast.Block:
		return c.compileBlock(s)
	case *ast.Empty, *ast.Debugger:
	case *ast.If:
		return c.compileIf(s)
	case *ast.While:
		return c.compileWhile(s, labels)
	case *ast.DoWhile:
		return c.compileDoWhile(s, labels)
	case *ast.For:
		return c.compileFor(s, labels)
	case *ast.ForIn:
		return c.compileForEach(s.Left, s.Right, s.Body, true, labels)
	case *ast.ForOf:
		return c.compileForEach(s.Left, s.Right, s.Body, false, labels)
	case *ast.Return:
		return c.compileReturn(s)
	case *ast.Throw:
		reg, err := c.compileExpr(s.Value)
		if err != nil {
			return err
		}
		c.pos = s.Pos()
		c.emitA(op.Throw, reg)
		c.free(reg)
	case *ast.Break:
		return c.compileBreak(s)
	case *ast.Continue:
		return c.compileContinue(s)
	case *ast.Try:
		return c.compileTry(s)
	case *ast.Switch:
		return c.compileSwitch(s, labels)
	case *ast.Labeled:
		return c.compileLabeled(s, labels)
	case *ast.FuncDecl:
		return c.compileFuncDecl(s)
	case *ast.ClassDecl:
		return c.compileClassDecl(s)
	default:
		return c.errorf(stmt.Pos(), "unsupported statement %T", stmt)
	}
	return nil
}

func (c *Compiler) compileBlock(block *ast.Block) error {
	c.pushScope()
	c.declareLexical(block.Body)
	if err := c.compileStatements(block.Body); err != nil {
		return err
	}
	c.popScope()
	return nil
}

func (c *Compiler) compileVarDecl(s *ast.VarDecl) error {
	isConstant := s.Kind == "const"
	for _, d := range s.Decls {
		id, ok := d.Target.(*ast.Ident)
		if !ok {
			return c.errorf(d.Target.Pos(), "destructuring declarations are not supported")
		}
		if s.Kind != "var" {
			// Declarations outside a block body, such as the body of a
			// labeled statement, are bound where they appear.
			c.declare(id.Name, isConstant)
		}
		res := c.resolve(id.Name)
		if d.Init == nil {
			if s.Kind == "var" {
				continue
			}
			reg := c.alloc()
			c.emitA(op.LoadUndef, reg)
			c.emitStore(res, reg)
			c.free(reg)
			continue
		}
		reg, err := c.compileNamedExpr(d.Init, id.Name)
		if err != nil {
			return err
		}
		c.emitStore(res, reg)
		c.free(reg)
	}
	return nil
}

func (c *Compiler) compileIf(s *ast.If) error {
	cond, err := c.compileExpr(s.Cond)
	if err != nil {
		return err
	}
	jumpElse := c.emitJump(op.JumpIfFalse, cond)
	c.free(cond)
	if err := c.compileStmt(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		c.patch(jumpElse)
		return nil
	}
	jumpEnd := c.emitJump(op.Jump, 0)
	c.patch(jumpElse)
	if err := c.compileStmt(s.Else); err != nil {
		return err
	}
	c.patch(jumpEnd)
	return nil
}

// Loops

func (c *Compiler) pushLoop(labels []string, isLoop, isSwitch bool) *loop {
	code := c.current
	l := &loop{
		labels:   labels,
		isLoop:   isLoop,
		isSwitch: isSwitch,
		base:     c.height(),
		tries:    len(code.tries),
	}
	code.loops = append(code.loops, l)
	return l
}

// popLoop removes l and points its break and continue sites at their
// targets.
func (c *Compiler) popLoop(l *loop, breakTarget, continueTarget int) {
	code := c.current
	code.loops = code.loops[:len(code.loops)-1]
	for _, pos := range l.breakPos {
		c.patchTo(pos, breakTarget)
	}
	for _, pos := range l.continuePos {
		c.patchTo(pos, continueTarget)
	}
}

func (c *Compiler) compileWhile(s *ast.While, labels []string) error {
	l := c.pushLoop(labels, true, false)
	start := c.currentPosition()
	cond, err := c.compileExpr(s.Cond)
	if err != nil {
		return err
	}
	exit := c.emitJump(op.JumpIfFalse, cond)
	c.free(cond)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	c.closeFrom(l.base)
	c.emit(bytecode.Instruction{Op: op.Jump, K: uint32(start)})
	c.patch(exit)
	end := c.currentPosition()
	c.closeFrom(l.base)
	c.popLoop(l, end, continueTarget)
	return nil
}

func (c *Compiler) compileDoWhile(s *ast.DoWhile, labels []string) error {
	l := c.pushLoop(labels, true, false)
	start := c.currentPosition()
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	c.closeFrom(l.base)
	c.pos = s.Cond.Pos()
	cond, err := c.compileExpr(s.Cond)
	if err != nil {
		return err
	}
	c.emitAK(op.JumpIfTrue, cond, uint32(start))
	c.free(cond)
	end := c.currentPosition()
	c.closeFrom(l.base)
	c.popLoop(l, end, continueTarget)
	return nil
}

func (c *Compiler) compileFor(s *ast.For, labels []string) error {
	c.pushScope()
	headBase := c.height()
	if s.Init != nil {
		if decl, ok := s.Init.(*ast.VarDecl); ok {
			c.declareLexical([]ast.Stmt{decl})
		}
		if err := c.compileStmt(s.Init); err != nil {
			return err
		}
	}
	l := c.pushLoop(labels, true, false)
	start := c.currentPosition()
	exit := -1
	if s.Test != nil {
		c.pos = s.Test.Pos()
		cond, err := c.compileExpr(s.Test)
		if err != nil {
			return err
		}
		exit = c.emitJump(op.JumpIfFalse, cond)
		c.free(cond)
	}
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	// Closing the head bindings here gives each iteration its own copy
	// of a captured loop variable.
	continueTarget := c.currentPosition()
	c.closeFrom(headBase)
	if s.Update != nil {
		c.pos = s.Update.Pos()
		reg, err := c.compileExpr(s.Update)
		if err != nil {
			return err
		}
		c.free(reg)
	}
	c.emit(bytecode.Instruction{Op: op.Jump, K: uint32(start)})
	if exit >= 0 {
		c.patch(exit)
	}
	end := c.currentPosition()
	c.popLoop(l, end, continueTarget)
	c.popScope()
	return nil
}

// compileForEach compiles for-in (keys) and for-of (elements) loops as an
// index loop over an array or string.
func (c *Compiler) compileForEach(left ast.Stmt, right ast.Expr, body ast.Stmt, keys bool, labels []string) error {
	c.pushScope()
	headBase := c.height()

	var target *Resolution
	var targetExpr ast.Expr
	switch left := left.(type) {
	case *ast.VarDecl:
		if len(left.Decls) != 1 {
			return c.errorf(left.Pos(), "for-in/of requires a single declaration")
		}
		id, ok := left.Decls[0].Target.(*ast.Ident)
		if !ok {
			return c.errorf(left.Decls[0].Target.Pos(), "destructuring declarations are not supported")
		}
		if left.Kind != "var" {
			c.declare(id.Name, left.Kind == "const")
		}
		target = c.resolve(id.Name)
	case *ast.ExprStmt:
		switch x := left.X.(type) {
		case *ast.Ident:
			target = c.resolve(x.Name)
			if target.IsConstant() {
				return c.errorf(x.Pos(), "assignment to constant variable %q", x.Name)
			}
		case *ast.Member:
			targetExpr = x
		default:
			return c.errorf(left.Pos(), "invalid left-hand side in for-in/of loop")
		}
	default:
		return c.errorf(left.Pos(), "invalid left-hand side in for-in/of loop")
	}

	iterable, err := c.compileExpr(right)
	if err != nil {
		return err
	}
	if keys {
		c.emitAB(op.Keys, iterable, iterable)
	}
	length := c.alloc()
	c.emitAB(op.Length, length, iterable)
	index := c.alloc()
	c.emitAK(op.LoadConst, index, c.numberConstant(0))
	one := c.alloc()
	c.emitAK(op.LoadConst, one, c.numberConstant(1))

	l := c.pushLoop(labels, true, false)
	start := c.currentPosition()
	cond := c.alloc()
	c.emitABC(op.Lt, cond, index, length)
	exit := c.emitJump(op.JumpIfFalse, cond)
	c.free(cond)

	item := c.alloc()
	c.emitABC(op.GetElem, item, iterable, index)
	if target != nil {
		c.emitStore(target, item)
	} else if err := c.assignToMember(targetExpr.(*ast.Member), item); err != nil {
		return err
	}
	c.free(item)

	if err := c.compileStmt(body); err != nil {
		return err
	}
	continueTarget := c.currentPosition()
	c.closeFrom(headBase)
	c.emitABC(op.Add, index, index, one)
	c.emit(bytecode.Instruction{Op: op.Jump, K: uint32(start)})
	c.patch(exit)
	end := c.currentPosition()
	c.popLoop(l, end, continueTarget)
	c.free(one)
	c.free(index)
	c.free(length)
	c.free(iterable)
	c.popScope()
	return nil
}

// assignToMember stores src into the member expression target.
func (c *Compiler) assignToMember(target *ast.Member, src uint16) error {
	obj, err := c.compileExpr(target.Object)
	if err != nil {
		return err
	}
	key, name, computed, err := c.memberKey(target.Property, target.Computed)
	if err != nil {
		return err
	}
	c.emitSetMember(obj, key, name, computed, src)
	if computed {
		c.free(key)
	}
	c.free(obj)
	return nil
}

func (c *Compiler) compileLabeled(s *ast.Labeled, labels []string) error {
	labels = append(labels, s.Label)
	switch s.Body.(type) {
	case *ast.While, *ast.DoWhile, *ast.For, *ast.ForIn, *ast.ForOf, *ast.Switch, *ast.Labeled:
		return c.compileLabeledStmt(s.Body, labels)
	}
	l := c.pushLoop(labels, false, false)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	end := c.currentPosition()
	c.closeFrom(l.base)
	c.popLoop(l, end, end)
	return nil
}

func (c *Compiler) compileBreak(s *ast.Break) error {
	loops := c.current.loops
	for i := len(loops) - 1; i >= 0; i-- {
		l := loops[i]
		if s.Label == "" && !l.isLoop && !l.isSwitch {
			continue
		}
		if s.Label != "" && !l.hasLabel(s.Label) {
			continue
		}
		if err := c.exitTries(l.tries); err != nil {
			return err
		}
		c.pos = s.Pos()
		l.breakPos = append(l.breakPos, c.emitJump(op.Jump, 0))
		return nil
	}
	if s.Label != "" {
		return c.errorf(s.Pos(), "undefined label %q", s.Label)
	}
	return c.errorf(s.Pos(), "illegal break statement")
}

func (c *Compiler) compileContinue(s *ast.Continue) error {
	loops := c.current.loops
	for i := len(loops) - 1; i >= 0; i-- {
		l := loops[i]
		if s.Label == "" && !l.isLoop {
			continue
		}
		if s.Label != "" && !l.hasLabel(s.Label) {
			continue
		}
		if !l.isLoop {
			return c.errorf(s.Pos(), "illegal continue statement: %q does not denote an iteration statement", s.Label)
		}
		if err := c.exitTries(l.tries); err != nil {
			return err
		}
		c.pos = s.Pos()
		l.continuePos = append(l.continuePos, c.emitJump(op.Jump, 0))
		return nil
	}
	if s.Label != "" {
		return c.errorf(s.Pos(), "undefined label %q", s.Label)
	}
	return c.errorf(s.Pos(), "illegal continue statement: no surrounding iteration statement")
}

func (c *Compiler) compileReturn(s *ast.Return) error {
	var reg uint16
	if s.Value != nil {
		r, err := c.compileExpr(s.Value)
		if err != nil {
			return err
		}
		reg = r
	} else {
		reg = c.alloc()
		c.emitA(op.LoadUndef, reg)
	}
	if err := c.exitTries(0); err != nil {
		return err
	}
	c.pos = s.Pos()
	c.emitA(op.Return, reg)
	c.free(reg)
	return nil
}

// exitTries is called before a jump that leaves the try regions above
// depth. It pops their handlers and runs their finally blocks inline,
// innermost first.
func (c *Compiler) exitTries(depth int) error {
	code := c.current
	saved := code.tries
	defer func() { code.tries = saved }()
	for i := len(saved) - 1; i >= depth; i-- {
		region := saved[i]
		if region.protected {
			c.emit(bytecode.Instruction{Op: op.PopTry})
		}
		if region.finalizer != nil {
			code.tries = saved[:i]
			if err := c.compileBlock(region.finalizer); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) compileTry(s *ast.Try) error {
	code := c.current
	exc := c.alloc()
	pushTry := c.emitJump(op.PushTry, exc)

	code.tries = append(code.tries, &tryRegion{finalizer: s.Finalizer, protected: true})
	if err := c.compileBlock(s.Block); err != nil {
		return err
	}
	code.tries = code.tries[:len(code.tries)-1]
	c.emit(bytecode.Instruction{Op: op.PopTry})
	if s.Finalizer != nil {
		if err := c.compileBlock(s.Finalizer); err != nil {
			return err
		}
	}
	jumpEnd := c.emitJump(op.Jump, 0)

	// The thrown value arrives in exc.
	c.patch(pushTry)
	c.closeFrom(exc + 1)
	if s.Handler != nil {
		c.pushScope()
		if id, ok := s.Param.(*ast.Ident); ok {
			param := c.alloc()
			c.emitAB(op.Move, param, exc)
			c.current.symbols.InsertLocal(id.Name, param, false)
		} else if s.Param != nil {
			c.declarePatternLocals(s.Param)
			if err := c.bindPattern(s.Param, exc); err != nil {
				return err
			}
		}
		code.tries = append(code.tries, &tryRegion{finalizer: s.Finalizer})
		if err := c.compileBlock(s.Handler); err != nil {
			return err
		}
		code.tries = code.tries[:len(code.tries)-1]
		c.popScope()
		if s.Finalizer != nil {
			if err := c.compileBlock(s.Finalizer); err != nil {
				return err
			}
		}
	} else {
		if err := c.compileBlock(s.Finalizer); err != nil {
			return err
		}
		c.emitA(op.Throw, exc)
	}
	c.patch(jumpEnd)
	c.free(exc)
	return nil
}

func (c *Compiler) compileSwitch(s *ast.Switch, labels []string) error {
	disc, err := c.compileExpr(s.Discriminant)
	if err != nil {
		return err
	}
	c.pushScope()
	var all []ast.Stmt
	for _, cs := range s.Cases {
		all = append(all, cs.Body...)
	}
	c.declareLexical(all)

	l := c.pushLoop(labels, false, true)
	jumps := make([]int, len(s.Cases))
	for i, cs := range s.Cases {
		if cs.Test == nil {
			continue
		}
		c.pos = cs.CasePos
		test, err := c.compileExpr(cs.Test)
		if err != nil {
			return err
		}
		c.emitABC(op.EqStrict, test, disc, test)
		jumps[i] = c.emitJump(op.JumpIfTrue, test)
		c.free(test)
	}
	jumpDefault := c.emitJump(op.Jump, 0)
	defaultTarget := -1
	for i, cs := range s.Cases {
		target := c.currentPosition()
		if cs.Test == nil {
			defaultTarget = target
		} else {
			c.patchTo(jumps[i], target)
		}
		if err := c.compileStatements(cs.Body); err != nil {
			return err
		}
	}
	end := c.currentPosition()
	if defaultTarget >= 0 {
		c.patchTo(jumpDefault, defaultTarget)
	} else {
		c.patchTo(jumpDefault, end)
	}
	c.popLoop(l, end, end)
	c.popScope()
	c.free(disc)
	return nil
}

func (c *Compiler) compileFuncDecl(s *ast.FuncDecl) error {
	fn := s.Func
	c.declare(fn.Name, false)
	res := c.resolve(fn.Name)
	k, err := c.compileFunctionProto(functionSpec{
		name:   fn.Name,
		params: fn.Params,
		body:   fn.Body,
		pos:    fn.Pos(),
	})
	if err != nil {
		return err
	}
	c.pos = s.Pos()
	if res.scope == Local {
		c.emitAK(op.CreateClosure, res.index, k)
		return nil
	}
	reg := c.alloc()
	c.emitAK(op.CreateClosure, reg, k)
	c.emitStore(res, reg)
	c.free(reg)
	return nil
}

func (c *Compiler) compileClassDecl(s *ast.ClassDecl) error {
	c.declare(s.Class.Name, false)
	res := c.resolve(s.Class.Name)
	reg, err := c.compileClass(s.Class, s.Class.Name, false)
	if err != nil {
		return err
	}
	c.emitStore(res, reg)
	c.free(reg)
	return nil
}

// literalNumberKey formats a numeric property key the way property names
// are stored.
func literalNumberKey(f float64) string {
	return value.FormatNumber(f)
}
