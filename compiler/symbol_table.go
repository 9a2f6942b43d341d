package compiler

// Scope describes where a resolved variable lives at run time.
type Scope uint8

const (
	// Global variables live in the VM's global object.
	Global Scope = iota
	// Local variables live in a register of the current frame.
	Local
	// Free variables are captured from an enclosing function as upvalues.
	Free
)

func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case Local:
		return "local"
	case Free:
		return "free"
	default:
		return "unknown"
	}
}

// Symbol is a named binding declared in a SymbolTable.
type Symbol struct {
	name       string
	register   uint16
	isGlobal   bool
	isConstant bool
	captured   bool
}

// Name returns the declared name.
func (s *Symbol) Name() string { return s.name }

// Register returns the register holding a local symbol.
func (s *Symbol) Register() uint16 { return s.register }

// IsConstant returns true for const bindings.
func (s *Symbol) IsConstant() bool { return s.isConstant }

// Resolution is the outcome of looking up a name from some function.
type Resolution struct {
	scope  Scope
	symbol *Symbol // nil for implicit globals
	name   string
	index  uint16 // register for Local, upvalue index for Free
}

// Scope returns where the resolved variable lives.
func (r *Resolution) Scope() Scope { return r.scope }

// Index returns the register or upvalue index of the variable.
func (r *Resolution) Index() uint16 { return r.index }

// IsConstant returns true if the variable was declared with const.
func (r *Resolution) IsConstant() bool {
	return r.symbol != nil && r.symbol.isConstant
}

// SymbolTable holds the bindings of one lexical scope. Each function has a
// root table without a parent; block tables chain to their enclosing table
// within the same function. Lookups that fall off the root continue in the
// enclosing function, which the compiler turns into upvalue captures.
type SymbolTable struct {
	parent  *SymbolTable
	symbols map[string]*Symbol
	// base is the register stack height when the scope was entered.
	base uint16
}

// NewSymbolTable returns an empty function-level table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: map[string]*Symbol{}}
}

// NewBlock returns a child table for a block whose registers start at base.
func (t *SymbolTable) NewBlock(base uint16) *SymbolTable {
	return &SymbolTable{parent: t, symbols: map[string]*Symbol{}, base: base}
}

// Parent returns the enclosing table in the same function, or nil.
func (t *SymbolTable) Parent() *SymbolTable { return t.parent }

// InsertLocal binds name to a register in this table. Redeclaring a name in
// the same table returns the existing symbol.
func (t *SymbolTable) InsertLocal(name string, register uint16, isConstant bool) *Symbol {
	if s, ok := t.symbols[name]; ok {
		return s
	}
	s := &Symbol{name: name, register: register, isConstant: isConstant}
	t.symbols[name] = s
	return s
}

// InsertGlobal binds name to a global variable.
func (t *SymbolTable) InsertGlobal(name string, isConstant bool) *Symbol {
	if s, ok := t.symbols[name]; ok {
		return s
	}
	s := &Symbol{name: name, isGlobal: true, isConstant: isConstant}
	t.symbols[name] = s
	return s
}

// IsDefined returns true if name is declared in this table. Parent tables
// are not checked.
func (t *SymbolTable) IsDefined(name string) bool {
	_, ok := t.symbols[name]
	return ok
}

// Lookup finds name in this table or an enclosing table of the same
// function.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for table := t; table != nil; table = table.parent {
		if s, ok := table.symbols[name]; ok {
			return s, true
		}
	}
	return nil, false
}
