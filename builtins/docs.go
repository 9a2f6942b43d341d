package builtins

// FuncSpec describes a builtin function for help output and tooling.
type FuncSpec struct {
	// Name is the qualified name, e.g. "parseInt" or "Math.floor".
	Name    string   `json:"name"`
	Doc     string   `json:"doc"`
	Args    []string `json:"args"`
	Returns string   `json:"returns"`
	Example string   `json:"example,omitempty"`
}

// Docs returns documentation for all builtin functions.
func Docs() []FuncSpec {
	return builtinDocs
}

// Lookup returns the documentation for the named builtin.
func Lookup(name string) (FuncSpec, bool) {
	for _, spec := range builtinDocs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FuncSpec{}, false
}

var builtinDocs = []FuncSpec{
	{
		Name:    "print",
		Doc:     "Write the arguments to the output separated by spaces",
		Args:    []string{"...values"},
		Returns: "undefined",
		Example: "print('x =', 1)",
	},
	{
		Name:    "parseInt",
		Doc:     "Parse the leading integer of a string in the given radix",
		Args:    []string{"string", "radix?"},
		Returns: "number",
		Example: "parseInt('ff', 16)",
	},
	{
		Name:    "parseFloat",
		Doc:     "Parse the leading decimal number of a string",
		Args:    []string{"string"},
		Returns: "number",
		Example: "parseFloat('3.14abc')",
	},
	{
		Name:    "isNaN",
		Doc:     "Return true if the value converts to NaN",
		Args:    []string{"value"},
		Returns: "boolean",
	},
	{
		Name:    "isFinite",
		Doc:     "Return true if the value converts to a finite number",
		Args:    []string{"value"},
		Returns: "boolean",
	},
	{
		Name:    "String",
		Doc:     "Convert a value to a string",
		Args:    []string{"value?"},
		Returns: "string",
		Example: "String(42)",
	},
	{
		Name:    "Number",
		Doc:     "Convert a value to a number",
		Args:    []string{"value?"},
		Returns: "number",
		Example: "Number('0x1f')",
	},
	{
		Name:    "Boolean",
		Doc:     "Convert a value to a boolean",
		Args:    []string{"value?"},
		Returns: "boolean",
	},
	{
		Name:    "Error",
		Doc:     "Create an error object with a message",
		Args:    []string{"message?"},
		Returns: "object",
		Example: "throw new Error('not found')",
	},
	{
		Name:    "TypeError",
		Doc:     "Create a TypeError object with a message",
		Args:    []string{"message?"},
		Returns: "object",
	},
	{
		Name:    "RangeError",
		Doc:     "Create a RangeError object with a message",
		Args:    []string{"message?"},
		Returns: "object",
	},
	{
		Name:    "SyntaxError",
		Doc:     "Create a SyntaxError object with a message",
		Args:    []string{"message?"},
		Returns: "object",
	},
	{Name: "console.log", Doc: "Write the arguments to the output", Args: []string{"...values"}, Returns: "undefined"},
	{Name: "console.info", Doc: "Alias of console.log", Args: []string{"...values"}, Returns: "undefined"},
	{Name: "console.warn", Doc: "Alias of console.log", Args: []string{"...values"}, Returns: "undefined"},
	{Name: "console.error", Doc: "Alias of console.log", Args: []string{"...values"}, Returns: "undefined"},
	{Name: "Math.floor", Doc: "Round down", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.ceil", Doc: "Round up", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.round", Doc: "Round to the nearest integer, halves up", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.abs", Doc: "Absolute value", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.sqrt", Doc: "Square root", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.sin", Doc: "Sine of an angle in radians", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.cos", Doc: "Cosine of an angle in radians", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.tan", Doc: "Tangent of an angle in radians", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.log", Doc: "Natural logarithm", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.exp", Doc: "e raised to x", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.trunc", Doc: "Integer part of x", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.sign", Doc: "Sign of x as -1, 0 or 1", Args: []string{"x"}, Returns: "number"},
	{Name: "Math.pow", Doc: "x raised to y", Args: []string{"x", "y"}, Returns: "number", Example: "Math.pow(2, 8)"},
	{Name: "Math.min", Doc: "Smallest argument", Args: []string{"...values"}, Returns: "number"},
	{Name: "Math.max", Doc: "Largest argument", Args: []string{"...values"}, Returns: "number"},
	{Name: "Math.random", Doc: "Pseudo-random number in [0, 1)", Returns: "number"},
	{
		Name:    "JSON.stringify",
		Doc:     "Serialize a value as JSON, optionally indented",
		Args:    []string{"value", "replacer?", "space?"},
		Returns: "string",
		Example: "JSON.stringify({ a: [1, 2] }, null, 2)",
	},
	{
		Name:    "JSON.parse",
		Doc:     "Parse a JSON document",
		Args:    []string{"text"},
		Returns: "any",
		Example: "JSON.parse('{\"a\": 1}').a",
	},
	{Name: "Object.keys", Doc: "Enumerable keys of an object", Args: []string{"object"}, Returns: "array"},
	{Name: "Array.isArray", Doc: "Return true if the value is an array", Args: []string{"value"}, Returns: "boolean"},
}
