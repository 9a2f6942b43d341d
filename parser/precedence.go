package parser

import "github.com/deepnoodle-ai/jsbox/internal/token"

// Precedence order for operators, loosest first.
const (
	NONE int = iota
	COMMA
	ASSIGNMENT
	CONDITIONAL
	NULLISH
	LOGICAL_OR
	LOGICAL_AND
	BIT_OR
	BIT_XOR
	BIT_AND
	EQUALITY
	RELATIONAL
	SHIFT
	ADDITIVE
	MULTIPLICATIVE
	EXPONENT
	UNARY
	UPDATE
	CALL
	MEMBER
)

// Precedences for each infix token type
var precedences = map[token.Type]int{
	token.COMMA: COMMA,

	token.ASSIGN:          ASSIGNMENT,
	token.PLUS_EQUALS:     ASSIGNMENT,
	token.MINUS_EQUALS:    ASSIGNMENT,
	token.ASTERISK_EQUALS: ASSIGNMENT,
	token.SLASH_EQUALS:    ASSIGNMENT,
	token.MOD_EQUALS:      ASSIGNMENT,
	token.POW_EQUALS:      ASSIGNMENT,
	token.AMP_EQUALS:      ASSIGNMENT,
	token.BITOR_EQUALS:    ASSIGNMENT,
	token.CARET_EQUALS:    ASSIGNMENT,
	token.LT_LT_EQUALS:    ASSIGNMENT,
	token.GT_GT_EQUALS:    ASSIGNMENT,
	token.GT_GT_GT_EQUALS: ASSIGNMENT,
	token.AND_EQUALS:      ASSIGNMENT,
	token.OR_EQUALS:       ASSIGNMENT,
	token.NULLISH_EQUALS:  ASSIGNMENT,

	token.QUESTION: CONDITIONAL,
	token.NULLISH:  NULLISH,
	token.OR:       LOGICAL_OR,
	token.AND:      LOGICAL_AND,

	token.BITOR:     BIT_OR,
	token.CARET:     BIT_XOR,
	token.AMPERSAND: BIT_AND,

	token.EQ:         EQUALITY,
	token.NOT_EQ:     EQUALITY,
	token.STRICT_EQ:  EQUALITY,
	token.STRICT_NEQ: EQUALITY,

	token.LT:         RELATIONAL,
	token.LT_EQUALS:  RELATIONAL,
	token.GT:         RELATIONAL,
	token.GT_EQUALS:  RELATIONAL,
	token.IN:         RELATIONAL,
	token.INSTANCEOF: RELATIONAL,

	token.LT_LT:    SHIFT,
	token.GT_GT:    SHIFT,
	token.GT_GT_GT: SHIFT,

	token.PLUS:  ADDITIVE,
	token.MINUS: ADDITIVE,

	token.ASTERISK: MULTIPLICATIVE,
	token.SLASH:    MULTIPLICATIVE,
	token.MOD:      MULTIPLICATIVE,

	token.POW: EXPONENT,

	token.PLUS_PLUS:   UPDATE,
	token.MINUS_MINUS: UPDATE,

	token.LPAREN: CALL,

	token.PERIOD:        MEMBER,
	token.LBRACKET:      MEMBER,
	token.QUESTION_DOT:  MEMBER,
	token.TEMPLATE_HEAD: MEMBER,
	token.TEMPLATE_TAIL: MEMBER,
}
