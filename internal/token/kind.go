package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token. The lexer has already reported it.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident

	KwFn     // fn
	KwLet    // let
	KwStatic // static
	KwLive   // live
	KwAssert // assert
	KwIf     // if
	KwElse   // else
	KwReturn // return
	KwTrue   // true
	KwFalse  // false
	KwWhile  // while

	IntLit
	FloatLit
	StringLit

	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %
	Assign  // =
	EqEq    // ==
	Bang    // !
	BangEq  // !=
	Lt      // <
	LtEq    // <=
	Gt      // >
	GtEq    // >=
	AndAnd  // &&
	OrOr    // ||

	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	Comma     // ,
	Semicolon // ;
	Colon     // :
)

var kindNames = [...]string{
	Invalid:   "Invalid",
	EOF:       "EOF",
	Ident:     "Ident",
	KwFn:      "KwFn",
	KwLet:     "KwLet",
	KwStatic:  "KwStatic",
	KwLive:    "KwLive",
	KwAssert:  "KwAssert",
	KwIf:      "KwIf",
	KwElse:    "KwElse",
	KwReturn:  "KwReturn",
	KwTrue:    "KwTrue",
	KwFalse:   "KwFalse",
	KwWhile:   "KwWhile",
	IntLit:    "IntLit",
	FloatLit:  "FloatLit",
	StringLit: "StringLit",
	Plus:      "Plus",
	Minus:     "Minus",
	Star:      "Star",
	Slash:     "Slash",
	Percent:   "Percent",
	Assign:    "Assign",
	EqEq:      "EqEq",
	Bang:      "Bang",
	BangEq:    "BangEq",
	Lt:        "Lt",
	LtEq:      "LtEq",
	Gt:        "Gt",
	GtEq:      "GtEq",
	AndAnd:    "AndAnd",
	OrOr:      "OrOr",
	LParen:    "LParen",
	RParen:    "RParen",
	LBrace:    "LBrace",
	RBrace:    "RBrace",
	Comma:     "Comma",
	Semicolon: "Semicolon",
	Colon:     "Colon",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

var kindLexemes = map[Kind]string{
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Assign: "=", EqEq: "==", Bang: "!", BangEq: "!=",
	Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=", AndAnd: "&&", OrOr: "||",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	Comma: ",", Semicolon: ";", Colon: ":",
}

// Describe returns a user-facing spelling, used in "expected X" messages.
func (k Kind) Describe() string {
	if lx, ok := kindLexemes[k]; ok {
		return "'" + lx + "'"
	}
	for word, kw := range keywords {
		if kw == k {
			return "'" + word + "'"
		}
	}
	switch k {
	case Ident:
		return "identifier"
	case IntLit, FloatLit:
		return "number"
	case StringLit:
		return "string"
	case EOF:
		return "end of file"
	default:
		return "invalid token"
	}
}
