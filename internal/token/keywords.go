package token

var keywords = map[string]Kind{
	"fn":     KwFn,
	"let":    KwLet,
	"static": KwStatic,
	"live":   KwLive,
	"assert": KwAssert,
	"if":     KwIf,
	"else":   KwElse,
	"return": KwReturn,
	"true":   KwTrue,
	"false":  KwFalse,
	"while":  KwWhile,
}

// LookupKeyword reports whether ident is a keyword. Keywords are case-sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
