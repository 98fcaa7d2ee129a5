package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004

	// Syntax
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynExpectSemicolon    Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectExpression   Code = 2004
	SynUnclosedParen      Code = 2005
	SynUnclosedBrace      Code = 2006
	SynExpectBlock        Code = 2007
	SynFnNoParams         Code = 2008
	SynParamMissingType   Code = 2009
	SynUnexpectedTopLevel Code = 2010

	// Type checking
	SemaInfo              Code = 3000
	SemaUnknownType       Code = 3001
	SemaDuplicateSymbol   Code = 3002
	SemaUndefinedVariable Code = 3003
	SemaUndefinedFunction Code = 3004
	SemaArgCount          Code = 3005
	SemaArgType           Code = 3006
	SemaAssignType        Code = 3007
	SemaConditionType     Code = 3008
	SemaAssertMessageType Code = 3009
	SemaInvalidOperand    Code = 3010
	SemaReturnType        Code = 3011
	SemaDuplicateParam    Code = 3012
	SemaVoidValue         Code = 3013

	// Runtime
	RunInfo              Code = 4000
	RunAssertionFailure  Code = 4001
	RunArithmeticError   Code = 4002
	RunUndefinedVariable Code = 4003
	RunUndefinedFunction Code = 4004
	RunTypeMismatch      Code = 4005
	RunStackOverflow     Code = 4006
	RunCancelled         Code = 4007
	RunSnapshotFailed    Code = 4008
	RunLiveAbandoned     Code = 4010
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number literal",
	SynInfo:                     "Syntax information",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectSemicolon:          "Expected ';'",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectExpression:         "Expected expression",
	SynUnclosedParen:            "Unclosed parenthesis",
	SynUnclosedBrace:            "Unclosed brace",
	SynExpectBlock:              "Expected block",
	SynFnNoParams:               "Function declared without parameters",
	SynParamMissingType:         "Parameter without type",
	SynUnexpectedTopLevel:       "Unexpected top-level token",
	SemaInfo:                    "Type information",
	SemaUnknownType:             "Unknown type",
	SemaDuplicateSymbol:         "Duplicate symbol",
	SemaUndefinedVariable:       "Undefined variable",
	SemaUndefinedFunction:       "Undefined function",
	SemaArgCount:                "Wrong number of arguments",
	SemaArgType:                 "Argument type mismatch",
	SemaAssignType:              "Assignment type mismatch",
	SemaConditionType:           "Condition is not bool",
	SemaAssertMessageType:       "Assert message is not string",
	SemaInvalidOperand:          "Invalid operand types",
	SemaReturnType:              "Conflicting return types",
	SemaDuplicateParam:          "Duplicate parameter",
	SemaVoidValue:               "Void value used as expression",
	RunInfo:                     "Runtime information",
	RunAssertionFailure:         "Assertion failed",
	RunArithmeticError:          "Arithmetic error",
	RunUndefinedVariable:        "Undefined variable",
	RunUndefinedFunction:        "Undefined function",
	RunTypeMismatch:             "Type mismatch",
	RunStackOverflow:            "Call depth exceeded",
	RunCancelled:                "Evaluation cancelled",
	RunSnapshotFailed:           "Live snapshot failed",
	RunLiveAbandoned:            "Live block abandoned",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("RUN%04d", ic)
	}
	return "E0000"
}

// Phase derives the pipeline phase from the code range.
func (c Code) Phase() Phase {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return PhaseLex
	case ic >= 2000 && ic < 3000:
		return PhaseParse
	case ic >= 3000 && ic < 4000:
		return PhaseTypeCheck
	case ic >= 4000 && ic < 5000:
		return PhaseRuntime
	}
	return PhaseUnknown
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
