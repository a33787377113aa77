package compiler

import "fmt"

// SemanticError reports a program that is well-formed syntactically but
// invalid to compile: undefined names, duplicate declarations, assignments
// to constants, or operands the container format cannot encode.
type SemanticError struct {
	Line    int32
	Column  int
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %s (line:%d, column:%d)", e.Message, e.Line, e.Column)
}

// DeveloperError reports a bug in the compiler itself, such as emitting an
// unknown opcode. It should never surface from a released build.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}
