package lexer

import "fmt"

// LexError describes a character the scanner could not turn into a token,
// along with the position where it was found.
type LexError struct {
	Line    int32
	Column  int
	Message string
}

func CreateLexError(line int32, column int, message string) LexError {
	return LexError{
		Line:    line,
		Column:  column,
		Message: message,
	}
}

func (e LexError) Error() string {
	return fmt.Sprintf("💥 Cobalt lex error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}
