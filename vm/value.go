package vm

import (
	"fmt"
	"strconv"
)

// Value is the runtime representation of a Cobalt value. The taxonomy is a
// closed set of tagged variants: Int, Bool and Str. Values are copied on
// push and pop; nothing on the stack or in the variable table is shared.
//
// Str values are fully supported by the VM even though the current compiler
// never emits OP_PUSH_STR; the variant is reserved for the surface language.
type Value interface {
	// TypeName returns the name used in type-mismatch diagnostics.
	TypeName() string
	fmt.Stringer
}

type Int int64

func (Int) TypeName() string { return "int" }

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

type Bool bool

func (Bool) TypeName() string { return "bool" }

func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

type Str string

func (Str) TypeName() string { return "str" }

func (v Str) String() string { return strconv.Quote(string(v)) }
