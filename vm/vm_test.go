package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cobalt-lang/cobalt/opcode"
)

// bytecode builds a runnable container from instruction fragments.
func bytecode(instructions ...[]byte) []byte {
	out := opcode.MagicBytes()
	for _, instruction := range instructions {
		out = append(out, instruction...)
	}
	return append(out, byte(opcode.OP_HALT))
}

func run(t *testing.T, code []byte) *VM {
	t.Helper()
	machine := New(false)
	require.NoError(t, machine.Run(context.Background(), code))
	return machine
}

func runExpectError(t *testing.T, code []byte, contains string) {
	t.Helper()
	machine := New(false)
	err := machine.Run(context.Background(), code)
	require.Error(t, err)
	require.IsType(t, RuntimeError{}, err)
	require.ErrorContains(t, err, contains)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want Value
	}{
		{
			name: "Addition",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 974),
				opcode.Make(opcode.OP_PUSH_INT, 26),
				opcode.Make(opcode.OP_ADD),
			),
			want: Int(1000),
		},
		{
			name: "Subtraction",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 10),
				opcode.Make(opcode.OP_PUSH_INT, 4),
				opcode.Make(opcode.OP_SUB),
			),
			want: Int(6),
		},
		{
			name: "Multiplication",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 6),
				opcode.Make(opcode.OP_PUSH_INT, 7),
				opcode.Make(opcode.OP_MUL),
			),
			want: Int(42),
		},
		{
			name: "Division truncates",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 7),
				opcode.Make(opcode.OP_PUSH_INT, 2),
				opcode.Make(opcode.OP_DIV),
			),
			want: Int(3),
		},
		{
			name: "Modulus",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 10),
				opcode.Make(opcode.OP_PUSH_INT, 3),
				opcode.Make(opcode.OP_MOD),
			),
			want: Int(1),
		},
		{
			name: "Negation",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 5),
				opcode.Make(opcode.OP_NEG),
			),
			want: Int(-5),
		},
		{
			name: "Negative operand round trips through its u64 image",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, uint64(^uint64(0))), // -1
				opcode.Make(opcode.OP_PUSH_INT, 5),
				opcode.Make(opcode.OP_ADD),
			),
			want: Int(4),
		},
		{
			name: "Addition wraps on overflow",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, uint64(int64(9223372036854775807))),
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_ADD),
			),
			want: Int(-9223372036854775808),
		},
		{
			name: "Logical not",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_BOOL, 1),
				opcode.Make(opcode.OP_NOT),
			),
			want: Bool(false),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := run(t, tt.code)
			top, ok := machine.Top()
			require.True(t, ok)
			require.Equal(t, tt.want, top)
			require.Len(t, machine.stack, 1)
		})
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want Bool
	}{
		{
			name: "Equal ints",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1000),
				opcode.Make(opcode.OP_PUSH_INT, 1000),
				opcode.Make(opcode.OP_EQ),
			),
			want: Bool(true),
		},
		{
			name: "Not equal bools",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_BOOL, 1),
				opcode.Make(opcode.OP_PUSH_BOOL, 0),
				opcode.Make(opcode.OP_NEQ),
			),
			want: Bool(true),
		},
		{
			name: "Less than",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_PUSH_INT, 2),
				opcode.Make(opcode.OP_LT),
			),
			want: Bool(true),
		},
		{
			name: "Greater than",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_PUSH_INT, 2),
				opcode.Make(opcode.OP_GT),
			),
			want: Bool(false),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := run(t, tt.code)
			top, ok := machine.Top()
			require.True(t, ok)
			require.Equal(t, tt.want, top)
		})
	}
}

func TestStrings(t *testing.T) {
	pushStr := func(s string) []byte {
		out := []byte{byte(opcode.OP_PUSH_STR), byte(len(s))}
		return append(out, s...)
	}

	machine := run(t, bytecode(
		pushStr("foo"),
		pushStr("bar"),
		opcode.Make(opcode.OP_ADD),
	))
	top, ok := machine.Top()
	require.True(t, ok)
	require.Equal(t, Str("foobar"), top)

	machine = run(t, bytecode(
		pushStr("foo"),
		pushStr("foo"),
		opcode.Make(opcode.OP_EQ),
	))
	top, ok = machine.Top()
	require.True(t, ok)
	require.Equal(t, Bool(true), top)

	// ordering is undefined for strings
	runExpectError(t, bytecode(
		pushStr("a"),
		pushStr("b"),
		opcode.Make(opcode.OP_LT),
	), "unsupported types")
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     []byte
		contains string
	}{
		{
			name: "Division by zero",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 10),
				opcode.Make(opcode.OP_PUSH_INT, 0),
				opcode.Make(opcode.OP_DIV),
			),
			contains: "division by zero",
		},
		{
			name: "Modulus by zero",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 10),
				opcode.Make(opcode.OP_PUSH_INT, 0),
				opcode.Make(opcode.OP_MOD),
			),
			contains: "modulus by zero",
		},
		{
			name: "Mixed types on subtraction",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_PUSH_BOOL, 1),
				opcode.Make(opcode.OP_SUB),
			),
			contains: "unsupported types",
		},
		{
			name: "Mixed types on addition",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_PUSH_BOOL, 1),
				opcode.Make(opcode.OP_ADD),
			),
			contains: "mismatched types",
		},
		{
			name: "Mixed tags on equality",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_PUSH_BOOL, 1),
				opcode.Make(opcode.OP_EQ),
			),
			contains: "unsupported types",
		},
		{
			name: "Ordering bools",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_BOOL, 0),
				opcode.Make(opcode.OP_PUSH_BOOL, 1),
				opcode.Make(opcode.OP_LT),
			),
			contains: "unsupported types",
		},
		{
			name: "Negating a bool",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_BOOL, 1),
				opcode.Make(opcode.OP_NEG),
			),
			contains: "only numbers",
		},
		{
			name: "Not on an int",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_NOT),
			),
			contains: "not a boolean",
		},
		{
			name: "Stack underflow on pop",
			code: bytecode(
				opcode.Make(opcode.OP_POP),
			),
			contains: "stack underflow",
		},
		{
			name: "Stack underflow on binary op",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_ADD),
			),
			contains: "stack underflow",
		},
		{
			name: "Store with empty stack",
			code: bytecode(
				opcode.Make(opcode.OP_STORE, 0),
			),
			contains: "stack underflow",
		},
		{
			name: "Load of a missing slot",
			code: bytecode(
				opcode.Make(opcode.OP_LOAD, 9),
			),
			contains: "does not exist",
		},
		{
			name: "Ret with an empty call stack",
			code: bytecode(
				opcode.Make(opcode.OP_RET),
			),
			contains: "call stack underflow",
		},
		{
			name: "Non-bool condition on a conditional jump",
			code: bytecode(
				opcode.Make(opcode.OP_PUSH_INT, 1),
				opcode.Make(opcode.OP_JMP_IF_TRUE, 0),
			),
			contains: "expected a boolean condition",
		},
		{
			name:     "Unknown opcode",
			code:     append(opcode.MagicBytes(), 0xEE),
			contains: "expected opcode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runExpectError(t, tt.code, tt.contains)
		})
	}
}

func TestInvalidBytecode(t *testing.T) {
	runExpectError(t, []byte{}, "not a valid bytecode file")
	runExpectError(t, []byte{0xDE, 0xC0}, "not a valid bytecode file")
	runExpectError(t, []byte{0x00, 0x01, 0x02, 0x03, byte(opcode.OP_HALT)}, "not a valid bytecode file")
}

func TestTruncatedOperandFetch(t *testing.T) {
	code := append(opcode.MagicBytes(), byte(opcode.OP_PUSH_INT), 0x01, 0x02)
	runExpectError(t, code, "out of bounds")
}

func TestMissingHaltRunsOffTheEnd(t *testing.T) {
	code := append(opcode.MagicBytes(), opcode.Make(opcode.OP_PUSH_INT, 1)...)
	runExpectError(t, code, "out of bounds")
}

func TestStoreAndLoad(t *testing.T) {
	machine := run(t, bytecode(
		opcode.Make(opcode.OP_PUSH_INT, 1000),
		opcode.Make(opcode.OP_STORE, 0),
		opcode.Make(opcode.OP_LOAD, 0),
		opcode.Make(opcode.OP_LOAD, 0),
		opcode.Make(opcode.OP_ADD),
	))
	top, ok := machine.Top()
	require.True(t, ok)
	require.Equal(t, Int(2000), top)

	stored, ok := machine.Global(0)
	require.True(t, ok)
	require.Equal(t, Int(1000), stored)
}

func TestLocalsStoreAndLoad(t *testing.T) {
	machine := run(t, bytecode(
		opcode.Make(opcode.OP_PUSH_INT, 7),
		opcode.Make(opcode.OP_STORE_LOCAL, 0),
		opcode.Make(opcode.OP_LOAD_LOCAL, 0),
	))
	top, ok := machine.Top()
	require.True(t, ok)
	require.Equal(t, Int(7), top)

	runExpectError(t, bytecode(
		opcode.Make(opcode.OP_LOAD_LOCAL, 3),
	), "does not exist")
}

func TestJumps(t *testing.T) {
	// jump over a push: the skipped value never reaches the stack
	code := opcode.MagicBytes()
	jmp := len(code)
	code = append(code, opcode.Make(opcode.OP_JMP, 0)...)
	code = append(code, opcode.Make(opcode.OP_PUSH_INT, 111)...)
	target := len(code)
	code = append(code, opcode.Make(opcode.OP_PUSH_INT, 222)...)
	code = append(code, byte(opcode.OP_HALT))
	patchU64(code, jmp+1, uint64(target))

	machine := run(t, code)
	require.Len(t, machine.stack, 1)
	require.Equal(t, Int(222), machine.stack[0])
}

func TestConditionalJumpPopsItsCondition(t *testing.T) {
	// false does not take OP_JMP_IF_TRUE but is popped either way
	code := bytecode(
		opcode.Make(opcode.OP_PUSH_BOOL, 0),
		opcode.Make(opcode.OP_JMP_IF_TRUE, 99),
	)
	machine := run(t, code)
	require.Empty(t, machine.stack)
}

func TestPeekJumpKeepsItsCondition(t *testing.T) {
	// a taken peek jump leaves the condition on the stack
	code := opcode.MagicBytes()
	code = append(code, opcode.Make(opcode.OP_PUSH_BOOL, 1)...)
	jmp := len(code)
	code = append(code, opcode.Make(opcode.OP_JMP_IF_TRUE_PEEK, 0)...)
	code = append(code, opcode.Make(opcode.OP_PUSH_INT, 111)...)
	target := len(code)
	code = append(code, byte(opcode.OP_HALT))
	patchU64(code, jmp+1, uint64(target))

	machine := run(t, code)
	require.Len(t, machine.stack, 1)
	require.Equal(t, Bool(true), machine.stack[0])
}

func TestCallAndRet(t *testing.T) {
	// CALL pushes the return address, RET pops it back
	code := opcode.MagicBytes()
	call := len(code)
	code = append(code, opcode.Make(opcode.OP_CALL, 0)...)
	code = append(code, opcode.Make(opcode.OP_PUSH_INT, 2)...)
	code = append(code, byte(opcode.OP_HALT))
	target := len(code)
	code = append(code, opcode.Make(opcode.OP_PUSH_INT, 1)...)
	code = append(code, byte(opcode.OP_RET))
	patchU64(code, call+1, uint64(target))

	machine := run(t, code)
	require.Equal(t, Stack{Int(1), Int(2)}, machine.stack)
	require.Empty(t, machine.callStack)
}

func TestRunIsIdempotent(t *testing.T) {
	code := bytecode(
		opcode.Make(opcode.OP_PUSH_INT, 974),
		opcode.Make(opcode.OP_PUSH_INT, 26),
		opcode.Make(opcode.OP_ADD),
		opcode.Make(opcode.OP_STORE, 0),
		opcode.Make(opcode.OP_LOAD, 0),
	)

	first := run(t, code)
	second := run(t, code)
	require.Equal(t, first.stack, second.stack)
	firstStored, _ := first.Global(0)
	secondStored, _ := second.Global(0)
	require.Equal(t, firstStored, secondStored)
}

func TestCancelledContextStopsExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	machine := New(false)
	err := machine.Run(ctx, bytecode(opcode.Make(opcode.OP_PUSH_INT, 1)))
	require.ErrorIs(t, err, context.Canceled)
}

func patchU64(code []byte, pos int, value uint64) {
	for i := 0; i < 8; i++ {
		code[pos+i] = byte(value >> (8 * i))
	}
}
