package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMagicBytes(t *testing.T) {
	// 0xC0BAC0DE little-endian
	require.Equal(t, []byte{0xDE, 0xC0, 0xBA, 0xC0}, MagicBytes())
}

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		op       Opcode
		operands []uint64
		want     []byte
	}{
		{
			name:     "PushInt encodes a little-endian u64 operand",
			op:       OP_PUSH_INT,
			operands: []uint64{42},
			want:     []byte{0x01, 42, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:     "PushInt encodes the two's-complement image of a negative value",
			op:       OP_PUSH_INT,
			operands: []uint64{uint64(^uint64(0))}, // -1 as i64
			want:     []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		},
		{
			name:     "PushBool encodes a single byte operand",
			op:       OP_PUSH_BOOL,
			operands: []uint64{1},
			want:     []byte{0x18, 1},
		},
		{
			name: "Add has no operands",
			op:   OP_ADD,
			want: []byte{0x04},
		},
		{
			name:     "Jump target is a u64 byte offset",
			op:       OP_JMP,
			operands: []uint64{0x0102},
			want:     []byte{0x0C, 0x02, 0x01, 0, 0, 0, 0, 0, 0},
		},
		{
			name:     "Store slot is a u64",
			op:       OP_STORE,
			operands: []uint64{3},
			want:     []byte{0x14, 3, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "Halt is a bare opcode",
			op:   OP_HALT,
			want: []byte{0x16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Make(tt.op, tt.operands...))
		})
	}
}

func TestMakeUnknownOpcode(t *testing.T) {
	require.Empty(t, Make(Opcode(0xFF)))
}

func TestLookup(t *testing.T) {
	def, err := Lookup(OP_JMP_IF_FALSE_PEEK)
	require.NoError(t, err)
	require.Equal(t, "OP_JMP_IF_FALSE_PEEK", def.Name)
	require.Equal(t, []int{8}, def.OperandWidths)

	_, err = Lookup(Opcode(0x7F))
	require.Error(t, err)
}

// The byte values are the container contract; they can never change without
// breaking every .bc file in existence.
func TestOpcodeByteValues(t *testing.T) {
	require.Equal(t, byte(0x01), byte(OP_PUSH_INT))
	require.Equal(t, byte(0x02), byte(OP_PUSH_STR))
	require.Equal(t, byte(0x03), byte(OP_POP))
	require.Equal(t, byte(0x04), byte(OP_ADD))
	require.Equal(t, byte(0x05), byte(OP_SUB))
	require.Equal(t, byte(0x06), byte(OP_MUL))
	require.Equal(t, byte(0x07), byte(OP_DIV))
	require.Equal(t, byte(0x08), byte(OP_EQ))
	require.Equal(t, byte(0x09), byte(OP_NEQ))
	require.Equal(t, byte(0x0A), byte(OP_LT))
	require.Equal(t, byte(0x0B), byte(OP_GT))
	require.Equal(t, byte(0x0C), byte(OP_JMP))
	require.Equal(t, byte(0x0D), byte(OP_JMP_IF_TRUE))
	require.Equal(t, byte(0x0E), byte(OP_JMP_IF_FALSE))
	require.Equal(t, byte(0x0F), byte(OP_CALL))
	require.Equal(t, byte(0x10), byte(OP_RET))
	require.Equal(t, byte(0x11), byte(OP_LOAD_LOCAL))
	require.Equal(t, byte(0x12), byte(OP_STORE_LOCAL))
	require.Equal(t, byte(0x13), byte(OP_LOAD))
	require.Equal(t, byte(0x14), byte(OP_STORE))
	require.Equal(t, byte(0x15), byte(OP_MOD))
	require.Equal(t, byte(0x16), byte(OP_HALT))
	require.Equal(t, byte(0x17), byte(OP_NEG))
	require.Equal(t, byte(0x18), byte(OP_PUSH_BOOL))
	require.Equal(t, byte(0x19), byte(OP_NOT))
	require.Equal(t, byte(0x1A), byte(OP_JMP_IF_TRUE_PEEK))
	require.Equal(t, byte(0x1B), byte(OP_JMP_IF_FALSE_PEEK))
}
