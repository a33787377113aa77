// Package opcode holds the constants shared by the compiler and the virtual
// machine: the bytecode magic number, the opcode byte values, and the operand
// width of every instruction. Both sides of the toolchain must agree on this
// table; it is the contract that binds a .bc file to the VM that runs it.
package opcode

import (
	"encoding/binary"
	"fmt"
)

// MagicNumber is the 4-byte prefix identifying a Cobalt bytecode buffer.
// It is encoded little-endian at offset 0 of every .bc file.
const MagicNumber uint32 = 0xC0BAC0DE

// MagicBytes returns the little-endian encoding of MagicNumber.
func MagicBytes() []byte {
	magic := make([]byte, 4)
	binary.LittleEndian.PutUint32(magic, MagicNumber)
	return magic
}

type Opcode byte

// The authoritative opcode byte values. Operands follow the opcode byte and
// are encoded little-endian; a u64 operand is always 8 bytes wide.
const (
	OP_PUSH_INT          Opcode = 0x01 // operand: u64 (two's-complement image of an i64)
	OP_PUSH_STR          Opcode = 0x02 // operand: u8 length + that many UTF-8 bytes
	OP_POP               Opcode = 0x03
	OP_ADD               Opcode = 0x04
	OP_SUB               Opcode = 0x05
	OP_MUL               Opcode = 0x06
	OP_DIV               Opcode = 0x07
	OP_EQ                Opcode = 0x08
	OP_NEQ               Opcode = 0x09
	OP_LT                Opcode = 0x0A
	OP_GT                Opcode = 0x0B
	OP_JMP               Opcode = 0x0C // operand: u64 byte offset
	OP_JMP_IF_TRUE       Opcode = 0x0D // operand: u64 byte offset
	OP_JMP_IF_FALSE      Opcode = 0x0E // operand: u64 byte offset
	OP_CALL              Opcode = 0x0F // operand: u64 byte offset
	OP_RET               Opcode = 0x10
	OP_LOAD_LOCAL        Opcode = 0x11 // operand: u64 slot, reserved for functions
	OP_STORE_LOCAL       Opcode = 0x12 // operand: u64 slot, reserved for functions
	OP_LOAD              Opcode = 0x13 // operand: u64 slot
	OP_STORE             Opcode = 0x14 // operand: u64 slot
	OP_MOD               Opcode = 0x15
	OP_HALT              Opcode = 0x16
	OP_NEG               Opcode = 0x17
	OP_PUSH_BOOL         Opcode = 0x18 // operand: u8 (0 = false, non-zero = true)
	OP_NOT               Opcode = 0x19
	OP_JMP_IF_TRUE_PEEK  Opcode = 0x1A // operand: u64 byte offset
	OP_JMP_IF_FALSE_PEEK Opcode = 0x1B // operand: u64 byte offset
)

// Represents a definition of an opcode.
// Fields:
//   - Name: The human-readable name for the opcode e.g "OP_PUSH_INT"
//   - OperandWidths: The number of bytes each operand takes up.
//
// OP_PUSH_STR is the only variable-width instruction: its single listed
// operand is the one-byte length, which is followed by that many string
// bytes. Callers walking the instruction stream must special-case it.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OP_PUSH_INT:          {Name: "OP_PUSH_INT", OperandWidths: []int{8}},
	OP_PUSH_STR:          {Name: "OP_PUSH_STR", OperandWidths: []int{1}},
	OP_PUSH_BOOL:         {Name: "OP_PUSH_BOOL", OperandWidths: []int{1}},
	OP_POP:               {Name: "OP_POP", OperandWidths: []int{}},
	OP_ADD:               {Name: "OP_ADD", OperandWidths: []int{}},
	OP_SUB:               {Name: "OP_SUB", OperandWidths: []int{}},
	OP_MUL:               {Name: "OP_MUL", OperandWidths: []int{}},
	OP_DIV:               {Name: "OP_DIV", OperandWidths: []int{}},
	OP_MOD:               {Name: "OP_MOD", OperandWidths: []int{}},
	OP_NEG:               {Name: "OP_NEG", OperandWidths: []int{}},
	OP_NOT:               {Name: "OP_NOT", OperandWidths: []int{}},
	OP_EQ:                {Name: "OP_EQ", OperandWidths: []int{}},
	OP_NEQ:               {Name: "OP_NEQ", OperandWidths: []int{}},
	OP_LT:                {Name: "OP_LT", OperandWidths: []int{}},
	OP_GT:                {Name: "OP_GT", OperandWidths: []int{}},
	OP_JMP:               {Name: "OP_JMP", OperandWidths: []int{8}},
	OP_JMP_IF_TRUE:       {Name: "OP_JMP_IF_TRUE", OperandWidths: []int{8}},
	OP_JMP_IF_FALSE:      {Name: "OP_JMP_IF_FALSE", OperandWidths: []int{8}},
	OP_JMP_IF_TRUE_PEEK:  {Name: "OP_JMP_IF_TRUE_PEEK", OperandWidths: []int{8}},
	OP_JMP_IF_FALSE_PEEK: {Name: "OP_JMP_IF_FALSE_PEEK", OperandWidths: []int{8}},
	OP_CALL:              {Name: "OP_CALL", OperandWidths: []int{8}},
	OP_RET:               {Name: "OP_RET", OperandWidths: []int{}},
	OP_LOAD_LOCAL:        {Name: "OP_LOAD_LOCAL", OperandWidths: []int{8}},
	OP_STORE_LOCAL:       {Name: "OP_STORE_LOCAL", OperandWidths: []int{8}},
	OP_LOAD:              {Name: "OP_LOAD", OperandWidths: []int{8}},
	OP_STORE:             {Name: "OP_STORE", OperandWidths: []int{8}},
	OP_HALT:              {Name: "OP_HALT", OperandWidths: []int{}},
}

// Lookup returns the definition of the given opcode, or an error if the byte
// is not a known opcode.
func Lookup(op Opcode) (*Definition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode 0x%02x undefined", byte(op))
	}
	return def, nil
}

// Make constructs a bytecode instruction from an opcode and its operands.
// Operands are encoded in little-endian order according to the widths in the
// opcode's definition: an 8-byte width encodes a full u64, a 1-byte width
// encodes the low byte of the operand.
//
// Example:
//
//	instr := Make(OP_PUSH_INT, 42)
//	// instr now contains: [0x01, 0x2A, 0, 0, 0, 0, 0, 0, 0]
//
// Make returns an empty slice for an unknown opcode; the compiler treats that
// as a developer error.
func Make(op Opcode, operands ...uint64) []byte {
	def, err := Lookup(op)
	if err != nil {
		return []byte{}
	}

	instructionLength := 1 // starts at one for the opcode
	for _, width := range def.OperandWidths {
		instructionLength += width
	}

	instruction := make([]byte, instructionLength)

	// The first byte of the instruction is always the opcode
	instruction[0] = byte(op)

	byteOffset := 1
	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 8:
			binary.LittleEndian.PutUint64(instruction[byteOffset:], operand)
		case 1:
			instruction[byteOffset] = byte(operand)
		}
		byteOffset += width
	}
	return instruction
}
