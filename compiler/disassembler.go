package compiler

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/cobalt-lang/cobalt/opcode"
)

// Disassemble renders a bytecode container as a human readable listing, one
// instruction per line with its byte offset:
//
//	0004 OP_PUSH_INT 974
//	0013 OP_PUSH_INT 26
//	0022 OP_ADD
//	0023 OP_STORE 0
//	0032 OP_HALT
//
// The buffer must start with the magic number. An unknown opcode or a
// truncated operand aborts the walk with an error.
func Disassemble(bytecode []byte) (string, error) {
	if len(bytecode) < 4 || binary.LittleEndian.Uint32(bytecode[0:4]) != opcode.MagicNumber {
		return "", fmt.Errorf("not a Cobalt bytecode buffer: bad magic number")
	}

	var builder strings.Builder
	ip := 4

	for ip < len(bytecode) {
		op := opcode.Opcode(bytecode[ip])
		def, err := opcode.Lookup(op)
		if err != nil {
			return "", fmt.Errorf("offset %d: %w", ip, err)
		}

		builder.WriteString(fmt.Sprintf("%04d %s", ip, def.Name))
		ip++

		if op == opcode.OP_PUSH_STR {
			// variable width: one length byte followed by the string bytes
			if ip >= len(bytecode) {
				return "", fmt.Errorf("offset %d: truncated %s operand", ip, def.Name)
			}
			length := int(bytecode[ip])
			ip++
			if ip+length > len(bytecode) {
				return "", fmt.Errorf("offset %d: truncated %s payload", ip, def.Name)
			}
			builder.WriteString(fmt.Sprintf(" %q", string(bytecode[ip:ip+length])))
			ip += length
		} else {
			for _, width := range def.OperandWidths {
				if ip+width > len(bytecode) {
					return "", fmt.Errorf("offset %d: truncated %s operand", ip, def.Name)
				}
				switch width {
				case 8:
					operand := binary.LittleEndian.Uint64(bytecode[ip : ip+8])
					if op == opcode.OP_PUSH_INT {
						// show the value the VM will see
						builder.WriteString(fmt.Sprintf(" %d", int64(operand)))
					} else {
						builder.WriteString(fmt.Sprintf(" %d", operand))
					}
				case 1:
					builder.WriteString(fmt.Sprintf(" %d", bytecode[ip]))
				}
				ip += width
			}
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// WriteDisassembly disassembles the bytecode and writes the listing to
// filePath with a `.dbc` extension appended.
func WriteDisassembly(bytecode []byte, filePath string) error {
	listing, err := Disassemble(bytecode)
	if err != nil {
		return err
	}
	if filePath == "" {
		filePath = "bytecode"
	}
	if err := os.WriteFile(filePath+".dbc", []byte(listing), 0o644); err != nil {
		return fmt.Errorf("error writing disassembly file: %w", err)
	}
	return nil
}
