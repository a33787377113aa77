// Package vm implements the stack-based virtual machine that executes Cobalt
// bytecode. It is the runtime environment of the toolchain: a fetch-decode-
// execute loop over a value stack, a return-address stack and a variable
// table keyed by the slot IDs the compiler assigned.
package vm

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"

	"github.com/cobalt-lang/cobalt/opcode"
)

type cmpOp byte

const (
	cmpEq cmpOp = iota
	cmpNeq
	cmpLt
	cmpGt
)

// VM represents a stack based virtual machine. One VM instance runs one
// bytecode buffer; execution is strictly single-threaded and synchronous.
type VM struct {
	bytecode  []byte
	ip        int
	stack     Stack
	callStack []int
	globals   *swiss.Map[uint64, Value]
	locals    *swiss.Map[uint64, Value]
	debug     bool
}

// New creates a new VM instance. When debug is true the VM prints the final
// stack and variable table when it halts.
func New(debug bool) *VM {
	return &VM{
		globals: swiss.NewMap[uint64, Value](16),
		locals:  swiss.NewMap[uint64, Value](16),
		debug:   debug,
	}
}

// Top returns the value currently on top of the stack, if any.
func (vm *VM) Top() (Value, bool) {
	return vm.stack.Peek()
}

// Global returns the value stored in the given variable slot, if any.
func (vm *VM) Global(slot uint64) (Value, bool) {
	return vm.globals.Get(slot)
}

func (vm *VM) runtimeError(format string, args ...any) error {
	return RuntimeError{
		Message: fmt.Sprintf(format, args...),
		IP:      vm.ip,
	}
}

// fetchByte reads one byte at the instruction pointer and advances it.
func (vm *VM) fetchByte() (byte, error) {
	if vm.ip >= len(vm.bytecode) {
		return 0, vm.runtimeError("out of bounds access attempted, the VM was looking for a byte but found nothing")
	}
	b := vm.bytecode[vm.ip]
	vm.ip++
	return b, nil
}

// fetchU64 reads eight little-endian bytes at the instruction pointer and
// advances it.
func (vm *VM) fetchU64() (uint64, error) {
	if vm.ip+8 > len(vm.bytecode) {
		return 0, vm.runtimeError("out of bounds access attempted, the VM was looking for a value but found not enough bytes")
	}
	value := binary.LittleEndian.Uint64(vm.bytecode[vm.ip : vm.ip+8])
	vm.ip += 8
	return value, nil
}

// popTwo pops two values from the stack and returns them as left and right,
// meant for binary operations.
func (vm *VM) popTwo() (Value, Value, error) {
	right, ok := vm.stack.Pop()
	if !ok {
		return nil, nil, vm.runtimeError(errStackUnderflow)
	}
	left, ok := vm.stack.Pop()
	if !ok {
		return nil, nil, vm.runtimeError(errStackUnderflow)
	}
	return left, right, nil
}

// binaryIntOp pops two values, requires both to be Int, and pushes the
// result of op. checkZero guards division and modulus against a zero
// right-hand side.
func (vm *VM) binaryIntOp(op func(a, b int64) int64, opName string, checkZero bool) error {
	left, right, err := vm.popTwo()
	if err != nil {
		return err
	}

	l, lok := left.(Int)
	r, rok := right.(Int)
	if !lok || !rok {
		return vm.runtimeError("mismatched or unsupported types on %s operation of type '%s' and '%s'",
			opName, left.TypeName(), right.TypeName())
	}
	if checkZero && r == 0 {
		return vm.runtimeError("cannot perform %s by zero", opName)
	}

	vm.stack.Push(Int(op(int64(l), int64(r))))
	return nil
}

// binaryCmpOp pops two values and pushes the Bool result of comparing them.
// Equality is defined for two operands of the same tag; ordering is defined
// for ints only.
func (vm *VM) binaryCmpOp(op cmpOp, opName string) error {
	left, right, err := vm.popTwo()
	if err != nil {
		return err
	}

	mismatch := func() error {
		return vm.runtimeError("mismatched or unsupported types on %s operation of type '%s' and '%s'",
			opName, left.TypeName(), right.TypeName())
	}

	switch l := left.(type) {
	case Int:
		r, ok := right.(Int)
		if !ok {
			return mismatch()
		}
		switch op {
		case cmpEq:
			vm.stack.Push(Bool(l == r))
		case cmpNeq:
			vm.stack.Push(Bool(l != r))
		case cmpLt:
			vm.stack.Push(Bool(l < r))
		case cmpGt:
			vm.stack.Push(Bool(l > r))
		}
	case Bool:
		r, ok := right.(Bool)
		if !ok || (op != cmpEq && op != cmpNeq) {
			return mismatch()
		}
		if op == cmpEq {
			vm.stack.Push(Bool(l == r))
		} else {
			vm.stack.Push(Bool(l != r))
		}
	case Str:
		r, ok := right.(Str)
		if !ok || (op != cmpEq && op != cmpNeq) {
			return mismatch()
		}
		if op == cmpEq {
			vm.stack.Push(Bool(l == r))
		} else {
			vm.stack.Push(Bool(l != r))
		}
	default:
		return mismatch()
	}
	return nil
}

// conditionalJump implements the four conditional jump opcodes. The operand
// has already been fetched; sense selects which Bool takes the jump and peek
// selects whether the condition is read without popping. A non-Bool
// condition is a runtime error.
func (vm *VM) conditionalJump(target uint64, sense bool, peek bool, opName string) error {
	var condition Value
	var ok bool
	if peek {
		condition, ok = vm.stack.Peek()
	} else {
		condition, ok = vm.stack.Pop()
	}
	if !ok {
		return vm.runtimeError(errStackUnderflow)
	}

	b, isBool := condition.(Bool)
	if !isBool {
		return vm.runtimeError("%s expected a boolean condition, but got type '%s'", opName, condition.TypeName())
	}
	if bool(b) == sense {
		vm.ip = int(target)
	}
	return nil
}

// validateBytecode checks that the buffer is long enough to carry the magic
// number and that the magic number matches, then positions the instruction
// pointer at the first instruction.
func (vm *VM) validateBytecode() bool {
	if len(vm.bytecode) < 4 {
		return false
	}
	if binary.LittleEndian.Uint32(vm.bytecode[0:4]) != opcode.MagicNumber {
		return false
	}
	vm.ip = 4
	return true
}

// Run executes the provided bytecode on the virtual machine.
//
// It validates the magic-number prefix, then fetches and decodes each
// instruction starting at byte 4, processing the instruction based on its
// opcode and modifying the VM's state accordingly (e.g. pushing values onto
// the stack).
//
// Execution terminates normally when an OP_HALT opcode is encountered, or
// returns a RuntimeError on any fault. The context is polled between
// fetch-decode-execute iterations; cancelling it is the only supported way
// to interrupt a running program.
func (vm *VM) Run(ctx context.Context, bytecode []byte) error {
	vm.bytecode = bytecode
	vm.ip = 0

	if !vm.validateBytecode() {
		// the fault is in the file prefix, not at any instruction
		vm.ip = 4
		return vm.runtimeError("not a valid bytecode file")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fetched, err := vm.fetchByte()
		if err != nil {
			return err
		}

		switch op := opcode.Opcode(fetched); op {
		case opcode.OP_PUSH_INT:
			operand, err := vm.fetchU64()
			if err != nil {
				return err
			}
			vm.stack.Push(Int(int64(operand)))

		case opcode.OP_PUSH_BOOL:
			operand, err := vm.fetchByte()
			if err != nil {
				return err
			}
			vm.stack.Push(Bool(operand != 0))

		case opcode.OP_PUSH_STR:
			length, err := vm.fetchByte()
			if err != nil {
				return err
			}
			if vm.ip+int(length) > len(vm.bytecode) {
				return vm.runtimeError("out of bounds access attempted, truncated string payload")
			}
			vm.stack.Push(Str(vm.bytecode[vm.ip : vm.ip+int(length)]))
			vm.ip += int(length)

		case opcode.OP_POP:
			if _, ok := vm.stack.Pop(); !ok {
				return vm.runtimeError(errStackUnderflow)
			}

		case opcode.OP_ADD:
			left, right, err := vm.popTwo()
			if err != nil {
				return err
			}
			switch l := left.(type) {
			case Int:
				r, ok := right.(Int)
				if !ok {
					return vm.runtimeError("mismatched types on an addition operation")
				}
				vm.stack.Push(l + r)
			case Str:
				r, ok := right.(Str)
				if !ok {
					return vm.runtimeError("mismatched types on an addition operation")
				}
				vm.stack.Push(l + r)
			default:
				return vm.runtimeError("mismatched types on an addition operation")
			}

		case opcode.OP_SUB:
			if err := vm.binaryIntOp(func(a, b int64) int64 { return a - b }, "subtraction", false); err != nil {
				return err
			}
		case opcode.OP_MUL:
			if err := vm.binaryIntOp(func(a, b int64) int64 { return a * b }, "multiplication", false); err != nil {
				return err
			}
		case opcode.OP_DIV:
			if err := vm.binaryIntOp(func(a, b int64) int64 { return a / b }, "division", true); err != nil {
				return err
			}
		case opcode.OP_MOD:
			if err := vm.binaryIntOp(func(a, b int64) int64 { return a % b }, "modulus", true); err != nil {
				return err
			}

		case opcode.OP_NEG:
			value, ok := vm.stack.Pop()
			if !ok {
				return vm.runtimeError(errStackUnderflow)
			}
			v, isInt := value.(Int)
			if !isInt {
				return vm.runtimeError("unsupported type for NEG operation, only numbers can be negated")
			}
			vm.stack.Push(-v)

		case opcode.OP_NOT:
			value, ok := vm.stack.Pop()
			if !ok {
				return vm.runtimeError(errStackUnderflow)
			}
			v, isBool := value.(Bool)
			if !isBool {
				return vm.runtimeError("cannot apply NOT operation on a value that is not a boolean")
			}
			vm.stack.Push(!v)

		case opcode.OP_EQ:
			if err := vm.binaryCmpOp(cmpEq, "=="); err != nil {
				return err
			}
		case opcode.OP_NEQ:
			if err := vm.binaryCmpOp(cmpNeq, "!="); err != nil {
				return err
			}
		case opcode.OP_LT:
			if err := vm.binaryCmpOp(cmpLt, "<"); err != nil {
				return err
			}
		case opcode.OP_GT:
			if err := vm.binaryCmpOp(cmpGt, ">"); err != nil {
				return err
			}

		case opcode.OP_JMP:
			target, err := vm.fetchU64()
			if err != nil {
				return err
			}
			vm.ip = int(target)

		case opcode.OP_JMP_IF_TRUE:
			target, err := vm.fetchU64()
			if err != nil {
				return err
			}
			if err := vm.conditionalJump(target, true, false, "JMP_IF_TRUE"); err != nil {
				return err
			}
		case opcode.OP_JMP_IF_FALSE:
			target, err := vm.fetchU64()
			if err != nil {
				return err
			}
			if err := vm.conditionalJump(target, false, false, "JMP_IF_FALSE"); err != nil {
				return err
			}
		case opcode.OP_JMP_IF_TRUE_PEEK:
			target, err := vm.fetchU64()
			if err != nil {
				return err
			}
			if err := vm.conditionalJump(target, true, true, "JMP_IF_TRUE_PEEK"); err != nil {
				return err
			}
		case opcode.OP_JMP_IF_FALSE_PEEK:
			target, err := vm.fetchU64()
			if err != nil {
				return err
			}
			if err := vm.conditionalJump(target, false, true, "JMP_IF_FALSE_PEEK"); err != nil {
				return err
			}

		case opcode.OP_CALL:
			target, err := vm.fetchU64()
			if err != nil {
				return err
			}
			vm.callStack = append(vm.callStack, vm.ip)
			vm.ip = int(target)

		case opcode.OP_RET:
			if len(vm.callStack) == 0 {
				return vm.runtimeError("call stack underflow, RET operation failed")
			}
			vm.ip = vm.callStack[len(vm.callStack)-1]
			vm.callStack = vm.callStack[:len(vm.callStack)-1]

		case opcode.OP_LOAD:
			slot, err := vm.fetchU64()
			if err != nil {
				return err
			}
			value, ok := vm.globals.Get(slot)
			if !ok {
				return vm.runtimeError("tried to load variable at slot %d that does not exist", slot)
			}
			vm.stack.Push(value)

		case opcode.OP_STORE:
			slot, err := vm.fetchU64()
			if err != nil {
				return err
			}
			value, ok := vm.stack.Pop()
			if !ok {
				return vm.runtimeError(errStackUnderflow)
			}
			vm.globals.Put(slot, value)

		case opcode.OP_LOAD_LOCAL:
			slot, err := vm.fetchU64()
			if err != nil {
				return err
			}
			value, ok := vm.locals.Get(slot)
			if !ok {
				return vm.runtimeError("tried to load local at slot %d that does not exist", slot)
			}
			vm.stack.Push(value)

		case opcode.OP_STORE_LOCAL:
			slot, err := vm.fetchU64()
			if err != nil {
				return err
			}
			value, ok := vm.stack.Pop()
			if !ok {
				return vm.runtimeError(errStackUnderflow)
			}
			vm.locals.Put(slot, value)

		case opcode.OP_HALT:
			if vm.debug {
				vm.dumpState()
			}
			return nil

		default:
			return vm.runtimeError("expected opcode, received 0x%02x", fetched)
		}
	}
}

// dumpState prints the final value stack and variable table. Slots are
// printed in ascending order so repeated runs of the same program produce
// identical output.
func (vm *VM) dumpState() {
	fmt.Println("DEBUG: Process halted! Halt-time statistics printing:")
	fmt.Printf("DEBUG: Stack (%d values, bottom to top):\n", len(vm.stack))
	for i, value := range vm.stack {
		fmt.Printf("DEBUG:   [%d] %s: %s\n", i, value.TypeName(), value)
	}

	slots := make([]uint64, 0, vm.globals.Count())
	vm.globals.Iter(func(slot uint64, _ Value) bool {
		slots = append(slots, slot)
		return false
	})
	slices.Sort(slots)

	fmt.Printf("DEBUG: Variable table (%d slots):\n", len(slots))
	for _, slot := range slots {
		value, _ := vm.globals.Get(slot)
		fmt.Printf("DEBUG:   slot %d = %s: %s\n", slot, value.TypeName(), value)
	}
}
