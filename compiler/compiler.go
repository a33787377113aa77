// Package compiler lowers the abstract syntax tree (AST) produced by the
// parser into the flat bytecode container executed by the VM. It is a
// single-pass code generator: forward jumps are emitted with 8-byte zero
// placeholders and patched in place once their target offset is known.
package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/cobalt-lang/cobalt/ast"
	"github.com/cobalt-lang/cobalt/opcode"
	"github.com/cobalt-lang/cobalt/token"
)

// symbol is the compile-time record of a variable binding.
type symbol struct {

	// The slot index where the variable is stored. Serves as the VM's
	// variable-table key at run time.
	slot uint64
	// Whether the binding was declared with `const`. Assigning to a
	// constant slot is a compile-time error.
	constant bool
}

// Compiler is a visitor that compiles AST nodes directly to bytecode.
// It implements both ast.ExpressionVisitor and ast.StmtVisitor interfaces
// to traverse and compile the abstract syntax tree to bytecode.
type Compiler struct {

	// The working instruction buffer. Starts with the 4-byte magic number;
	// the OP_HALT terminator is only appended to the copies Compile returns.
	bytecode []byte

	// A stack of scope frames mapping identifiers to their symbol. The last
	// frame is the innermost scope. Lookup scans from innermost to
	// outermost; the first hit wins. Declarations always target the top
	// frame.
	scopes []map[string]symbol

	// The next slot index to hand out. Slot IDs are allocated from this
	// single counter, so they are dense and globally unique across all
	// scopes of a compilation unit. Leaving a scope discards bindings but
	// never frees their slots.
	nextSlot uint64
}

// New creates a new AST-to-bytecode compiler. The returned compiler already
// carries the magic-number prefix and the global scope frame.
func New() *Compiler {
	return &Compiler{
		bytecode: opcode.MagicBytes(),
		scopes:   []map[string]symbol{{}},
	}
}

// Compile lowers the given statements, appending to any bytecode this
// compiler produced earlier, so a REPL can keep feeding statements into one
// compiler. The working buffer itself never carries the terminator; the
// returned container is an independent copy ending with a single OP_HALT.
//
// Returns:
//   - []byte: the full bytecode container (magic, instructions, OP_HALT).
//   - error: the first SemanticError or DeveloperError encountered.
func (c *Compiler) Compile(statements []ast.Stmt) (bytecode []byte, err error) {
	// Recover from any panic that may occur during compilation
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				err = v
			case DeveloperError:
				err = v
			default:
				panic(r)
			}
		}
	}()

	for _, stmt := range statements {
		stmt.Accept(c)
	}

	out := make([]byte, len(c.bytecode)+1)
	copy(out, c.bytecode)
	out[len(out)-1] = byte(opcode.OP_HALT)
	return out, nil
}

// Bytecode returns the instruction buffer compiled so far.
func (c *Compiler) Bytecode() []byte {
	return c.bytecode
}

// Truncate cuts the instruction buffer back to n bytes. A REPL uses it to
// roll back the instructions a failed line managed to emit before its error;
// any slots the failed line allocated stay burned, which is harmless because
// slot IDs only need to be unique, not contiguous with the emitted code.
// Only the instruction buffer is cut: names the failed line declared stay
// bound, and a scope frame it opened but never closed stays open.
func (c *Compiler) Truncate(n int) {
	if n >= 4 && n <= len(c.bytecode) {
		c.bytecode = c.bytecode[:n]
	}
}

// VisitBinary handles binary expressions (arithmetic and comparison
// operators). Operands are compiled post-order: left, then right, then the
// operator opcode.
//
// The container has no dedicated <= or >= opcodes, so those comparisons
// lower to the negation of their strict counterpart: `a <= b` becomes
// OP_GT OP_NOT and `a >= b` becomes OP_LT OP_NOT.
func (c *Compiler) VisitBinary(binary ast.Binary) any {

	// NOTE: Left expression is compiled first to ensure correct evaluation order
	binary.Left.Accept(c)
	binary.Right.Accept(c)

	switch binary.Operator.TokenType {
	case token.ADD:
		c.emit(opcode.OP_ADD)
	case token.SUB:
		c.emit(opcode.OP_SUB)
	case token.MULT:
		c.emit(opcode.OP_MUL)
	case token.DIV:
		c.emit(opcode.OP_DIV)
	case token.MOD:
		c.emit(opcode.OP_MOD)

	case token.EQUAL_EQUAL:
		c.emit(opcode.OP_EQ)
	case token.NOT_EQUAL:
		c.emit(opcode.OP_NEQ)
	case token.LESS:
		c.emit(opcode.OP_LT)
	case token.LARGER:
		c.emit(opcode.OP_GT)
	case token.LESS_EQUAL:
		c.emit(opcode.OP_GT)
		c.emit(opcode.OP_NOT)
	case token.LARGER_EQUAL:
		c.emit(opcode.OP_LT)
		c.emit(opcode.OP_NOT)
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown binary operator '%s'", binary.Operator.Lexeme),
		})
	}

	return nil
}

// VisitUnary handles unary expressions (operators: -, !, +). Unary `+` is a
// no-op and compiles to the operand alone.
func (c *Compiler) VisitUnary(unary ast.Unary) any {

	unary.Right.Accept(c)

	switch unary.Operator.TokenType {
	case token.SUB:
		c.emit(opcode.OP_NEG)
	case token.BANG:
		c.emit(opcode.OP_NOT)
	case token.ADD:
		// the operand is already on the stack
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown unary operator '%s'", unary.Operator.Lexeme),
		})
	}
	return nil
}

// VisitLiteral handles literal values (numbers and booleans). An int64
// literal is stored as the two's-complement u64 image of its value; the VM
// reinterprets the operand as an i64 when pushing.
func (c *Compiler) VisitLiteral(literal ast.Literal) any {
	switch v := literal.Value.(type) {
	case int64:
		c.emit(opcode.OP_PUSH_INT, uint64(v))
	case bool:
		operand := uint64(0)
		if v {
			operand = 1
		}
		c.emit(opcode.OP_PUSH_BOOL, operand)
	case string:
		c.emitString(v)
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown literal value %v", literal.Value),
		})
	}
	return nil
}

// VisitGrouping handles parenthesized expressions
func (c *Compiler) VisitGrouping(grouping ast.Grouping) any {
	// Recursively compile the inner expression
	grouping.Expression.Accept(c)
	return nil
}

// VisitVariableExpression compiles variable access by emitting an OP_LOAD
// instruction with the variable's slot index as the operand. Using a name
// that no enclosing scope declares is a compile-time error; the VM never
// sees an unresolved identifier.
func (c *Compiler) VisitVariableExpression(variable ast.Variable) any {

	identifier := variable.Name.Lexeme

	sym, ok := c.resolve(identifier)
	if !ok {
		panic(SemanticError{
			Line:    variable.Name.Line,
			Column:  variable.Name.Column,
			Message: fmt.Sprintf("name '%s' is not defined", identifier),
		})
	}

	c.emit(opcode.OP_LOAD, sym.slot)
	return nil
}

// VisitAssignExpression compiles an assignment expression.
//
// For a plain assignment `x = e` the value expression is compiled first,
// then an OP_STORE with x's slot. A compound assignment `x op= e` loads the
// current value, compiles the value expression, applies the arithmetic
// opcode and stores the result back.
//
// Assignments leave nothing on the stack after the store.
func (c *Compiler) VisitAssignExpression(assign ast.Assign) any {

	name := assign.Name.Lexeme

	sym, ok := c.resolve(name)
	if !ok {
		panic(SemanticError{
			Line:    assign.Name.Line,
			Column:  assign.Name.Column,
			Message: fmt.Sprintf("name '%s' is not defined", name),
		})
	}
	if sym.constant {
		panic(SemanticError{
			Line:    assign.Name.Line,
			Column:  assign.Name.Column,
			Message: fmt.Sprintf("assignment to constant '%s'", name),
		})
	}

	if assign.Operator.TokenType == token.ASSIGN {
		assign.Value.Accept(c)
		c.emit(opcode.OP_STORE, sym.slot)
		return nil
	}

	c.emit(opcode.OP_LOAD, sym.slot)
	assign.Value.Accept(c)

	switch assign.Operator.TokenType {
	case token.ADD_ASSIGN:
		c.emit(opcode.OP_ADD)
	case token.SUB_ASSIGN:
		c.emit(opcode.OP_SUB)
	case token.MULT_ASSIGN:
		c.emit(opcode.OP_MUL)
	case token.DIV_ASSIGN:
		c.emit(opcode.OP_DIV)
	case token.MOD_ASSIGN:
		c.emit(opcode.OP_MOD)
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown assignment operator '%s'", assign.Operator.Lexeme),
		})
	}

	c.emit(opcode.OP_STORE, sym.slot)
	return nil
}

// VisitVarStmt handles variable declaration statements.
//
// The initializer is compiled and stored before the binding is registered
// in the current scope. Registering after emission prevents `let x = x`
// from resolving to itself: the initializer's `x` either resolves to an
// outer binding or fails as undefined.
func (c *Compiler) VisitVarStmt(varStmt ast.VarStmt) any {

	variableName := varStmt.Name.Lexeme

	// Duplicate declarations are only an error within the same scope;
	// an inner scope may shadow an outer binding.
	innermost := c.scopes[len(c.scopes)-1]
	if _, exists := innermost[variableName]; exists {
		panic(SemanticError{
			Line:    varStmt.Name.Line,
			Column:  varStmt.Name.Column,
			Message: fmt.Sprintf("redefinition of variable '%s'", variableName),
		})
	}

	varStmt.Initializer.Accept(c)

	slot := c.nextSlot
	c.nextSlot++
	c.emit(opcode.OP_STORE, slot)

	innermost[variableName] = symbol{
		slot:     slot,
		constant: varStmt.Constant,
	}

	return nil
}

// VisitLogicalExpression compiles logical expressions (&&, ||) by emitting
// bytecode that implements short-circuiting behaviour.
//
// The peek variants of the conditional jumps test the stack top without
// popping it, so the left operand's value survives as the expression result
// when the jump is taken. When it is not taken, an OP_POP discards the left
// operand before the right one is evaluated.
func (c *Compiler) VisitLogicalExpression(logical ast.Logical) any {

	// left expression is compiled first to ensure correct evaluation order and short-circuiting behaviour.
	logical.Left.Accept(c)

	switch logical.Operator.TokenType {
	case token.AND:
		// For an "and" expression, a false left operand decides the result:
		// jump over the right operand and keep the false on the stack.
		endJump := c.emitPlaceholderJump(opcode.OP_JMP_IF_FALSE_PEEK)
		c.emit(opcode.OP_POP)
		logical.Right.Accept(c)
		c.patchJump(endJump, uint64(len(c.bytecode)))
	case token.OR:
		// For an "or" expression, a true left operand decides the result:
		// jump over the right operand and keep the true on the stack.
		endJump := c.emitPlaceholderJump(opcode.OP_JMP_IF_TRUE_PEEK)
		c.emit(opcode.OP_POP)
		logical.Right.Accept(c)
		c.patchJump(endJump, uint64(len(c.bytecode)))
	default:
		panic(DeveloperError{
			Message: fmt.Sprintf("unknown logical operator '%s'", logical.Operator.Lexeme),
		})
	}
	return nil
}

// VisitExpressionStmt compiles the wrapped expression. Its value is left on
// the stack.
func (c *Compiler) VisitExpressionStmt(exprStmt ast.ExpressionStmt) any {
	exprStmt.Expression.Accept(c)
	return nil
}

// VisitBlockStmt compiles a block statement by sequentially compiling each
// statement in the block inside a fresh scope frame. Bindings die with the
// frame; the slots they occupied are never reused.
func (c *Compiler) VisitBlockStmt(blockStmt ast.BlockStmt) any {

	c.beginScope()
	for _, stmt := range blockStmt.Statements {
		stmt.Accept(c)
	}
	c.endScope()
	return nil
}

// VisitIfStmt compiles an if or if-else statement by emitting bytecode.
// It uses backpatching to resolve jump offsets for branching.
//
// Without an else branch:
//
//	<condition> OP_JMP_IF_FALSE end <then> end:
//
// With an else branch:
//
//	<condition> OP_JMP_IF_FALSE else <then> OP_JMP end else: <alternate> end:
//
// OP_JMP_IF_FALSE pops the condition, so neither path leaves it behind.
func (c *Compiler) VisitIfStmt(ifStmt ast.IfStmt) any {

	// compile the condition expression first
	ifStmt.Condition.Accept(c)

	jumpIfFalsePatch := c.emitPlaceholderJump(opcode.OP_JMP_IF_FALSE)
	// For example, the instructions would now be something like:
	// [..., OP_JMP_IF_FALSE, 0x00 * 8] where the zero bytes are the
	// placeholder operand.

	ifStmt.Then.Accept(c)

	if ifStmt.Else != nil {
		// If there is an "else" branch, emit a jump instruction to skip over it after executing the "then" branch.
		jumpPatch := c.emitPlaceholderJump(opcode.OP_JMP)

		// Patch the operand of the OP_JMP_IF_FALSE instruction defined at the beginning.
		// This allows the VM to correctly jump to the start of the "else" branch, if the
		// condition evaluates false.
		elsePos := uint64(len(c.bytecode))
		c.patchJump(jumpIfFalsePatch, elsePos)

		ifStmt.Else.Accept(c)

		endPos := uint64(len(c.bytecode))
		// Patch the operand of OP_JMP so the VM can jump to the end of the "else" branch.
		c.patchJump(jumpPatch, endPos)
	} else {
		// If there is no "else" branch, patch the OP_JMP_IF_FALSE so that
		// control jumps to the instruction after the "then" branch when
		// the condition is false.
		afterPos := uint64(len(c.bytecode))
		c.patchJump(jumpIfFalsePatch, afterPos)
	}
	return nil
}

// patchJump overwrites a jump instruction's operand with the actual correct
// byte offset. When compiling if statements and logical expressions, the
// target is not known until the guarded code has been compiled; jump
// instructions are emitted with 8-byte zero placeholder operands and later
// fixed with patchJump.
//
// The jumpPos is the byte index where the jump instruction's opcode is
// located, as returned by emitPlaceholderJump. The targetPos is the byte
// offset the jump should transfer control to.
func (c *Compiler) patchJump(jumpPos int, targetPos uint64) {
	operandPos := jumpPos + 1
	binary.LittleEndian.PutUint64(c.bytecode[operandPos:operandPos+8], targetPos)
}

// emit constructs a bytecode instruction and appends it to the instruction stream
func (c *Compiler) emit(op opcode.Opcode, operands ...uint64) {
	instruction := opcode.Make(op, operands...)
	if len(instruction) == 0 {
		panic(DeveloperError{
			Message: fmt.Sprintf("cannot assemble unknown opcode 0x%02x", byte(op)),
		})
	}
	c.bytecode = append(c.bytecode, instruction...)
}

// emitString appends an OP_PUSH_STR instruction. The operand is a one-byte
// length followed by the raw string bytes, which caps a string literal at
// 255 bytes of UTF-8.
func (c *Compiler) emitString(value string) {
	if len(value) > 255 {
		panic(SemanticError{
			Message: fmt.Sprintf("string literal of %d bytes exceeds the 255-byte operand limit", len(value)),
		})
	}
	c.bytecode = append(c.bytecode, byte(opcode.OP_PUSH_STR), byte(len(value)))
	c.bytecode = append(c.bytecode, value...)
}

// emitPlaceholderJump emits a jump instruction with the specified opcode and
// a placeholder operand (0). It returns the position in the bytecode where
// the jump instruction was emitted, which can later be passed to `patchJump`
// to update the operand with the correct jump target.
func (c *Compiler) emitPlaceholderJump(op opcode.Opcode) int {
	position := len(c.bytecode)
	c.emit(op, 0)
	return position
}

// beginScope pushes a fresh scope frame, when compiling a block statement.
func (c *Compiler) beginScope() {
	c.scopes = append(c.scopes, map[string]symbol{})
}

// endScope pops the innermost scope frame. The bindings it held are
// discarded; their slots stay allocated for the lifetime of the VM.
func (c *Compiler) endScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// resolve looks an identifier up through the scope stack, innermost frame
// first. It returns the symbol and true on a hit, or false when no
// enclosing scope declares the name.
func (c *Compiler) resolve(name string) (symbol, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if sym, ok := c.scopes[i][name]; ok {
			return sym, true
		}
	}
	return symbol{}, false
}
