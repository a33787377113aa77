// statements.go contains all the statement AST nodes. A statement node does not produce a value.

package ast

import "github.com/cobalt-lang/cobalt/token"

// ExpressionStmt represents a statement that consists of a single expression.
// Example: `foo + bar`
// This evaluates the expression and leaves the result on the value stack.
type ExpressionStmt struct {
	Expression Expression // The expression used as a statement
}

func (e ExpressionStmt) Accept(v StmtVisitor) any {
	return v.VisitExpressionStmt(e)
}

// VarStmt represents a variable declaration statement, its composed
// of the name of the variable, whether it is a constant binding, and the
// expression it binds to. Both `let` and `const` declarations produce a
// VarStmt; a const binding can never be assigned to again.
type VarStmt struct {
	Name        token.Token
	Constant    bool
	Initializer Expression
}

func (varStmt VarStmt) Accept(v StmtVisitor) any {
	return v.VisitVarStmt(varStmt)
}

// BlockStmt represents a block statement containing a list
// of statement AST nodes. Blocks introduce a new lexical scope
// at code-generation time.
type BlockStmt struct {
	Statements []Stmt
}

func (blockStmt BlockStmt) Accept(v StmtVisitor) any {
	return v.VisitBlockStmt(blockStmt)
}

// IfStmt represents a conditional statement. The Else branch is optional
// and may itself be another IfStmt (else-if chains); an `else` always binds
// to the nearest `if`.
type IfStmt struct {
	Condition Expression
	Then      Stmt
	Else      Stmt
}

func (ifStmt IfStmt) Accept(v StmtVisitor) any {
	return v.VisitIfStmt(ifStmt)
}
