package ir

import (
	"fmt"
	"sync/atomic"
)

func init() {
	RegisterValidator(KindLiteral, validateArity(1, "Literal"))
	RegisterValidator(KindVariable, validateArity(1, "Variable"))
	RegisterValidator(KindCallExpr, validateCallExpr)
	RegisterValidator(KindLambdaExpr, validateLambdaExpr)
	RegisterValidator(KindCastExpr, validateArity(2, "CastExpr"))
	RegisterValidator(KindMarkerExpr, validateArity(1, "MarkerExpr"))
}

func validateCallExpr(_ Kind, _ Payload, children []*Node) error {
	if len(children) < 2 {
		return fmt.Errorf("CallExpr requires a return type and a function child, got %d children", len(children))
	}
	return nil
}

func validateLambdaExpr(_ Kind, payload Payload, children []*Node) error {
	if payload.Flag {
		if len(children) != 2 {
			return fmt.Errorf("recursive LambdaExpr expects 2 children (rec-var, definition), got %d", len(children))
		}
		if children[0].Kind != KindVariable {
			return fmt.Errorf("recursive LambdaExpr's first child must be a Variable")
		}
		return nil
	}
	if len(children) < 2 {
		return fmt.Errorf("LambdaExpr requires at least a type and a body child")
	}
	nParams := int(payload.Int)
	if len(children) != nParams+2 {
		return fmt.Errorf("LambdaExpr declares %d params but has %d children", nParams, len(children))
	}
	return nil
}

var freshVarCounter atomic.Uint64

// NextFreshID allocates the next process-wide strictly increasing integer
// used to distinguish Variable nodes. It is exported so the builder
// package and the front-end converter can mint fresh variables without
// depending on a Manager instance for this single concern.
func NextFreshID() int64 {
	return int64(freshVarCounter.Add(1))
}

// Literal constructs a literal expression from its source text and type.
func (m *Manager) Literal(text string, typ *Node) (*Node, error) {
	return m.Get(KindLiteral, Payload{Text: text}, typ)
}

// Variable constructs (or re-interns) a variable reference. Two Variables
// are equal only if their fresh ids are equal — callers that want
// a *new* binding must pass a fresh id from NextFreshID; callers that want
// to refer again to an existing binding pass back the id they were given.
func (m *Manager) Variable(typ *Node, freshID int64) (*Node, error) {
	return m.Get(KindVariable, Payload{Int: freshID}, typ)
}

func VariableType(n *Node) *Node    { return n.Child(0) }
func VariableFreshID(n *Node) int64 { return n.Payload.Int }

// CallExpr constructs a call expression. The return type is supplied
// explicitly — inference lives in the builder, not here.
func (m *Manager) CallExpr(returnType *Node, fn *Node, args []*Node) (*Node, error) {
	children := make([]*Node, 0, len(args)+2)
	children = append(children, returnType, fn)
	children = append(children, args...)
	return m.Get(KindCallExpr, Payload{}, children...)
}

func CallExprReturnType(n *Node) *Node { return n.Child(0) }
func CallExprFunc(n *Node) *Node       { return n.Child(1) }
func CallExprArgs(n *Node) []*Node     { return n.Children[2:] }

// LambdaExpr constructs a non-recursive lambda: params are fresh Variable
// nodes bound by body (a Statement or Expression, depending on use).
func (m *Manager) LambdaExpr(typ *Node, params []*Node, body *Node) (*Node, error) {
	children := make([]*Node, 0, len(params)+2)
	children = append(children, typ)
	children = append(children, params...)
	children = append(children, body)
	return m.Get(KindLambdaExpr, Payload{Int: int64(len(params))}, children...)
}

// LambdaDefinition builds the shared (variable -> lambda) map used to tie
// an SCC of mutually recursive functions together, dual to
// RecTypeDefinition.
func (m *Manager) LambdaDefinition(vars []*Node, lambdas []*Node) (*Node, error) {
	if len(vars) != len(lambdas) {
		return nil, fmt.Errorf("LambdaDefinition: %d vars but %d lambdas", len(vars), len(lambdas))
	}
	children := make([]*Node, 0, len(vars)*2)
	for i := range vars {
		children = append(children, vars[i], lambdas[i])
	}
	return m.Get(KindLambdaDefinition, Payload{Int: int64(len(vars))}, children...)
}

func LambdaDefinitionEntries(def *Node) (vars []*Node, lambdas []*Node) {
	n := int(def.Payload.Int)
	vars = make([]*Node, n)
	lambdas = make([]*Node, n)
	for i := 0; i < n; i++ {
		vars[i] = def.Children[2*i]
		lambdas[i] = def.Children[2*i+1]
	}
	return
}

// RecLambdaExpr constructs a member of a mutually recursive function SCC:
// recVar is this member's placeholder Variable, definition is the shared
// LambdaDefinition every member of the SCC refers to.
func (m *Manager) RecLambdaExpr(recVar *Node, definition *Node) (*Node, error) {
	return m.Get(KindLambdaExpr, Payload{Flag: true}, recVar, definition)
}

func LambdaExprIsRecursive(n *Node) bool { return n.Payload.Flag }
func LambdaExprType(n *Node) *Node {
	if n.Payload.Flag {
		return VariableType(n.Child(0))
	}
	return n.Child(0)
}
func LambdaExprParams(n *Node) []*Node {
	if n.Payload.Flag {
		return nil
	}
	return n.Children[1 : len(n.Children)-1]
}
func LambdaExprBody(n *Node) *Node {
	if n.Payload.Flag {
		return nil
	}
	return n.Children[len(n.Children)-1]
}
func LambdaExprRecVar(n *Node) *Node {
	if !n.Payload.Flag {
		return nil
	}
	return n.Child(0)
}
func LambdaExprDefinition(n *Node) *Node {
	if !n.Payload.Flag {
		return nil
	}
	return n.Child(1)
}

// CastExpr constructs an explicit type cast.
func (m *Manager) CastExpr(targetType *Node, operand *Node) (*Node, error) {
	return m.Get(KindCastExpr, Payload{}, targetType, operand)
}

func CastExprTargetType(n *Node) *Node { return n.Child(0) }
func CastExprOperand(n *Node) *Node    { return n.Child(1) }

// StructExpr constructs a struct value expression from positional field
// values, aligned to the declared order of typ's fields.
func (m *Manager) StructExpr(typ *Node, fieldValues []*Node) (*Node, error) {
	children := make([]*Node, 0, len(fieldValues)+1)
	children = append(children, typ)
	children = append(children, fieldValues...)
	return m.Get(KindStructExpr, Payload{}, children...)
}

func StructExprType(n *Node) *Node     { return n.Child(0) }
func StructExprValues(n *Node) []*Node { return n.Children[1:] }

// VectorExpr constructs a statically sized vector value expression.
func (m *Manager) VectorExpr(typ *Node, elems []*Node) (*Node, error) {
	children := make([]*Node, 0, len(elems)+1)
	children = append(children, typ)
	children = append(children, elems...)
	return m.Get(KindVectorExpr, Payload{}, children...)
}

func VectorExprType(n *Node) *Node     { return n.Child(0) }
func VectorExprValues(n *Node) []*Node { return n.Children[1:] }

// JobExpr constructs a parallel work-item expression wrapping body.
func (m *Manager) JobExpr(typ *Node, body *Node) (*Node, error) {
	return m.Get(KindJobExpr, Payload{}, typ, body)
}

func JobExprType(n *Node) *Node { return n.Child(0) }
func JobExprBody(n *Node) *Node { return n.Child(1) }

var markerCounter atomic.Uint64

// MarkerExpr wraps inner in an identity-preserving tag so distinct call
// sites of a structurally-shared node (e.g. a literal) can carry distinct
// annotations. Each call mints a fresh serial so that two markers wrapping
// the same inner node are never hash-cons-collapsed into one — that would
// defeat the whole point of interposing a marker.
func (m *Manager) MarkerExpr(inner *Node) (*Node, error) {
	serial := int64(markerCounter.Add(1))
	return m.Get(KindMarkerExpr, Payload{Int: serial}, inner)
}

func MarkerExprInner(n *Node) *Node { return n.Child(0) }
