// Package builder provides the IR Builder: typed smart constructors over
// internal/ir that validate their inputs and infer missing information
// where it is unambiguous to do so — return-type deduction for calls
// (through internal/typesys), cast insertion, and variadic packing.
package builder

import (
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/typesys"
)

// Builder is the single entry point client code (chiefly internal/convert)
// uses to construct IR. It owns no state beyond the manager and a
// diagnostics collector for warnings raised by recoverable failures (e.g.
// return-type deduction falling back to unit).
type Builder struct {
	M         *ir.Manager
	Collector *diag.Collector
}

func New(m *ir.Manager, collector *diag.Collector) *Builder {
	return &Builder{M: m, Collector: collector}
}

func (b *Builder) fail(kind diag.Kind, loc diag.SourceLocation, format string, args ...any) error {
	return diag.New(kind, loc, format, args...)
}

// Int returns the int<width> GenericType.
func (b *Builder) Int(width int64) (*ir.Node, error) {
	p, err := b.M.ConcreteIntTypeParam(width)
	if err != nil {
		return nil, err
	}
	return b.M.GenericType("int", nil, []*ir.Node{p}, nil)
}

// UInt returns the uint<width> GenericType.
func (b *Builder) UInt(width int64) (*ir.Node, error) {
	p, err := b.M.ConcreteIntTypeParam(width)
	if err != nil {
		return nil, err
	}
	return b.M.GenericType("uint", nil, []*ir.Node{p}, nil)
}

// Real returns the real<width> GenericType.
func (b *Builder) Real(width int64) (*ir.Node, error) {
	p, err := b.M.ConcreteIntTypeParam(width)
	if err != nil {
		return nil, err
	}
	return b.M.GenericType("real", nil, []*ir.Node{p}, nil)
}

// Bool, Char, Unit, AnyRef return the corresponding dedicated GenericTypes.
func (b *Builder) Bool() (*ir.Node, error)   { return b.M.GenericType("bool", nil, nil, nil) }
func (b *Builder) Char() (*ir.Node, error)   { return b.M.GenericType("char", nil, nil, nil) }
func (b *Builder) Unit() (*ir.Node, error)   { return typesys.UnitType(b.M) }
func (b *Builder) AnyRef() (*ir.Node, error) { return b.M.GenericType("any-ref", nil, nil, nil) }

// IntLit, UIntLit, RealLit, BoolLit, CharLit build literal expressions.
func (b *Builder) IntLit(text string, width int64) (*ir.Node, error) {
	ty, err := b.Int(width)
	if err != nil {
		return nil, err
	}
	return b.M.Literal(text, ty)
}

func (b *Builder) UIntLit(text string, width int64) (*ir.Node, error) {
	ty, err := b.UInt(width)
	if err != nil {
		return nil, err
	}
	return b.M.Literal(text, ty)
}

func (b *Builder) RealLit(text string, width int64) (*ir.Node, error) {
	ty, err := b.Real(width)
	if err != nil {
		return nil, err
	}
	return b.M.Literal(text, ty)
}

func (b *Builder) BoolLit(text string) (*ir.Node, error) {
	ty, err := b.Bool()
	if err != nil {
		return nil, err
	}
	return b.M.Literal(text, ty)
}

func (b *Builder) CharLit(text string) (*ir.Node, error) {
	ty, err := b.Char()
	if err != nil {
		return nil, err
	}
	return b.M.Literal(text, ty)
}

// Variable mints a fresh-id Variable of the given type.
func (b *Builder) Variable(typ *ir.Node) (*ir.Node, error) {
	return b.M.Variable(typ, ir.NextFreshID())
}

// ResultType returns the result type of any expression node, by the fixed
// child-index convention each expression kind follows.
func ResultType(n *ir.Node) *ir.Node {
	switch n.Kind {
	case ir.KindLiteral:
		return n.Child(0)
	case ir.KindVariable:
		return ir.VariableType(n)
	case ir.KindCallExpr:
		return ir.CallExprReturnType(n)
	case ir.KindLambdaExpr:
		return ir.LambdaExprType(n)
	case ir.KindCastExpr:
		return ir.CastExprTargetType(n)
	case ir.KindStructExpr:
		return ir.StructExprType(n)
	case ir.KindVectorExpr:
		return ir.VectorExprType(n)
	case ir.KindJobExpr:
		return ir.JobExprType(n)
	case ir.KindMarkerExpr:
		return ResultType(ir.MarkerExprInner(n))
	default:
		return nil
	}
}

// Deref reads the value out of a Ref-typed expression through the Ref.deref
// builtin.
func (b *Builder) Deref(e *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	refType := ResultType(e)
	if refType == nil || refType.Kind != ir.KindRefType {
		return nil, b.fail(diag.TypeMismatch, loc, "Ref.deref applied to a non-ref value")
	}
	elem := ir.RefTypeElem(refType)
	fnType, err := b.M.FunctionType([]*ir.Node{refType}, elem, true)
	if err != nil {
		return nil, err
	}
	fn, err := b.M.Literal("Ref.deref", fnType)
	if err != nil {
		return nil, err
	}
	return b.M.CallExpr(elem, fn, []*ir.Node{e})
}

// RefVar allocates a fresh mutable cell initialized from e, through the
// Ref.new builtin.
func (b *Builder) RefVar(e *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	elem := ResultType(e)
	if elem == nil {
		return nil, b.fail(diag.IllFormedNode, loc, "Ref.new requires a typed initializer")
	}
	refType, err := b.M.RefType(elem)
	if err != nil {
		return nil, err
	}
	fnType, err := b.M.FunctionType([]*ir.Node{elem}, refType, true)
	if err != nil {
		return nil, err
	}
	fn, err := b.M.Literal("Ref.new", fnType)
	if err != nil {
		return nil, err
	}
	return b.M.CallExpr(refType, fn, []*ir.Node{e})
}

// CastExpr builds an explicit cast after checking the conversion is legal
// (error TypeMismatch otherwise). Identity casts (same type) are elided.
func (b *Builder) CastExpr(target *ir.Node, operand *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	src := ResultType(operand)
	if src == target {
		return operand, nil
	}
	if !legalConversion(src, target) {
		return nil, b.fail(diag.TypeMismatch, loc, "no legal conversion from %s to %s", ir.Print(src), ir.Print(target))
	}
	return b.M.CastExpr(target, operand)
}

// legalConversion reports whether source coerces to target: scalar
// widening, vector-to-array decay, or numeric truncation.
func legalConversion(src, target *ir.Node) bool {
	if src == target {
		return true
	}
	if typesys.IsSubType(src, target) || typesys.IsSubType(target, src) {
		return true
	}
	if isNumericFamily(src) && isNumericFamily(target) {
		return true
	}
	return false
}

func isNumericFamily(n *ir.Node) bool {
	if n == nil || n.Kind != ir.KindGenericType {
		return false
	}
	switch n.Payload.Text {
	case "int", "uint", "real":
		return true
	default:
		return false
	}
}

// Coerce adapts a value to an argument position: if arg's type
// already equals target, arg is returned unchanged; otherwise a cast is
// inserted if legal, else TypeMismatch is raised.
func (b *Builder) Coerce(arg *ir.Node, target *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	return b.CastExpr(target, arg, loc)
}

// CallExpr builds a call: it packs VarList variadic tails, inserts casts for
// arguments whose parameter type is fully known, and then deduces the return
// type by unifying fn's parameter types with the argument types. An argument
// whose parameter still carries a type variable is passed uncast, so that
// unification binds the variable to the argument's type.
func (b *Builder) CallExpr(fn *ir.Node, args []*ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	fnType := ResultType(fn)
	if fnType == nil || fnType.Kind != ir.KindFunctionType {
		return nil, b.fail(diag.IllFormedNode, loc, "call target has no function type")
	}
	params := ir.FunctionTypeParams(fnType)

	packedArgs, err := b.packVariadic(params, args, loc)
	if err != nil {
		return nil, err
	}

	if len(packedArgs) != len(params) {
		return nil, b.fail(diag.IllFormedNode, loc, "call arity mismatch: %d params, %d arguments", len(params), len(packedArgs))
	}

	var hasFreeVar func(p *ir.Node) bool
	hasFreeVar = func(p *ir.Node) bool {
		if p.Kind == ir.KindTypeVariable || p.Kind == ir.KindVariableIntTypeParam {
			return true
		}
		for _, c := range p.Children {
			if p.Kind != ir.KindRecType && hasFreeVar(c) {
				return true
			}
		}
		return false
	}

	coerced := make([]*ir.Node, len(packedArgs))
	argTypes := make([]*ir.Node, len(packedArgs))
	for i, a := range packedArgs {
		if isVarListParam(params[i]) || hasFreeVar(params[i]) {
			coerced[i] = a
			argTypes[i] = ResultType(a)
			continue
		}
		c, err := b.Coerce(a, params[i], loc)
		if err != nil {
			return nil, err
		}
		coerced[i] = c
		argTypes[i] = ResultType(c)
	}

	retType, err := typesys.DeduceReturnType(b.M, fnType, argTypes, loc, b.Collector)
	if err != nil {
		return nil, err
	}
	return b.M.CallExpr(retType, fn, coerced)
}

// isVarListParam reports whether p is the dedicated VarList family marking
// a variadic trailing parameter.
func isVarListParam(p *ir.Node) bool {
	return p.Kind == ir.KindGenericType && p.Payload.Text == "VarList"
}

// packVariadic packs variadic tails: if the function's last parameter is
// VarList, trailing positional arguments beyond the declared arity are
// packed into a single tuple-then-VarList argument.
func (b *Builder) packVariadic(params []*ir.Node, args []*ir.Node, loc diag.SourceLocation) ([]*ir.Node, error) {
	if len(params) == 0 || !isVarListParam(params[len(params)-1]) {
		return args, nil
	}
	fixedArity := len(params) - 1
	if len(args) < fixedArity {
		return nil, b.fail(diag.IllFormedNode, loc, "variadic call requires at least %d arguments, got %d", fixedArity, len(args))
	}
	trailing := args[fixedArity:]
	elemTypes := make([]*ir.Node, len(trailing))
	for i, a := range trailing {
		elemTypes[i] = ResultType(a)
	}
	tupleType, err := b.M.TupleType(elemTypes)
	if err != nil {
		return nil, err
	}
	tuple, err := b.M.StructExpr(tupleType, trailing)
	if err != nil {
		return nil, err
	}
	packed := append(append([]*ir.Node{}, args[:fixedArity]...), tuple)
	return packed, nil
}

// LambdaExpr builds a non-recursive lambda. retType is the declared return
// type: for an expression body it may be derived with ResultType(body), but
// a statement body (CompoundStmt, etc.) carries its return type only via the
// ReturnStmt nodes inside it, so the caller — the front-end converter, which
// already knows the source function's declared return type — always passes
// it explicitly.
func (b *Builder) LambdaExpr(params []*ir.Node, body *ir.Node, retType *ir.Node, plain bool) (*ir.Node, error) {
	paramTypes := make([]*ir.Node, len(params))
	for i, p := range params {
		paramTypes[i] = ir.VariableType(p)
	}
	fnType, err := b.M.FunctionType(paramTypes, retType, plain)
	if err != nil {
		return nil, err
	}
	return b.M.LambdaExpr(fnType, params, body)
}
