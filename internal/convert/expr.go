package convert

import (
	"strconv"

	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/ir/builder"
	"github.com/inspirecore/inspire/internal/typesys"
)

// Builtin names the converter lowers certain source operations to. These
// are ordinary opaque Literal functions at the IR level: a builtin is
// identified only by its name and function type, and no package in this
// module (the backend type manager included) interprets them further.
const (
	builtinRefNew                = "Ref.new"
	builtinRefDelete             = "Ref.delete"
	builtinArrayCreate1D         = "array.create.1D"
	builtinArrayView             = "array.view"
	builtinArrayRefElem1D        = "array.ref.elem.1D"
	builtinArraySubscript1D      = "array.subscript.1D"
	builtinVectorRefElem         = "vector.ref.elem"
	builtinVectorSubscript       = "vector.subscript"
	builtinRefVectorToRefArray   = "vector.to.ref.array"
	builtinRealToInt             = "real.to.int"
	builtinPtrEq                 = "ptr.eq"
	builtinLNot                  = "logic.not"
	builtinIfThenElse            = "if.then.else"
	builtinCompositeMemberAccess = "composite.member.access"
	builtinCompositeRefElem      = "composite.ref.elem"
	builtinGetNull               = "get.null"
)

// LowerExpr lowers a source expression to its IR form.
func LowerExpr(cc *ConversionContext, n srcast.Node) (*ir.Node, error) {
	if n == nil {
		return nil, nil
	}
	loc := n.Location()
	switch n.Kind() {
	case srcast.KindIntLiteral:
		return lowerIntLiteral(cc, n.(srcast.IntLiteral))
	case srcast.KindFloatLiteral:
		return lowerFloatLiteral(cc, n.(srcast.FloatLiteral))
	case srcast.KindBoolLiteral:
		return cc.B.BoolLit(boolText(n.(srcast.BoolLiteral).Value()))
	case srcast.KindCharLiteral:
		return cc.B.CharLit(string(n.(srcast.CharLiteral).Value()))
	case srcast.KindStringLiteral:
		return lowerStringLiteral(cc, n.(srcast.StringLiteral))
	case srcast.KindIdentExpr:
		return lowerIdentExpr(cc, n.(srcast.IdentExpr), loc)
	case srcast.KindBinaryExpr:
		return lowerBinaryExpr(cc, n.(srcast.BinaryExpr), loc)
	case srcast.KindUnaryExpr:
		return lowerUnaryExpr(cc, n.(srcast.UnaryExpr), loc)
	case srcast.KindAssignExpr:
		return lowerAssignExpr(cc, n.(srcast.AssignExpr), loc)
	case srcast.KindCompoundAssignExpr:
		return lowerCompoundAssignExpr(cc, n.(srcast.CompoundAssignExpr), loc)
	case srcast.KindIncDecExpr:
		return lowerIncDecExpr(cc, n.(srcast.IncDecExpr), loc)
	case srcast.KindCallExpr:
		return lowerCallExpr(cc, n.(srcast.CallExpr), loc)
	case srcast.KindCastExpr:
		return lowerCastExpr(cc, n.(srcast.CastExpr), loc)
	case srcast.KindMemberExpr:
		return lowerMemberExpr(cc, n.(srcast.MemberExpr), loc)
	case srcast.KindSubscriptExpr:
		return lowerSubscriptExpr(cc, n.(srcast.SubscriptExpr), loc)
	case srcast.KindAddrOfExpr:
		return lowerAddrOfExpr(cc, n.(srcast.AddrOfExpr), loc)
	case srcast.KindDerefExpr:
		return lowerDerefExpr(cc, n.(srcast.DerefExpr), loc)
	case srcast.KindInitListExpr:
		return nil, diag.New(diag.IllFormedNode, loc, "initializer list requires a target type; use LowerInitList")
	case srcast.KindSizeofExpr:
		return lowerSizeofExpr(cc, n.(srcast.SizeofExpr), loc)
	default:
		return nil, diag.New(diag.IllFormedNode, loc, "unsupported expression kind %s", n.Kind())
	}
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func lowerIntLiteral(cc *ConversionContext, n srcast.IntLiteral) (*ir.Node, error) {
	if n.IsUnsigned() {
		return cc.B.UIntLit(n.Text(), int64(n.BitWidth()))
	}
	return cc.B.IntLit(n.Text(), int64(n.BitWidth()))
}

func lowerFloatLiteral(cc *ConversionContext, n srcast.FloatLiteral) (*ir.Node, error) {
	return cc.B.RealLit(n.Text(), int64(n.BitWidth()))
}

// lowerStringLiteral lowers a string literal to a Vector(char, n+1) Literal
// carrying the text verbatim; the backend owns the concrete encoding.
func lowerStringLiteral(cc *ConversionContext, n srcast.StringLiteral) (*ir.Node, error) {
	char, err := cc.B.Char()
	if err != nil {
		return nil, err
	}
	vec, err := cc.M.VectorType(char, int64(len(n.Value())+1))
	if err != nil {
		return nil, err
	}
	return cc.M.Literal(strconv.Quote(n.Value()), vec)
}

func lowerIdentExpr(cc *ConversionContext, n srcast.IdentExpr, loc diag.SourceLocation) (*ir.Node, error) {
	resolved := n.Resolved()
	if resolved == nil {
		return nil, diag.New(diag.IllFormedNode, loc, "unresolved identifier %q", n.Name())
	}
	switch decl := resolved.(type) {
	case srcast.VarDecl:
		// Every local and global variable is Ref-backed storage (see
		// lowerDeclStmt): reading it as a value means dereferencing the
		// cell, mirroring the wrapped-parameter case just below.
		if decl.IsGlobal() {
			if lit, ok, err := InterceptGlobal(cc, decl, decl.Name()); ok || err != nil {
				return lit, err
			}
			ref, err := FieldAccessForGlobal(cc, decl, loc)
			if err != nil {
				return nil, err
			}
			return derefBuiltin(cc, ref, loc)
		}
		if v, ok := cc.LookupVar(decl); ok {
			return derefBuiltin(cc, v, loc)
		}
		return nil, diag.New(diag.IllFormedNode, loc, "variable %q used before its declaration was lowered", n.Name())
	case srcast.ParamDecl:
		if v, ok := cc.LookupVar(decl); ok {
			if wrapped, ok := cc.wrapRefMap[v]; ok {
				return derefBuiltin(cc, wrapped, loc)
			}
			return v, nil
		}
		return nil, diag.New(diag.IllFormedNode, loc, "parameter %q used before its declaration was lowered", n.Name())
	case srcast.FuncDecl:
		if lit, ok, err := InterceptFuncDecl(cc, decl, decl.Name()); ok || err != nil {
			return lit, err
		}
		return LowerFuncDecl(cc, decl)
	default:
		return nil, diag.New(diag.IllFormedNode, loc, "identifier %q resolves to an unsupported declaration kind", n.Name())
	}
}

// --- builtin call construction ---

func builtinFn(cc *ConversionContext, name string, paramTypes []*ir.Node, retType *ir.Node) (*ir.Node, error) {
	fnType, err := cc.M.FunctionType(paramTypes, retType, true)
	if err != nil {
		return nil, err
	}
	return cc.M.Literal(name, fnType)
}

func builtinCall(cc *ConversionContext, name string, paramTypes []*ir.Node, retType *ir.Node, args []*ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	fn, err := builtinFn(cc, name, paramTypes, retType)
	if err != nil {
		return nil, err
	}
	return cc.B.CallExpr(fn, args, loc)
}

func derefBuiltin(cc *ConversionContext, ref *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	return cc.B.Deref(ref, loc)
}

// compositeRefElem builds a reference to field idx of the struct that base
// (a Ref(Struct) value) points at.
func compositeRefElem(cc *ConversionContext, base *ir.Node, idx int, loc diag.SourceLocation) (*ir.Node, error) {
	refType := builder.ResultType(base)
	if refType == nil || refType.Kind != ir.KindRefType {
		return nil, diag.New(diag.TypeMismatch, loc, "composite.ref.elem applied to a non-ref value")
	}
	structType := refType.Child(0)
	if idx < 0 || idx >= structType.Arity() {
		return nil, diag.New(diag.IllFormedNode, loc, "field index %d out of range for %s", idx, ir.Print(structType))
	}
	fieldType := structType.Child(idx).Child(0)
	refField, err := cc.M.RefType(fieldType)
	if err != nil {
		return nil, err
	}
	idxLit, err := cc.B.IntLit(strconv.Itoa(idx), 4)
	if err != nil {
		return nil, err
	}
	idxType := builder.ResultType(idxLit)
	return builtinCall(cc, builtinCompositeRefElem, []*ir.Node{refType, idxType}, refField, []*ir.Node{base, idxLit}, loc)
}

// --- operators ---

// The operator tables below classify a binary operator; lowerBinaryExpr
// uses the class to pick how the operands are joined to a common type
// before dispatching to the operator's builtin name.
var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var bitOps = map[string]bool{"&": true, "|": true, "^": true, "<<": true, ">>": true}
var relOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}
var eqOps = map[string]bool{"==": true, "!=": true}
var logicOps = map[string]bool{"&&": true, "||": true}

func lowerBinaryExpr(cc *ConversionContext, n srcast.BinaryExpr, loc diag.SourceLocation) (*ir.Node, error) {
	op := n.Op()
	if logicOps[op] {
		return lowerShortCircuit(cc, n, loc)
	}

	lhs, err := LowerExpr(cc, n.Lhs())
	if err != nil {
		return nil, err
	}
	rhs, err := LowerExpr(cc, n.Rhs())
	if err != nil {
		return nil, err
	}
	lt, rt := builder.ResultType(lhs), builder.ResultType(rhs)

	// Pointer arithmetic: Ref(Array(T)) +/- offset shifts the view into the
	// underlying array rather than dispatching to a numeric operator.
	if (op == "+" || op == "-") && isRefArray(lt) && isIntFamily(rt) {
		return arrayViewCall(cc, lhs, rhs, op == "-", loc)
	}
	if op == "+" && isIntFamily(lt) && isRefArray(rt) {
		return arrayViewCall(cc, rhs, lhs, false, loc)
	}

	// A literal 0 compared against a pointer is the null-pointer idiom;
	// rewrite it to the dedicated null value of the pointer's own type
	// before the pointer-equality dispatch below.
	if eqOps[op] {
		if lt.Kind == ir.KindRefType && isZeroIntLiteral(rhs) {
			rhs, rt = mustNullRef(cc, lt, loc), lt
		} else if rt.Kind == ir.KindRefType && isZeroIntLiteral(lhs) {
			lhs, lt = mustNullRef(cc, rt, loc), rt
		}
	}

	if eqOps[op] && lt.Kind == ir.KindRefType && rt.Kind == ir.KindRefType {
		eq, err := builtinCall(cc, builtinPtrEq, []*ir.Node{lt, rt}, mustBool(cc), []*ir.Node{lhs, rhs}, loc)
		if err != nil {
			return nil, err
		}
		if op == "!=" {
			return builtinCall(cc, builtinLNot, []*ir.Node{mustBool(cc)}, mustBool(cc), []*ir.Node{eq}, loc)
		}
		return eq, nil
	}

	switch {
	case arithOps[op] || bitOps[op] || relOps[op] || eqOps[op]:
		common, err := typesys.Join(cc.M, lt, rt)
		if err != nil {
			return nil, diag.New(diag.TypeMismatch, loc, "no common type for operator %q: %v", op, err)
		}
		lhs, err = cc.B.Coerce(lhs, common, loc)
		if err != nil {
			return nil, err
		}
		rhs, err = cc.B.Coerce(rhs, common, loc)
		if err != nil {
			return nil, err
		}
		ret := common
		if relOps[op] || eqOps[op] {
			ret = mustBool(cc)
		}
		return builtinCall(cc, "op"+op, []*ir.Node{common, common}, ret, []*ir.Node{lhs, rhs}, loc)
	default:
		return nil, diag.New(diag.IllFormedNode, loc, "unsupported binary operator %q", op)
	}
}

func mustBool(cc *ConversionContext) *ir.Node {
	t, _ := cc.B.Bool()
	return t
}

func isRefArray(t *ir.Node) bool {
	return t != nil && t.Kind == ir.KindRefType && ir.RefTypeElem(t).Kind == ir.KindArrayType
}

func isZeroIntLiteral(n *ir.Node) bool {
	return n.Kind == ir.KindLiteral && n.Payload.Text == "0" && isIntFamily(builder.ResultType(n))
}

// arrayViewCall shifts base (a Ref(Array(T)) value) by offset elements; the
// result keeps base's type. negate flips the offset's sign for the `p - k`
// form.
func arrayViewCall(cc *ConversionContext, base, offset *ir.Node, negate bool, loc diag.SourceLocation) (*ir.Node, error) {
	ot := builder.ResultType(offset)
	if negate {
		var err error
		offset, err = builtinCall(cc, "op.neg", []*ir.Node{ot}, ot, []*ir.Node{offset}, loc)
		if err != nil {
			return nil, err
		}
	}
	bt := builder.ResultType(base)
	return builtinCall(cc, builtinArrayView, []*ir.Node{bt, ot}, bt, []*ir.Node{base, offset}, loc)
}

// mustNullRef builds the null value of refType; get.null takes no
// arguments, the result type itself names the pointer family.
func mustNullRef(cc *ConversionContext, refType *ir.Node, loc diag.SourceLocation) *ir.Node {
	null, err := builtinCall(cc, builtinGetNull, nil, refType, nil, loc)
	if err != nil {
		panic(err)
	}
	return null
}

// lowerShortCircuit implements && and || via IfThenElse thunks:
// `a && b` becomes `IfThenElse(a, lambda(){b}, lambda(){false})` and `||`
// the mirror image, so the right operand is only evaluated when it
// matters.
func lowerShortCircuit(cc *ConversionContext, n srcast.BinaryExpr, loc diag.SourceLocation) (*ir.Node, error) {
	lhs, err := LowerExpr(cc, n.Lhs())
	if err != nil {
		return nil, err
	}
	rhs, err := LowerExpr(cc, n.Rhs())
	if err != nil {
		return nil, err
	}
	boolT := mustBool(cc)
	rhsThunk, err := cc.B.LambdaExpr(nil, rhs, boolT, true)
	if err != nil {
		return nil, err
	}
	litTrue, err := cc.B.BoolLit("true")
	if err != nil {
		return nil, err
	}
	litFalse, err := cc.B.BoolLit("false")
	if err != nil {
		return nil, err
	}
	var otherThunk *ir.Node
	if n.Op() == "&&" {
		otherThunk, err = cc.B.LambdaExpr(nil, litFalse, boolT, true)
	} else {
		otherThunk, err = cc.B.LambdaExpr(nil, litTrue, boolT, true)
	}
	if err != nil {
		return nil, err
	}
	thunkType, err := cc.M.FunctionType(nil, boolT, true)
	if err != nil {
		return nil, err
	}
	var args []*ir.Node
	if n.Op() == "&&" {
		args = []*ir.Node{lhs, rhsThunk, otherThunk}
	} else {
		args = []*ir.Node{lhs, otherThunk, rhsThunk}
	}
	return builtinCall(cc, builtinIfThenElse, []*ir.Node{boolT, thunkType, thunkType}, boolT, args, loc)
}

func lowerUnaryExpr(cc *ConversionContext, n srcast.UnaryExpr, loc diag.SourceLocation) (*ir.Node, error) {
	operand, err := LowerExpr(cc, n.Operand())
	if err != nil {
		return nil, err
	}
	t := builder.ResultType(operand)
	switch n.Op() {
	case "!":
		return builtinCall(cc, builtinLNot, []*ir.Node{t}, mustBool(cc), []*ir.Node{operand}, loc)
	case "-":
		return builtinCall(cc, "op.neg", []*ir.Node{t}, t, []*ir.Node{operand}, loc)
	case "~":
		return builtinCall(cc, "op.bnot", []*ir.Node{t}, t, []*ir.Node{operand}, loc)
	case "+":
		return operand, nil
	default:
		return nil, diag.New(diag.IllFormedNode, loc, "unsupported unary operator %q", n.Op())
	}
}

func lowerAssignExpr(cc *ConversionContext, n srcast.AssignExpr, loc diag.SourceLocation) (*ir.Node, error) {
	rhs, err := LowerExpr(cc, n.Rhs())
	if err != nil {
		return nil, err
	}
	return lowerStoreTo(cc, n.Lhs(), rhs, loc)
}

// lowerStoreTo lowers an assignment target and builds the matching store
// builtin; the rvalue form of an assignment expression (its own value) is
// the stored value itself, matching C's assignment-is-an-expression rule.
func lowerStoreTo(cc *ConversionContext, target srcast.Node, value *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	ref, err := lowerAsRef(cc, target)
	if err != nil {
		return nil, err
	}
	refType := builder.ResultType(ref)
	elem := refType.Child(0)
	if elem.Kind == ir.KindRefType && isZeroIntLiteral(value) {
		value = mustNullRef(cc, elem, loc)
	}
	coerced, err := cc.B.Coerce(value, elem, loc)
	if err != nil {
		return nil, err
	}
	// Ref.store evaluates to the value it wrote, matching C's
	// assignment-is-an-expression rule and letting this node stand alone in
	// statement position without losing the write as a side effect.
	return builtinCall(cc, "Ref.store", []*ir.Node{refType, elem}, elem, []*ir.Node{ref, coerced}, loc)
}

func mustUnit(cc *ConversionContext) *ir.Node {
	t, _ := cc.B.Unit()
	return t
}

// lowerAsRef lowers an lvalue expression to the Ref node addressing its
// storage, used by assignment, compound-assignment, inc/dec and &.
func lowerAsRef(cc *ConversionContext, n srcast.Node) (*ir.Node, error) {
	loc := n.Location()
	switch n.Kind() {
	case srcast.KindIdentExpr:
		ident := n.(srcast.IdentExpr)
		resolved := ident.Resolved()
		switch decl := resolved.(type) {
		case srcast.VarDecl:
			if decl.IsGlobal() {
				if _, ok, _ := InterceptGlobal(cc, decl, decl.Name()); ok {
					return nil, diag.New(diag.IllFormedNode, loc, "intercepted global %q is not an assignable storage location in this translation unit", decl.Name())
				}
				return FieldAccessForGlobal(cc, decl, loc) // already returns the Ref to the field
			}
			v, ok := cc.LookupVar(decl)
			if !ok {
				return nil, diag.New(diag.IllFormedNode, loc, "variable %q used before declaration", decl.Name())
			}
			return v, nil
		case srcast.ParamDecl:
			v, ok := cc.LookupVar(decl)
			if !ok {
				return nil, diag.New(diag.IllFormedNode, loc, "parameter %q used before declaration", decl.Name())
			}
			wrapped, err := cc.WrapRef(v)
			if err != nil {
				return nil, err
			}
			return wrapped, nil
		default:
			return nil, diag.New(diag.IllFormedNode, loc, "identifier is not an assignable storage location")
		}
	case srcast.KindDerefExpr:
		return LowerExpr(cc, n.(srcast.DerefExpr).Operand())
	case srcast.KindMemberExpr:
		return lowerMemberAsRef(cc, n.(srcast.MemberExpr), loc)
	case srcast.KindSubscriptExpr:
		return lowerSubscriptAsRef(cc, n.(srcast.SubscriptExpr), loc)
	default:
		return nil, diag.New(diag.IllFormedNode, loc, "expression is not an assignable storage location")
	}
}

// lowerCompoundAssignExpr rewrites `a @= b` as `a = a @ b`, but
// lowers the storage reference only once to preserve C's single-evaluation
// semantics for the lvalue.
func lowerCompoundAssignExpr(cc *ConversionContext, n srcast.CompoundAssignExpr, loc diag.SourceLocation) (*ir.Node, error) {
	ref, err := lowerAsRef(cc, n.Lhs())
	if err != nil {
		return nil, err
	}
	cur, err := derefBuiltin(cc, ref, loc)
	if err != nil {
		return nil, err
	}
	rhs, err := LowerExpr(cc, n.Rhs())
	if err != nil {
		return nil, err
	}
	common, err := typesys.Join(cc.M, builder.ResultType(cur), builder.ResultType(rhs))
	if err != nil {
		return nil, diag.New(diag.TypeMismatch, loc, "compound assignment %q: %v", n.Op(), err)
	}
	curC, err := cc.B.Coerce(cur, common, loc)
	if err != nil {
		return nil, err
	}
	rhsC, err := cc.B.Coerce(rhs, common, loc)
	if err != nil {
		return nil, err
	}
	updated, err := builtinCall(cc, "op"+n.Op(), []*ir.Node{common, common}, common, []*ir.Node{curC, rhsC}, loc)
	if err != nil {
		return nil, err
	}
	elem := builder.ResultType(ref).Child(0)
	coerced, err := cc.B.Coerce(updated, elem, loc)
	if err != nil {
		return nil, err
	}
	refType := builder.ResultType(ref)
	return builtinCall(cc, "Ref.store", []*ir.Node{refType, elem}, elem, []*ir.Node{ref, coerced}, loc)
}

// lowerIncDecExpr lowers `x++`/`x--`/`++x`/`--x` to a read, an op."+"/"-"
// with a literal 1, and a store, returning either the old or new value per
// IsPrefix.
func lowerIncDecExpr(cc *ConversionContext, n srcast.IncDecExpr, loc diag.SourceLocation) (*ir.Node, error) {
	ref, err := lowerAsRef(cc, n.Operand())
	if err != nil {
		return nil, err
	}
	cur, err := derefBuiltin(cc, ref, loc)
	if err != nil {
		return nil, err
	}
	t := builder.ResultType(cur)
	one, err := cc.B.IntLit("1", 4)
	if err != nil {
		return nil, err
	}
	oneC, err := cc.B.Coerce(one, t, loc)
	if err != nil {
		return nil, err
	}
	op := "+"
	if !n.IsIncrement() {
		op = "-"
	}
	updated, err := builtinCall(cc, "op"+op, []*ir.Node{t, t}, t, []*ir.Node{cur, oneC}, loc)
	if err != nil {
		return nil, err
	}
	store, err := builtinCall(cc, "Ref.store", []*ir.Node{builder.ResultType(ref), t}, t, []*ir.Node{ref, updated}, loc)
	if err != nil {
		return nil, err
	}
	if n.IsPrefix() {
		return store, nil
	}
	// Postfix: the store must still run, but the expression's value is the
	// pre-update read, not the write. "seq" evaluates both args in order
	// and yields the second, giving the write its effect without changing
	// the result.
	return builtinCall(cc, "seq", []*ir.Node{t, t}, t, []*ir.Node{store, cur}, loc)
}

func lowerCallExpr(cc *ConversionContext, n srcast.CallExpr, loc diag.SourceLocation) (*ir.Node, error) {
	if special, ok, err := lowerSpecialCall(cc, n, loc); ok || err != nil {
		return special, err
	}
	fn, err := LowerExpr(cc, n.Callee())
	if err != nil {
		return nil, err
	}
	args := make([]*ir.Node, len(n.Args()))
	for i, a := range n.Args() {
		v, err := LowerExpr(cc, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return cc.B.CallExpr(fn, args, loc)
}

// lowerSpecialCall recognizes the small set of standard-library names the
// converter treats as builtins rather than ordinary calls: malloc, calloc
// and free, recognized by name. ok is false for an ordinary
// call.
func lowerSpecialCall(cc *ConversionContext, n srcast.CallExpr, loc diag.SourceLocation) (*ir.Node, bool, error) {
	ident, ok := n.Callee().(srcast.IdentExpr)
	if !ok {
		return nil, false, nil
	}
	switch ident.Name() {
	case "malloc", "calloc":
		return nil, false, nil // element type isn't recoverable from the raw byte count without a cast context; handled in lowerCastExpr instead
	case "free":
		if len(n.Args()) != 1 {
			return nil, false, nil
		}
		arg, err := LowerExpr(cc, n.Args()[0])
		if err != nil {
			return nil, true, err
		}
		t := builder.ResultType(arg)
		call, err := builtinCall(cc, builtinRefDelete, []*ir.Node{t}, mustUnit(cc), []*ir.Node{arg}, loc)
		return call, true, err
	default:
		return nil, false, nil
	}
}

func lowerCastExpr(cc *ConversionContext, n srcast.CastExpr, loc diag.SourceLocation) (*ir.Node, error) {
	if call, ok, err := lowerMallocCast(cc, n, loc); ok || err != nil {
		return call, err
	}
	operand, err := LowerExpr(cc, n.Operand())
	if err != nil {
		return nil, err
	}
	target, err := LowerType(cc, n.Target().Desugar())
	if err != nil {
		return nil, err
	}
	src := builder.ResultType(operand)
	if src != nil && src.Kind == ir.KindVectorType && target.Kind == ir.KindRefType {
		elem := src.Child(0)
		arr, err := cc.M.ArrayType(elem)
		if err != nil {
			return nil, err
		}
		refArr, err := cc.M.RefType(arr)
		if err != nil {
			return nil, err
		}
		return builtinCall(cc, builtinRefVectorToRefArray, []*ir.Node{src}, refArr, []*ir.Node{operand}, loc)
	}
	if src != nil && src.Kind == ir.KindGenericType && isRealFamily(src) && isIntFamily(target) {
		return builtinCall(cc, builtinRealToInt, []*ir.Node{src}, target, []*ir.Node{operand}, loc)
	}
	return cc.B.CastExpr(target, operand, loc)
}

func isRealFamily(t *ir.Node) bool { return t.Kind == ir.KindGenericType && t.Payload.Text == "real" }
func isIntFamily(t *ir.Node) bool {
	return t.Kind == ir.KindGenericType && (t.Payload.Text == "int" || t.Payload.Text == "uint")
}

// lowerMallocCast recognizes `(T*) malloc(n * sizeof(T))` and
// `(T*) calloc(n, sizeof(T))`, the only shape malloc/calloc are reliably
// lowerable from without a full constant-folding pass: the cast's target
// type supplies the element type RefNew(ArrayCreate1D) needs.
func lowerMallocCast(cc *ConversionContext, n srcast.CastExpr, loc diag.SourceLocation) (*ir.Node, bool, error) {
	call, ok := n.Operand().(srcast.CallExpr)
	if !ok {
		return nil, false, nil
	}
	ident, ok := call.Callee().(srcast.IdentExpr)
	if !ok || (ident.Name() != "malloc" && ident.Name() != "calloc") {
		return nil, false, nil
	}
	target, err := LowerType(cc, n.Target().Desugar())
	if err != nil {
		return nil, true, err
	}
	if target.Kind != ir.KindRefType {
		return nil, false, nil
	}
	arr := target.Child(0)
	if arr.Kind != ir.KindArrayType {
		return nil, false, nil
	}
	elem := arr.Child(0)
	count, err := lowerAllocCount(cc, call, elem, loc)
	if err != nil {
		return nil, true, err
	}
	sizeT, err := cc.B.UInt(8)
	if err != nil {
		return nil, true, err
	}
	created, err := builtinCall(cc, builtinArrayCreate1D, []*ir.Node{sizeT}, arr, []*ir.Node{count}, loc)
	if err != nil {
		return nil, true, err
	}
	result, err := builtinCall(cc, builtinRefNew, []*ir.Node{arr}, target, []*ir.Node{created}, loc)
	return result, true, err
}

// lowerAllocCount extracts the element-count argument out of a malloc or
// calloc call; for malloc(n * sizeof(T)) the product's non-sizeof operand
// is the count, and for calloc(n, sizeof(T)) it is the first argument.
func lowerAllocCount(cc *ConversionContext, call srcast.CallExpr, elem *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	args := call.Args()
	if len(args) == 2 {
		return LowerExpr(cc, args[0])
	}
	if len(args) == 1 {
		if bin, ok := args[0].(srcast.BinaryExpr); ok && bin.Op() == "*" {
			if _, isSizeof := bin.Rhs().(srcast.SizeofExpr); isSizeof {
				return LowerExpr(cc, bin.Lhs())
			}
			if _, isSizeof := bin.Lhs().(srcast.SizeofExpr); isSizeof {
				return LowerExpr(cc, bin.Rhs())
			}
		}
		return LowerExpr(cc, args[0])
	}
	return nil, diag.New(diag.IllFormedNode, loc, "malloc/calloc: unrecognized argument shape")
}

func lowerMemberExpr(cc *ConversionContext, n srcast.MemberExpr, loc diag.SourceLocation) (*ir.Node, error) {
	ref, err := lowerMemberAsRef(cc, n, loc)
	if err == nil {
		return derefBuiltin(cc, ref, loc)
	}
	if n.IsArrow() {
		return nil, err
	}
	// A `.` access whose base has no storage (a call returning a struct by
	// value, a struct literal) reads the member straight off the value.
	base, berr := LowerExpr(cc, n.Base())
	if berr != nil {
		return nil, err
	}
	bt := builder.ResultType(base)
	if bt == nil || (bt.Kind != ir.KindStructType && bt.Kind != ir.KindUnionType) {
		return nil, err
	}
	idx := fieldIndex(bt, n.Field())
	if idx < 0 {
		return nil, diag.New(diag.IllFormedNode, loc, "unknown field %q", n.Field())
	}
	fieldType := bt.Child(idx).Child(0)
	idxLit, lerr := cc.B.IntLit(strconv.Itoa(idx), 4)
	if lerr != nil {
		return nil, lerr
	}
	return builtinCall(cc, builtinCompositeMemberAccess, []*ir.Node{bt, builder.ResultType(idxLit)}, fieldType, []*ir.Node{base, idxLit}, loc)
}

// lowerMemberAsRef lowers `base.field` / `base->field` to the Ref
// addressing the field's storage, via CompositeRefElem. For a `.` access
// the base is lowered as an lvalue; a base that does not lower to a Ref
// (a struct rvalue) is rejected with TypeMismatch.
func lowerMemberAsRef(cc *ConversionContext, n srcast.MemberExpr, loc diag.SourceLocation) (*ir.Node, error) {
	var base *ir.Node
	var err error
	if n.IsArrow() {
		base, err = LowerExpr(cc, n.Base())
	} else {
		base, err = lowerAsRef(cc, n.Base())
	}
	if err != nil {
		return nil, err
	}
	bt := builder.ResultType(base)
	if bt == nil || bt.Kind != ir.KindRefType {
		return nil, diag.New(diag.TypeMismatch, loc, "member access on a non-addressable struct value")
	}
	structType := bt.Child(0)
	idx := fieldIndex(structType, n.Field())
	if idx < 0 {
		return nil, diag.New(diag.IllFormedNode, loc, "unknown field %q", n.Field())
	}
	return compositeRefElem(cc, base, idx, loc)
}

func fieldIndex(structType *ir.Node, name string) int {
	for i := 0; i < structType.Arity(); i++ {
		if structType.Child(i).Payload.Text == name {
			return i
		}
	}
	return -1
}

func lowerSubscriptExpr(cc *ConversionContext, n srcast.SubscriptExpr, loc diag.SourceLocation) (*ir.Node, error) {
	ref, err := lowerSubscriptAsRef(cc, n, loc)
	if err == nil {
		return derefBuiltin(cc, ref, loc)
	}
	// Subscripting a value with no storage (a vector returned by value,
	// a literal) reads the element straight off the value.
	base, berr := LowerExpr(cc, n.Base())
	if berr != nil {
		return nil, err
	}
	index, ierr := LowerExpr(cc, n.Index())
	if ierr != nil {
		return nil, ierr
	}
	bt, it := builder.ResultType(base), builder.ResultType(index)
	switch {
	case bt != nil && bt.Kind == ir.KindVectorType:
		return builtinCall(cc, builtinVectorSubscript, []*ir.Node{bt, it}, ir.VectorTypeElem(bt), []*ir.Node{base, index}, loc)
	case bt != nil && bt.Kind == ir.KindArrayType:
		return builtinCall(cc, builtinArraySubscript1D, []*ir.Node{bt, it}, ir.ArrayTypeElem(bt), []*ir.Node{base, index}, loc)
	default:
		return nil, err
	}
}

// lowerSubscriptAsRef lowers `base[index]` to the Ref addressing the
// indexed element. The base is lowered exactly once; its result type picks
// the array or vector builtin family.
func lowerSubscriptAsRef(cc *ConversionContext, n srcast.SubscriptExpr, loc diag.SourceLocation) (*ir.Node, error) {
	index, err := LowerExpr(cc, n.Index())
	if err != nil {
		return nil, err
	}
	indexType := builder.ResultType(index)

	base, err := LowerExpr(cc, n.Base())
	if err != nil {
		return nil, err
	}
	bt := builder.ResultType(base)

	if bt != nil && bt.Kind == ir.KindVectorType {
		refElem, err := cc.M.RefType(ir.VectorTypeElem(bt))
		if err != nil {
			return nil, err
		}
		return builtinCall(cc, builtinVectorRefElem, []*ir.Node{bt, indexType}, refElem, []*ir.Node{base, index}, loc)
	}

	if bt == nil || bt.Kind != ir.KindRefType {
		return nil, diag.New(diag.TypeMismatch, loc, "subscript applied to a non-array, non-vector value")
	}
	inner := ir.RefTypeElem(bt)
	switch inner.Kind {
	case ir.KindVectorType:
		refElem, err := cc.M.RefType(ir.VectorTypeElem(inner))
		if err != nil {
			return nil, err
		}
		return builtinCall(cc, builtinVectorRefElem, []*ir.Node{bt, indexType}, refElem, []*ir.Node{base, index}, loc)
	case ir.KindArrayType:
		refElem, err := cc.M.RefType(ir.ArrayTypeElem(inner))
		if err != nil {
			return nil, err
		}
		return builtinCall(cc, builtinArrayRefElem1D, []*ir.Node{bt, indexType}, refElem, []*ir.Node{base, index}, loc)
	default:
		return nil, diag.New(diag.TypeMismatch, loc, "subscript applied to a non-array, non-vector reference")
	}
}

func lowerAddrOfExpr(cc *ConversionContext, n srcast.AddrOfExpr, loc diag.SourceLocation) (*ir.Node, error) {
	return lowerAsRef(cc, n.Operand())
}

func lowerDerefExpr(cc *ConversionContext, n srcast.DerefExpr, loc diag.SourceLocation) (*ir.Node, error) {
	ref, err := LowerExpr(cc, n.Operand())
	if err != nil {
		return nil, err
	}
	return derefBuiltin(cc, ref, loc)
}

// LowerInitList lowers a brace initializer against target, implementing
// the broadcast (fewer elements than fields: zero-fill) and positional
// (exactly as many elements as fields/size: one-to-one) rules.
func LowerInitList(cc *ConversionContext, n srcast.InitListExpr, target *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	elems := n.Elems()
	switch target.Kind {
	case ir.KindStructType, ir.KindUnionType:
		values := make([]*ir.Node, target.Arity())
		for i := 0; i < target.Arity(); i++ {
			ft := target.Child(i).Child(0)
			if i < len(elems) {
				v, err := lowerInitElem(cc, elems[i], ft, loc)
				if err != nil {
					return nil, err
				}
				values[i] = v
			} else {
				z, err := zeroValue(cc, ft, loc)
				if err != nil {
					return nil, err
				}
				values[i] = z
			}
		}
		return cc.M.StructExpr(target, values)
	case ir.KindVectorType:
		elem := target.Child(0)
		size := int(target.Payload.Int)
		values := make([]*ir.Node, size)
		for i := 0; i < size; i++ {
			if i < len(elems) {
				v, err := lowerInitElem(cc, elems[i], elem, loc)
				if err != nil {
					return nil, err
				}
				values[i] = v
			} else {
				z, err := zeroValue(cc, elem, loc)
				if err != nil {
					return nil, err
				}
				values[i] = z
			}
		}
		return cc.M.VectorExpr(target, values)
	default:
		if len(elems) != 1 {
			return nil, diag.New(diag.IllFormedNode, loc, "scalar initializer requires exactly one element")
		}
		return lowerInitElem(cc, elems[0], target, loc)
	}
}

func lowerInitElem(cc *ConversionContext, n srcast.Node, target *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	if lst, ok := n.(srcast.InitListExpr); ok {
		return LowerInitList(cc, lst, target, loc)
	}
	v, err := LowerExpr(cc, n)
	if err != nil {
		return nil, err
	}
	return cc.B.Coerce(v, target, loc)
}

// zeroValue produces the zero-initializer for t, used to fill initializer
// lists shorter than their target's field/element count.
func zeroValue(cc *ConversionContext, t *ir.Node, loc diag.SourceLocation) (*ir.Node, error) {
	switch {
	case t.Kind == ir.KindGenericType && t.Payload.Text == "int":
		return cc.B.IntLit("0", numericWidth(t))
	case t.Kind == ir.KindGenericType && t.Payload.Text == "uint":
		return cc.B.UIntLit("0", numericWidth(t))
	case t.Kind == ir.KindGenericType && t.Payload.Text == "real":
		return cc.B.RealLit("0", numericWidth(t))
	case t.Kind == ir.KindGenericType && t.Payload.Text == "bool":
		return cc.B.BoolLit("false")
	case t.Kind == ir.KindStructType || t.Kind == ir.KindUnionType:
		return LowerInitList(cc, emptyInitList{}, t, loc)
	case t.Kind == ir.KindRefType:
		return builtinCall(cc, builtinGetNull, nil, t, nil, loc)
	case t.Kind == ir.KindGenericType && t.Payload.Text == "char":
		return cc.B.CharLit("\x00")
	default:
		return nil, diag.New(diag.UnsupportedType, loc, "no zero value for %s", ir.Print(t))
	}
}

func numericWidth(t *ir.Node) int64 {
	_, intParams, _ := ir.GenericTypeParams(t)
	if len(intParams) == 1 && intParams[0].Kind == ir.KindConcreteIntTypeParam {
		return intParams[0].Payload.Int
	}
	return 4
}

// emptyInitList is a zero-element srcast.InitListExpr used internally to
// recurse zeroValue through LowerInitList's broadcast rule for nested
// aggregates.
type emptyInitList struct{}

func (emptyInitList) Kind() srcast.Kind             { return srcast.KindInitListExpr }
func (emptyInitList) Children() []srcast.Node       { return nil }
func (emptyInitList) Location() diag.SourceLocation { return diag.SourceLocation{} }
func (emptyInitList) Elems() []srcast.Node          { return nil }

func lowerSizeofExpr(cc *ConversionContext, n srcast.SizeofExpr, loc diag.SourceLocation) (*ir.Node, error) {
	// The converter has no target-dependent layout information (that is
	// the backend type manager's job); sizeof resolves to an opaque
	// builtin call carrying the lowered operand type, evaluated once the
	// backend assigns it a concrete size.
	t, err := LowerType(cc, n.OperandType().Desugar())
	if err != nil {
		return nil, err
	}
	sizeT, err := cc.B.UInt(8)
	if err != nil {
		return nil, err
	}
	fn, err := builtinFn(cc, "sizeof", nil, sizeT)
	if err != nil {
		return nil, err
	}
	call, err := cc.M.CallExpr(sizeT, fn, nil)
	if err != nil {
		return nil, err
	}
	call.Annotate(ir.AnnotationTransformHint, t)
	return call, nil
}
