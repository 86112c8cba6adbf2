package convert

import (
	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/ir/builder"
)

// originalMainName is the source-level entry point a translation unit
// exposes; LowerProgram wraps its lowered lambda in a fresh entry point
// that allocates the globals aggregate before calling through (see
// globals.go for the naming convention this mirrors).
const originalMainName = "main"

// LowerProgram converts a whole translation unit into the IR Program root
// the backend consumes. Every top-level global is registered before any
// function body is lowered, since a function that references a global
// forward-declared below it in source order still needs GlobalsParamType
// to see the field — the aggregate's shape is a whole-unit property, not a
// per-declaration one.
func LowerProgram(cc *ConversionContext, prog srcast.Program) (*ir.Node, error) {
	var funcs []srcast.FuncDecl
	var mainDecl srcast.FuncDecl

	for _, d := range prog.Decls() {
		vd, ok := d.(srcast.VarDecl)
		if !ok {
			if fd, ok := d.(srcast.FuncDecl); ok {
				if fd.Name() == originalMainName && fd.Body() != nil {
					mainDecl = fd
					continue
				}
				funcs = append(funcs, fd)
			}
			continue
		}
		if err := RegisterGlobal(cc, vd); err != nil {
			return nil, err
		}
	}

	entryPoints := make([]*ir.Node, 0, len(funcs)+1)
	for _, fd := range funcs {
		lam, err := lowerTopLevelFunc(cc, fd)
		if err != nil {
			return nil, err
		}
		ep, err := cc.M.EntryPoint(lam, false)
		if err != nil {
			return nil, err
		}
		entryPoints = append(entryPoints, ep)
	}

	if mainDecl != nil {
		wrapped, err := wrapMain(cc, mainDecl)
		if err != nil {
			return nil, err
		}
		ep, err := cc.M.EntryPoint(wrapped, true)
		if err != nil {
			return nil, err
		}
		entryPoints = append(entryPoints, ep)
	}

	return cc.M.Program(entryPoints)
}

// lowerTopLevelFunc applies the same InterceptFuncDecl check LowerExpr uses
// for a called function, so a top-level intercepted declaration is never
// converted even when it happens to carry a body (e.g. a header-supplied
// inline definition the driver chose to intercept anyway via --intercept).
func lowerTopLevelFunc(cc *ConversionContext, fd srcast.FuncDecl) (*ir.Node, error) {
	if lit, ok, err := InterceptFuncDecl(cc, fd, fd.Name()); ok || err != nil {
		return lit, err
	}
	return LowerFuncDecl(cc, fd)
}

// wrapMain lowers the translation unit's original main and, when globals
// are present, synthesizes a fresh zero-argument entry point that allocates
// the globals aggregate and forwards to it. The original main is renamed
// out of the way: its lambda is tagged with the internal wrappedMainName
// and the synthesized wrapper takes over the "main" name, so generated
// programs keep a single externally callable main. When no global was ever
// registered the lowered main is the entry point as-is.
func wrapMain(cc *ConversionContext, mainDecl srcast.FuncDecl) (*ir.Node, error) {
	inner, err := lowerTopLevelFunc(cc, mainDecl)
	if err != nil {
		return nil, err
	}
	if cc.globals.Empty() {
		return inner, nil
	}

	innerType := builder.ResultType(inner)
	retType := ir.FunctionTypeReturn(innerType)
	params := ir.FunctionTypeParams(innerType)
	if len(params) == 0 {
		// main never touched a global, directly or transitively; nothing to
		// allocate on its behalf, but the aggregate still needs storage for
		// the other entry points, which the driver wires up itself.
		return inner, nil
	}
	globalsRefType := params[0]
	if globalsRefType.Kind != ir.KindRefType {
		return nil, diag.New(diag.IllFormedNode, locationOf(mainDecl), "wrapped main's leading parameter is not the globals reference")
	}
	storage, err := cc.B.Variable(globalsRefType)
	if err != nil {
		return nil, err
	}
	init, err := cc.globals.InitExpr(cc, locationOf(mainDecl))
	if err != nil {
		return nil, err
	}
	declStmt, err := cc.M.DeclarationStmt(storage, init)
	if err != nil {
		return nil, err
	}

	call, err := cc.B.CallExpr(inner, []*ir.Node{storage}, locationOf(mainDecl))
	if err != nil {
		return nil, err
	}
	retStmt, err := cc.M.ReturnStmt(returnValueOrNil(call, retType))
	if err != nil {
		return nil, err
	}
	body, err := cc.M.CompoundStmt([]*ir.Node{declStmt, retStmt})
	if err != nil {
		return nil, err
	}

	wrapper, err := cc.B.LambdaExpr(nil, body, retType, true)
	if err != nil {
		return nil, err
	}
	inner.Annotate(ir.AnnotationOriginalCName, wrappedMainName)
	wrapper.Annotate(ir.AnnotationOriginalCName, originalMainName)
	return wrapper, nil
}

// returnValueOrNil avoids building a ReturnStmt carrying a Unit-typed call
// result for a void main, matching the bare `return;` convention
// lowerReturnStmt already uses for a source-level void function.
func returnValueOrNil(call, retType *ir.Node) *ir.Node {
	if retType == nil || ir.IsUnitType(retType) {
		return nil
	}
	return call
}
