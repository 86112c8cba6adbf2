package convert

import (
	"github.com/samber/lo"

	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
)

// LowerFuncDecl lowers a function declaration, resolving any
// strongly connected component of mutually recursive functions decl
// participates in, and threading the globals aggregate parameter
// into every member that reads or writes a global, directly or through a
// callee. A function with no body (an external declaration, e.g. a libc
// prototype) lowers to an opaque Literal of its function type instead.
func LowerFuncDecl(cc *ConversionContext, decl srcast.FuncDecl) (*ir.Node, error) {
	if v, ok := cc.funcLambdas[decl]; ok {
		return v, nil
	}
	if v, ok := cc.funcRecVars[decl]; ok {
		return v, nil
	}
	if decl.Body() == nil {
		return lowerExternFunc(cc, decl)
	}

	members, hasSelfEdge, usesGlobal := funcSCC(cc, decl)
	cyclic := len(members) > 1 || hasSelfEdge

	if !cyclic {
		lam, err := lowerFuncLambdaOnly(cc, decl, usesGlobal[decl])
		if err != nil {
			return nil, err
		}
		cc.funcLambdas[decl] = lam
		return lam, nil
	}

	vars := make([]*ir.Node, len(members))
	for i, m := range members {
		ft, err := funcDeclType(cc, m, usesGlobal[m])
		if err != nil {
			return nil, err
		}
		v, err := cc.B.Variable(ft)
		if err != nil {
			return nil, err
		}
		vars[i] = v
		cc.funcRecVars[m] = v
		cc.resolvingFunc[m] = true
	}
	defer func() {
		for _, m := range members {
			delete(cc.resolvingFunc, m)
		}
	}()

	lambdas := make([]*ir.Node, len(members))
	for i, m := range members {
		lam, err := lowerFuncLambdaOnly(cc, m, usesGlobal[m])
		if err != nil {
			return nil, err
		}
		lambdas[i] = lam
	}

	def, err := cc.M.LambdaDefinition(vars, lambdas)
	if err != nil {
		return nil, err
	}
	var result *ir.Node
	for i, m := range members {
		rec, err := cc.M.RecLambdaExpr(vars[i], def)
		if err != nil {
			return nil, err
		}
		cc.funcLambdas[m] = rec
		delete(cc.funcRecVars, m)
		if m == decl {
			result = rec
		}
	}
	return result, nil
}

func lowerExternFunc(cc *ConversionContext, decl srcast.FuncDecl) (*ir.Node, error) {
	ft, err := funcDeclType(cc, decl, false)
	if err != nil {
		return nil, err
	}
	lit, err := cc.M.Literal(decl.Name(), ft)
	if err != nil {
		return nil, err
	}
	cc.funcLambdas[decl] = lit
	return lit, nil
}

// funcDeclType builds decl's external function type: the globals parameter
// (if usesGlobal) prepended to decl's own plain, unwrapped parameter types,
// with a trailing VarList marker for a variadic declaration (builder rule
// B2). This is the type every caller sees and the type the SCC placeholder
// Variable carries while its members are still being resolved.
func funcDeclType(cc *ConversionContext, decl srcast.FuncDecl, usesGlobal bool) (*ir.Node, error) {
	var params []*ir.Node
	if usesGlobal {
		gp, err := GlobalsParamType(cc)
		if err != nil {
			return nil, err
		}
		if gp != nil {
			params = append(params, gp)
		}
	}
	for _, p := range decl.Params() {
		pt, err := LowerType(cc, p.Type())
		if err != nil {
			return nil, err
		}
		params = append(params, pt)
	}
	if decl.IsVariadic() {
		marker, err := cc.M.GenericType("VarList", nil, nil, nil)
		if err != nil {
			return nil, err
		}
		params = append(params, marker)
	}
	ret, err := LowerType(cc, decl.ReturnType())
	if err != nil {
		return nil, err
	}
	return cc.M.FunctionType(params, ret, true)
}

// lowerFuncLambdaOnly lowers decl's body to a single LambdaExpr (never
// wrapped in RecLambdaExpr — the caller does that for a cyclic SCC). The
// globals parameter and return type are threaded through cc for the
// duration of this call via save/restore, since cc is shared across every
// function in the translation unit.
func lowerFuncLambdaOnly(cc *ConversionContext, decl srcast.FuncDecl, usesGlobal bool) (*ir.Node, error) {
	savedGlobalVar, savedReturnType := cc.globalVar, cc.currentReturnType
	defer func() { cc.globalVar, cc.currentReturnType = savedGlobalVar, savedReturnType }()

	retType, err := LowerType(cc, decl.ReturnType())
	if err != nil {
		return nil, err
	}
	cc.currentReturnType = retType

	var params []*ir.Node
	cc.globalVar = nil
	if usesGlobal {
		gp, err := GlobalsParamType(cc)
		if err != nil {
			return nil, err
		}
		if gp == nil {
			return nil, diag.New(diag.GlobalVariableDeclaration, locationOf(decl), "function %q needs the globals parameter but no global has been registered", decl.Name())
		}
		gv, err := cc.B.Variable(gp)
		if err != nil {
			return nil, err
		}
		cc.globalVar = gv
		params = append(params, gv)
	}

	paramVars := make([]*ir.Node, len(decl.Params()))
	for i, p := range decl.Params() {
		pt, err := LowerType(cc, p.Type())
		if err != nil {
			return nil, err
		}
		v, err := cc.B.Variable(pt)
		if err != nil {
			return nil, err
		}
		cc.BindVar(p, v)
		paramVars[i] = v
	}
	params = append(params, paramVars...)
	if decl.IsVariadic() {
		marker, err := cc.M.GenericType("VarList", nil, nil, nil)
		if err != nil {
			return nil, err
		}
		// The trailing parameter is a VarList-typed binding the callers'
		// packed tail arrives in.
		tail, err := cc.B.Variable(marker)
		if err != nil {
			return nil, err
		}
		params = append(params, tail)
	}

	// A by-value parameter that the body mutates or takes the address of
	// needs Ref-backed storage just like an ordinary local; seed it from
	// the plain incoming parameter before the rest of the body runs.
	refNeeds := map[srcast.Node]bool{}
	collectRefNeeds(decl.Body(), refNeeds)
	var seeds []*ir.Node
	for i, p := range decl.Params() {
		if !refNeeds[p] {
			continue
		}
		wrapped, err := cc.WrapRef(paramVars[i])
		if err != nil {
			return nil, err
		}
		seed, err := cc.M.DeclarationStmt(wrapped, paramVars[i])
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}

	var bodyStmts []*ir.Node
	if cs, ok := decl.Body().(srcast.CompoundStmt); ok {
		bodyStmts, err = lowerStmtList(cc, cs.Stmts())
	} else {
		bodyStmts, err = lowerStmtMulti(cc, decl.Body())
	}
	if err != nil {
		return nil, err
	}
	bodyIR, err := cc.M.CompoundStmt(append(seeds, bodyStmts...))
	if err != nil {
		return nil, err
	}

	return cc.B.LambdaExpr(params, bodyIR, retType, true)
}

// --- call graph / global-use analysis ---

// funcSCC computes the strongly connected component of the call graph
// (direct calls only, resolved by identity) containing root, using Tarjan's
// algorithm over funcDependsOn, dual to types.go's recordSCC. It also
// returns, for every function visited, whether it or any function it can
// reach uses a global — computed bottom-up as each SCC completes, since
// Tarjan closes a component only after every function it can reach (other
// than its own members) has already been resolved.
func funcSCC(cc *ConversionContext, root srcast.FuncDecl) (members []srcast.FuncDecl, hasSelfEdge bool, usesGlobal map[srcast.FuncDecl]bool) {
	index := 0
	indices := map[srcast.FuncDecl]int{}
	lowlink := map[srcast.FuncDecl]int{}
	onStack := map[srcast.FuncDecl]bool{}
	var stack []srcast.FuncDecl
	var sccs [][]srcast.FuncDecl
	usesGlobal = map[srcast.FuncDecl]bool{}

	var strongconnect func(v srcast.FuncDecl)
	strongconnect = func(v srcast.FuncDecl) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range funcDependsOn(v) {
			if w == v {
				hasSelfEdge = hasSelfEdge || v == root
				continue
			}
			if w.Body() == nil {
				continue // external leaf: never part of an SCC
			}
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []srcast.FuncDecl
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			anyGlobal := false
			for _, m := range scc {
				if len(collectGlobalRefs(m.Body())) > 0 {
					anyGlobal = true
				}
				for _, callee := range funcDependsOn(m) {
					if callee.Body() != nil && usesGlobal[callee] {
						anyGlobal = true
					}
				}
			}
			for _, m := range scc {
				usesGlobal[m] = anyGlobal
			}
			sccs = append(sccs, scc)
		}
	}
	strongconnect(root)

	for _, scc := range sccs {
		if lo.Contains(scc, root) {
			return scc, hasSelfEdge, usesGlobal
		}
	}
	return []srcast.FuncDecl{root}, hasSelfEdge, usesGlobal
}

// funcDependsOn returns every FuncDecl a direct call in decl's body resolves
// to.
func funcDependsOn(decl srcast.FuncDecl) []srcast.FuncDecl {
	var out []srcast.FuncDecl
	collectCallees(decl.Body(), &out)
	return lo.Uniq(out)
}

func collectCallees(n srcast.Node, out *[]srcast.FuncDecl) {
	if n == nil {
		return
	}
	if call, ok := n.(srcast.CallExpr); ok {
		if ident, ok := call.Callee().(srcast.IdentExpr); ok {
			if fd, ok := ident.Resolved().(srcast.FuncDecl); ok {
				*out = append(*out, fd)
			}
		}
	}
	for _, c := range n.Children() {
		collectCallees(c, out)
	}
}

// collectGlobalRefs returns every global VarDecl n's subtree reads or
// writes, found by resolving every IdentExpr it contains.
func collectGlobalRefs(n srcast.Node) []srcast.VarDecl {
	var out []srcast.VarDecl
	var walk func(n srcast.Node)
	walk = func(n srcast.Node) {
		if n == nil {
			return
		}
		if ident, ok := n.(srcast.IdentExpr); ok {
			if vd, ok := ident.Resolved().(srcast.VarDecl); ok && vd.IsGlobal() {
				out = append(out, vd)
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	return lo.Uniq(out)
}

// collectRefNeeds marks, in out, every declaration (ParamDecl here; the
// same walk would find locals too, but those are already unconditionally
// Ref-backed) that n's subtree assigns to, increments/decrements, or takes
// the address of — the set that must be wrapped in Ref.
func collectRefNeeds(n srcast.Node, out map[srcast.Node]bool) {
	if n == nil {
		return
	}
	switch t := n.(type) {
	case srcast.AssignExpr:
		markLvalue(t.Lhs(), out)
	case srcast.CompoundAssignExpr:
		markLvalue(t.Lhs(), out)
	case srcast.IncDecExpr:
		markLvalue(t.Operand(), out)
	case srcast.AddrOfExpr:
		markLvalue(t.Operand(), out)
	}
	for _, c := range n.Children() {
		collectRefNeeds(c, out)
	}
}

func markLvalue(n srcast.Node, out map[srcast.Node]bool) {
	if ident, ok := n.(srcast.IdentExpr); ok {
		if resolved := ident.Resolved(); resolved != nil {
			out[resolved] = true
		}
	}
}
