package convert

import (
	"github.com/samber/lo"

	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
)

// LowerType lowers a source type to its IR form.
// typedef is transparent — the underlying type is lowered and the
// type-name is attached as an annotation rather than introducing any IR
// construct of its own.
func LowerType(cc *ConversionContext, t srcast.TypeNode) (*ir.Node, error) {
	loc := t.Location()
	switch t.Kind() {
	case srcast.KindBuiltinType:
		return lowerBuiltinType(cc, t.(srcast.BuiltinType), loc)
	case srcast.KindPointerType:
		return lowerPointerType(cc, t.(srcast.PointerType), loc)
	case srcast.KindConstArrayType:
		return lowerConstArrayType(cc, t.(srcast.ConstArrayType), loc)
	case srcast.KindIncompleteArrayType:
		return lowerIncompleteArrayType(cc, t.(srcast.IncompleteArrayType), loc)
	case srcast.KindVariableArrayType:
		return lowerVariableArrayType(cc, t.(srcast.VariableArrayType), loc)
	case srcast.KindFunctionProtoType:
		return lowerFunctionProtoType(cc, t.(srcast.FunctionProtoType), loc)
	case srcast.KindRecordRefType:
		return LowerRecordType(cc, t.(srcast.RecordRefType).Decl())
	case srcast.KindTypedefNameType:
		return lowerTypedefType(cc, t.(srcast.TypedefNameType), loc)
	default:
		return nil, diag.New(diag.UnsupportedType, loc, "unsupported source type kind %s", t.Kind())
	}
}

// builtinTable maps every scalar spelling the collaborator is expected to
// produce to its (family, width) GenericType.
var builtinTable = map[string]struct {
	family string
	width  int64
}{
	"void":               {},
	"_Bool":              {"bool", 0},
	"bool":               {"bool", 0},
	"char":               {"char", 0},
	"signed char":        {"int", 1},
	"unsigned char":      {"uint", 1},
	"short":              {"int", 2},
	"unsigned short":     {"uint", 2},
	"int":                {"int", 4},
	"unsigned int":       {"uint", 4},
	"long":               {"int", 8},
	"unsigned long":      {"uint", 8},
	"long long":          {"int", 16},
	"unsigned long long": {"uint", 16},
	"float":              {"real", 4},
	"double":             {"real", 8},
}

func lowerBuiltinType(cc *ConversionContext, t srcast.BuiltinType, loc diag.SourceLocation) (*ir.Node, error) {
	entry, ok := builtinTable[t.Name()]
	if !ok {
		return nil, diag.New(diag.UnsupportedType, loc, "unsupported builtin type %q", t.Name())
	}
	switch entry.family {
	case "":
		return cc.B.Unit()
	case "bool":
		return cc.B.Bool()
	case "char":
		return cc.B.Char()
	case "int":
		return cc.B.Int(entry.width)
	case "uint":
		return cc.B.UInt(entry.width)
	case "real":
		return cc.B.Real(entry.width)
	default:
		return nil, diag.New(diag.UnsupportedType, loc, "unsupported builtin family %q", entry.family)
	}
}

// lowerPointerType implements the `T*` rule: Ref(Array(T)), except
// `void*` which lowers to the dedicated any-ref type.
func lowerPointerType(cc *ConversionContext, t srcast.PointerType, loc diag.SourceLocation) (*ir.Node, error) {
	pointee := t.Pointee().Desugar()
	if pointee.Kind() == srcast.KindBuiltinType && pointee.(srcast.BuiltinType).Name() == "void" {
		return cc.B.AnyRef()
	}
	elem, err := LowerType(cc, pointee)
	if err != nil {
		return nil, err
	}
	arr, err := cc.M.ArrayType(elem)
	if err != nil {
		return nil, err
	}
	return cc.M.RefType(arr)
}

// lowerConstArrayType implements `T[n]` -> Vector(T, n).
func lowerConstArrayType(cc *ConversionContext, t srcast.ConstArrayType, loc diag.SourceLocation) (*ir.Node, error) {
	elem, err := LowerType(cc, t.Elem().Desugar())
	if err != nil {
		return nil, err
	}
	return cc.M.VectorType(elem, t.Size())
}

// lowerIncompleteArrayType implements `T[]` -> Ref(Array(T)).
func lowerIncompleteArrayType(cc *ConversionContext, t srcast.IncompleteArrayType, loc diag.SourceLocation) (*ir.Node, error) {
	elem, err := LowerType(cc, t.Elem().Desugar())
	if err != nil {
		return nil, err
	}
	arr, err := cc.M.ArrayType(elem)
	if err != nil {
		return nil, err
	}
	return cc.M.RefType(arr)
}

// lowerVariableArrayType implements the variable-sized-array rule: they
// lower to Array(T) bare, with the size expression retained at the
// declaration site rather than folded into the type — callers lowering a
// DeclStmt for a VLA are responsible for stashing SizeExpr() alongside the
// declaration (see stmt.go's lowerDeclStmt).
func lowerVariableArrayType(cc *ConversionContext, t srcast.VariableArrayType, loc diag.SourceLocation) (*ir.Node, error) {
	elem, err := LowerType(cc, t.Elem().Desugar())
	if err != nil {
		return nil, err
	}
	return cc.M.ArrayType(elem)
}

// lowerFunctionProtoType implements the function-type rule: lower to
// FunctionType(plain=true); argument types that are vectors or arrays are
// wrapped in Ref at the IR level to preserve C by-address parameter
// passing semantics.
func lowerFunctionProtoType(cc *ConversionContext, t srcast.FunctionProtoType, loc diag.SourceLocation) (*ir.Node, error) {
	ret, err := LowerType(cc, t.ReturnType().Desugar())
	if err != nil {
		return nil, err
	}
	paramTypes := make([]*ir.Node, 0, len(t.ParamTypes()))
	for _, p := range t.ParamTypes() {
		pt, err := LowerType(cc, p.Desugar())
		if err != nil {
			return nil, err
		}
		pt, err = wrapParamIfAggregate(cc, pt)
		if err != nil {
			return nil, err
		}
		paramTypes = append(paramTypes, pt)
	}
	return cc.M.FunctionType(paramTypes, ret, true)
}

// wrapParamIfAggregate wraps a vector or array parameter type in Ref, per
// the by-address parameter-passing rule.
func wrapParamIfAggregate(cc *ConversionContext, t *ir.Node) (*ir.Node, error) {
	if t.Kind != ir.KindVectorType && t.Kind != ir.KindArrayType {
		return t, nil
	}
	return cc.M.RefType(t)
}

// lowerTypedefType implements typedef transparency: lower the underlying
// type and attach the original name as an annotation rather than wrapping
// it in any IR construct.
func lowerTypedefType(cc *ConversionContext, t srcast.TypedefNameType, loc diag.SourceLocation) (*ir.Node, error) {
	decl := t.Decl()
	if cached, ok := cc.typeDecls[decl]; ok {
		return cached, nil
	}
	underlying, err := LowerType(cc, decl.Underlying().Desugar())
	if err != nil {
		return nil, err
	}
	underlying.Annotate(ir.AnnotationOriginalCName, decl.Name())
	cc.typeDecls[decl] = underlying
	return underlying, nil
}

// --- Recursive type resolution ---

// LowerRecordType lowers decl, resolving any strongly connected component
// of mutually recursive record types it participates in, per the
// algorithm dual to func.go's function-recursion resolver.
//
// The dependency edges considered are broader than a literal reading of
// "field whose type is itself a record type": a field reached through a
// pointer or array also counts, because lowering a pointer/array field
// eagerly lowers its pointee/element type, and a self- or mutually-
// referential struct (the ordinary linked-list shape `struct Node { Node
// *next; }`) would otherwise recurse into lowering itself before its own
// placeholder exists. Treating Ref/Array as transparent to cycle detection
// is the only way the lowering process itself terminates.
func LowerRecordType(cc *ConversionContext, decl srcast.RecordDecl) (*ir.Node, error) {
	if cached, ok := cc.typeDecls[decl]; ok {
		return cached, nil
	}
	if placeholder, ok := cc.typeRecVars[decl]; ok {
		return placeholder, nil
	}

	members, hasSelfEdge := recordSCC(decl)
	cyclic := len(members) > 1 || hasSelfEdge

	if !cyclic {
		body, err := lowerRecordBody(cc, decl)
		if err != nil {
			return nil, err
		}
		cc.typeDecls[decl] = body
		return body, nil
	}

	vars := make([]*ir.Node, len(members))
	for i, m := range members {
		v, err := cc.M.TypeVariable(m.Name())
		if err != nil {
			return nil, err
		}
		vars[i] = v
		cc.typeRecVars[m] = v
		cc.resolvingType[m] = true
	}
	defer func() {
		for _, m := range members {
			delete(cc.resolvingType, m)
		}
	}()

	bodies := make([]*ir.Node, len(members))
	for i, m := range members {
		body, err := lowerRecordBody(cc, m)
		if err != nil {
			return nil, err
		}
		bodies[i] = body
	}

	def, err := cc.M.RecTypeDefinition(vars, bodies)
	if err != nil {
		return nil, err
	}
	var result *ir.Node
	for i, m := range members {
		rec, err := cc.M.RecType(vars[i], def)
		if err != nil {
			return nil, err
		}
		cc.typeDecls[m] = rec
		delete(cc.typeRecVars, m)
		if m == decl {
			result = rec
		}
	}
	return result, nil
}

func lowerRecordBody(cc *ConversionContext, decl srcast.RecordDecl) (*ir.Node, error) {
	fields := make([]*ir.Node, len(decl.Fields()))
	for i, f := range decl.Fields() {
		ft, err := LowerType(cc, f.Type().Desugar())
		if err != nil {
			return nil, err
		}
		entry, err := cc.M.FieldEntry(f.Name(), ft)
		if err != nil {
			return nil, err
		}
		fields[i] = entry
	}
	if decl.IsUnion() {
		return cc.M.UnionType(decl.Name(), fields)
	}
	return cc.M.StructType(decl.Name(), fields)
}

// recordSCC computes the strongly connected component of the record-type
// dependency graph containing decl, using Tarjan's algorithm over the
// edges produced by fieldDependsOn. It also reports whether decl has a
// direct self-edge, since a size-1 SCC with a self-edge is "cyclic" even
// though Tarjan reports it as its own singleton component.
func recordSCC(root srcast.RecordDecl) (members []srcast.RecordDecl, hasSelfEdge bool) {
	index := 0
	indices := map[srcast.RecordDecl]int{}
	lowlink := map[srcast.RecordDecl]int{}
	onStack := map[srcast.RecordDecl]bool{}
	var stack []srcast.RecordDecl
	var sccs [][]srcast.RecordDecl

	var strongconnect func(v srcast.RecordDecl)
	strongconnect = func(v srcast.RecordDecl) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range fieldDependsOn(v) {
			if w == v {
				hasSelfEdge = hasSelfEdge || v == root
				continue
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
			var scc []srcast.RecordDecl
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
			sccs = append(sccs, scc)
		}
	}
	strongconnect(root)

	for _, scc := range sccs {
		if lo.Contains(scc, root) {
			return scc, hasSelfEdge
		}
	}
	return []srcast.RecordDecl{root}, hasSelfEdge
}

// fieldDependsOn returns every RecordDecl decl's fields reach, seeing
// through pointers and arrays (see LowerRecordType's doc comment for why).
func fieldDependsOn(decl srcast.RecordDecl) []srcast.RecordDecl {
	var out []srcast.RecordDecl
	for _, f := range decl.Fields() {
		if rd := recordDeclReachedBy(f.Type()); rd != nil {
			out = append(out, rd)
		}
	}
	return lo.Uniq(out)
}

func recordDeclReachedBy(t srcast.TypeNode) srcast.RecordDecl {
	d := t.Desugar()
	switch d.Kind() {
	case srcast.KindRecordRefType:
		return d.(srcast.RecordRefType).Decl()
	case srcast.KindPointerType:
		return recordDeclReachedBy(d.(srcast.PointerType).Pointee())
	case srcast.KindConstArrayType:
		return recordDeclReachedBy(d.(srcast.ConstArrayType).Elem())
	case srcast.KindIncompleteArrayType:
		return recordDeclReachedBy(d.(srcast.IncompleteArrayType).Elem())
	case srcast.KindVariableArrayType:
		return recordDeclReachedBy(d.(srcast.VariableArrayType).Elem())
	default:
		return nil
	}
}
