// Package typeman lowers IR types into target-language type descriptors
// for the C backend: every resolved type yields a TypeInfo carrying its
// l-value/r-value spellings, the externalization glue for the ABI
// boundary, and the declaration/definition fragments the emitter orders
// into the output file.
package typeman

import (
	"fmt"
	"strings"

	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/typesys"
)

// ExpressionRewriter rewrites a target-language expression crossing the
// IR/target boundary — externalize on the way out, internalize on the way
// back in. Most types cross unchanged.
type ExpressionRewriter func(expr string) string

func identity(expr string) string { return expr }

// TypeInfo is the target-language descriptor of one IR type.
type TypeInfo struct {
	// LValueType spells the type of an assignable location; RValueType the
	// type of a value; ExternalType the spelling used at the ABI boundary.
	LValueType   string
	RValueType   string
	ExternalType string

	Externalize ExpressionRewriter
	Internalize ExpressionRewriter

	// Declaration is the forward-declaration fragment (nil when the type
	// needs none, e.g. scalars); Definition the full definition fragment.
	Declaration *Fragment
	Definition  *Fragment
}

// defID returns the fragment ID a dependent definition should name, falling
// back to the declaration for types that only forward-declare.
func (ti *TypeInfo) defID() string {
	if ti.Definition != nil {
		return ti.Definition.ID
	}
	if ti.Declaration != nil {
		return ti.Declaration.ID
	}
	return ""
}

func (ti *TypeInfo) declID() string {
	if ti.Declaration != nil {
		return ti.Declaration.ID
	}
	return ti.defID()
}

// Handler is a user-supplied rewriter consulted before the default
// dispatch, letting domain-specific types (an OpenCL buffer, say) map to
// opaque named target types with their own header dependencies. A handler
// that does not recognize t returns ok=false.
type Handler func(tm *Manager, t *ir.Node) (info *TypeInfo, ok bool, err error)

// Manager resolves IR types to TypeInfo records, caching per node so a
// type shared across the program is lowered once. It owns the TargetCode
// the resolved fragments accumulate into.
type Manager struct {
	irm      *ir.Manager
	code     *TargetCode
	cache    map[*ir.Node]*TypeInfo
	handlers []Handler

	names     map[*ir.Node]string
	nameTaken map[string]int
}

func New(irm *ir.Manager) *Manager {
	return &Manager{
		irm:       irm,
		code:      NewTargetCode(),
		cache:     make(map[*ir.Node]*TypeInfo),
		names:     make(map[*ir.Node]string),
		nameTaken: make(map[string]int),
	}
}

// RegisterHandler installs h ahead of the default dispatch; handlers run
// in registration order.
func (tm *Manager) RegisterHandler(h Handler) {
	tm.handlers = append(tm.handlers, h)
}

// TargetCode returns the fragment collection resolution has produced so
// far.
func (tm *Manager) TargetCode() *TargetCode {
	return tm.code
}

// scalarTable maps a GenericType family to its target spelling and the
// header it comes from (empty header means none needed).
var scalarTable = map[string]struct {
	name   string
	header string
}{
	"unit":    {"void", ""},
	"bool":    {"bool", "stdbool.h"},
	"char":    {"char", ""},
	"any-ref": {"void*", ""},
}

var intWidthTable = map[int64]string{
	1: "int8_t", 2: "int16_t", 4: "int32_t", 8: "int64_t",
}

var uintWidthTable = map[int64]string{
	1: "uint8_t", 2: "uint16_t", 4: "uint32_t", 8: "uint64_t",
}

var realWidthTable = map[int64]string{
	4: "float", 8: "double",
}

// Resolve returns the TypeInfo for t, lowering it (and everything it
// depends on) on first request.
func (tm *Manager) Resolve(t *ir.Node) (*TypeInfo, error) {
	if info, ok := tm.cache[t]; ok {
		return info, nil
	}
	for _, h := range tm.handlers {
		info, ok, err := h(tm, t)
		if err != nil {
			return nil, err
		}
		if ok {
			tm.cache[t] = info
			return info, nil
		}
	}

	var info *TypeInfo
	var err error
	switch t.Kind {
	case ir.KindGenericType:
		info, err = tm.resolveGeneric(t)
	case ir.KindTupleType:
		info, err = tm.resolveTuple(t)
	case ir.KindStructType, ir.KindUnionType:
		info, err = tm.resolveComposite(t)
	case ir.KindArrayType:
		info, err = tm.resolveArray(t)
	case ir.KindVectorType:
		info, err = tm.resolveVector(t)
	case ir.KindRefType:
		info, err = tm.resolveRef(t)
	case ir.KindFunctionType:
		info, err = tm.resolveFunction(t)
	case ir.KindRecType:
		info, err = tm.resolveRecType(t)
	default:
		return nil, diag.New(diag.UnsupportedType, diag.SourceLocation{}, "type %s cannot be represented by the target", ir.Print(t))
	}
	if err != nil {
		return nil, err
	}
	tm.cache[t] = info
	return info, nil
}

func (tm *Manager) resolveGeneric(t *ir.Node) (*TypeInfo, error) {
	family := t.Payload.Text
	if entry, ok := scalarTable[family]; ok {
		info := scalarInfo(entry.name)
		if entry.header != "" {
			info.Definition = &Fragment{ID: "include:" + entry.header, Includes: []string{entry.header}}
			tm.code.Add(info.Definition)
		}
		return info, nil
	}

	_, intParams, base := ir.GenericTypeParams(t)
	var widthTable map[int64]string
	switch family {
	case "int":
		widthTable = intWidthTable
	case "uint":
		widthTable = uintWidthTable
	case "real":
		widthTable = realWidthTable
	}
	if widthTable != nil {
		if len(intParams) != 1 || intParams[0].Kind != ir.KindConcreteIntTypeParam {
			return nil, diag.New(diag.UnsupportedType, diag.SourceLocation{}, "%s type without a concrete width", family)
		}
		name, ok := widthTable[intParams[0].Payload.Int]
		if !ok {
			return nil, diag.New(diag.UnsupportedType, diag.SourceLocation{}, "%s<%d> has no target representation", family, intParams[0].Payload.Int)
		}
		info := scalarInfo(name)
		if family != "real" {
			inc := &Fragment{ID: "include:stdint.h", Includes: []string{"stdint.h"}}
			tm.code.Add(inc)
			info.Definition = inc
		}
		return info, nil
	}

	// A user-declared generic carrying its underlying type (typedef
	// transparency) lowers to the underlying type's info.
	if base != nil {
		return tm.Resolve(base)
	}
	return nil, diag.New(diag.UnsupportedType, diag.SourceLocation{}, "generic type family %q has no target mapping", family)
}

func scalarInfo(name string) *TypeInfo {
	return &TypeInfo{
		LValueType:   name,
		RValueType:   name,
		ExternalType: name,
		Externalize:  identity,
		Internalize:  identity,
	}
}

// uniqueName hands out a stable target identifier for t, disambiguating
// collisions with a numeric suffix.
func (tm *Manager) uniqueName(t *ir.Node, base string) string {
	if name, ok := tm.names[t]; ok {
		return name
	}
	name := sanitizeIdent(base)
	if n := tm.nameTaken[name]; n > 0 {
		tm.nameTaken[name] = n + 1
		name = fmt.Sprintf("%s_%d", name, n)
	} else {
		tm.nameTaken[name] = 1
	}
	tm.names[t] = name
	return name
}

func sanitizeIdent(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		case r == '*':
			sb.WriteString("_p")
		default:
			sb.WriteRune('_')
		}
	}
	out := sb.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "t_" + out
	}
	return out
}

// resolveTuple rewrites a tuple as a struct with fields c0, c1, ...
func (tm *Manager) resolveTuple(t *ir.Node) (*TypeInfo, error) {
	name := tm.uniqueName(t, fmt.Sprintf("inspire_tuple_%d", len(t.Children)))
	decl := &Fragment{
		ID:     "decl:" + name,
		Header: "forward declaration of tuple " + name,
		Body:   fmt.Sprintf("struct %s;", name),
	}
	tm.code.Add(decl)

	def := &Fragment{
		ID:     "def:" + name,
		Header: "definition of tuple " + name,
	}
	var fields []string
	for i, elem := range t.Children {
		ei, err := tm.Resolve(elem)
		if err != nil {
			return nil, err
		}
		if id := ei.defID(); id != "" {
			def.AddDependency(id)
		}
		fields = append(fields, fmt.Sprintf("    %s c%d;", ei.RValueType, i))
	}
	def.AddDependency(decl.ID)
	def.Body = fmt.Sprintf("struct %s {\n%s\n};", name, strings.Join(fields, "\n"))
	tm.code.Add(def)

	spelled := "struct " + name
	return &TypeInfo{
		LValueType:   spelled,
		RValueType:   spelled,
		ExternalType: spelled,
		Externalize:  identity,
		Internalize:  identity,
		Declaration:  decl,
		Definition:   def,
	}, nil
}

// resolveComposite lowers a struct or union: a forward declaration plus a
// definition depending on every field type's definition.
func (tm *Manager) resolveComposite(t *ir.Node) (*TypeInfo, error) {
	keyword := "struct"
	if t.Kind == ir.KindUnionType {
		keyword = "union"
	}
	base := t.Payload.Text
	if base == "" {
		base = fmt.Sprintf("inspire_%s", keyword)
	}
	name := tm.uniqueName(t, base)

	decl := &Fragment{
		ID:     "decl:" + name,
		Header: "forward declaration of " + keyword + " " + name,
		Body:   fmt.Sprintf("%s %s;", keyword, name),
	}
	tm.code.Add(decl)

	// Cache a provisional info before resolving fields so a field that
	// (illegally, outside a RecType) points back at this composite meets
	// the declaration instead of recursing forever.
	spelled := keyword + " " + name
	info := &TypeInfo{
		LValueType:   spelled,
		RValueType:   spelled,
		ExternalType: spelled,
		Externalize:  identity,
		Internalize:  identity,
		Declaration:  decl,
	}
	tm.cache[t] = info

	def := &Fragment{
		ID:     "def:" + name,
		Header: "definition of " + keyword + " " + name,
	}
	var fields []string
	for _, entry := range t.Children {
		fi, err := tm.Resolve(entry.Child(0))
		if err != nil {
			return nil, err
		}
		if id := fi.defID(); id != "" {
			def.AddDependency(id)
		}
		fields = append(fields, fmt.Sprintf("    %s %s;", fi.RValueType, entry.Payload.Text))
	}
	def.AddDependency(decl.ID)
	def.Body = fmt.Sprintf("%s %s {\n%s\n};", keyword, name, strings.Join(fields, "\n"))
	tm.code.Add(def)
	info.Definition = def
	return info, nil
}

// resolveArray lowers Array(...(Array(T))) of dimension d to T followed by
// d stars, for both value and location spellings; declaration and
// definition are inherited from the element type.
func (tm *Manager) resolveArray(t *ir.Node) (*TypeInfo, error) {
	dims := 0
	elem := t
	for elem.Kind == ir.KindArrayType {
		dims++
		elem = ir.ArrayTypeElem(elem)
	}
	ei, err := tm.Resolve(elem)
	if err != nil {
		return nil, err
	}
	spelled := ei.RValueType + strings.Repeat("*", dims)
	return &TypeInfo{
		LValueType:   spelled,
		RValueType:   spelled,
		ExternalType: spelled,
		Externalize:  identity,
		Internalize:  identity,
		Declaration:  ei.Declaration,
		Definition:   ei.Definition,
	}, nil
}

// resolveVector wraps the element in a struct carrying a fixed-size data
// array, enforcing value semantics, and emits the broadcast constructor
// alongside the definition.
func (tm *Manager) resolveVector(t *ir.Node) (*TypeInfo, error) {
	size := ir.VectorTypeSize(t)
	ei, err := tm.Resolve(ir.VectorTypeElem(t))
	if err != nil {
		return nil, err
	}
	name := tm.uniqueName(t, fmt.Sprintf("%s_vec_%d", ei.RValueType, size))

	decl := &Fragment{
		ID:     "decl:" + name,
		Header: "forward declaration of vector " + name,
		Body:   fmt.Sprintf("struct %s;", name),
	}
	tm.code.Add(decl)

	def := &Fragment{
		ID:     "def:" + name,
		Header: "definition of vector " + name,
		Body: fmt.Sprintf(
			"struct %[1]s {\n    %[2]s data[%[3]d];\n};\nstatic inline struct %[1]s %[1]s_init_uniform(%[2]s value) {\n    struct %[1]s v;\n    for (int i = 0; i < %[3]d; ++i) v.data[i] = value;\n    return v;\n}",
			name, ei.RValueType, size),
	}
	def.AddDependency(decl.ID)
	if id := ei.defID(); id != "" {
		def.AddDependency(id)
	}
	tm.code.Add(def)

	spelled := "struct " + name
	return &TypeInfo{
		LValueType:   spelled,
		RValueType:   spelled,
		ExternalType: ei.RValueType + "*",
		Externalize:  func(expr string) string { return expr + ".data" },
		Internalize:  func(expr string) string { return "*(" + spelled + "*)" + expr },
		Declaration:  decl,
		Definition:   def,
	}, nil
}

// resolveRef lowers a mutable location. For a scalar element the value
// spelling gains a star and the location spelling is the element itself;
// for an array or vector element the extra indirection collapses, since a
// C array value already is a pointer. A new-operator helper that
// heap-allocates one element is emitted with the definition.
func (tm *Manager) resolveRef(t *ir.Node) (*TypeInfo, error) {
	elem := ir.RefTypeElem(t)
	ei, err := tm.Resolve(elem)
	if err != nil {
		return nil, err
	}

	if elem.Kind == ir.KindArrayType {
		return &TypeInfo{
			LValueType:   ei.RValueType,
			RValueType:   ei.RValueType,
			ExternalType: ei.ExternalType,
			Externalize:  identity,
			Internalize:  identity,
			Declaration:  ei.Declaration,
			Definition:   ei.Definition,
		}, nil
	}
	if elem.Kind == ir.KindVectorType {
		return &TypeInfo{
			LValueType:   ei.LValueType,
			RValueType:   ei.ExternalType,
			ExternalType: ei.ExternalType,
			Externalize:  ei.Externalize,
			Internalize:  ei.Internalize,
			Declaration:  ei.Declaration,
			Definition:   ei.Definition,
		}, nil
	}

	name := tm.uniqueName(t, ei.RValueType+"_ref")
	def := &Fragment{
		ID:     "def:" + name,
		Header: "heap constructor for " + ei.RValueType,
		Body: fmt.Sprintf(
			"static inline %[1]s* %[2]s_new(%[1]s init) {\n    %[1]s* p = malloc(sizeof(%[1]s));\n    *p = init;\n    return p;\n}",
			ei.RValueType, name),
		Includes: []string{"stdlib.h"},
	}
	if id := ei.defID(); id != "" {
		def.AddDependency(id)
	}
	tm.code.Add(def)

	return &TypeInfo{
		LValueType:   ei.RValueType,
		RValueType:   ei.RValueType + "*",
		ExternalType: ei.RValueType + "*",
		Externalize:  identity,
		Internalize:  identity,
		Declaration:  ei.Declaration,
		Definition:   def,
	}, nil
}

// resolveFunction lowers a plain function type to a C function-pointer
// typedef, and a closure type to a struct carrying the call pointer plus
// its caller and constructor wrappers.
func (tm *Manager) resolveFunction(t *ir.Node) (*TypeInfo, error) {
	ret, err := tm.Resolve(ir.FunctionTypeReturn(t))
	if err != nil {
		return nil, err
	}
	deps := []string{}
	if id := ret.defID(); id != "" {
		deps = append(deps, id)
	}
	var paramSpellings []string
	for _, p := range ir.FunctionTypeParams(t) {
		pi, err := tm.Resolve(p)
		if err != nil {
			return nil, err
		}
		if id := pi.defID(); id != "" {
			deps = append(deps, id)
		}
		paramSpellings = append(paramSpellings, pi.RValueType)
	}
	paramList := strings.Join(paramSpellings, ", ")

	if ir.FunctionTypeIsPlain(t) {
		name := tm.uniqueName(t, "inspire_fun")
		def := &Fragment{
			ID:     "def:" + name,
			Header: "function pointer type " + name,
			Body:   fmt.Sprintf("typedef %s (*%s)(%s);", ret.RValueType, name, paramList),
		}
		for _, d := range deps {
			def.AddDependency(d)
		}
		tm.code.Add(def)
		return &TypeInfo{
			LValueType:   name,
			RValueType:   name,
			ExternalType: name,
			Externalize:  identity,
			Internalize:  identity,
			Definition:   def,
		}, nil
	}

	// Closure: the struct carries the call pointer whose first parameter is
	// the closure itself; the environment lives in the trailing bytes a
	// concrete closure value appends past this header.
	name := tm.uniqueName(t, "inspire_closure")
	decl := &Fragment{
		ID:     "decl:" + name,
		Header: "forward declaration of closure " + name,
		Body:   fmt.Sprintf("struct %s;", name),
	}
	tm.code.Add(decl)

	callParams := "struct " + name + "*"
	wrapperParams := "struct " + name + "* c"
	callArgs := "c"
	if paramList != "" {
		callParams += ", " + paramList
		for i, spelled := range paramSpellings {
			wrapperParams += fmt.Sprintf(", %s p%d", spelled, i)
			callArgs += fmt.Sprintf(", p%d", i)
		}
	}
	returnKw := "return "
	if ret.RValueType == "void" {
		returnKw = ""
	}
	def := &Fragment{
		ID:     "def:" + name,
		Header: "definition of closure " + name,
		Body: fmt.Sprintf(
			"struct %[1]s {\n    %[2]s (*call)(%[3]s);\n};\nstatic inline %[2]s %[1]s_call(%[4]s) {\n    %[5]sc->call(%[6]s);\n}\nstatic inline struct %[1]s %[1]s_ctor(%[2]s (*fn)(%[3]s)) {\n    struct %[1]s c;\n    c.call = fn;\n    return c;\n}",
			name, ret.RValueType, callParams, wrapperParams, returnKw, callArgs),
	}
	def.AddDependency(decl.ID)
	for _, d := range deps {
		def.AddDependency(d)
	}
	tm.code.Add(def)

	spelled := "struct " + name
	return &TypeInfo{
		LValueType:   spelled,
		RValueType:   spelled,
		ExternalType: spelled,
		Externalize:  identity,
		Internalize:  identity,
		Declaration:  decl,
		Definition:   def,
	}, nil
}

// resolveRecType ties a strongly connected component of recursive types in
// two passes. First every member is declared under its tag name and a
// pointer-stable TypeInfo is cached for it; then each member's body is
// unrolled once through the shared definition and resolved, and the cached
// info's definition is patched to the unrolled result while the
// declaration token already handed out stays valid.
func (tm *Manager) resolveRecType(t *ir.Node) (*TypeInfo, error) {
	def := ir.RecTypeDefinitionOf(t)
	vars, bodies := ir.RecTypeDefinitionEntries(def)

	recNodes := make([]*ir.Node, len(vars))
	infos := make([]*TypeInfo, len(vars))
	fresh := false
	for i, v := range vars {
		rec, err := tm.irm.RecType(v, def)
		if err != nil {
			return nil, err
		}
		recNodes[i] = rec
		if cached, ok := tm.cache[rec]; ok {
			infos[i] = cached
			continue
		}
		fresh = true
		tag := tagNameFor(v, bodies[i])
		name := tm.uniqueName(rec, tag)
		keyword := "struct"
		if bodies[i].Kind == ir.KindUnionType {
			keyword = "union"
		}
		declFrag := &Fragment{
			ID:     "decl:" + name,
			Header: "forward declaration of recursive " + keyword + " " + name,
			Body:   fmt.Sprintf("%s %s;", keyword, name),
		}
		tm.code.Add(declFrag)
		// The definition fragment is registered now, empty, so dependents
		// resolved during the unroll pass can already name its ID; the
		// unroll pass fills it in place.
		defFrag := &Fragment{
			ID:     "def:" + name,
			Header: "definition of recursive " + keyword + " " + name,
		}
		tm.code.Add(defFrag)
		spelled := keyword + " " + name
		infos[i] = &TypeInfo{
			LValueType:   spelled,
			RValueType:   spelled,
			ExternalType: spelled,
			Externalize:  identity,
			Internalize:  identity,
			Declaration:  declFrag,
			Definition:   defFrag,
		}
		tm.cache[rec] = infos[i]
	}

	if fresh {
		// Unroll each member once: every recursion variable inside its body
		// is replaced by the member's RecType node, whose cached info above
		// stops the descent at the forward declaration.
		sub := typesys.NewSubstitution()
		for i, v := range vars {
			sub.Bind(v, recNodes[i])
		}
		for i := range vars {
			unrolled, err := typesys.Apply(tm.irm, sub, bodies[i])
			if err != nil {
				return nil, err
			}
			if err := tm.resolveUnrolledMember(unrolled, infos[i]); err != nil {
				return nil, err
			}
		}
	}

	for i, rec := range recNodes {
		if rec == t {
			return infos[i], nil
		}
	}
	return nil, diag.New(diag.UnsupportedType, diag.SourceLocation{}, "recursive type variable %s is not bound by its definition", ir.Print(ir.RecTypeVar(t)))
}

// resolveUnrolledMember fills the definition fragment of one SCC member
// from its unrolled body, reusing the tag name the declaration pass chose.
func (tm *Manager) resolveUnrolledMember(body *ir.Node, declared *TypeInfo) error {
	if body.Kind != ir.KindStructType && body.Kind != ir.KindUnionType {
		return diag.New(diag.UnsupportedType, diag.SourceLocation{}, "recursive type body must be a composite, got %s", body.Kind)
	}
	keyword := "struct"
	if body.Kind == ir.KindUnionType {
		keyword = "union"
	}
	name := strings.TrimPrefix(declared.RValueType, keyword+" ")

	frag := &Fragment{
		ID:     "def:" + name,
		Header: "definition of recursive " + keyword + " " + name,
	}
	var fields []string
	for _, entry := range body.Children {
		fi, err := tm.Resolve(entry.Child(0))
		if err != nil {
			return err
		}
		if id := fi.defID(); id != "" && id != frag.ID {
			frag.AddDependency(id)
		}
		fields = append(fields, fmt.Sprintf("    %s %s;", fi.RValueType, entry.Payload.Text))
	}
	frag.AddDependency(declared.Declaration.ID)
	frag.Body = fmt.Sprintf("%s %s {\n%s\n};", keyword, name, strings.Join(fields, "\n"))
	tm.code.Add(frag)
	return nil
}

func tagNameFor(v, body *ir.Node) string {
	if body.Payload.Text != "" {
		return body.Payload.Text
	}
	return v.Payload.Text
}
