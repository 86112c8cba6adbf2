package convert

import (
	"regexp"

	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/ir/builder"
)

// ConversionContext is the explicit, threaded state the three mutually
// recursive converters (type/stmt/expr) share — an explicit value threaded
// through the calls rather than a global singleton. One ConversionContext
// is created per translation unit.
type ConversionContext struct {
	B         *builder.Builder
	M         *ir.Manager
	Collector *diag.Collector
	Options   DriverOptions

	// varDecls memoizes var-decl (VarDecl or ParamDecl) -> IR Variable.
	varDecls map[srcast.Node]*ir.Node

	// funcLambdas memoizes func-decl -> lowered lambda.
	funcLambdas map[srcast.FuncDecl]*ir.Node
	// funcRecVars holds the placeholder Variable for a func-decl currently
	// being lowered as part of a mutually recursive SCC.
	funcRecVars map[srcast.FuncDecl]*ir.Node
	// resolvingFunc marks the members of the recursive SCC currently being
	// lowered; recursive lookups return the placeholder from funcRecVars.
	resolvingFunc map[srcast.FuncDecl]bool

	// typeDecls memoizes type-decl (RecordDecl or TypedefDecl) -> IR type.
	typeDecls map[srcast.Node]*ir.Node
	// typeRecVars holds the placeholder TypeVariable for a record type
	// currently being lowered as part of a mutually recursive SCC.
	typeRecVars   map[srcast.Node]*ir.Node
	resolvingType map[srcast.Node]bool

	// wrapRefMap records, per parameter Variable, the Ref-wrapped Variable
	// standing in for a parameter the body mutates or takes the address of.
	wrapRefMap map[*ir.Node]*ir.Node

	// globalVar is the current function's handle on the globals aggregate
	// (a Ref(StructOfGlobals) parameter), or nil if the function reads no
	// globals. globals accumulates the field list across the whole
	// translation unit as globals are discovered.
	globalVar *ir.Node
	globals   *globalsBuilder

	// pragmas maps a statement to the pragma match map that annotates it.
	pragmas map[srcast.Node]MatchMap

	intercepted map[string]*ir.Node // qualified name -> cached opaque literal
	interceptRe []*regexp.Regexp

	// currentReturnType is the enclosing function's declared return type,
	// used by ReturnStmt lowering to coerce the returned value. Set by
	// LowerFuncDecl for the duration of one function body's lowering.
	currentReturnType *ir.Node
}

// NewConversionContext creates an empty context for one translation unit.
// The intercept-pattern strings from opts are compiled eagerly so a bad
// regex is reported before conversion starts rather than at first use.
func NewConversionContext(m *ir.Manager, collector *diag.Collector, opts DriverOptions) (*ConversionContext, error) {
	cc := &ConversionContext{
		B:             builder.New(m, collector),
		M:             m,
		Collector:     collector,
		Options:       opts,
		varDecls:      make(map[srcast.Node]*ir.Node),
		funcLambdas:   make(map[srcast.FuncDecl]*ir.Node),
		funcRecVars:   make(map[srcast.FuncDecl]*ir.Node),
		resolvingFunc: make(map[srcast.FuncDecl]bool),
		typeDecls:     make(map[srcast.Node]*ir.Node),
		typeRecVars:   make(map[srcast.Node]*ir.Node),
		resolvingType: make(map[srcast.Node]bool),
		wrapRefMap:    make(map[*ir.Node]*ir.Node),
		pragmas:       make(map[srcast.Node]MatchMap),
		intercepted:   make(map[string]*ir.Node),
		globals:       newGlobalsBuilder(),
	}
	for _, pat := range opts.InterceptPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, diag.New(diag.IllFormedNode, diag.SourceLocation{}, "invalid --intercept pattern %q: %v", pat, err)
		}
		cc.interceptRe = append(cc.interceptRe, re)
	}
	return cc, nil
}

// PragmaFor returns the match map attached to n, if any pragma annotates
// it. SetPragma is the registration side, expected to be called by the
// collaborator that matched the pragma grammar before handing the tree to
// the converter.
func (cc *ConversionContext) PragmaFor(n srcast.Node) (MatchMap, bool) {
	mm, ok := cc.pragmas[n]
	return mm, ok
}

func (cc *ConversionContext) SetPragma(n srcast.Node, mm MatchMap) {
	cc.pragmas[n] = mm
}

// LookupVar returns the memoized IR Variable for decl, if already lowered.
func (cc *ConversionContext) LookupVar(decl srcast.Node) (*ir.Node, bool) {
	v, ok := cc.varDecls[decl]
	return v, ok
}

func (cc *ConversionContext) BindVar(decl srcast.Node, v *ir.Node) {
	cc.varDecls[decl] = v
}

// WrapRef returns the ref-wrapped Variable standing in for param, installing
// one via builder.Variable(Ref(paramType)) on first request.
func (cc *ConversionContext) WrapRef(param *ir.Node) (*ir.Node, error) {
	if wrapped, ok := cc.wrapRefMap[param]; ok {
		return wrapped, nil
	}
	refType, err := cc.M.RefType(ir.VariableType(param))
	if err != nil {
		return nil, err
	}
	wrapped, err := cc.B.Variable(refType)
	if err != nil {
		return nil, err
	}
	cc.wrapRefMap[param] = wrapped
	return wrapped, nil
}

func locationOf(n srcast.Node) diag.SourceLocation {
	if n == nil {
		return diag.SourceLocation{}
	}
	return n.Location()
}
