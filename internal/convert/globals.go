package convert

import (
	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
)

// globalsStructName is the struct name the globals aggregate is given.
const globalsStructName = "Globals"

// wrappedMainName is the name the original entry point is renamed to once
// it is wrapped by a fresh main that allocates and initializes the globals
// aggregate; the rename travels as an original-c-name annotation on the
// lambda (see wrapMain in program.go).
const wrappedMainName = "__inspire_main"

// globalsBuilder accumulates the field list of the globals aggregate across
// an entire translation unit: every global VarDecl passed to RegisterGlobal
// becomes one field, added at most once, in registration order. LowerProgram
// registers every top-level global in declaration order, whether or not a
// function body references it.
type globalsBuilder struct {
	order  []srcast.VarDecl
	fields map[srcast.VarDecl]int // decl -> index in order
	types  map[srcast.VarDecl]*ir.Node
	inits  map[srcast.VarDecl]*ir.Node
}

func newGlobalsBuilder() *globalsBuilder {
	return &globalsBuilder{fields: make(map[srcast.VarDecl]int), types: make(map[srcast.VarDecl]*ir.Node), inits: make(map[srcast.VarDecl]*ir.Node)}
}

// Register adds decl to the aggregate if not already present, recording its
// lowered type and (optional) lowered initializer expression.
func (g *globalsBuilder) Register(decl srcast.VarDecl, typ *ir.Node, init *ir.Node) int {
	if idx, ok := g.fields[decl]; ok {
		return idx
	}
	idx := len(g.order)
	g.order = append(g.order, decl)
	g.fields[decl] = idx
	g.types[decl] = typ
	g.inits[decl] = init
	return idx
}

func (g *globalsBuilder) IndexOf(decl srcast.VarDecl) (int, bool) {
	idx, ok := g.fields[decl]
	return idx, ok
}

func (g *globalsBuilder) Empty() bool { return len(g.order) == 0 }

// StructType builds the "Globals" StructType from every field registered
// so far.
func (g *globalsBuilder) StructType(m *ir.Manager) (*ir.Node, error) {
	fields := make([]*ir.Node, len(g.order))
	for i, decl := range g.order {
		f, err := m.FieldEntry(decl.Name(), g.types[decl])
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return m.StructType(globalsStructName, fields)
}

// InitExpr builds the aggregate's initial value: a StructExpr whose fields
// are the registered initializers, zero-filled where the source declared a
// global without one.
func (g *globalsBuilder) InitExpr(cc *ConversionContext, loc diag.SourceLocation) (*ir.Node, error) {
	st, err := g.StructType(cc.M)
	if err != nil {
		return nil, err
	}
	values := make([]*ir.Node, len(g.order))
	for i, decl := range g.order {
		if init := g.inits[decl]; init != nil {
			coerced, err := cc.B.Coerce(init, g.types[decl], loc)
			if err != nil {
				return nil, err
			}
			values[i] = coerced
			continue
		}
		z, err := zeroValue(cc, g.types[decl], loc)
		if err != nil {
			return nil, err
		}
		values[i] = z
	}
	return cc.M.StructExpr(st, values)
}

// RegisterGlobal records a top-level VarDecl as a global field, lowering
// its type and (if present) its initializer expression through cc. It does
// not itself decide whether a function needs the globals parameter — that
// follows from whether the function's body references a registered global
// (see FieldAccessForGlobal).
func RegisterGlobal(cc *ConversionContext, decl srcast.VarDecl) error {
	typ, err := LowerType(cc, decl.Type())
	if err != nil {
		return err
	}
	var init *ir.Node
	if decl.Init() != nil {
		init, err = LowerExpr(cc, decl.Init())
		if err != nil {
			return err
		}
	}
	cc.globals.Register(decl, typ, init)
	return nil
}

// GlobalsParamType returns the Ref(StructOfGlobals) type every function
// touching a global receives as its leading parameter, or nil if no global
// has been registered yet.
func GlobalsParamType(cc *ConversionContext) (*ir.Node, error) {
	if cc.globals.Empty() {
		return nil, nil
	}
	st, err := cc.globals.StructType(cc.M)
	if err != nil {
		return nil, err
	}
	return cc.M.RefType(st)
}

// FieldAccessForGlobal lowers a reference to a global VarDecl inside a
// function body into a field access on the current function's globals
// parameter. It raises
// GlobalVariableDeclaration if the current function has not been given a
// globals parameter. LowerFuncDecl gives that parameter to every function
// that funcSCC reports as using a global.
func FieldAccessForGlobal(cc *ConversionContext, decl srcast.VarDecl, loc diag.SourceLocation) (*ir.Node, error) {
	if cc.globalVar == nil {
		return nil, diag.New(diag.GlobalVariableDeclaration, loc,
			"global %q referenced without a globals parameter in scope", decl.Name())
	}
	idx, ok := cc.globals.IndexOf(decl)
	if !ok {
		return nil, diag.New(diag.GlobalVariableDeclaration, loc,
			"global %q was not registered in the globals aggregate", decl.Name())
	}
	return compositeRefElem(cc, cc.globalVar, idx, loc)
}
