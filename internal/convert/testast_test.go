package convert_test

// A minimal in-memory implementation of the source AST contract, standing
// in for the parser collaborator. Every node reports a zero location; the
// converter never requires more than the contract's accessors.

import (
	"strconv"

	"github.com/inspirecore/inspire/internal/convert/srcast"
	"github.com/inspirecore/inspire/internal/diag"
)

var noLoc = diag.SourceLocation{}

// --- types ---

type tBuiltin struct{ name string }

func (t *tBuiltin) Kind() srcast.Kind             { return srcast.KindBuiltinType }
func (t *tBuiltin) Children() []srcast.Node       { return nil }
func (t *tBuiltin) Location() diag.SourceLocation { return noLoc }
func (t *tBuiltin) Desugar() srcast.TypeNode      { return t }
func (t *tBuiltin) Name() string                  { return t.name }

type tPointer struct{ pointee srcast.TypeNode }

func (t *tPointer) Kind() srcast.Kind             { return srcast.KindPointerType }
func (t *tPointer) Children() []srcast.Node       { return nil }
func (t *tPointer) Location() diag.SourceLocation { return noLoc }
func (t *tPointer) Desugar() srcast.TypeNode      { return t }
func (t *tPointer) Pointee() srcast.TypeNode      { return t.pointee }

type tConstArray struct {
	elem srcast.TypeNode
	size int64
}

func (t *tConstArray) Kind() srcast.Kind             { return srcast.KindConstArrayType }
func (t *tConstArray) Children() []srcast.Node       { return nil }
func (t *tConstArray) Location() diag.SourceLocation { return noLoc }
func (t *tConstArray) Desugar() srcast.TypeNode      { return t }
func (t *tConstArray) Elem() srcast.TypeNode         { return t.elem }
func (t *tConstArray) Size() int64                   { return t.size }

type tRecordRef struct{ decl *tRecord }

func (t *tRecordRef) Kind() srcast.Kind             { return srcast.KindRecordRefType }
func (t *tRecordRef) Children() []srcast.Node       { return nil }
func (t *tRecordRef) Location() diag.SourceLocation { return noLoc }
func (t *tRecordRef) Desugar() srcast.TypeNode      { return t }
func (t *tRecordRef) Decl() srcast.RecordDecl       { return t.decl }

// --- declarations ---

type tField struct {
	name string
	typ  srcast.TypeNode
}

func (d *tField) Kind() srcast.Kind             { return srcast.KindFieldDecl }
func (d *tField) Children() []srcast.Node       { return nil }
func (d *tField) Location() diag.SourceLocation { return noLoc }
func (d *tField) Name() string                  { return d.name }
func (d *tField) Type() srcast.TypeNode         { return d.typ }

type tRecord struct {
	name   string
	fields []*tField
	union  bool
}

func (d *tRecord) Kind() srcast.Kind             { return srcast.KindRecordDecl }
func (d *tRecord) Children() []srcast.Node       { return nil }
func (d *tRecord) Location() diag.SourceLocation { return noLoc }
func (d *tRecord) Name() string                  { return d.name }
func (d *tRecord) IsUnion() bool                 { return d.union }
func (d *tRecord) Fields() []srcast.FieldDecl {
	out := make([]srcast.FieldDecl, len(d.fields))
	for i, f := range d.fields {
		out[i] = f
	}
	return out
}

type tParam struct {
	name string
	typ  srcast.TypeNode
}

func (d *tParam) Kind() srcast.Kind             { return srcast.KindParamDecl }
func (d *tParam) Children() []srcast.Node       { return nil }
func (d *tParam) Location() diag.SourceLocation { return noLoc }
func (d *tParam) Name() string                  { return d.name }
func (d *tParam) Type() srcast.TypeNode         { return d.typ }

type tVar struct {
	name   string
	typ    srcast.TypeNode
	init   srcast.Node
	global bool
}

func (d *tVar) Kind() srcast.Kind             { return srcast.KindVarDecl }
func (d *tVar) Location() diag.SourceLocation { return noLoc }
func (d *tVar) Name() string                  { return d.name }
func (d *tVar) Type() srcast.TypeNode         { return d.typ }
func (d *tVar) Init() srcast.Node             { return d.init }
func (d *tVar) IsGlobal() bool                { return d.global }
func (d *tVar) Children() []srcast.Node {
	if d.init == nil {
		return nil
	}
	return []srcast.Node{d.init}
}

type tFunc struct {
	name     string
	params   []*tParam
	ret      srcast.TypeNode
	body     srcast.Node
	variadic bool
}

func (d *tFunc) Kind() srcast.Kind             { return srcast.KindFuncDecl }
func (d *tFunc) Location() diag.SourceLocation { return noLoc }
func (d *tFunc) Name() string                  { return d.name }
func (d *tFunc) ReturnType() srcast.TypeNode   { return d.ret }
func (d *tFunc) Body() srcast.Node             { return d.body }
func (d *tFunc) IsVariadic() bool              { return d.variadic }
func (d *tFunc) Params() []srcast.ParamDecl {
	out := make([]srcast.ParamDecl, len(d.params))
	for i, p := range d.params {
		out[i] = p
	}
	return out
}
func (d *tFunc) Children() []srcast.Node {
	if d.body == nil {
		return nil
	}
	return []srcast.Node{d.body}
}

type tProgram struct{ decls []srcast.Node }

func (p *tProgram) Kind() srcast.Kind             { return srcast.KindCompoundStmt }
func (p *tProgram) Children() []srcast.Node       { return p.decls }
func (p *tProgram) Location() diag.SourceLocation { return noLoc }
func (p *tProgram) Decls() []srcast.Node          { return p.decls }

// --- statements ---

type tCompound struct{ stmts []srcast.Node }

func (s *tCompound) Kind() srcast.Kind             { return srcast.KindCompoundStmt }
func (s *tCompound) Children() []srcast.Node       { return s.stmts }
func (s *tCompound) Location() diag.SourceLocation { return noLoc }
func (s *tCompound) Stmts() []srcast.Node          { return s.stmts }

type tDeclStmt struct{ decls []*tVar }

func (s *tDeclStmt) Kind() srcast.Kind             { return srcast.KindDeclStmt }
func (s *tDeclStmt) Location() diag.SourceLocation { return noLoc }
func (s *tDeclStmt) Decls() []srcast.VarDecl {
	out := make([]srcast.VarDecl, len(s.decls))
	for i, d := range s.decls {
		out[i] = d
	}
	return out
}
func (s *tDeclStmt) Children() []srcast.Node {
	out := make([]srcast.Node, len(s.decls))
	for i, d := range s.decls {
		out[i] = d
	}
	return out
}

type tExprStmt struct{ expr srcast.Node }

func (s *tExprStmt) Kind() srcast.Kind             { return srcast.KindExprStmt }
func (s *tExprStmt) Children() []srcast.Node       { return []srcast.Node{s.expr} }
func (s *tExprStmt) Location() diag.SourceLocation { return noLoc }
func (s *tExprStmt) Expr() srcast.Node             { return s.expr }

type tIf struct {
	init       *tVar
	cond       srcast.Node
	then, elze srcast.Node
}

func (s *tIf) Kind() srcast.Kind             { return srcast.KindIfStmt }
func (s *tIf) Location() diag.SourceLocation { return noLoc }
func (s *tIf) InitDecl() srcast.VarDecl {
	if s.init == nil {
		return nil
	}
	return s.init
}
func (s *tIf) Cond() srcast.Node { return s.cond }
func (s *tIf) Then() srcast.Node { return s.then }
func (s *tIf) Else() srcast.Node { return s.elze }
func (s *tIf) Children() []srcast.Node {
	out := []srcast.Node{s.cond, s.then}
	if s.elze != nil {
		out = append(out, s.elze)
	}
	return out
}

type tFor struct {
	init, cond, inc, body srcast.Node
}

func (s *tFor) Kind() srcast.Kind             { return srcast.KindForStmt }
func (s *tFor) Location() diag.SourceLocation { return noLoc }
func (s *tFor) Init() srcast.Node             { return s.init }
func (s *tFor) Cond() srcast.Node             { return s.cond }
func (s *tFor) Inc() srcast.Node              { return s.inc }
func (s *tFor) Body() srcast.Node             { return s.body }
func (s *tFor) Children() []srcast.Node {
	var out []srcast.Node
	for _, c := range []srcast.Node{s.init, s.cond, s.inc, s.body} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

type tSwitch struct {
	disc srcast.Node
	body *tCompound
}

func (s *tSwitch) Kind() srcast.Kind             { return srcast.KindSwitchStmt }
func (s *tSwitch) Location() diag.SourceLocation { return noLoc }
func (s *tSwitch) Disc() srcast.Node             { return s.disc }
func (s *tSwitch) Body() srcast.Node             { return s.body }
func (s *tSwitch) Children() []srcast.Node       { return []srcast.Node{s.disc, s.body} }

type tCase struct {
	value srcast.Node
	stmt  srcast.Node
}

func (s *tCase) Kind() srcast.Kind             { return srcast.KindCaseStmt }
func (s *tCase) Location() diag.SourceLocation { return noLoc }
func (s *tCase) Value() srcast.Node            { return s.value }
func (s *tCase) Stmt() srcast.Node             { return s.stmt }
func (s *tCase) Children() []srcast.Node       { return []srcast.Node{s.value, s.stmt} }

type tDefault struct{ stmt srcast.Node }

func (s *tDefault) Kind() srcast.Kind             { return srcast.KindDefaultStmt }
func (s *tDefault) Location() diag.SourceLocation { return noLoc }
func (s *tDefault) Stmt() srcast.Node             { return s.stmt }
func (s *tDefault) Children() []srcast.Node       { return []srcast.Node{s.stmt} }

type tBreak struct{}

func (s *tBreak) Kind() srcast.Kind             { return srcast.KindBreakStmt }
func (s *tBreak) Location() diag.SourceLocation { return noLoc }
func (s *tBreak) Children() []srcast.Node       { return nil }

type tReturn struct{ val srcast.Node }

func (s *tReturn) Kind() srcast.Kind             { return srcast.KindReturnStmt }
func (s *tReturn) Location() diag.SourceLocation { return noLoc }
func (s *tReturn) Value() srcast.Node            { return s.val }
func (s *tReturn) Children() []srcast.Node {
	if s.val == nil {
		return nil
	}
	return []srcast.Node{s.val}
}

// --- expressions ---

type tIntLit struct {
	val      int64
	unsigned bool
	width    int
}

func (e *tIntLit) Kind() srcast.Kind             { return srcast.KindIntLiteral }
func (e *tIntLit) Children() []srcast.Node       { return nil }
func (e *tIntLit) Location() diag.SourceLocation { return noLoc }
func (e *tIntLit) Text() string                  { return strconv.FormatInt(e.val, 10) }
func (e *tIntLit) Value() int64                  { return e.val }
func (e *tIntLit) IsUnsigned() bool              { return e.unsigned }
func (e *tIntLit) BitWidth() int {
	if e.width == 0 {
		return 4
	}
	return e.width
}

func intLit(v int64) *tIntLit { return &tIntLit{val: v} }

type tIdent struct {
	name     string
	resolved srcast.Node
}

func (e *tIdent) Kind() srcast.Kind             { return srcast.KindIdentExpr }
func (e *tIdent) Children() []srcast.Node       { return nil }
func (e *tIdent) Location() diag.SourceLocation { return noLoc }
func (e *tIdent) Name() string                  { return e.name }
func (e *tIdent) Resolved() srcast.Node         { return e.resolved }

func identOf(d srcast.Node) *tIdent {
	name := ""
	switch n := d.(type) {
	case *tVar:
		name = n.name
	case *tParam:
		name = n.name
	case *tFunc:
		name = n.name
	}
	return &tIdent{name: name, resolved: d}
}

type tBinary struct {
	op       string
	lhs, rhs srcast.Node
}

func (e *tBinary) Kind() srcast.Kind             { return srcast.KindBinaryExpr }
func (e *tBinary) Children() []srcast.Node       { return []srcast.Node{e.lhs, e.rhs} }
func (e *tBinary) Location() diag.SourceLocation { return noLoc }
func (e *tBinary) Op() string                    { return e.op }
func (e *tBinary) Lhs() srcast.Node              { return e.lhs }
func (e *tBinary) Rhs() srcast.Node              { return e.rhs }

type tAssign struct{ lhs, rhs srcast.Node }

func (e *tAssign) Kind() srcast.Kind             { return srcast.KindAssignExpr }
func (e *tAssign) Children() []srcast.Node       { return []srcast.Node{e.lhs, e.rhs} }
func (e *tAssign) Location() diag.SourceLocation { return noLoc }
func (e *tAssign) Lhs() srcast.Node              { return e.lhs }
func (e *tAssign) Rhs() srcast.Node              { return e.rhs }

type tCompoundAssign struct {
	op       string
	lhs, rhs srcast.Node
}

func (e *tCompoundAssign) Kind() srcast.Kind             { return srcast.KindCompoundAssignExpr }
func (e *tCompoundAssign) Children() []srcast.Node       { return []srcast.Node{e.lhs, e.rhs} }
func (e *tCompoundAssign) Location() diag.SourceLocation { return noLoc }
func (e *tCompoundAssign) Op() string                    { return e.op }
func (e *tCompoundAssign) Lhs() srcast.Node              { return e.lhs }
func (e *tCompoundAssign) Rhs() srcast.Node              { return e.rhs }

type tIncDec struct {
	operand     srcast.Node
	inc, prefix bool
}

func (e *tIncDec) Kind() srcast.Kind             { return srcast.KindIncDecExpr }
func (e *tIncDec) Children() []srcast.Node       { return []srcast.Node{e.operand} }
func (e *tIncDec) Location() diag.SourceLocation { return noLoc }
func (e *tIncDec) Operand() srcast.Node          { return e.operand }
func (e *tIncDec) IsIncrement() bool             { return e.inc }
func (e *tIncDec) IsPrefix() bool                { return e.prefix }

type tCall struct {
	callee srcast.Node
	args   []srcast.Node
}

func (e *tCall) Kind() srcast.Kind             { return srcast.KindCallExpr }
func (e *tCall) Location() diag.SourceLocation { return noLoc }
func (e *tCall) Callee() srcast.Node           { return e.callee }
func (e *tCall) Args() []srcast.Node           { return e.args }
func (e *tCall) Children() []srcast.Node {
	return append([]srcast.Node{e.callee}, e.args...)
}

type tCast struct {
	target  srcast.TypeNode
	operand srcast.Node
}

func (e *tCast) Kind() srcast.Kind             { return srcast.KindCastExpr }
func (e *tCast) Children() []srcast.Node       { return []srcast.Node{e.operand} }
func (e *tCast) Location() diag.SourceLocation { return noLoc }
func (e *tCast) Target() srcast.TypeNode       { return e.target }
func (e *tCast) Operand() srcast.Node          { return e.operand }

type tSubscript struct{ base, index srcast.Node }

func (e *tSubscript) Kind() srcast.Kind             { return srcast.KindSubscriptExpr }
func (e *tSubscript) Children() []srcast.Node       { return []srcast.Node{e.base, e.index} }
func (e *tSubscript) Location() diag.SourceLocation { return noLoc }
func (e *tSubscript) Base() srcast.Node             { return e.base }
func (e *tSubscript) Index() srcast.Node            { return e.index }

type tMember struct {
	base  srcast.Node
	field string
	arrow bool
}

func (e *tMember) Kind() srcast.Kind             { return srcast.KindMemberExpr }
func (e *tMember) Children() []srcast.Node       { return []srcast.Node{e.base} }
func (e *tMember) Location() diag.SourceLocation { return noLoc }
func (e *tMember) Base() srcast.Node             { return e.base }
func (e *tMember) Field() string                 { return e.field }
func (e *tMember) IsArrow() bool                 { return e.arrow }

type tSizeof struct{ typ srcast.TypeNode }

func (e *tSizeof) Kind() srcast.Kind             { return srcast.KindSizeofExpr }
func (e *tSizeof) Children() []srcast.Node       { return nil }
func (e *tSizeof) Location() diag.SourceLocation { return noLoc }
func (e *tSizeof) OperandType() srcast.TypeNode  { return e.typ }

// --- convenience builders ---

var (
	tyInt    = &tBuiltin{name: "int"}
	tyVoid   = &tBuiltin{name: "void"}
	tyIntPtr = &tPointer{pointee: tyInt}
)

func compound(stmts ...srcast.Node) *tCompound { return &tCompound{stmts: stmts} }

func exprStmt(e srcast.Node) *tExprStmt { return &tExprStmt{expr: e} }

func declStmt(decls ...*tVar) *tDeclStmt { return &tDeclStmt{decls: decls} }
