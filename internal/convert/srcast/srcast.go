// Package srcast defines the source AST contract the front-end translator
// consumes. The core never parses source text — a collaborator
// (the parser, out of scope here) hands the converter a tree of these
// interfaces. Every kind exposes its children in source order, a kind tag
// for dispatch, and enough location information to attach a SourceLocation
// annotation; every type node additionally exposes a canonical (desugared)
// form so the converter can see through typedefs without special-casing
// them at each call site.
package srcast

import "github.com/inspirecore/inspire/internal/diag"

// Kind tags every source AST node for the converter's dispatch switches.
type Kind int

const (
	KindInvalid Kind = iota

	// Declarations
	KindFuncDecl
	KindVarDecl
	KindParamDecl
	KindRecordDecl
	KindFieldDecl
	KindTypedefDecl

	// Statements
	KindCompoundStmt
	KindDeclStmt
	KindExprStmt
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindSwitchStmt
	KindCaseStmt
	KindDefaultStmt
	KindBreakStmt
	KindContinueStmt
	KindReturnStmt
	KindNullStmt

	// Expressions
	KindIntLiteral
	KindFloatLiteral
	KindBoolLiteral
	KindCharLiteral
	KindStringLiteral
	KindIdentExpr
	KindBinaryExpr
	KindUnaryExpr
	KindAssignExpr
	KindCompoundAssignExpr
	KindIncDecExpr
	KindCallExpr
	KindCastExpr
	KindMemberExpr
	KindSubscriptExpr
	KindAddrOfExpr
	KindDerefExpr
	KindInitListExpr
	KindSizeofExpr

	// Types
	KindBuiltinType
	KindPointerType
	KindConstArrayType
	KindIncompleteArrayType
	KindVariableArrayType
	KindFunctionProtoType
	KindRecordRefType
	KindTypedefNameType
)

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Invalid"
}

var kindNames = map[Kind]string{
	KindFuncDecl:            "FuncDecl",
	KindVarDecl:             "VarDecl",
	KindParamDecl:           "ParamDecl",
	KindRecordDecl:          "RecordDecl",
	KindFieldDecl:           "FieldDecl",
	KindTypedefDecl:         "TypedefDecl",
	KindCompoundStmt:        "CompoundStmt",
	KindDeclStmt:            "DeclStmt",
	KindExprStmt:            "ExprStmt",
	KindIfStmt:              "IfStmt",
	KindWhileStmt:           "WhileStmt",
	KindForStmt:             "ForStmt",
	KindSwitchStmt:          "SwitchStmt",
	KindCaseStmt:            "CaseStmt",
	KindDefaultStmt:         "DefaultStmt",
	KindBreakStmt:           "BreakStmt",
	KindContinueStmt:        "ContinueStmt",
	KindReturnStmt:          "ReturnStmt",
	KindNullStmt:            "NullStmt",
	KindIntLiteral:          "IntLiteral",
	KindFloatLiteral:        "FloatLiteral",
	KindBoolLiteral:         "BoolLiteral",
	KindCharLiteral:         "CharLiteral",
	KindStringLiteral:       "StringLiteral",
	KindIdentExpr:           "IdentExpr",
	KindBinaryExpr:          "BinaryExpr",
	KindUnaryExpr:           "UnaryExpr",
	KindAssignExpr:          "AssignExpr",
	KindCompoundAssignExpr:  "CompoundAssignExpr",
	KindIncDecExpr:          "IncDecExpr",
	KindCallExpr:            "CallExpr",
	KindCastExpr:            "CastExpr",
	KindMemberExpr:          "MemberExpr",
	KindSubscriptExpr:       "SubscriptExpr",
	KindAddrOfExpr:          "AddrOfExpr",
	KindDerefExpr:           "DerefExpr",
	KindInitListExpr:        "InitListExpr",
	KindSizeofExpr:          "SizeofExpr",
	KindBuiltinType:         "BuiltinType",
	KindPointerType:         "PointerType",
	KindConstArrayType:      "ConstArrayType",
	KindIncompleteArrayType: "IncompleteArrayType",
	KindVariableArrayType:   "VariableArrayType",
	KindFunctionProtoType:   "FunctionProtoType",
	KindRecordRefType:       "RecordRefType",
	KindTypedefNameType:     "TypedefNameType",
}

// Node is the minimal contract every source AST node satisfies.
type Node interface {
	Kind() Kind
	Children() []Node
	Location() diag.SourceLocation
}

// TypeNode additionally exposes a canonical (desugared) form, used by the
// converter to see through typedefs.
type TypeNode interface {
	Node
	Desugar() TypeNode
}

// Program is the AST root: every top-level declaration, in source order.
type Program interface {
	Node
	Decls() []Node
}

// --- Declarations ---

type FuncDecl interface {
	Node
	Name() string
	Params() []ParamDecl
	ReturnType() TypeNode
	// Body is nil for a prototype without a definition.
	Body() Node
	IsVariadic() bool
}

type ParamDecl interface {
	Node
	Name() string
	Type() TypeNode
}

type VarDecl interface {
	Node
	Name() string
	Type() TypeNode
	// Init is nil when the declarator has no initializer.
	Init() Node
	IsGlobal() bool
}

type FieldDecl interface {
	Node
	Name() string
	Type() TypeNode
}

type RecordDecl interface {
	Node
	Name() string
	Fields() []FieldDecl
	IsUnion() bool
}

type TypedefDecl interface {
	Node
	Name() string
	Underlying() TypeNode
}

// --- Statements ---

type CompoundStmt interface {
	Node
	Stmts() []Node
}

type DeclStmt interface {
	Node
	Decls() []VarDecl
}

type ExprStmt interface {
	Node
	Expr() Node
}

type IfStmt interface {
	Node
	// InitDecl is non-nil for `if (T v = expr) ...`.
	InitDecl() VarDecl
	Cond() Node
	Then() Node
	// Else is nil when there is no else-branch.
	Else() Node
}

type WhileStmt interface {
	Node
	InitDecl() VarDecl
	Cond() Node
	Body() Node
}

type ForStmt interface {
	Node
	// Init, Cond, Inc are nil when the corresponding clause is empty.
	Init() Node
	Cond() Node
	Inc() Node
	Body() Node
}

type SwitchStmt interface {
	Node
	Disc() Node
	// Body holds the switch's compound statement, in which CaseStmt and
	// DefaultStmt nodes may be interleaved with ordinary statements.
	Body() Node
}

type CaseStmt interface {
	Node
	Value() Node
	Stmt() Node
}

type DefaultStmt interface {
	Node
	Stmt() Node
}

type ReturnStmt interface {
	Node
	// Value is nil for a bare `return;`.
	Value() Node
}

// --- Expressions ---

type IntLiteral interface {
	Node
	Text() string
	Value() int64
	IsUnsigned() bool
	BitWidth() int
}

type FloatLiteral interface {
	Node
	Text() string
	Value() float64
	BitWidth() int
}

type BoolLiteral interface {
	Node
	Value() bool
}

type CharLiteral interface {
	Node
	Value() rune
}

type StringLiteral interface {
	Node
	Value() string
}

type IdentExpr interface {
	Node
	Name() string
	// Resolved names the FuncDecl, VarDecl or ParamDecl this identifier
	// refers to.
	Resolved() Node
}

type BinaryExpr interface {
	Node
	Op() string
	Lhs() Node
	Rhs() Node
}

type UnaryExpr interface {
	Node
	Op() string
	Operand() Node
}

type AssignExpr interface {
	Node
	Lhs() Node
	Rhs() Node
}

type CompoundAssignExpr interface {
	Node
	// Op is the operator without the trailing '=', e.g. "+" for "+=".
	Op() string
	Lhs() Node
	Rhs() Node
}

type IncDecExpr interface {
	Node
	Operand() Node
	IsIncrement() bool
	IsPrefix() bool
}

type CallExpr interface {
	Node
	Callee() Node
	Args() []Node
}

type CastExpr interface {
	Node
	Target() TypeNode
	Operand() Node
}

type MemberExpr interface {
	Node
	Base() Node
	Field() string
	IsArrow() bool
}

type SubscriptExpr interface {
	Node
	Base() Node
	Index() Node
}

type AddrOfExpr interface {
	Node
	Operand() Node
}

type DerefExpr interface {
	Node
	Operand() Node
}

type InitListExpr interface {
	Node
	Elems() []Node
}

type SizeofExpr interface {
	Node
	OperandType() TypeNode
}

// --- Types ---

// BuiltinType names one of the fixed scalar types: "void", "_Bool", "char",
// "int", "unsigned int", "long", "float", "double", etc. Width and
// signedness are derived from Name by the type lowering rules.
type BuiltinType interface {
	TypeNode
	Name() string
}

type PointerType interface {
	TypeNode
	Pointee() TypeNode
}

// ConstArrayType is a compile-time-sized array `T[n]`.
type ConstArrayType interface {
	TypeNode
	Elem() TypeNode
	Size() int64
}

// IncompleteArrayType is an unsized array `T[]`.
type IncompleteArrayType interface {
	TypeNode
	Elem() TypeNode
}

// VariableArrayType is a runtime-sized array whose bound is an expression,
// e.g. a VLA `T[n]` where n is not a compile-time constant.
type VariableArrayType interface {
	TypeNode
	Elem() TypeNode
	SizeExpr() Node
}

type FunctionProtoType interface {
	TypeNode
	ReturnType() TypeNode
	ParamTypes() []TypeNode
	IsVariadic() bool
}

type RecordRefType interface {
	TypeNode
	Decl() RecordDecl
}

type TypedefNameType interface {
	TypeNode
	Decl() TypedefDecl
}
