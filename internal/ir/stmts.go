package ir

import "fmt"

func init() {
	RegisterValidator(KindDeclarationStmt, validateDeclarationStmt)
	RegisterValidator(KindIfStmt, validateIfStmt)
	RegisterValidator(KindWhileStmt, validateArity(2, "WhileStmt"))
	RegisterValidator(KindForStmt, validateArity(4, "ForStmt"))
	RegisterValidator(KindSwitchStmt, validateSwitchStmt)
	RegisterValidator(KindSwitchCase, validateArity(2, "SwitchCase"))
	RegisterValidator(KindBreakStmt, validateArity(0, "BreakStmt"))
	RegisterValidator(KindContinueStmt, validateArity(0, "ContinueStmt"))
	RegisterValidator(KindReturnStmt, validateReturnStmt)
}

func validateDeclarationStmt(_ Kind, _ Payload, children []*Node) error {
	if len(children) != 1 && len(children) != 2 {
		return fmt.Errorf("DeclarationStmt expects 1 (var) or 2 (var, init) children, got %d", len(children))
	}
	if children[0].Kind != KindVariable {
		return fmt.Errorf("DeclarationStmt's first child must be a Variable")
	}
	return nil
}

func validateIfStmt(_ Kind, _ Payload, children []*Node) error {
	if len(children) != 2 && len(children) != 3 {
		return fmt.Errorf("IfStmt expects 2 (cond, then) or 3 (cond, then, else) children, got %d", len(children))
	}
	return nil
}

func validateSwitchStmt(_ Kind, _ Payload, children []*Node) error {
	if len(children) < 2 {
		return fmt.Errorf("SwitchStmt requires a discriminator declaration and a default branch, at minimum")
	}
	return nil
}

func validateReturnStmt(_ Kind, _ Payload, children []*Node) error {
	if len(children) > 1 {
		return fmt.Errorf("ReturnStmt expects at most 1 child, got %d", len(children))
	}
	return nil
}

// CompoundStmt constructs a sequence of statements executed in source order.
func (m *Manager) CompoundStmt(stmts []*Node) (*Node, error) {
	return m.Get(KindCompoundStmt, Payload{}, stmts...)
}

func CompoundStmtBody(n *Node) []*Node { return n.Children }

// DeclarationStmt constructs a variable declaration, optionally with an
// initializer.
func (m *Manager) DeclarationStmt(v *Node, init *Node) (*Node, error) {
	if init == nil {
		return m.Get(KindDeclarationStmt, Payload{}, v)
	}
	return m.Get(KindDeclarationStmt, Payload{Flag: true}, v, init)
}

func DeclarationStmtVar(n *Node) *Node { return n.Child(0) }
func DeclarationStmtInit(n *Node) *Node {
	if !n.Payload.Flag {
		return nil
	}
	return n.Child(1)
}

// IfStmt constructs a conditional; elseBranch may be nil.
func (m *Manager) IfStmt(cond *Node, then *Node, elseBranch *Node) (*Node, error) {
	if elseBranch == nil {
		return m.Get(KindIfStmt, Payload{}, cond, then)
	}
	return m.Get(KindIfStmt, Payload{Flag: true}, cond, then, elseBranch)
}

func IfStmtCond(n *Node) *Node { return n.Child(0) }
func IfStmtThen(n *Node) *Node { return n.Child(1) }
func IfStmtElse(n *Node) *Node {
	if !n.Payload.Flag {
		return nil
	}
	return n.Child(2)
}

// WhileStmt constructs a pre-tested loop.
func (m *Manager) WhileStmt(cond *Node, body *Node) (*Node, error) {
	return m.Get(KindWhileStmt, Payload{}, cond, body)
}

func WhileStmtCond(n *Node) *Node { return n.Child(0) }
func WhileStmtBody(n *Node) *Node { return n.Child(1) }

// ForStmt constructs the affine loop normal form: a single induction
// iter : lb -> end : step, where decl binds the induction variable to lb.
// Children are stored in construction order (decl, end, step, body).
func (m *Manager) ForStmt(decl *Node, end *Node, step *Node, body *Node) (*Node, error) {
	return m.Get(KindForStmt, Payload{}, decl, end, step, body)
}

func ForStmtDecl(n *Node) *Node { return n.Child(0) }
func ForStmtEnd(n *Node) *Node  { return n.Child(1) }
func ForStmtStep(n *Node) *Node { return n.Child(2) }
func ForStmtBody(n *Node) *Node { return n.Child(3) }

// SwitchCase constructs one (value, body) arm of a switch.
func (m *Manager) SwitchCase(value *Node, body *Node) (*Node, error) {
	return m.Get(KindSwitchCase, Payload{}, value, body)
}

func SwitchCaseValue(n *Node) *Node { return n.Child(0) }
func SwitchCaseBody(n *Node) *Node  { return n.Child(1) }

// SwitchStmt constructs a switch over discVar (a DeclarationStmt binding
// the evaluated discriminator to a fresh variable so it cannot be
// re-evaluated per arm), a list of SwitchCase arms, and a
// default body (an empty CompoundStmt if the source had none).
func (m *Manager) SwitchStmt(discVarDecl *Node, cases []*Node, defaultBody *Node) (*Node, error) {
	children := make([]*Node, 0, len(cases)+2)
	children = append(children, discVarDecl)
	children = append(children, cases...)
	children = append(children, defaultBody)
	return m.Get(KindSwitchStmt, Payload{Int: int64(len(cases))}, children...)
}

func SwitchStmtDiscVarDecl(n *Node) *Node { return n.Child(0) }
func SwitchStmtCases(n *Node) []*Node     { return n.Children[1 : 1+int(n.Payload.Int)] }
func SwitchStmtDefault(n *Node) *Node     { return n.Children[len(n.Children)-1] }

// BreakStmt and ContinueStmt carry no children.
func (m *Manager) BreakStmt() (*Node, error)    { return m.Get(KindBreakStmt, Payload{}) }
func (m *Manager) ContinueStmt() (*Node, error) { return m.Get(KindContinueStmt, Payload{}) }

// ReturnStmt constructs a return, optionally carrying a value already cast
// to the enclosing function's return type.
func (m *Manager) ReturnStmt(value *Node) (*Node, error) {
	if value == nil {
		return m.Get(KindReturnStmt, Payload{})
	}
	return m.Get(KindReturnStmt, Payload{Flag: true}, value)
}

func ReturnStmtValue(n *Node) *Node {
	if !n.Payload.Flag {
		return nil
	}
	return n.Child(0)
}
