// Package typesys implements the type system operations that sit on top of
// the bare IR data model: substitution, unification, subtyping, join/meet,
// and fresh-variable renaming.
package typesys

import "github.com/inspirecore/inspire/internal/ir"

// Substitution is a pair of finite maps: TypeVariable -> Type and
// VariableIntTypeParam -> IntTypeParam. Application is structural and
// single-shot: once a mapped variable is replaced, the replacement is not
// itself re-examined for further substitution.
type Substitution struct {
	Types     map[*ir.Node]*ir.Node
	IntParams map[*ir.Node]*ir.Node
}

// NewSubstitution returns the identity substitution.
func NewSubstitution() *Substitution {
	return &Substitution{Types: map[*ir.Node]*ir.Node{}, IntParams: map[*ir.Node]*ir.Node{}}
}

// Bind extends s with v -> t in place and returns s.
func (s *Substitution) Bind(v, t *ir.Node) *Substitution {
	switch v.Kind {
	case ir.KindVariableIntTypeParam:
		s.IntParams[v] = t
	default:
		s.Types[v] = t
	}
	return s
}

// Empty reports whether s binds nothing.
func (s *Substitution) Empty() bool {
	return len(s.Types) == 0 && len(s.IntParams) == 0
}

// Apply rewrites node through s, rebuilding every ancestor of a substituted
// position through m so the result stays hash-consed. A TypeVariable or
// VariableIntTypeParam bound by s is replaced outright — its replacement is
// not recursively substituted again (single-shot).
func Apply(m *ir.Manager, s *Substitution, node *ir.Node) (*ir.Node, error) {
	if node == nil || s.Empty() {
		return node, nil
	}
	if node.Kind == ir.KindTypeVariable || node.Kind == ir.KindVariableIntTypeParam {
		if repl, ok := lookup(s, node); ok {
			return repl, nil
		}
		return node, nil
	}
	if len(node.Children) == 0 {
		return node, nil
	}
	children := make([]*ir.Node, len(node.Children))
	changed := false
	for i, c := range node.Children {
		nc, err := Apply(m, s, c)
		if err != nil {
			return nil, err
		}
		children[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return node, nil
	}
	rebuilt, err := m.Get(node.Kind, node.Payload, children...)
	if err != nil {
		return nil, err
	}
	rebuilt.MigrateAnnotationsFrom(node)
	return rebuilt, nil
}

func lookup(s *Substitution, v *ir.Node) (*ir.Node, bool) {
	if v.Kind == ir.KindVariableIntTypeParam {
		r, ok := s.IntParams[v]
		return r, ok
	}
	r, ok := s.Types[v]
	return r, ok
}

// Compose returns a ∘ b: applying b to every range element of a, then
// unioning b's domain with a's on keys not already bound in a.
func Compose(m *ir.Manager, a, b *Substitution) (*Substitution, error) {
	result := NewSubstitution()
	for v, t := range a.Types {
		nt, err := Apply(m, b, t)
		if err != nil {
			return nil, err
		}
		result.Types[v] = nt
	}
	for v, t := range a.IntParams {
		nt, err := Apply(m, b, t)
		if err != nil {
			return nil, err
		}
		result.IntParams[v] = nt
	}
	for v, t := range b.Types {
		if _, exists := result.Types[v]; !exists {
			result.Types[v] = t
		}
	}
	for v, t := range b.IntParams {
		if _, exists := result.IntParams[v]; !exists {
			result.IntParams[v] = t
		}
	}
	return result, nil
}
