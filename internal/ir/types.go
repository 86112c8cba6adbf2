package ir

import "fmt"

func init() {
	RegisterValidator(KindGenericType, validateGenericType)
	RegisterValidator(KindFunctionType, validateFunctionType)
	RegisterValidator(KindStructType, validateComposite)
	RegisterValidator(KindUnionType, validateComposite)
	RegisterValidator(KindArrayType, validateArity(1, "ArrayType"))
	RegisterValidator(KindVectorType, validateVectorType)
	RegisterValidator(KindRefType, validateArity(1, "RefType"))
	RegisterValidator(KindChannelType, validateArity(1, "ChannelType"))
	RegisterValidator(KindRecType, validateArity(2, "RecType"))
	RegisterValidator(KindFieldEntry, validateArity(1, "FieldEntry"))
}

func validateArity(n int, name string) ValidateFunc {
	return func(_ Kind, _ Payload, children []*Node) error {
		if len(children) != n {
			return fmt.Errorf("%s expects %d children, got %d", name, n, len(children))
		}
		return nil
	}
}

func validateGenericType(_ Kind, payload Payload, _ []*Node) error {
	if payload.Text == "" {
		return fmt.Errorf("GenericType requires a non-empty family name")
	}
	return nil
}

func validateFunctionType(_ Kind, _ Payload, children []*Node) error {
	if len(children) < 1 {
		return fmt.Errorf("FunctionType requires at least a return type child")
	}
	return nil
}

func validateComposite(_ Kind, _ Payload, children []*Node) error {
	seen := make(map[string]bool, len(children))
	for _, c := range children {
		if c.Kind != KindFieldEntry {
			return fmt.Errorf("composite type entries must be FieldEntry nodes, got %s", c.Kind)
		}
		if seen[c.Payload.Text] {
			return fmt.Errorf("duplicate field identifier %q in composite type", c.Payload.Text)
		}
		seen[c.Payload.Text] = true
	}
	return nil
}

func validateVectorType(_ Kind, payload Payload, children []*Node) error {
	if len(children) != 1 {
		return fmt.Errorf("VectorType expects 1 child (element type), got %d", len(children))
	}
	if payload.Int < 0 {
		return fmt.Errorf("VectorType size must be non-negative, got %d", payload.Int)
	}
	return nil
}

// TypeVariable constructs an unknown type to be bound by a substitution.
func (m *Manager) TypeVariable(name string) (*Node, error) {
	return m.Get(KindTypeVariable, Payload{Text: name})
}

// VariableIntTypeParam constructs a type-level integer unknown.
func (m *Manager) VariableIntTypeParam(name string) (*Node, error) {
	return m.Get(KindVariableIntTypeParam, Payload{Text: name})
}

// ConcreteIntTypeParam constructs a known type-level integer (array sizes,
// dimensions).
func (m *Manager) ConcreteIntTypeParam(n int64) (*Node, error) {
	return m.Get(KindConcreteIntTypeParam, Payload{Int: n})
}

// GenericType constructs the single carrier for all named primitive and
// user types. typeParams and intParams may be empty; base, if non-nil, is
// appended as the final child so family aliasing (e.g. typedef transparency)
// can recover the underlying type.
func (m *Manager) GenericType(family string, typeParams []*Node, intParams []*Node, base *Node) (*Node, error) {
	children := make([]*Node, 0, len(typeParams)+len(intParams)+1)
	children = append(children, typeParams...)
	children = append(children, intParams...)
	if base != nil {
		children = append(children, base)
	}
	return m.Get(KindGenericType, Payload{Text: family, Int: int64(len(typeParams)), Flag: base != nil}, children...)
}

// GenericTypeParams splits a GenericType's children back into type-params,
// int-params and an optional base, using the arity recorded in Payload.Int
// and the Flag marking whether a base type was appended.
func GenericTypeParams(n *Node) (typeParams []*Node, intParams []*Node, base *Node) {
	nt := int(n.Payload.Int)
	rest := n.Children
	if nt > len(rest) {
		nt = len(rest)
	}
	typeParams = rest[:nt]
	rest = rest[nt:]
	if n.Payload.Flag && len(rest) > 0 {
		base = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	intParams = rest
	return
}

// TupleType constructs an ordered heterogeneous product type.
func (m *Manager) TupleType(elems []*Node) (*Node, error) {
	return m.Get(KindTupleType, Payload{}, elems...)
}

// FunctionType constructs a function type. plain=true is a raw
// pointer-callable; plain=false is a closure (call-pointer + environment).
func (m *Manager) FunctionType(params []*Node, ret *Node, plain bool) (*Node, error) {
	children := make([]*Node, 0, len(params)+1)
	children = append(children, ret)
	children = append(children, params...)
	return m.Get(KindFunctionType, Payload{Flag: plain}, children...)
}

// FunctionTypeReturn and FunctionTypeParams decompose a FunctionType node.
func FunctionTypeReturn(n *Node) *Node   { return n.Child(0) }
func FunctionTypeParams(n *Node) []*Node { return n.Children[1:] }
func FunctionTypeIsPlain(n *Node) bool   { return n.Payload.Flag }

// FieldEntry constructs one (identifier, type) entry of a Struct/UnionType.
func (m *Manager) FieldEntry(identifier string, typ *Node) (*Node, error) {
	return m.Get(KindFieldEntry, Payload{Text: identifier}, typ)
}

// StructType / UnionType construct a named composite from ordered field
// entries; field identifiers must be unique within the composite.
func (m *Manager) StructType(name string, fields []*Node) (*Node, error) {
	return m.Get(KindStructType, Payload{Text: name}, fields...)
}

func (m *Manager) UnionType(name string, fields []*Node) (*Node, error) {
	return m.Get(KindUnionType, Payload{Text: name}, fields...)
}

// ArrayType constructs an unbounded multidimensional array type.
func (m *Manager) ArrayType(elem *Node) (*Node, error) {
	return m.Get(KindArrayType, Payload{}, elem)
}

// VectorType constructs a statically sized array type.
func (m *Manager) VectorType(elem *Node, size int64) (*Node, error) {
	return m.Get(KindVectorType, Payload{Int: size}, elem)
}

// RefType constructs a mutable-location type containing an element-typed
// value.
func (m *Manager) RefType(elem *Node) (*Node, error) {
	return m.Get(KindRefType, Payload{}, elem)
}

// RefTypeElem returns the element type a RefType cell contains.
func RefTypeElem(n *Node) *Node { return n.Child(0) }

// ArrayTypeElem and VectorTypeElem return the element type of an array or
// vector; VectorTypeSize returns a vector's static size.
func ArrayTypeElem(n *Node) *Node  { return n.Child(0) }
func VectorTypeElem(n *Node) *Node { return n.Child(0) }
func VectorTypeSize(n *Node) int64 { return n.Payload.Int }

// IsUnitType reports whether n is the dedicated unit/void GenericType.
func IsUnitType(n *Node) bool {
	return n != nil && n.Kind == KindGenericType && n.Payload.Text == "unit"
}

// ChannelType constructs a buffered communication channel type; size 0
// models a handshake (unbuffered) channel.
func (m *Manager) ChannelType(elem *Node, size int64) (*Node, error) {
	return m.Get(KindChannelType, Payload{Int: size}, elem)
}

// RecTypeDefinition builds the shared mapping TypeVariable -> body used to
// tie an SCC of mutually recursive types together: every member of the
// cycle shares the same RecTypeDefinition instance, which hash-consing
// guarantees as long as callers pass the vars/bodies in a canonical order.
func (m *Manager) RecTypeDefinition(vars []*Node, bodies []*Node) (*Node, error) {
	if len(vars) != len(bodies) {
		return nil, fmt.Errorf("RecTypeDefinition: %d vars but %d bodies", len(vars), len(bodies))
	}
	children := make([]*Node, 0, len(vars)*2)
	for i := range vars {
		children = append(children, vars[i], bodies[i])
	}
	return m.Get(KindRecTypeDefinition, Payload{Int: int64(len(vars))}, children...)
}

// RecTypeDefinitionEntries returns the (var, body) pairs of a
// RecTypeDefinition node.
func RecTypeDefinitionEntries(def *Node) (vars []*Node, bodies []*Node) {
	n := int(def.Payload.Int)
	vars = make([]*Node, n)
	bodies = make([]*Node, n)
	for i := 0; i < n; i++ {
		vars[i] = def.Children[2*i]
		bodies[i] = def.Children[2*i+1]
	}
	return
}

// RecType constructs a recursive type reference: var is a TypeVariable
// bound by definition (a RecTypeDefinition).
func (m *Manager) RecType(v *Node, definition *Node) (*Node, error) {
	return m.Get(KindRecType, Payload{}, v, definition)
}

func RecTypeVar(n *Node) *Node          { return n.Child(0) }
func RecTypeDefinitionOf(n *Node) *Node { return n.Child(1) }
