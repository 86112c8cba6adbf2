package ir

import "fmt"

// Manager owns every IR node reachable through it and enforces structural
// uniqueness: two requests for the same (Kind, Payload, Children) triple
// always return the same *Node. It is the single arena that
// nodes live and die with — there is no per-node destructor, no reference
// count, no cross-manager sharing; moving a node to another manager means
// deep-cloning it through a Replacer substitution.
//
// The cache itself follows the same shape as the registries in a type
// system (a map keyed by a normalized key, idempotent on insert) — just
// keyed structurally instead of by name.
type Manager struct {
	cache  map[structKey]*Node
	nextID uint64
}

// NewManager creates an empty node arena.
func NewManager() *Manager {
	return &Manager{cache: make(map[structKey]*Node)}
}

// NodeCount returns the number of distinct nodes interned so far.
func (m *Manager) NodeCount() int {
	return len(m.cache)
}

// ValidateFunc checks a candidate node's shape before it is interned.
// Returning a non-nil error aborts construction with that error (typically
// an *diag.Error of kind IllFormedNode, but this package does not import
// diag to avoid a cycle with callers that need ir — the error is plain and
// callers are expected to wrap it).
type ValidateFunc func(kind Kind, payload Payload, children []*Node) error

var validators = map[Kind]ValidateFunc{}

// RegisterValidator installs (or overrides) the well-formedness check for a
// kind. Called from init() in the files that define each kind's shape, so
// the check lives next to the constructor it guards.
func RegisterValidator(k Kind, f ValidateFunc) {
	validators[k] = f
}

// intern is the sole path through which a *Node comes into existence.
func (m *Manager) intern(kind Kind, payload Payload, children []*Node) (*Node, error) {
	if v, ok := validators[kind]; ok {
		if err := v(kind, payload, children); err != nil {
			return nil, fmt.Errorf("ill-formed %s node: %w", kind, err)
		}
	}
	key := makeKey(kind, payload, children)
	if existing, ok := m.cache[key]; ok {
		return existing, nil
	}
	m.nextID++
	n := &Node{
		Kind:     kind,
		Children: children,
		Payload:  payload,
		id:       m.nextID,
	}
	n.hash = structuralHash(kind, payload, children)
	m.cache[key] = n
	return n, nil
}

// structuralHash computes a 64-bit FNV-1a style hash over the kind,
// payload, and the identity sequence of children. It is used only for the
// Hash() accessor exposed to callers — lookup itself goes through the exact
// structKey map, not this hash, so there is no collision risk from hash
// truncation.
func structuralHash(kind Kind, payload Payload, children []*Node) uint64 {
	const prime = 1099511628211
	h := uint64(14695981039346656037)
	mix := func(b byte) {
		h ^= uint64(b)
		h *= prime
	}
	mixString := func(s string) {
		for i := 0; i < len(s); i++ {
			mix(s[i])
		}
	}
	mixString(kind.String())
	mixString(payload.Text)
	for i := 0; i < 8; i++ {
		mix(byte(payload.Int >> (8 * i)))
	}
	if payload.Flag {
		mix(1)
	}
	for _, c := range children {
		for i := 0; i < 8; i++ {
			mix(byte(c.id >> (8 * i)))
		}
	}
	return h
}

// Get is the Node Manager's public contract: always returns the
// unique canonical instance for kind/children/payload. It is the low-level
// entry point used by the per-kind constructors in this package; client
// code should prefer those (types.go, exprs.go, stmts.go) or the typed
// smart constructors in internal/ir/builder.
func (m *Manager) Get(kind Kind, payload Payload, children ...*Node) (*Node, error) {
	return m.intern(kind, payload, children)
}
