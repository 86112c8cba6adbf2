// Package typesys implements the type-level operations of the core design:
// substitution application/composition, unification, the primitive
// subtyping lattice, join/meet, fresh-variable renaming, and return-type
// deduction for call expressions.
package typesys
