package typesys

import (
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
)

// UnitType returns the dedicated unit/void GenericType, interned in m.
func UnitType(m *ir.Manager) (*ir.Node, error) {
	return m.GenericType("unit", nil, nil, nil)
}

// DeduceReturnType deduces a call's return type: unify fnType's declared
// parameters against the actual argument types and apply the resulting
// substitution to the declared return type. On unification failure the
// policy is to recover: a warning is pushed onto collector (if non-nil)
// and the unit type is returned so downstream conversion stays well-typed.
func DeduceReturnType(m *ir.Manager, fnType *ir.Node, argTypes []*ir.Node, loc diag.SourceLocation, collector *diag.Collector) (*ir.Node, error) {
	params := ir.FunctionTypeParams(fnType)
	ret := ir.FunctionTypeReturn(fnType)

	if len(params) != len(argTypes) {
		return recoverToUnit(m, loc, collector, "argument count %d does not match parameter count %d", len(argTypes), len(params))
	}

	sub := NewSubstitution()
	for i := range params {
		pairSub, err := Unify(m, params[i], argTypes[i])
		if err != nil {
			return recoverToUnit(m, loc, collector, "unification failure on parameter %d: %v", i, err)
		}
		sub, err = Compose(m, sub, pairSub)
		if err != nil {
			return recoverToUnit(m, loc, collector, "substitution composition failed: %v", err)
		}
	}
	return Apply(m, sub, ret)
}

func recoverToUnit(m *ir.Manager, loc diag.SourceLocation, collector *diag.Collector, format string, args ...any) (*ir.Node, error) {
	if collector != nil {
		collector.Warn(diag.New(diag.UnificationFailure, loc, format, args...))
	}
	return UnitType(m)
}
