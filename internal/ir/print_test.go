package ir_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"

	"github.com/inspirecore/inspire/internal/ir"
)

// buildSampleLambda assembles a small but representative tree: a lambda
// whose body declares a counter, loops over it, and returns it.
func buildSampleLambda(t *testing.T, m *ir.Manager) *ir.Node {
	t.Helper()
	i4 := int4(t, m)

	counter, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	lb, err := m.Literal("0", i4)
	require.NoError(t, err)
	end, err := m.Literal("10", i4)
	require.NoError(t, err)
	step, err := m.Literal("1", i4)
	require.NoError(t, err)

	decl, err := m.DeclarationStmt(counter, lb)
	require.NoError(t, err)
	breakStmt, err := m.BreakStmt()
	require.NoError(t, err)
	cond, err := m.Literal("true", i4)
	require.NoError(t, err)
	inner, err := m.IfStmt(cond, breakStmt, nil)
	require.NoError(t, err)
	loopBody, err := m.CompoundStmt([]*ir.Node{inner})
	require.NoError(t, err)
	loop, err := m.ForStmt(decl, end, step, loopBody)
	require.NoError(t, err)
	ret, err := m.ReturnStmt(counter)
	require.NoError(t, err)
	body, err := m.CompoundStmt([]*ir.Node{loop, ret})
	require.NoError(t, err)

	param, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	fnType, err := m.FunctionType([]*ir.Node{i4}, i4, true)
	require.NoError(t, err)
	lam, err := m.LambdaExpr(fnType, []*ir.Node{param}, body)
	require.NoError(t, err)
	return lam
}

func TestNormalizeRenumbersDeterministically(t *testing.T) {
	m := ir.NewManager()
	lam := buildSampleLambda(t, m)

	out := ir.Normalize(lam)
	require.Equal(t, out, ir.Normalize(lam))
	require.Contains(t, out, "v1")

	snaps.MatchSnapshot(t, out)
}
