package replacer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/replacer"
	"github.com/inspirecore/inspire/internal/visitor"
)

func genInt(t *testing.T, m *ir.Manager, width int64) *ir.Node {
	t.Helper()
	p, err := m.ConcreteIntTypeParam(width)
	require.NoError(t, err)
	n, err := m.GenericType("int", nil, []*ir.Node{p}, nil)
	require.NoError(t, err)
	return n
}

func genReal(t *testing.T, m *ir.Manager, width int64) *ir.Node {
	t.Helper()
	p, err := m.ConcreteIntTypeParam(width)
	require.NoError(t, err)
	n, err := m.GenericType("real", nil, []*ir.Node{p}, nil)
	require.NoError(t, err)
	return n
}

func TestReplaceAllSubstitutesAllOccurrences(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	v, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	other, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)

	root, err := m.CastExpr(i4, v)
	require.NoError(t, err)

	out, err := replacer.ReplaceAll(m, root, replacer.Map{v: other})
	require.NoError(t, err)
	require.Same(t, other, ir.CastExprOperand(out))
}

func TestReplaceAllPreservesUnmatchedSubtree(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	i8 := genInt(t, m, 8)
	lit, err := m.Literal("1", i4)
	require.NoError(t, err)

	root, err := m.CastExpr(i8, lit)
	require.NoError(t, err)

	out, err := replacer.ReplaceAll(m, root, replacer.Map{})
	require.NoError(t, err)
	require.Same(t, root, out)
}

func TestReplaceAllMigratesAnnotations(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	v, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	other, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)

	root, err := m.CastExpr(i4, v)
	require.NoError(t, err)
	root.Annotate(ir.AnnotationOriginalCName, "foo")

	out, err := replacer.ReplaceAll(m, root, replacer.Map{v: other})
	require.NoError(t, err)
	val, ok := out.Annotation(ir.AnnotationOriginalCName)
	require.True(t, ok)
	require.Equal(t, "foo", val)
}

func TestReplaceFastPathMatchesReplaceAll(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	v, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	other, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	root, err := m.CastExpr(i4, v)
	require.NoError(t, err)

	viaAll, err := replacer.ReplaceAll(m, root, replacer.Map{v: other})
	require.NoError(t, err)
	viaSingle, err := replacer.Replace(m, root, v, other)
	require.NoError(t, err)
	require.Same(t, viaAll, viaSingle)
}

func TestReplaceVariablesScopedCrossesNonLambdaNodes(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	outer, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	replacement, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)

	root, err := m.CastExpr(i4, outer)
	require.NoError(t, err)

	out, err := replacer.ReplaceVariablesScoped(m, root, replacer.Map{outer: replacement})
	require.NoError(t, err)
	require.Same(t, replacement, ir.CastExprOperand(out))
}

func TestReplaceVariablesScopedLeavesLambdaBodyUntouched(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	outer, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	replacement, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)

	innerUseOfOuter, err := m.CastExpr(i4, outer)
	require.NoError(t, err)
	param, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	fnType, err := m.FunctionType([]*ir.Node{i4}, i4, true)
	require.NoError(t, err)
	lambda, err := m.LambdaExpr(fnType, []*ir.Node{param}, innerUseOfOuter)
	require.NoError(t, err)

	out, err := replacer.ReplaceVariablesScoped(m, lambda, replacer.Map{outer: replacement})
	require.NoError(t, err)
	require.Same(t, lambda, out)
}

func TestReplaceVariablesRecursiveRededucesCallReturnType(t *testing.T) {
	m := ir.NewManager()
	alpha, err := m.TypeVariable("a")
	require.NoError(t, err)
	i4 := genInt(t, m, 4)
	r8 := genReal(t, m, 8)

	fnType, err := m.FunctionType([]*ir.Node{alpha}, alpha, true)
	require.NoError(t, err)
	fn, err := m.Variable(fnType, ir.NextFreshID())
	require.NoError(t, err)

	oldArg, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	newArg, err := m.Variable(r8, ir.NextFreshID())
	require.NoError(t, err)

	call, err := m.CallExpr(i4, fn, []*ir.Node{oldArg})
	require.NoError(t, err)

	out, err := replacer.ReplaceVariablesRecursive(m, call, replacer.Map{oldArg: newArg}, diag.NewCollector())
	require.NoError(t, err)
	require.Same(t, r8, ir.CallExprReturnType(out))
}

func TestReplaceNodeIsPathUnique(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	shared, err := m.Literal("1", i4)
	require.NoError(t, err)
	i8 := genInt(t, m, 8)
	replacement, err := m.Literal("2", i8)
	require.NoError(t, err)

	// Two distinct CastExpr nodes, each wrapping the same interned literal
	// (so shared is reached by two separate occurrences), packed into a
	// tuple so the addresses /0/1 and /1/1 both resolve to it.
	castA, err := m.CastExpr(i4, shared)
	require.NoError(t, err)
	castB, err := m.CastExpr(i8, shared)
	require.NoError(t, err)
	pair, err := m.TupleType([]*ir.Node{castA, castB})
	require.NoError(t, err)

	out, err := replacer.ReplaceNode(m, pair, visitor.Address{1, 1}, replacement)
	require.NoError(t, err)
	require.Same(t, shared, out.Child(0).Child(1))
	require.Same(t, replacement, out.Child(1).Child(1))
}
