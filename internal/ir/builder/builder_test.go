package builder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/ir/builder"
)

func newBuilder(t *testing.T) (*builder.Builder, *ir.Manager) {
	t.Helper()
	m := ir.NewManager()
	return builder.New(m, diag.NewCollector()), m
}

func TestIntLitCoercesToWider(t *testing.T) {
	b, _ := newBuilder(t)
	lit, err := b.IntLit("1", 4)
	require.NoError(t, err)
	target, err := b.Int(8)
	require.NoError(t, err)

	cast, err := b.CastExpr(target, lit, diag.SourceLocation{})
	require.NoError(t, err)
	require.Equal(t, ir.KindCastExpr, cast.Kind)
	require.Same(t, target, ir.CastExprTargetType(cast))
}

func TestCastExprIdentityElided(t *testing.T) {
	b, _ := newBuilder(t)
	lit, err := b.IntLit("1", 4)
	require.NoError(t, err)
	ty := builder.ResultType(lit)

	same, err := b.CastExpr(ty, lit, diag.SourceLocation{})
	require.NoError(t, err)
	require.Same(t, lit, same)
}

func TestCastExprIllegalConversionFails(t *testing.T) {
	b, m := newBuilder(t)
	boolTy, err := b.Bool()
	require.NoError(t, err)
	lit, err := m.Literal("true", boolTy)
	require.NoError(t, err)
	structTy, err := m.StructType("Point", nil)
	require.NoError(t, err)

	_, err = b.CastExpr(structTy, lit, diag.SourceLocation{})
	require.Error(t, err)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, diag.TypeMismatch, de.Kind)
}

func TestCallExprDeducesReturnType(t *testing.T) {
	b, m := newBuilder(t)
	alpha, err := m.TypeVariable("a")
	require.NoError(t, err)
	i4, err := b.Int(4)
	require.NoError(t, err)

	fnType, err := m.FunctionType([]*ir.Node{alpha}, alpha, true)
	require.NoError(t, err)
	fnVar, err := m.Variable(fnType, ir.NextFreshID())
	require.NoError(t, err)

	arg, err := b.IntLit("7", 4)
	require.NoError(t, err)

	call, err := b.CallExpr(fnVar, []*ir.Node{arg}, diag.SourceLocation{})
	require.NoError(t, err)
	require.Same(t, i4, ir.CallExprReturnType(call))
}

func TestCallExprCoercesNarrowerArgument(t *testing.T) {
	b, m := newBuilder(t)
	i8, err := b.Int(8)
	require.NoError(t, err)
	fnType, err := m.FunctionType([]*ir.Node{i8}, i8, true)
	require.NoError(t, err)
	fnVar, err := m.Variable(fnType, ir.NextFreshID())
	require.NoError(t, err)

	narrow, err := b.IntLit("3", 4)
	require.NoError(t, err)

	call, err := b.CallExpr(fnVar, []*ir.Node{narrow}, diag.SourceLocation{})
	require.NoError(t, err)
	args := ir.CallExprArgs(call)
	require.Len(t, args, 1)
	require.Equal(t, ir.KindCastExpr, args[0].Kind)
}

func TestCallExprArityMismatch(t *testing.T) {
	b, m := newBuilder(t)
	i4, err := b.Int(4)
	require.NoError(t, err)
	fnType, err := m.FunctionType([]*ir.Node{i4, i4}, i4, true)
	require.NoError(t, err)
	fnVar, err := m.Variable(fnType, ir.NextFreshID())
	require.NoError(t, err)
	arg, err := b.IntLit("1", 4)
	require.NoError(t, err)

	_, err = b.CallExpr(fnVar, []*ir.Node{arg}, diag.SourceLocation{})
	require.Error(t, err)
}

func TestCallExprVariadicPacking(t *testing.T) {
	b, m := newBuilder(t)
	i4, err := b.Int(4)
	require.NoError(t, err)
	varList, err := m.GenericType("VarList", nil, nil, nil)
	require.NoError(t, err)
	fnType, err := m.FunctionType([]*ir.Node{i4, varList}, i4, true)
	require.NoError(t, err)
	fnVar, err := m.Variable(fnType, ir.NextFreshID())
	require.NoError(t, err)

	fixed, err := b.IntLit("1", 4)
	require.NoError(t, err)
	tail1, err := b.IntLit("2", 4)
	require.NoError(t, err)
	tail2, err := b.RealLit("3.0", 8)
	require.NoError(t, err)

	call, err := b.CallExpr(fnVar, []*ir.Node{fixed, tail1, tail2}, diag.SourceLocation{})
	require.NoError(t, err)
	args := ir.CallExprArgs(call)
	require.Len(t, args, 2)
	require.Equal(t, ir.KindStructExpr, args[1].Kind)
	require.Len(t, ir.StructExprValues(args[1]), 2)
}

func TestLambdaExprBuildsFunctionType(t *testing.T) {
	b, m := newBuilder(t)
	i4, err := b.Int(4)
	require.NoError(t, err)
	param, err := m.Variable(i4, ir.NextFreshID())
	require.NoError(t, err)
	body, err := b.IntLit("0", 4)
	require.NoError(t, err)

	lambda, err := b.LambdaExpr([]*ir.Node{param}, body, i4, true)
	require.NoError(t, err)
	require.False(t, ir.LambdaExprIsRecursive(lambda))
	fnType := ir.LambdaExprType(lambda)
	require.Same(t, i4, ir.FunctionTypeReturn(fnType))
	require.True(t, ir.FunctionTypeIsPlain(fnType))
}

func TestDerefAndRefVarRoundTrip(t *testing.T) {
	b, _ := newBuilder(t)
	lit, err := b.IntLit("7", 4)
	require.NoError(t, err)

	cell, err := b.RefVar(lit, diag.SourceLocation{})
	require.NoError(t, err)
	cellType := builder.ResultType(cell)
	require.Equal(t, ir.KindRefType, cellType.Kind)

	val, err := b.Deref(cell, diag.SourceLocation{})
	require.NoError(t, err)
	require.Same(t, ir.RefTypeElem(cellType), builder.ResultType(val))

	_, err = b.Deref(lit, diag.SourceLocation{})
	require.Error(t, err)
}

func TestVariableMintsDistinctFreshIDs(t *testing.T) {
	b, _ := newBuilder(t)
	i4, err := b.Int(4)
	require.NoError(t, err)
	v1, err := b.Variable(i4)
	require.NoError(t, err)
	v2, err := b.Variable(i4)
	require.NoError(t, err)
	require.NotSame(t, v1, v2)
}
