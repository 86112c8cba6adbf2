package typesys_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/typesys"
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

// Unification correctness: if Unify(A,B) = sigma,
// then sigma(A) = sigma(B) structurally.
func TestUnifyCorrectness(t *testing.T) {
	m := ir.NewManager()
	alpha, err := m.TypeVariable("a")
	require.NoError(t, err)
	i4 := genInt(t, m, 4)

	sub, err := typesys.Unify(m, alpha, i4)
	require.NoError(t, err)

	sa, err := typesys.Apply(m, sub, alpha)
	require.NoError(t, err)
	sb, err := typesys.Apply(m, sub, i4)
	require.NoError(t, err)
	require.Same(t, sa, sb)
}

func TestUnifyOccursCheck(t *testing.T) {
	m := ir.NewManager()
	alpha, err := m.TypeVariable("a")
	require.NoError(t, err)
	arr, err := m.ArrayType(alpha)
	require.NoError(t, err)

	_, err = typesys.Unify(m, alpha, arr)
	require.Error(t, err)
}

func TestUnifyGenericTypeFamilyMismatch(t *testing.T) {
	m := ir.NewManager()
	_, err := typesys.Unify(m, genInt(t, m, 4), genReal(t, m, 4))
	require.Error(t, err)
}

// Subtyping reflexivity/transitivity.
func TestSubtypeReflexiveTransitive(t *testing.T) {
	m := ir.NewManager()
	i1, i2, i4, i8 := genInt(t, m, 1), genInt(t, m, 2), genInt(t, m, 4), genInt(t, m, 8)

	require.True(t, typesys.IsSubType(i4, i4))
	require.True(t, typesys.IsSubType(i1, i2))
	require.True(t, typesys.IsSubType(i2, i4))
	require.True(t, typesys.IsSubType(i1, i4))
	require.True(t, typesys.IsSubType(i1, i8))
	require.False(t, typesys.IsSubType(i8, i1))
}

func TestVectorArraySubtype(t *testing.T) {
	m := ir.NewManager()
	elem := genInt(t, m, 4)
	vec, err := m.VectorType(elem, 10)
	require.NoError(t, err)
	arr, err := m.ArrayType(elem)
	require.NoError(t, err)
	require.True(t, typesys.IsSubType(vec, arr))
	require.False(t, typesys.IsSubType(arr, vec))
}

// Join/meet symmetry.
func TestJoinMeetSymmetry(t *testing.T) {
	m := ir.NewManager()
	i2, i8 := genInt(t, m, 2), genInt(t, m, 8)

	j1, err := typesys.Join(m, i2, i8)
	require.NoError(t, err)
	j2, err := typesys.Join(m, i8, i2)
	require.NoError(t, err)
	require.Same(t, j1, j2)
	require.Same(t, j1, i8)

	me1, err := typesys.Meet(m, i2, i8)
	require.NoError(t, err)
	me2, err := typesys.Meet(m, i8, i2)
	require.NoError(t, err)
	require.Same(t, me1, me2)
	require.Same(t, me1, i2)
}

func TestJoinVectorArray(t *testing.T) {
	m := ir.NewManager()
	elem := genInt(t, m, 4)
	vec, err := m.VectorType(elem, 10)
	require.NoError(t, err)
	arr, err := m.ArrayType(elem)
	require.NoError(t, err)

	j, err := typesys.Join(m, vec, arr)
	require.NoError(t, err)
	require.Same(t, arr, j)
}

// S4: return-type deduction.
func TestReturnTypeDeduction(t *testing.T) {
	m := ir.NewManager()
	alpha, err := m.TypeVariable("a")
	require.NoError(t, err)
	i4 := genInt(t, m, 4)
	r8 := genReal(t, m, 8)

	fnType, err := m.FunctionType([]*ir.Node{alpha, i4}, alpha, true)
	require.NoError(t, err)

	ret, err := typesys.DeduceReturnType(m, fnType, []*ir.Node{r8, i4}, diag.SourceLocation{}, nil)
	require.NoError(t, err)
	require.Same(t, r8, ret)
}

func TestReturnTypeDeductionFailureRecoversToUnit(t *testing.T) {
	m := ir.NewManager()
	i4 := genInt(t, m, 4)
	r8 := genReal(t, m, 8)
	fnType, err := m.FunctionType([]*ir.Node{i4}, i4, true)
	require.NoError(t, err)

	collector := diag.NewCollector()
	ret, err := typesys.DeduceReturnType(m, fnType, []*ir.Node{r8}, diag.SourceLocation{}, collector)
	require.NoError(t, err)
	unit, err := typesys.UnitType(m)
	require.NoError(t, err)
	require.Same(t, unit, ret)
	require.Len(t, collector.All(), 1)
}

func TestRenameFreshDisjoint(t *testing.T) {
	m := ir.NewManager()
	alpha, err := m.TypeVariable("a")
	require.NoError(t, err)
	fnType, err := m.FunctionType([]*ir.Node{alpha}, alpha, true)
	require.NoError(t, err)

	used := map[string]bool{"a": true}
	renamed, _, err := typesys.RenameFresh(m, fnType, used)
	require.NoError(t, err)
	require.NotSame(t, fnType, renamed)
	require.NotEqual(t, ir.Print(fnType), ir.Print(renamed))
}
