package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/inspirecore/inspire/internal/ir"
)

func int4(t *testing.T, m *ir.Manager) *ir.Node {
	t.Helper()
	n, err := m.GenericType("int", nil, []*ir.Node{mustConcreteIntParam(t, m, 4)}, nil)
	require.NoError(t, err)
	return n
}

func mustConcreteIntParam(t *testing.T, m *ir.Manager, v int64) *ir.Node {
	t.Helper()
	n, err := m.ConcreteIntTypeParam(v)
	require.NoError(t, err)
	return n
}

// Structural uniqueness: two requests
// for the same shape return the same pointer.
func TestStructuralUniqueness(t *testing.T) {
	m := ir.NewManager()
	a := int4(t, m)
	b := int4(t, m)
	require.Same(t, a, b)

	int8, err := m.GenericType("int", nil, []*ir.Node{mustConcreteIntParam(t, m, 8)}, nil)
	require.NoError(t, err)
	require.NotSame(t, a, int8)
}

// Annotation transparency: annotating a node never
// changes its structural hash.
func TestAnnotationTransparency(t *testing.T) {
	m := ir.NewManager()
	n := int4(t, m)
	before := n.Hash()
	n.Annotate(ir.AnnotationOriginalCName, "int32_t")
	require.Equal(t, before, n.Hash())

	v, ok := n.Annotation(ir.AnnotationOriginalCName)
	require.True(t, ok)
	require.Equal(t, "int32_t", v)
}

func TestAnnotationMigration(t *testing.T) {
	m := ir.NewManager()
	old := int4(t, m)
	old.Annotate(ir.AnnotationOriginalCName, "int32_t")
	old.Annotate(ir.AnnotationSourceLocation, "foo.c:1:1")

	fresh, err := m.GenericType("uint", nil, []*ir.Node{mustConcreteIntParam(t, m, 4)}, nil)
	require.NoError(t, err)
	fresh.Annotate(ir.AnnotationSourceLocation, "foo.c:2:1")

	fresh.MigrateAnnotationsFrom(old)

	// Existing annotation on fresh must not be overwritten.
	loc, _ := fresh.Annotation(ir.AnnotationSourceLocation)
	require.Equal(t, "foo.c:2:1", loc)

	// Missing category is migrated.
	name, ok := fresh.Annotation(ir.AnnotationOriginalCName)
	require.True(t, ok)
	require.Equal(t, "int32_t", name)
}

func TestVariableFreshIDOverridesStructuralEquality(t *testing.T) {
	m := ir.NewManager()
	ty := int4(t, m)
	id1 := ir.NextFreshID()
	id2 := ir.NextFreshID()
	require.NotEqual(t, id1, id2)

	v1, err := m.Variable(ty, id1)
	require.NoError(t, err)
	v2, err := m.Variable(ty, id2)
	require.NoError(t, err)
	require.NotSame(t, v1, v2)

	v1Again, err := m.Variable(ty, id1)
	require.NoError(t, err)
	require.Same(t, v1, v1Again)
}

func TestRecTypeCycleSharesDefinition(t *testing.T) {
	m := ir.NewManager()
	alpha, err := m.TypeVariable("A")
	require.NoError(t, err)
	beta, err := m.TypeVariable("B")
	require.NoError(t, err)

	bodyA, err := m.StructType("A", []*ir.Node{mustField(t, m, "next", beta)})
	require.NoError(t, err)
	bodyB, err := m.StructType("B", []*ir.Node{mustField(t, m, "next", alpha)})
	require.NoError(t, err)

	def, err := m.RecTypeDefinition([]*ir.Node{alpha, beta}, []*ir.Node{bodyA, bodyB})
	require.NoError(t, err)

	recA, err := m.RecType(alpha, def)
	require.NoError(t, err)
	recB, err := m.RecType(beta, def)
	require.NoError(t, err)

	// Every member's cached RecType shares the same RecTypeDefinition
	// instance.
	require.Same(t, ir.RecTypeDefinitionOf(recA), ir.RecTypeDefinitionOf(recB))
}

func mustField(t *testing.T, m *ir.Manager, name string, typ *ir.Node) *ir.Node {
	t.Helper()
	f, err := m.FieldEntry(name, typ)
	require.NoError(t, err)
	return f
}

func TestIllFormedNodeRejected(t *testing.T) {
	m := ir.NewManager()
	_, err := m.Get(ir.KindGenericType, ir.Payload{})
	require.Error(t, err)
}

func TestPrintIdempotent(t *testing.T) {
	m := ir.NewManager()
	ty := int4(t, m)
	lit, err := m.Literal("4", ty)
	require.NoError(t, err)

	first := ir.Print(lit)
	second := ir.Print(lit)
	require.Equal(t, first, second)
}

func TestDumpStructuralDiff(t *testing.T) {
	m1 := ir.NewManager()
	m2 := ir.NewManager()
	a := int4(t, m1)
	b := int4(t, m2)
	require.NotSame(t, a, b) // different managers, never equal by pointer
	if diff := cmp.Diff(ir.Dump(a), ir.Dump(b)); diff != "" {
		t.Fatalf("structurally equivalent nodes from different managers should Dump equal: %s", diff)
	}
}
