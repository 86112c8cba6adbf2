package typeman_test

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspirecore/inspire/internal/backend/typeman"
	"github.com/inspirecore/inspire/internal/ir"
)

func intType(t *testing.T, m *ir.Manager, width int64) *ir.Node {
	t.Helper()
	p, err := m.ConcreteIntTypeParam(width)
	require.NoError(t, err)
	n, err := m.GenericType("int", nil, []*ir.Node{p}, nil)
	require.NoError(t, err)
	return n
}

func realType(t *testing.T, m *ir.Manager, width int64) *ir.Node {
	t.Helper()
	p, err := m.ConcreteIntTypeParam(width)
	require.NoError(t, err)
	n, err := m.GenericType("real", nil, []*ir.Node{p}, nil)
	require.NoError(t, err)
	return n
}

func TestResolveScalars(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	info, err := tm.Resolve(intType(t, m, 4))
	require.NoError(t, err)
	assert.Equal(t, "int32_t", info.RValueType)
	assert.Equal(t, "int32_t", info.LValueType)

	info, err = tm.Resolve(realType(t, m, 8))
	require.NoError(t, err)
	assert.Equal(t, "double", info.RValueType)

	unit, err := m.GenericType("unit", nil, nil, nil)
	require.NoError(t, err)
	info, err = tm.Resolve(unit)
	require.NoError(t, err)
	assert.Equal(t, "void", info.RValueType)

	anyRef, err := m.GenericType("any-ref", nil, nil, nil)
	require.NoError(t, err)
	info, err = tm.Resolve(anyRef)
	require.NoError(t, err)
	assert.Equal(t, "void*", info.RValueType)
}

func TestResolveIsCached(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)
	i4 := intType(t, m, 4)

	a, err := tm.Resolve(i4)
	require.NoError(t, err)
	b, err := tm.Resolve(i4)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolveStruct(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	fx, err := m.FieldEntry("x", intType(t, m, 4))
	require.NoError(t, err)
	fy, err := m.FieldEntry("y", realType(t, m, 8))
	require.NoError(t, err)
	st, err := m.StructType("point", []*ir.Node{fx, fy})
	require.NoError(t, err)

	info, err := tm.Resolve(st)
	require.NoError(t, err)
	assert.Equal(t, "struct point", info.RValueType)
	require.NotNil(t, info.Declaration)
	require.NotNil(t, info.Definition)
	assert.Equal(t, "struct point;", info.Declaration.Body)
	assert.Contains(t, info.Definition.Body, "int32_t x;")
	assert.Contains(t, info.Definition.Body, "double y;")
	assert.Contains(t, info.Definition.Dependencies, info.Declaration.ID)
}

func TestResolveTupleFieldNames(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	tup, err := m.TupleType([]*ir.Node{intType(t, m, 4), realType(t, m, 8)})
	require.NoError(t, err)

	info, err := tm.Resolve(tup)
	require.NoError(t, err)
	assert.Contains(t, info.Definition.Body, "int32_t c0;")
	assert.Contains(t, info.Definition.Body, "double c1;")
}

func TestResolveArrayStars(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	arr1, err := m.ArrayType(intType(t, m, 4))
	require.NoError(t, err)
	arr2, err := m.ArrayType(arr1)
	require.NoError(t, err)

	info, err := tm.Resolve(arr2)
	require.NoError(t, err)
	assert.Equal(t, "int32_t**", info.RValueType)
	assert.Equal(t, "int32_t**", info.LValueType)
}

func TestResolveVector(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	vec, err := m.VectorType(intType(t, m, 4), 8)
	require.NoError(t, err)

	info, err := tm.Resolve(vec)
	require.NoError(t, err)
	assert.Equal(t, "struct int32_t_vec_8", info.RValueType)
	assert.Contains(t, info.Definition.Body, "int32_t data[8];")
	assert.Contains(t, info.Definition.Body, "int32_t_vec_8_init_uniform")
	assert.Equal(t, "v.data", info.Externalize("v"))
}

func TestResolveRefScalarAndCollapse(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)
	i4 := intType(t, m, 4)

	ref, err := m.RefType(i4)
	require.NoError(t, err)
	info, err := tm.Resolve(ref)
	require.NoError(t, err)
	assert.Equal(t, "int32_t*", info.RValueType)
	assert.Equal(t, "int32_t", info.LValueType)
	assert.Contains(t, info.Definition.Body, "_new(int32_t init)")
	assert.Contains(t, info.Definition.Includes, "stdlib.h")

	arr, err := m.ArrayType(i4)
	require.NoError(t, err)
	refArr, err := m.RefType(arr)
	require.NoError(t, err)
	info, err = tm.Resolve(refArr)
	require.NoError(t, err)
	// The extra indirection collapses: a C array value already is a pointer.
	assert.Equal(t, "int32_t*", info.RValueType)
	assert.Equal(t, "int32_t*", info.LValueType)
}

func TestResolvePlainFunction(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)
	i4 := intType(t, m, 4)

	fn, err := m.FunctionType([]*ir.Node{i4, i4}, i4, true)
	require.NoError(t, err)
	info, err := tm.Resolve(fn)
	require.NoError(t, err)
	assert.Contains(t, info.Definition.Body, "typedef int32_t (*")
	assert.Contains(t, info.Definition.Body, ")(int32_t, int32_t);")
}

func TestResolveClosure(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)
	i4 := intType(t, m, 4)

	fn, err := m.FunctionType([]*ir.Node{i4}, i4, false)
	require.NoError(t, err)
	info, err := tm.Resolve(fn)
	require.NoError(t, err)
	body := info.Definition.Body
	assert.Contains(t, body, "(*call)(")
	assert.Contains(t, body, "_call(struct ")
	assert.Contains(t, body, "_ctor(")
	assert.Contains(t, body, "return c->call(c, p0);")
}

func TestResolveRecursiveType(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)
	i4 := intType(t, m, 4)

	alpha, err := m.TypeVariable("node")
	require.NoError(t, err)
	arr, err := m.ArrayType(alpha)
	require.NoError(t, err)
	next, err := m.RefType(arr)
	require.NoError(t, err)
	fVal, err := m.FieldEntry("value", i4)
	require.NoError(t, err)
	fNext, err := m.FieldEntry("next", next)
	require.NoError(t, err)
	body, err := m.StructType("node", []*ir.Node{fVal, fNext})
	require.NoError(t, err)
	def, err := m.RecTypeDefinition([]*ir.Node{alpha}, []*ir.Node{body})
	require.NoError(t, err)
	rec, err := m.RecType(alpha, def)
	require.NoError(t, err)

	info, err := tm.Resolve(rec)
	require.NoError(t, err)
	assert.Equal(t, "struct node", info.RValueType)
	require.NotNil(t, info.Definition)
	assert.Contains(t, info.Definition.Body, "struct node* next;")

	// Resolving again hands back the same pointer-stable info.
	again, err := tm.Resolve(rec)
	require.NoError(t, err)
	assert.Same(t, info, again)
}

func TestResolveMutuallyRecursiveTypesShareDefinitionPass(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)
	i4 := intType(t, m, 4)

	alpha, err := m.TypeVariable("even")
	require.NoError(t, err)
	beta, err := m.TypeVariable("odd")
	require.NoError(t, err)

	mkBody := func(name string, other *ir.Node) *ir.Node {
		arr, err := m.ArrayType(other)
		require.NoError(t, err)
		ref, err := m.RefType(arr)
		require.NoError(t, err)
		fv, err := m.FieldEntry("value", i4)
		require.NoError(t, err)
		fp, err := m.FieldEntry("peer", ref)
		require.NoError(t, err)
		st, err := m.StructType(name, []*ir.Node{fv, fp})
		require.NoError(t, err)
		return st
	}
	bodyE := mkBody("even", beta)
	bodyO := mkBody("odd", alpha)

	def, err := m.RecTypeDefinition([]*ir.Node{alpha, beta}, []*ir.Node{bodyE, bodyO})
	require.NoError(t, err)
	recE, err := m.RecType(alpha, def)
	require.NoError(t, err)
	recO, err := m.RecType(beta, def)
	require.NoError(t, err)

	infoE, err := tm.Resolve(recE)
	require.NoError(t, err)
	// Resolving one member already declared and defined the whole cycle.
	infoO, err := tm.Resolve(recO)
	require.NoError(t, err)

	assert.Contains(t, infoE.Definition.Body, "struct odd* peer;")
	assert.Contains(t, infoO.Definition.Body, "struct even* peer;")
}

func TestHandlerRunsBeforeDefaultDispatch(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	buffer, err := m.GenericType("irt_ocl_buffer", nil, nil, nil)
	require.NoError(t, err)

	tm.RegisterHandler(func(_ *typeman.Manager, n *ir.Node) (*typeman.TypeInfo, bool, error) {
		if n != buffer {
			return nil, false, nil
		}
		return &typeman.TypeInfo{
			LValueType:   "irt_ocl_buffer*",
			RValueType:   "irt_ocl_buffer*",
			ExternalType: "irt_ocl_buffer*",
		}, true, nil
	})

	info, err := tm.Resolve(buffer)
	require.NoError(t, err)
	assert.Equal(t, "irt_ocl_buffer*", info.RValueType)
}

func TestUnsupportedTypeFails(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	unknown, err := m.GenericType("mystery", nil, nil, nil)
	require.NoError(t, err)
	_, err = tm.Resolve(unknown)
	require.Error(t, err)
}

func TestEmitOrdersDeclarationsBeforeDefinitions(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	inner, err := m.StructType("inner", []*ir.Node{mustField(t, m, "a", intType(t, m, 4))})
	require.NoError(t, err)
	outer, err := m.StructType("outer", []*ir.Node{mustField(t, m, "in", inner)})
	require.NoError(t, err)

	_, err = tm.Resolve(outer)
	require.NoError(t, err)

	out := tm.TargetCode().Emit()
	assert.True(t, strings.HasPrefix(out, "// --- Generated Inspire Code ---"))
	assert.Less(t, strings.Index(out, "struct inner {"), strings.Index(out, "struct outer {"),
		"inner's definition must precede outer's, which embeds it by value")
}

func mustField(t *testing.T, m *ir.Manager, name string, typ *ir.Node) *ir.Node {
	t.Helper()
	f, err := m.FieldEntry(name, typ)
	require.NoError(t, err)
	return f
}

func TestEmitSnapshot(t *testing.T) {
	m := ir.NewManager()
	tm := typeman.New(m)

	i4 := intType(t, m, 4)
	vec, err := m.VectorType(i4, 4)
	require.NoError(t, err)
	fPos, err := m.FieldEntry("pos", vec)
	require.NoError(t, err)
	fMass, err := m.FieldEntry("mass", realType(t, m, 8))
	require.NoError(t, err)
	particle, err := m.StructType("particle", []*ir.Node{fPos, fMass})
	require.NoError(t, err)
	ref, err := m.RefType(particle)
	require.NoError(t, err)

	_, err = tm.Resolve(ref)
	require.NoError(t, err)

	snaps.MatchSnapshot(t, tm.TargetCode().Emit())
}
