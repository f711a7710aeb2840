package edict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plexxi/j2/bytecode"
)

func decodeAll(t *testing.T, code []byte) []bytecode.Record {
	t.Helper()
	var recs []bytecode.Record
	d := bytecode.NewDecoder(code)
	for {
		r, err := d.Next()
		require.NoError(t, err)
		if r.Op == bytecode.End {
			return recs
		}
		recs = append(recs, r)
	}
}

func TestCompileBareLiteral(t *testing.T) {
	code, err := Compile([]byte("[hello]"))
	require.NoError(t, err)
	recs := decodeAll(t, code)
	require.Len(t, recs, 1)
	assert.Equal(t, bytecode.Lit, recs[0].Op)
	assert.Equal(t, "hello", string(recs[0].Payload))
}

func TestCompileAssignThenDeref(t *testing.T) {
	code, err := Compile([]byte("[hello]@a a"))
	require.NoError(t, err)
	recs := decodeAll(t, code)

	var ops []bytecode.Op
	for _, r := range recs {
		ops = append(ops, r.Op)
	}
	assert.Contains(t, ops, bytecode.Lit)
	assert.Contains(t, ops, bytecode.RefMake)
	assert.Contains(t, ops, bytecode.RefIns)
	assert.Contains(t, ops, bytecode.Assign)
	assert.Contains(t, ops, bytecode.RefDeq)
	assert.Contains(t, ops, bytecode.RefHres)
	assert.Contains(t, ops, bytecode.Deref)
}

func TestCompileBuiltinCallUsesWIPNotRefs(t *testing.T) {
	code, err := Compile([]byte("[dump]#"))
	require.NoError(t, err)
	recs := decodeAll(t, code)
	require.Len(t, recs, 2)
	assert.Equal(t, bytecode.Lit, recs[0].Op)
	assert.Equal(t, "dump", string(recs[0].Payload))
	assert.Equal(t, bytecode.Builtin, recs[1].Op)
}

func TestCompileRemoveOpRun(t *testing.T) {
	code, err := Compile([]byte("[1]@a [2]@a a/"))
	require.NoError(t, err)
	recs := decodeAll(t, code)
	var sawRemove bool
	for _, r := range recs {
		if r.Op == bytecode.Remove {
			sawRemove = true
		}
	}
	assert.True(t, sawRemove)
}

func TestCompileParenImmediateEval(t *testing.T) {
	code, err := Compile([]byte("(a)"))
	require.NoError(t, err)
	recs := decodeAll(t, code)

	// '(' : SPOP, RES_DICT, PUSH
	require.GreaterOrEqual(t, len(recs), 6)
	assert.Equal(t, bytecode.SPop, recs[0].Op)
	assert.Equal(t, bytecode.ResDict, recs[1].Op)
	assert.Equal(t, bytecode.Push, recs[2].Op)

	// ')' must feed EDICT straight off the popped dict context, with no
	// SPUSH round-trip through the stack-of-operands in between.
	last3 := recs[len(recs)-3:]
	assert.Equal(t, bytecode.ResDict, last3[0].Op)
	assert.Equal(t, bytecode.Pop, last3[1].Op)
	assert.Equal(t, bytecode.Edict, last3[2].Op)
	for _, r := range recs {
		assert.NotEqual(t, bytecode.SPush, r.Op, "')' must not SPUSH before EDICT")
	}
}

func TestCompileUnbalancedLiteralErrors(t *testing.T) {
	_, err := Compile([]byte("[unbalanced"))
	assert.Error(t, err)
}

func TestCompileFormatRejectsUnsupported(t *testing.T) {
	_, err := CompileFormat("json", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCompileAsmRoundTrip(t *testing.T) {
	code, err := CompileAsm([]byte("lit [hi] res_dict push"))
	require.NoError(t, err)
	recs := decodeAll(t, code)
	require.Len(t, recs, 3)
	assert.Equal(t, bytecode.Lit, recs[0].Op)
	assert.Equal(t, "hi", string(recs[0].Payload))
	assert.Equal(t, bytecode.ResDict, recs[1].Op)
	assert.Equal(t, bytecode.Push, recs[2].Op)
}
