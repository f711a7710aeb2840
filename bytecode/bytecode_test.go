package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDecodeRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Emit(ResWIP)
	e.EmitExt(Lit, 0, []byte("hello"))
	e.Emit(SPush)
	code := e.Bytes()

	d := NewDecoder(code)

	r, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, ResWIP, r.Op)

	r, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, Lit, r.Op)
	assert.Equal(t, "hello", string(r.Payload))
	assert.Equal(t, uint32(0), r.Flags)

	r, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, SPush, r.Op)

	assert.True(t, d.Done())
	r, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, End, r.Op)
}

func TestDecodeEmptyStreamIsEnd(t *testing.T) {
	r, ip, err := Decode(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, End, r.Op)
	assert.Equal(t, 0, ip)
}

func TestDecodeTruncatedExtendedRecord(t *testing.T) {
	// Lit opcode with a length header but no payload bytes following.
	code := []byte{byte(Lit), 0, 0, 0, 5, 0, 0, 0, 0}
	_, _, err := Decode(code, 0)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestRefMakeFlagsRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.EmitExt(RefMake, 0xFF, []byte("a.b.c"))
	e.Emit(RefHres)
	code := e.Bytes()

	d := NewDecoder(code)
	r, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, RefMake, r.Op)
	assert.Equal(t, uint32(0xFF), r.Flags)
	assert.Equal(t, "a.b.c", string(r.Payload))
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "LIT", Lit.String())
	assert.Equal(t, "END", End.String())
	assert.Equal(t, "UNKNOWN", Op(200).String())
}
