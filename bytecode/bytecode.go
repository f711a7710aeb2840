package bytecode

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrTruncated is returned by Decode when an extended record's declared
// length runs past the end of the buffer.
var ErrTruncated = errors.New("bytecode: truncated extended record")

// Encoder accumulates a compiled instruction stream.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Emit appends a plain, single-byte opcode.
func (e *Encoder) Emit(op Op) {
	e.buf.WriteByte(byte(op))
}

// EmitExt appends an extended record: opcode byte, u32BE length, u32BE
// flags, then the payload bytes verbatim.
func (e *Encoder) EmitExt(op Op, flags uint32, payload []byte) {
	e.buf.WriteByte(byte(op))
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(hdr[4:8], flags)
	e.buf.Write(hdr[:])
	e.buf.Write(payload)
}

// Bytes returns the encoded stream, terminated with an explicit End byte.
func (e *Encoder) Bytes() []byte {
	out := make([]byte, e.buf.Len()+1)
	copy(out, e.buf.Bytes())
	out[len(out)-1] = byte(End)
	return out
}

// Record is one decoded instruction.
type Record struct {
	Op      Op
	Flags   uint32
	Payload []byte
}

// Decode reads a single record from code starting at ip, returning the
// record and the ip of the next record. At end of stream (an explicit End
// byte, or ip running off the end of code) it returns a Record with Op ==
// End and ip == len(code).
func Decode(code []byte, ip int) (Record, int, error) {
	if ip >= len(code) || code[ip] == byte(End) {
		return Record{Op: End}, len(code), nil
	}
	op := Op(code[ip])
	ip++
	if !extended(op) {
		return Record{Op: op}, ip, nil
	}
	if ip+8 > len(code) {
		return Record{}, ip, errors.WithStack(ErrTruncated)
	}
	n := binary.BigEndian.Uint32(code[ip : ip+4])
	flags := binary.BigEndian.Uint32(code[ip+4 : ip+8])
	ip += 8
	if ip+int(n) > len(code) {
		return Record{}, ip, errors.WithStack(ErrTruncated)
	}
	payload := code[ip : ip+int(n)]
	ip += int(n)
	return Record{Op: op, Flags: flags, Payload: payload}, ip, nil
}

// Decoder walks a fixed code buffer record by record.
type Decoder struct {
	Code []byte
	IP   int
}

// NewDecoder returns a Decoder positioned at the start of code.
func NewDecoder(code []byte) *Decoder {
	return &Decoder{Code: code}
}

// Next decodes and consumes the next record, advancing IP.
func (d *Decoder) Next() (Record, error) {
	r, ip, err := Decode(d.Code, d.IP)
	d.IP = ip
	return r, err
}

// Done reports whether the decoder has reached the terminator.
func (d *Decoder) Done() bool {
	return d.IP >= len(d.Code) || d.Code[d.IP] == byte(End)
}
