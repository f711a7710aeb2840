// Package bytecode implements the wire format for this module's compiled
// instruction stream: a concatenation of single-byte opcode records, or
// extended records carrying a big-endian length-prefixed, flagged byte
// payload. See spec.md §6.
//
//	record := op(0x01..0xFE) | op_ext len:u32BE flags:u32BE bytes[len] | 0x00
//
// A zero opcode byte terminates the stream; running off the end of the
// buffer without seeing one is equally a terminator (mirrors the teacher's
// image-loading convention in vm/mem.go of treating an exhausted reader the
// same as an explicit end marker).
package bytecode
