// Package builtin implements the name->function bridge invoked by the
// BUILTIN opcode (spec.md §4.G): at minimum "dump" (dump environment
// state) and "ref" (push the active module reference).
package builtin
