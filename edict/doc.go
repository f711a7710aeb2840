// Package edict implements the native concatenative textual front-end:
// a lexer over whitespace, bracketed literals, mono-ops, op-runs, and
// names, and a single-pass compiler lowering that lexical stream
// directly to bytecode. See spec.md §4.D, grounded on
// original_source/compile.c's jit_edict and edict.c's edict_name /
// edict_ref / edict_delimit.
package edict
