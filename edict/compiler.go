package edict

import (
	"github.com/pkg/errors"

	"github.com/Plexxi/j2/bytecode"
)

// ErrUnsupportedFormat is returned for front-end formats other than
// edict/asm; spec.md §9 open question (c) resolves the FORMAT_* table
// to stub rejection for xml/json/yaml/lisp/massoc.
var ErrUnsupportedFormat = errors.New("edict: unsupported front-end format")

// Compile lowers edict source text directly to a bytecode stream, one
// pass, left to right, per spec.md §4.D. Grounded byte-for-byte on
// original_source/compile.c's jit_edict/compile_atom: each atom first
// scans a (possibly empty) run of EDICT_OPS characters, then a
// (possibly empty) name run, rather than the reverse order a literal
// reading of spec.md §4.D's rule 3 might suggest. This ordering is load
// bearing: a bare name atom (empty ops run) followed by a separate
// ops-only atom, e.g. "a/", must resolve and dereference "a" in the
// first atom and apply REMOVE against that same still-live reference in
// the second, matching original_source's behavior of never emitting a
// dequeue when a name and its operators fall in different atoms.
func Compile(src []byte) ([]byte, error) {
	e := bytecode.NewEncoder()
	pos := 0
	for pos < len(src) {
		for pos < len(src) && isSpace(src[pos]) {
			pos++
		}
		if pos >= len(src) {
			break
		}

		c := src[pos]
		switch {
		case c == '[':
			lit, next, err := scanLiteral(src, pos)
			if err != nil {
				return nil, err
			}
			e.EmitExt(bytecode.Lit, 0, lit)
			pos = next

		case isMonoOp(c):
			if err := compileMonoOp(e, c); err != nil {
				return nil, err
			}
			pos++

		default:
			opsStart := pos
			for pos < len(src) && isRunOp(src[pos]) {
				pos++
			}
			ops := src[opsStart:pos]

			nameStart := pos
			for pos < len(src) && !isSpace(src[pos]) && !isMonoOp(src[pos]) && !isRunOp(src[pos]) {
				pos++
			}
			name := src[nameStart:pos]

			if len(ops) == 0 && len(name) == 0 {
				return nil, errors.Errorf("edict: unrecognized byte %q at offset %d", c, pos)
			}
			if err := compileAtom(e, ops, name); err != nil {
				return nil, err
			}
		}
	}
	return e.Bytes(), nil
}

// compileMonoOp lowers one of the mono-ops per spec.md §4.D rule 2.
// original_source/compile.c emits a single fused VMOP_XFER(src,dst) byte
// for these, but original_source/vm.c's dispatch switch never decodes
// that opcode family at all (a dead end in the original, consistent with
// the several other incompatibilities spec.md §9 already calls out), so
// this lowers the prose description directly onto the existing SPUSH/
// SPOP/generic-PUSH/POP primitives rather than inventing a fused opcode.
func compileMonoOp(e *bytecode.Encoder, b byte) error {
	switch b {
	case '<', '(', '{':
		e.Emit(bytecode.SPop)
		e.Emit(bytecode.ResDict)
		e.Emit(bytecode.Push)
	case '>', '}':
		e.Emit(bytecode.ResDict)
		e.Emit(bytecode.Pop)
		e.Emit(bytecode.SPush)
	case ')':
		// Unlike '>'/'}', the popped dict context feeds EDICT directly
		// (which itself pops WIP) rather than round-tripping through the
		// stack-of-operands: that is what makes the pop "immediate".
		e.Emit(bytecode.ResDict)
		e.Emit(bytecode.Pop)
		e.Emit(bytecode.Edict)
	default:
		return errors.Errorf("edict: unknown mono-op %q", b)
	}
	return nil
}

// compileAtom lowers one ops-run/name-run pair per spec.md §4.D rule 3,
// resolved per original_source's compile_atom:
//   - a name present in this atom emits REF_MAKE;
//   - if this atom also carries operators, the freshly made reference
//     is resolved non-hierarchically against the current dict only
//     (REF_INS: assignment/removal target the local scope), each
//     operator is lowered in source order, and REF_DEQ retires the
//     reference;
//   - an ops-only atom with no name of its own performs none of that
//     resolve/dequeue pair, instead operating on whatever reference an
//     earlier name-only atom left on REFS;
//   - a name-only atom (no operators) resolves hierarchically
//     (REF_HRES, so bare reads see enclosing-scope shadowing) and
//     dereferences, deliberately leaving the reference on REFS for a
//     possible following ops-only atom.
func compileAtom(e *bytecode.Encoder, ops, name []byte) error {
	if len(name) > 0 {
		e.EmitExt(bytecode.RefMake, 0, name)
	}
	if len(ops) > 0 {
		if len(name) > 0 {
			e.Emit(bytecode.RefIns)
		}
		for _, op := range ops {
			switch op {
			case '#':
				e.Emit(bytecode.Builtin)
			case '@':
				e.Emit(bytecode.Assign)
			case '/':
				e.Emit(bytecode.Remove)
			case '!':
				e.Emit(bytecode.Edict)
				e.Emit(bytecode.Yield)
			case '&':
				e.Emit(bytecode.Throw)
			case '|':
				e.Emit(bytecode.Catch)
			case '%':
				// MAP: reserved, spec.md §9 open question (b); no-op.
			case '+':
				// APPEND: reserved, same as above.
			case '=':
				// COMPARE: reserved, same as above.
			default:
				return errors.Errorf("edict: unknown operator %q", op)
			}
		}
		if len(name) > 0 {
			e.Emit(bytecode.RefDeq)
		}
	} else {
		e.Emit(bytecode.RefHres)
		e.Emit(bytecode.Deref)
	}
	return nil
}
