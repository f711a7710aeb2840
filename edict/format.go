package edict

import "github.com/pkg/errors"

// CompileFormat dispatches to the front-end named by format, the
// in-memory analogue of the original compilers[] table indexed by
// FORMAT_* (original_source/compile.c). Only edict and asm are
// implemented; the rest are declared opcodes with stub front-ends per
// spec.md §9 open question (c).
func CompileFormat(format string, src []byte) ([]byte, error) {
	switch format {
	case "edict":
		return Compile(src)
	case "asm":
		return CompileAsm(src)
	case "xml", "json", "yaml", "lisp", "massoc":
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	default:
		return nil, errors.Errorf("edict: unrecognized format %q", format)
	}
}
