package builtin

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/Plexxi/j2/listree"
	"github.com/Plexxi/j2/vm"
)

// errWriter collapses repeated Write error checks into one deferred check,
// grounded on the teacher's internal/ngi.ErrWriter but narrowed to exactly
// what Dump needs: a single Err field checked once after the Fprintf call.
type errWriter struct {
	w   io.Writer
	Err error
}

func (w *errWriter) Write(p []byte) (int, error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err := w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// Table is a name->function registry for the BUILTIN opcode bridge. It
// is a thin wrapper over vm.Runtime's own registration methods so
// callers can build a table once and hand it to vm.Builtins.
type Table map[string]vm.BuiltinFunc

// Standard returns the builtin table every environment is expected to
// have: "dump" and "ref", per spec.md §4.G. w receives dump's output;
// passing nil discards it.
func Standard(w io.Writer) Table {
	if w == nil {
		w = io.Discard
	}
	return Table{
		"dump": Dump(w),
		"ref":  Ref,
	}
}

// Register copies every entry of t into rt.
func (t Table) Register(rt *vm.Runtime) {
	for name, fn := range t {
		rt.Register(name, fn)
	}
}

// Dump returns a builtin that writes a one-line summary of env's
// resource-stack depths to w, grounded on the teacher's dumpVM
// (cmd/retro/dump.go), adapted from a fixed memory-image dump to this
// module's resource stacks.
func Dump(w io.Writer) vm.BuiltinFunc {
	return func(env *vm.Env) error {
		ew := &errWriter{w: w}
		fmt.Fprintf(ew, "dict=%d wip=%d refs=%d frames=%d state=%s\n",
			env.DictDepth(), env.WIPDepth(), env.RefsDepth(), env.FrameDepth(), env.State)
		return ew.Err
	}
}

// Ref pushes the currently active reference's resolved value (the top
// of REFS) onto WIP, making it available to subsequent opcodes.
func Ref(env *vm.Env) error {
	r := env.TopRef()
	if r == nil {
		env.Push(listree.NewValue(nil, listree.FlagNone))
		return nil
	}
	v, err := r.Value()
	if err != nil {
		env.Push(listree.NewValue(nil, listree.FlagNone))
		return nil
	}
	env.Push(v)
	return nil
}
