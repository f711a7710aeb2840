package vm

import (
	"github.com/pkg/errors"

	"github.com/Plexxi/j2/bytecode"
	"github.com/Plexxi/j2/edict"
	"github.com/Plexxi/j2/listree"
	"github.com/Plexxi/j2/ref"
)

// ErrInvalidOpcode is the cause recorded when Eval decodes a byte it does
// not recognize; the environment transitions to Broken (spec.md §7.3).
var ErrInvalidOpcode = errors.New("vm: invalid opcode")

// ErrBuiltinNotFound is recorded when BUILTIN names an unregistered
// function (spec.md §4.G).
var ErrBuiltinNotFound = errors.New("vm: builtin not found")

// Eval runs env from its current lambda frame until the frame stack is
// exhausted, an opcode yields, or an invalid opcode breaks it
// (vm_eval, spec.md §4.F). On normal exhaustion of the last frame, Eval
// returns with State left as it was (Runnable unless something broke).
func (e *Env) Eval(rt *Runtime) {
	e.rt = rt
	if e.State == Broken {
		return
	}
	e.State = Runnable

	defer func() {
		if r := recover(); r != nil {
			e.fail(errors.Errorf("vm: panic during eval: %v", r))
		}
	}()

	for {
		fr := e.topFrame()
		if fr == nil {
			return
		}
		rec, next, err := bytecode.Decode(fr.code, fr.ip)
		if err != nil {
			e.fail(err)
			return
		}
		fr.ip = next

		if rec.Op == bytecode.End {
			e.LambdaPop()
			continue
		}

		e.dispatch(rec)
		if e.State != Runnable {
			return
		}
	}
}

func (e *Env) dispatch(rec bytecode.Record) {
	switch rec.Op {
	case bytecode.ResDict:
		e.cur = resDict
	case bytecode.ResCode:
		e.cur = resCode
	case bytecode.ResRefs:
		e.cur = resRefs
	case bytecode.ResIP:
		e.cur = resIP
	case bytecode.ResWIP:
		e.cur = resWIP

	case bytecode.Push:
		e.opPush()
	case bytecode.Pop:
		e.opPop()
	case bytecode.Peek:
		e.opPeek()
	case bytecode.Dup:
		e.opDup()
	case bytecode.Drop:
		e.opDrop()

	case bytecode.SPush:
		v := e.popWIP()
		if v == nil {
			e.fail(errors.New("vm: SPUSH with empty WIP"))
			return
		}
		listree.Put(e.dictTop(), []byte(StackSlotName), v, listree.Head)
	case bytecode.SPop:
		// An untouched "$" slot has no holder yet; the mono-op family
		// (<,(,{) relies on SPOP always handing something to PUSH, so a
		// bare slot yields a fresh empty value instead of nil.
		v := listree.Get(e.dictTop(), []byte(StackSlotName), true, listree.Head)
		if v == nil {
			v = listree.NewValue(nil, listree.FlagNone)
		}
		e.pushWIP(v)
	case bytecode.SPeek:
		v := listree.Get(e.dictTop(), []byte(StackSlotName), false, listree.Head)
		if v == nil {
			v = listree.NewValue(nil, listree.FlagNone)
		}
		e.pushWIP(v)

	case bytecode.Lit:
		flags := listree.Flag(rec.Flags)
		payload := append([]byte(nil), rec.Payload...)
		e.pushWIP(listree.NewValue(payload, flags|listree.FlagOwn))

	case bytecode.RefMake:
		r, err := ref.Compile(rec.Payload)
		if err != nil {
			e.fail(err)
			return
		}
		e.pushRef(r)
	case bytecode.RefIns:
		r := e.peekRef()
		if r == nil {
			e.fail(errors.New("vm: REF_INS with empty REFS"))
			return
		}
		r.Resolve(e.dictTop(), true)
	case bytecode.RefRes:
		r := e.peekRef()
		if r == nil {
			e.fail(errors.New("vm: REF_RES with empty REFS"))
			return
		}
		r.Resolve(e.dictTop(), false)
	case bytecode.RefHres:
		r := e.peekRef()
		if r == nil {
			e.fail(errors.New("vm: REF_HRES with empty REFS"))
			return
		}
		ref.HierarchicalResolve(e.reverseDict(), r)
	case bytecode.RefIter:
		r := e.peekRef()
		if r == nil {
			e.fail(errors.New("vm: REF_ITER with empty REFS"))
			return
		}
		if err := r.Iterate(false); err != nil {
			e.fail(err)
			return
		}
	case bytecode.RefDeq:
		e.popRef()
	case bytecode.Deref:
		r := e.peekRef()
		if r == nil {
			e.fail(errors.New("vm: DEREF with empty REFS"))
			return
		}
		v, err := r.Value()
		if err != nil {
			e.fail(err)
			return
		}
		e.pushWIP(v)
	case bytecode.Assign:
		r := e.peekRef()
		v := e.popWIP()
		if r == nil || v == nil {
			e.fail(errors.New("vm: ASSIGN with empty REFS or WIP"))
			return
		}
		if err := r.Assign(v); err != nil {
			e.fail(err)
			return
		}
	case bytecode.Remove:
		r := e.peekRef()
		if r == nil {
			e.fail(errors.New("vm: REMOVE with empty REFS"))
			return
		}
		if err := r.Remove(); err != nil {
			e.fail(err)
			return
		}

	case bytecode.Yield:
		e.State = Yielded

	case bytecode.Throw:
		e.thrown = e.popWIP()
		e.State = Thrown
	case bytecode.Catch:
		if e.thrown != nil {
			e.pushWIP(e.thrown)
			e.thrown = nil
		}
		if e.State == Thrown {
			e.State = Runnable
		}

	case bytecode.Edict:
		v := e.popWIP()
		if v == nil {
			e.fail(errors.New("vm: EDICT with empty WIP"))
			return
		}
		code, err := edict.Compile(v.Bytes)
		if err != nil {
			e.fail(err)
			return
		}
		e.LambdaPush(code)
		e.State = Yielded

	case bytecode.XML, bytecode.JSON, bytecode.YAML, bytecode.Lisp, bytecode.Massoc, bytecode.Swagger:
		e.fail(errors.Errorf("vm: %s front-end not implemented", rec.Op))

	case bytecode.RDLock:
		e.rt.DictLock.RLock()
		e.heldRead = true
	case bytecode.WRLock:
		e.rt.DictLock.Lock()
		e.heldWrite = true
	case bytecode.Unlock:
		e.unlockBestEffort()

	case bytecode.Builtin:
		v := e.popWIP()
		if v == nil {
			e.fail(errors.New("vm: BUILTIN with empty WIP"))
			return
		}
		fn, ok := e.rt.Builtin(string(v.Bytes))
		if !ok {
			e.fail(ErrBuiltinNotFound)
			return
		}
		if err := fn(e); err != nil {
			e.fail(err)
			return
		}

	default:
		e.fail(ErrInvalidOpcode)
	}
}

func (e *Env) reverseDict() []*listree.Value {
	out := make([]*listree.Value, len(e.Dict))
	for i, d := range e.Dict {
		out[len(e.Dict)-1-i] = d
	}
	return out
}

// unlockBestEffort releases whichever of the dict lock's read/write
// sides this environment last acquired and has not yet released. A
// stray UNLOCK with neither held is a no-op rather than a panic.
func (e *Env) unlockBestEffort() {
	switch {
	case e.heldWrite:
		e.rt.DictLock.Unlock()
		e.heldWrite = false
	case e.heldRead:
		e.rt.DictLock.RUnlock()
		e.heldRead = false
	}
}
