package vm

import (
	"github.com/pkg/errors"

	"github.com/Plexxi/j2/listree"
	"github.com/Plexxi/j2/ref"
)

// State is an environment's scheduling/health state.
type State int

const (
	// Runnable: idle or ready to be enqueued; no error.
	Runnable State = iota
	// Yielded: suspended mid-evaluation by YIELD or an EDICT-family
	// opcode; re-enqueuable.
	Yielded
	// Broken: an invalid opcode or allocation failure occurred; the
	// scheduler must drop the environment instead of re-enqueuing it.
	Broken
	// Thrown: a THROW is pending catch. See spec.md §9 open question (b).
	Thrown
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "RUNNABLE"
	case Yielded:
		return "YIELDED"
	case Broken:
		return "BROKEN"
	case Thrown:
		return "THROWN"
	default:
		return "UNKNOWN"
	}
}

// resource names the implicit current-resource selector set by a RES_*
// opcode, read by the generic PUSH/POP/PEEK; DUP and DROP always act on
// WIP and ignore it.
type resource int

const (
	resNone resource = iota
	resDict
	resCode
	resRefs
	resIP
	resWIP
)

// frame is one (CODE, IP) lambda frame, pushed/popped as a pair by
// vm_lambda_push/vm_lambda_pop.
type frame struct {
	code []byte
	ip   int
}

// StackSlotName is the reserved slot name the environment's persistent
// stack-reference is bound to, addressing the logical operand stack
// inside the current dict context.
const StackSlotName = "$"

// Env is VM_ENV from spec.md §3/§4.E: five named resource stacks plus a
// persistent stack-reference.
type Env struct {
	Dict   []*listree.Value // DICT: lexical-scope chain, top = innermost
	frames []frame          // CODE + IP, paired
	Refs   []*ref.Reference // REFS

	// WIP (work-in-progress): a stack of value-node holders, the
	// universal staging area generic stack ops and DEREF/LIT push to.
	WIP []*listree.Value

	StackRef *ref.Reference // persistent reference bound to StackSlotName

	State     State
	thrown    *listree.Value // pending value for THROW/CATCH
	cur       resource       // one-shot RES_* selector
	lastErr   error          // cause of the most recent transition to Broken
	heldWrite bool           // true if this env currently holds rt.DictLock for write
	heldRead  bool           // true if this env currently holds rt.DictLock for read

	rt *Runtime
}

// NewEnv creates a fresh environment rooted at root (its initial, and
// only, DICT entry), grounded on vm_env_init from spec.md §4.E.
func NewEnv(rt *Runtime, root *listree.Value) *Env {
	e := &Env{rt: rt, Dict: []*listree.Value{root}}
	e.StackRef = ref.MustCompile(StackSlotName)
	e.StackRef.Resolve(root, true)
	return e
}

// DictDepth returns the number of dict contexts currently on DICT.
func (e *Env) DictDepth() int { return len(e.Dict) }

// WIPDepth returns the number of values currently staged on WIP.
func (e *Env) WIPDepth() int { return len(e.WIP) }

// RefsDepth returns the number of references currently on REFS.
func (e *Env) RefsDepth() int { return len(e.Refs) }

// FrameDepth returns the number of lambda frames currently on CODE/IP.
func (e *Env) FrameDepth() int { return len(e.frames) }

// TopRef returns the reference on top of REFS without popping it, or
// nil if REFS is empty; used by the "ref" builtin.
func (e *Env) TopRef() *ref.Reference { return e.peekRef() }

// Push makes pushWIP available to other packages (the builtin bridge)
// without exposing the WIP slice itself.
func (e *Env) Push(v *listree.Value) { e.pushWIP(v) }

// Broken reports whether the environment has ended in an unrecoverable
// state and must not be re-enqueued.
func (e *Env) Broken() bool { return e.State == Broken }

func (e *Env) fail(err error) {
	e.State = Broken
	e.lastErr = errors.WithStack(err)
}

// Err returns the cause of the most recent transition to Broken, or nil.
func (e *Env) Err() error { return e.lastErr }

// ContextPush pushes an existing dict node onto DICT (vm_context_push).
func (e *Env) ContextPush(dict *listree.Value) {
	e.Dict = append(e.Dict, dict)
}

// ContextPop pops the top DICT entry, then merges its operand-stack
// holders into the new top's operand stack at its head, so results
// survive the scope exit (vm_context_pop).
func (e *Env) ContextPop() error {
	if len(e.Dict) < 2 {
		return errors.New("vm: context pop below root dict")
	}
	popped := e.Dict[len(e.Dict)-1]
	e.Dict = e.Dict[:len(e.Dict)-1]
	newTop := e.Dict[len(e.Dict)-1]

	var carried []*listree.Value
	for {
		v := listree.Get(popped, []byte(StackSlotName), true, listree.Tail)
		if v == nil {
			break
		}
		carried = append(carried, v)
	}
	for _, v := range carried {
		listree.Put(newTop, []byte(StackSlotName), v, listree.Head)
	}
	return nil
}

// LambdaPush pushes code onto CODE and a fresh zero onto IP
// (vm_lambda_push).
func (e *Env) LambdaPush(code []byte) {
	e.frames = append(e.frames, frame{code: code})
}

// LambdaPop discards the top CODE/IP pair (vm_lambda_pop).
func (e *Env) LambdaPop() {
	if len(e.frames) == 0 {
		return
	}
	e.frames = e.frames[:len(e.frames)-1]
}

func (e *Env) topFrame() *frame {
	if len(e.frames) == 0 {
		return nil
	}
	return &e.frames[len(e.frames)-1]
}

func (e *Env) dictTop() *listree.Value {
	return e.Dict[len(e.Dict)-1]
}

func (e *Env) pushWIP(v *listree.Value) { e.WIP = append(e.WIP, v) }

func (e *Env) popWIP() *listree.Value {
	if len(e.WIP) == 0 {
		return nil
	}
	v := e.WIP[len(e.WIP)-1]
	e.WIP = e.WIP[:len(e.WIP)-1]
	return v
}

func (e *Env) peekWIP() *listree.Value {
	if len(e.WIP) == 0 {
		return nil
	}
	return e.WIP[len(e.WIP)-1]
}

func (e *Env) pushRef(r *ref.Reference) { e.Refs = append(e.Refs, r) }

func (e *Env) popRef() *ref.Reference {
	if len(e.Refs) == 0 {
		return nil
	}
	r := e.Refs[len(e.Refs)-1]
	e.Refs = e.Refs[:len(e.Refs)-1]
	return r
}

func (e *Env) peekRef() *ref.Reference {
	if len(e.Refs) == 0 {
		return nil
	}
	return e.Refs[len(e.Refs)-1]
}

// opPush moves the WIP top onto the one-shot selected resource
// (generic PUSH, spec.md §4.F). Only RES_DICT and RES_WIP have defined
// semantics here: pushing a fresh dict context, or leaving WIP
// unchanged. RES_CODE/RES_REFS/RES_IP carry no worked example in
// spec.md §8 and are left unimplemented (documented in DESIGN.md).
func (e *Env) opPush() {
	switch e.cur {
	case resDict:
		v := e.popWIP()
		if v == nil {
			e.fail(errors.New("vm: PUSH RES_DICT with empty WIP"))
			return
		}
		e.ContextPush(v)
	case resWIP:
		// no-op: WIP is already the source and destination.
	default:
		e.fail(errors.Errorf("vm: PUSH unsupported for resource %d", e.cur))
	}
}

// opPop moves the selected resource's top onto WIP, removing it there. For
// RES_DICT this is a raw structural move (the popped context itself lands
// on WIP) — distinct from ContextPop's scope-exit semantics, which merges
// the popped context's operand-stack holders into the new top and is
// exposed separately for callers that need that behavior.
func (e *Env) opPop() {
	switch e.cur {
	case resDict:
		if len(e.Dict) < 2 {
			e.fail(errors.New("vm: POP RES_DICT below root dict"))
			return
		}
		popped := e.Dict[len(e.Dict)-1]
		e.Dict = e.Dict[:len(e.Dict)-1]
		e.pushWIP(popped)
	default:
		e.fail(errors.Errorf("vm: POP unsupported for resource %d", e.cur))
	}
}

// opPeek copies the selected resource's top onto WIP without removing it.
func (e *Env) opPeek() {
	switch e.cur {
	case resDict:
		e.pushWIP(e.dictTop())
	default:
		e.fail(errors.Errorf("vm: PEEK unsupported for resource %d", e.cur))
	}
}

// opDup duplicates the WIP top, retaining its value a second time.
func (e *Env) opDup() {
	v := e.peekWIP()
	if v == nil {
		e.fail(errors.New("vm: DUP with empty WIP"))
		return
	}
	v.Retain()
	e.pushWIP(v)
}

// opDrop discards the WIP top, releasing its value reference.
func (e *Env) opDrop() {
	v := e.popWIP()
	if v == nil {
		e.fail(errors.New("vm: DROP with empty WIP"))
		return
	}
	v.Release()
}
