package vm

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BuiltinFunc is a host function invocable by the BUILTIN opcode. Errors
// returned here transition the calling environment to Broken.
type BuiltinFunc func(*Env) error

// Option configures a Runtime at construction, mirroring the teacher
// VM's functional-options constructor (vm.New in the teacher's vm.go).
type Option func(*Runtime) error

// Workers sets the number of worker goroutines Drain spawns.
func Workers(n int) Option {
	return func(rt *Runtime) error {
		if n > 0 {
			rt.workers = n
		}
		return nil
	}
}

// Builtins pre-registers a table of builtin functions.
func Builtins(table map[string]BuiltinFunc) Option {
	return func(rt *Runtime) error {
		for name, fn := range table {
			rt.builtins[name] = fn
		}
		return nil
	}
}

// Runtime holds the process-wide shared state a single ambient instance
// is expected to own per spec.md §9: the readers-writer lock guarding
// dictionary mutation, and the escapement/access-counted runnable queue
// environments are enqueued into and drawn from. It replaces the
// teacher's package-level globals with fields threaded explicitly into
// every Env.
type Runtime struct {
	DictLock sync.RWMutex

	queue      chan *Env
	escapement *semaphore.Weighted // counts ready items; Dequeue acquires
	access     *semaphore.Weighted // coarse admission control

	builtins map[string]BuiltinFunc
	workers  int
}

// NewRuntime creates a Runtime with a runnable queue of the given
// capacity, per vm_env_init/vm_env_enq/vm_env_deq from spec.md §4.E-§5.
func NewRuntime(queueCapacity int, opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		queue:      make(chan *Env, queueCapacity),
		escapement: semaphore.NewWeighted(int64(queueCapacity)),
		access:     semaphore.NewWeighted(int64(queueCapacity)),
		builtins:   make(map[string]BuiltinFunc),
		workers:    1,
	}
	// escapement counts ready items, so it starts with its whole weight
	// held: each Enqueue releases one unit, each Dequeue acquires one.
	rt.escapement.TryAcquire(int64(queueCapacity))
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Register adds (or replaces) a single builtin function.
func (rt *Runtime) Register(name string, fn BuiltinFunc) {
	rt.builtins[name] = fn
}

// Builtin looks up a registered builtin by name.
func (rt *Runtime) Builtin(name string) (BuiltinFunc, bool) {
	fn, ok := rt.builtins[name]
	return fn, ok
}

// Enqueue publishes env onto the shared runnable queue (vm_env_enq). An
// environment must never be enqueued twice concurrently.
func (rt *Runtime) Enqueue(ctx context.Context, env *Env) error {
	if err := rt.access.Acquire(ctx, 1); err != nil {
		return err
	}
	defer rt.access.Release(1)
	select {
	case rt.queue <- env:
		rt.escapement.Release(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until an environment is runnable, then removes and
// returns it (vm_env_deq).
func (rt *Runtime) Dequeue(ctx context.Context) (*Env, error) {
	if err := rt.escapement.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	select {
	case env := <-rt.queue:
		return env, nil
	case <-ctx.Done():
		rt.escapement.Release(1)
		return nil, ctx.Err()
	}
}

// Drain runs worker goroutines that repeatedly dequeue an environment,
// run it to completion or YIELD, and re-enqueue it unless it ended
// Broken. It returns once the queue is empty and every worker is idle,
// or ctx is cancelled.
func (rt *Runtime) Drain(ctx context.Context, pending int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	remaining := pending
	errCh := make(chan error, 1)

	worker := func() {
		defer wg.Done()
		for {
			mu.Lock()
			if remaining <= 0 {
				mu.Unlock()
				return
			}
			mu.Unlock()

			env, err := rt.Dequeue(ctx)
			if err != nil {
				mu.Lock()
				finished := remaining <= 0
				mu.Unlock()
				if !finished {
					select {
					case errCh <- err:
					default:
					}
				}
				return
			}
			env.Eval(rt)
			switch env.State {
			case Yielded:
				if err := rt.Enqueue(ctx, env); err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
			default:
				mu.Lock()
				remaining--
				if remaining <= 0 {
					// Wake workers still blocked in Dequeue.
					cancel()
				}
				mu.Unlock()
			}
		}
	}

	n := rt.workers
	if n < 1 {
		n = 1
	}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go worker()
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
