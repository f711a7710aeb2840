// Package vm implements the bytecode evaluator: an Env holding five named
// resource stacks (DICT, CODE, REFS, IP, WIP) plus a persistent
// stack-reference, and a Runtime coordinating a shared runnable queue of
// environments across worker goroutines. See spec.md §4.E-§5.
//
// The dispatch loop (Env.Eval) mirrors the teacher ngaro VM's run loop in
// vm/run.go: fetch-decode-execute against the top lambda frame until the
// frame is exhausted, a YIELD opcode suspends, or an invalid opcode
// breaks the environment.
package vm
