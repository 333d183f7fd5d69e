// Package thread implements a user-space cooperative threading library: a
// single scheduler ("manager") hands the CPU to exactly one user thread at a
// time, in strict FIFO order, until every thread has exited.
//
// The original design (a teaching-grade C runtime) switches stacks with
// ucontext and preempts with a real-time signal. Go doesn't expose either
// primitive to user code, so this package translates both onto goroutines
// and channels: each [Thread] owns a dedicated goroutine parked on a
// rendezvous channel, and the scheduler's mutex plays the role the original
// signal mask played — held for every queue mutation, released only while a
// user thread is actually running. See DESIGN.md for the full translation
// table.
package thread
