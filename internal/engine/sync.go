package engine

import (
	"sync"
	"sync/atomic"
)

// syncPrimitives realizes one instance of SPEC_FULL.md's SyncPrimitives:
// a condition variable, its mutex, an action_done flag, and a shared
// boolean predicate the condition variable guards. Two instances exist
// in Engine: one for the BufferManager -> FFT worker handoff, one
// for the TriggerManager -> retune worker gate.
//
// actionDone is additionally exposed as a sync/atomic bool so the
// audio path's backpressure check (BufferManager.ProcessChunk) never
// needs to touch the mutex: it only ever reads actionDone and, on a
// successful handoff, clears it - both lock-free.
type syncPrimitives struct {
	mu        sync.Mutex
	cond      *sync.Cond
	signaled  bool
	actionDone atomic.Bool
}

func newSyncPrimitives() *syncPrimitives {
	sp := &syncPrimitives{}
	sp.cond = sync.NewCond(&sp.mu)
	sp.actionDone.Store(true)
	return sp
}

// Signal wakes one waiter, setting the shared predicate so a waiter
// that hasn't yet reached cond.Wait does not miss the notification.
func (sp *syncPrimitives) Signal() {
	sp.mu.Lock()
	sp.signaled = true
	sp.mu.Unlock()
	sp.cond.Signal()
}

// Wait blocks until Signal is called or stopped reports true, returning
// true if the wait ended because of shutdown. A spurious wakeup (both
// conditions false on wake) loops back to Wait, matching the workers'
// "spurious wakeup is a no-op" contract.
func (sp *syncPrimitives) Wait(stopped func() bool) (shutdown bool) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	for !sp.signaled && !stopped() {
		sp.cond.Wait()
	}
	shutdown = stopped()
	sp.signaled = false
	return shutdown
}

// BroadcastShutdown wakes every waiter so each can observe the
// shutdown flag and exit.
func (sp *syncPrimitives) BroadcastShutdown() {
	sp.mu.Lock()
	sp.signaled = true
	sp.mu.Unlock()
	sp.cond.Broadcast()
}

// ActionDone reports whether the previous handoff has been consumed.
// Lock-free; safe to call from the audio path.
func (sp *syncPrimitives) ActionDone() bool { return sp.actionDone.Load() }

// SetActionDone sets the handoff flag. Lock-free.
func (sp *syncPrimitives) SetActionDone(v bool) { sp.actionDone.Store(v) }
