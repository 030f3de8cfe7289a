/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timedqueue implements DoOnTime: a min-heap of timed callbacks
// with two delivery disciplines (IN_ORDER, BURST), a single cooperative
// ticker, and error/slowCommand reporting via the events bus. It is the
// leaf component every device façade is built on (§4.1).
package timedqueue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/tsrerr"
)

// Mode selects the delivery discipline for a queue instance.
type Mode int

const (
	// ModeInOrder: within a queueKey, callbacks fire strictly in ascending
	// fireTime order and a later callback does not start until the
	// previous one's task has completed (or failed). Different keys are
	// independent.
	ModeInOrder Mode = iota
	// ModeBurst: all due entries fire as they become due, in enqueue
	// order, without waiting on prior callbacks to settle.
	ModeBurst
)

// Callback is invoked when its entry's fireTime is reached. The context is
// cancelled if the queue is disposed while the callback is running.
type Callback func(ctx context.Context, payload any) error

// Handle identifies a queued entry for reference; it carries no behavior.
type Handle uint64

// Entry is a read-only snapshot of one queued callback, as returned by
// GetQueue.
type Entry struct {
	Handle   Handle
	FireTime int64
	QueueKey string
	Payload  any
}

type entry struct {
	handle   Handle
	fireTime int64
	queueKey string
	seq      uint64
	callback Callback
	payload  any
	canceled bool
}

// entryHeap orders by fireTime, then by insertion sequence for stability.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].fireTime != h[j].fireTime {
		return h[i].fireTime < h[j].fireTime
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is DoOnTime: queue callbacks by absolute fire time and let a single
// ticker dispatch them as they become due.
type Queue struct {
	mode          Mode
	clock         Clock
	slowThreshold time.Duration
	signals       *events.Bus

	mu       sync.Mutex
	h        entryHeap
	byHandle map[Handle]*entry
	nextSeq  uint64
	nextH    uint64
	timer    *time.Timer
	disposed bool
	ctx      context.Context
	cancel   context.CancelFunc

	// keyWorkers serializes ModeInOrder execution per queueKey.
	keyWorkers map[string]chan func()
}

// Options configures a new Queue.
type Options struct {
	Mode Mode
	// Clock supplies current time in ms. Defaults to SystemClock.
	Clock Clock
	// SlowThreshold: callbacks running longer than this past their due
	// time trigger a slowCommand signal. Zero disables the check.
	SlowThreshold time.Duration
	// Signals receives error/slowCommand notifications. May be nil.
	Signals *events.Bus
}

// New constructs a Queue in the given mode.
func New(opts Options) *Queue {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		mode:          opts.Mode,
		clock:         clock,
		slowThreshold: opts.SlowThreshold,
		signals:       opts.Signals,
		byHandle:      make(map[Handle]*entry),
		keyWorkers:    make(map[string]chan func()),
		ctx:           ctx,
		cancel:        cancel,
	}
	return q
}

// Queue schedules callback to fire at fireTime (ms). queueKey groups
// entries that must serialize in ModeInOrder; "" means unordered.
func (q *Queue) Queue(fireTime int64, queueKey string, cb Callback, payload any) Handle {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return 0
	}
	q.nextSeq++
	q.nextH++
	e := &entry{
		handle:   Handle(q.nextH),
		fireTime: fireTime,
		queueKey: queueKey,
		seq:      q.nextSeq,
		callback: cb,
		payload:  payload,
	}
	heap.Push(&q.h, e)
	q.byHandle[e.handle] = e
	q.rescheduleLocked()
	q.mu.Unlock()
	return e.handle
}

// ClearQueueAfter removes entries with fireTime > t.
func (q *Queue) ClearQueueAfter(t int64) {
	q.clearWhere(func(e *entry) bool { return e.fireTime > t })
}

// ClearQueueNowAndAfter removes entries with fireTime >= t.
func (q *Queue) ClearQueueNowAndAfter(t int64) {
	q.clearWhere(func(e *entry) bool { return e.fireTime >= t })
}

func (q *Queue) clearWhere(match func(*entry) bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := make(entryHeap, 0, len(q.h))
	for _, e := range q.h {
		if match(e) {
			e.canceled = true
			delete(q.byHandle, e.handle)
			continue
		}
		kept = append(kept, e)
	}
	heap.Init(&kept)
	q.h = kept
	q.rescheduleLocked()
}

// GetQueue returns a read-only snapshot of currently queued entries.
func (q *Queue) GetQueue() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, 0, len(q.h))
	for _, e := range q.h {
		out = append(out, Entry{Handle: e.handle, FireTime: e.fireTime, QueueKey: e.queueKey, Payload: e.payload})
	}
	return out
}

// Dispose cancels the ticker and drops all entries. In-flight callbacks
// run to completion; their results are discarded.
func (q *Queue) Dispose() {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	q.disposed = true
	if q.timer != nil {
		q.timer.Stop()
	}
	for _, e := range q.h {
		e.canceled = true
	}
	q.h = nil
	q.byHandle = make(map[Handle]*entry)
	workers := q.keyWorkers
	q.keyWorkers = make(map[string]chan func())
	q.mu.Unlock()
	q.cancel()
	for _, ch := range workers {
		close(ch)
	}
}

// rescheduleLocked arms (or disarms) the timer for the new heap minimum.
// Must be called with q.mu held.
func (q *Queue) rescheduleLocked() {
	if q.disposed {
		return
	}
	if q.timer != nil {
		q.timer.Stop()
	}
	if len(q.h) == 0 {
		return
	}
	due := q.h[0].fireTime
	delay := time.Duration(due-q.clock()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	q.timer = time.AfterFunc(delay, q.tick)
}

// tick pops every entry whose fireTime has arrived and dispatches it, then
// rearms for the next one.
func (q *Queue) tick() {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	now := q.clock()
	var due []*entry
	for len(q.h) > 0 && q.h[0].fireTime <= now {
		e := heap.Pop(&q.h).(*entry)
		delete(q.byHandle, e.handle)
		if e.canceled {
			continue
		}
		due = append(due, e)
	}
	q.rescheduleLocked()
	q.mu.Unlock()

	for _, e := range due {
		q.dispatch(e)
	}
}

func (q *Queue) dispatch(e *entry) {
	switch q.mode {
	case ModeInOrder:
		if e.queueKey == "" {
			go q.run(e)
			return
		}
		worker := q.workerFor(e.queueKey)
		worker <- func() { q.run(e) }
	default: // ModeBurst
		go q.run(e)
	}
}

// workerFor returns the single-goroutine FIFO worker for a queueKey,
// creating it on first use. dispatch never calls it for the empty key:
// unkeyed entries run directly so they don't serialize against each other.
func (q *Queue) workerFor(key string) chan func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.disposed {
		// tick() already popped this entry before Dispose ran concurrently
		// and swapped in a fresh keyWorkers map; run it through a one-shot
		// worker instead of registering a persistent one nothing will ever
		// close, which would otherwise leak a goroutine blocked forever.
		ch := make(chan func(), 1)
		go func() {
			if task, ok := <-ch; ok {
				task()
			}
		}()
		return ch
	}
	ch, ok := q.keyWorkers[key]
	if ok {
		return ch
	}
	ch = make(chan func(), 256)
	q.keyWorkers[key] = ch
	go func() {
		for task := range ch {
			task()
		}
	}()
	return ch
}

func (q *Queue) run(e *entry) {
	start := q.clock()
	err := e.callback(q.ctx, e.payload)
	finish := q.clock()

	q.mu.Lock()
	disposed := q.disposed
	q.mu.Unlock()
	if q.signals == nil || disposed {
		return
	}
	if err != nil {
		// Per §7, only CONNECTION and STATE_CORRUPTION are device-fatal
		// enough to warrant the error signal; everything else (including
		// untagged errors) was already reported via commandError by the
		// callback itself, so republishing here would double-count it.
		if kind, ok := tsrerr.KindOf(err); ok && (kind == tsrerr.KindConnection || kind == tsrerr.KindStateCorruption) {
			q.signals.Publish(events.Signal{Kind: events.KindError, Source: "timedqueue", Err: err})
		}
	}
	if q.slowThreshold > 0 {
		overrun := time.Duration(finish-e.fireTime) * time.Millisecond
		if overrun > q.slowThreshold {
			q.signals.Publish(events.Signal{
				Kind:        events.KindSlowCommand,
				SlowMessage: "callback exceeded deadline margin",
				DueIn:       finish - e.fireTime,
			})
		}
	}
	_ = start
}
