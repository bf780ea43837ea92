// sim/scheduler.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Handler is invoked whenever an Event of its registered Kind is
// dispatched. The Scheduler passes itself so a handler can schedule
// follow-on Events or read the current time via Now().
type Handler func(ev *Event, sched *Scheduler) error

// eventHeap implements heap.Interface and orders Events by
// (Timestamp, insertion sequence), matching the canonical
// container/heap priority-queue example.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Timestamp != h[j].Timestamp {
		return h[i].Timestamp < h[j].Timestamp
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler is the simulation kernel's event loop: a min-ordered priority
// queue of Events keyed by timestamp, dispatching to registered Handlers
// and advancing virtual time only between dispatches.
type Scheduler struct {
	clock    int64
	queue    eventHeap
	handlers map[Kind][]Handler
	nextSeq  uint64
	Stats    *Metrics
}

// NewScheduler creates a Scheduler with its own Metrics accumulator.
func NewScheduler() *Scheduler {
	return &Scheduler{
		queue:    make(eventHeap, 0),
		handlers: make(map[Kind][]Handler),
		Stats:    NewMetrics(),
	}
}

// Now returns the scheduler's current virtual time.
func (s *Scheduler) Now() int64 { return s.clock }

// Pending returns the number of Events still queued.
func (s *Scheduler) Pending() int { return len(s.queue) }

// Register appends a handler to the per-kind handler list. Multiple
// handlers for the same kind fire in registration order.
func (s *Scheduler) Register(kind Kind, h Handler) {
	s.handlers[kind] = append(s.handlers[kind], h)
}

// Schedule inserts an Event into the queue. It fails with a
// *PastEventError if the event's timestamp precedes the scheduler's
// current time — scheduling into the past is a programming bug, not a
// runtime condition to recover from.
func (s *Scheduler) Schedule(ev *Event) error {
	if ev.Timestamp < s.clock {
		return &PastEventError{Timestamp: ev.Timestamp, CurrentTime: s.clock}
	}
	s.nextSeq++
	ev.seq = s.nextSeq
	heap.Push(&s.queue, ev)
	return nil
}

// Run repeatedly pops the smallest Event and dispatches it to every
// handler registered for its kind, in order. Time advances only at
// dispatch, so every handler invoked for the same tick observes an
// identical Now(). Run halts when the queue is empty, when the next
// event's timestamp would exceed until (if non-nil), or when maxEvents
// events have been dispatched (if non-nil); in the latter two cases the
// halting event is left in the queue so a subsequent Run resumes
// deterministically. A handler returning an error aborts the run
// immediately with no partial recovery.
func (s *Scheduler) Run(until *int64, maxEvents *int) error {
	dispatched := 0
	for s.queue.Len() > 0 {
		if maxEvents != nil && dispatched >= *maxEvents {
			break
		}
		next := s.queue[0]
		if until != nil && next.Timestamp > *until {
			break
		}
		ev := heap.Pop(&s.queue).(*Event)
		s.clock = ev.Timestamp
		s.Stats.TotalEvents++
		logrus.Debugf("[tick %012d] dispatching %s", s.clock, ev.Kind)
		for _, h := range s.handlers[ev.Kind] {
			if err := h(ev, s); err != nil {
				return fmt.Errorf("sim: handler for %s at t=%d: %w", ev.Kind, ev.Timestamp, err)
			}
		}
		dispatched++
	}
	s.Stats.FinalTime = s.clock
	return nil
}
