package scheduler

import (
	"fmt"
	"sort"

	"github.com/Quuxplusone/KnuthElevator/simtime"
)

// Scheduler keeps the pending tasks ordered by wake time. Tasks with equal
// wake times keep the order in which they were inserted, except for tasks
// placed in front by ScheduleImmediate.
type Scheduler[T Task] struct {
	pending []T
}

func New[T Task]() *Scheduler[T] {
	return &Scheduler[T]{}
}

// Schedule sets the task to resume at label when the clock reaches when.
// A task already pending is moved, never duplicated.
func (s *Scheduler[T]) Schedule(t T, label Label, when simtime.Time) {
	e := t.entry()
	e.label = label
	e.wake = when
	s.remove(t)

	// first index whose wake time is strictly later keeps ties in FIFO order
	i := sort.Search(len(s.pending), func(i int) bool {
		return s.pending[i].entry().wake > when
	})
	var zero T
	s.pending = append(s.pending, zero)
	copy(s.pending[i+1:], s.pending[i:])
	s.pending[i] = t
}

// ScheduleImmediate puts the task at the very front of the pending set, ahead
// of anything else due at the same instant. when must not be later than any
// pending wake time.
func (s *Scheduler[T]) ScheduleImmediate(t T, label Label, when simtime.Time) {
	e := t.entry()
	e.label = label
	e.wake = when
	s.remove(t)

	if len(s.pending) > 0 && s.pending[0].entry().wake < when {
		panic(fmt.Sprintf("scheduler: immediate wake-up at %d is later than the front of the pending set at %d",
			when, s.pending[0].entry().wake))
	}
	s.pending = append([]T{t}, s.pending...)
}

// Cancel drops the task from the pending set. Cancelling a task that is not
// pending does nothing.
func (s *Scheduler[T]) Cancel(t T) {
	s.remove(t)
}

func (s *Scheduler[T]) Contains(t T) bool {
	return s.indexOf(t) != -1
}

func (s *Scheduler[T]) Len() int {
	return len(s.pending)
}

// Peek returns the task due next without removing it.
func (s *Scheduler[T]) Peek() (T, bool) {
	if len(s.pending) == 0 {
		var zero T
		return zero, false
	}
	return s.pending[0], true
}

// Pop removes and returns the task due next.
func (s *Scheduler[T]) Pop() (T, bool) {
	t, ok := s.Peek()
	if ok {
		var zero T
		s.pending[0] = zero
		s.pending = s.pending[1:]
	}
	return t, ok
}

// Pending returns a copy of the pending set in resume order.
func (s *Scheduler[T]) Pending() []T {
	out := make([]T, len(s.pending))
	copy(out, s.pending)
	return out
}

func (s *Scheduler[T]) indexOf(t T) int {
	target := t.entry()
	found := -1
	for i, p := range s.pending {
		if p.entry() == target {
			if found != -1 {
				panic(fmt.Sprintf("scheduler: task with label %d is pending twice", target.label))
			}
			found = i
		}
	}
	return found
}

func (s *Scheduler[T]) remove(t T) {
	i := s.indexOf(t)
	if i == -1 {
		return
	}
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
}
