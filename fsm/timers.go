package fsm

import (
	"fmt"

	"github.com/Quuxplusone/KnuthElevator/scheduler"
)

const (
	CloseDoors   scheduler.Label = 5
	MarkInactive scheduler.Label = 9
)

// DoorCloseTimer closes the doors once nobody is getting in or out.
type DoorCloseTimer struct {
	scheduler.Entry
}

func (t *DoorCloseTimer) String() string {
	return "E5"
}

func (t *DoorCloseTimer) resume(s *Simulation) {
	if t.Label() != CloseDoors {
		panic(fmt.Sprintf("fsm: door-close timer resumed at step %d", t.Label()))
	}
	w := &s.world
	if w.Loading {
		// still busy; try again after the flutter delay
		s.sched.Schedule(t, CloseDoors, s.now.Add(s.durations.AfterDoorFlutter))
		return
	}
	w.IdleOpen = false
	s.sched.Schedule(s.elevator, PrepareToMove, s.now.Add(s.durations.DoorClose))
}

// InactivityTimer clears the recently-active flag once the car has gone
// unused for a while, and gives the decision procedure another look.
type InactivityTimer struct {
	scheduler.Entry
}

func (t *InactivityTimer) String() string {
	return "E9"
}

func (t *InactivityTimer) resume(s *Simulation) {
	if t.Label() != MarkInactive {
		panic(fmt.Sprintf("fsm: inactivity timer resumed at step %d", t.Label()))
	}
	s.world.RecentlyActive = false
	s.decide(false)
}
