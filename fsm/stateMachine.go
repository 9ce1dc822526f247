package fsm

import (
	"fmt"

	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/scheduler"
)

// Elevator steps.
const (
	Idle           scheduler.Label = 1
	Reassess       scheduler.Label = 2
	OpenDoors      scheduler.Label = 3
	LoadUnload     scheduler.Label = 4
	PrepareToMove  scheduler.Label = 6
	AscendStep     scheduler.Label = 7
	AscendArrived  scheduler.Label = 71
	DescendStep    scheduler.Label = 8
	DescendArrived scheduler.Label = 81
)

// ElevatorTask is the car controller. There is one per simulation and it
// never terminates.
type ElevatorTask struct {
	scheduler.Entry
}

func (e *ElevatorTask) String() string {
	return fmt.Sprintf("E%d", e.Label())
}

func (e *ElevatorTask) resume(s *Simulation) {
	switch e.Label() {
	case Idle:
		s.waitForCall()
	case Reassess:
		s.reassess()
		s.openDoors()
	case OpenDoors:
		s.openDoors()
	case LoadUnload:
		s.loadUnload()
	case PrepareToMove:
		s.prepareToMove()
	case AscendStep:
		s.ascendStep()
	case AscendArrived:
		s.ascendArrived()
	case DescendStep:
		s.descendStep()
	case DescendArrived:
		s.descendArrived()
	default:
		panic(fmt.Sprintf("fsm: elevator resumed at unknown step %d", e.Label()))
	}
}

func (s *Simulation) waitForCall() {
	w := &s.world
	if w.Floor != config.HomeFloor || w.Direction != Neutral {
		panic(fmt.Sprintf("fsm: car parked at floor %d heading %v", w.Floor, w.Direction))
	}
}

// reassess drops the current direction when nothing lies ahead. A rider
// aboard wanting the other way turns the car around.
func (s *Simulation) reassess() {
	w := &s.world
	d := w.Calls.Demand(w.Floor)
	before := w.Direction
	switch {
	case w.Direction == Up && !d.Above():
		if d.PassengerDown {
			w.Direction = Down
		} else {
			w.Direction = Neutral
		}
	case w.Direction == Down && !d.Below():
		if d.PassengerUp {
			w.Direction = Up
		} else {
			w.Direction = Neutral
		}
	}
	if w.Direction != before {
		Logger.Debug().Int("floor", w.Floor).Str("from", before.String()).Str("to", w.Direction.String()).Msg("Changed direction")
	}
}

func (s *Simulation) openDoors() {
	w := &s.world
	w.Loading = true
	w.RecentlyActive = true
	s.sched.Schedule(s.inactivity, MarkInactive, s.now.Add(s.durations.BeforeInactivity))
	s.sched.Schedule(s.doorClose, CloseDoors, s.now.Add(s.durations.BeforeDoorClose))
	s.sched.Schedule(s.elevator, LoadUnload, s.now.Add(s.durations.DoorOpen))
	if s.listener != nil {
		s.listener.DoorsOpened(w.Floor, s.now, s.aboard())
	}
}

// loadUnload lets one person out, or else one person in. When nobody moves
// the doors stay open idle until the door-close timer fires.
func (s *Simulation) loadUnload() {
	w := &s.world
	if !w.Loading {
		panic(fmt.Sprintf("fsm: loading at floor %d with doors not in use", w.Floor))
	}

	if leaver := s.firstLeaver(); leaver != nil {
		s.sched.ScheduleImmediate(leaver, Alight, s.now)
		s.sched.Schedule(s.elevator, LoadUnload, s.now.Add(s.durations.Leaving))
		return
	}
	if enterer := s.firstEnterer(); enterer != nil {
		if enterer.Label() != GiveUp {
			panic(fmt.Sprintf("fsm: passenger %d waiting at step %d", enterer.ID, enterer.Label()))
		}
		s.sched.ScheduleImmediate(enterer, Board, s.now)
		s.sched.Schedule(s.elevator, LoadUnload, s.now.Add(s.durations.Entering))
		return
	}
	w.Loading = false
	w.IdleOpen = true
}

func (s *Simulation) firstLeaver() *PassengerTask {
	for _, id := range s.world.Car {
		p := s.passengers[id]
		if p.Destination == s.world.Floor {
			return p
		}
	}
	return nil
}

func (s *Simulation) firstEnterer() *PassengerTask {
	w := &s.world
	for _, id := range w.HallQueue[w.Floor] {
		p := s.passengers[id]
		if s.policy == config.AdmitAll || w.Direction == Neutral {
			return p
		}
		if (p.Destination > w.Floor) == (w.Direction == Up) {
			return p
		}
	}
	return nil
}

func (s *Simulation) prepareToMove() {
	w := &s.world
	if w.Loading {
		panic(fmt.Sprintf("fsm: preparing to move from floor %d while loading", w.Floor))
	}

	w.Calls.Car[w.Floor] = false
	if w.Direction != Down {
		w.Calls.Up[w.Floor] = false
	}
	if w.Direction != Up {
		w.Calls.Down[w.Floor] = false
	}

	s.decide(true)

	switch w.Direction {
	case Neutral:
		if s.sched.Contains(s.elevator) {
			panic("fsm: parking car is still pending")
		}
		s.sched.ScheduleImmediate(s.elevator, Idle, s.now)
	case Up:
		s.stopInactivityTimer()
		s.sched.Schedule(s.elevator, AscendStep, s.now.Add(s.durations.UpwardAcceleration))
	case Down:
		s.stopInactivityTimer()
		s.sched.Schedule(s.elevator, DescendStep, s.now.Add(s.durations.DownwardAcceleration))
	}
}

func (s *Simulation) stopInactivityTimer() {
	if s.world.RecentlyActive {
		s.sched.Cancel(s.inactivity)
	}
}

func (s *Simulation) assertDoorsClosed() {
	w := &s.world
	if w.Loading || w.IdleOpen {
		panic(fmt.Sprintf("fsm: moving from floor %d with doors open", w.Floor))
	}
}

func (s *Simulation) ascendStep() {
	s.assertDoorsClosed()
	w := &s.world
	if w.Floor >= config.TopFloor {
		panic(fmt.Sprintf("fsm: ascending past floor %d", w.Floor))
	}
	w.Floor++
	s.sched.Schedule(s.elevator, AscendArrived, s.now.Add(s.durations.UpwardTravel))
}

func (s *Simulation) ascendArrived() {
	w := &s.world
	f := w.Floor
	d := w.Calls.Demand(f)
	stop := w.Calls.Car[f] || w.Calls.Up[f] ||
		((f == config.HomeFloor || w.Calls.Down[f]) && !d.Above())
	if stop {
		s.sched.Schedule(s.elevator, Reassess, s.now.Add(s.durations.UpwardDeceleration))
	} else {
		s.sched.ScheduleImmediate(s.elevator, AscendStep, s.now)
	}
}

func (s *Simulation) descendStep() {
	s.assertDoorsClosed()
	w := &s.world
	if w.Floor <= 0 {
		panic(fmt.Sprintf("fsm: descending past floor %d", w.Floor))
	}
	w.Floor--
	s.sched.Schedule(s.elevator, DescendArrived, s.now.Add(s.durations.DownwardTravel))
}

func (s *Simulation) descendArrived() {
	w := &s.world
	f := w.Floor
	d := w.Calls.Demand(f)
	stop := w.Calls.Car[f] || w.Calls.Down[f] ||
		((f == config.HomeFloor || w.Calls.Up[f]) && !d.Below())
	if stop {
		s.sched.Schedule(s.elevator, Reassess, s.now.Add(s.durations.DownwardDeceleration))
	} else {
		s.sched.ScheduleImmediate(s.elevator, DescendStep, s.now)
	}
}
