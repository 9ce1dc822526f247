package fsm

import (
	"fmt"

	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/scheduler"
)

// Passenger steps.
const (
	Arrive scheduler.Label = 1
	GiveUp scheduler.Label = 4
	Board  scheduler.Label = 5
	Alight scheduler.Label = 6
)

// PassengerTask is one rider, from arrival until they leave the car or walk
// away.
type PassengerTask struct {
	scheduler.Entry
	ID          PassengerID
	Origin      int
	Destination int
}

func (p *PassengerTask) String() string {
	return fmt.Sprintf("U%d", p.Label())
}

func (p *PassengerTask) resume(s *Simulation) {
	switch p.Label() {
	case Arrive:
		s.arrive(p)
	case GiveUp:
		s.giveUp(p)
	case Board:
		s.board(p)
	case Alight:
		s.alight(p)
	default:
		panic(fmt.Sprintf("fsm: passenger %d resumed at unknown step %d", p.ID, p.Label()))
	}
}

// available tells whether the car is where p can use it. With the
// same-direction policy a car heading away does not count.
func (s *Simulation) available(p *PassengerTask) bool {
	w := &s.world
	if w.Floor != p.Origin {
		return false
	}
	if s.policy == config.AdmitAll {
		return true
	}
	avoid := Down
	if p.Destination < p.Origin {
		avoid = Up
	}
	return w.Direction != avoid
}

func (s *Simulation) arrive(p *PassengerTask) {
	a, err := s.input.Next()
	if err != nil {
		// nobody shows up; the arrival stream ends here
		s.inputErr = err
		s.retire(p)
		Logger.Debug().Err(err).Int("at", int(s.now)).Msg("Arrival input ended")
		return
	}
	if err := a.Validate(); err != nil {
		panic(fmt.Sprintf("fsm: passenger %d: %v", p.ID, err))
	}

	s.sched.Schedule(s.newPassenger(), Arrive, s.now.Add(a.Gap))

	p.Origin = a.Origin
	p.Destination = a.Destination
	w := &s.world
	switch {
	case s.available(p) && s.elevator.Label() == PrepareToMove:
		s.sched.ScheduleImmediate(s.elevator, OpenDoors, s.now)
	case s.available(p) && w.IdleOpen:
		w.IdleOpen = false
		w.Loading = true
		s.sched.ScheduleImmediate(s.elevator, LoadUnload, s.now)
	default:
		if p.Origin < p.Destination {
			w.Calls.Up[p.Origin] = true
		} else {
			w.Calls.Down[p.Origin] = true
		}
		if !w.RecentlyActive || s.elevator.Label() == Idle {
			s.decide(false)
		}
	}

	// even a rider the car is about to take waits in the queue; that is
	// where loadUnload looks for people to let in
	w.HallQueue[p.Origin] = append(w.HallQueue[p.Origin], p.ID)
	s.sched.Schedule(p, GiveUp, s.now.Add(a.Patience))
	if s.listener != nil {
		s.listener.Queued(p.ID, p.Origin, s.now)
	}
}

func (s *Simulation) giveUp(p *PassengerTask) {
	w := &s.world
	if s.available(p) && w.Loading {
		// the doors are open here; they will get in
		return
	}
	queue, ok := removeID(w.HallQueue[p.Origin], p.ID)
	if !ok {
		panic(fmt.Sprintf("fsm: passenger %d gave up but is not queued on floor %d", p.ID, p.Origin))
	}
	w.HallQueue[p.Origin] = queue
	s.retire(p)
	Logger.Debug().Int("passenger", int(p.ID)).Int("floor", p.Origin).Msg("Passenger walked away")
	if s.listener != nil {
		s.listener.GaveUp(p.ID, p.Origin, s.now)
	}
}

func (s *Simulation) board(p *PassengerTask) {
	w := &s.world
	queue, ok := removeID(w.HallQueue[p.Origin], p.ID)
	if !ok {
		panic(fmt.Sprintf("fsm: passenger %d boarding but not queued on floor %d", p.ID, p.Origin))
	}
	w.HallQueue[p.Origin] = queue
	w.Car = append([]PassengerID{p.ID}, w.Car...)
	w.Calls.Car[p.Destination] = true

	if w.Direction == Neutral {
		w.Direction = directionBetween(p.Origin, p.Destination)
		s.sched.Schedule(s.doorClose, CloseDoors, s.now.Add(s.durations.BeforeRapidDoorClose))
	}
	if s.listener != nil {
		s.listener.Boarded(p.ID, s.now, s.aboard())
	}
}

func (s *Simulation) alight(p *PassengerTask) {
	w := &s.world
	car, ok := removeID(w.Car, p.ID)
	if !ok {
		panic(fmt.Sprintf("fsm: passenger %d leaving a car they are not in", p.ID))
	}
	w.Car = car
	s.retire(p)
	if s.listener != nil {
		s.listener.Alighted(p.ID, w.Floor, s.now)
	}
}
