package fsm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tiendc/go-deepcopy"

	"github.com/Quuxplusone/KnuthElevator/arrivals"
	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/logger"
	"github.com/Quuxplusone/KnuthElevator/scheduler"
	"github.com/Quuxplusone/KnuthElevator/simtime"
)

var Logger = logger.GetLogger()

type task interface {
	scheduler.Task
	resume(s *Simulation)
	String() string
}

// Record is what an Observer sees each time a task is resumed, taken just
// before the task runs.
type Record struct {
	Time           simtime.Time
	Direction      Direction
	Floor          int
	Loading        bool
	RecentlyActive bool
	IdleOpen       bool
	Task           string
}

type Observer interface {
	Resumed(r Record)
}

// Listener follows passengers through their trip. Slices handed to it are
// copies.
type Listener interface {
	Queued(id PassengerID, floor int, now simtime.Time)
	GaveUp(id PassengerID, floor int, now simtime.Time)
	Boarded(id PassengerID, now simtime.Time, aboard []PassengerID)
	DoorsOpened(floor int, now simtime.Time, aboard []PassengerID)
	Alighted(id PassengerID, floor int, now simtime.Time)
}

type PendingTask struct {
	Task string
	Time simtime.Time
}

type Simulation struct {
	durations config.Durations
	policy    config.Policy

	world World
	sched *scheduler.Scheduler[task]
	now   simtime.Time

	input    arrivals.Generator
	inputErr error

	elevator   *ElevatorTask
	doorClose  *DoorCloseTimer
	inactivity *InactivityTimer

	passengers map[PassengerID]*PassengerTask
	lastID     PassengerID

	observer Observer
	listener Listener
}

// New builds a simulation with the car dormant at the home floor, labelled
// Idle but not pending, and the first passenger due at time zero.
func New(cfg config.Config, input arrivals.Generator) *Simulation {
	if input == nil {
		panic("fsm: simulation needs an arrival generator")
	}
	s := &Simulation{
		durations:  cfg.Durations,
		policy:     cfg.Policy,
		world:      newWorld(),
		sched:      scheduler.New[task](),
		input:      input,
		elevator:   &ElevatorTask{Entry: scheduler.NewEntry(Idle)},
		doorClose:  &DoorCloseTimer{Entry: scheduler.NewEntry(CloseDoors)},
		inactivity: &InactivityTimer{Entry: scheduler.NewEntry(MarkInactive)},
		passengers: make(map[PassengerID]*PassengerTask),
	}
	s.sched.Schedule(s.newPassenger(), Arrive, 0)
	return s
}

func (s *Simulation) Observe(o Observer) {
	s.observer = o
}

func (s *Simulation) Listen(l Listener) {
	s.listener = l
}

// Now is the wake time of the task resumed last.
func (s *Simulation) Now() simtime.Time {
	return s.now
}

// RunUntil resumes tasks in order until the next one is due at or after
// deadline. Pending tasks stay queued for the next call. It returns an error
// wrapping arrivals.ErrNoMoreInput when the arrival stream has ended and
// nothing is left to run.
func (s *Simulation) RunUntil(deadline simtime.Time) error {
	for {
		t, ok := s.sched.Peek()
		if !ok {
			if s.inputErr != nil {
				return fmt.Errorf("simulation drained at %d: %w", s.now, s.inputErr)
			}
			panic(fmt.Sprintf("fsm: nothing pending at %d while arrivals continue", s.now))
		}
		if t.WakeTime() >= deadline {
			return nil
		}
		s.Step()
	}
}

// Step resumes exactly one task. It returns false if nothing is pending.
func (s *Simulation) Step() (Record, bool) {
	t, ok := s.sched.Pop()
	if !ok {
		return Record{}, false
	}
	s.now = t.WakeTime()
	r := s.record(t)
	if s.observer != nil {
		s.observer.Resumed(r)
	}
	t.resume(s)
	return r, true
}

func (s *Simulation) record(t task) Record {
	return Record{
		Time:           s.now,
		Direction:      s.world.Direction,
		Floor:          s.world.Floor,
		Loading:        s.world.Loading,
		RecentlyActive: s.world.RecentlyActive,
		IdleOpen:       s.world.IdleOpen,
		Task:           t.String(),
	}
}

// Snapshot returns a deep copy of the world that stays valid while the
// simulation keeps running.
func (s *Simulation) Snapshot() World {
	var w World
	if err := deepcopy.Copy(&w, &s.world); err != nil {
		panic(fmt.Sprintf("fsm: copying world: %v", err))
	}
	return w
}

func (s *Simulation) Pending() []PendingTask {
	pending := s.sched.Pending()
	out := make([]PendingTask, len(pending))
	for i, t := range pending {
		out[i] = PendingTask{Task: t.String(), Time: t.WakeTime()}
	}
	return out
}

// ElevatorLabel is the step the car will run next, or ran last if it is
// dormant.
func (s *Simulation) ElevatorLabel() scheduler.Label {
	return s.elevator.Label()
}

// InputExhausted reports whether the arrival stream has ended.
func (s *Simulation) InputExhausted() bool {
	return errors.Is(s.inputErr, arrivals.ErrNoMoreInput)
}

// Passenger looks up a passenger still in the building.
func (s *Simulation) Passenger(id PassengerID) (PassengerTask, bool) {
	p, ok := s.passengers[id]
	if !ok {
		return PassengerTask{}, false
	}
	return *p, true
}

func (s *Simulation) newPassenger() *PassengerTask {
	s.lastID++
	p := &PassengerTask{ID: s.lastID}
	s.passengers[p.ID] = p
	return p
}

func (s *Simulation) retire(p *PassengerTask) {
	delete(s.passengers, p.ID)
}

func (s *Simulation) aboard() []PassengerID {
	return slices.Clone(s.world.Car)
}
