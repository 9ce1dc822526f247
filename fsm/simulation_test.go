package fsm_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Quuxplusone/KnuthElevator/arrivals"
	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/fsm"
	"github.com/Quuxplusone/KnuthElevator/simtime"
	"github.com/Quuxplusone/KnuthElevator/trace"
)

// The opening of the eleven-passenger example, up to 88.8 seconds.
var knuthOpening = []string{
	"0000 N 2 0 0 0 U1",
	"0020 D 2 0 0 0 E6",
	"0035 D 2 0 0 0 E8",
	"0038 D 1 0 0 0 U1",
	"0096 D 1 0 0 0 E81",
	"0096 D 1 0 0 0 E8",
	"0136 D 0 0 0 0 U1",
	"0141 D 0 0 0 0 U1",
	"0152 D 0 0 0 0 U4",
	"0157 D 0 0 0 0 E81",
	"0180 D 0 0 0 0 E2",
	"0200 N 0 X X 0 E4",
	"0256 N 0 0 X X E5",
	"0276 N 0 0 X 0 E6",
	"0291 U 0 0 X 0 U1",
	"0291 U 0 0 X 0 E7",
	"0342 U 1 0 X 0 E71",
	"0342 U 1 0 X 0 E7",
	"0364 U 2 0 X 0 U1",
	"0393 U 2 0 X 0 E71",
	"0393 U 2 0 X 0 E7",
	"0444 U 3 0 X 0 E71",
	"0444 U 3 0 X 0 E7",
	"0495 U 4 0 X 0 E71",
	"0509 U 4 0 X 0 E2",
	"0529 N 4 X X 0 E4",
	"0529 N 4 X X 0 U5",
	"0540 D 4 X X 0 U4",
	"0554 D 4 X X 0 E4",
	"0554 D 4 0 X X E5",
	"0574 D 4 0 X 0 E6",
	"0589 D 4 0 X 0 E8",
	"0602 D 3 0 X 0 U1",
	"0650 D 3 0 X 0 E81",
	"0673 D 3 0 X 0 E2",
	"0693 D 3 X X 0 E4",
	"0693 D 3 X X 0 U5",
	"0718 D 3 X X 0 E4",
	"0749 D 3 0 X X E5",
	"0769 D 3 0 X 0 E6",
	"0784 D 3 0 X 0 E8",
	"0827 D 2 0 X 0 U1",
	"0845 D 2 0 X 0 E81",
	"0868 D 2 0 X 0 E2",
	"0876 D 2 X X 0 U1",
	"0888 D 2 X X 0 E4",
	"0888 D 2 X X 0 U5",
}

type event struct {
	kind  string
	id    fsm.PassengerID
	floor int
	at    simtime.Time
}

// eventLog records what passengers do. Boarded has no floor argument, so
// boarding events carry the number of riders instead.
type eventLog struct {
	events []event
}

func (l *eventLog) Queued(id fsm.PassengerID, floor int, now simtime.Time) {
	l.events = append(l.events, event{"queued", id, floor, now})
}

func (l *eventLog) GaveUp(id fsm.PassengerID, floor int, now simtime.Time) {
	l.events = append(l.events, event{"gaveUp", id, floor, now})
}

func (l *eventLog) Boarded(id fsm.PassengerID, now simtime.Time, aboard []fsm.PassengerID) {
	l.events = append(l.events, event{"boarded", id, len(aboard), now})
}

func (l *eventLog) DoorsOpened(floor int, now simtime.Time, aboard []fsm.PassengerID) {
	l.events = append(l.events, event{"doorsOpened", 0, floor, now})
}

func (l *eventLog) Alighted(id fsm.PassengerID, floor int, now simtime.Time) {
	l.events = append(l.events, event{"alighted", id, floor, now})
}

func (l *eventLog) count(kind string) int {
	n := 0
	for _, e := range l.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) find(kind string, id fsm.PassengerID) (event, bool) {
	for _, e := range l.events {
		if e.kind == kind && e.id == id {
			return e, true
		}
	}
	return event{}, false
}

// invariantChecker inspects the world before every step.
type invariantChecker struct {
	t   *testing.T
	sim *fsm.Simulation
}

func (c *invariantChecker) Resumed(r fsm.Record) {
	w := c.sim.Snapshot()
	if err := w.CheckInvariants(); err != nil {
		c.t.Fatalf("at %v before %s: %v", r.Time, r.Task, err)
	}
	if (w.Loading || w.IdleOpen) && r.Task == "E7" {
		c.t.Fatalf("at %v: about to climb with the doors open", r.Time)
	}
}

func runKnuth(t *testing.T, deadline simtime.Time) ([]string, *fsm.Simulation, error) {
	t.Helper()
	return runKnuthWith(t, config.Default(), deadline)
}

func runKnuthWith(t *testing.T, cfg config.Config, deadline simtime.Time) ([]string, *fsm.Simulation, error) {
	t.Helper()
	sim := fsm.New(cfg, arrivals.KnuthFixture())
	rec := &trace.Recorder{}
	sim.Observe(trace.Multi{rec, &invariantChecker{t: t, sim: sim}})
	err := sim.RunUntil(deadline)
	return rec.Lines(), sim, err
}

func TestKnuthOpening(t *testing.T) {
	lines, _, err := runKnuth(t, 889)
	if err != nil {
		t.Fatalf("RunUntil(889) = %v", err)
	}
	if len(lines) != len(knuthOpening) {
		t.Errorf("got %d steps, expected %d", len(lines), len(knuthOpening))
	}
	for i := 0; i < len(lines) && i < len(knuthOpening); i++ {
		if lines[i] != knuthOpening[i] {
			t.Fatalf("step %d = %q, expected %q", i, lines[i], knuthOpening[i])
		}
	}
}

func readGolden(t *testing.T, name string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("reading golden trace: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// The whole example up to 484.5 seconds, when the twelfth passenger would
// have arrived.
func TestKnuthGoldenTrace(t *testing.T) {
	testCases := []struct {
		policy config.Policy
		golden string
	}{
		{config.AdmitAll, "knuth_admit_all.golden"},
		{config.AdmitSameDirection, "knuth_same_direction.golden"},
	}
	for _, tc := range testCases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			cfg := config.Default()
			cfg.Policy = tc.policy
			lines, _, err := runKnuthWith(t, cfg, 4845)
			if err != nil {
				t.Fatalf("RunUntil(4845) = %v", err)
			}

			expected := readGolden(t, tc.golden)
			for i := 0; i < len(lines) && i < len(expected); i++ {
				if lines[i] != expected[i] {
					t.Fatalf("step %d = %q, expected %q", i, lines[i], expected[i])
				}
			}
			if len(lines) != len(expected) {
				t.Errorf("got %d steps, expected %d", len(lines), len(expected))
			}
		})
	}
}

func TestKnuthRunIsReproducible(t *testing.T) {
	first, _, err1 := runKnuth(t, 100000)
	second, _, err2 := runKnuth(t, 100000)
	if !errors.Is(err1, arrivals.ErrNoMoreInput) || !errors.Is(err2, arrivals.ErrNoMoreInput) {
		t.Fatalf("runs ended with %v and %v, expected ErrNoMoreInput", err1, err2)
	}
	if !slices.Equal(first, second) {
		t.Errorf("two runs of the same input produced different traces")
	}
}

func TestKnuthRunServesEveryone(t *testing.T) {
	sim := fsm.New(config.Default(), arrivals.KnuthFixture())
	log := &eventLog{}
	sim.Listen(log)
	sim.Observe(&invariantChecker{t: t, sim: sim})

	err := sim.RunUntil(100000)
	if !errors.Is(err, arrivals.ErrNoMoreInput) {
		t.Fatalf("RunUntil = %v, expected ErrNoMoreInput", err)
	}
	if !sim.InputExhausted() {
		t.Errorf("InputExhausted() = false after draining")
	}
	if log.count("queued") != 11 {
		t.Errorf("queued %d passengers, expected 11", log.count("queued"))
	}
	if log.count("gaveUp") != 2 {
		t.Errorf("%d passengers gave up, expected 2", log.count("gaveUp"))
	}
	if log.count("alighted") != 9 {
		t.Errorf("%d passengers alighted, expected 9", log.count("alighted"))
	}
	for _, id := range []fsm.PassengerID{1, 6} {
		if _, ok := log.find("gaveUp", id); !ok {
			t.Errorf("passenger %d did not give up", id)
		}
	}
	for id := fsm.PassengerID(1); id <= 11; id++ {
		if _, ok := sim.Passenger(id); ok {
			t.Errorf("passenger %d still in the building", id)
		}
	}

	w := sim.Snapshot()
	if w.Floor != config.HomeFloor || w.Direction != fsm.Neutral {
		t.Errorf("car ended at floor %d heading %v, expected parked at home", w.Floor, w.Direction)
	}
	if sim.ElevatorLabel() != fsm.Idle {
		t.Errorf("ElevatorLabel() = %d, expected Idle", sim.ElevatorLabel())
	}
	if len(sim.Pending()) != 0 {
		t.Errorf("Pending() = %v, expected nothing", sim.Pending())
	}
}

func TestSingleRide(t *testing.T) {
	sim := fsm.New(config.Default(), arrivals.NewFixture([]arrivals.Arrival{
		{Origin: 0, Destination: 2, Patience: 36000, Gap: 100000},
	}))
	log := &eventLog{}
	sim.Listen(log)

	if err := sim.RunUntil(1000); err != nil {
		t.Fatalf("RunUntil(1000) = %v", err)
	}

	expected := []event{
		{"queued", 1, 0, 0},
		{"doorsOpened", 0, 0, 180},
		{"boarded", 1, 1, 200},
		{"doorsOpened", 0, 2, 376},
		{"alighted", 1, 2, 396},
	}
	if !slices.Equal(log.events, expected) {
		t.Errorf("events = %v, expected %v", log.events, expected)
	}
}

func TestGiveUpBeforeCarArrives(t *testing.T) {
	sim := fsm.New(config.Default(), arrivals.NewFixture([]arrivals.Arrival{
		{Origin: 0, Destination: 2, Patience: 10, Gap: 100000},
	}))
	log := &eventLog{}
	sim.Listen(log)
	sim.Observe(&invariantChecker{t: t, sim: sim})

	if err := sim.RunUntil(50000); err != nil {
		t.Fatalf("RunUntil(50000) = %v", err)
	}

	e, ok := log.find("gaveUp", 1)
	if !ok || e.at != 10 || e.floor != 0 {
		t.Errorf("gaveUp event = %+v, %v; expected passenger 1 on floor 0 at 10", e, ok)
	}
	if log.count("boarded") != 0 {
		t.Errorf("someone boarded after giving up")
	}

	// the car still answers the stale call, then goes home
	w := sim.Snapshot()
	if w.Floor != config.HomeFloor || w.Direction != fsm.Neutral || w.Calls.Any() {
		t.Errorf("car at floor %d heading %v with calls %+v, expected parked at home", w.Floor, w.Direction, w.Calls)
	}
	if len(w.HallQueue[0]) != 0 {
		t.Errorf("floor 0 queue = %v, expected empty", w.HallQueue[0])
	}
}

func TestLateArrivalReusesOpenDoors(t *testing.T) {
	testCases := []struct {
		name      string
		arriveAt  simtime.Duration
		boardedAt simtime.Time
	}{
		// doors open and idle after passenger 1 leaves at 39.6
		{"idle doors", 430, 430},
		// doors closing, car about to prepare to move
		{"closing doors", 460, 480},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sim := fsm.New(config.Default(), arrivals.NewFixture([]arrivals.Arrival{
				{Origin: 0, Destination: 2, Patience: 36000, Gap: tc.arriveAt},
				{Origin: 2, Destination: 4, Patience: 36000, Gap: 100000},
			}))
			log := &eventLog{}
			sim.Listen(log)

			if err := sim.RunUntil(2000); err != nil {
				t.Fatalf("RunUntil(2000) = %v", err)
			}
			e, ok := log.find("boarded", 2)
			if !ok || e.at != tc.boardedAt {
				t.Errorf("passenger 2 boarded = %+v, %v; expected at %v", e, ok, tc.boardedAt)
			}
			if e, ok := log.find("alighted", 2); !ok || e.floor != 4 {
				t.Errorf("passenger 2 alighted = %+v, %v; expected on floor 4", e, ok)
			}
		})
	}
}

func TestFallbackKeepsSimulationRunning(t *testing.T) {
	input := arrivals.NewFallback(arrivals.KnuthFixture(), arrivals.NewRandom(arrivals.NewXoshiro256(1)))
	sim := fsm.New(config.Default(), input)
	sim.Observe(&invariantChecker{t: t, sim: sim})

	if err := sim.RunUntil(36000); err != nil {
		t.Fatalf("RunUntil(36000) = %v", err)
	}
	if sim.InputExhausted() {
		t.Errorf("InputExhausted() = true with a random fallback")
	}
	if sim.Now() >= 36000 {
		t.Errorf("Now() = %v, expected before the deadline", sim.Now())
	}
}

func TestStepAndPending(t *testing.T) {
	sim := fsm.New(config.Default(), arrivals.KnuthFixture())

	pending := sim.Pending()
	if len(pending) != 1 || pending[0] != (fsm.PendingTask{Task: "U1", Time: 0}) {
		t.Fatalf("Pending() = %v, expected U1 at 0", pending)
	}

	r, ok := sim.Step()
	if !ok || trace.Format(r) != knuthOpening[0] {
		t.Fatalf("Step() = %q, %v", trace.Format(r), ok)
	}
	expected := []fsm.PendingTask{
		{Task: "E6", Time: 20},
		{Task: "U1", Time: 38},
		{Task: "U4", Time: 152},
	}
	if !slices.Equal(sim.Pending(), expected) {
		t.Errorf("Pending() = %v, expected %v", sim.Pending(), expected)
	}
}

func TestSameDirectionPolicyRuns(t *testing.T) {
	cfg := config.Default()
	cfg.Policy = config.AdmitSameDirection
	sim := fsm.New(cfg, arrivals.KnuthFixture())
	log := &eventLog{}
	sim.Listen(log)
	sim.Observe(&invariantChecker{t: t, sim: sim})

	err := sim.RunUntil(100000)
	if !errors.Is(err, arrivals.ErrNoMoreInput) {
		t.Fatalf("RunUntil = %v, expected ErrNoMoreInput", err)
	}
	if log.count("gaveUp")+log.count("alighted") != 11 {
		t.Errorf("gave up %d, alighted %d; expected 11 in total", log.count("gaveUp"), log.count("alighted"))
	}
}

func TestNewWithoutInputPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("New with a nil generator did not panic")
		}
	}()
	fsm.New(config.Default(), nil)
}
