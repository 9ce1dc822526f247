// Package stats follows each passenger through the building and reports
// how long they waited and rode.
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/Quuxplusone/KnuthElevator/fsm"
	"github.com/Quuxplusone/KnuthElevator/logger"
	"github.com/Quuxplusone/KnuthElevator/simtime"
)

var Logger = logger.GetLogger()

type rider struct {
	floor        int
	queuedAt     simtime.Time
	boardedAt    simtime.Time
	maxOccupancy int
	stops        []int
}

// Collector is an fsm.Listener. Riders are forgotten once they leave.
type Collector struct {
	riders map[fsm.PassengerID]*rider
	lines  []string

	served    int
	walked    int
	totalWait simtime.Duration
	totalRide simtime.Duration
}

func NewCollector() *Collector {
	return &Collector{riders: make(map[fsm.PassengerID]*rider)}
}

func (c *Collector) Queued(id fsm.PassengerID, floor int, now simtime.Time) {
	c.riders[id] = &rider{floor: floor, queuedAt: now}
}

func (c *Collector) GaveUp(id fsm.PassengerID, floor int, now simtime.Time) {
	r := c.lookup(id)
	delete(c.riders, id)
	c.walked++
	c.add(fmt.Sprintf("User %d walked after %v waiting in the queue on floor %d",
		id, now.Sub(r.queuedAt), r.floor))
}

func (c *Collector) Boarded(id fsm.PassengerID, now simtime.Time, aboard []fsm.PassengerID) {
	c.lookup(id).boardedAt = now
	for _, other := range aboard {
		r := c.lookup(other)
		r.maxOccupancy = max(r.maxOccupancy, len(aboard))
	}
}

func (c *Collector) DoorsOpened(floor int, now simtime.Time, aboard []fsm.PassengerID) {
	for _, id := range aboard {
		r := c.lookup(id)
		r.stops = append(r.stops, floor)
	}
}

func (c *Collector) Alighted(id fsm.PassengerID, floor int, now simtime.Time) {
	r := c.lookup(id)
	delete(c.riders, id)

	wait := r.boardedAt.Sub(r.queuedAt)
	ride := now.Sub(r.boardedAt)
	c.served++
	c.totalWait += wait
	c.totalRide += ride

	var b strings.Builder
	fmt.Fprintf(&b, "User %d arrived after %v waiting in the queue on floor %d followed by %v in the elevator. Max occupancy %d. Stopped at floors",
		id, wait, r.floor, ride, r.maxOccupancy)
	for _, f := range r.stops {
		fmt.Fprintf(&b, " %d", f)
	}
	b.WriteString(".")
	c.add(b.String())
}

func (c *Collector) lookup(id fsm.PassengerID) *rider {
	r, ok := c.riders[id]
	if !ok {
		panic(fmt.Sprintf("stats: no record of passenger %d", id))
	}
	return r
}

func (c *Collector) add(line string) {
	Logger.Debug().Msg(line)
	c.lines = append(c.lines, line)
}

// Lines are the per-passenger reports in the order passengers left.
func (c *Collector) Lines() []string {
	return append([]string(nil), c.lines...)
}

// Report writes every per-passenger line followed by the summary.
func (c *Collector) Report(w io.Writer) error {
	for _, line := range c.lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, c.Summary())
	return err
}

type Summary struct {
	Served int
	Walked int
	// Waiting counts passengers still queued or riding.
	Waiting int

	// Means are over served passengers only.
	MeanWait simtime.Duration
	MeanRide simtime.Duration
}

func (c *Collector) Summary() Summary {
	s := Summary{
		Served:  c.served,
		Walked:  c.walked,
		Waiting: len(c.riders),
	}
	if c.served > 0 {
		s.MeanWait = c.totalWait / simtime.Duration(c.served)
		s.MeanRide = c.totalRide / simtime.Duration(c.served)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Served %d, walked %d, still in the building %d. Mean wait %v, mean ride %v.",
		s.Served, s.Walked, s.Waiting, s.MeanWait, s.MeanRide)
}
