// Package simtime holds the discrete clock of the simulation. One tick is a
// tenth of a second.
package simtime

import "fmt"

// Time is a timestamp in ticks since the start of the simulation.
type Time int

// Duration is a span of ticks.
type Duration int

const TicksPerSecond = 10

func (t Time) Add(d Duration) Time {
	return t + Time(d)
}

func (t Time) Sub(u Time) Duration {
	return Duration(t - u)
}

func (t Time) String() string {
	return fmt.Sprintf("%04d", int(t))
}

// String renders the duration as seconds with one decimal, e.g. "15.2s".
func (d Duration) String() string {
	sign := ""
	v := int(d)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%ds", sign, v/TicksPerSecond, v%TicksPerSecond)
}
