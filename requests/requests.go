package requests

import "github.com/Quuxplusone/KnuthElevator/config"

// Calls holds the per-floor call flags: hall calls up and down, and car
// calls registered by riders already aboard.
type Calls struct {
	Up   [config.NFloors]bool
	Down [config.NFloors]bool
	Car  [config.NFloors]bool
}

// Demand tells which side of the car has somebody to serve. Passengers are
// riders aboard with a car call; waiters are people behind a hall call.
type Demand struct {
	PassengerUp   bool
	PassengerDown bool
	WaiterUp      bool
	WaiterDown    bool
}

func (d Demand) Above() bool {
	return d.PassengerUp || d.WaiterUp
}

func (d Demand) Below() bool {
	return d.PassengerDown || d.WaiterDown
}

func (c *Calls) Here(floor int) bool {
	return c.Up[floor] || c.Down[floor] || c.Car[floor]
}

func (c *Calls) Any() bool {
	for floor := 0; floor < config.NFloors; floor++ {
		if c.Here(floor) {
			return true
		}
	}
	return false
}

// Demand scans every floor but the car's own.
func (c *Calls) Demand(floor int) Demand {
	var d Demand
	for j := 0; j < config.NFloors; j++ {
		if j == floor {
			continue
		}
		if c.Car[j] {
			if j > floor {
				d.PassengerUp = true
			} else {
				d.PassengerDown = true
			}
		}
		if c.Up[j] || c.Down[j] {
			if j > floor {
				d.WaiterUp = true
			} else {
				d.WaiterDown = true
			}
		}
	}
	return d
}

// FirstCalled returns the lowest floor other than skip that has any call.
func (c *Calls) FirstCalled(skip int) (int, bool) {
	for j := 0; j < config.NFloors; j++ {
		if j == skip {
			continue
		}
		if c.Here(j) {
			return j, true
		}
	}
	return -1, false
}
