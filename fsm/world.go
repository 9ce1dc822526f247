package fsm

import (
	"fmt"

	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/requests"
)

type Direction int

const (
	Neutral Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Neutral:
		return "Neutral"
	case Up:
		return "Up"
	case Down:
		return "Down"
	default:
		return "Undefined"
	}
}

// Letter is the one-character form used in trace lines.
func (d Direction) Letter() byte {
	switch d {
	case Up:
		return 'U'
	case Down:
		return 'D'
	default:
		return 'N'
	}
}

func directionBetween(from, to int) Direction {
	switch {
	case to > from:
		return Up
	case to < from:
		return Down
	default:
		return Neutral
	}
}

type PassengerID int

// World is everything the tasks share. Only the task being resumed touches it.
type World struct {
	Floor int

	// Loading: doors open and people are getting in or out.
	Loading bool
	// RecentlyActive: the car was used within the inactivity window.
	RecentlyActive bool
	// IdleOpen: doors open but nobody is getting in or out.
	IdleOpen bool

	Direction Direction
	Calls     requests.Calls

	HallQueue [config.NFloors][]PassengerID
	Car       []PassengerID
}

func newWorld() World {
	return World{
		Floor:     config.HomeFloor,
		Direction: Neutral,
	}
}

// CheckInvariants reports the first broken invariant of the world, if any.
func (w *World) CheckInvariants() error {
	if w.Floor < 0 || w.Floor > config.TopFloor {
		return fmt.Errorf("floor %d out of range", w.Floor)
	}
	if w.Loading && w.IdleOpen {
		return fmt.Errorf("doors both loading and idle-open at floor %d", w.Floor)
	}

	seen := make(map[PassengerID]string)
	for floor, queue := range w.HallQueue {
		for _, id := range queue {
			where := fmt.Sprintf("queue on floor %d", floor)
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("passenger %d is in %s and %s", id, prev, where)
			}
			seen[id] = where
		}
	}
	for _, id := range w.Car {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("passenger %d is in %s and the car", id, prev)
		}
		seen[id] = "the car"
	}
	return nil
}

func removeID(ids []PassengerID, id PassengerID) ([]PassengerID, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
