package fsm

import "github.com/Quuxplusone/KnuthElevator/config"

// decide picks a direction for a car with none. triggeredByArrival is set
// when the car has just finished serving a floor; finding no call then sends
// it back towards the home floor.
//
// The scan for a call always runs from the lowest floor, and with
// triggeredByArrival the fallback target is the home floor. That asymmetry
// is kept as is: it is the tie-break of the algorithm being reproduced.
func (s *Simulation) decide(triggeredByArrival bool) {
	w := &s.world
	if w.Direction != Neutral {
		return
	}

	dormant := s.elevator.Label() == Idle
	if dormant && w.Calls.Here(config.HomeFloor) {
		s.sched.Schedule(s.elevator, OpenDoors, s.now.Add(s.durations.DoorOpenFromDecision))
		return
	}

	target, ok := w.Calls.FirstCalled(w.Floor)
	if !ok {
		if !triggeredByArrival {
			return
		}
		target = config.HomeFloor
	}

	w.Direction = directionBetween(w.Floor, target)
	if w.Direction != Neutral {
		Logger.Debug().Int("floor", w.Floor).Int("target", target).Str("direction", w.Direction.String()).Msg("Decided direction")
	}
	if dormant && target != config.HomeFloor {
		s.sched.Schedule(s.elevator, PrepareToMove, s.now.Add(s.durations.BeforeHoming))
	}
}
