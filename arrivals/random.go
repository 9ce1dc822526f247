package arrivals

import (
	"math/rand/v2"

	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/simtime"
)

const (
	minPatience = 300
	maxPatience = 1200
	minGap      = 10
	maxGap      = 900
)

// Random draws passengers from a 64-bit source. It never runs out.
type Random struct {
	src rand.Source
}

func NewRandom(src rand.Source) *Random {
	return &Random{src: src}
}

// between uses plain modulo reduction so the same source yields the same
// passengers in any implementation.
func (r *Random) between(lo, hi int) int {
	return lo + int(r.src.Uint64()%uint64(1+hi-lo))
}

func (r *Random) Next() (Arrival, error) {
	in := r.between(0, config.TopFloor)
	out := (in + r.between(1, config.TopFloor)) % config.NFloors
	patience := r.between(minPatience, maxPatience)
	gap := r.between(minGap, maxGap)
	return Arrival{
		Origin:      in,
		Destination: out,
		Patience:    simtime.Duration(patience),
		Gap:         simtime.Duration(gap),
	}, nil
}
