// Package arrivals produces the stream of passengers entering the building.
package arrivals

import (
	"errors"
	"fmt"

	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/logger"
	"github.com/Quuxplusone/KnuthElevator/simtime"
)

var Logger = logger.GetLogger()

// ErrNoMoreInput is returned by a Generator whose data has run out.
var ErrNoMoreInput = errors.New("arrivals: no more input")

// Arrival describes one passenger and when the next one shows up.
type Arrival struct {
	Origin      int              `yaml:"origin"`
	Destination int              `yaml:"destination"`
	Patience    simtime.Duration `yaml:"patience"`
	Gap         simtime.Duration `yaml:"gap"`
}

func (a Arrival) Validate() error {
	if a.Origin < 0 || a.Origin > config.TopFloor {
		return fmt.Errorf("origin floor %d out of range", a.Origin)
	}
	if a.Destination < 0 || a.Destination > config.TopFloor {
		return fmt.Errorf("destination floor %d out of range", a.Destination)
	}
	if a.Origin == a.Destination {
		return fmt.Errorf("origin and destination are both floor %d", a.Origin)
	}
	if a.Patience < 0 || a.Gap < 0 {
		return fmt.Errorf("negative patience %d or gap %d", a.Patience, a.Gap)
	}
	return nil
}

type Generator interface {
	Next() (Arrival, error)
}

// Fallback draws from Primary until it runs out, then from Secondary.
type Fallback struct {
	Primary   Generator
	Secondary Generator

	switched bool
}

func NewFallback(primary, secondary Generator) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

func (f *Fallback) Next() (Arrival, error) {
	if !f.switched {
		a, err := f.Primary.Next()
		if !errors.Is(err, ErrNoMoreInput) {
			return a, err
		}
		Logger.Debug().Msg("Primary arrival input exhausted, falling back")
		f.switched = true
	}
	return f.Secondary.Next()
}
