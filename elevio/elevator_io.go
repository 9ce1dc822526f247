// Package elevio mirrors the simulated car onto an elevator server panel
// using the server's four-byte command protocol.
package elevio

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/fsm"
	"github.com/Quuxplusone/KnuthElevator/logger"
)

var Logger = logger.GetLogger()

type MotorDirection int

const (
	MD_Up   MotorDirection = 1
	MD_Down MotorDirection = -1
	MD_Stop MotorDirection = 0
)

type ButtonType int

const (
	BT_HallUp   ButtonType = 0
	BT_HallDown ButtonType = 1
	BT_Cab      ButtonType = 2
)

const numButtonTypes = 3

func (d MotorDirection) String() string {
	switch d {
	case MD_Up:
		return "MD_Up"
	case MD_Down:
		return "MD_Down"
	case MD_Stop:
		return "MD_Stop"
	default:
		return "MD_Undefined"
	}
}

// WorldSource hands out copies of the simulated world.
type WorldSource interface {
	Snapshot() fsm.World
}

type outputs struct {
	motor   MotorDirection
	floor   int
	door    bool
	buttons [config.NFloors][numButtonTypes]bool
}

// Panel is an fsm.Observer. Each resumed step sends whatever lamps and motor
// commands changed since the previous one. The first write error is kept and
// the panel goes quiet.
type Panel struct {
	mtx   sync.Mutex
	w     io.Writer
	world WorldSource
	last  outputs
	fresh bool
	err   error
}

func NewPanel(w io.Writer, world WorldSource) *Panel {
	return &Panel{w: w, world: world, fresh: true}
}

// Dial connects to an elevator server, e.g. "localhost:15657".
func Dial(addr string, world WorldSource) (*Panel, io.Closer, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to elevator server %s: %w", addr, err)
	}
	Logger.Info().Str("addr", addr).Msg("Connected to elevator server")
	return NewPanel(conn, world), conn, nil
}

func (p *Panel) Err() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.err
}

func (p *Panel) Resumed(r fsm.Record) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.err != nil {
		return
	}

	w := p.world.Snapshot()
	next := outputs{
		motor: motorFor(r),
		floor: r.Floor,
		door:  r.Loading || r.IdleOpen,
	}
	for f := 0; f < config.NFloors; f++ {
		next.buttons[f][BT_HallUp] = w.Calls.Up[f]
		next.buttons[f][BT_HallDown] = w.Calls.Down[f]
		next.buttons[f][BT_Cab] = w.Calls.Car[f]
	}

	if p.fresh || next.motor != p.last.motor {
		p.send([4]byte{1, byte(next.motor), 0, 0})
	}
	for f := 0; f < config.NFloors; f++ {
		for b := ButtonType(0); b < numButtonTypes; b++ {
			if p.fresh || next.buttons[f][b] != p.last.buttons[f][b] {
				p.send([4]byte{2, byte(b), byte(f), toByte(next.buttons[f][b])})
			}
		}
	}
	if p.fresh || next.floor != p.last.floor {
		p.send([4]byte{3, byte(next.floor), 0, 0})
	}
	if p.fresh || next.door != p.last.door {
		p.send([4]byte{4, toByte(next.door), 0, 0})
	}

	if p.err != nil {
		Logger.Error().Err(p.err).Msg("Lost connection to elevator server")
		return
	}
	p.last = next
	p.fresh = false
}

// motorFor runs the motor for the steps that happen between floors.
func motorFor(r fsm.Record) MotorDirection {
	switch r.Task {
	case "E7", "E71":
		return MD_Up
	case "E8", "E81":
		return MD_Down
	default:
		return MD_Stop
	}
}

func (p *Panel) send(cmd [4]byte) {
	if p.err != nil {
		return
	}
	_, p.err = p.w.Write(cmd[:])
}

func toByte(a bool) byte {
	var b byte = 0
	if a {
		b = 1
	}
	return b
}
