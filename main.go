package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eiannone/keyboard"
	"github.com/rs/zerolog"
	"github.com/xyproto/randomstring"

	"github.com/Quuxplusone/KnuthElevator/arrivals"
	"github.com/Quuxplusone/KnuthElevator/config"
	"github.com/Quuxplusone/KnuthElevator/elevio"
	"github.com/Quuxplusone/KnuthElevator/fsm"
	"github.com/Quuxplusone/KnuthElevator/logger"
	"github.com/Quuxplusone/KnuthElevator/simtime"
	"github.com/Quuxplusone/KnuthElevator/stats"
	"github.com/Quuxplusone/KnuthElevator/trace"
)

const runIDLen = 8

type options struct {
	configPath string
	envPath    string
	runID      string
	panelAddr  string
	step       bool
}

// parseArgs applies command line flags on top of cfg. Only flags given
// explicitly override what the config and .env files set.
func parseArgs(fs *flag.FlagSet, args []string, cfg config.Config) (config.Config, options, error) {
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&opts.envPath, "env", "", ".env file with ELEVSIM_* overrides")
	fs.StringVar(&opts.runID, "id", "", "Identifier for this run's log lines. Defaults to random string")
	fs.StringVar(&opts.panelAddr, "panel", "", "Mirror the car onto an elevator server at this address, e.g. localhost:15657")
	fs.BoolVar(&opts.step, "step", false, "Step through the simulation from the keyboard")
	deadline := fs.Int("deadline", int(cfg.Deadline), "Stop once the next task is due at or after this many tenths of a second")
	seed := fs.Uint64("seed", cfg.Seed, "Seed of the random passenger generator")
	input := fs.String("input", cfg.Input, `Passenger input: "knuth", "random" or a YAML fixture file`)
	policy := fs.String("policy", cfg.Policy.String(), `Boarding policy: "all" or "same-direction"`)
	fallback := fs.Bool("fallback", cfg.FallbackToRandom, "Continue with random passengers once a fixture runs out")
	traceOn := fs.Bool("trace", cfg.Trace, "Print one line per resumed task")
	statsOn := fs.Bool("stats", cfg.Stats, "Print per-passenger statistics at the end")
	level := fs.String("loglevel", cfg.LogLevel, "zerolog level")

	if err := fs.Parse(args); err != nil {
		return cfg, opts, err
	}

	// files first; flags given explicitly win over them
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, opts, err
		}
		cfg = loaded
	}
	if opts.envPath != "" {
		withEnv, err := config.ApplyEnvFile(cfg, opts.envPath)
		if err != nil {
			return cfg, opts, err
		}
		cfg = withEnv
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "deadline":
			cfg.Deadline = simtime.Time(*deadline)
		case "seed":
			cfg.Seed = *seed
		case "input":
			cfg.Input = *input
		case "policy":
			var p config.Policy
			p, err = config.ParsePolicy(*policy)
			cfg.Policy = p
		case "fallback":
			cfg.FallbackToRandom = *fallback
		case "trace":
			cfg.Trace = *traceOn
		case "stats":
			cfg.Stats = *statsOn
		case "loglevel":
			cfg.LogLevel = *level
		}
	})
	if err != nil {
		return cfg, opts, err
	}
	if opts.runID == "" {
		opts.runID = randomstring.EnglishFrequencyString(runIDLen)
	}
	return cfg, opts, cfg.Validate()
}

func buildInput(cfg config.Config) (arrivals.Generator, error) {
	var primary arrivals.Generator
	switch cfg.Input {
	case config.InputRandom:
		return arrivals.NewRandom(arrivals.NewXoshiro256(cfg.Seed)), nil
	case config.InputKnuth:
		primary = arrivals.KnuthFixture()
	default:
		fixture, err := arrivals.LoadFixture(cfg.Input)
		if err != nil {
			return nil, err
		}
		primary = fixture
	}
	if !cfg.FallbackToRandom {
		return primary, nil
	}
	return arrivals.NewFallback(primary, arrivals.NewRandom(arrivals.NewXoshiro256(cfg.Seed))), nil
}

// run drives the simulation to the deadline. Running out of passengers
// before that is a normal end.
func run(sim *fsm.Simulation, deadline simtime.Time) error {
	err := sim.RunUntil(deadline)
	if errors.Is(err, arrivals.ErrNoMoreInput) {
		Logger.Info().Int("at", int(sim.Now())).Msg("No more passengers, simulation drained")
		return nil
	}
	return err
}

func printSnapshot(w io.Writer, sim *fsm.Simulation) {
	world := sim.Snapshot()
	fmt.Fprintf(w, "time %v floor %d direction %v car %v\n", sim.Now(), world.Floor, world.Direction, world.Car)
	for floor, queue := range world.HallQueue {
		if len(queue) > 0 {
			fmt.Fprintf(w, "  floor %d queue %v\n", floor, queue)
		}
	}
	for _, p := range sim.Pending() {
		fmt.Fprintf(w, "  %v %s\n", p.Time, p.Task)
	}
}

// stepOnce resumes the next task unless nothing is pending or it is due at
// or after deadline.
func stepOnce(sim *fsm.Simulation, deadline simtime.Time) bool {
	pending := sim.Pending()
	if len(pending) == 0 || pending[0].Time >= deadline {
		return false
	}
	sim.Step()
	return true
}

// step hands control to the keyboard: n resumes one task, space runs one
// simulated second, s prints the current state, q or Ctrl-C quits.
func step(sim *fsm.Simulation, deadline simtime.Time) error {
	fmt.Println("n: next task, space: next second, s: snapshot, q: quit")
	for sim.Now() < deadline {
		char, key, err := keyboard.GetSingleKey()
		if err != nil {
			return err
		}

		switch {
		case key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
			return nil
		case char == 'n' || char == 'N':
			if !stepOnce(sim, deadline) {
				fmt.Println("Nothing left to run before the deadline")
				return nil
			}
		case key == keyboard.KeySpace || char == ' ':
			next := min(sim.Now().Add(simtime.TicksPerSecond), deadline)
			if err := run(sim, next); err != nil {
				return err
			}
			if len(sim.Pending()) == 0 {
				return nil
			}
		case char == 's' || char == 'S':
			printSnapshot(os.Stdout, sim)
		}
	}
	return nil
}

var Logger = logger.GetLogger()

func main() {
	cfg, opts, err := parseArgs(flag.CommandLine, os.Args[1:], config.Default())
	if err != nil {
		Logger.Fatal().Err(err).Msg("Bad configuration")
	}

	logger.GetLoggerConfigured(cfg.Level())
	runLog := Logger.With().Str("run", opts.runID).Logger()
	runLog.Info().
		Str("input", cfg.Input).
		Str("policy", cfg.Policy.String()).
		Uint64("seed", cfg.Seed).
		Int("deadline", int(cfg.Deadline)).
		Msg("Starting simulation")

	if err := simulate(cfg, opts, &runLog); err != nil {
		runLog.Fatal().Err(err).Msg("Simulation stopped")
	}
}

func simulate(cfg config.Config, opts options, runLog *zerolog.Logger) error {
	input, err := buildInput(cfg)
	if err != nil {
		return fmt.Errorf("setting up passenger input: %w", err)
	}

	sim := fsm.New(cfg, input)
	observers := trace.Multi{trace.NewLogTracer(runLog)}
	var text *trace.TextTracer
	if cfg.Trace {
		text = trace.NewTextTracer(os.Stdout)
		observers = append(observers, text)
	}
	var panel *elevio.Panel
	if opts.panelAddr != "" {
		var conn io.Closer
		panel, conn, err = elevio.Dial(opts.panelAddr, sim)
		if err != nil {
			return err
		}
		defer conn.Close()
		observers = append(observers, panel)
	}
	sim.Observe(observers)

	collector := stats.NewCollector()
	if cfg.Stats {
		sim.Listen(collector)
	}

	if opts.step {
		err = step(sim, cfg.Deadline)
	} else {
		err = run(sim, cfg.Deadline)
	}
	if err != nil {
		return err
	}
	if text != nil && text.Err() != nil {
		runLog.Error().Err(text.Err()).Msg("Trace output failed")
	}
	if panel != nil && panel.Err() != nil {
		runLog.Error().Err(panel.Err()).Msg("Panel output failed")
	}

	if cfg.Stats {
		if err := collector.Report(os.Stdout); err != nil {
			runLog.Error().Err(err).Msg("Statistics output failed")
		}
	}
	runLog.Info().Int("at", int(sim.Now())).Msg("Simulation finished")
	return nil
}
