package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Quuxplusone/KnuthElevator/simtime"
)

// Durations is the timing table of the car, in ticks.
type Durations struct {
	BeforeRapidDoorClose simtime.Duration `yaml:"beforeRapidDoorClose"`
	BeforeInactivity     simtime.Duration `yaml:"beforeInactivity"`
	BeforeDoorClose      simtime.Duration `yaml:"beforeDoorClose"`
	DoorOpen             simtime.Duration `yaml:"doorOpen"`
	Leaving              simtime.Duration `yaml:"leaving"`
	Entering             simtime.Duration `yaml:"entering"`
	AfterDoorFlutter     simtime.Duration `yaml:"afterDoorFlutter"`
	DoorClose            simtime.Duration `yaml:"doorClose"`
	UpwardAcceleration   simtime.Duration `yaml:"upwardAcceleration"`
	DownwardAcceleration simtime.Duration `yaml:"downwardAcceleration"`
	DoorOpenFromDecision simtime.Duration `yaml:"doorOpenFromDecision"`
	BeforeHoming         simtime.Duration `yaml:"beforeHoming"`
	UpwardTravel         simtime.Duration `yaml:"upwardTravel"`
	UpwardDeceleration   simtime.Duration `yaml:"upwardDeceleration"`
	DownwardTravel       simtime.Duration `yaml:"downwardTravel"`
	DownwardDeceleration simtime.Duration `yaml:"downwardDeceleration"`
}

func DefaultDurations() Durations {
	return Durations{
		BeforeRapidDoorClose: 25,
		BeforeInactivity:     300,
		BeforeDoorClose:      76,
		DoorOpen:             20,
		Leaving:              25,
		Entering:             25,
		AfterDoorFlutter:     40,
		DoorClose:            20,
		UpwardAcceleration:   15,
		DownwardAcceleration: 15,
		DoorOpenFromDecision: 20,
		BeforeHoming:         20,
		UpwardTravel:         51,
		UpwardDeceleration:   14,
		DownwardTravel:       61,
		DownwardDeceleration: 23,
	}
}

type Policy int

const (
	// Anyone waiting on the car's floor gets on, even if the car is
	// heading the wrong way for them.
	AdmitAll Policy = iota

	// Riders only get on when the car is idle or heading their way.
	AdmitSameDirection
)

func (p Policy) String() string {
	switch p {
	case AdmitAll:
		return "all"
	case AdmitSameDirection:
		return "same-direction"
	default:
		return "undefined"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "admit-all":
		return AdmitAll, nil
	case "same-direction", "same", "admit-same-direction":
		return AdmitSameDirection, nil
	default:
		return AdmitAll, fmt.Errorf("unknown boarding policy %q", s)
	}
}

func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParsePolicy(node.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

const (
	InputKnuth  = "knuth"
	InputRandom = "random"
)

type Config struct {
	Durations Durations `yaml:"durations"`
	Policy    Policy    `yaml:"policy"`

	Seed     uint64       `yaml:"seed"`
	Deadline simtime.Time `yaml:"deadline"`

	// Input is "knuth", "random" or the path of a YAML fixture file.
	Input            string `yaml:"input"`
	FallbackToRandom bool   `yaml:"fallbackToRandom"`

	Trace    bool   `yaml:"trace"`
	Stats    bool   `yaml:"stats"`
	LogLevel string `yaml:"logLevel"`
}

func Default() Config {
	return Config{
		Durations:        DefaultDurations(),
		Policy:           AdmitAll,
		Seed:             1,
		Deadline:         36000,
		Input:            InputRandom,
		FallbackToRandom: true,
		Trace:            true,
		Stats:            false,
		LogLevel:         "info",
	}
}

// Load decodes a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	c := Default()
	file, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer file.Close()

	err = yaml.NewDecoder(file).Decode(&c)
	if err != nil {
		return c, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return c, c.Validate()
}

// ApplyEnvFile overrides run options from a .env file.
func ApplyEnvFile(c Config, path string) (Config, error) {
	envFile, err := godotenv.Read(path)
	if err != nil {
		return c, fmt.Errorf("reading env file %s: %w", path, err)
	}

	if v, ok := envFile["ELEVSIM_SEED"]; ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("ELEVSIM_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v, ok := envFile["ELEVSIM_DEADLINE"]; ok {
		deadline, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("ELEVSIM_DEADLINE: %w", err)
		}
		c.Deadline = simtime.Time(deadline)
	}
	if v, ok := envFile["ELEVSIM_POLICY"]; ok {
		policy, err := ParsePolicy(v)
		if err != nil {
			return c, fmt.Errorf("ELEVSIM_POLICY: %w", err)
		}
		c.Policy = policy
	}
	if v, ok := envFile["ELEVSIM_INPUT"]; ok {
		c.Input = v
	}
	if v, ok := envFile["ELEVSIM_LOG_LEVEL"]; ok {
		c.LogLevel = v
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	d := c.Durations
	named := []struct {
		name  string
		value simtime.Duration
	}{
		{"beforeRapidDoorClose", d.BeforeRapidDoorClose},
		{"beforeInactivity", d.BeforeInactivity},
		{"beforeDoorClose", d.BeforeDoorClose},
		{"doorOpen", d.DoorOpen},
		{"leaving", d.Leaving},
		{"entering", d.Entering},
		{"afterDoorFlutter", d.AfterDoorFlutter},
		{"doorClose", d.DoorClose},
		{"upwardAcceleration", d.UpwardAcceleration},
		{"downwardAcceleration", d.DownwardAcceleration},
		{"doorOpenFromDecision", d.DoorOpenFromDecision},
		{"beforeHoming", d.BeforeHoming},
		{"upwardTravel", d.UpwardTravel},
		{"upwardDeceleration", d.UpwardDeceleration},
		{"downwardTravel", d.DownwardTravel},
		{"downwardDeceleration", d.DownwardDeceleration},
	}
	var errs []error
	for _, n := range named {
		if n.value < 0 {
			errs = append(errs, fmt.Errorf("duration %s is negative (%d)", n.name, n.value))
		}
	}
	// a flutter delay of zero would postpone the door close forever at one instant
	if d.AfterDoorFlutter == 0 {
		errs = append(errs, errors.New("duration afterDoorFlutter must be positive"))
	}
	if d.UpwardTravel == 0 || d.DownwardTravel == 0 {
		errs = append(errs, errors.New("travel durations must be positive"))
	}
	if c.Deadline <= 0 {
		errs = append(errs, fmt.Errorf("deadline must be positive, got %d", c.Deadline))
	}
	if c.Policy != AdmitAll && c.Policy != AdmitSameDirection {
		errs = append(errs, fmt.Errorf("unknown boarding policy %d", c.Policy))
	}
	if c.Input == "" {
		errs = append(errs, errors.New("input source is empty"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	return errors.Join(errs...)
}

func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
