package arrivals

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture replays a fixed list of passengers, then reports ErrNoMoreInput.
type Fixture struct {
	data []Arrival
	next int
}

func NewFixture(data []Arrival) *Fixture {
	return &Fixture{data: append([]Arrival(nil), data...)}
}

// KnuthFixture is the worked example of eleven passengers; the last one is
// the example's "User 17".
func KnuthFixture() *Fixture {
	return NewFixture([]Arrival{
		{Origin: 0, Destination: 2, Patience: 152, Gap: 38},
		{Origin: 4, Destination: 1, Patience: 36000, Gap: 98},
		{Origin: 2, Destination: 1, Patience: 36000, Gap: 5},
		{Origin: 2, Destination: 1, Patience: 36000, Gap: 150},
		{Origin: 3, Destination: 1, Patience: 36000, Gap: 73},
		{Origin: 2, Destination: 1, Patience: 176, Gap: 238},
		{Origin: 1, Destination: 2, Patience: 36000, Gap: 225},
		{Origin: 1, Destination: 0, Patience: 36000, Gap: 49},
		{Origin: 1, Destination: 3, Patience: 36000, Gap: 172},
		{Origin: 0, Destination: 4, Patience: 36000, Gap: 3336},
		{Origin: 2, Destination: 3, Patience: 36000, Gap: 461},
	})
}

// LoadFixture reads a YAML list of arrivals.
func LoadFixture(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture %s: %w", path, err)
	}
	defer file.Close()

	var data []Arrival
	err = yaml.NewDecoder(file).Decode(&data)
	if err != nil {
		return nil, fmt.Errorf("decoding fixture %s: %w", path, err)
	}
	for i, a := range data {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("fixture %s entry %d: %w", path, i, err)
		}
	}
	return NewFixture(data), nil
}

func (f *Fixture) Next() (Arrival, error) {
	if f.next >= len(f.data) {
		return Arrival{}, ErrNoMoreInput
	}
	a := f.data[f.next]
	f.next++
	return a, nil
}

func (f *Fixture) Remaining() int {
	return len(f.data) - f.next
}
