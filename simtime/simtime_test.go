package simtime

import "testing"

func TestDurationString(t *testing.T) {
	testCases := []struct {
		d        Duration
		expected string
	}{
		{0, "0.0s"},
		{7, "0.7s"},
		{152, "15.2s"},
		{36000, "3600.0s"},
		{-25, "-2.5s"},
	}

	for _, tc := range testCases {
		if tc.d.String() != tc.expected {
			t.Errorf("Duration(%d).String() = %s, expected %s", int(tc.d), tc.d.String(), tc.expected)
		}
	}
}

func TestTimeArithmetic(t *testing.T) {
	start := Time(38)
	end := start.Add(98)
	if end != 136 {
		t.Errorf("Add() = %d, expected 136", end)
	}
	if end.Sub(start) != 98 {
		t.Errorf("Sub() = %d, expected 98", end.Sub(start))
	}
	if end.String() != "0136" {
		t.Errorf("String() = %s, expected 0136", end.String())
	}
}
