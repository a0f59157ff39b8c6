package models

import "testing"

func TestParseFuelType(t *testing.T) {
	cases := []struct {
		in   string
		want FuelType
	}{
		{"Gasoline", FuelGasoline},
		{"gasoline", FuelGasoline},
		{"DIESEL", FuelDiesel},
		{" lpg ", FuelLPG},
		{"methane", FuelMethane},
	}
	for _, tc := range cases {
		got, err := ParseFuelType(tc.in)
		if err != nil {
			t.Errorf("ParseFuelType(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFuelType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFuelTypeRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "Kerosene", "petrol"} {
		if _, err := ParseFuelType(in); err == nil {
			t.Errorf("ParseFuelType(%q): expected error", in)
		}
	}
}
