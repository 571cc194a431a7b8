package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		wantMiles float64
		tolerance float64
	}{
		{
			name:      "Los Angeles to New York",
			a:         Point{Lat: 34.05223, Lon: -118.24368},
			b:         Point{Lat: 40.71278, Lon: -74.00597},
			wantMiles: 2445,
			tolerance: 15,
		},
		{
			name:      "same point",
			a:         Point{Lat: 40.62, Lon: -74.32},
			b:         Point{Lat: 40.62, Lon: -74.32},
			wantMiles: 0,
			tolerance: 0.001,
		},
		{
			name:      "one degree of latitude",
			a:         Point{Lat: 40, Lon: -74},
			b:         Point{Lat: 41, Lon: -74},
			wantMiles: 69.09,
			tolerance: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			assert.InDelta(t, tt.wantMiles, got, tt.tolerance)
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 40.62, Lon: -74.32}
	b := Point{Lat: 34.05, Lon: -118.24}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistanceKm(t *testing.T) {
	a := Point{Lat: 40, Lon: -74}
	b := Point{Lat: 41, Lon: -74}
	miles := Distance(a, b)
	km := DistanceKm(a, b)
	assert.InDelta(t, miles*1.60934, km, 0.1)
}

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"already five decimals", 40.62001, 40.62001},
		{"sixth decimal rounds down", 40.620011, 40.62001},
		{"sixth decimal rounds up", 40.620019, 40.62002},
		{"negative coordinate", -74.325678, -74.32568},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
