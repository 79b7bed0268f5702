package vote

import (
	"math"
	"testing"
)

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Value
	}{
		{"nil is missing", nil, Absent},
		{"agree token", "agree", Agree},
		{"disagree token", "disagree", Disagree},
		{"pass token is missing", "pass", Absent},
		{"numeric string positive", "3.5", Agree},
		{"numeric string negative", "-2", Disagree},
		{"numeric string zero", "0", Pass},
		{"unparsable string is missing", "banana", Absent},
		{"positive float", 2.0, Agree},
		{"negative float", -0.001, Disagree},
		{"zero float is a recorded pass", 0.0, Pass},
		{"NaN is missing", math.NaN(), Absent},
		{"positive int", 1, Agree},
		{"negative int", -1, Disagree},
		{"zero int is a recorded pass", 0, Pass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalise(tt.raw)
			if got != tt.want {
				t.Errorf("Normalise(%#v) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}
