package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleStandard(t *testing.T) {
	tests := []struct {
		average float64
		want    float64
	}{
		{100, 4.0},
		{90, 4.0},
		{89.9, 3.0},
		{85, 3.0},
		{80, 3.0},
		{79.9, 2.0},
		{70, 2.0},
		{60, 1.0},
		{59.9, 0.0},
		{0, 0.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScaleStandard.GPA(tt.average), "average %v", tt.average)
	}
}

func TestScaleFine(t *testing.T) {
	tests := []struct {
		average float64
		want    float64
	}{
		{93, 4.0},
		{90, 3.7},
		{87, 3.3},
		{85, 3.0},
		{83, 3.0},
		{80, 2.7},
		{77, 2.3},
		{73, 2.0},
		{70, 1.7},
		{67, 1.3},
		{60, 1.0},
		{59, 0.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScaleFine.GPA(tt.average), "average %v", tt.average)
	}
}

func TestScaleUnknownFallsBackToStandard(t *testing.T) {
	unknown := Scale("letter")
	assert.False(t, unknown.IsValid())
	assert.Equal(t, ScaleStandard.GPA(85), unknown.GPA(85))
}
