package dto

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

func TestFloat(t *testing.T) {
	assert.Nil(t, Float(math.NaN()))
	assert.Nil(t, Float(math.Inf(-1)))
	require.NotNil(t, Float(1.5))
	assert.Equal(t, 1.5, *Float(1.5))
	assert.True(t, math.IsNaN(Value(nil)))
	assert.Equal(t, 2.0, Value(Float(2)))
}

func TestStudyViewMarshalsNonFinite(t *testing.T) {
	in := study.Input{
		Study:   study.Info{StudyNumber: "S1", CuratedName: "Study One"},
		Animals: []study.AnimalSeed{{GroupName: "A", AnimalName: "a1"}, {GroupName: "A", AnimalName: "a2"}},
		Measurements: []study.Measurement{
			{GroupName: "A", AnimalName: "a1", Day: 0, Value: 0},
			{GroupName: "A", AnimalName: "a1", Day: 7, Value: 10},
			{GroupName: "A", AnimalName: "a2", Day: 7, Value: 10},
		},
		Treatments: []study.Treatment{
			{GroupName: "A", AnimalName: "a1", Day: 0, DoseActivity: "Vehicle", Amount: math.NaN(), RouteUnits: "mL/kg"},
		},
		GroupLabels: []study.GroupLabel{{GroupName: "A", IsControl: true}},
	}
	st, err := study.Normalize(in, study.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	v := NewStudyView(st, nil)
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "Study One", back["curated_study_name"])

	animals := back["animals"].([]any)
	a1 := animals[0].(map[string]any)
	assert.Nil(t, a1["percent_change_volume"])
	assert.Equal(t, 10.0, a1["measurement_diff"])
	treated := a1["treatments"].([]any)[0].(map[string]any)
	assert.Contains(t, treated, "amount")
	assert.Nil(t, treated["amount"])
	a2 := animals[1].(map[string]any)
	assert.Nil(t, a2["start_day_measurement"])

	groups := back["groups"].([]any)
	g := groups[0].(map[string]any)
	assert.Nil(t, g["color"])
	assert.Equal(t, study.DefaultPalette[0], g["resolved_color"])
	assert.Equal(t, []any{0.0, 7.0}, g["uniq_measure_days"])
	assert.NotEmpty(t, back["diagnostics"])
}
