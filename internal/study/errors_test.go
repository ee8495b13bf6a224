package study

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMalformed(t *testing.T) {
	base := func() *fixture {
		f := &fixture{}
		f.animal("A", "a1").measure("A", "a1", 0, 1)
		return f
	}
	cases := []struct {
		name  string
		mut   func(f *fixture)
		kind  string
		field string
	}{
		{"empty group", func(f *fixture) { f.animal("", "x") }, "animal", "group_name"},
		{"empty animal", func(f *fixture) { f.animal("A", " ") }, "animal", "animal_name"},
		{"duplicate animal", func(f *fixture) { f.animal("B", "a1") }, "animal", "animal_name"},
		{"unknown animal", func(f *fixture) { f.measure("A", "ghost", 0, 1) }, "measurement", "animal_name"},
		{"group mismatch", func(f *fixture) { f.measure("B", "a1", 0, 1) }, "measurement", "group_name"},
		{"nan value", func(f *fixture) { f.measure("A", "a1", 1, math.NaN()) }, "measurement", "measurement_value"},
		{"inf amount", func(f *fixture) { f.treat("A", "a1", 0, "x", math.Inf(1), "mg") }, "treatment", "test_material_amount"},
		{"treatment unknown", func(f *fixture) { f.treat("A", "", 0, "x", 1, "mg") }, "treatment", "animal_name"},
		{"label without group", func(f *fixture) { f.label(GroupLabel{}) }, "group_label", "group_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base()
			tc.mut(f)
			st, err := Normalize(f.in, Options{Logger: zerolog.Nop()})
			require.Error(t, err)
			assert.Nil(t, st)
			assert.ErrorIs(t, err, ErrInvalidRecord)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.kind, ve.Kind)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	assert.NoError(t, Validate(earlyDeathStudy()))
}
