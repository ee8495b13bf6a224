package study

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidRecord marks structurally malformed input.
	ErrInvalidRecord = errors.New("invalid study record")
	// ErrAmbiguousControl is returned under ControlStrict when zero or
	// several groups are flagged as control.
	ErrAmbiguousControl = errors.New("ambiguous control group")
)

// ValidationError pinpoints the offending record.
type ValidationError struct {
	Kind   string // animal|measurement|treatment|group_label
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s #%d: %s: %s", e.Kind, e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// Validate checks the record arrays for structural problems: missing keys,
// non-finite values, duplicate animals and references to unknown animals.
// It returns the first problem found.
func Validate(in Input) error {
	owner := make(map[string]string, len(in.Animals))
	for i, a := range in.Animals {
		if strings.TrimSpace(a.GroupName) == "" {
			return &ValidationError{Kind: "animal", Index: i, Field: "group_name", Reason: "required"}
		}
		if strings.TrimSpace(a.AnimalName) == "" {
			return &ValidationError{Kind: "animal", Index: i, Field: "animal_name", Reason: "required"}
		}
		if _, dup := owner[a.AnimalName]; dup {
			return &ValidationError{Kind: "animal", Index: i, Field: "animal_name", Reason: fmt.Sprintf("duplicate animal %q", a.AnimalName)}
		}
		owner[a.AnimalName] = a.GroupName
	}
	checkRef := func(kind string, i int, group, animal string) error {
		if animal == "" {
			return &ValidationError{Kind: kind, Index: i, Field: "animal_name", Reason: "required"}
		}
		g, ok := owner[animal]
		if !ok {
			return &ValidationError{Kind: kind, Index: i, Field: "animal_name", Reason: fmt.Sprintf("unknown animal %q", animal)}
		}
		if group != g {
			return &ValidationError{Kind: kind, Index: i, Field: "group_name", Reason: fmt.Sprintf("animal %q belongs to group %q, not %q", animal, g, group)}
		}
		return nil
	}
	for i, m := range in.Measurements {
		if err := checkRef("measurement", i, m.GroupName, m.AnimalName); err != nil {
			return err
		}
		if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			return &ValidationError{Kind: "measurement", Index: i, Field: "measurement_value", Reason: "must be finite"}
		}
	}
	for i, t := range in.Treatments {
		if err := checkRef("treatment", i, t.GroupName, t.AnimalName); err != nil {
			return err
		}
		// NaN marks an unrecorded amount.
		if math.IsInf(t.Amount, 0) {
			return &ValidationError{Kind: "treatment", Index: i, Field: "test_material_amount", Reason: "must be finite"}
		}
	}
	for i, l := range in.GroupLabels {
		if strings.TrimSpace(l.GroupName) == "" {
			return &ValidationError{Kind: "group_label", Index: i, Field: "group_name", Reason: "required"}
		}
	}
	return nil
}
