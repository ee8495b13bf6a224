package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// RowError reports a bad cell in a table.
type RowError struct {
	Table  string
	Row    int // 1-based, header excluded
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d, column %s: %v", e.Table, e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// row wraps one table row with typed accessors.
type row struct {
	t   *Table
	n   int
	rec []string
}

type columns map[string]int

func lookup(t *Table, required []string, optional ...string) (columns, error) {
	cols := columns{}
	for _, name := range required {
		i := t.Column(name)
		if i < 0 {
			return nil, fmt.Errorf("%s: missing required column %q: %w", t.Name, name, study.ErrInvalidRecord)
		}
		cols[name] = i
	}
	for _, name := range optional {
		if i := t.Column(name); i >= 0 {
			cols[name] = i
		}
	}
	return cols, nil
}

func (c columns) str(r row, name string) string {
	i, ok := c[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (c columns) float(r row, name string) (float64, error) {
	s := c.str(r, name)
	if s == "" {
		return 0, r.fail(name, fmt.Errorf("empty value: %w", study.ErrInvalidRecord))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, r.fail(name, fmt.Errorf("not a finite number %q: %w", s, study.ErrInvalidRecord))
	}
	return v, nil
}

// optionalFloat is float for columns that may be left blank. A blank or
// null cell reads as NaN.
func (c columns) optionalFloat(r row, name string) (float64, error) {
	s := c.nullable(r, name)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	switch {
	case err != nil || math.IsInf(v, 0):
		return 0, r.fail(name, fmt.Errorf("not a finite number %q: %w", s, study.ErrInvalidRecord))
	case math.IsNaN(v):
		return math.NaN(), nil
	}
	return v, nil
}

// day parses a day offset. Days may be stored as "7" or "7.0" but must be
// whole numbers.
func (c columns) day(r row, name string) (int, error) {
	v, err := c.float(r, name)
	if err != nil {
		return 0, err
	}
	d, err := integralDay(v)
	if err != nil {
		return 0, r.fail(name, err)
	}
	return d, nil
}

func integralDay(v float64) (int, error) {
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("day %v is not a whole number: %w", v, study.ErrInvalidRecord)
	}
	return int(v), nil
}

func (c columns) flag(r row, name string) (bool, error) {
	s := strings.ToLower(c.str(r, name))
	switch s {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	default:
		return false, r.fail(name, fmt.Errorf("not a boolean %q: %w", s, study.ErrInvalidRecord))
	}
}

// nullable treats the usual spellings of a missing value as empty.
func (c columns) nullable(r row, name string) string {
	s := c.str(r, name)
	switch strings.ToLower(s) {
	case "null", "none", "nil", "na", "n/a":
		return ""
	}
	return s
}

func (r row) fail(column string, err error) error {
	return &RowError{Table: r.t.Name, Row: r.n, Column: column, Err: err}
}

func rows(t *Table) []row {
	out := make([]row, len(t.Rows))
	for i, rec := range t.Rows {
		out[i] = row{t: t, n: i + 1, rec: rec}
	}
	return out
}

// DecodeAnimals reads group_name and animal_name columns.
func DecodeAnimals(t *Table) ([]study.AnimalSeed, error) {
	cols, err := lookup(t, []string{"group_name", "animal_name"})
	if err != nil {
		return nil, err
	}
	out := make([]study.AnimalSeed, 0, len(t.Rows))
	for _, r := range rows(t) {
		out = append(out, study.AnimalSeed{
			GroupName:  cols.str(r, "group_name"),
			AnimalName: cols.str(r, "animal_name"),
		})
	}
	return out, nil
}

// DecodeMeasurements reads measurement rows. When the table carries
// activity and measurement_units columns, rows outside the filter are
// dropped.
func DecodeMeasurements(t *Table, f Filter) ([]study.Measurement, error) {
	cols, err := lookup(t,
		[]string{"group_name", "animal_name", "measurement_day", "measurement_value"},
		"activity", "measurement_units")
	if err != nil {
		return nil, err
	}
	_, hasActivity := cols["activity"]
	_, hasUnits := cols["measurement_units"]
	if !hasActivity {
		f.Activities = nil
	}
	if !hasUnits {
		f.Units = ""
	}

	out := make([]study.Measurement, 0, len(t.Rows))
	for _, r := range rows(t) {
		if !f.keep(cols.str(r, "activity"), cols.str(r, "measurement_units")) {
			continue
		}
		day, err := cols.day(r, "measurement_day")
		if err != nil {
			return nil, err
		}
		v, err := cols.float(r, "measurement_value")
		if err != nil {
			return nil, err
		}
		out = append(out, study.Measurement{
			GroupName:  cols.str(r, "group_name"),
			AnimalName: cols.str(r, "animal_name"),
			Day:        day,
			Value:      v,
		})
	}
	return out, nil
}

// DecodeTreatments reads dosing rows.
func DecodeTreatments(t *Table) ([]study.Treatment, error) {
	cols, err := lookup(t, []string{
		"group_name", "animal_name", "treatment_day",
		"dose_activity", "test_material_amount", "administration_route_units",
	})
	if err != nil {
		return nil, err
	}
	out := make([]study.Treatment, 0, len(t.Rows))
	for _, r := range rows(t) {
		day, err := cols.day(r, "treatment_day")
		if err != nil {
			return nil, err
		}
		amount, err := cols.optionalFloat(r, "test_material_amount")
		if err != nil {
			return nil, err
		}
		out = append(out, study.Treatment{
			GroupName:    cols.str(r, "group_name"),
			AnimalName:   cols.str(r, "animal_name"),
			Day:          day,
			DoseActivity: cols.str(r, "dose_activity"),
			Amount:       amount,
			RouteUnits:   cols.str(r, "administration_route_units"),
		})
	}
	return out, nil
}

// DecodeGroupLabels reads curated group rows. Only group_name is required.
func DecodeGroupLabels(t *Table) ([]study.GroupLabel, error) {
	cols, err := lookup(t, []string{"group_name"},
		"curated_group_name", "drug", "recist", "is_control", "color")
	if err != nil {
		return nil, err
	}
	out := make([]study.GroupLabel, 0, len(t.Rows))
	for _, r := range rows(t) {
		ctrl, err := cols.flag(r, "is_control")
		if err != nil {
			return nil, err
		}
		out = append(out, study.GroupLabel{
			GroupName:   cols.str(r, "group_name"),
			CuratedName: cols.str(r, "curated_group_name"),
			Drug:        cols.str(r, "drug"),
			Recist:      cols.nullable(r, "recist"),
			IsControl:   ctrl,
			Color:       cols.nullable(r, "color"),
		})
	}
	return out, nil
}
