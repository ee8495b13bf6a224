package study

import "github.com/rs/zerolog"

// DiagnosticKind classifies a data irregularity that does not stop a load.
type DiagnosticKind string

const (
	MissingMeasurement    DiagnosticKind = "missing_measurement"
	ZeroBaseline          DiagnosticKind = "zero_baseline"
	AmbiguousControlGroup DiagnosticKind = "ambiguous_control_group"
	NoControlGroup        DiagnosticKind = "no_control_group"
	ColorCollision        DiagnosticKind = "color_collision"
	DuplicateGroupLabel   DiagnosticKind = "duplicate_group_label"
	MissingGroupLabel     DiagnosticKind = "missing_group_label"
	MissingDoseAmount     DiagnosticKind = "missing_dose_amount"
)

// Diagnostic is reported for data the owners should fix.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Group   string         `json:"group,omitempty"`
	Animal  string         `json:"animal,omitempty"`
	Message string         `json:"message"`
}

type diagnostics struct {
	log   zerolog.Logger
	items []Diagnostic
}

func (d *diagnostics) add(kind DiagnosticKind, group, animal, msg string) {
	d.items = append(d.items, Diagnostic{Kind: kind, Group: group, Animal: animal, Message: msg})
	ev := d.log.Warn().Str("kind", string(kind))
	if group != "" {
		ev = ev.Str("group", group)
	}
	if animal != "" {
		ev = ev.Str("animal", animal)
	}
	ev.Msg(msg)
}
