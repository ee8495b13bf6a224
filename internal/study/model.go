package study

// Animal is one subject with its readings and derived response metrics.
// Start and End point into Measurements. Derived fields are NaN when the
// baseline or the end reading could not be resolved.
type Animal struct {
	Name         string
	GroupName    string
	Measurements []Measurement
	Treatments   []Treatment

	Start            *Measurement
	End              *Measurement
	EarlyTermination bool

	Diff          float64
	PercentChange float64
	FoldChange    float64
}

// Resolved reports whether both start and end readings were found.
func (a *Animal) Resolved() bool { return a.Start != nil && a.End != nil }

// DoseCombo is the dose amounts and units recorded under one dose activity.
type DoseCombo struct {
	Activity string
	Amounts  []float64
	Units    []string
}

// Group is a treatment cohort after normalization.
type Group struct {
	Name      string
	Label     string
	Color     string
	IsControl bool
	RecistCat string

	UniqMeasureDays []int
	UniqTreatDays   []int
	DoseActivities  []string
	DoseAmounts     []float64
	DoseUnits       []string
	DoseCombos      []DoseCombo

	Animals []*Animal

	NearStartMeasIdx int
	NearStartMeasDay int
	NearEndMeasIdx   int
	NearEndMeasDay   int

	Index int
}

// HasMeasureDays reports whether the group has at least one measurement day.
// NearStart*/NearEnd* are meaningless otherwise.
func (g *Group) HasMeasureDays() bool { return len(g.UniqMeasureDays) > 0 }

// Study is the normalized graph for one study load. It is read-only once
// Normalize returns.
type Study struct {
	Info        Info
	Groups      []*Group
	Animals     []*Animal
	Diagnostics []Diagnostic

	groupByName  map[string]*Group
	animalByName map[string]*Animal
}

// Group returns the group with the given raw name.
func (s *Study) Group(name string) (*Group, bool) {
	g, ok := s.groupByName[name]
	return g, ok
}

// Animal returns the animal with the given name.
func (s *Study) Animal(name string) (*Animal, bool) {
	a, ok := s.animalByName[name]
	return a, ok
}

// Control returns the group at index 0, the control reference. It is nil
// only for a study without groups.
func (s *Study) Control() *Group {
	if len(s.Groups) == 0 {
		return nil
	}
	return s.Groups[0]
}

// GroupOf returns the group an animal belongs to.
func (s *Study) GroupOf(a *Animal) *Group {
	return s.groupByName[a.GroupName]
}

// DiagnosticsOf returns the diagnostics of one kind.
func (s *Study) DiagnosticsOf(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
