package study

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/socstudy-cli/internal/numeric"
)

// ControlPolicy decides how the control group is picked when the label
// records flag zero or several groups.
type ControlPolicy int

const (
	// ControlFirstMatch keeps the first flagged group in sorted order and
	// reports the ambiguity as a diagnostic.
	ControlFirstMatch ControlPolicy = iota
	// ControlStrict fails the load unless exactly one group is flagged.
	ControlStrict
)

// ParseControlPolicy maps a config value to a policy.
func ParseControlPolicy(s string) (ControlPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first", "first-match":
		return ControlFirstMatch, nil
	case "strict":
		return ControlStrict, nil
	default:
		return ControlFirstMatch, fmt.Errorf("unknown control policy %q (want first-match or strict)", s)
	}
}

func (p ControlPolicy) String() string {
	if p == ControlStrict {
		return "strict"
	}
	return "first-match"
}

// Options tune a Normalize run.
type Options struct {
	Logger        zerolog.Logger
	ControlPolicy ControlPolicy
}

// builder is the per-load context. Nothing outlives one Normalize call.
type builder struct {
	opts    Options
	diag    diagnostics
	groups  []*Group
	animals []*Animal
	byGroup map[string]*Group
	byName  map[string]*Animal
}

// Normalize validates the input and builds the study graph: groups with
// their day sets and dose summaries, labels and colors, the control-first
// order, and per-animal derived metrics. On error nothing is returned.
func Normalize(in Input, opts Options) (*Study, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	b := &builder{
		opts:    opts,
		diag:    diagnostics{log: opts.Logger},
		byGroup: make(map[string]*Group),
		byName:  make(map[string]*Animal, len(in.Animals)),
	}
	b.partition(in.Animals)
	b.sortGroups()
	b.foldMeasurements(in.Measurements)
	b.foldTreatments(in.Treatments)
	b.resolveDays()
	b.applyLabels(in.GroupLabels)
	if err := b.orderControl(); err != nil {
		return nil, err
	}
	b.deriveMetrics()

	return &Study{
		Info:         in.Study,
		Groups:       b.groups,
		Animals:      b.animals,
		Diagnostics:  b.diag.items,
		groupByName:  b.byGroup,
		animalByName: b.byName,
	}, nil
}

func (b *builder) partition(seeds []AnimalSeed) {
	for _, s := range seeds {
		g, ok := b.byGroup[s.GroupName]
		if !ok {
			g = &Group{Name: s.GroupName, NearStartMeasIdx: -1, NearEndMeasIdx: -1}
			b.byGroup[s.GroupName] = g
			b.groups = append(b.groups, g)
		}
		a := &Animal{Name: s.AnimalName, GroupName: s.GroupName}
		g.Animals = append(g.Animals, a)
		b.animals = append(b.animals, a)
		b.byName[s.AnimalName] = a
	}
}

func (b *builder) sortGroups() {
	c := collate.New(language.Und)
	sort.SliceStable(b.groups, func(i, j int) bool {
		x, y := b.groups[i].Name, b.groups[j].Name
		if r := c.CompareString(x, y); r != 0 {
			return r < 0
		}
		return x < y
	})
}

func (b *builder) foldMeasurements(ms []Measurement) {
	for _, m := range ms {
		g := b.byGroup[m.GroupName]
		g.UniqMeasureDays = numeric.InsertUniqueNumeric(g.UniqMeasureDays, m.Day)
		a := b.byName[m.AnimalName]
		a.Measurements = append(a.Measurements, m)
	}
	for _, a := range b.animals {
		sort.SliceStable(a.Measurements, func(i, j int) bool {
			return a.Measurements[i].Day < a.Measurements[j].Day
		})
	}
}

func (b *builder) foldTreatments(ts []Treatment) {
	for _, t := range ts {
		g := b.byGroup[t.GroupName]
		units := CleanRouteUnits(t.RouteUnits)
		g.UniqTreatDays = numeric.InsertUniqueNumeric(g.UniqTreatDays, t.Day)
		g.DoseActivities = numeric.InsertUniqueString(g.DoseActivities, t.DoseActivity)
		g.DoseUnits = numeric.InsertUniqueString(g.DoseUnits, units)
		if math.IsNaN(t.Amount) {
			b.diag.add(MissingDoseAmount, g.Name, t.AnimalName,
				fmt.Sprintf("no test material amount for %q on day %d", t.DoseActivity, t.Day))
		} else {
			g.DoseAmounts = numeric.InsertUniqueNumeric(g.DoseAmounts, t.Amount)
		}
		g.addCombo(t.DoseActivity, t.Amount, units)

		a := b.byName[t.AnimalName]
		a.Treatments = append(a.Treatments, t)
	}
	for _, a := range b.animals {
		sort.SliceStable(a.Treatments, func(i, j int) bool {
			return a.Treatments[i].Day < a.Treatments[j].Day
		})
	}
}

func (g *Group) addCombo(activity string, amount float64, units string) {
	for i := range g.DoseCombos {
		if g.DoseCombos[i].Activity == activity {
			c := &g.DoseCombos[i]
			if !math.IsNaN(amount) {
				c.Amounts = numeric.InsertUniqueNumeric(c.Amounts, amount)
			}
			c.Units = numeric.InsertUniqueString(c.Units, units)
			return
		}
	}
	c := DoseCombo{Activity: activity, Units: []string{units}}
	if !math.IsNaN(amount) {
		c.Amounts = []float64{amount}
	}
	g.DoseCombos = append(g.DoseCombos, c)
}

// CleanRouteUnits keeps the first two "/" segments of an administration
// route unit string, so "mg/kg/day" and "mg/kg" collapse together.
func CleanRouteUnits(units string) string {
	parts := strings.SplitN(units, "/", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "/")
}

func (b *builder) resolveDays() {
	for _, g := range b.groups {
		if !g.HasMeasureDays() {
			g.NearStartMeasIdx, g.NearEndMeasIdx = -1, -1
			continue
		}
		last := g.UniqMeasureDays[len(g.UniqMeasureDays)-1]
		g.NearStartMeasIdx = numeric.FindNearestMeasureDayIdx(g.UniqMeasureDays, 0)
		g.NearEndMeasIdx = numeric.FindNearestMeasureDayIdx(g.UniqMeasureDays, last)
		g.NearStartMeasDay = g.UniqMeasureDays[g.NearStartMeasIdx]
		g.NearEndMeasDay = g.UniqMeasureDays[g.NearEndMeasIdx]
	}
}
