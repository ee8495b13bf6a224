// Package report renders a normalized study as a plain Markdown summary.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/socstudy-cli/internal/charts"
	"github.com/KaramelBytes/socstudy-cli/internal/numeric"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// EarlyMark flags animals whose last reading precedes the group end day.
const EarlyMark = "†"

// GroupSummary condenses one group.
type GroupSummary struct {
	Name      string
	Label     string
	Color     string
	IsControl bool
	Animals   int
	StartDay  int
	EndDay    int
	HasDays   bool
	Dosing    []string
	TreatDays []int
	Percent   numeric.Spread
	EndVolume numeric.SpreadErr
}

// AnimalRow is one line of the animal table.
type AnimalRow struct {
	Name      string
	Group     string
	StartDay  int
	Start     float64
	EndDay    int
	End       float64
	Diff      float64
	Percent   float64
	Fold      float64
	Early     bool
	HasValues bool
}

// Report is the data behind the Markdown output.
type Report struct {
	Info        study.Info
	Groups      []GroupSummary
	Recist      []charts.RecistRow
	Animals     []AnimalRow
	Diagnostics []study.Diagnostic
}

// Build collects the report data. The study is not modified.
func Build(st *study.Study, palette []string) *Report {
	r := &Report{
		Info:        st.Info,
		Recist:      charts.Recist(st, palette).Rows,
		Diagnostics: st.Diagnostics,
	}
	for _, g := range st.Groups {
		r.Groups = append(r.Groups, summarize(g, palette))
		for _, a := range g.Animals {
			r.Animals = append(r.Animals, animalRow(g, a))
		}
	}
	return r
}

func summarize(g *study.Group, palette []string) GroupSummary {
	s := GroupSummary{
		Name:      g.Name,
		Label:     g.Label,
		Color:     study.ColorFor(g, palette),
		IsControl: g.IsControl,
		Animals:   len(g.Animals),
		HasDays:   g.HasMeasureDays(),
		StartDay:  g.NearStartMeasDay,
		EndDay:    g.NearEndMeasDay,
		TreatDays: g.UniqTreatDays,
	}
	for _, c := range g.DoseCombos {
		s.Dosing = append(s.Dosing, strings.Join(strings.Fields(
			fmt.Sprintf("%s %s %s", c.Activity, joinFloats(c.Amounts), strings.Join(c.Units, ", "))), " "))
	}
	pct := make([]float64, 0, len(g.Animals))
	ends := make([]float64, 0, len(g.Animals))
	for _, a := range g.Animals {
		pct = append(pct, finiteOrNaN(a.PercentChange))
		if a.End != nil {
			ends = append(ends, a.End.Value)
		}
	}
	s.Percent = numeric.MeanStddev(pct)
	s.EndVolume = numeric.MeanStderrStddev(ends)
	return s
}

func animalRow(g *study.Group, a *study.Animal) AnimalRow {
	row := AnimalRow{
		Name:      a.Name,
		Group:     g.Label,
		Start:     math.NaN(),
		End:       math.NaN(),
		Diff:      a.Diff,
		Percent:   a.PercentChange,
		Fold:      a.FoldChange,
		Early:     a.EarlyTermination,
		HasValues: a.Resolved(),
	}
	if a.Start != nil {
		row.StartDay, row.Start = a.Start.Day, a.Start.Value
	}
	if a.End != nil {
		row.EndDay, row.End = a.End.Day, a.End.Value
	}
	return row
}

// Markdown renders the study summary.
func Markdown(st *study.Study, palette []string) string {
	return Build(st, palette).Markdown()
}

// Markdown renders the report sections in a fixed order.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[STUDY SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Study: %s\n", r.Info.DisplayName()))
	if r.Info.StudyNumber != "" {
		b.WriteString(fmt.Sprintf("Study number: %s\n", r.Info.StudyNumber))
	}
	if r.Info.CuratedNumber != "" {
		b.WriteString(fmt.Sprintf("Curated number: %s\n", r.Info.CuratedNumber))
	}
	b.WriteString(fmt.Sprintf("Groups: %d\n", len(r.Groups)))
	b.WriteString(fmt.Sprintf("Animals: %d\n", len(r.Animals)))
	if len(r.Groups) > 0 && r.Groups[0].IsControl {
		b.WriteString(fmt.Sprintf("Control: %s\n", r.Groups[0].Label))
	} else {
		b.WriteString("Control: none flagged\n")
	}

	b.WriteString("\n[GROUPS]\n")
	for _, g := range r.Groups {
		b.WriteString(fmt.Sprintf("- %s", g.Label))
		if g.IsControl {
			b.WriteString(" [control]")
		}
		b.WriteString(fmt.Sprintf(" (group %s, n=%d, color %s)", g.Name, g.Animals, g.Color))
		if g.HasDays {
			b.WriteString(fmt.Sprintf(" days %d-%d", g.StartDay, g.EndDay))
		} else {
			b.WriteString(" no measurements")
		}
		b.WriteString("\n")
		for _, d := range g.Dosing {
			b.WriteString(fmt.Sprintf("  • dosing: %s\n", d))
		}
		if len(g.TreatDays) > 0 {
			b.WriteString(fmt.Sprintf("  • treatment days: %s\n", joinInts(g.TreatDays)))
		}
		if g.EndVolume.Count > 0 {
			b.WriteString(fmt.Sprintf("  • end volume: mean %s ± %s SE (n=%d)\n",
				num(g.EndVolume.Mean), num(g.EndVolume.StdErr), g.EndVolume.Count))
		}
		if g.Percent.Count > 0 {
			b.WriteString(fmt.Sprintf("  • %% change: mean %s, sd %s (n=%d)\n",
				num(g.Percent.Mean), num(g.Percent.StdDev), g.Percent.Count))
		}
	}

	b.WriteString("\n[RECIST]\n")
	for _, row := range r.Recist {
		cat := row.Category
		if cat == "" {
			cat = "n/a"
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", row.Label, cat))
	}

	b.WriteString("\n[ANIMALS]\n")
	b.WriteString("| Animal | Group | Start | End | Diff | % Change | Fold |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, a := range r.Animals {
		name := a.Name
		if a.Early {
			name += " " + EarlyMark
		}
		start, end := "n/a", "n/a"
		if !math.IsNaN(a.Start) {
			start = fmt.Sprintf("%s (d%d)", num(a.Start), a.StartDay)
		}
		if !math.IsNaN(a.End) {
			end = fmt.Sprintf("%s (d%d)", num(a.End), a.EndDay)
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
			name, a.Group, start, end, num(a.Diff), num(a.Percent), num(a.Fold)))
	}
	if hasEarly(r.Animals) {
		b.WriteString(fmt.Sprintf("\n%s last reading before the group end day\n", EarlyMark))
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, d := range r.Diagnostics {
			b.WriteString(fmt.Sprintf("- %s", d.Kind))
			if who := subject(d); who != "" {
				b.WriteString(" " + who)
			}
			b.WriteString(": " + d.Message + "\n")
		}
	}
	return b.String()
}

func subject(d study.Diagnostic) string {
	switch {
	case d.Group != "" && d.Animal != "":
		return d.Group + "/" + d.Animal
	case d.Group != "":
		return d.Group
	default:
		return d.Animal
	}
}

func hasEarly(rows []AnimalRow) bool {
	for _, a := range rows {
		if a.Early {
			return true
		}
	}
	return false
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(numeric.RoundTo(v, 2), 'f', -1, 64)
}

func finiteOrNaN(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
