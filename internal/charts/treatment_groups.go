package charts

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/socstudy-cli/internal/dto"
	"github.com/KaramelBytes/socstudy-cli/internal/numeric"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// TreatmentMode selects absolute volumes or change relative to baseline.
type TreatmentMode string

const (
	ModeAbsVolume TreatmentMode = "abs-vol"
	ModeRelChange TreatmentMode = "rel-change"
)

const dayTickStep = 5

func ParseTreatmentMode(s string) (TreatmentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abs-vol", "absolute":
		return ModeAbsVolume, nil
	case "rel-change", "relative":
		return ModeRelChange, nil
	default:
		return "", fmt.Errorf("%w treatment-groups mode %q", ErrUnknownKind, s)
	}
}

type TreatmentMarkers struct {
	Group string   `json:"group"`
	Label string   `json:"label"`
	Color string   `json:"color"`
	Days  []int    `json:"days"`
	Text  []string `json:"text"`
}

type DayStat struct {
	Day    int      `json:"day"`
	Mean   *float64 `json:"mean"`
	StdErr *float64 `json:"std_err"`
	N      int      `json:"n"`
}

type GroupSeries struct {
	Group  string    `json:"group"`
	Label  string    `json:"label"`
	Color  string    `json:"color"`
	Points []DayStat `json:"points"`
}

type TreatmentGroupsChart struct {
	Title      string             `json:"title"`
	Mode       TreatmentMode      `json:"mode"`
	YAxisTitle string             `json:"y_axis_title"`
	Treatments []TreatmentMarkers `json:"treatments"`
	Series     []GroupSeries      `json:"series"`
	XRange     [2]float64         `json:"x_range"`
	TickVals   []int              `json:"tick_vals"`
}

// TreatmentGroups builds per-group dosing markers and per-day mean ± stderr
// of the tumor volume. Treatment rows are listed bottom-up, control last.
func TreatmentGroups(st *study.Study, mode TreatmentMode, palette []string, visible []string) TreatmentGroupsChart {
	chart := TreatmentGroupsChart{
		Title:      st.Info.DisplayName(),
		Mode:       mode,
		YAxisTitle: "Tumor Volume (mm3)",
		Treatments: make([]TreatmentMarkers, 0, len(st.Groups)),
		Series:     make([]GroupSeries, 0, len(st.Groups)),
	}
	if mode == ModeRelChange {
		chart.YAxisTitle = "Fold Change in Tumor Volume"
	}
	show := make(map[string]bool, len(visible))
	for _, name := range visible {
		show[name] = true
	}

	for i := len(st.Groups) - 1; i >= 0; i-- {
		g := st.Groups[i]
		m := TreatmentMarkers{
			Group: g.Name,
			Label: g.Label,
			Color: study.ColorFor(g, palette),
			Days:  append([]int{}, g.UniqTreatDays...),
		}
		for _, d := range g.UniqTreatDays {
			m.Text = append(m.Text, fmt.Sprintf("DAY: %d, %s", d, g.Label))
		}
		chart.Treatments = append(chart.Treatments, m)
	}

	for _, g := range st.Groups {
		if len(show) > 0 && !show[g.Name] {
			continue
		}
		chart.Series = append(chart.Series, groupSeries(g, mode, palette))
	}

	lo, hi, ok := dayBounds(st)
	if ok {
		chart.XRange = [2]float64{float64(lo) - 0.5, float64(hi) + 0.5}
		chart.TickVals = tickVals(lo, hi, dayTickStep)
	}
	return chart
}

func groupSeries(g *study.Group, mode TreatmentMode, palette []string) GroupSeries {
	byDay := make([][]float64, len(g.UniqMeasureDays))
	for _, a := range g.Animals {
		for _, m := range a.Measurements {
			idx := numeric.BinarySearchNumeric(g.UniqMeasureDays, m.Day)
			if idx < 0 {
				continue
			}
			v := m.Value
			if mode == ModeRelChange {
				if a.Start == nil {
					continue
				}
				v = (m.Value - a.Start.Value) / a.Start.Value
			}
			byDay[idx] = append(byDay[idx], v)
		}
	}

	s := GroupSeries{
		Group:  g.Name,
		Label:  g.Label,
		Color:  study.ColorFor(g, palette),
		Points: make([]DayStat, 0, len(byDay)),
	}
	for i, vals := range byDay {
		sp := numeric.MeanStderrStddev(vals)
		mean, se := sp.Mean, sp.StdErr
		if mode == ModeRelChange {
			mean, se = numeric.RoundTo(mean, 2), numeric.RoundTo(se, 2)
		} else {
			mean, se = numeric.RoundHalfUp(mean), numeric.RoundHalfUp(se)
		}
		s.Points = append(s.Points, DayStat{
			Day:    g.UniqMeasureDays[i],
			Mean:   dto.Float(mean),
			StdErr: dto.Float(se),
			N:      sp.Count,
		})
	}
	return s
}

// dayBounds spans every measurement and treatment day in the study.
func dayBounds(st *study.Study) (lo, hi int, ok bool) {
	see := func(d int) {
		if !ok || d < lo {
			lo = d
		}
		if !ok || d > hi {
			hi = d
		}
		ok = true
	}
	for _, a := range st.Animals {
		for _, m := range a.Measurements {
			see(m.Day)
		}
		for _, t := range a.Treatments {
			see(t.Day)
		}
	}
	return lo, hi, ok
}

// tickVals returns multiples of step covering [lo, hi].
func tickVals(lo, hi, step int) []int {
	start := lo - ((lo%step)+step)%step
	var out []int
	for v := start; v <= hi; v += step {
		out = append(out, v)
	}
	return out
}
