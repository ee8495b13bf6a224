package charts

import (
	"fmt"

	"github.com/KaramelBytes/socstudy-cli/internal/numeric"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

type SpiderTrace struct {
	Animal     string    `json:"animal"`
	Group      string    `json:"group"`
	Label      string    `json:"label"`
	Color      string    `json:"color"`
	ShowLegend bool      `json:"show_legend"`
	Days       []int     `json:"days"`
	Values     []float64 `json:"values"`
	Text       []string  `json:"text"`
}

type SpiderChart struct {
	Title  string        `json:"title"`
	Traces []SpiderTrace `json:"traces"`
	XRange [2]int        `json:"x_range"`
}

// Spider draws one growth line per animal. Only the first animal of each
// group label shows in the legend.
func Spider(st *study.Study, palette []string) SpiderChart {
	chart := SpiderChart{
		Title:  st.Info.DisplayName(),
		Traces: make([]SpiderTrace, 0, len(st.Animals)),
	}
	legend := make(map[string]bool)
	for _, a := range st.Animals {
		g := st.GroupOf(a)
		tr := SpiderTrace{
			Animal:     a.Name,
			Group:      g.Name,
			Label:      g.Label,
			Color:      study.ColorFor(g, palette),
			ShowLegend: !legend[g.Label],
			Days:       make([]int, 0, len(a.Measurements)),
			Values:     make([]float64, 0, len(a.Measurements)),
			Text:       make([]string, 0, len(a.Measurements)),
		}
		legend[g.Label] = true
		for _, m := range a.Measurements {
			tr.Days = append(tr.Days, m.Day)
			tr.Values = append(tr.Values, m.Value)
			tr.Text = append(tr.Text, fmt.Sprintf("ID: %s ; DAY: %d ; VOLUME: %s",
				a.Name, m.Day, formatNumber(numeric.RoundHalfUp(m.Value))))
		}
		if g.HasMeasureDays() {
			if g.NearEndMeasDay > chart.XRange[1] {
				chart.XRange[1] = g.NearEndMeasDay
			}
			if g.NearStartMeasDay < chart.XRange[0] {
				chart.XRange[0] = g.NearStartMeasDay
			}
		}
		chart.Traces = append(chart.Traces, tr)
	}
	return chart
}
