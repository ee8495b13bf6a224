package charts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/socstudy-cli/internal/dto"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// WaterfallMetric selects the per-animal value plotted.
type WaterfallMetric string

const (
	MetricPercent WaterfallMetric = "percent"
	MetricFold    WaterfallMetric = "fold"
)

// ParseWaterfallMetric accepts percent|fold and the legacy rel-vol|rel-change
// names. Empty means percent.
func ParseWaterfallMetric(s string) (WaterfallMetric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "percent", "rel-vol":
		return MetricPercent, nil
	case "fold", "rel-change":
		return MetricFold, nil
	default:
		return "", fmt.Errorf("%w waterfall metric %q", ErrUnknownKind, s)
	}
}

type WaterfallBar struct {
	Animal string   `json:"animal"`
	Rank   int      `json:"rank"`
	Value  *float64 `json:"value"`
	Text   string   `json:"text"`
}

type WaterfallSeries struct {
	Group string         `json:"group"`
	Name  string         `json:"name"`
	Color string         `json:"color"`
	Bars  []WaterfallBar `json:"bars"`
}

type WaterfallChart struct {
	Title      string            `json:"title"`
	Metric     WaterfallMetric   `json:"metric"`
	YAxisTitle string            `json:"y_axis_title"`
	Series     []WaterfallSeries `json:"series"`
}

func (m WaterfallMetric) value(a *study.Animal) float64 {
	if m == MetricFold {
		return a.FoldChange
	}
	return a.PercentChange
}

// Waterfall ranks every animal by the metric, largest first. Animals whose
// value is not finite are ranked last in input order.
func Waterfall(st *study.Study, metric WaterfallMetric, palette []string) WaterfallChart {
	ordered := make([]*study.Animal, len(st.Animals))
	copy(ordered, st.Animals)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi, vj := metric.value(ordered[i]), metric.value(ordered[j])
		if !finite(vj) {
			return finite(vi)
		}
		if !finite(vi) {
			return false
		}
		return vi > vj
	})
	rank := make(map[*study.Animal]int, len(ordered))
	for i, a := range ordered {
		rank[a] = i
	}

	chart := WaterfallChart{
		Title:      st.Info.DisplayName(),
		Metric:     metric,
		YAxisTitle: "Change in Tumor Volume (%)",
		Series:     make([]WaterfallSeries, 0, len(st.Groups)),
	}
	if metric == MetricFold {
		chart.YAxisTitle = "Fold Change in Tumor Volume"
	}
	for _, g := range st.Groups {
		s := WaterfallSeries{
			Group: g.Name,
			Name:  seriesName(g),
			Color: study.ColorFor(g, palette),
			Bars:  make([]WaterfallBar, 0, len(g.Animals)),
		}
		for _, a := range g.Animals {
			v := metric.value(a)
			s.Bars = append(s.Bars, WaterfallBar{
				Animal: a.Name,
				Rank:   rank[a],
				Value:  dto.Float(v),
				Text:   formatNumber(v),
			})
		}
		chart.Series = append(chart.Series, s)
	}
	return chart
}

func seriesName(g *study.Group) string {
	if !g.HasMeasureDays() {
		return g.Label
	}
	return fmt.Sprintf("%s [days %d-%d]", g.Label, g.NearStartMeasDay, g.NearEndMeasDay)
}
