package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/socstudy-cli/internal/dto"
	"github.com/KaramelBytes/socstudy-cli/internal/numeric"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

const (
	tgiTickStep   = 20
	tgiArrowShift = 8
)

type TGIBar struct {
	Group          string   `json:"group"`
	Label          string   `json:"label"`
	Color          string   `json:"color"`
	IsControl      bool     `json:"is_control"`
	N              int      `json:"n"`
	EndMean        *float64 `json:"end_mean"`
	EndStdErr      *float64 `json:"end_std_err"`
	Relative       *float64 `json:"relative"`
	RelativeStdErr *float64 `json:"relative_std_err"`
	Annotation     string   `json:"annotation"`
	ShowArrow      bool     `json:"show_arrow"`
}

type TGIChart struct {
	Title    string    `json:"title"`
	Bars     []TGIBar  `json:"bars"`
	AxisMax  float64   `json:"axis_max"`
	TickVals []float64 `json:"tick_vals"`
	TickText []string  `json:"tick_text"`
}

type groupEnd struct {
	g    *study.Group
	stat numeric.SpreadErr
}

func endSpread(g *study.Group) numeric.SpreadErr {
	vals := make([]float64, 0, len(g.Animals))
	for _, a := range g.Animals {
		if a.End != nil {
			vals = append(vals, a.End.Value)
		}
	}
	return numeric.MeanStderrStddev(vals)
}

// TGI compares each group's end-day mean volume with the control's. The
// control stays first and the rest are ordered by end-day mean, largest
// first.
func TGI(st *study.Study, palette []string) TGIChart {
	chart := TGIChart{Title: st.Info.DisplayName(), AxisMax: 100}
	if len(st.Groups) == 0 {
		chart.TickVals, chart.TickText = tgiTicks(chart.AxisMax)
		return chart
	}

	ends := make([]groupEnd, len(st.Groups))
	for i, g := range st.Groups {
		ends[i] = groupEnd{g: g, stat: endSpread(g)}
	}
	rest := ends[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		mi, mj := rest[i].stat.Mean, rest[j].stat.Mean
		if math.IsNaN(mj) {
			return !math.IsNaN(mi)
		}
		if math.IsNaN(mi) {
			return false
		}
		return mi > mj
	})

	controlMean := ends[0].stat.Mean
	maxRel := math.Inf(-1)
	for _, e := range ends {
		rel := numeric.RoundHalfUp(100 * e.stat.Mean / controlMean)
		relErr := numeric.RoundHalfUp(100 * e.stat.StdErr / controlMean)
		bar := TGIBar{
			Group:          e.g.Name,
			Label:          e.g.Label,
			Color:          study.ColorFor(e.g, palette),
			IsControl:      e.g.IsControl,
			N:              e.stat.Count,
			EndMean:        dto.Float(numeric.RoundHalfUp(e.stat.Mean)),
			EndStdErr:      dto.Float(numeric.RoundHalfUp(e.stat.StdErr)),
			Relative:       dto.Float(rel),
			RelativeStdErr: dto.Float(relErr),
		}
		bar.Annotation, bar.ShowArrow = tgiAnnotation(rel, bar.IsControl)
		if bar.IsControl {
			bar.RelativeStdErr = nil
		}
		if finite(rel) && rel > maxRel {
			maxRel = rel
		}
		chart.Bars = append(chart.Bars, bar)
	}
	if maxRel > 100 {
		chart.AxisMax = numeric.RoundToMultiple(maxRel, tgiTickStep)
	}
	chart.TickVals, chart.TickText = tgiTicks(chart.AxisMax)
	return chart
}

// tgiAnnotation labels a bar by its inhibition relative to control.
func tgiAnnotation(rel float64, control bool) (string, bool) {
	switch {
	case !finite(rel):
		return "n/a", false
	case rel < 100:
		return fmt.Sprintf("%s%%", formatNumber(100-rel)), rel+tgiArrowShift < 100
	case rel == 100:
		if control {
			return "CONTROL", false
		}
		return "no change", false
	default:
		return fmt.Sprintf("-%s%%", formatNumber(rel-100)), false
	}
}

// tgiTicks places a tick every 20 points, labelled as inhibition.
func tgiTicks(axisMax float64) ([]float64, []string) {
	n := int(axisMax/tgiTickStep) + 1
	vals := make([]float64, n)
	text := make([]string, n)
	for i := 0; i < n; i++ {
		vals[i] = float64(i * tgiTickStep)
		text[i] = fmt.Sprintf("%d", 100-i*tgiTickStep)
	}
	return vals, text
}
