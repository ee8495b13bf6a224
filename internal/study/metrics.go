package study

import (
	"math"

	"github.com/KaramelBytes/socstudy-cli/internal/numeric"
)

func (b *builder) deriveMetrics() {
	for _, a := range b.animals {
		g := b.byGroup[a.GroupName]
		a.Diff, a.PercentChange, a.FoldChange = math.NaN(), math.NaN(), math.NaN()
		if !g.HasMeasureDays() {
			if len(a.Measurements) == 0 {
				b.diag.add(MissingMeasurement, g.Name, a.Name, "animal has no measurements")
			}
			continue
		}

		for i := range a.Measurements {
			m := &a.Measurements[i]
			if m.Day == g.NearStartMeasDay {
				a.Start = m
			}
			if m.Day == g.NearEndMeasDay {
				a.End = m
			}
		}
		if a.End == nil && len(a.Measurements) > 0 {
			last := &a.Measurements[len(a.Measurements)-1]
			if last.Day < g.NearEndMeasDay {
				a.End = last
				a.EarlyTermination = true
			}
		}

		if !a.Resolved() {
			b.diag.add(MissingMeasurement, g.Name, a.Name, "no measurement on the group start or end day")
			continue
		}

		a.Diff = a.End.Value - a.Start.Value
		ratio := a.Diff / a.Start.Value
		a.PercentChange = numeric.RoundHalfUp(ratio * 100)
		a.FoldChange = numeric.RoundTo(ratio, 2)
		if a.Start.Value == 0 {
			b.diag.add(ZeroBaseline, g.Name, a.Name, "baseline volume is zero, change metrics are not finite")
		}
	}
}
