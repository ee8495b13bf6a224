package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/socstudy-cli/internal/report"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

type animalRow struct {
	Study            string  `parquet:"name=study, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Group            string  `parquet:"name=group_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	GroupLabel       string  `parquet:"name=group_label, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Animal           string  `parquet:"name=animal_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartDay         *int64  `parquet:"name=start_day, type=INT64, repetitiontype=OPTIONAL"`
	StartVolume      float64 `parquet:"name=start_volume, type=DOUBLE"`
	EndDay           *int64  `parquet:"name=end_day, type=INT64, repetitiontype=OPTIONAL"`
	EndVolume        float64 `parquet:"name=end_volume, type=DOUBLE"`
	Diff             float64 `parquet:"name=diff, type=DOUBLE"`
	PercentChange    float64 `parquet:"name=percent_change, type=DOUBLE"`
	FoldChange       float64 `parquet:"name=fold_change, type=DOUBLE"`
	EarlyTermination bool    `parquet:"name=early_termination, type=BOOLEAN"`
	Measurements     int64   `parquet:"name=measurements, type=INT64"`
}

type groupRow struct {
	Study         string  `parquet:"name=study, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Group         string  `parquet:"name=group_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label         string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	Color         string  `parquet:"name=color, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsControl     bool    `parquet:"name=is_control, type=BOOLEAN"`
	Recist        string  `parquet:"name=recist, type=BYTE_ARRAY, convertedtype=UTF8"`
	Animals       int64   `parquet:"name=animals, type=INT64"`
	StartDay      *int64  `parquet:"name=start_day, type=INT64, repetitiontype=OPTIONAL"`
	EndDay        *int64  `parquet:"name=end_day, type=INT64, repetitiontype=OPTIONAL"`
	TreatmentDays string  `parquet:"name=treatment_days, type=BYTE_ARRAY, convertedtype=UTF8"`
	MeanEnd       float64 `parquet:"name=mean_end_volume, type=DOUBLE"`
	StdErrEnd     float64 `parquet:"name=stderr_end_volume, type=DOUBLE"`
	MeanPercent   float64 `parquet:"name=mean_percent_change, type=DOUBLE"`
}

func day(m *study.Measurement) *int64 {
	if m == nil {
		return nil
	}
	d := int64(m.Day)
	return &d
}

func volume(m *study.Measurement) float64 {
	if m == nil {
		return math.NaN()
	}
	return m.Value
}

func animalRows(st *study.Study) []animalRow {
	name := st.Info.DisplayName()
	var out []animalRow
	for _, g := range st.Groups {
		for _, a := range g.Animals {
			out = append(out, animalRow{
				Study:            name,
				Group:            g.Name,
				GroupLabel:       g.Label,
				Animal:           a.Name,
				StartDay:         day(a.Start),
				StartVolume:      volume(a.Start),
				EndDay:           day(a.End),
				EndVolume:        volume(a.End),
				Diff:             a.Diff,
				PercentChange:    a.PercentChange,
				FoldChange:       a.FoldChange,
				EarlyTermination: a.EarlyTermination,
				Measurements:     int64(len(a.Measurements)),
			})
		}
	}
	return out
}

func groupRows(st *study.Study, rep *report.Report) []groupRow {
	name := st.Info.DisplayName()
	out := make([]groupRow, 0, len(rep.Groups))
	for i, s := range rep.Groups {
		row := groupRow{
			Study:         name,
			Group:         s.Name,
			Label:         s.Label,
			Color:         s.Color,
			IsControl:     s.IsControl,
			Recist:        rep.Recist[i].Category,
			Animals:       int64(s.Animals),
			TreatmentDays: joinInts(s.TreatDays),
			MeanEnd:       s.EndVolume.Mean,
			StdErrEnd:     s.EndVolume.StdErr,
			MeanPercent:   s.Percent.Mean,
		}
		if s.HasDays {
			start, end := int64(s.StartDay), int64(s.EndDay)
			row.StartDay, row.EndDay = &start, &end
		}
		out = append(out, row)
	}
	return out
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}
