package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
)

// cell renders a float, leaving non-finite values empty.
func cell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func intCell(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalAnimalsCSV(rows []animalRow) ([]byte, error) {
	header := []string{
		"study", "group_name", "group_label", "animal_name",
		"start_day", "start_volume", "end_day", "end_volume",
		"diff", "percent_change", "fold_change", "early_termination", "measurements",
	}
	recs := make([][]string, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, []string{
			r.Study, r.Group, r.GroupLabel, r.Animal,
			intCell(r.StartDay), cell(r.StartVolume), intCell(r.EndDay), cell(r.EndVolume),
			cell(r.Diff), cell(r.PercentChange), cell(r.FoldChange),
			strconv.FormatBool(r.EarlyTermination), strconv.FormatInt(r.Measurements, 10),
		})
	}
	return writeCSV(header, recs)
}

func marshalGroupsCSV(rows []groupRow) ([]byte, error) {
	header := []string{
		"study", "group_name", "label", "color", "is_control", "recist", "animals",
		"start_day", "end_day", "treatment_days", "mean_end_volume", "stderr_end_volume", "mean_percent_change",
	}
	recs := make([][]string, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, []string{
			r.Study, r.Group, r.Label, r.Color, strconv.FormatBool(r.IsControl), r.Recist,
			strconv.FormatInt(r.Animals, 10), intCell(r.StartDay), intCell(r.EndDay), r.TreatmentDays,
			cell(r.MeanEnd), cell(r.StdErrEnd), cell(r.MeanPercent),
		})
	}
	return writeCSV(header, recs)
}
