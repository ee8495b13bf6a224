package charts

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/socstudy-cli/internal/dto"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

func testStudy(t *testing.T) *study.Study {
	t.Helper()
	return normalizeInput(t, testInput())
}

func normalizeInput(t *testing.T, in study.Input) *study.Study {
	t.Helper()
	st, err := study.Normalize(in, study.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	return st
}

func testInput() study.Input {
	m := func(g, a string, day int, v float64) study.Measurement {
		return study.Measurement{GroupName: g, AnimalName: a, Day: day, Value: v}
	}
	in := study.Input{
		Study: study.Info{StudyNumber: "S-1", CuratedName: "Model X"},
		Animals: []study.AnimalSeed{
			{GroupName: "Ctrl", AnimalName: "c1"}, {GroupName: "Ctrl", AnimalName: "c2"},
			{GroupName: "DrugA", AnimalName: "a1"}, {GroupName: "DrugA", AnimalName: "a2"},
			{GroupName: "DrugB", AnimalName: "b1"}, {GroupName: "DrugB", AnimalName: "b2"},
		},
		Measurements: []study.Measurement{
			m("Ctrl", "c1", 0, 100), m("Ctrl", "c1", 7, 200), m("Ctrl", "c1", 14, 400),
			m("Ctrl", "c2", 0, 100), m("Ctrl", "c2", 7, 200), m("Ctrl", "c2", 14, 400),
			m("DrugA", "a1", 0, 100), m("DrugA", "a1", 14, 200),
			m("DrugA", "a2", 0, 100), m("DrugA", "a2", 7, 150),
			m("DrugB", "b1", 0, 100), m("DrugB", "b1", 14, 500),
			m("DrugB", "b2", 14, 500),
		},
		Treatments: []study.Treatment{
			{GroupName: "DrugA", AnimalName: "a1", Day: 0, DoseActivity: "A", Amount: 1, RouteUnits: "mg/kg"},
			{GroupName: "DrugA", AnimalName: "a2", Day: 7, DoseActivity: "A", Amount: 1, RouteUnits: "mg/kg"},
			{GroupName: "DrugB", AnimalName: "b1", Day: 0, DoseActivity: "B", Amount: 2, RouteUnits: "mg/kg"},
		},
		GroupLabels: []study.GroupLabel{
			{GroupName: "Ctrl", CuratedName: "Vehicle", IsControl: true, Recist: "PD"},
			{GroupName: "DrugA", CuratedName: "Drug A", Recist: "PR"},
			{GroupName: "DrugB", CuratedName: "Drug B", Recist: "PD", Color: "#123456"},
		},
	}
	return in
}

func TestWaterfallPercent(t *testing.T) {
	st := testStudy(t)
	chart := Waterfall(st, MetricPercent, nil)

	assert.Equal(t, "Model X", chart.Title)
	require.Len(t, chart.Series, 3)
	assert.Equal(t, "Vehicle [days 0-14]", chart.Series[0].Name)
	assert.Equal(t, study.DefaultPalette[0], chart.Series[0].Color)
	assert.Equal(t, "#123456", chart.Series[2].Color)

	ranks := map[string]int{}
	values := map[string]*float64{}
	for _, s := range chart.Series {
		for _, b := range s.Bars {
			ranks[b.Animal] = b.Rank
			values[b.Animal] = b.Value
		}
	}
	assert.Equal(t, map[string]int{"b1": 0, "c1": 1, "c2": 2, "a1": 3, "a2": 4, "b2": 5}, ranks)
	assert.Equal(t, 50.0, *values["a2"])
	assert.Nil(t, values["b2"])
}

func TestWaterfallFoldDoesNotTouchStudy(t *testing.T) {
	st := testStudy(t)
	before := make([]string, len(st.Animals))
	for i, a := range st.Animals {
		before[i] = a.Name
	}
	chart := Waterfall(st, MetricFold, nil)
	assert.Equal(t, "Fold Change in Tumor Volume", chart.YAxisTitle)
	assert.Equal(t, 3.0, *chart.Series[0].Bars[0].Value)
	for i, a := range st.Animals {
		assert.Equal(t, before[i], a.Name)
	}
}

func TestParseWaterfallMetric(t *testing.T) {
	m, err := ParseWaterfallMetric("rel-change")
	require.NoError(t, err)
	assert.Equal(t, MetricFold, m)
	m, err = ParseWaterfallMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricPercent, m)
	_, err = ParseWaterfallMetric("log")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTreatmentGroupsAbsolute(t *testing.T) {
	st := testStudy(t)
	chart := TreatmentGroups(st, ModeAbsVolume, nil, nil)

	require.Len(t, chart.Treatments, 3)
	assert.Equal(t, "DrugB", chart.Treatments[0].Group)
	assert.Equal(t, "Ctrl", chart.Treatments[2].Group)
	assert.Equal(t, []int{0, 7}, chart.Treatments[1].Days)
	assert.Equal(t, "DAY: 7, Drug A", chart.Treatments[1].Text[1])

	require.Len(t, chart.Series, 3)
	drugA := chart.Series[1]
	require.Len(t, drugA.Points, 3)
	assert.Equal(t, 100.0, *drugA.Points[0].Mean)
	assert.Equal(t, 0.0, *drugA.Points[0].StdErr)
	assert.Equal(t, 2, drugA.Points[0].N)
	assert.Equal(t, 150.0, *drugA.Points[1].Mean)
	assert.Equal(t, 1, drugA.Points[1].N)

	assert.Equal(t, [2]float64{-0.5, 14.5}, chart.XRange)
	assert.Equal(t, []int{0, 5, 10}, chart.TickVals)
}

func TestTreatmentGroupsRelativeAndVisible(t *testing.T) {
	st := testStudy(t)
	chart := TreatmentGroups(st, ModeRelChange, nil, []string{"DrugB"})

	require.Len(t, chart.Series, 1)
	b := chart.Series[0]
	assert.Equal(t, "DrugB", b.Group)
	assert.Equal(t, 0.0, *b.Points[0].Mean)
	assert.Equal(t, 4.0, *b.Points[1].Mean)
	assert.Equal(t, 1, b.Points[1].N)
}

func TestTickVals(t *testing.T) {
	assert.Equal(t, []int{-5, 0, 5}, tickVals(-3, 7, 5))
	assert.Equal(t, []int{0, 5}, tickVals(2, 5, 5))
}

func TestSpider(t *testing.T) {
	st := testStudy(t)
	chart := Spider(st, nil)
	require.Len(t, chart.Traces, 6)

	var legends []string
	for _, tr := range chart.Traces {
		if tr.ShowLegend {
			legends = append(legends, tr.Animal)
		}
	}
	assert.Equal(t, []string{"c1", "a1", "b1"}, legends)
	assert.Equal(t, [2]int{0, 14}, chart.XRange)
	assert.Equal(t, "ID: c1 ; DAY: 7 ; VOLUME: 200", chart.Traces[0].Text[1])
}

func TestTGI(t *testing.T) {
	st := testStudy(t)
	chart := TGI(st, nil)

	require.Len(t, chart.Bars, 3)
	ctrl, b, a := chart.Bars[0], chart.Bars[1], chart.Bars[2]
	assert.Equal(t, "Ctrl", ctrl.Group)
	assert.Equal(t, "CONTROL", ctrl.Annotation)
	assert.Nil(t, ctrl.RelativeStdErr)

	assert.Equal(t, "DrugB", b.Group)
	assert.Equal(t, 125.0, *b.Relative)
	assert.Equal(t, "-25%", b.Annotation)

	assert.Equal(t, "DrugA", a.Group)
	assert.Equal(t, 175.0, *a.EndMean)
	assert.Equal(t, 18.0, *a.EndStdErr)
	assert.Equal(t, 44.0, *a.Relative)
	assert.Equal(t, 4.0, *a.RelativeStdErr)
	assert.Equal(t, "56%", a.Annotation)
	assert.True(t, a.ShowArrow)

	assert.Equal(t, 140.0, chart.AxisMax)
	assert.Len(t, chart.TickVals, 8)
	assert.Equal(t, "100", chart.TickText[0])
	assert.Equal(t, "-40", chart.TickText[7])
}

func TestTGIWithoutFlaggedControl(t *testing.T) {
	in := testInput()
	in.GroupLabels[0].IsControl = false
	st := normalizeInput(t, in)
	require.Len(t, st.DiagnosticsOf(study.NoControlGroup), 1)

	chart := TGI(st, nil)
	require.Len(t, chart.Bars, 3)
	ref := chart.Bars[0]
	assert.Equal(t, "Ctrl", ref.Group)
	assert.False(t, ref.IsControl)
	assert.Equal(t, "no change", ref.Annotation)
	assert.Equal(t, 100.0, *ref.Relative)
	assert.NotNil(t, ref.RelativeStdErr)

	// First group still anchors the ratio.
	assert.Equal(t, "DrugB", chart.Bars[1].Group)
	assert.Equal(t, 125.0, *chart.Bars[1].Relative)
	assert.Equal(t, 44.0, *chart.Bars[2].Relative)
}

func TestTGIAnnotation(t *testing.T) {
	text, arrow := tgiAnnotation(100, false)
	assert.Equal(t, "no change", text)
	assert.False(t, arrow)
	text, arrow = tgiAnnotation(95, false)
	assert.Equal(t, "5%", text)
	assert.False(t, arrow)
}

func TestRecist(t *testing.T) {
	st := testStudy(t)
	table := Recist(st, []string{"#aaaaaa", "#bbbbbb"})
	require.Len(t, table.Rows, 3)
	assert.Equal(t, RecistRow{Group: "Ctrl", Label: "Vehicle", Color: "#aaaaaa", Category: "PD"}, table.Rows[0])
	assert.Equal(t, "#bbbbbb", table.Rows[1].Color)
	assert.Equal(t, "#123456", table.Rows[2].Color)
}

func TestBuildDispatchAndJSON(t *testing.T) {
	st := testStudy(t)
	for _, k := range Kinds {
		out, err := Build(st, Request{Kind: k})
		require.NoError(t, err, k)
		_, err = json.Marshal(out)
		require.NoError(t, err, k)
	}
	_, err := Build(st, Request{Kind: "pie"})
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = Build(st, Request{Kind: KindTreatmentGroups, Mode: "log"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	k, err := ParseKind(" TGI ")
	require.NoError(t, err)
	assert.Equal(t, KindTGI, k)
	assert.Equal(t, 1.0, dto.Value(dto.Float(1)))
}
