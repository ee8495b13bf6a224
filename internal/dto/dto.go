// Package dto holds the JSON views of a normalized study. Non-finite
// numbers are rendered as null.
package dto

import (
	"math"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// Float returns nil for NaN and ±Inf, else a pointer to v.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Value is the inverse of Float.
func Value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

type MeasurementView struct {
	Day   int     `json:"day"`
	Value float64 `json:"value"`
}

type TreatmentView struct {
	Day          int      `json:"day"`
	DoseActivity string   `json:"dose_activity"`
	Amount       *float64 `json:"amount"`
	Units        string   `json:"units"`
}

type AnimalView struct {
	Name             string            `json:"animal_name"`
	Group            string            `json:"group_name"`
	Measurements     []MeasurementView `json:"measurements"`
	Treatments       []TreatmentView   `json:"treatments,omitempty"`
	Start            *MeasurementView  `json:"start_day_measurement"`
	End              *MeasurementView  `json:"end_day_measurement"`
	EarlyTermination bool              `json:"early_termination"`
	Diff             *float64          `json:"measurement_diff"`
	PercentChange    *float64          `json:"percent_change_volume"`
	FoldChange       *float64          `json:"measurement_fold_change"`
}

type GroupView struct {
	Name            string    `json:"group_name"`
	Label           string    `json:"group_label"`
	Color           *string   `json:"color"`
	ResolvedColor   string    `json:"resolved_color"`
	IsControl       bool      `json:"is_control"`
	RecistCat       string    `json:"recist"`
	Index           int       `json:"index"`
	UniqMeasureDays []int     `json:"uniq_measure_days"`
	UniqTreatDays   []int     `json:"uniq_treat_days"`
	DoseActivities  []string  `json:"dose_activities"`
	DoseAmounts     []float64 `json:"dose_amounts"`
	DoseUnits       []string  `json:"dose_units"`
	NearStartDay    *int      `json:"near_start_meas_day"`
	NearEndDay      *int      `json:"near_end_meas_day"`
	Animals         []string  `json:"animals"`
}

type StudyView struct {
	StudyNumber   string             `json:"study_number"`
	CuratedNumber string             `json:"curated_study_number,omitempty"`
	Name          string             `json:"curated_study_name"`
	Groups        []GroupView        `json:"groups"`
	Animals       []AnimalView       `json:"animals"`
	Diagnostics   []study.Diagnostic `json:"diagnostics"`
}

// StudyInfoView is a list entry.
type StudyInfoView struct {
	StudyNumber   string `json:"study_number"`
	CuratedNumber string `json:"curated_study_number,omitempty"`
	Name          string `json:"curated_study_name"`
}

func NewStudyInfoView(info study.Info) StudyInfoView {
	return StudyInfoView{StudyNumber: info.StudyNumber, CuratedNumber: info.CuratedNumber, Name: info.DisplayName()}
}

// NewStudyView renders the full graph. Palette resolves null colors.
func NewStudyView(st *study.Study, palette []string) StudyView {
	v := StudyView{
		StudyNumber:   st.Info.StudyNumber,
		CuratedNumber: st.Info.CuratedNumber,
		Name:          st.Info.DisplayName(),
		Groups:        make([]GroupView, 0, len(st.Groups)),
		Animals:       make([]AnimalView, 0, len(st.Animals)),
		Diagnostics:   st.Diagnostics,
	}
	if v.Diagnostics == nil {
		v.Diagnostics = []study.Diagnostic{}
	}
	for _, g := range st.Groups {
		v.Groups = append(v.Groups, NewGroupView(g, palette))
	}
	for _, a := range st.Animals {
		v.Animals = append(v.Animals, NewAnimalView(a))
	}
	return v
}

func NewGroupView(g *study.Group, palette []string) GroupView {
	gv := GroupView{
		Name:            g.Name,
		Label:           g.Label,
		ResolvedColor:   study.ColorFor(g, palette),
		IsControl:       g.IsControl,
		RecistCat:       g.RecistCat,
		Index:           g.Index,
		UniqMeasureDays: nonNilInts(g.UniqMeasureDays),
		UniqTreatDays:   nonNilInts(g.UniqTreatDays),
		DoseActivities:  nonNilStrings(g.DoseActivities),
		DoseAmounts:     g.DoseAmounts,
		DoseUnits:       nonNilStrings(g.DoseUnits),
		Animals:         make([]string, 0, len(g.Animals)),
	}
	if gv.DoseAmounts == nil {
		gv.DoseAmounts = []float64{}
	}
	if g.Color != "" {
		c := g.Color
		gv.Color = &c
	}
	if g.HasMeasureDays() {
		s, e := g.NearStartMeasDay, g.NearEndMeasDay
		gv.NearStartDay, gv.NearEndDay = &s, &e
	}
	for _, a := range g.Animals {
		gv.Animals = append(gv.Animals, a.Name)
	}
	return gv
}

func NewAnimalView(a *study.Animal) AnimalView {
	av := AnimalView{
		Name:             a.Name,
		Group:            a.GroupName,
		Measurements:     make([]MeasurementView, 0, len(a.Measurements)),
		EarlyTermination: a.EarlyTermination,
		Diff:             Float(a.Diff),
		PercentChange:    Float(a.PercentChange),
		FoldChange:       Float(a.FoldChange),
	}
	for _, m := range a.Measurements {
		av.Measurements = append(av.Measurements, MeasurementView{Day: m.Day, Value: m.Value})
	}
	for _, t := range a.Treatments {
		av.Treatments = append(av.Treatments, TreatmentView{
			Day: t.Day, DoseActivity: t.DoseActivity, Amount: Float(t.Amount), Units: t.RouteUnits,
		})
	}
	if a.Start != nil {
		av.Start = &MeasurementView{Day: a.Start.Day, Value: a.Start.Value}
	}
	if a.End != nil {
		av.End = &MeasurementView{Day: a.End.Day, Value: a.End.Value}
	}
	return av
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
