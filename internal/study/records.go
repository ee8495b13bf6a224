// Package study builds the Group/Animal graph of a preclinical tumor study
// from flat measurement and treatment records.
package study

// Info is the study metadata loaded next to the record arrays.
type Info struct {
	StudyNumber   string `json:"study_number" yaml:"study_number"`
	CuratedNumber string `json:"curated_study_number" yaml:"curated_study_number"`
	CuratedName   string `json:"curated_study_name" yaml:"curated_study_name"`
}

// DisplayName returns the curated name, falling back to the identifiers.
func (i Info) DisplayName() string {
	switch {
	case i.CuratedName != "":
		return i.CuratedName
	case i.CuratedNumber != "":
		return i.CuratedNumber
	default:
		return i.StudyNumber
	}
}

// AnimalSeed declares an animal and the group it belongs to.
type AnimalSeed struct {
	GroupName  string `json:"group_name" yaml:"group_name"`
	AnimalName string `json:"animal_name" yaml:"animal_name"`
}

// Measurement is one tumor volume reading.
type Measurement struct {
	GroupName  string  `json:"group_name" yaml:"group_name"`
	AnimalName string  `json:"animal_name" yaml:"animal_name"`
	Day        int     `json:"measurement_day" yaml:"measurement_day"`
	Value      float64 `json:"measurement_value" yaml:"measurement_value"`
}

// Treatment is one dosing event.
type Treatment struct {
	GroupName    string  `json:"group_name" yaml:"group_name"`
	AnimalName   string  `json:"animal_name" yaml:"animal_name"`
	Day          int     `json:"treatment_day" yaml:"treatment_day"`
	DoseActivity string  `json:"dose_activity" yaml:"dose_activity"`
	Amount       float64 `json:"test_material_amount" yaml:"test_material_amount"`
	RouteUnits   string  `json:"administration_route_units" yaml:"administration_route_units"`
}

// GroupLabel is the curated presentation record for one group. An empty
// Color means no explicit color was chosen.
type GroupLabel struct {
	GroupName   string `json:"group_name" yaml:"group_name"`
	CuratedName string `json:"curated_group_name" yaml:"curated_group_name"`
	Drug        string `json:"drug" yaml:"drug"`
	Recist      string `json:"recist" yaml:"recist"`
	IsControl   bool   `json:"is_control" yaml:"is_control"`
	Color       string `json:"color" yaml:"color"`
}

// Input is everything one study load hands to Normalize.
type Input struct {
	Study        Info
	Animals      []AnimalSeed
	Measurements []Measurement
	Treatments   []Treatment
	GroupLabels  []GroupLabel
}
