package charts

import "github.com/KaramelBytes/socstudy-cli/internal/study"

type RecistRow struct {
	Group    string `json:"group"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Category string `json:"recist"`
}

type RecistTable struct {
	Title string      `json:"title"`
	Rows  []RecistRow `json:"rows"`
}

// Recist lists the curated response category of every group.
func Recist(st *study.Study, palette []string) RecistTable {
	t := RecistTable{Title: st.Info.DisplayName(), Rows: make([]RecistRow, 0, len(st.Groups))}
	for _, g := range st.Groups {
		t.Rows = append(t.Rows, RecistRow{
			Group:    g.Name,
			Label:    g.Label,
			Color:    study.ColorFor(g, palette),
			Category: g.RecistCat,
		})
	}
	return t
}
