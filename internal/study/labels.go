package study

import (
	"fmt"
	"strconv"
	"strings"
)

// NoTreatmentLabel is used for groups that never received a dose.
const NoTreatmentLabel = "No Treatment"

func (b *builder) applyLabels(labels []GroupLabel) {
	for _, g := range b.groups {
		var rec *GroupLabel
		for i := range labels {
			if labels[i].GroupName != g.Name {
				continue
			}
			if rec != nil {
				b.diag.add(DuplicateGroupLabel, g.Name, "", "duplicate group label record ignored")
				continue
			}
			rec = &labels[i]
		}
		if rec == nil {
			g.Label = g.Name
			b.diag.add(MissingGroupLabel, g.Name, "", "no group label record, using raw group name")
			continue
		}
		g.Label = composeLabel(g, *rec)
		g.RecistCat = rec.Recist
		g.IsControl = rec.IsControl
		g.Color = strings.TrimSpace(rec.Color)
	}
	b.dedupeColors()
}

func composeLabel(g *Group, rec GroupLabel) string {
	if rec.CuratedName != "" {
		return rec.CuratedName
	}
	if len(g.DoseActivities) == 0 {
		return NoTreatmentLabel
	}
	drug := strings.TrimSpace(rec.Drug)
	drugs := strings.Split(drug, "+")
	if len(drugs) < 2 {
		return withDose(drug, []string{doseText(g.DoseAmounts, g.DoseUnits)})
	}
	var doses []string
	for _, d := range drugs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		doses = append(doses, drugDose(g, d))
	}
	return withDose(drug, doses)
}

// withDose renders "drug (dose, dose)", or the bare drug when no dose is known.
func withDose(drug string, doses []string) string {
	var kept []string
	for _, d := range doses {
		if d != "" {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return drug
	}
	return fmt.Sprintf("%s (%s)", drug, strings.Join(kept, ", "))
}

// drugDose is the "amount unit" text of one drug of a combination, taken
// from the activities that mention it.
func drugDose(g *Group, drug string) string {
	needle := strings.ToLower(drug)
	var amounts []float64
	var units []string
	for _, c := range g.DoseCombos {
		if !strings.Contains(strings.ToLower(c.Activity), needle) {
			continue
		}
		for _, a := range c.Amounts {
			amounts = appendUniqueFloat(amounts, a)
		}
		for _, u := range c.Units {
			units = appendUniqueString(units, u)
		}
	}
	return doseText(amounts, units)
}

func doseText(amounts []float64, units []string) string {
	var nonEmpty []string
	for _, u := range units {
		if u != "" {
			nonEmpty = append(nonEmpty, u)
		}
	}
	return strings.TrimSpace(joinAmounts(amounts) + " " + strings.Join(nonEmpty, ", "))
}

func joinAmounts(amounts []float64) string {
	s := make([]string, len(amounts))
	for i, a := range amounts {
		s[i] = strconv.FormatFloat(a, 'f', -1, 64)
	}
	return strings.Join(s, ", ")
}

func appendUniqueFloat(s []float64, v float64) []float64 {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func appendUniqueString(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// dedupeColors nulls an explicit color already claimed by an earlier group.
func (b *builder) dedupeColors() {
	seen := make(map[string]string)
	for _, g := range b.groups {
		if g.Color == "" {
			continue
		}
		key := strings.ToLower(g.Color)
		if owner, taken := seen[key]; taken {
			b.diag.add(ColorCollision, g.Name, "", fmt.Sprintf("color %s already used by group %q, falling back to palette", g.Color, owner))
			g.Color = ""
			continue
		}
		seen[key] = g.Name
	}
}
