package source

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// FileSet names the tables that make up one study. Each role may be split
// across several files.
type FileSet struct {
	Study        study.Info
	Animals      []string
	Measurements []string
	Treatments   []string
	Groups       []string
}

// LoadFiles reads and decodes every file of the set.
func LoadFiles(ctx context.Context, fs FileSet, f Filter) (*study.Input, error) {
	in := &study.Input{Study: fs.Study}
	steps := []struct {
		role  string
		paths []string
		fold  func(*Table) error
	}{
		{"animals", fs.Animals, func(t *Table) error {
			recs, err := DecodeAnimals(t)
			in.Animals = append(in.Animals, recs...)
			return err
		}},
		{"measurements", fs.Measurements, func(t *Table) error {
			recs, err := DecodeMeasurements(t, f)
			in.Measurements = append(in.Measurements, recs...)
			return err
		}},
		{"treatments", fs.Treatments, func(t *Table) error {
			recs, err := DecodeTreatments(t)
			in.Treatments = append(in.Treatments, recs...)
			return err
		}},
		{"groups", fs.Groups, func(t *Table) error {
			recs, err := DecodeGroupLabels(t)
			in.GroupLabels = append(in.GroupLabels, recs...)
			return err
		}},
	}
	for _, s := range steps {
		for _, p := range s.paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			t, err := ReadTable(p)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", s.role, err)
			}
			if err := s.fold(t); err != nil {
				return nil, fmt.Errorf("load %s: %w", s.role, err)
			}
		}
	}
	if len(in.Animals) == 0 {
		return nil, fmt.Errorf("no animal records in file set: %w", study.ErrInvalidRecord)
	}
	return in, nil
}
