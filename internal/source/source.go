// Package source loads study records from SQL databases, tabular files and
// study workspaces.
package source

import (
	"context"
	"errors"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// ErrStudyNotFound is returned when a study id matches nothing.
var ErrStudyNotFound = errors.New("study not found")

// Source loads the raw records of one study.
type Source interface {
	Load(ctx context.Context, studyID string) (*study.Input, error)
}

// Lister enumerates the studies a source can load.
type Lister interface {
	ListStudies(ctx context.Context) ([]study.Info, error)
}

// Filter narrows measurements to tumor volume readings. Empty fields match
// everything.
type Filter struct {
	Activities []string
	Units      string
}

// DefaultFilter keeps caliper tumor measurements in mm3.
func DefaultFilter() Filter {
	return Filter{
		Activities: []string{"Caliper - Tumor measurements", "Caliper - Tumor measurements (trilogy)"},
		Units:      "mm3",
	}
}

func (f Filter) keep(activity, units string) bool {
	if f.Units != "" && units != f.Units {
		return false
	}
	if len(f.Activities) == 0 {
		return true
	}
	for _, a := range f.Activities {
		if a == activity {
			return true
		}
	}
	return false
}
