// Package charts turns a normalized study into chart-ready series. Builders
// are pure: per-chart orderings live in local structures and the study graph
// is never written to.
package charts

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// Kind names a chart.
type Kind string

const (
	KindWaterfall       Kind = "waterfall"
	KindTreatmentGroups Kind = "treatment-groups"
	KindSpider          Kind = "spider"
	KindTGI             Kind = "tgi"
	KindRecist          Kind = "recist"
)

// Kinds lists every chart in display order.
var Kinds = []Kind{KindRecist, KindWaterfall, KindTreatmentGroups, KindSpider, KindTGI}

// ErrUnknownKind is returned for an unrecognized chart or variant name.
var ErrUnknownKind = errors.New("unknown chart")

// ParseKind resolves a chart name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Request selects a chart and its variant.
type Request struct {
	Kind    Kind
	Metric  WaterfallMetric
	Mode    TreatmentMode
	Palette []string
	// Visible limits the treatment-groups measurement series to these raw
	// group names. Empty shows all groups.
	Visible []string
}

// Build dispatches to the chart builder named by the request.
func Build(st *study.Study, req Request) (any, error) {
	switch req.Kind {
	case KindWaterfall:
		m, err := ParseWaterfallMetric(string(req.Metric))
		if err != nil {
			return nil, err
		}
		return Waterfall(st, m, req.Palette), nil
	case KindTreatmentGroups:
		m, err := ParseTreatmentMode(string(req.Mode))
		if err != nil {
			return nil, err
		}
		return TreatmentGroups(st, m, req.Palette, req.Visible), nil
	case KindSpider:
		return Spider(st, req.Palette), nil
	case KindTGI:
		return TGI(st, req.Palette), nil
	case KindRecist:
		return Recist(st, req.Palette), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, req.Kind)
	}
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
