// Package export writes normalized study tables to CSV or Parquet and
// optionally publishes them to a blob store.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/socstudy-cli/internal/publish"
	"github.com/KaramelBytes/socstudy-cli/internal/report"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
	"github.com/KaramelBytes/socstudy-cli/internal/utils"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// ManifestName is the run manifest written next to the tables.
const ManifestName = "manifest.json"

// Options configure one export run.
type Options struct {
	OutDir    string
	Format    string
	Palette   []string
	Publisher publish.Store
	// RunID defaults to a random UUID.
	RunID  string
	Logger zerolog.Logger
}

// ManifestFile lists one artifact of a run.
type ManifestFile struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows,omitempty"`
	Bytes int    `json:"bytes"`
}

// Manifest describes an export run.
type Manifest struct {
	RunID       string         `json:"run_id"`
	Study       study.Info     `json:"study"`
	Format      string         `json:"format"`
	CreatedAt   time.Time      `json:"created_at"`
	Groups      int            `json:"groups"`
	Animals     int            `json:"animals"`
	Diagnostics int            `json:"diagnostics"`
	Files       []ManifestFile `json:"files"`
}

// Result reports where a run wrote its artifacts.
type Result struct {
	Manifest  Manifest
	Dir       string
	Paths     []string
	Published []publish.Info
}

// ParseFormat validates a format name. Empty means csv.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected csv|parquet)", s)
	}
}

type artifact struct {
	name        string
	contentType string
	data        []byte
	rows        int
}

// Run writes animals.<ext>, groups.<ext> and manifest.json into opts.OutDir.
func Run(ctx context.Context, st *study.Study, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("output directory is required")
	}
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	animals := animalRows(st)
	groups := groupRows(st, report.Build(st, opts.Palette))

	var arts []artifact
	switch format {
	case FormatCSV:
		a, err := marshalAnimalsCSV(animals)
		if err != nil {
			return nil, fmt.Errorf("write animals csv: %w", err)
		}
		g, err := marshalGroupsCSV(groups)
		if err != nil {
			return nil, fmt.Errorf("write groups csv: %w", err)
		}
		arts = append(arts,
			artifact{"animals.csv", "text/csv", a, len(animals)},
			artifact{"groups.csv", "text/csv", g, len(groups)})
	case FormatParquet:
		a, err := marshalParquet(animals)
		if err != nil {
			return nil, fmt.Errorf("write animals parquet: %w", err)
		}
		g, err := marshalParquet(groups)
		if err != nil {
			return nil, fmt.Errorf("write groups parquet: %w", err)
		}
		arts = append(arts,
			artifact{"animals.parquet", "application/vnd.apache.parquet", a, len(animals)},
			artifact{"groups.parquet", "application/vnd.apache.parquet", g, len(groups)})
	}

	m := Manifest{
		RunID:       runID,
		Study:       st.Info,
		Format:      format,
		CreatedAt:   time.Now().UTC(),
		Groups:      len(st.Groups),
		Animals:     len(st.Animals),
		Diagnostics: len(st.Diagnostics),
	}
	for _, a := range arts {
		m.Files = append(m.Files, ManifestFile{Name: a.name, Rows: a.rows, Bytes: len(a.data)})
	}
	mb, err := utils.PrettyJSON(m)
	if err != nil {
		return nil, err
	}
	arts = append(arts, artifact{name: ManifestName, contentType: "application/json", data: mb})

	if err := utils.EnsureDir(opts.OutDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	res := &Result{Manifest: m, Dir: opts.OutDir}
	for _, a := range arts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := filepath.Join(opts.OutDir, a.name)
		if err := os.WriteFile(p, a.data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.name, err)
		}
		res.Paths = append(res.Paths, p)
	}

	if opts.Publisher != nil {
		prefix := publish.Join(StudyKey(st.Info), runID)
		for _, a := range arts {
			info, err := opts.Publisher.Put(ctx, publish.Join(prefix, a.name), bytes.NewReader(a.data), a.contentType)
			if err != nil {
				return nil, fmt.Errorf("publish %s: %w", a.name, err)
			}
			opts.Logger.Debug().Str("driver", string(opts.Publisher.Driver())).Str("key", info.Key).Msg("published artifact")
			res.Published = append(res.Published, info)
		}
	}
	return res, nil
}

// StudyKey is the path-safe name a study is published under.
func StudyKey(info study.Info) string {
	k := info.CuratedNumber
	if k == "" {
		k = info.StudyNumber
	}
	if k == "" {
		k = "study"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '_'
		}
		return r
	}, k)
}
