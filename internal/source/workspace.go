package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
	"github.com/KaramelBytes/socstudy-cli/internal/workspace"
)

// WorkspaceSource loads studies from workspace directories under Root.
// The study id is the workspace name.
type WorkspaceSource struct {
	Root   string
	Filter Filter
}

func NewWorkspaceSource(root string, f Filter) *WorkspaceSource {
	return &WorkspaceSource{Root: root, Filter: f}
}

func (s *WorkspaceSource) Load(ctx context.Context, studyID string) (*study.Input, error) {
	if studyID == "" || studyID != filepath.Base(studyID) {
		return nil, fmt.Errorf("%w: invalid workspace name %q", ErrStudyNotFound, studyID)
	}
	names, err := workspace.List(s.Root)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	found := false
	for _, n := range names {
		if n == studyID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrStudyNotFound, studyID)
	}
	ws, err := workspace.Load(filepath.Join(s.Root, studyID))
	if err != nil {
		return nil, err
	}
	return LoadWorkspace(ctx, ws, s.Filter)
}

func (s *WorkspaceSource) ListStudies(ctx context.Context) ([]study.Info, error) {
	names, err := workspace.List(s.Root)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	out := make([]study.Info, 0, len(names))
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws, err := workspace.Load(filepath.Join(s.Root, n))
		if err != nil {
			return nil, err
		}
		info := ws.Study
		if info.StudyNumber == "" {
			info.StudyNumber = ws.Name
		}
		out = append(out, info)
	}
	return out, nil
}

// LoadWorkspace reads every file registered in ws.
func LoadWorkspace(ctx context.Context, ws *workspace.Workspace, f Filter) (*study.Input, error) {
	paths := func(r workspace.Role) []string {
		var out []string
		for _, df := range ws.FilesByRole(r) {
			out = append(out, df.Path)
		}
		return out
	}
	return LoadFiles(ctx, FileSet{
		Study:        ws.Study,
		Animals:      paths(workspace.RoleAnimals),
		Measurements: paths(workspace.RoleMeasurements),
		Treatments:   paths(workspace.RoleTreatments),
		Groups:       paths(workspace.RoleGroups),
	}, f)
}

// CountRows decodes a table under the given role and returns its record
// count, failing on any malformed row.
func CountRows(path string, role workspace.Role, f Filter) (int, error) {
	t, err := ReadTable(path)
	if err != nil {
		return 0, err
	}
	switch role {
	case workspace.RoleAnimals:
		recs, err := DecodeAnimals(t)
		return len(recs), err
	case workspace.RoleMeasurements:
		recs, err := DecodeMeasurements(t, f)
		return len(recs), err
	case workspace.RoleTreatments:
		recs, err := DecodeTreatments(t)
		return len(recs), err
	case workspace.RoleGroups:
		recs, err := DecodeGroupLabels(t)
		return len(recs), err
	default:
		return 0, fmt.Errorf("unknown role %q", role)
	}
}
