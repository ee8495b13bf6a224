package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/socstudy-cli/internal/config"
	"github.com/KaramelBytes/socstudy-cli/internal/source"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
	"github.com/KaramelBytes/socstudy-cli/internal/utils"
	"github.com/KaramelBytes/socstudy-cli/internal/workspace"
)

// selection holds the flags that pick a study backend and a study in it.
type selection struct {
	workspace string
	sqlite    string
	postgres  string
	study     string

	// root overrides the workspaces directory after resolveCwd.
	root string
}

func addSelectionFlags(c *cobra.Command, sel *selection) {
	c.Flags().StringVarP(&sel.workspace, "workspace", "w", "", "workspace name, or . for the enclosing workspace")
	addBackendFlags(c, sel)
	c.Flags().StringVar(&sel.study, "study", "", "study number or curated study number")
}

func addBackendFlags(c *cobra.Command, sel *selection) {
	c.Flags().StringVar(&sel.sqlite, "sqlite", "", "SQLite study database path (default from config)")
	c.Flags().StringVar(&sel.postgres, "postgres", "", "Postgres DSN (default from config)")
}

// resolveCwd turns "-w ." into the workspace enclosing the working directory.
func (sel *selection) resolveCwd() error {
	if sel.workspace != "." {
		return nil
	}
	dir, err := utils.FindRoot("", workspace.FileName)
	if err != nil {
		return fmt.Errorf("no workspace found from the current directory: %w", err)
	}
	sel.workspace = filepath.Base(dir)
	sel.root = filepath.Dir(dir)
	return nil
}

// backend is an opened study source. Close releases database handles.
type backend struct {
	src    source.Source
	sql    *source.SQLSource
	kind   string
	closer func() error
}

func (b *backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// openBackend resolves the source in order: -w, --sqlite, --postgres, then
// sqlite_path and postgres_dsn from config, then the workspaces directory.
func openBackend(g *cfgpkg.Global, sel selection) (*backend, error) {
	f := g.Filter()
	sqlitePath, dsn := sel.sqlite, sel.postgres
	if sel.workspace == "" && sqlitePath == "" && dsn == "" {
		sqlitePath, dsn = g.SQLitePath, g.PostgresDSN
	}
	switch {
	case sel.workspace != "" || (sqlitePath == "" && dsn == ""):
		root := sel.root
		if root == "" {
			var err error
			if root, err = workspacesRoot(g); err != nil {
				return nil, err
			}
		}
		return &backend{src: source.NewWorkspaceSource(root, f), kind: "workspace"}, nil
	case sqlitePath != "":
		s, err := source.NewSQLite(sqlitePath, f)
		if err != nil {
			return nil, err
		}
		return &backend{src: s, sql: s, kind: "sqlite", closer: s.Close}, nil
	default:
		s, err := source.NewPostgres(dsn, g.PostgresDriver, f)
		if err != nil {
			return nil, err
		}
		return &backend{src: s, sql: s, kind: "postgres", closer: s.Close}, nil
	}
}

// studyID returns the id to load. Workspaces are addressed by name.
func (sel *selection) studyID() (string, error) {
	if sel.workspace != "" {
		if sel.workspace != filepath.Base(sel.workspace) {
			return "", fmt.Errorf("invalid workspace name %q", sel.workspace)
		}
		return sel.workspace, nil
	}
	if sel.study == "" {
		return "", errors.New("select a study with -w/--workspace or --study")
	}
	return sel.study, nil
}

// loadStudy opens the selected backend and returns the normalized study.
func loadStudy(ctx context.Context, sel selection) (*study.Study, error) {
	g, err := globalConfig()
	if err != nil {
		return nil, err
	}
	if err := sel.resolveCwd(); err != nil {
		return nil, err
	}
	id, err := sel.studyID()
	if err != nil {
		return nil, err
	}
	b, err := openBackend(g, sel)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return loadFrom(ctx, g, b.src, id)
}

func loadFrom(ctx context.Context, g *cfgpkg.Global, src source.Source, id string) (*study.Study, error) {
	policy, err := g.Policy()
	if err != nil {
		return nil, err
	}
	in, err := src.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := study.Normalize(*in, study.Options{Logger: logger, ControlPolicy: policy})
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", id, err)
	}
	logger.Debug().Str("study", id).Int("groups", len(st.Groups)).Int("animals", len(st.Animals)).
		Int("diagnostics", len(st.Diagnostics)).Msg("study loaded")
	return st, nil
}
