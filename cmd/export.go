package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/socstudy-cli/internal/config"
	"github.com/KaramelBytes/socstudy-cli/internal/export"
	"github.com/KaramelBytes/socstudy-cli/internal/publish"
	"github.com/KaramelBytes/socstudy-cli/internal/source"
	"github.com/KaramelBytes/socstudy-cli/internal/utils"
	"github.com/KaramelBytes/socstudy-cli/internal/workspace"
)

var (
	exportSel     selection
	exportAll     bool
	exportFormat  string
	exportOut     string
	exportPublish string
	exportQuiet   bool
)

var exportCmd = &cobra.Command{
	Use:   "export [study-or-workspace ...]",
	Short: "Export per-animal and per-group tables for one or more studies",
	Long: `Normalize each selected study and write animals and groups tables plus a run
manifest under <out>/<study>. Studies are workspace names, or study numbers when
a SQL source is selected. When a publish driver is configured the artifacts are
also uploaded under <study>/<run-id>/.`,
	Example: `  socstudy export tm01 tm02 --format parquet
  socstudy export --all --sqlite studies.db --out ./exports
  socstudy export -w tm01 --publish fs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := globalConfig()
		if err != nil {
			return err
		}
		format := exportFormat
		if format == "" {
			format = g.ExportFormat
		}
		if format, err = export.ParseFormat(format); err != nil {
			return err
		}
		outRoot := exportOut
		if outRoot == "" {
			outRoot = g.ExportDir
		}
		if outRoot, err = utils.ExpandHome(outRoot); err != nil {
			return err
		}

		sel := exportSel
		if err := sel.resolveCwd(); err != nil {
			return err
		}
		b, err := openBackend(g, sel)
		if err != nil {
			return err
		}
		defer b.Close()

		ctx := cmd.Context()
		ids, err := exportIDs(ctx, g, b, sel, args)
		if err != nil {
			return err
		}
		store, err := exportStore(ctx, g)
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		total := len(ids)
		for i, id := range ids {
			if !exportQuiet {
				fmt.Printf("[%d/%d] Exporting %s...\n", i+1, total, id)
			}
			st, err := loadFrom(ctx, g, b.src, id)
			if err != nil {
				return fmt.Errorf("export %s: %w", id, err)
			}
			res, err := export.Run(ctx, st, export.Options{
				OutDir:    filepath.Join(outRoot, export.StudyKey(st.Info)),
				Format:    format,
				Palette:   g.Palette,
				Publisher: store,
				RunID:     runID,
				Logger:    logger,
			})
			if err != nil {
				return fmt.Errorf("export %s: %w", id, err)
			}
			if !exportQuiet {
				fmt.Printf("✓ Wrote %d files to %s\n", len(res.Paths), res.Dir)
				if len(res.Published) > 0 {
					fmt.Printf("✓ Published %d objects via %s\n", len(res.Published), store.Driver())
				}
				if n := res.Manifest.Diagnostics; n > 0 {
					fmt.Printf("⚠ %d normalization notes, see %s\n", n, filepath.Join(res.Dir, export.ManifestName))
				}
			}
		}
		return nil
	},
}

// exportIDs resolves the batch: positional ids, then -w and --study, then
// every known study with --all. Duplicates are dropped in order.
func exportIDs(ctx context.Context, g *cfgpkg.Global, b *backend, sel selection, args []string) ([]string, error) {
	candidates := append([]string{}, args...)
	if sel.workspace != "" {
		candidates = append(candidates, sel.workspace)
	}
	if sel.study != "" {
		candidates = append(candidates, sel.study)
	}
	if exportAll {
		all, err := allStudyIDs(ctx, g, b)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, all...)
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, id := range candidates {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("no studies selected (pass names, -w, --study or --all)")
	}
	return ids, nil
}

func allStudyIDs(ctx context.Context, g *cfgpkg.Global, b *backend) ([]string, error) {
	if b.sql == nil {
		root, err := workspacesRoot(g)
		if err != nil {
			return nil, err
		}
		return workspace.List(root)
	}
	lister, ok := b.src.(source.Lister)
	if !ok {
		return nil, fmt.Errorf("%s source cannot list studies", b.kind)
	}
	infos, err := lister.ListStudies(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.StudyNumber)
	}
	return ids, nil
}

// exportStore opens the configured publish store. --publish overrides the
// configured driver; "none" disables publishing.
func exportStore(ctx context.Context, g *cfgpkg.Global) (publish.Store, error) {
	pc, ok := g.Publish()
	switch exportPublish {
	case "":
	case "none":
		ok = false
	default:
		pc.Driver = publish.Driver(exportPublish)
		ok = true
	}
	if !ok {
		return nil, nil
	}
	if pc.Driver == publish.DriverFS && pc.FSRoot != "" {
		root, err := utils.ExpandHome(pc.FSRoot)
		if err != nil {
			return nil, err
		}
		pc.FSRoot = root
	}
	return publish.Open(ctx, pc)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addSelectionFlags(exportCmd, &exportSel)
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every study of the selected source")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "table format: csv|parquet (default from config)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output root directory (default from config)")
	exportCmd.Flags().StringVar(&exportPublish, "publish", "", "publish driver override: none|fs|memory|s3")
	exportCmd.Flags().BoolVar(&exportQuiet, "quiet", false, "reduce output; suppress per-study progress")
}
