package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/socstudy-cli/internal/source"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

var (
	importWorkspace string
	importSel       selection
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a workspace's records into a SQL study database",
	Long: `Load every table registered with a workspace and store the records in the
study schema of a SQLite or Postgres database. Records already stored under the
same study number are replaced.`,
	Example: `  socstudy import -w tm01 --sqlite studies.db
  socstudy import -w tm01 --postgres postgres://user@localhost/studies`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		g, err := globalConfig()
		if err != nil {
			return err
		}
		ws, err := loadWorkspace(importWorkspace)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		in, err := source.LoadWorkspace(ctx, ws, g.Filter())
		if err != nil {
			return err
		}
		if err := study.Validate(*in); err != nil {
			return err
		}

		b, err := openBackend(g, importSel)
		if err != nil {
			return err
		}
		defer b.Close()
		if b.sql == nil {
			return fmt.Errorf("import needs --sqlite or --postgres (or sqlite_path/postgres_dsn in config)")
		}
		if err := b.sql.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := b.sql.Import(ctx, in); err != nil {
			return err
		}
		fmt.Printf("✓ Imported %s into %s: %d animals, %d measurements, %d treatments, %d group labels\n",
			in.Study.StudyNumber, b.kind, len(in.Animals), len(in.Measurements), len(in.Treatments), len(in.GroupLabels))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importWorkspace, "workspace", "w", "", "workspace to import")
	addBackendFlags(importCmd, &importSel)
}
