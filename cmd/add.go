package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/socstudy-cli/internal/source"
	"github.com/KaramelBytes/socstudy-cli/internal/workspace"
)

var (
	addWorkspace string
	addRole      string
	addFileDesc  string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a data table to a workspace",
	Long: `Register a CSV, TSV, JSON, YAML or XLSX table with a workspace. The role says
which records it holds: animals, measurements, treatments or groups.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		if addWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		role, err := workspace.ParseRole(addRole)
		if err != nil {
			return err
		}
		g, err := globalConfig()
		if err != nil {
			return err
		}
		ws, err := loadWorkspace(addWorkspace)
		if err != nil {
			return err
		}
		df, err := ws.AddFile(file, role, addFileDesc)
		if err != nil {
			return err
		}
		rows, err := source.CountRows(df.Path, role, g.Filter())
		if err != nil {
			return fmt.Errorf("validate %s: %w", df.Name, err)
		}
		df.Rows = rows
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Added %s table: %s (%d rows)\n", role, df.Name, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addWorkspace, "workspace", "w", "", "workspace name")
	addCmd.Flags().StringVar(&addRole, "role", "", "table role: animals|measurements|treatments|groups")
	addCmd.Flags().StringVar(&addFileDesc, "desc", "", "file description")
}
