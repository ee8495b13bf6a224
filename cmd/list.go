package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/socstudy-cli/internal/workspace"
)

var (
	listWorkspaces bool
	listFiles      bool
	listWsName     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces or the files of a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listWorkspaces == listFiles { // either both true or both false
			return fmt.Errorf("specify exactly one of --workspaces or --files")
		}
		if listWorkspaces {
			return listAllWorkspaces()
		}
		if listWsName == "" {
			return fmt.Errorf("--workspace is required when using --files")
		}
		ws, err := loadWorkspace(listWsName)
		if err != nil {
			return err
		}
		files := ws.SortedFiles()
		if len(files) == 0 {
			fmt.Println("(no files)")
			return nil
		}
		for _, f := range files {
			fmt.Printf("- %s: %s [%s, %d rows]", f.ID, f.Name, f.Role, f.Rows)
			if f.Description != "" {
				fmt.Printf(" (%s)", f.Description)
			}
			fmt.Println()
		}
		return nil
	},
}

func listAllWorkspaces() error {
	g, err := globalConfig()
	if err != nil {
		return err
	}
	root, err := workspacesRoot(g)
	if err != nil {
		return err
	}
	names, err := workspace.List(root)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("(no workspaces)")
		return nil
	}
	for _, n := range names {
		fmt.Printf("- %s\n", n)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listWorkspaces, "workspaces", false, "list workspaces")
	listCmd.Flags().BoolVar(&listFiles, "files", false, "list files in a workspace")
	listCmd.Flags().StringVarP(&listWsName, "workspace", "w", "", "workspace name for --files")
}
