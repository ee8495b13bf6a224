package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	wsName          string
	wsStudyNumber   string
	wsCuratedNumber string
	wsCuratedName   string
	wsClear         bool
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage per-workspace settings",
}

var workspaceSetStudyCmd = &cobra.Command{
	Use:   "set-study",
	Short: "Set or clear the study numbers and curated name of a workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if wsName == "" {
			return fmt.Errorf("--workspace is required")
		}
		ws, err := loadWorkspace(wsName)
		if err != nil {
			return err
		}
		if wsClear {
			ws.Study.StudyNumber = ws.Name
			ws.Study.CuratedNumber = ""
			ws.Study.CuratedName = ""
		} else {
			f := cmd.Flags()
			if !f.Changed("study-number") && !f.Changed("curated-number") && !f.Changed("curated-name") {
				return fmt.Errorf("nothing to set; pass --study-number, --curated-number, --curated-name or --clear")
			}
			if f.Changed("study-number") {
				if wsStudyNumber == "" {
					return fmt.Errorf("study number cannot be empty")
				}
				ws.Study.StudyNumber = wsStudyNumber
			}
			if f.Changed("curated-number") {
				ws.Study.CuratedNumber = wsCuratedNumber
			}
			if f.Changed("curated-name") {
				ws.Study.CuratedName = wsCuratedName
			}
		}
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Study for %s: %s\n", ws.Name, ws.Study.DisplayName())
		return nil
	},
}

var workspaceRemoveCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Unregister a data file from a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if wsName == "" {
			return fmt.Errorf("--workspace is required")
		}
		ws, err := loadWorkspace(wsName)
		if err != nil {
			return err
		}
		if err := ws.RemoveFile(args[0]); err != nil {
			return err
		}
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Removed file %s from %s\n", args[0], ws.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceSetStudyCmd)
	workspaceCmd.AddCommand(workspaceRemoveCmd)

	workspaceCmd.PersistentFlags().StringVarP(&wsName, "workspace", "w", "", "workspace name")
	workspaceSetStudyCmd.Flags().StringVar(&wsStudyNumber, "study-number", "", "study number")
	workspaceSetStudyCmd.Flags().StringVar(&wsCuratedNumber, "curated-number", "", "curated study number")
	workspaceSetStudyCmd.Flags().StringVar(&wsCuratedName, "curated-name", "", "curated study name")
	workspaceSetStudyCmd.Flags().BoolVar(&wsClear, "clear", false, "reset to the workspace name and clear curated fields")
}
