package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/socstudy-cli/internal/source"
)

var studiesSel selection

var studiesCmd = &cobra.Command{
	Use:   "studies",
	Short: "List the studies of a SQL database or the workspaces directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := globalConfig()
		if err != nil {
			return err
		}
		b, err := openBackend(g, studiesSel)
		if err != nil {
			return err
		}
		defer b.Close()
		lister, ok := b.src.(source.Lister)
		if !ok {
			return fmt.Errorf("%s source cannot list studies", b.kind)
		}
		infos, err := lister.ListStudies(cmd.Context())
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("(no studies)")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("- %s", info.StudyNumber)
			if info.CuratedNumber != "" {
				fmt.Printf(" [%s]", info.CuratedNumber)
			}
			if info.CuratedName != "" {
				fmt.Printf(": %s", info.CuratedName)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(studiesCmd)
	addBackendFlags(studiesCmd, &studiesSel)
}
