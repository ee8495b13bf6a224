package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/socstudy-cli/internal/dto"
	"github.com/KaramelBytes/socstudy-cli/internal/report"
	"github.com/KaramelBytes/socstudy-cli/internal/utils"
)

var (
	summarySel    selection
	summaryOutput string
	summaryJSON   bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize a study's groups, RECIST calls and animals",
	Long: `Load and normalize a study, then print a Markdown summary of its groups,
RECIST categories, per-animal tumor changes and normalization notes.
With --json the full normalized study is printed instead.`,
	Example: `  socstudy summary -w tm01
  socstudy summary --sqlite studies.db --study J000100 -o tm01.md
  socstudy summary -w tm01 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadStudy(cmd.Context(), summarySel)
		if err != nil {
			return err
		}
		var out []byte
		if summaryJSON {
			out, err = utils.PrettyJSON(dto.NewStudyView(st, cfg.Palette))
			if err != nil {
				return err
			}
		} else {
			out = []byte(report.Markdown(st, cfg.Palette))
		}
		return writeOutput(cmd, summaryOutput, out, "summary")
	},
}

// writeOutput writes data to path when set, otherwise to the command's stdout.
func writeOutput(cmd *cobra.Command, path string, data []byte, what string) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("✓ Wrote %s to %s\n", what, path)
	return nil
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	addSelectionFlags(summaryCmd, &summarySel)
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "", "optional path to write the summary")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the normalized study as JSON")
}
