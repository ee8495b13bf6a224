package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/socstudy-cli/internal/charts"
	"github.com/KaramelBytes/socstudy-cli/internal/utils"
)

var (
	chartSel     selection
	chartMetric  string
	chartMode    string
	chartVisible []string
	chartOutput  string
)

func chartKindNames() string {
	names := make([]string, 0, len(charts.Kinds))
	for _, k := range charts.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, "|")
}

var chartCmd = &cobra.Command{
	Use:   "chart <kind>",
	Short: "Print chart data for a study as JSON",
	Long: fmt.Sprintf(`Build the data behind one study chart and print it as JSON.
Kinds: %s.`, chartKindNames()),
	Example: `  socstudy chart waterfall -w tm01 --metric fold
  socstudy chart treatment-groups -w tm01 --mode rel-change --visible G1,G3
  socstudy chart tgi --sqlite studies.db --study J000100 -o tgi.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := charts.ParseKind(args[0])
		if err != nil {
			return err
		}
		st, err := loadStudy(cmd.Context(), chartSel)
		if err != nil {
			return err
		}
		data, err := charts.Build(st, charts.Request{
			Kind:    kind,
			Metric:  charts.WaterfallMetric(chartMetric),
			Mode:    charts.TreatmentMode(chartMode),
			Palette: cfg.Palette,
			Visible: chartVisible,
		})
		if err != nil {
			return err
		}
		out, err := utils.PrettyJSON(data)
		if err != nil {
			return err
		}
		return writeOutput(cmd, chartOutput, out, string(kind)+" chart")
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	addSelectionFlags(chartCmd, &chartSel)
	chartCmd.Flags().StringVar(&chartMetric, "metric", "", "waterfall metric: percent|fold")
	chartCmd.Flags().StringVar(&chartMode, "mode", "", "treatment-groups mode: abs-vol|rel-change")
	chartCmd.Flags().StringSliceVar(&chartVisible, "visible", nil, "treatment-groups: group names to show (default all)")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "optional path to write the chart JSON")
}
