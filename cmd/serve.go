package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/socstudy-cli/internal/server"
)

var (
	serveSel  selection
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve study JSON, reports, chart data and metrics over HTTP",
	Long: `Start an HTTP service over the selected study source. Endpoints:
  GET /healthz
  GET /studies
  GET /studies/{id}
  GET /studies/{id}/report
  GET /studies/{id}/charts/{kind}?metric=&mode=&visible=
  GET /metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := globalConfig()
		if err != nil {
			return err
		}
		policy, err := g.Policy()
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = g.ServeAddr
		}
		b, err := openBackend(g, serveSel)
		if err != nil {
			return err
		}
		defer b.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(server.Options{
			Source:  b.src,
			Policy:  policy,
			Palette: g.Palette,
			Logger:  logger,
		})
		fmt.Printf("✓ Serving %s studies on %s\n", b.kind, addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addBackendFlags(serveCmd, &serveSel)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
