// Web front end for go-salas practice rooms
package main

import (
	"os"

	"github.com/go-while/go-salas/internal/config"
	"github.com/spf13/cobra"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion
	if err := NewCLI().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewCLI builds the salas command tree
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "salas",
		Short:   "Practice rooms web front end",
		Version: appVersion,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (default: ./config.yaml, ./configs/config.yaml, /etc/go-salas/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Load environment variables from this file if it exists")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the web server",
		Args:    cobra.NoArgs,
		RunE:    runServe,
	}
	serveCmd.Flags().Int("webport", 0, "Web server port (default: 11980)")
	serveCmd.Flags().Bool("webssl", false, "Enable SSL")
	serveCmd.Flags().String("websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	serveCmd.Flags().String("websslkey", "", "SSL key file (/path/to/privkey.pem)")
	serveCmd.Flags().String("pprof", "", "Serve pprof on this address (e.g. 127.0.0.1:51111)")
	serveCmd.SetUsageTemplate(serveCmd.UsageTemplate() + `
Environment Variables:

    SALAS_WEB_LISTEN_PORT   Web server port
    SALAS_WEB_TEMPLATE_DIR  Load templates from disk instead of the binary
    SALAS_WEB_BLOCK_BOTS    Reject known scrapers by user agent
    SALAS_LOG_LEVEL         debug, info, warn or error
    SALAS_TELEMETRY_TRACING Export traces to stdout
`)

	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printRoutes(cmd.OutOrStdout())
			if assets, _ := cmd.Flags().GetBool("assets"); assets {
				return printAssets(cmd.OutOrStdout())
			}
			return nil
		},
	}
	routesCmd.Flags().Bool("assets", false, "Also list the embedded static assets served under /static/")

	rootCmd.AddCommand(serveCmd, routesCmd)
	return rootCmd
}
