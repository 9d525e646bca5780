package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apcore-dev/modbridge/pkg/debug"
)

var (
	// Global flags
	cfgFile    string
	logLevel   string
	debugFlags string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modbridge",
	Short: "Scan a chi application's routes into callable MCP modules",
	Long: `modbridge discovers the routes of a chi application, infers a JSON
Schema and behavioral annotations for each handler, and exposes the
result as MCP tools backed by an execution bridge.

Quick start:
  modbridge scan              # Scan the demo app, print modules as JSON
  modbridge scan -f openapi   # Emit an OpenAPI 3.1 document instead
  modbridge serve             # Scan and serve the modules over MCP

The demo application bundled with this binary is the scan target; embed
the scan and mcpserver packages to scan your own router.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.Init(debugFlags, logLevel)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&debugFlags, "debug", "", "debug categories (scan, schema, bridge, mcp, all)")
}
