package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/apcore-dev/modbridge/pkg/config"
	"github.com/apcore-dev/modbridge/pkg/output"
	"github.com/apcore-dev/modbridge/pkg/scan"
)

var (
	scanFormat  string
	scanOutput  string
	scanInclude string
	scanExclude string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the application's routes and emit module records",
	Long: `Scan walks the route table, builds one module record per data route,
and writes the result to stdout or a file.

Examples:
  modbridge scan
  modbridge scan --format yaml
  modbridge scan --format openapi --output api.json
  modbridge scan --include '^users\.'`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "output format: json, yaml, or openapi (default from config)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "output file (default stdout)")
	scanCmd.Flags().StringVar(&scanInclude, "include", "", "keep only module IDs matching this regex")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "drop module IDs matching this regex")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	opts := scan.Options{
		Include: firstNonEmpty(scanInclude, cfg.Scan.Include),
		Exclude: firstNonEmpty(scanExclude, cfg.Scan.Exclude),
	}

	scopes, _ := demoScopes()
	router := demoRouter(scopes)

	mods, err := scan.New().Scan(scan.ChiTable(router), opts)
	if err != nil {
		return err
	}
	if len(mods) == 0 {
		return fmt.Errorf("no modules found")
	}

	for _, m := range mods {
		for _, w := range m.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", m.ModuleID, w)
		}
	}

	var w io.Writer = cmd.OutOrStdout()
	if scanOutput != "" {
		f, err := os.Create(scanOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	format := firstNonEmpty(scanFormat, cfg.Output.Format)
	switch format {
	case "json":
		return output.WriteJSON(w, mods)
	case "yaml":
		return output.WriteYAML(w, mods)
	case "openapi":
		return output.WriteOpenAPI(w, mods, "modbridge demo", version)
	default:
		return fmt.Errorf("unknown output format %q (want json, yaml, or openapi)", format)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
