package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/apcore-dev/modbridge/pkg/bridge"
	"github.com/apcore-dev/modbridge/pkg/config"
	"github.com/apcore-dev/modbridge/pkg/mcpserver"
	"github.com/apcore-dev/modbridge/pkg/registry"
	"github.com/apcore-dev/modbridge/pkg/scan"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Scan the application and serve its modules over MCP",
	Long: `Serve scans the route table, registers every module with an execution
bridge, and exposes the registry as MCP tools over streamable HTTP.

Examples:
  modbridge serve
  modbridge serve --addr :9090
  MODBRIDGE_WORKERS=8 modbridge serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	scopes, _ := demoScopes()
	router := demoRouter(scopes)

	bindings, err := scan.New().Bindings(scan.ChiTable(router), scan.Options{
		Include: cfg.Scan.Include,
		Exclude: cfg.Scan.Exclude,
	})
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		return fmt.Errorf("no modules found")
	}

	br := bridge.New(scopes, bridge.Config{
		Workers:   cfg.Bridge.Workers,
		QueueSize: cfg.Bridge.QueueSize,
	})
	defer br.Close()

	reg := registry.New(br, registry.Logging())
	for _, b := range bindings {
		if b.Fn == nil {
			slog.Warn("module has no typed function, not registering",
				"module", b.Module.ModuleID,
				"route", b.Module.RoutePattern)
			continue
		}
		h, err := bridge.Func(b.Fn)
		if err != nil {
			slog.Warn("module function cannot be bound, not registering",
				"module", b.Module.ModuleID,
				"error", err)
			continue
		}
		reg.Register(b.Module, h)
	}

	addr := serveAddr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Server.Port)
	}

	srv, err := mcpserver.NewServer(reg,
		mcpserver.WithAddr(addr),
		mcpserver.WithMCPPath(cfg.Server.MCPPath),
		mcpserver.WithMetrics(cfg.Observability.Metrics.Enabled, cfg.Observability.Metrics.Path),
		mcpserver.WithServerInfo("modbridge", version),
	)
	if err != nil {
		return err
	}

	return srv.ListenAndServe()
}
