// Package main is the entry point for the opsgate server.
//
// Opsgate is a remote tool-execution gateway: an HTTP-reachable MCP
// server exposing a fixed catalog of operator tools (logs, files,
// deployment, read-only queries, system health) against the host it
// administers. Every operation is gated by a fixed credential set and by
// static path/command/name allowlists, and every side effect runs through
// one sandboxed process runner.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/opsgate/audit"
	"github.com/isdmx/opsgate/config"
	"github.com/isdmx/opsgate/gateway"
	"github.com/isdmx/opsgate/logger"
	"github.com/isdmx/opsgate/sandbox"
	"github.com/isdmx/opsgate/tools"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Process runner, the single side-effect primitive
			func(log *zap.Logger) sandbox.Runner {
				return sandbox.NewExecRunner(log)
			},

			// Audit trail for destructive tools
			audit.NewFromConfig,

			// Tool catalog and dispatcher
			tools.NewToolset,
			tools.NewRegistryFromToolset,
			tools.NewDispatcher,

			// Gateway over both transports
			gateway.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, gw *gateway.Gateway) {
				switch cfg.Server.Transport {
				case "stdio":
					go func() {
						if err := gw.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := gw.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}
