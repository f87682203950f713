package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/artifacts"
	"github.com/jackzampolin/easel/internal/assemble"
	"github.com/jackzampolin/easel/internal/completion"
	"github.com/jackzampolin/easel/internal/config"
	"github.com/jackzampolin/easel/internal/docstore"
	"github.com/jackzampolin/easel/internal/home"
	"github.com/jackzampolin/easel/internal/providers"
	"github.com/jackzampolin/easel/internal/server"
	"github.com/jackzampolin/easel/internal/server/endpoints"
	"github.com/jackzampolin/easel/internal/store"
	"github.com/jackzampolin/easel/internal/svcctx"
	"github.com/jackzampolin/easel/internal/workflow"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Easel server",
	Long: `Start the Easel HTTP server.

This wires the session store, the OpenAI-backed planner and image
generators, the background completion pool, and the PDF assembler.

Examples:
  easel serve                    # Start on default port 8383
  easel serve --port 3000        # Start on custom port
  easel serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config, preferring the home config file when none was given
		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		cm, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cm.WatchConfig()
		cfg := cm.Get()

		// Session store
		sessions, err := store.NewSQLiteStore(ctx, h.DBPath())
		if err != nil {
			return err
		}

		// Providers
		openaiClient := providers.NewOpenAIClient(cm.Get().ToOpenAIConfig())
		cm.OnChange(func(c *config.Config) {
			logger.Info("config reloaded; provider changes apply on restart")
		})

		documents := docstore.NewFSStore(h)

		// Workflow engine
		engine, err := workflow.New(workflow.Config{
			Store:      sessions,
			Artifacts:  artifacts.NewFSStore(h.ArtifactsDir()),
			Planner:    openaiClient,
			Summarizer: openaiClient,
			Images:     openaiClient,
			Assembler:  assemble.New(assemble.Config{Logger: logger}),
			Documents:  documents,
			WindowSize: cfg.Generation.WindowSize,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		// Background completion pool
		pool := completion.New(completion.Config{
			Sweeper:   engine,
			Workers:   cfg.Generation.Workers,
			QueueSize: cfg.Generation.QueueSize,
			Logger:    logger,
		})
		engine.SetDispatcher(pool)

		services := &svcctx.Services{
			Engine:      engine,
			Store:       sessions,
			Documents:   documents,
			Completions: pool,
			Config:      cm,
			Logger:      logger,
			Home:        h,
		}

		host := serveHost
		if !cmd.Flags().Changed("host") && cfg.Server.Host != "" {
			host = cfg.Server.Host
		}
		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port != 0 {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:            host,
			Port:            port,
			AuthToken:       cfg.ResolvedAuthToken(),
			Services:        services,
			ConfigManager:   cm,
			SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8383, "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
