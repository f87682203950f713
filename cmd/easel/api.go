package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/server/endpoints"
)

var (
	serverURL string
	authToken string
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Easel server via HTTP.

These commands require a running server (easel serve).
Use --server to specify a custom server URL.

Examples:
  easel api health                          # Check server health
  easel api sessions plan --title "Space"   # Plan a new session
  easel api pages generate <id> 1 --wait    # Render page 1 and wait`,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session management commands",
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Per-page review commands",
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Finalized document commands",
}

var apiWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the server to be ready",
	Long: `Wait for the server health endpoint to respond.

This is useful in scripts to ensure the server is fully started
before running other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for server (timeout: %s)...\n", timeout)

		if err := getClient().WaitReady(cmd.Context(), timeout); err != nil {
			return fmt.Errorf("server not ready: %w", err)
		}

		fmt.Println("Server is ready")
		return nil
	},
}

// getClient builds the API client at runtime (after flag parsing).
func getClient() *api.Client {
	token := authToken
	if token == "" {
		token = os.Getenv("EASEL_AUTH_TOKEN")
	}
	return api.NewClient(serverURL, token)
}

func init() {
	// Persistent so all subcommands inherit them
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8383", "Server URL",
	)
	apiCmd.PersistentFlags().StringVar(
		&authToken, "token", "", "Bearer token (default: $EASEL_AUTH_TOKEN)",
	)

	apiWaitCmd.Flags().Duration("timeout", 30*time.Second, "How long to wait for the server")

	// Health and readiness at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getClient))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getClient))
	apiCmd.AddCommand(apiWaitCmd)

	// Sessions as subcommand group
	sessionsCmd.AddCommand((&endpoints.PlanEndpoint{}).Command(getClient))
	sessionsCmd.AddCommand((&endpoints.GetSessionEndpoint{}).Command(getClient))
	sessionsCmd.AddCommand((&endpoints.FinalizeEndpoint{}).Command(getClient))

	// Pages as subcommand group
	pagesCmd.AddCommand((&endpoints.UpdatePromptEndpoint{}).Command(getClient))
	pagesCmd.AddCommand((&endpoints.UpdateTextEndpoint{}).Command(getClient))
	pagesCmd.AddCommand((&endpoints.GenerateEndpoint{}).Command(getClient))
	pagesCmd.AddCommand((&endpoints.EditEndpoint{}).Command(getClient))
	pagesCmd.AddCommand((&endpoints.ReplaceEndpoint{}).Command(getClient))
	pagesCmd.AddCommand((&endpoints.ConfirmEndpoint{}).Command(getClient))

	// Documents as subcommand group
	documentsCmd.AddCommand((&endpoints.DownloadEndpoint{}).Command(getClient))

	apiCmd.AddCommand(sessionsCmd)
	apiCmd.AddCommand(pagesCmd)
	apiCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(apiCmd)
}
