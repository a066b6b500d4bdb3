package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appconfig "github.com/plati-tools/platiscout/internal/config"
	"github.com/plati-tools/platiscout/internal/engine"
	"github.com/plati-tools/platiscout/internal/mcpserver"
	"github.com/plati-tools/platiscout/internal/plati"
)

var (
	mcpServerHost string
	mcpServerPort int
	mcpUseHTTP    bool
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Start MCP (Model Context Protocol) server for offer search",
	Long: `
Start an MCP server that exposes Plati offer search as a tool usable by
MCP-compatible clients like Claude Desktop, IDEs, and other applications.

The server provides a "find_cheapest_reliable_options" tool that searches the
marketplace, expands listings into option variants with resolved prices, and
returns filtered, ranked offers.

By default the server speaks stdio, the transport MCP clients spawn directly.
Pass --http to serve the streamable HTTP transport instead.

Examples:
  platiscout mcp-server                      # stdio transport (for client spawning)
  platiscout mcp-server --http               # HTTP transport on default host/port
  platiscout mcp-server --http --port 9000   # HTTP transport on custom port
`,
	RunE: runMCPServer,
}

func init() {
	mcpServerCmd.Flags().BoolVar(&mcpUseHTTP, "http", false, "Serve the HTTP transport instead of stdio")
	mcpServerCmd.Flags().StringVar(&mcpServerHost, "host", "localhost", "Server host address (HTTP transport)")
	mcpServerCmd.Flags().IntVar(&mcpServerPort, "port", 8080, "Server port (HTTP transport)")
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.MCPServerHost = mcpServerHost
	}
	if cmd.Flags().Changed("port") {
		cfg.MCPServerPort = mcpServerPort
	}

	logger := log.New(os.Stderr, "[MCP Server] ", log.LstdFlags)

	server, err := mcpserver.NewServerWrapper(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server wrapper: %w", err)
	}
	server.SetLogger(logger)

	client, err := plati.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create marketplace client: %w", err)
	}
	eng := engine.New(client, nil, cfg)
	adapter := mcpserver.NewSearchToolAdapter(eng, cfg)

	if err := server.RegisterTool(cfg.MCPToolName, adapter.GetToolDefinition(), adapter.HandleToolCall); err != nil {
		return fmt.Errorf("failed to register search tool: %w", err)
	}

	if !mcpUseHTTP {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.ServeStdio(ctx)
	}

	if err := server.StartHTTP(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Printf("Received signal %v, shutting down...", sig)
		if err := server.Stop(); err != nil {
			logger.Printf("Failed to stop server cleanly: %v", err)
		}
	}()

	server.WaitForShutdown()
	return nil
}
