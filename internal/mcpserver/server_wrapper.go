package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/plati-tools/platiscout/internal/types"
)

// ServerWrapper wraps the MCP SDK server with the tool registry and
// transport lifecycle. Stdio is the default transport; HTTP serves the
// same SDK server over the streamable handler for networked clients.
type ServerWrapper struct {
	sdkServer  *mcp.Server
	httpServer *http.Server

	config       *types.Config
	toolRegistry *ToolRegistry

	logger       *log.Logger
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	mutex        sync.RWMutex
	isRunning    bool
}

// NewServerWrapper creates a new SDK-based server wrapper
func NewServerWrapper(config *types.Config) (*ServerWrapper, error) {
	if config == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	wrapper := &ServerWrapper{
		config:       config,
		toolRegistry: NewToolRegistry(),
		logger:       log.New(os.Stderr, "[ServerWrapper] ", log.LstdFlags),
		shutdownChan: make(chan struct{}),
	}

	impl := &mcp.Implementation{
		Name:    "platiscout-mcp-server",
		Version: "1.0.0",
	}
	wrapper.sdkServer = mcp.NewServer(impl, nil)

	return wrapper, nil
}

// GetToolRegistry returns the tool registry
func (sw *ServerWrapper) GetToolRegistry() *ToolRegistry {
	return sw.toolRegistry
}

// GetSDKServer returns the underlying SDK server instance
func (sw *ServerWrapper) GetSDKServer() *mcp.Server {
	return sw.sdkServer
}

// SetLogger sets a custom logger
func (sw *ServerWrapper) SetLogger(logger *log.Logger) {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if logger != nil {
		sw.logger = logger
	}
}

// RegisterTool registers a tool with both the registry and the SDK server
func (sw *ServerWrapper) RegisterTool(internalName string, definition types.MCPToolDefinition, handler ToolHandler) error {
	if err := sw.toolRegistry.RegisterTool(internalName, definition, handler); err != nil {
		return err
	}

	// The registry may have renamed the tool via environment overrides.
	configuredName := sw.toolRegistry.GetToolNameMapping()[internalName]
	sdkTool := &mcp.Tool{
		Name:        configuredName,
		Description: definition.Description,
		InputSchema: definition.InputSchema,
	}
	sw.sdkServer.AddTool(sdkTool, sw.createSDKHandler(handler))

	sw.logger.Printf("Tool %s registered with SDK server", configuredName)
	return nil
}

// createSDKHandler bridges a registry ToolHandler to the SDK handler signature
func (sw *ServerWrapper) createSDKHandler(handler ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := make(map[string]interface{})
		if req.Params.Arguments != nil {
			if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool arguments: %w", err)
			}
		}

		result, err := handler(ctx, params)
		if err != nil && result == nil {
			return nil, err
		}
		// Handler errors with a result become IsError tool responses so
		// the client sees the message instead of a protocol failure.
		return convertToSDKResult(result), nil
	}
}

// convertToSDKResult converts a registry tool result to the SDK shape
func convertToSDKResult(result *types.MCPToolCallResult) *mcp.CallToolResult {
	if result == nil {
		return &mcp.CallToolResult{}
	}

	var content []mcp.Content
	for _, c := range result.Content {
		if c.Type == "text" {
			content = append(content, &mcp.TextContent{Text: c.Text})
		}
	}
	return &mcp.CallToolResult{
		Content:           content,
		StructuredContent: result.Structured,
		IsError:           result.IsError,
	}
}

// ServeStdio runs the server over stdin/stdout until the client
// disconnects or the context is cancelled. This is the transport MCP
// clients such as editors and desktop apps spawn directly.
func (sw *ServerWrapper) ServeStdio(ctx context.Context) error {
	sw.logger.Printf("Starting MCP server on stdio")
	return sw.sdkServer.Run(ctx, &mcp.StdioTransport{})
}

// StartHTTP starts the HTTP transport with lifecycle management
func (sw *ServerWrapper) StartHTTP() error {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if sw.isRunning {
		return fmt.Errorf("server is already running")
	}

	serverAddr := fmt.Sprintf("%s:%d", sw.config.MCPServerHost, sw.config.MCPServerPort)
	sw.logger.Printf("Starting MCP server (HTTP) on %s", serverAddr)

	mux := http.NewServeMux()
	getServer := func(r *http.Request) *mcp.Server { return sw.sdkServer }
	mux.Handle("/", mcp.NewStreamableHTTPHandler(getServer, nil))
	mux.HandleFunc("/health", sw.handleHealthCheck)

	sw.httpServer = &http.Server{
		Addr:         serverAddr,
		Handler:      sw.loggingMiddleware(mux),
		ReadTimeout:  sw.config.MCPServerReadTimeout,
		WriteTimeout: sw.config.MCPServerWriteTimeout,
		IdleTimeout:  sw.config.MCPServerIdleTimeout,
	}

	sw.wg.Add(1)
	go func() {
		defer sw.wg.Done()
		if err := sw.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sw.logger.Printf("HTTP server error: %v", err)
		}
	}()

	sw.isRunning = true
	sw.logger.Printf("MCP server started successfully")
	return nil
}

// Stop stops the HTTP transport with graceful shutdown
func (sw *ServerWrapper) Stop() error {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if !sw.isRunning {
		return fmt.Errorf("server is not running")
	}

	sw.logger.Printf("Stopping MCP server...")

	if sw.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sw.config.MCPServerShutdownTimeout)
		defer cancel()

		if err := sw.httpServer.Shutdown(shutdownCtx); err != nil {
			sw.logger.Printf("Graceful shutdown failed: %v, forcing immediate shutdown", err)
			if err := sw.httpServer.Close(); err != nil {
				sw.logger.Printf("Failed to close HTTP server: %v", err)
			}
		}
	}

	close(sw.shutdownChan)
	sw.wg.Wait()

	sw.isRunning = false
	sw.logger.Printf("MCP server stopped successfully")
	return nil
}

// IsRunning returns whether the HTTP transport is currently running
func (sw *ServerWrapper) IsRunning() bool {
	sw.mutex.RLock()
	defer sw.mutex.RUnlock()
	return sw.isRunning
}

// WaitForShutdown blocks until Stop is called
func (sw *ServerWrapper) WaitForShutdown() {
	<-sw.shutdownChan
}

// handleHealthCheck handles health check requests
func (sw *ServerWrapper) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"status":           "healthy",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"tools_registered": sw.toolRegistry.ToolCount(),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		sw.logger.Printf("Failed to encode health response: %v", err)
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs each HTTP request with status and duration
func (sw *ServerWrapper) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		sw.logger.Printf("%s %s %d %v", r.Method, r.URL.Path, lrw.statusCode, time.Since(start))
	})
}
