package mcpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/plati-tools/platiscout/internal/types"
)

// ToolHandler represents a function that handles tool execution
type ToolHandler func(ctx context.Context, params map[string]interface{}) (*types.MCPToolCallResult, error)

// ToolInfo contains metadata about a registered tool
type ToolInfo struct {
	Definition types.MCPToolDefinition
	Handler    ToolHandler
}

// ToolRegistry manages MCP tools and their execution
type ToolRegistry struct {
	tools       map[string]*ToolInfo
	toolNameMap map[string]string // Maps internal names to configured names
	mutex       sync.RWMutex
	logger      *log.Logger
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:       make(map[string]*ToolInfo),
		toolNameMap: make(map[string]string),
		logger:      log.New(os.Stderr, "[ToolRegistry] ", log.LstdFlags),
	}
}

// RegisterTool registers a new tool in the registry
func (tr *ToolRegistry) RegisterTool(internalName string, definition types.MCPToolDefinition, handler ToolHandler) error {
	if internalName == "" {
		return fmt.Errorf("internal tool name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	if _, exists := tr.tools[internalName]; exists {
		return fmt.Errorf("tool with internal name '%s' already registered", internalName)
	}

	configuredName := tr.getConfiguredToolName(internalName)
	definition.Name = configuredName

	for _, toolInfo := range tr.tools {
		if toolInfo.Definition.Name == configuredName {
			return fmt.Errorf("tool with name '%s' already registered", configuredName)
		}
	}

	if err := ValidateToolDefinition(definition); err != nil {
		return fmt.Errorf("tool definition validation failed: %w", err)
	}

	tr.tools[internalName] = &ToolInfo{
		Definition: definition,
		Handler:    handler,
	}
	tr.toolNameMap[internalName] = configuredName

	tr.logger.Printf("Registered tool: %s (internal: %s)", configuredName, internalName)
	return nil
}

// UnregisterTool removes a tool from the registry
func (tr *ToolRegistry) UnregisterTool(internalName string) error {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	toolInfo, exists := tr.tools[internalName]
	if !exists {
		return fmt.Errorf("tool with internal name '%s' not found", internalName)
	}

	configuredName := toolInfo.Definition.Name
	delete(tr.tools, internalName)
	delete(tr.toolNameMap, internalName)

	tr.logger.Printf("Unregistered tool: %s (internal: %s)", configuredName, internalName)
	return nil
}

// ExecuteTool executes a tool by its configured name
func (tr *ToolRegistry) ExecuteTool(ctx context.Context, toolName string, params map[string]interface{}) (*types.MCPToolCallResult, error) {
	tr.mutex.RLock()
	var toolInfo *ToolInfo
	for _, info := range tr.tools {
		if info.Definition.Name == toolName {
			toolInfo = info
			break
		}
	}
	tr.mutex.RUnlock()

	if toolInfo == nil {
		return nil, fmt.Errorf("tool '%s' not found", toolName)
	}

	type execResult struct {
		result *types.MCPToolCallResult
		err    error
	}
	resultCh := make(chan execResult, 1)

	go func() {
		res, err := toolInfo.Handler(ctx, params)
		resultCh <- execResult{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		err := ctx.Err()
		tr.logger.Printf("Tool execution timed out or was cancelled for %s: %v", toolName, err)
		return CreateToolCallErrorResult(fmt.Sprintf("Tool execution cancelled: %v", err)), err
	case exec := <-resultCh:
		if exec.err != nil {
			tr.logger.Printf("Tool execution failed for %s: %v", toolName, exec.err)
			return CreateToolCallErrorResult(fmt.Sprintf("Tool execution failed: %v", exec.err)), exec.err
		}
		return exec.result, nil
	}
}

// ListTools returns all registered tool definitions
func (tr *ToolRegistry) ListTools() []types.MCPToolDefinition {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	tools := make([]types.MCPToolDefinition, 0, len(tr.tools))
	for _, toolInfo := range tr.tools {
		tools = append(tools, toolInfo.Definition)
	}
	return tools
}

// HasTool checks whether a tool is registered under its configured name
func (tr *ToolRegistry) HasTool(toolName string) bool {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	for _, toolInfo := range tr.tools {
		if toolInfo.Definition.Name == toolName {
			return true
		}
	}
	return false
}

// ToolCount returns the number of registered tools
func (tr *ToolRegistry) ToolCount() int {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	return len(tr.tools)
}

// getConfiguredToolName gets the configured name for a tool from environment variables
func (tr *ToolRegistry) getConfiguredToolName(internalName string) string {
	envVarName := fmt.Sprintf("MCP_TOOL_NAME_%s", strings.ToUpper(internalName))
	if configuredName := os.Getenv(envVarName); configuredName != "" {
		return configuredName
	}

	if prefix := os.Getenv("MCP_TOOL_PREFIX"); prefix != "" {
		return prefix + internalName
	}

	return internalName
}

// GetToolNameMapping returns the mapping of internal names to configured names
func (tr *ToolRegistry) GetToolNameMapping() map[string]string {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	mapping := make(map[string]string)
	for internal, configured := range tr.toolNameMap {
		mapping[internal] = configured
	}
	return mapping
}

// ValidateToolDefinition validates a tool definition
func ValidateToolDefinition(definition types.MCPToolDefinition) error {
	if definition.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if definition.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if definition.InputSchema == nil {
		return fmt.Errorf("tool input schema cannot be nil")
	}
	return nil
}

// CreateToolCallResult creates a successful tool call result
func CreateToolCallResult(content string) *types.MCPToolCallResult {
	return &types.MCPToolCallResult{
		Content: []types.MCPContent{
			{
				Type: "text",
				Text: content,
			},
		},
		IsError: false,
	}
}

// CreateToolCallErrorResult creates an error tool call result
func CreateToolCallErrorResult(errorMsg string) *types.MCPToolCallResult {
	return &types.MCPToolCallResult{
		Content: []types.MCPContent{
			{
				Type: "text",
				Text: errorMsg,
			},
		},
		IsError: true,
	}
}
