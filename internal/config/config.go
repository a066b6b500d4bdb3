package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"

	"github.com/plati-tools/platiscout/internal/types"
)

// Type alias for Config
type Config = types.Config

// Load loads configuration from environment variables. A .env file in
// the working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file found, using system environment")
	}

	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	profile, err := ResolveProfile(config.Profile, config.ProfileFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve deployment profile: %w", err)
	}
	config.DefaultLimit = profile.DefaultLimit
	config.DefaultMinReviews = profile.MinReviews
	config.DefaultMinPositiveRatio = profile.MinPositiveRatio

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	// Clamp fetch concurrency to the 4-8 in-flight band the marketplace
	// tolerates, with 1 as the sequential floor.
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.Concurrency > 8 {
		config.Concurrency = 8
	}

	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if config.RetryAttempts > 10 {
		config.RetryAttempts = 10
	}

	if config.RateLimit <= 0 {
		return fmt.Errorf("PLATI_RATE_LIMIT must be greater than 0")
	}
	if config.RateLimit > 100 {
		return fmt.Errorf("PLATI_RATE_LIMIT cannot exceed 100 requests/second")
	}
	if config.RateBurst <= 0 {
		return fmt.Errorf("PLATI_RATE_BURST must be greater than 0")
	}

	if config.SearchTimeout <= 0 || config.DetailTimeout <= 0 || config.ReviewTimeout <= 0 {
		return fmt.Errorf("fetch timeouts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		return fmt.Errorf("PLATI_RETRY_DELAY must be greater than 0")
	}

	if config.APIEndpoint == "" {
		return fmt.Errorf("PLATI_API_ENDPOINT cannot be empty")
	}
	if config.MarketBaseURL == "" {
		return fmt.Errorf("PLATI_MARKET_URL cannot be empty")
	}

	if err := validateMCPConfig(config); err != nil {
		return fmt.Errorf("MCP server configuration validation failed: %w", err)
	}

	return nil
}

// validateMCPConfig validates MCP server-specific configuration
func validateMCPConfig(config *Config) error {
	if config.MCPServerPort < 1 || config.MCPServerPort > 65535 {
		return fmt.Errorf("MCP_SERVER_PORT must be between 1 and 65535")
	}
	if config.MCPServerHost == "" {
		return fmt.Errorf("MCP_SERVER_HOST cannot be empty")
	}
	if config.MCPServerReadTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_READ_TIMEOUT must be greater than 0")
	}
	if config.MCPServerWriteTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if config.MCPServerIdleTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if config.MCPServerShutdownTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if config.MCPToolName == "" {
		return fmt.Errorf("MCP_TOOL_NAME cannot be empty")
	}
	if !isValidToolName(config.MCPToolName) {
		return fmt.Errorf("MCP_TOOL_NAME contains invalid characters: %s", config.MCPToolName)
	}
	return nil
}

// isValidToolName checks if a tool name is valid for MCP registration
func isValidToolName(name string) bool {
	if len(name) == 0 || len(name) > 100 {
		return false
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') || char == '_') {
			return false
		}
	}
	return true
}
