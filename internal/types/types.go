package types

import (
	"fmt"
	"time"
)

// Config represents the platiscout configuration loaded from environment variables
type Config struct {
	// Digiseller/Plati API configuration
	APIEndpoint   string        `json:"api_endpoint" env:"PLATI_API_ENDPOINT,default=https://api.digiseller.com"`
	MarketBaseURL string        `json:"market_base_url" env:"PLATI_MARKET_URL,default=https://plati.market"`
	UserAgent     string        `json:"user_agent" env:"PLATI_USER_AGENT,default=Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`
	SearchTimeout time.Duration `json:"search_timeout" env:"PLATI_SEARCH_TIMEOUT,default=30s"`
	DetailTimeout time.Duration `json:"detail_timeout" env:"PLATI_DETAIL_TIMEOUT,default=12s"`
	ReviewTimeout time.Duration `json:"review_timeout" env:"PLATI_REVIEW_TIMEOUT,default=10s"`
	RetryAttempts int           `json:"retry_attempts" env:"PLATI_RETRY_ATTEMPTS,default=3"`
	RetryDelay    time.Duration `json:"retry_delay" env:"PLATI_RETRY_DELAY,default=1s"`
	RateLimit     float64       `json:"rate_limit" env:"PLATI_RATE_LIMIT,default=5.0"`
	RateBurst     int           `json:"rate_burst" env:"PLATI_RATE_BURST,default=10"`
	Concurrency   int           `json:"concurrency" env:"PLATI_FETCH_CONCURRENCY,default=6"`

	// Engine defaults (deployment profile, see config.ResolveProfile)
	Profile     string `json:"profile" env:"PLATISCOUT_PROFILE,default=permissive"`
	ProfileFile string `json:"profile_file" env:"PLATISCOUT_PROFILE_FILE"`

	// Debug enables verbose diagnostics on stderr without changing the
	// result contract. Passed into constructors, never read ambiently.
	Debug bool `json:"debug" env:"PLATISCOUT_DEBUG,default=false"`

	// MCP server configuration (HTTP transport only; stdio needs none)
	MCPServerHost            string        `json:"mcp_server_host" env:"MCP_SERVER_HOST,default=localhost"`
	MCPServerPort            int           `json:"mcp_server_port" env:"MCP_SERVER_PORT,default=8080"`
	MCPServerReadTimeout     time.Duration `json:"mcp_server_read_timeout" env:"MCP_SERVER_READ_TIMEOUT,default=30s"`
	MCPServerWriteTimeout    time.Duration `json:"mcp_server_write_timeout" env:"MCP_SERVER_WRITE_TIMEOUT,default=120s"`
	MCPServerIdleTimeout     time.Duration `json:"mcp_server_idle_timeout" env:"MCP_SERVER_IDLE_TIMEOUT,default=300s"`
	MCPServerShutdownTimeout time.Duration `json:"mcp_server_shutdown_timeout" env:"MCP_SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	MCPToolName              string        `json:"mcp_tool_name" env:"MCP_TOOL_NAME,default=find_cheapest_reliable_options"`
	MCPToolPrefix            string        `json:"mcp_tool_prefix" env:"MCP_TOOL_PREFIX"`

	// Resolved engine defaults, filled by config.Load from the profile
	DefaultLimit            int     `json:"default_limit"`
	DefaultMinReviews       int     `json:"default_min_reviews"`
	DefaultMinPositiveRatio float64 `json:"default_min_positive_ratio"`
}

// ErrorType classifies engine failures
type ErrorType string

const (
	ErrorTypeFetchFailure    ErrorType = "fetch_failure"
	ErrorTypeParseFailure    ErrorType = "parse_failure"
	ErrorTypePriceAnomaly    ErrorType = "price_anomaly"
	ErrorTypeInvalidCriteria ErrorType = "invalid_criteria"
)

// EngineError represents a classified error raised inside the engine.
// Fetch, parse and price errors are dropped and counted; only
// invalid-criteria errors are fatal to a query.
type EngineError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	LotID     int64     `json:"lot_id,omitempty"`
	Retryable bool      `json:"retryable"`
	Err       error     `json:"-"`
}

func (e *EngineError) Error() string {
	if e.LotID > 0 {
		return fmt.Sprintf("[%s] %s (lot: %d)", e.Type, e.Message, e.LotID)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewFetchFailure creates a retryable fetch error wrapping the cause
func NewFetchFailure(lotID int64, cause error) *EngineError {
	return &EngineError{
		Type:      ErrorTypeFetchFailure,
		Message:   cause.Error(),
		LotID:     lotID,
		Retryable: true,
		Err:       cause,
	}
}

// NewParseFailure creates a non-retryable parse error for a listing
func NewParseFailure(lotID int64, format string, args ...interface{}) *EngineError {
	return &EngineError{
		Type:    ErrorTypeParseFailure,
		Message: fmt.Sprintf(format, args...),
		LotID:   lotID,
	}
}

// NewInvalidCriteria creates a fatal criteria validation error
func NewInvalidCriteria(format string, args ...interface{}) *EngineError {
	return &EngineError{
		Type:    ErrorTypeInvalidCriteria,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsInvalidCriteria reports whether err is a fatal criteria error
func IsInvalidCriteria(err error) bool {
	ee, ok := err.(*EngineError)
	return ok && ee.Type == ErrorTypeInvalidCriteria
}
