package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/plati-tools/platiscout/internal/engine"
	"github.com/plati-tools/platiscout/internal/metrics"
	"github.com/plati-tools/platiscout/internal/plati"
	"github.com/plati-tools/platiscout/internal/types"
)

// SearchToolAdapter adapts the offer search engine to the MCP tool interface
type SearchToolAdapter struct {
	engine *engine.Engine
	config *types.Config
	logger *log.Logger
}

// NewSearchToolAdapter creates a new search tool adapter
func NewSearchToolAdapter(eng *engine.Engine, cfg *types.Config) *SearchToolAdapter {
	return &SearchToolAdapter{
		engine: eng,
		config: cfg,
		logger: log.New(os.Stderr, "[SearchTool] ", log.LstdFlags),
	}
}

// GetToolDefinition returns the MCP tool definition for offer search
func (sta *SearchToolAdapter) GetToolDefinition() types.MCPToolDefinition {
	schemaMap := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Text query (e.g. 'claude code') or Plati URL (/search/<term>, /games/.../<id>/, /cat/.../<id>/).",
			},
			"limit": map[string]interface{}{
				"type":    "integer",
				"default": sta.config.DefaultLimit,
				"minimum": 1,
				"maximum": 100,
			},
			"currency": map[string]interface{}{
				"type":    "string",
				"default": "RUB",
			},
			"lang": map[string]interface{}{
				"type":    "string",
				"default": "ru-RU",
			},
			"min_reviews": map[string]interface{}{
				"type":    "integer",
				"default": sta.config.DefaultMinReviews,
				"minimum": 0,
			},
			"min_positive_ratio": map[string]interface{}{
				"type":    "number",
				"default": sta.config.DefaultMinPositiveRatio,
				"minimum": 0,
				"maximum": 1,
			},
			"max_pages": map[string]interface{}{
				"type":    "integer",
				"default": 6,
				"minimum": 1,
				"maximum": 30,
			},
			"per_page": map[string]interface{}{
				"type":    "integer",
				"default": 30,
				"minimum": 5,
				"maximum": 100,
			},
			"sort_by": map[string]interface{}{
				"type":    "string",
				"default": string(types.SortPriceAsc),
				"enum": []string{
					string(types.SortPriceAsc),
					string(types.SortPriceDesc),
					string(types.SortSellerReviewsDesc),
					string(types.SortReliabilityDesc),
					string(types.SortTitleAsc),
					string(types.SortTitleDesc),
				},
			},
			"min_price": map[string]interface{}{
				"type":    "number",
				"default": 0,
			},
			"max_price": map[string]interface{}{
				"type":    "number",
				"default": 0,
			},
			"include_terms": map[string]interface{}{
				"type":        "string",
				"default":     "",
				"description": "Space/comma-separated terms that must appear in lot title/options.",
			},
			"exclude_terms": map[string]interface{}{
				"type":        "string",
				"default":     "",
				"description": "Space/comma-separated terms to exclude from lot title/options.",
			},
		},
		"required": []string{"query"},
	}

	var inputSchema *jsonschema.Schema
	if schemaBytes, err := json.Marshal(schemaMap); err == nil {
		inputSchema = &jsonschema.Schema{}
		_ = json.Unmarshal(schemaBytes, inputSchema)
	}

	return types.MCPToolDefinition{
		Name:        sta.config.MCPToolName,
		Description: "Find Plati offers by text query or Plati URL, returning lots with links and full option variants.",
		InputSchema: inputSchema,
	}
}

// HandleToolCall executes the offer search tool. Malformed arguments
// return a bare error so the transport reports a protocol failure;
// search failures come back as IsError tool results instead.
func (sta *SearchToolAdapter) HandleToolCall(ctx context.Context, params map[string]interface{}) (*types.MCPToolCallResult, error) {
	criteria, err := sta.parseParams(params)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	started := time.Now()
	result, err := sta.engine.Search(ctx, criteria)
	if err != nil {
		errorMsg := fmt.Sprintf("Search failed: %v", err)
		sta.logger.Printf("Search failed: %v", err)
		return CreateToolCallErrorResult(errorMsg), err
	}

	responseJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to serialize response: %v", err)
		return CreateToolCallErrorResult(errorMsg), err
	}

	metrics.RecordInvocation(metrics.ModeMCP)
	metrics.RecordSearch(metrics.SearchRun{
		SearchID:      result.SearchID,
		Query:         result.Query,
		RawCount:      result.RawCount,
		FilteredCount: result.FilteredCount,
		Returned:      len(result.Offers),
		DurationMS:    time.Since(started).Milliseconds(),
	})

	sta.logger.Printf("Search completed: %d offers (%d matched of %d scanned) in %v",
		len(result.Offers), result.FilteredCount, result.RawCount, time.Since(started))

	callResult := CreateToolCallResult(string(responseJSON))
	callResult.Structured = result
	return callResult, nil
}

// parseParams extracts and validates parameters from an MCP tool call.
// Full validation lives in the criteria itself; this layer only
// converts the loosely typed JSON values.
func (sta *SearchToolAdapter) parseParams(params map[string]interface{}) (types.SearchCriteria, error) {
	criteria := types.SearchCriteria{
		Limit:            sta.config.DefaultLimit,
		MinReviews:       sta.config.DefaultMinReviews,
		MinPositiveRatio: sta.config.DefaultMinPositiveRatio,
		SortBy:           types.SortPriceAsc,
		MaxPages:         6,
		PerPage:          30,
		Currency:         "RUB",
		Lang:             "ru-RU",
	}

	queryValue, ok := params["query"]
	if !ok {
		return criteria, fmt.Errorf("query parameter is required")
	}
	query, ok := queryValue.(string)
	if !ok {
		return criteria, fmt.Errorf("query must be a string")
	}
	criteria.Query = query

	if v, ok := intParam(params, "limit"); ok {
		criteria.Limit = v
	}
	if v, ok := intParam(params, "min_reviews"); ok {
		criteria.MinReviews = v
	}
	if v, ok := intParam(params, "max_pages"); ok {
		criteria.MaxPages = v
	}
	if v, ok := intParam(params, "per_page"); ok {
		criteria.PerPage = v
	}
	if v, ok := floatParam(params, "min_positive_ratio"); ok {
		criteria.MinPositiveRatio = v
	}
	if v, ok := floatParam(params, "min_price"); ok {
		criteria.MinPrice = v
	}
	if v, ok := floatParam(params, "max_price"); ok {
		criteria.MaxPrice = v
	}
	if v, ok := stringParam(params, "sort_by"); ok {
		criteria.SortBy = types.SortOrder(v)
	}
	if v, ok := stringParam(params, "currency"); ok {
		criteria.Currency = v
	}
	if v, ok := stringParam(params, "lang"); ok {
		criteria.Lang = v
	}
	if v, ok := stringParam(params, "include_terms"); ok {
		criteria.IncludeTerms = plati.SplitTerms(v)
	}
	if v, ok := stringParam(params, "exclude_terms"); ok {
		criteria.ExcludeTerms = plati.SplitTerms(v)
	}

	return criteria, nil
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	value, ok := params[key]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

func floatParam(params map[string]interface{}, key string) (float64, bool) {
	value, ok := params[key]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	value, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
