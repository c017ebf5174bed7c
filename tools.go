package main

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registry declares the fixed tool surface and routes each invocation to the
// REST client or the secondary channel. Handlers convert every failure to the
// error envelope; nothing propagates past the dispatch boundary.
type registry struct {
	cfg      *Config
	api      *apiClient
	channel  *channelManager
	tools    []mcp.Tool
	handlers map[string]server.ToolHandlerFunc
}

func newRegistry(cfg *Config, api *apiClient, channel *channelManager) *registry {
	r := &registry{
		cfg:      cfg,
		api:      api,
		channel:  channel,
		handlers: make(map[string]server.ToolHandlerFunc),
	}

	r.add(mcp.NewTool("describe_metadata",
		mcp.WithDescription("Fetch the semantic-layer metadata catalog: cubes, views, measures, dimensions, and segments."),
		mcp.WithBoolean("extended",
			mcp.Description("Include extended metadata (joins, SQL aliases) when the server supports it"),
		),
	), r.handleDescribeMetadata)

	r.add(mcp.NewTool("dry_run_query",
		mcp.WithDescription("Validate a query against the semantic layer without executing it. Returns the normalized query and the SQL the server would run."),
		mcp.WithObject("query",
			mcp.Required(),
			mcp.Description("Query object: measures, dimensions, timeDimensions, filters, order, limit, offset"),
		),
	), r.handleDryRunQuery)

	r.add(mcp.NewTool("explain_query",
		mcp.WithDescription("Ask the semantic layer for the SQL it generates for a query, without running it."),
		mcp.WithObject("query",
			mcp.Required(),
			mcp.Description("Query object to explain"),
		),
	), r.handleExplainQuery)

	r.add(mcp.NewTool("run_query",
		mcp.WithDescription("Execute a query against the semantic layer and return the result set."),
		mcp.WithObject("query",
			mcp.Required(),
			mcp.Description("Query object to execute"),
		),
	), r.handleRunQuery)

	r.add(mcp.NewTool("run_query_batch",
		mcp.WithDescription("Execute several queries in one request. The server evaluates them together and returns one result set per query."),
		mcp.WithArray("queries",
			mcp.Required(),
			mcp.Description("Query objects to execute together"),
			mcp.Items(map[string]any{"type": "object"}),
		),
	), r.handleRunQueryBatch)

	r.add(mcp.NewTool("show_connection",
		mcp.WithDescription("Show the resolved upstream connection settings: server URL, API root, and whether an API token is configured. Never returns the token itself."),
	), r.handleShowConnection)

	r.add(mcp.NewTool("discover_data",
		mcp.WithDescription("Ask the semantic layer's assistant channel which cubes and views cover a topic."),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Business topic to discover data for, e.g. 'weekly revenue by region'"),
		),
	), r.handleDiscoverData)

	r.add(mcp.NewTool("validate_query",
		mcp.WithDescription("Validate a query through the semantic layer's assistant channel, which checks member references and suggests corrections."),
		mcp.WithObject("query",
			mcp.Required(),
			mcp.Description("Query object to validate"),
		),
	), r.handleValidateQuery)

	return r
}

func (r *registry) add(tool mcp.Tool, handler server.ToolHandlerFunc) {
	if _, exists := r.handlers[tool.Name]; exists {
		panic("duplicate tool name: " + tool.Name)
	}
	r.tools = append(r.tools, tool)
	r.handlers[tool.Name] = handler
}

// ListTools returns the static declaration set; there is no dynamic discovery.
func (r *registry) ListTools() []mcp.Tool {
	return append([]mcp.Tool(nil), r.tools...)
}

// CallTool dispatches by name. An unknown name yields an error envelope, never
// a silent no-op, and handler failures never escape as errors.
func (r *registry) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	handler, ok := r.handlers[name]
	if !ok {
		return errorResultf("unknown tool: %s", name)
	}
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	result, err := handler(ctx, request)
	if err != nil {
		return errorResult(err)
	}
	return result
}

// register mounts every tool on the MCP server.
func (r *registry) register(s *server.MCPServer) {
	for _, tool := range r.tools {
		s.AddTool(tool, r.handlers[tool.Name])
	}
}

// ---- HTTP-path tools ----

func (r *registry) handleDescribeMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := apiRootPath + "/meta"
	if request.GetBool("extended", false) {
		path += "?extended=true"
	}
	raw, err := r.api.get(ctx, path)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(raw), nil
}

func (r *registry) handleDryRunQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := requireQueryObject(request, "query")
	if err != nil {
		return errorResult(err), nil
	}
	raw, err := r.api.post(ctx, apiRootPath+"/dry-run", map[string]any{"query": query})
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(raw), nil
}

func (r *registry) handleExplainQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := requireQueryObject(request, "query")
	if err != nil {
		return errorResult(err), nil
	}
	raw, err := r.api.post(ctx, apiRootPath+"/sql", map[string]any{"query": query})
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(raw), nil
}

func (r *registry) handleRunQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := requireQueryObject(request, "query")
	if err != nil {
		return errorResult(err), nil
	}
	raw, err := r.api.post(ctx, apiRootPath+"/load", map[string]any{"query": query})
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(raw), nil
}

func (r *registry) handleRunQueryBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	queries, ok := args["queries"].([]any)
	if !ok || len(queries) == 0 {
		return errorResult(errors.New("missing required parameter: queries")), nil
	}
	raw, err := r.api.post(ctx, apiRootPath+"/load", map[string]any{"queries": queries})
	if err != nil {
		return errorResult(err), nil
	}
	return textResult(raw), nil
}

func (r *registry) handleShowConnection(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(map[string]any{
		"serverUrl":       r.cfg.ServerBaseURL,
		"apiRoot":         apiRootPath,
		"mcpEndpoint":     r.cfg.ServerBaseURL + mcpEndpointPath,
		"tokenConfigured": r.cfg.APIToken != "",
		"urlSource":       r.cfg.URLSource,
	}), nil
}

// ---- secondary-channel tools ----

func (r *registry) handleDiscoverData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil {
		return errorResult(err), nil
	}
	result, err := r.channel.call(ctx, "discover_data", map[string]any{"topic": topic})
	if err != nil {
		return errorResult(err), nil
	}
	return flattenChannelResult(result), nil
}

func (r *registry) handleValidateQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := requireQueryObject(request, "query")
	if err != nil {
		return errorResult(err), nil
	}
	result, err := r.channel.call(ctx, "validate_query", map[string]any{"query": query})
	if err != nil {
		return errorResult(err), nil
	}
	return flattenChannelResult(result), nil
}

// requireQueryObject pulls a structured query argument. The object passes
// through verbatim; semantic validation is the upstream server's job.
func requireQueryObject(request mcp.CallToolRequest, key string) (map[string]any, error) {
	args := request.GetArguments()
	value, ok := args[key].(map[string]any)
	if !ok || value == nil {
		return nil, errors.New("missing required parameter: " + key)
	}
	return value, nil
}
