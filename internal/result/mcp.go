package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/corraxdev/corrax/internal/observability"
)

// ToolNameAnalyze is the MCP tool name exposing AnalyzeFunc to an agent.
const ToolNameAnalyze = "corrax_analyze"

const analyzeToolDescription = "Run corrax's static analysis pipeline (clone, taint, points-to, " +
	"heap, typestate, concurrency, slicing, repomap) over inline source and return its findings."

// Input size limit for inline code, matching the MCP transport's
// expectation of small, single-file tool calls rather than whole-repo
// uploads.
const maxCodeInputBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	ErrEmptyCode    = errors.New("code parameter is required and must not be empty")
	ErrEmptyPath    = errors.New("path parameter is required and must not be empty")
	ErrCodeTooLarge = fmt.Errorf("code input exceeds maximum size of %d bytes", maxCodeInputBytes)
)

// AnalyzeInput is the input schema for the corrax_analyze tool.
type AnalyzeInput struct {
	Code string `json:"code" jsonschema:"source code to analyze"`
	Path string `json:"path" jsonschema:"synthetic file path, used to resolve the declared language"`
}

// AnalyzeOutput is the structured output of the corrax_analyze tool.
type AnalyzeOutput struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Aborted     bool         `json:"aborted"`
	AbortCause  string       `json:"abort_cause,omitempty"`
}

// MCPDeps holds injectable dependencies for the MCP server.
type MCPDeps struct {
	Logger  *slog.Logger
	Metrics *observability.OperationMetrics
	Tracer  trace.Tracer
}

// MCPServer wraps the MCP SDK server with corrax's tool registrations.
type MCPServer struct {
	inner *mcpsdk.Server
}

// NewMCPServer creates an MCP server exposing analyze as a stdio-transport tool.
func NewMCPServer(analyze AnalyzeFunc, deps MCPDeps) *MCPServer {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "corrax", Version: "0.1.0"}, opts)

	handler := withMetrics(deps.Metrics, ToolNameAnalyze, withTracing(deps.Tracer, ToolNameAnalyze, newAnalyzeHandler(analyze)))

	mcpsdk.AddTool[AnalyzeInput, AnalyzeOutput](inner, &mcpsdk.Tool{
		Name:        ToolNameAnalyze,
		Description: analyzeToolDescription,
	}, mcpsdk.ToolHandlerFor[AnalyzeInput, AnalyzeOutput](handler))

	return &MCPServer{inner: inner}
}

// Run starts the MCP server on stdio transport. It blocks until the
// context is canceled or the connection closes.
func (s *MCPServer) Run(ctx context.Context) error {
	if err := s.inner.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

type analyzeHandler func(context.Context, *mcpsdk.CallToolRequest, AnalyzeInput) (*mcpsdk.CallToolResult, AnalyzeOutput, error)

func newAnalyzeHandler(analyze AnalyzeFunc) analyzeHandler {
	return func(ctx context.Context, _ *mcpsdk.CallToolRequest, input AnalyzeInput) (*mcpsdk.CallToolResult, AnalyzeOutput, error) {
		if err := validateAnalyzeInput(input); err != nil {
			return errorResult(err)
		}

		res, err := analyze(ctx, input.Path, []byte(input.Code))
		if err != nil {
			return errorResult(fmt.Errorf("analyze: %w", err))
		}

		output := AnalyzeOutput{
			Diagnostics: ForPath(FromResult(res), input.Path),
			Aborted:     res.Aborted,
			AbortCause:  res.AbortCause,
		}

		return jsonResult(output)
	}
}

func validateAnalyzeInput(input AnalyzeInput) error {
	if input.Code == "" {
		return ErrEmptyCode
	}

	if input.Path == "" {
		return ErrEmptyPath
	}

	if len(input.Code) > maxCodeInputBytes {
		return ErrCodeTooLarge
	}

	return nil
}

func errorResult(err error) (*mcpsdk.CallToolResult, AnalyzeOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, AnalyzeOutput{}, nil
}

func jsonResult(output AnalyzeOutput) (*mcpsdk.CallToolResult, AnalyzeOutput, error) {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, output, nil
}

const mcpSpanPrefix = "mcp."

func withTracing(tracer trace.Tracer, toolName string, handler analyzeHandler) analyzeHandler {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input AnalyzeInput) (*mcpsdk.CallToolResult, AnalyzeOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		return handler(ctx, req, input)
	}
}

func withMetrics(metrics *observability.OperationMetrics, toolName string, handler analyzeHandler) analyzeHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input AnalyzeInput) (*mcpsdk.CallToolResult, AnalyzeOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		metrics.RecordOperation(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}
