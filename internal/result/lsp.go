package result

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.opentelemetry.io/otel/trace"

	"github.com/corraxdev/corrax/internal/observability"
	"github.com/corraxdev/corrax/pkg/safeconv"
)

const lspServerName = "corrax"

// documentStore is a thread-safe store of open-buffer contents keyed by
// URI, the same shape an editor's didOpen/didChange/didClose sequence
// needs.
type documentStore struct {
	documents map[string]string
	mu        sync.RWMutex
}

func newDocumentStore() *documentStore {
	return &documentStore{documents: make(map[string]string)}
}

func (ds *documentStore) set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

func (ds *documentStore) get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

func (ds *documentStore) delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// LSPDeps holds injectable dependencies for the LSP server. Zero-value
// fields are valid: nil Logger uses slog's default, nil Metrics/Tracer
// disable the corresponding instrumentation.
type LSPDeps struct {
	Logger  *slog.Logger
	Metrics *observability.OperationMetrics
	Tracer  trace.Tracer
}

// LSPServer publishes diagnostics built from an AnalyzeFunc run against
// every opened, changed, or saved buffer.
type LSPServer struct {
	store   *documentStore
	handler protocol.Handler
	analyze AnalyzeFunc
	logger  *slog.Logger
	metrics *observability.OperationMetrics
	tracer  trace.Tracer
}

// NewLSPServer creates an LSP server that runs analyze on every document
// lifecycle event and republishes its diagnostics.
func NewLSPServer(analyze AnalyzeFunc, deps LSPDeps) *LSPServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &LSPServer{
		store:   newDocumentStore(),
		analyze: analyze,
		logger:  logger,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
	}

	return srv
}

// Run starts the LSP server on stdio. It blocks until the connection
// closes.
func (srv *LSPServer) Run() error {
	return glspserver.NewServer(&srv.handler, lspServerName, false).RunStdio()
}

func (srv *LSPServer) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	serverVersion := "0.1.0"

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspServerName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *LSPServer) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *LSPServer) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *LSPServer) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *LSPServer) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *LSPServer) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) == 0 {
		return nil
	}

	change, ok := params.ContentChanges[0].(map[string]any)
	if !ok {
		return nil
	}

	text, ok := change["text"].(string)
	if !ok {
		return nil
	}

	srv.store.set(uri, text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *LSPServer) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if _, ok := srv.store.get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *LSPServer) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.store.delete(params.TextDocument.URI)

	return nil
}

// publishDiagnostics runs analyze over uri's current buffer content and
// notifies the client of the resulting diagnostics, replacing whatever
// it last published for this URI (an empty list clears stale ones).
func (srv *LSPServer) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.get(uri)
	if !ok {
		return
	}

	background := context.Background()

	var span trace.Span
	if srv.tracer != nil {
		background, span = srv.tracer.Start(background, "lsp.analyze")
	}

	decInflight := srv.metrics.TrackInflight(background, "lsp.analyze")
	start := time.Now()

	res, err := srv.analyze(background, uri, []byte(text))

	decInflight()

	status := "ok"
	if err != nil {
		status = "error"
	}

	srv.metrics.RecordOperation(background, "lsp.analyze", status, time.Since(start))

	if span != nil {
		span.End()
	}

	if err != nil {
		srv.logger.Error("lsp analyze failed", "uri", uri, "error", err)
		ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []protocol.Diagnostic{},
		})

		return
	}

	diags := ForPath(FromResult(res), uri)
	protocolDiags := make([]protocol.Diagnostic, 0, len(diags))

	for _, d := range diags {
		severity := toProtocolSeverity(d.Severity)
		line := safeconv.MustIntToUint32(d.Line - 1)
		source := d.Source

		protocolDiags = append(protocolDiags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: 0},
				End:   protocol.Position{Line: line, Character: 0},
			},
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}

	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: protocolDiags,
	})
}

func toProtocolSeverity(sev Severity) protocol.DiagnosticSeverity {
	switch sev {
	case SeverityError:
		return protocol.DiagnosticSeverityError
	case SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case SeverityInformation:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}
