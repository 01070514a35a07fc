// Package lsp implements an inlay hint source backed by a Language Server Protocol
// server. It keeps the server's copy of each buffer in sync with the snapshots it is
// asked about and translates between byte offsets and LSP positions.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/clock"
	"github.com/rlch/inlay/fetch"
)

// LSP methods used by the client.
const (
	methodInitialize         = "initialize"
	methodInitialized        = "initialized"
	methodShutdown           = "shutdown"
	methodExit               = "exit"
	methodDidOpen            = "textDocument/didOpen"
	methodDidChange          = "textDocument/didChange"
	methodInlayHint          = "textDocument/inlayHint"
	methodInlayHintRefresh   = "workspace/inlayHint/refresh"
	methodConfiguration      = "workspace/configuration"
	methodLogMessage         = "window/logMessage"
	methodShowMessage        = "window/showMessage"
	methodProgressCreate     = "window/workDoneProgress/create"
	methodRegisterCapability = "client/registerCapability"
)

// ErrStaleSnapshot is returned when asked about a snapshot older than the text the
// server already has.
var ErrStaleSnapshot = errors.New("lsp: snapshot older than synced document")

// Client talks to one language server.
type Client struct {
	conn       jsonrpc2.Conn
	logger     *zap.Logger
	languageID string
	onRefresh  func()
	closer     func() error

	mu   sync.Mutex
	docs map[string]*document
}

// document is the state of a buffer as last sent to the server.
type document struct {
	version int32
	seen    clock.Global
}

var _ fetch.Source = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLanguageID sets the language id sent when opening documents.
func WithLanguageID(id string) ClientOption {
	return func(c *Client) {
		c.languageID = id
	}
}

// WithRefresh registers a callback for server-initiated workspace/inlayHint/refresh
// requests. It runs on its own goroutine and may fetch.
func WithRefresh(onRefresh func()) ClientOption {
	return func(c *Client) {
		c.onRefresh = onRefresh
	}
}

// NewClient starts a JSON-RPC connection over rwc. Call Initialize before querying.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser, opts ...ClientOption) *Client {
	c := &Client{
		logger: zap.NewNop(),
		docs:   make(map[string]*document),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	c.conn.Go(ctx, c.handle)

	return c
}

// clientCapabilities announces the single 3.17 capability the client relies on.
type clientCapabilities struct {
	TextDocument struct {
		InlayHint struct {
			DynamicRegistration bool `json:"dynamicRegistration"`
		} `json:"inlayHint"`
	} `json:"textDocument"`
	Workspace struct {
		InlayHint struct {
			RefreshSupport bool `json:"refreshSupport"`
		} `json:"inlayHint"`
		Configuration bool `json:"configuration"`
	} `json:"workspace"`
}

type initializeParams struct {
	ProcessID    int                  `json:"processId"`
	RootURI      protocol.DocumentURI `json:"rootUri"`
	Capabilities clientCapabilities   `json:"capabilities"`
}

type initializeResult struct {
	Capabilities struct {
		InlayHintProvider json.RawMessage `json:"inlayHintProvider"`
	} `json:"capabilities"`
}

// Initialize performs the LSP handshake for the workspace rooted at root.
func (c *Client) Initialize(ctx context.Context, root string) error {
	params := &initializeParams{
		ProcessID: os.Getpid(),
		RootURI:   protocol.DocumentURI(uri.File(root)),
	}
	params.Capabilities.Workspace.InlayHint.RefreshSupport = c.onRefresh != nil
	params.Capabilities.Workspace.Configuration = true

	var result initializeResult

	_, err := c.conn.Call(ctx, methodInitialize, params, &result)
	if err != nil {
		return fmt.Errorf("%s: %w", methodInitialize, err)
	}

	provider := string(result.Capabilities.InlayHintProvider)
	if provider == "" || provider == "null" || provider == "false" {
		c.logger.Warn("Server does not advertise inlay hints", zap.String("root", root))
	}

	err = c.conn.Notify(ctx, methodInitialized, &protocol.InitializedParams{})
	if err != nil {
		return fmt.Errorf("%s: %w", methodInitialized, err)
	}

	c.logger.Info("Language server initialized", zap.String("root", root))

	return nil
}

// Hints queries the server for the hints of snapshot within rng.
func (c *Client) Hints(ctx context.Context, snapshot fetch.Snapshot, rng inlay.Range) ([]inlay.RawHint, error) {
	docURI, err := c.sync(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	text := snapshot.Text()
	params := &InlayHintParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
		Range:        rangeToProtocol(text, rng.Start, rng.End),
	}

	var hints []InlayHint

	_, err = c.conn.Call(ctx, methodInlayHint, params, &hints)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", methodInlayHint, err)
	}

	out := make([]inlay.RawHint, 0, len(hints))

	for _, h := range hints {
		hint, err := h.toHint()
		if err != nil {
			c.logger.Warn("Skipping malformed inlay hint",
				zap.String("uri", string(docURI)),
				zap.Error(err))

			continue
		}

		out = append(out, inlay.RawHint{
			Offset: PositionToOffset(text, h.Position),
			Hint:   hint,
		})
	}

	return out, nil
}

// sync makes the server's copy of the document match snapshot.
func (c *Client) sync(ctx context.Context, snapshot fetch.Snapshot) (protocol.DocumentURI, error) {
	docURI := protocol.DocumentURI(uri.File(snapshot.Path()))
	version := snapshot.Version()

	c.mu.Lock()
	defer c.mu.Unlock()

	doc, open := c.docs[snapshot.Path()]

	switch {
	case !open:
		err := c.conn.Notify(ctx, methodDidOpen, &protocol.DidOpenTextDocumentParams{
			TextDocument: protocol.TextDocumentItem{
				URI:        docURI,
				LanguageID: protocol.LanguageIdentifier(c.languageID),
				Version:    1,
				Text:       snapshot.Text(),
			},
		})
		if err != nil {
			return "", fmt.Errorf("%s: %w", methodDidOpen, err)
		}

		c.docs[snapshot.Path()] = &document{version: 1, seen: version}

	case doc.seen.Equal(version):
		// already in sync

	case doc.seen.Observed(version):
		return "", fmt.Errorf("%w: %s at %s, server has %s", ErrStaleSnapshot, snapshot.Path(), version, doc.seen)

	default:
		err := c.conn.Notify(ctx, methodDidChange, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI},
				Version:                doc.version + 1,
			},
			ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: snapshot.Text()}},
		})
		if err != nil {
			return "", fmt.Errorf("%s: %w", methodDidChange, err)
		}

		doc.version++
		doc.seen = version
	}

	return docURI, nil
}

// handle serves requests the server sends to the client.
func (c *Client) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case methodInlayHintRefresh:
		c.logger.Debug("Server requested inlay hint refresh")

		if c.onRefresh != nil {
			go c.onRefresh()
		}

		return reply(ctx, nil, nil)

	case methodConfiguration:
		var params protocol.ConfigurationParams
		_ = json.Unmarshal(req.Params(), &params)

		return reply(ctx, make([]any, len(params.Items)), nil)

	case methodLogMessage, methodShowMessage:
		var params protocol.LogMessageParams
		_ = json.Unmarshal(req.Params(), &params)

		c.logger.Debug("Server message", zap.String("message", params.Message))

		return reply(ctx, nil, nil)

	case methodProgressCreate, methodRegisterCapability:
		return reply(ctx, nil, nil)
	}

	return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
}

// Close shuts the server down and closes the connection.
func (c *Client) Close(ctx context.Context) error {
	var ignored json.RawMessage

	_, err := c.conn.Call(ctx, methodShutdown, nil, &ignored)
	if err != nil {
		c.logger.Warn("Shutdown request failed", zap.Error(err))
	} else {
		_ = c.conn.Notify(ctx, methodExit, nil)
	}

	closeErr := c.conn.Close()
	if c.closer != nil {
		closeErr = errors.Join(closeErr, c.closer())
	}

	return closeErr
}

// Done is closed when the connection terminates.
func (c *Client) Done() <-chan struct{} {
	return c.conn.Done()
}
