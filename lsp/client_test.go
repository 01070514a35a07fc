package lsp_test

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/rlch/inlay"
	"github.com/rlch/inlay/buffer"
	"github.com/rlch/inlay/fetch"
	"github.com/rlch/inlay/lsp"
)

const sampleText = "var x = 1\nfoo(2)\n"

const sampleHints = `[
	{"position": {"line": 0, "character": 5}, "label": ": int", "kind": 1, "paddingLeft": true},
	{"position": {"line": 1, "character": 4}, "label": [{"value": "n"}, {"value": ":"}], "kind": 2,
	 "tooltip": {"kind": "markdown", "value": "count"}},
	{"position": {"line": 1, "character": 0}, "label": "x", "tooltip": "plain"}
]`

// fakeServer is a minimal language server that records document sync traffic.
type fakeServer struct {
	conn jsonrpc2.Conn

	mu      sync.Mutex
	opened  []protocol.DidOpenTextDocumentParams
	changed []protocol.DidChangeTextDocumentParams
	queries []lsp.InlayHintParams
	methods []string
}

func startServer(t *testing.T) (*fakeServer, net.Conn) {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	s := &fakeServer{conn: jsonrpc2.NewConn(jsonrpc2.NewStream(serverSide))}
	s.conn.Go(context.Background(), s.handle)

	t.Cleanup(func() {
		_ = s.conn.Close()
	})

	return s, clientSide
}

func (s *fakeServer) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.methods = append(s.methods, req.Method())

	switch req.Method() {
	case "initialize":
		return reply(ctx, map[string]any{
			"capabilities": map[string]any{"inlayHintProvider": true},
		}, nil)
	case "textDocument/didOpen":
		var p protocol.DidOpenTextDocumentParams
		if err := json.Unmarshal(req.Params(), &p); err != nil {
			return reply(ctx, nil, err)
		}

		s.opened = append(s.opened, p)

		return reply(ctx, nil, nil)
	case "textDocument/didChange":
		var p protocol.DidChangeTextDocumentParams
		if err := json.Unmarshal(req.Params(), &p); err != nil {
			return reply(ctx, nil, err)
		}

		s.changed = append(s.changed, p)

		return reply(ctx, nil, nil)
	case "textDocument/inlayHint":
		var p lsp.InlayHintParams
		if err := json.Unmarshal(req.Params(), &p); err != nil {
			return reply(ctx, nil, err)
		}

		s.queries = append(s.queries, p)

		return reply(ctx, json.RawMessage(sampleHints), nil)
	case "initialized", "shutdown", "exit":
		return reply(ctx, nil, nil)
	}

	return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
}

func (s *fakeServer) snapshot() ([]protocol.DidOpenTextDocumentParams, []protocol.DidChangeTextDocumentParams, []lsp.InlayHintParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]protocol.DidOpenTextDocumentParams(nil), s.opened...),
		append([]protocol.DidChangeTextDocumentParams(nil), s.changed...),
		append([]lsp.InlayHintParams(nil), s.queries...)
}

func newClient(t *testing.T, opts ...lsp.ClientOption) (*lsp.Client, *fakeServer) {
	t.Helper()

	server, conn := startServer(t)
	client := lsp.NewClient(context.Background(), conn, append([]lsp.ClientOption{lsp.WithLanguageID("go")}, opts...)...)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Initialize(ctx, "/work"))

	return client, server
}

func TestClient_Hints(t *testing.T) {
	t.Parallel()

	client, server := newClient(t)
	buf := buffer.New(1, "/work/main.go", sampleText, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hints, err := client.Hints(ctx, buf.Snapshot(), inlay.Range{Start: 0, End: len(sampleText)})
	require.NoError(t, err)

	assert.Equal(t, []inlay.RawHint{
		{Offset: 5, Hint: inlay.Hint{Kind: inlay.KindType, Label: ": int", PaddingLeft: true}},
		{Offset: 14, Hint: inlay.Hint{Kind: inlay.KindParameter, Label: "n:", Tooltip: "count"}},
		{Offset: 10, Hint: inlay.Hint{Kind: inlay.KindOther, Label: "x", Tooltip: "plain"}},
	}, hints)

	opened, changed, queries := server.snapshot()
	require.Len(t, opened, 1)
	assert.Equal(t, sampleText, opened[0].TextDocument.Text)
	assert.Equal(t, protocol.LanguageIdentifier("go"), opened[0].TextDocument.LanguageID)
	assert.Empty(t, changed)
	require.Len(t, queries, 1)
	assert.Equal(t, protocol.Position{Line: 2, Character: 0}, queries[0].Range.End)
	assert.Equal(t, opened[0].TextDocument.URI, queries[0].TextDocument.URI)
}

func TestClient_SyncsEdits(t *testing.T) {
	t.Parallel()

	client, server := newClient(t)
	buf := buffer.New(1, "/work/main.go", sampleText, 0)
	old := buf.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Hints(ctx, old, inlay.Range{Start: 0, End: 4})
	require.NoError(t, err)

	_, err = client.Hints(ctx, old, inlay.Range{Start: 4, End: 8})
	require.NoError(t, err)

	_, err = buf.Edit(0, 0, "// doc\n")
	require.NoError(t, err)

	_, err = client.Hints(ctx, buf.Snapshot(), inlay.Range{Start: 0, End: 8})
	require.NoError(t, err)

	opened, changed, queries := server.snapshot()
	assert.Len(t, opened, 1)
	require.Len(t, changed, 1)
	assert.Equal(t, int32(2), changed[0].TextDocument.Version)
	assert.Equal(t, "// doc\n"+sampleText, changed[0].ContentChanges[0].Text)
	assert.Len(t, queries, 3)

	_, err = client.Hints(ctx, old, inlay.Range{Start: 0, End: 4})
	require.ErrorIs(t, err, lsp.ErrStaleSnapshot)
}

func TestClient_Refresh(t *testing.T) {
	t.Parallel()

	refreshed := make(chan struct{}, 1)
	_, server := newClient(t, lsp.WithRefresh(func() { refreshed <- struct{}{} }))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result json.RawMessage

	_, err := server.conn.Call(ctx, "workspace/inlayHint/refresh", nil, &result)
	require.NoError(t, err)

	select {
	case <-refreshed:
	case <-ctx.Done():
		t.Fatal("refresh callback not invoked")
	}
}

func TestClient_AsFetchSource(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t)

	mb := buffer.NewMultiBuffer()
	mb.AddBuffer(buffer.New(1, "/work/main.go", sampleText, 0))
	_, err := mb.AddExcerpt(1, inlay.Range{Start: 0, End: len(sampleText)})
	require.NoError(t, err)

	coord := fetch.New(client, mb, fetch.WithSettings(inlay.Settings{Enabled: true, ShowParameterHints: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	splice, err := coord.Fetch(ctx, mb.Requests())
	require.NoError(t, err)
	require.Len(t, splice.Insert, 1)
	assert.Equal(t, "n:", splice.Insert[0].Hint.Label)
	assert.Equal(t, 14, splice.Insert[0].Anchor.Offset)
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	client, server := newClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Close(ctx))

	select {
	case <-client.Done():
	case <-ctx.Done():
		t.Fatal("connection not closed")
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Contains(t, server.methods, "shutdown")
}
