package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reflex"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/vdom"
)

type fixture struct {
	app   *reflex.App
	srv   *Server
	user  *reactive.Object
	title *vdom.VNode
	field *vdom.VNode
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	title := vdom.H1(vdom.BindID("1"), vdom.Tpl("Hello ${data.name}"), "Hello a")
	field := vdom.Input(vdom.BindID("1"), vdom.Tpl("${data.name}"), vdom.Value("a"))
	doc := vdom.NewDocument(vdom.Html(
		vdom.Head(vdom.Title("demo")),
		vdom.Body(title, field, vdom.P(vdom.BindAny(), vdom.Tpl("${len(all)}"))),
	))

	app := reflex.New(reflex.Config{
		Layer:  doc,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	user := app.Wrap(map[string]any{"id": "1", "name": "a"}).(*reactive.Object)
	srv := New(app, doc, opts)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
		runtime.KeepAlive(user)
	})
	return &fixture{app: app, srv: srv, user: user, title: title, field: field}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestDocument(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html><html>"))
	assert.Contains(t, body, `<h1 data-nf-id="1" data-nf-tpl="Hello ${data.name}" data-hid="h1">Hello a</h1>`)
	assert.Contains(t, body, ClientScript+"</body>")
}

func TestDocumentWithoutClient(t *testing.T) {
	f := newFixture(t, Options{DisableClient: true})

	body := f.do(http.MethodGet, "/", "").Body.String()
	assert.NotContains(t, body, "<script>")
}

func TestInjectClient(t *testing.T) {
	assert.Equal(t, "<p></p>"+ClientScript, injectClient("<p></p>"))
	assert.Equal(t, "<body>x"+ClientScript+"</body>", injectClient("<body>x</body>"))
}

func TestMergeStateFlowsToDocument(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodPost, "/state/1", `{"name": "b", "id": "9"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "b", snap["name"])
	assert.Equal(t, "1", snap["id"], "id is not writable")

	require.True(t, f.app.Scheduler().Pending())
	require.NoError(t, f.app.Tick())
	assert.Equal(t, "Hello b", f.title.TextContent())
	assert.Equal(t, "b", f.field.Value())

	body := f.do(http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, `data-hid="h1">Hello b</h1>`)
	assert.Contains(t, body, `value="b"`)
}

func TestMergeStateErrors(t *testing.T) {
	f := newFixture(t, Options{MaxBodyBytes: 64})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown entity", "/state/404", `{"a": 1}`, http.StatusNotFound, "R001"},
		{"invalid json", "/state/1", `{`, http.StatusBadRequest, "R008"},
		{"array body", "/state/1", `[1, 2]`, http.StatusBadRequest, "R008"},
		{"null body", "/state/1", `null`, http.StatusBadRequest, "R008"},
		{"too large", "/state/1", `{"name": "` + strings.Repeat("x", 100) + `"}`, http.StatusBadRequest, "R008"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var out struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, tt.code, out.Error.Code)
		})
	}
	assert.False(t, f.app.Scheduler().Pending())
}

func TestGetState(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(http.MethodGet, "/state/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": "1", "name": "a"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id": "1", "name": "a"}]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/state/2", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, Options{Registerer: reg, Namespace: "demo"})

	f.do(http.MethodGet, "/state/1", "")
	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `demo_http_requests_total{method="GET",route="/state/{id}",status="200"} 1`)
}

func TestNoMetricsWithoutGatherer(t *testing.T) {
	f := newFixture(t, Options{})
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/metrics", "").Code)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketSyncAndUpdate(t *testing.T) {
	f := newFixture(t, Options{})
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	sync := readMessage(t, conn)
	assert.Equal(t, MessageSync, sync.Type)
	require.Len(t, sync.Nodes, 3)
	assert.Equal(t, NodeUpdate{HID: "h1", Entity: "1", Kind: "text", Content: "Hello a"}, sync.Nodes[0])
	assert.Equal(t, NodeUpdate{HID: "h2", Entity: "1", Kind: "value", Content: "a"}, sync.Nodes[1])
	assert.Equal(t, 1, f.srv.Hub().ClientCount())

	f.user.Set("name", "b")
	require.NoError(t, f.app.Tick())

	update := readMessage(t, conn)
	assert.Equal(t, MessageUpdate, update.Type)
	assert.Equal(t, []NodeUpdate{
		{HID: "h1", Entity: "1", Kind: "text", Content: "Hello b"},
		{HID: "h2", Entity: "1", Kind: "value", Content: "b"},
		{HID: "h3", Kind: "text", Content: "1"},
	}, update.Nodes)
}

func TestWebSocketReceivesFlushErrors(t *testing.T) {
	f := newFixture(t, Options{})
	f.title.SetAttr(vdom.AttrTemplate, "${data.}")
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	f.user.Set("name", "b")
	require.Error(t, f.app.Tick())

	update := readMessage(t, conn)
	assert.Equal(t, MessageUpdate, update.Type)
	errMsg := readMessage(t, conn)
	assert.Equal(t, MessageError, errMsg.Type)
	assert.Contains(t, errMsg.Error, "R002")
}

func TestHubClose(t *testing.T) {
	f := newFixture(t, Options{})
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	f.srv.Close()
	assert.Equal(t, 0, f.srv.Hub().ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil, nil)
	assert.NoError(t, hub.Broadcast(Message{Type: MessageUpdate}))
	assert.Equal(t, 0, hub.ClientCount())
}
