package view

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/vango-dev/reflex/internal/errors"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/tmpl"
)

type fakeNode struct {
	kind   NodeKind
	render RenderFunc
	tpl    string

	text, value string
	sets        int
}

func (n *fakeNode) Kind() NodeKind       { return n.kind }
func (n *fakeNode) Renderer() RenderFunc { return n.render }
func (n *fakeNode) Template() string     { return n.tpl }
func (n *fakeNode) SetText(s string)     { n.text = s; n.sets++ }
func (n *fakeNode) SetValue(s string)    { n.value = s; n.sets++ }

type fakeLayer struct {
	byID map[string][]Node
	any  []Node
}

func (l *fakeLayer) NodesByID(id string) []Node { return l.byID[id] }
func (l *fakeLayer) AnyNodes() []Node           { return l.any }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScenarioHelloB(t *testing.T) {
	g := reactive.NewGraph()
	o := g.WrapObject(map[string]any{"id": "1", "name": "a"})

	node := &fakeNode{tpl: "Hello ${data.name}"}
	layer := &fakeLayer{byID: map[string][]Node{"1": {node}}}
	s := New(layer, Options{Logger: quietLogger()})

	o.Set("name", "b")
	require.NoError(t, s.UpdateFromGraph(context.Background(), g))

	assert.Equal(t, "Hello b", node.text)
	assert.Empty(t, g.Dirty(), "UpdateFromGraph drains the dirty set")
}

func TestWildcardAlwaysRenders(t *testing.T) {
	g := reactive.NewGraph()
	a := g.WrapObject(map[string]any{"id": "a"})
	b := g.WrapObject(map[string]any{"id": "b"})

	wild := &fakeNode{tpl: "${len(all)} entities, data=${data == nil}"}
	emptyID := &fakeNode{tpl: "any:${data.id}|${len(all)}|${data.name == nil}"}
	s := New(&fakeLayer{any: []Node{wild, emptyID}}, Options{Graph: g, Logger: quietLogger()})

	require.NoError(t, s.Update(context.Background(), reactive.DirtyMap{}))
	assert.Equal(t, "2 entities, data=false", wild.text)
	assert.Equal(t, "any:|2|true", emptyID.text, "wildcard data is an entity with an empty id")

	require.NoError(t, s.Update(context.Background(), nil))
	assert.Equal(t, 2, wild.sets)

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestMissingDataIsSkippedWithWarning(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ok := &fakeNode{tpl: "ok"}
	orphan := &fakeNode{tpl: "never"}
	g := reactive.NewGraph()
	present := g.WrapObject(map[string]any{"id": "present"})

	layer := &fakeLayer{byID: map[string][]Node{"present": {ok}, "gone": {orphan}}}
	s := New(layer, Options{Logger: logger})

	var report FlushReport
	s.OnFlush(func(r FlushReport) { report = r })

	err := s.Update(context.Background(), reactive.DirtyMap{"present": present, "gone": nil})
	require.NoError(t, err)

	assert.Equal(t, "ok", ok.text)
	assert.Zero(t, orphan.sets)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []string{"gone", "present"}, report.Entities)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "R001")
}

func TestRenderErrorDoesNotAbortFlush(t *testing.T) {
	g := reactive.NewGraph()
	o := g.WrapObject(map[string]any{"id": "1", "n": 2})

	broken := &fakeNode{render: func(map[string]any) (string, error) { return "", errors.New("boom") }}
	badTpl := &fakeNode{tpl: "${undeclared}"}
	good := &fakeNode{tpl: "${data.n * 2}"}

	layer := &fakeLayer{byID: map[string][]Node{"1": {broken, badTpl, good}}}
	s := New(layer, Options{Logger: quietLogger()})

	err := s.Update(context.Background(), reactive.DirtyMap{"1": o})
	require.Error(t, err)
	assert.True(t, rerrors.HasCode(err, rerrors.CodeTemplateRender))
	assert.True(t, rerrors.HasCode(err, rerrors.CodeTemplateCompile))
	assert.Equal(t, "4", good.text)
	assert.Zero(t, broken.sets)
}

func TestValueNodesReceiveValue(t *testing.T) {
	g := reactive.NewGraph()
	o := g.WrapObject(map[string]any{"id": "1", "name": "typed"})

	input := &fakeNode{kind: KindValue, tpl: "${data.name}"}
	s := New(&fakeLayer{byID: map[string][]Node{"1": {input}}}, Options{Logger: quietLogger()})

	require.NoError(t, s.Update(context.Background(), reactive.DirtyMap{"1": o}))
	assert.Equal(t, "typed", input.value)
	assert.Empty(t, input.text)
}

func TestCustomRendererWins(t *testing.T) {
	g := reactive.NewGraph()
	o := g.WrapObject(map[string]any{"id": "1", "name": "x"})

	var got map[string]any
	node := &fakeNode{
		tpl: "ignored",
		render: func(vars map[string]any) (string, error) {
			got = vars
			return "custom", nil
		},
	}
	s := New(&fakeLayer{byID: map[string][]Node{"1": {node}}}, Options{Graph: g, Logger: quietLogger()})

	require.NoError(t, s.Update(context.Background(), reactive.DirtyMap{"1": o}))
	assert.Equal(t, "custom", node.text)
	assert.Equal(t, map[string]any{"id": "1", "name": "x"}, got[VarData])
	assert.Len(t, got[VarAll], 1)
}

func TestNodeWithoutRendererSkipped(t *testing.T) {
	g := reactive.NewGraph()
	o := g.WrapObject(map[string]any{"id": "1"})

	bare := &fakeNode{}
	s := New(&fakeLayer{byID: map[string][]Node{"1": {bare}}}, Options{Logger: quietLogger()})

	var report FlushReport
	s.OnFlush(func(r FlushReport) { report = r })

	require.NoError(t, s.Update(context.Background(), reactive.DirtyMap{"1": o}))
	assert.Zero(t, bare.sets)
	assert.Equal(t, 1, report.Skipped)
}

func TestEngineGlobalsReachTemplates(t *testing.T) {
	g := reactive.NewGraph()
	o := g.WrapObject(map[string]any{"id": "1", "name": "b"})

	engine := tmpl.NewEngine(tmpl.Options{Globals: map[string]any{"greeting": "Hi"}})
	node := &fakeNode{tpl: "${greeting} ${data.name}"}
	s := New(&fakeLayer{byID: map[string][]Node{"1": {node}}}, Options{Engine: engine, Logger: quietLogger()})

	require.NoError(t, s.Update(context.Background(), reactive.DirtyMap{"1": o}))
	assert.Equal(t, "Hi b", node.text)
}

func TestFlushReportAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := reactive.NewGraph()
	o := g.WrapObject(map[string]any{"id": "1"})

	node := &fakeNode{tpl: "x"}
	s := New(&fakeLayer{byID: map[string][]Node{"1": {node}}}, Options{
		Logger:             quietLogger(),
		Registerer:         reg,
		Namespace:          "test",
		SlowFlushThreshold: time.Nanosecond,
	})

	var report FlushReport
	s.OnFlush(func(r FlushReport) { report = r })
	require.NoError(t, s.Update(context.Background(), reactive.DirtyMap{"1": o}))

	require.Len(t, report.Updates, 1)
	assert.Same(t, node, report.Updates[0].Node)
	assert.Equal(t, "1", report.Updates[0].EntityID)
	assert.Equal(t, "x", report.Updates[0].Content)
	assert.Positive(t, report.Duration)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			values[mf.GetName()] = c.GetValue()
		}
	}
	assert.Equal(t, 1.0, values["test_view_flushes_total"])
	assert.Equal(t, 1.0, values["test_view_nodes_updated_total"])
	assert.Equal(t, 1.0, values["test_view_slow_flushes_total"])
}

func TestNodeKindString(t *testing.T) {
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "value", KindValue.String())
	assert.Equal(t, "unknown", NodeKind(9).String())
}
