package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })
	return &buf
}

func TestLevels(t *testing.T) {
	buf := captureOutput(t)

	Infof("hello %s", "world")
	Warnf("careful")
	Errorf("boom: %d", 42)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "boom: 42")
}

func TestDebugfGated(t *testing.T) {
	buf := captureOutput(t)

	SetDebug(false)
	Debugf("hidden")
	assert.Empty(t, buf.String())

	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })
	Debugf("shown")
	assert.Contains(t, buf.String(), "shown")
}

// fakeES answers the product check and records bulk bodies.
type fakeES struct {
	mu      sync.Mutex
	bodies  []string
	bulkRes string
}

func (f *fakeES) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_bulk") {
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.bodies = append(f.bodies, string(body))
			f.mu.Unlock()
			res := f.bulkRes
			if res == "" {
				res = `{"errors":false,"items":[{"index":{"status":201}}]}`
			}
			_, _ = w.Write([]byte(res))
			return
		}
		_, _ = w.Write([]byte(`{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`))
	})
}

func newFakeES(t *testing.T) (*fakeES, string) {
	t.Helper()
	f := &fakeES{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func TestSendWrappedLog(t *testing.T) {
	captureOutput(t)
	f, url := newFakeES(t)

	client, err := NewESClient([]string{url}, "", "")
	require.NoError(t, err)
	require.NotNil(t, client)

	err = SendWrappedLog(context.Background(), client, "idx", "memory.test", map[string]int{"n": 1})
	require.NoError(t, err)

	require.Len(t, f.bodies, 1)
	sc := bufio.NewScanner(strings.NewReader(f.bodies[0]))
	require.True(t, sc.Scan())
	assert.JSONEq(t, `{"index":{"_index":"idx"}}`, sc.Text())
	require.True(t, sc.Scan())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(sc.Bytes(), &doc))
	assert.Equal(t, "memory.test", doc["LOGTYPE"])
	assert.Equal(t, map[string]any{"n": float64(1)}, doc["data"])
	assert.Contains(t, doc, "@timestamp")
}

func TestSendWrappedLogItemError(t *testing.T) {
	captureOutput(t)
	f, url := newFakeES(t)
	f.bulkRes = `{"errors":true,"items":[{"index":{"status":400,"error":{"type":"mapper_parsing_exception"}}}]}`

	client, err := NewESClient([]string{url}, "", "")
	require.NoError(t, err)

	err = SendWrappedLog(context.Background(), client, "idx", "memory.test", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestNilClientIsNoop(t *testing.T) {
	client, err := NewESClient(nil, "", "")
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.NoError(t, SendWrappedLog(context.Background(), nil, "idx", "t", nil))

	var m *Metrics
	m.Emit(context.Background(), MetricsEvent{Phase: PhaseCompress})
	NewMetrics(nil).Emit(context.Background(), MetricsEvent{Phase: PhaseCompress})
}

func TestMetricsStampsCampaign(t *testing.T) {
	captureOutput(t)
	f, url := newFakeES(t)
	client, err := NewESClient([]string{url}, "", "")
	require.NoError(t, err)

	m := NewMetrics(client).ForCampaign("c-1")
	m.Emit(context.Background(), MetricsEvent{Phase: PhaseReduce, Event: "pass", Depth: 2})

	require.Len(t, f.bodies, 1)
	assert.Contains(t, f.bodies[0], `"campaign_id":"c-1"`)
	assert.Contains(t, f.bodies[0], `"LOGTYPE":"memory.reduce.pass"`)
}
