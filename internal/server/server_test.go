package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wattsup/internal/diagram"
	"wattsup/internal/reference"
	"wattsup/internal/store"
)

type fakeGenerator struct {
	reply string
	err   error
}

func (f fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.reply, f.err
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	opts.Store = st
	if opts.GridSize == 0 {
		opts.GridSize = 20
	}
	ts := httptest.NewServer(New(opts).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

const kitchen = `{
	"elements": [
		{"id": 1, "type": "switch", "x": 23, "y": 37, "label": ""},
		{"id": 2, "type": "light", "x": 100, "y": 40, "label": ""},
		{"id": 3, "type": "label", "x": 60, "y": 100, "label": "Kitchen"}
	],
	"wires": [{"id": 4, "startElementId": 1, "endElementId": 2}]
}`

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCanvasRoundTrip(t *testing.T) {
	ts, st := newTestServer(t, Options{Pro: true})

	resp, body := do(t, http.MethodPut, ts.URL+"/api/canvases/alice", kitchen)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var saved diagram.Snapshot
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "alice", saved.UserID)
	assert.Equal(t, 1, st.History("alice"))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/canvases/alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got diagram.Snapshot
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, saved.ID, got.ID)
	require.Len(t, got.Elements, 3)
	assert.Equal(t, 20, got.Elements[0].X)
	assert.Equal(t, 40, got.Elements[0].Y)
	require.Len(t, got.Wires, 1)
	assert.Equal(t, int64(1), got.Wires[0].StartElementID)
}

func TestTakeoff(t *testing.T) {
	ts, _ := newTestServer(t, Options{Pro: true})
	resp, _ := do(t, http.MethodPut, ts.URL+"/api/canvases/alice", kitchen)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/canvases/alice/takeoff", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"userId":"alice","items":[
		{"item":"Switch","quantity":1},
		{"item":"Light","quantity":1},
		{"item":"Wire","quantity":1}
	]}`, string(body))
}

func TestExport(t *testing.T) {
	ts, _ := newTestServer(t, Options{Pro: true})
	resp, _ := do(t, http.MethodPut, ts.URL+"/api/canvases/alice", kitchen)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/canvases/alice/export.png", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "WattsUp-Diagram.png")
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/canvases/alice/export.pdf", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/canvases/alice/export.jpg", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/canvases/alice/export.svg", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"unknown export format"}`, string(body))
}

func TestExportEmptyCanvas(t *testing.T) {
	ts, _ := newTestServer(t, Options{Pro: true})
	resp, _ := do(t, http.MethodPut, ts.URL+"/api/canvases/bob", `{"elements":[],"wires":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/canvases/bob/export.png", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCanvasErrors(t *testing.T) {
	ts, _ := newTestServer(t, Options{Pro: true})

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing", http.MethodGet, "/api/canvases/nobody", "", http.StatusNotFound},
		{"missing takeoff", http.MethodGet, "/api/canvases/nobody/takeoff", "", http.StatusNotFound},
		{"bad json", http.MethodPut, "/api/canvases/alice", "{", http.StatusBadRequest},
		{"unknown field", http.MethodPut, "/api/canvases/alice", `{"shapes":[]}`, http.StatusBadRequest},
		{"bad type", http.MethodPut, "/api/canvases/alice", `{"elements":[{"id":1,"type":"toaster"}]}`, http.StatusUnprocessableEntity},
		{"self wire", http.MethodPut, "/api/canvases/alice", `{"elements":[{"id":1,"type":"light"}],"wires":[{"id":2,"startElementId":1,"endElementId":1}]}`, http.StatusUnprocessableEntity},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, tc.method, ts.URL+tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Contains(t, string(body), `"error"`)
		})
	}
}

func TestLockedWithoutPro(t *testing.T) {
	ts, _ := newTestServer(t, Options{Pro: false})
	for _, path := range []string{"/api/canvases/alice", "/api/canvases/alice/takeoff", "/api/canvases/alice/export.png"} {
		resp, body := do(t, http.MethodGet, ts.URL+path, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		assert.Contains(t, string(body), "pro subscription")
	}
	resp, _ := do(t, http.MethodPut, ts.URL+"/api/canvases/alice", kitchen)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReference(t *testing.T) {
	ts, _ := newTestServer(t, Options{
		Reference: reference.NewClient(fakeGenerator{reply: "Install GFCI protection."}, nil),
	})
	resp, body := do(t, http.MethodPost, ts.URL+"/api/reference", `{"scenario":"bathroom outlet"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"guidelines":"Install GFCI protection."}`, string(body))

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/reference", `{"scenario":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/reference", `nope`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReferenceErrors(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	resp, body := do(t, http.MethodPost, ts.URL+"/api/reference", `{"scenario":"garage"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "API key")

	ts, _ = newTestServer(t, Options{
		Reference: reference.NewClient(fakeGenerator{err: errors.New("quota")}, nil),
	})
	resp, body = do(t, http.MethodPost, ts.URL+"/api/reference", `{"scenario":"garage"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"error":"reference lookup failed"}`, string(body))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestPanicIsRecovered(t *testing.T) {
	s := New(Options{})
	h := s.logRequests(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- New(Options{}).Serve(ctx, l, time.Second)
	}()

	resp, _ := do(t, http.MethodGet, "http://"+l.Addr().String()+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
