package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/sandrolain/gocalc/internal/config"
	"github.com/sandrolain/gocalc/pkg/assistant"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/ext/extmath"
	"github.com/sandrolain/gocalc/pkg/history"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// idle keep-alive connections of http.DefaultClient
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type cannedModel struct{ reply string }

func (c cannedModel) Generate(context.Context, string, *genai.Schema) (string, error) {
	return c.reply, nil
}

func newTestServer(t *testing.T, model assistant.Model) (*Server, *httptest.Server) {
	t.Helper()
	store, err := history.Open(context.Background(), history.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := New(config.Default(), Deps{
		Evaluator: evaluator.New(evaluator.WithFunctions(extmath.All()...)),
		History:   store,
		Assistant: assistant.New(model),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, body := do(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "gocalc", body["service"])
}

func TestEvaluate(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/evaluate", map[string]any{
		"expression": "1234.5 × 2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2469.0, body["result"])
	assert.Equal(t, "2469", body["display"])
	assert.Equal(t, "2,469", body["formatted"])

	_, body = do(t, http.MethodPost, ts.URL+"/api/v1/evaluate", map[string]any{
		"expression": "1 ÷ 3", "locale": "de", "fraction_digits": 2,
	})
	assert.Equal(t, "0,33", body["formatted"])

	_, body = do(t, http.MethodPost, ts.URL+"/api/v1/evaluate", map[string]any{
		"expression": "sin(π ÷ 2) + abs(-1)", "angle_mode": "rad",
	})
	assert.Equal(t, 2.0, body["result"])
}

func TestEvaluateDiagnostics(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/evaluate", map[string]any{"expression": "2 + × 3"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	diag := body["error"].(map[string]any)
	assert.Equal(t, "SyntaxError", diag["kind"])
	assert.Equal(t, 4.0, diag["position"])

	resp, body = do(t, http.MethodPost, ts.URL+"/api/v1/evaluate", map[string]any{"expression": "√-4"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	diag = body["error"].(map[string]any)
	assert.Equal(t, "DomainError", diag["kind"])
	assert.Equal(t, "D2002", diag["code"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/evaluate", map[string]any{"expression": "1", "angle_mode": "grad"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/evaluate", strings.NewReader("{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/categories")
	require.NoError(t, err)
	var cats []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cats))
	resp.Body.Close()
	assert.Len(t, cats, 4)

	resp, err = http.Get(ts.URL + "/api/v1/calculators?category=finance&featured=true")
	require.NoError(t, err)
	var calcs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&calcs))
	resp.Body.Close()
	require.Len(t, calcs, 2)
	assert.Equal(t, "loan-emi-calculator", calcs[0]["slug"])

	r, body := do(t, http.MethodGet, ts.URL+"/api/v1/calculators/bmi-calculator", nil)
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Len(t, body["related"], 2)

	r, _ = do(t, http.MethodGet, ts.URL+"/api/v1/calculators/nope", nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/search?q=x")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, "[]", string(raw))

	resp, err = http.Get(ts.URL + "/sitemap.xml")
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(raw), "http://localhost:8080/calculator/bmi-calculator")
}

func TestComputeAndHistory(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/calculators/bmi-calculator/compute", map[string]any{
		"inputs":  map[string]any{"weight": 70, "height": "175"},
		"user_id": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := body["history_id"].(string)
	require.NotEmpty(t, id)
	results := body["results"].([]any)
	assert.Equal(t, "22.86", results[0].(map[string]any)["formatted"])

	resp, body = do(t, http.MethodPost, ts.URL+"/api/v1/calculators/bmi-calculator/compute", map[string]any{
		"inputs": map[string]any{"weight": 70},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "height", body["error"].(map[string]any)["field"])

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/history?user_id=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].(map[string]any)["id"])

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/history", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/v1/history/"+id+"?user_id=bob", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/v1/history/"+id+"?user_id=alice", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	do(t, http.MethodPost, ts.URL+"/api/v1/calculators/discount-calculator/compute", map[string]any{
		"inputs": map[string]any{"price": 100, "discount": 10}, "user_id": "alice",
	})
	resp, body = do(t, http.MethodDelete, ts.URL+"/api/v1/history?user_id=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["removed"])
}

func TestAssistant(t *testing.T) {
	_, ts := newTestServer(t, cannedModel{reply: `{"explanation":"simple","solution":"steps","answer":"42"}`})

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/assistant/explain", map[string]any{"slug": "bmi-calculator"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "simple", body["explanation"])

	resp, body = do(t, http.MethodPost, ts.URL+"/api/v1/assistant/solve", map[string]any{"equation": "6 × 7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42", body["answer"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/assistant/explain", map[string]any{"slug": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssistantDisabled(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/assistant/solve", map[string]any{"equation": "1+1"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestFunctions(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/v1/functions")
	require.NoError(t, err)
	defer resp.Body.Close()
	var fns []functionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fns))
	assert.Equal(t, "sin", fns[0].Name)
	assert.True(t, fns[0].Builtin)
	assert.Greater(t, len(fns), 6)
}

func dialSession(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/session" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var f map[string]any
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestSessionWebSocket(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dialSession(t, ts, "?user_id=carol")

	first := readFrame(t, conn)
	assert.Equal(t, "idle", first["state"])
	assert.Equal(t, "0", first["display"])

	require.NoError(t, conn.WriteJSON(keyFrame{Keys: []string{"6", "×", "7"}}))
	f := readFrame(t, conn)
	assert.Equal(t, "6×7", f["display"])

	require.NoError(t, conn.WriteJSON(keyFrame{Key: "="}))
	f = readFrame(t, conn)
	assert.Equal(t, "evaluated", f["state"])
	assert.Equal(t, "42", f["display"])

	require.NoError(t, conn.WriteJSON(keyFrame{Key: "bogus"}))
	f = readFrame(t, conn)
	assert.Equal(t, "bogus", f["rejected"])
	assert.Equal(t, "42", f["display"])

	page, err := s.history.List(context.Background(), "carol", 0, "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "6×7", page.Entries[0].Inputs["expression"])
}

func TestCloseSessionsWhileWriting(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dialSession(t, ts, "")
	readFrame(t, conn)

	// keep the handler busy writing frames while the server shuts down
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			if conn.WriteJSON(keyFrame{Key: "1"}) != nil {
				return
			}
		}
	}()
	s.closeSessions()
	<-done

	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			assert.Equal(t, websocket.CloseGoingAway, ce.Code)
		}
		break
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	_, ts := newTestServer(t, nil)
	a := dialSession(t, ts, "")
	b := dialSession(t, ts, "?angle_mode=rad")
	readFrame(t, a)
	first := readFrame(t, b)
	assert.Equal(t, "rad", first["angle_mode"])

	require.NoError(t, a.WriteJSON(keyFrame{Keys: []string{"5", "M+"}}))
	assert.Equal(t, 5.0, readFrame(t, a)["memory"])

	require.NoError(t, b.WriteJSON(keyFrame{Key: "MR"}))
	assert.Equal(t, 0.0, readFrame(t, b)["memory"])
}

func TestApplyConfig(t *testing.T) {
	s, ts := newTestServer(t, nil)
	cfg := config.Default()
	cfg.Engine.Locale = "de"
	cfg.Engine.FractionDigits = 1
	s.ApplyConfig(cfg)

	_, body := do(t, http.MethodPost, ts.URL+"/api/v1/evaluate", map[string]any{"expression": "1000.26"})
	assert.Equal(t, "1.000,3", body["formatted"])
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestHistoryDisabled(t *testing.T) {
	s := New(config.Default(), Deps{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/v1/history?user_id=alice", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/calculators/percentage-calculator/compute", map[string]any{
		"inputs": map[string]any{"percentage": 20, "total": 50}, "user_id": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["history_id"])
}
