package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// rpcCall sends a JSON-RPC request to handler and returns the parsed response.
func rpcCall(t *testing.T, handler http.Handler, method string, params any, authToken string) (int, map[string]any) {
	t.Helper()
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		reqBody["params"] = params
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "http://127.0.0.1:7737/jsonrpc", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var result map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("unmarshal response: %v (body: %s)", err, string(body))
		}
	}
	return rr.Code, result
}

func errorCode(t *testing.T, resp map[string]any) int {
	t.Helper()
	e, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", resp)
	}
	return int(e["code"].(float64))
}

func newTestRPCHandler(t *testing.T) (http.Handler, string) {
	t.Helper()
	a, _, root := newTestApi(t)
	s := NewServer(nil, a, &Config{Secret: testSecret})
	t.Cleanup(func() { s.rpc.Close() })
	return s.handler(), root
}

func TestRPCSystemGetVersion(t *testing.T) {
	h, _ := newTestRPCHandler(t)

	code, resp := rpcCall(t, h, "system.getVersion", nil, testSecret)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp)
	}
	if result["version"] != "1.0.0" || result["commit"] != "abc123" || result["buildType"] != "release" {
		t.Fatalf("unexpected version result %v", result)
	}
}

func TestRPCStatus_Unconfigured(t *testing.T) {
	h, _ := newTestRPCHandler(t)

	_, resp := rpcCall(t, h, "status.get", nil, testSecret)
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp)
	}
	if result["needsConfiguration"] != true || result["canUpdate"] != false {
		t.Fatalf("unexpected status %v", result)
	}
}

func TestRPCUpdateTrigger_NotConfigured(t *testing.T) {
	h, _ := newTestRPCHandler(t)

	_, resp := rpcCall(t, h, "update.trigger", nil, testSecret)
	if got := errorCode(t, resp); got != int(CodeNotConfigured) {
		t.Fatalf("expected code %d, got %d", CodeNotConfigured, got)
	}
}

func TestRPCSetRegion(t *testing.T) {
	h, _ := newTestRPCHandler(t)

	_, resp := rpcCall(t, h, "settings.setRegion", map[string]any{"region": "EU"}, testSecret)
	if resp["error"] != nil {
		t.Fatalf("unexpected error %v", resp["error"])
	}
	_, resp = rpcCall(t, h, "settings.setRegion", map[string]any{"region": "JP"}, testSecret)
	if got := errorCode(t, resp); got != int(CodeInvalidParams) {
		t.Fatalf("expected invalid params, got %d", got)
	}
	_, resp = rpcCall(t, h, "settings.setRegion", map[string]any{}, testSecret)
	if got := errorCode(t, resp); got != int(CodeInvalidParams) {
		t.Fatalf("expected invalid params for missing region, got %d", got)
	}

	_, resp = rpcCall(t, h, "status.get", nil, testSecret)
	if resp["result"].(map[string]any)["region"] != "EU" {
		t.Fatalf("region not persisted: %v", resp)
	}
}

func TestRPCSetInterval(t *testing.T) {
	h, _ := newTestRPCHandler(t)

	_, resp := rpcCall(t, h, "settings.setInterval", map[string]any{"seconds": 5}, testSecret)
	if got := errorCode(t, resp); got != int(CodeInvalidParams) {
		t.Fatalf("expected invalid params, got %d", got)
	}
	_, resp = rpcCall(t, h, "settings.setInterval", map[string]any{"seconds": 3600}, testSecret)
	if resp["error"] != nil {
		t.Fatalf("unexpected error %v", resp["error"])
	}
}

func TestRPCDestination(t *testing.T) {
	h, root := newTestRPCHandler(t)

	_, resp := rpcCall(t, h, "destination.search", map[string]any{}, testSecret)
	if got := errorCode(t, resp); got != int(CodeNotFound) {
		t.Fatalf("expected not found, got %d", got)
	}

	dest := filepath.Join(root, "AddOns", "TamrielTradeCentre")
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	_, resp = rpcCall(t, h, "destination.search", map[string]any{}, testSecret)
	result, ok := resp["result"].(map[string]any)
	if !ok || result["path"] != dest {
		t.Fatalf("search result = %v", resp)
	}

	_, resp = rpcCall(t, h, "destination.set", map[string]any{"path": filepath.Join(root, "nope")}, testSecret)
	if got := errorCode(t, resp); got != int(CodeNotFound) {
		t.Fatalf("expected not found for missing dir, got %d", got)
	}
	_, resp = rpcCall(t, h, "destination.set", map[string]any{"path": root}, testSecret)
	if resp["result"].(map[string]any)["path"] != root {
		t.Fatalf("set result = %v", resp)
	}

	_, resp = rpcCall(t, h, "destination.clear", nil, testSecret)
	if resp["error"] != nil {
		t.Fatalf("unexpected error %v", resp["error"])
	}
	_, resp = rpcCall(t, h, "status.get", nil, testSecret)
	if _, has := resp["result"].(map[string]any)["destination"]; has {
		t.Fatalf("destination should be cleared: %v", resp)
	}
}

func TestRPCUnauthorized(t *testing.T) {
	h, _ := newTestRPCHandler(t)
	code, resp := rpcCall(t, h, "status.get", nil, "wrong")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if got := errorCode(t, resp); got != -32600 {
		t.Fatalf("expected -32600, got %d", got)
	}
}
