package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	r := gin.New()
	setupRoutes(r)
	return r
}

func TestParseTextEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token, err := signAccessToken("tester", "user", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	body, _ := json.Marshal(map[string]string{"text": "PO: GRO024\nSales Order\n95237\nQty\n1086\n445566"})
	resp := performRequest(r, http.MethodPost, "/scans/text", bytes.NewBuffer(body), token, "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	var out struct {
		Result     map[string]string `json:"result"`
		Missing    []string          `json:"missing"`
		Candidates []map[string]any  `json:"candidates"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Result["po"] != "GRO024" || out.Result["sales_order"] != "95237" || out.Result["qty"] != "1086" {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if _, ok := out.Result["stock_code"]; ok {
		t.Fatalf("absent field must be omitted: %+v", out.Result)
	}
	if len(out.Missing) != 2 {
		t.Fatalf("expected stock_code and weight missing got %v", out.Missing)
	}
	if len(out.Candidates) < 3 {
		t.Fatalf("expected candidates in trace got %v", out.Candidates)
	}
}

func TestParseTextRequiresToken(t *testing.T) {
	r := newTestRouter(t)
	body, _ := json.Marshal(map[string]string{"text": "Qty 5"})
	resp := performRequest(r, http.MethodPost, "/scans/text", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodPost, "/scans/text", bytes.NewBuffer(body), "garbage", "application/json")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token got %d", resp.Code)
	}
}

func TestParseTextRejectsBadJSON(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signAccessToken("tester", "", time.Minute)
	resp := performRequest(r, http.MethodPost, "/scans/text", bytes.NewBufferString("{"), token, "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	resp := performRequest(r, http.MethodGet, "/health", nil, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestEnvIntDefault(t *testing.T) {
	t.Setenv("DB_CONNECT_ATTEMPTS", "")
	if got := envIntDefault("DB_CONNECT_ATTEMPTS", 5); got != 5 {
		t.Fatalf("expected default 5 got %d", got)
	}
	t.Setenv("DB_CONNECT_ATTEMPTS", " 9 ")
	if got := envIntDefault("DB_CONNECT_ATTEMPTS", 5); got != 9 {
		t.Fatalf("expected 9 got %d", got)
	}
	t.Setenv("DB_CONNECT_ATTEMPTS", "-1")
	if got := envIntDefault("DB_CONNECT_ATTEMPTS", 5); got != 5 {
		t.Fatalf("expected default for negative got %d", got)
	}
}
