package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"labelscan/pkg/label"
	"labelscan/pkg/ocr"
	"labelscan/pkg/scanner"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// stubScanner answers every recognition with text.
func stubScanner(text string) *scanner.Scanner {
	rec := ocr.RecognizerFunc(func(context.Context, image.Image) (string, error) { return text, nil })
	return scanner.New(ocr.NewConsensus(rec), label.NewParser(label.DefaultConfig()))
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	initDB()
	t.Setenv("UPLOAD_BASE", t.TempDir())
	seedDB()
	labelScanner = stubScanner("PO: GRO024\nSales Order\n95237\nQty\n1086")
	t.Cleanup(func() { labelScanner = nil })
	r := gin.Default()
	setupRoutes(r)
	return r
}

func pngUpload(t *testing.T, name string) (*bytes.Buffer, string) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", name)
	if err := imaging.Encode(w, imaging.New(64, 48, color.White), imaging.PNG); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	_ = mw.Close()
	return buf, mw.FormDataContentType()
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	loginBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Upload a label photo
	body, ct := pngUpload(t, "label.png")
	resp = performRequest(r, http.MethodPost, "/scans", body, token, ct)
	if resp.Code != 200 {
		t.Fatalf("scan failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var scanResp struct {
		ID      uint             `json:"id"`
		Result  label.ScanResult `json:"result"`
		Missing []string         `json:"missing"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &scanResp)
	if scanResp.ID == 0 || scanResp.Result.PO == nil || *scanResp.Result.PO != "GRO024" {
		t.Fatalf("unexpected scan response %s", resp.Body.String())
	}

	var stored struct{ StorePath string }
	if err := db.Table("scans").Select("store_path").Where("id = ?", scanResp.ID).Scan(&stored).Error; err != nil {
		t.Fatalf("load scan: %v", err)
	}
	if _, err := os.Stat(filepath.FromSlash(stored.StorePath)); err != nil {
		t.Fatalf("expected upload at stored path %q: %v", stored.StorePath, err)
	}

	// 4. An undecodable upload is rejected
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = w.Write([]byte("SOME CONTENT"))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/scans", buf, token, mw.FormDataContentType())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image got %d", resp.Code)
	}

	// 5. Fetch and confirm with an edited stock code
	path := fmt.Sprintf("/scans/%d", scanResp.ID)
	resp = performRequest(r, http.MethodGet, path, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("get scan failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	confirmBody, _ := json.Marshal(map[string]string{"po": "GRO024", "sales_order": "95237", "qty": "1086", "stock_code": "AB12CD"})
	resp = performRequest(r, http.MethodPost, path+"/confirm", bytes.NewBuffer(confirmBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("confirm failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, path+"/confirm", bytes.NewBuffer(confirmBody), token, "application/json")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second confirm got %d", resp.Code)
	}

	// 6. List scans and labels
	for _, p := range []string{"/scans", "/labels"} {
		resp = performRequest(r, http.MethodGet, p, nil, token, "")
		if resp.Code != 200 {
			t.Fatalf("list %s failed status=%d body=%s", p, resp.Code, resp.Body.String())
		}
	}

	// 7. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/scans", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list scans got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
