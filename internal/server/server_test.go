package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	"profitpro/internal/config"
)

func newTestServer(t *testing.T, mutate func(cfg *config.AppConfig)) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Server.DevMode = true
	if mutate != nil {
		mutate(cfg)
	}
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("ensure data dir: %v", err)
	}

	logger, _ := test.NewNullLogger()
	srv, err := NewServer(cfg, dataDir, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, dataDir
}

func TestHealthAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a request id")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestNewServerCreatesMenus(t *testing.T) {
	srv, dataDir := newTestServer(t, nil)

	if _, err := os.Stat(filepath.Join(dataDir, "menus.json")); err != nil {
		t.Fatalf("menus.json should be created: %v", err)
	}
	if _, err := os.Stat(config.BackupPath(dataDir)); err != nil {
		t.Fatalf("backups.db should be created: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/menus", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var env struct {
		Success bool                       `json:"success"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || len(env.Data) != 2 {
		t.Errorf("expected default menus, got %s", w.Body.String())
	}
	if err := srv.SaveNow(); err != nil {
		t.Errorf("SaveNow: %v", err)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.Server.AllowOrigins = []string{"https://menu.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/menus", nil)
	req.Header.Set("Origin", "https://menu.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://menu.example.com" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestStaticFallback(t *testing.T) {
	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>app</html>"), 0644); err != nil {
		t.Fatal(err)
	}
	srv, _ := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.Server.DevMode = false
		cfg.Server.StaticDir = static
		cfg.Data.AutoBackup = false
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/dishes", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "<html>app</html>" {
		t.Errorf("SPA fallback: %d %q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown api route: %d", w.Code)
	}
}

func TestRunAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Run("127.0.0.1:0") }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run should return nil after shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}

	// 关闭后再次启动直接返回
	if err := srv.Run("127.0.0.1:0"); err != nil {
		t.Errorf("Run after shutdown: %v", err)
	}
}
