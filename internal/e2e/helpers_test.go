package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"tensord/internal/backend"
	"tensord/internal/httpapi"
	"tensord/internal/manager"
	"tensord/internal/registry"
)

const adderSpec = `name: adder
inputs:
  - name: a
    dtype: FLOAT
  - name: b
    dtype: FLOAT
ops:
  - name: sum
    op: add
    args: [a, b]
  - name: act
    op: tanh
    args: [sum]
outputs: [sum, act]
`

// createTempModelsDir writes the given files into a temporary models dir.
func createTempModelsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

func newServerForDir(t *testing.T, modelsDir string, cfg manager.ManagerConfig, extra ...*backend.Model) (*httptest.Server, *manager.Manager) {
	t.Helper()
	reg, err := registry.LoadDir(modelsDir, backend.LlamaConfig{})
	if err != nil {
		t.Fatalf("load models: %v", err)
	}
	for _, m := range extra {
		if err := reg.Register(m); err != nil {
			t.Fatalf("register %s: %v", m.Name, err)
		}
	}
	cfg.Registry = reg
	cfg.Log = zerolog.Nop()
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

func doJSON(t *testing.T, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func decode(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("json: %v (%s)", err, b)
	}
}
