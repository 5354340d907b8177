package web

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/emotion"
	"github.com/teslashibe/go-emoscan/pkg/hub"
	"github.com/teslashibe/go-emoscan/pkg/pipeline"
	"github.com/teslashibe/go-emoscan/pkg/scanner"
)

type testEnv struct {
	server  *Server
	scanner *scanner.Scanner
	cam     *camera.Mock
	cameras *camera.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	var (
		mu sync.Mutex
		n  int
	)
	clf := &emotion.Mock{
		DetectFunc: func(ctx context.Context, img image.Image) ([]emotion.Face, error) {
			mu.Lock()
			defer mu.Unlock()
			n++
			if n%2 == 1 {
				return []emotion.Face{{Box: emotion.FaceBox{X: 100, Y: 100, Width: 120, Height: 120}}}, nil
			}
			return []emotion.Face{{Emotions: emotion.Distribution{emotion.Surprise: 0.66}}}, nil
		},
	}

	pcfg := pipeline.DefaultConfig()
	pcfg.Logger = quiet
	scfg := scanner.DefaultConfig()
	scfg.Interval = time.Hour
	scfg.Logger = quiet

	cam := camera.NewMock(nil)
	sc := scanner.New(pipeline.New(clf, pcfg), cam, scfg)
	cameras := camera.NewManager(camera.DefaultConfig())
	s := NewServer("0", sc, cameras, "")
	t.Cleanup(func() { s.Shutdown() })

	return &testEnv{server: s, scanner: sc, cam: cam, cameras: cameras}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := e.server.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	info := decode[scanner.Info](t, resp)
	if info.Status != scanner.StatusIdle || info.Camera != scanner.CameraOffline {
		t.Errorf("got %+v", info)
	}
}

func TestFeeds(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/feeds", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feeds: got %d", resp.StatusCode)
	}
	feeds := decode[map[string]hub.Stats](t, resp)
	for _, name := range []string{"camera", "status"} {
		st, ok := feeds[name]
		if !ok {
			t.Errorf("missing feed %q", name)
			continue
		}
		if st.Clients != 0 || st.Dropped != 0 {
			t.Errorf("%s: got %+v", name, st)
		}
	}
}

func TestScanLifecycle(t *testing.T) {
	env := newTestEnv(t)

	if resp := env.do(t, http.MethodGet, "/api/snapshot", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("snapshot before scan: got %d, want 404", resp.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/scan/start", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d", resp.StatusCode)
	}
	if info := decode[scanner.Info](t, resp); info.Status != scanner.StatusScanning {
		t.Errorf("start: status %s", info.Status)
	}

	if resp := env.do(t, http.MethodPost, "/api/scan/start", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("second start: got %d, want 409", resp.StatusCode)
	}

	if !env.scanner.Tick(context.Background()) {
		t.Fatal("tick should process a frame")
	}

	resp = env.do(t, http.MethodPost, "/api/scan/stop", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: got %d", resp.StatusCode)
	}
	info := decode[scanner.Info](t, resp)
	if info.Status != scanner.StatusComplete || info.Camera != scanner.CameraFrozen {
		t.Errorf("stop: got %s/%s", info.Status, info.Camera)
	}
	if info.Text != "Surprise (66.0%)" || info.Confidence != 66 {
		t.Errorf("stop: text %q confidence %d", info.Text, info.Confidence)
	}

	resp = env.do(t, http.MethodGet, "/api/snapshot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot: got %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "image/jpeg" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if got := resp.Header.Get("X-Emotion"); got != "Surprise (66.0%)" {
		t.Errorf("X-Emotion: got %q", got)
	}
	img, err := imaging.Decode(resp.Body)
	if err != nil {
		t.Fatalf("snapshot is not a valid JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 720 || b.Dy() != 480 {
		t.Errorf("snapshot size: got %v", b)
	}
}

func TestScanStart_CameraUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.cam.OpenErr = camera.ErrUnavailable

	resp := env.do(t, http.MethodPost, "/api/scan/start", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("got %d, want 503", resp.StatusCode)
	}
}

func TestScanStart_UsesCameraSettings(t *testing.T) {
	env := newTestEnv(t)

	if resp := env.do(t, http.MethodPost, "/api/camera", `{"preset":"legacy","mirror":false}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("set camera: got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/api/scan/start", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d", resp.StatusCode)
	}

	opened := env.cam.Opened()
	if opened.Width != 640 || opened.Height != 480 || opened.Mirror {
		t.Errorf("camera opened with %+v", opened)
	}
}

func TestSetCamera_RestartsRunningScan(t *testing.T) {
	env := newTestEnv(t)

	if resp := env.do(t, http.MethodPost, "/api/scan/start", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d", resp.StatusCode)
	}
	first := env.scanner.Status().Session

	if resp := env.do(t, http.MethodPost, "/api/camera", `{"preset":"legacy"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("set camera: got %d", resp.StatusCode)
	}

	if env.cam.Opens() != 2 {
		t.Errorf("Opens: got %d, want 2", env.cam.Opens())
	}
	if opened := env.cam.Opened(); opened.Width != 640 || opened.Height != 480 {
		t.Errorf("reopened with %+v", opened)
	}
	info := env.scanner.Status()
	if info.Status != scanner.StatusScanning || info.Session == first {
		t.Errorf("want a new scanning session, got %s/%s", info.Status, info.Session)
	}
}

func TestSetCamera_RestartFailureKeepsSettings(t *testing.T) {
	env := newTestEnv(t)

	if resp := env.do(t, http.MethodPost, "/api/scan/start", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d", resp.StatusCode)
	}
	env.cam.OpenErr = camera.ErrUnavailable

	resp := env.do(t, http.MethodPost, "/api/camera", `{"preset":"legacy"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("set camera: got %d, want 503", resp.StatusCode)
	}
	if got := env.cameras.Config(); got != camera.DefaultConfig() {
		t.Errorf("settings not restored: %+v", got)
	}
	if env.scanner.Running() {
		t.Error("scan should stay stopped after a failed reopen")
	}
}

func TestCameraConfig(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantWidth  float64
	}{
		{"get", http.MethodGet, "", http.StatusOK, 720},
		{"preset", http.MethodPost, `{"preset":"720p"}`, http.StatusOK, 1280},
		{"field", http.MethodPost, `{"width":800}`, http.StatusOK, 800},
		{"invalid", http.MethodPost, `{"width":5}`, http.StatusBadRequest, 0},
		{"unknown preset", http.MethodPost, `{"preset":"8k"}`, http.StatusBadRequest, 0},
		{"bad json", http.MethodPost, `{width`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, "/api/camera", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decode[map[string]any](t, resp)
			cfg, _ := body["config"].(map[string]any)
			if cfg["width"] != tt.wantWidth {
				t.Errorf("width: got %v, want %v", cfg["width"], tt.wantWidth)
			}
			if presets, _ := body["presets"].([]any); len(presets) != len(camera.PresetNames()) {
				t.Errorf("presets: got %v", body["presets"])
			}
		})
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/ws/camera", "/ws/status"} {
		resp := env.do(t, http.MethodGet, path, "")
		if resp.StatusCode != fiber.StatusUpgradeRequired {
			t.Errorf("%s: got %d, want 426", path, resp.StatusCode)
		}
	}
}
