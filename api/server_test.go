package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aouyang1/framesaver/api/models"
	"github.com/aouyang1/framesaver/slideshow"
	"github.com/aouyang1/framesaver/source"
	"github.com/aouyang1/framesaver/store"
	"github.com/aouyang1/framesaver/view"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeShow struct {
	mu      sync.Mutex
	paused  bool
	sizing  view.Sizing
	created int
}

func (f *fakeShow) Snapshot() slideshow.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slideshow.Snapshot{Paused: f.paused, Sizing: f.sizing.String(), State: slideshow.StateRunning}
}

func (f *fakeShow) SetPaused(paused bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused
}

func (f *fakeShow) SetSizingType(sizing view.Sizing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizing = sizing
}

func (f *fakeShow) CreatePages() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return 2
}

type fakeDisplay struct {
	enabled bool
	scale   float64
	err     error
}

func (d *fakeDisplay) Enabled() (bool, error) { return d.enabled, d.err }

func (d *fakeDisplay) SetEnabled(enabled bool) error {
	if d.err != nil {
		return d.err
	}
	d.enabled = enabled
	return nil
}

func (d *fakeDisplay) Scale() (float64, error) { return d.scale, d.err }

func newTestDB(t *testing.T) *store.Database {
	t.Helper()
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T, mod func(*Options)) (*WebServer, *fakeShow, *fakeDisplay, *store.Database) {
	t.Helper()
	show := &fakeShow{}
	display := &fakeDisplay{enabled: true, scale: 1}
	db := newTestDB(t)

	opts := Options{
		DB:       db,
		Show:     show,
		Display:  display,
		Gatherer: prometheus.NewRegistry(),
	}
	if mod != nil {
		mod(&opts)
	}
	ws, err := NewWebServer(opts)
	if err != nil {
		t.Fatal(err)
	}
	return ws, show, display, db
}

func do(t *testing.T, ws *WebServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, req)
	return w
}

func TestNewWebServerRequiresDeps(t *testing.T) {
	if _, err := NewWebServer(Options{Show: &fakeShow{}}); err == nil {
		t.Error("missing database should fail")
	}
	if _, err := NewWebServer(Options{DB: newTestDB(t)}); err == nil {
		t.Error("missing slideshow should fail")
	}
}

func TestPauseResume(t *testing.T) {
	ws, show, _, _ := newTestServer(t, nil)

	w := do(t, ws, http.MethodPost, "/slideshow/pause", "")
	if w.Code != http.StatusOK {
		t.Fatalf("pause status = %d", w.Code)
	}
	var resp models.SlideshowStateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Paused || !show.paused {
		t.Error("slideshow should be paused")
	}

	w = do(t, ws, http.MethodPost, "/slideshow/resume", "")
	if w.Code != http.StatusOK {
		t.Fatalf("resume status = %d", w.Code)
	}
	if show.paused {
		t.Error("slideshow should be resumed")
	}

	w = do(t, ws, http.MethodGet, "/slideshow/state", "")
	if !strings.Contains(w.Body.String(), `"paused":false`) {
		t.Errorf("state = %s", w.Body.String())
	}
}

func TestUpdateSizing(t *testing.T) {
	ws, show, _, db := newTestServer(t, nil)

	tests := []struct {
		name       string
		sizing     string
		wantStatus int
		want       view.Sizing
	}{
		{name: "by name", sizing: "frame", wantStatus: http.StatusOK, want: view.Frame},
		{name: "by number", sizing: "1", wantStatus: http.StatusOK, want: view.Zoom},
		{name: "unknown", sizing: "stretch", wantStatus: http.StatusBadRequest, want: view.Zoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, ws, http.MethodPut, "/slideshow/sizing/"+tt.sizing, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if show.sizing != tt.want {
				t.Errorf("sizing = %s, want %s", show.sizing, tt.want)
			}
			if got := db.GetInt("photoSizing", -1); got != int(tt.want) {
				t.Errorf("stored sizing = %d, want %d", got, tt.want)
			}
		})
	}
	if show.created != 2 {
		t.Errorf("pages recreated %d times, want 2", show.created)
	}
}

func TestSettings(t *testing.T) {
	ws, _, _, db := newTestServer(t, nil)

	w := do(t, ws, http.MethodGet, "/settings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.SettingsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Preferences["transitionTime"] != "30" {
		t.Errorf("transitionTime = %q", resp.Preferences["transitionTime"])
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"showTime": false, "transitionTime": 12, "background": "background:#222222"}`, wantStatus: http.StatusOK},
		{name: "unknown key", body: `{"volume": 3}`, wantStatus: http.StatusBadRequest},
		{name: "wrong bool", body: `{"showTime": "no"}`, wantStatus: http.StatusBadRequest},
		{name: "fractional int", body: `{"slotCount": 2.5}`, wantStatus: http.StatusBadRequest},
		{name: "wrong string", body: `{"background": 3}`, wantStatus: http.StatusBadRequest},
		{name: "not json", body: `{`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, ws, http.MethodPut, "/settings", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	if db.GetBool("showTime") {
		t.Error("showTime should be off")
	}
	if got := db.GetInt("transitionTime", 0); got != 12 {
		t.Errorf("transitionTime = %d, want 12", got)
	}
	if got := db.GetString("background", ""); got != "background:#222222" {
		t.Errorf("background = %q", got)
	}
}

func TestSchedule(t *testing.T) {
	ws, _, _, _ := newTestServer(t, nil)

	w := do(t, ws, http.MethodPut, "/schedule", `{"enabled": true, "start": "07:30", "end": "22:00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	w = do(t, ws, http.MethodGet, "/schedule", "")
	var schedule store.Schedule
	if err := json.Unmarshal(w.Body.Bytes(), &schedule); err != nil {
		t.Fatal(err)
	}
	if !schedule.Enabled || schedule.Start != "07:30" || schedule.End != "22:00" {
		t.Errorf("schedule = %+v", schedule)
	}

	if w := do(t, ws, http.MethodPut, "/schedule", `{"enabled": true, "start": "7:30", "end": "22:00"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad start status = %d", w.Code)
	}
	if w := do(t, ws, http.MethodPut, "/schedule", `{"enabled": true, "start": "07:30", "end": "24:00"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad end status = %d", w.Code)
	}
}

func TestDisplay(t *testing.T) {
	ws, _, display, _ := newTestServer(t, nil)

	w := do(t, ws, http.MethodPut, "/display/0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if display.enabled {
		t.Error("display should be off")
	}

	w = do(t, ws, http.MethodGet, "/display", "")
	var resp models.DisplayStateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Enabled || resp.Scale != 1 {
		t.Errorf("display = %+v", resp)
	}

	if w := do(t, ws, http.MethodPut, "/display/2", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad state status = %d", w.Code)
	}

	display.err = errors.New("no compositor")
	if w := do(t, ws, http.MethodGet, "/display", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("failing display status = %d", w.Code)
	}
}

func TestKioskPage(t *testing.T) {
	ws, _, _, db := newTestServer(t, nil)
	if err := db.SetPref("slotCount", "3"); err != nil {
		t.Fatal(err)
	}

	w := do(t, ws, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if got := strings.Count(body, `class="slot"`); got != 3 {
		t.Errorf("rendered %d slots, want 3", got)
	}
	if !strings.Contains(body, `const wsPath = "/ws"`) {
		t.Error("page should connect to /ws")
	}
}

func TestLocalPhoto(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "beach day.jpg"), []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	local, err := source.NewLocalSource(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	ws, _, _, _ := newTestServer(t, func(o *Options) { o.Local = local })

	w := do(t, ws, http.MethodGet, "/photos/local/beach%20day.jpg", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "jpeg bytes" {
		t.Errorf("body = %q", w.Body.String())
	}

	if w := do(t, ws, http.MethodGet, "/photos/local/missing.jpg", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing photo status = %d", w.Code)
	}
	if w := do(t, ws, http.MethodGet, "/photos/local/..%2Fsecret.jpg", ""); w.Code != http.StatusNotFound {
		t.Errorf("escaping photo status = %d", w.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "framesaver_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	ws, _, _, _ := newTestServer(t, func(o *Options) { o.Gatherer = reg })
	w := do(t, ws, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "framesaver_test_total 1") {
		t.Errorf("metrics = %s", w.Body.String())
	}
}
