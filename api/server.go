// Package api is the main api web server
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/aouyang1/framesaver/api/models"
	"github.com/aouyang1/framesaver/api/web/templates"
	"github.com/aouyang1/framesaver/metrics"
	"github.com/aouyang1/framesaver/slideshow"
	"github.com/aouyang1/framesaver/source"
	"github.com/aouyang1/framesaver/store"
	"github.com/aouyang1/framesaver/view"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const pageTitle = "framesaver"

// Controller is the slideshow as seen by the api
type Controller interface {
	Snapshot() slideshow.Snapshot
	SetPaused(paused bool)
	SetSizingType(sizing view.Sizing)
	CreatePages() int
}

// Display is the frame's output
type Display interface {
	Enabled() (bool, error)
	SetEnabled(enabled bool) error
	Scale() (float64, error)
}

// Surface is the websocket side of the kiosk page
type Surface interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

type Options struct {
	DB       *store.Database
	Show     Controller
	Display  Display
	Surface  Surface
	Local    *source.LocalSource
	Gatherer prometheus.Gatherer
}

type WebServer struct {
	router *gin.Engine

	db       *store.Database
	show     Controller
	display  Display
	surface  Surface
	local    *source.LocalSource
	gatherer prometheus.Gatherer
}

func NewWebServer(opts Options) (*WebServer, error) {
	if opts.DB == nil {
		return nil, errors.New("no database provided for web server")
	}
	if opts.Show == nil {
		return nil, errors.New("no slideshow provided for web server")
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	ws := &WebServer{
		router:   gin.New(),
		db:       opts.DB,
		show:     opts.Show,
		display:  opts.Display,
		surface:  opts.Surface,
		local:    opts.Local,
		gatherer: opts.Gatherer,
	}
	ws.router.Use(gin.Recovery(), requestLogger())

	ws.setupRoutes()
	return ws, nil
}

// requestLogger logs each request through slog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/", ws.handleKiosk)
	if ws.surface != nil {
		ws.router.GET("/ws", gin.WrapF(ws.surface.ServeWS))
	}
	ws.router.GET("/photos/local/:name", ws.handleLocalPhoto)
	ws.router.GET("/metrics", gin.WrapH(metrics.Handler(ws.gatherer)))

	// API routes
	ws.router.GET("/slideshow/state", ws.handleGetState)
	ws.router.POST("/slideshow/pause", ws.handlePause)
	ws.router.POST("/slideshow/resume", ws.handleResume)
	ws.router.PUT("/slideshow/sizing/:type", ws.handleUpdateSizing)
	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.PUT("/settings", ws.handleUpdateSettings)
	ws.router.GET("/schedule", ws.handleGetSchedule)
	ws.router.PUT("/schedule", ws.handleUpdateSchedule)
	ws.router.GET("/display", ws.handleGetDisplay)
	ws.router.PUT("/display/:state", ws.handleUpdateDisplay)
}

func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start serves until ctx is done
func (ws *WebServer) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (ws *WebServer) handleKiosk(c *gin.Context) {
	slots := ws.db.GetInt("slotCount", 2)
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := templates.Kiosk(pageTitle, "/ws", slots).Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render kiosk page", "error", err)
	}
}

func (ws *WebServer) handleLocalPhoto(c *gin.Context) {
	if ws.local == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "No local photos configured"})
		return
	}

	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid photo name encoding"})
		return
	}

	path, err := ws.local.Path(name)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Photo file not found: %s", name)})
		return
	}
	c.File(path)
}

func (ws *WebServer) state() models.SlideshowStateResponse {
	resp := models.SlideshowStateResponse{Snapshot: ws.show.Snapshot()}
	if ws.surface != nil {
		resp.Clients = ws.surface.ClientCount()
	}
	return resp
}

func (ws *WebServer) handleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, ws.state())
}

func (ws *WebServer) handlePause(c *gin.Context) {
	ws.show.SetPaused(true)
	c.JSON(http.StatusOK, ws.state())
}

func (ws *WebServer) handleResume(c *gin.Context) {
	ws.show.SetPaused(false)
	c.JSON(http.StatusOK, ws.state())
}

func (ws *WebServer) handleUpdateSizing(c *gin.Context) {
	sizing, err := view.ParseSizing(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ws.db.SetPref("photoSizing", strconv.Itoa(int(sizing))); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update sizing: %v", err)})
		return
	}

	ws.show.SetSizingType(sizing)
	ws.show.CreatePages()
	c.JSON(http.StatusOK, ws.state())
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	prefs, err := ws.db.GetPrefs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}

	c.JSON(http.StatusOK, models.SettingsResponse{Preferences: prefs})
}

// prefValue checks a json value against the preference's type and formats it for storage
func prefValue(pref store.Pref, v any) (string, error) {
	switch pref.Kind {
	case store.PrefBool:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("%s must be a boolean", pref.Key)
		}
		return strconv.FormatBool(b), nil
	case store.PrefInt:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return "", fmt.Errorf("%s must be an integer", pref.Key)
		}
		return strconv.Itoa(int(f)), nil
	default:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%s must be a string", pref.Key)
		}
		return s, nil
	}
}

func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	values := make(map[string]string, len(req))
	for key, v := range req {
		pref, ok := store.LookupPref(key)
		if !ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Unknown setting: %s", key)})
			return
		}
		value, err := prefValue(pref, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		values[key] = value
	}

	for key, value := range values {
		if err := ws.db.SetPref(key, value); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update settings: %v", err)})
			return
		}
	}

	ws.handleGetSettings(c)
}

func (ws *WebServer) handleGetSchedule(c *gin.Context) {
	schedule, err := ws.db.GetSchedule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get schedule: %v", err)})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

var validScheduleTime = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

func (ws *WebServer) handleUpdateSchedule(c *gin.Context) {
	var req store.Schedule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if !validScheduleTime.MatchString(req.Start) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid start time format: need 23:15, got %s", req.Start)})
		return
	}

	if !validScheduleTime.MatchString(req.End) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid end time format: need 23:15, got %s", req.End)})
		return
	}

	newSchedule := &store.Schedule{
		Enabled: req.Enabled,
		Start:   req.Start,
		End:     req.End,
	}

	if err := ws.db.UpsertSchedule(newSchedule); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update schedule: %v", err)})
		return
	}

	c.JSON(http.StatusOK, newSchedule)
}

func (ws *WebServer) handleGetDisplay(c *gin.Context) {
	if ws.display == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "No display configured"})
		return
	}

	enabled, err := ws.display.Enabled()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get display state: %v", err)})
		return
	}

	resp := models.DisplayStateResponse{Enabled: enabled}
	if scale, err := ws.display.Scale(); err == nil {
		resp.Scale = scale
	}
	c.JSON(http.StatusOK, resp)
}

func (ws *WebServer) handleUpdateDisplay(c *gin.Context) {
	if ws.display == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "No display configured"})
		return
	}

	state := c.Param("state")
	if state != "0" && state != "1" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "state must be 0 (off) or 1 (on)"})
		return
	}

	desiredEnabled := state == "1"
	if err := ws.display.SetEnabled(desiredEnabled); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update display state: %v", err)})
		return
	}

	// Re-read state to reflect actual output if possible.
	enabled, err := ws.display.Enabled()
	if err != nil {
		slog.Warn("failed to re-read display state after update", "error", err)
		enabled = desiredEnabled
	}

	c.JSON(http.StatusOK, models.DisplayStateResponse{Enabled: enabled})
}
