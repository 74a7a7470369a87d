// Package slideshow drives the full screen photo slideshow: its pages, pause state and
// recovery of photos whose signed urls expired
package slideshow

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/framesaver/photo"
	"github.com/aouyang1/framesaver/view"
	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_refresher.go -package=mocks github.com/aouyang1/framesaver/slideshow Refresher

const (
	// MaxRecoveries bounds url refreshes per session, one an hour for a week
	MaxRecoveries = 168

	defaultLaunchDelay = 2 * time.Second

	// bounds a photo listing or url refresh against the sources
	defaultRefreshTimeout = 5 * time.Minute

	// photoTransition value that picks one of the others at random
	randomTransition = 8

	minZoom = 0.99
	maxZoom = 1.01
)

// Refresher fetches a fresh batch of photos, with renewed urls, from a source
type Refresher interface {
	FetchFreshBatch(ctx context.Context, kind photo.SourceKind) (*photo.Batch, error)
}

// Loader loads every photo for the rotation
type Loader interface {
	LoadAll(ctx context.Context) ([]*photo.Photo, error)
}

// Prefs are the persisted preferences the slideshow reads
type Prefs interface {
	view.Prefs
	GetString(key string, def string) string
}

// Publisher pushes slideshow wide fields to the rendering surface
type Publisher interface {
	Publish(field string, value any)
}

// Display controls the output zoom factor
type Display interface {
	Scale() (float64, error)
	SetScale(scale float64) error
}

// Recorder counts recovery events
type Recorder interface {
	RecordRecoveryAttempt()
	RecordRecoveryFailure()
	RecordMarkedBad(count int)
	RecordURLsRefreshed(count int)
}

// State is where the slideshow is in its lifecycle
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// session is everything that lives for one run of the slideshow
type session struct {
	id           string
	state        State
	paused       bool
	noPhotos     bool
	sizing       view.Sizing
	screenAspect float64
	timeLabel    string
	aniType      int
	background   string

	// updating is held for a whole recovery cycle
	updating bool
	attempts int
}

// Snapshot is a read only copy of the session for status reporting
type Snapshot struct {
	SessionID  string  `json:"session_id"`
	State      State   `json:"state"`
	Paused     bool    `json:"paused"`
	NoPhotos   bool    `json:"no_photos"`
	Sizing     string  `json:"sizing"`
	Aspect     float64 `json:"screen_aspect"`
	TimeLabel  string  `json:"time_label"`
	AniType    int     `json:"ani_type"`
	Updating   bool    `json:"updating"`
	Recoveries int     `json:"recoveries"`
	Pages      int     `json:"pages"`
}

// Options are the collaborators of a Screensaver
type Options struct {
	Prefs     Prefs
	Locale    view.Localizer
	Refresher Refresher
	Loader    Loader
	Views     *ViewSet
	Publisher Publisher
	Display   Display
	Recorder  Recorder
	Reporter  view.ErrorReporter

	Screen         view.Screen
	MaxRecoveries  int
	LaunchDelay    time.Duration
	RefreshTimeout time.Duration
}

// Screensaver owns the session state and the recovery protocol
type Screensaver struct {
	prefs     Prefs
	locale    view.Localizer
	refresher Refresher
	loader    Loader
	views     *ViewSet
	publisher Publisher
	display   Display
	recorder  Recorder
	reporter  view.ErrorReporter

	maxRecoveries  int
	launchDelay    time.Duration
	refreshTimeout time.Duration
	runner         *Runner

	mu sync.Mutex
	s  session
}

func New(opts Options) (*Screensaver, error) {
	if opts.Prefs == nil {
		return nil, fmt.Errorf("no preferences provided for screensaver")
	}
	if opts.Views == nil {
		return nil, fmt.Errorf("no view set provided for screensaver")
	}
	if opts.MaxRecoveries <= 0 {
		opts.MaxRecoveries = MaxRecoveries
	}
	if opts.LaunchDelay <= 0 {
		opts.LaunchDelay = defaultLaunchDelay
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultRefreshTimeout
	}

	ss := &Screensaver{
		prefs:          opts.Prefs,
		locale:         opts.Locale,
		refresher:      opts.Refresher,
		loader:         opts.Loader,
		views:          opts.Views,
		publisher:      opts.Publisher,
		display:        opts.Display,
		recorder:       opts.Recorder,
		reporter:       opts.Reporter,
		maxRecoveries:  opts.MaxRecoveries,
		launchDelay:    opts.LaunchDelay,
		refreshTimeout: opts.RefreshTimeout,
		s: session{
			id:           uuid.NewString(),
			state:        StateIdle,
			sizing:       view.Sizing(opts.Prefs.GetInt("photoSizing", int(view.Letterbox))),
			screenAspect: opts.Screen.Aspect(),
		},
	}
	ss.runner = newRunner(ss)
	return ss, nil
}

func (ss *Screensaver) publish(field string, value any) {
	if ss.publisher != nil {
		ss.publisher.Publish(field, value)
	}
}

func (ss *Screensaver) localize(key, fallback string) string {
	if ss.locale == nil {
		return fallback
	}
	return ss.locale.Localize(key, fallback)
}

func (ss *Screensaver) reportError(msg, where string) {
	if ss.reporter != nil {
		ss.reporter.ReportError(msg, where)
		return
	}
	slog.Error(msg, "where", where)
}

// CreatePages materializes the configured number of slots as views
func (ss *Screensaver) CreatePages() int {
	ss.mu.Lock()
	sizing := ss.s.sizing
	ss.mu.Unlock()

	count := ss.prefs.GetInt("slotCount", 2)
	created := ss.views.Create(count, sizing)
	slog.Info("created slideshow pages", "requested", count, "created", created, "sizing", sizing)
	return created
}

// SetSizingType changes how photos are fitted for pages created afterwards
func (ss *Screensaver) SetSizingType(sizing view.Sizing) {
	ss.mu.Lock()
	ss.s.sizing = sizing
	ss.mu.Unlock()
	ss.publish("sizingType", sizing.String())
}

func (ss *Screensaver) SetTimeLabel(label string) {
	ss.mu.Lock()
	ss.s.timeLabel = label
	ss.mu.Unlock()
	ss.publish("timeLabel", label)
}

// SetPaused pauses or resumes the slideshow and swaps the pause and play indicators
func (ss *Screensaver) SetPaused(paused bool) {
	ss.mu.Lock()
	ss.s.paused = paused
	if ss.s.state != StateIdle {
		if paused {
			ss.s.state = StatePaused
		} else {
			ss.s.state = StateRunning
		}
	}
	ss.mu.Unlock()

	ss.publish("paused", paused)
	ss.publish("pauseImageVisible", !paused)
	ss.publish("playImageVisible", paused)
}

func (ss *Screensaver) Paused() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.paused
}

// NoPhotos reports whether every photo turned out to be unusable
func (ss *Screensaver) NoPhotos() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.noPhotos
}

func (ss *Screensaver) SetNoPhotos() {
	ss.mu.Lock()
	already := ss.s.noPhotos
	ss.s.noPhotos = true
	ss.mu.Unlock()

	if already {
		return
	}
	slog.Warn("no usable photos left in the slideshow")
	ss.publish("noPhotos", true)
	ss.publish("noPhotosLabel", ss.localize("no_photos", "There are no photos to display"))
}

// Snapshot copies the session state
func (ss *Screensaver) Snapshot() Snapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return Snapshot{
		SessionID:  ss.s.id,
		State:      ss.s.state,
		Paused:     ss.s.paused,
		NoPhotos:   ss.s.noPhotos,
		Sizing:     ss.s.sizing.String(),
		Aspect:     ss.s.screenAspect,
		TimeLabel:  ss.s.timeLabel,
		AniType:    ss.s.aniType,
		Updating:   ss.s.updating,
		Recoveries: ss.s.attempts,
		Pages:      ss.views.Len(),
	}
}

// OnErrorChanged runs when the image of a slot fails to load. Photos hosted in the
// user's bucket may only have an expired signed url, so all of them are refreshed at
// once. Only one refresh runs at a time; failures arriving meanwhile are dropped.
func (ss *Screensaver) OnErrorChanged(ctx context.Context, slot int) {
	ss.mu.Lock()
	if ss.s.updating {
		ss.mu.Unlock()
		return
	}

	v, ok := ss.views.View(slot)
	if !ok || v.Photo() == nil || !v.Photo().Type().Recoverable() {
		ss.mu.Unlock()
		return
	}

	ss.s.updating = true
	ss.s.attempts++
	if ss.s.attempts >= ss.maxRecoveries {
		// guard stays set, no more refreshes this session
		attempts := ss.s.attempts
		ss.mu.Unlock()
		slog.Warn("url refresh limit reached", "session", ss.s.id, "attempts", attempts)
		return
	}
	attempts := ss.s.attempts
	ss.mu.Unlock()

	if ss.recorder != nil {
		ss.recorder.RecordRecoveryAttempt()
	}
	slog.Info("refreshing photo urls", "slot", slot, "photo", v.Photo().ID(), "attempt", attempts)

	fetchCtx, cancel := context.WithTimeout(ctx, ss.refreshTimeout)
	batch, err := ss.refresher.FetchFreshBatch(fetchCtx, photo.KindS3)
	cancel()
	if err != nil {
		ss.reportError(fmt.Sprintf("failed to update urls, %v", err), "slideshow.OnErrorChanged")
		if ss.recorder != nil {
			ss.recorder.RecordRecoveryFailure()
		}
		// give up for this session, the guard stays set
		ss.mu.Lock()
		ss.s.attempts = ss.maxRecoveries + 1
		ss.mu.Unlock()
		return
	}

	if photos := ss.views.Photos(); photos != nil {
		photos.UpdateURLs(batch)
	}

	fresh := batch.Index()
	refreshed, bad := 0, 0
	for _, v := range ss.views.Views() {
		p := v.Photo()
		if p == nil || !p.Type().Recoverable() {
			continue
		}
		// v may have been rebound by the runner since p was read
		if np, ok := fresh[p.ID()]; ok {
			if v.SetURLFor(p, np.URL()) {
				refreshed++
			}
		} else {
			p.MarkBad()
			bad++
		}
	}
	if ss.recorder != nil {
		ss.recorder.RecordURLsRefreshed(refreshed)
		ss.recorder.RecordMarkedBad(bad)
	}
	slog.Info("refreshed photo urls", "refreshed", refreshed, "marked_bad", bad)

	ss.mu.Lock()
	ss.s.updating = false
	ss.mu.Unlock()
}

// OnLoad applies the display settings once the surface is ready, then launches the
// slideshow after a short delay
func (ss *Screensaver) OnLoad(ctx context.Context) {
	background := ss.prefs.GetString("background", "background:#000000")
	background = strings.TrimPrefix(background, "background:")
	ss.mu.Lock()
	ss.s.background = background
	ss.mu.Unlock()
	ss.publish("background", background)

	ss.setZoom()
	ss.setupPhotoTransitions()

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(ss.launchDelay):
		}
		if err := ss.Launch(ctx); err != nil {
			slog.Error("unable to launch slideshow", "error", err)
		}
	}()
}

func (ss *Screensaver) setupPhotoTransitions() {
	aniType := ss.prefs.GetInt("photoTransition", 0)
	if aniType == randomTransition {
		aniType = rand.IntN(randomTransition)
	}
	if aniType < 0 || aniType > randomTransition {
		slog.Warn("unknown photo transition, using default", "photoTransition", aniType)
		aniType = 0
	}

	ss.mu.Lock()
	ss.s.aniType = aniType
	ss.mu.Unlock()
	ss.publish("aniType", aniType)
}

func (ss *Screensaver) setZoom() {
	if ss.display == nil {
		return
	}
	scale, err := ss.display.Scale()
	if err != nil {
		slog.Warn("unable to read display scale", "error", err)
		return
	}
	if scale >= minZoom && scale <= maxZoom {
		return
	}
	if err := ss.display.SetScale(1.0); err != nil {
		slog.Warn("unable to reset display scale", "scale", scale, "error", err)
		return
	}
	slog.Info("reset display scale", "from", scale)
}

// Launch loads the photos, creates the pages and starts the runner
func (ss *Screensaver) Launch(ctx context.Context) error {
	if ss.loader != nil {
		loadCtx, cancel := context.WithTimeout(ctx, ss.refreshTimeout)
		photos, err := ss.loader.LoadAll(loadCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("unable to load photos, %w", err)
		}
		ss.views.SetPhotos(photo.NewPhotos(photos))
	}

	if ss.CreatePages() == 0 {
		ss.SetNoPhotos()
		return nil
	}

	ss.mu.Lock()
	if ss.s.paused {
		ss.s.state = StatePaused
	} else {
		ss.s.state = StateRunning
	}
	ss.mu.Unlock()

	go ss.runner.Run(ctx)
	return nil
}
