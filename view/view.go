// Package view renders one slideshow slot: the photo it shows, its captions and how it is sized
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/framesaver/geo"
	"github.com/aouyang1/framesaver/photo"
)

// Published field names understood by the rendering surface
const (
	FieldURL           = "url"
	FieldAuthorLabel   = "authorLabel"
	FieldLocationLabel = "locationLabel"
	FieldLayout        = "layout"
)

const (
	locationLookupTimeout = 30 * time.Second
	noisyLocationPrefix   = "Unnamed Road, "
	largeTimeFontSize     = "8.5vh"
	largeTimeFontWeight   = 300
)

// Prefs are the persisted preferences a view reads
type Prefs interface {
	GetBool(key string) bool
	GetInt(key string, def int) int
}

type Localizer interface {
	Localize(key, fallback string) string
}

// Resolver turns a geo point into a place name
type Resolver interface {
	Resolve(ctx context.Context, pt photo.Point) (string, error)
}

// ErrorReporter receives failures worth tracking. It must not block.
type ErrorReporter interface {
	ReportError(msg, where string)
}

// Image is the rendering surface handle of the photo element
type Image interface {
	Error() bool
	Loaded() bool
}

// Element is a styled text element on the rendering surface
type Element interface {
	SetStyle(fontSize string, weight int)
}

// Binding publishes a field change to the rendering surface
type Binding interface {
	Publish(field string, value any)
}

// Elements are the rendering surface handles wired to a view once
type Elements struct {
	Image    Image
	Author   Element
	Time     Element
	Location Element
	Binding  Binding
}

// Deps are the collaborators shared by every view
type Deps struct {
	Prefs    Prefs
	Locale   Localizer
	Geo      Resolver
	Reporter ErrorReporter
}

// View is one on-screen slot bound to exactly one photo at a time
type View interface {
	Sizing() Sizing
	SetElements(el Elements)
	SetPhoto(p *photo.Photo)
	SetURL(override string)
	SetURLFor(p *photo.Photo, override string) bool
	MarkPhotoBad()
	IsError() bool
	IsLoaded() bool
	Render(screen Screen) Layout

	Photo() *photo.Photo
	URL() string
	AuthorLabel() string
	LocationLabel() string

	Detach()
	Wait()
}

// Slide holds the state shared by all sizing variants
type Slide struct {
	deps Deps

	mu            sync.Mutex
	photo         *photo.Photo
	url           string
	authorLabel   string
	locationLabel string
	el            Elements
	attached      bool

	lookups sync.WaitGroup
}

func newSlide(p *photo.Photo, deps Deps) *Slide {
	return &Slide{
		deps:  deps,
		photo: p,
		url:   p.URL(),
	}
}

// New creates the view variant for the sizing type. Unknown types fall back to Letterbox.
func New(p *photo.Photo, sizing Sizing, deps Deps) View {
	s := newSlide(p, deps)
	switch sizing {
	case Letterbox:
		return &LetterboxView{Slide: s}
	case Zoom:
		return &ZoomView{Slide: s}
	case Frame:
		return &FrameView{Slide: s}
	case Full:
		return &FullView{Slide: s}
	default:
		slog.Error("bad view sizing, using letterbox", "sizing", int(sizing))
		return &LetterboxView{Slide: s}
	}
}

// set writes a field then always publishes it. The surface may share structure with
// the previous value, so it is never left to detect the change on its own.
func (s *Slide) set(field string, value any) {
	if s.el.Binding == nil {
		return
	}
	s.el.Binding.Publish(field, value)
}

// SetElements wires the rendering surface handles and renders the bound photo
func (s *Slide) SetElements(el Elements) {
	s.mu.Lock()
	s.el = el
	s.attached = el.Binding != nil
	s.setTimeStyle()
	p := s.photo
	s.mu.Unlock()

	s.SetPhoto(p)
}

func (s *Slide) setTimeStyle() {
	if s.el.Time == nil || s.deps.Prefs == nil {
		return
	}
	if s.deps.Prefs.GetBool("largeTime") {
		s.el.Time.SetStyle(largeTimeFontSize, largeTimeFontWeight)
	}
}

// SetPhoto rebinds the view and derives its url and captions
func (s *Slide) SetPhoto(p *photo.Photo) {
	s.mu.Lock()
	s.photo = p
	s.setURL("")
	s.setAuthorLabel()
	s.mu.Unlock()

	s.setLocationLabel(p)
}

// SetURL shows override when it is non-blank, otherwise the photo's own url
func (s *Slide) SetURL(override string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setURL(override)
}

// SetURLFor applies override only while the view is still bound to p
func (s *Slide) SetURLFor(p *photo.Photo, override string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.photo != p {
		return false
	}
	s.setURL(override)
	return true
}

func (s *Slide) setURL(override string) {
	if strings.TrimSpace(override) != "" {
		s.url = override
	} else {
		s.url = s.photo.URL()
	}
	s.set(FieldURL, s.url)
}

func (s *Slide) MarkPhotoBad() {
	s.mu.Lock()
	p := s.photo
	s.mu.Unlock()
	if p != nil {
		p.MarkBad()
	}
}

// IsError reports a failed load. A view with no image handle yet counts as failed.
func (s *Slide) IsError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.el.Image == nil || s.el.Image.Error()
}

func (s *Slide) IsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.el.Image != nil && s.el.Image.Loaded()
}

func (s *Slide) Photo() *photo.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo
}

func (s *Slide) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Slide) AuthorLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorLabel
}

func (s *Slide) LocationLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locationLabel
}

// Detach disconnects the view from the rendering surface. Pending lookups are dropped.
func (s *Slide) Detach() {
	s.mu.Lock()
	s.attached = false
	s.el.Binding = nil
	s.mu.Unlock()
}

// Wait blocks until outstanding location lookups finish
func (s *Slide) Wait() {
	s.lookups.Wait()
}

func (s *Slide) setAuthorLabel() {
	s.authorLabel = ""
	s.set(FieldAuthorLabel, s.authorLabel)

	typ := s.photo.Type()
	if typ.IsUser() && !s.prefBool("showPhotog") {
		// user's own photos are not credited unless asked
		return
	}

	label := typ.Label()
	if photographer := strings.TrimSpace(s.photo.Photographer()); photographer != "" {
		s.authorLabel = fmt.Sprintf("%s / %s", photographer, label)
	} else {
		s.authorLabel = fmt.Sprintf("%s %s", s.localize("photo_from", "Photo from"), label)
	}
	s.set(FieldAuthorLabel, s.authorLabel)
}

func (s *Slide) setLocationLabel(p *photo.Photo) {
	s.mu.Lock()
	s.locationLabel = ""
	s.set(FieldLocationLabel, s.locationLabel)
	s.mu.Unlock()

	pt := p.Point()
	if pt == nil || !s.prefBool("showLocation") || s.deps.Geo == nil {
		return
	}

	s.lookups.Add(1)
	go func() {
		defer s.lookups.Done()

		ctx, cancel := context.WithTimeout(context.Background(), locationLookupTimeout)
		defer cancel()

		location, err := s.deps.Geo.Resolve(ctx, *pt)
		if err != nil {
			if !errors.Is(err, geo.ErrNetwork) && s.deps.Reporter != nil {
				s.deps.Reporter.ReportError(fmt.Sprintf("%v, point: %s", err, pt), "view.setLocationLabel")
			}
			return
		}
		if location == "" {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		// the view may have been torn down or rebound while resolving
		if !s.attached || s.photo != p {
			return
		}
		s.locationLabel = strings.Replace(location, noisyLocationPrefix, "", 1)
		s.set(FieldLocationLabel, s.locationLabel)
	}()
}

func (s *Slide) prefBool(key string) bool {
	if s.deps.Prefs == nil {
		return false
	}
	return s.deps.Prefs.GetBool(key)
}

func (s *Slide) localize(key, fallback string) string {
	if s.deps.Locale == nil {
		return fallback
	}
	return s.deps.Locale.Localize(key, fallback)
}
