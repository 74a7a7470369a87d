package view

import (
	"fmt"
	"math"
	"strings"
)

// Sizing is how a photo is fitted to its slot
type Sizing int

const (
	Letterbox Sizing = iota
	Zoom
	Frame
	Full
)

var sizingNames = map[Sizing]string{
	Letterbox: "letterbox",
	Zoom:      "zoom",
	Frame:     "frame",
	Full:      "full",
}

func (s Sizing) String() string {
	if name, ok := sizingNames[s]; ok {
		return name
	}
	return fmt.Sprintf("sizing(%d)", int(s))
}

// ParseSizing accepts a sizing name or its number
func ParseSizing(v string) (Sizing, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, name := range sizingNames {
		if v == name || v == fmt.Sprint(int(s)) {
			return s, nil
		}
	}
	return Letterbox, fmt.Errorf("unknown sizing type, %q", v)
}

// badAspectCutoff is how far a photo's aspect ratio may stray from the screen's
// before cropping or stretching makes it look wrong
const badAspectCutoff = 0.5

// Ignore reports whether a photo with aspect ratio asp should be left out of the rotation
func Ignore(prefs Prefs, screenAspect, asp float64, sizing Sizing) bool {
	if asp == 0 || math.IsNaN(asp) {
		return true
	}
	if prefs == nil || !prefs.GetBool("skip") {
		return false
	}
	if sizing != Zoom && sizing != Full {
		return false
	}
	return asp < screenAspect-badAspectCutoff || asp > screenAspect+badAspectCutoff
}

// Screen is the pixel size of the display
type Screen struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Aspect is width over height, NaN for an unknown screen
func (s Screen) Aspect() float64 {
	if s.Height == 0 {
		return math.NaN()
	}
	return float64(s.Width) / float64(s.Height)
}

// Layout tells the rendering surface how to place the photo
type Layout struct {
	Fit     string `json:"fit"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Border  int    `json:"border,omitempty"`
	Padding int    `json:"padding,omitempty"`
}

// LetterboxView shows the whole photo with bars on the short sides
type LetterboxView struct {
	*Slide
}

func (v *LetterboxView) Sizing() Sizing { return Letterbox }

func (v *LetterboxView) Render(screen Screen) Layout {
	l := Layout{Fit: "contain", Width: screen.Width, Height: screen.Height}
	v.publishLayout(l)
	return l
}

// ZoomView crops the photo to cover the slot
type ZoomView struct {
	*Slide
}

func (v *ZoomView) Sizing() Sizing { return Zoom }

func (v *ZoomView) Render(screen Screen) Layout {
	l := Layout{Fit: "cover", Width: screen.Width, Height: screen.Height}
	v.publishLayout(l)
	return l
}

const (
	frameBorder    = 5
	framePadding   = 30
	frameMaxScreen = 0.8
)

// FrameView shows the photo inside a padded frame sized to the photo
type FrameView struct {
	*Slide
}

func (v *FrameView) Sizing() Sizing { return Frame }

func (v *FrameView) Render(screen Screen) Layout {
	asp := v.Photo().AspectRatio()
	if math.IsNaN(asp) || asp <= 0 {
		asp = screen.Aspect()
	}

	maxW := frameMaxScreen * float64(screen.Width)
	maxH := frameMaxScreen * float64(screen.Height)
	h := maxH
	w := h * asp
	if w > maxW {
		w = maxW
		h = w / asp
	}

	l := Layout{
		Fit:     "fill",
		Width:   int(math.Round(w)),
		Height:  int(math.Round(h)),
		Border:  frameBorder,
		Padding: framePadding,
	}
	v.publishLayout(l)
	return l
}

// FullView stretches the photo to fill the slot
type FullView struct {
	*Slide
}

func (v *FullView) Sizing() Sizing { return Full }

func (v *FullView) Render(screen Screen) Layout {
	l := Layout{Fit: "fill", Width: screen.Width, Height: screen.Height}
	v.publishLayout(l)
	return l
}

func (s *Slide) publishLayout(l Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(FieldLayout, l)
}
