package slideshow

import (
	"sync"

	"github.com/aouyang1/framesaver/photo"
	"github.com/aouyang1/framesaver/view"
)

// Surface hands out the rendering handles of each slot
type Surface interface {
	Elements(slot int) view.Elements
}

// ViewSet owns the views bound to the slideshow's slots
type ViewSet struct {
	deps    view.Deps
	surface Surface
	screen  view.Screen

	mu     sync.Mutex
	photos *photo.Photos
	views  []view.View
	sizing view.Sizing
}

func NewViewSet(deps view.Deps, surface Surface, screen view.Screen) *ViewSet {
	return &ViewSet{
		deps:    deps,
		surface: surface,
		screen:  screen,
		photos:  photo.NewPhotos(nil),
	}
}

func (vs *ViewSet) SetPhotos(photos *photo.Photos) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.photos = photos
}

func (vs *ViewSet) Photos() *photo.Photos {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.photos
}

func (vs *ViewSet) Screen() view.Screen {
	return vs.screen
}

// keep filters out photos whose shape does not suit the screen
func (vs *ViewSet) keep(sizing view.Sizing) func(*photo.Photo) bool {
	aspect := vs.screen.Aspect()
	return func(p *photo.Photo) bool {
		return !view.Ignore(vs.deps.Prefs, aspect, p.AspectRatio(), sizing)
	}
}

// Create replaces the current views with up to n new ones, one per slot, each bound
// to the next usable photo. Returns how many were created.
func (vs *ViewSet) Create(n int, sizing view.Sizing) int {
	vs.Teardown()

	vs.mu.Lock()
	defer vs.mu.Unlock()

	vs.sizing = sizing
	if vs.photos == nil {
		return 0
	}
	n = min(n, vs.photos.Len())

	keep := vs.keep(sizing)
	used := make(map[string]bool, n)
	for i := range n {
		p := vs.nextUnused(keep, used)
		if p == nil {
			break
		}
		used[p.ID()] = true

		v := view.New(p, sizing, vs.deps)
		if vs.surface != nil {
			v.SetElements(vs.surface.Elements(i))
		}
		v.Render(vs.screen)
		vs.views = append(vs.views, v)
	}
	return len(vs.views)
}

// nextUnused takes photos from the rotation until one is found that is not already
// shown. Must hold vs.mu.
func (vs *ViewSet) nextUnused(keep func(*photo.Photo) bool, used map[string]bool) *photo.Photo {
	for range vs.photos.Len() {
		p := vs.photos.Next(keep)
		if p == nil {
			return nil
		}
		if !used[p.ID()] {
			return p
		}
	}
	return nil
}

// Advance rebinds slot i to the next usable photo not shown by another slot. Returns
// false when the rotation has nothing left for it.
func (vs *ViewSet) Advance(i int) bool {
	vs.mu.Lock()
	if i < 0 || i >= len(vs.views) || vs.photos == nil {
		vs.mu.Unlock()
		return false
	}
	used := make(map[string]bool, len(vs.views))
	for j, v := range vs.views {
		if j == i {
			continue
		}
		if p := v.Photo(); p != nil {
			used[p.ID()] = true
		}
	}
	p := vs.nextUnused(vs.keep(vs.sizing), used)
	v := vs.views[i]
	vs.mu.Unlock()

	if p == nil {
		return false
	}
	v.SetPhoto(p)
	v.Render(vs.screen)
	return true
}

func (vs *ViewSet) View(i int) (view.View, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if i < 0 || i >= len(vs.views) {
		return nil, false
	}
	return vs.views[i], true
}

// Views returns a copy of the current views
func (vs *ViewSet) Views() []view.View {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	out := make([]view.View, len(vs.views))
	copy(out, vs.views)
	return out
}

func (vs *ViewSet) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.views)
}

// Teardown detaches every view from the surface and forgets them
func (vs *ViewSet) Teardown() {
	vs.mu.Lock()
	views := vs.views
	vs.views = nil
	vs.mu.Unlock()

	for _, v := range views {
		v.Detach()
	}
}
