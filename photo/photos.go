package photo

import "sync"

// Photos is the ordered rotation of every photo in the slideshow
type Photos struct {
	mu     sync.Mutex
	photos []*Photo
	next   int
}

func NewPhotos(photos []*Photo) *Photos {
	return &Photos{photos: photos}
}

func (ps *Photos) Len() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.photos)
}

// All returns a copy of the rotation
func (ps *Photos) All() []*Photo {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]*Photo, len(ps.photos))
	copy(out, ps.photos)
	return out
}

// HasUsable reports whether any photo has not been marked bad
func (ps *Photos) HasUsable() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, p := range ps.photos {
		if !p.IsBad() {
			return true
		}
	}
	return false
}

// Next returns the next photo accepted by keep, wrapping around the rotation.
// Bad photos are always skipped. Returns nil after one full lap with no match.
func (ps *Photos) Next(keep func(*Photo) bool) *Photo {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	n := len(ps.photos)
	for range n {
		p := ps.photos[ps.next%n]
		ps.next = (ps.next + 1) % n
		if p.IsBad() {
			continue
		}
		if keep != nil && !keep(p) {
			continue
		}
		return p
	}
	return nil
}

// UpdateURLs copies renewed urls from a fresh batch onto photos with the same identifier
// and source. Returns the number of photos updated.
func (ps *Photos) UpdateURLs(batch *Batch) int {
	if batch == nil {
		return 0
	}
	idx := batch.Index()

	ps.mu.Lock()
	defer ps.mu.Unlock()

	updated := 0
	for _, p := range ps.photos {
		fresh, ok := idx[p.ID()]
		if !ok || fresh.Type() != p.Type() {
			continue
		}
		p.SetURL(fresh.URL())
		updated++
	}
	return updated
}
