// Package photo holds the displayable photo records shared by the slideshow
package photo

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Type classifies where a photo came from
type Type string

const (
	TypeS3User    Type = "S3 User"
	TypeLocalUser Type = "Local User"
	TypeFlickr    Type = "Flickr"
	TypeFlickrUsr Type = "Flickr User"
	TypeReddit    Type = "Reddit"
)

// Recoverable reports whether a load failure for this type may just be an expired url
func (t Type) Recoverable() bool {
	return t == TypeS3User
}

// IsUser reports whether the photo belongs to the user
func (t Type) IsUser() bool {
	return strings.Contains(string(t), "User")
}

// Label is the type without the trailing User token
func (t Type) Label() string {
	s := string(t)
	idx := strings.Index(s, "User")
	if idx == -1 {
		return s
	}
	return strings.TrimSpace(s[:idx])
}

// SourceKind names a photo source that can produce fresh batches
type SourceKind string

const (
	KindS3    SourceKind = "s3"
	KindLocal SourceKind = "local"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Photo is one displayable image. The identifier is fixed at construction.
type Photo struct {
	id           string
	photographer string
	point        *Point
	typ          Type
	asp          float64

	mu  sync.RWMutex
	url string
	bad bool
}

type Option func(*Photo)

func WithPhotographer(name string) Option {
	return func(p *Photo) { p.photographer = name }
}

func WithPoint(pt Point) Option {
	return func(p *Photo) { p.point = &pt }
}

func WithAspectRatio(asp float64) Option {
	return func(p *Photo) { p.asp = asp }
}

// New creates a photo. The aspect ratio is NaN unless provided.
func New(id, url string, typ Type, opts ...Option) *Photo {
	p := &Photo{
		id:  id,
		url: url,
		typ: typ,
		asp: math.NaN(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Photo) ID() string           { return p.id }
func (p *Photo) Photographer() string { return p.photographer }
func (p *Photo) Type() Type           { return p.typ }
func (p *Photo) AspectRatio() float64 { return p.asp }

// Point returns nil when the photo has no geolocation
func (p *Photo) Point() *Point {
	if p.point == nil {
		return nil
	}
	pt := *p.point
	return &pt
}

func (p *Photo) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// SetURL replaces the url, used when a signed url has been renewed
func (p *Photo) SetURL(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

// MarkBad flags the photo as unusable. It never reverts.
func (p *Photo) MarkBad() {
	p.mu.Lock()
	p.bad = true
	p.mu.Unlock()
}

func (p *Photo) IsBad() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bad
}

// Batch is one fetch result from a photo source
type Batch struct {
	Kind   SourceKind
	Photos []*Photo
}

// Find looks up a photo in the batch by identifier
func (b *Batch) Find(id string) (*Photo, bool) {
	if b == nil {
		return nil, false
	}
	for _, p := range b.Photos {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Index maps identifiers to photos for repeated lookups
func (b *Batch) Index() map[string]*Photo {
	idx := make(map[string]*Photo, len(b.Photos))
	for _, p := range b.Photos {
		idx[p.ID()] = p
	}
	return idx
}
