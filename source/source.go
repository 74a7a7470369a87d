// Package source lists the photos of the slideshow from the places they live, the user's
// S3 bucket and the local originals folder
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aouyang1/framesaver/photo"
	"github.com/aouyang1/framesaver/store"
	"github.com/aouyang1/framesaver/util"
	mapset "github.com/deckarep/golang-set/v2"
)

var ErrUnknownSource = errors.New("unknown photo source")

// Source lists every photo it holds, with urls valid right now
type Source interface {
	Kind() photo.SourceKind
	List(ctx context.Context) ([]*photo.Photo, error)
}

// MetaCache keeps probed photo dimensions and exif so photos are only read once
type MetaCache interface {
	GetPhotoMeta(source, photoID string) (*store.PhotoMeta, error)
	UpsertPhotoMeta(m *store.PhotoMeta) error
	PhotoMetaIDs(source string) ([]string, error)
	DeletePhotoMeta(source, photoID string) error
}

func supported(name string) bool {
	return util.SupportedExt.Contains(filepath.Ext(name))
}

// photoOptions turns cached metadata into photo attributes
func photoOptions(m *store.PhotoMeta) []photo.Option {
	if m == nil {
		return nil
	}
	var opts []photo.Option
	if m.Width > 0 && m.Height > 0 {
		opts = append(opts, photo.WithAspectRatio(float64(m.Width)/float64(m.Height)))
	}
	if m.Photographer != "" {
		opts = append(opts, photo.WithPhotographer(m.Photographer))
	}
	if m.Lat != nil && m.Lon != nil {
		opts = append(opts, photo.WithPoint(photo.Point{Lat: *m.Lat, Lon: *m.Lon}))
	}
	return opts
}

// cachedMeta looks up metadata, calling probe and storing the result on a miss
func cachedMeta(cache MetaCache, kind photo.SourceKind, id string, probe func() (*store.PhotoMeta, error)) (*store.PhotoMeta, error) {
	if cache != nil {
		m, err := cache.GetPhotoMeta(string(kind), id)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("unable to read photo metadata cache", "source", kind, "photo", id, "error", err)
		}
	}

	m, err := probe()
	if err != nil {
		return nil, err
	}
	m.Source = string(kind)
	m.PhotoID = id

	if cache != nil {
		if err := cache.UpsertPhotoMeta(m); err != nil {
			slog.Warn("unable to cache photo metadata", "source", kind, "photo", id, "error", err)
		}
	}
	return m, nil
}

// prune drops cached metadata of photos that are gone from the source
func prune(cache MetaCache, kind photo.SourceKind, present mapset.Set[string]) {
	if cache == nil {
		return
	}
	ids, err := cache.PhotoMetaIDs(string(kind))
	if err != nil {
		slog.Warn("unable to list cached photo metadata", "source", kind, "error", err)
		return
	}

	stale := mapset.NewSet(ids...).Difference(present).ToSlice()
	if len(stale) == 0 {
		return
	}
	slog.Info("pruning cached photo metadata", "source", kind, "count", len(stale))
	for _, id := range stale {
		if err := cache.DeletePhotoMeta(string(kind), id); err != nil {
			slog.Warn("unable to prune photo metadata", "source", kind, "photo", id, "error", err)
		}
	}
}

// Registry fans out to every configured source
type Registry struct {
	mu      sync.RWMutex
	sources map[photo.SourceKind]Source
	order   []photo.SourceKind
}

func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[photo.SourceKind]Source)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[s.Kind()]; !ok {
		r.order = append(r.order, s.Kind())
	}
	r.sources[s.Kind()] = s
}

// Kinds lists the registered sources in registration order
func (r *Registry) Kinds() []photo.SourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]photo.SourceKind, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) source(kind photo.SourceKind) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[kind]
	return s, ok
}

// FetchFreshBatch lists one source again, renewing every url it hands out
func (r *Registry) FetchFreshBatch(ctx context.Context, kind photo.SourceKind) (*photo.Batch, error) {
	s, ok := r.source(kind)
	if !ok {
		return nil, fmt.Errorf("%w, %s", ErrUnknownSource, kind)
	}

	photos, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list %s photos, %w", kind, err)
	}
	return &photo.Batch{Kind: kind, Photos: photos}, nil
}

// LoadAll lists every source. A failing source is skipped unless all of them fail.
func (r *Registry) LoadAll(ctx context.Context) ([]*photo.Photo, error) {
	var (
		all  []*photo.Photo
		errs []error
	)
	kinds := r.Kinds()
	for _, kind := range kinds {
		batch, err := r.FetchFreshBatch(ctx, kind)
		if err != nil {
			slog.Warn("unable to load photos", "source", kind, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("loaded photos", "source", kind, "count", len(batch.Photos))
		all = append(all, batch.Photos...)
	}

	if len(kinds) > 0 && len(errs) == len(kinds) {
		return nil, errors.Join(errs...)
	}
	return all, nil
}
