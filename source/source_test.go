package source

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/aouyang1/framesaver/photo"
	"github.com/aouyang1/framesaver/store"
)

type fakeSource struct {
	kind   photo.SourceKind
	photos []*photo.Photo
	err    error
	calls  int
}

func (f *fakeSource) Kind() photo.SourceKind { return f.kind }

func (f *fakeSource) List(ctx context.Context) ([]*photo.Photo, error) {
	f.calls++
	return f.photos, f.err
}

func newTestCache(t *testing.T) *store.Database {
	t.Helper()
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "meta.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestRegistryFetchFreshBatch(t *testing.T) {
	s3 := &fakeSource{kind: photo.KindS3, photos: []*photo.Photo{photo.New("a.jpg", "https://x/a.jpg?sig=2", photo.TypeS3User)}}
	r := NewRegistry(s3)

	batch, err := r.FetchFreshBatch(context.Background(), photo.KindS3)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Kind != photo.KindS3 || len(batch.Photos) != 1 {
		t.Errorf("batch = %+v", batch)
	}

	if _, err := r.FetchFreshBatch(context.Background(), photo.KindLocal); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("error = %v, want ErrUnknownSource", err)
	}

	s3.err = errors.New("expired token")
	if _, err := r.FetchFreshBatch(context.Background(), photo.KindS3); err == nil {
		t.Error("list failure should be returned")
	}
}

func TestRegistryLoadAll(t *testing.T) {
	tests := []struct {
		name      string
		sources   []Source
		wantCount int
		wantErr   bool
	}{
		{
			name:    "no sources",
			sources: nil,
		},
		{
			name: "every source",
			sources: []Source{
				&fakeSource{kind: photo.KindS3, photos: []*photo.Photo{photo.New("a", "u", photo.TypeS3User)}},
				&fakeSource{kind: photo.KindLocal, photos: []*photo.Photo{photo.New("b", "u", photo.TypeLocalUser), photo.New("c", "u", photo.TypeLocalUser)}},
			},
			wantCount: 3,
		},
		{
			name: "one source failing",
			sources: []Source{
				&fakeSource{kind: photo.KindS3, err: errors.New("no network")},
				&fakeSource{kind: photo.KindLocal, photos: []*photo.Photo{photo.New("b", "u", photo.TypeLocalUser)}},
			},
			wantCount: 1,
		},
		{
			name: "all sources failing",
			sources: []Source{
				&fakeSource{kind: photo.KindS3, err: errors.New("no network")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photos, err := NewRegistry(tt.sources...).LoadAll(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(photos) != tt.wantCount {
				t.Errorf("loaded %d photos, want %d", len(photos), tt.wantCount)
			}
		})
	}
}

func TestPhotoOptions(t *testing.T) {
	lat, lon := 48.8584, 2.2945
	p := photo.New("a", "u", photo.TypeS3User, photoOptions(&store.PhotoMeta{
		Width: 300, Height: 200, Photographer: "Ann", Lat: &lat, Lon: &lon,
	})...)

	if p.AspectRatio() != 1.5 {
		t.Errorf("aspect = %v, want 1.5", p.AspectRatio())
	}
	if p.Photographer() != "Ann" {
		t.Errorf("photographer = %q", p.Photographer())
	}
	if pt := p.Point(); pt == nil || pt.Lat != lat || pt.Lon != lon {
		t.Errorf("point = %v", pt)
	}

	if len(photoOptions(&store.PhotoMeta{})) != 0 {
		t.Error("empty metadata should add no options")
	}
}

func TestProbePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 40, 10)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	m, err := probe(f)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != 40 || m.Height != 10 {
		t.Errorf("size = %dx%d, want 40x10", m.Width, m.Height)
	}
	if m.Lat != nil || m.Photographer != "" {
		t.Error("png has no exif")
	}
}
