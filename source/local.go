package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aouyang1/framesaver/photo"
	"github.com/aouyang1/framesaver/store"
	mapset "github.com/deckarep/golang-set/v2"
)

// LocalURLPrefix is where the api serves local originals
const LocalURLPrefix = "/photos/local/"

// LocalSource lists the originals folder on the frame itself
type LocalSource struct {
	path  string
	cache MetaCache
}

func NewLocalSource(path string, cache MetaCache) (*LocalSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read local photo directory, %s, %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local photo path is not a directory, %s", path)
	}
	return &LocalSource{path: path, cache: cache}, nil
}

func (l *LocalSource) Kind() photo.SourceKind {
	return photo.KindLocal
}

func (l *LocalSource) Dir() string {
	return l.path
}

func (l *LocalSource) List(ctx context.Context) ([]*photo.Photo, error) {
	dirs, err := os.ReadDir(l.path)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", l.path, err)
	}

	names := mapset.NewSet[string]()
	for _, dir := range dirs {
		if dir.IsDir() || !supported(dir.Name()) {
			continue
		}
		names.Add(dir.Name())
	}
	if names.Cardinality() == 0 {
		slog.Info("no local files found", "path", l.path)
	}

	sorted := names.ToSlice()
	sort.Strings(sorted)

	photos := make([]*photo.Photo, 0, len(sorted))
	for _, name := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := cachedMeta(l.cache, photo.KindLocal, name, func() (*store.PhotoMeta, error) {
			return l.probeFile(name)
		})
		if err != nil {
			slog.Warn("unable to read local photo", "name", name, "error", err)
			continue
		}
		photos = append(photos, photo.New(name, LocalURLPrefix+url.PathEscape(name), photo.TypeLocalUser, photoOptions(m)...))
	}

	prune(l.cache, photo.KindLocal, names)
	return photos, nil
}

func (l *LocalSource) probeFile(name string) (*store.PhotoMeta, error) {
	f, err := os.Open(filepath.Join(l.path, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return probe(f)
}

// Path resolves a photo name from a url to its file, refusing anything outside the folder
func (l *LocalSource) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid photo name, %q", name)
	}
	if !supported(name) {
		return "", fmt.Errorf("unsupported photo type, %q", name)
	}

	path := filepath.Join(l.path, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("photo is a directory, %q", name)
	}
	return path, nil
}
