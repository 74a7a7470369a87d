package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/aouyang1/framesaver/store"
	"github.com/rwcarlsen/goexif/exif"
)

// probe reads the pixel size of an image and, when present, its exif artist, gps point
// and orientation
func probe(r io.ReadSeeker) (*store.PhotoMeta, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image config, %w", err)
	}
	m := &store.PhotoMeta{Width: cfg.Width, Height: cfg.Height}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return m, nil
	}
	x, err := exif.Decode(r)
	if err != nil {
		// png or a jpeg without exif
		return m, nil
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		// 5 through 8 are rotated a quarter turn
		if o, err := tag.Int(0); err == nil && o >= 5 && o <= 8 {
			m.Width, m.Height = m.Height, m.Width
		}
	}
	if tag, err := x.Get(exif.Artist); err == nil {
		if artist, err := tag.StringVal(); err == nil {
			m.Photographer = strings.TrimSpace(artist)
		}
	}
	if lat, lon, err := x.LatLong(); err == nil {
		m.Lat = &lat
		m.Lon = &lon
	}
	return m, nil
}
