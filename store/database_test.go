package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPreferenceDefaults(t *testing.T) {
	db := newTestDatabase(t)

	if db.GetBool("skip") {
		t.Error("skip should default to false")
	}
	if !db.GetBool("showLocation") {
		t.Error("showLocation should default to true")
	}
	if got := db.GetInt("transitionTime", 0); got != 30 {
		t.Errorf("transitionTime = %d, want 30", got)
	}
	if got := db.GetString("background", ""); got != "background:#000000" {
		t.Errorf("background = %q", got)
	}
	if got := db.GetInt("unknown", 7); got != 7 {
		t.Errorf("unknown int = %d, want default 7", got)
	}
	if db.GetBool("unknown") {
		t.Error("unknown bool should be false")
	}
}

func TestSetPref(t *testing.T) {
	db := newTestDatabase(t)

	if err := db.SetPref("skip", "true"); err != nil {
		t.Fatal(err)
	}
	if !db.GetBool("skip") {
		t.Error("skip should be true after SetPref")
	}

	if err := db.SetPref("photoTransition", "not-a-number"); err != nil {
		t.Fatal(err)
	}
	if got := db.GetInt("photoTransition", 3); got != 3 {
		t.Errorf("invalid int should fall back, got %d", got)
	}

	prefs, err := db.GetPrefs()
	if err != nil {
		t.Fatal(err)
	}
	if len(prefs) != len(Prefs) {
		t.Errorf("GetPrefs() returned %d prefs, want %d", len(prefs), len(Prefs))
	}

	// reopening must not clobber stored values
	if err := db.seedPrefs(); err != nil {
		t.Fatal(err)
	}
	if !db.GetBool("skip") {
		t.Error("seeding overwrote a stored preference")
	}
}

func TestPhotoMeta(t *testing.T) {
	db := newTestDatabase(t)

	_, err := db.GetPhotoMeta("s3", "a.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPhotoMeta() error = %v, want ErrNotFound", err)
	}

	lat, lon := 40.7, -74.0
	in := &PhotoMeta{Source: "s3", PhotoID: "a.jpg", Width: 4000, Height: 3000, Photographer: "Ann", Lat: &lat, Lon: &lon}
	if err := db.UpsertPhotoMeta(in); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetPhotoMeta("s3", "a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 4000 || got.Height != 3000 || got.Photographer != "Ann" {
		t.Errorf("GetPhotoMeta() = %+v", got)
	}
	if got.Lat == nil || *got.Lat != lat || got.Lon == nil || *got.Lon != lon {
		t.Errorf("point not round tripped: %v %v", got.Lat, got.Lon)
	}

	if err := db.UpsertPhotoMeta(&PhotoMeta{Source: "s3", PhotoID: "b.jpg", Width: 1, Height: 1}); err != nil {
		t.Fatal(err)
	}
	ids, err := db.PhotoMetaIDs("s3")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("PhotoMetaIDs() = %v", ids)
	}
	if err := db.DeletePhotoMeta("s3", "b.jpg"); err != nil {
		t.Fatal(err)
	}
	b, err := db.GetPhotoMeta("s3", "b.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted meta still present: %+v", b)
	}
}

func TestScheduleDefaults(t *testing.T) {
	db := newTestDatabase(t)

	s, err := db.GetSchedule()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Enabled || s.Start != "06:00" || s.End != "23:00" {
		t.Errorf("GetSchedule() = %+v", s)
	}

	if err := db.UpsertSchedule(&Schedule{Enabled: false, Start: "07:30", End: "22:00"}); err != nil {
		t.Fatal(err)
	}
	s, err = db.GetSchedule()
	if err != nil {
		t.Fatal(err)
	}
	if s.Enabled || s.Start != "07:30" {
		t.Errorf("GetSchedule() after upsert = %+v", s)
	}
}
