package store

import "errors"

var ErrNotFound = errors.New("not found")

// PrefKind is the value type of a preference
type PrefKind int

const (
	PrefBool PrefKind = iota
	PrefInt
	PrefString
)

// Pref describes one known preference and its default
type Pref struct {
	Key     string
	Kind    PrefKind
	Default string
}

// Prefs are all preferences the slideshow understands
var Prefs = []Pref{
	{Key: "skip", Kind: PrefBool, Default: "false"},
	{Key: "showLocation", Kind: PrefBool, Default: "true"},
	{Key: "showTime", Kind: PrefBool, Default: "true"},
	{Key: "largeTime", Kind: PrefBool, Default: "false"},
	{Key: "showPhotog", Kind: PrefBool, Default: "true"},
	{Key: "photoTransition", Kind: PrefInt, Default: "0"},
	{Key: "photoSizing", Kind: PrefInt, Default: "0"},
	{Key: "transitionTime", Kind: PrefInt, Default: "30"},
	{Key: "slotCount", Kind: PrefInt, Default: "2"},
	{Key: "background", Kind: PrefString, Default: "background:#000000"},
}

// LookupPref finds a known preference by key
func LookupPref(key string) (Pref, bool) {
	for _, p := range Prefs {
		if p.Key == key {
			return p, true
		}
	}
	return Pref{}, false
}

// PhotoMeta caches what is expensive to learn about a photo
type PhotoMeta struct {
	Source       string   `json:"source"`
	PhotoID      string   `json:"photo_id"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Photographer string   `json:"photographer"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
}

type Schedule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}
