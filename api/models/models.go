// Package models tracks all api models for request and responses
package models

import "github.com/aouyang1/framesaver/slideshow"

type ErrorResponse struct {
	Error string `json:"error"`
}

type DisplayStateResponse struct {
	Enabled bool    `json:"enabled"`
	Scale   float64 `json:"scale,omitempty"`
}

type SlideshowStateResponse struct {
	slideshow.Snapshot
	Clients int `json:"clients"`
}

// UpdateSettingsRequest maps preference keys to their new values
type UpdateSettingsRequest map[string]any

type SettingsResponse struct {
	Preferences map[string]string `json:"preferences"`
}
