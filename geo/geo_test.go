package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aouyang1/framesaver/photo"
)

func TestClient_Resolve(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("format") != "jsonv2" {
			t.Errorf("format = %q, want jsonv2", r.URL.Query().Get("format"))
		}
		if r.URL.Query().Get("lat") != "40.700000" {
			t.Errorf("lat = %q", r.URL.Query().Get("lat"))
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent should be set")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name":"Unnamed Road, Brooklyn, New York"}`))
	}))
	defer server.Close()

	c, err := NewClient(server.Client(), server.URL, "en")
	if err != nil {
		t.Fatal(err)
	}

	pt := photo.Point{Lat: 40.7, Lon: -74}
	for range 2 {
		got, err := c.Resolve(context.Background(), pt)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got != "Unnamed Road, Brooklyn, New York" {
			t.Errorf("Resolve() = %q", got)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (second lookup cached)", calls.Load())
	}
}

func TestClient_ResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		network bool
	}{
		{"server error", http.StatusInternalServerError, "", false},
		{"bad json", http.StatusOK, "{", false},
		{"geocoder error", http.StatusOK, `{"error":"Unable to geocode"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := NewClient(server.Client(), server.URL, "")
			if err != nil {
				t.Fatal(err)
			}
			_, err = c.Resolve(context.Background(), photo.Point{Lat: 1, Lon: 2})
			if err == nil {
				t.Fatal("Resolve() should fail")
			}
			if errors.Is(err, ErrNetwork) != tt.network {
				t.Errorf("errors.Is(err, ErrNetwork) = %v, want %v", !tt.network, tt.network)
			}
		})
	}
}

func TestClient_ResolveNetworkDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	c, err := NewClient(http.DefaultClient, endpoint, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Resolve(context.Background(), photo.Point{Lat: 1, Lon: 2})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Resolve() error = %v, want ErrNetwork", err)
	}
}

func TestClient_ResolveTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	c, err := NewClient(&http.Client{Timeout: 20 * time.Millisecond}, server.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Resolve(context.Background(), photo.Point{Lat: 1, Lon: 2})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Resolve() error = %v, want ErrNetwork", err)
	}
}

func TestClient_ResolveCallerCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c, err := NewClient(server.Client(), server.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Resolve(ctx, photo.Point{Lat: 1, Lon: 2})
	if err == nil {
		t.Fatal("Resolve() should fail")
	}
	if errors.Is(err, ErrNetwork) {
		t.Errorf("caller deadline should not count as a network failure, got %v", err)
	}
}
