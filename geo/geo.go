// Package geo resolves photo geolocations into place names
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aouyang1/framesaver/photo"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// ErrNetwork is returned when the geocoder could not be reached at all
var ErrNetwork = errors.New("network unavailable")

const (
	DefaultEndpoint = "https://nominatim.openstreetmap.org/reverse"
	defaultCacheLen = 512
	userAgent       = "framesaver/1.0"
)

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Client reverse geocodes points against a Nominatim compatible endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
	cache      *lru.Cache[string, string]
	language   string

	observe func(result string)
}

// NewClient creates a geocoder. Requests are limited to one per second.
func NewClient(httpClient *http.Client, endpoint, language string) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	cache, err := lru.New[string, string](defaultCacheLen)
	if err != nil {
		return nil, fmt.Errorf("unable to create geo cache, %w", err)
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		cache:      cache,
		language:   language,
	}, nil
}

// OnLookup registers a callback receiving the result of every lookup:
// cached, ok, network or error
func (c *Client) OnLookup(fn func(result string)) {
	c.observe = fn
}

func (c *Client) record(result string) {
	if c.observe != nil {
		c.observe(result)
	}
}

// Resolve returns the place name for pt. Cached results do not hit the network.
func (c *Client) Resolve(ctx context.Context, pt photo.Point) (string, error) {
	key := pt.String()
	if location, ok := c.cache.Get(key); ok {
		c.record("cached")
		return location, nil
	}

	location, err := c.lookup(ctx, pt)
	switch {
	case err == nil:
		c.record("ok")
		c.cache.Add(key, location)
	case errors.Is(err, ErrNetwork):
		c.record("network")
	default:
		c.record("error")
	}
	return location, err
}

func (c *Client) lookup(ctx context.Context, pt photo.Point) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("geo rate limit wait, %w", err)
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("unable to parse geo endpoint, %w", err)
	}
	q := reqURL.Query()
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(pt.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(pt.Lon, 'f', 6, 64))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create geo request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isNetworkError(ctx, err) {
			return "", fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return "", fmt.Errorf("failed to send geo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read geo response: %w", err)
	}

	var rr reverseResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return "", fmt.Errorf("failed to parse geo response: %w", err)
	}
	if rr.Error != "" {
		return "", fmt.Errorf("geo lookup failed: %s", rr.Error)
	}

	slog.Debug("resolved location", "point", pt.String(), "location", rr.DisplayName)
	return rr.DisplayName, nil
}

// isNetworkError treats transport failures and client timeouts as the network being
// down. Cancellation or expiry of the caller's own context is not.
func isNetworkError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
