// Package geoip resolves client addresses to a coarse location for the
// session administration screen. Lookups go through an injected TTL cache so
// tests control expiry and isolation; nothing is held in package globals.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/params"
)

const defaultBaseURL = "http://ip-api.com/json"

type Location struct {
	Ciudad     string  `json:"ciudad"`
	Region     string  `json:"region,omitempty"`
	Pais       string  `json:"pais"`
	PaisCodigo string  `json:"pais_codigo"`
	Lat        float64 `json:"lat,omitempty"`
	Lon        float64 `json:"lon,omitempty"`
	ISP        string  `json:"isp,omitempty"`
}

var localLocation = Location{Ciudad: "Local", Pais: "Local", PaisCodigo: "LO"}
var privateLocation = Location{Ciudad: "Red privada", Pais: "Local", PaisCodigo: "LO"}

type Option func(*Resolver)

// WithBaseURL overrides the lookup endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(r *Resolver) { r.baseURL = baseURL }
}

func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.ttl = ttl }
}

type Resolver struct {
	cache   fiber.Storage
	client  *http.Client
	baseURL string
	ttl     time.Duration
}

func NewResolver(cache fiber.Storage, opts ...Option) *Resolver {
	r := &Resolver{
		cache:   cache,
		client:  &http.Client{Timeout: params.GeoIPLookupTimeout},
		baseURL: defaultBaseURL,
		ttl:     params.GeoIPCacheTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsPrivate() || parsed.IsLinkLocalUnicast()
}

type apiResponse struct {
	Status      string  `json:"status"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
}

// Lookup resolves an ip to a location. Local and private addresses resolve
// without a network call; failures return nil, not an error, since location
// is decorative.
func (r *Resolver) Lookup(ctx context.Context, ip string) *Location {
	if ip == "" || ip == "127.0.0.1" || ip == "::1" || ip == "localhost" {
		loc := localLocation
		return &loc
	}
	if isPrivateIP(ip) {
		loc := privateLocation
		return &loc
	}

	if cached, err := r.cache.Get(ip); err == nil && len(cached) > 0 {
		var loc Location
		if err := json.Unmarshal(cached, &loc); err == nil {
			return &loc
		}
	}

	url := fmt.Sprintf("%s/%s?fields=status,country,countryCode,regionName,city,lat,lon,isp", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "success" {
		return nil
	}

	loc := Location{
		Ciudad:     body.City,
		Region:     body.RegionName,
		Pais:       body.Country,
		PaisCodigo: body.CountryCode,
		Lat:        body.Lat,
		Lon:        body.Lon,
		ISP:        body.ISP,
	}
	if encoded, err := json.Marshal(loc); err == nil {
		r.cache.Set(ip, encoded, r.ttl)
	}
	return &loc
}

// Evict drops one cached entry.
func (r *Resolver) Evict(ip string) error {
	return r.cache.Delete(ip)
}
