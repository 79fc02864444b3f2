// Package geo turns raw submission geodata (a live GPS fix, a typed place
// name, or both) into one normalized location with a confidence tier.
package geo

import (
	"context"
	"log"
	"strings"

	"github.com/WardWatch/WW-Backend/internal/geo/geocoding"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Source string

const (
	SourceLiveShare   Source = "live-share"
	SourceTextGeocode Source = "text-geocoded"
	SourceManual      Source = "manual"
)

// Geocoder is the external lookup service. The concrete client lives in
// geo/geocoding; tests substitute fakes.
type Geocoder interface {
	Geocode(ctx context.Context, text string) ([]geocoding.Candidate, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*geocoding.Place, error)
}

// Input carries whatever geodata the submission had. Lat/Lng are pointers so
// "no fix" and "fix at 0,0" stay distinguishable.
type Input struct {
	Lat  *float64
	Lng  *float64
	Text string
}

// Result is the normalized location. Verified reports whether the confidence
// policy considers this location trustworthy (high tier only).
type Result struct {
	Lat            *float64
	Lng            *float64
	NormalizedText string
	Confidence     Confidence
	Source         Source
}

func (r *Result) Verified() bool { return r != nil && r.Confidence == ConfidenceHigh }

// Resolver owns the confidence policy and the live-over-text priority order.
// It never fails a submission: a degraded geocoder just lowers confidence.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver accepts a nil geocoder; everything then resolves at the lowest
// confidence its input allows.
func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// Resolve normalizes the input, or returns nil when it carries no geodata at
// all. A device-reported GPS fix outranks typed text: when both are present
// the text is ignored for coordinates and kept only as a fallback label.
func (r *Resolver) Resolve(ctx context.Context, in Input) *Result {
	if in.Lat != nil && in.Lng != nil {
		return r.resolveLive(ctx, in)
	}
	if strings.TrimSpace(in.Text) != "" {
		return r.resolveText(ctx, strings.TrimSpace(in.Text))
	}
	return nil
}

func (r *Resolver) resolveLive(ctx context.Context, in Input) *Result {
	out := &Result{
		Lat:            in.Lat,
		Lng:            in.Lng,
		NormalizedText: strings.TrimSpace(in.Text),
		Confidence:     ConfidenceMedium,
		Source:         SourceLiveShare,
	}

	if r.geocoder == nil {
		return out
	}

	place, err := r.geocoder.ReverseGeocode(ctx, *in.Lat, *in.Lng)
	if err != nil {
		log.Printf("[geo] reverse geocode failed, keeping medium confidence: %v", err)
		return out
	}
	if place == nil {
		return out
	}

	out.NormalizedText = place.DisplayName
	// High confidence only for an exact hit: the point resolved to a named
	// feature, not just some containing area.
	if place.Name != "" {
		out.Confidence = ConfidenceHigh
	}
	return out
}

func (r *Resolver) resolveText(ctx context.Context, text string) *Result {
	manual := &Result{
		NormalizedText: text,
		Confidence:     ConfidenceLow,
		Source:         SourceManual,
	}

	if r.geocoder == nil {
		return manual
	}

	candidates, err := r.geocoder.Geocode(ctx, text)
	if err != nil {
		log.Printf("[geo] geocode failed, keeping text as manual location: %v", err)
		return manual
	}

	switch len(candidates) {
	case 0:
		return manual
	case 1:
		// Unique match: trust it fully.
		return &Result{
			Lat:            &candidates[0].Lat,
			Lng:            &candidates[0].Lng,
			NormalizedText: candidates[0].DisplayName,
			Confidence:     ConfidenceHigh,
			Source:         SourceTextGeocode,
		}
	default:
		// Ambiguous: take the best-ranked candidate but mark it low.
		return &Result{
			Lat:            &candidates[0].Lat,
			Lng:            &candidates[0].Lng,
			NormalizedText: candidates[0].DisplayName,
			Confidence:     ConfidenceLow,
			Source:         SourceTextGeocode,
		}
	}
}
