package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/WardWatch/WW-Backend/internal/geo/geocoding"
)

// fakeGeocoder scripts both lookup directions.
type fakeGeocoder struct {
	candidates []geocoding.Candidate
	geocodeErr error
	place      *geocoding.Place
	reverseErr error
}

func (f fakeGeocoder) Geocode(context.Context, string) ([]geocoding.Candidate, error) {
	return f.candidates, f.geocodeErr
}

func (f fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (*geocoding.Place, error) {
	return f.place, f.reverseErr
}

func ptr(v float64) *float64 { return &v }

func TestResolve_NoGeodata(t *testing.T) {
	r := NewResolver(fakeGeocoder{})
	if got := r.Resolve(context.Background(), Input{}); got != nil {
		t.Errorf("no coordinates and no text should resolve to nil, got %+v", got)
	}
}

func TestResolve_LiveOutranksText(t *testing.T) {
	r := NewResolver(fakeGeocoder{
		place: &geocoding.Place{DisplayName: "Kissy Road, Freetown", Name: "Kissy Road"},
		// Deliberately different forward candidates: they must not be used.
		candidates: []geocoding.Candidate{{DisplayName: "Somewhere else", Lat: 1, Lng: 1}},
	})

	got := r.Resolve(context.Background(), Input{Lat: ptr(8.4606), Lng: ptr(-12.2684), Text: "kissy road"})
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.Source != SourceLiveShare {
		t.Errorf("expected live-share source, got %s", got.Source)
	}
	if *got.Lat != 8.4606 || *got.Lng != -12.2684 {
		t.Errorf("live coordinates must win over geocoded text, got (%v, %v)", *got.Lat, *got.Lng)
	}
	if got.Confidence != ConfidenceHigh || !got.Verified() {
		t.Errorf("exact reverse hit should be high confidence, got %s", got.Confidence)
	}
	if got.NormalizedText != "Kissy Road, Freetown" {
		t.Errorf("unexpected normalized text %q", got.NormalizedText)
	}
}

func TestResolve_LiveWithCoarseReverse(t *testing.T) {
	r := NewResolver(fakeGeocoder{
		place: &geocoding.Place{DisplayName: "Western Area Urban, Sierra Leone"}, // no feature name
	})

	got := r.Resolve(context.Background(), Input{Lat: ptr(8.46), Lng: ptr(-13.23)})
	if got.Confidence != ConfidenceMedium || got.Verified() {
		t.Errorf("coarse reverse hit should stay medium, got %s", got.Confidence)
	}
}

func TestResolve_LiveSurvivesGeocoderFailure(t *testing.T) {
	r := NewResolver(fakeGeocoder{reverseErr: errors.New("service down")})

	got := r.Resolve(context.Background(), Input{Lat: ptr(8.46), Lng: ptr(-13.23)})
	if got == nil || got.Source != SourceLiveShare {
		t.Fatalf("live fix must survive a geocoder outage, got %+v", got)
	}
	if got.Confidence != ConfidenceMedium {
		t.Errorf("expected medium confidence on outage, got %s", got.Confidence)
	}
}

func TestResolve_TextUniqueMatch(t *testing.T) {
	r := NewResolver(fakeGeocoder{candidates: []geocoding.Candidate{
		{DisplayName: "Lumley Beach Road, Freetown", Lat: 8.43, Lng: -13.28},
	}})

	got := r.Resolve(context.Background(), Input{Text: "lumley beach road"})
	if got.Confidence != ConfidenceHigh || got.Source != SourceTextGeocode {
		t.Errorf("unique forward match should be high/text-geocoded, got %s/%s", got.Confidence, got.Source)
	}
	if got.Lat == nil || *got.Lat != 8.43 {
		t.Errorf("expected candidate coordinates, got %+v", got.Lat)
	}
}

func TestResolve_TextAmbiguous(t *testing.T) {
	r := NewResolver(fakeGeocoder{candidates: []geocoding.Candidate{
		{DisplayName: "Market Street, Freetown", Lat: 8.48, Lng: -13.23},
		{DisplayName: "Market Street, Bo", Lat: 7.96, Lng: -11.74},
	}})

	got := r.Resolve(context.Background(), Input{Text: "market street"})
	if got.Confidence != ConfidenceLow {
		t.Errorf("ambiguous match should be low confidence, got %s", got.Confidence)
	}
	if got.Source != SourceTextGeocode {
		t.Errorf("expected text-geocoded source, got %s", got.Source)
	}
}

func TestResolve_TextUnresolvedStaysManual(t *testing.T) {
	for name, gc := range map[string]Geocoder{
		"no candidates": fakeGeocoder{},
		"service error": fakeGeocoder{geocodeErr: errors.New("timeout")},
		"nil geocoder":  nil,
	} {
		r := NewResolver(gc)
		got := r.Resolve(context.Background(), Input{Text: "behind the old mosque"})
		if got == nil {
			t.Fatalf("%s: manual text must still produce a result", name)
		}
		if got.Source != SourceManual || got.Confidence != ConfidenceLow {
			t.Errorf("%s: expected manual/low, got %s/%s", name, got.Source, got.Confidence)
		}
		if got.NormalizedText != "behind the old mosque" {
			t.Errorf("%s: raw text must be kept, got %q", name, got.NormalizedText)
		}
		if got.Lat != nil {
			t.Errorf("%s: manual locations carry no coordinates", name)
		}
	}
}
