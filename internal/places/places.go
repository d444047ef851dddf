// Package places resolves GPS coordinates to nearby named places and maps
// place types onto communication contexts.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sayboard/sayboard/internal/common"
	"github.com/sayboard/sayboard/internal/model"
)

const (
	searchNearbyURL = "https://places.googleapis.com/v1/places:searchNearby"
	defaultRadius   = 150.0
	maxResults      = 5
)

// includedTypes limits results to place kinds the context mapping can use.
var includedTypes = []string{
	"restaurant",
	"playground",
	"park",
	"school",
	"hospital",
	"doctor",
	"store",
	"supermarket",
	"grocery_store",
}

// typeToContext maps place types to contexts, checked in result order so the
// closest matching place wins.
var typeToContext = map[string]model.ContextType{
	"restaurant":    model.ContextRestaurantCounter,
	"playground":    model.ContextPlayground,
	"park":          model.ContextPlayground,
	"school":        model.ContextClassroom,
	"hospital":      model.ContextMedicalOffice,
	"doctor":        model.ContextMedicalOffice,
	"store":         model.ContextStoreCheckout,
	"supermarket":   model.ContextStoreCheckout,
	"grocery_store": model.ContextStoreCheckout,
}

// Client queries the Places searchNearby API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	radius     float64
}

// NewClient creates a places client. Radius is in meters; 0 uses the default.
func NewClient(apiKey string, radius float64) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: places API key", common.ErrMissingConfig)
	}
	if radius <= 0 {
		radius = defaultRadius
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		baseURL:    searchNearbyURL,
		radius:     radius,
	}, nil
}

type searchRequest struct {
	IncludedTypes       []string            `json:"includedTypes"`
	MaxResultCount      int                 `json:"maxResultCount"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchResponse struct {
	Places []struct {
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string   `json:"formattedAddress"`
		Types            []string `json:"types"`
	} `json:"places"`
}

// Nearby returns places around the coordinate, nearest first.
func (c *Client) Nearby(ctx context.Context, loc model.LatLng) ([]model.Place, error) {
	body, err := json.Marshal(searchRequest{
		IncludedTypes:  includedTypes,
		MaxResultCount: maxResults,
		LocationRestriction: locationRestriction{
			Circle: circle{
				Center: latLng{Latitude: loc.Latitude, Longitude: loc.Longitude},
				Radius: c.radius,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode places request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "places.displayName,places.formattedAddress,places.types")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("places request returned %d: %s", resp.StatusCode, string(data))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}

	places := make([]model.Place, 0, len(decoded.Places))
	for _, p := range decoded.Places {
		places = append(places, model.Place{
			Name:    p.DisplayName.Text,
			Address: p.FormattedAddress,
			Types:   p.Types,
		})
	}
	return places, nil
}

// ContextForTypes maps a place's type list to a context. The first mappable
// type wins.
func ContextForTypes(types []string) (model.ContextType, bool) {
	for _, t := range types {
		if ctx, ok := typeToContext[t]; ok {
			return ctx, true
		}
	}
	return model.ContextUnknown, false
}

// BestContext picks the context hint from a nearest-first place list: the
// first place with a mappable type decides.
func BestContext(places []model.Place) (model.Place, model.ContextType, bool) {
	for _, p := range places {
		if ctx, ok := ContextForTypes(p.Types); ok {
			return p, ctx, true
		}
	}
	return model.Place{}, model.ContextUnknown, false
}
