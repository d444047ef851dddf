package model

import "time"

// SessionLocation is the sticky notion of where the user has settled for the
// session. Per-frame classifications never overwrite it; only a confirmed
// shift or a manual pick replaces it, and replacement is whole-value. Place
// and area names survive a shift that only changes the context.
type SessionLocation struct {
	LockedAt  time.Time
	PlaceName string
	AreaName  string
	Context   ContextType
}

// Place is one nearby place returned by the places service.
type Place struct {
	Name    string
	Address string
	Types   []string
}

// LatLng is a GPS coordinate pair.
type LatLng struct {
	Latitude  float64
	Longitude float64
}
