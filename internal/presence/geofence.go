package presence

import (
	"fmt"
	"math"
	"time"
)

const earthRadiusMeters = 6371008.8

// LocationFix is a single raw position reported by the device.
type LocationFix struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	// AccuracyMeters is the horizontal accuracy radius; 0 means unknown.
	AccuracyMeters float64
}

type EventKind int

const (
	Enter EventKind = iota + 1
	Exit
)

func (k EventKind) String() string {
	switch k {
	case Enter:
		return "enter"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// GeofenceEvent is a stable presence transition derived from fixes.
type GeofenceEvent struct {
	Kind EventKind
	Time time.Time
}

// Geofence is a circular region around the office.
type Geofence struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Distance returns the great-circle distance in meters from the centre.
func (g Geofence) Distance(lat, lon float64) float64 {
	lat1 := g.Latitude * math.Pi / 180
	lat2 := lat * math.Pi / 180
	dLat := (lat - g.Latitude) * math.Pi / 180
	dLon := (lon - g.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

func (g Geofence) Contains(fix LocationFix) bool {
	return g.Distance(fix.Latitude, fix.Longitude) <= g.RadiusMeters
}

func (g Geofence) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range", g.Longitude)
	}
	if g.RadiusMeters <= 0 {
		return fmt.Errorf("radius must be positive, got %f", g.RadiusMeters)
	}
	return nil
}
