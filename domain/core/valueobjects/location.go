package valueobjects

import "fmt"

// Location is a value object for a geographic coordinate pair
type Location struct {
	latitude  float64
	longitude float64
}

// NewLocation creates a location with range validation
func NewLocation(latitude, longitude float64) (Location, error) {
	if latitude < -90 || latitude > 90 {
		return Location{}, fmt.Errorf("latitude out of range: %f", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Location{}, fmt.Errorf("longitude out of range: %f", longitude)
	}
	return Location{latitude: latitude, longitude: longitude}, nil
}

// Latitude returns the latitude in degrees
func (l Location) Latitude() float64 {
	return l.latitude
}

// Longitude returns the longitude in degrees
func (l Location) Longitude() float64 {
	return l.longitude
}

// Equals checks if two locations are equal
func (l Location) Equals(other Location) bool {
	return l.latitude == other.latitude && l.longitude == other.longitude
}

func (l Location) String() string {
	return fmt.Sprintf("(%f, %f)", l.latitude, l.longitude)
}
