package model

// LocationType is the administrative level of a location node.
type LocationType string

const (
	LocationState    LocationType = "state"
	LocationDistrict LocationType = "district"
	LocationTehsil   LocationType = "tehsil"
	LocationCity     LocationType = "city"
	LocationVillage  LocationType = "village"
)

// LatLng is a point in decimal degrees.
type LatLng struct {
	Latitude  float64 `json:"latitude" mapstructure:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude" yaml:"longitude"`
}

// Bounds is an axis-aligned bounding box in decimal degrees.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether p lies inside b. The edges are inclusive.
func (b Bounds) Contains(p LatLng) bool {
	return p.Latitude >= b.South && p.Latitude <= b.North &&
		p.Longitude >= b.West && p.Longitude <= b.East
}

// Center is the midpoint of b.
func (b Bounds) Center() LatLng {
	return LatLng{
		Latitude:  (b.North + b.South) / 2,
		Longitude: (b.East + b.West) / 2,
	}
}

// Location is a node of the state > district > tehsil hierarchy.
type Location struct {
	ID        string       `json:"_id"`
	Name      string       `json:"name"`
	Type      LocationType `json:"type"`
	ParentID  string       `json:"parentId,omitempty"`
	Bounds    Bounds       `json:"bounds"`
	Center    LatLng       `json:"center"`
	ZoomLevel int          `json:"zoomLevel"`
	Level     int          `json:"level"`
}

// LocationHierarchy is the set of nodes visible for a state/district choice.
type LocationHierarchy struct {
	States    []Location `json:"states"`
	Districts []Location `json:"districts"`
	Tehsils   []Location `json:"tehsils"`
}

// All returns every node in the hierarchy, states first.
func (h LocationHierarchy) All() []Location {
	out := make([]Location, 0, len(h.States)+len(h.Districts)+len(h.Tehsils))
	out = append(out, h.States...)
	out = append(out, h.Districts...)
	out = append(out, h.Tehsils...)
	return out
}
