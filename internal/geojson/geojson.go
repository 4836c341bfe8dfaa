// Package geojson models the small subset of GeoJSON the tracker emits:
// feature collections mixing point and line-string features.
package geojson

// FeatureCollection is the top-level GeoJSON container
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON feature. Properties and Geometry are left open so
// point and line features with different property shapes can share one
// collection.
type Feature struct {
	Type       string      `json:"type"`
	ID         string      `json:"id,omitempty"`
	Properties interface{} `json:"properties"`
	Geometry   interface{} `json:"geometry"`
}

// PointGeometry represents Point geometry, coordinates ordered [lng, lat]
type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// LineStringGeometry represents LineString geometry
type LineStringGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// NewFeatureCollection returns an empty collection whose features marshal
// as [] rather than null
func NewFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// NewFeature wraps properties and geometry in a feature envelope
func NewFeature(id string, properties, geometry interface{}) Feature {
	return Feature{Type: "Feature", ID: id, Properties: properties, Geometry: geometry}
}

// Point builds Point geometry from a longitude/latitude pair
func Point(lon, lat float64) PointGeometry {
	return PointGeometry{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// LineString builds LineString geometry from [lng, lat] pairs
func LineString(coords [][2]float64) LineStringGeometry {
	return LineStringGeometry{Type: "LineString", Coordinates: coords}
}
