package tracker

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tracked group names. Primary is the fleet-registry allow-list; sample is
// chosen once at startup from the rest of the feed.
const (
	GroupPrimary = "primary"
	GroupSample  = "sample"
)

// Palette holds the display colors assigned to vehicles within a group. The
// assignment is by stable index, cycling when a group outgrows the palette.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
}

// ColorFor returns the palette color for a vehicle's stable index within
// its group
func ColorFor(index int) string {
	return Palette[index%len(Palette)]
}

// FleetVehicle is one record of the fleet registry
type FleetVehicle struct {
	VehicleID   string `json:"vehicle_id"`
	DisplayName string `json:"display_name"`
	District    string `json:"district,omitempty"`
}

// Registry is the primary-group allow-list. File order fixes each vehicle's
// palette index.
type Registry struct {
	vehicles map[string]FleetVehicle
	index    map[string]int
	size     int
}

// LoadRegistry reads a fleet registry from a JSON array file
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet registry: %w", err)
	}

	var records []FleetVehicle
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse fleet registry: %w", err)
	}

	r := &Registry{
		vehicles: make(map[string]FleetVehicle, len(records)),
		index:    make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if rec.VehicleID == "" {
			return nil, fmt.Errorf("fleet registry entry %d has no vehicle_id", i)
		}
		if _, dup := r.vehicles[rec.VehicleID]; dup {
			return nil, fmt.Errorf("fleet registry lists %s twice", rec.VehicleID)
		}
		r.vehicles[rec.VehicleID] = rec
		r.index[rec.VehicleID] = i
	}
	r.size = len(records)

	return r, nil
}

// Contains reports whether the vehicle is in the primary allow-list
func (r *Registry) Contains(vehicleID string) bool {
	_, ok := r.vehicles[vehicleID]
	return ok
}

// Lookup returns the registry record for a vehicle
func (r *Registry) Lookup(vehicleID string) (FleetVehicle, bool) {
	rec, ok := r.vehicles[vehicleID]
	return rec, ok
}

// Index returns the vehicle's stable palette index
func (r *Registry) Index(vehicleID string) (int, bool) {
	i, ok := r.index[vehicleID]
	return i, ok
}

// Size returns the number of registered vehicles
func (r *Registry) Size() int {
	return r.size
}
