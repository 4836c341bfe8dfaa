package realtime

import (
	"context"
	"net/http"
	"time"
)

// VehiclePosition is one live GPS fix decoded from the vehicle-position
// feed. Wire fields that may be absent stay pointers so absence survives
// the decode.
type VehiclePosition struct {
	VehicleID   string // vehicle descriptor id, falling back to the entity id
	Label       string
	TripID      *string
	RouteID     *string
	DirectionID *int
	StartTime   string
	StartDate   string
	Lat         *float64
	Lon         *float64
	Bearing     *float64
	Speed       *float64
	Timestamp   *time.Time
}

// HasFix reports whether the vehicle carries a usable GPS position
func (v VehiclePosition) HasFix() bool {
	return v.Lat != nil && v.Lon != nil
}

// VehicleClient fetches and decodes the vehicle-position feed
type VehicleClient struct {
	url    string
	client *http.Client
}

// NewVehicleClient creates a client for the given feed URL
func NewVehicleClient(url string, client *http.Client) *VehicleClient {
	return &VehicleClient{url: url, client: client}
}

// Fetch returns the current vehicle positions. Entities without a vehicle
// payload are skipped; every other field is optional.
func (c *VehicleClient) Fetch(ctx context.Context) ([]VehiclePosition, error) {
	feed, err := fetchFeed(ctx, c.client, c.url)
	if err != nil {
		return nil, err
	}

	var positions []VehiclePosition
	for _, entity := range feed.Entity {
		if entity.Vehicle == nil {
			continue
		}

		vehicle := entity.Vehicle
		pos := VehiclePosition{}

		if vehicle.Vehicle != nil && vehicle.Vehicle.Id != nil {
			pos.VehicleID = *vehicle.Vehicle.Id
		} else if entity.Id != nil {
			pos.VehicleID = "entity:" + *entity.Id
		}
		if vehicle.Vehicle != nil && vehicle.Vehicle.Label != nil {
			pos.Label = *vehicle.Vehicle.Label
		}

		if trip := vehicle.Trip; trip != nil {
			pos.TripID = trip.TripId
			pos.RouteID = trip.RouteId
			if trip.DirectionId != nil {
				d := int(*trip.DirectionId)
				pos.DirectionID = &d
			}
			if trip.StartTime != nil {
				pos.StartTime = *trip.StartTime
			}
			if trip.StartDate != nil {
				pos.StartDate = *trip.StartDate
			}
		}

		if p := vehicle.Position; p != nil {
			if p.Latitude != nil {
				lat := float64(*p.Latitude)
				pos.Lat = &lat
			}
			if p.Longitude != nil {
				lon := float64(*p.Longitude)
				pos.Lon = &lon
			}
			if p.Bearing != nil {
				b := float64(*p.Bearing)
				pos.Bearing = &b
			}
			if p.Speed != nil {
				s := float64(*p.Speed)
				pos.Speed = &s
			}
		}

		if vehicle.Timestamp != nil {
			ts := time.Unix(int64(*vehicle.Timestamp), 0).UTC()
			pos.Timestamp = &ts
		}

		positions = append(positions, pos)
	}

	return positions, nil
}
