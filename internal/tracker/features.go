package tracker

import (
	"time"

	"github.com/buswatch-live/tracker/internal/geo"
	"github.com/buswatch-live/tracker/internal/geojson"
	"github.com/buswatch-live/tracker/internal/predict"
	"github.com/buswatch-live/tracker/internal/publisher"
	"github.com/buswatch-live/tracker/internal/realtime"
)

// BusProps are the properties of one vehicle point feature
type BusProps struct {
	VehicleID   string   `json:"vehicleId"`
	Label       string   `json:"label,omitempty"`
	RouteID     string   `json:"routeId,omitempty"`
	TripID      string   `json:"tripId,omitempty"`
	Headsign    string   `json:"headsign,omitempty"`
	Color       string   `json:"color"`
	Bearing     *float64 `json:"bearing,omitempty"`
	Speed       *float64 `json:"speed,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	District    string   `json:"district,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// RouteProps are the properties of one forward-path line feature. Type is
// always "route"; map clients branch on it.
type RouteProps struct {
	Type      string `json:"type"`
	VehicleID string `json:"vehicleId"`
	TripID    string `json:"tripId"`
	RouteID   string `json:"routeId,omitempty"`
	Headsign  string `json:"headsign,omitempty"`
	Color     string `json:"color"`
}

// StopProps are the properties of one upcoming-stop point feature. Type is
// always "stop".
type StopProps struct {
	Type               string `json:"type"`
	VehicleID          string `json:"vehicleId"`
	Color              string `json:"color"`
	StopID             string `json:"stopId"`
	Name               string `json:"name,omitempty"`
	Sequence           int    `json:"sequence"`
	ScheduledArrival   string `json:"scheduledArrival"`
	ScheduledDeparture string `json:"scheduledDeparture,omitempty"`
	PredictedArrival   string `json:"predictedArrival,omitempty"`
	Delay              *int   `json:"delay,omitempty"`
	IsRealTime         bool   `json:"isRealTime"`
}

// effectiveBearing prefers the feed's bearing and falls back to the heading
// of the first forward-path segment.
func effectiveBearing(v realtime.VehiclePosition, pred *predict.RoutePrediction) *float64 {
	if v.Bearing != nil {
		return v.Bearing
	}
	if pred == nil || len(pred.Path) < 2 {
		return nil
	}
	b := geo.Bearing(pred.Path[0].Lat, pred.Path[0].Lon, pred.Path[1].Lat, pred.Path[1].Lon)
	return &b
}

// effectiveRouteID prefers the feed's route id and falls back to the static
// trip's route.
func effectiveRouteID(v realtime.VehiclePosition, pred *predict.RoutePrediction) string {
	if v.RouteID != nil {
		return *v.RouteID
	}
	if pred != nil {
		return pred.RouteID
	}
	return ""
}

func busFeature(v realtime.VehiclePosition, meta FleetVehicle, color string, pred *predict.RoutePrediction) geojson.Feature {
	props := BusProps{
		VehicleID:   v.VehicleID,
		Label:       v.Label,
		RouteID:     effectiveRouteID(v, pred),
		Color:       color,
		Bearing:     effectiveBearing(v, pred),
		Speed:       v.Speed,
		DisplayName: meta.DisplayName,
		District:    meta.District,
	}
	if v.TripID != nil {
		props.TripID = *v.TripID
	}
	if pred != nil {
		props.Headsign = pred.Headsign
	}
	if v.Timestamp != nil {
		props.UpdatedAt = v.Timestamp.UTC().Format(time.RFC3339)
	}

	return geojson.NewFeature(v.VehicleID, props, geojson.Point(*v.Lon, *v.Lat))
}

// routeFeatures emits the vehicle's forward-path line (when geometry exists)
// followed by one point per upcoming stop.
func routeFeatures(vehicleID, color string, pred *predict.RoutePrediction) []geojson.Feature {
	var features []geojson.Feature

	if len(pred.Path) >= 2 {
		coords := make([][2]float64, len(pred.Path))
		for i, pt := range pred.Path {
			coords[i] = [2]float64{pt.Lon, pt.Lat}
		}
		features = append(features, geojson.NewFeature(vehicleID, RouteProps{
			Type:      "route",
			VehicleID: vehicleID,
			TripID:    pred.TripID,
			RouteID:   pred.RouteID,
			Headsign:  pred.Headsign,
			Color:     color,
		}, geojson.LineString(coords)))
	}

	for _, stop := range pred.Stops {
		features = append(features, geojson.NewFeature("", StopProps{
			Type:               "stop",
			VehicleID:          vehicleID,
			Color:              color,
			StopID:             stop.StopID,
			Name:               stop.Name,
			Sequence:           stop.StopSequence,
			ScheduledArrival:   stop.ScheduledArrival,
			ScheduledDeparture: stop.ScheduledDeparture,
			PredictedArrival:   stop.PredictedArrival,
			Delay:              stop.ArrivalDelay,
			IsRealTime:         stop.IsRealTime,
		}, geojson.Point(stop.Lon, stop.Lat)))
	}

	return features
}

func vehicleMessage(v realtime.VehiclePosition, group, color string, pred *predict.RoutePrediction, polledAt time.Time) publisher.VehicleMessage {
	msg := publisher.VehicleMessage{
		VehicleID: v.VehicleID,
		Label:     v.Label,
		Group:     group,
		Color:     color,
		RouteID:   effectiveRouteID(v, pred),
		Lat:       *v.Lat,
		Lon:       *v.Lon,
		Bearing:   effectiveBearing(v, pred),
		PolledAt:  polledAt,
	}
	if v.TripID != nil {
		msg.TripID = *v.TripID
	}
	if pred != nil {
		msg.UpcomingStops = len(pred.Stops)
		if len(pred.Stops) > 0 {
			next := pred.Stops[0]
			msg.NextStop = next.Name
			msg.NextArrival = next.PredictedArrival
			if msg.NextArrival == "" {
				msg.NextArrival = next.ScheduledArrival
			}
		}
	}
	return msg
}
