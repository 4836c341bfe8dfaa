// Package publisher fans tracked vehicle updates out over NATS so downstream
// consumers (map pushers, archivers) do not have to poll the HTTP API.
package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	nc      *nats.Conn
	metrics PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

// VehicleMessage is the per-vehicle payload published after each cycle
type VehicleMessage struct {
	VehicleID     string    `json:"vehicleId"`
	Label         string    `json:"label,omitempty"`
	Group         string    `json:"group"`
	Color         string    `json:"color"`
	TripID        string    `json:"tripId,omitempty"`
	RouteID       string    `json:"routeId,omitempty"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	Bearing       *float64  `json:"bearing,omitempty"`
	PolledAt      time.Time `json:"polledAt"`
	NextStop      string    `json:"nextStop,omitempty"`
	NextArrival   string    `json:"nextArrival,omitempty"`
	UpcomingStops int       `json:"upcomingStops"`
}

func NewNATSPublisher(url string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("bus-tracker"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// PublishVehicle publishes one vehicle update on buses.<group>.<vehicleId>
func (p *NATSPublisher) PublishVehicle(group, vehicleID string, msg VehicleMessage) error {
	subject := fmt.Sprintf("buses.%s.%s", subjectToken(group), subjectToken(vehicleID))
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
