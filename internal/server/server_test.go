package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/buswatch-live/tracker/internal/geojson"
	"github.com/buswatch-live/tracker/internal/metrics"
	"github.com/buswatch-live/tracker/internal/tracker"
)

type fakeSource struct {
	buses  map[string]geojson.FeatureCollection
	routes map[string]geojson.FeatureCollection
	status tracker.Status
	ready  bool
}

func (f *fakeSource) GetBuses(group string) geojson.FeatureCollection {
	if fc, ok := f.buses[group]; ok {
		return fc
	}
	return geojson.NewFeatureCollection()
}

func (f *fakeSource) GetRoutes(group string) geojson.FeatureCollection {
	if fc, ok := f.routes[group]; ok {
		return fc
	}
	return geojson.NewFeatureCollection()
}

func (f *fakeSource) Status() (tracker.Status, bool) {
	return f.status, f.ready
}

func newTestServer(t *testing.T, source *fakeSource, staticDir string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Options{
		Source:         source,
		Metrics:        metrics.NewCollector(5 * time.Second),
		AllowedOrigins: []string{"*"},
		StaticDir:      staticDir,
		PollInterval:   5 * time.Second,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, body
}

func TestGetBuses(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, geojson.NewFeature("bus-1",
		map[string]interface{}{"vehicleId": "bus-1", "color": "#e6194b"},
		geojson.Point(-74.0, 40.7)))

	source := &fakeSource{buses: map[string]geojson.FeatureCollection{"primary": fc}}
	srv := newTestServer(t, source, "")

	resp, body := get(t, srv.URL+"/api/buses/primary")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=5, stale-while-revalidate=3" {
		t.Errorf("unexpected cache control %q", cc)
	}

	var decoded geojson.FeatureCollection
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(decoded.Features) != 1 || decoded.Features[0].ID != "bus-1" {
		t.Errorf("unexpected collection: %s", body)
	}
}

func TestGetBuses_UnknownGroup(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, "")

	resp, body := get(t, srv.URL+"/api/buses/nonsense")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unknown group, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"features":[]`) {
		t.Errorf("expected empty features array, got %s", body)
	}
}

func TestGetRoutes(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features,
		geojson.NewFeature("bus-1", map[string]interface{}{"type": "route"},
			geojson.LineString([][2]float64{{-74.0, 40.7}, {-74.0, 40.71}})),
		geojson.NewFeature("", map[string]interface{}{"type": "stop"},
			geojson.Point(-74.0, 40.72)))

	source := &fakeSource{routes: map[string]geojson.FeatureCollection{"primary": fc}}
	srv := newTestServer(t, source, "")

	resp, body := get(t, srv.URL+"/api/routes/primary")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var decoded struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(decoded.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(decoded.Features))
	}
	if decoded.Features[0].Properties["type"] != "route" || decoded.Features[1].Properties["type"] != "stop" {
		t.Errorf("expected type properties to distinguish features, got %s", body)
	}
}

func TestHealth(t *testing.T) {
	t.Run("before first snapshot", func(t *testing.T) {
		srv := newTestServer(t, &fakeSource{}, "")

		resp, body := get(t, srv.URL+"/api/health")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("expected 503 before first publish, got %d", resp.StatusCode)
		}
		if !strings.Contains(string(body), `"status":"starting"`) {
			t.Errorf("expected starting status, got %s", body)
		}
	})

	t.Run("after snapshot", func(t *testing.T) {
		source := &fakeSource{
			ready: true,
			status: tracker.Status{
				SnapshotID:  "abc-123",
				PolledAt:    time.Date(2025, time.March, 3, 13, 5, 0, 0, time.UTC),
				Vehicles:    map[string]int{"primary": 2, "sample": 5},
				CachedTrips: 40,
			},
		}
		srv := newTestServer(t, source, "")

		resp, body := get(t, srv.URL+"/api/health")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var health HealthResponse
		if err := json.Unmarshal(body, &health); err != nil {
			t.Fatalf("failed to decode health: %v", err)
		}
		if health.Status != "ok" || health.SnapshotID != "abc-123" {
			t.Errorf("unexpected health payload: %+v", health)
		}
		if health.Vehicles["primary"] != 2 || health.CachedTrips != 40 {
			t.Errorf("unexpected health counts: %+v", health)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, "")

	resp, body := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "tracker_poll_cycles_total") {
		t.Errorf("expected tracker metrics in exposition, got %.200s", body)
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>map</html>"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	srv := newTestServer(t, &fakeSource{}, dir)

	resp, body := get(t, srv.URL+"/index.html")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "map") {
		t.Errorf("unexpected static body %s", body)
	}
}
