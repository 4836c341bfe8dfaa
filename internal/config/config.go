package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the tracker service
type Config struct {
	// HTTP surface
	HTTPAddr       string
	AllowedOrigins []string
	StaticFilesDir string

	// Real-time feeds
	VehiclePositionsURL string
	TripUpdatesURL      string
	PollInterval        time.Duration
	FetchTimeout        time.Duration

	// Static schedule
	StaticDataDir    string
	FleetRegistry    string
	Timezone         string
	StaticMaxAgeDays int

	// Sample group selection
	SampleIDPattern  string
	SampleMatchCount int
	SampleOtherCount int

	// Optional NATS fan-out, disabled when empty
	NATSURL string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// HTTP surface
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "*"),
		StaticFilesDir: getEnv("STATIC_FILES_DIR", ""),

		// Real-time feeds
		VehiclePositionsURL: getEnv("VEHICLE_POSITIONS_URL", "https://gtfsrt.prod.obanyc.com/vehiclePositions"),
		TripUpdatesURL:      getEnv("TRIP_UPDATES_URL", "https://gtfsrt.prod.obanyc.com/tripUpdates"),
		PollInterval:        time.Duration(getEnvInt("POLL_INTERVAL", 5)) * time.Second,
		FetchTimeout:        time.Duration(getEnvInt("FETCH_TIMEOUT", 10)) * time.Second,

		// Static schedule
		StaticDataDir:    getEnv("STATIC_DATA_DIR", "./data"),
		FleetRegistry:    getEnv("FLEET_REGISTRY", "./data/fleet.json"),
		Timezone:         getEnv("TIMEZONE", "America/New_York"),
		StaticMaxAgeDays: getEnvInt("STATIC_MAX_AGE_DAYS", 14),

		// Sample group selection
		SampleIDPattern:  getEnv("SAMPLE_ID_PATTERN", "^[0-9]+$"),
		SampleMatchCount: getEnvInt("SAMPLE_MATCH_COUNT", 5),
		SampleOtherCount: getEnvInt("SAMPLE_OTHER_COUNT", 3),

		// Optional NATS fan-out
		NATSURL: getEnv("NATS_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
