package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/buswatch-live/tracker/internal/gtfs"
	"github.com/buswatch-live/tracker/internal/schedule"
)

func main() {
	// Command line flags
	source := flag.String("gtfs", "", "GTFS zip file: local path or http(s) URL")
	outDir := flag.String("out", "./data", "Directory to write the converted schedule tables")
	flag.Parse()

	if *source == "" {
		log.Fatal("Missing -gtfs flag: pass a GTFS zip path or URL")
	}

	zipPath := *source
	if strings.HasPrefix(*source, "http://") || strings.HasPrefix(*source, "https://") {
		tmpDir, err := os.MkdirTemp("", "gtfs-convert")
		if err != nil {
			log.Fatalf("Failed to create temp directory: %v", err)
		}
		defer os.RemoveAll(tmpDir)

		zipPath = filepath.Join(tmpDir, "gtfs.zip")
		log.Printf("Downloading %s...", *source)
		if err := gtfs.Download(*source, zipPath); err != nil {
			log.Fatalf("Failed to download GTFS feed: %v", err)
		}
	}

	log.Printf("Parsing %s...", zipPath)
	data, err := gtfs.Parse(zipPath)
	if err != nil {
		log.Fatalf("Failed to parse GTFS feed: %v", err)
	}
	log.Printf("Parsed: %d trips, %d stops, %d stop times, %d shapes, %d calendars, %d calendar dates",
		len(data.Trips), len(data.Stops), len(data.StopTimes), len(data.Shapes),
		len(data.Calendars), len(data.CalendarDates))

	if err := schedule.WriteTables(*outDir, data, *source); err != nil {
		log.Fatalf("Failed to write schedule tables: %v", err)
	}
	log.Printf("SUCCESS: schedule tables written to %s", *outDir)
}
