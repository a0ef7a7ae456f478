package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shandianxiao218/fly-cline/core"
	"github.com/shandianxiao218/fly-cline/ephemeris"
	"github.com/shandianxiao218/fly-cline/model"
	"github.com/shandianxiao218/fly-cline/trajectory"
)

// epochReport is one line of the batch output.
type epochReport struct {
	Time     time.Time                `json:"time"`
	Aircraft model.GeodeticPosition   `json:"aircraft"`
	Results  []model.VisibilityResult `json:"results"`
}

func main() {
	ephemerisPath := flag.String("ephemeris", "", "RINEX navigation file with broadcast ephemerides")
	catalogPath := flag.String("catalog", "configs/satellites.json", "satellite catalog JSON")
	trackPath := flag.String("track", "", "aircraft trajectory JSON; overrides the fixed position flags")
	lon := flag.Float64("lon", 116.4, "aircraft longitude, degrees")
	lat := flag.Float64("lat", 39.9, "aircraft latitude, degrees")
	alt := flag.Float64("alt", 10000, "aircraft altitude, metres")
	startFlag := flag.String("start", "", "first epoch, RFC 3339; defaults to the track start or now")
	endFlag := flag.String("end", "", "last epoch, RFC 3339; defaults to the track end or start")
	step := flag.Duration("step", 30*time.Second, "epoch step")
	workers := flag.Int("workers", 8, "parallel satellite evaluations per epoch")
	flag.Parse()

	store := ephemeris.NewStore()
	if *ephemerisPath != "" {
		loadNav(store, *ephemerisPath)
	}
	catalog := loadCatalog(store, *catalogPath)
	if len(catalog) == 0 {
		fatalf("catalog %q has no satellites", *catalogPath)
	}
	queries := ephemeris.Queries(catalog)

	var track *trajectory.Track
	if *trackPath != "" {
		track = loadTrack(*trackPath)
	}

	start, end := resolveSpan(track, *startFlag, *endFlag)
	if end.Before(start) {
		fatalf("end %s precedes start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	engine := core.NewEngine(store)
	engine.Workers = *workers

	enc := json.NewEncoder(os.Stdout)
	ctx := context.Background()
	for epoch := start; !epoch.After(end); epoch = epoch.Add(*step) {
		state := model.AircraftState{
			Time:     epoch,
			Position: model.GeodeticPosition{LonDeg: *lon, LatDeg: *lat, AltM: *alt},
		}
		if track != nil {
			var err error
			state, err = track.StateAt(epoch)
			if err != nil {
				fatalf("aircraft state at %s: %v", epoch.Format(time.RFC3339), err)
			}
		}

		results, err := engine.ComputeVisibility(ctx, epoch, state, queries)
		if err != nil {
			fatalf("visibility at %s: %v", epoch.Format(time.RFC3339), err)
		}
		if err := enc.Encode(epochReport{Time: epoch, Aircraft: state.Position, Results: results}); err != nil {
			fatalf("write report: %v", err)
		}
	}
}

// resolveSpan picks the evaluation interval: explicit flags win, then the
// track span, then a single epoch at the current time.
func resolveSpan(track *trajectory.Track, startFlag, endFlag string) (time.Time, time.Time) {
	var start, end time.Time
	if track != nil {
		start, end = track.Span()
	} else {
		start = time.Now().UTC().Truncate(time.Second)
		end = start
	}

	if startFlag != "" {
		t, err := time.Parse(time.RFC3339, startFlag)
		if err != nil {
			fatalf("parse -start: %v", err)
		}
		start = t
	}
	if endFlag != "" {
		t, err := time.Parse(time.RFC3339, endFlag)
		if err != nil {
			fatalf("parse -end: %v", err)
		}
		end = t
	} else if startFlag != "" && track == nil {
		end = start
	}
	return start, end
}

func loadNav(store *ephemeris.Store, path string) {
	f, err := os.Open(path)
	if err != nil {
		fatalf("open ephemeris: %v", err)
	}
	defer f.Close()

	summary, err := ephemeris.LoadNavigationFile(store, f)
	if err != nil {
		fatalf("parse ephemeris %q: %v", path, err)
	}
	fmt.Fprintf(os.Stderr, "loaded %d satellites from %s (%d records skipped)\n",
		len(summary.SatelliteIDs), path, summary.Skipped)
}

func loadCatalog(store *ephemeris.Store, path string) []model.Satellite {
	f, err := os.Open(path)
	if err != nil {
		fatalf("open catalog: %v", err)
	}
	defer f.Close()

	catalog, err := ephemeris.LoadCatalog(store, f)
	if err != nil {
		fatalf("parse catalog %q: %v", path, err)
	}
	return catalog
}

func loadTrack(path string) *trajectory.Track {
	f, err := os.Open(path)
	if err != nil {
		fatalf("open trajectory: %v", err)
	}
	defer f.Close()

	track, err := trajectory.LoadTrack(f)
	if err != nil {
		fatalf("parse trajectory %q: %v", path, err)
	}
	return track
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
