// Command-line entry point for the CINRAD STD reader.
//
// Subcommands decode one basic-data file (plain or bzip2-compressed) and
// either print what was decoded or run spatial queries against it:
//
//	info     - header, site, task, and cut summary
//	value    - beam height and value at a lat/lon for one layer
//	profile  - height/value pairs for every layer covering a point
//	ppi      - one sweep layer as a JSON display grid
//	store    - persist the decoded volume (SQLite index, optional
//	           ClickHouse archive, Postgres catalog, NATS notification)
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"cinrad_std/internal/cinrad"
	"cinrad_std/internal/query"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "cinrad_std - CINRAD STD basic-data reader:")
	fmt.Fprintln(w, "  info     - print volume summary")
	fmt.Fprintln(w, "  value    - query value at a geographic point")
	fmt.Fprintln(w, "  profile  - query all layers at a geographic point")
	fmt.Fprintln(w, "  ppi      - extract one sweep layer as JSON")
	fmt.Fprintln(w, "  store    - persist decoded volume to storage backends")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cinrad_std info -file FILE")
	fmt.Fprintln(w, "  cinrad_std value -file FILE -lat LAT -lon LON -layer N [-moment dBZ]")
	fmt.Fprintln(w, "  cinrad_std profile -file FILE -lat LAT -lon LON [-moment dBZ]")
	fmt.Fprintln(w, "  cinrad_std ppi -file FILE -layer N [-moment dBZ] [-range METERS] [-output out.json]")
	fmt.Fprintln(w, "  cinrad_std store -file FILE -index volumes.db [-clickhouse] [-postgres] [-nats URL]")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "info":
		runInfo(os.Args[2:])
	case "value":
		runValue(os.Args[2:])
	case "profile":
		runProfile(os.Args[2:])
	case "ppi":
		runPPI(os.Args[2:])
	case "store":
		runStore(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

// mustDecode loads the volume or exits.
func mustDecode(path string) *cinrad.Volume {
	if path == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		os.Exit(2)
	}
	vol, err := cinrad.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode volume: %v\n", err)
		os.Exit(1)
	}
	return vol
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	file := fs.String("file", "", "STD basic-data file")
	_ = fs.Parse(args)

	vol := mustDecode(*file)

	fmt.Printf("File:      STD v%d.%d (generic type %d, product %d)\n",
		vol.Header.MajorVersion, vol.Header.MinorVersion,
		vol.Header.GenericType, vol.Header.ProductType)
	fmt.Printf("Site:      %s %s  (%.4f, %.4f)  antenna %d m\n",
		vol.Site.SiteCode, vol.Site.SiteName,
		vol.Site.Latitude, vol.Site.Longitude, vol.Site.AntennaHeight)
	fmt.Printf("Task:      %s  scan start %s  cuts %d\n",
		vol.Task.TaskName, vol.ScanStart().Format("2006-01-02 15:04:05"), vol.Task.CutNumber)

	for i, cut := range vol.Cuts {
		fmt.Printf("  cut %2d: elev %6.2f  log res %4d m  doppler res %4d m  max range %d m\n",
			i+1, cut.Elevation, cut.LogResolution, cut.DopplerResolution, cut.MaximumRange)
	}

	fmt.Printf("Moments:  ")
	for _, m := range vol.Moments() {
		fmt.Printf(" %s(%d radials)", m, vol.Radial[m].Len())
	}
	fmt.Println()
}

func parseMomentFlag(name string) cinrad.Moment {
	m, err := cinrad.ParseMoment(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unknown moment %q\n", name)
		os.Exit(2)
	}
	return m
}

func runValue(args []string) {
	fs := flag.NewFlagSet("value", flag.ExitOnError)
	file := fs.String("file", "", "STD basic-data file")
	lat := fs.Float64("lat", 0, "Latitude of the query point")
	lon := fs.Float64("lon", 0, "Longitude of the query point")
	layer := fs.Int("layer", 1, "Sweep layer id (1-based)")
	moment := fs.String("moment", "dBZ", "Moment name (dBZ, V, W, ZDR, ...)")
	_ = fs.Parse(args)

	vol := mustDecode(*file)
	eng := query.New(vol)

	height, value, err := eng.ValueAtLatLon(*lat, *lon, *layer, parseMomentFlag(*moment))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s layer %d at (%.4f, %.4f): value %.2f at %.0f m above ground\n",
		*moment, *layer, *lat, *lon, value, height)
}

func runProfile(args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	file := fs.String("file", "", "STD basic-data file")
	lat := fs.Float64("lat", 0, "Latitude of the query point")
	lon := fs.Float64("lon", 0, "Longitude of the query point")
	moment := fs.String("moment", "dBZ", "Moment name")
	_ = fs.Parse(args)

	vol := mustDecode(*file)
	eng := query.New(vol)

	heights, values, err := eng.Profile(*lat, *lon, parseMomentFlag(*moment))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s profile at (%.4f, %.4f):\n", *moment, *lat, *lon)
	for i := range heights {
		fmt.Printf("  %8.0f m: %7.2f\n", heights[i], values[i])
	}
}

func runPPI(args []string) {
	fs := flag.NewFlagSet("ppi", flag.ExitOnError)
	file := fs.String("file", "", "STD basic-data file")
	layer := fs.Int("layer", 1, "Sweep layer id (1-based)")
	moment := fs.String("moment", "dBZ", "Moment name")
	showRange := fs.Float64("range", 330000, "Display range in meters")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	_ = fs.Parse(args)

	vol := mustDecode(*file)
	eng := query.New(vol)

	slab, err := eng.PPISlab(*layer, *showRange, parseMomentFlag(*moment))
	if err != nil {
		fmt.Fprintf(os.Stderr, "PPI extraction failed: %v\n", err)
		os.Exit(1)
	}

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		wout = f
	}

	var enc []byte
	if *pretty {
		enc, err = json.MarshalIndent(slab, "", "  ")
	} else {
		enc, err = json.Marshal(slab)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}
	_, _ = wout.Write(enc)
	if wout == os.Stdout {
		_, _ = wout.Write([]byte("\n"))
	}
}
