// Package main provides the radar-api server: a REST API over one decoded
// CINRAD STD volume file.
//
// The file is decoded once at startup; every endpoint afterwards is a
// read-only query against the immutable in-memory volume.
//
// Usage:
//
//	radar-api -file Z_RADR_I_Z9xxx_..._STD.bin[.bz2] [-port N]
//
// API Endpoints:
//
//	GET /api/v1/health
//	    Health check endpoint.
//
//	GET /api/v1/volume
//	    Site, task, and moment inventory of the loaded volume.
//
//	GET /api/v1/value?lat=..&lon=..&layer=N&moment=dBZ
//	    Beam height and measured value at a geographic point.
//
//	GET /api/v1/profile?lat=..&lon=..&moment=dBZ
//	    Height/value pairs for every sweep layer covering the point.
//
//	GET /api/v1/ppi/{layer}?moment=dBZ&range=330000
//	    One sweep layer as a display grid with polar axes.
package main

import (
	"flag"
	"fmt"
	"os"

	"cinrad_std/internal/api"
	"cinrad_std/internal/cinrad"
	"cinrad_std/internal/query"
)

func main() {
	file := flag.String("file", "", "STD basic-data file (plain or .bz2)")
	port := flag.Int("port", 8081, "HTTP port for API server")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "radar-api: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	vol, err := cinrad.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode volume: %v\n", err)
		os.Exit(1)
	}

	server := api.NewServer(query.New(vol), *port)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
