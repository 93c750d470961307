// Command osmfilter scans an OSM file and prints the elements that match
// every given filter.
//
// Usage:
//
//	osmfilter berlin-latest.osm.pbf -t amenity=cafe -l 52.52,13.40,500
//
// Settings are read from flags, then OSMFILTER_* environment variables, then
// config.yaml in the working directory or $HOME/.osmfilter.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
