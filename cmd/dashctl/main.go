// Command dashctl inspects and exports the forest/climate dataset without
// running the dashboard server.
//
// Usage:
//
//	dashctl report --climate data/climate_change_data.csv --forest data/goal15.forest_shares.csv
//	dashctl export --out brazil.xlsx --country Brazil --year 2010 --raw
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
