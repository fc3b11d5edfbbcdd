// dvoa-fetch scrapes the latest team DVOA ratings and appends them to the
// local timeseries CSV that roadmap-build reads trends from.
package main

import (
	"flag"
	"log"

	"github.com/nflpicks/survivor-tools/internal/dvoa"
)

func main() {
	var (
		url     = flag.String("url", "", "ratings page override (default from DVOA_URL or the built-in page)")
		outPath = flag.String("out", "dvoa_timeseries.csv", "timeseries CSV to append to")
	)
	flag.Parse()

	snaps, err := dvoa.FetchLatest(*url)
	if err != nil {
		log.Fatalf("fetch dvoa: %v", err)
	}
	if err := dvoa.AppendTimeseries(*outPath, snaps); err != nil {
		log.Fatalf("append %s: %v", *outPath, err)
	}
	log.Printf("OK appended %d team snapshots to %s", len(snaps), *outPath)
}
