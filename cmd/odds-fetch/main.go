// odds-fetch pulls current NFL lines from The Odds API, writes a consensus
// snapshot CSV, and optionally refreshes win probabilities on a roadmap.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/nflpicks/survivor-tools/internal/odds"
	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

func main() {
	var (
		season      = flag.Int("season", time.Now().Year(), "season window to fetch")
		regions     = flag.String("regions", "us", "bookmaker regions")
		outPath     = flag.String("out", "nfl_odds.csv", "consensus snapshot CSV")
		roadmapPath = flag.String("roadmap", "", "roadmap to update in place (optional)")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	key, err := odds.ResolveAPIKey(ctx)
	if err != nil {
		log.Fatalf("api key: %v", err)
	}

	games, err := odds.NewClient(key).FetchSeason(ctx, *season, *regions)
	if err != nil {
		log.Fatalf("fetch odds: %v", err)
	}
	if err := odds.WriteCSV(*outPath, games); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("OK wrote %d games to %s", len(games), *outPath)

	if *roadmapPath == "" {
		return
	}
	t, err := roadmap.Load(*roadmapPath)
	if err != nil {
		log.Fatalf("load roadmap: %v", err)
	}
	n := odds.MergeWinProbs(t, games)
	if n == 0 {
		log.Printf("no roadmap rows matched current odds, leaving %s untouched", *roadmapPath)
		return
	}
	if _, err := roadmap.Snapshot(*roadmapPath, "preodds"); err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	if err := t.SaveAtomic(*roadmapPath); err != nil {
		log.Fatalf("write %s: %v", *roadmapPath, err)
	}
	log.Printf("OK updated %d rows in %s", n, *roadmapPath)
}
