// schedule-fetch scrapes the season schedule from pro-football-reference
// and writes the cleaned games CSV that roadmap-build consumes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/nflpicks/survivor-tools/internal/schedule"
)

func main() {
	var (
		season  = flag.Int("season", time.Now().Year(), "season year to fetch")
		outPath = flag.String("out", "nfl_schedule.csv", "output games CSV")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	games, err := schedule.FetchSeasonGames(ctx, *season)
	if err != nil {
		log.Fatalf("fetch %d schedule: %v", *season, err)
	}
	if len(games) == 0 {
		log.Fatalf("no regular-season games parsed for %d", *season)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create %s: %v", *outPath, err)
	}
	defer f.Close()
	if err := schedule.WriteGamesCSV(f, games); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("OK wrote %d games to %s", len(games), *outPath)
}
