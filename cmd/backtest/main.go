// backtest scores a roadmap under two future-good thresholds and reports
// every row whose scarcity, bucket, or now-or-never flag would move.
package main

import (
	"flag"
	"log"

	"github.com/nflpicks/survivor-tools/internal/backtest"
	"github.com/nflpicks/survivor-tools/internal/roadmap"
	"github.com/nflpicks/survivor-tools/internal/spotvalue"
)

func main() {
	var (
		roadmapPath = flag.String("roadmap", "survivor_roadmap.csv", "roadmap CSV to score")
		threshA     = flag.Float64("t1", 0.55, "incumbent future-good threshold")
		threshB     = flag.Float64("t2", 0.65, "candidate future-good threshold")
		outPath     = flag.String("out", "threshold_ab.csv", "affected-row report CSV")
	)
	flag.Parse()

	t, err := roadmap.Load(*roadmapPath)
	if err != nil {
		log.Fatalf("load roadmap: %v", err)
	}
	if err := t.RequireEssential(); err != nil {
		log.Fatalf("%v", err)
	}

	rep, err := backtest.CompareThresholds(t, spotvalue.Default(), *threshA, *threshB)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}
	log.Printf("thresholds %.2f vs %.2f over %d rows: %d in band, %d affected, %d bucket moves, %d flag moves",
		rep.ThreshA, rep.ThreshB, rep.Rows, rep.BandRows, len(rep.Affected), rep.BucketMoves, rep.FlagMoves)

	if len(rep.Affected) == 0 {
		log.Printf("no rows move, skipping report")
		return
	}
	if err := rep.WriteCSV(*outPath); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("OK wrote %d affected rows to %s", len(rep.Affected), *outPath)
}
