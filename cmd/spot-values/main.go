// spot-values scores a survivor roadmap CSV in place: component scores,
// future scarcity, holiday highlights, and the final High/Medium/Low bucket.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
	"github.com/nflpicks/survivor-tools/internal/spotvalue"
)

func main() {
	var (
		roadmapPath = flag.String("roadmap", "survivor_roadmap.csv", "roadmap CSV to score")
		weeks       = flag.String("week", "all", "weeks to rescore: N, N,M, N-M, or all")
		outPath     = flag.String("out", "", "write here instead of back to --roadmap")
		dryRun      = flag.Bool("dry-run", false, "write a preview copy, leave the canonical file untouched")
	)
	flag.Parse()

	weekList, err := roadmap.ParseWeeks(*weeks)
	if err != nil {
		log.Fatalf("bad --week: %v", err)
	}

	base, err := roadmap.Load(*roadmapPath)
	if err != nil {
		log.Fatalf("load roadmap: %v", err)
	}
	if err := base.RequireEssential(); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("loaded %s: %d rows, %d passthrough columns",
		*roadmapPath, len(base.Rows), len(base.ExtraColumns()))

	scored := roadmap.New(append([]roadmap.Row{}, base.Rows...))
	if err := spotvalue.Apply(scored, spotvalue.Default()); err != nil {
		log.Fatalf("score: %v", err)
	}

	// scarcity looks across all weeks, so the whole season is always scored;
	// a week filter only controls which rows get written back
	roadmap.MergeWeeks(base, scored, weekList)
	if weekList != nil {
		log.Printf("merged weeks %s back into the existing roadmap", *weeks)
	}
	logSummary(base)

	dest := *roadmapPath
	if *outPath != "" {
		dest = *outPath
	}
	if *dryRun {
		dest = previewPath(dest)
		log.Printf("dry run: writing preview to %s", dest)
	} else if dest == *roadmapPath {
		snap, err := roadmap.Snapshot(*roadmapPath, "prescore")
		if err != nil {
			log.Fatalf("snapshot: %v", err)
		}
		log.Printf("snapshot: %s", snap)
	}
	if err := base.SaveAtomic(dest); err != nil {
		log.Fatalf("write %s: %v", dest, err)
	}
	log.Printf("OK wrote %d rows to %s", len(base.Rows), dest)
}

func previewPath(path string) string {
	if i := strings.LastIndex(path, "."); i > 0 {
		return path[:i] + "_preview" + path[i:]
	}
	return path + "_preview"
}

func logSummary(t *roadmap.Table) {
	counts := map[string]int{}
	flags := 0
	for _, r := range t.Rows {
		if r.IsBye() {
			continue
		}
		counts[r.SpotValue]++
		if r.NowOrNever {
			flags++
		}
	}
	log.Printf("buckets: High=%d Medium=%d Low=%d, now-or-never flags=%d",
		counts["High"], counts["Medium"], counts["Low"], flags)
	if os.Getenv("DEBUG") == "1" {
		for _, r := range t.Rows {
			if r.SpotValue == "High" {
				fmt.Printf("DEBUG high: wk%d %s vs %s score=%.3f\n", r.Week, r.Team, r.Opponent, r.SpotValueScore)
			}
		}
	}
}
