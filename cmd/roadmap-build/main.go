// roadmap-build turns a cleaned schedule CSV into the long survivor roadmap:
// one row per team-game plus BYE rows, with rest days, holiday flags, odds,
// and DVOA trends folded in. Planner columns from an existing roadmap carry
// over by (week, team, opponent) key.
package main

import (
	"flag"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/nflpicks/survivor-tools/internal/dvoa"
	"github.com/nflpicks/survivor-tools/internal/odds"
	"github.com/nflpicks/survivor-tools/internal/roadmap"
	"github.com/nflpicks/survivor-tools/internal/schedule"
)

func main() {
	var (
		gamesPath = flag.String("games", "nfl_schedule.csv", "cleaned schedule CSV (week,date,time,vistm,hometm)")
		season    = flag.Int("season", 2025, "season year, sets the holiday calendar")
		maxWeek   = flag.Int("max-week", 18, "fill BYE rows up to this week")
		oddsPath  = flag.String("odds", "", "consensus odds snapshot CSV (optional)")
		dvoaPath  = flag.String("dvoa", "", "DVOA timeseries CSV (optional)")
		prevPath  = flag.String("roadmap", "", "existing roadmap whose planner columns carry over (optional)")
		outPath   = flag.String("out", "survivor_roadmap.csv", "output roadmap CSV")
	)
	flag.Parse()

	games, err := schedule.LoadGamesCSV(*gamesPath)
	if err != nil {
		log.Fatalf("load schedule: %v", err)
	}
	t := schedule.Build(games, *season, *maxWeek)
	log.Printf("expanded %d games into %d team rows", len(games), len(t.Rows))

	if *prevPath != "" {
		carryOver(t, *prevPath)
	}

	if *oddsPath != "" {
		lines, err := odds.LoadCSV(*oddsPath)
		if err != nil {
			log.Fatalf("load odds: %v", err)
		}
		n := odds.MergeWinProbs(t, lines)
		log.Printf("odds: %d lines, %d roadmap rows updated", len(lines), n)
	}
	coalesceWinProbs(t)

	if *dvoaPath != "" {
		snaps, err := dvoa.LoadSnapshots(*dvoaPath)
		if err != nil {
			log.Fatalf("load dvoa: %v", err)
		}
		missing := dvoa.MergeInto(t, dvoa.ComputeTrends(snaps))
		log.Printf("dvoa: %d snapshots merged, %d rows without a trend", len(snaps), missing)
	}

	if err := t.SaveAtomic(*outPath); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("OK wrote %d rows to %s", len(t.Rows), *outPath)
}

// carryOver copies planner columns and hand-entered inputs from the previous
// roadmap onto matching rows.
func carryOver(t *roadmap.Table, prevPath string) {
	prev, err := roadmap.Load(prevPath)
	if err != nil {
		log.Fatalf("load previous roadmap: %v", err)
	}
	byKey := make(map[roadmap.Key]*roadmap.Row, len(prev.Rows))
	for i := range prev.Rows {
		byKey[prev.Rows[i].Key()] = &prev.Rows[i]
	}
	for _, col := range prev.ExtraColumns() {
		t.AddExtraColumn(col)
	}

	carried := 0
	for i := range t.Rows {
		r := &t.Rows[i]
		p, ok := byKey[r.Key()]
		if !ok {
			continue
		}
		r.ProjWinProb = p.ProjWinProb
		r.RatingGap = p.RatingGap
		r.InjuryAdj = p.InjuryAdj
		r.TeamTotDVOA = p.TeamTotDVOA
		r.OppTotDVOA = p.OppTotDVOA
		if len(p.Extra) > 0 {
			if r.Extra == nil {
				r.Extra = map[string]string{}
			}
			for k, v := range p.Extra {
				r.Extra[k] = v
			}
		}
		carried++
	}
	log.Printf("carried planner columns for %d rows from %s", carried, prevPath)
	if dropped := len(prev.Rows) - carried; dropped > 0 && os.Getenv("DEBUG") == "1" {
		log.Printf("DEBUG carryover: %d previous rows had no match in the new schedule", dropped)
	}
}

// coalesceWinProbs fills projected_win_prob from the moneyline when the
// implied probability is absent, then defaults the rest to a coin flip.
func coalesceWinProbs(t *roadmap.Table) {
	fromML, defaulted := 0, 0
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.IsBye() || !math.IsNaN(r.ProjWinProb) {
			continue
		}
		if ml := r.Extra["current_moneyline"]; ml != "" {
			if p := odds.AmericanToProb(parseML(ml)); !math.IsNaN(p) {
				r.ProjWinProb = p
				fromML++
				continue
			}
		}
		r.ProjWinProb = 0.5
		defaulted++
	}
	if fromML > 0 || defaulted > 0 {
		log.Printf("win prob coalesce: %d from moneyline, %d defaulted to 0.50", fromML, defaulted)
	}
}

func parseML(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
