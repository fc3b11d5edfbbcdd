// pick-log records, settles, and lists survivor picks in DynamoDB.
//
//	pick-log -table picks log -entry main -season 2025 -week 5 -team KC -opponent LV
//	pick-log -table picks settle -entry main -season 2025 -week 5 -result win
//	pick-log -table picks list -entry main -season 2025
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
	"github.com/nflpicks/survivor-tools/internal/store"
	"github.com/nflpicks/survivor-tools/internal/teams"
)

func main() {
	var (
		table       = flag.String("table", "survivor_picks", "DynamoDB table")
		entry       = flag.String("entry", "main", "pool entry name")
		season      = flag.String("season", fmt.Sprint(time.Now().Year()), "season")
		week        = flag.Int("week", 0, "week number")
		team        = flag.String("team", "", "picked team")
		opponent    = flag.String("opponent", "", "opponent")
		result      = flag.String("result", "", "win or loss (settle)")
		roadmapPath = flag.String("roadmap", "", "scored roadmap, stamps the pick's spot value (optional)")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: pick-log [flags] log|settle|list")
	}
	cmd := strings.ToLower(flag.Arg(0))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	ddbc := ddb.NewFromConfig(cfg)

	switch cmd {
	case "log":
		doLog(ctx, ddbc, *table, *entry, *season, *week, *team, *opponent, *roadmapPath)
	case "settle":
		if err := store.RecordResult(ctx, ddbc, *table, *entry, *season, *week, *result); err != nil {
			log.Fatalf("settle: %v", err)
		}
		log.Printf("OK week %d settled as %s", *week, strings.ToLower(*result))
	case "list":
		doList(ctx, ddbc, *table, *entry, *season)
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func doLog(ctx context.Context, ddbc store.DynamoDBAPI, table, entry, season string, week int, team, opponent, roadmapPath string) {
	if week < 1 || team == "" {
		log.Fatalf("log needs -week and -team")
	}
	pick := store.Pick{
		Entry:    entry,
		Season:   season,
		Week:     week,
		Team:     teams.Norm(team),
		Opponent: teams.Norm(opponent),
	}
	if !teams.Known(pick.Team) {
		log.Fatalf("unknown team %q", team)
	}

	used, err := store.UsedTeams(ctx, ddbc, table, entry, season)
	if err != nil {
		log.Fatalf("check used teams: %v", err)
	}
	if used[pick.Team] {
		log.Fatalf("%s was already burned this season", pick.Team)
	}

	if roadmapPath != "" {
		if t, err := roadmap.Load(roadmapPath); err != nil {
			log.Printf("WARN roadmap not readable, pick logged without spot value: %v", err)
		} else {
			for _, r := range t.Rows {
				if r.Week == week && r.Team == pick.Team {
					pick.SpotValue = r.SpotValueScore
					if pick.Opponent == "" {
						pick.Opponent = r.Opponent
					}
					break
				}
			}
		}
	}

	if err := store.PutPicks(ctx, ddbc, table, []store.Pick{pick}); err != nil {
		log.Fatalf("log pick: %v", err)
	}
	log.Printf("OK logged week %d: %s over %s", week, pick.Team, pick.Opponent)
}

func doList(ctx context.Context, ddbc store.DynamoDBAPI, table, entry, season string) {
	picks, err := store.ListPicks(ctx, ddbc, table, entry, season)
	if err != nil {
		log.Fatalf("list picks: %v", err)
	}
	w := 0
	for _, p := range picks {
		fmt.Printf("wk%-3d %-4s vs %-4s %-7s", p.Week, p.Team, p.Opponent, p.Result)
		if p.SpotValue > 0 {
			fmt.Printf(" sv=%.3f", p.SpotValue)
		}
		fmt.Println()
		if p.Result == "win" {
			w++
		}
	}
	fmt.Fprintf(os.Stdout, "%d picks, %d wins\n", len(picks), w)
}
