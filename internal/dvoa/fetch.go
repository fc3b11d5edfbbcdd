package dvoa

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/nflpicks/survivor-tools/internal/teams"
)

// DefaultRatingsURL can be overridden with the DVOA_URL env var when the
// ratings table moves.
const DefaultRatingsURL = "https://www.ftnfantasy.com/dvoa/nfl/team-total-dvoa"

// FetchLatest scrapes the current total-DVOA table and returns one snapshot
// per team, stamped with today's date. The table is located by shape: the
// first data table whose rows lead with a recognizable team code.
func FetchLatest(url string) ([]Snapshot, error) {
	if url == "" {
		url = strings.TrimSpace(os.Getenv("DVOA_URL"))
	}
	if url == "" {
		url = DefaultRatingsURL
	}
	debug := os.Getenv("DEBUG") == "1"
	today := time.Now().Format("2006-01-02")

	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (compatible; SurvivorDVOABot/1.0; +https://example.com/bot)"),
	)
	c.SetRequestTimeout(30 * time.Second)

	seen := make(map[string]bool, 32)
	var out []Snapshot

	c.OnHTML("table tbody tr", func(e *colly.HTMLElement) {
		cells := e.ChildTexts("td, th")
		if len(cells) < 2 {
			return
		}
		var team string
		var pct float64
		var havePct bool
		for _, cell := range cells {
			cell = strings.TrimSpace(cell)
			if team == "" && teams.Known(cell) {
				team = teams.Norm(cell)
				continue
			}
			if team != "" && !havePct {
				raw := strings.TrimSuffix(cell, "%")
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					pct, havePct = v, true
					break
				}
			}
		}
		if team == "" || !havePct || seen[team] {
			return
		}
		seen[team] = true
		out = append(out, Snapshot{Team: team, TotDVOAPct: pct, SnapshotDate: today})
	})
	c.OnError(func(r *colly.Response, err error) {
		if debug {
			log.Printf("DEBUG dvoa: fetch %s failed: %v", r.Request.URL, err)
		}
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("fetch dvoa table %s: %w", url, err)
	}
	c.Wait()

	if len(out) < 16 {
		return nil, fmt.Errorf("dvoa table at %s yielded only %d teams", url, len(out))
	}
	if debug {
		log.Printf("DEBUG dvoa: scraped %d team ratings", len(out))
	}
	return out, nil
}

// AppendTimeseries adds today's snapshots to the season time-series CSV,
// creating it with a header when absent.
func AppendTimeseries(path string, snaps []Snapshot) error {
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open timeseries %s: %w", path, err)
	}
	defer f.Close()
	if os.IsNotExist(statErr) {
		if _, err := f.WriteString("TEAM,TOT_DVOA_PCT,SNAPSHOT_DATE\n"); err != nil {
			return err
		}
	}
	for _, s := range snaps {
		line := fmt.Sprintf("%s,%s,%s\n", s.Team, strconv.FormatFloat(s.TotDVOAPct, 'f', -1, 64), s.SnapshotDate)
		if _, err := f.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}
