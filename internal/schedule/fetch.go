package schedule

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nflpicks/survivor-tools/internal/teams"
)

const ua = "Mozilla/5.0 (compatible; SurvivorScheduleBot/1.0; +https://example.com/bot)"

var httpCli = &http.Client{Timeout: 30 * time.Second}

// Game is one schedule line in wide form, exactly one row per matchup.
type Game struct {
	Week    int
	Date    string // as printed on the page; parsed lazily downstream
	Time    string
	Visitor string
	Home    string
}

// fetch with UA + Accept-Language, retries on 429/5xx with jittered backoff
func getTextWithRetry(ctx context.Context, url string) (string, error) {
	maxAttempts := 4
	base := 250 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		resp, err := httpCli.Do(req)
		if err != nil {
			if attempt == maxAttempts-1 {
				return "", err
			}
		} else {
			body, e := io.ReadAll(resp.Body)
			status := resp.StatusCode
			resp.Body.Close()
			if status == 200 && e == nil {
				return string(body), nil
			}
			// retry only on 429/5xx
			if status != 429 && (status < 500 || status > 599) {
				return "", fmt.Errorf("status %d for %s", status, url)
			}
		}
		sleep := base*time.Duration(1<<attempt) + time.Duration(rand.Intn(200))*time.Millisecond
		time.Sleep(sleep)
	}
	return "", fmt.Errorf("exhausted retries for %s", url)
}

type gamesHeaderMap struct {
	idxWeek int
	idxDate int
	idxTime int
	idxVis  int
	idxHome int
}

func normHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	return s
}

func mapGamesHeader(table *goquery.Selection) (gamesHeaderMap, bool) {
	h := gamesHeaderMap{-1, -1, -1, -1, -1}
	thead := table.Find("thead tr").Last()
	if thead.Length() == 0 {
		return h, false
	}
	thead.Find("th,td").Each(func(i int, cell *goquery.Selection) {
		switch normHeader(cell.Text()) {
		case "week":
			h.idxWeek = i
		case "date":
			h.idxDate = i
		case "time":
			h.idxTime = i
		case "vistm", "visitor", "away":
			h.idxVis = i
		case "hometm", "home":
			h.idxHome = i
		}
	})
	ok := h.idxWeek >= 0 && h.idxVis >= 0 && h.idxHome >= 0
	return h, ok
}

// FetchSeasonGames scrapes the season schedule page and returns one Game per
// matchup, regular season only (numeric week rows).
func FetchSeasonGames(ctx context.Context, season int) ([]Game, error) {
	debug := os.Getenv("DEBUG") == "1"
	url := fmt.Sprintf("https://www.pro-football-reference.com/years/%d/games.htm", season)
	if debug {
		log.Printf("DEBUG schedule: GET %s", url)
	}
	html, err := getTextWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule %d: %w", season, err)
	}
	// tables are sometimes shipped inside HTML comments
	clean := strings.ReplaceAll(html, "<!--", "")
	clean = strings.ReplaceAll(clean, "-->", "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("parse schedule %d: %w", season, err)
	}

	table := doc.Find("table#games").First()
	if table.Length() == 0 {
		doc.Find("table").EachWithBreak(func(_ int, cand *goquery.Selection) bool {
			if _, ok := mapGamesHeader(cand); ok {
				table = cand
				return false
			}
			return true
		})
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("no schedule table on %s", url)
	}

	hdr, ok := mapGamesHeader(table)
	if !ok {
		// header text mapping failed; fall back to data-stat attributes
		return fetchByDataStat(table, debug)
	}

	var out []Game
	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}
	rows.Each(func(_ int, tr *goquery.Selection) {
		if strings.Contains(tr.AttrOr("class", ""), "thead") {
			return
		}
		cells := tr.Find("th,td")
		get := func(idx int) string {
			if idx < 0 || idx >= cells.Length() {
				return ""
			}
			return strings.TrimSpace(cells.Eq(idx).Text())
		}
		week, err := strconv.Atoi(get(hdr.idxWeek))
		if err != nil {
			return // playoff/header rows
		}
		vis := teams.Norm(get(hdr.idxVis))
		home := teams.Norm(get(hdr.idxHome))
		if !teams.Known(vis) || !teams.Known(home) {
			if debug {
				log.Printf("DEBUG schedule: skipping row with teams %q/%q", vis, home)
			}
			return
		}
		out = append(out, Game{
			Week:    week,
			Date:    get(hdr.idxDate),
			Time:    get(hdr.idxTime),
			Visitor: vis,
			Home:    home,
		})
	})
	if debug {
		log.Printf("DEBUG schedule: parsed %d games for %d", len(out), season)
	}
	return out, nil
}

func fetchByDataStat(table *goquery.Selection, debug bool) ([]Game, error) {
	var out []Game
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		stat := func(names ...string) string {
			for _, n := range names {
				sel := tr.Find(fmt.Sprintf(`[data-stat=%q]`, n))
				if sel.Length() > 0 {
					return strings.TrimSpace(sel.First().Text())
				}
			}
			return ""
		}
		week, err := strconv.Atoi(stat("week_num"))
		if err != nil {
			return
		}
		vis := teams.Norm(stat("visitor_team", "away_team"))
		home := teams.Norm(stat("home_team"))
		if !teams.Known(vis) || !teams.Known(home) {
			return
		}
		out = append(out, Game{
			Week:    week,
			Date:    stat("game_date", "boxscore_word"),
			Time:    stat("gametime"),
			Visitor: vis,
			Home:    home,
		})
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("schedule table had no parseable rows")
	}
	if debug {
		log.Printf("DEBUG schedule: parsed %d games via data-stat fallback", len(out))
	}
	return out, nil
}
