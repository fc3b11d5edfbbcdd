package schedule

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
	"github.com/nflpicks/survivor-tools/internal/teams"
)

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// thanksgiving returns the 4th Thursday of November.
func thanksgiving(year int) time.Time {
	d := time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Thursday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+21)
}

// ExpandLong turns the wide schedule (one row per game) into the long roadmap
// form: one row per team per game, with home_or_away set.
func ExpandLong(games []Game) []roadmap.Row {
	rows := make([]roadmap.Row, 0, 2*len(games))
	for _, g := range games {
		home := roadmap.NewRow()
		home.Week = g.Week
		home.Date = g.Date
		home.Time = g.Time
		home.Team = g.Home
		home.Opponent = g.Visitor
		home.HomeOrAway = "Home"

		away := roadmap.NewRow()
		away.Week = g.Week
		away.Date = g.Date
		away.Time = g.Time
		away.Team = g.Visitor
		away.Opponent = g.Home
		away.HomeOrAway = "Away"

		rows = append(rows, home, away)
	}
	return rows
}

// ComputeRestDays fills rest_days per team from game dates: days since the
// team's previous game, 6 when the date chain is broken or it is the opener.
func ComputeRestDays(rows []roadmap.Row) {
	byTeam := make(map[string][]int)
	for i := range rows {
		byTeam[rows[i].Team] = append(byTeam[rows[i].Team], i)
	}
	for _, idxs := range byTeam {
		sort.SliceStable(idxs, func(a, b int) bool {
			return rows[idxs[a]].Week < rows[idxs[b]].Week
		})
		var prev time.Time
		var havePrev bool
		for _, i := range idxs {
			r := &rows[i]
			if r.IsBye() {
				continue
			}
			d, ok := parseDate(r.Date)
			if ok && havePrev {
				r.RestDays = math.Max(math.Round(d.Sub(prev).Hours()/24), 0)
			} else {
				r.RestDays = 6
			}
			if ok {
				prev, havePrev = d, true
			}
		}
	}
}

// AddByeRows synthesizes a no-game row for every (team, week) the schedule
// skips, so every team shows the full 1..maxWeek ladder in the roadmap.
func AddByeRows(rows []roadmap.Row, maxWeek int) []roadmap.Row {
	played := make(map[string]map[int]bool)
	for i := range rows {
		t := rows[i].Team
		if played[t] == nil {
			played[t] = make(map[int]bool)
		}
		played[t][rows[i].Week] = true
	}
	for _, team := range teams.Abbrs {
		weeks := played[team]
		if weeks == nil {
			continue // team absent from this schedule entirely
		}
		for w := 1; w <= maxWeek; w++ {
			if !weeks[w] {
				bye := roadmap.NewRow()
				bye.Week = w
				bye.Team = team
				bye.Opponent = "BYE"
				rows = append(rows, bye)
			}
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Week != rows[b].Week {
			return rows[a].Week < rows[b].Week
		}
		return rows[a].Team < rows[b].Team
	})
	return rows
}

// FlagHolidays sets the fixed-date flags from real calendar dates:
// Thanksgiving (4th Thursday of November), the Friday after it, and
// December 25th. It then marks teams that play in both the Thanksgiving
// window and a Christmas game with plays_both_tg_xmas.
func FlagHolidays(rows []roadmap.Row, season int) {
	tg := thanksgiving(season)
	bf := tg.AddDate(0, 0, 1)

	type windows struct{ tgWindow, xmas bool }
	perTeam := make(map[string]*windows)

	for i := range rows {
		r := &rows[i]
		d, ok := parseDate(r.Date)
		if !ok {
			continue
		}
		r.IsThanksgiving = d.Equal(tg)
		r.IsBlackFriday = d.Equal(bf)
		r.IsChristmas = d.Month() == time.December && d.Day() == 25

		w := perTeam[r.Team]
		if w == nil {
			w = &windows{}
			perTeam[r.Team] = w
		}
		w.tgWindow = w.tgWindow || r.IsThanksgiving || r.IsBlackFriday
		w.xmas = w.xmas || r.IsChristmas
	}
	for i := range rows {
		if w := perTeam[rows[i].Team]; w != nil {
			rows[i].PlaysBothTGXmas = w.tgWindow && w.xmas
		}
	}
}

// Build runs the full expansion: long rows, rest days, BYE fill, holiday
// flags; output is a scoreable roadmap skeleton (win probs still missing).
func Build(games []Game, season, maxWeek int) *roadmap.Table {
	rows := ExpandLong(games)
	ComputeRestDays(rows)
	rows = AddByeRows(rows, maxWeek)
	FlagHolidays(rows, season)
	return roadmap.New(rows)
}

/* ---------- cleaned-schedule CSV (wide form) ---------- */

// WriteGamesCSV persists the wide schedule the way downstream tools expect
// it: week, date, time, vistm, hometm.
func WriteGamesCSV(w io.Writer, games []Game) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"week", "date", "time", "vistm", "hometm"}); err != nil {
		return err
	}
	for _, g := range games {
		rec := []string{strconv.Itoa(g.Week), g.Date, g.Time, g.Visitor, g.Home}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadGamesCSV reads a cleaned wide schedule produced by WriteGamesCSV (or
// hand-maintained in the same shape).
func LoadGamesCSV(path string) ([]Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule %s: %w", path, err)
	}
	defer f.Close()
	return readGames(f)
}

func readGames(r io.Reader) ([]Game, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read schedule header: %w", err)
	}
	idx := func(names ...string) int {
		for i, h := range header {
			for _, n := range names {
				if strings.EqualFold(strings.TrimSpace(h), n) {
					return i
				}
			}
		}
		return -1
	}
	iWeek := idx("week", "wk")
	iDate := idx("date")
	iTime := idx("time")
	iVis := idx("vistm", "visitor", "away_team", "away")
	iHome := idx("hometm", "home_team", "home")
	if iWeek < 0 || iVis < 0 || iHome < 0 {
		return nil, fmt.Errorf("schedule CSV needs week, vistm, hometm columns")
	}

	var out []Game
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read schedule row: %w", err)
		}
		get := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		week, err := strconv.Atoi(get(iWeek))
		if err != nil {
			continue // skip non-regular-season rows
		}
		vis := teams.Norm(get(iVis))
		home := teams.Norm(get(iHome))
		if !teams.Known(vis) || !teams.Known(home) {
			continue
		}
		out = append(out, Game{Week: week, Date: get(iDate), Time: get(iTime), Visitor: vis, Home: home})
	}
	return out, nil
}
