package odds

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"event_id", "commence_time", "home", "away",
	"spread_home", "spread_away", "total",
	"ml_home", "ml_away", "win_home", "win_away",
	"circa_spread_home", "circa_spread_away", "circa_total",
	"books_spreads", "books_totals", "books_h2h",
}

func csvCell(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// WriteCSV dumps the consensus snapshot for inspection or archival.
func WriteCSV(path string, games []GameOdds) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, g := range games {
		rec := []string{
			g.EventID, g.CommenceTime, g.Home, g.Away,
			csvCell(g.SpreadHome, 1), csvCell(g.SpreadAway, 1), csvCell(g.Total, 1),
			csvCell(g.MLHome, 0), csvCell(g.MLAway, 0),
			csvCell(g.WinHome, 4), csvCell(g.WinAway, 4),
			csvCell(g.CircaSpreadHome, 1), csvCell(g.CircaSpreadAway, 1), csvCell(g.CircaTotal, 1),
			strconv.Itoa(g.BooksSpreads), strconv.Itoa(g.BooksTotals), strconv.Itoa(g.BooksH2H),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cellFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// LoadCSV reads a snapshot written by WriteCSV.
func LoadCSV(path string) ([]GameOdds, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(recs) < 2 {
		return nil, nil
	}
	idx := map[string]int{}
	for i, h := range recs[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cell := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	out := make([]GameOdds, 0, len(recs)-1)
	for _, rec := range recs[1:] {
		g := GameOdds{
			EventID:      cell(rec, "event_id"),
			CommenceTime: cell(rec, "commence_time"),
			Home:         strings.ToUpper(cell(rec, "home")),
			Away:         strings.ToUpper(cell(rec, "away")),
			SpreadHome:   cellFloat(cell(rec, "spread_home")),
			SpreadAway:   cellFloat(cell(rec, "spread_away")),
			Total:        cellFloat(cell(rec, "total")),
			MLHome:       cellFloat(cell(rec, "ml_home")),
			MLAway:       cellFloat(cell(rec, "ml_away")),
			WinHome:      cellFloat(cell(rec, "win_home")),
			WinAway:      cellFloat(cell(rec, "win_away")),
		}
		if g.Home == "" || g.Away == "" {
			continue
		}
		// probabilities rebuild from the lines when the file predates them
		if math.IsNaN(g.WinHome) {
			g.WinHome = AmericanToProb(g.MLHome)
		}
		if math.IsNaN(g.WinAway) {
			g.WinAway = AmericanToProb(g.MLAway)
		}
		out = append(out, g)
	}
	return out, nil
}
