// Package dvoa turns weekly DVOA snapshots into the level and trend features
// the spot-value scorer consumes: total-DVOA gap vs the opponent, a
// short-term EMA(3) trend in percentage points, and a categorical band.
package dvoa

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
	"github.com/nflpicks/survivor-tools/internal/teams"
)

// Snapshot is one team's total DVOA on one snapshot date.
type Snapshot struct {
	Team         string
	TotDVOAPct   float64 // percentage points, e.g. 12.3 for +12.3%
	SnapshotDate string  // ISO date; sorts lexically
}

// ReadSnapshots parses a snapshot CSV with TEAM, TOT_DVOA_PCT (or TOT DVOA,
// possibly with a % suffix) and optionally SNAPSHOT_DATE columns.
func ReadSnapshots(r io.Reader) ([]Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dvoa header: %w", err)
	}
	idx := func(names ...string) int {
		for i, h := range header {
			hn := strings.ToUpper(strings.TrimSpace(h))
			for _, n := range names {
				if hn == n {
					return i
				}
			}
		}
		return -1
	}
	iTeam := idx("TEAM")
	iDVOA := idx("TOT_DVOA_PCT", "TOT DVOA", "TOTAL DVOA")
	iDate := idx("SNAPSHOT_DATE", "DATE")
	if iTeam < 0 || iDVOA < 0 {
		return nil, fmt.Errorf("dvoa CSV needs TEAM and TOT_DVOA_PCT columns, got %v", header)
	}

	var out []Snapshot
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dvoa row: %w", err)
		}
		get := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		team := teams.Norm(get(iTeam))
		if !teams.Known(team) {
			continue
		}
		raw := strings.TrimSuffix(get(iDVOA), "%")
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Team: team, TotDVOAPct: v, SnapshotDate: get(iDate)})
	}
	return out, nil
}

// LoadSnapshots reads a snapshot CSV from disk.
func LoadSnapshots(path string) ([]Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dvoa snapshots %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshots(f)
}

// ema3 runs an exponential moving average with span 3 (alpha = 0.5),
// seeded with the first point.
func ema3(xs []float64) []float64 {
	const alpha = 2.0 / (3 + 1)
	out := make([]float64, len(xs))
	for i, x := range xs {
		if i == 0 {
			out[i] = x
			continue
		}
		out[i] = alpha*x + (1-alpha)*out[i-1]
	}
	return out
}

// Trends summarizes a team's DVOA time series: latest level and how far the
// latest point sits above its EMA(3), in percentage points.
type Trends struct {
	LatestPP float64
	Trend3PP float64
}

// ComputeTrends collapses the full snapshot series into per-team trend
// numbers, ordering each team's series by snapshot date.
func ComputeTrends(snaps []Snapshot) map[string]Trends {
	series := make(map[string][]Snapshot)
	for _, s := range snaps {
		series[s.Team] = append(series[s.Team], s)
	}
	out := make(map[string]Trends, len(series))
	for team, ss := range series {
		sort.SliceStable(ss, func(a, b int) bool { return ss[a].SnapshotDate < ss[b].SnapshotDate })
		vals := make([]float64, len(ss))
		for i, s := range ss {
			vals[i] = s.TotDVOAPct
		}
		ema := ema3(vals)
		last := len(vals) - 1
		out[team] = Trends{
			LatestPP: vals[last],
			Trend3PP: vals[last] - ema[last],
		}
	}
	return out
}

// Band buckets a trend delta: ±3pp separates Up/Down from Flat.
func Band(trend3pp float64) string {
	switch {
	case math.IsNaN(trend3pp):
		return "Unknown"
	case trend3pp >= 3.0:
		return "Up"
	case trend3pp <= -3.0:
		return "Down"
	}
	return "Flat"
}

// MergeInto overwrites the roadmap's DVOA feature columns from the trend
// summary. Rows whose team or opponent has no snapshot keep missing values
// and score a neutral DVOA contribution.
func MergeInto(t *roadmap.Table, trends map[string]Trends) (missing int) {
	for i := range t.Rows {
		r := &t.Rows[i]
		team, teamOK := trends[r.Team]
		opp, oppOK := trends[r.Opponent]

		if teamOK {
			r.TeamTotDVOA = team.LatestPP
			r.Trend3PP = team.Trend3PP
			r.TrendBand = Band(team.Trend3PP)
		} else {
			r.TeamTotDVOA = math.NaN()
			r.Trend3PP = math.NaN()
			r.TrendBand = "Unknown"
		}
		if oppOK {
			r.OppTotDVOA = opp.LatestPP
		} else {
			r.OppTotDVOA = math.NaN()
		}

		if teamOK && oppOK {
			r.DVOAGapPP = team.LatestPP - opp.LatestPP
			r.DVOAGapDec = r.DVOAGapPP / 100.0
		} else {
			r.DVOAGapPP = math.NaN()
			r.DVOAGapDec = math.NaN()
			if !r.IsBye() {
				missing++
			}
		}
	}
	return missing
}
