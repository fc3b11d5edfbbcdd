package dvoa

import (
	"math"
	"strings"
	"testing"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

func TestReadSnapshots(t *testing.T) {
	csvText := `TEAM,TOT DVOA,SNAPSHOT_DATE
KC,12.3%,2025-10-01
WAS,-4.0,2025-10-01
TOT,99,2025-10-01
`
	snaps, err := ReadSnapshots(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ReadSnapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2 (TOT row dropped)", len(snaps))
	}
	if snaps[0].Team != "KC" || snaps[0].TotDVOAPct != 12.3 {
		t.Errorf("KC snapshot = %+v", snaps[0])
	}
	if snaps[1].Team != "WSH" {
		t.Errorf("WAS should normalize to WSH, got %s", snaps[1].Team)
	}
}

func TestEMA3(t *testing.T) {
	got := ema3([]float64{10, 20, 30})
	// alpha 0.5 seeded at 10: 10, 15, 22.5
	want := []float64{10, 15, 22.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("ema3[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestComputeTrends(t *testing.T) {
	snaps := []Snapshot{
		// deliberately out of date order
		{Team: "KC", TotDVOAPct: 20, SnapshotDate: "2025-10-15"},
		{Team: "KC", TotDVOAPct: 10, SnapshotDate: "2025-10-01"},
		{Team: "KC", TotDVOAPct: 12, SnapshotDate: "2025-10-08"},
	}
	trends := ComputeTrends(snaps)
	kc := trends["KC"]
	if kc.LatestPP != 20 {
		t.Errorf("LatestPP = %v, want 20", kc.LatestPP)
	}
	// ema: 10, 11, 15.5 → trend 20 − 15.5 = 4.5
	if math.Abs(kc.Trend3PP-4.5) > 1e-12 {
		t.Errorf("Trend3PP = %v, want 4.5", kc.Trend3PP)
	}
}

func TestBand(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{4.5, "Up"},
		{3.0, "Up"},
		{2.9, "Flat"},
		{-2.9, "Flat"},
		{-3.0, "Down"},
		{math.NaN(), "Unknown"},
	}
	for _, tc := range cases {
		if got := Band(tc.in); got != tc.want {
			t.Errorf("Band(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMergeInto(t *testing.T) {
	mk := func(team, opp string) roadmap.Row {
		r := roadmap.NewRow()
		r.Week = 5
		r.Team = team
		r.Opponent = opp
		return r
	}
	tbl := roadmap.New([]roadmap.Row{
		mk("KC", "LV"),
		mk("LV", "KC"),
		mk("NYJ", "MIA"), // no snapshots
	})
	trends := map[string]Trends{
		"KC": {LatestPP: 15, Trend3PP: 4},
		"LV": {LatestPP: -5, Trend3PP: -1},
	}
	missing := MergeInto(tbl, trends)
	if missing != 1 {
		t.Errorf("missing = %d, want 1", missing)
	}

	kc := tbl.Rows[0]
	if kc.DVOAGapPP != 20 || math.Abs(kc.DVOAGapDec-0.20) > 1e-12 {
		t.Errorf("KC gap = %v pp / %v dec, want 20 / 0.20", kc.DVOAGapPP, kc.DVOAGapDec)
	}
	if kc.TrendBand != "Up" {
		t.Errorf("KC band = %q, want Up", kc.TrendBand)
	}
	lv := tbl.Rows[1]
	if lv.DVOAGapPP != -20 {
		t.Errorf("LV gap = %v, want -20", lv.DVOAGapPP)
	}
	if lv.TrendBand != "Flat" {
		t.Errorf("LV band = %q, want Flat", lv.TrendBand)
	}
	nyj := tbl.Rows[2]
	if !math.IsNaN(nyj.DVOAGapDec) || nyj.TrendBand != "Unknown" {
		t.Errorf("NYJ should stay missing, got gap %v band %q", nyj.DVOAGapDec, nyj.TrendBand)
	}
}
