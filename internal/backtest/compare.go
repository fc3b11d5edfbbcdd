// Package backtest compares scoring outputs under alternative
// future-good thresholds so a threshold change can be judged before
// adopting it.
package backtest

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
	"github.com/nflpicks/survivor-tools/internal/spotvalue"
)

// Diff is one row whose scarcity output moved between the two thresholds.
type Diff struct {
	Week        int
	Team        string
	Opponent    string
	ProjWinProb float64

	ScarcityA float64
	ScarcityB float64
	ScoreA    float64
	ScoreB    float64
	BucketA   string
	BucketB   string
	FlagA     bool
	FlagB     bool
}

// Report summarizes an A/B run. ThreshA is the incumbent threshold,
// ThreshB the candidate.
type Report struct {
	ThreshA float64
	ThreshB float64

	Rows        int
	Affected    []Diff
	BucketMoves int
	FlagMoves   int
	// BandRows counts games whose win probability sits between the two
	// thresholds, the population that drives every difference above.
	BandRows int
}

func cloneTable(t *roadmap.Table) *roadmap.Table {
	rows := make([]roadmap.Row, len(t.Rows))
	copy(rows, t.Rows)
	return roadmap.New(rows)
}

func applyWith(t *roadmap.Table, cfg spotvalue.Config, thresh float64) (*roadmap.Table, error) {
	c := cfg
	c.FutureGoodThresh = thresh
	out := cloneTable(t)
	if err := spotvalue.Apply(out, c); err != nil {
		return nil, err
	}
	return out, nil
}

// CompareThresholds scores the same roadmap twice and diffs scarcity
// output, final score, bucket, and the now-or-never flag per row.
func CompareThresholds(t *roadmap.Table, cfg spotvalue.Config, threshA, threshB float64) (*Report, error) {
	a, err := applyWith(t, cfg, threshA)
	if err != nil {
		return nil, fmt.Errorf("score at %.2f: %w", threshA, err)
	}
	b, err := applyWith(t, cfg, threshB)
	if err != nil {
		return nil, fmt.Errorf("score at %.2f: %w", threshB, err)
	}
	if len(a.Rows) != len(b.Rows) {
		return nil, fmt.Errorf("row count mismatch: %d vs %d", len(a.Rows), len(b.Rows))
	}

	lo := math.Min(threshA, threshB)
	hi := math.Max(threshA, threshB)

	rep := &Report{ThreshA: threshA, ThreshB: threshB, Rows: len(a.Rows)}
	for i := range a.Rows {
		ra, rb := a.Rows[i], b.Rows[i]
		if ra.IsBye() {
			continue
		}
		if !math.IsNaN(ra.ProjWinProb) && ra.ProjWinProb >= lo && ra.ProjWinProb < hi {
			rep.BandRows++
		}

		scarcityMoved := !sameFloat(ra.SvScarcity, rb.SvScarcity)
		bucketMoved := ra.SpotValue != rb.SpotValue
		flagMoved := ra.NowOrNever != rb.NowOrNever
		if !scarcityMoved && !bucketMoved && !flagMoved {
			continue
		}
		if bucketMoved {
			rep.BucketMoves++
		}
		if flagMoved {
			rep.FlagMoves++
		}
		rep.Affected = append(rep.Affected, Diff{
			Week: ra.Week, Team: ra.Team, Opponent: ra.Opponent,
			ProjWinProb: ra.ProjWinProb,
			ScarcityA:   ra.SvScarcity, ScarcityB: rb.SvScarcity,
			ScoreA: ra.SpotValueScore, ScoreB: rb.SpotValueScore,
			BucketA: ra.SpotValue, BucketB: rb.SpotValue,
			FlagA: ra.NowOrNever, FlagB: rb.NowOrNever,
		})
	}
	return rep, nil
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}

func fmtF(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// WriteCSV dumps the affected rows for side-by-side review.
func (rep *Report) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"week", "team", "opponent", "projected_win_prob",
		fmt.Sprintf("scarcity_%.2f", rep.ThreshA), fmt.Sprintf("scarcity_%.2f", rep.ThreshB),
		fmt.Sprintf("score_%.2f", rep.ThreshA), fmt.Sprintf("score_%.2f", rep.ThreshB),
		fmt.Sprintf("bucket_%.2f", rep.ThreshA), fmt.Sprintf("bucket_%.2f", rep.ThreshB),
		fmt.Sprintf("now_or_never_%.2f", rep.ThreshA), fmt.Sprintf("now_or_never_%.2f", rep.ThreshB),
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, d := range rep.Affected {
		rec := []string{
			strconv.Itoa(d.Week), d.Team, d.Opponent, fmtF(d.ProjWinProb, 4),
			fmtF(d.ScarcityA, 4), fmtF(d.ScarcityB, 4),
			fmtF(d.ScoreA, 4), fmtF(d.ScoreB, 4),
			d.BucketA, d.BucketB,
			strconv.FormatBool(d.FlagA), strconv.FormatBool(d.FlagB),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
